package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core/course"
	"github.com/shulehub/shule/core/user"
)

type courseApi struct {
	svc      course.Service
	userSvc  user.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := courseApi{
		svc:      opts.CourseSvc,
		userSvc:  opts.UserSvc,
		validate: opts.Validate,
	}

	cg := g.Group("/courses", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, adminMiddleware())

	dg := cg.Group("/:id")
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.POST("/enroll", api.enroll, adminMiddleware())
	dg.GET("/students", api.students, staffMiddleware())
	dg.GET("/materials", api.materials)
	dg.POST("/materials", api.addMaterial, staffMiddleware())
	dg.PUT("/grades", api.assignGrade, staffMiddleware())

	sg := g.Group("/students/:id", jwt)
	sg.GET("/grades", api.studentGrades)
	sg.GET("/average", api.studentAverage)
}

// getCourse resolves the :id param, mapping a missing course to a 404.
func (api *courseApi) getCourse(ctx echo.Context) (course.Course, error) {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return course.Course{}, errHttpNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course by ID")
	}
	return crs, nil
}

// checkCourseOwner lets admins and the course's own teacher through.
func checkCourseOwner(claims Claims, crs course.Course) error {
	if claims.IsAdmin || (claims.IsTeacher && crs.TeacherID == claims.Subject) {
		return nil
	}
	return errHttpForbidden
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	courses, err := api.svc.QueryForUser(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	crs, err := api.getCourse(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), crs.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	crs, err := api.getCourse(ctx)
	if err != nil {
		return err
	}

	var data EnrollRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	enr, err := api.svc.Enroll(ctx.Request().Context(), data.StudentID, crs.ID)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *courseApi) students(ctx echo.Context) error {
	crs, err := api.getCourse(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = checkCourseOwner(claims, crs); err != nil {
		return err
	}

	students, err := api.svc.Students(ctx.Request().Context(), crs.ID)
	if err != nil {
		return errors.Wrap(err, "querying course students")
	}
	if students == nil {
		students = []user.User{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *courseApi) materials(ctx echo.Context) error {
	crs, err := api.getCourse(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = checkCourseOwner(claims, crs); err != nil {
		// students get in when enrolled
		enrolled, eErr := api.svc.IsEnrolled(ctx.Request().Context(), claims.Subject, crs.ID)
		if eErr != nil {
			return errors.Wrap(eErr, "checking enrollment")
		}
		if !(claims.IsStudent && enrolled) {
			return err
		}
	}

	materials, err := api.svc.Materials(ctx.Request().Context(), crs.ID)
	if err != nil {
		return errors.Wrap(err, "querying course materials")
	}
	if materials == nil {
		materials = []course.Material{}
	}
	return ctx.JSON(http.StatusOK, materials)
}

func (api *courseApi) addMaterial(ctx echo.Context) error {
	crs, err := api.getCourse(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = checkCourseOwner(claims, crs); err != nil {
		return err
	}

	var data course.NewMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaterial")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mat, err := api.svc.AddMaterial(ctx.Request().Context(), crs.ID, data.Content)
	if err != nil {
		return errors.Wrap(err, "adding course material")
	}
	return ctx.JSON(http.StatusCreated, mat)
}

func (api *courseApi) assignGrade(ctx echo.Context) error {
	crs, err := api.getCourse(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = checkCourseOwner(claims, crs); err != nil {
		return err
	}

	var data course.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	grd, err := api.svc.AssignGrade(ctx.Request().Context(), crs.ID, data.StudentID, data.Value)
	if err != nil {
		return errors.Wrap(err, "assigning grade")
	}
	return ctx.JSON(http.StatusOK, grd)
}

// checkSelfOrAdmin guards student detail endpoints: the student themselves or an admin.
func checkSelfOrAdmin(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}
	studentID := ctx.Param("id")
	if !(claims.IsAdmin || claims.Subject == studentID) {
		return "", errHttpForbidden
	}
	return studentID, nil
}

func (api *courseApi) studentGrades(ctx echo.Context) error {
	studentID, err := checkSelfOrAdmin(ctx)
	if err != nil {
		return err
	}

	grades, err := api.svc.GradesForStudent(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "querying student grades")
	}
	if grades == nil {
		grades = []course.Grade{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *courseApi) studentAverage(ctx echo.Context) error {
	studentID, err := checkSelfOrAdmin(ctx)
	if err != nil {
		return err
	}

	avg, graded, err := api.svc.AverageGrade(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "computing average grade")
	}

	res := AverageResponse{StudentID: studentID}
	if graded {
		res.Average = &avg
	}
	return ctx.JSON(http.StatusOK, res)
}
