package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core/course"
	"github.com/shulehub/shule/core/quiz"
)

type quizApi struct {
	svc       quiz.Service
	courseSvc course.Service
	validate  *validator.Validate
}

func registerQuizAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := quizApi{
		svc:       opts.QuizSvc,
		courseSvc: opts.CourseSvc,
		validate:  opts.Validate,
	}

	cg := g.Group("/courses/:id/tests", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, staffMiddleware())

	tg := g.Group("/tests/:id", jwt)
	tg.GET("", api.retrieve)
	tg.POST("/submit", api.submit)
	tg.GET("/result", api.result)
	tg.GET("/results", api.results, staffMiddleware())
}

// getTest resolves the :id param, mapping a missing test to a 404.
func (api *quizApi) getTest(ctx echo.Context) (quiz.Test, error) {
	tst, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == quiz.ErrNotFound {
			return quiz.Test{}, errHttpNotFound
		}
		return quiz.Test{}, errors.Wrap(err, "finding test by ID")
	}
	return tst, nil
}

// checkCourseAccess lets admins, the course's teacher and enrolled students through.
func (api *quizApi) checkCourseAccess(ctx echo.Context, claims Claims, courseID string) error {
	crs, err := api.courseSvc.GetByID(ctx.Request().Context(), courseID)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding course by ID")
	}
	if err = checkCourseOwner(claims, crs); err == nil {
		return nil
	}
	if claims.IsStudent {
		enrolled, err := api.courseSvc.IsEnrolled(ctx.Request().Context(), claims.Subject, courseID)
		if err != nil {
			return errors.Wrap(err, "checking enrollment")
		}
		if enrolled {
			return nil
		}
	}
	return errHttpForbidden
}

// Handlers

func (api *quizApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	courseID := ctx.Param("id")
	if err = api.checkCourseAccess(ctx, claims, courseID); err != nil {
		return err
	}

	tests, err := api.svc.ForCourse(ctx.Request().Context(), courseID)
	if err != nil {
		return errors.Wrap(err, "querying course tests")
	}
	if tests == nil {
		tests = []quiz.Test{}
	}
	return ctx.JSON(http.StatusOK, tests)
}

func (api *quizApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	courseID := ctx.Param("id")
	crs, err := api.courseSvc.GetByID(ctx.Request().Context(), courseID)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding course by ID")
	}
	if err = checkCourseOwner(claims, crs); err != nil {
		return err
	}

	var data quiz.NewTest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tst, err := api.svc.Create(ctx.Request().Context(), crs.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating test")
	}
	return ctx.JSON(http.StatusCreated, tst)
}

func (api *quizApi) retrieve(ctx echo.Context) error {
	tst, err := api.getTest(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = api.checkCourseAccess(ctx, claims, tst.CourseID); err != nil {
		return err
	}

	// students never see the correct options
	if claims.IsStudent {
		return ctx.JSON(http.StatusOK, newStudentTestView(tst))
	}
	return ctx.JSON(http.StatusOK, tst)
}

func (api *quizApi) submit(ctx echo.Context) error {
	tst, err := api.getTest(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsStudent {
		return errHttpForbidden
	}
	if err = api.checkCourseAccess(ctx, claims, tst.CourseID); err != nil {
		return err
	}

	var data quiz.Submission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Submission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.Submit(ctx.Request().Context(), tst.ID, claims.Subject, data.Answers)
	if err != nil {
		if errors.Cause(err) == quiz.ErrAlreadyTaken {
			// the stored result stands; no second attempt is recorded
			return ctx.JSON(http.StatusConflict, res)
		}
		return errors.Wrap(err, "submitting test")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *quizApi) result(ctx echo.Context) error {
	tst, err := api.getTest(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsStudent {
		return errHttpForbidden
	}

	res, err := api.svc.Result(ctx.Request().Context(), tst.ID, claims.Subject)
	if err != nil {
		if errors.Cause(err) == quiz.ErrResultNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding test result")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *quizApi) results(ctx echo.Context) error {
	tst, err := api.getTest(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = api.checkCourseAccess(ctx, claims, tst.CourseID); err != nil {
		return err
	}
	if claims.IsStudent {
		return errHttpForbidden
	}

	results, err := api.svc.ResultsForTest(ctx.Request().Context(), tst.ID)
	if err != nil {
		return errors.Wrap(err, "querying test results")
	}
	if results == nil {
		results = []quiz.TestResult{}
	}
	return ctx.JSON(http.StatusOK, results)
}
