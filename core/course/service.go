package course

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("course not found")
	ErrAlreadyEnrolled = errors.New("student is already enrolled in this course")
	ErrNotEnrolled     = errors.New("student is not enrolled in this course")
	ErrNotTeacher      = errors.New("user is not a teacher")
	ErrNotStudent      = errors.New("user is not a student")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		QueryAllCourses(ctx context.Context) ([]Course, error)
		QueryCoursesByTeacher(ctx context.Context, teacherID string) ([]Course, error)
		QueryCoursesByStudent(ctx context.Context, studentID string) ([]Course, error)
		// DeleteCourse removes the course and everything hanging off it
		// (enrollments, materials, grades, tests) in one transaction.
		DeleteCourse(ctx context.Context, id string) error

		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error)
		QueryStudentsByCourse(ctx context.Context, courseID string) ([]user.User, error)

		// UpsertGrade atomically replaces-or-inserts the grade keyed on (student, course).
		UpsertGrade(ctx context.Context, grd Grade) (Grade, error)
		QueryGradesByStudent(ctx context.Context, studentID string) ([]Grade, error)

		CreateMaterial(ctx context.Context, mat Material) (Material, error)
		QueryMaterialsByCourse(ctx context.Context, courseID string) ([]Material, error)
	}

	// UserDirectory is the slice of the user service the course workflows need.
	UserDirectory interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service interface {
		Create(ctx context.Context, nc NewCourse) (Course, error)
		GetByID(ctx context.Context, id string) (Course, error)
		Delete(ctx context.Context, id string) error
		QueryForUser(ctx context.Context, usr user.User) ([]Course, error)
		Enroll(ctx context.Context, studentID, courseID string) (Enrollment, error)
		IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error)
		Students(ctx context.Context, courseID string) ([]user.User, error)
		AssignGrade(ctx context.Context, courseID, studentID string, value float64) (Grade, error)
		GradesForStudent(ctx context.Context, studentID string) ([]Grade, error)
		AverageGrade(ctx context.Context, studentID string) (float64, bool, error)
		AddMaterial(ctx context.Context, courseID, content string) (Material, error)
		Materials(ctx context.Context, courseID string) ([]Material, error)
	}

	service struct {
		repo  Repository
		users UserDirectory
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, users UserDirectory) Service {
	return &service{repo: repo, users: users}
}

func (svc *service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	tchr, err := svc.users.GetByID(ctx, nc.TeacherID)
	if err != nil {
		if err == user.ErrNotFound {
			return Course{}, core.NewValidationError(err, core.FieldError{Field: "teacher_id", Error: err.Error()})
		}
		return Course{}, err
	}
	if !tchr.IsTeacher() {
		return Course{}, core.NewValidationError(ErrNotTeacher, core.FieldError{Field: "teacher_id", Error: ErrNotTeacher.Error()})
	}

	now := time.Now().UTC()
	return svc.repo.CreateCourse(ctx, Course{
		Title:     nc.Title,
		TeacherID: tchr.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	if _, err := svc.repo.GetCourseByID(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteCourse(ctx, id)
}

// QueryForUser lists the courses visible to the user: admins see all,
// teachers their own, students those they are enrolled in.
func (svc *service) QueryForUser(ctx context.Context, usr user.User) ([]Course, error) {
	switch usr.Role {
	case user.RoleAdmin:
		return svc.repo.QueryAllCourses(ctx)
	case user.RoleTeacher:
		return svc.repo.QueryCoursesByTeacher(ctx, usr.ID)
	case user.RoleStudent:
		return svc.repo.QueryCoursesByStudent(ctx, usr.ID)
	}
	return nil, fmt.Errorf("unknown role %q", usr.Role)
}

func (svc *service) Enroll(ctx context.Context, studentID, courseID string) (Enrollment, error) {
	std, err := svc.users.GetByID(ctx, studentID)
	if err != nil {
		if err == user.ErrNotFound {
			return Enrollment{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return Enrollment{}, err
	}
	if !std.IsStudent() {
		return Enrollment{}, core.NewValidationError(ErrNotStudent, core.FieldError{Field: "student_id", Error: ErrNotStudent.Error()})
	}
	if _, err = svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return Enrollment{}, err
	}

	enr, err := svc.repo.CreateEnrollment(ctx, Enrollment{
		StudentID: std.ID,
		CourseID:  courseID,
		CreatedAt: time.Now().UTC(),
	})
	if err == ErrAlreadyEnrolled {
		return Enrollment{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
	}
	return enr, err
}

func (svc *service) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	return svc.repo.IsEnrolled(ctx, studentID, courseID)
}

func (svc *service) Students(ctx context.Context, courseID string) ([]user.User, error) {
	return svc.repo.QueryStudentsByCourse(ctx, courseID)
}

// AssignGrade records the student's grade for the course, replacing any prior one.
func (svc *service) AssignGrade(ctx context.Context, courseID, studentID string, value float64) (Grade, error) {
	enrolled, err := svc.repo.IsEnrolled(ctx, studentID, courseID)
	if err != nil {
		return Grade{}, err
	}
	if !enrolled {
		return Grade{}, core.NewValidationError(ErrNotEnrolled,
			core.FieldError{Field: "student_id", Error: ErrNotEnrolled.Error()})
	}
	return svc.repo.UpsertGrade(ctx, Grade{
		StudentID: studentID,
		CourseID:  courseID,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	})
}

func (svc *service) GradesForStudent(ctx context.Context, studentID string) ([]Grade, error) {
	return svc.repo.QueryGradesByStudent(ctx, studentID)
}

// AverageGrade returns the arithmetic mean of the student's grades.
// The bool is false when the student has no grades at all.
func (svc *service) AverageGrade(ctx context.Context, studentID string) (float64, bool, error) {
	grades, err := svc.repo.QueryGradesByStudent(ctx, studentID)
	if err != nil {
		return 0, false, err
	}
	if len(grades) == 0 {
		return 0, false, nil
	}
	var sum float64
	for _, grd := range grades {
		sum += grd.Value
	}
	return sum / float64(len(grades)), true, nil
}

func (svc *service) AddMaterial(ctx context.Context, courseID, content string) (Material, error) {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return Material{}, err
	}
	return svc.repo.CreateMaterial(ctx, Material{
		CourseID:  courseID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *service) Materials(ctx context.Context, courseID string) ([]Material, error) {
	return svc.repo.QueryMaterialsByCourse(ctx, courseID)
}
