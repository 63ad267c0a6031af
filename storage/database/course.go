package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core/course"
	"github.com/shulehub/shule/core/user"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.NewString()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO courses (id, title, teacher_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		crs.ID, crs.Title, crs.TeacherID, crs.CreatedAt, crs.UpdatedAt,
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "creating course")
	}
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var crs course.Course
	if err := repo.db.GetContext(ctx, &crs, `SELECT * FROM courses WHERE id = ?`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return crs, nil
}

func (repo *courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	return repo.queryCourses(ctx, `SELECT * FROM courses ORDER BY created_at, id`)
}

func (repo *courseRepository) QueryCoursesByTeacher(ctx context.Context, teacherID string) ([]course.Course, error) {
	return repo.queryCourses(ctx, `SELECT * FROM courses WHERE teacher_id = ? ORDER BY created_at, id`, teacherID)
}

func (repo *courseRepository) QueryCoursesByStudent(ctx context.Context, studentID string) ([]course.Course, error) {
	return repo.queryCourses(ctx,
		`SELECT c.* FROM courses c
		 JOIN enrollments e ON e.course_id = c.id
		 WHERE e.student_id = ?
		 ORDER BY c.created_at, c.id`, studentID)
}

func (repo *courseRepository) queryCourses(ctx context.Context, query string, args ...interface{}) ([]course.Course, error) {
	var courses []course.Course
	if err := repo.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return courses, nil
}

// DeleteCourse removes the course; enrollments, materials, grades, tests,
// questions and results go with it via ON DELETE CASCADE.
func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if n == 0 {
		return course.ErrNotFound
	}
	return nil
}

func (repo *courseRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment) (course.Enrollment, error) {
	enr.ID = uuid.NewString()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO enrollments (id, student_id, course_id, created_at) VALUES (?, ?, ?, ?)`,
		enr.ID, enr.StudentID, enr.CourseID, enr.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "enrollments.student_id") {
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		}
		return course.Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	return enr, nil
}

func (repo *courseRepository) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	var enrolled bool
	err := repo.db.GetContext(ctx, &enrolled,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE student_id = ? AND course_id = ?)`,
		studentID, courseID)
	if err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return enrolled, nil
}

func (repo *courseRepository) QueryStudentsByCourse(ctx context.Context, courseID string) ([]user.User, error) {
	var students []user.User
	err := repo.db.SelectContext(ctx, &students,
		`SELECT u.* FROM users u
		 JOIN enrollments e ON e.student_id = u.id
		 WHERE e.course_id = ?
		 ORDER BY u.name, u.id`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

// UpsertGrade writes the grade in one atomic statement: insert when the
// (student, course) pair has no grade yet, replace the value otherwise.
func (repo *courseRepository) UpsertGrade(ctx context.Context, grd course.Grade) (course.Grade, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO grades (id, student_id, course_id, value, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (student_id, course_id) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		uuid.NewString(), grd.StudentID, grd.CourseID, grd.Value, grd.UpdatedAt,
	)
	if err != nil {
		return course.Grade{}, errors.Wrap(err, "upserting grade")
	}

	var stored course.Grade
	err = repo.db.GetContext(ctx, &stored,
		`SELECT * FROM grades WHERE student_id = ? AND course_id = ?`, grd.StudentID, grd.CourseID)
	if err != nil {
		return course.Grade{}, errors.Wrap(err, "reading back grade")
	}
	return stored, nil
}

func (repo *courseRepository) QueryGradesByStudent(ctx context.Context, studentID string) ([]course.Grade, error) {
	var grades []course.Grade
	err := repo.db.SelectContext(ctx, &grades,
		`SELECT * FROM grades WHERE student_id = ? ORDER BY updated_at, id`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	return grades, nil
}

func (repo *courseRepository) CreateMaterial(ctx context.Context, mat course.Material) (course.Material, error) {
	mat.ID = uuid.NewString()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO materials (id, course_id, content, created_at) VALUES (?, ?, ?, ?)`,
		mat.ID, mat.CourseID, mat.Content, mat.CreatedAt,
	)
	if err != nil {
		return course.Material{}, errors.Wrap(err, "creating material")
	}
	return mat, nil
}

func (repo *courseRepository) QueryMaterialsByCourse(ctx context.Context, courseID string) ([]course.Material, error) {
	var materials []course.Material
	err := repo.db.SelectContext(ctx, &materials,
		`SELECT * FROM materials WHERE course_id = ? ORDER BY created_at, id`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying materials")
	}
	return materials, nil
}
