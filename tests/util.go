package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/course"
	"github.com/shulehub/shule/core/quiz"
	"github.com/shulehub/shule/core/user"
	"github.com/shulehub/shule/storage/database"
)

// NewConfig returns a test configuration with an in-memory database.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true
	conf.Database.Path = ":memory:"
	return conf
}

// OpenDB opens a migrated in-memory database that lives as long as the test.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.Open(NewConfig())
	if err != nil {
		t.Fatalf("openDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("openDB() failed: %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	role user.Role,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, repo course.Repository, title, teacherID string) course.Course {
	t.Helper()

	tstamp := time.Now().UTC()
	crs, err := repo.CreateCourse(context.Background(), course.Course{
		Title:     title,
		TeacherID: teacherID,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return crs
}

func CreateEnrollment(t *testing.T, repo course.Repository, studentID, courseID string) course.Enrollment {
	t.Helper()

	enr, err := repo.CreateEnrollment(context.Background(), course.Enrollment{
		StudentID: studentID,
		CourseID:  courseID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("createEnrollment() failed: %v", err)
	}
	return enr
}

// CreateTest persists a test with four questions whose correct options are A, B, C, D.
func CreateTest(t *testing.T, repo quiz.Repository, courseID, title string) quiz.Test {
	t.Helper()

	tst := quiz.Test{
		CourseID:  courseID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	for i, correct := range []quiz.Option{quiz.OptionA, quiz.OptionB, quiz.OptionC, quiz.OptionD} {
		tst.Questions = append(tst.Questions, quiz.Question{
			Text:        "Question " + string(correct),
			OptionA:     "a",
			OptionB:     "b",
			OptionC:     "c",
			OptionD:     "d",
			Correct:     correct,
			OrderNumber: i + 1,
		})
	}
	tst, err := repo.CreateTest(context.Background(), tst)
	if err != nil {
		t.Fatalf("createTest() failed: %v", err)
	}
	return tst
}
