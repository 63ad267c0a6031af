package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core/quiz"
)

type quizRepository struct {
	db *sqlx.DB
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *sqlx.DB) *quizRepository {
	return &quizRepository{db: db}
}

// CreateTest persists the test together with its questions; either all rows
// land or none do.
func (repo *quizRepository) CreateTest(ctx context.Context, tst quiz.Test) (quiz.Test, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return quiz.Test{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	tst.ID = uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO tests (id, course_id, title, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		tst.ID, tst.CourseID, tst.Title, tst.Description, tst.CreatedAt,
	)
	if err != nil {
		return quiz.Test{}, errors.Wrap(err, "creating test")
	}

	for i := range tst.Questions {
		q := &tst.Questions[i]
		q.ID = uuid.NewString()
		q.TestID = tst.ID
		_, err = tx.ExecContext(ctx,
			`INSERT INTO test_questions (id, test_id, text, option_a, option_b, option_c, option_d, correct, order_number)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			q.ID, q.TestID, q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.Correct, q.OrderNumber,
		)
		if err != nil {
			return quiz.Test{}, errors.Wrap(err, "creating test question")
		}
	}

	if err = tx.Commit(); err != nil {
		return quiz.Test{}, errors.Wrap(err, "committing test")
	}
	return tst, nil
}

func (repo *quizRepository) GetTestByID(ctx context.Context, id string) (quiz.Test, error) {
	var tst quiz.Test
	if err := repo.db.GetContext(ctx, &tst, `SELECT * FROM tests WHERE id = ?`, id); err != nil {
		if err == sql.ErrNoRows {
			return quiz.Test{}, quiz.ErrNotFound
		}
		return quiz.Test{}, errors.Wrap(err, "getting test")
	}

	err := repo.db.SelectContext(ctx, &tst.Questions,
		`SELECT * FROM test_questions WHERE test_id = ? ORDER BY order_number`, id)
	if err != nil {
		return quiz.Test{}, errors.Wrap(err, "getting test questions")
	}
	return tst, nil
}

func (repo *quizRepository) QueryTestsByCourse(ctx context.Context, courseID string) ([]quiz.Test, error) {
	var tests []quiz.Test
	err := repo.db.SelectContext(ctx, &tests,
		`SELECT * FROM tests WHERE course_id = ? ORDER BY created_at, id`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying tests")
	}
	return tests, nil
}

func (repo *quizRepository) GetResult(ctx context.Context, testID, studentID string) (quiz.TestResult, error) {
	var res quiz.TestResult
	err := repo.db.GetContext(ctx, &res,
		`SELECT * FROM test_results WHERE test_id = ? AND student_id = ?`, testID, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return quiz.TestResult{}, quiz.ErrResultNotFound
		}
		return quiz.TestResult{}, errors.Wrap(err, "getting test result")
	}
	return res, nil
}

// CreateResultIfAbsent relies on the (test_id, student_id) primary key: the
// insert is a no-op when a result already exists, so two concurrent
// submissions can never produce two rows.
func (repo *quizRepository) CreateResultIfAbsent(ctx context.Context, res quiz.TestResult) (bool, error) {
	r, err := repo.db.ExecContext(ctx,
		`INSERT INTO test_results (test_id, student_id, score, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (test_id, student_id) DO NOTHING`,
		res.TestID, res.StudentID, res.Score, res.CreatedAt,
	)
	if err != nil {
		return false, errors.Wrap(err, "creating test result")
	}
	n, err := r.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "creating test result")
	}
	return n > 0, nil
}

func (repo *quizRepository) QueryResultsByTest(ctx context.Context, testID string) ([]quiz.TestResult, error) {
	var results []quiz.TestResult
	err := repo.db.SelectContext(ctx, &results,
		`SELECT * FROM test_results WHERE test_id = ? ORDER BY created_at, student_id`, testID)
	if err != nil {
		return nil, errors.Wrap(err, "querying test results")
	}
	return results, nil
}
