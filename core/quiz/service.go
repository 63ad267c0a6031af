package quiz

import (
	"context"
	"errors"
	"time"

	"github.com/shulehub/shule/core"
)

var (
	// errors
	ErrNotFound       = errors.New("test not found")
	ErrResultNotFound = errors.New("no result for this test and student")
	ErrAlreadyTaken   = errors.New("test already taken")
)

type (
	Repository interface {
		// CreateTest persists the test and its questions in one transaction.
		CreateTest(ctx context.Context, tst Test) (Test, error)
		// GetTestByID returns the test with questions ordered by order number.
		GetTestByID(ctx context.Context, id string) (Test, error)
		QueryTestsByCourse(ctx context.Context, courseID string) ([]Test, error)

		GetResult(ctx context.Context, testID, studentID string) (TestResult, error)
		// CreateResultIfAbsent inserts the result unless one exists for the
		// (test, student) pair; the bool reports whether the insert happened.
		CreateResultIfAbsent(ctx context.Context, res TestResult) (bool, error)
		QueryResultsByTest(ctx context.Context, testID string) ([]TestResult, error)
	}

	Service interface {
		Create(ctx context.Context, courseID string, nt NewTest) (Test, error)
		GetByID(ctx context.Context, id string) (Test, error)
		ForCourse(ctx context.Context, courseID string) ([]Test, error)
		HasTaken(ctx context.Context, testID, studentID string) (bool, error)
		Result(ctx context.Context, testID, studentID string) (TestResult, error)
		ResultsForTest(ctx context.Context, testID string) ([]TestResult, error)
		Submit(ctx context.Context, testID, studentID string, answers []Answer) (TestResult, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, courseID string, nt NewTest) (Test, error) {
	tst := Test{
		CourseID:    courseID,
		Title:       nt.Title,
		Description: nt.Description,
		CreatedAt:   time.Now().UTC(),
	}
	for i, nq := range nt.Questions {
		tst.Questions = append(tst.Questions, Question{
			Text:        nq.Text,
			OptionA:     nq.OptionA,
			OptionB:     nq.OptionB,
			OptionC:     nq.OptionC,
			OptionD:     nq.OptionD,
			Correct:     nq.Correct,
			OrderNumber: i + 1,
		})
	}
	return svc.repo.CreateTest(ctx, tst)
}

func (svc *service) GetByID(ctx context.Context, id string) (Test, error) {
	return svc.repo.GetTestByID(ctx, id)
}

func (svc *service) ForCourse(ctx context.Context, courseID string) ([]Test, error) {
	return svc.repo.QueryTestsByCourse(ctx, courseID)
}

func (svc *service) HasTaken(ctx context.Context, testID, studentID string) (bool, error) {
	if _, err := svc.repo.GetResult(ctx, testID, studentID); err != nil {
		if err == ErrResultNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (svc *service) Result(ctx context.Context, testID, studentID string) (TestResult, error) {
	return svc.repo.GetResult(ctx, testID, studentID)
}

func (svc *service) ResultsForTest(ctx context.Context, testID string) ([]TestResult, error) {
	return svc.repo.QueryResultsByTest(ctx, testID)
}

// Submit scores the answers against the stored questions and records the result.
// Attempts are single-shot: once a result exists for the (test, student) pair the
// stored result is returned along with ErrAlreadyTaken, and no second row is written.
func (svc *service) Submit(ctx context.Context, testID, studentID string, answers []Answer) (TestResult, error) {
	tst, err := svc.repo.GetTestByID(ctx, testID)
	if err != nil {
		return TestResult{}, err
	}
	if len(answers) != len(tst.Questions) {
		return TestResult{}, core.NewValidationError(nil, core.FieldError{
			Field: "answers",
			Error: "a submission must include exactly one answer slot per question",
		})
	}

	res := TestResult{
		TestID:    testID,
		StudentID: studentID,
		Score:     Score(tst.Questions, answers),
		CreatedAt: time.Now().UTC(),
	}
	inserted, err := svc.repo.CreateResultIfAbsent(ctx, res)
	if err != nil {
		return TestResult{}, err
	}
	if !inserted {
		stored, err := svc.repo.GetResult(ctx, testID, studentID)
		if err != nil {
			return TestResult{}, err
		}
		return stored, ErrAlreadyTaken
	}
	return res, nil
}

// Score computes the percentage of questions answered with the correct option.
// An answer slot with a blank or unknown question id counts as wrong.
func Score(questions []Question, answers []Answer) float64 {
	if len(questions) == 0 {
		return 0
	}
	selected := make(map[string]Option, len(answers))
	for _, ans := range answers {
		selected[ans.QuestionID] = ans.Selected
	}
	var correct int
	for _, q := range questions {
		if sel, ok := selected[q.ID]; ok && sel == q.Correct {
			correct++
		}
	}
	return 100 * float64(correct) / float64(len(questions))
}
