package quiz

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shulehub/shule/core"
)

// Option identifies one of the four answer options of a question.
type Option string

const (
	OptionA Option = "A"
	OptionB Option = "B"
	OptionC Option = "C"
	OptionD Option = "D"
)

func (o Option) Valid() bool {
	switch o {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

type Test struct {
	ID          string     `json:"id" db:"id"`
	CourseID    string     `json:"course_id" db:"course_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"` // UTC
	Questions   []Question `json:"questions,omitempty"`
}

type Question struct {
	ID          string `json:"id" db:"id"`
	TestID      string `json:"test_id" db:"test_id"`
	Text        string `json:"text" db:"text"`
	OptionA     string `json:"option_a" db:"option_a"`
	OptionB     string `json:"option_b" db:"option_b"`
	OptionC     string `json:"option_c" db:"option_c"`
	OptionD     string `json:"option_d" db:"option_d"`
	Correct     Option `json:"correct" db:"correct"`
	OrderNumber int    `json:"order_number" db:"order_number"`
}

// TestResult is the single stored outcome of a student's attempt at a test.
type TestResult struct {
	TestID    string    `json:"test_id" db:"test_id"`
	StudentID string    `json:"student_id" db:"student_id"`
	Score     float64   `json:"score" db:"score"` // percentage, 0-100
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

// Answer is one slot of a submission. Selected may be blank, which counts as wrong.
type Answer struct {
	QuestionID string `json:"question_id" validate:"required"`
	Selected   Option `json:"selected" validate:"omitempty,option"`
}

// NewTest contains a test and its questions, persisted as one unit.
type NewTest struct {
	Title       string        `json:"title" validate:"required"`
	Description string        `json:"description"`
	Questions   []NewQuestion `json:"questions" validate:"required,min=1,max=10,dive"`
}

type NewQuestion struct {
	Text    string `json:"text" validate:"required"`
	OptionA string `json:"option_a" validate:"required"`
	OptionB string `json:"option_b" validate:"required"`
	OptionC string `json:"option_c" validate:"required"`
	OptionD string `json:"option_d" validate:"required"`
	Correct Option `json:"correct" validate:"required,option"`
}

func (nt *NewTest) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	for i := range nt.Questions {
		q := &nt.Questions[i]
		q.Text = core.CleanString(q.Text)
		q.OptionA = core.CleanString(q.OptionA)
		q.OptionB = core.CleanString(q.OptionB)
		q.OptionC = core.CleanString(q.OptionC)
		q.OptionD = core.CleanString(q.OptionD)
	}
	return validate.Struct(nt)
}

// Submission is the full set of answers a student turns in for a test.
type Submission struct {
	Answers []Answer `json:"answers" validate:"required,min=1,dive"`
}

func (s *Submission) Validate(validate *validator.Validate) error {
	return validate.Struct(s)
}
