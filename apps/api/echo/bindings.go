package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/quiz"
)

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	EnrollRequest struct {
		StudentID string `json:"student_id" validate:"required"`
	}

	// AverageResponse reports a student's mean grade; Average is null
	// when the student has no grades at all.
	AverageResponse struct {
		StudentID string   `json:"student_id"`
		Average   *float64 `json:"average"`
	}

	AskRequest struct {
		Prompt string `json:"prompt" validate:"required"`
	}

	AskResponse struct {
		Answer string `json:"answer,omitempty"`
		Error  string `json:"error,omitempty"`
	}

	// StudentQuestionView strips the correct option from a question.
	StudentQuestionView struct {
		ID          string `json:"id"`
		Text        string `json:"text"`
		OptionA     string `json:"option_a"`
		OptionB     string `json:"option_b"`
		OptionC     string `json:"option_c"`
		OptionD     string `json:"option_d"`
		OrderNumber int    `json:"order_number"`
	}

	StudentTestView struct {
		ID          string                `json:"id"`
		CourseID    string                `json:"course_id"`
		Title       string                `json:"title"`
		Description string                `json:"description,omitempty"`
		Questions   []StudentQuestionView `json:"questions"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (er *EnrollRequest) Validate(validate *validator.Validate) error {
	er.StudentID = core.CleanString(er.StudentID)
	return validate.Struct(er)
}

func (ar *AskRequest) Validate(validate *validator.Validate) error {
	ar.Prompt = core.CleanString(ar.Prompt)
	return validate.Struct(ar)
}

func newStudentTestView(tst quiz.Test) StudentTestView {
	view := StudentTestView{
		ID:          tst.ID,
		CourseID:    tst.CourseID,
		Title:       tst.Title,
		Description: tst.Description,
		Questions:   make([]StudentQuestionView, 0, len(tst.Questions)),
	}
	for _, q := range tst.Questions {
		view.Questions = append(view.Questions, StudentQuestionView{
			ID:          q.ID,
			Text:        q.Text,
			OptionA:     q.OptionA,
			OptionB:     q.OptionB,
			OptionC:     q.OptionC,
			OptionD:     q.OptionD,
			OrderNumber: q.OrderNumber,
		})
	}
	return view
}
