package quiz

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/shulehub/shule/core"
)

var (
	optionTag  = "option"
	optionText = "option must be one of A, B, C or D"
)

// RegisterValidators registers quiz-specific validation tags and texts.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(optionTag, optionValidation)
	core.RegisterCustomTranslation(validate, translator, optionTag, optionText)
}

func optionValidation(fl validator.FieldLevel) bool {
	return Option(fl.Field().String()).Valid()
}
