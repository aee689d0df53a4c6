package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(questionStructLevel, Question{})
	return v
}

// questionStructLevel enforces that the designated answer is one of the options.
func questionStructLevel(sl validator.StructLevel) {
	q := sl.Current().Interface().(Question)
	for _, opt := range q.Options {
		if opt == q.CorrectAnswer {
			return
		}
	}
	sl.ReportError(q.CorrectAnswer, "CorrectAnswer", "correctAnswer", "oneofoptions", "")
}

// ValidateQuestions checks a question set before a session is created.
func ValidateQuestions(questions []Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidQuestions)
	}
	for i, q := range questions {
		if err := validate.Struct(q); err != nil {
			return fmt.Errorf("%w: question %d: %v", ErrInvalidQuestions, i+1, err)
		}
	}
	return nil
}
