package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrValidation = errors.New("validation error")

// ValidationError carries the human-readable messages returned to the caller verbatim.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("user_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// collect runs struct validation and appends readable messages to msgs.
func collect(v *validator.Validate, s any, msgs []string) ([]string, error) {
	err := v.Struct(s)
	if err == nil {
		return msgs, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return msgs, err
	}
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return msgs, nil
}

func fieldMessage(fe validator.FieldError) string {
	field := displayName(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(strings.Fields(fe.Param()), ", "))
	case "user_email":
		return "Please provide a valid email"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func displayName(field string) string {
	switch field {
	case "userId":
		return "User ID"
	case "dueDate":
		return "Due date"
	case "":
		return "Value"
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
