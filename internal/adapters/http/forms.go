package http

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// nonFieldErrors is the FormErrors key for errors not tied to one input
const nonFieldErrors = "__all__"

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// FormValidator implements echo.Validator for submitted forms
type FormValidator struct {
	validator *validator.Validate
}

// NewValidator returns a validator that reports fields by their form name
func NewValidator() *FormValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	return &FormValidator{validator: v}
}

// Validate validates structs
func (fv *FormValidator) Validate(i interface{}) error {
	return fv.validator.Struct(i)
}

// FormErrors maps a form field name to its error messages
type FormErrors map[string][]string

// Add appends a message for the field
func (fe FormErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

// Any reports whether the form has errors
func (fe FormErrors) Any() bool {
	return len(fe) > 0
}

// formErrorsFrom converts validation failures into per-field messages.
// It returns false when err is not a validation failure.
func formErrorsFrom(err error) (FormErrors, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}

	out := FormErrors{}
	for _, fe := range verrs {
		out.Add(fe.Field(), validationMessage(fe))
	}
	return out, true
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		if fe.Field() == "password1" {
			return fmt.Sprintf("This password is too short. It must contain at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "eqfield":
		return "The two password fields didn't match."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	}
	return "Enter a valid value."
}
