package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/marufkhan20/pizza-auth-service/internal/domain"
	"github.com/marufkhan20/pizza-auth-service/pkg/apperror"
)

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names instead of struct field names for error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(fld.Name)
		}
		return name
	})

	err := v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseRole(fl.Field().String())
		return err == nil
	})
	if err != nil {
		panic(fmt.Sprintf("validator: register role tag: %v", err))
	}

	return &Validator{
		validate: v,
	}
}

// Validate returns an *apperror.Error of kind ValidationFailed with one
// entry per failing field.
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return apperror.Validation(fieldErrors(validationErrs))
		}
		return err
	}
	return nil
}

func fieldErrors(errs validator.ValidationErrors) []apperror.FieldError {
	fields := make([]apperror.FieldError, 0, len(errs))
	for _, err := range errs {
		var message string
		field := err.Field()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", field, err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, err.Param())
		case "gte":
			message = fmt.Sprintf("%s must be greater than or equal to %s", field, err.Param())
		case "role":
			message = fmt.Sprintf("%s must be one of customer, manager, admin", field)
		default:
			message = fmt.Sprintf("%s failed validation for %s", field, err.Tag())
		}
		fields = append(fields, apperror.FieldError{Field: field, Message: message})
	}

	return fields
}
