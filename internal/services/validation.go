package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/localnerve/myway-api/internal/types"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldErrors converts validator output into the registration error shape
func fieldErrors(err error) *types.FieldErrors {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return &types.FieldErrors{Errors: []types.FieldError{{Field: "body", Message: err.Error()}}}
	}

	result := &types.FieldErrors{Errors: make([]types.FieldError, 0, len(validationErrors))}
	for _, fieldError := range validationErrors {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = "is required"
		case "email":
			message = "must be a valid email address"
		case "min":
			message = fmt.Sprintf("must be at least %s characters", fieldError.Param())
		default:
			message = "is invalid"
		}
		result.Errors = append(result.Errors, types.FieldError{Field: fieldError.Field(), Message: message})
	}
	return result
}

// requireFields runs struct validation and collapses any failure into a ValidationError with message
func requireFields(input any, message string) error {
	if err := validate.Struct(input); err != nil {
		return types.ValidationError(message)
	}
	return nil
}
