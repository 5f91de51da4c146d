package types

import (
	"errors"
	"fmt"
	"net/http"
)

// Error types carried in the "type" field of error responses
const (
	ErrTypeValidation      = "validation"
	ErrTypeInvalidArgument = "invalid_argument"
	ErrTypeAuth            = "auth"
	ErrTypeForbidden       = "forbidden"
	ErrTypeNotFound        = "not_found"
	ErrTypeGeocoding       = "geocoding"
	ErrTypeInternal        = "internal"
)

// CustomError is the error every service returns to its callers.
// Err holds the underlying cause; it is logged but never sent to clients.
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Err     error  `json:"-"`
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d: %s [type: %s]: %v", e.Code, e.Message, e.Type, e.Err)
	}
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

func newError(code int, errType, message string, cause error) *CustomError {
	return &CustomError{Code: code, Message: message, Type: errType, Err: cause}
}

func ValidationError(message string) *CustomError {
	return newError(http.StatusBadRequest, ErrTypeValidation, message, nil)
}

func InvalidArgumentError(message string) *CustomError {
	return newError(http.StatusBadRequest, ErrTypeInvalidArgument, message, nil)
}

func AuthError(message string) *CustomError {
	return newError(http.StatusUnauthorized, ErrTypeAuth, message, nil)
}

func ForbiddenError(message string) *CustomError {
	return newError(http.StatusForbidden, ErrTypeForbidden, message, nil)
}

func NotFoundError(message string, cause error) *CustomError {
	return newError(http.StatusNotFound, ErrTypeNotFound, message, cause)
}

// IsNotFound reports whether err carries a not_found CustomError
func IsNotFound(err error) bool {
	var customErr *CustomError
	return errors.As(err, &customErr) && customErr.Type == ErrTypeNotFound
}

// GeocodingError reports that the reverse geocoder could not resolve a city
func GeocodingError(message string, cause error) *CustomError {
	return newError(http.StatusInternalServerError, ErrTypeGeocoding, message, cause)
}

func InternalError(message string, cause error) *CustomError {
	return newError(http.StatusInternalServerError, ErrTypeInternal, message, cause)
}

// FieldError describes one rejected input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors is returned by registration when one or more fields are rejected
type FieldErrors struct {
	Errors []FieldError `json:"errors"`
}

func (e *FieldErrors) Error() string {
	if len(e.Errors) == 0 {
		return "invalid input"
	}
	return fmt.Sprintf("invalid input: %s %s", e.Errors[0].Field, e.Errors[0].Message)
}
