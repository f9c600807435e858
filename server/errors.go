package server

import (
	"errors"
	"fmt"
	"maps"
	"net/http"

	"github.com/skiffworks/skiff/params"
	"github.com/skiffworks/skiff/transfer"
)

// IAPIError is the contract for errors carrying structured API information.
type IAPIError interface {
	ErrorCode() string
	Message() string
	HTTPStatus() int
	Details() map[string]any
}

// BaseAPIError provides a basic implementation of IAPIError.
type BaseAPIError struct {
	code       string
	message    string
	httpStatus int
	details    map[string]any
}

// NewBaseAPIError creates a new base API error.
func NewBaseAPIError(code, message string, httpStatus int) *BaseAPIError {
	return &BaseAPIError{
		code:       code,
		message:    message,
		httpStatus: httpStatus,
		details:    make(map[string]any),
	}
}

// ErrorCode returns the error code.
func (e *BaseAPIError) ErrorCode() string { return e.code }

// Message returns the error message.
func (e *BaseAPIError) Message() string { return e.message }

// HTTPStatus returns the HTTP status code.
func (e *BaseAPIError) HTTPStatus() int { return e.httpStatus }

// Details returns a copy of the additional error details.
func (e *BaseAPIError) Details() map[string]any {
	if e.details == nil {
		return nil
	}
	cp := make(map[string]any, len(e.details))
	maps.Copy(cp, e.details)
	return cp
}

// WithDetails adds a detail entry to the error.
func (e *BaseAPIError) WithDetails(key string, value any) *BaseAPIError {
	e.details[key] = value
	return e
}

// Error implements the error interface with a concise log representation.
func (e *BaseAPIError) Error() string {
	if e == nil {
		return ""
	}
	if e.code == "" {
		return e.message
	}
	return e.code + ": " + e.message
}

// BadRequestError represents malformed or invalid request data.
type BadRequestError struct {
	*BaseAPIError
}

// NewBadRequestError creates a new bad request error.
func NewBadRequestError(message string) *BadRequestError {
	return &BadRequestError{
		BaseAPIError: NewBaseAPIError("BAD_REQUEST", message, http.StatusBadRequest),
	}
}

// NotFoundError represents resource not found errors.
type NotFoundError struct {
	*BaseAPIError
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{
		BaseAPIError: NewBaseAPIError("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound),
	}
}

// ConflictError represents resource conflict errors.
type ConflictError struct {
	*BaseAPIError
}

// NewConflictError creates a new conflict error.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{
		BaseAPIError: NewBaseAPIError("CONFLICT", message, http.StatusConflict),
	}
}

// UnprocessableEntityError represents domain-level validation failures.
type UnprocessableEntityError struct {
	*BaseAPIError
}

// NewUnprocessableEntityError creates a new unprocessable entity error.
func NewUnprocessableEntityError(code, message string) *UnprocessableEntityError {
	return &UnprocessableEntityError{
		BaseAPIError: NewBaseAPIError(code, message, http.StatusUnprocessableEntity),
	}
}

// TooManyRequestsError represents rate limiting errors.
type TooManyRequestsError struct {
	*BaseAPIError
}

// NewTooManyRequestsError creates a new too many requests error.
func NewTooManyRequestsError(message string) *TooManyRequestsError {
	if message == "" {
		message = "Rate limit exceeded"
	}
	return &TooManyRequestsError{
		BaseAPIError: NewBaseAPIError("TOO_MANY_REQUESTS", message, http.StatusTooManyRequests),
	}
}

// InternalServerError represents internal server errors.
type InternalServerError struct {
	*BaseAPIError
}

// NewInternalServerError creates a new internal server error.
func NewInternalServerError(message string) *InternalServerError {
	if message == "" {
		message = "An internal error occurred"
	}
	return &InternalServerError{
		BaseAPIError: NewBaseAPIError("INTERNAL_ERROR", message, http.StatusInternalServerError),
	}
}

// apiErrorFromBindingError maps parameter and transfer failures onto API
// errors. Missing or invalid client input is a 400; everything else means
// a registration bug and surfaces as a 500.
func apiErrorFromBindingError(err error) IAPIError {
	var missing *params.MissingParameterError
	if errors.As(err, &missing) {
		return NewBadRequestError(fmt.Sprintf("Missing required %s parameter %q", missing.Location, missing.WireName)).
			WithDetails("parameter", missing.WireName).
			WithDetails("in", string(missing.Location))
	}

	var invalid *params.ValidationError
	if errors.As(err, &invalid) {
		return NewBadRequestError(fmt.Sprintf("Invalid value for parameter %q", invalid.WireName)).
			WithDetails("parameter", invalid.WireName).
			WithDetails("constraint", invalid.Constraint).
			WithDetails("value", invalid.Value)
	}

	var missingField *transfer.MissingFieldError
	if errors.As(err, &missingField) {
		return NewBadRequestError(fmt.Sprintf("Missing required field %q", missingField.Field)).
			WithDetails("field", missingField.Field).
			WithDetails("model", missingField.Model)
	}

	return NewInternalServerError("").WithDetails("error", err.Error())
}

var _ IAPIError = (*BaseAPIError)(nil)
