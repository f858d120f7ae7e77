// Package errors defines the application error taxonomy shared by the
// GraphQL layer, the services and the storage adapters.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies the category of an application error. Codes are part
// of the wire contract: the GraphQL layer copies them into error extensions.
type ErrorCode string

const (
	CodeValidation      ErrorCode = "VALIDATION_ERROR"
	CodeMalformedID     ErrorCode = "MALFORMED_ID"
	CodeInvalidCursor   ErrorCode = "INVALID_CURSOR"
	CodeUnsupportedType ErrorCode = "UNSUPPORTED_TYPE"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeInvalidPageSize ErrorCode = "INVALID_PAGE_SIZE"
	CodeInvalidDate     ErrorCode = "INVALID_DATE"
	CodeExternal        ErrorCode = "EXTERNAL_SERVICE"
	CodeInternal        ErrorCode = "INTERNAL"
)

// AppError is the error type every layer above the storage driver returns.
type AppError struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Cause   error             `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// HTTPStatus maps the error code to an HTTP status for REST responses.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeValidation, CodeMalformedID, CodeInvalidCursor,
		CodeUnsupportedType, CodeInvalidPageSize, CodeInvalidDate:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Constructor functions for the error taxonomy

// NewValidationError creates a validation error carrying one message per
// invalid field (first violation per field only).
func NewValidationError(fields map[string]string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: "VALIDATION_ERROR",
		Fields:  fields,
	}
}

// NewMalformedIDError creates an error for an undecodable global id.
func NewMalformedIDError() *AppError {
	return &AppError{
		Code:    CodeMalformedID,
		Message: "Malformed global ID",
	}
}

// NewInvalidCursorError creates an error for an undecodable cursor.
func NewInvalidCursorError() *AppError {
	return &AppError{
		Code:    CodeInvalidCursor,
		Message: "Invalid cursor",
	}
}

// NewUnsupportedTypeError creates an error for a global id whose type tag
// does not name the expected entity kind.
func NewUnsupportedTypeError() *AppError {
	return &AppError{
		Code:    CodeUnsupportedType,
		Message: "Unsupported node type",
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource, id string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewInvalidPageSizeError creates an error for a non-positive page size.
func NewInvalidPageSizeError() *AppError {
	return &AppError{
		Code:    CodeInvalidPageSize,
		Message: "`first` must be a positive integer",
	}
}

// NewInvalidDateError creates an error naming the filter field that failed
// to parse.
func NewInvalidDateError(field string) *AppError {
	return &AppError{
		Code:    CodeInvalidDate,
		Message: fmt.Sprintf("Invalid %s date", field),
	}
}

// NewExternalError creates an external service error
func NewExternalError(service string, err error) *AppError {
	return &AppError{
		Code:    CodeExternal,
		Message: fmt.Sprintf("external service '%s' error", service),
		Cause:   err,
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Cause:   err,
	}
}

// AsAppError extracts an *AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// FieldErrors aggregates per-field validation messages, keeping only the
// first message recorded for each field.
type FieldErrors struct {
	fields map[string]string
	order  []string
}

// NewFieldErrors creates an empty field error collection.
func NewFieldErrors() *FieldErrors {
	return &FieldErrors{fields: make(map[string]string)}
}

// Add records a message for a field unless one is already present.
func (f *FieldErrors) Add(field, message string) {
	if _, exists := f.fields[field]; exists {
		return
	}
	f.fields[field] = message
	f.order = append(f.order, field)
}

// HasErrors reports whether any field message was recorded.
func (f *FieldErrors) HasErrors() bool {
	return len(f.fields) > 0
}

// ToMap returns the field -> message map.
func (f *FieldErrors) ToMap() map[string]string {
	out := make(map[string]string, len(f.fields))
	for k, v := range f.fields {
		out[k] = v
	}
	return out
}

// Err returns a validation AppError when messages were recorded, nil otherwise.
func (f *FieldErrors) Err() error {
	if !f.HasErrors() {
		return nil
	}
	return NewValidationError(f.ToMap())
}

// Error implements the error interface
func (f *FieldErrors) Error() string {
	msg := "validation failed:"
	for _, field := range f.order {
		msg += fmt.Sprintf(" %s=%q", field, f.fields[field])
	}
	return msg
}
