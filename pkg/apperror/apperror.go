// Package apperror defines the error taxonomy shared by the workflow, the
// services, the HTTP layer and the API client.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Code identifies a class of failure.
type Code string

const (
	CodeValidation          Code = "VALIDATION_FAILED"
	CodeInvalidTransition   Code = "INVALID_TRANSITION"
	CodeMissingPrecondition Code = "MISSING_PRECONDITION"
	CodeNotFound            Code = "NOT_FOUND"
	CodeConflict            Code = "CONFLICT"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeForbidden           Code = "FORBIDDEN"
	CodeTransport           Code = "TRANSPORT_ERROR"
	CodeInternal            Code = "INTERNAL"
)

// Error is a structured application error. Two errors match under errors.Is
// when their codes are equal.
type Error struct {
	Code      Code              `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Retryable bool              `json:"retryable"`
	Err       error             `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrValidation          = &Error{Code: CodeValidation}
	ErrInvalidTransition   = &Error{Code: CodeInvalidTransition}
	ErrMissingPrecondition = &Error{Code: CodeMissingPrecondition}
	ErrNotFound            = &Error{Code: CodeNotFound}
	ErrConflict            = &Error{Code: CodeConflict}
	ErrUnauthorized        = &Error{Code: CodeUnauthorized}
	ErrForbidden           = &Error{Code: CodeForbidden}
	ErrTransport           = &Error{Code: CodeTransport}
)

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Validation builds a field-scoped validation error. The message lists the
// offending fields in a stable order.
func Validation(fields map[string]string) *Error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Error{
		Code:    CodeValidation,
		Message: "invalid fields: " + strings.Join(names, ", "),
		Fields:  fields,
	}
}

func NotFound(resource string) *Error {
	return &Error{Code: CodeNotFound, Message: resource + " not found"}
}

// Transport marks a network or server failure the caller may retry.
func Transport(message string, err error) *Error {
	return &Error{Code: CodeTransport, Message: message, Retryable: true, Err: err}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code carried by err, or CodeInternal.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// FieldsOf returns the field errors carried by err, if any.
func FieldsOf(err error) map[string]string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation, CodeInvalidTransition, CodeMissingPrecondition:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
