package response

import "dealership/pkg/apperror"

// Response represents a standard API response format
type Response struct {
	Status     string            `json:"status"`      // "success" or "error"
	StatusCode int               `json:"status_code"` // HTTP status code
	Code       string            `json:"code,omitempty"`
	Data       interface{}       `json:"data,omitempty"`
	Error      string            `json:"error,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// FromError builds the error envelope for err and returns it with the HTTP
// status it maps to. Unclassified errors are reported as a generic 500 so
// storage details do not leak.
func FromError(err error) (int, Response) {
	status := apperror.HTTPStatus(err)
	code := apperror.CodeOf(err)
	msg := "Internal server error"
	if code != apperror.CodeInternal {
		msg = err.Error()
		if appErr, ok := apperror.As(err); ok && appErr.Message != "" {
			msg = appErr.Message
		}
	}
	return status, Response{
		Status:     "error",
		StatusCode: status,
		Code:       string(code),
		Error:      msg,
		Fields:     apperror.FieldsOf(err),
	}
}
