package response

import (
	"fms/pkg/apperror"
)

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	// Code is the machine-readable error kind, e.g. CONFLICT.
	Code string `json:"code,omitempty"`
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

// FromError maps a service error onto its HTTP status and envelope.
// Unclassified errors are reported as internal without their text.
func FromError(err error) (int, Response) {
	kind := apperror.KindOf(err)
	status := apperror.HTTPStatus(kind)
	msg := apperror.MessageOf(err)
	if msg == "" {
		msg = "internal server error"
	}
	res := Error(status, msg)
	res.Code = string(kind)
	return status, res
}
