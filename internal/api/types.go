package api

import (
	"github.com/dhiway/starter-kit/internal/docs"
)

// ErrorResponse is the generic JSON error wrapper. Code carries the failure
// kind as a stable string; ErrorCode the numeric code from the core's table.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// ErrorFrom maps a core error onto the wire contract.
func ErrorFrom(err error) ErrorResponse {
	if err == nil {
		return ErrorResponse{}
	}
	return ErrorResponse{
		Error:     err.Error(),
		Code:      string(docs.KindOf(err)),
		ErrorCode: docs.CodeOf(err),
	}
}
