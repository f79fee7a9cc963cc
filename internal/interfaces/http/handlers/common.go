package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/perovskite-json/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeAppError maps application errors to HTTP status codes.  Server-side
// failures are masked.
func writeAppError(c *gin.Context, err error) {
	_ = c.Error(err)

	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatusForCode(code)
	if status >= http.StatusInternalServerError {
		c.JSON(status, ErrorResponse{
			Code:    string(code),
			Message: errors.DefaultMessageForCode(code),
		})
		return
	}

	resp := ErrorResponse{Code: string(code), Message: err.Error()}
	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		resp.Message = ae.Message
		resp.Detail = ae.Detail
	}
	c.JSON(status, resp)
}

func writeBadRequest(c *gin.Context, err error) {
	writeAppError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "malformed request"))
}
