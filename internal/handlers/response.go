package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyforge/studyforge-backend/internal/apperr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError maps any error onto the envelope via its apperr status and
// code. Unknown errors become 500 internal_error.
func RespondError(c *gin.Context, err error) {
	status, code := apperr.StatusAndCode(err)
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
