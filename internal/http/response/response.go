package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/trailmark-backend/internal/domain/aggregates"
	"github.com/yungbote/trailmark-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
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

// RespondErr maps service errors onto the error envelope. Internal failures
// never leak their cause to the client.
func RespondErr(c *gin.Context, err error) {
	if ae, ok := apierr.As(err); ok {
		RespondError(c, ae.Status, ae.Code, ae)
		return
	}
	var agg *domainagg.Error
	code := domainagg.CodeOf(err)
	if code == "" {
		code = domainagg.CodeInternal
	}
	status := StatusFor(code)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, ErrorEnvelope{Error: APIError{Message: http.StatusText(status), Code: string(code)}})
		return
	}
	msg := err.Error()
	if errors.As(err, &agg) && agg.Message != "" {
		msg = agg.Message
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: string(code)}})
}

func StatusFor(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodeUnauthorized:
		return http.StatusForbidden
	case domainagg.CodeValidation:
		return http.StatusBadRequest
	case domainagg.CodeConflict, domainagg.CodeInvariantViolation, domainagg.CodePreconditionFailed:
		return http.StatusConflict
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: message, Code: code}})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
