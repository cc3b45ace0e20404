package handlers_messages

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/sgatu/bookstore-back/errors"
)

type ErrorMessage struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type StatusMessage struct {
	Message string `json:"message"`
}

// StatusFor maps an error to the HTTP status of its taxonomy kind. Errors
// outside the taxonomy are internal faults.
func StatusFor(err error) int {
	var (
		validation *apperrors.ValidationError
		auth       *apperrors.AuthenticationError
		notFound   *apperrors.NotFoundError
		conflict   *apperrors.ConflictError
		limit      *apperrors.LimitError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &auth):
		return http.StatusUnauthorized
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &limit):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PushError writes err as a JSON error body. Internal faults are reported
// with a generic message and attached to the gin context for logging.
func PushError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, &ErrorMessage{Message: "Internal server error", Code: "INTERNAL"})
		return
	}
	code := "ERROR"
	var coded apperrors.CodedError
	if errors.As(err, &coded) {
		code = coded.Code()
	}
	c.JSON(status, &ErrorMessage{Message: err.Error(), Code: code})
}

func PushMessage(c *gin.Context, status int, message string) {
	c.JSON(status, &StatusMessage{Message: message})
}
