// Package handlers holds what every HTTP handler shares: error translation
// and access to the authenticated user.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/app/models"
)

const (
	UserEmailKey = "user_email"
	UserNameKey  = "user_name"
)

type BaseHandler struct {
	Logger *zap.Logger
}

func NewBaseHandler(logger *zap.Logger) *BaseHandler {
	return &BaseHandler{Logger: logger}
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// StatusFor maps a domain error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err with its mapped status. Rate limit errors also set
// Retry-After. Internal errors are logged and hidden from the client.
func (h *BaseHandler) RespondError(c *gin.Context, err error) {
	status := StatusFor(err)
	body := ErrorResponse{Error: err.Error()}

	var rle *models.RateLimitError
	if errors.As(err, &rle) {
		body.RetryAfter = rle.RetryAfter
		c.Header("Retry-After", strconv.Itoa(rle.RetryAfter))
	}
	if status == http.StatusInternalServerError {
		h.Logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		body.Error = "internal server error"
	}
	c.AbortWithStatusJSON(status, body)
}

// BadRequest reports a malformed body or parameter.
func (h *BaseHandler) BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// CurrentUser returns the email set by the auth middleware.
func CurrentUser(c *gin.Context) (string, bool) {
	email := c.GetString(UserEmailKey)
	return email, email != ""
}
