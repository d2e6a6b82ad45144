package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nabhajit/bhujal/internal/auth"
	"github.com/nabhajit/bhujal/internal/borewell"
	"github.com/nabhajit/bhujal/internal/repository"
)

// statusFor maps service errors onto HTTP status codes and user-facing messages.
func statusFor(err error) (int, string) {
	var (
		validation *borewell.ValidationError
		fields     validator.ValidationErrors
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Error()
	case errors.As(err, &fields):
		return http.StatusBadRequest, describe(fields)
	case errors.Is(err, auth.ErrPasswordMismatch):
		return http.StatusBadRequest, "passwords do not match"
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "customer not found"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// fail writes err as a JSON error body and logs anything unexpected.
func (h *Handler) fail(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// failPage re-renders a form page for browsers and falls back to JSON for scripts.
func (h *Handler) failPage(c *gin.Context, page string, err error) {
	if auth.WantsJSON(c) {
		h.fail(c, err)
		return
	}
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	_ = c.Error(err)
	c.HTML(status, page, gin.H{"Error": msg})
}

// MethodNotAllowed is installed as the engine's NoMethod handler.
func MethodNotAllowed(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"error": "Invalid request method"})
}

func describe(fields validator.ValidationErrors) string {
	msgs := make([]string, 0, len(fields))
	for _, fe := range fields {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s cannot exceed %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is not valid", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}
