package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskflow/internal/auth"
	"taskflow/internal/memstore"
	"taskflow/internal/realtime"
)

// Handler serves the TaskFlow API over an in-memory store.
type Handler struct {
	Store  *memstore.Store
	Issuer *auth.Issuer
	Hub    *realtime.Hub
	Log    *logrus.Logger
	// OnOTP receives every issued reset code, since the development server
	// has no mailer.
	OnOTP func(email, code string)
}

func (h *Handler) logger() *logrus.Logger {
	if h.Log == nil {
		return logrus.StandardLogger()
	}
	return h.Log
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": status < http.StatusBadRequest, "message": msg})
}

// fail maps store errors onto HTTP statuses.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, memstore.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, memstore.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, memstore.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, memstore.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, memstore.ErrInvalidOTP),
		errors.Is(err, memstore.ErrInvalidResetToken),
		errors.Is(err, memstore.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	var se *memstore.Error
	if errors.As(err, &se) {
		message(c, status, se.Message)
		return
	}
	message(c, status, "Internal server error")
}

func userID(c *gin.Context) string {
	return c.GetString("user_id")
}
