package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskflow/internal/auth"
	"taskflow/internal/handlers"
	"taskflow/internal/memstore"
	"taskflow/internal/realtime"
)

// DevOptions configures the development API server
type DevOptions struct {
	Secret   string
	TokenTTL time.Duration
	Log      *logrus.Logger
}

// NewDevServer wires an empty in-memory store, token issuer and socket hub
// behind the API routes. Reset codes are written to the log.
func NewDevServer(opts DevOptions) (*gin.Engine, *handlers.Handler) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	h := &handlers.Handler{
		Store:  memstore.New(),
		Issuer: auth.NewIssuer(opts.Secret, opts.TokenTTL),
		Hub:    realtime.NewHub(),
		Log:    log,
		OnOTP: func(email, code string) {
			log.WithFields(logrus.Fields{"email": email, "otp": code}).Info("password reset code issued")
		},
	}
	return SetupRoutes(h), h
}
