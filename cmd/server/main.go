package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"taskflow/internal/logging"
	"taskflow/internal/routes"
)

// Development API server. `taskflow mock-server` runs the same thing.
func main() {
	log, err := logging.New(logging.Options{Level: getEnv("LOG_LEVEL", "info")})
	if err != nil {
		panic(err)
	}
	gin.SetMode(gin.ReleaseMode)

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "15m"))
	if err != nil {
		log.WithError(err).Fatal("invalid TOKEN_TTL")
	}
	engine, _ := routes.NewDevServer(routes.DevOptions{
		Secret:   os.Getenv("JWT_SECRET"),
		TokenTTL: ttl,
		Log:      log,
	})

	port := ":" + getEnv("PORT", "5000")
	log.Infof("Server starting on port %s", port)
	log.Info("API endpoints:")
	log.Info("  POST   /api/auth/{register,login,refresh,logout,forgot-password,verify-otp,reset-password}")
	log.Info("  GET    /api/projects/get-projects")
	log.Info("  GET    /api/tasks/task-by-project/:projectId")
	log.Info("  GET    /api/invitations/my-invitations")
	log.Info("  GET    /socket?project=:id&token=:jwt")
	log.Info("  GET    /health")

	if err := engine.Run(port); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
