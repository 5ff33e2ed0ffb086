package testutil

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"taskflow/internal/auth"
	"taskflow/internal/handlers"
	"taskflow/internal/logging"
	"taskflow/internal/memstore"
	"taskflow/internal/models"
	"taskflow/internal/realtime"
	"taskflow/internal/routes"
)

// Server is a running development API for tests.
type Server struct {
	*httptest.Server
	Store  *memstore.Store
	Issuer *auth.Issuer
	Hub    *realtime.Hub

	mu   sync.Mutex
	otps map[string]string
}

// NewServer starts the development API on a random port. tokenTTL controls
// access token lifetime so tests can force refreshes.
func NewServer(t *testing.T, tokenTTL time.Duration) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		Store:  memstore.New(),
		Issuer: auth.NewIssuer("test-secret", tokenTTL),
		Hub:    realtime.NewHub(),
		otps:   make(map[string]string),
	}
	h := &handlers.Handler{
		Store:  s.Store,
		Issuer: s.Issuer,
		Hub:    s.Hub,
		Log:    logging.Discard(),
		OnOTP: func(email, code string) {
			s.mu.Lock()
			s.otps[strings.ToLower(email)] = code
			s.mu.Unlock()
		},
	}
	s.Server = httptest.NewServer(routes.SetupRoutes(h))
	t.Cleanup(s.Close)
	return s
}

// APIURL is the base URL clients should use
func (s *Server) APIURL() string {
	return s.URL + "/api"
}

// SocketURL is the websocket endpoint
func (s *Server) SocketURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/socket"
}

// OTP returns the last reset code issued for email
func (s *Server) OTP(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.otps[strings.ToLower(email)]
}

// SeedUser registers a user directly in the store
func (s *Server) SeedUser(t *testing.T, name, email, password string) models.User {
	t.Helper()
	u, err := s.Store.CreateUser(name, email, password)
	require.NoError(t, err)
	return u
}

// Token issues an access token for u
func (s *Server) Token(t *testing.T, u models.User) string {
	t.Helper()
	token, err := s.Issuer.GenerateToken(u.ID, u.Email)
	require.NoError(t, err)
	return token
}
