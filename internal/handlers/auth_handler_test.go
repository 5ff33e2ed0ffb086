package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"taskflow/internal/auth"
	"taskflow/internal/logging"
	"taskflow/internal/memstore"
	"taskflow/internal/middleware"
	"taskflow/internal/realtime"
)

func newHandler() *Handler {
	gin.SetMode(gin.TestMode)
	return &Handler{
		Store:  memstore.New(),
		Issuer: auth.NewIssuer("test-secret", time.Hour),
		Hub:    realtime.NewHub(),
		Log:    logging.Discard(),
	}
}

func postJSON(r http.Handler, path, token string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func refreshCookieOf(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == refreshCookie {
			return c
		}
	}
	t.Fatal("no refresh cookie set")
	return nil
}

func TestRegister_IssuesTokenAndCookie(t *testing.T) {
	h := newHandler()
	r := gin.New()
	r.POST("/api/auth/register", h.Register)

	w := postJSON(r, "/api/auth/register", "", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data struct {
			User  struct{ Email string }
			Token string
		}
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "alice@example.com", resp.Data.User.Email)
	require.NotEmpty(t, resp.Data.Token)
	require.True(t, refreshCookieOf(t, w).HttpOnly)

	w = postJSON(r, "/api/auth/register", "", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newHandler()
	_, err := h.Store.CreateUser("Alice", "alice@example.com", "secret1")
	require.NoError(t, err)
	r := gin.New()
	r.POST("/api/auth/login", h.Login)

	w := postJSON(r, "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var resp struct {
		Success bool
		Message string
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.NotEmpty(t, resp.Message)
}

func TestRefresh_UsesCookie(t *testing.T) {
	h := newHandler()
	_, err := h.Store.CreateUser("Alice", "alice@example.com", "secret1")
	require.NoError(t, err)
	r := gin.New()
	r.POST("/api/auth/login", h.Login)
	r.POST("/api/auth/refresh", h.Refresh)
	r.POST("/api/auth/logout", h.Logout)

	w := postJSON(r, "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	cookie := refreshCookieOf(t, w)

	w = postJSON(r, "/api/auth/refresh", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(r, "/api/auth/refresh", "", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct{ Token string }
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	claims, err := h.Issuer.ValidateToken(resp.Token)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", claims.Email)

	postJSON(r, "/api/auth/logout", "", nil, cookie)
	w = postJSON(r, "/api/auth/refresh", "", nil, cookie)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPasswordReset(t *testing.T) {
	h := newHandler()
	_, err := h.Store.CreateUser("Alice", "alice@example.com", "secret1")
	require.NoError(t, err)
	var otp string
	h.OnOTP = func(_, code string) { otp = code }

	r := gin.New()
	r.POST("/api/auth/forgot-password", h.ForgotPassword)
	r.POST("/api/auth/verify-otp", h.VerifyOTP)
	r.POST("/api/auth/reset-password", h.ResetPassword)
	r.POST("/api/auth/login", h.Login)

	w := postJSON(r, "/api/auth/forgot-password", "", map[string]string{"email": "alice@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, otp, 6)

	w = postJSON(r, "/api/auth/verify-otp", "", map[string]string{"email": "alice@example.com", "otp": "000000x"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/api/auth/verify-otp", "", map[string]string{"email": "alice@example.com", "otp": otp})
	require.Equal(t, http.StatusOK, w.Code)
	var verified struct {
		Data struct {
			ResetToken string `json:"resetToken"`
		}
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verified))
	require.NotEmpty(t, verified.Data.ResetToken)

	w = postJSON(r, "/api/auth/reset-password", "", map[string]string{"resetToken": verified.Data.ResetToken, "password": "newpass1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(r, "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "newpass1"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateProfile_RequiresAuth(t *testing.T) {
	h := newHandler()
	user, err := h.Store.CreateUser("Alice", "alice@example.com", "secret1")
	require.NoError(t, err)
	r := gin.New()
	r.PUT("/api/auth/update-profile", middleware.JWTAuthMiddleware(h.Issuer), h.UpdateProfile)

	req := httptest.NewRequest(http.MethodPut, "/api/auth/update-profile", bytes.NewReader([]byte(`{"name":"Al"}`)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := h.Issuer.GenerateToken(user.ID, user.Email)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPut, "/api/auth/update-profile", bytes.NewReader([]byte(`{"name":"Al"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			User struct{ Name string }
		}
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "Al", resp.Data.User.Name)
}
