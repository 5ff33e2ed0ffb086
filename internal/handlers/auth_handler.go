package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const refreshCookie = "refreshToken"

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) issueSession(c *gin.Context, id, email string) (string, bool) {
	token, err := h.Issuer.GenerateToken(id, email)
	if err != nil {
		message(c, http.StatusInternalServerError, "Failed to generate token")
		return "", false
	}
	refresh := h.Store.IssueRefreshToken(id)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookie, refresh, 7*24*3600, "/", "", false, true)
	return token, true
}

// Register handles POST /auth/register
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		message(c, http.StatusBadRequest, "Name, a valid email and a password of at least 6 characters are required")
		return
	}
	user, err := h.Store.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	token, done := h.issueSession(c, user.ID, user.Email)
	if !done {
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Registration successful",
		"data":    gin.H{"user": user, "token": token},
	})
}

// Login handles POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		message(c, http.StatusBadRequest, "Email and password are required")
		return
	}
	user, err := h.Store.Authenticate(req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	token, done := h.issueSession(c, user.ID, user.Email)
	if !done {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"data":    gin.H{"user": user, "token": token},
	})
}

// Refresh handles POST /auth/refresh using the refresh cookie
func (h *Handler) Refresh(c *gin.Context) {
	cookie, err := c.Cookie(refreshCookie)
	if err != nil || cookie == "" {
		message(c, http.StatusUnauthorized, "Refresh token missing")
		return
	}
	user, found := h.Store.RefreshUser(cookie)
	if !found {
		message(c, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	token, err := h.Issuer.GenerateToken(user.ID, user.Email)
	if err != nil {
		message(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

// Logout handles POST /auth/logout
func (h *Handler) Logout(c *gin.Context) {
	if cookie, err := c.Cookie(refreshCookie); err == nil {
		h.Store.RevokeRefreshToken(cookie)
	}
	c.SetCookie(refreshCookie, "", -1, "/", "", false, true)
	message(c, http.StatusOK, "Logged out")
}

// ForgotPassword handles POST /auth/forgot-password
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		message(c, http.StatusBadRequest, "A valid email is required")
		return
	}
	code, err := h.Store.StartPasswordReset(req.Email)
	if err != nil {
		fail(c, err)
		return
	}
	if h.OnOTP != nil {
		h.OnOTP(req.Email, code)
	}
	message(c, http.StatusOK, "OTP sent to your email")
}

// VerifyOTP handles POST /auth/verify-otp
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		OTP   string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		message(c, http.StatusBadRequest, "Email and OTP are required")
		return
	}
	token, err := h.Store.VerifyOTP(req.Email, req.OTP)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "OTP verified",
		"data":    gin.H{"resetToken": token},
	})
}

// ResetPassword handles POST /auth/reset-password
func (h *Handler) ResetPassword(c *gin.Context) {
	var req struct {
		ResetToken string `json:"resetToken"`
		Password   string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ResetToken == "" {
		message(c, http.StatusBadRequest, "Reset token is required")
		return
	}
	if err := h.Store.ResetPassword(req.ResetToken, req.Password); err != nil {
		fail(c, err)
		return
	}
	message(c, http.StatusOK, "Password reset successful")
}

// UpdateProfile handles PUT /auth/update-profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		message(c, http.StatusBadRequest, "Name is required")
		return
	}
	user, err := h.Store.UpdateName(userID(c), req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"user": user})
}
