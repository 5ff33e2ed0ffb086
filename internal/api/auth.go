package api

import (
	"context"
	"net/http"

	"taskflow/internal/models"
)

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and returns the new session
func (c *Client) Register(ctx context.Context, req RegisterRequest) (models.AuthPayload, error) {
	data, _, err := call[models.AuthPayload](ctx, c, http.MethodPost, "/auth/register", req)
	return data, err
}

// Login authenticates with email and password
func (c *Client) Login(ctx context.Context, req LoginRequest) (models.AuthPayload, error) {
	data, _, err := call[models.AuthPayload](ctx, c, http.MethodPost, "/auth/login", req)
	return data, err
}

// Logout ends the server session and drops the refresh cookie
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// ForgotPassword asks the server to mail an OTP to email
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	_, msg, err := call[any](ctx, c, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email})
	return msg, err
}

// VerifyOTP exchanges an OTP for a password reset token
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	var out struct {
		ResetToken string `json:"resetToken"`
		Data       struct {
			ResetToken string `json:"resetToken"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/verify-otp", map[string]string{"email": email, "otp": otp}, &out); err != nil {
		return "", err
	}
	if out.Data.ResetToken != "" {
		return out.Data.ResetToken, nil
	}
	return out.ResetToken, nil
}

// ResetPassword sets a new password using a token from VerifyOTP
func (c *Client) ResetPassword(ctx context.Context, resetToken, password string) (string, error) {
	body := map[string]string{"resetToken": resetToken, "password": password}
	_, msg, err := call[any](ctx, c, http.MethodPost, "/auth/reset-password", body)
	return msg, err
}

// UpdateProfile changes the caller's display name
func (c *Client) UpdateProfile(ctx context.Context, name string) (models.User, error) {
	data, _, err := call[struct {
		User models.User `json:"user"`
	}](ctx, c, http.MethodPut, "/auth/update-profile", map[string]string{"name": name})
	return data.User, err
}
