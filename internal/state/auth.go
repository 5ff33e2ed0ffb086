package state

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"taskflow/internal/api"
	"taskflow/internal/auth"
	"taskflow/internal/models"
	"taskflow/internal/validation"
)

// refreshLeeway treats tokens this close to expiry as already expired
const refreshLeeway = 30 * time.Second

func loginFallback(err error) string {
	if api.StatusOf(err) == http.StatusUnauthorized {
		return api.Message(err, "Invalid email or password")
	}
	return api.Message(err, "Login failed")
}

func signedIn(st State, p models.AuthPayload) State {
	user := p.User
	st.Auth.User = &user
	st.Auth.AccessToken = p.Token
	st.Auth.Message = ""
	st.Nav.Location = RouteDashboard
	return st
}

// Register creates an account and signs in
func (s *Store) Register(ctx context.Context, form validation.RegisterForm) error {
	if err := validation.Validate(form); err != nil {
		return err
	}
	_, err := thunk(ctx, s, SliceAuth, fixed("Registration failed"),
		func(ctx context.Context, c API) (models.AuthPayload, error) {
			return c.Register(ctx, api.RegisterRequest{Name: form.Name, Email: form.Email, Password: form.Password})
		}, signedIn)
	if err == nil {
		s.persist()
	}
	return err
}

// Login signs in with email and password
func (s *Store) Login(ctx context.Context, form validation.LoginForm) error {
	if err := validation.Validate(form); err != nil {
		return err
	}
	_, err := thunk(ctx, s, SliceAuth, loginFallback,
		func(ctx context.Context, c API) (models.AuthPayload, error) {
			return c.Login(ctx, api.LoginRequest{Email: form.Email, Password: form.Password})
		}, signedIn)
	if err == nil {
		s.persist()
	}
	return err
}

// Logout ends the session on the server and locally
func (s *Store) Logout(ctx context.Context) error {
	_, err := thunk(ctx, s, SliceAuth, fixed("Logout failed"),
		func(ctx context.Context, c API) (struct{}, error) {
			return struct{}{}, c.Logout(ctx)
		},
		func(st State, _ struct{}) State {
			st.Auth = AuthState{}
			st.Nav.Location = RouteLogin
			return st
		})
	if err == nil && s.sessions != nil {
		if cerr := s.sessions.Clear(s.origin); cerr != nil {
			s.log.WithError(cerr).Warn("failed to clear saved session")
		}
	}
	return err
}

// Refresh exchanges the refresh cookie for a new access token. The outcome
// reaches the auth slice through TokenRefreshed or RefreshFailed.
func (s *Store) Refresh(ctx context.Context) error {
	_, err := thunk(ctx, s, SliceAuth, fixed("Session expired"),
		func(ctx context.Context, c API) (string, error) {
			return c.Refresh(ctx)
		},
		func(st State, token string) State {
			st.Auth.AccessToken = token
			return st
		})
	return err
}

// ForgotPassword requests an OTP for the given email
func (s *Store) ForgotPassword(ctx context.Context, form validation.ForgotPasswordForm) (string, error) {
	if err := validation.Validate(form); err != nil {
		return "", err
	}
	return thunk(ctx, s, SliceAuth, fixed("Failed to send OTP"),
		func(ctx context.Context, c API) (string, error) {
			return c.ForgotPassword(ctx, form.Email)
		},
		func(st State, msg string) State {
			st.Auth.ResetEmail = form.Email
			st.Auth.Message = msg
			st.Nav.Location = RouteVerifyOTP
			return st
		})
}

// VerifyOTP trades the OTP for a reset token
func (s *Store) VerifyOTP(ctx context.Context, form validation.VerifyOTPForm) error {
	if err := validation.Validate(form); err != nil {
		return err
	}
	_, err := thunk(ctx, s, SliceAuth, fixed("OTP verification failed"),
		func(ctx context.Context, c API) (string, error) {
			return c.VerifyOTP(ctx, form.Email, form.OTP)
		},
		func(st State, token string) State {
			st.Auth.ResetToken = token
			st.Auth.ResetEmail = form.Email
			st.Nav.Location = RouteResetPassword
			return st
		})
	if err == nil {
		s.persist()
	}
	return err
}

// ResetPassword sets a new password with the stored reset token. Without one
// it fails before any request and leaves the state as it was.
func (s *Store) ResetPassword(ctx context.Context, form validation.ResetPasswordForm) (string, error) {
	if err := validation.Validate(form); err != nil {
		return "", err
	}
	token := s.State().Auth.ResetToken
	if token == "" {
		return "", ErrNoResetToken
	}
	msg, err := thunk(ctx, s, SliceAuth, fixed("Password reset failed"),
		func(ctx context.Context, c API) (string, error) {
			return c.ResetPassword(ctx, token, form.Password)
		},
		func(st State, msg string) State {
			st.Auth.ResetToken = ""
			st.Auth.ResetEmail = ""
			st.Auth.Message = msg
			st.Nav.Location = RouteLogin
			return st
		})
	if err == nil {
		s.persist()
	}
	return msg, err
}

// UpdateProfile renames the current user
func (s *Store) UpdateProfile(ctx context.Context, form validation.ProfileForm) error {
	if err := validation.Validate(form); err != nil {
		return err
	}
	if !s.State().Auth.Authenticated() {
		return ErrNotAuthenticated
	}
	_, err := thunk(ctx, s, SliceAuth, fixed("Profile update failed"),
		func(ctx context.Context, c API) (models.User, error) {
			return c.UpdateProfile(ctx, form.Name)
		},
		func(st State, u models.User) State {
			st.Auth.User = &u
			return st
		})
	if err == nil {
		s.persist()
	}
	return err
}

// AccessToken implements api.TokenStore.
func (s *Store) AccessToken() string {
	return s.State().Auth.AccessToken
}

// TokenRefreshed implements api.TokenStore.
func (s *Store) TokenRefreshed(token string) {
	s.dispatch(func(st State) State {
		st.Auth.AccessToken = token
		return st
	})
	s.persist()
}

// RefreshFailed implements api.TokenStore. The session is dropped and the
// user sent back to the login screen.
func (s *Store) RefreshFailed(err error) {
	s.log.WithError(err).Info("session refresh failed, signing out")
	s.dispatch(func(st State) State {
		st.Auth.User = nil
		st.Auth.AccessToken = ""
		st.Nav.Location = RouteLogin
		return st
	})
	s.persist()
}

// RestoreSession loads the session saved for this origin. An expired access
// token is refreshed straight away; a failed refresh signs the user out but
// is not an error.
func (s *Store) RestoreSession(ctx context.Context) error {
	if s.sessions == nil {
		return nil
	}
	sess, cookies, err := s.sessions.Load(s.origin)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if c := s.client(); c != nil {
		c.SetCookies(cookies)
	}
	s.dispatch(func(st State) State {
		st.Auth.User = sess.User
		st.Auth.AccessToken = sess.AccessToken
		st.Auth.ResetToken = sess.ResetToken
		st.Auth.ResetEmail = sess.ResetEmail
		if sess.Authenticated() {
			st.Nav.Location = RouteDashboard
		}
		return st
	})

	if sess.AccessToken != "" && auth.Expired(sess.AccessToken, refreshLeeway) {
		if err := s.Refresh(ctx); err != nil {
			s.log.WithError(err).Debug("stored access token could not be refreshed")
		}
	}
	return nil
}

// persist saves the auth slice and the API cookies.
func (s *Store) persist() {
	if s.sessions == nil {
		return
	}
	a := s.State().Auth
	sess := models.Session{User: a.User, AccessToken: a.AccessToken, ResetToken: a.ResetToken, ResetEmail: a.ResetEmail}
	var cookies []*http.Cookie
	if c := s.client(); c != nil {
		cookies = c.Cookies()
	}
	if err := s.sessions.Save(s.origin, sess, cookies); err != nil {
		s.log.WithError(err).Warn("failed to save session")
	}
}
