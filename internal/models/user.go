package models

// User represents an account as seen by the client. Users are never created
// locally; identity comes from the tokens the server issues.
type User struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// Session is the persisted part of the auth slice.
type Session struct {
	User        *User  `json:"user"`
	AccessToken string `json:"accessToken"`
	ResetToken  string `json:"resetToken,omitempty"`
	ResetEmail  string `json:"resetEmail,omitempty"`
}

// Authenticated reports whether the session holds a token and a user.
func (s Session) Authenticated() bool {
	return s.AccessToken != "" && s.User != nil
}
