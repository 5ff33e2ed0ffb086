package models

// Envelope is the JSON wrapper every API response uses.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// AuthPayload is the data of register and login responses.
type AuthPayload struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
