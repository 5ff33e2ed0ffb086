package models

import "time"

// InvitationStatus is the state of an invitation
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationApproved InvitationStatus = "approved"
	InvitationRejected InvitationStatus = "rejected"
)

// Terminal reports whether no further transition is allowed.
func (s InvitationStatus) Terminal() bool {
	return s == InvitationApproved || s == InvitationRejected
}

// Invitation asks a user to join a project.
type Invitation struct {
	ID          string           `json:"_id"`
	Project     Project          `json:"project"`
	InvitedUser User             `json:"invitedUser"`
	InvitedBy   User             `json:"invitedBy"`
	Status      InvitationStatus `json:"status"`
	CreatedAt   time.Time        `json:"createdAt"`
}
