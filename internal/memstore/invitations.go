package memstore

import (
	"sort"

	"github.com/google/uuid"

	"taskflow/internal/models"
)

// SendInvitation invites inviteeID to projectID on behalf of a member
func (s *Store) SendInvitation(userID, projectID, inviteeID string) (models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.memberProject(userID, projectID)
	if err != nil {
		return models.Invitation{}, err
	}
	invitee, ok := s.users[inviteeID]
	if !ok {
		return models.Invitation{}, fail(ErrNotFound, "User not found")
	}
	if p.HasMember(inviteeID) {
		return models.Invitation{}, fail(ErrConflict, "User is already a member")
	}
	for _, inv := range s.invitations {
		if inv.Project.ID == projectID && inv.InvitedUser.ID == inviteeID && inv.Status == models.InvitationPending {
			return models.Invitation{}, fail(ErrConflict, "Invitation already sent")
		}
	}
	inv := &models.Invitation{
		ID:          uuid.NewString(),
		Project:     models.Project{ID: p.ID, Name: p.Name, Owner: p.Owner},
		InvitedUser: invitee.user,
		InvitedBy:   s.users[userID].user,
		Status:      models.InvitationPending,
		CreatedAt:   s.now(),
	}
	s.invitations[inv.ID] = inv
	s.record(p.ID, "", inv.InvitedBy, "member_invited", invitee.user.Email)
	return *inv, nil
}

// MyInvitations lists the invitations addressed to userID, newest first
func (s *Store) MyInvitations(userID string) []models.Invitation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Invitation, 0)
	for _, inv := range s.invitations {
		if inv.InvitedUser.ID == userID {
			out = append(out, *inv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// ResolveInvitation approves or rejects a pending invitation. Only the
// invited user may resolve it, and only once.
func (s *Store) ResolveInvitation(userID, id string, approve bool) (models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitations[id]
	if !ok {
		return models.Invitation{}, fail(ErrNotFound, "Invitation not found")
	}
	if inv.InvitedUser.ID != userID {
		return models.Invitation{}, fail(ErrForbidden, "This invitation is not addressed to you")
	}
	if inv.Status != models.InvitationPending {
		return models.Invitation{}, fail(ErrConflict, "Invitation already %s", inv.Status)
	}

	action := "invitation_rejected"
	inv.Status = models.InvitationRejected
	if approve {
		action = "invitation_approved"
		inv.Status = models.InvitationApproved
		if p, ok := s.projects[inv.Project.ID]; ok && !p.HasMember(userID) {
			p.Members = append(p.Members, inv.InvitedUser)
		}
	}
	s.record(inv.Project.ID, "", inv.InvitedUser, action, "")
	return *inv, nil
}
