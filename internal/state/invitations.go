package state

import (
	"context"
	"strings"

	"taskflow/internal/models"
	"taskflow/internal/validation"
)

// FetchInvitations loads the invitations addressed to the user
func (s *Store) FetchInvitations(ctx context.Context) ([]models.Invitation, error) {
	return thunk(ctx, s, SliceInvitations, fixed("Failed to load invitations"),
		func(ctx context.Context, c API) ([]models.Invitation, error) {
			return c.MyInvitations(ctx)
		},
		func(st State, list []models.Invitation) State {
			st.Invitations.Items = list
			return st
		})
}

// SendInvitation invites a user to a project
func (s *Store) SendInvitation(ctx context.Context, form validation.InviteForm) (models.Invitation, error) {
	if err := validation.Validate(form); err != nil {
		return models.Invitation{}, err
	}
	inv, err := thunk(ctx, s, SliceInvitations, fixed("Failed to send invitation"),
		func(ctx context.Context, c API) (models.Invitation, error) {
			return c.SendInvitation(ctx, form.ProjectID, form.UserID)
		},
		func(st State, _ models.Invitation) State {
			st.Invitations.Message = "Invitation sent"
			return st
		})
	if err == nil {
		s.invitees.Clear()
	}
	return inv, err
}

// InviteByEmail searches the project's invitees for an exact email match and
// invites that user.
func (s *Store) InviteByEmail(ctx context.Context, form validation.InviteEmailForm) (models.Invitation, error) {
	if err := validation.Validate(form); err != nil {
		return models.Invitation{}, err
	}
	users, err := s.SearchInvitees(ctx, form.ProjectID, form.Email)
	if err != nil {
		return models.Invitation{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, form.Email) {
			return s.SendInvitation(ctx, validation.InviteForm{ProjectID: form.ProjectID, UserID: u.ID})
		}
	}
	return models.Invitation{}, ErrInviteeNotFound
}

// ApproveInvitation accepts a pending invitation
func (s *Store) ApproveInvitation(ctx context.Context, id string) (models.Invitation, error) {
	return s.resolveInvitation(ctx, id, true)
}

// RejectInvitation declines a pending invitation
func (s *Store) RejectInvitation(ctx context.Context, id string) (models.Invitation, error) {
	return s.resolveInvitation(ctx, id, false)
}

func (s *Store) resolveInvitation(ctx context.Context, id string, approve bool) (models.Invitation, error) {
	items := s.State().Invitations.Items
	if i := indexByID(items, id, invitationID); i >= 0 && items[i].Status.Terminal() {
		return models.Invitation{}, ErrInvitationResolved
	}

	fallback := "Failed to reject invitation"
	if approve {
		fallback = "Failed to approve invitation"
	}
	return thunk(ctx, s, SliceInvitations, fixed(fallback),
		func(ctx context.Context, c API) (models.Invitation, error) {
			if approve {
				return c.ApproveInvitation(ctx, id)
			}
			return c.RejectInvitation(ctx, id)
		},
		func(st State, inv models.Invitation) State {
			st.Invitations.Items = replaceByID(st.Invitations.Items, inv, invitationID)
			return st
		})
}
