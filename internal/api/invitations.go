package api

import (
	"context"
	"net/http"

	"taskflow/internal/models"
)

// SendInvitation invites userID to projectID
func (c *Client) SendInvitation(ctx context.Context, projectID, userID string) (models.Invitation, error) {
	body := map[string]string{"projectId": projectID, "userId": userID}
	data, _, err := call[models.Invitation](ctx, c, http.MethodPost, "/invitations/send-invitation", body)
	return data, err
}

// MyInvitations lists invitations addressed to the caller
func (c *Client) MyInvitations(ctx context.Context) ([]models.Invitation, error) {
	data, _, err := call[[]models.Invitation](ctx, c, http.MethodGet, "/invitations/my-invitations", nil)
	return data, err
}

// ApproveInvitation accepts a pending invitation
func (c *Client) ApproveInvitation(ctx context.Context, id string) (models.Invitation, error) {
	data, _, err := call[models.Invitation](ctx, c, http.MethodPatch, "/invitations/"+escape(id)+"/approve", nil)
	return data, err
}

// RejectInvitation declines a pending invitation
func (c *Client) RejectInvitation(ctx context.Context, id string) (models.Invitation, error) {
	data, _, err := call[models.Invitation](ctx, c, http.MethodPatch, "/invitations/"+escape(id)+"/reject", nil)
	return data, err
}

// ProjectActivity returns the activity log of a project, newest first
func (c *Client) ProjectActivity(ctx context.Context, projectID string) ([]models.Activity, error) {
	data, _, err := call[[]models.Activity](ctx, c, http.MethodGet, "/activities/get-project-activity/"+escape(projectID), nil)
	return data, err
}
