package api

import (
	"context"
	"net/http"
	"net/url"

	"taskflow/internal/models"
)

// ListProjects returns every project the caller owns or belongs to
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	data, _, err := call[[]models.Project](ctx, c, http.MethodGet, "/projects/get-projects", nil)
	return data, err
}

// CreateProject creates a project owned by the caller
func (c *Client) CreateProject(ctx context.Context, in models.ProjectInput) (models.Project, error) {
	data, _, err := call[models.Project](ctx, c, http.MethodPost, "/projects/create-project", in)
	return data, err
}

// UpdateProject patches name and description
func (c *Client) UpdateProject(ctx context.Context, id string, in models.ProjectInput) (models.Project, error) {
	data, _, err := call[models.Project](ctx, c, http.MethodPatch, "/projects/update-project/"+escape(id), in)
	return data, err
}

// DeleteProject deletes a project; the server cascades to its tasks
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/projects/delete-project/"+escape(id), nil, nil)
}

// ProjectDetails returns one project with its members
func (c *Client) ProjectDetails(ctx context.Context, id string) (models.Project, error) {
	data, _, err := call[models.Project](ctx, c, http.MethodGet, "/projects/"+escape(id)+"/project-details", nil)
	return data, err
}

// RemoveMember removes memberID from the project and returns the updated project
func (c *Client) RemoveMember(ctx context.Context, projectID, memberID string) (models.Project, error) {
	path := "/projects/" + escape(projectID) + "/remove-member/" + escape(memberID)
	data, _, err := call[models.Project](ctx, c, http.MethodDelete, path, nil)
	return data, err
}

// SearchInvitees finds users matching query who are not yet members
func (c *Client) SearchInvitees(ctx context.Context, projectID, query string) ([]models.User, error) {
	path := "/projects/" + escape(projectID) + "/invite/search?q=" + url.QueryEscape(query)
	data, _, err := call[[]models.User](ctx, c, http.MethodGet, path, nil)
	return data, err
}

// DashboardStats returns the caller's project and task counts
func (c *Client) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	data, _, err := call[models.DashboardStats](ctx, c, http.MethodGet, "/projects/get-dashboard-stats", nil)
	return data, err
}
