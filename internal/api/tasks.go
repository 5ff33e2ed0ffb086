package api

import (
	"context"
	"net/http"

	"taskflow/internal/models"
)

// TasksByProject lists the tasks of a project
func (c *Client) TasksByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	data, _, err := call[[]models.Task](ctx, c, http.MethodGet, "/tasks/task-by-project/"+escape(projectID), nil)
	return data, err
}

// CreateTask creates a task in in.Project
func (c *Client) CreateTask(ctx context.Context, in models.TaskInput) (models.Task, error) {
	data, _, err := call[models.Task](ctx, c, http.MethodPost, "/tasks/create-task", in)
	return data, err
}

// UpdateTask replaces the editable fields of a task
func (c *Client) UpdateTask(ctx context.Context, id string, in models.TaskInput) (models.Task, error) {
	data, _, err := call[models.Task](ctx, c, http.MethodPut, "/tasks/update-task/"+escape(id), in)
	return data, err
}

// MoveTask changes only the status of a task
func (c *Client) MoveTask(ctx context.Context, id string, status models.TaskStatus) (models.Task, error) {
	body := map[string]models.TaskStatus{"status": status}
	data, _, err := call[models.Task](ctx, c, http.MethodPatch, "/tasks/"+escape(id)+"/move", body)
	return data, err
}

// DeleteTask deletes a task
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/delete-task/"+escape(id), nil, nil)
}

// AddComment appends a comment and returns the updated task
func (c *Client) AddComment(ctx context.Context, taskID, text string) (models.Task, error) {
	body := map[string]string{"text": text}
	data, _, err := call[models.Task](ctx, c, http.MethodPost, "/tasks/"+escape(taskID)+"/add-comment", body)
	return data, err
}

// EditComment rewrites a comment and returns the updated task
func (c *Client) EditComment(ctx context.Context, taskID, commentID, text string) (models.Task, error) {
	path := "/tasks/" + escape(taskID) + "/edit-comment/" + escape(commentID)
	data, _, err := call[models.Task](ctx, c, http.MethodPut, path, map[string]string{"text": text})
	return data, err
}

// DeleteComment removes a comment and returns the updated task
func (c *Client) DeleteComment(ctx context.Context, taskID, commentID string) (models.Task, error) {
	path := "/tasks/" + escape(taskID) + "/delete-comment/" + escape(commentID)
	data, _, err := call[models.Task](ctx, c, http.MethodDelete, path, nil)
	return data, err
}
