package memstore

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"taskflow/internal/models"
)

func cloneTask(t *models.Task) models.Task {
	out := *t
	out.Assignees = append([]models.User{}, t.Assignees...)
	out.Comments = append([]models.Comment{}, t.Comments...)
	return out
}

func (s *Store) memberTask(userID, taskID string) (*models.Task, error) {
	t, ok := s.tasks[taskID]
	if !ok {
		return nil, fail(ErrNotFound, "Task not found")
	}
	if _, err := s.memberProject(userID, t.Project); err != nil {
		return nil, err
	}
	return t, nil
}

// resolveAssignees maps ids to project members; unknown ids are rejected.
func (s *Store) resolveAssignees(p *models.Project, ids []string) ([]models.User, error) {
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if !p.HasMember(id) {
			return nil, fail(ErrInvalidInput, "Assignee %s is not a project member", id)
		}
		out = append(out, s.users[id].user)
	}
	return out, nil
}

// TasksByProject lists a project's tasks, newest first
func (s *Store) TasksByProject(userID, projectID string) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, err := s.memberProject(userID, projectID); err != nil {
		return nil, err
	}
	out := make([]models.Task, 0)
	for _, t := range s.tasks {
		if t.Project == projectID {
			out = append(out, cloneTask(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// CreateTask adds a task to in.Project
func (s *Store) CreateTask(userID string, in models.TaskInput) (models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Task{}, fail(ErrInvalidInput, "Task title is required")
	}
	status := in.Status
	if status == "" {
		status = models.StatusTodo
	}
	if !status.Valid() {
		return models.Task{}, fail(ErrInvalidInput, "Invalid status")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.memberProject(userID, in.Project)
	if err != nil {
		return models.Task{}, err
	}
	assignees, err := s.resolveAssignees(p, in.Assignees)
	if err != nil {
		return models.Task{}, err
	}
	t := &models.Task{
		ID:          uuid.NewString(),
		Project:     p.ID,
		Title:       title,
		Description: in.Description,
		Status:      status,
		Assignees:   assignees,
		Comments:    []models.Comment{},
		CreatedAt:   s.now(),
	}
	s.tasks[t.ID] = t
	s.record(p.ID, t.ID, s.users[userID].user, "task_created", t.Title)
	return cloneTask(t), nil
}

// UpdateTask replaces title, description, status and assignees
func (s *Store) UpdateTask(userID, taskID string, in models.TaskInput) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.memberTask(userID, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if title := strings.TrimSpace(in.Title); title != "" {
		t.Title = title
	}
	t.Description = in.Description
	if in.Status != "" {
		if !in.Status.Valid() {
			return models.Task{}, fail(ErrInvalidInput, "Invalid status")
		}
		t.Status = in.Status
	}
	if in.Assignees != nil {
		assignees, err := s.resolveAssignees(s.projects[t.Project], in.Assignees)
		if err != nil {
			return models.Task{}, err
		}
		t.Assignees = assignees
	}
	s.record(t.Project, t.ID, s.users[userID].user, "task_updated", t.Title)
	return cloneTask(t), nil
}

// MoveTask changes a task's status
func (s *Store) MoveTask(userID, taskID string, status models.TaskStatus) (models.Task, error) {
	if !status.Valid() {
		return models.Task{}, fail(ErrInvalidInput, "Invalid status")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.memberTask(userID, taskID)
	if err != nil {
		return models.Task{}, err
	}
	from := t.Status
	t.Status = status
	s.record(t.Project, t.ID, s.users[userID].user, "task_moved", string(from)+" -> "+string(status))
	return cloneTask(t), nil
}

// DeleteTask removes a task and returns the project it belonged to
func (s *Store) DeleteTask(userID, taskID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.memberTask(userID, taskID)
	if err != nil {
		return "", err
	}
	delete(s.tasks, taskID)
	s.record(t.Project, t.ID, s.users[userID].user, "task_deleted", t.Title)
	return t.Project, nil
}

// AddComment appends a comment by userID
func (s *Store) AddComment(userID, taskID, text string) (models.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Task{}, fail(ErrInvalidInput, "Comment text is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.memberTask(userID, taskID)
	if err != nil {
		return models.Task{}, err
	}
	author := s.users[userID].user
	t.Comments = append(t.Comments, models.Comment{
		ID:        uuid.NewString(),
		Task:      t.ID,
		Author:    author,
		Text:      text,
		CreatedAt: s.now(),
	})
	s.record(t.Project, t.ID, author, "comment_added", text)
	return cloneTask(t), nil
}

func (s *Store) authoredComment(userID string, t *models.Task, commentID string) (int, error) {
	for i, c := range t.Comments {
		if c.ID != commentID {
			continue
		}
		if c.Author.ID != userID {
			return -1, fail(ErrForbidden, "Only the author can change this comment")
		}
		return i, nil
	}
	return -1, fail(ErrNotFound, "Comment not found")
}

// EditComment rewrites a comment; author only
func (s *Store) EditComment(userID, taskID, commentID, text string) (models.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Task{}, fail(ErrInvalidInput, "Comment text is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.memberTask(userID, taskID)
	if err != nil {
		return models.Task{}, err
	}
	i, err := s.authoredComment(userID, t, commentID)
	if err != nil {
		return models.Task{}, err
	}
	t.Comments[i].Text = text
	return cloneTask(t), nil
}

// DeleteComment removes a comment; author only
func (s *Store) DeleteComment(userID, taskID, commentID string) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.memberTask(userID, taskID)
	if err != nil {
		return models.Task{}, err
	}
	i, err := s.authoredComment(userID, t, commentID)
	if err != nil {
		return models.Task{}, err
	}
	t.Comments = append(t.Comments[:i:i], t.Comments[i+1:]...)
	return cloneTask(t), nil
}
