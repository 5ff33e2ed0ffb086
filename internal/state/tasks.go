package state

import (
	"context"

	"taskflow/internal/models"
	"taskflow/internal/realtime"
	"taskflow/internal/validation"
)

// FetchTasks loads the tasks of a project
func (s *Store) FetchTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	return thunk(ctx, s, SliceTasks, fixed("Failed to load tasks"),
		func(ctx context.Context, c API) ([]models.Task, error) {
			return c.TasksByProject(ctx, projectID)
		},
		func(st State, list []models.Task) State {
			st.Tasks.ProjectID = projectID
			st.Tasks.Items = list
			return st
		})
}

// CreateTask adds a task at the top of the list. An empty form project falls
// back to the project whose tasks are loaded.
func (s *Store) CreateTask(ctx context.Context, form validation.TaskForm) (models.Task, error) {
	if err := validation.Validate(form); err != nil {
		return models.Task{}, err
	}
	if form.Project == "" {
		form.Project = s.State().Tasks.ProjectID
	}
	// the socket may deliver the created task before the response does
	return thunk(ctx, s, SliceTasks, fixed("Create task failed"),
		func(ctx context.Context, c API) (models.Task, error) {
			return c.CreateTask(ctx, form.Input())
		},
		func(st State, t models.Task) State {
			st.Tasks.Items = upsertFront(st.Tasks.Items, t, taskID)
			return st
		})
}

func replaceTask(st State, t models.Task) State {
	st.Tasks.Items = replaceByID(st.Tasks.Items, t, taskID)
	return st
}

// UpdateTask edits a task
func (s *Store) UpdateTask(ctx context.Context, id string, form validation.TaskForm) (models.Task, error) {
	if err := validation.Validate(form); err != nil {
		return models.Task{}, err
	}
	return thunk(ctx, s, SliceTasks, fixed("Update task failed"),
		func(ctx context.Context, c API) (models.Task, error) {
			return c.UpdateTask(ctx, id, form.Input())
		}, replaceTask)
}

// MoveTask changes the status of a task
func (s *Store) MoveTask(ctx context.Context, id string, status models.TaskStatus) (models.Task, error) {
	return thunk(ctx, s, SliceTasks, fixed("Move task failed"),
		func(ctx context.Context, c API) (models.Task, error) {
			return c.MoveTask(ctx, id, status)
		}, replaceTask)
}

// DeleteTask removes the task with id
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	_, err := thunk(ctx, s, SliceTasks, fixed("Delete task failed"),
		func(ctx context.Context, c API) (struct{}, error) {
			return struct{}{}, c.DeleteTask(ctx, id)
		},
		func(st State, _ struct{}) State {
			st.Tasks.Items = removeByID(st.Tasks.Items, id, taskID)
			return st
		})
	return err
}

// AddComment comments on a task
func (s *Store) AddComment(ctx context.Context, taskID string, form validation.CommentForm) (models.Task, error) {
	if err := validation.Validate(form); err != nil {
		return models.Task{}, err
	}
	return thunk(ctx, s, SliceTasks, fixed("Add comment failed"),
		func(ctx context.Context, c API) (models.Task, error) {
			return c.AddComment(ctx, taskID, form.Text)
		}, replaceTask)
}

// EditComment changes the text of one of the user's comments
func (s *Store) EditComment(ctx context.Context, taskID, commentID string, form validation.CommentForm) (models.Task, error) {
	if err := validation.Validate(form); err != nil {
		return models.Task{}, err
	}
	if err := s.checkCommentAuthor(taskID, commentID); err != nil {
		return models.Task{}, err
	}
	return thunk(ctx, s, SliceTasks, fixed("Edit comment failed"),
		func(ctx context.Context, c API) (models.Task, error) {
			return c.EditComment(ctx, taskID, commentID, form.Text)
		}, replaceTask)
}

// DeleteComment removes one of the user's comments
func (s *Store) DeleteComment(ctx context.Context, taskID, commentID string) (models.Task, error) {
	if err := s.checkCommentAuthor(taskID, commentID); err != nil {
		return models.Task{}, err
	}
	return thunk(ctx, s, SliceTasks, fixed("Delete comment failed"),
		func(ctx context.Context, c API) (models.Task, error) {
			return c.DeleteComment(ctx, taskID, commentID)
		}, replaceTask)
}

// checkCommentAuthor rejects changes to a loaded comment written by someone
// else. Comments that are not loaded are left to the server.
func (s *Store) checkCommentAuthor(id, commentID string) error {
	st := s.State()
	i := indexByID(st.Tasks.Items, id, taskID)
	if i < 0 {
		return nil
	}
	for _, c := range st.Tasks.Items[i].Comments {
		if c.ID == commentID && !models.CanEditComment(st.Auth.User, c) {
			return ErrNotCommentAuthor
		}
	}
	return nil
}

// ApplyTaskEvent patches the task list with a realtime event. Events for a
// project other than the loaded one are ignored.
func (s *Store) ApplyTaskEvent(evt realtime.TaskEvent) {
	s.dispatch(func(st State) State {
		switch evt.Kind {
		case realtime.EventTaskCreated, realtime.EventTaskUpdated:
			if evt.Task == nil {
				return st
			}
			if st.Tasks.ProjectID != "" && evt.Task.Project != "" && evt.Task.Project != st.Tasks.ProjectID {
				return st
			}
			if evt.Kind == realtime.EventTaskCreated {
				st.Tasks.Items = upsertFront(st.Tasks.Items, *evt.Task, taskID)
			} else {
				st.Tasks.Items = replaceByID(st.Tasks.Items, *evt.Task, taskID)
			}
		case realtime.EventTaskDeleted:
			st.Tasks.Items = removeByID(st.Tasks.Items, evt.TaskID, taskID)
		}
		return st
	})
}
