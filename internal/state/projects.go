package state

import (
	"context"

	"taskflow/internal/models"
	"taskflow/internal/validation"
)

func replaceCurrent(current *models.Project, p models.Project) *models.Project {
	if current != nil && current.ID == p.ID {
		return &p
	}
	return current
}

// FetchProjects loads the projects the user owns or belongs to
func (s *Store) FetchProjects(ctx context.Context) ([]models.Project, error) {
	return thunk(ctx, s, SliceProjects, fixed("Failed to load projects"),
		func(ctx context.Context, c API) ([]models.Project, error) {
			return c.ListProjects(ctx)
		},
		func(st State, list []models.Project) State {
			st.Projects.Items = list
			return st
		})
}

// CreateProject adds a project at the top of the list
func (s *Store) CreateProject(ctx context.Context, form validation.ProjectForm) (models.Project, error) {
	if err := validation.Validate(form); err != nil {
		return models.Project{}, err
	}
	return thunk(ctx, s, SliceProjects, fixed("Create project failed"),
		func(ctx context.Context, c API) (models.Project, error) {
			return c.CreateProject(ctx, form.Input())
		},
		func(st State, p models.Project) State {
			st.Projects.Items = upsertFront(st.Projects.Items, p, projectIDOf)
			return st
		})
}

// UpdateProject edits name and description
func (s *Store) UpdateProject(ctx context.Context, id string, form validation.ProjectForm) (models.Project, error) {
	if err := validation.Validate(form); err != nil {
		return models.Project{}, err
	}
	return thunk(ctx, s, SliceProjects, fixed("Update project failed"),
		func(ctx context.Context, c API) (models.Project, error) {
			return c.UpdateProject(ctx, id, form.Input())
		},
		func(st State, p models.Project) State {
			st.Projects.Items = replaceByID(st.Projects.Items, p, projectIDOf)
			st.Projects.Current = replaceCurrent(st.Projects.Current, p)
			return st
		})
}

// DeleteProject removes the project with id
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	_, err := thunk(ctx, s, SliceProjects, fixed("Delete project failed"),
		func(ctx context.Context, c API) (struct{}, error) {
			return struct{}{}, c.DeleteProject(ctx, id)
		},
		func(st State, _ struct{}) State {
			st.Projects.Items = removeByID(st.Projects.Items, id, projectIDOf)
			if st.Projects.Current != nil && st.Projects.Current.ID == id {
				st.Projects.Current = nil
			}
			if st.Tasks.ProjectID == id {
				st.Tasks = TasksState{}
			}
			return st
		})
	return err
}

// ProjectDetails loads one project with its members into Current
func (s *Store) ProjectDetails(ctx context.Context, id string) (models.Project, error) {
	return thunk(ctx, s, SliceProjects, fixed("Failed to load project"),
		func(ctx context.Context, c API) (models.Project, error) {
			return c.ProjectDetails(ctx, id)
		},
		func(st State, p models.Project) State {
			st.Projects.Current = &p
			st.Projects.Items = replaceByID(st.Projects.Items, p, projectIDOf)
			return st
		})
}

// RemoveMember drops a member from a project
func (s *Store) RemoveMember(ctx context.Context, projectID, memberID string) (models.Project, error) {
	p, err := thunk(ctx, s, SliceProjects, fixed("Failed to remove member"),
		func(ctx context.Context, c API) (models.Project, error) {
			return c.RemoveMember(ctx, projectID, memberID)
		},
		func(st State, p models.Project) State {
			st.Projects.Items = replaceByID(st.Projects.Items, p, projectIDOf)
			st.Projects.Current = replaceCurrent(st.Projects.Current, p)
			return st
		})
	if err == nil {
		s.invitees.Clear()
	}
	return p, err
}

// DashboardStats loads the dashboard counters
func (s *Store) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	return thunk(ctx, s, SliceProjects, fixed("Failed to load dashboard"),
		func(ctx context.Context, c API) (models.DashboardStats, error) {
			return c.DashboardStats(ctx)
		},
		func(st State, stats models.DashboardStats) State {
			st.Projects.Stats = &stats
			return st
		})
}
