package state

import (
	"context"

	"taskflow/internal/models"
)

// FetchActivity loads the activity log of a project
func (s *Store) FetchActivity(ctx context.Context, projectID string) ([]models.Activity, error) {
	return thunk(ctx, s, SliceActivity, fixed("Failed to load activity"),
		func(ctx context.Context, c API) ([]models.Activity, error) {
			return c.ProjectActivity(ctx, projectID)
		},
		func(st State, logs []models.Activity) State {
			st.Activity.Logs = logs
			return st
		})
}

// ClearActivity empties the activity log
func (s *Store) ClearActivity() {
	s.dispatch(func(st State) State {
		st.Activity = ActivityState{}
		return st
	})
}
