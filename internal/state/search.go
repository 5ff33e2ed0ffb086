package state

import (
	"context"
	"strings"
	"sync"
	"time"

	"taskflow/internal/models"
)

func inviteeKey(projectID, query string) string {
	return projectID + "\x00" + strings.ToLower(query)
}

// SearchInvitees finds users that can be invited to a project. Results are
// cached per project and query for a short while.
func (s *Store) SearchInvitees(ctx context.Context, projectID, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		s.dispatch(func(st State) State {
			st.Projects.Invitees = nil
			return st
		})
		return nil, nil
	}
	key := inviteeKey(projectID, query)
	if users, ok := s.invitees.Get(key); ok {
		s.dispatch(func(st State) State {
			st.Projects.Invitees = users
			return st
		})
		return users, nil
	}

	users, err := thunk(ctx, s, SliceProjects, fixed("Search failed"),
		func(ctx context.Context, c API) ([]models.User, error) {
			return c.SearchInvitees(ctx, projectID, query)
		},
		func(st State, users []models.User) State {
			st.Projects.Invitees = users
			return st
		})
	if err == nil {
		s.invitees.Set(key, users, s.searchTTL)
	}
	return users, err
}

// InviteSearch debounces keystrokes into invitee searches. Each new query
// cancels the one before it.
type InviteSearch struct {
	store     *Store
	projectID string
	delay     time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
}

// NewInviteSearch starts a debounced search bound to a project
func (s *Store) NewInviteSearch(projectID string) *InviteSearch {
	return &InviteSearch{store: s, projectID: projectID, delay: s.searchDelay}
}

// Type records the latest query. The search runs once the query has been
// stable for the debounce delay.
func (q *InviteSearch) Type(ctx context.Context, query string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopLocked()

	runCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.timer = time.AfterFunc(q.delay, func() {
		if _, err := q.store.SearchInvitees(runCtx, q.projectID, query); err != nil && runCtx.Err() == nil {
			q.store.log.WithError(err).Debug("invitee search failed")
		}
	})
}

// Stop cancels any pending or running search
func (q *InviteSearch) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopLocked()
}

func (q *InviteSearch) stopLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
}
