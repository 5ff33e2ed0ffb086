package memstore

import (
	"strings"

	"github.com/google/uuid"

	"taskflow/internal/models"
)

// memberProject must be called with the lock held.
func (s *Store) memberProject(userID, projectID string) (*models.Project, error) {
	p, ok := s.projects[projectID]
	if !ok {
		return nil, fail(ErrNotFound, "Project not found")
	}
	if !p.HasMember(userID) {
		return nil, fail(ErrForbidden, "You are not a member of this project")
	}
	return p, nil
}

func (s *Store) ownedProject(userID, projectID string) (*models.Project, error) {
	p, err := s.memberProject(userID, projectID)
	if err != nil {
		return nil, err
	}
	if p.Owner.ID != userID {
		return nil, fail(ErrForbidden, "Only the project owner can do that")
	}
	return p, nil
}

func cloneProject(p *models.Project) models.Project {
	out := *p
	out.Members = append([]models.User(nil), p.Members...)
	return out
}

// Projects lists the projects userID belongs to, newest first
func (s *Store) Projects(userID string) []models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Project, 0)
	for _, p := range s.projects {
		if p.HasMember(userID) {
			out = append(out, cloneProject(p))
		}
	}
	sortProjects(out)
	return out
}

// CreateProject creates a project owned by userID
func (s *Store) CreateProject(userID string, in models.ProjectInput) (models.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Project{}, fail(ErrInvalidInput, "Project name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.users[userID]
	if !ok {
		return models.Project{}, fail(ErrNotFound, "User not found")
	}
	p := &models.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: in.Description,
		Owner:       owner.user,
		Members:     []models.User{owner.user},
		CreatedAt:   s.now(),
	}
	s.projects[p.ID] = p
	s.record(p.ID, "", owner.user, "project_created", p.Name)
	return cloneProject(p), nil
}

// UpdateProject changes name and description; owner only
func (s *Store) UpdateProject(userID, projectID string, in models.ProjectInput) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.ownedProject(userID, projectID)
	if err != nil {
		return models.Project{}, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		p.Name = name
	}
	p.Description = in.Description
	s.record(p.ID, "", s.users[userID].user, "project_updated", p.Name)
	return cloneProject(p), nil
}

// DeleteProject removes a project with its tasks and invitations; owner only
func (s *Store) DeleteProject(userID, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.ownedProject(userID, projectID); err != nil {
		return err
	}
	delete(s.projects, projectID)
	for id, t := range s.tasks {
		if t.Project == projectID {
			delete(s.tasks, id)
		}
	}
	for id, inv := range s.invitations {
		if inv.Project.ID == projectID {
			delete(s.invitations, id)
		}
	}
	return nil
}

// ProjectDetails returns a project the caller belongs to
func (s *Store) ProjectDetails(userID, projectID string) (models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.memberProject(userID, projectID)
	if err != nil {
		return models.Project{}, err
	}
	return cloneProject(p), nil
}

// RemoveMember drops memberID from the project; owner only, and the owner stays
func (s *Store) RemoveMember(userID, projectID, memberID string) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.ownedProject(userID, projectID)
	if err != nil {
		return models.Project{}, err
	}
	if memberID == p.Owner.ID {
		return models.Project{}, fail(ErrInvalidInput, "The owner cannot be removed")
	}
	kept := p.Members[:0]
	removed := false
	for _, m := range p.Members {
		if m.ID == memberID {
			removed = true
			continue
		}
		kept = append(kept, m)
	}
	if !removed {
		return models.Project{}, fail(ErrNotFound, "Member not found")
	}
	p.Members = kept
	s.record(p.ID, "", s.users[userID].user, "member_removed", memberID)
	return cloneProject(p), nil
}

// SearchInvitees finds non-members whose name or email contains query
func (s *Store) SearchInvitees(userID, projectID, query string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.memberProject(userID, projectID)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.User, 0)
	if q == "" {
		return out, nil
	}
	for _, rec := range s.users {
		u := rec.user
		if p.HasMember(u.ID) {
			continue
		}
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(u.Email, q) {
			out = append(out, u)
		}
	}
	return out, nil
}

// DashboardStats counts what userID can see
func (s *Store) DashboardStats(userID string) models.DashboardStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := models.DashboardStats{ByStatus: make(map[models.TaskStatus]int)}
	for _, st := range models.Statuses() {
		stats.ByStatus[st] = 0
	}
	for _, p := range s.projects {
		if !p.HasMember(userID) {
			continue
		}
		stats.TotalProjects++
		for _, t := range s.tasks {
			if t.Project == p.ID {
				stats.TotalTasks++
				stats.ByStatus[t.Status]++
			}
		}
	}
	for _, inv := range s.invitations {
		if inv.InvitedUser.ID == userID && inv.Status == models.InvitationPending {
			stats.PendingInvites++
		}
	}
	return stats
}
