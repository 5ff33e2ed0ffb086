package models

import "time"

// Project represents a project and its members
type Project struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Owner       User      `json:"owner"`
	Members     []User    `json:"members"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProjectInput is the body of create-project and update-project.
type ProjectInput struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// HasMember reports whether userID owns or belongs to the project.
func (p Project) HasMember(userID string) bool {
	if p.Owner.ID == userID {
		return true
	}
	for _, m := range p.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// DashboardStats summarises the projects and tasks visible to the caller.
type DashboardStats struct {
	TotalProjects  int                `json:"totalProjects"`
	TotalTasks     int                `json:"totalTasks"`
	ByStatus       map[TaskStatus]int `json:"byStatus"`
	PendingInvites int                `json:"pendingInvitations"`
}

// Activity is an append-only log entry recorded by the server.
type Activity struct {
	ID        string    `json:"_id"`
	Project   string    `json:"project"`
	Task      string    `json:"task,omitempty"`
	User      User      `json:"user"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
