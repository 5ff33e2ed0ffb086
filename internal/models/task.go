package models

import "time"

// TaskStatus represents the board column a task sits in
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusInReview   TaskStatus = "in-review"
	StatusDone       TaskStatus = "done"
)

// Statuses returns every status in board order.
func Statuses() []TaskStatus {
	return []TaskStatus{StatusTodo, StatusInProgress, StatusInReview, StatusDone}
}

// Valid reports whether s is one of the four board statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusInReview, StatusDone:
		return true
	}
	return false
}

// Label is the column heading shown for the status.
func (s TaskStatus) Label() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusInReview:
		return "In Review"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

// Comment represents a note left on a task
type Comment struct {
	ID        string    `json:"_id"`
	Task      string    `json:"task,omitempty"`
	Author    User      `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Task represents a task in a project
type Task struct {
	ID          string     `json:"_id"`
	Project     string     `json:"project"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Assignees   []User     `json:"assignees"`
	Comments    []Comment  `json:"comments"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// TaskInput is the body of create-task and update-task.
type TaskInput struct {
	Project     string     `json:"project,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status,omitempty"`
	Assignees   []string   `json:"assignees,omitempty"`
}

// CanEditComment reports whether user is allowed to edit or delete c.
// The server enforces this too; the client only uses it to decide what to offer.
func CanEditComment(user *User, c Comment) bool {
	return user != nil && user.ID != "" && user.ID == c.Author.ID
}
