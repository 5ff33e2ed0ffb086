package board

import (
	"context"

	"taskflow/internal/models"
)

// Column is one status lane of the board
type Column struct {
	Status models.TaskStatus `json:"status" yaml:"status"`
	Title  string            `json:"title" yaml:"title"`
	Tasks  []models.Task     `json:"tasks" yaml:"tasks"`
}

// Board holds the four columns in display order
type Board struct {
	Columns []Column `json:"columns" yaml:"columns"`
}

// Group partitions tasks into the fixed columns. Every task lands in exactly
// one column; an empty or unknown status counts as todo. Tasks keep their list
// order within a column.
func Group(tasks []models.Task) Board {
	statuses := models.Statuses()
	index := make(map[models.TaskStatus]int, len(statuses))
	b := Board{Columns: make([]Column, len(statuses))}
	for i, st := range statuses {
		index[st] = i
		b.Columns[i] = Column{Status: st, Title: st.Label(), Tasks: []models.Task{}}
	}
	for _, t := range tasks {
		i := index[ColumnOf(t.Status)]
		b.Columns[i].Tasks = append(b.Columns[i].Tasks, t)
	}
	return b
}

// ColumnOf returns the status of the column a task with status is shown in
func ColumnOf(status models.TaskStatus) models.TaskStatus {
	if !status.Valid() {
		return models.StatusTodo
	}
	return status
}

// Column returns the column for status
func (b Board) Column(status models.TaskStatus) (Column, bool) {
	for _, c := range b.Columns {
		if c.Status == status {
			return c, true
		}
	}
	return Column{}, false
}

// Len counts the tasks across all columns
func (b Board) Len() int {
	n := 0
	for _, c := range b.Columns {
		n += len(c.Tasks)
	}
	return n
}

// Mover changes the status of a task. The application store implements it.
type Mover interface {
	MoveTask(ctx context.Context, id string, status models.TaskStatus) (models.Task, error)
}

// Drop is the end of a drag from Source to Destination. A nil Destination
// means the task was dropped outside any column.
type Drop struct {
	TaskID      string
	Source      models.TaskStatus
	Destination *models.TaskStatus
}

// Moves reports whether the drop changes the task's column
func (d Drop) Moves() bool {
	return d.Destination != nil && *d.Destination != ColumnOf(d.Source)
}

// Apply issues one status change for a drop that moves the task and nothing
// otherwise. It reports whether a request was made.
func (d Drop) Apply(ctx context.Context, m Mover) (bool, error) {
	if !d.Moves() {
		return false, nil
	}
	_, err := m.MoveTask(ctx, d.TaskID, *d.Destination)
	return true, err
}
