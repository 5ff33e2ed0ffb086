package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/internal/models"
	"taskflow/internal/realtime"
)

type commentRequest struct {
	Text string `json:"text" binding:"required"`
}

// publish pushes a task event to the project's socket subscribers.
func (h *Handler) publish(projectID string, evt realtime.TaskEvent) {
	if h.Hub == nil {
		return
	}
	if err := h.Hub.Publish(projectID, evt); err != nil {
		h.logger().WithError(err).Warn("failed to publish task event")
	}
}

func (h *Handler) taskChanged(c *gin.Context, status int, kind string, t models.Task) {
	h.publish(t.Project, realtime.TaskEvent{Kind: kind, Task: &t, TaskID: t.ID})
	ok(c, status, t)
}

// TasksByProject handles GET /tasks/task-by-project/:projectId
func (h *Handler) TasksByProject(c *gin.Context) {
	tasks, err := h.Store.TasksByProject(userID(c), c.Param("projectId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, tasks)
}

// CreateTask handles POST /tasks/create-task
func (h *Handler) CreateTask(c *gin.Context) {
	var in models.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		message(c, http.StatusBadRequest, "Invalid request")
		return
	}
	t, err := h.Store.CreateTask(userID(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	h.taskChanged(c, http.StatusCreated, realtime.EventTaskCreated, t)
}

// UpdateTask handles PUT /tasks/update-task/:id
func (h *Handler) UpdateTask(c *gin.Context) {
	var in models.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		message(c, http.StatusBadRequest, "Invalid request")
		return
	}
	t, err := h.Store.UpdateTask(userID(c), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	h.taskChanged(c, http.StatusOK, realtime.EventTaskUpdated, t)
}

// MoveTask handles PATCH /tasks/:id/move
func (h *Handler) MoveTask(c *gin.Context) {
	var req struct {
		Status models.TaskStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		message(c, http.StatusBadRequest, "Status is required")
		return
	}
	t, err := h.Store.MoveTask(userID(c), c.Param("id"), req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	h.taskChanged(c, http.StatusOK, realtime.EventTaskUpdated, t)
}

// DeleteTask handles DELETE /tasks/delete-task/:id
func (h *Handler) DeleteTask(c *gin.Context) {
	id := c.Param("id")
	projectID, err := h.Store.DeleteTask(userID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	h.publish(projectID, realtime.TaskEvent{Kind: realtime.EventTaskDeleted, TaskID: id})
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Task deleted", "data": gin.H{"_id": id}})
}

// AddComment handles POST /tasks/:id/add-comment
func (h *Handler) AddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		message(c, http.StatusBadRequest, "Comment text is required")
		return
	}
	t, err := h.Store.AddComment(userID(c), c.Param("id"), req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	h.taskChanged(c, http.StatusCreated, realtime.EventTaskUpdated, t)
}

// EditComment handles PUT /tasks/:id/edit-comment/:commentId
func (h *Handler) EditComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		message(c, http.StatusBadRequest, "Comment text is required")
		return
	}
	t, err := h.Store.EditComment(userID(c), c.Param("id"), c.Param("commentId"), req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	h.taskChanged(c, http.StatusOK, realtime.EventTaskUpdated, t)
}

// DeleteComment handles DELETE /tasks/:id/delete-comment/:commentId
func (h *Handler) DeleteComment(c *gin.Context) {
	t, err := h.Store.DeleteComment(userID(c), c.Param("id"), c.Param("commentId"))
	if err != nil {
		fail(c, err)
		return
	}
	h.taskChanged(c, http.StatusOK, realtime.EventTaskUpdated, t)
}
