package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/internal/models"
)

// GetProjects handles GET /projects/get-projects
func (h *Handler) GetProjects(c *gin.Context) {
	ok(c, http.StatusOK, h.Store.Projects(userID(c)))
}

// CreateProject handles POST /projects/create-project
func (h *Handler) CreateProject(c *gin.Context) {
	var in models.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		message(c, http.StatusBadRequest, "Invalid request")
		return
	}
	p, err := h.Store.CreateProject(userID(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

// UpdateProject handles PATCH /projects/update-project/:id
func (h *Handler) UpdateProject(c *gin.Context) {
	var in models.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		message(c, http.StatusBadRequest, "Invalid request")
		return
	}
	p, err := h.Store.UpdateProject(userID(c), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// DeleteProject handles DELETE /projects/delete-project/:id
func (h *Handler) DeleteProject(c *gin.Context) {
	if err := h.Store.DeleteProject(userID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	message(c, http.StatusOK, "Project deleted")
}

// ProjectDetails handles GET /projects/:id/project-details
func (h *Handler) ProjectDetails(c *gin.Context) {
	p, err := h.Store.ProjectDetails(userID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// RemoveMember handles DELETE /projects/:id/remove-member/:memberId
func (h *Handler) RemoveMember(c *gin.Context) {
	p, err := h.Store.RemoveMember(userID(c), c.Param("id"), c.Param("memberId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// SearchInvitees handles GET /projects/:id/invite/search?q=
func (h *Handler) SearchInvitees(c *gin.Context) {
	users, err := h.Store.SearchInvitees(userID(c), c.Param("id"), c.Query("q"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, users)
}

// DashboardStats handles GET /projects/get-dashboard-stats
func (h *Handler) DashboardStats(c *gin.Context) {
	ok(c, http.StatusOK, h.Store.DashboardStats(userID(c)))
}

// ProjectActivity handles GET /activities/get-project-activity/:projectId
func (h *Handler) ProjectActivity(c *gin.Context) {
	logs, err := h.Store.Activity(userID(c), c.Param("projectId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, logs)
}
