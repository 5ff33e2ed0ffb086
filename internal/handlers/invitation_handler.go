package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SendInvitation handles POST /invitations/send-invitation
func (h *Handler) SendInvitation(c *gin.Context) {
	var req struct {
		ProjectID string `json:"projectId" binding:"required"`
		UserID    string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		message(c, http.StatusBadRequest, "projectId and userId are required")
		return
	}
	inv, err := h.Store.SendInvitation(userID(c), req.ProjectID, req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, inv)
}

// MyInvitations handles GET /invitations/my-invitations
func (h *Handler) MyInvitations(c *gin.Context) {
	ok(c, http.StatusOK, h.Store.MyInvitations(userID(c)))
}

// ApproveInvitation handles PATCH /invitations/:id/approve
func (h *Handler) ApproveInvitation(c *gin.Context) {
	h.resolve(c, true)
}

// RejectInvitation handles PATCH /invitations/:id/reject
func (h *Handler) RejectInvitation(c *gin.Context) {
	h.resolve(c, false)
}

func (h *Handler) resolve(c *gin.Context, approve bool) {
	inv, err := h.Store.ResolveInvitation(userID(c), c.Param("id"), approve)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, inv)
}
