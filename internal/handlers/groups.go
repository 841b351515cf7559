package handlers

import (
	"net/http"

	"github.com/go-authgate/dirgate/internal/services"

	"github.com/gin-gonic/gin"
)

// GroupHandler manages directory groups
type GroupHandler struct {
	directory *services.DirectoryService
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(directory *services.DirectoryService) *GroupHandler {
	return &GroupHandler{directory: directory}
}

type createGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

// ListGroups returns every group name
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.directory.ListGroups(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": nonNil(groups)})
}

// GroupUsers returns the members of a group
func (h *GroupHandler) GroupUsers(c *gin.Context) {
	users, err := h.directory.GroupUsers(c.Request.Context(), c.Param("group"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": nonNil(users)})
}

// CreateGroup creates an empty group
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, badRequest(err))
		return
	}

	if err := h.directory.CreateGroup(c.Request.Context(), req.Name); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"name": req.Name})
}

// DeleteGroup removes a group and every membership in it
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	if err := h.directory.DeleteGroup(c.Request.Context(), c.Param("group")); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
