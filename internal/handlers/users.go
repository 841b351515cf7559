package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-authgate/dirgate/internal/core"
	"github.com/go-authgate/dirgate/internal/models"
	"github.com/go-authgate/dirgate/internal/services"

	"github.com/gin-gonic/gin"
)

// UserHandler manages directory users
type UserHandler struct {
	directory *services.DirectoryService
}

// NewUserHandler creates a new user handler
func NewUserHandler(directory *services.DirectoryService) *UserHandler {
	return &UserHandler{directory: directory}
}

// ListUsers returns every username
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.directory.ListUsers(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": nonNil(users)})
}

// GetUser returns one user record
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.directory.FindUser(c.Request.Context(), c.Param("username"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.WithoutPassword())
}

// UserGroups returns the groups a user belongs to
func (h *UserHandler) UserGroups(c *gin.Context) {
	groups, err := h.directory.UserGroups(c.Request.Context(), c.Param("username"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": nonNil(groups)})
}

// CreateUser creates a user and any group it names
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.ModificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, badRequest(err))
		return
	}

	user, err := h.directory.CreateUser(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user.WithoutPassword())
}

// UpdateUser applies a partial update. The path username wins over the body.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req models.ModificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, badRequest(err))
		return
	}
	req.Username = c.Param("username")

	user, err := h.directory.UpdateUser(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.WithoutPassword())
}

// DeleteUser removes a user, pruning emptied groups when prune_groups=true
func (h *UserHandler) DeleteUser(c *gin.Context) {
	prune, _ := strconv.ParseBool(c.DefaultQuery("prune_groups", "false"))

	if err := h.directory.DeleteUser(c.Request.Context(), c.Param("username"), prune); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
