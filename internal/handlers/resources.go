package handlers

import (
	"net/http"

	"github.com/go-authgate/dirgate/internal/models"
	"github.com/go-authgate/dirgate/internal/services"

	"github.com/gin-gonic/gin"
)

// ResourceHandler lists the authenticated user's resources
type ResourceHandler struct {
	directory *services.DirectoryService
}

// NewResourceHandler creates a new resource handler
func NewResourceHandler(directory *services.DirectoryService) *ResourceHandler {
	return &ResourceHandler{directory: directory}
}

// ListResources lists the folder (or file) at *path under the caller's root
func (h *ResourceHandler) ListResources(c *gin.Context) {
	username := models.GetUsernameFromContext(c)
	if username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "unauthorized",
			"error_description": "Authentication required",
		})
		return
	}

	resources, err := h.directory.ListResources(c.Request.Context(), username, c.Param("path"))
	if err != nil {
		RespondError(c, err)
		return
	}
	if resources == nil {
		resources = []models.Resource{}
	}
	c.JSON(http.StatusOK, gin.H{"resources": resources})
}
