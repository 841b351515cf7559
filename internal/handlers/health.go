package handlers

import (
	"net/http"

	"github.com/go-authgate/dirgate/internal/version"

	"github.com/gin-gonic/gin"
)

// Healthz reports liveness and the running build
func Healthz(backend string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"backend": backend,
			"version": version.String(),
		})
	}
}
