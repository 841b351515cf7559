package handlers

import (
	"net/http"

	"github.com/go-authgate/dirgate/internal/auth"
	"github.com/go-authgate/dirgate/internal/models"

	"github.com/gin-gonic/gin"
)

// AuthHandler exposes credential checks over HTTP
type AuthHandler struct {
	authenticator auth.Authenticator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authenticator auth.Authenticator) *AuthHandler {
	return &AuthHandler{authenticator: authenticator}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password"`
}

// PrincipalResponse is the JSON view of an authenticated principal
type PrincipalResponse struct {
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Groups      []string `json:"groups"`
	Authorities []string `json:"authorities"`
}

// NewPrincipalResponse renders p. It never includes credentials.
func NewPrincipalResponse(p *models.Principal) PrincipalResponse {
	resp := PrincipalResponse{
		Username:    p.Name(),
		Groups:      []string{},
		Authorities: p.Authorities(),
	}
	if u := p.User(); u != nil {
		resp.DisplayName = u.DisplayName
		resp.Email = u.Email
		if u.Groups != nil {
			resp.Groups = u.Groups
		}
	}
	if resp.Authorities == nil {
		resp.Authorities = []string{}
	}
	return resp
}

// Login validates a JSON username/password pair and returns the principal
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "username and password are required",
		})
		return
	}

	principal, err := h.authenticator.Authenticate(c.Request.Context(), auth.UsernamePassword{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewPrincipalResponse(principal))
}

// Me returns the principal authenticated for this request
func (h *AuthHandler) Me(c *gin.Context) {
	principal := models.GetPrincipalFromContext(c)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "unauthorized",
			"error_description": "Authentication required",
		})
		return
	}
	c.JSON(http.StatusOK, NewPrincipalResponse(principal))
}
