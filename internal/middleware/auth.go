package middleware

import (
	"net/http"
	"strings"

	"github.com/go-authgate/dirgate/internal/auth"
	"github.com/go-authgate/dirgate/internal/directory"
	"github.com/go-authgate/dirgate/internal/handlers"
	"github.com/go-authgate/dirgate/internal/models"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// RequireAuth authenticates every request from its Authorization header.
// Basic credentials are checked against the directory. Any other scheme is
// passed on and rejected by the resolver. On success the principal is stored
// under models.PrincipalKey and remote directory calls made for the request
// run as the authenticated user.
func RequireAuth(authenticator auth.Authenticator, realm string) gin.HandlerFunc {
	challenge := `Basic realm="` + realm + `", charset="UTF-8"`

	return func(c *gin.Context) {
		creds, ok := credentialsFromRequest(c.Request)
		if !ok {
			c.Header("WWW-Authenticate", challenge)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":             "unauthorized",
				"error_description": "Authentication required",
			})
			return
		}

		principal, err := authenticator.Authenticate(c.Request.Context(), creds)
		if err != nil {
			c.Header("WWW-Authenticate", challenge)
			handlers.RespondError(c, err)
			return
		}

		ctx := models.SetPrincipalContext(c.Request.Context(), principal)
		if up, ok := creds.(auth.UsernamePassword); ok {
			ctx = directory.WithCredentials(ctx, up.Username, up.Password)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Set(models.PrincipalKey, principal)
		c.Next()
	}
}

// RequireAuthority rejects authenticated principals lacking authority.
func RequireAuthority(authority string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := models.GetPrincipalFromContext(c)
		if principal == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":             "unauthorized",
				"error_description": "Authentication required",
			})
			return
		}
		if !principal.HasAuthority(authority) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":             "access_denied",
				"error_description": "Missing authority " + authority,
			})
			return
		}
		c.Next()
	}
}

func credentialsFromRequest(r *http.Request) (auth.Credentials, bool) {
	if username, password, ok := r.BasicAuth(); ok {
		return auth.UsernamePassword{Username: username, Password: password}, true
	}
	header := r.Header.Get("Authorization")
	if len(header) > len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return auth.BearerToken{Token: strings.TrimSpace(header[len(bearerPrefix):])}, true
	}
	return nil, false
}
