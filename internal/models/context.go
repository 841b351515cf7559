package models

import (
	"context"

	"github.com/gin-gonic/gin"
)

// PrincipalKey is the gin context key the authentication middleware stores
// the resolved Principal under.
const PrincipalKey = "principal"

type principalCtxKey struct{}

// SetPrincipalContext returns a context carrying p.
func SetPrincipalContext(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// GetPrincipalFromContext returns the authenticated principal, looking at the
// gin context key first and then the request context. It returns nil when
// nobody is authenticated.
func GetPrincipalFromContext(ctx context.Context) *Principal {
	if ginCtx, ok := ctx.(*gin.Context); ok {
		if v, exists := ginCtx.Get(PrincipalKey); exists {
			if p, ok := v.(*Principal); ok && p.IsAuthenticated() {
				return p
			}
		}
		if ginCtx.Request != nil {
			ctx = ginCtx.Request.Context()
		}
	}
	if p, ok := ctx.Value(principalCtxKey{}).(*Principal); ok && p.IsAuthenticated() {
		return p
	}
	return nil
}

// GetUsernameFromContext returns the authenticated username or "".
func GetUsernameFromContext(ctx context.Context) string {
	return GetPrincipalFromContext(ctx).Name()
}
