package bootstrap

import (
	"github.com/go-authgate/dirgate/internal/handlers"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	auth     *handlers.AuthHandler
	user     *handlers.UserHandler
	group    *handlers.GroupHandler
	resource *handlers.ResourceHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(d *Directory) handlerSet {
	return handlerSet{
		auth:     handlers.NewAuthHandler(d.Resolver),
		user:     handlers.NewUserHandler(d.Service),
		group:    handlers.NewGroupHandler(d.Service),
		resource: handlers.NewResourceHandler(d.Service),
	}
}
