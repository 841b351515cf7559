package core

import (
	"context"

	"github.com/go-authgate/dirgate/internal/models"
)

// Backend kinds accepted by the selector.
const (
	BackendRemote = "remote"
	BackendLocal  = "local"
)

// Backend is the capability set every directory implementation provides.
// Failures are always one of the kinds in errors.go, possibly wrapped.
type Backend interface {
	// FindUser looks up a user by exact, case-sensitive username.
	FindUser(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]string, error)
	// ListGroups returns every group referenced by a user plus explicitly
	// created empty groups.
	ListGroups(ctx context.Context) ([]string, error)
	UserGroups(ctx context.Context, username string) ([]string, error)
	GroupUsers(ctx context.Context, group string) ([]string, error)

	CreateUser(ctx context.Context, req *models.ModificationRequest) (*models.User, error)
	// UpdateUser merges set fields and fully replaces group membership.
	UpdateUser(ctx context.Context, req *models.ModificationRequest) (*models.User, error)
	DeleteUser(ctx context.Context, username string) error
	CreateGroup(ctx context.Context, group string) error
	// DeleteGroup also removes the group from every member.
	DeleteGroup(ctx context.Context, group string) error

	// ListResources lists the children of path inside username's namespace.
	ListResources(ctx context.Context, username, path string) ([]models.Resource, error)

	// VerifyPassword checks credentials the way the backend defines it and
	// returns ErrInvalidCredentials on mismatch.
	VerifyPassword(ctx context.Context, username, password string) error

	// Name returns the backend kind for logging and metrics
	Name() string
}
