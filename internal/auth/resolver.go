package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/dirgate/internal/core"
	"github.com/go-authgate/dirgate/internal/models"

	"go.uber.org/zap"
)

// Authenticator resolves presented credentials into a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (*models.Principal, error)
}

// Resolver authenticates credentials against a directory backend and builds
// the resulting Principal.
type Resolver struct {
	backend  core.Backend
	mapper   AuthorityMapper
	logger   *zap.Logger
	recorder core.Recorder
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithAuthorityMapper replaces the identity mapping of groups to authorities.
func WithAuthorityMapper(m AuthorityMapper) Option {
	return func(r *Resolver) {
		if m != nil {
			r.mapper = m
		}
	}
}

// NewResolver creates a resolver over backend
func NewResolver(
	backend core.Backend,
	logger *zap.Logger,
	recorder core.Recorder,
	opts ...Option,
) *Resolver {
	r := &Resolver{
		backend:  backend,
		mapper:   IdentityMapper,
		logger:   logger,
		recorder: recorder,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Authenticate resolves creds into an authenticated Principal.
//
// Unknown users and wrong passwords both fail with core.ErrAuthenticationFailed.
// A disabled account with valid credentials fails with core.ErrAccountDisabled.
// Backend outages pass through as core.ErrBackendUnavailable. Nothing is retried.
func (r *Resolver) Authenticate(ctx context.Context, creds Credentials) (*models.Principal, error) {
	start := time.Now()

	up, ok := asUsernamePassword(creds)
	if !ok {
		err := fmt.Errorf("%w: %s", core.ErrUnsupportedCredentialType, credentialType(creds))
		r.finish("", start, err)
		return nil, err
	}

	principal, err := r.resolve(ctx, up)
	r.finish(up.Username, start, err)
	return principal, err
}

func (r *Resolver) resolve(ctx context.Context, creds UsernamePassword) (*models.Principal, error) {
	if creds.Username == "" {
		return nil, core.ErrAuthenticationFailed
	}
	// Lookups run as the caller so per-call authenticating backends never
	// depend on a service account.
	ctx = core.WithCredentials(ctx, creds.Username, creds.Password)

	user, err := r.backend.FindUser(ctx, creds.Username)
	if err != nil {
		return nil, collapse(err)
	}

	if err := r.backend.VerifyPassword(ctx, creds.Username, creds.Password); err != nil {
		return nil, collapse(err)
	}

	if !user.Enabled {
		return nil, fmt.Errorf("%w: %s", core.ErrAccountDisabled, user.Username)
	}

	groups, err := r.backend.UserGroups(ctx, user.Username)
	if err != nil {
		return nil, collapse(err)
	}
	user.Groups = groups

	return models.NewPrincipal(user, r.mapper(groups)), nil
}

// collapse folds every "who are you" failure into ErrAuthenticationFailed so
// callers cannot tell an unknown user from a wrong password.
func collapse(err error) error {
	if errors.Is(err, core.ErrUserNotFound) || errors.Is(err, core.ErrInvalidCredentials) {
		return core.ErrAuthenticationFailed
	}
	return err
}

func (r *Resolver) finish(username string, start time.Time, err error) {
	duration := time.Since(start)
	result := core.Kind(err)
	r.recorder.RecordAuthAttempt(r.backend.Name(), result, duration)

	fields := []zap.Field{
		zap.String("username", username),
		zap.String("backend", r.backend.Name()),
		zap.String("result", result),
		zap.Duration("duration", duration),
	}
	switch {
	case err == nil:
		r.logger.Info("authentication succeeded", fields...)
	case errors.Is(err, core.ErrBackendUnavailable):
		r.logger.Error("authentication failed", append(fields, zap.Error(err))...)
	default:
		r.logger.Warn("authentication failed", fields...)
	}
}

func asUsernamePassword(creds Credentials) (UsernamePassword, bool) {
	switch c := creds.(type) {
	case UsernamePassword:
		return c, true
	case *UsernamePassword:
		if c != nil {
			return *c, true
		}
	}
	return UsernamePassword{}, false
}

func credentialType(creds Credentials) string {
	if creds == nil {
		return "none"
	}
	return fmt.Sprintf("%T", creds)
}
