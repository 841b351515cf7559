package directory

import (
	"context"
	"crypto/subtle"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/go-authgate/dirgate/internal/core"
	"github.com/go-authgate/dirgate/internal/models"

	"go.uber.org/zap"
)

// LocalBackend serves the directory from an in-memory snapshot that is
// rewritten through a SnapshotStore on every mutation.
type LocalBackend struct {
	mu            sync.RWMutex
	state         *Snapshot
	store         SnapshotStore
	resourcesRoot string
	logger        *zap.Logger
}

var _ core.Backend = (*LocalBackend)(nil)

// NewLocalBackend loads the current snapshot from store. resourcesRoot may be
// empty, in which case no resources exist.
func NewLocalBackend(
	store SnapshotStore,
	resourcesRoot string,
	logger *zap.Logger,
) (*LocalBackend, error) {
	state, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load directory snapshot: %w", err)
	}
	state.normalize()
	logger.Info("local directory loaded",
		zap.Int("users", len(state.Users)),
		zap.Int("groups", len(state.Groups)),
	)
	return &LocalBackend{
		state:         state,
		store:         store,
		resourcesRoot: resourcesRoot,
		logger:        logger,
	}, nil
}

// Name returns provider name for logging
func (b *LocalBackend) Name() string {
	return core.BackendLocal
}

// Snapshot returns a copy of the current in-memory state.
func (b *LocalBackend) Snapshot() *Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.Clone()
}

func (b *LocalBackend) FindUser(_ context.Context, username string) (*models.User, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	i := b.state.indexOf(username)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrUserNotFound, username)
	}
	return b.state.Users[i].User().WithoutPassword(), nil
}

func (b *LocalBackend) ListUsers(_ context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.state.Users))
	for _, u := range b.state.Users {
		names = append(names, u.Username)
	}
	return names, nil
}

func (b *LocalBackend) ListGroups(_ context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.groupNames(), nil
}

func (b *LocalBackend) UserGroups(_ context.Context, username string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	i := b.state.indexOf(username)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrUserNotFound, username)
	}
	return b.state.Users[i].User().Groups, nil
}

func (b *LocalBackend) GroupUsers(_ context.Context, group string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.state.hasGroup(group) {
		return nil, fmt.Errorf("%w: %s", core.ErrGroupNotFound, group)
	}
	members := []string{}
	for _, u := range b.state.Users {
		if slices.Contains(u.Groups, group) {
			members = append(members, u.Username)
		}
	}
	return members, nil
}

// CreateUser never overwrites an existing account.
func (b *LocalBackend) CreateUser(
	_ context.Context,
	req *models.ModificationRequest,
) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}

	var created *models.User
	err := b.mutate(func(next *Snapshot) error {
		if next.indexOf(req.Username) >= 0 {
			return fmt.Errorf("%w: %s", core.ErrUsernameAlreadyExists, req.Username)
		}
		created = req.NewUser()
		next.Users = append(next.Users, NewSnapshotUser(created))
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.logger.Info("local user created", zap.String("username", req.Username))
	return created.WithoutPassword(), nil
}

// UpdateUser never creates a missing account.
func (b *LocalBackend) UpdateUser(
	_ context.Context,
	req *models.ModificationRequest,
) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}

	var updated *models.User
	err := b.mutate(func(next *Snapshot) error {
		i := next.indexOf(req.Username)
		if i < 0 {
			return fmt.Errorf("%w: %s", core.ErrUserNotFound, req.Username)
		}
		updated = next.Users[i].User()
		req.ApplyTo(updated)
		next.Users[i] = NewSnapshotUser(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.logger.Info("local user updated", zap.String("username", req.Username))
	return updated.WithoutPassword(), nil
}

func (b *LocalBackend) DeleteUser(_ context.Context, username string) error {
	err := b.mutate(func(next *Snapshot) error {
		i := next.indexOf(username)
		if i < 0 {
			return fmt.Errorf("%w: %s", core.ErrUserNotFound, username)
		}
		next.Users = slices.Delete(next.Users, i, i+1)
		return nil
	})
	if err != nil {
		return err
	}

	b.logger.Info("local user deleted", zap.String("username", username))
	return nil
}

func (b *LocalBackend) CreateGroup(_ context.Context, group string) error {
	if strings.TrimSpace(group) == "" {
		return fmt.Errorf("%w: empty group name", core.ErrInvalidRequest)
	}

	err := b.mutate(func(next *Snapshot) error {
		if next.hasGroup(group) {
			return fmt.Errorf("%w: %s", core.ErrGroupAlreadyExists, group)
		}
		next.Groups = append(next.Groups, group)
		return nil
	})
	if err != nil {
		return err
	}

	b.logger.Info("local group created", zap.String("group", group))
	return nil
}

// DeleteGroup drops the group and strips it from every member in one write.
func (b *LocalBackend) DeleteGroup(_ context.Context, group string) error {
	var affected int
	err := b.mutate(func(next *Snapshot) error {
		if !next.hasGroup(group) {
			return fmt.Errorf("%w: %s", core.ErrGroupNotFound, group)
		}
		next.Groups = slices.DeleteFunc(next.Groups, func(g string) bool { return g == group })
		for i := range next.Users {
			before := len(next.Users[i].Groups)
			next.Users[i].Groups = slices.DeleteFunc(
				next.Users[i].Groups,
				func(g string) bool { return g == group },
			)
			if len(next.Users[i].Groups) != before {
				affected++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	b.logger.Info("local group deleted",
		zap.String("group", group),
		zap.Int("members_updated", affected),
	)
	return nil
}

// VerifyPassword compares in constant time. Accounts without a stored
// password never verify.
func (b *LocalBackend) VerifyPassword(_ context.Context, username, password string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	i := b.state.indexOf(username)
	if i < 0 {
		return fmt.Errorf("%w: %s", core.ErrInvalidCredentials, username)
	}
	stored := b.state.Users[i].Password
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		return fmt.Errorf("%w: %s", core.ErrInvalidCredentials, username)
	}
	return nil
}

// mutate runs fn against a copy of the state, persists the copy and only then
// publishes it. The write lock is held throughout.
func (b *LocalBackend) mutate(fn func(next *Snapshot) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.state.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := b.store.Save(next); err != nil {
		b.logger.Error("failed to persist directory snapshot", zap.Error(err))
		return fmt.Errorf("%w: persist snapshot: %v", core.ErrBackendUnavailable, err)
	}
	b.state = next
	return nil
}

func (s *Snapshot) indexOf(username string) int {
	if username == "" {
		return -1
	}
	return slices.IndexFunc(s.Users, func(u SnapshotUser) bool { return u.Username == username })
}

// groupNames lists explicit groups first, then groups only referenced by users.
func (s *Snapshot) groupNames() []string {
	names := models.NormalizeGroups(s.Groups)
	for _, u := range s.Users {
		for _, g := range models.NormalizeGroups(u.Groups) {
			if !slices.Contains(names, g) {
				names = append(names, g)
			}
		}
	}
	return names
}

func (s *Snapshot) hasGroup(group string) bool {
	if slices.Contains(s.Groups, group) {
		return true
	}
	for _, u := range s.Users {
		if slices.Contains(u.Groups, group) {
			return true
		}
	}
	return false
}
