package directory

import (
	"context"
	"time"

	"github.com/go-authgate/dirgate/internal/core"
	"github.com/go-authgate/dirgate/internal/models"
)

// InstrumentedBackend records duration and outcome of every call on the
// wrapped backend.
type InstrumentedBackend struct {
	next     core.Backend
	recorder core.Recorder
}

var _ core.Backend = (*InstrumentedBackend)(nil)

// NewInstrumentedBackend wraps next.
func NewInstrumentedBackend(next core.Backend, recorder core.Recorder) *InstrumentedBackend {
	return &InstrumentedBackend{next: next, recorder: recorder}
}

// Unwrap returns the wrapped backend.
func (b *InstrumentedBackend) Unwrap() core.Backend {
	return b.next
}

func (b *InstrumentedBackend) observe(operation string, start time.Time, err error) {
	b.recorder.RecordDirectoryOperation(b.next.Name(), operation, core.Kind(err), time.Since(start))
}

func (b *InstrumentedBackend) Name() string {
	return b.next.Name()
}

func (b *InstrumentedBackend) FindUser(ctx context.Context, username string) (*models.User, error) {
	start := time.Now()
	u, err := b.next.FindUser(ctx, username)
	b.observe("find_user", start, err)
	return u, err
}

func (b *InstrumentedBackend) ListUsers(ctx context.Context) ([]string, error) {
	start := time.Now()
	users, err := b.next.ListUsers(ctx)
	b.observe("list_users", start, err)
	return users, err
}

func (b *InstrumentedBackend) ListGroups(ctx context.Context) ([]string, error) {
	start := time.Now()
	groups, err := b.next.ListGroups(ctx)
	b.observe("list_groups", start, err)
	return groups, err
}

func (b *InstrumentedBackend) UserGroups(ctx context.Context, username string) ([]string, error) {
	start := time.Now()
	groups, err := b.next.UserGroups(ctx, username)
	b.observe("user_groups", start, err)
	return groups, err
}

func (b *InstrumentedBackend) GroupUsers(ctx context.Context, group string) ([]string, error) {
	start := time.Now()
	users, err := b.next.GroupUsers(ctx, group)
	b.observe("group_users", start, err)
	return users, err
}

func (b *InstrumentedBackend) CreateUser(
	ctx context.Context,
	req *models.ModificationRequest,
) (*models.User, error) {
	start := time.Now()
	u, err := b.next.CreateUser(ctx, req)
	b.observe("create_user", start, err)
	return u, err
}

func (b *InstrumentedBackend) UpdateUser(
	ctx context.Context,
	req *models.ModificationRequest,
) (*models.User, error) {
	start := time.Now()
	u, err := b.next.UpdateUser(ctx, req)
	b.observe("update_user", start, err)
	return u, err
}

func (b *InstrumentedBackend) DeleteUser(ctx context.Context, username string) error {
	start := time.Now()
	err := b.next.DeleteUser(ctx, username)
	b.observe("delete_user", start, err)
	return err
}

func (b *InstrumentedBackend) CreateGroup(ctx context.Context, group string) error {
	start := time.Now()
	err := b.next.CreateGroup(ctx, group)
	b.observe("create_group", start, err)
	return err
}

func (b *InstrumentedBackend) DeleteGroup(ctx context.Context, group string) error {
	start := time.Now()
	err := b.next.DeleteGroup(ctx, group)
	b.observe("delete_group", start, err)
	return err
}

func (b *InstrumentedBackend) ListResources(
	ctx context.Context,
	username, path string,
) ([]models.Resource, error) {
	start := time.Now()
	res, err := b.next.ListResources(ctx, username, path)
	b.observe("list_resources", start, err)
	return res, err
}

func (b *InstrumentedBackend) VerifyPassword(ctx context.Context, username, password string) error {
	start := time.Now()
	err := b.next.VerifyPassword(ctx, username, password)
	b.observe("verify_password", start, err)
	return err
}
