package directory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-authgate/dirgate/internal/core"
	"github.com/go-authgate/dirgate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const scenarioXML = `<?xml version="1.0" encoding="UTF-8"?>
<directory>
  <users>
    <user username="alice">
      <password>wonderland</password>
      <groups><group>admins</group></groups>
    </user>
    <user username="bob">
      <password>builder</password>
      <groups><group>users</group></groups>
    </user>
  </users>
</directory>
`

var errDiskFull = errors.New("disk full")

// flakyStore fails Save while fail is set.
type flakyStore struct {
	SnapshotStore
	mu   sync.Mutex
	fail bool
}

func (s *flakyStore) setFail(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = v
}

func (s *flakyStore) Save(snap *Snapshot) error {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return errDiskFull
	}
	return s.SnapshotStore.Save(snap)
}

func newTestLocal(t *testing.T, content string) (*LocalBackend, *FileSnapshotStore) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "directory.xml")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	store, err := NewFileSnapshotStore(path)
	require.NoError(t, err)
	b, err := NewLocalBackend(store, "", zap.NewNop())
	require.NoError(t, err)
	return b, store
}

func TestLocalBackend_Scenario(t *testing.T) {
	b, _ := newTestLocal(t, scenarioXML)
	ctx := context.Background()

	groups, err := b.ListGroups(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"admins", "users"}, groups)

	members, err := b.GroupUsers(ctx, "admins")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice"}, members)

	_, err = b.UpdateUser(ctx, models.NewModificationRequest("bob").SetGroups("admins", "users"))
	require.NoError(t, err)

	members, err = b.GroupUsers(ctx, "admins")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, members)
}

func TestLocalBackend_CreateUserGroupsExact(t *testing.T) {
	b, _ := newTestLocal(t, scenarioXML)
	ctx := context.Background()

	req := models.NewModificationRequest("carol").
		SetPassword("pw").
		SetGroups("users", " ops ", "users", "")
	created, err := b.CreateUser(ctx, req)
	require.NoError(t, err)
	assert.True(t, created.Enabled)
	assert.Empty(t, created.Password)

	u, err := b.FindUser(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "ops"}, u.Groups)

	users, err := b.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, users)
}

func TestLocalBackend_CreateUserNeverOverwrites(t *testing.T) {
	b, _ := newTestLocal(t, scenarioXML)
	ctx := context.Background()

	_, err := b.CreateUser(ctx, models.NewModificationRequest("alice").SetPassword("other"))
	assert.ErrorIs(t, err, core.ErrUsernameAlreadyExists)
	assert.NoError(t, b.VerifyPassword(ctx, "alice", "wonderland"))

	_, err = b.CreateUser(ctx, models.NewModificationRequest(""))
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestLocalBackend_UpdateUser(t *testing.T) {
	b, _ := newTestLocal(t, scenarioXML)
	ctx := context.Background()

	_, err := b.UpdateUser(ctx, models.NewModificationRequest("ghost"))
	assert.ErrorIs(t, err, core.ErrUserNotFound)
	_, err = b.FindUser(ctx, "ghost")
	assert.ErrorIs(t, err, core.ErrUserNotFound)

	u, err := b.UpdateUser(ctx, models.NewModificationRequest("alice").SetEmail("a@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)
	assert.True(t, u.Enabled)
	assert.Empty(t, u.Groups, "groups are always replaced")
	assert.NoError(t, b.VerifyPassword(ctx, "alice", "wonderland"), "unset password is kept")
}

func TestLocalBackend_DeleteUser(t *testing.T) {
	b, _ := newTestLocal(t, scenarioXML)
	ctx := context.Background()

	require.NoError(t, b.DeleteUser(ctx, "alice"))
	_, err := b.FindUser(ctx, "alice")
	assert.ErrorIs(t, err, core.ErrUserNotFound)
	assert.ErrorIs(t, b.DeleteUser(ctx, "alice"), core.ErrUserNotFound)

	// admins had only alice and was never created explicitly.
	_, err = b.GroupUsers(ctx, "admins")
	assert.ErrorIs(t, err, core.ErrGroupNotFound)
}

func TestLocalBackend_Groups(t *testing.T) {
	b, _ := newTestLocal(t, scenarioXML)
	ctx := context.Background()

	assert.ErrorIs(t, b.CreateGroup(ctx, "admins"), core.ErrGroupAlreadyExists)
	assert.ErrorIs(t, b.CreateGroup(ctx, " "), core.ErrInvalidRequest)
	require.NoError(t, b.CreateGroup(ctx, "empty"))
	assert.ErrorIs(t, b.CreateGroup(ctx, "empty"), core.ErrGroupAlreadyExists)

	groups, err := b.ListGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"empty", "admins", "users"}, groups)

	members, err := b.GroupUsers(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, members)

	_, err = b.GroupUsers(ctx, "nope")
	assert.ErrorIs(t, err, core.ErrGroupNotFound)
	_, err = b.UserGroups(ctx, "nobody")
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestLocalBackend_DeleteGroupCascades(t *testing.T) {
	b, store := newTestLocal(t, scenarioXML)
	ctx := context.Background()
	_, err := b.UpdateUser(ctx, models.NewModificationRequest("bob").SetGroups("admins", "users"))
	require.NoError(t, err)

	require.NoError(t, b.DeleteGroup(ctx, "admins"))
	for _, name := range []string{"alice", "bob"} {
		groups, err := b.UserGroups(ctx, name)
		require.NoError(t, err)
		assert.NotContains(t, groups, "admins")
	}
	assert.ErrorIs(t, b.DeleteGroup(ctx, "admins"), core.ErrGroupNotFound)

	persisted, err := store.Load()
	require.NoError(t, err)
	assert.True(t, persisted.Equal(b.Snapshot()))
}

func TestLocalBackend_GroupNamesTrimmedOnLoad(t *testing.T) {
	b, store := newTestLocal(t, `<?xml version="1.0" encoding="UTF-8"?>
<directory>
  <users>
    <user username="alice">
      <password>wonderland</password>
      <groups><group> admins</group><group>admins </group></groups>
    </user>
  </users>
  <groups><group>  auditors  </group></groups>
</directory>
`)
	ctx := context.Background()

	groups, err := b.ListGroups(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"admins", "auditors"}, groups)

	members, err := b.GroupUsers(ctx, "admins")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, members)

	members, err = b.GroupUsers(ctx, "auditors")
	require.NoError(t, err)
	assert.Empty(t, members)

	require.NoError(t, b.DeleteGroup(ctx, "admins"))
	require.NoError(t, b.DeleteGroup(ctx, "auditors"))

	groups, err = b.UserGroups(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, groups)

	persisted, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, persisted.Groups)
	assert.Empty(t, persisted.Users[0].Groups)
}

func TestLocalBackend_VerifyPassword(t *testing.T) {
	b, _ := newTestLocal(t, scenarioXML)
	ctx := context.Background()

	assert.NoError(t, b.VerifyPassword(ctx, "alice", "wonderland"))
	assert.ErrorIs(t, b.VerifyPassword(ctx, "alice", "wrong"), core.ErrInvalidCredentials)
	assert.ErrorIs(t, b.VerifyPassword(ctx, "nobody", "x"), core.ErrInvalidCredentials)

	_, err := b.CreateUser(ctx, models.NewModificationRequest("nopass"))
	require.NoError(t, err)
	assert.ErrorIs(t, b.VerifyPassword(ctx, "nopass", ""), core.ErrInvalidCredentials)
}

func TestLocalBackend_MutationsPersist(t *testing.T) {
	b, store := newTestLocal(t, scenarioXML)
	ctx := context.Background()

	_, err := b.CreateUser(ctx, models.NewModificationRequest("dave").SetEnabled(false))
	require.NoError(t, err)

	reopened, err := NewLocalBackend(store, "", zap.NewNop())
	require.NoError(t, err)
	u, err := reopened.FindUser(ctx, "dave")
	require.NoError(t, err)
	assert.False(t, u.Enabled)
	assert.True(t, reopened.Snapshot().Equal(b.Snapshot()))
}

func TestLocalBackend_PersistFailureRollsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.xml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioXML), 0o600))
	fileStore, err := NewFileSnapshotStore(path)
	require.NoError(t, err)
	store := &flakyStore{SnapshotStore: fileStore}
	b, err := NewLocalBackend(store, "", zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	before := b.Snapshot()
	store.setFail(true)

	_, err = b.CreateUser(ctx, models.NewModificationRequest("erin"))
	assert.ErrorIs(t, err, core.ErrBackendUnavailable)
	assert.ErrorIs(t, b.DeleteGroup(ctx, "admins"), core.ErrBackendUnavailable)
	assert.ErrorIs(t, b.DeleteUser(ctx, "bob"), core.ErrBackendUnavailable)

	assert.True(t, before.Equal(b.Snapshot()))
	_, err = b.FindUser(ctx, "erin")
	assert.ErrorIs(t, err, core.ErrUserNotFound)

	store.setFail(false)
	_, err = b.CreateUser(ctx, models.NewModificationRequest("erin"))
	assert.NoError(t, err)
}

func TestLocalBackend_ConcurrentCreates(t *testing.T) {
	b, store := newTestLocal(t, "")
	ctx := context.Background()
	const n = 32

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := models.NewModificationRequest(fmt.Sprintf("user%02d", i)).SetGroups("crowd")
			_, err := b.CreateUser(ctx, req)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	users, err := b.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, n)

	persisted, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, persisted.Users, n)
	assert.True(t, persisted.Equal(b.Snapshot()))
}

func newResourceTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "alice", "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "alice", "notes.txt"), []byte("hi"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "alice", "docs", "a.pdf"), []byte("%PDF"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bob"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bob", "secret.txt"), []byte("s"), 0o600))
	return root
}

func newResourceBackend(t *testing.T, root string) *LocalBackend {
	t.Helper()
	store, err := NewFileSnapshotStore(writeFixture(t, "directory.xml", scenarioXML))
	require.NoError(t, err)
	b, err := NewLocalBackend(store, root, zap.NewNop())
	require.NoError(t, err)
	return b
}

func TestLocalBackend_ListResources(t *testing.T) {
	root := newResourceTree(t)
	b := newResourceBackend(t, root)
	ctx := context.Background()

	res, err := b.ListResources(ctx, "alice", "/")
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.Equal(t, "/docs/", res[0].Href)
	assert.Equal(t, "docs", res[0].Name)
	assert.Equal(t, models.MediaTypeDirectory, res[0].MediaType)

	assert.Equal(t, "/notes.txt", res[1].Href)
	assert.Equal(t, "notes.txt", res[1].Name)
	assert.Contains(t, res[1].MediaType, "text/plain")
	assert.NotEmpty(t, res[1].ETag)
	assert.WithinDuration(t, time.Now(), res[1].LastModified, time.Minute)

	res, err = b.ListResources(ctx, "alice", "docs")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "/docs/a.pdf", res[0].Href)
	assert.Equal(t, "application/pdf", res[0].MediaType)

	// A file lists as itself.
	res, err = b.ListResources(ctx, "alice", "/notes.txt")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "/notes.txt", res[0].Href)
}

func TestLocalBackend_ListResources_ETagChanges(t *testing.T) {
	root := newResourceTree(t)
	b := newResourceBackend(t, root)
	ctx := context.Background()

	first, err := b.ListResources(ctx, "alice", "/notes.txt")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "alice", "notes.txt"), []byte("longer"), 0o600))
	second, err := b.ListResources(ctx, "alice", "/notes.txt")
	require.NoError(t, err)
	assert.NotEqual(t, first[0].ETag, second[0].ETag)
}

func TestLocalBackend_ListResources_NotFound(t *testing.T) {
	root := newResourceTree(t)
	b := newResourceBackend(t, root)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		path     string
	}{
		{"missing path", "alice", "/nope"},
		{"parent traversal", "alice", "../bob"},
		{"deep traversal", "alice", "/docs/../../bob/secret.txt"},
		{"absolute escape", "alice", "/../../../etc"},
		{"sibling user", "bob", "/../alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.ListResources(ctx, tt.username, tt.path)
			assert.ErrorIs(t, err, core.ErrResourceNotFound)
		})
	}

	_, err := b.ListResources(ctx, "mallory", "/")
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestLocalBackend_ListResources_SymlinkEscape(t *testing.T) {
	root := newResourceTree(t)
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "alice", "link")))
	b := newResourceBackend(t, root)

	_, err := b.ListResources(context.Background(), "alice", "/link")
	assert.ErrorIs(t, err, core.ErrResourceNotFound)
}

func TestLocalBackend_ListResources_NoRoot(t *testing.T) {
	b, _ := newTestLocal(t, scenarioXML)

	_, err := b.ListResources(context.Background(), "alice", "/")
	assert.ErrorIs(t, err, core.ErrResourceNotFound)
}
