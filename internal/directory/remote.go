package directory

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/go-authgate/dirgate/internal/core"
	"github.com/go-authgate/dirgate/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ocsBasePath = "/ocs/v1.php/cloud/"
	davBasePath = "/remote.php/dav/files/"
)

var (
	// errUnauthorized marks an HTTP 401/403 answer. Callers decide which kind it becomes.
	errUnauthorized = errors.New("remote directory rejected credentials")
	// errCallerRejected is errUnauthorized for the caller's own credentials
	// rather than the service account.
	errCallerRejected = fmt.Errorf("%w of the calling user", errUnauthorized)
)

// Doer executes one HTTP exchange. *retry.Client satisfies it; plain
// clients go through HTTPClient.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

type httpDoer struct {
	client *http.Client
}

func (d httpDoer) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return d.client.Do(req.WithContext(ctx))
}

// HTTPClient adapts a plain *http.Client to Doer, without retries.
func HTTPClient(c *http.Client) Doer {
	return httpDoer{client: c}
}

// RemoteOptions configures a RemoteBackend.
type RemoteOptions struct {
	BaseURL string
	Client  Doer

	// Service account used for directory reads and writes.
	Username string
	Password string

	// EnforceAuth attaches the service account to every service call.
	EnforceAuth bool
}

// RemoteBackend talks to an OCS provisioning API and its WebDAV endpoint.
// It keeps no local state.
type RemoteBackend struct {
	baseURL     string
	basePath    string
	client      Doer
	service     *basicCredentials
	enforceAuth bool
	logger      *zap.Logger
}

var _ core.Backend = (*RemoteBackend)(nil)

// NewRemoteBackend creates a remote directory backend
func NewRemoteBackend(opts RemoteOptions, logger *zap.Logger) (*RemoteBackend, error) {
	u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid directory API URL %q", opts.BaseURL)
	}
	client := opts.Client
	if client == nil {
		client = HTTPClient(http.DefaultClient)
	}
	b := &RemoteBackend{
		baseURL:     u.String(),
		basePath:    u.Path,
		client:      client,
		enforceAuth: opts.EnforceAuth,
		logger:      logger,
	}
	if opts.Username != "" {
		b.service = &basicCredentials{username: opts.Username, password: opts.Password}
	}
	return b, nil
}

// Name returns provider name for logging
func (b *RemoteBackend) Name() string {
	return core.BackendRemote
}

// FindUser fetches the user record.
func (b *RemoteBackend) FindUser(ctx context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: empty username", core.ErrUserNotFound)
	}
	resp, err := b.ocs(ctx, http.MethodGet, "users/"+url.PathEscape(username), nil, nil)
	if err != nil {
		return nil, b.serviceError(err)
	}
	if err := resp.failure(codeMap{
		404:             core.ErrUserNotFound,
		ocsCodeNotFound: core.ErrUserNotFound,
		101:             core.ErrUserNotFound,
	}); err != nil {
		return nil, err
	}
	user := resp.Data.toUser(username)
	// The remote side may match case-insensitively; the directory contract does not.
	if user.Username != username {
		return nil, fmt.Errorf("%w: %s", core.ErrUserNotFound, username)
	}
	return user, nil
}

// ListUsers returns usernames in server order.
func (b *RemoteBackend) ListUsers(ctx context.Context) ([]string, error) {
	resp, err := b.ocs(ctx, http.MethodGet, "users", nil, nil)
	if err != nil {
		return nil, b.serviceError(err)
	}
	if err := resp.failure(nil); err != nil {
		return nil, err
	}
	return nonNil(resp.Data.Users), nil
}

// ListGroups returns group names in server order.
func (b *RemoteBackend) ListGroups(ctx context.Context) ([]string, error) {
	resp, err := b.ocs(ctx, http.MethodGet, "groups", nil, nil)
	if err != nil {
		return nil, b.serviceError(err)
	}
	if err := resp.failure(nil); err != nil {
		return nil, err
	}
	return nonNil(resp.Data.Groups), nil
}

// UserGroups returns the groups of username.
func (b *RemoteBackend) UserGroups(ctx context.Context, username string) ([]string, error) {
	resp, err := b.ocs(
		ctx,
		http.MethodGet,
		"users/"+url.PathEscape(username)+"/groups",
		nil,
		nil,
	)
	if err != nil {
		return nil, b.serviceError(err)
	}
	if err := resp.failure(codeMap{
		404:             core.ErrUserNotFound,
		ocsCodeNotFound: core.ErrUserNotFound,
		101:             core.ErrUserNotFound,
	}); err != nil {
		return nil, err
	}
	return nonNil(resp.Data.Groups), nil
}

// GroupUsers returns the members of group.
func (b *RemoteBackend) GroupUsers(ctx context.Context, group string) ([]string, error) {
	resp, err := b.ocs(ctx, http.MethodGet, "groups/"+url.PathEscape(group), nil, nil)
	if err != nil {
		return nil, b.serviceError(err)
	}
	if err := resp.failure(codeMap{
		404:             core.ErrGroupNotFound,
		ocsCodeNotFound: core.ErrGroupNotFound,
	}); err != nil {
		return nil, err
	}
	return nonNil(resp.Data.Users), nil
}

// CreateUser provisions a user, then disables it when requested, and returns
// the record as the server stores it.
func (b *RemoteBackend) CreateUser(
	ctx context.Context,
	req *models.ModificationRequest,
) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}

	form := url.Values{}
	form.Set("userid", req.Username)
	if req.Password != nil {
		form.Set("password", *req.Password)
	}
	if req.DisplayName != nil {
		form.Set("displayName", *req.DisplayName)
	}
	if req.Email != nil {
		form.Set("email", *req.Email)
	}
	for _, g := range req.Groups {
		form.Add("groups[]", g)
	}

	resp, err := b.ocs(ctx, http.MethodPost, "users", form, nil)
	if err != nil {
		return nil, b.serviceError(err)
	}
	if err := resp.failure(codeMap{
		101: core.ErrInvalidRequest,
		102: core.ErrUsernameAlreadyExists,
	}); err != nil {
		return nil, err
	}

	if req.Enabled != nil && !*req.Enabled {
		if err := b.setEnabled(ctx, req.Username, false); err != nil {
			return nil, err
		}
	}

	b.logger.Info("remote user created", zap.String("username", req.Username))
	return b.FindUser(ctx, req.Username)
}

// UpdateUser sends only the changed fields and converges group membership on
// the request's list with add/remove calls.
func (b *RemoteBackend) UpdateUser(
	ctx context.Context,
	req *models.ModificationRequest,
) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}

	current, err := b.FindUser(ctx, req.Username)
	if err != nil {
		return nil, err
	}

	edits := []struct {
		key   string
		value *string
		prev  string
	}{
		{"displayname", req.DisplayName, current.DisplayName},
		{"email", req.Email, current.Email},
		{"password", req.Password, ""},
	}
	for _, e := range edits {
		if e.value == nil || (e.key != "password" && *e.value == e.prev) {
			continue
		}
		if err := b.editUser(ctx, req.Username, e.key, *e.value); err != nil {
			return nil, err
		}
	}

	if req.Enabled != nil && *req.Enabled != current.Enabled {
		if err := b.setEnabled(ctx, req.Username, *req.Enabled); err != nil {
			return nil, err
		}
	}

	for _, g := range req.Groups {
		if !current.InGroup(g) {
			if err := b.membership(ctx, http.MethodPost, req.Username, g); err != nil {
				return nil, err
			}
		}
	}
	for _, g := range current.Groups {
		if !slices.Contains(req.Groups, g) {
			if err := b.membership(ctx, http.MethodDelete, req.Username, g); err != nil {
				return nil, err
			}
		}
	}

	b.logger.Info("remote user updated", zap.String("username", req.Username))
	return b.FindUser(ctx, req.Username)
}

// DeleteUser removes the account; the server drops its memberships.
func (b *RemoteBackend) DeleteUser(ctx context.Context, username string) error {
	resp, err := b.ocs(ctx, http.MethodDelete, "users/"+url.PathEscape(username), nil, nil)
	if err != nil {
		return b.serviceError(err)
	}
	if err := resp.failure(codeMap{
		101:             core.ErrUserNotFound,
		404:             core.ErrUserNotFound,
		ocsCodeNotFound: core.ErrUserNotFound,
	}); err != nil {
		return err
	}
	b.logger.Info("remote user deleted", zap.String("username", username))
	return nil
}

// CreateGroup creates an empty group.
func (b *RemoteBackend) CreateGroup(ctx context.Context, group string) error {
	if strings.TrimSpace(group) == "" {
		return fmt.Errorf("%w: empty group name", core.ErrInvalidRequest)
	}
	form := url.Values{}
	form.Set("groupid", group)
	resp, err := b.ocs(ctx, http.MethodPost, "groups", form, nil)
	if err != nil {
		return b.serviceError(err)
	}
	if err := resp.failure(codeMap{
		101: core.ErrInvalidRequest,
		102: core.ErrGroupAlreadyExists,
	}); err != nil {
		return err
	}
	b.logger.Info("remote group created", zap.String("group", group))
	return nil
}

// DeleteGroup removes the group; the server drops it from every member.
func (b *RemoteBackend) DeleteGroup(ctx context.Context, group string) error {
	resp, err := b.ocs(ctx, http.MethodDelete, "groups/"+url.PathEscape(group), nil, nil)
	if err != nil {
		return b.serviceError(err)
	}
	if err := resp.failure(codeMap{
		101:             core.ErrGroupNotFound,
		404:             core.ErrGroupNotFound,
		ocsCodeNotFound: core.ErrGroupNotFound,
	}); err != nil {
		return err
	}
	b.logger.Info("remote group deleted", zap.String("group", group))
	return nil
}

// VerifyPassword asks the remote directory to accept the caller's own
// credentials by fetching the caller's record with them.
//
// The server refuses a disabled account's own credentials with 401, so a
// disabled account reports ErrInvalidCredentials here just like a wrong password.
func (b *RemoteBackend) VerifyPassword(ctx context.Context, username, password string) error {
	creds := &basicCredentials{username: username, password: password}
	resp, err := b.ocs(ctx, http.MethodGet, "users/"+url.PathEscape(username), nil, creds)
	if errors.Is(err, errUnauthorized) {
		return fmt.Errorf("%w: %s", core.ErrInvalidCredentials, username)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrBackendUnavailable, err)
	}
	return resp.failure(codeMap{
		ocsCodeNotFound: core.ErrInvalidCredentials,
		404:             core.ErrInvalidCredentials,
	})
}

// ListResources issues a depth-1 PROPFIND below the user's WebDAV root.
func (b *RemoteBackend) ListResources(
	ctx context.Context,
	username, resourcePath string,
) ([]models.Resource, error) {
	rel := cleanResourcePath(resourcePath)
	root := b.basePath + davBasePath + username
	target := b.baseURL + davBasePath + url.PathEscape(username) + escapePath(rel)

	req, err := http.NewRequestWithContext(
		ctx,
		"PROPFIND",
		target,
		strings.NewReader(propfindBody),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrBackendUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/xml; charset=utf-8")
	req.Header.Set("Depth", "1")

	creds, caller := b.credentialsFor(ctx, nil)
	status, body, err := b.do(req, creds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrBackendUnavailable, err)
	}
	switch {
	case status == http.StatusNotFound || status == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", core.ErrResourceNotFound, rel)
	case status == http.StatusUnauthorized && caller:
		return nil, b.serviceError(errCallerRejected)
	case status == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %v", core.ErrBackendUnavailable, errUnauthorized)
	case status != http.StatusMultiStatus && status != http.StatusOK:
		return nil, fmt.Errorf("%w: HTTP %d", core.ErrBackendUnavailable, status)
	}

	var ms davMultistatus
	if err := xml.Unmarshal(body, &ms); err != nil {
		return nil, fmt.Errorf("%w: invalid multistatus: %v", core.ErrBackendUnavailable, err)
	}

	self := strings.TrimSuffix(rel, "/")
	resources := make([]models.Resource, 0, len(ms.Responses))
	for _, r := range ms.Responses {
		prop, ok := r.okProp()
		if !ok {
			continue
		}
		href, err := url.PathUnescape(r.Href)
		if err != nil {
			href = r.Href
		}
		if u, err := url.Parse(href); err == nil && u.IsAbs() {
			href = u.Path
		}
		relHref := strings.TrimPrefix(href, root)
		if !strings.HasPrefix(relHref, "/") {
			relHref = "/" + relHref
		}
		if strings.TrimSuffix(relHref, "/") == self {
			continue
		}
		resources = append(resources, prop.toResource(relHref))
	}
	return resources, nil
}

func (b *RemoteBackend) editUser(ctx context.Context, username, key, value string) error {
	form := url.Values{}
	form.Set("key", key)
	form.Set("value", value)
	resp, err := b.ocs(ctx, http.MethodPut, "users/"+url.PathEscape(username), form, nil)
	if err != nil {
		return b.serviceError(err)
	}
	return resp.failure(codeMap{
		101:             core.ErrUserNotFound,
		102:             core.ErrInvalidRequest,
		404:             core.ErrUserNotFound,
		ocsCodeNotFound: core.ErrUserNotFound,
	})
}

func (b *RemoteBackend) setEnabled(ctx context.Context, username string, enabled bool) error {
	action := "disable"
	if enabled {
		action = "enable"
	}
	resp, err := b.ocs(
		ctx,
		http.MethodPut,
		"users/"+url.PathEscape(username)+"/"+action,
		nil,
		nil,
	)
	if err != nil {
		return b.serviceError(err)
	}
	return resp.failure(codeMap{
		101:             core.ErrUserNotFound,
		404:             core.ErrUserNotFound,
		ocsCodeNotFound: core.ErrUserNotFound,
	})
}

// membership adds (POST) or removes (DELETE) username from group.
func (b *RemoteBackend) membership(ctx context.Context, method, username, group string) error {
	form := url.Values{}
	form.Set("groupid", group)
	resp, err := b.ocs(ctx, method, "users/"+url.PathEscape(username)+"/groups", form, nil)
	if err != nil {
		return b.serviceError(err)
	}
	return resp.failure(codeMap{
		101: core.ErrInvalidRequest,
		102: core.ErrGroupNotFound,
		103: core.ErrUserNotFound,
	})
}

// ocs performs one provisioning API exchange. creds overrides the credentials
// resolved from the context and the service account.
func (b *RemoteBackend) ocs(
	ctx context.Context,
	method, endpoint string,
	form url.Values,
	creds *basicCredentials,
) (*ocsResponse, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+ocsBasePath+endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("OCS-APIRequest", "true")
	req.Header.Set("Accept", "application/xml")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	creds, caller := b.credentialsFor(ctx, creds)
	status, data, err := b.do(req, creds)
	if err != nil {
		return nil, err
	}
	rejected := func() error {
		if caller {
			return errCallerRejected
		}
		return errUnauthorized
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, rejected()
	}

	// Without an envelope even a 404 only says the endpoint is wrong.
	var resp ocsResponse
	if err := xml.Unmarshal(data, &resp); err != nil || resp.Meta.StatusCode == 0 {
		bodyPreview := string(data)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		return nil, fmt.Errorf("invalid response: HTTP %d - %s", status, bodyPreview)
	}
	if resp.Meta.StatusCode == ocsCodeUnauthorized {
		return nil, rejected()
	}
	return &resp, nil
}

// do sends req with Basic credentials and returns status and body.
func (b *RemoteBackend) do(req *http.Request, creds *basicCredentials) (int, []byte, error) {
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	if creds != nil {
		req.SetBasicAuth(creds.username, creds.password)
	}

	resp, err := b.client.Do(req.Context(), req)
	if err != nil {
		b.logger.Warn("directory API request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	b.logger.Debug("directory API request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
	)
	return resp.StatusCode, data, nil
}

// credentialsFor picks explicit credentials, then request-scoped ones, then the
// service account when enforcement is on. caller reports whether the result
// belongs to the calling user.
func (b *RemoteBackend) credentialsFor(
	ctx context.Context,
	explicit *basicCredentials,
) (creds *basicCredentials, caller bool) {
	if explicit != nil {
		return explicit, true
	}
	if c, ok := credentialsFromContext(ctx); ok {
		return c, true
	}
	if b.enforceAuth {
		return b.service, false
	}
	return nil, false
}

// serviceError turns a transport-level failure of a service call into a kind.
// A rejected caller is a credentials problem, not an outage.
func (b *RemoteBackend) serviceError(err error) error {
	if errors.Is(err, errCallerRejected) {
		return fmt.Errorf("%w: %v", core.ErrInvalidCredentials, err)
	}
	return fmt.Errorf("%w: %v", core.ErrBackendUnavailable, err)
}

func cleanResourcePath(p string) string {
	return path.Clean("/" + strings.TrimSpace(p))
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
