package core

import "errors"

var (
	ErrUserNotFound              = errors.New("user not found")
	ErrGroupNotFound             = errors.New("group not found")
	ErrUsernameAlreadyExists     = errors.New("username already exists")
	ErrGroupAlreadyExists        = errors.New("group already exists")
	ErrAuthenticationFailed      = errors.New("invalid username or password")
	ErrAccountDisabled           = errors.New("account disabled")
	ErrUnsupportedCredentialType = errors.New("unsupported credential type")
	ErrResourceNotFound          = errors.New("resource not found")
	ErrBackendUnavailable        = errors.New("directory backend unavailable")

	// ErrInvalidCredentials is reported by Backend.VerifyPassword. The resolver
	// folds it into ErrAuthenticationFailed.
	ErrInvalidCredentials = errors.New("credentials rejected by directory")

	// ErrInvalidRequest is raised by input validation before any backend call.
	ErrInvalidRequest = errors.New("invalid request")
)

// kinds is ordered so that the most specific kind wins in Kind.
var kinds = []struct {
	err  error
	name string
}{
	{ErrUserNotFound, "user_not_found"},
	{ErrGroupNotFound, "group_not_found"},
	{ErrUsernameAlreadyExists, "username_exists"},
	{ErrGroupAlreadyExists, "group_exists"},
	{ErrAuthenticationFailed, "authentication_failed"},
	{ErrAccountDisabled, "account_disabled"},
	{ErrUnsupportedCredentialType, "unsupported_credential"},
	{ErrResourceNotFound, "resource_not_found"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrInvalidRequest, "invalid_request"},
	{ErrBackendUnavailable, "backend_unavailable"},
}

// Kind returns a short label for err, "success" for nil and "unknown" when
// err carries none of the known kinds.
func Kind(err error) string {
	if err == nil {
		return "success"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "unknown"
}
