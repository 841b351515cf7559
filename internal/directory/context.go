package directory

import (
	"context"

	"github.com/go-authgate/dirgate/internal/core"
)

type basicCredentials struct {
	username string
	password string
}

// WithCredentials returns a context whose remote directory calls authenticate
// as username instead of the service account. The local backend ignores it.
func WithCredentials(ctx context.Context, username, password string) context.Context {
	return core.WithCredentials(ctx, username, password)
}

func credentialsFromContext(ctx context.Context) (*basicCredentials, bool) {
	username, password, ok := core.CredentialsFromContext(ctx)
	if !ok {
		return nil, false
	}
	return &basicCredentials{username: username, password: password}, true
}
