package core

import "context"

type credentialsKey struct{}

type requestCredentials struct {
	username string
	password string
}

// WithCredentials returns a context whose backend calls act as username.
// Backends that authenticate per call, like the remote directory, use them in
// place of their service account. Others ignore them.
func WithCredentials(ctx context.Context, username, password string) context.Context {
	return context.WithValue(ctx, credentialsKey{}, requestCredentials{
		username: username,
		password: password,
	})
}

// CredentialsFromContext returns the credentials attached by WithCredentials.
func CredentialsFromContext(ctx context.Context) (username, password string, ok bool) {
	c, ok := ctx.Value(credentialsKey{}).(requestCredentials)
	if !ok {
		return "", "", false
	}
	return c.username, c.password, true
}
