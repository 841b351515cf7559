package client

import (
	"fmt"

	"github.com/go-authgate/dirgate/internal/config"

	httpclient "github.com/appleboy/go-httpclient"
	retry "github.com/appleboy/go-httpretry"
)

// CreateRetryClient creates the HTTP client used by the remote directory backend.
// go-httpclient adds the optional service header (simple or HMAC); Basic
// credentials are set per request by the backend itself.
func CreateRetryClient(cfg *config.Config) (*retry.Client, error) {
	authMode := cfg.DirectoryAPIAuthMode
	if authMode == "" {
		authMode = httpclient.AuthModeNone
	}

	client, err := httpclient.NewAuthClient(
		authMode,
		cfg.DirectoryAPIAuthSecret,
		httpclient.WithTimeout(cfg.DirectoryAPITimeout),
		httpclient.WithHeaderName(cfg.DirectoryAPIAuthHeader),
		httpclient.WithInsecureSkipVerify(cfg.DirectoryAPIInsecureSkipVerify),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth client: %w", err)
	}

	retryClient, err := retry.NewRealtimeClient(
		retry.WithHTTPClient(client),
		retry.WithMaxRetries(cfg.DirectoryAPIMaxRetries),
		retry.WithInitialRetryDelay(cfg.DirectoryAPIRetryDelay),
		retry.WithMaxRetryDelay(cfg.DirectoryAPIMaxRetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry client: %w", err)
	}

	return retryClient, nil
}
