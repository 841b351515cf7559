package client

import (
	"testing"
	"time"

	"github.com/go-authgate/dirgate/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRetryClient(t *testing.T) {
	cfg := &config.Config{
		DirectoryAPIAuthMode:      config.APIAuthModeNone,
		DirectoryAPIAuthHeader:    "X-API-Secret",
		DirectoryAPITimeout:       5 * time.Second,
		DirectoryAPIRetryDelay:    time.Second,
		DirectoryAPIMaxRetryDelay: 10 * time.Second,
	}

	c, err := CreateRetryClient(cfg)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestCreateRetryClient_SimpleAuth(t *testing.T) {
	cfg := &config.Config{
		DirectoryAPIAuthMode:   config.APIAuthModeSimple,
		DirectoryAPIAuthSecret: "shared-secret", //nolint:gosec // Test secret, not production
		DirectoryAPIAuthHeader: "X-API-Secret",
		DirectoryAPITimeout:    5 * time.Second,
	}

	c, err := CreateRetryClient(cfg)
	require.NoError(t, err)
	assert.NotNil(t, c)
}
