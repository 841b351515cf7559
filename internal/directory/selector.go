package directory

import (
	"fmt"
	"sync"

	"github.com/go-authgate/dirgate/internal/client"
	"github.com/go-authgate/dirgate/internal/config"
	"github.com/go-authgate/dirgate/internal/core"

	"go.uber.org/zap"
)

var (
	defaultBackend core.Backend
	defaultErr     error
	once           sync.Once
)

// New builds the backend named by cfg.DirectoryBackend and wraps it with
// metrics recording.
func New(cfg *config.Config, logger *zap.Logger, recorder core.Recorder) (core.Backend, error) {
	var (
		backend core.Backend
		err     error
	)

	switch cfg.DirectoryBackend {
	case config.BackendRemote:
		backend, err = newRemoteFromConfig(cfg, logger)
	case config.BackendLocal:
		backend, err = newLocalFromConfig(cfg, logger)
	default:
		return nil, fmt.Errorf(
			"invalid DIRECTORY_BACKEND: %q (must be: local, remote)",
			cfg.DirectoryBackend,
		)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("directory backend selected", zap.String("backend", backend.Name()))
	return NewInstrumentedBackend(backend, recorder), nil
}

// Init returns the process-wide backend. The first call builds it; later
// calls return the same instance and error whatever their arguments.
func Init(cfg *config.Config, logger *zap.Logger, recorder core.Recorder) (core.Backend, error) {
	once.Do(func() {
		defaultBackend, defaultErr = New(cfg, logger, recorder)
	})
	return defaultBackend, defaultErr
}

func newRemoteFromConfig(cfg *config.Config, logger *zap.Logger) (*RemoteBackend, error) {
	httpClient, err := client.CreateRetryClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewRemoteBackend(RemoteOptions{
		BaseURL:     cfg.DirectoryAPIURL,
		Client:      httpClient,
		Username:    cfg.DirectoryAPIUsername,
		Password:    cfg.DirectoryAPIPassword,
		EnforceAuth: cfg.DirectoryAPIEnforceAuth,
	}, logger.Named("remote"))
}

func newLocalFromConfig(cfg *config.Config, logger *zap.Logger) (*LocalBackend, error) {
	store, err := NewFileSnapshotStore(cfg.LocalSnapshotPath)
	if err != nil {
		return nil, err
	}
	return NewLocalBackend(store, cfg.LocalResourcesRoot, logger.Named("local"))
}
