package bootstrap

import (
	"github.com/go-authgate/dirgate/internal/auth"
	"github.com/go-authgate/dirgate/internal/config"
	"github.com/go-authgate/dirgate/internal/core"
	"github.com/go-authgate/dirgate/internal/directory"
	"github.com/go-authgate/dirgate/internal/metrics"
	"github.com/go-authgate/dirgate/internal/services"

	"go.uber.org/zap"
)

// Directory groups the backend with the components built on top of it
type Directory struct {
	Backend  core.Backend
	Resolver *auth.Resolver
	Service  *services.DirectoryService
}

// NewDirectory builds the configured backend, the authentication resolver
// and the modification service. It is used by commands that do not serve HTTP.
func NewDirectory(
	cfg *config.Config,
	logger *zap.Logger,
	recorder metrics.Recorder,
) (*Directory, error) {
	if err := validateAllConfiguration(cfg); err != nil {
		return nil, err
	}
	return initializeDirectory(cfg, logger, recorder, directory.New)
}

// initializeDirectory creates the directory business services
func initializeDirectory(
	cfg *config.Config,
	logger *zap.Logger,
	recorder metrics.Recorder,
	newBackend backendFactory,
) (*Directory, error) {
	backend, err := newBackend(cfg, logger, recorder)
	if err != nil {
		return nil, err
	}

	resolver := auth.NewResolver(
		backend,
		logger.Named("auth"),
		recorder,
		auth.WithAuthorityMapper(auth.NewAuthorityMapper(cfg)),
	)
	service := services.NewDirectoryService(backend, logger.Named("directory"), recorder)

	return &Directory{
		Backend:  backend,
		Resolver: resolver,
		Service:  service,
	}, nil
}
