package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/go-authgate/dirgate/internal/core"
	"github.com/go-authgate/dirgate/internal/models"

	"go.uber.org/zap"
)

// Modification steps named by StepError.
const (
	StepEnsureGroups = "ensure-groups"
	StepWriteUser    = "write-user"
	StepDeleteUser   = "delete-user"
	StepPruneGroups  = "prune-groups"
)

// StepError reports which step of a multi-call modification failed. Side
// effects of earlier steps stay in place.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return e.Step + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// DirectoryService sequences user and group writes on top of a backend.
type DirectoryService struct {
	backend  core.Backend
	logger   *zap.Logger
	recorder core.Recorder
}

func NewDirectoryService(
	backend core.Backend,
	logger *zap.Logger,
	recorder core.Recorder,
) *DirectoryService {
	return &DirectoryService{
		backend:  backend,
		logger:   logger,
		recorder: recorder,
	}
}

// Backend returns the backend the service writes to.
func (s *DirectoryService) Backend() core.Backend {
	return s.backend
}

func (s *DirectoryService) FindUser(ctx context.Context, username string) (*models.User, error) {
	return s.backend.FindUser(ctx, username)
}

func (s *DirectoryService) ListUsers(ctx context.Context) ([]string, error) {
	return s.backend.ListUsers(ctx)
}

func (s *DirectoryService) ListGroups(ctx context.Context) ([]string, error) {
	return s.backend.ListGroups(ctx)
}

func (s *DirectoryService) UserGroups(ctx context.Context, username string) ([]string, error) {
	return s.backend.UserGroups(ctx, username)
}

func (s *DirectoryService) GroupUsers(ctx context.Context, group string) ([]string, error) {
	return s.backend.GroupUsers(ctx, group)
}

func (s *DirectoryService) ListResources(
	ctx context.Context,
	username, path string,
) ([]models.Resource, error) {
	return s.backend.ListResources(ctx, username, path)
}

// CreateUser creates any missing group named in req, then the user.
func (s *DirectoryService) CreateUser(
	ctx context.Context,
	req *models.ModificationRequest,
) (*models.User, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := s.step(StepEnsureGroups, s.ensureGroups(ctx, req.Groups)); err != nil {
		return nil, err
	}

	u, err := s.backend.CreateUser(ctx, req)
	if err := s.step(StepWriteUser, err); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateUser creates any missing group named in req, then updates the user.
func (s *DirectoryService) UpdateUser(
	ctx context.Context,
	req *models.ModificationRequest,
) (*models.User, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := s.step(StepEnsureGroups, s.ensureGroups(ctx, req.Groups)); err != nil {
		return nil, err
	}

	u, err := s.backend.UpdateUser(ctx, req)
	if err := s.step(StepWriteUser, err); err != nil {
		return nil, err
	}
	return u, nil
}

// SaveUser creates the user when absent and updates it otherwise.
func (s *DirectoryService) SaveUser(
	ctx context.Context,
	req *models.ModificationRequest,
) (*models.User, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := s.step(StepEnsureGroups, s.ensureGroups(ctx, req.Groups)); err != nil {
		return nil, err
	}

	u, err := s.writeUser(ctx, req)
	if err := s.step(StepWriteUser, err); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *DirectoryService) writeUser(
	ctx context.Context,
	req *models.ModificationRequest,
) (*models.User, error) {
	_, err := s.backend.FindUser(ctx, req.Username)
	switch {
	case err == nil:
		return s.backend.UpdateUser(ctx, req)
	case !errors.Is(err, core.ErrUserNotFound):
		return nil, err
	}

	u, err := s.backend.CreateUser(ctx, req)
	if errors.Is(err, core.ErrUsernameAlreadyExists) {
		// Created concurrently since the lookup.
		return s.backend.UpdateUser(ctx, req)
	}
	return u, err
}

// DeleteUser removes the user. With pruneEmptyGroups, groups the user belonged
// to are deleted afterwards if they have no members left. Groups are never
// deleted otherwise.
func (s *DirectoryService) DeleteUser(
	ctx context.Context,
	username string,
	pruneEmptyGroups bool,
) error {
	var former []string
	if pruneEmptyGroups {
		groups, err := s.backend.UserGroups(ctx, username)
		if err := s.step(StepDeleteUser, err); err != nil {
			return err
		}
		former = groups
	}

	if err := s.step(StepDeleteUser, s.backend.DeleteUser(ctx, username)); err != nil {
		return err
	}
	if !pruneEmptyGroups {
		return nil
	}

	pruned, err := s.pruneGroups(ctx, former)
	if len(pruned) > 0 {
		s.logger.Info("pruned empty groups",
			zap.String("username", username),
			zap.Strings("groups", pruned),
		)
	}
	return s.step(StepPruneGroups, err)
}

func (s *DirectoryService) CreateGroup(ctx context.Context, group string) error {
	return s.backend.CreateGroup(ctx, group)
}

func (s *DirectoryService) DeleteGroup(ctx context.Context, group string) error {
	return s.backend.DeleteGroup(ctx, group)
}

// ensureGroups creates every group in groups the backend does not list yet.
// A group created concurrently counts as present.
func (s *DirectoryService) ensureGroups(ctx context.Context, groups []string) error {
	if len(groups) == 0 {
		return nil
	}
	existing, err := s.backend.ListGroups(ctx)
	if err != nil {
		return err
	}
	for _, g := range groups {
		if slices.Contains(existing, g) {
			continue
		}
		err := s.backend.CreateGroup(ctx, g)
		if err != nil && !errors.Is(err, core.ErrGroupAlreadyExists) {
			return fmt.Errorf("group %q: %w", g, err)
		}
		if err == nil {
			s.logger.Info("created missing group", zap.String("group", g))
		}
	}
	return nil
}

func (s *DirectoryService) pruneGroups(ctx context.Context, groups []string) ([]string, error) {
	var pruned []string
	for _, g := range groups {
		members, err := s.backend.GroupUsers(ctx, g)
		if errors.Is(err, core.ErrGroupNotFound) {
			continue
		}
		if err != nil {
			return pruned, fmt.Errorf("group %q: %w", g, err)
		}
		if len(members) > 0 {
			continue
		}
		err = s.backend.DeleteGroup(ctx, g)
		if err != nil && !errors.Is(err, core.ErrGroupNotFound) {
			return pruned, fmt.Errorf("group %q: %w", g, err)
		}
		pruned = append(pruned, g)
	}
	return pruned, nil
}

// step records the outcome of one step and wraps a failure in StepError.
func (s *DirectoryService) step(name string, err error) error {
	s.recorder.RecordModificationStep(name, err == nil)
	if err == nil {
		return nil
	}
	s.logger.Warn("directory modification step failed",
		zap.String("step", name),
		zap.String("kind", core.Kind(err)),
		zap.Error(err),
	)
	return &StepError{Step: name, Err: err}
}

func validate(req *models.ModificationRequest) error {
	if req == nil {
		return fmt.Errorf("%w: missing request", core.ErrInvalidRequest)
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}
	return nil
}
