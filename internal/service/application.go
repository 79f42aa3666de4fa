package service

import (
	"context"

	"github.com/timmy/applytrack/internal/domain"
	"github.com/timmy/applytrack/internal/logger"
	"github.com/timmy/applytrack/internal/repository"
)

// ApplicationService exposes the record store operations to the transports.
type ApplicationService struct {
	repo   *repository.ApplicationRepository
	logger *logger.Logger
}

// NewApplicationService creates a new application service.
func NewApplicationService(repo *repository.ApplicationRepository, log *logger.Logger) *ApplicationService {
	return &ApplicationService{repo: repo, logger: log}
}

// log returns the request logger if ctx carries one, otherwise the service logger.
func (s *ApplicationService) log(ctx context.Context) *logger.Logger {
	if l, ok := logger.Lookup(ctx); ok {
		return l
	}
	return s.logger
}

// Create records a new application and its creation event.
func (s *ApplicationService) Create(ctx context.Context, in domain.ApplicationInput) (*domain.Application, error) {
	id, err := s.repo.Create(ctx, in)
	if err != nil {
		if !domain.IsValidation(err) {
			s.log(ctx).WithError(err).Error("Failed to create application")
		}
		return nil, err
	}

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldApplicationID: id,
		"company":                 in.Company,
		"title":                   in.Title,
	}).Info("Application created")

	return s.repo.GetByID(ctx, id)
}

// Get returns application id.
func (s *ApplicationService) Get(ctx context.Context, id int64) (*domain.Application, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies patch to application id and returns the stored result.
func (s *ApplicationService) Update(ctx context.Context, id int64, patch domain.ApplicationPatch) (*domain.Application, error) {
	if err := s.repo.Update(ctx, id, patch); err != nil {
		if !domain.IsValidation(err) && !domain.IsNotFound(err) {
			s.log(ctx).WithError(err).WithField(logger.FieldApplicationID, id).Error("Failed to update application")
		}
		return nil, err
	}

	fields := logger.Fields{logger.FieldApplicationID: id}
	if patch.Status != nil {
		fields[logger.FieldStatus] = *patch.Status
	}
	s.log(ctx).WithFields(fields).Debug("Application updated")

	return s.repo.GetByID(ctx, id)
}

// Delete removes application id and its history. Unknown ids are ignored.
func (s *ApplicationService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.log(ctx).WithError(err).WithField(logger.FieldApplicationID, id).Error("Failed to delete application")
		return err
	}
	s.log(ctx).WithField(logger.FieldApplicationID, id).Info("Application deleted")
	return nil
}

// List returns every application, most recently touched first.
func (s *ApplicationService) List(ctx context.Context) ([]domain.Application, error) {
	return s.repo.List(ctx)
}

// History returns the events of application id, newest first.
func (s *ApplicationService) History(ctx context.Context, id int64) ([]domain.HistoryEvent, error) {
	return s.repo.ListHistory(ctx, id)
}

// Activity returns the newest limit events across all applications.
func (s *ApplicationService) Activity(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	return s.repo.ListGlobalHistory(ctx, limit)
}
