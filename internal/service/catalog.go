package service

import (
	"context"
	"strings"
	"sync"

	"github.com/timmy/applytrack/internal/domain"
	"github.com/timmy/applytrack/internal/logger"
	"github.com/timmy/applytrack/internal/repository"
)

// StatusCatalogService manages the ordered set of status labels offered to
// users. Catalog edits never touch application or history rows; only
// BulkMigrate (and Retire with a target) relabels data.
type StatusCatalogService struct {
	settings *repository.SettingsRepository
	apps     *repository.ApplicationRepository
	logger   *logger.Logger
	mu       sync.Mutex
}

// LabelUsage is the number of applications currently at Status.
// InCatalog is false for orphaned labels still held by rows.
type LabelUsage struct {
	Status    string `json:"status"`
	Count     int64  `json:"count"`
	InCatalog bool   `json:"in_catalog"`
}

// NewStatusCatalogService creates a new status catalog service.
func NewStatusCatalogService(settings *repository.SettingsRepository, apps *repository.ApplicationRepository, log *logger.Logger) *StatusCatalogService {
	return &StatusCatalogService{settings: settings, apps: apps, logger: log}
}

func (s *StatusCatalogService) log(ctx context.Context) *logger.Logger {
	if l, ok := logger.Lookup(ctx); ok {
		return l
	}
	return s.logger
}

// List returns the catalog in display order. An unset catalog is the default one.
func (s *StatusCatalogService) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *StatusCatalogService) load(ctx context.Context) ([]string, error) {
	var labels []string
	found, err := s.settings.Get(ctx, domain.SettingStatusCatalog, &labels)
	if err != nil {
		return nil, err
	}
	if !found {
		return append([]string(nil), domain.DefaultStatuses...), nil
	}
	if labels == nil {
		labels = []string{}
	}
	return labels, nil
}

func (s *StatusCatalogService) save(ctx context.Context, labels []string) error {
	return s.settings.Set(ctx, domain.SettingStatusCatalog, labels)
}

// Add appends label to the catalog unless it is already present.
// Returns the updated catalog.
func (s *StatusCatalogService) Add(ctx context.Context, label string) ([]string, error) {
	if strings.TrimSpace(label) == "" {
		return nil, &domain.ValidationError{Field: "label", Reason: "must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	labels, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range labels {
		if l == label {
			return labels, nil
		}
	}
	labels = append(labels, label)
	if err := s.save(ctx, labels); err != nil {
		return nil, err
	}

	s.log(ctx).WithField(logger.FieldStatus, label).Info("Status label added")
	return labels, nil
}

// Remove drops label from the catalog. Rows holding label keep it.
// Returns the updated catalog.
func (s *StatusCatalogService) Remove(ctx context.Context, label string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	labels, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	kept := make([]string, 0, len(labels))
	for _, l := range labels {
		if l != label {
			kept = append(kept, l)
		}
	}
	if len(kept) == len(labels) {
		return labels, nil
	}
	if err := s.save(ctx, kept); err != nil {
		return nil, err
	}

	s.log(ctx).WithField(logger.FieldStatus, label).Info("Status label removed")
	return kept, nil
}

// Reset restores the built-in catalog.
func (s *StatusCatalogService) Reset(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	labels := append([]string(nil), domain.DefaultStatuses...)
	if err := s.save(ctx, labels); err != nil {
		return nil, err
	}
	s.log(ctx).Info("Status catalog reset to defaults")
	return labels, nil
}

// BulkMigrate moves every application at from to to, one history event per
// moved application, all in one transaction. The catalog itself is unchanged.
func (s *StatusCatalogService) BulkMigrate(ctx context.Context, from, to string) (int, error) {
	moved, err := s.apps.MigrateStatus(ctx, from, to)
	if err != nil {
		if !domain.IsValidation(err) {
			s.log(ctx).WithError(err).WithFields(logger.Fields{"from": from, "to": to}).Error("Status migration failed")
		}
		return 0, err
	}

	s.log(ctx).WithFields(logger.Fields{
		"from":            from,
		"to":              to,
		logger.FieldCount: moved,
	}).Info("Status migrated")
	return moved, nil
}

// Retire removes label from the catalog. When target is non-empty, the
// applications at label are first migrated to target; a failed migration
// leaves the catalog untouched.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - label: catalog entry to remove.
//   - target: replacement status for rows at label, or "" to orphan them.
//
// Returns:
//   - []string: the updated catalog.
//   - int: number of applications migrated.
//   - error: ValidationError or StorageError.
func (s *StatusCatalogService) Retire(ctx context.Context, label, target string) ([]string, int, error) {
	moved := 0
	if target != "" {
		var err error
		if moved, err = s.BulkMigrate(ctx, label, target); err != nil {
			return nil, 0, err
		}
	}
	labels, err := s.Remove(ctx, label)
	if err != nil {
		return nil, moved, err
	}
	return labels, moved, nil
}

// Usage reports how many applications sit at each label. Catalog labels come
// first in catalog order, including unused ones; orphaned labels follow.
func (s *StatusCatalogService) Usage(ctx context.Context) ([]LabelUsage, error) {
	labels, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.apps.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[string]int64, len(counts))
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}

	usage := make([]LabelUsage, 0, len(labels)+len(counts))
	inCatalog := make(map[string]bool, len(labels))
	for _, l := range labels {
		inCatalog[l] = true
		usage = append(usage, LabelUsage{Status: l, Count: byStatus[l], InCatalog: true})
	}
	for _, c := range counts {
		if !inCatalog[c.Status] {
			usage = append(usage, LabelUsage{Status: c.Status, Count: c.Count})
		}
	}
	return usage, nil
}
