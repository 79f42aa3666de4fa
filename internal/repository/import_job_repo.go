package repository

import (
	"context"

	"github.com/timmy/applytrack/internal/domain"
	"gorm.io/gorm"
)

// ImportJobRepository records bulk import runs.
type ImportJobRepository struct {
	db *gorm.DB
}

// NewImportJobRepository creates a new ImportJobRepository.
func NewImportJobRepository(db *gorm.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

// Create inserts a finished import job record.
func (r *ImportJobRepository) Create(ctx context.Context, job *domain.ImportJob) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return domain.WrapStorage("create import job", err)
	}
	return nil
}

// ListRecent returns up to limit jobs, most recently started first.
func (r *ImportJobRepository) ListRecent(ctx context.Context, limit int) ([]domain.ImportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	jobs := []domain.ImportJob{}
	if err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, domain.WrapStorage("list import jobs", err)
	}
	return jobs, nil
}
