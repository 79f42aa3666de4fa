package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/applytrack/internal/domain"
	"github.com/timmy/applytrack/internal/logger"
	"github.com/timmy/applytrack/internal/repository"
	"github.com/timmy/applytrack/internal/source"
)

// DefaultImportBatchSize is the number of rows read per source batch.
const DefaultImportBatchSize = 200

// ImportService reconciles batches of externally sourced rows with the
// record store: rows matching an existing application by natural key are
// merged into it, all other rows are inserted.
type ImportService struct {
	repo      *repository.ApplicationRepository
	jobs      *repository.ImportJobRepository
	logger    *logger.Logger
	matchMode domain.MatchMode
	batchSize int
}

// ImportConfig holds configuration for the import service.
type ImportConfig struct {
	MatchMode domain.MatchMode
	BatchSize int
}

// NewImportService creates a new import service.
// Parameters:
//   - repo: record store the rows are reconciled against.
//   - jobs: import job log; written after each run.
//   - log: logger instance.
//   - cfg: match mode and source batch size; nil uses exact matching.
//
// Returns:
//   - *ImportService: initialized import service.
func NewImportService(
	repo *repository.ApplicationRepository,
	jobs *repository.ImportJobRepository,
	log *logger.Logger,
	cfg *ImportConfig,
) *ImportService {
	s := &ImportService{
		repo:      repo,
		jobs:      jobs,
		logger:    log,
		matchMode: domain.MatchExact,
		batchSize: DefaultImportBatchSize,
	}
	if cfg != nil {
		if cfg.MatchMode != "" {
			s.matchMode = cfg.MatchMode
		}
		if cfg.BatchSize > 0 {
			s.batchSize = cfg.BatchSize
		}
	}
	return s
}

func (s *ImportService) log(ctx context.Context) *logger.Logger {
	if l, ok := logger.Lookup(ctx); ok {
		return l
	}
	return s.logger
}

// Import reconciles rows in one transaction and records the run as an import job.
//
// Rows with a blank company or title are skipped. A matched application has
// its status, date_applied, process_steps, outcome and notes overwritten
// without a history event; an unmatched row is created with its creation
// event. Any storage failure rolls back the whole batch and no counts are
// reported.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - sourceID: identifier of where the rows came from, stored on the job.
//   - rows: candidate applications in batch order.
//
// Returns:
//   - *domain.ImportResult: added/updated/skipped counts and the job id.
//   - error: StorageError if the batch was rolled back.
func (s *ImportService) Import(ctx context.Context, sourceID string, rows []domain.ApplicationInput) (*domain.ImportResult, error) {
	jobID := uuid.New().String()
	ctx = s.log(ctx).WithContext(ctx)
	ctx = logger.SetComponent(ctx, "import")
	ctx = logger.SetImportID(ctx, jobID)
	ctx = logger.WithField(ctx, logger.FieldSource, sourceID)

	started := time.Now()
	s.log(ctx).WithField(logger.FieldCount, len(rows)).Info("Starting import")

	result, err := s.reconcile(ctx, rows)
	s.recordJob(ctx, jobID, sourceID, len(rows), started, result, err)
	if err != nil {
		s.log(ctx).WithError(err).Error("Import rolled back")
		return nil, err
	}

	result.JobID = jobID
	logger.With(logger.Fields{
		"added":   result.Added,
		"updated": result.Updated,
		"skipped": result.Skipped,
	}).WithCount(len(rows)).
		WithDuration(time.Since(started).Milliseconds()).
		Info(ctx, "Import completed")
	return &result, nil
}

func (s *ImportService) reconcile(ctx context.Context, rows []domain.ApplicationInput) (domain.ImportResult, error) {
	var result domain.ImportResult
	err := s.repo.Transaction(ctx, func(tx *repository.ApplicationRepository) error {
		now := tx.Now()
		for i := range rows {
			row := &rows[i]
			if err := row.Validate(); err != nil {
				result.Skipped++
				s.log(ctx).WithField("row", i).Debugf("Skipping row: %v", err)
				continue
			}

			existing, err := tx.FindByNaturalKey(ctx, domain.NaturalKey(row.Company, row.Title, s.matchMode))
			if err != nil {
				return err
			}
			app := row.Resolve(now)
			if existing != nil {
				if err := tx.Overwrite(ctx, existing, app); err != nil {
					return err
				}
				result.Updated++
				continue
			}
			if _, err := tx.Insert(ctx, app); err != nil {
				return err
			}
			result.Added++
		}
		return nil
	})
	if err != nil {
		return domain.ImportResult{}, err
	}
	return result, nil
}

// recordJob writes the import job row. Its failure is logged only; the
// import itself has already committed or rolled back.
func (s *ImportService) recordJob(ctx context.Context, id, sourceID string, total int, started time.Time, result domain.ImportResult, runErr error) {
	job := &domain.ImportJob{
		ID:          id,
		SourceID:    sourceID,
		Status:      domain.JobStatusCompleted,
		TotalRows:   total,
		Added:       result.Added,
		Updated:     result.Updated,
		Skipped:     result.Skipped,
		StartedAt:   started.UTC(),
		CompletedAt: time.Now().UTC(),
	}
	if runErr != nil {
		job.Status = domain.JobStatusFailed
		job.ErrorLog = runErr.Error()
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		s.log(ctx).WithError(err).Warn("Failed to record import job")
	}
}

// blankRowCounter is implemented by sources that drop empty sheet rows
// before they reach the importer.
type blankRowCounter interface {
	BlankRows() int
}

// ImportFromSource reads every batch of src and imports all rows as one unit.
// A fetch failure aborts before anything is written and is recorded as a
// failed job.
func (s *ImportService) ImportFromSource(ctx context.Context, src source.Source) (*domain.ImportResult, error) {
	s.log(ctx).WithFields(logger.Fields{
		logger.FieldSource: src.GetSourceID(),
		"display_name":     src.GetDisplayName(),
		"batch_size":       s.batchSize,
	}).Info("Reading import source")

	started := time.Now()
	var rows []domain.ApplicationInput
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, next, err := src.FetchBatch(ctx, cursor, s.batchSize)
		if err != nil {
			s.log(ctx).WithError(err).Error("Failed to fetch batch")
			s.recordJob(ctx, uuid.New().String(), src.GetSourceID(), len(rows), started, domain.ImportResult{}, err)
			return nil, err
		}
		rows = append(rows, batch...)
		if next == "" || len(batch) == 0 {
			break
		}
		cursor = next
	}

	if counter, ok := src.(blankRowCounter); ok && counter.BlankRows() > 0 {
		s.log(ctx).WithFields(logger.Fields{
			logger.FieldSource: src.GetSourceID(),
			"blank_rows":       counter.BlankRows(),
		}).Info("Ignored blank sheet rows")
	}

	return s.Import(ctx, src.GetSourceID(), rows)
}

// RecentJobs lists the latest import runs, newest first.
func (s *ImportService) RecentJobs(ctx context.Context, limit int) ([]domain.ImportJob, error) {
	return s.jobs.ListRecent(ctx, limit)
}
