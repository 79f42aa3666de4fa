package repository

import (
	"context"
	"time"

	"github.com/timmy/applytrack/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultActivityLimit bounds the global history feed when no limit is given.
const DefaultActivityLimit = 50

// ApplicationRepository owns the applications and history tables.
// Every multi-row write runs in a single transaction, and a status change
// always produces exactly one history event in the same transaction.
type ApplicationRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewApplicationRepository creates a new ApplicationRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//
// Returns:
//   - *ApplicationRepository: repository instance bound to db.
func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db, now: time.Now}
}

// WithClock returns a copy of the repository that reads the time from now.
func (r *ApplicationRepository) WithClock(now func() time.Time) *ApplicationRepository {
	return &ApplicationRepository{db: r.db, now: now}
}

// Now returns the repository clock's current time in UTC.
func (r *ApplicationRepository) Now() time.Time {
	return r.now().UTC()
}

// Transaction runs fn with a repository bound to a single database transaction.
// Any error returned by fn rolls the whole transaction back.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - fn: work to run inside the transaction.
//
// Returns:
//   - error: fn's error, or a StorageError if begin/commit fails.
func (r *ApplicationRepository) Transaction(ctx context.Context, fn func(tx *ApplicationRepository) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ApplicationRepository{db: tx, now: r.now})
	})
	return domain.WrapStorage("transaction", err)
}

// Create inserts an application together with its creation history event.
// The event carries the initial status and the applied date, not the wall clock.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - in: application fields; nil optional fields take the creation defaults.
//
// Returns:
//   - int64: the new application id.
//   - error: ValidationError for a blank company or title, StorageError otherwise.
func (r *ApplicationRepository) Create(ctx context.Context, in domain.ApplicationInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := r.Transaction(ctx, func(tx *ApplicationRepository) error {
		app, err := tx.Insert(ctx, in.Resolve(tx.Now()))
		if err != nil {
			return err
		}
		id = app.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Insert writes a resolved application row and its creation event.
// Callers outside a Transaction should use Create instead.
func (r *ApplicationRepository) Insert(ctx context.Context, app domain.Application) (*domain.Application, error) {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(&app).Error; err != nil {
		return nil, domain.WrapStorage("insert application", err)
	}
	event := domain.HistoryEvent{
		ApplicationID: app.ID,
		Status:        app.Status,
		Date:          app.DateApplied,
	}
	if err := db.Create(&event).Error; err != nil {
		return nil, domain.WrapStorage("insert creation event", err)
	}
	return &app, nil
}

// GetByID retrieves an application by id.
// Returns a NotFoundError when no row matches.
func (r *ApplicationRepository) GetByID(ctx context.Context, id int64) (*domain.Application, error) {
	var apps []domain.Application
	if err := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&apps).Error; err != nil {
		return nil, domain.WrapStorage("get application", err)
	}
	if len(apps) == 0 {
		return nil, &domain.NotFoundError{ID: id}
	}
	return &apps[0], nil
}

// Update applies the supplied fields of patch to application id.
//
// last_updated is always refreshed. A status that differs from the stored
// one appends a history event dated now. A supplied date_applied rewrites the
// date of the application's lowest-id history event, whether or not the
// status changed in the same call.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: application id.
//   - patch: fields to change; nil fields are left untouched.
//
// Returns:
//   - error: ValidationError, NotFoundError or StorageError.
func (r *ApplicationRepository) Update(ctx context.Context, id int64, patch domain.ApplicationPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	return r.Transaction(ctx, func(tx *ApplicationRepository) error {
		current, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		now := tx.Now()

		updates := map[string]interface{}{
			"last_updated": bumpTime(current.LastUpdated, now),
		}
		if patch.Company != nil {
			updates["company"] = *patch.Company
		}
		if patch.Title != nil {
			updates["title"] = *patch.Title
		}
		if patch.Status != nil {
			updates["status"] = *patch.Status
		}
		if patch.DateApplied != nil {
			updates["date_applied"] = patch.DateApplied.UTC()
		}
		if patch.ProcessSteps != nil {
			updates["process_steps"] = domain.StringArray(*patch.ProcessSteps)
		}
		if patch.CurrentStepIndex != nil {
			updates["current_step_index"] = *patch.CurrentStepIndex
		}
		if patch.Outcome != nil {
			updates["outcome"] = *patch.Outcome
		}
		if patch.Notes != nil {
			updates["notes"] = *patch.Notes
		}

		if err := tx.updateColumns(ctx, id, updates); err != nil {
			return err
		}

		// Rewrite before appending so a fresh event can never be the target.
		if patch.DateApplied != nil {
			if err := tx.rewriteFirstEvent(ctx, id, patch.DateApplied.UTC()); err != nil {
				return err
			}
		}
		if patch.Status != nil && *patch.Status != current.Status {
			if err := tx.AppendEvent(ctx, id, *patch.Status, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// Overwrite replaces the mergeable fields of an existing application with those
// of app and bumps last_updated. Company and title are kept. No history event
// is written.
func (r *ApplicationRepository) Overwrite(ctx context.Context, existing *domain.Application, app domain.Application) error {
	steps := app.ProcessSteps
	if steps == nil {
		steps = domain.StringArray{}
	}
	return r.updateColumns(ctx, existing.ID, map[string]interface{}{
		"status":        app.Status,
		"date_applied":  app.DateApplied.UTC(),
		"process_steps": steps,
		"outcome":       app.Outcome,
		"notes":         app.Notes,
		"last_updated":  bumpTime(existing.LastUpdated, r.Now()),
	})
}

// AppendEvent records a transition of application id to status at date.
func (r *ApplicationRepository) AppendEvent(ctx context.Context, id int64, status string, date time.Time) error {
	event := domain.HistoryEvent{
		ApplicationID: id,
		Status:        status,
		Date:          date.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&event).Error; err != nil {
		return domain.WrapStorage("append history event", err)
	}
	return nil
}

// rewriteFirstEvent moves the lowest-id event of application id to date.
// The lowest id is the creation event as long as events are inserted in
// chronological order; it is not necessarily the oldest by date.
func (r *ApplicationRepository) rewriteFirstEvent(ctx context.Context, id int64, date time.Time) error {
	db := r.db.WithContext(ctx)

	var first []domain.HistoryEvent
	if err := db.Where("application_id = ?", id).Order("id ASC").Limit(1).Find(&first).Error; err != nil {
		return domain.WrapStorage("find first history event", err)
	}
	if len(first) == 0 {
		return nil
	}
	if err := db.Model(&domain.HistoryEvent{}).Where("id = ?", first[0].ID).Update("date", date).Error; err != nil {
		return domain.WrapStorage("rewrite first history event", err)
	}
	return nil
}

func (r *ApplicationRepository) updateColumns(ctx context.Context, id int64, updates map[string]interface{}) error {
	if err := r.db.WithContext(ctx).Model(&domain.Application{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return domain.WrapStorage("update application", err)
	}
	return nil
}

// Delete removes an application and all of its history events.
// Deleting an id that does not exist is not an error.
func (r *ApplicationRepository) Delete(ctx context.Context, id int64) error {
	return r.Transaction(ctx, func(tx *ApplicationRepository) error {
		db := tx.db.WithContext(ctx)
		if err := db.Where("application_id = ?", id).Delete(&domain.HistoryEvent{}).Error; err != nil {
			return domain.WrapStorage("delete history", err)
		}
		if err := db.Where("id = ?", id).Delete(&domain.Application{}).Error; err != nil {
			return domain.WrapStorage("delete application", err)
		}
		return nil
	})
}

// List returns every application, most recently touched first.
func (r *ApplicationRepository) List(ctx context.Context) ([]domain.Application, error) {
	apps := []domain.Application{}
	if err := r.db.WithContext(ctx).Order("last_updated DESC, id DESC").Find(&apps).Error; err != nil {
		return nil, domain.WrapStorage("list applications", err)
	}
	return apps, nil
}

// ListHistory returns the events of one application, newest first.
// An unknown id yields an empty slice.
func (r *ApplicationRepository) ListHistory(ctx context.Context, id int64) ([]domain.HistoryEvent, error) {
	events := []domain.HistoryEvent{}
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", id).
		Order("date DESC, id DESC").
		Find(&events).Error; err != nil {
		return nil, domain.WrapStorage("list history", err)
	}
	return events, nil
}

// ListGlobalHistory returns the most recent events across all applications,
// newest first, each joined with its application's company and title.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of events; non-positive means DefaultActivityLimit.
//
// Returns:
//   - []domain.ActivityEntry: activity feed entries.
//   - error: StorageError if the query fails.
func (r *ApplicationRepository) ListGlobalHistory(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	entries := []domain.ActivityEntry{}
	if err := r.db.WithContext(ctx).
		Table("history").
		Select("history.id, history.application_id, history.status, history.date, applications.company, applications.title").
		Joins("JOIN applications ON applications.id = history.application_id").
		Order("history.date DESC, history.id DESC").
		Limit(limit).
		Scan(&entries).Error; err != nil {
		return nil, domain.WrapStorage("list global history", err)
	}
	return entries, nil
}

// FindByNaturalKey returns the lowest-id application matching key, or nil.
// Normalized keys are compared with domain.NaturalKey on every stored row so
// that folding never depends on the SQL dialect.
func (r *ApplicationRepository) FindByNaturalKey(ctx context.Context, key domain.Key) (*domain.Application, error) {
	if key.Mode != domain.MatchNormalized {
		var apps []domain.Application
		if err := r.db.WithContext(ctx).
			Where("company = ? AND title = ?", key.Company, key.Title).
			Order("id ASC").Limit(1).
			Find(&apps).Error; err != nil {
			return nil, domain.WrapStorage("find by natural key", err)
		}
		if len(apps) == 0 {
			return nil, nil
		}
		return &apps[0], nil
	}

	var candidates []domain.Application
	if err := r.db.WithContext(ctx).
		Select("id", "company", "title").
		Order("id ASC").
		Find(&candidates).Error; err != nil {
		return nil, domain.WrapStorage("find by natural key", err)
	}
	for _, c := range candidates {
		if domain.NaturalKey(c.Company, c.Title, domain.MatchNormalized) == key {
			return r.GetByID(ctx, c.ID)
		}
	}
	return nil, nil
}

// MigrateStatus moves every application at from to to, appending one history
// event per moved application. All rows move or none do.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - from: status label being retired.
//   - to: replacement status label.
//
// Returns:
//   - int: number of applications moved.
//   - error: ValidationError for blank labels, StorageError otherwise.
func (r *ApplicationRepository) MigrateStatus(ctx context.Context, from, to string) (int, error) {
	if from == "" {
		return 0, &domain.ValidationError{Field: "from", Reason: "must not be empty"}
	}
	if to == "" {
		return 0, &domain.ValidationError{Field: "to", Reason: "must not be empty"}
	}
	if from == to {
		return 0, nil
	}

	moved := 0
	err := r.Transaction(ctx, func(tx *ApplicationRepository) error {
		var apps []domain.Application
		if err := tx.db.WithContext(ctx).Where("status = ?", from).Order("id ASC").Find(&apps).Error; err != nil {
			return domain.WrapStorage("find applications by status", err)
		}
		now := tx.Now()
		for i := range apps {
			if err := tx.updateColumns(ctx, apps[i].ID, map[string]interface{}{
				"status":       to,
				"last_updated": bumpTime(apps[i].LastUpdated, now),
			}); err != nil {
				return err
			}
			if err := tx.AppendEvent(ctx, apps[i].ID, to, now); err != nil {
				return err
			}
		}
		moved = len(apps)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}

// StatusCount is the number of applications currently at Status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// CountByStatus groups applications by their current status.
func (r *ApplicationRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	counts := []StatusCount{}
	if err := r.db.WithContext(ctx).
		Model(&domain.Application{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status ASC").
		Scan(&counts).Error; err != nil {
		return nil, domain.WrapStorage("count by status", err)
	}
	return counts, nil
}

// Snapshot reads all applications and all history events in one read
// transaction so both slices describe the same state.
func (r *ApplicationRepository) Snapshot(ctx context.Context) ([]domain.Application, []domain.HistoryEvent, error) {
	apps := []domain.Application{}
	events := []domain.HistoryEvent{}
	err := r.Transaction(ctx, func(tx *ApplicationRepository) error {
		if err := tx.db.WithContext(ctx).Order("id ASC").Find(&apps).Error; err != nil {
			return domain.WrapStorage("snapshot applications", err)
		}
		if err := tx.db.WithContext(ctx).Order("id ASC").Find(&events).Error; err != nil {
			return domain.WrapStorage("snapshot history", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return apps, events, nil
}

// bumpTime keeps last_updated non-decreasing when the clock steps backwards.
func bumpTime(previous, now time.Time) time.Time {
	if now.Before(previous) {
		return previous.UTC()
	}
	return now.UTC()
}
