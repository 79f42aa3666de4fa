package domain

import "time"

// JobStatus represents the outcome of an import run.
type JobStatus string

const (
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// ImportJob records one bulk import run and its reconciliation counts.
// It is written after the data transaction finishes and never affects it.
type ImportJob struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	SourceID    string    `gorm:"type:text;not null;index" json:"source_id"`
	Status      JobStatus `gorm:"type:text;not null" json:"status"`
	TotalRows   int       `gorm:"default:0" json:"total_rows"`
	Added       int       `gorm:"default:0" json:"added"`
	Updated     int       `gorm:"default:0" json:"updated"`
	Skipped     int       `gorm:"default:0" json:"skipped"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	ErrorLog    string    `gorm:"type:text" json:"error_log,omitempty"`
}

// TableName returns the database table name for ImportJob.
func (ImportJob) TableName() string {
	return "import_jobs"
}

// ImportResult is the reconciliation outcome of one batch.
// Skipped counts rows dropped for a missing company or title.
type ImportResult struct {
	JobID   string `json:"job_id,omitempty"`
	Added   int    `json:"added"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
}
