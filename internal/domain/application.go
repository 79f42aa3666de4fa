package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Built-in stage names. Status values are plain strings: the catalog offers
// these by default but rows may hold any label, including retired ones.
const (
	StatusApplied          = "Applied"
	StatusOnlineAssessment = "Online Assessment"
	StatusPhoneScreen      = "Phone Screen"
	StatusInterview        = "Interview"
	StatusOffer            = "Offer"
	StatusAccepted         = "Accepted"
	StatusRejected         = "Rejected"
	StatusWithdrawn        = "Withdrawn"
)

// DefaultStatuses is the catalog restored by a reset, in display order.
var DefaultStatuses = []string{
	StatusApplied,
	StatusOnlineAssessment,
	StatusPhoneScreen,
	StatusInterview,
	StatusOffer,
	StatusAccepted,
	StatusRejected,
	StatusWithdrawn,
}

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// Application is one tracked job application.
// Company and Title together form the natural key used by the importer.
type Application struct {
	ID               int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Company          string         `gorm:"type:text;not null;index:idx_applications_natural_key" json:"company"`
	Title            string         `gorm:"type:text;not null;index:idx_applications_natural_key" json:"title"`
	Status           string         `gorm:"type:text;not null;index:idx_applications_status" json:"status"`
	DateApplied      time.Time      `gorm:"not null" json:"date_applied"`
	ProcessSteps     StringArray    `gorm:"type:text" json:"process_steps"`
	CurrentStepIndex int            `gorm:"default:0" json:"current_step_index"`
	Outcome          string         `gorm:"type:text" json:"outcome,omitempty"`
	Notes            string         `gorm:"type:text" json:"notes"`
	LastUpdated      time.Time      `gorm:"not null;index:idx_applications_last_updated" json:"last_updated"`
	History          []HistoryEvent `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the database table name for Application.
func (Application) TableName() string {
	return "applications"
}

// HistoryEvent records the status an application held from Date onward.
// IDs increase in insertion order and break ties between equal dates.
type HistoryEvent struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ApplicationID int64     `gorm:"not null;index:idx_history_application" json:"application_id"`
	Status        string    `gorm:"type:text;not null" json:"status"`
	Date          time.Time `gorm:"not null;index:idx_history_date" json:"date"`
}

// TableName returns the database table name for HistoryEvent.
func (HistoryEvent) TableName() string {
	return "history"
}

// ActivityEntry is a history event joined with its application's display fields.
type ActivityEntry struct {
	HistoryEvent
	Company string `json:"company"`
	Title   string `json:"title"`
}

// ApplicationInput carries the fields of a new application.
// Nil optional fields take the creation defaults: status Applied, applied now.
type ApplicationInput struct {
	Company          string     `json:"company"`
	Title            string     `json:"title"`
	Status           *string    `json:"status,omitempty"`
	DateApplied      *time.Time `json:"date_applied,omitempty"`
	ProcessSteps     []string   `json:"process_steps,omitempty"`
	CurrentStepIndex int        `json:"current_step_index,omitempty"`
	Outcome          string     `json:"outcome,omitempty"`
	Notes            string     `json:"notes,omitempty"`
}

// Validate rejects inputs whose company or title is blank.
func (in *ApplicationInput) Validate() error {
	if strings.TrimSpace(in.Company) == "" {
		return &ValidationError{Field: "company", Reason: "must not be empty"}
	}
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	return nil
}

// Resolve applies the creation defaults and returns the application row to insert.
func (in *ApplicationInput) Resolve(now time.Time) Application {
	status := StatusApplied
	if in.Status != nil && *in.Status != "" {
		status = *in.Status
	}
	applied := now
	if in.DateApplied != nil && !in.DateApplied.IsZero() {
		applied = *in.DateApplied
	}
	steps := StringArray{}
	if len(in.ProcessSteps) > 0 {
		steps = append(steps, in.ProcessSteps...)
	}
	return Application{
		Company:          in.Company,
		Title:            in.Title,
		Status:           status,
		DateApplied:      applied.UTC(),
		ProcessSteps:     steps,
		CurrentStepIndex: in.CurrentStepIndex,
		Outcome:          in.Outcome,
		Notes:            in.Notes,
		LastUpdated:      now.UTC(),
	}
}

// ApplicationPatch lists the fields of an update. Nil fields are left untouched.
type ApplicationPatch struct {
	Company          *string    `json:"company,omitempty"`
	Title            *string    `json:"title,omitempty"`
	Status           *string    `json:"status,omitempty"`
	DateApplied      *time.Time `json:"date_applied,omitempty"`
	ProcessSteps     *[]string  `json:"process_steps,omitempty"`
	CurrentStepIndex *int       `json:"current_step_index,omitempty"`
	Outcome          *string    `json:"outcome,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
}

// Validate rejects patches that would blank the natural key.
func (p *ApplicationPatch) Validate() error {
	if p.Company != nil && strings.TrimSpace(*p.Company) == "" {
		return &ValidationError{Field: "company", Reason: "must not be empty"}
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if p.Status != nil && *p.Status == "" {
		return &ValidationError{Field: "status", Reason: "must not be empty"}
	}
	return nil
}
