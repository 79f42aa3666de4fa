package domain

import "time"

// SettingStatusCatalog is the settings key holding the ordered status labels.
const SettingStatusCatalog = "status_catalog"

// Setting is one entry of the key-value settings store. Value is JSON text.
type Setting struct {
	Key       string    `gorm:"type:text;primaryKey" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Setting.
func (Setting) TableName() string {
	return "settings"
}
