package models

import "time"

// ProgressUpdate is a news post written by a project's owner.
type ProgressUpdate struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProjectID   uint      `gorm:"not null;index" json:"project_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Image       string    `gorm:"size:500" json:"image"`
	DateCreated time.Time `gorm:"autoCreateTime;index" json:"date_created"`
	UpdatedAt   time.Time `json:"updated_at"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

// TableName specifies the table name for GORM
func (ProgressUpdate) TableName() string {
	return "progress_updates"
}
