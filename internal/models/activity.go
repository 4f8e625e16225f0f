package models

import "time"

// ActivityAction names the kind of event an Activity records.
type ActivityAction string

const (
	// ActivityProjectCreated is posted when a project is created.
	ActivityProjectCreated ActivityAction = "project-created"
	// ActivityProgressUpdate is posted when an owner writes a progress update.
	ActivityProgressUpdate ActivityAction = "progress-update"
	// ActivityMilestone is derived from the pledged percentage and may be retracted.
	ActivityMilestone ActivityAction = "milestone"
	// ActivityLastChance is derived from the due date and may be retracted.
	ActivityLastChance ActivityAction = "last-chance"
)

// Activity is an entry in a location's feed.
type Activity struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Action      ActivityAction `gorm:"size:32;not null;index" json:"action"`
	Info        string         `gorm:"size:200" json:"info"`
	Image       string         `gorm:"size:500" json:"image"`
	DateCreated time.Time      `gorm:"autoCreateTime;index" json:"date_created"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	LocationID  uint           `gorm:"not null;index" json:"location_id"`
	ProjectID   uint           `gorm:"not null;index" json:"project_id"`

	// Relationships
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Location *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Project  *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

// TableName specifies the table name for GORM
func (Activity) TableName() string {
	return "activities"
}

// Retractable reports whether the action is derived state that the
// activity rules may delete again.
func (a ActivityAction) Retractable() bool {
	return a == ActivityMilestone || a == ActivityLastChance
}
