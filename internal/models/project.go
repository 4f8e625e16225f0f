package models

import "time"

// Project is a fundraising campaign owned by a user.
type Project struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Venue       string    `gorm:"size:200" json:"venue"`
	Description string    `gorm:"type:text;not null" json:"description"`
	GoalAmount  int64     `gorm:"not null" json:"goal_amount"`
	Image       string    `gorm:"size:500" json:"image"`
	DueDate     time.Time `gorm:"not null;index" json:"due_date"`
	DateCreated time.Time `gorm:"autoCreateTime;index" json:"date_created"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Derived bookkeeping maintained by the activity rules.
	LastMilestone       int  `gorm:"not null;default:0" json:"last_milestone"`
	LastChanceTriggered bool `gorm:"not null;default:false" json:"last_chance_triggered"`

	// Engagement counters. Updated without locking; last write wins.
	ViewCount   int64 `gorm:"not null;default:0" json:"view_count"`
	PledgeCount int64 `gorm:"not null;default:0" json:"pledge_count"`

	OwnerID      uint `gorm:"not null;index" json:"owner_id"`
	LocationID   uint `gorm:"not null;index" json:"location_id"`
	CategoryID   uint `gorm:"not null;index" json:"category_id"`
	PledgeTypeID uint `gorm:"not null;index" json:"pledge_type_id"`

	// Relationships
	Owner      *User            `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Location   *Location        `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Category   *ProjectCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	PledgeType *PledgeType      `gorm:"foreignKey:PledgeTypeID" json:"pledge_type,omitempty"`
}

// TableName specifies the table name for GORM
func (Project) TableName() string {
	return "projects"
}

// IsOpen reports whether the project still accepts pledges at now.
func (p *Project) IsOpen(now time.Time) bool {
	return p.DueDate.After(now)
}
