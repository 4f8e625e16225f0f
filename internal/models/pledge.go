package models

import "time"

// Pledge is a supporter's contribution to a project. Its pledge type is
// copied from the project at creation time.
type Pledge struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Amount       int64     `gorm:"not null" json:"amount"`
	Comment      string    `gorm:"size:200" json:"comment"`
	Anonymous    bool      `gorm:"not null;default:false" json:"anonymous"`
	ProjectID    uint      `gorm:"not null;index" json:"project_id"`
	SupporterID  uint      `gorm:"not null;index" json:"supporter_id"`
	PledgeTypeID uint      `gorm:"not null;index" json:"pledge_type_id"`
	DateCreated  time.Time `gorm:"autoCreateTime;index" json:"date_created"`

	// Relationships
	Project    *Project    `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Supporter  *User       `gorm:"foreignKey:SupporterID" json:"supporter,omitempty"`
	PledgeType *PledgeType `gorm:"foreignKey:PledgeTypeID" json:"pledge_type,omitempty"`
}

// TableName specifies the table name for GORM
func (Pledge) TableName() string {
	return "pledges"
}

// PledgeTotals is the aggregate of a project's pledges.
type PledgeTotals struct {
	Amount int64
	Count  int64
}
