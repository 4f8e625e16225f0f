// Package models contains data structures for the application's domain models.
package models

import "time"

// Location is a place projects and users belong to. Activity feeds are
// grouped by location.
type Location struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Location) TableName() string {
	return "locations"
}

// ProjectCategory classifies projects and drives favourite filtering.
type ProjectCategory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:80;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (ProjectCategory) TableName() string {
	return "project_categories"
}

// PledgeType labels what a project accepts (money, time, goods, ...).
type PledgeType struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Type      string    `gorm:"column:type;size:50;not null" json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (PledgeType) TableName() string {
	return "pledge_types"
}
