// Package repository implements the data access layer for the application.
package repository

import (
	"crelo/internal/database"

	"gorm.io/gorm"
)

// Pagination bounds shared by list queries.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// clampPage normalizes limit/offset for list queries.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
