package database

import "crelo/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models,
// parents before children.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Location{},
		&models.ProjectCategory{},
		&models.PledgeType{},
		&models.User{},
		&models.Project{},
		&models.Pledge{},
		&models.ProgressUpdate{},
		&models.Activity{},
	}
}
