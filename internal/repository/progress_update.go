package repository

import (
	"context"

	"crelo/internal/models"

	"gorm.io/gorm"
)

// ProgressUpdateRepository defines persistence operations for progress updates.
type ProgressUpdateRepository interface {
	GetByID(ctx context.Context, id uint) (*models.ProgressUpdate, error)
	ListByProject(ctx context.Context, projectID uint, limit, offset int) ([]models.ProgressUpdate, error)
	Create(ctx context.Context, update *models.ProgressUpdate) error
	Update(ctx context.Context, update *models.ProgressUpdate) error
	Delete(ctx context.Context, id uint) error
}

type progressUpdateRepository struct {
	db    *gorm.DB
	reads *gorm.DB
}

func (r *progressUpdateRepository) GetByID(ctx context.Context, id uint) (*models.ProgressUpdate, error) {
	var update models.ProgressUpdate
	if err := r.reads.WithContext(ctx).First(&update, id).Error; err != nil {
		return nil, findError(err, "Progress update", id)
	}
	return &update, nil
}

func (r *progressUpdateRepository) ListByProject(ctx context.Context, projectID uint, limit, offset int) ([]models.ProgressUpdate, error) {
	limit, offset = clampPage(limit, offset)
	var updates []models.ProgressUpdate
	err := r.reads.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("date_created DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&updates).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return updates, nil
}

func (r *progressUpdateRepository) Create(ctx context.Context, update *models.ProgressUpdate) error {
	if err := r.db.WithContext(ctx).Omit("Project").Create(update).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *progressUpdateRepository) Update(ctx context.Context, update *models.ProgressUpdate) error {
	if err := r.db.WithContext(ctx).Model(update).Select("content", "image", "updated_at").Updates(update).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *progressUpdateRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.ProgressUpdate{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Progress update", id)
	}
	return nil
}
