package repository

import (
	"context"

	"crelo/internal/models"

	"gorm.io/gorm"
)

// ActivityRepository defines persistence operations for feed activities.
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	// DeleteDerived removes a project's activities with the given action.
	// An empty info matches any info. It reports how many rows went away.
	// Only retractable actions may be deleted.
	DeleteDerived(ctx context.Context, projectID uint, action models.ActivityAction, info string) (int64, error)
	// List returns the newest activities, optionally for one location.
	List(ctx context.Context, locationID uint, limit, offset int) ([]models.Activity, error)
	ListByProject(ctx context.Context, projectID uint) ([]models.Activity, error)
}

type activityRepository struct {
	db    *gorm.DB
	reads *gorm.DB
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if err := r.db.WithContext(ctx).Omit("User", "Location", "Project").Create(activity).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *activityRepository) DeleteDerived(ctx context.Context, projectID uint, action models.ActivityAction, info string) (int64, error) {
	if !action.Retractable() {
		return 0, models.NewValidationError("activity action " + string(action) + " cannot be retracted")
	}
	q := r.db.WithContext(ctx).Where("project_id = ? AND action = ?", projectID, action)
	if info != "" {
		q = q.Where("info = ?", info)
	}
	res := q.Delete(&models.Activity{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *activityRepository) List(ctx context.Context, locationID uint, limit, offset int) ([]models.Activity, error) {
	limit, offset = clampPage(limit, offset)
	q := r.reads.WithContext(ctx).Preload("User").Preload("Project")
	if locationID != 0 {
		q = q.Where("location_id = ?", locationID)
	}
	var activities []models.Activity
	if err := q.Order("date_created DESC, id DESC").Limit(limit).Offset(offset).Find(&activities).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return activities, nil
}

func (r *activityRepository) ListByProject(ctx context.Context, projectID uint) ([]models.Activity, error) {
	var activities []models.Activity
	if err := r.reads.WithContext(ctx).Where("project_id = ?", projectID).Order("id ASC").Find(&activities).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return activities, nil
}
