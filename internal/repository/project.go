package repository

import (
	"context"
	"time"

	"crelo/internal/models"

	"gorm.io/gorm"
)

// ProjectFilter narrows ProjectRepository.List. Zero values mean "any".
type ProjectFilter struct {
	LocationID  uint
	CategoryIDs []uint
	OwnerID     uint
	// OpenAt keeps only projects whose due date is after this instant.
	OpenAt *time.Time
	Limit  int
	Offset int
}

// ProjectRepository defines persistence operations for projects.
type ProjectRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]models.Project, error)
	Create(ctx context.Context, project *models.Project) error
	// Update writes the owner-editable columns.
	Update(ctx context.Context, project *models.Project) error
	// SaveLifecycle writes the derived milestone and last-chance state.
	SaveLifecycle(ctx context.Context, id uint, lastMilestone int, lastChanceTriggered bool) error
	SetViewCount(ctx context.Context, id uint, count int64) error
	SetPledgeCount(ctx context.Context, id uint, count int64) error
	// Delete removes the project with its pledges, progress updates and activities.
	Delete(ctx context.Context, id uint) error
}

type projectRepository struct {
	db    *gorm.DB
	reads *gorm.DB
}

// NewProjectRepository returns a ProjectRepository outside of any transaction.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db, reads: readDB(db)}
}

func withProjectRefs(db *gorm.DB) *gorm.DB {
	return db.Preload("Owner").Preload("Location").Preload("Category").Preload("PledgeType")
}

func (r *projectRepository) GetByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := withProjectRefs(r.reads.WithContext(ctx)).First(&project, id).Error; err != nil {
		return nil, findError(err, "Project", id)
	}
	return &project, nil
}

func (r *projectRepository) List(ctx context.Context, filter ProjectFilter) ([]models.Project, error) {
	limit, offset := clampPage(filter.Limit, filter.Offset)
	q := withProjectRefs(r.reads.WithContext(ctx)).Model(&models.Project{})

	if filter.LocationID != 0 {
		q = q.Where("location_id = ?", filter.LocationID)
	}
	if filter.CategoryIDs != nil {
		if len(filter.CategoryIDs) == 0 {
			return []models.Project{}, nil
		}
		q = q.Where("category_id IN ?", filter.CategoryIDs)
	}
	if filter.OwnerID != 0 {
		q = q.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.OpenAt != nil {
		q = q.Where("due_date > ?", *filter.OpenAt)
	}

	var projects []models.Project
	if err := q.Order("date_created DESC, id DESC").Limit(limit).Offset(offset).Find(&projects).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return projects, nil
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	if err := r.db.WithContext(ctx).Omit("Owner", "Location", "Category", "PledgeType").Create(project).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	err := r.db.WithContext(ctx).Model(project).
		Select("title", "venue", "description", "goal_amount", "image", "due_date", "category_id", "pledge_type_id", "updated_at").
		Updates(project).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *projectRepository) SaveLifecycle(ctx context.Context, id uint, lastMilestone int, lastChanceTriggered bool) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"last_milestone":        lastMilestone,
		"last_chance_triggered": lastChanceTriggered,
	})
}

func (r *projectRepository) SetViewCount(ctx context.Context, id uint, count int64) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"view_count": count})
}

func (r *projectRepository) SetPledgeCount(ctx context.Context, id uint, count int64) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"pledge_count": count})
}

// updateColumns skips hooks and updated_at; derived state is not an edit.
func (r *projectRepository) updateColumns(ctx context.Context, id uint, values map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).UpdateColumns(values)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Project", id)
	}
	return nil
}

func (r *projectRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Project{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return models.NewNotFoundError("Project", id)
		}
		return deleteProjects(tx, "id = ?", id)
	})
	return passThrough(err)
}

// deleteProjects removes the matching projects and everything that hangs off them.
func deleteProjects(tx *gorm.DB, query string, args ...interface{}) error {
	var ids []uint
	if err := tx.Model(&models.Project{}).Where(query, args...).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	for _, child := range []interface{}{&models.Pledge{}, &models.ProgressUpdate{}, &models.Activity{}} {
		if err := tx.Where("project_id IN ?", ids).Delete(child).Error; err != nil {
			return err
		}
	}
	return tx.Where("id IN ?", ids).Delete(&models.Project{}).Error
}
