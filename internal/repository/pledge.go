package repository

import (
	"context"

	"crelo/internal/models"

	"gorm.io/gorm"
)

// PledgeRepository defines persistence operations for pledges.
type PledgeRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Pledge, error)
	ListByProject(ctx context.Context, projectID uint, limit, offset int) ([]models.Pledge, error)
	ListBySupporter(ctx context.Context, supporterID uint, limit, offset int) ([]models.Pledge, error)
	// Totals aggregates SUM(amount) and COUNT(*) of a project's pledges.
	Totals(ctx context.Context, projectID uint) (models.PledgeTotals, error)
	Create(ctx context.Context, pledge *models.Pledge) error
	Delete(ctx context.Context, id uint) error
}

type pledgeRepository struct {
	db    *gorm.DB
	reads *gorm.DB
}

// NewPledgeRepository returns a PledgeRepository outside of any transaction.
func NewPledgeRepository(db *gorm.DB) PledgeRepository {
	return &pledgeRepository{db: db, reads: readDB(db)}
}

func (r *pledgeRepository) GetByID(ctx context.Context, id uint) (*models.Pledge, error) {
	var pledge models.Pledge
	if err := r.reads.WithContext(ctx).Preload("Supporter").Preload("PledgeType").First(&pledge, id).Error; err != nil {
		return nil, findError(err, "Pledge", id)
	}
	return &pledge, nil
}

func (r *pledgeRepository) ListByProject(ctx context.Context, projectID uint, limit, offset int) ([]models.Pledge, error) {
	return r.list(ctx, "project_id = ?", projectID, limit, offset)
}

func (r *pledgeRepository) ListBySupporter(ctx context.Context, supporterID uint, limit, offset int) ([]models.Pledge, error) {
	return r.list(ctx, "supporter_id = ?", supporterID, limit, offset)
}

func (r *pledgeRepository) list(ctx context.Context, where string, id uint, limit, offset int) ([]models.Pledge, error) {
	limit, offset = clampPage(limit, offset)
	var pledges []models.Pledge
	err := r.reads.WithContext(ctx).
		Preload("Supporter").
		Preload("PledgeType").
		Where(where, id).
		Order("date_created DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&pledges).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return pledges, nil
}

func (r *pledgeRepository) Totals(ctx context.Context, projectID uint) (models.PledgeTotals, error) {
	var totals models.PledgeTotals
	err := r.reads.WithContext(ctx).
		Model(&models.Pledge{}).
		Select("COALESCE(SUM(amount), 0) AS amount, COUNT(*) AS count").
		Where("project_id = ?", projectID).
		Scan(&totals).Error
	if err != nil {
		return models.PledgeTotals{}, models.NewInternalError(err)
	}
	return totals, nil
}

func (r *pledgeRepository) Create(ctx context.Context, pledge *models.Pledge) error {
	if err := r.db.WithContext(ctx).Omit("Project", "Supporter", "PledgeType").Create(pledge).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *pledgeRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Pledge{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Pledge", id)
	}
	return nil
}
