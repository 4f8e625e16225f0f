package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"crelo/internal/models"
	"crelo/internal/observability"
	"crelo/internal/repository"
	"crelo/internal/validation"
)

type PledgeService struct {
	store   repository.Store
	isAdmin func(ctx context.Context, userID uint) (bool, error)
	now     func() time.Time
}

type CreatePledgeInput struct {
	SupporterID uint
	ProjectID   uint
	Amount      int64
	Comment     string
	Anonymous   bool
}

type DeletePledgeInput struct {
	UserID    uint
	ProjectID uint
	PledgeID  uint
}

func NewPledgeService(
	store repository.Store,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *PledgeService {
	return &PledgeService{store: store, isAdmin: isAdmin, now: systemNow}
}

// WithClock replaces the time source; used by tests.
func (s *PledgeService) WithClock(now func() time.Time) *PledgeService {
	s.now = now
	return s
}

func (s *PledgeService) ListPledges(ctx context.Context, projectID uint, limit, offset int) ([]models.Pledge, error) {
	if _, err := s.store.Projects().GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.Pledges().ListByProject(ctx, projectID, limit, offset)
}

// ListBySupporter returns the pledges a user made.
func (s *PledgeService) ListBySupporter(ctx context.Context, supporterID uint, limit, offset int) ([]models.Pledge, error) {
	return s.store.Pledges().ListBySupporter(ctx, supporterID, limit, offset)
}

// GetPledge returns a pledge only when it belongs to the given project.
func (s *PledgeService) GetPledge(ctx context.Context, projectID, pledgeID uint) (*models.Pledge, error) {
	pledge, err := s.store.Pledges().GetByID(ctx, pledgeID)
	if err != nil {
		return nil, err
	}
	if pledge.ProjectID != projectID {
		return nil, models.NewNotFoundError("Pledge", pledgeID)
	}
	return pledge, nil
}

// CreatePledge records a pledge on an open project. The pledge type is
// copied from the project; pledge_count and derived activities follow.
func (s *PledgeService) CreatePledge(ctx context.Context, in CreatePledgeInput) (*models.Pledge, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	fields := validation.Fields{}
	fields.Check(in.Amount > 0, "amount", "Amount must be greater than zero")
	fields.Check(utf8.RuneCountInString(in.Comment) <= 200, "comment", "Comment must be at most 200 characters")
	if err := fields.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	var pledge *models.Pledge
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		project, err := tx.Projects().GetByID(ctx, in.ProjectID)
		if err != nil {
			return err
		}
		if !project.IsOpen(now) {
			return models.NewValidationError("Project is closed to new pledges")
		}

		pledge = &models.Pledge{
			Amount:       in.Amount,
			Comment:      in.Comment,
			Anonymous:    in.Anonymous,
			ProjectID:    project.ID,
			SupporterID:  in.SupporterID,
			PledgeTypeID: project.PledgeTypeID,
		}
		if err := tx.Pledges().Create(ctx, pledge); err != nil {
			return err
		}
		return s.afterPledgesChanged(ctx, tx, project, now)
	})
	if err != nil {
		return nil, err
	}

	observability.PledgesCreated.Inc()
	observability.PledgedAmount.Add(float64(in.Amount))
	return s.store.Pledges().GetByID(ctx, pledge.ID)
}

// DeletePledge removes a pledge. Only its supporter or an admin may do so.
func (s *PledgeService) DeletePledge(ctx context.Context, in DeletePledgeInput) error {
	now := s.now()
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		pledge, err := tx.Pledges().GetByID(ctx, in.PledgeID)
		if err != nil {
			return err
		}
		if pledge.ProjectID != in.ProjectID {
			return models.NewNotFoundError("Pledge", in.PledgeID)
		}
		ok, err := allowed(ctx, s.isAdmin, in.UserID, pledge.SupporterID)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewForbiddenError("Only the supporter or an admin can delete this pledge")
		}

		project, err := tx.Projects().GetByID(ctx, pledge.ProjectID)
		if err != nil {
			return err
		}
		if err := tx.Pledges().Delete(ctx, pledge.ID); err != nil {
			return err
		}
		return s.afterPledgesChanged(ctx, tx, project, now)
	})
}

// afterPledgesChanged refreshes pledge_count from the aggregate and
// re-derives milestones.
func (s *PledgeService) afterPledgesChanged(ctx context.Context, tx repository.Store, project *models.Project, now time.Time) error {
	totals, err := tx.Pledges().Totals(ctx, project.ID)
	if err != nil {
		return err
	}
	if err := tx.Projects().SetPledgeCount(ctx, project.ID, totals.Count); err != nil {
		return err
	}
	project.PledgeCount = totals.Count
	_, err = refresh(ctx, tx, project, now)
	return err
}
