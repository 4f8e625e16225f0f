package service

import (
	"context"
	"strings"
	"time"

	"crelo/internal/models"
	"crelo/internal/repository"
	"crelo/internal/validation"
)

type ProgressUpdateService struct {
	store repository.Store
	now   func() time.Time
}

type CreateProgressUpdateInput struct {
	UserID    uint
	ProjectID uint
	Content   string
	Image     string
}

// UpdateProgressUpdateInput is a partial update; nil fields are left unchanged.
type UpdateProgressUpdateInput struct {
	UserID    uint
	ProjectID uint
	UpdateID  uint
	Content   *string
	Image     *string
}

type DeleteProgressUpdateInput struct {
	UserID    uint
	ProjectID uint
	UpdateID  uint
}

func NewProgressUpdateService(store repository.Store) *ProgressUpdateService {
	return &ProgressUpdateService{store: store, now: systemNow}
}

// WithClock replaces the time source; used by tests.
func (s *ProgressUpdateService) WithClock(now func() time.Time) *ProgressUpdateService {
	s.now = now
	return s
}

func (s *ProgressUpdateService) ListUpdates(ctx context.Context, projectID uint, limit, offset int) ([]models.ProgressUpdate, error) {
	if _, err := s.store.Projects().GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ProgressUpdates().ListByProject(ctx, projectID, limit, offset)
}

func (s *ProgressUpdateService) GetUpdate(ctx context.Context, projectID, updateID uint) (*models.ProgressUpdate, error) {
	update, err := s.store.ProgressUpdates().GetByID(ctx, updateID)
	if err != nil {
		return nil, err
	}
	if update.ProjectID != projectID {
		return nil, models.NewNotFoundError("Progress update", updateID)
	}
	return update, nil
}

// CreateUpdate posts news on an open project and announces it in the feed.
func (s *ProgressUpdateService) CreateUpdate(ctx context.Context, in CreateProgressUpdateInput) (*models.ProgressUpdate, error) {
	in.Content = strings.TrimSpace(in.Content)
	in.Image = strings.TrimSpace(in.Image)
	if err := checkUpdateFields(in.Content, in.Image); err != nil {
		return nil, err
	}

	now := s.now()
	update := &models.ProgressUpdate{ProjectID: in.ProjectID, Content: in.Content, Image: in.Image}
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		project, err := tx.Projects().GetByID(ctx, in.ProjectID)
		if err != nil {
			return err
		}
		if project.OwnerID != in.UserID {
			return models.NewForbiddenError("Only the project owner can post progress updates")
		}
		if !project.IsOpen(now) {
			return models.NewValidationError("Project is closed")
		}

		if err := tx.ProgressUpdates().Create(ctx, update); err != nil {
			return err
		}
		owner, err := ownerOf(ctx, tx, project)
		if err != nil {
			return err
		}
		// The feed shows the update's own image when it has one.
		announced := *project
		if update.Image != "" {
			announced.Image = update.Image
		}
		return postActivity(ctx, tx, &announced, owner, models.ActivityProgressUpdate, update.Content)
	})
	if err != nil {
		return nil, err
	}
	return update, nil
}

func (s *ProgressUpdateService) UpdateUpdate(ctx context.Context, in UpdateProgressUpdateInput) (*models.ProgressUpdate, error) {
	var update *models.ProgressUpdate
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		update, err = s.ownedUpdate(ctx, tx, in.UserID, in.ProjectID, in.UpdateID)
		if err != nil {
			return err
		}
		if in.Content != nil {
			update.Content = strings.TrimSpace(*in.Content)
		}
		if in.Image != nil {
			update.Image = strings.TrimSpace(*in.Image)
		}
		if err := checkUpdateFields(update.Content, update.Image); err != nil {
			return err
		}
		return tx.ProgressUpdates().Update(ctx, update)
	})
	if err != nil {
		return nil, err
	}
	return update, nil
}

func (s *ProgressUpdateService) DeleteUpdate(ctx context.Context, in DeleteProgressUpdateInput) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := s.ownedUpdate(ctx, tx, in.UserID, in.ProjectID, in.UpdateID); err != nil {
			return err
		}
		return tx.ProgressUpdates().Delete(ctx, in.UpdateID)
	})
}

func (s *ProgressUpdateService) ownedUpdate(ctx context.Context, tx repository.Store, userID, projectID, updateID uint) (*models.ProgressUpdate, error) {
	project, err := tx.Projects().GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	update, err := tx.ProgressUpdates().GetByID(ctx, updateID)
	if err != nil {
		return nil, err
	}
	if update.ProjectID != project.ID {
		return nil, models.NewNotFoundError("Progress update", updateID)
	}
	if project.OwnerID != userID {
		return nil, models.NewForbiddenError("Only the project owner can change progress updates")
	}
	return update, nil
}

func checkUpdateFields(content, image string) error {
	fields := validation.Fields{}
	fields.Check(content != "", "content", "Content is required")
	fields.Check(validURL(image), "image", "Image must be an http(s) URL")
	return fields.Err()
}
