package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"crelo/internal/lifecycle"
	"crelo/internal/models"
	"crelo/internal/observability"
	"crelo/internal/repository"
	"crelo/internal/validation"
)

type ProjectService struct {
	store   repository.Store
	isAdmin func(ctx context.Context, userID uint) (bool, error)
	now     func() time.Time
}

type CreateProjectInput struct {
	OwnerID     uint
	Title       string
	Venue       string
	Description string
	GoalAmount  int64
	Image       string
	DueDate     time.Time
	// LocationID defaults to the owner's location when zero.
	LocationID   uint
	CategoryID   uint
	PledgeTypeID uint
}

// UpdateProjectInput is a partial update; nil fields are left unchanged.
type UpdateProjectInput struct {
	UserID       uint
	ProjectID    uint
	Title        *string
	Venue        *string
	Description  *string
	GoalAmount   *int64
	Image        *string
	DueDate      *time.Time
	CategoryID   *uint
	PledgeTypeID *uint
}

type DeleteProjectInput struct {
	UserID    uint
	ProjectID uint
}

type ListProjectsInput struct {
	Limit  int
	Offset int
}

type FavouriteProjectsInput struct {
	UserID uint
	// LocationID overrides the user's own location when non-zero.
	LocationID uint
	Limit      int
	Offset     int
}

type GetProjectInput struct {
	ProjectID uint
	// ViewerID is zero for anonymous callers.
	ViewerID uint
}

// Analytics is the owner-only engagement summary of a project.
type Analytics struct {
	PledgeCount    int64
	ViewCount      int64
	ConversionRate float64
	AveragePledge  float64
}

// ProjectDetail is everything the detail endpoint renders.
type ProjectDetail struct {
	ProjectStats
	// Pledges and ProgressUpdates hold at most repository.MaxLimit of the
	// newest rows; the per-project list endpoints page through the rest.
	Pledges         []models.Pledge
	ProgressUpdates []models.ProgressUpdate
	Activities      []models.Activity
	// Analytics is set only when the viewer owns the project.
	Analytics *Analytics
}

func NewProjectService(
	store repository.Store,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *ProjectService {
	return &ProjectService{store: store, isAdmin: isAdmin, now: systemNow}
}

// WithClock replaces the time source; used by tests.
func (s *ProjectService) WithClock(now func() time.Time) *ProjectService {
	s.now = now
	return s
}

// ListProjects returns every project, newest first, with derived state refreshed.
func (s *ProjectService) ListProjects(ctx context.Context, in ListProjectsInput) ([]ProjectStats, error) {
	return s.list(ctx, repository.ProjectFilter{Limit: in.Limit, Offset: in.Offset})
}

// ListOpenByLocation returns the open projects in a location.
func (s *ProjectService) ListOpenByLocation(ctx context.Context, locationID uint, limit, offset int) ([]ProjectStats, error) {
	if _, err := s.store.Locations().GetByID(ctx, locationID); err != nil {
		return nil, err
	}
	now := s.now()
	return s.list(ctx, repository.ProjectFilter{LocationID: locationID, OpenAt: &now, Limit: limit, Offset: offset})
}

// ListOpenByLocationAndCategory returns the open projects of one category in a location.
func (s *ProjectService) ListOpenByLocationAndCategory(ctx context.Context, locationID, categoryID uint, limit, offset int) ([]ProjectStats, error) {
	if _, err := s.store.Locations().GetByID(ctx, locationID); err != nil {
		return nil, err
	}
	if _, err := s.store.Categories().GetByID(ctx, categoryID); err != nil {
		return nil, err
	}
	now := s.now()
	return s.list(ctx, repository.ProjectFilter{
		LocationID:  locationID,
		CategoryIDs: []uint{categoryID},
		OpenAt:      &now,
		Limit:       limit,
		Offset:      offset,
	})
}

// ListFavourites returns open projects in a location whose category is one of
// the user's favourites. No favourites means no projects.
func (s *ProjectService) ListFavourites(ctx context.Context, in FavouriteProjectsInput) ([]ProjectStats, error) {
	user, err := s.store.Users().GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	locationID := user.LocationID
	if in.LocationID != 0 {
		if _, err := s.store.Locations().GetByID(ctx, in.LocationID); err != nil {
			return nil, err
		}
		locationID = in.LocationID
	}

	now := s.now()
	return s.list(ctx, repository.ProjectFilter{
		LocationID:  locationID,
		CategoryIDs: user.FavouriteCategoryIDs(),
		OpenAt:      &now,
		Limit:       in.Limit,
		Offset:      in.Offset,
	})
}

// ListByOwner returns the projects a user owns.
func (s *ProjectService) ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]ProjectStats, error) {
	return s.list(ctx, repository.ProjectFilter{OwnerID: ownerID, Limit: limit, Offset: offset})
}

func (s *ProjectService) list(ctx context.Context, filter repository.ProjectFilter) ([]ProjectStats, error) {
	if filter.CategoryIDs != nil && len(filter.CategoryIDs) == 0 {
		return []ProjectStats{}, nil
	}
	now := s.now()
	out := []ProjectStats{}
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		projects, err := tx.Projects().List(ctx, filter)
		if err != nil {
			return err
		}
		for i := range projects {
			stats, err := refresh(ctx, tx, &projects[i], now)
			if err != nil {
				return err
			}
			out = append(out, stats)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetProject loads the detail read model. Viewers other than the owner,
// anonymous ones included, bump the view counter; the owner gets analytics.
func (s *ProjectService) GetProject(ctx context.Context, in GetProjectInput) (*ProjectDetail, error) {
	now := s.now()
	var detail ProjectDetail
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		project, err := tx.Projects().GetByID(ctx, in.ProjectID)
		if err != nil {
			return err
		}

		isOwner := in.ViewerID != 0 && in.ViewerID == project.OwnerID
		if !isOwner {
			// Read-modify-write; concurrent views may overwrite each other.
			project.ViewCount++
			if err := tx.Projects().SetViewCount(ctx, project.ID, project.ViewCount); err != nil {
				return err
			}
			observability.ProjectViews.Inc()
		}

		stats, err := refresh(ctx, tx, project, now)
		if err != nil {
			return err
		}
		detail.ProjectStats = stats

		if detail.Pledges, err = tx.Pledges().ListByProject(ctx, project.ID, repository.MaxLimit, 0); err != nil {
			return err
		}
		if detail.ProgressUpdates, err = tx.ProgressUpdates().ListByProject(ctx, project.ID, repository.MaxLimit, 0); err != nil {
			return err
		}
		if detail.Activities, err = tx.Activities().ListByProject(ctx, project.ID); err != nil {
			return err
		}
		if isOwner {
			a := ComputeAnalytics(project, stats.Totals)
			detail.Analytics = &a
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// ComputeAnalytics derives the owner analytics from stored counters and pledge totals.
func ComputeAnalytics(project *models.Project, totals models.PledgeTotals) Analytics {
	a := Analytics{
		PledgeCount: project.PledgeCount,
		ViewCount:   project.ViewCount,
	}
	if project.ViewCount > 0 {
		a.ConversionRate = lifecycle.Round(float64(project.PledgeCount)/float64(project.ViewCount)*100, 1)
	}
	if project.PledgeCount > 0 {
		a.AveragePledge = lifecycle.Round(float64(totals.Amount)/float64(project.PledgeCount), 2)
	}
	return a
}

func (s *ProjectService) CreateProject(ctx context.Context, in CreateProjectInput) (*ProjectStats, error) {
	now := s.now()
	in.Title = strings.TrimSpace(in.Title)
	in.Venue = strings.TrimSpace(in.Venue)
	in.Description = strings.TrimSpace(in.Description)
	in.Image = strings.TrimSpace(in.Image)

	fields := validation.Fields{}
	checkProjectFields(fields, in.Title, in.Venue, in.Description, in.GoalAmount, in.Image)
	fields.Check(!in.DueDate.IsZero(), "due_date", "Due date is required")
	fields.Check(in.DueDate.IsZero() || in.DueDate.After(now), "due_date", "Due date must be in the future")
	fields.Check(in.CategoryID != 0, "category_id", "Category is required")
	fields.Check(in.PledgeTypeID != 0, "pledge_type_id", "Pledge type is required")
	if err := fields.Err(); err != nil {
		return nil, err
	}

	var stats ProjectStats
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		owner, err := tx.Users().GetByID(ctx, in.OwnerID)
		if err != nil {
			return err
		}
		locationID := in.LocationID
		if locationID == 0 {
			locationID = owner.LocationID
		}
		if err := checkReferences(ctx, tx, locationID, in.CategoryID, in.PledgeTypeID); err != nil {
			return err
		}

		project := &models.Project{
			Title:        in.Title,
			Venue:        in.Venue,
			Description:  in.Description,
			GoalAmount:   in.GoalAmount,
			Image:        in.Image,
			DueDate:      in.DueDate.UTC(),
			OwnerID:      owner.ID,
			LocationID:   locationID,
			CategoryID:   in.CategoryID,
			PledgeTypeID: in.PledgeTypeID,
		}
		if err := tx.Projects().Create(ctx, project); err != nil {
			return err
		}
		if err := postActivity(ctx, tx, project, owner, models.ActivityProjectCreated, project.Title); err != nil {
			return err
		}

		// A due date inside the last-chance window fires right away.
		stats, err = refresh(ctx, tx, project, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, stats)
}

func (s *ProjectService) UpdateProject(ctx context.Context, in UpdateProjectInput) (*ProjectStats, error) {
	now := s.now()
	var stats ProjectStats
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		project, err := tx.Projects().GetByID(ctx, in.ProjectID)
		if err != nil {
			return err
		}
		if project.OwnerID != in.UserID {
			return models.NewForbiddenError("Only the project owner can edit this project")
		}

		if in.Title != nil {
			project.Title = strings.TrimSpace(*in.Title)
		}
		if in.Venue != nil {
			project.Venue = strings.TrimSpace(*in.Venue)
		}
		if in.Description != nil {
			project.Description = strings.TrimSpace(*in.Description)
		}
		if in.GoalAmount != nil {
			project.GoalAmount = *in.GoalAmount
		}
		if in.Image != nil {
			project.Image = strings.TrimSpace(*in.Image)
		}
		if in.DueDate != nil {
			project.DueDate = in.DueDate.UTC()
		}
		if in.CategoryID != nil {
			project.CategoryID = *in.CategoryID
			project.Category = nil
		}
		if in.PledgeTypeID != nil {
			project.PledgeTypeID = *in.PledgeTypeID
			project.PledgeType = nil
		}

		fields := validation.Fields{}
		checkProjectFields(fields, project.Title, project.Venue, project.Description, project.GoalAmount, project.Image)
		fields.Check(!project.DueDate.IsZero(), "due_date", "Due date is required")
		if err := fields.Err(); err != nil {
			return err
		}
		if err := checkReferences(ctx, tx, project.LocationID, project.CategoryID, project.PledgeTypeID); err != nil {
			return err
		}

		if err := tx.Projects().Update(ctx, project); err != nil {
			return err
		}
		stats, err = refresh(ctx, tx, project, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, stats)
}

// DeleteProject removes a project and everything attached to it. Owners and admins only.
func (s *ProjectService) DeleteProject(ctx context.Context, in DeleteProjectInput) error {
	project, err := s.store.Projects().GetByID(ctx, in.ProjectID)
	if err != nil {
		return err
	}
	ok, err := allowed(ctx, s.isAdmin, in.UserID, project.OwnerID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewForbiddenError("Only the project owner or an admin can delete this project")
	}
	return s.store.Projects().Delete(ctx, in.ProjectID)
}

// reload refetches the project so relationships reflect the committed row.
func (s *ProjectService) reload(ctx context.Context, stats ProjectStats) (*ProjectStats, error) {
	project, err := s.store.Projects().GetByID(ctx, stats.Project.ID)
	if err != nil {
		return nil, err
	}
	stats.Project = *project
	return &stats, nil
}

func checkProjectFields(fields validation.Fields, title, venue, description string, goal int64, image string) {
	fields.Check(title != "", "title", "Title is required")
	fields.Check(utf8.RuneCountInString(title) <= 200, "title", "Title must be at most 200 characters")
	fields.Check(utf8.RuneCountInString(venue) <= 200, "venue", "Venue must be at most 200 characters")
	fields.Check(description != "", "description", "Description is required")
	fields.Check(goal > 0, "goal_amount", "Goal amount must be greater than zero")
	fields.Check(validURL(image), "image", "Image must be an http(s) URL")
}

// checkReferences turns missing catalog rows into field errors.
func checkReferences(ctx context.Context, tx repository.Store, locationID, categoryID, pledgeTypeID uint) error {
	fields := validation.Fields{}
	if _, err := tx.Locations().GetByID(ctx, locationID); err != nil {
		if !models.IsCode(err, models.CodeNotFound) {
			return err
		}
		fields.Check(false, "location_id", "Location does not exist")
	}
	if _, err := tx.Categories().GetByID(ctx, categoryID); err != nil {
		if !models.IsCode(err, models.CodeNotFound) {
			return err
		}
		fields.Check(false, "category_id", "Category does not exist")
	}
	if _, err := tx.PledgeTypes().GetByID(ctx, pledgeTypeID); err != nil {
		if !models.IsCode(err, models.CodeNotFound) {
			return err
		}
		fields.Check(false, "pledge_type_id", "Pledge type does not exist")
	}
	return fields.Err()
}
