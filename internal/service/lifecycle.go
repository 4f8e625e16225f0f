package service

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"crelo/internal/lifecycle"
	"crelo/internal/middleware"
	"crelo/internal/models"
	"crelo/internal/observability"
	"crelo/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// maxInfoLength matches the activities.info column.
const maxInfoLength = 200

// ProjectStats is a project together with the values derived from its pledges.
type ProjectStats struct {
	Project    models.Project
	Totals     models.PledgeTotals
	Percentage float64
	IsOpen     bool
}

// refresh re-derives milestone and last-chance state for project inside tx
// and persists whatever changed. project is updated in place.
func refresh(ctx context.Context, tx repository.Store, project *models.Project, now time.Time) (ProjectStats, error) {
	ctx, finish := observability.StartSpan(ctx, "lifecycle.refresh", attribute.Int("project.id", int(project.ID)))
	stats, err := refreshProject(ctx, tx, project, now)
	finish(err)
	return stats, err
}

func refreshProject(ctx context.Context, tx repository.Store, project *models.Project, now time.Time) (ProjectStats, error) {
	totals, err := tx.Pledges().Totals(ctx, project.ID)
	if err != nil {
		return ProjectStats{}, err
	}

	state := lifecycle.StateOf(project, totals)
	plan := lifecycle.Evaluate(state, now)

	if plan.Changed(state) {
		if err := applyPlan(ctx, tx, project, plan); err != nil {
			return ProjectStats{}, err
		}
	}

	return ProjectStats{
		Project:    *project,
		Totals:     totals,
		Percentage: state.Percentage,
		IsOpen:     project.IsOpen(now),
	}, nil
}

func applyPlan(ctx context.Context, tx repository.Store, project *models.Project, plan lifecycle.Plan) error {
	for _, r := range plan.Retract {
		n, err := tx.Activities().DeleteDerived(ctx, project.ID, r.Action, r.Info)
		if err != nil {
			return err
		}
		if n == 0 {
			middleware.Logger.WarnContext(ctx, "derived activity already gone",
				slog.Uint64("project_id", uint64(project.ID)),
				slog.String("action", string(r.Action)),
				slog.String("info", r.Info),
			)
			continue
		}
		observability.ActivitiesRetracted.WithLabelValues(string(r.Action)).Inc()
		middleware.Logger.InfoContext(ctx, "activity retracted",
			slog.Uint64("project_id", uint64(project.ID)),
			slog.String("action", string(r.Action)),
			slog.String("info", r.Info),
		)
	}

	if len(plan.Emit) > 0 {
		owner, err := ownerOf(ctx, tx, project)
		if err != nil {
			return err
		}
		for _, e := range plan.Emit {
			if err := postActivity(ctx, tx, project, owner, e.Action, e.Info); err != nil {
				return err
			}
		}
	}

	if err := tx.Projects().SaveLifecycle(ctx, project.ID, plan.LastMilestone, plan.LastChanceTriggered); err != nil {
		return err
	}
	project.LastMilestone = plan.LastMilestone
	project.LastChanceTriggered = plan.LastChanceTriggered
	return nil
}

func ownerOf(ctx context.Context, tx repository.Store, project *models.Project) (*models.User, error) {
	if project.Owner != nil && project.Owner.ID == project.OwnerID {
		return project.Owner, nil
	}
	return tx.Users().GetByID(ctx, project.OwnerID)
}

// postActivity records a feed entry for project. Feeds are grouped by the
// owner's location.
func postActivity(ctx context.Context, tx repository.Store, project *models.Project, owner *models.User, action models.ActivityAction, info string) error {
	activity := &models.Activity{
		Action:     action,
		Info:       truncate(info, maxInfoLength),
		Image:      project.Image,
		UserID:     owner.ID,
		LocationID: owner.LocationID,
		ProjectID:  project.ID,
	}
	if err := tx.Activities().Create(ctx, activity); err != nil {
		return err
	}
	observability.ActivitiesEmitted.WithLabelValues(string(action)).Inc()
	middleware.Logger.InfoContext(ctx, "activity posted",
		slog.Uint64("project_id", uint64(project.ID)),
		slog.String("action", string(action)),
		slog.String("info", activity.Info),
	)
	return nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
