package service

import (
	"context"

	"crelo/internal/models"
	"crelo/internal/repository"
)

type ActivityService struct {
	store repository.Store
}

func NewActivityService(store repository.Store) *ActivityService {
	return &ActivityService{store: store}
}

// GlobalFeed returns the newest activities across all locations.
func (s *ActivityService) GlobalFeed(ctx context.Context, limit, offset int) ([]models.Activity, error) {
	return s.store.Activities().List(ctx, 0, limit, offset)
}

// LocationFeed returns the newest activities of one location.
func (s *ActivityService) LocationFeed(ctx context.Context, locationID uint, limit, offset int) ([]models.Activity, error) {
	if _, err := s.store.Locations().GetByID(ctx, locationID); err != nil {
		return nil, err
	}
	return s.store.Activities().List(ctx, locationID, limit, offset)
}
