package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"crelo/internal/models"
	"crelo/internal/repository"
	"crelo/internal/validation"
)

// CatalogService manages locations, project categories and pledge types.
// Writes are admin-only; the HTTP layer enforces that.
type CatalogService struct {
	store repository.Store
}

func NewCatalogService(store repository.Store) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) ListLocations(ctx context.Context) ([]models.Location, error) {
	return s.store.Locations().List(ctx)
}

func (s *CatalogService) GetLocation(ctx context.Context, id uint) (*models.Location, error) {
	return s.store.Locations().GetByID(ctx, id)
}

func (s *CatalogService) CreateLocation(ctx context.Context, name string) (*models.Location, error) {
	name, err := catalogName("name", name, 200)
	if err != nil {
		return nil, err
	}
	location := &models.Location{Name: name}
	if err := s.store.Locations().Create(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

func (s *CatalogService) DeleteLocation(ctx context.Context, id uint) error {
	return s.store.Locations().Delete(ctx, id)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.ProjectCategory, error) {
	return s.store.Categories().List(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*models.ProjectCategory, error) {
	return s.store.Categories().GetByID(ctx, id)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*models.ProjectCategory, error) {
	name, err := catalogName("name", name, 80)
	if err != nil {
		return nil, err
	}
	category := &models.ProjectCategory{Name: name}
	if err := s.store.Categories().Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	return s.store.Categories().Delete(ctx, id)
}

func (s *CatalogService) ListPledgeTypes(ctx context.Context) ([]models.PledgeType, error) {
	return s.store.PledgeTypes().List(ctx)
}

func (s *CatalogService) GetPledgeType(ctx context.Context, id uint) (*models.PledgeType, error) {
	return s.store.PledgeTypes().GetByID(ctx, id)
}

func (s *CatalogService) CreatePledgeType(ctx context.Context, label string) (*models.PledgeType, error) {
	label, err := catalogName("type", label, 50)
	if err != nil {
		return nil, err
	}
	pledgeType := &models.PledgeType{Type: label}
	if err := s.store.PledgeTypes().Create(ctx, pledgeType); err != nil {
		return nil, err
	}
	return pledgeType, nil
}

func (s *CatalogService) DeletePledgeType(ctx context.Context, id uint) error {
	return s.store.PledgeTypes().Delete(ctx, id)
}

func catalogName(field, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	fields := validation.Fields{}
	fields.Check(value != "", field, "This field is required")
	fields.Check(utf8.RuneCountInString(value) <= max, field, "Too long")
	return value, fields.Err()
}
