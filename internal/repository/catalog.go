package repository

import (
	"context"
	"strings"

	"crelo/internal/cache"
	"crelo/internal/models"

	"gorm.io/gorm"
)

// catalog implements the shared list/get/create/delete behaviour of the
// small reference tables (locations, categories, pledge types). Lists are
// served cache-aside and every write drops the cached copy.
type catalog[T any] struct {
	db       *gorm.DB
	reads    *gorm.DB
	resource string
	cacheKey string
	// guard runs inside the delete transaction before the row is removed.
	guard func(tx *gorm.DB, id uint) error
	// staleUsers lists, before the guard runs, the users whose cached copy
	// the delete will invalidate.
	staleUsers func(tx *gorm.DB, id uint) ([]uint, error)
}

func (c *catalog[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	err := cache.Aside(ctx, c.cacheKey, &items, cache.CatalogTTL, func() error {
		if err := c.reads.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (c *catalog[T]) GetByID(ctx context.Context, id uint) (*T, error) {
	var item T
	if err := c.reads.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, findError(err, c.resource, id)
	}
	return &item, nil
}

func (c *catalog[T]) Create(ctx context.Context, item *T) error {
	if err := c.db.WithContext(ctx).Create(item).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError(c.resource + " already exists")
		}
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, c.cacheKey)
	return nil
}

func (c *catalog[T]) Delete(ctx context.Context, id uint) error {
	var stale []uint
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item T
		if err := tx.First(&item, id).Error; err != nil {
			return findError(err, c.resource, id)
		}
		if c.staleUsers != nil {
			var err error
			if stale, err = c.staleUsers(tx, id); err != nil {
				return err
			}
		}
		if c.guard != nil {
			if err := c.guard(tx, id); err != nil {
				return err
			}
		}
		return tx.Delete(&item).Error
	})
	if err != nil {
		return passThrough(err)
	}
	cache.Invalidate(ctx, c.cacheKey)
	for _, userID := range stale {
		cache.InvalidateUser(ctx, userID)
	}
	return nil
}

// refuseIfReferenced returns a CONFLICT error when any row of table has column = id.
func refuseIfReferenced(tx *gorm.DB, resource, table, column string, id uint) error {
	var n int64
	if err := tx.Table(table).Where(column+" = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return models.NewConflictError(resource + " is still referenced by " + strings.ReplaceAll(table, "_", " "))
	}
	return nil
}

// LocationRepository defines persistence operations for locations.
type LocationRepository interface {
	List(ctx context.Context) ([]models.Location, error)
	GetByID(ctx context.Context, id uint) (*models.Location, error)
	Create(ctx context.Context, location *models.Location) error
	// Delete removes the location with its projects and activities. It is
	// refused while users live there.
	Delete(ctx context.Context, id uint) error
}

type locationRepository struct {
	*catalog[models.Location]
}

func newLocationCatalog(db, reads *gorm.DB) *catalog[models.Location] {
	return &catalog[models.Location]{
		db:       db,
		reads:    reads,
		resource: "Location",
		cacheKey: cache.LocationsKey,
		guard: func(tx *gorm.DB, id uint) error {
			if err := refuseIfReferenced(tx, "Location", "users", "location_id", id); err != nil {
				return err
			}
			if err := deleteProjects(tx, "location_id = ?", id); err != nil {
				return err
			}
			return tx.Where("location_id = ?", id).Delete(&models.Activity{}).Error
		},
	}
}

// CategoryRepository defines persistence operations for project categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.ProjectCategory, error)
	GetByID(ctx context.Context, id uint) (*models.ProjectCategory, error)
	Create(ctx context.Context, category *models.ProjectCategory) error
	// Delete is refused while projects use the category.
	Delete(ctx context.Context, id uint) error
}

type categoryRepository struct {
	*catalog[models.ProjectCategory]
}

func newCategoryCatalog(db, reads *gorm.DB) *catalog[models.ProjectCategory] {
	return &catalog[models.ProjectCategory]{
		db:       db,
		reads:    reads,
		resource: "Project category",
		cacheKey: cache.CategoriesKey,
		guard: func(tx *gorm.DB, id uint) error {
			if err := refuseIfReferenced(tx, "Project category", "projects", "category_id", id); err != nil {
				return err
			}
			return tx.Exec("DELETE FROM user_favourite_categories WHERE project_category_id = ?", id).Error
		},
		staleUsers: func(tx *gorm.DB, id uint) ([]uint, error) {
			var userIDs []uint
			err := tx.Table("user_favourite_categories").
				Where("project_category_id = ?", id).
				Pluck("user_id", &userIDs).Error
			return userIDs, err
		},
	}
}

// PledgeTypeRepository defines persistence operations for pledge types.
type PledgeTypeRepository interface {
	List(ctx context.Context) ([]models.PledgeType, error)
	GetByID(ctx context.Context, id uint) (*models.PledgeType, error)
	Create(ctx context.Context, pledgeType *models.PledgeType) error
	// Delete is refused while projects or pledges use the type.
	Delete(ctx context.Context, id uint) error
}

type pledgeTypeRepository struct {
	*catalog[models.PledgeType]
}

func newPledgeTypeCatalog(db, reads *gorm.DB) *catalog[models.PledgeType] {
	return &catalog[models.PledgeType]{
		db:       db,
		reads:    reads,
		resource: "Pledge type",
		cacheKey: cache.PledgeTypesKey,
		guard: func(tx *gorm.DB, id uint) error {
			if err := refuseIfReferenced(tx, "Pledge type", "projects", "pledge_type_id", id); err != nil {
				return err
			}
			return refuseIfReferenced(tx, "Pledge type", "pledges", "pledge_type_id", id)
		},
	}
}
