package repository

import (
	"context"
	"errors"

	"crelo/internal/cache"
	"crelo/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// GetByID returns the user with location and favourite categories loaded.
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	// Delete removes the user with their projects, pledges and activities.
	// It returns the other users' projects that lost pledges.
	Delete(ctx context.Context, id uint) ([]uint, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	ListAdmins(ctx context.Context) ([]models.User, error)
	AddFavourite(ctx context.Context, userID, categoryID uint) error
	RemoveFavourite(ctx context.Context, userID, categoryID uint) error
}

type userRepository struct {
	db    *gorm.DB
	reads *gorm.DB
}

// NewUserRepository returns a UserRepository outside of any transaction.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, reads: readDB(db)}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &user, cache.UserTTL, func() error {
		if err := r.reads.WithContext(ctx).
			Preload("Location").
			Preload("FavouriteCategories").
			First(&user, id).Error; err != nil {
			return findError(err, "User", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findBy(ctx, "LOWER(email) = LOWER(?)", email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findBy(ctx, "username = ?", username)
}

// findBy returns (nil, nil) when no user matches.
func (r *userRepository) findBy(ctx context.Context, where string, arg string) (*models.User, error) {
	var user models.User
	if err := r.reads.WithContext(ctx).Where(where, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Omit("Location", "FavouriteCategories").Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("A user with that username or email already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	columns := []string{"username", "email", "location_id", "bio", "image", "is_admin", "updated_at"}
	// Cached users carry no password hash; never blank the stored one.
	if user.Password != "" {
		columns = append(columns, "password")
	}
	err := r.db.WithContext(ctx).Model(user).Select(columns).Updates(user).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("A user with that username or email already exists")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) ([]uint, error) {
	var touched []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return models.NewNotFoundError("User", id)
		}

		if err := deleteProjects(tx, "owner_id = ?", id); err != nil {
			return err
		}

		// Pledges on other people's projects: drop them and refresh those projects' counts.
		if err := tx.Model(&models.Pledge{}).Where("supporter_id = ?", id).Distinct().Pluck("project_id", &touched).Error; err != nil {
			return err
		}
		if err := tx.Where("supporter_id = ?", id).Delete(&models.Pledge{}).Error; err != nil {
			return err
		}
		for _, projectID := range touched {
			var count int64
			if err := tx.Model(&models.Pledge{}).Where("project_id = ?", projectID).Count(&count).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Project{}).Where("id = ?", projectID).UpdateColumn("pledge_count", count).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.Activity{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_favourite_categories WHERE user_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return nil, passThrough(err)
	}
	cache.InvalidateUser(ctx, id)
	return touched, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	limit, offset = clampPage(limit, offset)
	var users []models.User
	if err := r.reads.WithContext(ctx).Order("id ASC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.reads.WithContext(ctx).Where("is_admin = ?", true).Order("id ASC").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) AddFavourite(ctx context.Context, userID, categoryID uint) error {
	err := r.db.WithContext(ctx).Exec(
		"INSERT INTO user_favourite_categories (user_id, project_category_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		userID, categoryID,
	).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

func (r *userRepository) RemoveFavourite(ctx context.Context, userID, categoryID uint) error {
	err := r.db.WithContext(ctx).Exec(
		"DELETE FROM user_favourite_categories WHERE user_id = ? AND project_category_id = ?",
		userID, categoryID,
	).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}
