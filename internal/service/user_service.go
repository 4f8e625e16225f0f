package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"crelo/internal/models"
	"crelo/internal/repository"
	"crelo/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const maxBioLength = 500

type UserService struct {
	store repository.Store
	// bcryptCost is lowered by tests.
	bcryptCost int
	now        func() time.Time
}

type RegisterInput struct {
	Username   string
	Email      string
	Password   string
	LocationID uint
	Bio        string
	Image      string
}

// UpdateAccountInput is a partial update; nil fields are left unchanged.
type UpdateAccountInput struct {
	UserID     uint
	Username   *string
	Email      *string
	Password   *string
	LocationID *uint
	Bio        *string
	Image      *string
}

func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store, bcryptCost: bcrypt.DefaultCost, now: systemNow}
}

// WithClock replaces the time source; used by tests.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

// Register validates and creates an account. Duplicate usernames or emails
// are conflicts.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Image = strings.TrimSpace(in.Image)

	fields := validation.Fields{}
	fields.CheckErr(validation.ValidateUsername(in.Username), "username")
	fields.CheckErr(validation.ValidateEmail(in.Email), "email")
	fields.CheckErr(validation.ValidatePassword(in.Password), "password")
	fields.Check(in.LocationID != 0, "location_id", "Location is required")
	fields.Check(utf8.RuneCountInString(in.Bio) <= maxBioLength, "bio", "Bio must be at most 500 characters")
	fields.Check(validURL(in.Image), "image", "Image must be an http(s) URL")
	if err := fields.Err(); err != nil {
		return nil, err
	}

	if err := s.checkLocation(ctx, in.LocationID); err != nil {
		return nil, err
	}
	if err := s.checkAvailable(ctx, 0, in.Username, in.Email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:   in.Username,
		Email:      in.Email,
		Password:   string(hash),
		LocationID: in.LocationID,
		Bio:        in.Bio,
		Image:      in.Image,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return s.store.Users().GetByID(ctx, user.ID)
}

// Authenticate checks an email/password pair. Every failure looks the same to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	invalid := models.NewUnauthorizedError("Invalid credentials")
	if email == "" || password == "" {
		return nil, invalid
	}
	user, err := s.store.Users().GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, invalid
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.store.Users().List(ctx, limit, offset)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.store.Users().GetByID(ctx, id)
}

func (s *UserService) UpdateAccount(ctx context.Context, in UpdateAccountInput) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	fields := validation.Fields{}
	if in.Username != nil {
		user.Username = strings.TrimSpace(*in.Username)
		fields.CheckErr(validation.ValidateUsername(user.Username), "username")
	}
	if in.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*in.Email))
		fields.CheckErr(validation.ValidateEmail(user.Email), "email")
	}
	if in.Password != nil {
		fields.CheckErr(validation.ValidatePassword(*in.Password), "password")
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
		fields.Check(utf8.RuneCountInString(user.Bio) <= maxBioLength, "bio", "Bio must be at most 500 characters")
	}
	if in.Image != nil {
		user.Image = strings.TrimSpace(*in.Image)
		fields.Check(validURL(user.Image), "image", "Image must be an http(s) URL")
	}
	if in.LocationID != nil {
		user.LocationID = *in.LocationID
		user.Location = nil
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	if in.LocationID != nil {
		if err := s.checkLocation(ctx, user.LocationID); err != nil {
			return nil, err
		}
	}
	if in.Username != nil || in.Email != nil {
		if err := s.checkAvailable(ctx, user.ID, user.Username, user.Email); err != nil {
			return nil, err
		}
	}
	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.bcryptCost)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		user.Password = string(hash)
	}

	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, err
	}
	return s.store.Users().GetByID(ctx, user.ID)
}

// DeleteAccount removes the user together with their projects, pledges and
// activities. Projects that lose the user's pledges have their milestones
// re-derived in the same transaction.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	now := s.now()
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		touched, err := tx.Users().Delete(ctx, userID)
		if err != nil {
			return err
		}
		for _, projectID := range touched {
			project, err := tx.Projects().GetByID(ctx, projectID)
			if err != nil {
				return err
			}
			if _, err := refresh(ctx, tx, project, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *UserService) AddFavouriteCategory(ctx context.Context, userID, categoryID uint) (*models.User, error) {
	if _, err := s.store.Categories().GetByID(ctx, categoryID); err != nil {
		return nil, err
	}
	if err := s.store.Users().AddFavourite(ctx, userID, categoryID); err != nil {
		return nil, err
	}
	return s.store.Users().GetByID(ctx, userID)
}

func (s *UserService) RemoveFavouriteCategory(ctx context.Context, userID, categoryID uint) (*models.User, error) {
	if _, err := s.store.Categories().GetByID(ctx, categoryID); err != nil {
		return nil, err
	}
	if err := s.store.Users().RemoveFavourite(ctx, userID, categoryID); err != nil {
		return nil, err
	}
	return s.store.Users().GetByID(ctx, userID)
}

func (s *UserService) SetAdmin(ctx context.Context, targetID uint, isAdmin bool) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	user.IsAdmin = isAdmin
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.store.Users().ListAdmins(ctx)
}

func (s *UserService) checkLocation(ctx context.Context, locationID uint) error {
	if _, err := s.store.Locations().GetByID(ctx, locationID); err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return models.NewFieldValidationError(map[string]string{"location_id": "Location does not exist"})
		}
		return err
	}
	return nil
}

// checkAvailable reports a conflict when another user holds username or email.
func (s *UserService) checkAvailable(ctx context.Context, selfID uint, username, email string) error {
	byName, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if byName != nil && byName.ID != selfID {
		return models.NewConflictError("Username is already taken")
	}
	byEmail, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if byEmail != nil && byEmail.ID != selfID {
		return models.NewConflictError("Email is already registered")
	}
	return nil
}
