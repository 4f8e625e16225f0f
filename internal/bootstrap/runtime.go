// Package bootstrap wires the process-wide database and cache handles and
// prepares the reference data a fresh environment needs.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"crelo/internal/cache"
	"crelo/internal/config"
	"crelo/internal/database"
	"crelo/internal/middleware"
	"crelo/internal/models"
	"crelo/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	defaultRootUsername = "crelo_root"
	defaultRootEmail    = "root@crelo.local"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedCatalog loads the embedded locations, categories and pledge types.
	SeedCatalog bool
}

// InitRuntime connects to DB and Redis and optionally loads the catalog.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional; a nil client disables caching.
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := Prepare(cfg, db, opts); err != nil {
		return nil, nil, err
	}
	return db, r, nil
}

// Prepare runs the data steps of InitRuntime against an open database.
func Prepare(cfg *config.Config, db *gorm.DB, opts Options) error {
	if opts.SeedCatalog {
		catalog, err := seed.DefaultCatalog()
		if err != nil {
			return err
		}
		if _, err := seed.ApplyCatalog(db, catalog); err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
	}
	if err := ensureDevRootAdmin(cfg, db); err != nil {
		return fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}
	return nil
}

func ensureDevRootAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapRoot {
		return nil
	}

	username := strings.TrimSpace(cfg.DevRootUsername)
	if username == "" {
		username = defaultRootUsername
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevRootEmail))
	if email == "" {
		email = defaultRootEmail
	}
	password := cfg.DevRootPassword
	if password == "" {
		return errors.New("DEV_ROOT_PASSWORD must be set when DEV_BOOTSTRAP_ROOT is enabled")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	var rootID uint
	if err := db.Transaction(func(tx *gorm.DB) error {
		var root models.User
		findErr := tx.Where("username = ?", username).First(&root).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			var loc models.Location
			if err := tx.Order("id ASC").First(&loc).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errors.New("no locations exist; seed the catalog first")
				}
				return err
			}
			root = models.User{
				Username:   username,
				Email:      email,
				Password:   string(hashedPassword),
				LocationID: loc.ID,
				IsAdmin:    true,
			}
			if err := tx.Create(&root).Error; err != nil {
				return err
			}
		case findErr != nil:
			return findErr
		default:
			updates := map[string]any{"is_admin": true}
			if cfg.DevRootForceCredentials {
				updates["email"] = email
				updates["password"] = string(hashedPassword)
			}
			if err := tx.Model(&models.User{}).Where("id = ?", root.ID).Updates(updates).Error; err != nil {
				return err
			}
		}
		rootID = root.ID
		return nil
	}); err != nil {
		return err
	}

	// Drop any cached copy that predates the promotion.
	cache.InvalidateUser(context.Background(), rootID)
	middleware.Logger.Info("development root admin ensured", slog.Uint64("user_id", uint64(rootID)), slog.String("email", email))
	return nil
}
