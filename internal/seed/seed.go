package seed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"crelo/internal/models"
	"crelo/internal/repository"
	"crelo/internal/service"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is shared by every generated account.
const DefaultPassword = "Password123!"

// Options configuration for the seeder
type Options struct {
	NumUsers             int
	NumProjects          int
	MaxPledgesPerProject int
	ShouldClean          bool
	// RandSeed makes the generated data reproducible when non-zero.
	RandSeed int64
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Summary counts what a Seed run created.
type Summary struct {
	Users           int
	Projects        int
	Pledges         int
	ProgressUpdates int
}

// Seed loads the catalog and populates the database with demo users,
// projects, pledges and progress updates.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	log.Printf("🌱 Starting database seeding with %d users and %d projects...", opts.NumUsers, opts.NumProjects)

	if opts.ShouldClean {
		if err := ClearData(db); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	catalog, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}
	rows, err := ApplyCatalog(db, catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to apply catalog: %w", err)
	}
	log.Printf("✓ catalog ready: %d locations, %d categories, %d pledge types",
		len(rows.Locations), len(rows.Categories), len(rows.PledgeTypes))
	if len(rows.Categories) == 0 || len(rows.PledgeTypes) == 0 {
		return nil, errors.New("catalog needs at least one category and one pledge type to seed projects")
	}

	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	f := NewFactory(db, opts.RandSeed, string(hash))

	summary := &Summary{}
	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		loc := rows.Locations[f.faker.Number(0, len(rows.Locations)-1)]
		user, err := f.CreateUser(loc.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create users: %w", err)
		}
		users = append(users, user)
	}
	summary.Users = len(users)
	log.Printf("✓ %d users created", summary.Users)
	if len(users) == 0 {
		log.Println("🎉 Database seeding completed (no users requested)")
		return summary, nil
	}

	store := repository.NewStore(db)
	isAdmin := service.AdminChecker(store)
	projects := service.NewProjectService(store, isAdmin)
	pledges := service.NewPledgeService(store, isAdmin)
	updates := service.NewProgressUpdateService(store)
	now := time.Now().UTC()

	for i := 0; i < opts.NumProjects; i++ {
		owner := users[f.faker.Number(0, len(users)-1)]
		stats, err := projects.CreateProject(ctx, f.ProjectInput(owner, rows, now))
		if err != nil {
			return nil, fmt.Errorf("failed to create project: %w", err)
		}
		summary.Projects++
		project := stats.Project

		if f.faker.Bool() {
			if _, err := updates.CreateUpdate(ctx, f.ProgressUpdateInput(owner.ID, project.ID)); err != nil {
				return nil, fmt.Errorf("failed to create progress update: %w", err)
			}
			summary.ProgressUpdates++
		}

		if opts.MaxPledgesPerProject <= 0 {
			continue
		}
		n := f.faker.Number(0, opts.MaxPledgesPerProject)
		for j := 0; j < n; j++ {
			supporter := users[f.faker.Number(0, len(users)-1)]
			if _, err := pledges.CreatePledge(ctx, f.PledgeInput(supporter.ID, &project)); err != nil {
				return nil, fmt.Errorf("failed to create pledge: %w", err)
			}
			summary.Pledges++
		}
	}
	log.Printf("✓ %d projects, %d pledges and %d progress updates created",
		summary.Projects, summary.Pledges, summary.ProgressUpdates)

	log.Println("🎉 Database seeding completed successfully!")
	return summary, nil
}

// ClearData removes every user-generated row. Catalog tables are kept.
func ClearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE activities, progress_updates, pledges, user_favourite_categories, projects, users RESTART IDENTITY CASCADE`).Error
	}
	for _, table := range []string{"activities", "progress_updates", "pledges", "user_favourite_categories", "projects", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
