package service

import (
	"context"
	"testing"
	"time"

	"crelo/internal/database"
	"crelo/internal/models"
	"crelo/internal/repository"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires every service against a private in-memory SQLite database
// and a fixed clock.
type testEnv struct {
	db    *gorm.DB
	store repository.Store
	now   time.Time

	location   models.Location
	category   models.ProjectCategory
	pledgeType models.PledgeType
	owner      models.User
	backer     models.User
	admin      models.User

	projects *ProjectService
	pledges  *PledgeService
	updates  *ProgressUpdateService
	users    *UserService
	catalog  *CatalogService
	feed     *ActivityService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	e := &testEnv{
		db:         db,
		store:      repository.NewStore(db),
		now:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		location:   models.Location{Name: "Brisbane"},
		category:   models.ProjectCategory{Name: "Arts"},
		pledgeType: models.PledgeType{Type: "money"},
	}
	require.NoError(t, db.Create(&e.location).Error)
	require.NoError(t, db.Create(&e.category).Error)
	require.NoError(t, db.Create(&e.pledgeType).Error)

	e.owner = e.createUser(t, "owner", false)
	e.backer = e.createUser(t, "backer", false)
	e.admin = e.createUser(t, "admin", true)

	clock := func() time.Time { return e.now }
	isAdmin := AdminChecker(e.store)
	e.projects = NewProjectService(e.store, isAdmin).WithClock(clock)
	e.pledges = NewPledgeService(e.store, isAdmin).WithClock(clock)
	e.updates = NewProgressUpdateService(e.store).WithClock(clock)
	e.users = NewUserService(e.store).WithClock(clock)
	e.users.bcryptCost = bcrypt.MinCost
	e.catalog = NewCatalogService(e.store)
	e.feed = NewActivityService(e.store)
	return e
}

func (e *testEnv) createUser(t *testing.T, name string, admin bool) models.User {
	t.Helper()
	u := models.User{
		Username:   name,
		Email:      name + "@example.com",
		Password:   "hash",
		LocationID: e.location.ID,
		IsAdmin:    admin,
	}
	require.NoError(t, e.db.Create(&u).Error)
	return u
}

// createProject makes a 1000-goal project owned by e.owner, due in `due`.
func (e *testEnv) createProject(t *testing.T, title string, due time.Duration) *ProjectStats {
	t.Helper()
	stats, err := e.projects.CreateProject(context.Background(), CreateProjectInput{
		OwnerID:      e.owner.ID,
		Title:        title,
		Description:  "A project",
		GoalAmount:   1000,
		DueDate:      e.now.Add(due),
		CategoryID:   e.category.ID,
		PledgeTypeID: e.pledgeType.ID,
	})
	require.NoError(t, err)
	return stats
}

func (e *testEnv) pledge(t *testing.T, projectID uint, amount int64) *models.Pledge {
	t.Helper()
	p, err := e.pledges.CreatePledge(context.Background(), CreatePledgeInput{
		SupporterID: e.backer.ID,
		ProjectID:   projectID,
		Amount:      amount,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) reload(t *testing.T, projectID uint) *models.Project {
	t.Helper()
	var p models.Project
	require.NoError(t, e.db.First(&p, projectID).Error)
	return &p
}

// activities returns the infos of a project's activities with the given action, oldest first.
func (e *testEnv) activities(t *testing.T, projectID uint, action models.ActivityAction) []string {
	t.Helper()
	var infos []string
	require.NoError(t, e.db.Model(&models.Activity{}).
		Where("project_id = ? AND action = ?", projectID, action).
		Order("id ASC").
		Pluck("info", &infos).Error)
	return infos
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, models.IsCode(err, code), "want %s, got %v", code, err)
}
