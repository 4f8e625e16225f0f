package repository

import (
	"testing"
	"time"

	"crelo/internal/database"
	"crelo/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

// setupSQLiteDB returns a private in-memory database with the full schema.
// SQLite does not enforce foreign keys here, so cascades must come from the
// repositories themselves.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

type fixture struct {
	location   models.Location
	category   models.ProjectCategory
	pledgeType models.PledgeType
	owner      models.User
	supporter  models.User
}

func newFixture(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	f := &fixture{
		location:   models.Location{Name: "Brisbane"},
		category:   models.ProjectCategory{Name: "Community"},
		pledgeType: models.PledgeType{Type: "money"},
	}
	require.NoError(t, db.Create(&f.location).Error)
	require.NoError(t, db.Create(&f.category).Error)
	require.NoError(t, db.Create(&f.pledgeType).Error)

	f.owner = models.User{Username: "owner", Email: "owner@example.com", Password: "x", LocationID: f.location.ID}
	f.supporter = models.User{Username: "backer", Email: "backer@example.com", Password: "x", LocationID: f.location.ID}
	require.NoError(t, db.Create(&f.owner).Error)
	require.NoError(t, db.Create(&f.supporter).Error)
	return f
}

func (f *fixture) project(t *testing.T, db *gorm.DB, title string, due time.Time) models.Project {
	t.Helper()
	p := models.Project{
		Title:        title,
		Description:  "desc",
		GoalAmount:   1000,
		DueDate:      due,
		OwnerID:      f.owner.ID,
		LocationID:   f.location.ID,
		CategoryID:   f.category.ID,
		PledgeTypeID: f.pledgeType.ID,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func (f *fixture) pledge(t *testing.T, db *gorm.DB, projectID uint, amount int64) models.Pledge {
	t.Helper()
	p := models.Pledge{Amount: amount, ProjectID: projectID, SupporterID: f.supporter.ID, PledgeTypeID: f.pledgeType.ID}
	require.NoError(t, db.Create(&p).Error)
	return p
}
