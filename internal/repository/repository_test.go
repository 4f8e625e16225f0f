package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"crelo/internal/cache"
	"crelo/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueConstraintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pg unique", &pgconn.PgError{Code: "23505"}, true},
		{"pg other", &pgconn.PgError{Code: "23503", Message: "foreign key violation"}, false},
		{"sqlite", errors.New("UNIQUE constraint failed: users.email"), true},
		{"plain", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueConstraintError(tt.err))
		})
	}
}

func TestClampPage(t *testing.T) {
	limit, offset := clampPage(0, -3)
	assert.Equal(t, DefaultLimit, limit)
	assert.Equal(t, 0, offset)

	limit, _ = clampPage(500, 0)
	assert.Equal(t, MaxLimit, limit)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "username", "email"}).AddRow(1, "testuser", "test@example.com")
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE LOWER(email) = LOWER($1) ORDER BY "users"."id" LIMIT $2`)).
			WithArgs("Test@Example.com", 1).
			WillReturnRows(rows)

		user, err := repo.GetByEmail(ctx, "Test@Example.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "testuser", user.Username)
	})

	t.Run("Missing returns nil", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE LOWER(email) = LOWER($1)`)).
			WithArgs("nobody@example.com", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		user, err := repo.GetByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{Username: "dup", Email: "dup@example.com", LocationID: 1})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPledgeRepository_Totals(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPledgeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(amount), 0) AS amount, COUNT(*) AS count FROM "pledges" WHERE project_id = $1`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"amount", "count"}).AddRow(260, 3))

	totals, err := repo.Totals(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, models.PledgeTotals{Amount: 260, Count: 3}, totals)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_SetViewCountMissing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "projects" SET "view_count"=$1 WHERE id = $2`)).
		WithArgs(5, 99).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.SetViewCount(context.Background(), 99, 5)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_TotalsAndCascades(t *testing.T) {
	db := setupSQLiteDB(t)
	f := newFixture(t, db)
	store := NewStore(db)
	ctx := context.Background()

	project := f.project(t, db, "Community garden", time.Now().Add(72*time.Hour))

	totals, err := store.Pledges().Totals(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PledgeTotals{}, totals)

	f.pledge(t, db, project.ID, 100)
	f.pledge(t, db, project.ID, 160)
	totals, err = store.Pledges().Totals(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PledgeTotals{Amount: 260, Count: 2}, totals)

	require.NoError(t, store.ProgressUpdates().Create(ctx, &models.ProgressUpdate{ProjectID: project.ID, Content: "dug beds"}))
	require.NoError(t, store.Activities().Create(ctx, &models.Activity{
		Action: models.ActivityProjectCreated, ProjectID: project.ID, UserID: f.owner.ID, LocationID: f.location.ID,
	}))

	require.NoError(t, store.Projects().Delete(ctx, project.ID))

	for _, model := range []interface{}{&models.Pledge{}, &models.ProgressUpdate{}, &models.Activity{}, &models.Project{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}

	err = store.Projects().Delete(ctx, project.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestProjectRepository_ListFilters(t *testing.T) {
	db := setupSQLiteDB(t)
	f := newFixture(t, db)
	store := NewStore(db)
	ctx := context.Background()
	now := time.Now()

	open := f.project(t, db, "open", now.Add(48*time.Hour))
	f.project(t, db, "closed", now.Add(-48*time.Hour))

	other := models.Location{Name: "Perth"}
	require.NoError(t, db.Create(&other).Error)
	elsewhere := f.project(t, db, "elsewhere", now.Add(48*time.Hour))
	require.NoError(t, db.Model(&elsewhere).Update("location_id", other.ID).Error)

	got, err := store.Projects().List(ctx, ProjectFilter{LocationID: f.location.ID, OpenAt: &now})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, open.ID, got[0].ID)
	require.NotNil(t, got[0].Owner)
	assert.Equal(t, "owner", got[0].Owner.Username)

	got, err = store.Projects().List(ctx, ProjectFilter{CategoryIDs: []uint{}})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = store.Projects().List(ctx, ProjectFilter{CategoryIDs: []uint{f.category.ID}})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestActivityRepository_DeleteDerived(t *testing.T) {
	db := setupSQLiteDB(t)
	f := newFixture(t, db)
	store := NewStore(db)
	ctx := context.Background()
	project := f.project(t, db, "p", time.Now().Add(time.Hour))

	for _, info := range []string{"25", "50"} {
		require.NoError(t, store.Activities().Create(ctx, &models.Activity{
			Action: models.ActivityMilestone, Info: info, ProjectID: project.ID, UserID: f.owner.ID, LocationID: f.location.ID,
		}))
	}

	n, err := store.Activities().DeleteDerived(ctx, project.ID, models.ActivityMilestone, "50")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = store.Activities().DeleteDerived(ctx, project.ID, models.ActivityMilestone, "50")
	require.NoError(t, err)
	assert.Zero(t, n)

	left, err := store.Activities().ListByProject(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "25", left[0].Info)
}

func TestActivityRepository_DeleteDerivedRefusesPostedActions(t *testing.T) {
	db := setupSQLiteDB(t)
	f := newFixture(t, db)
	store := NewStore(db)
	ctx := context.Background()
	project := f.project(t, db, "p", time.Now().Add(time.Hour))

	for _, action := range []models.ActivityAction{models.ActivityProjectCreated, models.ActivityProgressUpdate} {
		require.NoError(t, store.Activities().Create(ctx, &models.Activity{
			Action: action, Info: "kept", ProjectID: project.ID, UserID: f.owner.ID, LocationID: f.location.ID,
		}))

		n, err := store.Activities().DeleteDerived(ctx, project.ID, action, "")
		assert.True(t, models.IsCode(err, models.CodeValidation), "%s: %v", action, err)
		assert.Zero(t, n)
	}

	left, err := store.Activities().ListByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, left, 2)
}

func TestCatalog_ProtectedDeletes(t *testing.T) {
	db := setupSQLiteDB(t)
	f := newFixture(t, db)
	store := NewStore(db)
	ctx := context.Background()
	f.project(t, db, "p", time.Now().Add(time.Hour))

	err := store.Categories().Delete(ctx, f.category.ID)
	assert.True(t, models.IsCode(err, models.CodeConflict))

	err = store.PledgeTypes().Delete(ctx, f.pledgeType.ID)
	assert.True(t, models.IsCode(err, models.CodeConflict))

	err = store.Locations().Delete(ctx, f.location.ID)
	assert.True(t, models.IsCode(err, models.CodeConflict), "users still live there")

	err = store.Locations().Delete(ctx, 9999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	spare := models.ProjectCategory{Name: "Spare"}
	require.NoError(t, store.Categories().Create(ctx, &spare))
	require.NoError(t, store.Users().AddFavourite(ctx, f.owner.ID, spare.ID))
	require.NoError(t, store.Categories().Delete(ctx, spare.ID))

	user, err := store.Users().GetByID(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Empty(t, user.FavouriteCategories)
}

func TestCategory_DeleteDropsCachedFavourites(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	db := setupSQLiteDB(t)
	f := newFixture(t, db)
	store := NewStore(db)
	ctx := context.Background()

	spare := models.ProjectCategory{Name: "Spare"}
	require.NoError(t, store.Categories().Create(ctx, &spare))
	require.NoError(t, store.Users().AddFavourite(ctx, f.supporter.ID, spare.ID))

	user, err := store.Users().GetByID(ctx, f.supporter.ID)
	require.NoError(t, err)
	require.Len(t, user.FavouriteCategories, 1)
	require.True(t, mr.Exists(cache.UserKey(f.supporter.ID)))

	require.NoError(t, store.Categories().Delete(ctx, spare.ID))
	assert.False(t, mr.Exists(cache.UserKey(f.supporter.ID)))

	user, err = store.Users().GetByID(ctx, f.supporter.ID)
	require.NoError(t, err)
	assert.Empty(t, user.FavouriteCategories)
}

func TestLocation_DeleteCascadesProjects(t *testing.T) {
	db := setupSQLiteDB(t)
	f := newFixture(t, db)
	store := NewStore(db)
	ctx := context.Background()

	empty := models.Location{Name: "Hobart"}
	require.NoError(t, store.Locations().Create(ctx, &empty))
	p := f.project(t, db, "moved", time.Now().Add(time.Hour))
	require.NoError(t, db.Model(&p).Update("location_id", empty.ID).Error)

	require.NoError(t, store.Locations().Delete(ctx, empty.ID))

	_, err := store.Projects().GetByID(ctx, p.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	db := setupSQLiteDB(t)
	f := newFixture(t, db)
	store := NewStore(db)
	ctx := context.Background()

	own := f.project(t, db, "owned", time.Now().Add(time.Hour))
	f.pledge(t, db, own.ID, 50)
	require.NoError(t, store.Projects().SetPledgeCount(ctx, own.ID, 1))

	require.NoError(t, store.Users().AddFavourite(ctx, f.supporter.ID, f.category.ID))
	require.NoError(t, store.Users().AddFavourite(ctx, f.supporter.ID, f.category.ID), "adding twice is a no-op")

	touched, err := store.Users().Delete(ctx, f.supporter.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{own.ID}, touched)

	reloaded, err := store.Projects().GetByID(ctx, own.ID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.PledgeCount)

	touched, err = store.Users().Delete(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Empty(t, touched, "the owner's own projects are deleted, not refreshed")
	_, err = store.Projects().GetByID(ctx, own.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	_, err = store.Users().Delete(ctx, f.owner.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestStore_TransactionRollsBack(t *testing.T) {
	db := setupSQLiteDB(t)
	f := newFixture(t, db)
	store := NewStore(db)
	ctx := context.Background()
	project := f.project(t, db, "p", time.Now().Add(time.Hour))

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(tx Store) error {
		if err := tx.Projects().SaveLifecycle(ctx, project.ID, 50, true); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	reloaded, err := store.Projects().GetByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.LastMilestone)
	assert.False(t, reloaded.LastChanceTriggered)
}
