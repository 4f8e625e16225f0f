package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crelo/internal/config"
	"crelo/internal/database"
	"crelo/internal/middleware"
	"crelo/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "Correct-Horse-9!"

// apiEnv is a full router over a private in-memory SQLite database.
type apiEnv struct {
	t   *testing.T
	db  *gorm.DB
	srv *Server
	app *fiber.App

	location   models.Location
	category   models.ProjectCategory
	pledgeType models.PledgeType
	owner      models.User
	backer     models.User
	admin      models.User
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	srv, err := NewServerWithDeps(&config.Config{JWTSecret: testSecret}, db, nil)
	require.NoError(t, err)
	app := fiber.New()
	srv.SetupRoutes(app)

	e := &apiEnv{
		t:          t,
		db:         db,
		srv:        srv,
		app:        app,
		location:   models.Location{Name: "Hobart"},
		category:   models.ProjectCategory{Name: "Community"},
		pledgeType: models.PledgeType{Type: "money"},
	}
	require.NoError(t, db.Create(&e.location).Error)
	require.NoError(t, db.Create(&e.category).Error)
	require.NoError(t, db.Create(&e.pledgeType).Error)

	e.owner = e.createUser("owner", false)
	e.backer = e.createUser("backer", false)
	e.admin = e.createUser("admin", true)
	return e
}

func (e *apiEnv) createUser(name string, admin bool) models.User {
	e.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(e.t, err)
	u := models.User{
		Username:   name,
		Email:      name + "@example.com",
		Password:   string(hash),
		LocationID: e.location.ID,
		IsAdmin:    admin,
	}
	require.NoError(e.t, e.db.Create(&u).Error)
	return u
}

func (e *apiEnv) token(u models.User) string {
	e.t.Helper()
	token, _, err := middleware.IssueToken(testSecret, u.ID, u.Username, time.Now())
	require.NoError(e.t, err)
	return token
}

// do sends a JSON request. token may be empty for anonymous calls.
func (e *apiEnv) do(method, path string, body any, token string) *http.Response {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	e.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// createProject posts a project with goal 1000 due dueIn from now.
func (e *apiEnv) createProject(owner models.User, dueIn time.Duration) ProjectView {
	e.t.Helper()
	resp := e.do(http.MethodPost, "/api/projects/", map[string]any{
		"title":          "Community garden",
		"venue":          "Town hall",
		"description":    "Raised beds for everyone",
		"goal_amount":    1000,
		"image":          "https://img.example.com/garden.png",
		"due_date":       time.Now().Add(dueIn).UTC(),
		"category_id":    e.category.ID,
		"pledge_type_id": e.pledgeType.ID,
	}, e.token(owner))
	require.Equal(e.t, http.StatusCreated, resp.StatusCode)
	return decode[ProjectView](e.t, resp)
}
