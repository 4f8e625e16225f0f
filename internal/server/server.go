// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "crelo/docs" // swagger docs
	"crelo/internal/cache"
	"crelo/internal/config"
	"crelo/internal/database"
	"crelo/internal/middleware"
	"crelo/internal/models"
	"crelo/internal/repository"
	"crelo/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	store          repository.Store
	isAdmin        func(ctx context.Context, userID uint) (bool, error)
	now            func() time.Time

	projectService  *service.ProjectService
	pledgeService   *service.PledgeService
	updateService   *service.ProgressUpdateService
	userService     *service.UserService
	catalogService  *service.CatalogService
	activityService *service.ActivityService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Initialize Redis
	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}

	store := repository.NewStore(db)
	isAdmin := service.AdminChecker(store)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("crelo-api"),
		store:          store,
		isAdmin:        isAdmin,
		now:            func() time.Time { return time.Now().UTC() },
	}
	server.projectService = service.NewProjectService(store, isAdmin)
	server.pledgeService = service.NewPledgeService(store, isAdmin)
	server.updateService = service.NewProgressUpdateService(store)
	server.userService = service.NewUserService(store)
	server.catalogService = service.NewCatalogService(store)
	server.activityService = service.NewActivityService(store)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Propagate request ID into the request context for logging
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so throttled responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application.
// Routes are registered without trailing slashes; the app must be created
// with StrictRouting disabled (fiber's default) so "/projects/" matches too.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	api.Get("/", s.HealthCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Crelo Backend Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	// Projects. /favourites is registered before /:id.
	projects := api.Group("/projects")
	projects.Get("/", s.GetProjects)
	projects.Post("/", s.AuthRequired(), middleware.RateLimit(
		s.redis, 10, 10*time.Minute, "create_project"), s.CreateProject)
	projects.Get("/favourites", s.AuthRequired(), s.GetFavouriteProjects)
	projects.Get("/:id", s.GetProject)
	projects.Put("/:id", s.AuthRequired(), s.UpdateProject)
	projects.Delete("/:id", s.AuthRequired(), s.DeleteProject)

	// Pledges
	projects.Get("/:id/pledges", s.GetPledges)
	projects.Post("/:id/pledges", s.AuthRequired(), middleware.RateLimit(
		s.redis, 20, time.Minute, "create_pledge"), s.CreatePledge)
	projects.Get("/:id/pledges/:pledgeId", s.GetPledge)
	projects.Delete("/:id/pledges/:pledgeId", s.AuthRequired(), s.DeletePledge)

	// Progress updates
	projects.Get("/:id/progress-updates", s.GetProgressUpdates)
	projects.Post("/:id/progress-updates", s.AuthRequired(), s.CreateProgressUpdate)
	projects.Get("/:id/progress-updates/:updateId", s.GetProgressUpdate)
	projects.Put("/:id/progress-updates/:updateId", s.AuthRequired(), s.UpdateProgressUpdate)
	projects.Delete("/:id/progress-updates/:updateId", s.AuthRequired(), s.DeleteProgressUpdate)

	// Locations and feeds
	locations := api.Group("/locations")
	locations.Get("/", s.GetLocations)
	locations.Post("/", s.AuthRequired(), s.AdminRequired(), s.CreateLocation)
	locations.Get("/:id/projects", s.GetLocationProjects)
	locations.Get("/:id/categories/:categoryId/projects", s.GetLocationCategoryProjects)
	locations.Get("/:id/activity", s.GetLocationActivity)
	locations.Get("/:id", s.GetLocation)
	locations.Delete("/:id", s.AuthRequired(), s.AdminRequired(), s.DeleteLocation)

	api.Get("/activities", s.GetActivities)

	// Catalog. /pledges/types lives outside the project tree.
	categories := api.Group("/project-categories")
	categories.Get("/", s.GetCategories)
	categories.Post("/", s.AuthRequired(), s.AdminRequired(), s.CreateCategory)
	categories.Get("/:id", s.GetCategory)
	categories.Delete("/:id", s.AuthRequired(), s.AdminRequired(), s.DeleteCategory)

	pledgeTypes := api.Group("/pledges/types")
	pledgeTypes.Get("/", s.GetPledgeTypes)
	pledgeTypes.Post("/", s.AuthRequired(), s.AdminRequired(), s.CreatePledgeType)
	pledgeTypes.Get("/:id", s.GetPledgeType)
	pledgeTypes.Delete("/:id", s.AuthRequired(), s.AdminRequired(), s.DeletePledgeType)

	// Users
	users := api.Group("/users")
	users.Get("/", s.GetUsers)
	users.Post("/", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	users.Post("/:id/promote-admin", s.AuthRequired(), s.AdminRequired(), s.PromoteToAdmin)
	users.Post("/:id/demote-admin", s.AuthRequired(), s.AdminRequired(), s.DemoteFromAdmin)
	users.Get("/:id", s.GetUser)

	// Account
	account := api.Group("/account", s.AuthRequired())
	account.Get("/", s.GetAccount)
	account.Put("/", s.UpdateAccount)
	account.Delete("/", s.DeleteAccount)
	account.Get("/add-category/:id", s.AddFavouriteCategory)
	account.Get("/remove-category/:id", s.RemoveFavouriteCategory)
}

// HealthCheck handles GET /api/
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Token revocation and rate limits need Redis
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"service": "crelo",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that only lets admins through. It must
// run after AuthRequired.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userID").(uint)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication required"))
		}

		admin, err := s.isAdmin(c.UserContext(), userID)
		if err != nil {
			return s.respondError(c, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}

		return c.Next()
	}
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := middleware.BearerToken(c)
		if raw == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Missing or malformed authorization header"))
		}

		claims, err := middleware.ParseToken(s.config.JWTSecret, raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		if cache.IsTokenRevoked(c.UserContext(), claims.JTI) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token has been revoked"))
		}

		c.Locals("userID", claims.UserID)
		c.Locals("claims", claims)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), claims.UserID))

		return c.Next()
	}
}

// optionalUserID extracts the caller from a valid bearer token without
// requiring one. Invalid or revoked tokens count as anonymous.
func (s *Server) optionalUserID(c *fiber.Ctx) uint {
	raw := middleware.BearerToken(c)
	if raw == "" {
		return 0
	}
	claims, err := middleware.ParseToken(s.config.JWTSecret, raw)
	if err != nil || cache.IsTokenRevoked(c.UserContext(), claims.JTI) {
		return 0
	}
	c.SetUserContext(middleware.WithUserID(c.UserContext(), claims.UserID))
	return claims.UserID
}

// Start builds the fiber app and blocks serving on the configured port.
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName:       "Crelo API",
		StrictRouting: false,
		BodyLimit:     1 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
