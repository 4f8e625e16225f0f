package server

import (
	"log/slog"

	"crelo/internal/cache"
	"crelo/internal/middleware"
	"crelo/internal/models"
	"crelo/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Token string      `json:"token"`
	User  AccountView `json:"user"`
}

// Signup handles POST /api/auth/signup and POST /api/users
// @Summary User signup
// @Description Register a new user account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,password=string,location_id=int,bio=string,image=string} true "Signup request"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Username   string `json:"username"`
		Email      string `json:"email"`
		Password   string `json:"password"`
		LocationID uint   `json:"location_id"`
		Bio        string `json:"bio"`
		Image      string `json:"image"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.Register(c.UserContext(), service.RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		LocationID: req.LocationID,
		Bio:        req.Bio,
		Image:      req.Image,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(AuthResponse{
		Token: token,
		User:  newAccountView(user, nil, nil),
	})
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return s.respondError(c, err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(AuthResponse{
		Token: token,
		User:  newAccountView(user, nil, nil),
	})
}

// Logout handles POST /api/auth/logout
// @Summary User logout
// @Description Revoke the current access token until it expires
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*middleware.AccessClaims)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authentication required"))
	}

	if err := cache.RevokeToken(c.UserContext(), claims.JTI, claims.ExpiresAt); err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "failed to revoke token",
			slog.String("jti", claims.JTI), slog.String("error", err.Error()))
		return s.respondError(c, models.NewInternalError(err))
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) issueToken(user *models.User) (string, error) {
	token, _, err := middleware.IssueToken(s.config.JWTSecret, user.ID, user.Username, s.now())
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return token, nil
}
