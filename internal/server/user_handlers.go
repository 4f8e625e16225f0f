package server

import (
	"log/slog"

	"crelo/internal/cache"
	"crelo/internal/middleware"
	"crelo/internal/models"
	"crelo/internal/repository"
	"crelo/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUsers handles GET /api/users
// @Summary List users
// @Description Public profiles; emails are never included
// @Tags users
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} UserView
// @Router /users [get]
func (s *Server) GetUsers(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)

	users, err := s.userService.ListUsers(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(newUserViews(users))
}

// GetUser handles GET /api/users/:id
// @Summary Public user profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} UserView
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(newUserView(user))
}

// GetAccount handles GET /api/account
// @Summary Own account
// @Description Profile with email, own projects and own pledges
// @Tags account
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AccountView
// @Router /account [get]
func (s *Server) GetAccount(c *fiber.Ctx) error {
	return s.respondAccount(c, nil)
}

// UpdateAccount handles PUT /api/account
// @Summary Update own account
// @Description Partial update of username, email, bio, image, location_id and password
// @Tags account
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{username=string,email=string,bio=string,image=string,location_id=int,password=string} true "Changes"
// @Success 200 {object} AccountView
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /account [put]
func (s *Server) UpdateAccount(c *fiber.Ctx) error {
	var req struct {
		Username   *string `json:"username"`
		Email      *string `json:"email"`
		Password   *string `json:"password"`
		LocationID *uint   `json:"location_id"`
		Bio        *string `json:"bio"`
		Image      *string `json:"image"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.UpdateAccount(c.UserContext(), service.UpdateAccountInput{
		UserID:     currentUserID(c),
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
	return s.respondAccount(c, user)
}

// DeleteAccount handles DELETE /api/account
// @Summary Delete own account
// @Description Removes the user with their projects and pledges and revokes the token
// @Tags account
// @Security BearerAuth
// @Success 204
// @Router /account [delete]
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	if err := s.userService.DeleteAccount(c.UserContext(), currentUserID(c)); err != nil {
		return s.respondError(c, err)
	}
	if claims, ok := c.Locals("claims").(*middleware.AccessClaims); ok {
		if err := cache.RevokeToken(c.UserContext(), claims.JTI, claims.ExpiresAt); err != nil {
			// The account is already deleted; the request still succeeds.
			middleware.Logger.ErrorContext(c.UserContext(), "failed to revoke token",
				slog.String("jti", claims.JTI), slog.String("error", err.Error()))
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddFavouriteCategory handles GET /api/account/add-category/:id
// @Summary Add a favourite category
// @Tags account
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} AccountView
// @Failure 404 {object} models.ErrorResponse
// @Router /account/add-category/{id} [get]
func (s *Server) AddFavouriteCategory(c *fiber.Ctx) error {
	categoryID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.AddFavouriteCategory(c.UserContext(), currentUserID(c), categoryID)
	if err != nil {
		return s.respondError(c, err)
	}
	return s.respondAccount(c, user)
}

// RemoveFavouriteCategory handles GET /api/account/remove-category/:id
// @Summary Remove a favourite category
// @Tags account
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} AccountView
// @Failure 404 {object} models.ErrorResponse
// @Router /account/remove-category/{id} [get]
func (s *Server) RemoveFavouriteCategory(c *fiber.Ctx) error {
	categoryID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.RemoveFavouriteCategory(c.UserContext(), currentUserID(c), categoryID)
	if err != nil {
		return s.respondError(c, err)
	}
	return s.respondAccount(c, user)
}

// PromoteToAdmin handles POST /api/users/:id/promote-admin
// @Summary Promote a user to admin
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} UserView
// @Failure 403 {object} models.ErrorResponse
// @Router /users/{id}/promote-admin [post]
func (s *Server) PromoteToAdmin(c *fiber.Ctx) error {
	return s.setAdmin(c, true)
}

// DemoteFromAdmin handles POST /api/users/:id/demote-admin
// @Summary Remove admin rights
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} UserView
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /users/{id}/demote-admin [post]
func (s *Server) DemoteFromAdmin(c *fiber.Ctx) error {
	return s.setAdmin(c, false)
}

func (s *Server) setAdmin(c *fiber.Ctx, admin bool) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if !admin && targetID == currentUserID(c) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("You cannot remove your own admin rights"))
	}

	user, err := s.userService.SetAdmin(c.UserContext(), targetID, admin)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(newUserView(user))
}

// respondAccount renders the caller's account view, loading the user when
// the handler has not already done so.
func (s *Server) respondAccount(c *fiber.Ctx, user *models.User) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	if user == nil {
		var err error
		if user, err = s.userService.GetUserByID(ctx, userID); err != nil {
			return s.respondError(c, err)
		}
	}

	projects, err := s.projectService.ListByOwner(ctx, userID, repository.MaxLimit, 0)
	if err != nil {
		return s.respondError(c, err)
	}
	pledges, err := s.pledgeService.ListBySupporter(ctx, userID, repository.MaxLimit, 0)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(newAccountView(user, projects, pledges))
}
