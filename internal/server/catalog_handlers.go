package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetCategories handles GET /api/project-categories
// @Summary List project categories
// @Tags catalog
// @Produce json
// @Success 200 {array} models.ProjectCategory
// @Router /project-categories [get]
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.catalogService.ListCategories(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(categories)
}

// CreateCategory handles POST /api/project-categories
// @Summary Create a project category
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string} true "Category"
// @Success 201 {object} models.ProjectCategory
// @Failure 403 {object} models.ErrorResponse
// @Router /project-categories [post]
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	category, err := s.catalogService.CreateCategory(c.UserContext(), req.Name)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// GetCategory handles GET /api/project-categories/:id
// @Summary Project category detail
// @Tags catalog
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} models.ProjectCategory
// @Failure 404 {object} models.ErrorResponse
// @Router /project-categories/{id} [get]
func (s *Server) GetCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	category, err := s.catalogService.GetCategory(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(category)
}

// DeleteCategory handles DELETE /api/project-categories/:id
// @Summary Delete a project category
// @Description Refused while projects use it
// @Tags catalog
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 204
// @Failure 409 {object} models.ErrorResponse
// @Router /project-categories/{id} [delete]
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.catalogService.DeleteCategory(c.UserContext(), id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetPledgeTypes handles GET /api/pledges/types
// @Summary List pledge types
// @Tags catalog
// @Produce json
// @Success 200 {array} models.PledgeType
// @Router /pledges/types [get]
func (s *Server) GetPledgeTypes(c *fiber.Ctx) error {
	types, err := s.catalogService.ListPledgeTypes(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(types)
}

// CreatePledgeType handles POST /api/pledges/types
// @Summary Create a pledge type
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{type=string} true "Pledge type"
// @Success 201 {object} models.PledgeType
// @Failure 403 {object} models.ErrorResponse
// @Router /pledges/types [post]
func (s *Server) CreatePledgeType(c *fiber.Ctx) error {
	var req struct {
		Type string `json:"type"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	pledgeType, err := s.catalogService.CreatePledgeType(c.UserContext(), req.Type)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(pledgeType)
}

// GetPledgeType handles GET /api/pledges/types/:id
// @Summary Pledge type detail
// @Tags catalog
// @Produce json
// @Param id path int true "Pledge type ID"
// @Success 200 {object} models.PledgeType
// @Failure 404 {object} models.ErrorResponse
// @Router /pledges/types/{id} [get]
func (s *Server) GetPledgeType(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	pledgeType, err := s.catalogService.GetPledgeType(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(pledgeType)
}

// DeletePledgeType handles DELETE /api/pledges/types/:id
// @Summary Delete a pledge type
// @Description Refused while projects or pledges use it
// @Tags catalog
// @Security BearerAuth
// @Param id path int true "Pledge type ID"
// @Success 204
// @Failure 409 {object} models.ErrorResponse
// @Router /pledges/types/{id} [delete]
func (s *Server) DeletePledgeType(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.catalogService.DeletePledgeType(c.UserContext(), id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
