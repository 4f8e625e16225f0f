package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetLocations handles GET /api/locations
// @Summary List locations
// @Tags locations
// @Produce json
// @Success 200 {array} models.Location
// @Router /locations [get]
func (s *Server) GetLocations(c *fiber.Ctx) error {
	locations, err := s.catalogService.ListLocations(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(locations)
}

// CreateLocation handles POST /api/locations
// @Summary Create a location
// @Tags locations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string} true "Location"
// @Success 201 {object} models.Location
// @Failure 403 {object} models.ErrorResponse
// @Router /locations [post]
func (s *Server) CreateLocation(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	location, err := s.catalogService.CreateLocation(c.UserContext(), req.Name)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(location)
}

// GetLocation handles GET /api/locations/:id
// @Summary Location detail
// @Tags locations
// @Produce json
// @Param id path int true "Location ID"
// @Success 200 {object} models.Location
// @Failure 404 {object} models.ErrorResponse
// @Router /locations/{id} [get]
func (s *Server) GetLocation(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	location, err := s.catalogService.GetLocation(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(location)
}

// DeleteLocation handles DELETE /api/locations/:id
// @Summary Delete a location
// @Description Refused while users live there; its projects and feed go with it
// @Tags locations
// @Security BearerAuth
// @Param id path int true "Location ID"
// @Success 204
// @Failure 409 {object} models.ErrorResponse
// @Router /locations/{id} [delete]
func (s *Server) DeleteLocation(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.catalogService.DeleteLocation(c.UserContext(), id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetLocationProjects handles GET /api/locations/:id/projects
// @Summary Open projects in a location
// @Tags locations
// @Produce json
// @Param id path int true "Location ID"
// @Success 200 {array} ProjectView
// @Failure 404 {object} models.ErrorResponse
// @Router /locations/{id}/projects [get]
func (s *Server) GetLocationProjects(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPaginationLimit)

	projects, err := s.projectService.ListOpenByLocation(c.UserContext(), id, page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(newProjectViews(projects))
}

// GetLocationCategoryProjects handles GET /api/locations/:id/categories/:categoryId/projects
// @Summary Open projects in a location and category
// @Tags locations
// @Produce json
// @Param id path int true "Location ID"
// @Param categoryId path int true "Category ID"
// @Success 200 {array} ProjectView
// @Failure 404 {object} models.ErrorResponse
// @Router /locations/{id}/categories/{categoryId}/projects [get]
func (s *Server) GetLocationCategoryProjects(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	categoryID, err := s.parseID(c, "categoryId")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPaginationLimit)

	projects, err := s.projectService.ListOpenByLocationAndCategory(c.UserContext(), id, categoryID, page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(newProjectViews(projects))
}

// GetLocationActivity handles GET /api/locations/:id/activity
// @Summary Location activity feed
// @Tags activities
// @Produce json
// @Param id path int true "Location ID"
// @Success 200 {array} ActivityView
// @Failure 404 {object} models.ErrorResponse
// @Router /locations/{id}/activity [get]
func (s *Server) GetLocationActivity(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPaginationLimit)

	activities, err := s.activityService.LocationFeed(c.UserContext(), id, page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(newActivityViews(activities))
}

// GetActivities handles GET /api/activities
// @Summary Global activity feed
// @Tags activities
// @Produce json
// @Success 200 {array} ActivityView
// @Router /activities [get]
func (s *Server) GetActivities(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)

	activities, err := s.activityService.GlobalFeed(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(newActivityViews(activities))
}
