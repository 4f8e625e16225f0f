package server

import (
	"time"

	"crelo/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProjects handles GET /api/projects
// @Summary List projects
// @Description All projects, newest first
// @Tags projects
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} ProjectView
// @Router /projects [get]
func (s *Server) GetProjects(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)

	projects, err := s.projectService.ListProjects(c.UserContext(), service.ListProjectsInput{
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(newProjectViews(projects))
}

// CreateProject handles POST /api/projects
// @Summary Create a project
// @Description Creates a project owned by the caller and posts a project-created activity
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{title=string,venue=string,description=string,goal_amount=int,image=string,due_date=string,location_id=int,category_id=int,pledge_type_id=int} true "Project"
// @Success 201 {object} ProjectView
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /projects [post]
func (s *Server) CreateProject(c *fiber.Ctx) error {
	var req struct {
		Title        string    `json:"title"`
		Venue        string    `json:"venue"`
		Description  string    `json:"description"`
		GoalAmount   int64     `json:"goal_amount"`
		Image        string    `json:"image"`
		DueDate      time.Time `json:"due_date"`
		LocationID   uint      `json:"location_id"`
		CategoryID   uint      `json:"category_id"`
		PledgeTypeID uint      `json:"pledge_type_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	stats, err := s.projectService.CreateProject(c.UserContext(), service.CreateProjectInput{
		OwnerID:      currentUserID(c),
		Title:        req.Title,
		Venue:        req.Venue,
		Description:  req.Description,
		GoalAmount:   req.GoalAmount,
		Image:        req.Image,
		DueDate:      req.DueDate,
		LocationID:   req.LocationID,
		CategoryID:   req.CategoryID,
		PledgeTypeID: req.PledgeTypeID,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(newProjectView(*stats))
}

// GetFavouriteProjects handles GET /api/projects/favourites
// @Summary Favourite-category projects
// @Description Open projects in the caller's location (or location_id) whose category is a favourite
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param location query int false "Location override"
// @Param location_id query int false "Alias of location"
// @Success 200 {array} ProjectView
// @Router /projects/favourites [get]
func (s *Server) GetFavouriteProjects(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)
	locationID := c.QueryInt("location", c.QueryInt("location_id", 0))
	if locationID < 0 {
		locationID = 0
	}

	projects, err := s.projectService.ListFavourites(c.UserContext(), service.FavouriteProjectsInput{
		UserID:     currentUserID(c),
		LocationID: uint(locationID),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(newProjectViews(projects))
}

// GetProject handles GET /api/projects/:id
// @Summary Project detail
// @Description Project with pledges, progress updates and activities. Pledges and progress updates are capped at the newest 100; page through /projects/{id}/pledges and /projects/{id}/progress-updates for the rest. pledge_count always counts every pledge. Non-owners increment the view count; the owner receives analytics.
// @Tags projects
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} ProjectDetailView
// @Failure 404 {object} models.ErrorResponse
// @Router /projects/{id} [get]
func (s *Server) GetProject(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.projectService.GetProject(c.UserContext(), service.GetProjectInput{
		ProjectID: id,
		ViewerID:  s.optionalUserID(c),
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(newProjectDetailView(detail))
}

// UpdateProject handles PUT /api/projects/:id
// @Summary Update a project
// @Description Partial update by the owner; milestone and last-chance state are re-evaluated
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} ProjectView
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /projects/{id} [put]
func (s *Server) UpdateProject(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title        *string    `json:"title"`
		Venue        *string    `json:"venue"`
		Description  *string    `json:"description"`
		GoalAmount   *int64     `json:"goal_amount"`
		Image        *string    `json:"image"`
		DueDate      *time.Time `json:"due_date"`
		CategoryID   *uint      `json:"category_id"`
		PledgeTypeID *uint      `json:"pledge_type_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	stats, err := s.projectService.UpdateProject(c.UserContext(), service.UpdateProjectInput{
		UserID:       currentUserID(c),
		ProjectID:    id,
		Title:        req.Title,
		Venue:        req.Venue,
		Description:  req.Description,
		GoalAmount:   req.GoalAmount,
		Image:        req.Image,
		DueDate:      req.DueDate,
		CategoryID:   req.CategoryID,
		PledgeTypeID: req.PledgeTypeID,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(newProjectView(*stats))
}

// DeleteProject handles DELETE /api/projects/:id
// @Summary Delete a project
// @Description Owner or admin; removes pledges, updates and activities too
// @Tags projects
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /projects/{id} [delete]
func (s *Server) DeleteProject(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.projectService.DeleteProject(c.UserContext(), service.DeleteProjectInput{
		UserID:    currentUserID(c),
		ProjectID: id,
	}); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
