package server

import (
	"crelo/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProgressUpdates handles GET /api/projects/:id/progress-updates
// @Summary List a project's progress updates
// @Tags progress-updates
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {array} ProgressUpdateView
// @Failure 404 {object} models.ErrorResponse
// @Router /projects/{id}/progress-updates [get]
func (s *Server) GetProgressUpdates(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPaginationLimit)

	updates, err := s.updateService.ListUpdates(c.UserContext(), projectID, page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(newProgressUpdateViews(updates))
}

// CreateProgressUpdate handles POST /api/projects/:id/progress-updates
// @Summary Post a progress update
// @Description Owner only, while the project is open; posts a progress-update activity
// @Tags progress-updates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param request body object{content=string,image=string} true "Update"
// @Success 201 {object} ProgressUpdateView
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /projects/{id}/progress-updates [post]
func (s *Server) CreateProgressUpdate(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
		Image   string `json:"image"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	update, err := s.updateService.CreateUpdate(c.UserContext(), service.CreateProgressUpdateInput{
		UserID:    currentUserID(c),
		ProjectID: projectID,
		Content:   req.Content,
		Image:     req.Image,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(newProgressUpdateView(update))
}

// GetProgressUpdate handles GET /api/projects/:id/progress-updates/:updateId
// @Summary Progress update detail
// @Tags progress-updates
// @Produce json
// @Param id path int true "Project ID"
// @Param updateId path int true "Update ID"
// @Success 200 {object} ProgressUpdateView
// @Failure 404 {object} models.ErrorResponse
// @Router /projects/{id}/progress-updates/{updateId} [get]
func (s *Server) GetProgressUpdate(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	updateID, err := s.parseID(c, "updateId")
	if err != nil {
		return nil
	}

	update, err := s.updateService.GetUpdate(c.UserContext(), projectID, updateID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(newProgressUpdateView(update))
}

// UpdateProgressUpdate handles PUT /api/projects/:id/progress-updates/:updateId
// @Summary Edit a progress update
// @Tags progress-updates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param updateId path int true "Update ID"
// @Success 200 {object} ProgressUpdateView
// @Failure 403 {object} models.ErrorResponse
// @Router /projects/{id}/progress-updates/{updateId} [put]
func (s *Server) UpdateProgressUpdate(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	updateID, err := s.parseID(c, "updateId")
	if err != nil {
		return nil
	}

	var req struct {
		Content *string `json:"content"`
		Image   *string `json:"image"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	update, err := s.updateService.UpdateUpdate(c.UserContext(), service.UpdateProgressUpdateInput{
		UserID:    currentUserID(c),
		ProjectID: projectID,
		UpdateID:  updateID,
		Content:   req.Content,
		Image:     req.Image,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(newProgressUpdateView(update))
}

// DeleteProgressUpdate handles DELETE /api/projects/:id/progress-updates/:updateId
// @Summary Delete a progress update
// @Tags progress-updates
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param updateId path int true "Update ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /projects/{id}/progress-updates/{updateId} [delete]
func (s *Server) DeleteProgressUpdate(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	updateID, err := s.parseID(c, "updateId")
	if err != nil {
		return nil
	}

	if err := s.updateService.DeleteUpdate(c.UserContext(), service.DeleteProgressUpdateInput{
		UserID:    currentUserID(c),
		ProjectID: projectID,
		UpdateID:  updateID,
	}); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
