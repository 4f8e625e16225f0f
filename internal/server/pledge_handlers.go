package server

import (
	"crelo/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPledges handles GET /api/projects/:id/pledges
// @Summary List a project's pledges
// @Tags pledges
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {array} PledgeView
// @Failure 404 {object} models.ErrorResponse
// @Router /projects/{id}/pledges [get]
func (s *Server) GetPledges(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPaginationLimit)

	pledges, err := s.pledgeService.ListPledges(c.UserContext(), projectID, page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(newPledgeViews(pledges))
}

// CreatePledge handles POST /api/projects/:id/pledges
// @Summary Pledge to a project
// @Description The project must be open; crossing a milestone posts activities
// @Tags pledges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param request body object{amount=int,comment=string,anonymous=bool} true "Pledge"
// @Success 201 {object} PledgeView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /projects/{id}/pledges [post]
func (s *Server) CreatePledge(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Amount    int64  `json:"amount"`
		Comment   string `json:"comment"`
		Anonymous bool   `json:"anonymous"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	pledge, err := s.pledgeService.CreatePledge(c.UserContext(), service.CreatePledgeInput{
		SupporterID: currentUserID(c),
		ProjectID:   projectID,
		Amount:      req.Amount,
		Comment:     req.Comment,
		Anonymous:   req.Anonymous,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(newPledgeView(pledge))
}

// GetPledge handles GET /api/projects/:id/pledges/:pledgeId
// @Summary Pledge detail
// @Tags pledges
// @Produce json
// @Param id path int true "Project ID"
// @Param pledgeId path int true "Pledge ID"
// @Success 200 {object} PledgeView
// @Failure 404 {object} models.ErrorResponse
// @Router /projects/{id}/pledges/{pledgeId} [get]
func (s *Server) GetPledge(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	pledgeID, err := s.parseID(c, "pledgeId")
	if err != nil {
		return nil
	}

	pledge, err := s.pledgeService.GetPledge(c.UserContext(), projectID, pledgeID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(newPledgeView(pledge))
}

// DeletePledge handles DELETE /api/projects/:id/pledges/:pledgeId
// @Summary Withdraw a pledge
// @Description Supporter or admin; milestones that are no longer reached are retracted
// @Tags pledges
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param pledgeId path int true "Pledge ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /projects/{id}/pledges/{pledgeId} [delete]
func (s *Server) DeletePledge(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	pledgeID, err := s.parseID(c, "pledgeId")
	if err != nil {
		return nil
	}

	if err := s.pledgeService.DeletePledge(c.UserContext(), service.DeletePledgeInput{
		UserID:    currentUserID(c),
		ProjectID: projectID,
		PledgeID:  pledgeID,
	}); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
