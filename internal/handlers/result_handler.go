package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/talent-ranker/internal/models"
	"alfredoptarigan/talent-ranker/internal/repositories"
)

type ResultHandler struct {
	evalRepo repositories.EvaluationRepository
}

func NewResultHandler(evalRepo repositories.EvaluationRepository) *ResultHandler {
	return &ResultHandler{
		evalRepo: evalRepo,
	}
}

// HandleGetResult handles GET /evaluations/:id
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	evalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid evaluation ID format")
	}

	evaluation, err := h.evalRepo.FindByID(c.UserContext(), orgID(c), evalID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(evaluation)
}

// HandleListByJob handles GET /jobs/:jobId/evaluations. The full history is
// returned, oldest first.
func (h *ResultHandler) HandleListByJob(c *fiber.Ctx) error {
	jobID := c.Params("jobId")

	evaluations, err := h.evalRepo.FindByJob(c.UserContext(), orgID(c), jobID)
	if err != nil {
		return respondError(c, err)
	}
	if evaluations == nil {
		evaluations = []models.Evaluation{}
	}

	return c.JSON(models.EvaluationListResponse{
		JobID:       jobID,
		Evaluations: evaluations,
	})
}
