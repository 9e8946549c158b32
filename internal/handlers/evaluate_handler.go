package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/talent-ranker/internal/models"
	"alfredoptarigan/talent-ranker/internal/repositories"
	"alfredoptarigan/talent-ranker/internal/services"
)

type EvaluationHandler struct {
	jobRepo   repositories.JobRepository
	evaluator services.EvaluatorService
}

func NewEvaluationHandler(
	jobRepo repositories.JobRepository,
	evaluator services.EvaluatorService,
) *EvaluationHandler {
	return &EvaluationHandler{
		jobRepo:   jobRepo,
		evaluator: evaluator,
	}
}

// HandleEvaluate handles POST /evaluations. The evaluation runs in the
// request and the stored record is returned.
func (h *EvaluationHandler) HandleEvaluate(c *fiber.Ctx) error {
	var req models.EvaluateRequest

	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	if strings.TrimSpace(req.CandidateID) == "" {
		return badRequest(c, "candidate_id is required")
	}

	if strings.TrimSpace(req.JobID) == "" {
		return badRequest(c, "job_id is required")
	}

	org := orgID(c)
	job, err := loadJob(c.UserContext(), h.jobRepo, org, req.JobID)
	if err != nil {
		return respondError(c, err)
	}

	evaluation, err := h.evaluator.Evaluate(c.UserContext(), services.EvaluationRequest{
		OrgID:              org,
		CandidateID:        req.CandidateID,
		JobID:              job.ID,
		JobTitle:           job.Title,
		Criteria:           job.Criteria,
		Weights:            job.Weights(),
		CustomInstructions: req.CustomInstructions,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(evaluation)
}
