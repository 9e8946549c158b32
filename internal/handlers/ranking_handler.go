package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/talent-ranker/internal/models"
	"alfredoptarigan/talent-ranker/internal/repositories"
	"alfredoptarigan/talent-ranker/internal/services"
)

type RankingHandler struct {
	jobRepo       repositories.JobRepository
	evalRepo      repositories.EvaluationRepository
	candidateRepo repositories.CandidateRepository
	engine        services.RankingEngine
	comparison    *services.ComparisonBuilder
}

func NewRankingHandler(
	jobRepo repositories.JobRepository,
	evalRepo repositories.EvaluationRepository,
	candidateRepo repositories.CandidateRepository,
	engine services.RankingEngine,
	comparison *services.ComparisonBuilder,
) *RankingHandler {
	return &RankingHandler{
		jobRepo:       jobRepo,
		evalRepo:      evalRepo,
		candidateRepo: candidateRepo,
		engine:        engine,
		comparison:    comparison,
	}
}

// HandleRank handles POST /jobs/:jobId/rankings
func (h *RankingHandler) HandleRank(c *fiber.Ctx) error {
	var criteria models.RankingCriteria
	if err := c.BodyParser(&criteria); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	jobID := c.Params("jobId")
	if criteria.JobID != "" && criteria.JobID != jobID {
		return badRequest(c, "job_id does not match the request path")
	}
	criteria.JobID = jobID

	ctx := c.UserContext()
	org := orgID(c)
	if _, err := loadJob(ctx, h.jobRepo, org, jobID); err != nil {
		return respondError(c, err)
	}

	evaluations, err := h.evalRepo.FindLatestByJob(ctx, org, jobID, nil)
	if err != nil {
		return respondError(c, err)
	}

	ids := make([]string, len(evaluations))
	for i, eval := range evaluations {
		ids[i] = eval.CandidateID
	}
	attributes, err := h.candidateRepo.FindAttributes(ctx, org, ids)
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.engine.Rank(jobID, evaluations, criteria, attributes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// HandleCompare handles GET /jobs/:jobId/comparison?candidates=a,b. With
// format=text the view is rendered as a plain-text table.
func (h *RankingHandler) HandleCompare(c *fiber.Ctx) error {
	ctx := c.UserContext()
	org := orgID(c)
	jobID := c.Params("jobId")

	job, err := loadJob(ctx, h.jobRepo, org, jobID)
	if err != nil {
		return respondError(c, err)
	}

	var candidateIDs []string
	for _, id := range strings.Split(c.Query("candidates"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			candidateIDs = append(candidateIDs, id)
		}
	}

	evaluations, err := h.evalRepo.FindLatestByJob(ctx, org, jobID, candidateIDs)
	if err != nil {
		return respondError(c, err)
	}

	view := h.comparison.Build(jobID, evaluations, job.Criteria)
	if c.Query("format") == "text" {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return h.comparison.RenderText(c.Response().BodyWriter(), view)
	}
	return c.JSON(view)
}
