package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/talent-ranker/internal/models"
	"alfredoptarigan/talent-ranker/internal/repositories"
	"alfredoptarigan/talent-ranker/internal/services"
)

// CatalogHandler stores the jobs and candidate profiles evaluations read from.
type CatalogHandler struct {
	jobRepo       repositories.JobRepository
	candidateRepo repositories.CandidateRepository
}

func NewCatalogHandler(jobRepo repositories.JobRepository, candidateRepo repositories.CandidateRepository) *CatalogHandler {
	return &CatalogHandler{
		jobRepo:       jobRepo,
		candidateRepo: candidateRepo,
	}
}

// HandlePutJob handles PUT /jobs/:jobId
func (h *CatalogHandler) HandlePutJob(c *fiber.Ctx) error {
	var job models.Job
	if err := c.BodyParser(&job); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	job.ID = c.Params("jobId")
	job.OrgID = orgID(c)
	if strings.TrimSpace(job.Title) == "" {
		return badRequest(c, "title is required")
	}
	if err := services.ValidateCriteria(job.Criteria, job.Weights()); err != nil {
		return respondError(c, err)
	}

	if err := h.jobRepo.Upsert(c.UserContext(), &job); err != nil {
		return respondError(c, err)
	}
	return c.JSON(job)
}

// HandleGetJob handles GET /jobs/:jobId
func (h *CatalogHandler) HandleGetJob(c *fiber.Ctx) error {
	job, err := loadJob(c.UserContext(), h.jobRepo, orgID(c), c.Params("jobId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(job)
}

// HandlePutCandidate handles PUT /candidates/:candidateId
func (h *CatalogHandler) HandlePutCandidate(c *fiber.Ctx) error {
	var candidate models.Candidate
	if err := c.BodyParser(&candidate); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	candidate.ID = c.Params("candidateId")
	candidate.OrgID = orgID(c)
	if strings.TrimSpace(candidate.Profile) == "" {
		return badRequest(c, "profile is required")
	}
	if candidate.YearsExperience < 0 || candidate.CertificationCount < 0 {
		return badRequest(c, "years_experience and certification_count must not be negative")
	}

	if err := h.candidateRepo.Upsert(c.UserContext(), &candidate); err != nil {
		return respondError(c, err)
	}
	return c.JSON(candidate)
}

func loadJob(ctx context.Context, jobRepo repositories.JobRepository, orgID, jobID string) (*models.Job, error) {
	job, err := jobRepo.FindByID(ctx, orgID, jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", services.ErrJobNotFound, jobID)
		}
		return nil, err
	}
	return job, nil
}
