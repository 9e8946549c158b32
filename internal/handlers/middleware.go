package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/talent-ranker/internal/repositories"
	"alfredoptarigan/talent-ranker/internal/services"
)

const (
	OrgHeader = "X-Org-ID"

	orgLocalKey = "org_id"
)

// RequireOrg rejects requests without an organization header. Every
// downstream lookup is scoped to that organization.
func RequireOrg() fiber.Handler {
	return func(c *fiber.Ctx) error {
		org := strings.TrimSpace(c.Get(OrgHeader))
		if org == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": OrgHeader + " header is required",
			})
		}
		c.Locals(orgLocalKey, org)
		return c.Next()
	}
}

func orgID(c *fiber.Ctx) string {
	org, _ := c.Locals(orgLocalKey).(string)
	return org
}

// respondError maps service and repository errors onto HTTP status codes.
func respondError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInsufficientData),
		errors.Is(err, services.ErrInvalidCriterion),
		errors.Is(err, services.ErrInvalidWeightConfig),
		errors.Is(err, services.ErrInvalidBatchConfig),
		errors.Is(err, services.ErrInvalidRankingConfig):
		code = fiber.StatusBadRequest
	case errors.Is(err, services.ErrCandidateNotFound),
		errors.Is(err, services.ErrJobNotFound),
		errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, repositories.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, services.ErrEvaluationFailed):
		code = fiber.StatusBadGateway
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}
