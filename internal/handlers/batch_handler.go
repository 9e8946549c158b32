package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/talent-ranker/internal/logger"
	"alfredoptarigan/talent-ranker/internal/models"
	"alfredoptarigan/talent-ranker/internal/repositories"
	"alfredoptarigan/talent-ranker/internal/services"
)

type BatchHandler struct {
	jobRepo repositories.JobRepository
	batches services.BatchOrchestrator
	log     *zap.Logger
}

func NewBatchHandler(jobRepo repositories.JobRepository, batches services.BatchOrchestrator, log *zap.Logger) *BatchHandler {
	return &BatchHandler{
		jobRepo: jobRepo,
		batches: batches,
		log:     logger.WithFields(log),
	}
}

// HandleSubmit handles POST /batches
func (h *BatchHandler) HandleSubmit(c *fiber.Ctx) error {
	var req models.BatchRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	if strings.TrimSpace(req.JobID) == "" {
		return badRequest(c, "job_id is required")
	}

	org := orgID(c)
	job, err := loadJob(c.UserContext(), h.jobRepo, org, req.JobID)
	if err != nil {
		return respondError(c, err)
	}

	session, err := h.batches.Submit(c.UserContext(), services.BatchRequest{
		OrgID:              org,
		JobID:              job.ID,
		JobTitle:           job.Title,
		CandidateIDs:       req.CandidateIDs,
		Concurrency:        req.Concurrency,
		Criteria:           job.Criteria,
		Weights:            job.Weights(),
		CustomInstructions: req.CustomInstructions,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(session)
}

// HandleGet handles GET /batches/:id
func (h *BatchHandler) HandleGet(c *fiber.Ctx) error {
	session, err := h.batches.Get(orgID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(session)
}

// HandleCancel handles POST /batches/:id/cancel
func (h *BatchHandler) HandleCancel(c *fiber.Ctx) error {
	session, err := h.batches.Cancel(orgID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(session)
}

// HandleEvents handles GET /batches/:id/events as a server-sent event stream.
// The stream opens with a snapshot, relays progress events and ends with the
// final session state.
func (h *BatchHandler) HandleEvents(c *fiber.Ctx) error {
	org := orgID(c)
	sessionID := c.Params("id")

	events, unsubscribe, err := h.batches.Subscribe(org, sessionID)
	if err != nil {
		return respondError(c, err)
	}
	snapshot, err := h.batches.Get(org, sessionID)
	if err != nil {
		unsubscribe()
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	log := h.log.With(zap.String(logger.FieldSession, sessionID))
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		if err := writeEvent(w, "snapshot", snapshot); err != nil {
			return
		}
		for event := range events {
			if err := writeEvent(w, "progress", event); err != nil {
				log.Debug("event stream closed by client", zap.Error(err))
				return
			}
		}

		final, err := h.batches.Get(org, sessionID)
		if err != nil {
			return
		}
		_ = writeEvent(w, "done", final)
	})

	return nil
}

func writeEvent(w *bufio.Writer, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	return w.Flush()
}
