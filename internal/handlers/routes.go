package handlers

import "github.com/gofiber/fiber/v2"

type Routes struct {
	Catalog    *CatalogHandler
	Evaluation *EvaluationHandler
	Result     *ResultHandler
	Batch      *BatchHandler
	Ranking    *RankingHandler
}

// RegisterRoutes mounts the org-scoped API on router.
func RegisterRoutes(router fiber.Router, r Routes) {
	router.Put("/jobs/:jobId", r.Catalog.HandlePutJob)
	router.Get("/jobs/:jobId", r.Catalog.HandleGetJob)
	router.Put("/candidates/:candidateId", r.Catalog.HandlePutCandidate)

	router.Post("/evaluations", r.Evaluation.HandleEvaluate)
	router.Get("/evaluations/:id", r.Result.HandleGetResult)
	router.Get("/jobs/:jobId/evaluations", r.Result.HandleListByJob)

	router.Post("/batches", r.Batch.HandleSubmit)
	router.Get("/batches/:id", r.Batch.HandleGet)
	router.Post("/batches/:id/cancel", r.Batch.HandleCancel)
	router.Get("/batches/:id/events", r.Batch.HandleEvents)

	router.Post("/jobs/:jobId/rankings", r.Ranking.HandleRank)
	router.Get("/jobs/:jobId/comparison", r.Ranking.HandleCompare)
}
