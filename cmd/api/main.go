package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/talent-ranker/internal/config"
	"alfredoptarigan/talent-ranker/internal/handlers"
	"alfredoptarigan/talent-ranker/internal/logger"
	"alfredoptarigan/talent-ranker/internal/models"
	"alfredoptarigan/talent-ranker/internal/repositories"
	"alfredoptarigan/talent-ranker/internal/services"
)

func main() {
	cfg, envFound := config.Load()

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if !envFound {
		log.Info("no .env file found, using environment and defaults")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	policy, err := config.LoadScoringPolicy(cfg.Engine.ScoringConfigPath)
	if err != nil {
		log.Fatal("failed to load scoring policy", zap.Error(err))
	}

	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}

	candidateRepo := repositories.NewCandidateRepository(db)
	jobRepo := repositories.NewJobRepository(db)
	evalRepo := repositories.NewEvaluationRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	geminiService, err := services.NewGeminiService(ctx, services.GeminiOptions{
		APIKey:     cfg.Gemini.APIKey,
		Model:      cfg.Gemini.Model,
		EmbedModel: cfg.Gemini.EmbedModel,
		RetryDelay: cfg.Worker.RetryInitialDelay,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize gemini", zap.Error(err))
	}

	// Job context retrieval is optional: without Qdrant the scorer works from
	// the criterion text alone.
	var retriever services.ContextRetriever
	qdrantService, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
	if err == nil {
		err = qdrantService.InitCollection(ctx)
	}
	if err != nil {
		log.Warn("qdrant unavailable, job context retrieval disabled", zap.Error(err))
	} else {
		retriever = services.NewJobContextRetriever(geminiService, qdrantService, log)
	}

	scorer := services.NewGeminiScorer(geminiService, retriever, cfg.Worker.RetryMaxAttempts, log)
	evaluator := services.NewEvaluatorService(scorer, candidateRepo, evalRepo, services.EvaluatorOptions{
		ScorerTimeout: cfg.Engine.ScorerTimeout,
		FanOut:        cfg.Engine.CriterionFanOut,
		Policy:        policy,
	}, log)

	batches := services.NewBatchOrchestrator(evaluator, services.BatchOptions{
		Retention: cfg.Engine.SessionRetention,
		OnFinish: func(s models.EvaluationSession) {
			log.Info("batch session finished",
				zap.String(logger.FieldSession, s.ID),
				zap.String(logger.FieldJob, s.JobID),
				zap.String("status", string(s.Status)),
				zap.Int("completed", s.CompletedCount),
				zap.Int("failed", s.FailedCount),
			)
		},
	}, log)
	batches.Start(ctx)

	catalogHandler := handlers.NewCatalogHandler(jobRepo, candidateRepo)
	evaluateHandler := handlers.NewEvaluationHandler(jobRepo, evaluator)
	resultHandler := handlers.NewResultHandler(evalRepo)
	batchHandler := handlers.NewBatchHandler(jobRepo, batches, log)
	rankingHandler := handlers.NewRankingHandler(
		jobRepo,
		evalRepo,
		candidateRepo,
		services.NewRankingEngine(policy),
		services.NewComparisonBuilder(),
	)

	app := fiber.New(fiber.Config{
		AppName:      "Talent Ranker API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + handlers.OrgHeader,
	}))

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	scoped := api.Group("", handlers.RequireOrg())
	handlers.RegisterRoutes(scoped, handlers.Routes{
		Catalog:    catalogHandler,
		Evaluation: evaluateHandler,
		Result:     resultHandler,
		Batch:      batchHandler,
		Ranking:    rankingHandler,
	})

	go func() {
		<-ctx.Done()
		log.Info("shutting down server")
		batches.Stop()
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Server.Env))

	if err := app.Listen(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
