package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/talent-ranker/internal/services"
)

var rubricFlags struct {
	job   string
	files []string
	reset bool
}

var rubricCmd = &cobra.Command{
	Use:   "rubric",
	Short: "Embed job rubric text files into the vector store",
	Long:  "Chunks each plain-text file, embeds the chunks with Gemini and stores them\nin Qdrant under the given org and job. Scorers retrieve them as job context.",
	RunE:  runRubric,
}

func init() {
	f := rubricCmd.Flags()
	f.StringVar(&rubricFlags.job, "job", "", "Job id (required)")
	f.StringSliceVarP(&rubricFlags.files, "file", "f", nil, "Rubric text file, repeatable")
	f.BoolVar(&rubricFlags.reset, "reset", false, "Delete the job's stored chunks before ingesting")
	_ = rubricCmd.MarkFlagRequired("job")
}

func runRubric(cmd *cobra.Command, _ []string) error {
	if len(rubricFlags.files) == 0 && !rubricFlags.reset {
		return fmt.Errorf("at least one --file is required unless --reset is given")
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	gemini, err := services.NewGeminiService(ctx, services.GeminiOptions{
		APIKey:     cfg.Gemini.APIKey,
		Model:      cfg.Gemini.Model,
		EmbedModel: cfg.Gemini.EmbedModel,
		RetryDelay: cfg.Worker.RetryInitialDelay,
	}, log)
	if err != nil {
		return err
	}

	store, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
	if err != nil {
		return err
	}
	if err := store.InitCollection(ctx); err != nil {
		return err
	}

	retriever := services.NewJobContextRetriever(gemini, store, log)
	out := cmd.OutOrStdout()

	if rubricFlags.reset {
		if err := retriever.Reset(ctx, rootFlags.org, rubricFlags.job); err != nil {
			return fmt.Errorf("reset job context: %w", err)
		}
		fmt.Fprintf(out, "Cleared stored context for job %s\n", rubricFlags.job)
	}

	failed := 0
	for _, path := range rubricFlags.files {
		text, err := os.ReadFile(path)
		if err != nil {
			log.Error("failed to read rubric file", zap.String("path", path), zap.Error(err))
			failed++
			continue
		}

		n, err := retriever.Ingest(ctx, rootFlags.org, rubricFlags.job, filepath.Base(path), string(text))
		if err != nil {
			log.Error("failed to ingest rubric file", zap.String("path", path), zap.Int("stored", n), zap.Error(err))
			failed++
			continue
		}
		fmt.Fprintf(out, "%s: %d chunks stored\n", path, n)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to ingest", failed, len(rubricFlags.files))
	}
	return nil
}
