package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"alfredoptarigan/talent-ranker/internal/config"
	"alfredoptarigan/talent-ranker/internal/repositories"
	"alfredoptarigan/talent-ranker/internal/services"
)

var compareFlags struct {
	job        string
	candidates []string
	jsonOut    bool
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Print the latest evaluations of a job side by side",
	RunE:  runCompare,
}

func init() {
	f := compareCmd.Flags()
	f.StringVar(&compareFlags.job, "job", "", "Job id (required)")
	f.StringSliceVar(&compareFlags.candidates, "candidates", nil, "Restrict to these candidate ids")
	f.BoolVar(&compareFlags.jsonOut, "json", false, "Emit JSON instead of a table")
	_ = compareCmd.MarkFlagRequired("job")
}

func runCompare(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	job, err := repositories.NewJobRepository(db).FindByID(ctx, rootFlags.org, compareFlags.job)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("job %s not found for org %s", compareFlags.job, rootFlags.org)
		}
		return err
	}

	evaluations, err := repositories.NewEvaluationRepository(db).FindLatestByJob(ctx, rootFlags.org, job.ID, compareFlags.candidates)
	if err != nil {
		return err
	}

	builder := services.NewComparisonBuilder()
	view := builder.Build(job.ID, evaluations, job.Criteria)

	if compareFlags.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	return builder.RenderText(cmd.OutOrStdout(), view)
}
