package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"alfredoptarigan/talent-ranker/internal/config"
	"alfredoptarigan/talent-ranker/internal/models"
	"alfredoptarigan/talent-ranker/internal/repositories"
	"alfredoptarigan/talent-ranker/internal/services"
)

var jobFlags struct {
	file string
}

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Create or replace a job and its criteria from a YAML file",
	RunE:  runJob,
}

func init() {
	f := jobCmd.Flags()
	f.StringVarP(&jobFlags.file, "file", "f", "", "Job definition YAML (required)")
	_ = jobCmd.MarkFlagRequired("file")
}

// jobFile is the on-disk job definition.
type jobFile struct {
	ID          string             `yaml:"id"`
	Title       string             `yaml:"title"`
	Description string             `yaml:"description"`
	Criteria    []models.Criterion `yaml:"criteria"`
}

func parseJobFile(data []byte, orgID string) (*models.Job, error) {
	var def jobFile
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse job file: %w", err)
	}
	if def.ID == "" || def.Title == "" {
		return nil, errors.New("job file needs both id and title")
	}

	job := &models.Job{
		ID:          def.ID,
		OrgID:       orgID,
		Title:       def.Title,
		Description: def.Description,
		Criteria:    def.Criteria,
	}
	if err := services.ValidateCriteria(job.Criteria, job.Weights()); err != nil {
		return nil, err
	}
	return job, nil
}

func runJob(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	data, err := os.ReadFile(jobFlags.file)
	if err != nil {
		return fmt.Errorf("read job file: %w", err)
	}
	job, err := parseJobFile(data, rootFlags.org)
	if err != nil {
		return err
	}

	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		return err
	}
	if err := repositories.NewJobRepository(db).Upsert(cmd.Context(), job); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved job %s (%s) with %d criteria\n", job.ID, job.Title, len(job.Criteria))
	return nil
}
