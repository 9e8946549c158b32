package services

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"alfredoptarigan/talent-ranker/internal/models"
)

// ComparisonBuilder lays evaluations side by side. It only rearranges
// existing evaluation data.
type ComparisonBuilder struct{}

func NewComparisonBuilder() *ComparisonBuilder {
	return &ComparisonBuilder{}
}

// Build uses the latest evaluation per candidate for jobID; columns are
// ordered by candidate id.
func (b *ComparisonBuilder) Build(jobID string, evaluations []models.Evaluation, criteria []models.Criterion) models.ComparisonView {
	latest := latestPerCandidate(jobID, evaluations)

	view := models.ComparisonView{
		JobID:        jobID,
		CandidateIDs: make([]string, len(latest)),
	}
	for i, eval := range latest {
		view.CandidateIDs[i] = eval.CandidateID
	}

	row := func(key, label string, cell func(models.Evaluation) string) {
		cells := make([]string, len(latest))
		for i, eval := range latest {
			cells[i] = cell(eval)
		}
		view.Rows = append(view.Rows, models.ComparisonRow{Key: key, Label: label, Cells: cells})
	}

	row("overall_score", "Overall score", func(e models.Evaluation) string {
		return fmt.Sprintf("%.2f", e.OverallScore)
	})
	row("qualification_tier", "Tier", func(e models.Evaluation) string {
		return e.QualificationTier.String()
	})
	row("confidence_level", "Confidence", func(e models.Evaluation) string {
		return fmt.Sprintf("%.2f", e.ConfidenceLevel)
	})
	for _, c := range criteria {
		row("criterion:"+c.ID, c.Label(), func(e models.Evaluation) string {
			pct := criterionPercentage(e, c.ID)
			if pct < 0 {
				return ""
			}
			return fmt.Sprintf("%.1f%%", pct)
		})
	}
	row("strengths", "Strengths", func(e models.Evaluation) string {
		return strings.Join(e.Strengths, "; ")
	})
	row("gaps", "Gaps", func(e models.Evaluation) string {
		return strings.Join(e.Gaps, "; ")
	})

	return view
}

// RenderText writes the view as an aligned plain-text table.
func (b *ComparisonBuilder) RenderText(w io.Writer, view models.ComparisonView) error {
	if len(view.CandidateIDs) == 0 {
		_, err := fmt.Fprintln(w, "No evaluations found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "METRIC\t%s\n", strings.Join(view.CandidateIDs, "\t"))
	for _, r := range view.Rows {
		cells := make([]string, len(r.Cells))
		for i, c := range r.Cells {
			if c == "" {
				c = "-"
			}
			cells[i] = c
		}
		fmt.Fprintf(tw, "%s\t%s\n", r.Label, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
