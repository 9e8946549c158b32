package services

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/talent-ranker/internal/models"
)

func TestComparisonBuild(t *testing.T) {
	older := rankEval("bob", 2*time.Hour, map[string]float64{"tech": 10})
	bob := rankEval("bob", time.Hour, map[string]float64{"tech": 75})
	bob.OverallScore = 75
	bob.QualificationTier = models.TierQualified
	bob.Gaps = models.StringList{"Communication (0%)"}

	alice := rankEval("alice", time.Hour, map[string]float64{"tech": 90, "comm": 85.5})
	alice.OverallScore = 87.75
	alice.QualificationTier = models.TierHighlyQualified
	alice.Strengths = models.StringList{"Technical skills (90%)", "Communication (86%)"}

	criteria := []models.Criterion{
		{ID: "tech", Name: "Technical skills", MaxScore: 100},
		{ID: "comm", MaxScore: 100},
	}

	view := NewComparisonBuilder().Build("job-1", []models.Evaluation{bob, older, alice}, criteria)

	want := models.ComparisonView{
		JobID:        "job-1",
		CandidateIDs: []string{"alice", "bob"},
		Rows: []models.ComparisonRow{
			{Key: "overall_score", Label: "Overall score", Cells: []string{"87.75", "75.00"}},
			{Key: "qualification_tier", Label: "Tier", Cells: []string{"highly_qualified", "qualified"}},
			{Key: "confidence_level", Label: "Confidence", Cells: []string{"0.80", "0.80"}},
			{Key: "criterion:tech", Label: "Technical skills", Cells: []string{"90.0%", "75.0%"}},
			{Key: "criterion:comm", Label: "comm", Cells: []string{"85.5%", ""}},
			{Key: "strengths", Label: "Strengths", Cells: []string{"Technical skills (90%); Communication (86%)", ""}},
			{Key: "gaps", Label: "Gaps", Cells: []string{"", "Communication (0%)"}},
		},
	}
	if diff := cmp.Diff(want, view); diff != "" {
		t.Fatalf("unexpected view (-want +got):\n%s", diff)
	}
}

func TestComparisonRenderText(t *testing.T) {
	builder := NewComparisonBuilder()
	view := models.ComparisonView{
		JobID:        "job-1",
		CandidateIDs: []string{"alice", "bob"},
		Rows: []models.ComparisonRow{
			{Key: "overall_score", Label: "Overall score", Cells: []string{"87.75", "75.00"}},
			{Key: "criterion:comm", Label: "comm", Cells: []string{"85.5%", ""}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, builder.RenderText(&buf, view))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"METRIC", "alice", "bob"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"comm", "85.5%", "-"}, strings.Fields(lines[2]))
	// Columns are aligned.
	assert.Equal(t, strings.Index(lines[0], "alice"), strings.Index(lines[1], "87.75"))

	buf.Reset()
	require.NoError(t, builder.RenderText(&buf, models.ComparisonView{JobID: "job-1"}))
	assert.Equal(t, "No evaluations found.\n", buf.String())
}
