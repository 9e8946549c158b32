package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/talent-ranker/internal/models"
)

func score(id string, raw, max, conf float64) models.CriterionScore {
	return models.CriterionScore{CriterionID: id, RawScore: raw, MaxScore: max, Confidence: conf}
}

func TestAggregateWeighted(t *testing.T) {
	agg := NewScoreAggregator(models.DefaultTierThresholds)

	res, err := agg.Aggregate([]models.CriterionScore{
		score("tech", 80, 100, 0.9),
		score("comm", 60, 100, 0.8),
		score("culture", 90, 100, 0.7),
	}, map[string]float64{"tech": 50, "comm": 20, "culture": 30})

	require.NoError(t, err)
	assert.InDelta(t, 79.0, res.OverallScore, 1e-9)
	assert.InDelta(t, 0.82, res.ConfidenceLevel, 1e-9)
	assert.Equal(t, models.TierQualified, res.QualificationTier)
	assert.Empty(t, res.MissingCriteria)
}

func TestAggregateUnweightedIsMeanOfPercentages(t *testing.T) {
	agg := NewScoreAggregator(models.DefaultTierThresholds)

	res, err := agg.Aggregate([]models.CriterionScore{
		score("a", 9, 10, 1),
		score("b", 3, 5, 0.5),
	}, nil)

	require.NoError(t, err)
	assert.InDelta(t, 75.0, res.OverallScore, 1e-9)
	assert.InDelta(t, 0.75, res.ConfidenceLevel, 1e-9)
	assert.Equal(t, models.TierQualified, res.QualificationTier)
}

func TestAggregateMissingWeightedCriterionCountsAsZero(t *testing.T) {
	agg := NewScoreAggregator(models.DefaultTierThresholds)

	res, err := agg.Aggregate([]models.CriterionScore{
		score("tech", 100, 100, 1),
	}, map[string]float64{"tech": 60, "comm": 40})

	require.NoError(t, err)
	assert.InDelta(t, 60.0, res.OverallScore, 1e-9)
	assert.InDelta(t, 0.6, res.ConfidenceLevel, 1e-9)
	assert.Equal(t, models.TierPartiallyQualified, res.QualificationTier)
	assert.Equal(t, []string{"comm"}, res.MissingCriteria)
}

func TestAggregateIsOrderIndependent(t *testing.T) {
	agg := NewScoreAggregator(models.DefaultTierThresholds)
	scores := []models.CriterionScore{
		score("a", 33.3, 100, 0.31),
		score("b", 66.7, 100, 0.77),
		score("c", 12.5, 50, 0.12),
		score("d", 4, 7, 0.99),
	}
	weights := map[string]float64{"a": 13, "b": 29, "c": 41, "d": 17}

	first, err := agg.Aggregate(scores, weights)
	require.NoError(t, err)

	reversed := []models.CriterionScore{scores[3], scores[2], scores[1], scores[0]}
	second, err := agg.Aggregate(reversed, weights)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAggregateStaysWithinBounds(t *testing.T) {
	agg := NewScoreAggregator(models.DefaultTierThresholds)

	for raw := 0.0; raw <= 7; raw += 0.5 {
		for conf := 0.0; conf <= 1; conf += 0.25 {
			res, err := agg.Aggregate([]models.CriterionScore{
				score("x", raw, 7, conf),
				score("y", 7-raw, 7, 1-conf),
			}, map[string]float64{"x": 3, "y": 1})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, res.OverallScore, 0.0)
			assert.LessOrEqual(t, res.OverallScore, 100.0)
			assert.GreaterOrEqual(t, res.ConfidenceLevel, 0.0)
			assert.LessOrEqual(t, res.ConfidenceLevel, 1.0)
			assert.Equal(t, models.DefaultTierThresholds.Classify(res.OverallScore), res.QualificationTier)
		}
	}
}

func TestAggregateErrors(t *testing.T) {
	agg := NewScoreAggregator(models.DefaultTierThresholds)

	tests := []struct {
		name    string
		scores  []models.CriterionScore
		weights map[string]float64
		want    error
	}{
		{name: "no scores", want: ErrInsufficientData},
		{name: "zero max", scores: []models.CriterionScore{score("a", 0, 0, 1)}, want: ErrInvalidCriterion},
		{name: "raw above max", scores: []models.CriterionScore{score("a", 11, 10, 1)}, want: ErrInvalidCriterion},
		{name: "negative raw", scores: []models.CriterionScore{score("a", -1, 10, 1)}, want: ErrInvalidCriterion},
		{name: "confidence above one", scores: []models.CriterionScore{score("a", 1, 10, 1.5)}, want: ErrInvalidCriterion},
		{name: "duplicate", scores: []models.CriterionScore{score("a", 1, 10, 1), score("a", 2, 10, 1)}, want: ErrInvalidCriterion},
		{name: "negative weight", scores: []models.CriterionScore{score("a", 1, 10, 1)}, weights: map[string]float64{"a": -1}, want: ErrInvalidWeightConfig},
		{name: "zero weights", scores: []models.CriterionScore{score("a", 1, 10, 1)}, weights: map[string]float64{"a": 0}, want: ErrInvalidWeightConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := agg.Aggregate(tt.scores, tt.weights)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
