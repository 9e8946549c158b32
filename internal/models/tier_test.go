package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  QualificationTier
	}{
		{100, TierHighlyQualified},
		{85, TierHighlyQualified},
		{84.99, TierQualified},
		{70, TierQualified},
		{69.99, TierPartiallyQualified},
		{50, TierPartiallyQualified},
		{49.99, TierNotQualified},
		{0, TierNotQualified},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultTierThresholds.Classify(tt.score), "score %.2f", tt.score)
	}
}

func TestTierOrdering(t *testing.T) {
	assert.Less(t, TierNotQualified, TierPartiallyQualified)
	assert.Less(t, TierPartiallyQualified, TierQualified)
	assert.Less(t, TierQualified, TierHighlyQualified)
}

func TestTierThresholdsValidate(t *testing.T) {
	assert.NoError(t, DefaultTierThresholds.Validate())
	assert.Error(t, TierThresholds{HighlyQualified: 70, Qualified: 70, PartiallyQualified: 50}.Validate())
	assert.Error(t, TierThresholds{HighlyQualified: 120, Qualified: 70, PartiallyQualified: 50}.Validate())
	assert.Error(t, TierThresholds{HighlyQualified: 85, Qualified: 70, PartiallyQualified: -1}.Validate())
}

func TestTierWireFormat(t *testing.T) {
	data, err := json.Marshal(struct {
		Tier QualificationTier `json:"tier"`
	}{TierPartiallyQualified})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tier":"partially_qualified"}`, string(data))

	var tier QualificationTier
	require.NoError(t, json.Unmarshal([]byte(`"highly_qualified"`), &tier))
	assert.Equal(t, TierHighlyQualified, tier)

	assert.Error(t, json.Unmarshal([]byte(`"superstar"`), &tier))
	assert.Error(t, json.Unmarshal([]byte(`3`), &tier))

	_, err = json.Marshal(QualificationTier(9))
	assert.Error(t, err)
}

func TestTierScan(t *testing.T) {
	var tier QualificationTier
	require.NoError(t, tier.Scan([]byte("qualified")))
	assert.Equal(t, TierQualified, tier)

	v, err := TierNotQualified.Value()
	require.NoError(t, err)
	assert.Equal(t, "not_qualified", v)

	assert.Error(t, tier.Scan(42))
}

func TestScoringPolicyValidate(t *testing.T) {
	policy := DefaultScoringPolicy()
	require.NoError(t, policy.Validate())

	bad := policy
	bad.GapThreshold = 90
	assert.Error(t, bad.Validate())

	bad = policy
	bad.LowConfidence = 1.5
	assert.Error(t, bad.Validate())

	bad = policy
	bad.TieEpsilon = -0.01
	assert.Error(t, bad.Validate())
}

func TestProgressTransitions(t *testing.T) {
	assert.True(t, ProgressQueued.CanTransition(ProgressProcessing))
	assert.True(t, ProgressQueued.CanTransition(ProgressFailed))
	assert.False(t, ProgressQueued.CanTransition(ProgressCompleted))
	assert.True(t, ProgressProcessing.CanTransition(ProgressCompleted))
	assert.False(t, ProgressCompleted.CanTransition(ProgressFailed))
	assert.False(t, ProgressFailed.CanTransition(ProgressProcessing))
	assert.True(t, ProgressFailed.Terminal())
	assert.False(t, ProgressProcessing.Terminal())
}

func TestJobWeights(t *testing.T) {
	assert.Nil(t, Job{Criteria: CriteriaList{{ID: "a", MaxScore: 10}}}.Weights())
	assert.Equal(t,
		map[string]float64{"a": 3},
		Job{Criteria: CriteriaList{{ID: "a", MaxScore: 10, Weight: 3}, {ID: "b", MaxScore: 10}}}.Weights(),
	)
}
