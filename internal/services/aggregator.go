package services

import (
	"fmt"
	"math"
	"sort"

	"alfredoptarigan/talent-ranker/internal/models"
)

type ScoreAggregator interface {
	Aggregate(scores []models.CriterionScore, weights map[string]float64) (*AggregateResult, error)
}

// AggregateResult is the combined outcome for one candidate against one job.
type AggregateResult struct {
	OverallScore      float64
	ConfidenceLevel   float64
	QualificationTier models.QualificationTier
	// MissingCriteria lists weighted criteria that had no score. They were
	// counted as zero, not dropped from the denominator.
	MissingCriteria []string
}

type scoreAggregator struct {
	tiers models.TierThresholds
}

func NewScoreAggregator(tiers models.TierThresholds) ScoreAggregator {
	return &scoreAggregator{tiers: tiers}
}

// Aggregate implements ScoreAggregator.
func (a *scoreAggregator) Aggregate(scores []models.CriterionScore, weights map[string]float64) (*AggregateResult, error) {
	if len(scores) == 0 {
		return nil, fmt.Errorf("%w: no criterion scores to aggregate", ErrInsufficientData)
	}

	byID := make(map[string]models.CriterionScore, len(scores))
	for _, s := range scores {
		if err := validateCriterionScore(s); err != nil {
			return nil, err
		}
		if _, dup := byID[s.CriterionID]; dup {
			return nil, fmt.Errorf("%w: duplicate score for criterion %q", ErrInvalidCriterion, s.CriterionID)
		}
		byID[s.CriterionID] = s
	}

	var (
		overall, confidence float64
		missing             []string
	)

	if weights == nil {
		// Sorted so float summation order does not depend on input order.
		ids := sortedKeys(byID)
		for _, id := range ids {
			overall += byID[id].Percentage()
			confidence += byID[id].Confidence
		}
		n := float64(len(ids))
		overall /= n
		confidence /= n
	} else {
		var total float64
		for id, w := range weights {
			if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, fmt.Errorf("%w: weight for %q must be a non-negative number, got %v", ErrInvalidWeightConfig, id, w)
			}
			total += w
		}
		if total == 0 {
			return nil, fmt.Errorf("%w: weights sum to zero", ErrInvalidWeightConfig)
		}

		for _, id := range sortedKeys(weights) {
			w := weights[id]
			s, ok := byID[id]
			if !ok {
				missing = append(missing, id)
				continue
			}
			overall += s.Percentage() * w
			confidence += s.Confidence * w
		}
		overall /= total
		confidence /= total
	}

	overall = clamp(roundTo(overall, 2), 0, 100)
	confidence = clamp(roundTo(confidence, 4), 0, 1)

	return &AggregateResult{
		OverallScore:      overall,
		ConfidenceLevel:   confidence,
		QualificationTier: a.tiers.Classify(overall),
		MissingCriteria:   missing,
	}, nil
}

func validateCriterionScore(s models.CriterionScore) error {
	if s.CriterionID == "" {
		return fmt.Errorf("%w: criterion score without id", ErrInvalidCriterion)
	}
	if !(s.MaxScore > 0) {
		return fmt.Errorf("%w: criterion %q has max_score %v", ErrInvalidCriterion, s.CriterionID, s.MaxScore)
	}
	if s.RawScore < 0 || s.RawScore > s.MaxScore || math.IsNaN(s.RawScore) {
		return fmt.Errorf("%w: criterion %q raw_score %v outside 0..%v", ErrInvalidCriterion, s.CriterionID, s.RawScore, s.MaxScore)
	}
	if s.Confidence < 0 || s.Confidence > 1 || math.IsNaN(s.Confidence) {
		return fmt.Errorf("%w: criterion %q confidence %v outside 0..1", ErrInvalidCriterion, s.CriterionID, s.Confidence)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
