package services

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"alfredoptarigan/talent-ranker/internal/models"
)

const (
	FactorYearsExperience    = "years_experience"
	FactorCertificationCount = "certification_count"
	FactorConfidence         = "confidence"
	FactorOverallScore       = "overall_score"
	FactorMostStrengths      = "most_strengths"
	FactorFewestGaps         = "fewest_gaps"
	// FactorCriterionPrefix selects a single criterion's percentage, e.g. "criterion:tech".
	FactorCriterionPrefix = "criterion:"

	weightSumTolerance = 1e-6
)

// RankingEngine orders candidates for a job. It is a pure computation:
// identical inputs always produce an identical result.
type RankingEngine interface {
	Rank(jobID string, evaluations []models.Evaluation, criteria models.RankingCriteria, attributes map[string]models.CandidateAttributes) (*models.RankingResult, error)
}

type rankingEngine struct {
	policy models.ScoringPolicy
}

func NewRankingEngine(policy models.ScoringPolicy) RankingEngine {
	return &rankingEngine{policy: policy}
}

type rankEntry struct {
	eval      models.Evaluation
	attrs     models.CandidateAttributes
	pcts      map[string]float64
	missing   []string
	weighted  float64
	final     float64
	// secondary orders tied entries before any tie-breaking factor; only
	// top_score_priority sets it.
	secondary float64
	tiedWith  int
}

// tieBreaker returns a negative number when a should rank before b.
type tieBreaker func(a, b *rankEntry) int

func (r *rankingEngine) Rank(jobID string, evaluations []models.Evaluation, criteria models.RankingCriteria, attributes map[string]models.CandidateAttributes) (*models.RankingResult, error) {
	method, err := validateRankingCriteria(jobID, criteria)
	if err != nil {
		return nil, err
	}
	breakers, err := resolveTieBreakers(criteria.TieBreakingFactors)
	if err != nil {
		return nil, err
	}

	latest := latestPerCandidate(jobID, evaluations)
	if len(latest) == 0 {
		return nil, fmt.Errorf("%w: no evaluations for job %s", ErrInsufficientData, jobID)
	}

	criterionIDs := sortedKeys(criteria.CriteriaWeights)
	entries := make([]*rankEntry, 0, len(latest))
	for _, eval := range latest {
		entry := &rankEntry{
			eval:  eval,
			attrs: attributes[eval.CandidateID],
			pcts:  make(map[string]float64, len(criterionIDs)),
		}
		r.score(entry, method, criterionIDs, criteria.CriteriaWeights)
		entries = append(entries, entry)
	}

	r.order(entries, breakers)

	result := &models.RankingResult{
		JobID:                   jobID,
		RankedCandidates:        make([]models.RankedCandidate, 0, len(entries)),
		Methodology:             r.methodology(method, criteria),
		RankingMethod:           method,
		IncludeDiversityFactors: criteria.IncludeDiversityFactors,
		CriteriaWeights:         copyWeights(criteria.CriteriaWeights),
	}

	var confidence float64
	for i, entry := range entries {
		breakdown := make(map[string]float64, len(criterionIDs))
		for _, id := range criterionIDs {
			breakdown[id] = roundTo(entry.pcts[id], 2)
		}
		result.RankedCandidates = append(result.RankedCandidates, models.RankedCandidate{
			CandidateID:    entry.eval.CandidateID,
			EvaluationID:   entry.eval.ID.String(),
			Rank:           i + 1,
			FinalScore:     roundTo(entry.final, 2),
			ScoreBreakdown: breakdown,
			Justification:  r.justify(entry, method, criterionIDs, criteria.TieBreakingFactors),
		})
		confidence += entry.eval.ConfidenceLevel
	}
	result.ConfidenceLevel = roundTo(confidence/float64(len(entries)), 4)

	return result, nil
}

func validateRankingCriteria(jobID string, criteria models.RankingCriteria) (models.RankingMethod, error) {
	if criteria.JobID != "" && criteria.JobID != jobID {
		return "", fmt.Errorf("%w: criteria are for job %s, not %s", ErrInvalidRankingConfig, criteria.JobID, jobID)
	}

	method := criteria.RankingMethod
	if method == "" {
		method = models.MethodWeightedAverage
	}
	if !method.Valid() {
		return "", fmt.Errorf("%w: unknown ranking method %q", ErrInvalidRankingConfig, method)
	}

	if len(criteria.CriteriaWeights) == 0 {
		return "", fmt.Errorf("%w: criteria_weights must not be empty", ErrInvalidWeightConfig)
	}
	var sum float64
	for _, id := range sortedKeys(criteria.CriteriaWeights) {
		w := criteria.CriteriaWeights[id]
		if math.IsNaN(w) || w < 0 || w > 100 {
			return "", fmt.Errorf("%w: weight for %q must be within 0..100, got %v", ErrInvalidWeightConfig, id, w)
		}
		sum += w
	}
	if math.Abs(sum-100) > weightSumTolerance {
		return "", fmt.Errorf("%w: weights sum to %v, expected 100", ErrInvalidWeightConfig, sum)
	}
	return method, nil
}

func resolveTieBreakers(factors []string) ([]tieBreaker, error) {
	breakers := make([]tieBreaker, 0, len(factors))
	for _, factor := range factors {
		switch {
		case factor == FactorYearsExperience:
			breakers = append(breakers, func(a, b *rankEntry) int {
				return cmp.Compare(b.attrs.YearsExperience, a.attrs.YearsExperience)
			})
		case factor == FactorCertificationCount:
			breakers = append(breakers, func(a, b *rankEntry) int {
				return cmp.Compare(b.attrs.CertificationCount, a.attrs.CertificationCount)
			})
		case factor == FactorConfidence:
			breakers = append(breakers, func(a, b *rankEntry) int {
				return cmp.Compare(b.eval.ConfidenceLevel, a.eval.ConfidenceLevel)
			})
		case factor == FactorOverallScore:
			breakers = append(breakers, func(a, b *rankEntry) int {
				return cmp.Compare(b.eval.OverallScore, a.eval.OverallScore)
			})
		case factor == FactorMostStrengths:
			breakers = append(breakers, func(a, b *rankEntry) int {
				return cmp.Compare(len(b.eval.Strengths), len(a.eval.Strengths))
			})
		case factor == FactorFewestGaps:
			breakers = append(breakers, func(a, b *rankEntry) int {
				return cmp.Compare(len(a.eval.Gaps), len(b.eval.Gaps))
			})
		case strings.HasPrefix(factor, FactorCriterionPrefix) && len(factor) > len(FactorCriterionPrefix):
			id := strings.TrimPrefix(factor, FactorCriterionPrefix)
			breakers = append(breakers, func(a, b *rankEntry) int {
				return cmp.Compare(criterionPercentage(b.eval, id), criterionPercentage(a.eval, id))
			})
		default:
			return nil, fmt.Errorf("%w: unknown tie-breaking factor %q", ErrInvalidRankingConfig, factor)
		}
	}
	return breakers, nil
}

// latestPerCandidate keeps the newest evaluation of each candidate for jobID.
// Equal timestamps resolve to the greater evaluation id.
func latestPerCandidate(jobID string, evaluations []models.Evaluation) []models.Evaluation {
	latest := make(map[string]models.Evaluation)
	for _, eval := range evaluations {
		if eval.JobID != jobID {
			continue
		}
		current, ok := latest[eval.CandidateID]
		if !ok || eval.CreatedAt.After(current.CreatedAt) ||
			(eval.CreatedAt.Equal(current.CreatedAt) && eval.ID.String() > current.ID.String()) {
			latest[eval.CandidateID] = eval
		}
	}

	out := make([]models.Evaluation, 0, len(latest))
	for _, id := range sortedKeys(latest) {
		out = append(out, latest[id])
	}
	return out
}

func (r *rankingEngine) score(entry *rankEntry, method models.RankingMethod, criterionIDs []string, weights map[string]float64) {
	var weighted, top float64
	for _, id := range criterionIDs {
		pct := criterionPercentage(entry.eval, id)
		if pct < 0 {
			entry.missing = append(entry.missing, id)
			pct = 0
		}
		entry.pcts[id] = pct
		weighted += pct * weights[id]
		if weights[id] > 0 && pct > top {
			top = pct
		}
	}
	weighted /= 100
	entry.weighted = weighted

	switch method {
	case models.MethodTopScorePriority:
		entry.final = top
		entry.secondary = weighted
	case models.MethodBalancedScorecard:
		var variance float64
		for _, id := range criterionIDs {
			d := entry.pcts[id] - weighted
			variance += d * d * weights[id]
		}
		variance /= 100
		entry.final = math.Max(0, weighted-r.policy.BalancedPenalty*math.Sqrt(variance))
	default:
		entry.final = weighted
	}
}

// order sorts entries into their final, total order. Scores are grouped
// against each group's leading score so grouping does not chain past epsilon.
func (r *rankingEngine) order(entries []*rankEntry, breakers []tieBreaker) {
	slices.SortFunc(entries, func(a, b *rankEntry) int {
		if c := cmp.Compare(b.final, a.final); c != 0 {
			return c
		}
		return strings.Compare(a.eval.CandidateID, b.eval.CandidateID)
	})

	tie := func(a, b *rankEntry) int {
		if c := cmp.Compare(b.secondary, a.secondary); c != 0 {
			return c
		}
		for _, breaker := range breakers {
			if c := breaker(a, b); c != 0 {
				return c
			}
		}
		return strings.Compare(a.eval.CandidateID, b.eval.CandidateID)
	}

	for i := 0; i < len(entries); {
		j := i + 1
		for j < len(entries) && entries[i].final-entries[j].final < r.policy.TieEpsilon {
			j++
		}
		if j-i > 1 {
			group := entries[i:j]
			slices.SortFunc(group, tie)
			for _, e := range group {
				e.tiedWith = j - i - 1
			}
		}
		i = j
	}
}

func (r *rankingEngine) justify(entry *rankEntry, method models.RankingMethod, criterionIDs []string, factors []string) string {
	var parts []string
	switch method {
	case models.MethodTopScorePriority:
		parts = append(parts, fmt.Sprintf("top criterion score %.2f%%, weighted average %.2f%%", entry.final, entry.weighted))
	case models.MethodBalancedScorecard:
		parts = append(parts, fmt.Sprintf("weighted average %.2f%% adjusted to %.2f for score spread", entry.weighted, entry.final))
	default:
		parts = append(parts, fmt.Sprintf("weighted average %.2f%% across %d criteria", entry.weighted, len(criterionIDs)))
	}

	best, bestPct := "", -1.0
	for _, id := range criterionIDs {
		if slices.Contains(entry.missing, id) {
			continue
		}
		if entry.pcts[id] > bestPct {
			best, bestPct = id, entry.pcts[id]
		}
	}
	if best != "" {
		parts = append(parts, fmt.Sprintf("strongest: %s (%.2f%%)", best, bestPct))
	}
	if len(entry.missing) > 0 {
		parts = append(parts, fmt.Sprintf("not scored: %s (counted as 0)", strings.Join(entry.missing, ", ")))
	}
	if entry.tiedWith > 0 {
		order := "candidate id"
		if len(factors) > 0 {
			order = strings.Join(factors, ", ") + ", then candidate id"
		}
		if method == models.MethodTopScorePriority {
			order = "weighted average, " + order
		}
		parts = append(parts, fmt.Sprintf("tied within %.2f with %d other candidate(s); ordered by %s", r.policy.TieEpsilon, entry.tiedWith, order))
	}
	return strings.Join(parts, "; ")
}

func (r *rankingEngine) methodology(method models.RankingMethod, criteria models.RankingCriteria) string {
	var b strings.Builder
	switch method {
	case models.MethodTopScorePriority:
		b.WriteString("Top score priority: final score is the highest weighted criterion percentage; the weighted average orders candidates with equal top scores.")
	case models.MethodBalancedScorecard:
		fmt.Fprintf(&b, "Balanced scorecard: final score is the weighted average minus %.2f times the weighted standard deviation across criteria.", r.policy.BalancedPenalty)
	default:
		b.WriteString("Weighted average: final score is the sum of criterion percentages times their weights, divided by 100.")
	}

	weights := make([]string, 0, len(criteria.CriteriaWeights))
	for _, id := range sortedKeys(criteria.CriteriaWeights) {
		weights = append(weights, fmt.Sprintf("%s=%g", id, criteria.CriteriaWeights[id]))
	}
	fmt.Fprintf(&b, " Weights: %s.", strings.Join(weights, ", "))
	b.WriteString(" Criteria without a score count as 0.")

	fmt.Fprintf(&b, " Scores within %.2f are tied", r.policy.TieEpsilon)
	if len(criteria.TieBreakingFactors) > 0 {
		fmt.Fprintf(&b, " and ordered by %s", strings.Join(criteria.TieBreakingFactors, ", "))
	}
	b.WriteString("; remaining ties are ordered by candidate id.")

	if criteria.IncludeDiversityFactors {
		b.WriteString(" Diversity factors were requested; no diversity adjustment is applied.")
	}
	if notes := strings.TrimSpace(criteria.Notes); notes != "" {
		fmt.Fprintf(&b, " Notes: %s", notes)
	}
	return b.String()
}

// criterionPercentage returns -1 when the criterion has no usable score.
func criterionPercentage(eval models.Evaluation, id string) float64 {
	s, ok := eval.Scores[id]
	if !ok || !(s.MaxScore > 0) {
		return -1
	}
	return clamp(s.Percentage(), 0, 100)
}

func copyWeights(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
