package models

// RankingMethod selects how a candidate's final score is computed.
type RankingMethod string

const (
	MethodWeightedAverage   RankingMethod = "weighted_average"
	MethodTopScorePriority  RankingMethod = "top_score_priority"
	MethodBalancedScorecard RankingMethod = "balanced_scorecard"
)

func (m RankingMethod) Valid() bool {
	switch m {
	case MethodWeightedAverage, MethodTopScorePriority, MethodBalancedScorecard:
		return true
	}
	return false
}

// RankingCriteria configures one ranking run. It is not persisted.
type RankingCriteria struct {
	JobID                   string             `json:"job_id"`
	CriteriaWeights         map[string]float64 `json:"criteria_weights"`
	RankingMethod           RankingMethod      `json:"ranking_method"`
	IncludeDiversityFactors bool               `json:"include_diversity_factors"`
	TieBreakingFactors      []string           `json:"tie_breaking_factors"`
	Notes                   string             `json:"notes,omitempty"`
}

type RankedCandidate struct {
	CandidateID    string             `json:"candidate_id"`
	EvaluationID   string             `json:"evaluation_id"`
	Rank           int                `json:"rank"`
	FinalScore     float64            `json:"final_score"`
	ScoreBreakdown map[string]float64 `json:"score_breakdown"`
	Justification  string             `json:"justification"`
}

// RankingResult is a pure projection of evaluations and criteria; it holds no
// timestamps so identical inputs serialize identically.
type RankingResult struct {
	JobID                   string             `json:"job_id"`
	RankedCandidates        []RankedCandidate  `json:"ranked_candidates"`
	Methodology             string             `json:"methodology"`
	RankingMethod           RankingMethod      `json:"ranking_method"`
	IncludeDiversityFactors bool               `json:"include_diversity_factors"`
	CriteriaWeights         map[string]float64 `json:"criteria_weights"`
	ConfidenceLevel         float64            `json:"confidence_level"`
}
