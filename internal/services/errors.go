package services

import "errors"

var (
	// ErrInsufficientData is returned when there is nothing to aggregate or rank.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidCriterion is returned for malformed criteria or criterion scores.
	ErrInvalidCriterion = errors.New("invalid criterion")
	// ErrEvaluationFailed is returned when every criterion of an evaluation failed.
	ErrEvaluationFailed = errors.New("evaluation failed")
	// ErrInvalidBatchConfig is returned when a batch is rejected at submission.
	ErrInvalidBatchConfig = errors.New("invalid batch config")
	// ErrInvalidWeightConfig is returned when criteria weights are unusable.
	ErrInvalidWeightConfig = errors.New("invalid weight config")
	// ErrInvalidRankingConfig is returned for unknown methods or tie-breaking factors.
	ErrInvalidRankingConfig = errors.New("invalid ranking config")
	ErrSessionNotFound      = errors.New("session not found")
	ErrCandidateNotFound    = errors.New("candidate not found")
	ErrJobNotFound          = errors.New("job not found")
)
