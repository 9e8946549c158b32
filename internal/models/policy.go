package models

import "fmt"

// ScoringPolicy holds every tunable cut-off used when turning criterion
// percentages into tiers, evaluation notes and rankings.
type ScoringPolicy struct {
	Tiers TierThresholds `yaml:"tiers" json:"tiers"`
	// StrengthThreshold: percentage at or above which a criterion is a strength.
	StrengthThreshold float64 `yaml:"strength_threshold" json:"strength_threshold"`
	// GapThreshold: percentage below which a criterion is a gap.
	GapThreshold float64 `yaml:"gap_threshold" json:"gap_threshold"`
	// FocusThreshold: percentage below which a criterion deserves interview time.
	FocusThreshold float64 `yaml:"focus_threshold" json:"focus_threshold"`
	// LowConfidence: scorer confidence below which a criterion deserves interview time.
	LowConfidence   float64 `yaml:"low_confidence" json:"low_confidence"`
	TieEpsilon      float64 `yaml:"tie_epsilon" json:"tie_epsilon"`
	BalancedPenalty float64 `yaml:"balanced_penalty" json:"balanced_penalty"`
}

func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		Tiers:             DefaultTierThresholds,
		StrengthThreshold: 80,
		GapThreshold:      50,
		FocusThreshold:    70,
		LowConfidence:     0.6,
		TieEpsilon:        0.01,
		BalancedPenalty:   0.5,
	}
}

func (p ScoringPolicy) Validate() error {
	if err := p.Tiers.Validate(); err != nil {
		return err
	}
	if p.GapThreshold > p.StrengthThreshold {
		return fmt.Errorf("gap_threshold (%.2f) must not exceed strength_threshold (%.2f)", p.GapThreshold, p.StrengthThreshold)
	}
	if p.LowConfidence < 0 || p.LowConfidence > 1 {
		return fmt.Errorf("low_confidence must be within 0..1, got %.2f", p.LowConfidence)
	}
	if p.TieEpsilon < 0 {
		return fmt.Errorf("tie_epsilon must not be negative")
	}
	if p.BalancedPenalty < 0 {
		return fmt.Errorf("balanced_penalty must not be negative")
	}
	return nil
}
