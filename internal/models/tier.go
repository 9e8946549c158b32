package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// QualificationTier is ordered: a higher value is a better qualification.
type QualificationTier int

const (
	TierNotQualified QualificationTier = iota
	TierPartiallyQualified
	TierQualified
	TierHighlyQualified
)

var tierNames = map[QualificationTier]string{
	TierNotQualified:       "not_qualified",
	TierPartiallyQualified: "partially_qualified",
	TierQualified:          "qualified",
	TierHighlyQualified:    "highly_qualified",
}

func (t QualificationTier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

func (t QualificationTier) Valid() bool {
	_, ok := tierNames[t]
	return ok
}

// ParseQualificationTier converts the wire representation back into a tier.
func ParseQualificationTier(s string) (QualificationTier, error) {
	for tier, name := range tierNames {
		if name == s {
			return tier, nil
		}
	}
	return TierNotQualified, fmt.Errorf("unknown qualification tier %q", s)
}

func (t QualificationTier) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid qualification tier %d", int(t))
	}
	return json.Marshal(t.String())
}

func (t *QualificationTier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("qualification tier must be a string: %w", err)
	}
	parsed, err := ParseQualificationTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores the tier as its string name.
func (t QualificationTier) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot store invalid qualification tier %d", int(t))
	}
	return t.String(), nil
}

func (t *QualificationTier) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into qualification tier", src)
	}
	parsed, err := ParseQualificationTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TierThresholds maps minimum overall scores (percent) to tiers. Anything
// below the lowest threshold is TierNotQualified.
type TierThresholds struct {
	HighlyQualified    float64 `yaml:"highly_qualified" json:"highly_qualified"`
	Qualified          float64 `yaml:"qualified" json:"qualified"`
	PartiallyQualified float64 `yaml:"partially_qualified" json:"partially_qualified"`
}

// DefaultTierThresholds is the single table used to classify overall scores.
var DefaultTierThresholds = TierThresholds{
	HighlyQualified:    85,
	Qualified:          70,
	PartiallyQualified: 50,
}

func (th TierThresholds) Validate() error {
	if th.PartiallyQualified < 0 || th.HighlyQualified > 100 {
		return fmt.Errorf("tier thresholds must lie within 0..100")
	}
	if !(th.HighlyQualified > th.Qualified && th.Qualified > th.PartiallyQualified) {
		return fmt.Errorf("tier thresholds must be strictly descending: highly_qualified=%.2f qualified=%.2f partially_qualified=%.2f",
			th.HighlyQualified, th.Qualified, th.PartiallyQualified)
	}
	return nil
}

// Classify returns the tier for an overall score.
func (th TierThresholds) Classify(overallScore float64) QualificationTier {
	switch {
	case overallScore >= th.HighlyQualified:
		return TierHighlyQualified
	case overallScore >= th.Qualified:
		return TierQualified
	case overallScore >= th.PartiallyQualified:
		return TierPartiallyQualified
	default:
		return TierNotQualified
	}
}
