package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Criterion is one scorable dimension of a job requirement.
type Criterion struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name,omitempty" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description"`
	MaxScore    float64 `json:"max_score" yaml:"max_score"`
	Weight      float64 `json:"weight,omitempty" yaml:"weight"`
}

// Label returns the human readable name, falling back to the id.
func (c Criterion) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// CriterionScore is one criterion's raw result as produced by a scorer.
// It is treated as immutable once produced.
type CriterionScore struct {
	CriterionID   string   `json:"criterion_id"`
	RawScore      float64  `json:"raw_score"`
	MaxScore      float64  `json:"max_score"`
	Confidence    float64  `json:"confidence"`
	Justification string   `json:"justification"`
	Evidence      []string `json:"evidence"`
}

// Percentage returns RawScore relative to MaxScore in 0..100.
// Callers must have validated MaxScore > 0.
func (s CriterionScore) Percentage() float64 {
	return s.RawScore / s.MaxScore * 100
}

// CriterionScoreMap is keyed by criterion id and stored as a JSON column.
type CriterionScoreMap map[string]CriterionScore

func (m CriterionScoreMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal criterion scores: %w", err)
	}
	return string(data), nil
}

func (m *CriterionScoreMap) Scan(src interface{}) error {
	return scanJSON(src, m)
}

// StringList is an ordered list of text stored as a JSON column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal string list: %w", err)
	}
	return string(data), nil
}

func (l *StringList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// CriteriaList is the ordered set of criteria attached to a job.
type CriteriaList []Criterion

func (l CriteriaList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal criteria: %w", err)
	}
	return string(data), nil
}

func (l *CriteriaList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

func scanJSON(src interface{}, target interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into %T", src, target)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", target, err)
	}
	return nil
}
