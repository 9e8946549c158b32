package models

import (
	"time"
)

// Candidate is the read model the engine needs about an applicant. Profile
// text is produced by an upstream extraction step.
type Candidate struct {
	ID                 string    `gorm:"type:text;primaryKey" json:"id"`
	OrgID              string    `gorm:"type:text;primaryKey" json:"org_id"`
	Name               string    `gorm:"type:text" json:"name"`
	Profile            string    `gorm:"type:text" json:"profile"`
	YearsExperience    float64   `json:"years_experience"`
	CertificationCount int       `json:"certification_count"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Candidate) TableName() string {
	return "candidates"
}

// Attributes returns the secondary facts used for ranking tie-breaks.
func (c Candidate) Attributes() CandidateAttributes {
	return CandidateAttributes{
		YearsExperience:    c.YearsExperience,
		CertificationCount: c.CertificationCount,
	}
}

// CandidateAttributes carries non-score facts about a candidate.
type CandidateAttributes struct {
	YearsExperience    float64 `json:"years_experience"`
	CertificationCount int     `json:"certification_count"`
}

// Job is a posting with its scoring criteria.
type Job struct {
	ID          string       `gorm:"type:text;primaryKey" json:"id"`
	OrgID       string       `gorm:"type:text;primaryKey" json:"org_id"`
	Title       string       `gorm:"type:text" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Criteria    CriteriaList `gorm:"type:text" json:"criteria"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

// Weights returns the per-criterion weights declared on the job, or nil when
// no criterion carries a weight.
func (j Job) Weights() map[string]float64 {
	var weights map[string]float64
	for _, c := range j.Criteria {
		if c.Weight <= 0 {
			continue
		}
		if weights == nil {
			weights = make(map[string]float64, len(j.Criteria))
		}
		weights[c.ID] = c.Weight
	}
	return weights
}
