package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Evaluation is one candidate×job evaluation run. Rows are append-only:
// re-evaluating a candidate creates a new Evaluation.
type Evaluation struct {
	ID                  uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	OrgID               string            `gorm:"type:text;not null;index:idx_evaluations_scope" json:"org_id"`
	CandidateID         string            `gorm:"type:text;not null;index:idx_evaluations_scope" json:"candidate_id"`
	JobID               string            `gorm:"type:text;not null;index:idx_evaluations_scope" json:"job_id"`
	Scores              CriterionScoreMap `gorm:"type:text" json:"scores"`
	OverallScore        float64           `json:"overall_score"`
	ConfidenceLevel     float64           `json:"confidence_level"`
	QualificationTier   QualificationTier `gorm:"type:text;not null" json:"qualification_tier"`
	Strengths           StringList        `gorm:"type:text" json:"strengths"`
	Gaps                StringList        `gorm:"type:text" json:"gaps"`
	InterviewFocusAreas StringList        `gorm:"type:text" json:"interview_focus_areas"`
	Recommendations     string            `gorm:"type:text" json:"recommendations"`
	MissingCriteria     StringList        `gorm:"type:text" json:"missing_criteria,omitempty"`
	Notes               string            `gorm:"type:text" json:"notes,omitempty"`
	AIModel             string            `gorm:"type:text" json:"ai_model"`
	CreatedAt           time.Time         `json:"created_at"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}

func (e *Evaluation) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
