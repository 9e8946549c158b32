package models

type EvaluateRequest struct {
	CandidateID        string `json:"candidate_id" validate:"required"`
	JobID              string `json:"job_id" validate:"required"`
	CustomInstructions string `json:"custom_instructions,omitempty"`
}

type BatchRequest struct {
	JobID              string   `json:"job_id" validate:"required"`
	CandidateIDs       []string `json:"candidate_ids" validate:"required"`
	Concurrency        int      `json:"concurrency"`
	CustomInstructions string   `json:"custom_instructions,omitempty"`
}

type EvaluationListResponse struct {
	JobID       string       `json:"job_id"`
	Evaluations []Evaluation `json:"evaluations"`
}

// ComparisonView is a side-by-side table of evaluations for one job.
type ComparisonView struct {
	JobID        string          `json:"job_id"`
	CandidateIDs []string        `json:"candidate_ids"`
	Rows         []ComparisonRow `json:"rows"`
}

// ComparisonRow holds one metric across candidates. Cells align with
// ComparisonView.CandidateIDs; an empty cell means the value is missing.
type ComparisonRow struct {
	Key   string   `json:"key"`
	Label string   `json:"label"`
	Cells []string `json:"cells"`
}
