package models

import (
	"time"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

type ProgressStatus string

const (
	ProgressQueued     ProgressStatus = "queued"
	ProgressProcessing ProgressStatus = "processing"
	ProgressCompleted  ProgressStatus = "completed"
	ProgressFailed     ProgressStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s ProgressStatus) Terminal() bool {
	return s == ProgressCompleted || s == ProgressFailed
}

// CanTransition enforces queued → processing → completed|failed. A queued
// item may also fail directly when its batch is cancelled.
func (s ProgressStatus) CanTransition(to ProgressStatus) bool {
	switch s {
	case ProgressQueued:
		return to == ProgressProcessing || to == ProgressFailed
	case ProgressProcessing:
		return to == ProgressCompleted || to == ProgressFailed
	}
	return false
}

// EvaluationProgress tracks one candidate within a batch.
type EvaluationProgress struct {
	EvaluationID        string         `json:"evaluation_id,omitempty"`
	CandidateID         string         `json:"candidate_id"`
	Status              ProgressStatus `json:"status"`
	ProgressPercentage  float64        `json:"progress_percentage"`
	Stage               string         `json:"stage"`
	ErrorMessage        string         `json:"error_message,omitempty"`
	StartedAt           *time.Time     `json:"started_at,omitempty"`
	EstimatedCompletion *time.Time     `json:"estimated_completion,omitempty"`
}

// EvaluationSession is the live state of one batch run.
type EvaluationSession struct {
	ID              string               `json:"id"`
	OrgID           string               `json:"org_id"`
	JobID           string               `json:"job_id"`
	TotalCandidates int                  `json:"total_candidates"`
	CompletedCount  int                  `json:"completed_count"`
	FailedCount     int                  `json:"failed_count"`
	Status          SessionStatus        `json:"status"`
	CancelRequested bool                 `json:"cancel_requested"`
	Concurrency     int                  `json:"concurrency"`
	CreatedAt       time.Time            `json:"created_at"`
	FinishedAt      *time.Time           `json:"finished_at,omitempty"`
	Items           []EvaluationProgress `json:"items"`
}

// Finished reports whether the session has reached a terminal status.
func (s *EvaluationSession) Finished() bool {
	return s.Status == SessionCompleted || s.Status == SessionCancelled
}

// Clone returns a deep copy safe to hand out while the original is mutated.
func (s *EvaluationSession) Clone() EvaluationSession {
	out := *s
	out.Items = make([]EvaluationProgress, len(s.Items))
	for i, item := range s.Items {
		out.Items[i] = item
		if item.StartedAt != nil {
			t := *item.StartedAt
			out.Items[i].StartedAt = &t
		}
		if item.EstimatedCompletion != nil {
			t := *item.EstimatedCompletion
			out.Items[i].EstimatedCompletion = &t
		}
	}
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		out.FinishedAt = &t
	}
	return out
}

// ProgressEvent is pushed to subscribers whenever a session item changes.
type ProgressEvent struct {
	SessionID      string             `json:"session_id"`
	Item           EvaluationProgress `json:"item"`
	CompletedCount int                `json:"completed_count"`
	FailedCount    int                `json:"failed_count"`
	Status         SessionStatus      `json:"status"`
}
