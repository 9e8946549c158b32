package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/talent-ranker/internal/models"
)

// EvaluationRepository is append-only: evaluations are never updated.
type EvaluationRepository interface {
	Create(ctx context.Context, eval *models.Evaluation) error
	FindByID(ctx context.Context, orgID string, id uuid.UUID) (*models.Evaluation, error)
	FindByJob(ctx context.Context, orgID, jobID string) ([]models.Evaluation, error)
	FindLatestByJob(ctx context.Context, orgID, jobID string, candidateIDs []string) ([]models.Evaluation, error)
}

type evaluationRepository struct {
	db *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) Create(ctx context.Context, eval *models.Evaluation) error {
	if err := r.db.WithContext(ctx).Create(eval).Error; err != nil {
		return fmt.Errorf("failed to create evaluation: %w", err)
	}
	return nil
}

func (r *evaluationRepository) FindByID(ctx context.Context, orgID string, id uuid.UUID) (*models.Evaluation, error) {
	var eval models.Evaluation
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&eval).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("evaluation %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find evaluation: %w", err)
	}
	return &eval, nil
}

// FindByJob returns the full evaluation history of a job, oldest first.
func (r *evaluationRepository) FindByJob(ctx context.Context, orgID, jobID string) ([]models.Evaluation, error) {
	var evals []models.Evaluation
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND job_id = ?", orgID, jobID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&evals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find evaluations: %w", err)
	}
	return evals, nil
}

// FindLatestByJob returns the newest evaluation per candidate, optionally
// restricted to candidateIDs, ordered by candidate id.
func (r *evaluationRepository) FindLatestByJob(ctx context.Context, orgID, jobID string, candidateIDs []string) ([]models.Evaluation, error) {
	history, err := r.FindByJob(ctx, orgID, jobID)
	if err != nil {
		return nil, err
	}

	var wanted map[string]bool
	if len(candidateIDs) > 0 {
		wanted = make(map[string]bool, len(candidateIDs))
		for _, id := range candidateIDs {
			wanted[id] = true
		}
	}

	latest := make(map[string]models.Evaluation)
	var order []string
	for _, eval := range history {
		if wanted != nil && !wanted[eval.CandidateID] {
			continue
		}
		if _, seen := latest[eval.CandidateID]; !seen {
			order = append(order, eval.CandidateID)
		}
		// History is ascending, so the last write wins.
		latest[eval.CandidateID] = eval
	}

	sort.Strings(order)
	out := make([]models.Evaluation, 0, len(order))
	for _, id := range order {
		out = append(out, latest[id])
	}
	return out, nil
}
