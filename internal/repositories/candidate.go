package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/talent-ranker/internal/models"
)

type CandidateRepository interface {
	Upsert(ctx context.Context, candidate *models.Candidate) error
	FindByID(ctx context.Context, orgID, id string) (*models.Candidate, error)
	FindAttributes(ctx context.Context, orgID string, ids []string) (map[string]models.CandidateAttributes, error)
}

type candidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

func (r *candidateRepository) Upsert(ctx context.Context, candidate *models.Candidate) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(candidate).Error
	if err != nil {
		return fmt.Errorf("failed to save candidate: %w", err)
	}
	return nil
}

func (r *candidateRepository) FindByID(ctx context.Context, orgID, id string) (*models.Candidate, error) {
	var candidate models.Candidate
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&candidate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("candidate %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find candidate: %w", err)
	}
	return &candidate, nil
}

// FindAttributes loads ranking attributes for the given candidates. Unknown
// ids are simply absent from the result.
func (r *candidateRepository) FindAttributes(ctx context.Context, orgID string, ids []string) (map[string]models.CandidateAttributes, error) {
	out := make(map[string]models.CandidateAttributes, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var candidates []models.Candidate
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id IN ?", orgID, ids).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find candidates: %w", err)
	}

	for _, c := range candidates {
		out[c.ID] = c.Attributes()
	}
	return out, nil
}
