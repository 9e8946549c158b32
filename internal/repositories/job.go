package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/talent-ranker/internal/models"
)

type JobRepository interface {
	Upsert(ctx context.Context, job *models.Job) error
	FindByID(ctx context.Context, orgID, id string) (*models.Job, error)
}

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Upsert(ctx context.Context, job *models.Job) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(job).Error
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

func (r *jobRepository) FindByID(ctx context.Context, orgID, id string) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find job: %w", err)
	}
	return &job, nil
}
