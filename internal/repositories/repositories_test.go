package repositories

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"alfredoptarigan/talent-ranker/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Candidate{}, &models.Job{}, &models.Evaluation{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

var repoEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newEvaluation(org, candidate, job string, overall float64, at time.Time) *models.Evaluation {
	return &models.Evaluation{
		OrgID:       org,
		CandidateID: candidate,
		JobID:       job,
		Scores: models.CriterionScoreMap{
			"tech": {CriterionID: "tech", RawScore: overall, MaxScore: 100, Confidence: 0.7, Evidence: []string{"shipped"}},
		},
		OverallScore:      overall,
		ConfidenceLevel:   0.7,
		QualificationTier: models.DefaultTierThresholds.Classify(overall),
		Strengths:         models.StringList{"Technical skills"},
		Gaps:              models.StringList{},
		MissingCriteria:   models.StringList{"comm"},
		CreatedAt:         at,
	}
}

func TestEvaluationRepositoryRoundTrip(t *testing.T) {
	repo := NewEvaluationRepository(newTestDB(t))
	ctx := context.Background()

	eval := newEvaluation("org-1", "cand-1", "job-1", 88, repoEpoch)
	require.NoError(t, repo.Create(ctx, eval))
	require.NotEqual(t, uuid.Nil, eval.ID)

	got, err := repo.FindByID(ctx, "org-1", eval.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TierHighlyQualified, got.QualificationTier)
	assert.Equal(t, eval.Scores, got.Scores)
	assert.Equal(t, models.StringList{"comm"}, got.MissingCriteria)
	assert.True(t, repoEpoch.Equal(got.CreatedAt))

	_, err = repo.FindByID(ctx, "org-2", eval.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.FindByID(ctx, "org-1", uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEvaluationRepositoryHistoryAndLatest(t *testing.T) {
	repo := NewEvaluationRepository(newTestDB(t))
	ctx := context.Background()

	for _, e := range []*models.Evaluation{
		newEvaluation("org-1", "cand-b", "job-1", 60, repoEpoch.Add(2*time.Minute)),
		newEvaluation("org-1", "cand-a", "job-1", 40, repoEpoch),
		newEvaluation("org-1", "cand-a", "job-1", 75, repoEpoch.Add(time.Minute)),
		newEvaluation("org-1", "cand-c", "job-2", 90, repoEpoch),
		newEvaluation("org-2", "cand-a", "job-1", 99, repoEpoch.Add(time.Hour)),
	} {
		require.NoError(t, repo.Create(ctx, e))
	}

	history, err := repo.FindByJob(ctx, "org-1", "job-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []float64{40, 75, 60}, []float64{history[0].OverallScore, history[1].OverallScore, history[2].OverallScore})

	latest, err := repo.FindLatestByJob(ctx, "org-1", "job-1", nil)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "cand-a", latest[0].CandidateID)
	assert.Equal(t, 75.0, latest[0].OverallScore)
	assert.Equal(t, "cand-b", latest[1].CandidateID)

	only, err := repo.FindLatestByJob(ctx, "org-1", "job-1", []string{"cand-b", "cand-z"})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "cand-b", only[0].CandidateID)

	none, err := repo.FindByJob(ctx, "org-3", "job-1")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCandidateRepository(t *testing.T) {
	repo := NewCandidateRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.Candidate{ID: "cand-1", OrgID: "org-1", Name: "Ada", Profile: "v1", YearsExperience: 3}))
	require.NoError(t, repo.Upsert(ctx, &models.Candidate{ID: "cand-1", OrgID: "org-1", Name: "Ada", Profile: "v2", YearsExperience: 4, CertificationCount: 2}))
	require.NoError(t, repo.Upsert(ctx, &models.Candidate{ID: "cand-1", OrgID: "org-2", Name: "Other Ada", Profile: "elsewhere"}))

	got, err := repo.FindByID(ctx, "org-1", "cand-1")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Profile)

	other, err := repo.FindByID(ctx, "org-2", "cand-1")
	require.NoError(t, err)
	assert.Equal(t, "elsewhere", other.Profile)

	_, err = repo.FindByID(ctx, "org-1", "cand-9")
	assert.ErrorIs(t, err, ErrNotFound)

	attrs, err := repo.FindAttributes(ctx, "org-1", []string{"cand-1", "cand-9"})
	require.NoError(t, err)
	assert.Equal(t, map[string]models.CandidateAttributes{
		"cand-1": {YearsExperience: 4, CertificationCount: 2},
	}, attrs)

	empty, err := repo.FindAttributes(ctx, "org-1", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestJobRepository(t *testing.T) {
	repo := NewJobRepository(newTestDB(t))
	ctx := context.Background()

	job := &models.Job{
		ID:    "job-1",
		OrgID: "org-1",
		Title: "Backend Engineer",
		Criteria: models.CriteriaList{
			{ID: "tech", Name: "Technical skills", MaxScore: 10, Weight: 70},
			{ID: "comm", MaxScore: 5, Weight: 30},
		},
	}
	require.NoError(t, repo.Upsert(ctx, job))

	got, err := repo.FindByID(ctx, "org-1", "job-1")
	require.NoError(t, err)
	assert.Equal(t, job.Criteria, got.Criteria)
	assert.Equal(t, map[string]float64{"tech": 70, "comm": 30}, got.Weights())

	_, err = repo.FindByID(ctx, "org-2", "job-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
