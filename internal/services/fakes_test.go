package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"alfredoptarigan/talent-ranker/internal/models"
	"alfredoptarigan/talent-ranker/internal/repositories"
)

type scoreFunc func(ctx context.Context, profile CandidateProfile, criterion models.Criterion) (*models.CriterionScore, error)

// fakeScorer delegates to fn and counts calls.
type fakeScorer struct {
	mu    sync.Mutex
	calls int
	fn    scoreFunc
}

func (f *fakeScorer) Score(ctx context.Context, profile CandidateProfile, criterion models.Criterion, _ string) (*models.CriterionScore, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(ctx, profile, criterion)
}

func (f *fakeScorer) Model() string { return "fake-model" }

func (f *fakeScorer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fixedScores scores every candidate from a per-criterion raw score table.
func fixedScores(raw map[string]float64, confidence map[string]float64) scoreFunc {
	return func(_ context.Context, _ CandidateProfile, c models.Criterion) (*models.CriterionScore, error) {
		v, ok := raw[c.ID]
		if !ok {
			return nil, fmt.Errorf("no score for %s", c.ID)
		}
		conf, ok := confidence[c.ID]
		if !ok {
			conf = 0.9
		}
		return &models.CriterionScore{
			CriterionID:   c.ID,
			RawScore:      v,
			Confidence:    conf,
			Justification: "fixture",
		}, nil
	}
}

type fakeProfiles struct {
	candidates map[string]*models.Candidate
}

func newFakeProfiles(orgID string, ids ...string) *fakeProfiles {
	p := &fakeProfiles{candidates: make(map[string]*models.Candidate)}
	for _, id := range ids {
		p.candidates[orgID+"/"+id] = &models.Candidate{ID: id, OrgID: orgID, Profile: "profile of " + id}
	}
	return p
}

func (p *fakeProfiles) FindByID(_ context.Context, orgID, id string) (*models.Candidate, error) {
	c, ok := p.candidates[orgID+"/"+id]
	if !ok {
		return nil, fmt.Errorf("candidate %s: %w", id, repositories.ErrNotFound)
	}
	return c, nil
}

type memEvaluationStore struct {
	mu    sync.Mutex
	evals []models.Evaluation
}

func (s *memEvaluationStore) Create(_ context.Context, eval *models.Evaluation) error {
	if eval.ID == uuid.Nil {
		eval.ID = uuid.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evals = append(s.evals, *eval)
	return nil
}

func (s *memEvaluationStore) byCandidate(id string) (models.Evaluation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.evals {
		if e.CandidateID == id {
			return e, true
		}
	}
	return models.Evaluation{}, false
}

func (s *memEvaluationStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.evals)
}

var testCriteria = []models.Criterion{
	{ID: "tech", Name: "Technical skills", MaxScore: 100},
	{ID: "comm", Name: "Communication", MaxScore: 100},
	{ID: "culture", Name: "Culture fit", MaxScore: 100},
}
