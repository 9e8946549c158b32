package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/talent-ranker/internal/logger"
	"alfredoptarigan/talent-ranker/internal/models"
	"alfredoptarigan/talent-ranker/internal/repositories"
)

const (
	defaultScorerTimeout = 60 * time.Second
	defaultFanOut        = 5
)

// ProgressFunc receives coarse progress for one evaluation.
type ProgressFunc func(stage string, percentage float64)

// EvaluationRequest describes one candidate×job evaluation. Org scoping is
// explicit: every lookup is made within OrgID.
type EvaluationRequest struct {
	OrgID              string
	CandidateID        string
	JobID              string
	JobTitle           string
	Criteria           []models.Criterion
	Weights            map[string]float64
	CustomInstructions string
	OnProgress         ProgressFunc
}

// ProfileSource loads candidate profiles.
type ProfileSource interface {
	FindByID(ctx context.Context, orgID, id string) (*models.Candidate, error)
}

// EvaluationStore receives finished evaluations.
type EvaluationStore interface {
	Create(ctx context.Context, eval *models.Evaluation) error
}

type EvaluatorService interface {
	Evaluate(ctx context.Context, req EvaluationRequest) (*models.Evaluation, error)
}

type EvaluatorOptions struct {
	ScorerTimeout time.Duration
	FanOut        int
	Policy        models.ScoringPolicy
	Now           func() time.Time
}

type evaluatorService struct {
	scorer     Scorer
	profiles   ProfileSource
	store      EvaluationStore
	aggregator ScoreAggregator
	timeout    time.Duration
	fanOut     int
	policy     models.ScoringPolicy
	now        func() time.Time
	log        *zap.Logger
}

func NewEvaluatorService(
	scorer Scorer,
	profiles ProfileSource,
	store EvaluationStore,
	opts EvaluatorOptions,
	log *zap.Logger,
) EvaluatorService {
	if opts.ScorerTimeout <= 0 {
		opts.ScorerTimeout = defaultScorerTimeout
	}
	if opts.FanOut <= 0 {
		opts.FanOut = defaultFanOut
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &evaluatorService{
		scorer:     scorer,
		profiles:   profiles,
		store:      store,
		aggregator: NewScoreAggregator(opts.Policy.Tiers),
		timeout:    opts.ScorerTimeout,
		fanOut:     opts.FanOut,
		policy:     opts.Policy,
		now:        opts.Now,
		log:        logger.WithFields(log),
	}
}

type criterionOutcome struct {
	score *models.CriterionScore
	err   error
}

func (e *evaluatorService) Evaluate(ctx context.Context, req EvaluationRequest) (*models.Evaluation, error) {
	if err := ValidateCriteria(req.Criteria, req.Weights); err != nil {
		return nil, err
	}

	log := logger.WithScope(e.log, req.OrgID, req.JobID, req.CandidateID)
	report := req.OnProgress
	if report == nil {
		report = func(string, float64) {}
	}

	report("loading profile", 5)
	candidate, err := e.profiles.FindByID(ctx, req.OrgID, req.CandidateID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCandidateNotFound, req.CandidateID)
		}
		return nil, fmt.Errorf("failed to load candidate profile: %w", err)
	}

	profile := CandidateProfile{
		OrgID:       req.OrgID,
		CandidateID: req.CandidateID,
		JobID:       req.JobID,
		JobTitle:    req.JobTitle,
		Text:        candidate.Profile,
	}

	outcomes := e.scoreCriteria(ctx, profile, req, report, log)

	report("aggregating", 90)
	var (
		scores   []models.CriterionScore
		failed   []string
		failures []string
	)
	for i, c := range req.Criteria {
		out := outcomes[i]
		if out.err != nil {
			failed = append(failed, c.ID)
			failures = append(failures, fmt.Sprintf("%s: %v", c.ID, out.err))
			log.Warn("criterion omitted", zap.String(logger.FieldCriterion, c.ID), zap.Error(out.err))
			continue
		}
		scores = append(scores, *out.score)
	}

	if len(scores) == 0 {
		return nil, fmt.Errorf("%w: all %d criteria failed (%s)", ErrEvaluationFailed, len(req.Criteria), strings.Join(failures, "; "))
	}

	agg, err := e.aggregator.Aggregate(scores, req.Weights)
	if err != nil {
		return nil, err
	}

	byID := make(models.CriterionScoreMap, len(scores))
	for _, s := range scores {
		byID[s.CriterionID] = s
	}
	insights := deriveInsights(req.Criteria, byID, e.policy)

	eval := &models.Evaluation{
		OrgID:               req.OrgID,
		CandidateID:         req.CandidateID,
		JobID:               req.JobID,
		Scores:              byID,
		OverallScore:        agg.OverallScore,
		ConfidenceLevel:     agg.ConfidenceLevel,
		QualificationTier:   agg.QualificationTier,
		Strengths:           insights.strengths,
		Gaps:                insights.gaps,
		InterviewFocusAreas: insights.focusAreas,
		Recommendations:     recommendationFor(agg.QualificationTier, failed),
		MissingCriteria:     failed,
		AIModel:             e.scorer.Model(),
		CreatedAt:           e.now().UTC(),
	}
	if len(failures) > 0 {
		eval.Notes = "omitted criteria: " + strings.Join(failures, "; ")
	}

	report("saving", 95)
	if err := e.store.Create(ctx, eval); err != nil {
		return nil, fmt.Errorf("failed to save evaluation: %w", err)
	}

	log.Info("evaluation completed",
		zap.String("evaluation_id", eval.ID.String()),
		zap.Float64("overall_score", eval.OverallScore),
		zap.Stringer("tier", eval.QualificationTier),
		zap.Int("omitted", len(failed)),
	)
	return eval, nil
}

// scoreCriteria runs one scorer call per criterion, at most fanOut at a time,
// and returns outcomes aligned with req.Criteria.
func (e *evaluatorService) scoreCriteria(ctx context.Context, profile CandidateProfile, req EvaluationRequest, report ProgressFunc, log *zap.Logger) []criterionOutcome {
	outcomes := make([]criterionOutcome, len(req.Criteria))
	total := len(req.Criteria)

	var (
		mu   sync.Mutex
		done int
	)
	report(fmt.Sprintf("scoring criteria (0/%d)", total), 10)

	var g errgroup.Group
	g.SetLimit(e.fanOut)
	for i, criterion := range req.Criteria {
		g.Go(func() error {
			score, err := e.scoreOne(ctx, profile, criterion, req.CustomInstructions)
			outcomes[i] = criterionOutcome{score: score, err: err}

			mu.Lock()
			done++
			report(fmt.Sprintf("scoring criteria (%d/%d)", done, total), 10+75*float64(done)/float64(total))
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // per-criterion errors are carried in outcomes

	log.Debug("criteria scored", zap.Int("total", total))
	return outcomes
}

// scoreOne bounds a single scorer call. A scorer that ignores its context is
// abandoned at the deadline rather than waited on.
func (e *evaluatorService) scoreOne(ctx context.Context, profile CandidateProfile, criterion models.Criterion, instructions string) (*models.CriterionScore, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	ch := make(chan criterionOutcome, 1)
	go func() {
		score, err := e.scorer.Score(callCtx, profile, criterion, instructions)
		ch <- criterionOutcome{score: score, err: err}
	}()

	var out criterionOutcome
	select {
	case out = <-ch:
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("scorer timed out after %s", e.timeout)
		}
		return nil, fmt.Errorf("scorer call cancelled: %w", callCtx.Err())
	}

	if out.err != nil {
		return nil, out.err
	}
	if out.score == nil {
		return nil, errors.New("scorer returned no score")
	}

	// Normalize against the requested criterion; never trust the scorer's ids.
	score := *out.score
	score.CriterionID = criterion.ID
	score.MaxScore = criterion.MaxScore
	score.Confidence = clamp(score.Confidence, 0, 1)
	score.Evidence = append([]string(nil), score.Evidence...)
	if err := validateCriterionScore(score); err != nil {
		return nil, err
	}
	return &score, nil
}

// ValidateCriteria checks a criteria set and its optional weights before any
// scoring happens.
func ValidateCriteria(criteria []models.Criterion, weights map[string]float64) error {
	if len(criteria) == 0 {
		return fmt.Errorf("%w: no criteria to evaluate", ErrInsufficientData)
	}
	seen := make(map[string]bool, len(criteria))
	for _, c := range criteria {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("%w: criterion without id", ErrInvalidCriterion)
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: duplicate criterion %q", ErrInvalidCriterion, c.ID)
		}
		seen[c.ID] = true
		if !(c.MaxScore > 0) {
			return fmt.Errorf("%w: criterion %q has max_score %v", ErrInvalidCriterion, c.ID, c.MaxScore)
		}
	}
	for id := range weights {
		if !seen[id] {
			return fmt.Errorf("%w: weight for unknown criterion %q", ErrInvalidWeightConfig, id)
		}
	}
	return nil
}

type insights struct {
	strengths  models.StringList
	gaps       models.StringList
	focusAreas models.StringList
}

// deriveInsights is a pure pass over the score set, in criterion order.
func deriveInsights(criteria []models.Criterion, scores models.CriterionScoreMap, policy models.ScoringPolicy) insights {
	out := insights{
		strengths:  models.StringList{},
		gaps:       models.StringList{},
		focusAreas: models.StringList{},
	}
	for _, c := range criteria {
		s, ok := scores[c.ID]
		if !ok {
			out.focusAreas = append(out.focusAreas, fmt.Sprintf("Assess %s: not scored automatically", c.Label()))
			continue
		}
		pct := s.Percentage()
		switch {
		case pct >= policy.StrengthThreshold:
			out.strengths = append(out.strengths, fmt.Sprintf("%s (%.0f%%)", c.Label(), pct))
		case pct < policy.GapThreshold:
			out.gaps = append(out.gaps, fmt.Sprintf("%s (%.0f%%)", c.Label(), pct))
		}
		switch {
		case pct < policy.FocusThreshold:
			out.focusAreas = append(out.focusAreas, fmt.Sprintf("Probe %s: scored %.0f%%", c.Label(), pct))
		case s.Confidence < policy.LowConfidence:
			out.focusAreas = append(out.focusAreas, fmt.Sprintf("Verify %s: low confidence (%.2f)", c.Label(), s.Confidence))
		}
	}
	return out
}

func recommendationFor(tier models.QualificationTier, missing []string) string {
	var text string
	switch tier {
	case models.TierHighlyQualified:
		text = "Strong match. Advance to final-round interviews."
	case models.TierQualified:
		text = "Good match. Proceed to a structured interview covering the listed focus areas."
	case models.TierPartiallyQualified:
		text = "Partial match. Consider a screening call focused on the identified gaps."
	default:
		text = "Not a match for this role at this time."
	}
	if len(missing) > 0 {
		text += fmt.Sprintf(" Scores for %s could not be produced; re-run or assess manually before deciding.", strings.Join(missing, ", "))
	}
	return text
}
