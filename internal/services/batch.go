package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/talent-ranker/internal/logger"
	"alfredoptarigan/talent-ranker/internal/models"
)

const (
	MaxBatchCandidates = 50
	MinConcurrency     = 1
	MaxConcurrency     = 10

	// CancelledMessage is the error recorded on items dropped by a cancel.
	CancelledMessage = "cancelled"

	subscriberBuffer = 64
)

// BatchRequest is one batch submission. Criteria and weights come from the
// job and are passed in so the orchestrator stays independent of storage.
type BatchRequest struct {
	OrgID              string
	JobID              string
	JobTitle           string
	CandidateIDs       []string
	Concurrency        int
	Criteria           []models.Criterion
	Weights            map[string]float64
	CustomInstructions string
}

type BatchOrchestrator interface {
	Start(ctx context.Context)
	Stop()
	Submit(ctx context.Context, req BatchRequest) (*models.EvaluationSession, error)
	Get(orgID, sessionID string) (*models.EvaluationSession, error)
	Cancel(orgID, sessionID string) (*models.EvaluationSession, error)
	Wait(ctx context.Context, orgID, sessionID string) (*models.EvaluationSession, error)
	Subscribe(orgID, sessionID string) (<-chan models.ProgressEvent, func(), error)
}

type BatchOptions struct {
	// Retention is how long finished sessions stay queryable.
	Retention time.Duration
	// JanitorInterval is how often finished sessions are evicted.
	JanitorInterval time.Duration
	// OnFinish receives the final snapshot of every session, e.g. for archival.
	OnFinish func(models.EvaluationSession)
	Now      func() time.Time
}

type batchOrchestrator struct {
	evaluator EvaluatorService
	opts      BatchOptions
	log       *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*batchSession

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

func NewBatchOrchestrator(evaluator EvaluatorService, opts BatchOptions, log *zap.Logger) BatchOrchestrator {
	if opts.Retention <= 0 {
		opts.Retention = time.Hour
	}
	if opts.JanitorInterval <= 0 {
		opts.JanitorInterval = time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &batchOrchestrator{
		evaluator: evaluator,
		opts:      opts,
		log:       logger.WithFields(log),
		sessions:  make(map[string]*batchSession),
		stopChan:  make(chan struct{}),
	}
}

// Start implements BatchOrchestrator. It runs the janitor that evicts
// finished sessions after the retention period.
func (o *batchOrchestrator) Start(ctx context.Context) {
	o.wg.Add(1)
	go o.evictFinished(ctx)
	o.log.Info("batch orchestrator started", zap.Duration("retention", o.opts.Retention))
}

// Stop implements BatchOrchestrator. Active sessions are cancelled and the
// call blocks until in-flight evaluations finish.
func (o *batchOrchestrator) Stop() {
	o.stopOnce.Do(func() {
		o.log.Info("stopping batch orchestrator")
		close(o.stopChan)

		o.mu.RLock()
		sessions := make([]*batchSession, 0, len(o.sessions))
		for _, s := range o.sessions {
			sessions = append(sessions, s)
		}
		o.mu.RUnlock()

		for _, s := range sessions {
			s.cancel()
		}
		o.wg.Wait()
		o.log.Info("batch orchestrator stopped")
	})
}

// Submit implements BatchOrchestrator. Validation happens before any work is
// scheduled; the returned snapshot is taken right after submission.
func (o *batchOrchestrator) Submit(ctx context.Context, req BatchRequest) (*models.EvaluationSession, error) {
	if err := validateBatch(req); err != nil {
		return nil, err
	}

	select {
	case <-o.stopChan:
		return nil, fmt.Errorf("%w: orchestrator is stopping", ErrInvalidBatchConfig)
	default:
	}

	now := o.opts.Now().UTC()
	state := models.EvaluationSession{
		ID:              uuid.NewString(),
		OrgID:           req.OrgID,
		JobID:           req.JobID,
		TotalCandidates: len(req.CandidateIDs),
		Status:          models.SessionActive,
		Concurrency:     req.Concurrency,
		CreatedAt:       now,
		Items:           make([]models.EvaluationProgress, len(req.CandidateIDs)),
	}
	for i, id := range req.CandidateIDs {
		state.Items[i] = models.EvaluationProgress{
			CandidateID: id,
			Status:      models.ProgressQueued,
			Stage:       "queued",
		}
	}

	session := &batchSession{
		state:       state,
		done:        make(chan struct{}),
		subscribers: make(map[int]chan models.ProgressEvent),
		now:         o.opts.Now,
		onFinish:    o.opts.OnFinish,
	}

	o.mu.Lock()
	o.sessions[state.ID] = session
	o.mu.Unlock()

	log := logger.WithScope(o.log, req.OrgID, req.JobID, "").With(zap.String(logger.FieldSession, state.ID))
	log.Info("batch submitted",
		zap.Int("candidates", state.TotalCandidates),
		zap.Int("concurrency", req.Concurrency),
	)

	// Evaluations outlive the submitting request.
	runCtx := context.WithoutCancel(ctx)
	workers := min(req.Concurrency, len(req.CandidateIDs))
	for i := 0; i < workers; i++ {
		o.wg.Add(1)
		go o.processItems(runCtx, session, req, i+1, log)
	}

	snapshot := session.snapshot()
	return &snapshot, nil
}

func (o *batchOrchestrator) processItems(ctx context.Context, s *batchSession, req BatchRequest, workerID int, log *zap.Logger) {
	defer o.wg.Done()
	log = log.With(zap.Int("worker", workerID))

	for {
		idx, ok := s.claimNext()
		if !ok {
			log.Debug("worker exiting")
			return
		}

		candidateID := req.CandidateIDs[idx]
		evalID, err := o.evaluateItem(ctx, s, req, idx)
		if err != nil {
			log.Warn("batch item failed", zap.String(logger.FieldCandidate, candidateID), zap.Error(err))
		} else {
			log.Debug("batch item completed", zap.String(logger.FieldCandidate, candidateID))
		}
		s.finish(idx, evalID, err)
	}
}

func (o *batchOrchestrator) evaluateItem(ctx context.Context, s *batchSession, req BatchRequest, idx int) (evalID string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	eval, err := o.evaluator.Evaluate(ctx, EvaluationRequest{
		OrgID:              req.OrgID,
		CandidateID:        req.CandidateIDs[idx],
		JobID:              req.JobID,
		JobTitle:           req.JobTitle,
		Criteria:           req.Criteria,
		Weights:            req.Weights,
		CustomInstructions: req.CustomInstructions,
		OnProgress: func(stage string, pct float64) {
			s.progress(idx, stage, pct)
		},
	})
	if err != nil {
		return "", err
	}
	return eval.ID.String(), nil
}

// Get implements BatchOrchestrator.
func (o *batchOrchestrator) Get(orgID, sessionID string) (*models.EvaluationSession, error) {
	s, err := o.lookup(orgID, sessionID)
	if err != nil {
		return nil, err
	}
	snapshot := s.snapshot()
	return &snapshot, nil
}

// Cancel implements BatchOrchestrator.
func (o *batchOrchestrator) Cancel(orgID, sessionID string) (*models.EvaluationSession, error) {
	s, err := o.lookup(orgID, sessionID)
	if err != nil {
		return nil, err
	}
	s.cancel()
	o.log.Info("batch cancel requested", zap.String(logger.FieldSession, sessionID))
	snapshot := s.snapshot()
	return &snapshot, nil
}

// Wait implements BatchOrchestrator.
func (o *batchOrchestrator) Wait(ctx context.Context, orgID, sessionID string) (*models.EvaluationSession, error) {
	s, err := o.lookup(orgID, sessionID)
	if err != nil {
		return nil, err
	}
	select {
	case <-s.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	snapshot := s.snapshot()
	return &snapshot, nil
}

// Subscribe implements BatchOrchestrator. The channel is closed when the
// session finishes or the returned cancel func is called. Slow subscribers
// miss events rather than blocking workers.
func (o *batchOrchestrator) Subscribe(orgID, sessionID string) (<-chan models.ProgressEvent, func(), error) {
	s, err := o.lookup(orgID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, unsubscribe := s.subscribe()
	return ch, unsubscribe, nil
}

func (o *batchOrchestrator) lookup(orgID, sessionID string) (*batchSession, error) {
	o.mu.RLock()
	s, ok := o.sessions[sessionID]
	o.mu.RUnlock()
	if !ok || s.orgID() != orgID {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return s, nil
}

func (o *batchOrchestrator) evictFinished(ctx context.Context) {
	defer o.wg.Done()
	ticker := time.NewTicker(o.opts.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := o.opts.Now().Add(-o.opts.Retention)
			o.mu.Lock()
			for id, s := range o.sessions {
				if s.finishedBefore(cutoff) {
					delete(o.sessions, id)
					o.log.Debug("evicted finished session", zap.String(logger.FieldSession, id))
				}
			}
			o.mu.Unlock()
		}
	}
}

func validateBatch(req BatchRequest) error {
	n := len(req.CandidateIDs)
	if n == 0 {
		return fmt.Errorf("%w: candidate_ids must not be empty", ErrInvalidBatchConfig)
	}
	if n > MaxBatchCandidates {
		return fmt.Errorf("%w: %d candidates exceeds the maximum of %d", ErrInvalidBatchConfig, n, MaxBatchCandidates)
	}
	if req.Concurrency < MinConcurrency || req.Concurrency > MaxConcurrency {
		return fmt.Errorf("%w: concurrency %d outside %d..%d", ErrInvalidBatchConfig, req.Concurrency, MinConcurrency, MaxConcurrency)
	}
	if strings.TrimSpace(req.OrgID) == "" || strings.TrimSpace(req.JobID) == "" {
		return fmt.Errorf("%w: org_id and job_id are required", ErrInvalidBatchConfig)
	}
	seen := make(map[string]bool, n)
	for _, id := range req.CandidateIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: blank candidate id", ErrInvalidBatchConfig)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate candidate id %q", ErrInvalidBatchConfig, id)
		}
		seen[id] = true
	}
	if err := ValidateCriteria(req.Criteria, req.Weights); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBatchConfig, err)
	}
	return nil
}

// batchSession owns one EvaluationSession. Every mutation goes through its
// mutex so counters and transitions stay consistent across workers.
type batchSession struct {
	mu       sync.Mutex
	state    models.EvaluationSession
	next     int
	inFlight int
	done     chan struct{}
	now      func() time.Time
	onFinish func(models.EvaluationSession)

	subscribers map[int]chan models.ProgressEvent
	nextSubID   int
}

func (s *batchSession) orgID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.OrgID
}

func (s *batchSession) snapshot() models.EvaluationSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// claimNext moves the next queued item to processing. Cancellation is
// checked here, between dequeues.
func (s *batchSession) claimNext() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.CancelRequested {
		return 0, false
	}
	for s.next < len(s.state.Items) {
		idx := s.next
		s.next++
		item := &s.state.Items[idx]
		if !item.Status.CanTransition(models.ProgressProcessing) {
			continue
		}
		started := s.now().UTC()
		item.Status = models.ProgressProcessing
		item.Stage = "processing"
		item.StartedAt = &started
		s.inFlight++
		s.emitLocked(idx)
		return idx, true
	}
	return 0, false
}

func (s *batchSession) progress(idx int, stage string, pct float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := &s.state.Items[idx]
	if item.Status != models.ProgressProcessing {
		return
	}
	item.Stage = stage
	if pct > item.ProgressPercentage {
		item.ProgressPercentage = clamp(pct, 0, 100)
	}
	if item.StartedAt != nil && item.ProgressPercentage > 0 {
		elapsed := s.now().Sub(*item.StartedAt)
		eta := item.StartedAt.Add(time.Duration(float64(elapsed) * 100 / item.ProgressPercentage))
		item.EstimatedCompletion = &eta
	}
	s.emitLocked(idx)
}

func (s *batchSession) finish(idx int, evalID string, evalErr error) {
	s.mu.Lock()

	item := &s.state.Items[idx]
	to := models.ProgressCompleted
	if evalErr != nil {
		to = models.ProgressFailed
	}
	if !item.Status.CanTransition(to) {
		s.mu.Unlock()
		return
	}

	item.Status = to
	item.EstimatedCompletion = nil
	if evalErr != nil {
		item.Stage = "failed"
		item.ErrorMessage = evalErr.Error()
		s.state.FailedCount++
	} else {
		item.Stage = "completed"
		item.ProgressPercentage = 100
		item.EvaluationID = evalID
		s.state.CompletedCount++
	}
	s.inFlight--
	s.emitLocked(idx)

	final, finished := s.finalizeLocked()
	s.mu.Unlock()

	if finished && s.onFinish != nil {
		s.onFinish(final)
	}
}

// cancel stops dispatch and fails every item still queued. In-flight items
// are left to finish.
func (s *batchSession) cancel() {
	s.mu.Lock()

	if s.state.Finished() || s.state.CancelRequested {
		s.mu.Unlock()
		return
	}
	s.state.CancelRequested = true
	for idx := s.next; idx < len(s.state.Items); idx++ {
		item := &s.state.Items[idx]
		if item.Status != models.ProgressQueued {
			continue
		}
		item.Status = models.ProgressFailed
		item.Stage = "failed"
		item.ErrorMessage = CancelledMessage
		s.state.FailedCount++
		s.emitLocked(idx)
	}
	s.next = len(s.state.Items)

	final, finished := s.finalizeLocked()
	s.mu.Unlock()

	if finished && s.onFinish != nil {
		s.onFinish(final)
	}
}

// finalizeLocked closes the session once every item is terminal.
func (s *batchSession) finalizeLocked() (models.EvaluationSession, bool) {
	if s.state.Finished() || s.inFlight > 0 {
		return models.EvaluationSession{}, false
	}
	if s.state.CompletedCount+s.state.FailedCount < s.state.TotalCandidates {
		return models.EvaluationSession{}, false
	}

	finishedAt := s.now().UTC()
	s.state.FinishedAt = &finishedAt
	if s.state.CancelRequested {
		s.state.Status = models.SessionCancelled
	} else {
		s.state.Status = models.SessionCompleted
	}

	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	close(s.done)
	return s.state.Clone(), true
}

func (s *batchSession) finishedBefore(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.FinishedAt != nil && s.state.FinishedAt.Before(cutoff)
}

func (s *batchSession) subscribe() (<-chan models.ProgressEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan models.ProgressEvent, subscriberBuffer)
	if s.state.Finished() {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subscribers[id]; ok {
			close(sub)
			delete(s.subscribers, id)
		}
	}
}

func (s *batchSession) emitLocked(idx int) {
	if len(s.subscribers) == 0 {
		return
	}
	event := models.ProgressEvent{
		SessionID:      s.state.ID,
		Item:           s.state.Items[idx],
		CompletedCount: s.state.CompletedCount,
		FailedCount:    s.state.FailedCount,
		Status:         s.state.Status,
	}
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
