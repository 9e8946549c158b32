package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const jobContextResults = 3

// Embedder turns text into a vector.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChunkStore is the subset of QdrantService used for job context.
type ChunkStore interface {
	UpsertChunk(ctx context.Context, chunk RubricChunk, embedding []float32) error
	SearchSimilar(ctx context.Context, queryEmbedding []float32, orgID, jobID string, limit int) ([]SearchResult, error)
	DeleteJob(ctx context.Context, orgID, jobID string) error
}

// JobContextRetriever ingests job rubric text and retrieves the chunks most
// relevant to a criterion. Retrieved context is memoized per org/job/query
// since every candidate in a batch asks the same questions.
type JobContextRetriever struct {
	embedder Embedder
	store    ChunkStore
	chunker  TextChunker
	log      *zap.Logger

	mu    sync.RWMutex
	cache map[string]string
}

func NewJobContextRetriever(embedder Embedder, store ChunkStore, log *zap.Logger) *JobContextRetriever {
	if log == nil {
		log = zap.NewNop()
	}
	return &JobContextRetriever{
		embedder: embedder,
		store:    store,
		chunker:  NewTextChunker(),
		log:      log,
		cache:    make(map[string]string),
	}
}

// Ingest replaces the stored rubric chunks of one source document. It returns
// the number of chunks stored.
func (r *JobContextRetriever) Ingest(ctx context.Context, orgID, jobID, source, text string) (int, error) {
	chunks := r.chunker.ChunkText(text, defaultChunkSize, defaultChunkOverlap)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: no text to ingest from %s", ErrInsufficientData, source)
	}

	stored := 0
	for i, chunk := range chunks {
		embedding, err := r.embedder.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return stored, fmt.Errorf("failed to embed chunk %d of %s: %w", i+1, source, err)
		}
		if err := r.store.UpsertChunk(ctx, RubricChunk{OrgID: orgID, JobID: jobID, Source: source, Text: chunk}, embedding); err != nil {
			return stored, fmt.Errorf("failed to store chunk %d of %s: %w", i+1, source, err)
		}
		stored++
	}

	r.invalidate(orgID, jobID)
	r.log.Info("ingested job context",
		zap.String("org_id", orgID),
		zap.String("job_id", jobID),
		zap.String("source", source),
		zap.Int("chunks", stored),
	)
	return stored, nil
}

// Reset removes every stored chunk of a job.
func (r *JobContextRetriever) Reset(ctx context.Context, orgID, jobID string) error {
	r.invalidate(orgID, jobID)
	return r.store.DeleteJob(ctx, orgID, jobID)
}

// Retrieve implements ContextRetriever.
func (r *JobContextRetriever) Retrieve(ctx context.Context, orgID, jobID, query string) (string, error) {
	key := cacheKey(orgID, jobID) + "\x00" + query

	r.mu.RLock()
	cached, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	embedding, err := r.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to generate query embedding: %w", err)
	}

	results, err := r.store.SearchSimilar(ctx, embedding, orgID, jobID, jobContextResults)
	if err != nil {
		return "", err
	}

	formatted := FormatRAGContext(results)

	r.mu.Lock()
	r.cache[key] = formatted
	r.mu.Unlock()

	return formatted, nil
}

func (r *JobContextRetriever) invalidate(orgID, jobID string) {
	prefix := cacheKey(orgID, jobID) + "\x00"
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.cache {
		if strings.HasPrefix(k, prefix) {
			delete(r.cache, k)
		}
	}
}

func cacheKey(orgID, jobID string) string {
	return orgID + "\x00" + jobID
}
