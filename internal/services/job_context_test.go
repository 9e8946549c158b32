package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{float32(len(text))}, nil
}

type fakeChunkStore struct {
	mu       sync.Mutex
	chunks   []RubricChunk
	searches int
	deleted  []string
}

func (f *fakeChunkStore) UpsertChunk(_ context.Context, chunk RubricChunk, _ []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks = append(f.chunks, chunk)
	return nil
}

func (f *fakeChunkStore) SearchSimilar(_ context.Context, _ []float32, orgID, jobID string, limit int) ([]SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	var out []SearchResult
	for _, c := range f.chunks {
		if c.OrgID == orgID && c.JobID == jobID && len(out) < limit {
			out = append(out, SearchResult{Score: 0.9, Text: c.Text, Source: c.Source, JobID: c.JobID})
		}
	}
	return out, nil
}

func (f *fakeChunkStore) DeleteJob(_ context.Context, orgID, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, orgID+"/"+jobID)
	kept := f.chunks[:0]
	for _, c := range f.chunks {
		if c.OrgID != orgID || c.JobID != jobID {
			kept = append(kept, c)
		}
	}
	f.chunks = kept
	return nil
}

func TestJobContextIngestAndRetrieve(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := &fakeChunkStore{}
	retriever := NewJobContextRetriever(embedder, store, zap.NewNop())
	ctx := context.Background()

	n, err := retriever.Ingest(ctx, "org-1", "job-1", "rubric.txt", "Go services at scale.\n\nOwn on-call rotations.")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, store.chunks, 1)
	assert.Equal(t, RubricChunk{OrgID: "org-1", JobID: "job-1", Source: "rubric.txt", Text: "Go services at scale. Own on-call rotations."}, store.chunks[0])

	got, err := retriever.Retrieve(ctx, "org-1", "job-1", "Technical skills")
	require.NoError(t, err)
	assert.Contains(t, got, "Go services at scale.")

	// Repeated queries are served from memory.
	_, err = retriever.Retrieve(ctx, "org-1", "job-1", "Technical skills")
	require.NoError(t, err)
	assert.Equal(t, 1, store.searches)

	other, err := retriever.Retrieve(ctx, "org-2", "job-1", "Technical skills")
	require.NoError(t, err)
	assert.Equal(t, "No relevant context found.", other)
}

func TestJobContextIngestInvalidatesCache(t *testing.T) {
	store := &fakeChunkStore{}
	retriever := NewJobContextRetriever(&fakeEmbedder{}, store, zap.NewNop())
	ctx := context.Background()

	before, err := retriever.Retrieve(ctx, "org-1", "job-1", "q")
	require.NoError(t, err)
	assert.Equal(t, "No relevant context found.", before)

	_, err = retriever.Ingest(ctx, "org-1", "job-1", "rubric.txt", "Leads design reviews.")
	require.NoError(t, err)

	after, err := retriever.Retrieve(ctx, "org-1", "job-1", "q")
	require.NoError(t, err)
	assert.Contains(t, after, "Leads design reviews.")

	require.NoError(t, retriever.Reset(ctx, "org-1", "job-1"))
	assert.Equal(t, []string{"org-1/job-1"}, store.deleted)

	cleared, err := retriever.Retrieve(ctx, "org-1", "job-1", "q")
	require.NoError(t, err)
	assert.Equal(t, "No relevant context found.", cleared)
}

func TestJobContextIngestErrors(t *testing.T) {
	retriever := NewJobContextRetriever(&fakeEmbedder{}, &fakeChunkStore{}, zap.NewNop())
	_, err := retriever.Ingest(context.Background(), "org-1", "job-1", "empty.txt", "  \n\n ")
	assert.ErrorIs(t, err, ErrInsufficientData)

	failing := NewJobContextRetriever(&fakeEmbedder{err: errors.New("rate limited")}, &fakeChunkStore{}, zap.NewNop())
	n, err := failing.Ingest(context.Background(), "org-1", "job-1", "rubric.txt", strings.Repeat("Requirement. ", 10))
	assert.Zero(t, n)
	assert.ErrorContains(t, err, "rate limited")

	_, err = failing.Retrieve(context.Background(), "org-1", "job-1", "q")
	assert.ErrorContains(t, err, "rate limited")
}
