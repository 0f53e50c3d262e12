package ingest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivankMERNPro/MediaSense-AI/internal/analyzer"
	"github.com/shivankMERNPro/MediaSense-AI/internal/embedder"
	"github.com/shivankMERNPro/MediaSense-AI/internal/storage"
	"github.com/shivankMERNPro/MediaSense-AI/pkg/types"
)

// fakeAnalyzer returns canned answers and counts calls
type fakeAnalyzer struct {
	describe    string
	describeErr error
	tags        []string
	tagsErr     error
	topics      []string
	topicsErr   error

	// block, when set, holds Describe until closed
	block chan struct{}
	calls atomic.Int32
}

func (f *fakeAnalyzer) Describe(ctx context.Context, in analyzer.Input) (string, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.describe, f.describeErr
}

func (f *fakeAnalyzer) Tags(ctx context.Context, description string) ([]string, error) {
	f.calls.Add(1)
	return f.tags, f.tagsErr
}

func (f *fakeAnalyzer) Topics(ctx context.Context, description string, tags []string) ([]string, error) {
	f.calls.Add(1)
	return f.topics, f.topicsErr
}

func (f *fakeAnalyzer) Name() string { return "fake" }

func goodAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{
		describe: "A cat on a sofa.",
		tags:     []string{"cat", "sofa"},
		topics:   []string{"pets"},
	}
}

// stubEmbedder records the last text it embedded and counts upstream calls
type stubEmbedder struct {
	vec      []float64
	err      error
	batchErr error
	mu       sync.Mutex
	text     string

	singleCalls atomic.Int32
	batchCalls  atomic.Int32
	batchTexts  []string
}

func (s *stubEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	s.singleCalls.Add(1)
	s.mu.Lock()
	s.text = req.Text
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &embedder.Embedding{Vector: s.vec, Dimension: len(s.vec), Provider: "stub"}, nil
}

func (s *stubEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	s.batchCalls.Add(1)
	s.mu.Lock()
	s.batchTexts = append(s.batchTexts, req.Texts...)
	s.mu.Unlock()
	if s.batchErr != nil {
		return nil, s.batchErr
	}
	if s.err != nil {
		return nil, s.err
	}
	resp := &embedder.BatchEmbeddingResponse{Provider: "stub", Model: "stub-v1"}
	for range req.Texts {
		resp.Embeddings = append(resp.Embeddings, &embedder.Embedding{Vector: s.vec, Dimension: len(s.vec), Provider: "stub"})
	}
	return resp, nil
}

func (s *stubEmbedder) Dimension() int   { return len(s.vec) }
func (s *stubEmbedder) Provider() string { return "stub" }
func (s *stubEmbedder) Model() string    { return "stub-v1" }
func (s *stubEmbedder) Close() error     { return nil }

func setupStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createMedia(t *testing.T, store storage.Storage, owner, name string) *types.Media {
	t.Helper()
	m := &types.Media{
		OwnerID:      owner,
		Filename:     name,
		OriginalName: name,
		MimeType:     "image/jpeg",
		FileType:     types.FileTypeImage,
		FilePath:     "/uploads/" + name,
	}
	require.NoError(t, store.CreateMedia(context.Background(), m))
	return m
}

func TestProcessSuccess(t *testing.T) {
	store := setupStore(t)
	emb := &stubEmbedder{vec: []float64{0.1, 0.2, 0.3}}
	var invalidated []string
	p := New(store, goodAnalyzer(), emb, Config{}, WithOnProcessed(func(owner string) {
		invalidated = append(invalidated, owner)
	}))
	m := createMedia(t, store, "u1", "cat.jpg")

	res, err := p.Process(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusReady, res.Status)
	assert.Empty(t, res.Error)
	assert.Empty(t, res.Degraded)
	assert.Equal(t, "u1", res.OwnerID)
	assert.Equal(t, []string{"u1"}, invalidated)

	got, err := store.GetMediaByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusReady, got.Status)
	assert.Equal(t, "A cat on a sofa.", got.Description)
	assert.Equal(t, []string{"cat", "sofa"}, got.Tags)
	assert.Equal(t, []string{"pets"}, got.Topics)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, got.Embedding)
	assert.NotNil(t, got.AnalyzedAt)
	assert.Equal(t, "A cat on a sofa. cat sofa pets", emb.text)
}

func TestProcessDescribeFailure(t *testing.T) {
	store := setupStore(t)
	an := goodAnalyzer()
	an.describeErr = errors.New("model overloaded")
	p := New(store, an, &stubEmbedder{vec: []float64{1}}, Config{})
	m := createMedia(t, store, "u1", "cat.jpg")

	res, err := p.Process(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusError, res.Status)
	assert.Contains(t, res.Error, "model overloaded")

	got, err := store.GetMediaByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusError, got.Status)
	assert.Equal(t, FailedDescription, got.Description)
	assert.Equal(t, []string{Placeholder}, got.Tags)
	assert.Equal(t, []string{Placeholder}, got.Topics)
	assert.Empty(t, got.Embedding)
	assert.Contains(t, got.ProcessingError, "model overloaded")
}

func TestProcessDegradedSteps(t *testing.T) {
	store := setupStore(t)
	an := goodAnalyzer()
	an.tagsErr = errors.New("bad json")
	an.topicsErr = errors.New("bad json")
	emb := &stubEmbedder{err: embedder.ErrProviderFailed}
	p := New(store, an, emb, Config{})
	m := createMedia(t, store, "u1", "cat.jpg")

	res, err := p.Process(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusReady, res.Status)
	assert.Equal(t, []string{"tags", "topics", "embedding"}, res.Degraded)

	got, err := store.GetMediaByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusReady, got.Status)
	assert.Equal(t, "A cat on a sofa.", got.Description)
	assert.Equal(t, []string{Placeholder}, got.Tags)
	assert.Equal(t, []string{Placeholder}, got.Topics)
	assert.Empty(t, got.Embedding)
	assert.Equal(t, "A cat on a sofa. N/A N/A", emb.text)
}

func TestProcessWithoutEmbedder(t *testing.T) {
	store := setupStore(t)
	p := New(store, goodAnalyzer(), nil, Config{})
	m := createMedia(t, store, "u1", "cat.jpg")

	res, err := p.Process(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusReady, res.Status)
	assert.Equal(t, []string{"embedding"}, res.Degraded)
}

func TestProcessUnknownMedia(t *testing.T) {
	store := setupStore(t)
	p := New(store, goodAnalyzer(), nil, Config{})

	_, err := p.Process(context.Background(), "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestProcessTimeoutRecordsFailure(t *testing.T) {
	store := setupStore(t)
	an := goodAnalyzer()
	an.block = make(chan struct{})
	p := New(store, an, nil, Config{Timeout: 20 * time.Millisecond})
	m := createMedia(t, store, "u1", "cat.jpg")

	res, err := p.Process(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusError, res.Status)
	assert.Contains(t, res.Error, context.DeadlineExceeded.Error())

	got, err := store.GetMediaByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusError, got.Status)
}

func TestProcessBatch(t *testing.T) {
	store := setupStore(t)
	an := goodAnalyzer()
	p := New(store, an, &stubEmbedder{vec: []float64{1, 0}}, Config{Workers: 2})

	var ids []string
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg"} {
		ids = append(ids, createMedia(t, store, "u1", name).ID)
	}
	ids = append(ids, "missing")

	stats, err := p.ProcessBatch(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Processed)
	assert.Equal(t, 5, stats.Ready)
	assert.Equal(t, 1, stats.Failed)
	require.Len(t, stats.ErrorMessages, 1)
	assert.Contains(t, stats.ErrorMessages[0], "missing")

	ready, err := store.ListReady(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, ready, 5)
}

func TestProcessBatchEmbedsInOneCall(t *testing.T) {
	store := setupStore(t)
	emb := &stubEmbedder{vec: []float64{0.6, 0.8}}
	p := New(store, goodAnalyzer(), emb, Config{Workers: 3})

	var ids []string
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"} {
		ids = append(ids, createMedia(t, store, "u1", name).ID)
	}

	stats, err := p.ProcessBatch(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Ready)
	assert.Zero(t, stats.Degraded)

	assert.Equal(t, int32(1), emb.batchCalls.Load())
	assert.Equal(t, int32(0), emb.singleCalls.Load())
	assert.Len(t, emb.batchTexts, 4)

	ready, err := store.ListReady(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, ready, 4)
	for _, m := range ready {
		assert.Equal(t, []float64{0.6, 0.8}, m.Embedding, m.OriginalName)
	}
}

func TestProcessBatchFallsBackPerItem(t *testing.T) {
	store := setupStore(t)
	emb := &stubEmbedder{vec: []float64{1, 0}, batchErr: errors.New("batch endpoint down")}
	p := New(store, goodAnalyzer(), emb, Config{Workers: 2})

	var ids []string
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		ids = append(ids, createMedia(t, store, "u1", name).ID)
	}

	stats, err := p.ProcessBatch(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Ready)
	assert.Zero(t, stats.Degraded)
	assert.Equal(t, int32(1), emb.batchCalls.Load())
	assert.Equal(t, int32(3), emb.singleCalls.Load())

	ready, err := store.ListReady(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, ready, 3)
	for _, m := range ready {
		assert.Equal(t, []float64{1, 0}, m.Embedding)
	}
}

func TestProcessBatchEmbeddingFailureDegrades(t *testing.T) {
	store := setupStore(t)
	emb := &stubEmbedder{vec: []float64{1, 0}, err: errors.New("quota exceeded")}
	p := New(store, goodAnalyzer(), emb, Config{Workers: 2})

	a := createMedia(t, store, "u1", "a.jpg")
	b := createMedia(t, store, "u1", "b.jpg")

	stats, err := p.ProcessBatch(context.Background(), []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Ready)
	assert.Equal(t, 2, stats.Degraded)

	got, err := store.GetMediaByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusReady, got.Status)
	assert.Empty(t, got.Embedding)
}

func TestProcessBatchCanceled(t *testing.T) {
	store := setupStore(t)
	p := New(store, goodAnalyzer(), nil, Config{Workers: 1})
	m := createMedia(t, store, "u1", "a.jpg")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ProcessBatch(ctx, []string{m.ID})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimiterPacesAnalyzerCalls(t *testing.T) {
	store := setupStore(t)
	an := goodAnalyzer()
	// three analyzer calls per item, the first one free from the burst
	p := New(store, an, nil, Config{RatePerSecond: 50, Burst: 1})
	m := createMedia(t, store, "u1", "a.jpg")

	start := time.Now()
	_, err := p.Process(context.Background(), m.ID)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, int32(3), an.calls.Load())
}

func TestReprocess(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	an := goodAnalyzer()
	an.describeErr = errors.New("offline")
	p := New(store, an, nil, Config{})

	a := createMedia(t, store, "u1", "a.jpg")
	b := createMedia(t, store, "u2", "b.jpg")
	_, err := p.ProcessBatch(ctx, []string{a.ID, b.ID})
	require.NoError(t, err)

	an.describeErr = nil
	stats, err := p.Reprocess(ctx, types.StatusError)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 2, stats.Ready)

	remaining, err := store.ListByStatus(ctx, types.StatusError, 0)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestReprocessInvalidStatus(t *testing.T) {
	p := New(setupStore(t), goodAnalyzer(), nil, Config{})
	_, err := p.Reprocess(context.Background(), "done")
	assert.ErrorIs(t, err, types.ErrInvalidStatus)
}

func TestReprocessInProgress(t *testing.T) {
	store := setupStore(t)
	an := goodAnalyzer()
	an.block = make(chan struct{})
	p := New(store, an, nil, Config{})
	createMedia(t, store, "u1", "a.jpg")

	done := make(chan error, 1)
	go func() {
		_, err := p.Reprocess(context.Background(), types.StatusUploading)
		done <- err
	}()

	require.Eventually(t, func() bool { return an.calls.Load() > 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, p.Reprocessing())

	_, err := p.Reprocess(context.Background(), types.StatusUploading)
	assert.ErrorIs(t, err, ErrReprocessInProgress)

	close(an.block)
	require.NoError(t, <-done)
	assert.False(t, p.Reprocessing())
}

func TestEmbeddingText(t *testing.T) {
	assert.Equal(t, "desc a b t", EmbeddingText("desc", []string{"a", "b"}, []string{"t"}))
	assert.Equal(t, "desc  ", EmbeddingText("desc", nil, nil))
}

func TestRunLock(t *testing.T) {
	var l runLock
	assert.True(t, l.TryAcquire())
	assert.False(t, l.TryAcquire())
	assert.True(t, l.Held())
	l.Release()
	assert.False(t, l.Held())
	assert.True(t, l.TryAcquire())
}
