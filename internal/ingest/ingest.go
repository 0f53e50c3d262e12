package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/shivankMERNPro/MediaSense-AI/internal/analyzer"
	"github.com/shivankMERNPro/MediaSense-AI/internal/embedder"
	"github.com/shivankMERNPro/MediaSense-AI/internal/logging"
	"github.com/shivankMERNPro/MediaSense-AI/internal/metrics"
	"github.com/shivankMERNPro/MediaSense-AI/internal/storage"
	"github.com/shivankMERNPro/MediaSense-AI/pkg/types"
)

// ErrReprocessInProgress is returned when Reprocess is already running
var ErrReprocessInProgress = errors.New("reprocess already in progress")

const (
	// FailedDescription is stored on items whose analysis failed
	FailedDescription = "Failed to generate description, Tags & Topics"

	// Placeholder replaces tags or topics that could not be generated
	Placeholder = "N/A"

	DefaultWorkers = 4
	DefaultTimeout = 5 * time.Minute
)

// Config contains configuration for the pipeline
type Config struct {
	Workers int // Concurrent items in ProcessBatch (default: 4)

	// RatePerSecond paces analyzer calls across all workers; 0 disables pacing
	RatePerSecond float64
	Burst         int

	// Timeout bounds one item (default: 5m)
	Timeout time.Duration
}

// Result is the outcome of processing one item
type Result struct {
	MediaID  string
	OwnerID  string
	Status   types.Status
	Error    string
	Degraded []string // steps that fell back: tags, topics, embedding
	Duration time.Duration
}

// Statistics contains statistics about a batch run
type Statistics struct {
	Processed     int
	Ready         int
	Failed        int
	Degraded      int
	Duration      time.Duration
	ErrorMessages []string
}

// Pipeline analyzes and embeds media
type Pipeline struct {
	store    storage.Storage
	analyzer analyzer.Analyzer
	embedder embedder.Embedder

	limiter *rate.Limiter
	workers int
	timeout time.Duration

	reprocess   runLock
	onProcessed func(ownerID string)
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithOnProcessed registers a callback run after every saved item,
// ready or failed
func WithOnProcessed(fn func(ownerID string)) Option {
	return func(p *Pipeline) {
		p.onProcessed = fn
	}
}

// New creates a pipeline. emb may be nil, in which case items are saved
// without embeddings.
func New(store storage.Storage, an analyzer.Analyzer, emb embedder.Embedder, cfg Config, opts ...Option) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	p := &Pipeline{
		store:    store,
		analyzer: an,
		embedder: emb,
		limiter:  limiter,
		workers:  cfg.Workers,
		timeout:  cfg.Timeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process analyzes one item. Analysis failures are recorded on the item and
// reported in the Result; the returned error is reserved for storage
// failures such as an unknown id.
func (p *Pipeline) Process(ctx context.Context, mediaID string) (*Result, error) {
	item, err := p.prepare(ctx, mediaID)
	if err != nil {
		return nil, err
	}

	if text, ok := item.embeddingText(); ok {
		embedCtx, cancel := context.WithTimeout(ctx, p.timeout)
		item.setEmbedding(p.embed(embedCtx, text))
		cancel()
	}
	return p.finish(ctx, item)
}

// pending is an item that has been analyzed but not yet embedded and saved
type pending struct {
	media    *types.Media
	analysis storage.Analysis
	result   *Result
	start    time.Time
}

// embeddingText returns the text to embed; items that failed analysis get none
func (it *pending) embeddingText() (string, bool) {
	if it.analysis.Status != types.StatusReady {
		return "", false
	}
	return EmbeddingText(it.analysis.Description, it.analysis.Tags, it.analysis.Topics), true
}

func (it *pending) setEmbedding(vec []float64) {
	if vec == nil {
		vec = []float64{}
	}
	it.analysis.Embedding = vec
	if len(vec) == 0 {
		it.result.Degraded = append(it.result.Degraded, "embedding")
	}
}

// prepare loads an item, marks it analyzing and runs the analyzer calls
func (p *Pipeline) prepare(ctx context.Context, mediaID string) (*pending, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	m, err := p.store.GetMediaByID(ctx, mediaID)
	if err != nil {
		return nil, fmt.Errorf("failed to load media %s: %w", mediaID, err)
	}

	if err := p.store.SetStatus(ctx, mediaID, types.StatusAnalyzing, ""); err != nil {
		return nil, fmt.Errorf("failed to mark media analyzing: %w", err)
	}

	result := &Result{MediaID: mediaID, OwnerID: m.OwnerID}
	analysis, err := p.analyze(ctx, m, result)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("media_id", mediaID).Str("owner_id", m.OwnerID).Msg("media analysis failed")
		analysis = failedAnalysis(err)
		result.Error = err.Error()
	}
	result.Status = analysis.Status

	return &pending{media: m, analysis: analysis, result: result, start: start}, nil
}

// finish saves the analysis and reports the outcome
func (p *Pipeline) finish(ctx context.Context, it *pending) (*Result, error) {
	m, result := it.media, it.result

	// record the outcome even if ctx ran out during analysis
	saveCtx := context.WithoutCancel(ctx)
	if err := p.store.SaveAnalysis(saveCtx, m.ID, it.analysis); err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}

	result.Duration = time.Since(it.start)
	metrics.IngestProcessed.WithLabelValues(string(result.Status)).Inc()
	metrics.IngestDuration.Observe(result.Duration.Seconds())

	if p.onProcessed != nil {
		p.onProcessed(m.OwnerID)
	}

	logging.Ctx(ctx).Info().
		Str("media_id", m.ID).
		Str("owner_id", m.OwnerID).
		Str("status", string(result.Status)).
		Strs("degraded", result.Degraded).
		Dur("duration", result.Duration).
		Msg("media processed")

	return result, nil
}

// analyze runs describe, tags and topics. Only a describe failure is
// returned as an error. The embedding is filled in by the caller.
func (p *Pipeline) analyze(ctx context.Context, m *types.Media, result *Result) (storage.Analysis, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return storage.Analysis{}, err
	}
	description, err := p.analyzer.Describe(ctx, analyzer.Input{
		Path:         m.FilePath,
		OriginalName: m.OriginalName,
		FileType:     m.FileType,
		MimeType:     m.MimeType,
	})
	if err != nil {
		return storage.Analysis{}, fmt.Errorf("describe: %w", err)
	}

	tags, err := p.labels(ctx, func(ctx context.Context) ([]string, error) {
		return p.analyzer.Tags(ctx, description)
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("media_id", m.ID).Msg("tag generation failed")
		result.Degraded = append(result.Degraded, "tags")
	}

	topics, err := p.labels(ctx, func(ctx context.Context) ([]string, error) {
		return p.analyzer.Topics(ctx, description, tags)
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("media_id", m.ID).Msg("topic generation failed")
		result.Degraded = append(result.Degraded, "topics")
	}

	return storage.Analysis{
		Description: description,
		Tags:        tags,
		Topics:      topics,
		Embedding:   []float64{},
		Status:      types.StatusReady,
		AnalyzedAt:  time.Now(),
	}, nil
}

// labels runs a paced tags or topics call, degrading to the placeholder
func (p *Pipeline) labels(ctx context.Context, call func(context.Context) ([]string, error)) ([]string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return []string{Placeholder}, err
	}
	out, err := call(ctx)
	if err != nil {
		return []string{Placeholder}, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// embed returns an empty vector when no embedder is configured or it fails
func (p *Pipeline) embed(ctx context.Context, text string) []float64 {
	if p.embedder == nil {
		return []float64{}
	}

	vec, err := embedder.Vector(ctx, p.embedder, text)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("provider", p.embedder.Provider()).Msg("media embedding failed")
		return []float64{}
	}
	return vec
}

// embedBatch embeds the analyzed items of a batch in chunks of
// embedder.MaxBatchSize. A failed chunk falls back to one call per item.
func (p *Pipeline) embedBatch(ctx context.Context, items []*pending) {
	var (
		todo  []*pending
		texts []string
	)
	for _, it := range items {
		if it == nil {
			continue
		}
		if text, ok := it.embeddingText(); ok {
			todo = append(todo, it)
			texts = append(texts, text)
		}
	}
	if len(todo) == 0 {
		return
	}
	if p.embedder == nil {
		for _, it := range todo {
			it.setEmbedding(nil)
		}
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	for start := 0; start < len(todo); start += embedder.MaxBatchSize {
		end := min(start+embedder.MaxBatchSize, len(todo))

		vecs, err := embedder.Vectors(ctx, p.embedder, texts[start:end])
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("provider", p.embedder.Provider()).
				Int("items", end-start).
				Msg("batch embedding failed, embedding items one by one")
			for i, it := range todo[start:end] {
				it.setEmbedding(p.embed(ctx, texts[start+i]))
			}
			continue
		}
		for i, it := range todo[start:end] {
			it.setEmbedding(vecs[i])
		}
	}
}

// EmbeddingText is the text embedded for an item
func EmbeddingText(description string, tags, topics []string) string {
	return description + " " + strings.Join(tags, " ") + " " + strings.Join(topics, " ")
}

func failedAnalysis(err error) storage.Analysis {
	return storage.Analysis{
		Description:     FailedDescription,
		Tags:            []string{Placeholder},
		Topics:          []string{Placeholder},
		Embedding:       []float64{},
		Status:          types.StatusError,
		ProcessingError: err.Error(),
		AnalyzedAt:      time.Now(),
	}
}

// ProcessBatch analyzes ids on a bounded worker pool, embeds the results
// with batched embedder calls, then saves each item. Per-item failures are
// counted in the statistics; only cancellation stops the batch early.
func (p *Pipeline) ProcessBatch(ctx context.Context, ids []string) (*Statistics, error) {
	start := time.Now()
	stats := &Statistics{ErrorMessages: make([]string, 0)}

	prepared := make([]*pending, len(ids))
	prepareErrs := make([]error, len(ids))
	attempted := make([]bool, len(ids))

	sem := semaphore.NewWeighted(int64(p.workers))
	g, gctx := errgroup.WithContext(ctx)

	for i, id := range ids {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		attempted[i] = true

		g.Go(func() error {
			defer sem.Release(1)
			prepared[i], prepareErrs[i] = p.prepare(gctx, id)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.embedBatch(ctx, prepared)

	for i, id := range ids {
		if !attempted[i] {
			continue
		}
		stats.Processed++

		if prepareErrs[i] != nil {
			stats.Failed++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", id, prepareErrs[i]))
			continue
		}

		res, err := p.finish(ctx, prepared[i])
		switch {
		case err != nil:
			stats.Failed++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", id, err))
		case res.Status == types.StatusError:
			stats.Failed++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %s", id, res.Error))
		default:
			stats.Ready++
			if len(res.Degraded) > 0 {
				stats.Degraded++
			}
		}
	}

	stats.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

// Reprocess reruns every item currently in status. Only one Reprocess runs
// at a time; a concurrent call returns ErrReprocessInProgress.
func (p *Pipeline) Reprocess(ctx context.Context, status types.Status) (*Statistics, error) {
	if !status.Valid() {
		return nil, types.ErrInvalidStatus
	}
	if !p.reprocess.TryAcquire() {
		return nil, ErrReprocessInProgress
	}
	defer p.reprocess.Release()

	items, err := p.store.ListByStatus(ctx, status, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s media: %w", status, err)
	}

	ids := make([]string, len(items))
	for i, m := range items {
		ids[i] = m.ID
	}

	logging.Ctx(ctx).Info().Str("status", string(status)).Int("items", len(ids)).Msg("reprocessing media")
	return p.ProcessBatch(ctx, ids)
}

// Reprocessing reports whether a Reprocess run is in progress
func (p *Pipeline) Reprocessing() bool {
	return p.reprocess.Held()
}
