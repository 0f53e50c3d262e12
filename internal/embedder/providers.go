package embedder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/shivankMERNPro/MediaSense-AI/internal/logging"
	"github.com/shivankMERNPro/MediaSense-AI/internal/metrics"
)

// Provider configuration
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"
	ProviderAuto   = "auto"

	// Default models
	DefaultGeminiModel = "gemini-embedding-001"
	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultLocalModel  = "local-hash-v1"

	// Default endpoints
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	// Dimensions
	GeminiDimension = 3072
	OpenAIDimension = 1536
	LocalDimension  = 384

	// Batch limits
	MaxBatchSize = 100

	// Retry configuration
	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0

	defaultTimeout = 30 * time.Second
)

// APIError is a non-2xx answer from a provider
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed if sent again
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Option configures a remote provider
type Option func(*remote)

// WithModel overrides the default model
func WithModel(model string) Option {
	return func(r *remote) {
		if model != "" {
			r.model = model
		}
	}
}

// WithBaseURL overrides the API endpoint, mainly for tests and proxies
func WithBaseURL(url string) Option {
	return func(r *remote) {
		if url != "" {
			r.baseURL = url
		}
	}
}

// WithDimension requests a specific output dimension where the model supports it
func WithDimension(dim int) Option {
	return func(r *remote) {
		if dim > 0 {
			r.dimension = dim
			r.explicitDim = true
		}
	}
}

// WithTimeout sets the per-request HTTP timeout
func WithTimeout(d time.Duration) Option {
	return func(r *remote) {
		if d > 0 {
			r.httpClient.Timeout = d
		}
	}
}

// WithRetryConfig overrides the retry policy
func WithRetryConfig(cfg RetryConfig) Option {
	return func(r *remote) {
		r.retry = cfg
	}
}

// callFunc performs one upstream request for a batch of texts
type callFunc func(ctx context.Context, texts []string, model string) ([]*Embedding, error)

// remote holds what the HTTP-backed providers share: cache, retry and
// the request plumbing
type remote struct {
	name        string
	apiKey      string
	model       string
	baseURL     string
	dimension   int
	explicitDim bool
	httpClient  *http.Client
	cache       *Cache
	retry       RetryConfig
}

func newRemote(name, apiKey, model, baseURL string, dim int, cache *Cache, opts []Option) remote {
	r := remote{
		name:       name,
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		dimension:  dim,
		httpClient: &http.Client{Timeout: defaultTimeout},
		cache:      cache,
		retry:      DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r *remote) generate(ctx context.Context, req EmbeddingRequest, call callFunc) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	resp, err := r.generateBatch(ctx, BatchEmbeddingRequest{
		Texts: []string{req.Text},
		Model: req.Model,
	}, call)
	if err != nil {
		return nil, err
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", ErrProviderFailed)
	}
	return resp.Embeddings[0], nil
}

// generateBatch serves cached texts locally and sends only the misses upstream
func (r *remote) generateBatch(ctx context.Context, req BatchEmbeddingRequest, call callFunc) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = r.model
	}

	out := make([]*Embedding, len(req.Texts))
	hashes := make([]string, len(req.Texts))
	var missing []string
	var missingIdx []int

	for i, text := range req.Texts {
		hashes[i] = ComputeHash(model + "\x00" + text)
		if r.cache != nil {
			if emb, ok := r.cache.Get(hashes[i]); ok {
				out[i] = emb
				continue
			}
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		fetched, err := retryWithBackoff(ctx, r.retry, func() ([]*Embedding, error) {
			return call(ctx, missing, model)
		})
		metrics.RecordEmbedding(r.name, err)
		if err != nil {
			logging.Warn().Err(err).Str("provider", r.name).Int("texts", len(missing)).Msg("embedding request failed")
			return nil, fmt.Errorf("%w: %w", ErrProviderFailed, err)
		}
		if len(fetched) != len(missing) {
			return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrProviderFailed, len(missing), len(fetched))
		}

		for j, emb := range fetched {
			i := missingIdx[j]
			emb.Hash = hashes[i]
			if r.cache != nil {
				r.cache.Set(hashes[i], emb)
			}
			out[i] = emb
		}
	}

	return &BatchEmbeddingResponse{
		Embeddings: out,
		Provider:   r.name,
		Model:      model,
	}, nil
}

// postJSON sends body as JSON and decodes a 200 response into out
func (r *remote) postJSON(ctx context.Context, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Provider: r.name, StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (r *remote) Dimension() int {
	return r.dimension
}

func (r *remote) Provider() string {
	return r.name
}

func (r *remote) Model() string {
	return r.model
}

func (r *remote) Close() error {
	r.httpClient.CloseIdleConnections()
	return nil
}
