package embedder

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/shivankMERNPro/MediaSense-AI/internal/logging"
	"github.com/shivankMERNPro/MediaSense-AI/internal/metrics"
)

// BreakerConfig tunes the circuit breaker around a provider
type BreakerConfig struct {
	MaxRequests  uint32        // requests let through while half-open
	Interval     time.Duration // closed-state counting window
	Timeout      time.Duration // open duration before probing again
	MinRequests  uint32        // requests needed before the ratio is considered
	FailureRatio float64       // trip at or above this failure ratio
}

// DefaultBreakerConfig opens after 60% failures over at least 5 requests
// and lets a trial request through after 30 seconds
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// Breaker wraps an Embedder with a circuit breaker. Validation errors and
// caller cancellations do not count as failures.
type Breaker struct {
	inner Embedder
	cb    *gobreaker.CircuitBreaker[any]
}

// NewBreaker wraps inner
func NewBreaker(inner Embedder, cfg BreakerConfig) *Breaker {
	name := inner.Provider()
	metrics.EmbeddingBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("embedding circuit breaker state change")

			open := 0.0
			if to == gobreaker.StateOpen {
				open = 1
			}
			metrics.EmbeddingBreakerState.WithLabelValues(name).Set(open)
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrEmptyText) ||
				errors.Is(err, ErrInvalidInput) ||
				errors.Is(err, ErrBatchTooLarge) ||
				errors.Is(err, context.Canceled)
		},
	})

	return &Breaker{inner: inner, cb: cb}
}

// State returns the current breaker state
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	return castResult[Embedding](b.execute(func() (any, error) {
		return b.inner.GenerateEmbedding(ctx, req)
	}))
}

func (b *Breaker) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	return castResult[BatchEmbeddingResponse](b.execute(func() (any, error) {
		return b.inner.GenerateBatch(ctx, req)
	}))
}

func (b *Breaker) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrProviderFailed, err)
	}
	return result, err
}

func castResult[T any](result any, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func (b *Breaker) Dimension() int {
	return b.inner.Dimension()
}

func (b *Breaker) Provider() string {
	return b.inner.Provider()
}

func (b *Breaker) Model() string {
	return b.inner.Model()
}

func (b *Breaker) Close() error {
	return b.inner.Close()
}
