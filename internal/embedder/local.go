package embedder

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/shivankMERNPro/MediaSense-AI/internal/vecmath"
)

// LocalProvider produces deterministic bag-of-words vectors without any
// network access. Each token is hashed to a signed bucket, so texts that
// share words point in similar directions. It is meant for tests and
// offline installs, not for quality semantic search.
type LocalProvider struct {
	model     string
	dimension int
	cache     *Cache
}

// NewLocalProvider creates a local embedder. dim <= 0 uses LocalDimension.
func NewLocalProvider(cache *Cache, dim int) (*LocalProvider, error) {
	if dim <= 0 {
		dim = LocalDimension
	}
	return &LocalProvider{
		model:     DefaultLocalModel,
		dimension: dim,
		cache:     cache,
	}, nil
}

func (l *LocalProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := ComputeHash(req.Text)
	if l.cache != nil {
		if emb, ok := l.cache.Get(hash); ok {
			return emb, nil
		}
	}

	emb := &Embedding{
		Vector:    l.vectorize(req.Text),
		Dimension: l.dimension,
		Provider:  ProviderLocal,
		Model:     l.model,
		Hash:      hash,
	}

	if l.cache != nil {
		l.cache.Set(hash, emb)
	}
	return emb, nil
}

func (l *LocalProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(req.Texts))
	for i, text := range req.Texts {
		emb, err := l.GenerateEmbedding(ctx, EmbeddingRequest{Text: text})
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   ProviderLocal,
		Model:      l.model,
	}, nil
}

// vectorize hashes each lower-cased alphanumeric token into one of
// dimension buckets with a hash-derived sign, then normalizes
func (l *LocalProvider) vectorize(text string) []float64 {
	vec := make([]float64, l.dimension)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum(nil)

		bucket := binary.BigEndian.Uint32(sum[:4]) % uint32(l.dimension)
		sign := 1.0
		if sum[4]&1 == 1 {
			sign = -1.0
		}
		vec[bucket] += sign
	}

	return vecmath.Normalize(vec)
}

func (l *LocalProvider) Dimension() int {
	return l.dimension
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

func (l *LocalProvider) Model() string {
	return l.model
}

func (l *LocalProvider) Close() error {
	return nil
}
