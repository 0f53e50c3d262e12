package searcher

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/shivankMERNPro/MediaSense-AI/internal/embedder"
	"github.com/shivankMERNPro/MediaSense-AI/internal/logging"
	"github.com/shivankMERNPro/MediaSense-AI/internal/metrics"
	"github.com/shivankMERNPro/MediaSense-AI/internal/ranker"
	"github.com/shivankMERNPro/MediaSense-AI/internal/storage"
	"github.com/shivankMERNPro/MediaSense-AI/pkg/types"
)

const (
	// MinQueryLength is the shortest trimmed query, in runes, that is embedded
	MinQueryLength = 3

	DefaultLimit = ranker.DefaultLimit
	MaxLimit     = 100

	DefaultCacheSize = 1000
	DefaultCacheTTL  = time.Minute
)

// Mode reports which path produced a response
type Mode string

const (
	ModeSemantic Mode = metrics.ModeSemantic
	ModeKeyword  Mode = metrics.ModeKeyword
)

// SearchRequest contains parameters for a search operation
type SearchRequest struct {
	OwnerID  string
	Query    string
	Limit    int
	UseCache bool
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results []types.ScoredMedia
	Total   int
	Mode    Mode

	// FallbackReason is set when Mode is keyword
	FallbackReason string

	Duration time.Duration
	CacheHit bool
}

type cacheKey struct {
	owner string
	query string
	limit int
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher routes queries to semantic ranking or the keyword fallback
type Searcher struct {
	source   storage.CandidateSource
	embedder embedder.Embedder
	ranker   *ranker.Ranker

	embedTimeout time.Duration
	cacheTTL     time.Duration
	cache        *lru.Cache[cacheKey, *cacheEntry]
	cacheMu      sync.RWMutex
}

// Option configures a Searcher
type Option func(*Searcher)

// WithRanker replaces the default wall-clock ranker
func WithRanker(r *ranker.Ranker) Option {
	return func(s *Searcher) {
		if r != nil {
			s.ranker = r
		}
	}
}

// WithCache sets the response cache size and TTL
func WithCache(size int, ttl time.Duration) Option {
	return func(s *Searcher) {
		if size > 0 {
			if c, err := lru.New[cacheKey, *cacheEntry](size); err == nil {
				s.cache = c
			}
		}
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithEmbedTimeout bounds the query embedding call. Zero means no bound
// beyond the caller's context.
func WithEmbedTimeout(d time.Duration) Option {
	return func(s *Searcher) {
		s.embedTimeout = d
	}
}

// New creates a Searcher. emb may be nil, in which case every search takes
// the keyword path.
func New(source storage.CandidateSource, emb embedder.Embedder, opts ...Option) *Searcher {
	cache, err := lru.New[cacheKey, *cacheEntry](DefaultCacheSize)
	if err != nil {
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	s := &Searcher{
		source:   source,
		embedder: emb,
		ranker:   ranker.New(),
		cacheTTL: DefaultCacheTTL,
		cache:    cache,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search performs a search based on the request parameters
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	start := time.Now()

	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	key := cacheKey{owner: req.OwnerID, query: req.Query, limit: req.Limit}
	if req.UseCache {
		if cached := s.checkCache(key); cached != nil {
			metrics.SearchCacheHits.Inc()
			cached.CacheHit = true
			cached.Duration = time.Since(start)
			return cached, nil
		}
		metrics.SearchCacheMisses.Inc()
	}

	response, err := s.search(ctx, req)
	if err != nil {
		return nil, err
	}

	response.Total = len(response.Results)
	response.Duration = time.Since(start)
	metrics.RecordSearch(string(response.Mode), response.Duration)

	if req.UseCache && response.FallbackReason != metrics.ReasonEmbeddingUnavailable {
		s.storeInCache(key, response)
	}

	logging.Ctx(ctx).Debug().
		Str("owner_id", req.OwnerID).
		Str("mode", string(response.Mode)).
		Str("fallback", response.FallbackReason).
		Int("results", response.Total).
		Dur("duration", response.Duration).
		Msg("search completed")

	return response, nil
}

// validateRequest trims the query and applies limit defaults
func validateRequest(req *SearchRequest) error {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return types.ErrEmptyQuery
	}
	if req.OwnerID == "" {
		return types.ErrMissingOwner
	}

	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
	return nil
}

func (s *Searcher) search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if utf8.RuneCountInString(req.Query) < MinQueryLength {
		return s.keywordSearch(ctx, req, metrics.ReasonShortQuery)
	}

	vec, ok := s.embedQuery(ctx, req.Query)
	if !ok {
		return s.keywordSearch(ctx, req, metrics.ReasonEmbeddingUnavailable)
	}

	candidates, err := s.source.ListReady(ctx, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	return &SearchResponse{
		Results: s.ranker.Rank(candidates, vec, req.Query, req.Limit),
		Mode:    ModeSemantic,
	}, nil
}

// embedQuery returns the query vector, or false when none is usable
func (s *Searcher) embedQuery(ctx context.Context, query string) ([]float64, bool) {
	if s.embedder == nil {
		return nil, false
	}

	if s.embedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.embedTimeout)
		defer cancel()
	}

	vec, err := embedder.Vector(ctx, s.embedder, query)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("provider", s.embedder.Provider()).Msg("query embedding failed, using keyword search")
		return nil, false
	}
	if len(vec) == 0 {
		logging.Ctx(ctx).Warn().Str("provider", s.embedder.Provider()).Msg("query embedding empty, using keyword search")
		return nil, false
	}
	return vec, true
}

func (s *Searcher) keywordSearch(ctx context.Context, req SearchRequest, reason string) (*SearchResponse, error) {
	metrics.SearchFallbacks.WithLabelValues(reason).Inc()

	items, err := s.source.KeywordSearch(ctx, req.OwnerID, req.Query, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	return &SearchResponse{
		Results:        types.Unscored(items),
		Mode:           ModeKeyword,
		FallbackReason: reason,
	}, nil
}

// checkCache returns a copy of a live cached response, or nil
func (s *Searcher) checkCache(key cacheKey) *SearchResponse {
	s.cacheMu.RLock()
	entry, found := s.cache.Get(key)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}

	if time.Now().After(entry.expiresAt) {
		s.cacheMu.RUnlock()

		s.cacheMu.Lock()
		s.cache.Remove(key)
		s.cacheMu.Unlock()
		return nil
	}

	response := copySearchResponse(entry.response)
	s.cacheMu.RUnlock()
	return response
}

func (s *Searcher) storeInCache(key cacheKey, response *SearchResponse) {
	entry := &cacheEntry{
		response:  copySearchResponse(response),
		expiresAt: time.Now().Add(s.cacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(key, entry)
	s.cacheMu.Unlock()
}

// copySearchResponse creates a deep copy of a SearchResponse
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}

	dst := *src
	dst.Results = make([]types.ScoredMedia, len(src.Results))
	for i, r := range src.Results {
		dst.Results[i] = r
		dst.Results[i].Media = *r.Media.Clone()
	}
	return &dst
}

// InvalidateOwner drops every cached response for ownerID
func (s *Searcher) InvalidateOwner(ownerID string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	for _, k := range s.cache.Keys() {
		if k.owner == ownerID {
			s.cache.Remove(k)
		}
	}
}

// InvalidateCache drops every cached response
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// CacheLen returns the number of cached responses
func (s *Searcher) CacheLen() int {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.cache.Len()
}
