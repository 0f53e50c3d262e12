package ranker

import (
	"math"
	"sort"
	"time"

	"github.com/shivankMERNPro/MediaSense-AI/internal/logging"
	"github.com/shivankMERNPro/MediaSense-AI/internal/metrics"
	"github.com/shivankMERNPro/MediaSense-AI/internal/vecmath"
	"github.com/shivankMERNPro/MediaSense-AI/pkg/types"
)

// Scoring constants; not configurable.
const (
	SemanticWeight = 0.55
	KeywordWeight  = 0.30
	RecencyWeight  = 0.15

	// MinFinalScore is exclusive: a candidate must score strictly above it
	MinFinalScore = 0.10

	DefaultLimit = 20
)

// Ranker performs hybrid ranking. The zero value is not usable; call New.
type Ranker struct {
	now func() time.Time
}

// Option configures a Ranker
type Option func(*Ranker)

// WithClock overrides the wall clock used by the recency term
func WithClock(now func() time.Time) Option {
	return func(r *Ranker) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates a Ranker
func New(opts ...Option) *Ranker {
	r := &Ranker{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank scores every candidate, drops those at or below MinFinalScore, and
// returns the rest best-first, at most limit entries (DefaultLimit when
// limit <= 0).
//
// Candidates are expected to be pre-filtered to one owner and to ready
// status. query may be a string or a decoded JSON object (see
// ResolveQueryText).
func (r *Ranker) Rank(candidates []*types.Media, queryVector []float64, query any, limit int) []types.ScoredMedia {
	if limit <= 0 {
		limit = DefaultLimit
	}

	qv := vecmath.Coerce(queryVector)
	tokens := Tokenize(ResolveQueryText(query))
	now := r.now()

	metrics.RankedCandidates.Observe(float64(len(candidates)))

	scored := make([]types.ScoredMedia, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}

		s := score(c, qv, tokens, now)
		if math.IsInf(s.FinalScore, 0) || math.IsNaN(s.FinalScore) {
			// recency overflows for timestamps far in the future
			logging.Warn().
				Str("media_id", c.ID).
				Time("created_at", c.CreatedAt).
				Msg("non-finite score, candidate dropped")
			continue
		}
		if !passesThreshold(s.FinalScore) {
			continue
		}
		scored = append(scored, s)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].FinalScore > scored[j].FinalScore
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// score computes the four derived scores for one candidate
func score(c *types.Media, qv []float64, tokens []string, now time.Time) types.ScoredMedia {
	cv := vecmath.Coerce(c.Embedding)

	var semantic float64
	if reason := semanticGate(qv, cv); reason == "" {
		semantic = vecmath.CosineSimilarity(qv, cv)
	} else {
		metrics.SemanticGate.WithLabelValues(reason).Inc()
		if reason == metrics.GateDimensionMismatch {
			logging.Debug().
				Str("media_id", c.ID).
				Int("query_dim", len(qv)).
				Int("candidate_dim", len(cv)).
				Msg("embedding dimension mismatch, semantic score zeroed")
		}
	}

	keyword := KeywordScore(Haystack(c), tokens)
	recency := RecencyScore(c.CreatedAt, now)

	out := types.ScoredMedia{
		Media:         *c,
		SemanticScore: semantic,
		KeywordScore:  keyword,
		RecencyScore:  recency,
	}
	out.FinalScore = FinalScore(semantic, keyword, recency)
	return out
}

// FinalScore combines the three component scores with the fixed weights
func FinalScore(semantic, keyword, recency float64) float64 {
	return SemanticWeight*semantic + KeywordWeight*keyword + RecencyWeight*recency
}

func passesThreshold(final float64) bool {
	return final > MinFinalScore
}

// semanticGate returns "" when the semantic term may be computed, otherwise
// the reason it is forced to zero
func semanticGate(qv, cv []float64) string {
	switch {
	case len(qv) == 0:
		return metrics.GateEmptyQuery
	case len(cv) == 0:
		return metrics.GateEmptyCandidate
	case len(qv) != len(cv):
		return metrics.GateDimensionMismatch
	default:
		return ""
	}
}
