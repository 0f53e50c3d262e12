package types

// ScoredMedia is a Media annotated with the scores of one ranking pass.
// FinalScore = 0.55*SemanticScore + 0.30*KeywordScore + 0.15*RecencyScore.
type ScoredMedia struct {
	Media

	SemanticScore float64 `json:"semanticScore"`
	KeywordScore  float64 `json:"keywordScore"`
	RecencyScore  float64 `json:"recencyScore"`
	FinalScore    float64 `json:"finalScore"`
}

// Unscored wraps media that was matched without ranking (keyword fallback)
func Unscored(media []*Media) []ScoredMedia {
	out := make([]ScoredMedia, 0, len(media))
	for _, m := range media {
		if m == nil {
			continue
		}
		out = append(out, ScoredMedia{Media: *m})
	}
	return out
}
