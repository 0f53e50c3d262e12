// Package ranker scores and orders a user's media against a free-text query.
//
// A ranking pass combines three signals per candidate:
//
//	semantic = cosine(queryVector, candidate.Embedding)   // 0 unless both non-empty and same length
//	keyword  = hits / len(tokens)                          // query tokens found in description, name and tags
//	recency  = exp(-ageDays / 90)
//
//	final    = 0.55*semantic + 0.30*keyword + 0.15*recency
//
// Candidates with final <= 0.10 are dropped, the rest are sorted by final
// score descending and cut to the limit (default 20).
//
// # Usage
//
//	r := ranker.New()
//	results := r.Rank(candidates, queryVector, "sunset over the ocean", 20)
//	for _, res := range results {
//	    fmt.Printf("%s %.3f\n", res.OriginalName, res.FinalScore)
//	}
//
// The ranker does no I/O and holds no mutable state; one Ranker may be shared
// by any number of goroutines. Candidates are never modified. Malformed input
// (empty or mismatched vectors, non-string queries) lowers the affected term
// to zero instead of failing.
//
// Recency is not clamped, so a candidate created in the future scores a
// recency term above 1 and a final score that may exceed 1.
package ranker
