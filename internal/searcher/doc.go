// Package searcher answers free-text searches over one owner's media.
//
// A search takes one of two paths:
//
//   - Semantic: the query is embedded, every ready item of the owner is
//     loaded, and the ranker combines cosine similarity, keyword coverage
//     and recency into one score.
//   - Keyword: a case-insensitive substring match over description, tags
//     and topics. Used when the trimmed query is shorter than
//     MinQueryLength runes, when no embedder is configured, or when the
//     embedder fails or returns no usable vector.
//
// An empty query fails with types.ErrEmptyQuery. Embedding failures never
// fail the search; storage failures do.
//
// # Caching
//
// Responses are kept in an LRU cache keyed by owner, query and limit for a
// short TTL, because the recency term drifts with wall-clock time. Keyword
// responses produced because the embedder was down are not cached, so the
// next search retries the semantic path. Library mutations must call
// InvalidateOwner.
//
// # Usage
//
//	s := searcher.New(store, emb)
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    OwnerID:  userID,
//	    Query:    "sunset over the ocean",
//	    Limit:    20,
//	    UseCache: true,
//	})
package searcher
