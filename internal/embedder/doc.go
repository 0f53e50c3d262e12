// Package embedder turns media metadata and search queries into vector
// embeddings.
//
// Three providers are available: Gemini (gemini-embedding-001, the default
// when GEMINI_API_KEY is set), OpenAI (text-embedding-3-small) and a local
// deterministic provider that needs no network and is used for tests and
// offline installs. Every provider shares an LRU cache keyed by the SHA-256
// of the input text and retries transient API failures with exponential
// backoff.
//
// # Basic Usage
//
//	emb, err := embedder.New(embedder.Config{Provider: "auto", APIKey: key})
//	if err != nil {
//	    return err
//	}
//	defer emb.Close()
//
//	vec, err := embedder.Vector(ctx, emb, "sunset over the ocean")
//
// # Circuit Breaker
//
// Wrap a provider with NewBreaker so a failing upstream is skipped quickly
// instead of stalling every search on timeouts and retries:
//
//	emb = embedder.NewBreaker(emb, embedder.DefaultBreakerConfig())
//
// While the breaker is open calls fail fast with ErrProviderFailed and the
// searcher falls back to keyword search.
//
// # Vector format
//
// Vectors are []float64 and are stored as-is; providers do not normalize
// them. Cosine similarity in the ranker normalizes on the fly, so vectors
// of any magnitude rank the same way. Vectors from different models have
// different dimensions and never score against each other.
package embedder
