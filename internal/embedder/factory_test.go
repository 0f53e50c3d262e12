package embedder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"nothing configured", Config{}, ProviderLocal},
		{"auto with gemini key", Config{Provider: "auto", GeminiAPIKey: "g"}, ProviderGemini},
		{"gemini preferred over openai", Config{GeminiAPIKey: "g", OpenAIAPIKey: "o"}, ProviderGemini},
		{"openai key only", Config{OpenAIAPIKey: "o"}, ProviderOpenAI},
		{"explicit wins", Config{Provider: "LOCAL", GeminiAPIKey: "g"}, ProviderLocal},
		{"explicit unknown passes through", Config{Provider: "jina"}, "jina"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectProvider(tt.cfg))
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("local by default", func(t *testing.T) {
		emb, err := New(Config{CacheSize: 10, Dimension: 64})
		require.NoError(t, err)
		assert.Equal(t, ProviderLocal, emb.Provider())
		assert.Equal(t, 64, emb.Dimension())
	})

	t.Run("gemini", func(t *testing.T) {
		emb, err := New(Config{Provider: "gemini", GeminiAPIKey: "g", Model: "text-embedding-004"})
		require.NoError(t, err)
		assert.Equal(t, ProviderGemini, emb.Provider())
		assert.Equal(t, "text-embedding-004", emb.Model())
	})

	t.Run("openai without key", func(t *testing.T) {
		_, err := New(Config{Provider: "openai"})
		assert.ErrorIs(t, err, ErrNoProviderEnabled)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := New(Config{Provider: "jina"})
		assert.ErrorIs(t, err, ErrUnsupportedModel)
	})

	t.Run("breaker wrapping", func(t *testing.T) {
		bc := DefaultBreakerConfig()
		emb, err := New(Config{Provider: "local", Breaker: &bc})
		require.NoError(t, err)

		_, ok := emb.(*Breaker)
		assert.True(t, ok)
		assert.Equal(t, ProviderLocal, emb.Provider())
	})
}
