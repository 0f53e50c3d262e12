package embedder

import (
	"context"
	"fmt"
	"strings"

	"github.com/shivankMERNPro/MediaSense-AI/internal/vecmath"
)

// GeminiProvider implements Embedder using the Gemini embeddings API
type GeminiProvider struct {
	remote
}

// NewGeminiProvider creates a Gemini embedder
func NewGeminiProvider(apiKey string, cache *Cache, opts ...Option) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvGeminiAPIKey)
	}

	return &GeminiProvider{
		remote: newRemote(ProviderGemini, apiKey, DefaultGeminiModel, DefaultGeminiBaseURL, GeminiDimension, cache, opts),
	}, nil
}

func (g *GeminiProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	return g.generate(ctx, req, g.callAPI)
}

func (g *GeminiProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	return g.generateBatch(ctx, req, g.callAPI)
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiEmbedRequest struct {
	Model                string        `json:"model"`
	Content              geminiContent `json:"content"`
	OutputDimensionality int           `json:"outputDimensionality,omitempty"`
}

type geminiBatchResponse struct {
	Embeddings []struct {
		Values []float64 `json:"values"`
	} `json:"embeddings"`
}

func (g *GeminiProvider) callAPI(ctx context.Context, texts []string, model string) ([]*Embedding, error) {
	resource := model
	if !strings.HasPrefix(resource, "models/") {
		resource = "models/" + model
	}

	outDim := 0
	if g.explicitDim {
		outDim = g.dimension
	}

	requests := make([]geminiEmbedRequest, len(texts))
	for i, text := range texts {
		requests[i] = geminiEmbedRequest{
			Model:                resource,
			Content:              geminiContent{Parts: []geminiPart{{Text: text}}},
			OutputDimensionality: outDim,
		}
	}

	url := strings.TrimRight(g.baseURL, "/") + "/" + resource + ":batchEmbedContents"
	headers := map[string]string{"x-goog-api-key": g.apiKey}

	var apiResp geminiBatchResponse
	if err := g.postJSON(ctx, url, headers, map[string]any{"requests": requests}, &apiResp); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(apiResp.Embeddings))
	for i, e := range apiResp.Embeddings {
		vec := vecmath.Coerce(e.Values)
		embeddings[i] = &Embedding{
			Vector:    vec,
			Dimension: len(vec),
			Provider:  ProviderGemini,
			Model:     strings.TrimPrefix(model, "models/"),
		}
	}
	return embeddings, nil
}
