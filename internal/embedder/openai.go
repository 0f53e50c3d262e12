package embedder

import (
	"context"
	"fmt"
	"strings"

	"github.com/shivankMERNPro/MediaSense-AI/internal/vecmath"
)

// OpenAIProvider implements Embedder using the OpenAI embeddings API
type OpenAIProvider struct {
	remote
}

// NewOpenAIProvider creates a new OpenAI embedder
func NewOpenAIProvider(apiKey string, cache *Cache, opts ...Option) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvOpenAIAPIKey)
	}

	return &OpenAIProvider{
		remote: newRemote(ProviderOpenAI, apiKey, DefaultOpenAIModel, DefaultOpenAIBaseURL, OpenAIDimension, cache, opts),
	}, nil
}

func (o *OpenAIProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	return o.generate(ctx, req, o.callAPI)
}

func (o *OpenAIProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	return o.generateBatch(ctx, req, o.callAPI)
}

func (o *OpenAIProvider) callAPI(ctx context.Context, texts []string, model string) ([]*Embedding, error) {
	reqBody := map[string]any{
		"input": texts,
		"model": model,
	}
	if o.explicitDim {
		reqBody["dimensions"] = o.dimension
	}

	var apiResp struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
		Model string `json:"model"`
	}

	url := strings.TrimRight(o.baseURL, "/") + "/embeddings"
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}
	if err := o.postJSON(ctx, url, headers, reqBody, &apiResp); err != nil {
		return nil, err
	}

	respModel := apiResp.Model
	if respModel == "" {
		respModel = model
	}

	// Data is documented as index-ordered but we place by index regardless
	embeddings := make([]*Embedding, len(apiResp.Data))
	for _, data := range apiResp.Data {
		if data.Index < 0 || data.Index >= len(embeddings) {
			return nil, fmt.Errorf("embedding index %d out of range", data.Index)
		}
		vec := vecmath.Coerce(data.Embedding)
		embeddings[data.Index] = &Embedding{
			Vector:    vec,
			Dimension: len(vec),
			Provider:  ProviderOpenAI,
			Model:     respModel,
		}
	}
	for i, e := range embeddings {
		if e == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}
	return embeddings, nil
}
