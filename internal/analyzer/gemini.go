package analyzer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/shivankMERNPro/MediaSense-AI/internal/logging"
	"github.com/shivankMERNPro/MediaSense-AI/internal/metrics"
)

const (
	ProviderGemini = "gemini"

	DefaultGeminiModel   = "gemini-2.5-flash"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	defaultTimeout = 2 * time.Minute

	maxTags   = 8
	maxTopics = 3
)

// GeminiAnalyzer implements Analyzer with the Gemini generateContent API
type GeminiAnalyzer struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// Option configures a GeminiAnalyzer
type Option func(*GeminiAnalyzer)

// WithModel overrides the default model
func WithModel(model string) Option {
	return func(g *GeminiAnalyzer) {
		if model != "" {
			g.model = model
		}
	}
}

// WithBaseURL overrides the API endpoint
func WithBaseURL(url string) Option {
	return func(g *GeminiAnalyzer) {
		if url != "" {
			g.baseURL = url
		}
	}
}

// WithTimeout sets the per-request HTTP timeout
func WithTimeout(d time.Duration) Option {
	return func(g *GeminiAnalyzer) {
		if d > 0 {
			g.httpClient.Timeout = d
		}
	}
}

// NewGeminiAnalyzer creates a Gemini-backed analyzer
func NewGeminiAnalyzer(apiKey string, opts ...Option) (*GeminiAnalyzer, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	g := &GeminiAnalyzer{
		apiKey:     apiKey,
		model:      DefaultGeminiModel,
		baseURL:    DefaultGeminiBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *GeminiAnalyzer) Name() string {
	return ProviderGemini
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// text joins the text parts of the first candidate
func (r *generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}

// Describe sends the file inline with a prompt chosen by media type
func (g *GeminiAnalyzer) Describe(ctx context.Context, in Input) (string, error) {
	kind := classify(in)
	if kind == kindUnsupported {
		return UnsupportedDescription, nil
	}

	data, err := readInline(in.Path)
	if err != nil {
		metrics.RecordAnalyzer(ProviderGemini, "describe", err)
		return "", err
	}

	mimeType := in.MimeType
	if kind == kindPDF {
		mimeType = "application/pdf"
	}

	req := generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
				{Text: kind.prompt()},
			},
		}},
	}

	text, err := g.generate(ctx, req)
	metrics.RecordAnalyzer(ProviderGemini, "describe", err)
	if err != nil {
		return "", err
	}
	if text == "" {
		return EmptyDescription, nil
	}
	return text, nil
}

// Tags asks the model for 5 to 8 tags in JSON mode
func (g *GeminiAnalyzer) Tags(ctx context.Context, description string) ([]string, error) {
	var out struct {
		Tags []string `json:"tags"`
	}
	err := g.generateJSON(ctx, []string{PromptTags, description}, &out)
	metrics.RecordAnalyzer(ProviderGemini, "tags", err)
	if err != nil {
		return nil, err
	}
	return CleanLabels(out.Tags, maxTags), nil
}

// Topics asks the model for 1 to 3 topics in JSON mode
func (g *GeminiAnalyzer) Topics(ctx context.Context, description string, tags []string) ([]string, error) {
	var out struct {
		Topics []string `json:"topics"`
	}
	prompts := []string{
		PromptTopics,
		"Description: " + description,
		"Tags: " + strings.Join(tags, ", "),
	}
	err := g.generateJSON(ctx, prompts, &out)
	metrics.RecordAnalyzer(ProviderGemini, "topics", err)
	if err != nil {
		return nil, err
	}
	return CleanLabels(out.Topics, maxTopics), nil
}

func (g *GeminiAnalyzer) generateJSON(ctx context.Context, texts []string, out any) error {
	parts := make([]part, len(texts))
	for i, t := range texts {
		parts[i] = part{Text: t}
	}

	text, err := g.generate(ctx, generateRequest{
		Contents:         []content{{Role: "user", Parts: parts}},
		GenerationConfig: &generationConfig{ResponseMimeType: "application/json"},
	})
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}

	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("%w: decode model json: %w", ErrAnalysisFailed, err)
	}
	return nil
}

func (g *GeminiAnalyzer) generate(ctx context.Context, body generateRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	model := strings.TrimPrefix(g.model, "models/")
	url := strings.TrimRight(g.baseURL, "/") + "/models/" + model + ":generateContent"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logging.Warn().Int("status", resp.StatusCode).Str("model", model).Msg("gemini generateContent failed")
		return "", fmt.Errorf("%w: gemini api error %d: %s", ErrAnalysisFailed, resp.StatusCode, string(bodyBytes))
	}

	var apiResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrAnalysisFailed, err)
	}
	return apiResp.text(), nil
}

// readInline reads a file no larger than MaxInlineBytes
func readInline(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	if info.Size() > MaxInlineBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	return data, nil
}

// Close releases idle connections
func (g *GeminiAnalyzer) Close() error {
	g.httpClient.CloseIdleConnections()
	return nil
}
