package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/shivankMERNPro/MediaSense-AI/internal/ranker"
	"github.com/shivankMERNPro/MediaSense-AI/internal/searcher"
	"github.com/shivankMERNPro/MediaSense-AI/internal/storage"
	"github.com/shivankMERNPro/MediaSense-AI/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeNotFound      = -32001 // Media does not exist for this owner
	ErrorCodeEmptyQuery    = -32004 // Query parameter is empty
)

// mediaResult is the tool-facing view of a media item; embeddings are omitted
type mediaResult struct {
	ID           string     `json:"id"`
	OriginalName string     `json:"original_name"`
	FileType     string     `json:"file_type"`
	MimeType     string     `json:"mime_type"`
	FileURL      string     `json:"file_url,omitempty"`
	Description  string     `json:"description,omitempty"`
	Tags         []string   `json:"tags"`
	Topics       []string   `json:"topics"`
	Status       string     `json:"status"`
	Error        string     `json:"processing_error,omitempty"`
	UploadedAt   time.Time  `json:"uploaded_at"`
	AnalyzedAt   *time.Time `json:"analyzed_at,omitempty"`
	Scores       *scores    `json:"scores,omitempty"`
}

type scores struct {
	Semantic float64 `json:"semantic"`
	Keyword  float64 `json:"keyword"`
	Recency  float64 `json:"recency"`
	Final    float64 `json:"final"`
}

func toResult(m *types.Media) mediaResult {
	return mediaResult{
		ID:           m.ID,
		OriginalName: m.OriginalName,
		FileType:     string(m.FileType),
		MimeType:     m.MimeType,
		FileURL:      m.FileURL,
		Description:  m.Description,
		Tags:         m.Tags,
		Topics:       m.Topics,
		Status:       string(m.Status),
		Error:        m.ProcessingError,
		UploadedAt:   m.UploadedAt,
		AnalyzedAt:   m.AnalyzedAt,
	}
}

// handleSearchMedia handles the search_media tool invocation
func (s *Server) handleSearchMedia(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, owner, err := ownerArgs(request)
	if err != nil {
		return nil, err
	}

	query := strings.TrimSpace(ranker.ResolveQueryText(args["query"]))
	if query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 0)
	if limit < 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit cannot be negative", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	resp, err := s.lib.Search(ctx, owner, query, limit)
	if err != nil {
		return nil, toMCPError("search failed", err)
	}

	results := make([]mediaResult, 0, len(resp.Results))
	for i := range resp.Results {
		sm := &resp.Results[i]
		r := toResult(&sm.Media)
		if resp.Mode == searcher.ModeSemantic {
			r.Scores = &scores{
				Semantic: sm.SemanticScore,
				Keyword:  sm.KeywordScore,
				Recency:  sm.RecencyScore,
				Final:    sm.FinalScore,
			}
		}
		results = append(results, r)
	}

	response := map[string]interface{}{
		"query":       query,
		"mode":        resp.Mode,
		"total":       resp.Total,
		"results":     results,
		"duration_ms": resp.Duration.Milliseconds(),
		"cache_hit":   resp.CacheHit,
	}
	if resp.FallbackReason != "" {
		response["fallback_reason"] = resp.FallbackReason
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListMedia handles the list_media tool invocation
func (s *Server) handleListMedia(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, owner, err := ownerArgs(request)
	if err != nil {
		return nil, err
	}

	filter := storage.ListFilter{
		FileType: types.FileType(getStringDefault(args, "type", "")),
		Tags:     getStringSlice(args, "tags"),
		Topics:   getStringSlice(args, "topics"),
		Query:    getStringDefault(args, "query", ""),
		Page:     getIntDefault(args, "page", 1),
		Limit:    getIntDefault(args, "limit", storage.DefaultPageSize),
	}
	if filter.FileType != "" && filter.FileType != types.FileTypeAll && !filter.FileType.Valid() {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid type", map[string]interface{}{
			"param":   "type",
			"value":   filter.FileType,
			"allowed": []string{"all", "image", "video", "document"},
		})
	}

	res, err := s.lib.List(ctx, owner, filter)
	if err != nil {
		return nil, toMCPError("list failed", err)
	}

	items := make([]mediaResult, 0, len(res.Items))
	for _, m := range res.Items {
		items = append(items, toResult(m))
	}
	response := map[string]interface{}{
		"media": items,
		"total": res.Total,
		"page":  res.Page,
		"limit": res.Limit,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetMedia handles the get_media tool invocation
func (s *Server) handleGetMedia(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, owner, err := ownerArgs(request)
	if err != nil {
		return nil, err
	}

	id, ok := args["id"].(string)
	if !ok || id == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "id parameter is required", map[string]interface{}{
			"param":  "id",
			"reason": "missing or empty",
		})
	}

	m, err := s.lib.Get(ctx, owner, id)
	if err != nil {
		return nil, toMCPError("failed to get media", err)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"media": toResult(m)})), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, owner, err := ownerArgs(request)
	if err != nil {
		return nil, err
	}

	st, err := s.lib.Status(ctx, owner)
	if err != nil {
		return nil, toMCPError("failed to get status", err)
	}

	byStatus := make(map[string]int, len(st.ByStatus))
	for status, n := range st.ByStatus {
		byStatus[string(status)] = n
	}
	dims := make(map[string]int, len(st.Dimensions))
	for dim, n := range st.Dimensions {
		dims[fmt.Sprintf("%d", dim)] = n
	}

	response := map[string]interface{}{
		"owner_id":  owner,
		"total":     st.Total,
		"by_status": byStatus,
		"embeddings": map[string]interface{}{
			"count":      st.Embedded,
			"dimensions": dims,
			// more than one dimension means some vectors never match a query
			"consistent": len(st.Dimensions) <= 1,
		},
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// ownerArgs extracts the argument map and the required owner_id
func ownerArgs(request mcp.CallToolRequest) (map[string]interface{}, string, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, "", newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	owner, ok := args["owner_id"].(string)
	if !ok || strings.TrimSpace(owner) == "" {
		return nil, "", newMCPError(ErrorCodeInvalidParams, "owner_id parameter is required", map[string]interface{}{
			"param":  "owner_id",
			"reason": "missing or empty",
		})
	}
	return args, strings.TrimSpace(owner), nil
}

// toMCPError maps domain errors onto MCP error codes
func toMCPError(message string, err error) error {
	data := map[string]interface{}{"error": err.Error()}
	switch {
	case errors.Is(err, types.ErrNotFound):
		return newMCPError(ErrorCodeNotFound, "media not found", data)
	case errors.Is(err, types.ErrEmptyQuery):
		return newMCPError(ErrorCodeEmptyQuery, "query cannot be empty", data)
	case errors.Is(err, types.ErrInvalidMedia),
		errors.Is(err, types.ErrMissingOwner),
		errors.Is(err, types.ErrInvalidStatus):
		return newMCPError(ErrorCodeInvalidParams, message, data)
	default:
		return newMCPError(ErrorCodeInternalError, message, data)
	}
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter; a comma-separated string is also accepted
func getStringSlice(args map[string]interface{}, key string) []string {
	var out []string
	switch v := args[key].(type) {
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}
