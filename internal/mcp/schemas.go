package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/shivankMERNPro/MediaSense-AI/internal/searcher"
	"github.com/shivankMERNPro/MediaSense-AI/internal/storage"
)

func ownerProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Owner whose library is queried",
	}
}

// searchMediaTool returns the tool definition for search_media
func searchMediaTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_media",
		Description: "Search a media library with natural language, ranked by meaning, keywords and recency",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"owner_id": ownerProperty(),
				"query": map[string]interface{}{
					"description": "Search text, or an object carrying it in a text or query field",
					"oneOf": []interface{}{
						map[string]interface{}{"type": "string"},
						map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"text":  map[string]interface{}{"type": "string"},
								"query": map[string]interface{}{"type": "string"},
							},
						},
					},
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return",
					"default":     searcher.DefaultLimit,
					"minimum":     1,
					"maximum":     searcher.MaxLimit,
				},
			},
			Required: []string{"owner_id", "query"},
		},
	}
}

// listMediaTool returns the tool definition for list_media
func listMediaTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_media",
		Description: "List media in a library, newest first, with optional filters",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"owner_id": ownerProperty(),
				"type": map[string]interface{}{
					"type":        "string",
					"description": "File type filter",
					"enum":        []string{"all", "image", "video", "document"},
					"default":     "all",
				},
				"tags": map[string]interface{}{
					"type":        "array",
					"description": "Match media carrying any of these tags",
					"items":       map[string]interface{}{"type": "string"},
				},
				"topics": map[string]interface{}{
					"type":        "array",
					"description": "Match media carrying any of these topics",
					"items":       map[string]interface{}{"type": "string"},
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Case-insensitive substring over name, description, tags and topics",
				},
				"page": map[string]interface{}{
					"type":    "integer",
					"default": 1,
					"minimum": 1,
				},
				"limit": map[string]interface{}{
					"type":    "integer",
					"default": storage.DefaultPageSize,
					"minimum": 1,
					"maximum": storage.MaxPageSize,
				},
			},
			Required: []string{"owner_id"},
		},
	}
}

// getMediaTool returns the tool definition for get_media
func getMediaTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_media",
		Description: "Fetch one media item with its generated description, tags and topics",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"owner_id": ownerProperty(),
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Media id",
				},
			},
			Required: []string{"owner_id", "id"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report processing and embedding statistics for a library",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"owner_id": ownerProperty(),
			},
			Required: []string{"owner_id"},
		},
	}
}
