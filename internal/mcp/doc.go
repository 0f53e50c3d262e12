// Package mcp implements the Model Context Protocol (MCP) server for MediaSense.
//
// The server exposes a user's media library to AI assistants as four tools:
//   - search_media: hybrid semantic, keyword and recency ranked search
//   - list_media: filtered, paginated listing, newest upload first
//   - get_media: one item with its generated description, tags and topics
//   - get_status: per-status counts and embedding diagnostics
//
// Every tool requires an owner_id argument; results never cross owners.
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server is started with:
//
//	mediasense mcp
//
// # Tool: search_media
//
//	Request:
//	{
//	  "name": "search_media",
//	  "arguments": {
//	    "owner_id": "u1",
//	    "query": "sunset over the beach",
//	    "limit": 10
//	  }
//	}
//
// The query may also be an object such as {"text": "sunset"}; the text field
// wins over a query field. Queries shorter than three characters, or queries
// that cannot be embedded, are answered by keyword search and the response
// carries a fallback_reason.
//
//	Response:
//	{
//	  "mode": "semantic",
//	  "total": 1,
//	  "results": [
//	    {
//	      "id": "6f1c...",
//	      "original_name": "beach.jpg",
//	      "tags": ["beach", "sunset"],
//	      "scores": {"semantic": 0.81, "keyword": 1, "recency": 0.97, "final": 0.89}
//	    }
//	  ]
//	}
//
// # Errors
//
// Failures are returned as MCPError values:
//   - -32602 invalid parameters (missing owner_id, bad type filter)
//   - -32603 internal error
//   - -32001 media not found
//   - -32004 empty query
package mcp
