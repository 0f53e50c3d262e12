// Package api serves the media library over HTTP with chi.
//
// Every /api/media route reads the caller from the X-User-ID header and
// answers 401 when it is missing. Responses use one envelope:
//
//	{"code": 200, "message": "...", "data": {...}, "error": "..."}
//
// The server also exposes /health, Prometheus /metrics and the uploaded
// files under /uploads/.
package api
