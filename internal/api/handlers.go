package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/shivankMERNPro/MediaSense-AI/internal/library"
	"github.com/shivankMERNPro/MediaSense-AI/internal/searcher"
	"github.com/shivankMERNPro/MediaSense-AI/internal/storage"
	"github.com/shivankMERNPro/MediaSense-AI/pkg/types"
)

// ListData is the data of a list response
type ListData struct {
	Media []*types.Media `json:"media"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// SearchData is the data of a search response
type SearchData struct {
	Media          []types.ScoredMedia `json:"media"`
	Total          int                 `json:"total"`
	Mode           searcher.Mode       `json:"mode"`
	FallbackReason string              `json:"fallbackReason,omitempty"`
}

// UpdateRequest is the body of PUT /api/media/{id}
type UpdateRequest struct {
	OriginalName *string   `json:"originalName"`
	Description  *string   `json:"description"`
	Tags         *[]string `json:"tags"`
	Topics       *[]string `json:"topics"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, http.StatusOK, "ok", map[string]string{"status": "ok"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())
	maxBytes := s.lib.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, "File too large", fmt.Errorf("%w: limit %d bytes", library.ErrFileTooLarge, maxBytes))
			return
		}
		respondError(w, r, "No file uploaded", fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	defer func() { _ = file.Close() }()

	res, err := s.lib.Upload(r.Context(), library.UploadRequest{
		OwnerID:      owner,
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
		Body:         file,
	})
	if err != nil {
		respondError(w, r, "Failed to upload media", err)
		return
	}

	if !res.Analyzed {
		respondJSON(w, http.StatusCreated, &Response{
			Code:    http.StatusCreated,
			Message: "Media uploaded but AI analysis failed",
			Data:    res.Media,
			Error:   res.Error,
		})
		return
	}
	respondOK(w, http.StatusCreated, "Media uploaded and analyzed successfully", res.Media)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.ListFilter{
		FileType: types.FileType(q.Get("type")),
		Tags:     splitList(q.Get("tags")),
		Topics:   splitList(q.Get("topics")),
		Query:    q.Get("query"),
		Page:     intParam(q.Get("page"), 1),
		Limit:    intParam(q.Get("limit"), storage.DefaultPageSize),
	}
	if filter.FileType != "" && filter.FileType != types.FileTypeAll && !filter.FileType.Valid() {
		respondError(w, r, "Invalid type filter", fmt.Errorf("%w: unknown type %q", errBadRequest, filter.FileType))
		return
	}

	res, err := s.lib.List(r.Context(), ownerFromContext(r.Context()), filter)
	if err != nil {
		respondError(w, r, "Failed to retrieve media", err)
		return
	}

	respondOK(w, http.StatusOK, "Media retrieved successfully", ListData{
		Media: res.Items,
		Total: res.Total,
		Page:  res.Page,
		Limit: res.Limit,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := s.lib.Search(r.Context(), ownerFromContext(r.Context()), q.Get("query"), intParam(q.Get("limit"), 0))
	if err != nil {
		respondError(w, r, "Search failed", err)
		return
	}

	message := "Semantic search completed successfully"
	if resp.Mode == searcher.ModeKeyword {
		message = "Keyword search completed"
	}
	respondOK(w, http.StatusOK, message, SearchData{
		Media:          resp.Results,
		Total:          resp.Total,
		Mode:           resp.Mode,
		FallbackReason: resp.FallbackReason,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.lib.Status(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		respondError(w, r, "Failed to retrieve status", err)
		return
	}
	respondOK(w, http.StatusOK, "Status retrieved successfully", st)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	m, err := s.lib.Get(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, "Media not found", err)
		return
	}
	respondOK(w, http.StatusOK, "Media retrieved successfully", m)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, "Invalid request body", fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	m, err := s.lib.Update(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "id"), storage.MetadataUpdate{
		OriginalName: req.OriginalName,
		Description:  req.Description,
		Tags:         req.Tags,
		Topics:       req.Topics,
	})
	if err != nil {
		respondError(w, r, "Failed to update media", err)
		return
	}
	respondOK(w, http.StatusOK, "Media updated successfully", m)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	m, err := s.lib.Delete(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, "Failed to delete media", err)
		return
	}
	respondOK(w, http.StatusOK, "Media deleted successfully", map[string]string{"id": m.ID})
}

func (s *Server) handleReanalyze(w http.ResponseWriter, r *http.Request) {
	res, err := s.lib.Reanalyze(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, "Failed to reanalyze media", err)
		return
	}

	if !res.Analyzed {
		respondJSON(w, http.StatusOK, &Response{
			Code:    http.StatusOK,
			Message: "Media reanalysis failed",
			Data:    res.Media,
			Error:   res.Error,
		})
		return
	}
	respondOK(w, http.StatusOK, "Media reanalyzed successfully", res.Media)
}

// splitList splits a comma-separated query parameter, dropping empties
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// intParam parses v, returning def when it is empty or malformed
func intParam(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
