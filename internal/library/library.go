package library

import (
	"context"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/shivankMERNPro/MediaSense-AI/internal/filestore"
	"github.com/shivankMERNPro/MediaSense-AI/internal/ingest"
	"github.com/shivankMERNPro/MediaSense-AI/internal/logging"
	"github.com/shivankMERNPro/MediaSense-AI/internal/searcher"
	"github.com/shivankMERNPro/MediaSense-AI/internal/storage"
	"github.com/shivankMERNPro/MediaSense-AI/pkg/types"
)

// DefaultMaxUploadBytes is the upload size limit unless configured
const DefaultMaxUploadBytes = 100 << 20

// ErrFileTooLarge is returned for uploads over the size limit
var ErrFileTooLarge = filestore.ErrFileTooLarge

// AllowedMIMETypes lists the accepted upload types
var AllowedMIMETypes = map[string]struct{}{
	"image/jpeg":         {},
	"image/jpg":          {},
	"image/png":          {},
	"image/gif":          {},
	"image/webp":         {},
	"video/mp4":          {},
	"video/mpeg":         {},
	"video/quicktime":    {},
	"video/x-msvideo":    {},
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// UploadRequest is one incoming file
type UploadRequest struct {
	OwnerID      string
	OriginalName string
	MimeType     string
	Size         int64 // declared size, 0 when unknown
	Body         io.Reader
}

// UploadResult reports the stored media and whether analysis succeeded
type UploadResult struct {
	Media    *types.Media
	Analyzed bool
	Error    string
}

// Service implements the media library
type Service struct {
	store    storage.Storage
	files    *filestore.Store
	pipeline *ingest.Pipeline
	searcher *searcher.Searcher

	maxUpload int64
}

// Option configures a Service
type Option func(*Service)

// WithMaxUploadBytes overrides the upload size limit
func WithMaxUploadBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// New creates a library service
func New(store storage.Storage, files *filestore.Store, pipeline *ingest.Pipeline, srch *searcher.Searcher, opts ...Option) *Service {
	s := &Service{
		store:     store,
		files:     files,
		pipeline:  pipeline,
		searcher:  srch,
		maxUpload: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxUploadBytes returns the configured upload size limit
func (s *Service) MaxUploadBytes() int64 {
	return s.maxUpload
}

// NormalizeMIME lowercases a MIME type and strips its parameters
func NormalizeMIME(mimeType string) string {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// Allowed reports whether mimeType may be uploaded
func Allowed(mimeType string) bool {
	_, ok := AllowedMIMETypes[NormalizeMIME(mimeType)]
	return ok
}

// Upload stores the file, creates its record and analyzes it before
// returning. An analysis failure is reported in the result, not as an error.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if req.OwnerID == "" {
		return nil, types.ErrMissingOwner
	}
	if strings.TrimSpace(req.OriginalName) == "" {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidMedia, types.ErrMissingFilename)
	}

	mimeType := NormalizeMIME(req.MimeType)
	if !Allowed(mimeType) {
		return nil, fmt.Errorf("%w: %w: %s", types.ErrInvalidMedia, types.ErrUnsupportedFileType, req.MimeType)
	}
	if req.Size > s.maxUpload {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrFileTooLarge, s.maxUpload)
	}

	saved, err := s.files.Save(req.Body, req.OriginalName, s.maxUpload)
	if err != nil {
		return nil, err
	}

	m := &types.Media{
		OwnerID:      req.OwnerID,
		Filename:     saved.Filename,
		OriginalName: req.OriginalName,
		MimeType:     mimeType,
		FileType:     types.FileTypeFromMIME(mimeType),
		FileSize:     saved.Size,
		FilePath:     saved.Path,
		FileURL:      saved.URL,
		Status:       types.StatusUploading,
	}
	if err := s.store.CreateMedia(ctx, m); err != nil {
		_ = s.files.Delete(saved.Path)
		return nil, fmt.Errorf("failed to create media: %w", err)
	}

	log := logging.Ctx(ctx)
	log.Info().Str("media_id", m.ID).Str("owner_id", m.OwnerID).Str("mime_type", mimeType).Int64("size", saved.Size).Msg("media uploaded")

	result := &UploadResult{Media: m}
	res, err := s.pipeline.Process(ctx, m.ID)
	switch {
	case err != nil:
		log.Error().Err(err).Str("media_id", m.ID).Msg("media analysis could not run")
		result.Error = err.Error()
	default:
		result.Analyzed = res.Status == types.StatusReady
		result.Error = res.Error
	}
	s.invalidate(m.OwnerID)

	if fresh, err := s.store.GetMedia(ctx, m.OwnerID, m.ID); err == nil {
		result.Media = fresh
	}
	return result, nil
}

// Get returns one media item of ownerID
func (s *Service) Get(ctx context.Context, ownerID, id string) (*types.Media, error) {
	return s.store.GetMedia(ctx, ownerID, id)
}

// List returns one filtered page of ownerID's media, newest upload first
func (s *Service) List(ctx context.Context, ownerID string, filter storage.ListFilter) (*storage.ListResult, error) {
	if ownerID == "" {
		return nil, types.ErrMissingOwner
	}
	return s.store.ListMedia(ctx, ownerID, filter)
}

// Update applies user edits to description, tags, topics or original name
func (s *Service) Update(ctx context.Context, ownerID, id string, update storage.MetadataUpdate) (*types.Media, error) {
	if update.OriginalName != nil {
		name := strings.TrimSpace(*update.OriginalName)
		if name == "" {
			return nil, fmt.Errorf("%w: %w", types.ErrInvalidMedia, types.ErrMissingFilename)
		}
		update.OriginalName = &name
	}
	if update.Description != nil {
		desc := strings.TrimSpace(*update.Description)
		update.Description = &desc
	}
	if update.Tags != nil {
		tags := cleanLabels(*update.Tags)
		update.Tags = &tags
	}
	if update.Topics != nil {
		topics := cleanLabels(*update.Topics)
		update.Topics = &topics
	}

	m, err := s.store.UpdateMetadata(ctx, ownerID, id, update)
	if err != nil {
		return nil, err
	}
	if !update.Empty() {
		s.invalidate(ownerID)
	}
	return m, nil
}

// Delete removes the file, its thumbnail and then the record
func (s *Service) Delete(ctx context.Context, ownerID, id string) (*types.Media, error) {
	m, err := s.store.GetMedia(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	for _, path := range []string{m.FilePath, m.ThumbnailPath} {
		if err := s.files.Delete(path); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("media_id", id).Str("path", path).Msg("failed to remove media file")
		}
	}

	deleted, err := s.store.DeleteMedia(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ownerID)
	return deleted, nil
}

// Reanalyze runs the ingestion pipeline again for one item
func (s *Service) Reanalyze(ctx context.Context, ownerID, id string) (*UploadResult, error) {
	if _, err := s.store.GetMedia(ctx, ownerID, id); err != nil {
		return nil, err
	}

	res, err := s.pipeline.Process(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ownerID)

	m, err := s.store.GetMedia(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return &UploadResult{Media: m, Analyzed: res.Status == types.StatusReady, Error: res.Error}, nil
}

// Search ranks ownerID's media against query
func (s *Service) Search(ctx context.Context, ownerID, query string, limit int) (*searcher.SearchResponse, error) {
	return s.searcher.Search(ctx, searcher.SearchRequest{
		OwnerID:  ownerID,
		Query:    query,
		Limit:    limit,
		UseCache: true,
	})
}

// Status summarizes ownerID's library
func (s *Service) Status(ctx context.Context, ownerID string) (*storage.LibraryStatus, error) {
	if ownerID == "" {
		return nil, types.ErrMissingOwner
	}
	return s.store.GetStatus(ctx, ownerID)
}

// Reprocess reruns analysis for every item in status
func (s *Service) Reprocess(ctx context.Context, status types.Status) (*ingest.Statistics, error) {
	stats, err := s.pipeline.Reprocess(ctx, status)
	if err != nil {
		return nil, err
	}
	if s.searcher != nil {
		s.searcher.InvalidateCache()
	}
	return stats, nil
}

func (s *Service) invalidate(ownerID string) {
	if s.searcher != nil {
		s.searcher.InvalidateOwner(ownerID)
	}
}

// cleanLabels trims labels and drops empties and exact duplicates
func cleanLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
