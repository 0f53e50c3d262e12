package storage

import (
	"context"
	"strings"
	"time"

	"github.com/shivankMERNPro/MediaSense-AI/pkg/types"
)

// Paging limits for ListMedia
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// CandidateSource supplies the media a search is ranked over
type CandidateSource interface {
	// ListReady returns every ready media item owned by ownerID
	ListReady(ctx context.Context, ownerID string) ([]*types.Media, error)

	// KeywordSearch returns ready media of ownerID whose description, tags
	// or topics contain query case-insensitively, newest first, at most limit
	KeywordSearch(ctx context.Context, ownerID, query string, limit int) ([]*types.Media, error)
}

// Storage persists media records
type Storage interface {
	CandidateSource

	// Media operations
	CreateMedia(ctx context.Context, m *types.Media) error
	GetMedia(ctx context.Context, ownerID, id string) (*types.Media, error)
	GetMediaByID(ctx context.Context, id string) (*types.Media, error)
	ListMedia(ctx context.Context, ownerID string, filter ListFilter) (*ListResult, error)
	UpdateMetadata(ctx context.Context, ownerID, id string, update MetadataUpdate) (*types.Media, error)
	DeleteMedia(ctx context.Context, ownerID, id string) (*types.Media, error)

	// Processing operations
	SetStatus(ctx context.Context, id string, status types.Status, processingErr string) error
	SaveAnalysis(ctx context.Context, id string, analysis Analysis) error
	ListByStatus(ctx context.Context, status types.Status, limit int) ([]*types.Media, error)

	// Status operations
	GetStatus(ctx context.Context, ownerID string) (*LibraryStatus, error)

	// Database operations
	Close() error
}

// ListFilter narrows ListMedia. Zero values mean no filtering.
type ListFilter struct {
	FileType types.FileType // "" or "all" for every type
	Tags     []string       // match any
	Topics   []string       // match any
	Query    string         // substring of name, description, tags or topics
	Page     int            // 1-based
	Limit    int
}

// Normalize applies paging defaults and clamps
func (f ListFilter) Normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.FileType == types.FileTypeAll {
		f.FileType = ""
	}
	return f
}

// Offset returns the row offset of the page
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// ListResult is one page of media
type ListResult struct {
	Items []*types.Media
	Total int
	Page  int
	Limit int
}

// MetadataUpdate holds user edits; nil fields are left unchanged
type MetadataUpdate struct {
	OriginalName *string
	Description  *string
	Tags         *[]string
	Topics       *[]string
}

// Empty reports whether the update changes nothing
func (u MetadataUpdate) Empty() bool {
	return u.OriginalName == nil && u.Description == nil && u.Tags == nil && u.Topics == nil
}

// Analysis is the outcome of one ingestion run
type Analysis struct {
	Description     string
	Tags            []string
	Topics          []string
	Embedding       []float64
	Status          types.Status
	ProcessingError string
	AnalyzedAt      time.Time
}

// LibraryStatus summarizes one owner's library
type LibraryStatus struct {
	OwnerID  string
	Total    int
	ByStatus map[types.Status]int

	// Embedded counts ready items with a non-empty embedding
	Embedded int

	// Dimensions maps embedding length to the number of ready items with it.
	// More than one key means some items can never score semantically
	// against a given query.
	Dimensions map[int]int
}

// foldQuery trims and lowercases a text query
func foldQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// containsFolded reports whether s contains the already lowercased q
func containsFolded(s, q string) bool {
	return strings.Contains(strings.ToLower(s), q)
}

func anyContainsFolded(values []string, q string) bool {
	for _, v := range values {
		if containsFolded(v, q) {
			return true
		}
	}
	return false
}

// matchesKeyword reports whether description, tags or topics contain q
func matchesKeyword(m *types.Media, q string) bool {
	return containsFolded(m.Description, q) || anyContainsFolded(m.Tags, q) || anyContainsFolded(m.Topics, q)
}

// matchesListQuery is matchesKeyword extended to the original file name
func matchesListQuery(m *types.Media, q string) bool {
	return containsFolded(m.OriginalName, q) || matchesKeyword(m, q)
}

func filterMedia(items []*types.Media, q string, match func(*types.Media, string) bool) []*types.Media {
	out := make([]*types.Media, 0, len(items))
	for _, m := range items {
		if match(m, q) {
			out = append(out, m)
		}
	}
	return out
}

// pageOf cuts the page described by f out of the full ordered result
func pageOf(items []*types.Media, f ListFilter) *ListResult {
	res := &ListResult{Items: []*types.Media{}, Total: len(items), Page: f.Page, Limit: f.Limit}
	if start := f.Offset(); start < len(items) {
		end := min(start+f.Limit, len(items))
		res.Items = items[start:end]
	}
	return res
}
