package types

import (
	"fmt"
	"strings"
	"time"
)

// Status is the processing state of a media item
type Status string

const (
	StatusUploading Status = "uploading"
	StatusAnalyzing Status = "analyzing"
	StatusReady     Status = "ready"
	StatusError     Status = "error"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusUploading, StatusAnalyzing, StatusReady, StatusError:
		return true
	}
	return false
}

// Searchable reports whether media in this status may be ranked
func (s Status) Searchable() bool {
	return s == StatusReady
}

// FileType is the coarse media category
type FileType string

const (
	FileTypeImage    FileType = "image"
	FileTypeVideo    FileType = "video"
	FileTypeDocument FileType = "document"

	// FileTypeAll is only meaningful as a list filter
	FileTypeAll FileType = "all"
)

// Valid reports whether t names a stored file type
func (t FileType) Valid() bool {
	switch t {
	case FileTypeImage, FileTypeVideo, FileTypeDocument:
		return true
	}
	return false
}

// FileTypeFromMIME derives the file type from a MIME type.
// Anything that is not image/* or video/* is treated as a document.
func FileTypeFromMIME(mimeType string) FileType {
	mimeType = strings.ToLower(mimeType)
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return FileTypeImage
	case strings.HasPrefix(mimeType, "video/"):
		return FileTypeVideo
	default:
		return FileTypeDocument
	}
}

// Media represents one stored media asset owned by a user
type Media struct {
	// Identification
	ID      string `json:"id"`
	OwnerID string `json:"userId"`

	// File
	Filename      string   `json:"filename"`
	OriginalName  string   `json:"originalName"`
	MimeType      string   `json:"mimeType"`
	FileType      FileType `json:"fileType"`
	FileSize      int64    `json:"fileSize"`
	FilePath      string   `json:"filePath"`
	FileURL       string   `json:"fileUrl,omitempty"`
	ThumbnailPath string   `json:"thumbnailPath,omitempty"`

	// AI-generated metadata
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags"`
	Topics      []string  `json:"topics"`
	Embedding   []float64 `json:"embedding,omitempty"`

	// Processing
	Status          Status `json:"status"`
	ProcessingError string `json:"processingError,omitempty"`

	// Timestamps
	UploadedAt time.Time  `json:"uploadedAt"`
	AnalyzedAt *time.Time `json:"analyzedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Validate checks the fields required to persist a new media record.
// Every returned error matches both ErrInvalidMedia and the specific cause.
func (m *Media) Validate() error {
	if err := m.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMedia, err)
	}
	return nil
}

func (m *Media) validate() error {
	switch {
	case m.OwnerID == "":
		return ErrMissingOwner
	case m.Filename == "" || m.OriginalName == "":
		return ErrMissingFilename
	case m.MimeType == "":
		return ErrMissingMimeType
	case !m.FileType.Valid():
		return ErrUnsupportedFileType
	case !m.Status.Valid():
		return ErrInvalidStatus
	case m.FileSize < 0:
		return ErrInvalidFileSize
	}
	return nil
}

// Clone returns a deep copy of m
func (m *Media) Clone() *Media {
	if m == nil {
		return nil
	}
	c := *m
	if m.Tags != nil {
		c.Tags = append([]string{}, m.Tags...)
	}
	if m.Topics != nil {
		c.Topics = append([]string{}, m.Topics...)
	}
	if m.Embedding != nil {
		c.Embedding = append([]float64{}, m.Embedding...)
	}
	if m.AnalyzedAt != nil {
		t := *m.AnalyzedAt
		c.AnalyzedAt = &t
	}
	return &c
}
