package types

import "errors"

// Domain errors shared across layers
var (
	ErrNotFound   = errors.New("media not found")
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidMedia wraps every media validation failure below
	ErrInvalidMedia = errors.New("invalid media")

	ErrMissingOwner        = errors.New("owner id is required")
	ErrMissingFilename     = errors.New("filename is required")
	ErrMissingMimeType     = errors.New("mime type is required")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrInvalidStatus       = errors.New("invalid media status")
	ErrInvalidFileSize     = errors.New("file size cannot be negative")
)
