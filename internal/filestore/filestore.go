// Package filestore keeps uploaded media files on local disk.
//
// Files are stored under a UUID-based name that keeps the original
// extension, and served from URLPrefix by the HTTP API.
package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/shivankMERNPro/MediaSense-AI/internal/logging"
)

const (
	// URLPrefix is the public path files are served under
	URLPrefix = "/uploads/"

	thumbnailDir = "thumbnails"
)

var (
	ErrFileTooLarge = errors.New("file exceeds size limit")
	ErrOutsideRoot  = errors.New("path is outside the upload directory")
)

// Saved describes a file written by Save
type Saved struct {
	Filename string
	Path     string
	URL      string
	Size     int64
}

// Store writes and removes files under one root directory
type Store struct {
	root string
}

// New creates the upload and thumbnail directories under root
func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(abs, thumbnailDir), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dirs: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute upload directory
func (s *Store) Root() string {
	return s.root
}

// GenerateFilename returns a new unique name with the extension of original
func GenerateFilename(original string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(original))
}

// Path returns the disk path of a stored filename
func (s *Store) Path(filename string) string {
	return filepath.Join(s.root, filepath.Base(filename))
}

// URL returns the public URL of a stored filename
func (s *Store) URL(filename string) string {
	return URLPrefix + filepath.Base(filename)
}

// ThumbnailPath returns the disk path of a thumbnail
func (s *Store) ThumbnailPath(filename string) string {
	return filepath.Join(s.root, thumbnailDir, filepath.Base(filename))
}

// ThumbnailURL returns the public URL of a thumbnail
func (s *Store) ThumbnailURL(filename string) string {
	return URLPrefix + thumbnailDir + "/" + filepath.Base(filename)
}

// Save copies r to a new file named after originalName. More than maxBytes
// bytes fails with ErrFileTooLarge and leaves nothing behind; maxBytes <= 0
// means no limit.
func (s *Store) Save(r io.Reader, originalName string, maxBytes int64) (*Saved, error) {
	filename := GenerateFilename(originalName)
	path := s.Path(filename)

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}

	n, err := io.Copy(tmp, src)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if maxBytes > 0 && n > maxBytes {
		cleanup()
		return nil, fmt.Errorf("%w: limit %d bytes", ErrFileTooLarge, maxBytes)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return nil, fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return nil, fmt.Errorf("store upload: %w", err)
	}

	return &Saved{
		Filename: filename,
		Path:     path,
		URL:      s.URL(filename),
		Size:     n,
	}, nil
}

// Delete removes a file under the root. A missing file is not an error.
func (s *Store) Delete(path string) error {
	if path == "" {
		return nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	rel, err := filepath.Rel(s.root, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}

	if err := os.Remove(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		logging.Warn().Err(err).Str("path", abs).Msg("failed to delete file")
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}
