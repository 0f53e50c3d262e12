// Package analyzer turns an uploaded media file into a description, tags
// and topics.
//
// The Gemini analyzer sends the file inline to the generateContent API and
// asks for JSON when extracting tags and topics. The local analyzer derives
// the same fields from the original filename so the pipeline runs offline.
package analyzer

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/shivankMERNPro/MediaSense-AI/pkg/types"
)

// MaxInlineBytes is the largest file sent inline to a remote analyzer
const MaxInlineBytes = 20 << 20

// Prompts
const (
	PromptImage  = "Describe this image in 1 sentence."
	PromptPDF    = "Summarize this PDF in 1–2 sentences."
	PromptVideo  = "Summarize this video in 1 or 2 sentences."
	PromptTags   = `Extract 5–8 short lowercase tags. Return ONLY {"tags":[]}.`
	PromptTopics = `Generate 1–3 broad topics. Return ONLY {"topics":[]}.`

	// UnsupportedDescription is returned, not raised, for media the analyzer
	// has no prompt for
	UnsupportedDescription = "Media type not supported or recognized"

	// EmptyDescription replaces an empty model answer
	EmptyDescription = "No description generated"
)

// Analyzer errors
var (
	ErrFileTooLarge   = errors.New("file too large for inline analysis")
	ErrAnalysisFailed = errors.New("analysis failed")
	ErrMissingAPIKey  = errors.New("analyzer api key not set")
)

// Input identifies the file to describe
type Input struct {
	Path         string
	OriginalName string
	FileType     types.FileType
	MimeType     string
}

// Analyzer extracts searchable metadata from media
type Analyzer interface {
	// Describe returns a one or two sentence description of the file
	Describe(ctx context.Context, in Input) (string, error)

	// Tags returns short lowercase tags for a description
	Tags(ctx context.Context, description string) ([]string, error)

	// Topics returns one to three broad topics
	Topics(ctx context.Context, description string, tags []string) ([]string, error)

	// Name returns the analyzer name used in logs and metrics
	Name() string
}

type promptKind int

const (
	kindUnsupported promptKind = iota
	kindImage
	kindPDF
	kindVideo
)

// classify picks the prompt for in. Only PDFs are described among documents.
func classify(in Input) promptKind {
	switch in.FileType {
	case types.FileTypeImage:
		return kindImage
	case types.FileTypeVideo:
		return kindVideo
	case types.FileTypeDocument:
		if strings.EqualFold(in.MimeType, "application/pdf") ||
			strings.EqualFold(filepath.Ext(in.Path), ".pdf") {
			return kindPDF
		}
	}
	return kindUnsupported
}

func (k promptKind) prompt() string {
	switch k {
	case kindImage:
		return PromptImage
	case kindPDF:
		return PromptPDF
	case kindVideo:
		return PromptVideo
	}
	return ""
}

// CleanLabels lowercases, trims and de-duplicates labels, keeping order
// and dropping empties. At most max labels are kept when max > 0.
func CleanLabels(labels []string, max int) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
