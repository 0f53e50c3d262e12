package analyzer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/shivankMERNPro/MediaSense-AI/internal/metrics"
	"github.com/shivankMERNPro/MediaSense-AI/pkg/types"
)

const ProviderLocal = "local"

var localStopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "and": {}, "named": {},
	"img": {}, "dsc": {}, "file": {}, "copy": {}, "final": {},
}

var localTopics = []struct {
	marker string
	topic  string
}{
	{"image", "photography"},
	{"video", "video"},
	{"document", "documents"},
}

// LocalAnalyzer derives metadata from the original filename only
type LocalAnalyzer struct{}

// NewLocalAnalyzer creates an offline analyzer
func NewLocalAnalyzer() *LocalAnalyzer {
	return &LocalAnalyzer{}
}

func (l *LocalAnalyzer) Name() string {
	return ProviderLocal
}

// Describe produces "An image named sunset beach." style descriptions
func (l *LocalAnalyzer) Describe(ctx context.Context, in Input) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := in.OriginalName
	if name == "" {
		name = filepath.Base(in.Path)
	}
	words := filenameWords(name)

	var noun string
	switch in.FileType {
	case types.FileTypeImage:
		noun = "An image"
	case types.FileTypeVideo:
		noun = "A video"
	case types.FileTypeDocument:
		noun = "A document"
	default:
		metrics.RecordAnalyzer(ProviderLocal, "describe", nil)
		return UnsupportedDescription, nil
	}

	metrics.RecordAnalyzer(ProviderLocal, "describe", nil)
	if len(words) == 0 {
		return noun + ".", nil
	}
	return fmt.Sprintf("%s named %s.", noun, strings.Join(words, " ")), nil
}

// Tags returns the distinct non-stopword words of description
func (l *LocalAnalyzer) Tags(ctx context.Context, description string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var words []string
	for _, w := range splitWords(description) {
		if len([]rune(w)) < 3 {
			continue
		}
		if _, stop := localStopwords[w]; stop {
			continue
		}
		words = append(words, w)
	}

	metrics.RecordAnalyzer(ProviderLocal, "tags", nil)
	return CleanLabels(words, maxTags), nil
}

// Topics maps the media noun in description to a broad topic
func (l *LocalAnalyzer) Topics(ctx context.Context, description string, tags []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lower := strings.ToLower(description)
	topics := []string{}
	for _, t := range localTopics {
		if strings.Contains(lower, t.marker) {
			topics = append(topics, t.topic)
			break
		}
	}
	if len(topics) == 0 && len(tags) > 0 {
		topics = append(topics, tags[0])
	}

	metrics.RecordAnalyzer(ProviderLocal, "topics", nil)
	return CleanLabels(topics, maxTopics), nil
}

// filenameWords splits a filename without its extension into lowercase words
func filenameWords(name string) []string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return splitWords(name)
}

func splitWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
