package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordEmbedding(t *testing.T) {
	ok := EmbeddingRequests.WithLabelValues("test-provider", "success")
	failed := EmbeddingRequests.WithLabelValues("test-provider", "error")
	beforeOK, beforeFailed := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordEmbedding("test-provider", nil)
	RecordEmbedding("test-provider", errors.New("boom"))
	RecordEmbedding("test-provider", errors.New("boom"))

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(ok))
	assert.Equal(t, beforeFailed+2, testutil.ToFloat64(failed))
}

func TestRecordSearch(t *testing.T) {
	c := SearchRequests.WithLabelValues(ModeKeyword)
	before := testutil.ToFloat64(c)

	RecordSearch(ModeKeyword, 15*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestRecordAnalyzer(t *testing.T) {
	c := AnalyzerRequests.WithLabelValues("test-analyzer", "tags", "error")
	before := testutil.ToFloat64(c)

	RecordAnalyzer("test-analyzer", "tags", errors.New("bad json"))

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}
