package ranker

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecencyScore(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 1.0, RecencyScore(now, now))
	assert.InDelta(t, math.Exp(-1), RecencyScore(now.Add(-90*day), now), 1e-12)
	assert.InDelta(t, 0.368, RecencyScore(now.Add(-90*day), now), 1e-3)
	assert.InDelta(t, math.Exp(-2), RecencyScore(now.Add(-180*day), now), 1e-12)
}

func TestRecencyScoreFutureIsNotClamped(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	got := RecencyScore(now.Add(90*day), now)
	assert.Greater(t, got, 1.0)
	assert.InDelta(t, math.E, got, 1e-12)
}

func TestRecencyScoreMonotonic(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	prev := RecencyScore(now, now)
	for d := 1; d <= 365; d += 30 {
		cur := RecencyScore(now.Add(-time.Duration(d)*day), now)
		assert.Less(t, cur, prev)
		prev = cur
	}
}
