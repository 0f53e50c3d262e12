package ranker

import (
	"math"
	"time"
)

// RecencyScaleDays is the decay constant of the recency term
const RecencyScaleDays = 90.0

const day = 24 * time.Hour

// RecencyScore returns exp(-ageDays/90) for an item created at createdAt.
// Age 0 scores 1; future timestamps score above 1 and are not clamped.
func RecencyScore(createdAt, now time.Time) float64 {
	ageDays := float64(now.Sub(createdAt)) / float64(day)
	return math.Exp(-ageDays / RecencyScaleDays)
}
