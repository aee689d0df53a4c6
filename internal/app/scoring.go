package app

import (
	"math"
	"time"
)

// maxPoints is awarded for a correct answer given instantly.
const maxPoints = 1000

// Points maps a submission to awarded points. Wrong answers score zero;
// correct answers decay linearly from maxPoints at elapsed=0 down to zero at
// the question time limit.
func Points(correct bool, elapsed, limit time.Duration) int {
	if !correct || limit <= 0 {
		return 0
	}
	raw := maxPoints - elapsed.Seconds()*(maxPoints/limit.Seconds())
	return int(math.Round(math.Max(0, raw)))
}
