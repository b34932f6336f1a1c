package game

import "math"

// Scoring weights. Each delivered pizza is worth ten points and each second
// left on the clock is worth one, before the tier multiplier.
const (
	pointsPerDelivery = 10
	pointsPerSecond   = 1
)

// Score computes the final score for a session. Pure: same inputs always
// produce the same result. Negative inputs are clamped to zero; a
// non-positive multiplier is rejected with ErrInvalidMultiplier.
func Score(pizzasDelivered int, timeRemainingSeconds, multiplier float64) (int, error) {
	if multiplier <= 0 {
		return 0, ErrInvalidMultiplier
	}
	if pizzasDelivered < 0 {
		pizzasDelivered = 0
	}
	if timeRemainingSeconds < 0 {
		timeRemainingSeconds = 0
	}

	raw := (float64(pizzasDelivered)*pointsPerDelivery + timeRemainingSeconds*pointsPerSecond) * multiplier
	return int(math.Floor(raw)), nil
}
