package centering

import "math"

const (
	// FlatZThreshold is the |z| gravity above which the device counts as lying flat.
	FlatZThreshold = 0.84
	// FadeMultiplier scales how quickly the overlay fades past FlatZThreshold.
	FadeMultiplier = 10.0
)

// FadeFraction is how far the overlay has faded out for a z gravity reading,
// in [0, 1]. Below FlatZThreshold it is 0 and the overlay is fully shown.
func FadeFraction(z float64) float64 {
	normed := math.Abs(z)
	if normed < FlatZThreshold {
		return 0
	}
	return math.Min(1, math.Max(0, (normed-FlatZThreshold)*FadeMultiplier))
}

// Alpha is the overlay opacity for a z gravity reading.
func Alpha(z float64) float64 {
	return 1 - FadeFraction(z)
}

// IsFlat reports whether the device is lying flat, where the grid means nothing.
func IsFlat(z float64) bool {
	return math.Abs(z) >= FlatZThreshold
}
