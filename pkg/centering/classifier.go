package centering

import "math"

// Classifier converts gravity samples into centering decisions. It remembers
// the status of the previous sample to apply hysteresis. The zero value is
// ready to use and starts in StatusUnknown.
type Classifier struct {
	lastStatus Status
	// thresholdSwitching is the adaptive flag used for the latest sample.
	thresholdSwitching bool
}

// NewClassifier returns a Classifier in StatusUnknown.
func NewClassifier() *Classifier {
	return &Classifier{lastStatus: StatusUnknown}
}

// Rotation returns atan2(x, y) - π in radians.
func Rotation(s Sample) float64 {
	return math.Atan2(s.X, s.Y) - math.Pi
}

// Degrees converts a rotation to whole degrees of magnitude, truncating.
func Degrees(rotation float64) int {
	return int(math.Abs(rotation) * 180.0 / math.Pi)
}

// EffectiveThreshold returns the threshold to use for the next sample.
// With adaptive thresholding on, anything but a previous NotCentered gets the
// widened band, including the very first (Unknown) sample.
func EffectiveThreshold(adaptive bool, last Status) int {
	if adaptive && last != StatusNotCentered {
		return DefaultThreshold + AdaptiveWidening
	}
	return DefaultThreshold
}

// IsCentered reports whether degrees lies within threshold of a multiple of 90.
func IsCentered(degrees, threshold int) bool {
	rem := degrees % 90
	return rem < threshold || rem > 90-threshold
}

// Classify computes the Result for s and stores its status for the next call.
// adaptive is true when screen-reader thresholding is enabled.
func (c *Classifier) Classify(s Sample, adaptive bool) Result {
	rotation := Rotation(s)
	threshold := EffectiveThreshold(adaptive, c.LastStatus())

	status := StatusNotCentered
	if IsCentered(Degrees(rotation), threshold) {
		status = StatusCentered
	}

	c.lastStatus = status
	c.thresholdSwitching = adaptive

	return Result{
		Status:   status,
		Rotation: rotation,
		Z:        s.Z,
	}
}

// Observe classifies s and returns the transition relative to the status
// stored before the call.
func (c *Classifier) Observe(s Sample, adaptive bool) (Result, Transition) {
	prev := c.LastStatus()
	res := c.Classify(s, adaptive)
	return res, DetectTransition(prev, res.Status)
}

// LastStatus returns the status of the most recently classified sample.
func (c *Classifier) LastStatus() Status {
	if c.lastStatus == "" {
		return StatusUnknown
	}
	return c.lastStatus
}

// ThresholdSwitching reports the adaptive flag used for the latest sample.
func (c *Classifier) ThresholdSwitching() bool {
	return c.thresholdSwitching
}

// Reset puts the classifier back into StatusUnknown.
func (c *Classifier) Reset() {
	c.lastStatus = StatusUnknown
	c.thresholdSwitching = false
}

// DetectTransition is a pure function of the status pair. Repeated statuses
// and Unknown on the new side never produce an event, and Unknown never leads
// directly to BecameUncentered.
func DetectTransition(prev, next Status) Transition {
	switch {
	case next == StatusCentered && prev != StatusCentered:
		return BecameCentered
	case next == StatusNotCentered && prev == StatusCentered:
		return BecameUncentered
	default:
		return NoTransition
	}
}
