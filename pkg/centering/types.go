package centering

// Status is the centering decision for one sample.
type Status string

const (
	StatusCentered    Status = "Centered"
	StatusNotCentered Status = "NotCentered"
	// StatusUnknown is only valid before the first sample is classified.
	StatusUnknown Status = "Unknown"
)

// Transition is fired once per change of centering status.
type Transition string

const (
	NoTransition     Transition = ""
	BecameCentered   Transition = "BecameCentered"
	BecameUncentered Transition = "BecameUncentered"
)

// Sample is gravity's projection onto the device axes, nominally in [-1, 1].
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Result is derived from a single Sample.
type Result struct {
	Status Status `json:"status"`
	// Rotation is atan2(x, y) - π, in radians.
	Rotation float64 `json:"rotation"`
	// Z is the raw z gravity component, used to detect a device lying flat.
	Z float64 `json:"z"`
}

const (
	// DefaultThreshold is the tolerance, in degrees, around every multiple of 90°.
	DefaultThreshold = 2
	// AdaptiveWidening is added to DefaultThreshold while centered and adaptive
	// thresholding is on, so leaving the centered state takes a larger tilt.
	AdaptiveWidening = 1
)
