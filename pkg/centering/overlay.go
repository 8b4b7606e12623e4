package centering

// OverlayState is what a renderer needs to draw the rotating grid.
type OverlayState struct {
	Rotation float64 `json:"rotation"`
	Alpha    float64 `json:"alpha"`
	Flat     bool    `json:"flat"`
	// Displayed is the status the grid currently shows. It does not change
	// while the device is flat.
	Displayed Status `json:"displayed"`
}

// Overlay tracks the status shown on screen and only lets transitions through
// while the device is upright.
type Overlay struct {
	displayed Status
}

// NewOverlay returns an Overlay that shows StatusUnknown.
func NewOverlay() *Overlay {
	return &Overlay{displayed: StatusUnknown}
}

// Apply updates the overlay with a classification result.
func (o *Overlay) Apply(r Result) (OverlayState, Transition) {
	st := OverlayState{
		Rotation: r.Rotation,
		Alpha:    Alpha(r.Z),
		Flat:     IsFlat(r.Z),
	}

	if st.Flat {
		st.Displayed = o.Displayed()
		return st, NoTransition
	}

	tr := DetectTransition(o.Displayed(), r.Status)
	o.displayed = r.Status
	st.Displayed = r.Status

	return st, tr
}

// Displayed returns the status currently shown.
func (o *Overlay) Displayed() Status {
	if o.displayed == "" {
		return StatusUnknown
	}
	return o.displayed
}

// Reset shows StatusUnknown again.
func (o *Overlay) Reset() {
	o.displayed = StatusUnknown
}
