// Package types holds the JSON contracts shared by the daemon and its clients.
package types

import (
	"time"

	"github.com/rcpd/gridlevel/pkg/centering"
)

// Status is returned by GET /status.
type Status struct {
	SessionID string `json:"sessionId"`
	Source    string `json:"source"`

	Status          centering.Status `json:"status"`
	Displayed       centering.Status `json:"displayed"`
	RotationRadians float64          `json:"rotationRadians"`
	RotationDegrees float64          `json:"rotationDegrees"`
	Z               float64          `json:"z"`
	Alpha           float64          `json:"alpha"`
	Flat            bool             `json:"flat"`
	// NextThreshold is the tolerance in degrees the next sample will be judged with.
	NextThreshold int `json:"nextThreshold"`

	Adaptive        bool `json:"adaptive"`
	Guides          bool `json:"guides"`
	FeedbackEnabled bool `json:"feedbackEnabled"`

	Scene centering.Brightness `json:"scene"`
	Tint  string               `json:"tint"`

	Samples       uint64    `json:"samples"`
	Skipped       uint64    `json:"skipped"`
	Transitions   uint64    `json:"transitions"`
	RecentSamples int       `json:"recentSamples"`
	LastSampleAt  time.Time `json:"lastSampleAt"`
	// DroppedEvents counts SSE deliveries lost to slow subscribers.
	DroppedEvents uint64    `json:"droppedEvents"`
}

// SampleResponse is returned by POST /sample.
type SampleResponse struct {
	Result     centering.Result       `json:"result"`
	Overlay    centering.OverlayState `json:"overlay"`
	Transition centering.Transition   `json:"transition,omitempty"`
}

// Frame is the body of POST /frame: the centre-pixel luma (0-255) and the
// APEX brightness of a camera frame.
type Frame struct {
	Luma       int     `json:"luma"`
	Brightness float64 `json:"brightness"`
}

// FrameResponse is returned by POST /frame.
type FrameResponse struct {
	Scene centering.Brightness `json:"scene"`
	Tint  string               `json:"tint"`
}
