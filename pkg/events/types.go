package events

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/rcpd/gridlevel/pkg/centering"
)

// Event name constants
const (
	CenteringTransition = "centering.transition"
	SettingsChanged     = "settings.changed"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// TransitionEvent is the typed payload for centering.transition.
type TransitionEvent struct {
	ID              string               `json:"id"`
	SessionID       string               `json:"sessionId"`
	Transition      centering.Transition `json:"transition"`
	From            centering.Status     `json:"from"`
	To              centering.Status     `json:"to"`
	RotationDegrees float64              `json:"rotationDegrees"`
	Adaptive        bool                 `json:"adaptive"`
	Ts              int64                `json:"ts"`
}

// NewTransitionEvent stamps a transition with a fresh ID and the current time.
func NewTransitionEvent(sessionID string, tr centering.Transition, from, to centering.Status, rotation float64, adaptive bool) TransitionEvent {
	return TransitionEvent{
		ID:              uuid.NewString(),
		SessionID:       sessionID,
		Transition:      tr,
		From:            from,
		To:              to,
		RotationDegrees: rotation * 180 / math.Pi,
		Adaptive:        adaptive,
		Ts:              time.Now().Unix(),
	}
}

// SettingsChangedEvent is the typed payload for settings.changed.
type SettingsChangedEvent struct {
	Adaptive bool  `json:"adaptive"`
	Guides   bool  `json:"guides"`
	Ts       int64 `json:"ts"`
}

// DecodeAs unmarshals e.Data into T. Empty data yields the zero T.
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
