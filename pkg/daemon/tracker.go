package daemon

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rcpd/gridlevel/pkg/centering"
	"github.com/rcpd/gridlevel/pkg/events"
	"github.com/rcpd/gridlevel/pkg/feedback"
	"github.com/rcpd/gridlevel/pkg/metrics"
	"github.com/rcpd/gridlevel/pkg/tint"
	"github.com/rcpd/gridlevel/pkg/types"
)

// tracker owns the classifier and overlay for one motion session. Samples
// from the loop and from the API are processed one at a time, in order.
type tracker struct {
	// processMu serialises whole samples and guards player.
	processMu  sync.Mutex
	classifier *centering.Classifier
	overlay    *centering.Overlay

	player  feedback.Player
	metrics *metrics.Metrics
	hub     *events.EventHub

	// mu guards the snapshot below, which GET /status reads.
	mu           sync.RWMutex
	sessionID    string
	lastResult   centering.Result
	lastOverlay  centering.OverlayState
	lastSampleAt time.Time
	samples      uint64
	skipped      uint64
	transitions  uint64
	scene        centering.Brightness
}

func newTracker(player feedback.Player, m *metrics.Metrics, hub *events.EventHub) *tracker {
	return &tracker{
		classifier: centering.NewClassifier(),
		overlay:    centering.NewOverlay(),
		player:     player,
		metrics:    m,
		hub:        hub,
		sessionID:  uuid.NewString(),
		lastResult: centering.Result{Status: centering.StatusUnknown},
		lastOverlay: centering.OverlayState{
			Alpha:     1,
			Displayed: centering.StatusUnknown,
		},
		scene: centering.BrightnessUnknown,
	}
}

// process classifies one sample and fires the transition, if any.
func (t *tracker) process(ctx context.Context, s centering.Sample) types.SampleResponse {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	adaptive := conf.AdaptiveThresholding()
	guides := conf.GuidesEnabled()

	prevDisplayed := t.overlay.Displayed()
	res, raw := t.classifier.Observe(s, adaptive)
	st, tr := t.overlay.Apply(res)

	t.mu.Lock()
	t.lastResult = res
	t.lastOverlay = st
	t.lastSampleAt = time.Now()
	t.samples++
	if tr != centering.NoTransition {
		t.transitions++
	}
	sessionID := t.sessionID
	t.mu.Unlock()

	sampleRecorder.AddRecordNow()
	t.metrics.ObserveSample(res, st.Alpha)
	printStatus(res, st, adaptive)

	if raw != centering.NoTransition && tr == centering.NoTransition {
		logrus.WithField("transition", raw).Debug("device is flat, transition not shown")
	}

	resp := types.SampleResponse{Result: res, Overlay: st, Transition: tr}
	if tr == centering.NoTransition {
		return resp
	}

	ev := events.NewTransitionEvent(sessionID, tr, prevDisplayed, st.Displayed, res.Rotation, adaptive)
	t.metrics.ObserveTransition(tr)
	t.hub.Publish(events.CenteringTransition, ev)
	logrus.WithFields(logrus.Fields{
		"transition":      tr,
		"rotationDegrees": ev.RotationDegrees,
		"adaptive":        adaptive,
		"guides":          guides,
	}).Debug("new event")

	if !feedback.Enabled(adaptive, guides) || t.player == nil {
		return resp
	}
	if err := t.player.Play(ctx, ev); err != nil {
		t.metrics.ObserveFeedbackError()
		logrus.Errorf("failed to play feedback for %s: %v", tr, err)
	}

	return resp
}

// setPlayer swaps the feedback player and closes the previous one.
func (t *tracker) setPlayer(p feedback.Player) error {
	t.processMu.Lock()
	old := t.player
	t.player = p
	t.processMu.Unlock()

	if old == nil {
		return nil
	}
	return old.Close()
}

func (t *tracker) closePlayer() error {
	return t.setPlayer(nil)
}

// skip records a sample that could not be decoded.
func (t *tracker) skip(err error) {
	t.mu.Lock()
	t.skipped++
	t.mu.Unlock()

	t.metrics.ObserveSkipped()
	logrus.Debugf("skipping sample: %v", err)
}

// reset starts a new motion session.
func (t *tracker) reset() string {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	t.classifier.Reset()
	t.overlay.Reset()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionID = uuid.NewString()
	t.lastResult = centering.Result{Status: centering.StatusUnknown}
	t.lastOverlay = centering.OverlayState{Alpha: 1, Displayed: centering.StatusUnknown}
	return t.sessionID
}

// observeFrame updates the scene brightness and returns the tint to draw with.
func (t *tracker) observeFrame(f types.Frame) (types.FrameResponse, error) {
	base, err := tint.ParseHex(conf.TintColor())
	if err != nil {
		return types.FrameResponse{}, err
	}
	scene := centering.ClassifyBrightness(f.Luma, f.Brightness, centering.DefaultBrightnessThresholds)

	t.mu.Lock()
	changed := t.scene != scene
	t.scene = scene
	t.mu.Unlock()

	if changed {
		logrus.WithField("scene", scene).Debug("scene brightness changed")
	}

	return types.FrameResponse{
		Scene: scene,
		Tint:  tint.ForBrightness(base, scene).Hex(),
	}, nil
}

func (t *tracker) status() types.Status {
	adaptive := conf.AdaptiveThresholding()
	guides := conf.GuidesEnabled()

	t.mu.RLock()
	defer t.mu.RUnlock()

	tintHex := conf.TintColor()
	if base, err := tint.ParseHex(tintHex); err == nil {
		tintHex = tint.ForBrightness(base, t.scene).Hex()
	}

	return types.Status{
		SessionID:       t.sessionID,
		Source:          sourceKind,
		Status:          t.lastResult.Status,
		Displayed:       t.lastOverlay.Displayed,
		RotationRadians: t.lastResult.Rotation,
		RotationDegrees: t.lastResult.Rotation * 180 / math.Pi,
		Z:               t.lastResult.Z,
		Alpha:           t.lastOverlay.Alpha,
		Flat:            t.lastOverlay.Flat,
		NextThreshold:   centering.EffectiveThreshold(adaptive, t.lastResult.Status),
		Adaptive:        adaptive,
		Guides:          guides,
		FeedbackEnabled: feedback.Enabled(adaptive, guides),
		Scene:           t.scene,
		Tint:            tintHex,
		Samples:         t.samples,
		Skipped:         t.skipped,
		Transitions:     t.transitions,
		RecentSamples:   sampleRecorder.GetRecordsIn(recentSampleWindow),
		LastSampleAt:    t.lastSampleAt,
		DroppedEvents:   t.hub.Dropped(),
	}
}
