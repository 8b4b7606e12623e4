package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rcpd/gridlevel/pkg/centering"
	"github.com/rcpd/gridlevel/pkg/config"
	"github.com/rcpd/gridlevel/pkg/events"
	"github.com/rcpd/gridlevel/pkg/sensor"
	"github.com/rcpd/gridlevel/pkg/tint"
	"github.com/rcpd/gridlevel/pkg/types"
	"github.com/rcpd/gridlevel/pkg/utils/ptr"
)

type recordingPlayer struct {
	mu     sync.Mutex
	played []events.TransitionEvent
	closed bool
}

func (p *recordingPlayer) Play(_ context.Context, ev events.TransitionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, ev)
	return nil
}

func (p *recordingPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *recordingPlayer) transitions() []centering.Transition {
	p.mu.Lock()
	defer p.mu.Unlock()
	var trs []centering.Transition
	for _, ev := range p.played {
		trs = append(trs, ev.Transition)
	}
	return trs
}

func newTestDaemon(t *testing.T, raw *config.RawFileConfig) (*gin.Engine, *recordingPlayer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gridlevel.json")
	player := &recordingPlayer{}
	setup(config.NewFileFromConfig(raw, path), player, sensor.KindPush)
	return setupRoutes(), player, path
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	router.ServeHTTP(w, req)
	return w
}

func postSampleBody(t *testing.T, router http.Handler, body string) types.SampleResponse {
	t.Helper()
	w := do(router, http.MethodPost, "/sample", body)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /sample %s = %d, want %d: %s", body, w.Code, http.StatusOK, w.Body.String())
	}
	var resp types.SampleResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode sample response: %v", err)
	}
	return resp
}

const (
	uprightSample = `{"x":0,"y":-1,"z":0}`
	tiltedSample  = `{"x":0.7071,"y":-0.7071,"z":0}`
	flatSample    = `{"x":0,"y":-0.2,"z":-0.98}`
)

func TestPostSample_Transitions(t *testing.T) {
	router, player, _ := newTestDaemon(t, &config.RawFileConfig{
		AdaptiveThresholding: ptr.To(true),
		GuidesEnabled:        ptr.To(true),
	})

	steps := []struct {
		name          string
		body          string
		wantStatus    centering.Status
		wantDisplayed centering.Status
		wantTr        centering.Transition
	}{
		{name: "upright", body: uprightSample, wantStatus: centering.StatusCentered, wantDisplayed: centering.StatusCentered, wantTr: centering.BecameCentered},
		{name: "still upright", body: uprightSample, wantStatus: centering.StatusCentered, wantDisplayed: centering.StatusCentered, wantTr: centering.NoTransition},
		{name: "tilted 45", body: tiltedSample, wantStatus: centering.StatusNotCentered, wantDisplayed: centering.StatusNotCentered, wantTr: centering.BecameUncentered},
		{name: "flat", body: flatSample, wantStatus: centering.StatusCentered, wantDisplayed: centering.StatusNotCentered, wantTr: centering.NoTransition},
		{name: "upright again", body: uprightSample, wantStatus: centering.StatusCentered, wantDisplayed: centering.StatusCentered, wantTr: centering.BecameCentered},
	}
	for _, s := range steps {
		resp := postSampleBody(t, router, s.body)
		if resp.Result.Status != s.wantStatus {
			t.Errorf("%s: status = %v, want %v", s.name, resp.Result.Status, s.wantStatus)
		}
		if resp.Overlay.Displayed != s.wantDisplayed {
			t.Errorf("%s: displayed = %v, want %v", s.name, resp.Overlay.Displayed, s.wantDisplayed)
		}
		if resp.Transition != s.wantTr {
			t.Errorf("%s: transition = %q, want %q", s.name, resp.Transition, s.wantTr)
		}
	}

	want := []centering.Transition{centering.BecameCentered, centering.BecameUncentered, centering.BecameCentered}
	got := player.transitions()
	if len(got) != len(want) {
		t.Fatalf("played = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("played[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	st := trk.status()
	if st.Samples != 5 || st.Transitions != 3 {
		t.Errorf("status samples/transitions = %d/%d, want 5/3", st.Samples, st.Transitions)
	}
}

func TestPostSample_FeedbackGate(t *testing.T) {
	tests := []struct {
		name     string
		adaptive bool
		guides   bool
		wantPlay bool
	}{
		{name: "both on", adaptive: true, guides: true, wantPlay: true},
		{name: "screen reader off", adaptive: false, guides: true, wantPlay: false},
		{name: "guides off", adaptive: true, guides: false, wantPlay: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, player, _ := newTestDaemon(t, &config.RawFileConfig{
				AdaptiveThresholding: ptr.To(tt.adaptive),
				GuidesEnabled:        ptr.To(tt.guides),
			})
			resp := postSampleBody(t, router, uprightSample)
			if resp.Transition != centering.BecameCentered {
				t.Errorf("transition = %q, want %q", resp.Transition, centering.BecameCentered)
			}
			if got := len(player.transitions()) > 0; got != tt.wantPlay {
				t.Errorf("played = %v, want %v", got, tt.wantPlay)
			}
		})
	}
}

func TestPostSample_Malformed(t *testing.T) {
	router, _, _ := newTestDaemon(t, nil)

	for _, body := range []string{`{"x":0,"y":-1}`, `not json`, `{"x":"a","y":0,"z":0}`} {
		w := do(router, http.MethodPost, "/sample", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("POST /sample %s = %d, want %d", body, w.Code, http.StatusBadRequest)
		}
	}

	st := trk.status()
	if st.Skipped != 3 || st.Samples != 0 {
		t.Errorf("skipped/samples = %d/%d, want 3/0", st.Skipped, st.Samples)
	}
	if st.Status != centering.StatusUnknown {
		t.Errorf("status = %v, want %v", st.Status, centering.StatusUnknown)
	}
}

func TestSetAdaptive(t *testing.T) {
	router, _, path := newTestDaemon(t, nil)

	hubCh := sseHub.Subscribe()
	defer sseHub.Unsubscribe(hubCh)

	w := do(router, http.MethodPut, "/adaptive", "true")
	if w.Code != http.StatusCreated {
		t.Fatalf("PUT /adaptive = %d, want %d", w.Code, http.StatusCreated)
	}
	if !conf.AdaptiveThresholding() {
		t.Errorf("AdaptiveThresholding() = false, want true")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config was not saved: %v", err)
	}
	if !strings.Contains(string(b), `"adaptiveThresholding": true`) {
		t.Errorf("saved config = %s, want adaptiveThresholding true", b)
	}

	select {
	case ev := <-hubCh:
		if ev.Name != events.SettingsChanged {
			t.Errorf("event = %q, want %q", ev.Name, events.SettingsChanged)
		}
		payload, err := events.DecodeAs[events.SettingsChangedEvent](ev)
		if err != nil {
			t.Fatalf("DecodeAs() error = %v", err)
		}
		if !payload.Adaptive || !payload.Guides {
			t.Errorf("payload = %+v, want adaptive and guides on", payload)
		}
	default:
		t.Errorf("no settings event published")
	}

	if w := do(router, http.MethodPut, "/adaptive", `"yes"`); w.Code != http.StatusBadRequest {
		t.Errorf("PUT /adaptive \"yes\" = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSetGuides(t *testing.T) {
	router, _, _ := newTestDaemon(t, nil)

	w := do(router, http.MethodPut, "/guides", "false")
	if w.Code != http.StatusCreated {
		t.Fatalf("PUT /guides = %d, want %d", w.Code, http.StatusCreated)
	}
	if conf.GuidesEnabled() {
		t.Errorf("GuidesEnabled() = true, want false")
	}
	if trk.status().FeedbackEnabled {
		t.Errorf("FeedbackEnabled = true with guides off")
	}
}

func TestPostFrame(t *testing.T) {
	router, _, _ := newTestDaemon(t, &config.RawFileConfig{TintColor: ptr.To("#FFCC00")})
	base, err := tint.ParseHex("#FFCC00")
	if err != nil {
		t.Fatalf("ParseHex() error = %v", err)
	}

	tests := []struct {
		name      string
		body      string
		wantScene centering.Brightness
	}{
		{name: "bright scene", body: `{"luma":200,"brightness":3.1}`, wantScene: centering.BrightnessLight},
		{name: "dim scene", body: `{"luma":200,"brightness":1.0}`, wantScene: centering.BrightnessDark},
		{name: "dark pixel", body: `{"luma":90,"brightness":5}`, wantScene: centering.BrightnessDark},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/frame", tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("POST /frame = %d, want %d", w.Code, http.StatusOK)
			}
			var resp types.FrameResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode frame response: %v", err)
			}
			if resp.Scene != tt.wantScene {
				t.Errorf("scene = %v, want %v", resp.Scene, tt.wantScene)
			}
			if want := tint.ForBrightness(base, tt.wantScene).Hex(); resp.Tint != want {
				t.Errorf("tint = %v, want %v", resp.Tint, want)
			}
		})
	}
}

func TestPostReset(t *testing.T) {
	router, _, _ := newTestDaemon(t, nil)
	postSampleBody(t, router, uprightSample)
	before := trk.status().SessionID

	w := do(router, http.MethodPost, "/reset", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /reset = %d, want %d", w.Code, http.StatusCreated)
	}

	st := trk.status()
	if st.SessionID == before {
		t.Errorf("session id did not change")
	}
	if st.Status != centering.StatusUnknown || st.Displayed != centering.StatusUnknown {
		t.Errorf("status/displayed = %v/%v, want Unknown", st.Status, st.Displayed)
	}

	// Upright after a reset announces centering again.
	if resp := postSampleBody(t, router, uprightSample); resp.Transition != centering.BecameCentered {
		t.Errorf("transition after reset = %q, want %q", resp.Transition, centering.BecameCentered)
	}
}

func TestGetStatusAndMetrics(t *testing.T) {
	router, _, _ := newTestDaemon(t, nil)
	postSampleBody(t, router, tiltedSample)

	w := do(router, http.MethodGet, "/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /status = %d, want %d", w.Code, http.StatusOK)
	}
	var st types.Status
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if st.Status != centering.StatusNotCentered || st.Source != string(sensor.KindPush) {
		t.Errorf("status/source = %v/%v, want %v/%v", st.Status, st.Source, centering.StatusNotCentered, sensor.KindPush)
	}
	if st.NextThreshold != centering.DefaultThreshold {
		t.Errorf("nextThreshold = %d, want %d", st.NextThreshold, centering.DefaultThreshold)
	}

	w = do(router, http.MethodGet, "/metrics", "")
	if !strings.Contains(w.Body.String(), `gridlevel_samples_total{status="NotCentered"} 1`) {
		t.Errorf("metrics missing sample counter:\n%s", w.Body.String())
	}
}

func TestGetEvents(t *testing.T) {
	router, _, _ := newTestDaemon(t, nil)
	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /events error = %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	trk.process(ctx, centering.Sample{X: 0, Y: -1, Z: 0})

	var name, data string
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		if line == "" && name != "" {
			break
		}
		if v, ok := strings.CutPrefix(line, "event:"); ok {
			name = strings.TrimSpace(v)
		}
		if v, ok := strings.CutPrefix(line, "data:"); ok {
			data = strings.TrimSpace(v)
		}
	}

	if name != events.CenteringTransition {
		t.Fatalf("event = %q, want %q", name, events.CenteringTransition)
	}
	payload, err := events.DecodeAs[events.TransitionEvent](events.Event{Name: name, Data: json.RawMessage(data)})
	if err != nil {
		t.Fatalf("DecodeAs() error = %v", err)
	}
	if payload.Transition != centering.BecameCentered || payload.To != centering.StatusCentered {
		t.Errorf("payload = %+v, want BecameCentered to Centered", payload)
	}
	if payload.ID == "" || payload.SessionID != trk.status().SessionID {
		t.Errorf("payload ids = %q/%q", payload.ID, payload.SessionID)
	}
}
