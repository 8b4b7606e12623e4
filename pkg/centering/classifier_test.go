package centering

import (
	"math"
	"testing"
)

// sampleAt returns an upright sample whose |rotation| is deg degrees.
func sampleAt(deg float64) Sample {
	theta := math.Pi - deg*math.Pi/180
	return Sample{X: math.Sin(theta), Y: math.Cos(theta), Z: 0}
}

func TestIsCentered(t *testing.T) {
	tests := []struct {
		name      string
		degrees   int
		threshold int
		want      bool
	}{
		{name: "exactly aligned", degrees: 180, threshold: 2, want: true},
		{name: "one degree past axis", degrees: 91, threshold: 2, want: true},
		{name: "two degrees past axis", degrees: 92, threshold: 2, want: false},
		{name: "one degree before axis", degrees: 89, threshold: 2, want: true},
		{name: "two degrees before axis", degrees: 88, threshold: 2, want: false},
		{name: "widened band after axis", degrees: 2, threshold: 3, want: true},
		{name: "widened band before axis", degrees: 88, threshold: 3, want: true},
		{name: "widened band edge is exclusive", degrees: 3, threshold: 3, want: false},
		{name: "widened band edge before axis", degrees: 87, threshold: 3, want: false},
		{name: "midpoint", degrees: 46, threshold: 2, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCentered(tt.degrees, tt.threshold); got != tt.want {
				t.Errorf("IsCentered(%d, %d) = %v, want %v", tt.degrees, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestEffectiveThreshold(t *testing.T) {
	tests := []struct {
		name     string
		adaptive bool
		last     Status
		want     int
	}{
		{name: "adaptive off", adaptive: false, last: StatusCentered, want: 2},
		{name: "adaptive off unknown", adaptive: false, last: StatusUnknown, want: 2},
		{name: "adaptive on centered", adaptive: true, last: StatusCentered, want: 3},
		{name: "adaptive on unknown", adaptive: true, last: StatusUnknown, want: 3},
		{name: "adaptive on not centered", adaptive: true, last: StatusNotCentered, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveThreshold(tt.adaptive, tt.last); got != tt.want {
				t.Errorf("EffectiveThreshold() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify_Upright(t *testing.T) {
	c := NewClassifier()
	res := c.Classify(Sample{X: 0, Y: 1, Z: 0.1}, false)

	if res.Status != StatusCentered {
		t.Errorf("Classify() status = %v, want %v", res.Status, StatusCentered)
	}
	if math.Abs(res.Rotation+math.Pi) > 1e-12 {
		t.Errorf("Classify() rotation = %v, want %v", res.Rotation, -math.Pi)
	}
	if res.Z != 0.1 {
		t.Errorf("Classify() z = %v, want 0.1", res.Z)
	}
	if got := c.LastStatus(); got != StatusCentered {
		t.Errorf("LastStatus() = %v, want %v", got, StatusCentered)
	}
}

func TestClassify_AllAxes(t *testing.T) {
	samples := []Sample{
		{X: 0, Y: 1},
		{X: 1, Y: 0},
		{X: -1, Y: 0},
		{X: 0, Y: -1},
	}
	for _, s := range samples {
		c := NewClassifier()
		if got := c.Classify(s, false).Status; got != StatusCentered {
			t.Errorf("Classify(%+v) = %v, want %v", s, got, StatusCentered)
		}
	}
}

func TestClassify_Midpoint(t *testing.T) {
	c := NewClassifier()
	s := sampleAt(226.5) // 226 % 90 == 46
	if got := Degrees(Rotation(s)) % 90; got != 46 {
		t.Fatalf("degrees mod 90 = %d, want 46", got)
	}
	if got := c.Classify(s, false).Status; got != StatusNotCentered {
		t.Errorf("Classify() = %v, want %v", got, StatusNotCentered)
	}
	if got := c.Classify(s, true).Status; got != StatusNotCentered {
		t.Errorf("Classify() adaptive = %v, want %v", got, StatusNotCentered)
	}
}

func TestClassify_Hysteresis(t *testing.T) {
	inBand := sampleAt(182.5)  // mod 90 == 2
	outBand := sampleAt(183.5) // mod 90 == 3
	upright := sampleAt(180)

	tests := []struct {
		name     string
		prime    Sample
		sample   Sample
		adaptive bool
		want     Status
	}{
		{name: "centered and adaptive keeps 2 degrees", prime: upright, sample: inBand, adaptive: true, want: StatusCentered},
		{name: "not centered and adaptive rejects 2 degrees", prime: outBand, sample: inBand, adaptive: true, want: StatusNotCentered},
		{name: "centered without adaptive rejects 2 degrees", prime: upright, sample: inBand, adaptive: false, want: StatusNotCentered},
		{name: "centered and adaptive rejects 3 degrees", prime: upright, sample: outBand, adaptive: true, want: StatusNotCentered},
		{name: "before axis inside widened band", prime: upright, sample: sampleAt(178.5), adaptive: true, want: StatusCentered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier()
			c.Classify(tt.prime, false)
			if got := c.Classify(tt.sample, tt.adaptive).Status; got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify_UnknownGetsWidenedBand(t *testing.T) {
	c := NewClassifier()
	if got := c.Classify(sampleAt(182.5), true).Status; got != StatusCentered {
		t.Errorf("Classify() = %v, want %v", got, StatusCentered)
	}
	if !c.ThresholdSwitching() {
		t.Errorf("ThresholdSwitching() = false, want true")
	}
}

func TestClassify_RotationMatchesAtan2(t *testing.T) {
	samples := []Sample{
		{X: 0.3, Y: 0.9, Z: 0.1},
		{X: -0.7, Y: 0.2, Z: -0.5},
		{X: 0.01, Y: -0.99, Z: 0.9},
		{X: 0, Y: 0, Z: 1},
	}
	c := NewClassifier()
	for _, s := range samples {
		res := c.Classify(s, true)
		want := math.Atan2(s.X, s.Y) - math.Pi
		if math.Abs(res.Rotation-want) > 1e-12 {
			t.Errorf("Classify(%+v).Rotation = %v, want %v", s, res.Rotation, want)
		}
		if res.Status == StatusUnknown {
			t.Errorf("Classify(%+v) returned %v", s, StatusUnknown)
		}
	}
}

func TestDetectTransition(t *testing.T) {
	tests := []struct {
		prev Status
		next Status
		want Transition
	}{
		{StatusUnknown, StatusCentered, BecameCentered},
		{StatusUnknown, StatusNotCentered, NoTransition},
		{StatusUnknown, StatusUnknown, NoTransition},
		{StatusNotCentered, StatusCentered, BecameCentered},
		{StatusCentered, StatusNotCentered, BecameUncentered},
		{StatusCentered, StatusCentered, NoTransition},
		{StatusNotCentered, StatusNotCentered, NoTransition},
		{StatusCentered, StatusUnknown, NoTransition},
		{StatusNotCentered, StatusUnknown, NoTransition},
	}
	for _, tt := range tests {
		t.Run(string(tt.prev)+"->"+string(tt.next), func(t *testing.T) {
			for i := 0; i < 2; i++ {
				if got := DetectTransition(tt.prev, tt.next); got != tt.want {
					t.Errorf("DetectTransition() call %d = %q, want %q", i, got, tt.want)
				}
			}
		})
	}
}

func TestObserve_FiresOncePerCrossing(t *testing.T) {
	c := NewClassifier()
	steps := []struct {
		sample Sample
		want   Transition
	}{
		{sampleAt(226.5), NoTransition},
		{sampleAt(180), BecameCentered},
		{sampleAt(180), NoTransition},
		{sampleAt(180), NoTransition},
		{sampleAt(226.5), BecameUncentered},
		{sampleAt(226.5), NoTransition},
		{sampleAt(90.5), BecameCentered},
	}
	for i, s := range steps {
		if _, got := c.Observe(s.sample, false); got != s.want {
			t.Errorf("step %d: Observe() transition = %q, want %q", i, got, s.want)
		}
	}
}

func TestClassifier_Reset(t *testing.T) {
	var c Classifier
	if got := c.LastStatus(); got != StatusUnknown {
		t.Errorf("zero value LastStatus() = %v, want %v", got, StatusUnknown)
	}
	c.Classify(sampleAt(180), true)
	c.Reset()
	if got := c.LastStatus(); got != StatusUnknown {
		t.Errorf("LastStatus() after Reset = %v, want %v", got, StatusUnknown)
	}
	if c.ThresholdSwitching() {
		t.Errorf("ThresholdSwitching() after Reset = true, want false")
	}
}
