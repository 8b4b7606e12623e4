package tint

import (
	"math"
	"testing"

	"github.com/rcpd/gridlevel/pkg/centering"
)

func TestColor_Darker(t *testing.T) {
	tests := []struct {
		name string
		in   Color
	}{
		{name: "yellow", in: Color{R: 1, G: 0.8, B: 0, A: 1}},
		{name: "grey", in: Color{R: 0.5, G: 0.5, B: 0.5, A: 0.4}},
		{name: "blue", in: Color{R: 0.1, G: 0.2, B: 0.9, A: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.in.Darker(0.87)
			if !ok {
				t.Fatalf("Darker() ok = false, want true")
			}
			h1, s1, b1 := tt.in.HSB()
			h2, s2, b2 := got.HSB()
			if math.Abs(h1-h2) > 1e-9 || math.Abs(s1-s2) > 1e-9 {
				t.Errorf("Darker() changed hue/saturation: (%v, %v) -> (%v, %v)", h1, s1, h2, s2)
			}
			if math.Abs(b2-b1*0.87) > 1e-9 {
				t.Errorf("Darker() brightness = %v, want %v", b2, b1*0.87)
			}
			if got.A != tt.in.A {
				t.Errorf("Darker() alpha = %v, want %v", got.A, tt.in.A)
			}
		})
	}
}

func TestColor_DarkerInvalid(t *testing.T) {
	if _, ok := (Color{R: 2, G: 0, B: 0, A: 1}).Darker(0.87); ok {
		t.Errorf("Darker() ok = true for out of range colour, want false")
	}
}

func TestForBrightness(t *testing.T) {
	base := Color{R: 1, G: 0.8, B: 0, A: 1}
	if got := ForBrightness(base, centering.BrightnessDark); got != base {
		t.Errorf("ForBrightness(dark) = %v, want %v", got, base)
	}
	if got := ForBrightness(base, centering.BrightnessLight); got == base {
		t.Errorf("ForBrightness(light) = base colour, want darker")
	}
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#FFCC00")
	if err != nil {
		t.Fatalf("ParseHex() error = %v", err)
	}
	if got := c.Hex(); got != "#FFCC00" {
		t.Errorf("Hex() = %v, want #FFCC00", got)
	}
	if _, err := ParseHex("#FFF"); err == nil {
		t.Errorf("ParseHex(#FFF) error = nil, want error")
	}
	if _, err := ParseHex("zzzzzz"); err == nil {
		t.Errorf("ParseHex(zzzzzz) error = nil, want error")
	}
}
