// Package tint picks the colour of the centering grid.
package tint

import (
	"fmt"
	"math"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/rcpd/gridlevel/pkg/centering"
)

// DefaultDarkenFactor scales HSB brightness when the scene is light.
const DefaultDarkenFactor = 0.87

// Color is an RGBA colour with components in [0, 1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

func (c Color) valid() bool {
	for _, v := range []float64{c.R, c.G, c.B, c.A} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return false
		}
	}
	return true
}

// HSB returns hue (in [0, 1)), saturation and brightness.
func (c Color) HSB() (h, s, b float64) {
	maxC := math.Max(c.R, math.Max(c.G, c.B))
	minC := math.Min(c.R, math.Min(c.G, c.B))
	delta := maxC - minC

	b = maxC
	if maxC > 0 {
		s = delta / maxC
	}
	if delta == 0 {
		return 0, s, b
	}

	switch maxC {
	case c.R:
		h = math.Mod((c.G-c.B)/delta, 6)
	case c.G:
		h = (c.B-c.R)/delta + 2
	default:
		h = (c.R-c.G)/delta + 4
	}
	h /= 6
	if h < 0 {
		h++
	}
	return h, s, b
}

// FromHSB builds a colour from hue, saturation, brightness and alpha.
func FromHSB(h, s, b, a float64) Color {
	if s == 0 {
		return Color{R: b, G: b, B: b, A: a}
	}

	h = math.Mod(h, 1) * 6
	i := math.Floor(h)
	f := h - i
	p := b * (1 - s)
	q := b * (1 - s*f)
	t := b * (1 - s*(1-f))

	switch int(i) {
	case 0:
		return Color{R: b, G: t, B: p, A: a}
	case 1:
		return Color{R: q, G: b, B: p, A: a}
	case 2:
		return Color{R: p, G: b, B: t, A: a}
	case 3:
		return Color{R: p, G: q, B: b, A: a}
	case 4:
		return Color{R: t, G: p, B: b, A: a}
	default:
		return Color{R: b, G: p, B: q, A: a}
	}
}

// Darker scales the HSB brightness by factor. ok is false when c is not a
// valid colour.
func (c Color) Darker(factor float64) (Color, bool) {
	if !c.valid() {
		return Color{}, false
	}
	h, s, b := c.HSB()
	return FromHSB(h, s, b*factor, c.A), true
}

// ForBrightness returns the grid colour to use over a scene.
func ForBrightness(base Color, scene centering.Brightness) Color {
	if scene != centering.BrightnessLight {
		return base
	}
	if darker, ok := base.Darker(DefaultDarkenFactor); ok {
		return darker
	}
	return base
}

// Hex renders the colour as #RRGGBB, ignoring alpha.
func (c Color) Hex() string {
	to8 := func(v float64) int {
		return int(math.Round(math.Min(1, math.Max(0, v)) * 255))
	}
	return fmt.Sprintf("#%02X%02X%02X", to8(c.R), to8(c.G), to8(c.B))
}

// ParseHex reads #RRGGBB (the leading # is optional). Alpha is set to 1.
func ParseHex(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, pkgerrors.Errorf("invalid colour %q: want #RRGGBB", s)
	}
	var r, g, b int
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return Color{}, pkgerrors.Wrapf(err, "invalid colour %q", s)
	}
	return Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255, A: 1}, nil
}
