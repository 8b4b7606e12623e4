package centering

// Brightness describes how bright the scene behind the grid is.
type Brightness string

const (
	BrightnessLight   Brightness = "Light"
	BrightnessDark    Brightness = "Dark"
	BrightnessUnknown Brightness = "Unknown"
)

// BrightnessThresholds are the luma (0-255) and APEX brightness cut-offs
// above which a scene is considered light.
type BrightnessThresholds struct {
	Luma       int     `json:"luma"`
	Brightness float64 `json:"brightness"`
}

// DefaultBrightnessThresholds are tuned for a video-range luma plane.
var DefaultBrightnessThresholds = BrightnessThresholds{Luma: 120, Brightness: 2.5}

// ClassifyBrightness reports Light only when both the APEX brightness and the
// centre-pixel luma exceed their thresholds.
func ClassifyBrightness(luma int, brightness float64, t BrightnessThresholds) Brightness {
	if brightness > t.Brightness && luma > t.Luma {
		return BrightnessLight
	}
	return BrightnessDark
}
