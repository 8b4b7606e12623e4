package sensor

import (
	"context"
	"math"
	"time"

	"github.com/rcpd/gridlevel/pkg/centering"
)

type mockSource struct {
	start  time.Time
	ticker *time.Ticker
	now    func() time.Time
}

// NewMock creates a source that slowly rocks the device around upright,
// passing through the centered band, and lays it flat now and then.
func NewMock(interval time.Duration) Source {
	m := &mockSource{start: time.Now(), now: time.Now}
	if interval > 0 {
		m.ticker = time.NewTicker(interval)
	}
	return m
}

func (m *mockSource) Next(ctx context.Context) (centering.Sample, error) {
	if m.ticker != nil {
		if err := wait(ctx, m.ticker); err != nil {
			return centering.Sample{}, err
		}
	} else if err := ctx.Err(); err != nil {
		return centering.Sample{}, err
	}
	return mockSampleAt(m.now().Sub(m.start).Seconds()), nil
}

func (m *mockSource) Close() error {
	if m.ticker != nil {
		m.ticker.Stop()
	}
	return nil
}

// mockSampleAt returns the mock gravity vector elapsed seconds after start.
func mockSampleAt(elapsed float64) centering.Sample {
	// Rock ±8° around upright.
	tilt := 8 * math.Sin(elapsed*0.5) * math.Pi / 180

	// Mostly upright, lying flat for a short while every ~60s.
	z := 0.2 * math.Sin(elapsed*0.3)
	if math.Sin(elapsed*2*math.Pi/60) > 0.95 {
		z = 0.97
	}

	planar := math.Sqrt(1 - z*z)
	// Puts the grid |tilt| away from a 90° alignment.
	theta := math.Pi - tilt
	return centering.Sample{
		X: planar * math.Sin(theta),
		Y: planar * math.Cos(theta),
		Z: z,
	}
}
