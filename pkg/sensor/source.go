// Package sensor provides gravity sample sources for the centering loop.
package sensor

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/rcpd/gridlevel/pkg/centering"
)

// Kind names a sample source.
type Kind string

const (
	KindMock   Kind = "mock"
	KindReplay Kind = "replay"
	KindMQTT   Kind = "mqtt"
	// KindPush has no background source. Samples arrive through the daemon API.
	KindPush Kind = "push"
)

// ErrSkip is returned by Next for a sample that could not be decoded. The
// caller should treat it as "no update this tick" and call Next again.
var ErrSkip = errors.New("malformed sample")

// Source is anything that can provide gravity samples over time.
// Finite sources return io.EOF when exhausted.
type Source interface {
	Next(ctx context.Context) (centering.Sample, error)
	Close() error
}

// Options selects and configures a Source.
type Options struct {
	Kind       Kind
	Interval   time.Duration
	ReplayPath string
	MQTTBroker string
	MQTTTopic  string
	// MQTTClientID defaults to "gridlevel" when empty.
	MQTTClientID string
}

// New builds the source described by opts. It returns a nil Source for
// KindPush.
func New(opts Options) (Source, error) {
	switch opts.Kind {
	case KindMock:
		return NewMock(opts.Interval), nil
	case KindReplay:
		r, err := OpenReplay(opts.ReplayPath, opts.Interval)
		if err != nil {
			return nil, err
		}
		return r, nil
	case KindMQTT:
		m, err := NewMQTT(opts.MQTTBroker, opts.MQTTTopic, opts.MQTTClientID)
		if err != nil {
			return nil, err
		}
		return m, nil
	case KindPush, "":
		return nil, nil
	default:
		return nil, pkgerrors.Errorf("unknown sample source %q", opts.Kind)
	}
}

type rawSample struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}

// DecodeSample parses a JSON object with x, y and z fields. Missing fields,
// non-finite values and the all-zero vector are reported as ErrSkip.
func DecodeSample(b []byte) (centering.Sample, error) {
	var raw rawSample
	if err := json.Unmarshal(b, &raw); err != nil {
		return centering.Sample{}, pkgerrors.Wrapf(ErrSkip, "failed to decode %q: %v", string(b), err)
	}
	if raw.X == nil || raw.Y == nil || raw.Z == nil {
		return centering.Sample{}, pkgerrors.Wrapf(ErrSkip, "sample %q is missing an axis", string(b))
	}
	return checkSample(centering.Sample{X: *raw.X, Y: *raw.Y, Z: *raw.Z})
}

func checkSample(s centering.Sample) (centering.Sample, error) {
	for _, v := range []float64{s.X, s.Y, s.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return centering.Sample{}, pkgerrors.Wrapf(ErrSkip, "sample %+v is not finite", s)
		}
	}
	// No gravity reading at all carries no orientation.
	if s.X == 0 && s.Y == 0 && s.Z == 0 {
		return centering.Sample{}, pkgerrors.Wrapf(ErrSkip, "sample %+v is a zero vector", s)
	}
	return s, nil
}

// wait blocks on the ticker, or returns the context error.
func wait(ctx context.Context, t *time.Ticker) error {
	if t == nil {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
