// Package feedback plays the one-shot audio/visual cue for a centering
// transition.
package feedback

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/rcpd/gridlevel/pkg/centering"
	"github.com/rcpd/gridlevel/pkg/events"
)

// Player reacts to a single transition.
type Player interface {
	Play(ctx context.Context, ev events.TransitionEvent) error
	Close() error
}

// Enabled reports whether feedback should be played. Cues are only useful to
// screen-reader users and only while the guides are shown.
func Enabled(adaptive, guides bool) bool {
	return adaptive && guides
}

// LogPlayer writes transitions to the log.
type LogPlayer struct{}

func (LogPlayer) Play(_ context.Context, ev events.TransitionEvent) error {
	entry := logrus.WithFields(logrus.Fields{
		"id":              ev.ID,
		"rotationDegrees": ev.RotationDegrees,
	})
	switch ev.Transition {
	case centering.BecameCentered:
		entry.Info("grid centered")
	case centering.BecameUncentered:
		entry.Info("grid uncentered")
	}
	return nil
}

func (LogPlayer) Close() error { return nil }

// Multi plays on every player, in order, and joins their errors.
type Multi []Player

func (m Multi) Play(ctx context.Context, ev events.TransitionEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Play(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Options selects the players built by New.
type Options struct {
	CenteredCommand   string
	UncenteredCommand string
	KafkaBrokers      []string
	KafkaTopic        string
}

// New always logs, and adds a command and a Kafka player when configured.
func New(opts Options) (Player, error) {
	players := Multi{LogPlayer{}}

	if opts.CenteredCommand != "" || opts.UncenteredCommand != "" {
		players = append(players, &CommandPlayer{
			Centered:   opts.CenteredCommand,
			Uncentered: opts.UncenteredCommand,
		})
	}

	if opts.KafkaTopic != "" {
		kp, err := NewKafkaPlayer(opts.KafkaBrokers, opts.KafkaTopic)
		if err != nil {
			return nil, err
		}
		players = append(players, kp)
	}

	return players, nil
}
