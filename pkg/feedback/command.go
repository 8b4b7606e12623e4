package feedback

import (
	"context"
	"os"
	"os/exec"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rcpd/gridlevel/pkg/centering"
	"github.com/rcpd/gridlevel/pkg/events"
)

const defaultCommandTimeout = 5 * time.Second

// CommandPlayer runs a shell command per transition direction, typically a
// sound player such as `paplay centered.wav`. An empty command is skipped.
type CommandPlayer struct {
	Centered   string
	Uncentered string
	Timeout    time.Duration
}

func (p *CommandPlayer) command(tr centering.Transition) string {
	switch tr {
	case centering.BecameCentered:
		return p.Centered
	case centering.BecameUncentered:
		return p.Uncentered
	}
	return ""
}

func (p *CommandPlayer) Play(ctx context.Context, ev events.TransitionEvent) error {
	script := p.command(ev.Transition)
	if script == "" {
		return nil
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", script)
	cmd.Env = append(os.Environ(),
		"GRIDLEVEL_TRANSITION="+string(ev.Transition),
		"GRIDLEVEL_EVENT_ID="+ev.ID,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return pkgerrors.Wrapf(err, "feedback command %q failed: %s", script, string(out))
	}

	logrus.WithFields(logrus.Fields{
		"transition": ev.Transition,
		"command":    script,
	}).Debug("feedback command finished")
	return nil
}

func (p *CommandPlayer) Close() error { return nil }
