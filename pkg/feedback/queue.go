package feedback

import (
	"context"
	"errors"
	"sync"

	"github.com/rcpd/gridlevel/pkg/events"
)

var (
	// ErrQueueFull is returned by Queue.Play when the worker is behind.
	ErrQueueFull = errors.New("feedback queue is full")
	// ErrQueueClosed is returned by Queue.Play after Close.
	ErrQueueClosed = errors.New("feedback queue is closed")
)

// Queue hands transitions to a single background worker, so sample
// processing never waits on a sound command or a broker. Events are played
// in order; when the buffer is full new events are dropped.
type Queue struct {
	player  Player
	onError func(events.TransitionEvent, error)

	mu     sync.RWMutex
	closed bool
	queue  chan events.TransitionEvent
	done   chan struct{}
}

// NewQueue starts a worker playing on p. onError, if set, is called from the
// worker for every failed Play.
func NewQueue(p Player, size int, onError func(events.TransitionEvent, error)) *Queue {
	if size < 1 {
		size = 1
	}
	q := &Queue{
		player:  p,
		onError: onError,
		queue:   make(chan events.TransitionEvent, size),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for ev := range q.queue {
		// The caller's context ends with its request; the players carry
		// their own timeouts.
		if err := q.player.Play(context.Background(), ev); err != nil && q.onError != nil {
			q.onError(ev, err)
		}
	}
}

// Play enqueues ev without blocking.
func (q *Queue) Play(_ context.Context, ev events.TransitionEvent) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.queue <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close plays what is already queued, then closes the wrapped player.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.queue)
	q.mu.Unlock()

	<-q.done
	return q.player.Close()
}
