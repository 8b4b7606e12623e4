package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rcpd/gridlevel/pkg/events"
)

var reconnectDelay = 2 * time.Second

// SubscribeEvents streams daemon events until ctx is cancelled. Dropped
// connections are retried. The returned channel is closed when ctx is done.
func (c *Client) SubscribeEvents(ctx context.Context) <-chan events.Event {
	out := make(chan events.Event, 16)

	go func() {
		defer close(out)
		for {
			err := c.streamEvents(ctx, out)
			if ctx.Err() != nil {
				return
			}
			logrus.WithError(err).Debug("event stream ended, reconnecting")
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
		}
	}()

	return out
}

func (c *Client) streamEvents(ctx context.Context, out chan<- events.Event) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://unix/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("got %d from /events", resp.StatusCode)
	}

	return readEvents(ctx, resp.Body, out)
}

// readEvents parses a text/event-stream body. Only the event and data fields
// are used; multiple data lines are joined with newlines.
func readEvents(ctx context.Context, r io.Reader, out chan<- events.Event) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var name string
	var data []string
	for sc.Scan() {
		line := sc.Text()

		if line == "" {
			if len(data) > 0 {
				ev := events.Event{Name: name, Data: json.RawMessage(strings.Join(data, "\n"))}
				if ev.Name == "" {
					ev.Name = "message"
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			name, data = "", nil
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			data = append(data, value)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}
