package sensor

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rcpd/gridlevel/pkg/centering"
)

// Format is the on-disk layout of a replay file.
type Format string

const (
	// FormatJSONLines is one {"x":..,"y":..,"z":..} object per line.
	FormatJSONLines Format = "jsonl"
	// FormatCSV has a header naming x, y and z columns, in any order.
	FormatCSV Format = "csv"
)

// FormatForPath guesses the format from the file extension.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return FormatCSV
	}
	return FormatJSONLines
}

// Replay reads recorded samples back, one per interval.
type Replay struct {
	ticker *time.Ticker
	closer io.Closer
	next   func() (centering.Sample, error)
}

// OpenReplay opens a replay file. The format is picked from the extension.
func OpenReplay(path string, interval time.Duration) (*Replay, error) {
	if path == "" {
		return nil, pkgerrors.New("replay path is empty")
	}
	fp, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open replay file %s", path)
	}
	r, err := NewReplay(fp, FormatForPath(path), interval)
	if err != nil {
		_ = fp.Close()
		return nil, err
	}
	r.closer = fp
	return r, nil
}

// NewReplay reads samples from rd. A zero interval replays as fast as Next
// is called.
func NewReplay(rd io.Reader, format Format, interval time.Duration) (*Replay, error) {
	r := &Replay{}
	if interval > 0 {
		r.ticker = time.NewTicker(interval)
	}

	switch format {
	case FormatJSONLines:
		r.next = jsonLinesReader(rd)
	case FormatCSV:
		next, err := csvReader(rd)
		if err != nil {
			return nil, err
		}
		r.next = next
	default:
		return nil, pkgerrors.Errorf("unknown replay format %q", format)
	}

	return r, nil
}

// Next returns the next recorded sample, ErrSkip for a bad line, or io.EOF.
func (r *Replay) Next(ctx context.Context) (centering.Sample, error) {
	if r.ticker != nil {
		if err := wait(ctx, r.ticker); err != nil {
			return centering.Sample{}, err
		}
	} else if err := ctx.Err(); err != nil {
		return centering.Sample{}, err
	}
	return r.next()
}

func (r *Replay) Close() error {
	if r.ticker != nil {
		r.ticker.Stop()
	}
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// maxReplayLine bounds a JSON-lines record. Longer lines are skipped.
const maxReplayLine = 64 * 1024

// jsonLinesReader yields one sample per line. A read error other than io.EOF
// is returned once, after which the reader reports io.EOF.
func jsonLinesReader(rd io.Reader) func() (centering.Sample, error) {
	br := bufio.NewReaderSize(rd, maxReplayLine)
	line := 0
	done := false
	return func() (centering.Sample, error) {
		for !done {
			b, isPrefix, err := br.ReadLine()
			if err != nil {
				done = true
				if errors.Is(err, io.EOF) {
					break
				}
				return centering.Sample{}, pkgerrors.Wrapf(err, "failed to read replay line %d", line+1)
			}
			line++

			if isPrefix {
				for isPrefix && err == nil {
					_, isPrefix, err = br.ReadLine()
				}
				if err != nil && !errors.Is(err, io.EOF) {
					done = true
				}
				logrus.WithField("line", line).Debugf("skipping replay line longer than %d bytes", maxReplayLine)
				return centering.Sample{}, pkgerrors.Wrapf(ErrSkip, "replay line %d exceeds %d bytes", line, maxReplayLine)
			}

			text := strings.TrimSpace(string(b))
			if text == "" || strings.HasPrefix(text, "#") {
				continue
			}
			s, err := DecodeSample([]byte(text))
			if err != nil {
				logrus.WithField("line", line).Debugf("skipping replay line: %v", err)
			}
			return s, err
		}
		return centering.Sample{}, io.EOF
	}
}

func csvReader(rd io.Reader) (func() (centering.Sample, error), error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read csv header")
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	idx := [3]int{}
	for i, axis := range []string{"x", "y", "z"} {
		c, ok := cols[axis]
		if !ok {
			return nil, pkgerrors.Errorf("csv header %v has no %q column", header, axis)
		}
		idx[i] = c
	}

	done := false
	return func() (centering.Sample, error) {
		if done {
			return centering.Sample{}, io.EOF
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			done = true
			return centering.Sample{}, io.EOF
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return centering.Sample{}, pkgerrors.Wrapf(ErrSkip, "%v", err)
			}
			done = true
			return centering.Sample{}, pkgerrors.Wrapf(err, "failed to read csv record")
		}

		var v [3]float64
		for i, c := range idx {
			if c >= len(record) {
				return centering.Sample{}, pkgerrors.Wrapf(ErrSkip, "record %v is too short", record)
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(record[c]), 64)
			if err != nil {
				return centering.Sample{}, pkgerrors.Wrapf(ErrSkip, "record %v: %v", record, err)
			}
			v[i] = f
		}
		return checkSample(centering.Sample{X: v[0], Y: v[1], Z: v[2]})
	}, nil
}
