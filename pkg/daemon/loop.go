package daemon

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rcpd/gridlevel/pkg/centering"
	"github.com/rcpd/gridlevel/pkg/sensor"
)

var (
	sampleInterval = 100 * time.Millisecond
	// sampleGapTolerance is how late a sample may be and still count as continuous.
	sampleGapTolerance = time.Second
	sampleRecorder     = NewTimeSeriesRecorder(600)
	recentSampleWindow = 10 * time.Second
	watchdogInterval   = 30 * time.Second
)

// TimeSeriesRecorder records the last N sample times.
type TimeSeriesRecorder struct {
	MaxRecordCount  int
	LastSampleTimes []time.Time
	mu              *sync.Mutex
}

// NewTimeSeriesRecorder returns a new TimeSeriesRecorder.
func NewTimeSeriesRecorder(maxRecordCount int) *TimeSeriesRecorder {
	return &TimeSeriesRecorder{
		MaxRecordCount:  maxRecordCount,
		LastSampleTimes: make([]time.Time, 0),
		mu:              &sync.Mutex{},
	}
}

// AddRecordNow adds a new record with the current time.
func (r *TimeSeriesRecorder) AddRecordNow() {
	r.AddRecord(time.Now())
}

// AddRecord adds a new record.
func (r *TimeSeriesRecorder) AddRecord(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Strip monotonic clock reading.
	t = t.Round(0)

	if len(r.LastSampleTimes) >= r.MaxRecordCount {
		r.LastSampleTimes = r.LastSampleTimes[1:]
	}
	r.LastSampleTimes = append(r.LastSampleTimes, t)
}

// ClearRecords clears all records.
func (r *TimeSeriesRecorder) ClearRecords() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.LastSampleTimes = make([]time.Time, 0)
}

// GetRecordsIn returns the number of continuous records in the last duration.
func (r *TimeSeriesRecorder) GetRecordsIn(last time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	gap := sampleInterval + sampleGapTolerance

	// The last record must be within the last duration.
	if len(r.LastSampleTimes) > 0 && time.Since(r.LastSampleTimes[len(r.LastSampleTimes)-1]) >= gap {
		return 0
	}

	// Find continuous records from the end of the list.
	count := 0
	for i := len(r.LastSampleTimes) - 1; i >= 0; i-- {
		record := r.LastSampleTimes[i]
		if time.Since(record) > last {
			break
		}

		theRecordAfter := record
		if i+1 < len(r.LastSampleTimes) {
			theRecordAfter = r.LastSampleTimes[i+1]
		}

		if theRecordAfter.Sub(record) >= gap {
			break
		}
		count++
	}

	return count
}

// GetLastRecord returns the last record.
func (r *TimeSeriesRecorder) GetLastRecord() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.LastSampleTimes) == 0 {
		return time.Time{}
	}

	return r.LastSampleTimes[len(r.LastSampleTimes)-1]
}

// sampleLoop feeds samples from src into the tracker until ctx is done or a
// finite source runs out.
func sampleLoop(ctx context.Context, src sensor.Source) {
	for {
		s, err := src.Next(ctx)
		switch {
		case err == nil:
			trk.process(ctx, s)
		case errors.Is(err, sensor.ErrSkip):
			trk.skip(err)
		case errors.Is(err, io.EOF):
			logrus.Info("sample source exhausted, sampling loop stopped")
			return
		case ctx.Err() != nil:
			return
		default:
			logrus.Errorf("failed to read sample: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(sampleInterval):
			}
		}
	}
}

// watchSampleRate warns when a background source stops delivering samples at
// roughly the configured rate.
func watchSampleRate(ctx context.Context) {
	ticker := time.NewTicker(watchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkSampleRate()
		}
	}
}

func checkSampleRate() bool {
	count := sampleRecorder.GetRecordsIn(recentSampleWindow)
	expected := int(recentSampleWindow / sampleInterval)
	if count < expected/2 {
		logrus.WithFields(logrus.Fields{
			"recentSamples":   count,
			"expectedSamples": expected,
			"lastSample":      sampleRecorder.GetLastRecord().Format(time.RFC3339),
		}).Warn("Sample rate is below expected, is the sensor still delivering?")
		return false
	}
	return true
}

var lastPrintTime time.Time

type loopStatus struct {
	status    centering.Status
	displayed centering.Status
	flat      bool
	adaptive  bool
}

var (
	lastStatus   loopStatus
	lastStatusMu sync.Mutex
)

// printStatus logs at debug level only when something worth seeing changed.
func printStatus(res centering.Result, st centering.OverlayState, adaptive bool) {
	lastStatusMu.Lock()
	defer lastStatusMu.Unlock()

	currentStatus := loopStatus{
		status:    res.Status,
		displayed: st.Displayed,
		flat:      st.Flat,
		adaptive:  adaptive,
	}

	fields := logrus.Fields{
		"status":          res.Status,
		"displayed":       st.Displayed,
		"rotationDegrees": math.Round(res.Rotation*180/math.Pi*10) / 10,
		"z":               res.Z,
		"alpha":           st.Alpha,
		"adaptive":        adaptive,
	}

	defer func() { lastPrintTime = time.Now() }()

	// Skip printing if the last print was recent and nothing changed.
	if time.Since(lastPrintTime) < sampleInterval+time.Second && lastStatus == currentStatus {
		logrus.WithFields(fields).Trace("sample status")
		return
	}

	logrus.WithFields(fields).Debug("sample status")

	lastStatus = currentStatus
}
