package logsink

import (
	"sync/atomic"
	"time"
)

// Statistics is a point-in-time snapshot of the logger counters
type Statistics struct {
	SessionID          string        `json:"sessionId"`
	StartedAt          time.Time     `json:"startedAt"`
	Written            uint64        `json:"written"`         // Records persisted
	Failed             uint64        `json:"failed"`          // Records dropped on overflow or lost to write failures
	WriteOps           uint64        `json:"writeOps"`        // Non-empty batch writes attempted
	Rotations          uint64        `json:"rotations"`       // Successful rotations, startup rotation included
	ArchivesDeleted    uint64        `json:"archivesDeleted"` // Archives removed by retention
	QueueDepth         int           `json:"queueDepth"`      // Records waiting in the queue
	CurrentFileSize    int64         `json:"currentFileSize"` // Bytes in the active file
	LastWriteTime      time.Time     `json:"lastWriteTime"`   // Zero until the first successful write
	AverageLatency     time.Duration `json:"averageLatency"`  // Mean over the most recent LatencyWindow writes
	LatencySampleCount int           `json:"latencySamples"`  // Samples currently in the window
}

// latencyWindow keeps the last N write durations and their running sum.
// Only the batch writer touches it, inside the write section.
type latencyWindow struct {
	samples []time.Duration
	next    int
	count   int
	sum     time.Duration
}

// newLatencyWindow creates a window of the given capacity
func newLatencyWindow(size int64) *latencyWindow {
	if size <= 0 {
		size = defaultConfig.LatencyWindow
	}
	return &latencyWindow{samples: make([]time.Duration, size)}
}

// add records a sample, evicting the oldest when full, and returns the new mean
func (w *latencyWindow) add(d time.Duration) time.Duration {
	if w.count == len(w.samples) {
		w.sum -= w.samples[w.next]
	} else {
		w.count++
	}
	w.samples[w.next] = d
	w.sum += d
	w.next = (w.next + 1) % len(w.samples)
	return w.sum / time.Duration(w.count)
}

// tracker holds the counters shared between the writer and readers
type tracker struct {
	written         atomic.Uint64
	failed          atomic.Uint64
	writeOps        atomic.Uint64
	rotations       atomic.Uint64
	archivesDeleted atomic.Uint64
	lastWriteNanos  atomic.Int64 // UnixNano of last successful write, 0 if none
	avgLatencyNanos atomic.Int64
	latencySamples  atomic.Int64

	window *latencyWindow // writer-owned
}

// newTracker creates a tracker with the given latency window size
func newTracker(window int64) *tracker {
	return &tracker{window: newLatencyWindow(window)}
}

// recordWrite accounts a successful batch write; called inside the write section
func (t *tracker) recordWrite(records int, elapsed time.Duration, at time.Time) {
	t.written.Add(uint64(records))
	t.lastWriteNanos.Store(at.UnixNano())
	t.observeLatency(elapsed)
}

// recordFailure accounts records that will never reach the file
func (t *tracker) recordFailure(records int) {
	t.failed.Add(uint64(records))
}

// observeLatency pushes a sample and publishes the new mean
func (t *tracker) observeLatency(elapsed time.Duration) {
	avg := t.window.add(elapsed)
	t.avgLatencyNanos.Store(int64(avg))
	t.latencySamples.Store(int64(t.window.count))
}

// snapshot reads every counter without locking
func (t *tracker) snapshot() Statistics {
	s := Statistics{
		Written:            t.written.Load(),
		Failed:             t.failed.Load(),
		WriteOps:           t.writeOps.Load(),
		Rotations:          t.rotations.Load(),
		ArchivesDeleted:    t.archivesDeleted.Load(),
		AverageLatency:     time.Duration(t.avgLatencyNanos.Load()),
		LatencySampleCount: int(t.latencySamples.Load()),
	}
	if ns := t.lastWriteNanos.Load(); ns != 0 {
		s.LastWriteTime = time.Unix(0, ns)
	}
	return s
}
