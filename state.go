package logsink

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"github.com/agilira/go-timecache"
	"github.com/gofrs/flock"
)

// Status is the lifecycle state of a Logger
type Status int32

// Lifecycle states, in transition order
const (
	StatusStopped Status = iota
	StatusStarting
	StatusRunning
	StatusStopping
)

// String returns the lower-case state name
func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusStarting:
		return "starting"
	case StatusRunning:
		return "running"
	case StatusStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// runtimeState holds the resources of one Start/Stop cycle
type runtimeState struct {
	// Writer section, guarded by Logger.writeMu
	file   *os.File
	size   int64
	closed bool // Set by Stop; later batches are counted as failed instead of reopening

	lock  *flock.Flock // nil when lock_file is off
	queue *queue
	clock *timecache.TimeCache

	cancel context.CancelFunc
	done   chan struct{} // Closed when the processor exits

	flushRequests chan chan struct{} // Explicit flush requests with their confirmation channel
	forceFlush    atomic.Bool        // Set by the flush ticker, consumed by the processor

	heartbeatSeq atomic.Uint64
}

// newRuntimeState allocates the queue, clock and processor channels for a run
func newRuntimeState(cfg *Config) *runtimeState {
	return &runtimeState{
		queue:         newQueue(cfg.MaxQueueDepth, durationMs(cfg.EnqueueTimeoutMs)),
		clock:         timecache.NewWithResolution(clockResolution),
		done:          make(chan struct{}),
		flushRequests: make(chan chan struct{}),
	}
}

// now returns the cached wall clock of the run
func (rs *runtimeState) now() time.Time {
	if rs.clock == nil {
		return time.Now()
	}
	return rs.clock.CachedTime()
}

// release stops the clock and drops the cross-process lock
func (rs *runtimeState) release() error {
	var err error
	if rs.lock != nil {
		if unlockErr := rs.lock.Unlock(); unlockErr != nil {
			err = fmtErrorf("failed to release lock '%s': %w", rs.lock.Path(), unlockErr)
		}
		rs.lock = nil
	}
	if rs.clock != nil {
		rs.clock.Stop()
	}
	return err
}
