package logsink

import (
	"context"
	"iter"
	"sync"
	"time"
)

// queue is the bounded multi-producer, single-consumer hand-off between callers and the processor.
// A full queue makes producers wait up to the enqueue timeout, then the record is dropped.
type queue struct {
	ch chan Record

	// closeMu is held shared by every enqueue and exclusively by close,
	// so close waits for in-flight enqueues and no send ever races the channel close
	closeMu sync.RWMutex
	closed  bool

	wait time.Duration
}

// newQueue creates a queue holding at most depth records
func newQueue(depth int64, wait time.Duration) *queue {
	return &queue{
		ch:   make(chan Record, depth),
		wait: wait,
	}
}

// enqueue inserts a record, waiting at most q.wait when the queue is full.
// Returns ErrQueueFull on timeout and ErrQueueClosed after close.
func (q *queue) enqueue(r Record) error {
	q.closeMu.RLock()
	defer q.closeMu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	// Fast path
	select {
	case q.ch <- r:
		return nil
	default:
	}

	if q.wait <= 0 {
		return ErrQueueFull
	}

	timer := time.NewTimer(q.wait)
	defer timer.Stop()

	select {
	case q.ch <- r:
		return nil
	case <-timer.C:
		return ErrQueueFull
	}
}

// recv exposes the receive side for the processor's select
func (q *queue) recv() <-chan Record {
	return q.ch
}

// all yields records until the queue is closed and drained or ctx is done.
// Each call starts a fresh sequence over whatever is queued at that time.
func (q *queue) all(ctx context.Context) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			case r, ok := <-q.ch:
				if !ok {
					return
				}
				if !yield(r) {
					return
				}
			}
		}
	}
}

// drainAvailable removes the records queued at call time without waiting for new arrivals
func (q *queue) drainAvailable(dst []Record) []Record {
	n := len(q.ch)
	for i := 0; i < n; i++ {
		select {
		case r, ok := <-q.ch:
			if !ok {
				return dst
			}
			dst = append(dst, r)
		default:
			return dst
		}
	}
	return dst
}

// close rejects further enqueues and closes the channel once in-flight enqueues returned.
// Records already queued stay readable. Safe to call more than once.
func (q *queue) close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

// len reports the current depth
func (q *queue) len() int {
	return len(q.ch)
}
