package logsink

import (
	"context"
)

// processRecords is the single consumer loop running in its own goroutine.
// It owns the batch; the flush ticker only raises a flag that is checked at the end of each iteration.
func (l *Logger) processRecords(ctx context.Context, rs *runtimeState) {
	defer close(rs.done)

	timers := l.setupProcessingTimers()
	defer l.closeProcessingTimers(timers)

	batchSize := int(l.cfg.BatchSize)
	batch := make([]Record, 0, batchSize)

	// --- Main Loop ---
	for {
		select {
		case <-ctx.Done():
			// Stop closes the queue before cancelling, so the sequence ends once drained
			for r := range rs.queue.all(context.Background()) {
				batch = append(batch, r)
				if len(batch) >= batchSize {
					l.writeBatch(rs, batch)
					batch = batch[:0]
				}
			}
			l.writeBatch(rs, batch)
			return

		case r, ok := <-rs.queue.recv():
			if !ok {
				// Queue closed and drained
				l.writeBatch(rs, batch)
				return
			}
			batch = append(batch, r)
			if len(batch) >= batchSize {
				l.writeBatch(rs, batch)
				batch = batch[:0]
			}

		case <-timers.flushChan:
			rs.forceFlush.Store(true)

		case confirmChan := <-rs.flushRequests:
			l.handleFlushRequest(rs, batch, confirmChan)
			batch = batch[:0]

		case <-timers.heartbeatChan:
			batch = append(batch, l.heartbeatRecord(rs))
			rs.forceFlush.Store(true)
		}

		if rs.forceFlush.Swap(false) && len(batch) > 0 {
			l.writeBatch(rs, batch)
			batch = batch[:0]
		}
	}
}

// handleFlushRequest writes the pending batch plus everything queued at request time,
// then signals completion back to the Flush caller
func (l *Logger) handleFlushRequest(rs *runtimeState, batch []Record, confirmChan chan struct{}) {
	batch = rs.queue.drainAvailable(batch)
	l.writeChunked(rs, batch)
	close(confirmChan)
}
