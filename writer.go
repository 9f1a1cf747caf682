package logsink

import (
	"fmt"
	"time"

	"github.com/lixenwraith/logsink/formatter"
)

// writeBatch persists a batch as one append followed by a sync.
// Any failure counts the whole batch as failed; nothing propagates to callers.
func (l *Logger) writeBatch(rs *runtimeState, batch []Record) {
	if len(batch) == 0 {
		return
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	start := time.Now()
	l.stats.writeOps.Add(1)

	if rs.closed {
		// Stop already closed the file and released the lock
		l.stats.recordFailure(len(batch))
		l.internalLog("dropping batch of %d records written after stop\n", len(batch))
		return
	}

	if rs.file == nil {
		// Closed by a failed rotation or a failed write
		if err := l.reopenActiveFile(rs); err != nil {
			l.stats.recordFailure(len(batch))
			l.internalLog("dropping batch of %d records, no active file: %v\n", len(batch), err)
			return
		}
	}

	l.rotateIfNeeded(rs)
	if rs.file == nil {
		l.stats.recordFailure(len(batch))
		l.internalLog("dropping batch of %d records, active file unavailable after rotation\n", len(batch))
		return
	}

	buf := l.buf[:0]
	for i := range batch {
		buf = l.formatter.AppendEntry(buf, l.entryOf(&batch[i]))
	}
	l.buf = buf

	n, err := rs.file.Write(buf)
	rs.size += int64(n)
	l.fileSize.Store(rs.size)
	if err == nil {
		err = rs.file.Sync()
	}
	if err != nil {
		l.stats.recordFailure(len(batch))
		l.internalLog("failed to write batch of %d records to '%s': %v\n", len(batch), rs.file.Name(), err)
		l.echoLostEntries(buf)
		// The next batch reopens the active file
		_ = rs.file.Close()
		rs.file = nil
		return
	}

	l.stats.recordWrite(len(batch), time.Since(start), time.Now())
}

// echoLostEntries copies the serialized batch to the fallback writer, truncated to maxFallbackEcho bytes
func (l *Logger) echoLostEntries(buf []byte) {
	if !l.cfg.InternalErrorsToStderr || len(buf) == 0 {
		return
	}

	truncated := len(buf) > maxFallbackEcho
	if truncated {
		buf = buf[:maxFallbackEcho]
	}

	l.fallbackMu.Lock()
	defer l.fallbackMu.Unlock()
	fmt.Fprintf(l.fallback, "logsink: lost entries:\n%s", buf)
	if buf[len(buf)-1] != '\n' {
		fmt.Fprintln(l.fallback)
	}
	if truncated {
		fmt.Fprintf(l.fallback, "logsink: lost entries truncated at %d bytes\n", maxFallbackEcho)
	}
}

// writeChunked writes records in batches of at most batch_size
func (l *Logger) writeChunked(rs *runtimeState, records []Record) {
	size := int(l.cfg.BatchSize)
	for len(records) > 0 {
		n := min(size, len(records))
		l.writeBatch(rs, records[:n])
		records = records[n:]
	}
}

// entryOf converts a record into its serializable form
func (l *Logger) entryOf(r *Record) formatter.Entry {
	e := formatter.Entry{
		Timestamp:     r.Timestamp,
		Level:         r.Level.String(),
		Category:      r.Category,
		SessionID:     r.SessionID,
		CorrelationID: r.CorrelationID,
		Message:       r.Message,
	}
	if r.Caller != nil && l.cfg.IncludeCallerContext {
		e.Caller = r.Caller.String()
	}
	if r.Error != nil {
		e.Error = &formatter.ErrorBlock{
			Message: r.Error.Message,
			Causes:  r.Error.Causes,
			Stack:   r.Error.Stack,
		}
	}
	return e
}
