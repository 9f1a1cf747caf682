package logsink

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/logsink/formatter"
	"github.com/lixenwraith/logsink/sanitizer"
	"github.com/nats-io/nuid"
)

// Logger is an asynchronous, batched file sink.
// Any number of goroutines may log concurrently; a single processor goroutine owns batching and writes.
type Logger struct {
	cfg       *Config // Private clone, never mutated after New
	minLevel  Level
	sessionID string

	fallbackMu sync.Mutex
	fallback   io.Writer

	lifecycleMu sync.Mutex // Serializes Start and Stop
	status      atomic.Int32
	run         atomic.Pointer[runtimeState]
	startedAt   atomic.Int64 // UnixNano of the last successful Start

	// Writer section: file handle, size, formatter and buffer
	writeMu   sync.Mutex
	formatter *formatter.Formatter
	buf       []byte

	fileSize atomic.Int64 // Published copy of the active file size
	stats    *tracker
}

// Option customizes a Logger at construction
type Option func(*Logger)

// WithFallbackWriter redirects internal diagnostics, os.Stderr by default
func WithFallbackWriter(w io.Writer) Option {
	return func(l *Logger) {
		if w != nil {
			l.fallback = w
		}
	}
}

// New creates a stopped Logger from a validated copy of cfg.
// A nil cfg uses the defaults.
func New(cfg *Config, opts ...Option) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmtErrorf("invalid configuration: %w", err)
	}
	cfg = cfg.Clone()

	policy := sanitizer.PolicyTxt
	if cfg.Format == "json" {
		policy = sanitizer.PolicyJSON
	}
	f := formatter.New(sanitizer.New().Policy(policy)).
		Type(cfg.Format).
		TimestampFormat(cfg.TimestampFormat)

	l := &Logger{
		cfg:       cfg,
		minLevel:  cfg.minimumLevel(),
		sessionID: nuid.Next(),
		fallback:  os.Stderr,
		formatter: f,
		buf:       make([]byte, 0, 64*sizeMultiplier),
		stats:     newTracker(cfg.LatencyWindow),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Config returns a copy of the configuration in use
func (l *Logger) Config() *Config {
	return l.cfg.Clone()
}

// SessionID returns the identifier stamped on every record of this logger
func (l *Logger) SessionID() string {
	return l.sessionID
}

// Status returns the current lifecycle state
func (l *Logger) Status() Status {
	return Status(l.status.Load())
}

// Start acquires the file lock, rotates a leftover active file, opens the file
// and launches the processor. A disabled logger starts without touching the file system.
func (l *Logger) Start() error {
	l.lifecycleMu.Lock()
	defer l.lifecycleMu.Unlock()

	if l.Status() != StatusStopped {
		return ErrAlreadyRunning
	}
	l.status.Store(int32(StatusStarting))

	if !l.cfg.Enabled {
		l.startedAt.Store(time.Now().UnixNano())
		l.status.Store(int32(StatusRunning))
		return nil
	}

	rs, err := l.openRuntime()
	if err != nil {
		l.status.Store(int32(StatusStopped))
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	rs.cancel = cancel

	l.startedAt.Store(rs.now().UnixNano())
	l.run.Store(rs)
	go l.processRecords(ctx, rs)
	l.status.Store(int32(StatusRunning))

	if l.cfg.EmitStartupMarker {
		marker := fmt.Sprintf("logger started session=%s file=%s batch_size=%d max_queue_depth=%d",
			l.sessionID, l.cfg.FilePath, l.cfg.BatchSize, l.cfg.MaxQueueDepth)
		l.submit(rs, l.newRecord(context.Background(), rs, internalCategory, LevelInfo, marker, nil, nil))
	}

	return nil
}

// openRuntime prepares the resources of a run; everything acquired is released on error
func (l *Logger) openRuntime() (*runtimeState, error) {
	rs := newRuntimeState(l.cfg)

	fail := func(err error) (*runtimeState, error) {
		if releaseErr := rs.release(); releaseErr != nil {
			l.internalLog("%v\n", releaseErr)
		}
		return nil, err
	}

	if l.cfg.LockFile {
		lock, err := acquireLock(l.cfg.FilePath)
		if err != nil {
			return fail(err)
		}
		rs.lock = lock
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if err := l.rotateOnStartup(rs); err != nil {
		// Keep going with whatever file is active
		l.internalLog("startup rotation failed: %v\n", err)
	}

	if rs.file == nil {
		if err := l.reopenActiveFile(rs); err != nil {
			return fail(err)
		}
	}

	return rs, nil
}

// Stop closes the queue, lets the processor drain and write everything already queued,
// then closes the file and releases the lock. The timeout bounds the wait for the processor;
// records left behind are written by a final drain. Stopping a stopped logger is a no-op.
func (l *Logger) Stop(timeout ...time.Duration) error {
	l.lifecycleMu.Lock()
	defer l.lifecycleMu.Unlock()

	if l.Status() != StatusRunning {
		return nil
	}
	l.status.Store(int32(StatusStopping))
	defer l.status.Store(int32(StatusStopped))

	rs := l.run.Load()
	if rs == nil {
		// Disabled logger
		return nil
	}

	effectiveTimeout := defaultStopTimeout
	if len(timeout) > 0 && timeout[0] > 0 {
		effectiveTimeout = timeout[0]
	}

	// Waits for in-flight enqueues, later ones are discarded
	rs.queue.close()
	rs.cancel()

	var finalErr error
	timer := time.NewTimer(effectiveTimeout)
	select {
	case <-rs.done:
		timer.Stop()
	case <-timer.C:
		finalErr = fmtErrorf("processor did not exit within timeout (%v)", effectiveTimeout)
	}

	// Residual records the processor did not reach
	l.writeChunked(rs, rs.queue.drainAvailable(nil))

	l.writeMu.Lock()
	if rs.file != nil {
		if err := rs.file.Sync(); err != nil {
			finalErr = combineErrors(finalErr, fmtErrorf("failed to sync log file '%s' during stop: %w", rs.file.Name(), err))
		}
		if err := rs.file.Close(); err != nil {
			finalErr = combineErrors(finalErr, fmtErrorf("failed to close log file '%s' during stop: %w", rs.file.Name(), err))
		}
		rs.file = nil
	}
	rs.closed = true
	l.writeMu.Unlock()

	if err := rs.release(); err != nil {
		finalErr = combineErrors(finalErr, err)
	}
	l.run.Store(nil)

	return finalErr
}

// Flush writes everything queued at call time and waits until it is synced to disk
func (l *Logger) Flush(timeout time.Duration) error {
	if l.Status() != StatusRunning {
		return ErrNotRunning
	}
	rs := l.run.Load()
	if rs == nil {
		// Disabled logger, nothing is ever queued
		return nil
	}

	// Create a channel to wait for confirmation from the processor
	confirmChan := make(chan struct{})

	timer := time.NewTimer(max(timeout, minWaitTime))
	defer timer.Stop()

	// Send the request with the confirmation channel
	select {
	case rs.flushRequests <- confirmChan:
		// Request sent
	case <-rs.done:
		return ErrNotRunning
	case <-timer.C:
		return fmtErrorf("failed to send flush request to processor within %v", timeout)
	}

	select {
	case <-confirmChan:
		return nil
	case <-timer.C:
		return fmtErrorf("timeout waiting for flush confirmation (%v)", timeout)
	}
}

// Statistics returns a snapshot of the counters
func (l *Logger) Statistics() Statistics {
	s := l.stats.snapshot()
	s.SessionID = l.sessionID
	s.CurrentFileSize = l.fileSize.Load()
	if ns := l.startedAt.Load(); ns != 0 {
		s.StartedAt = time.Unix(0, ns)
	}
	if rs := l.run.Load(); rs != nil {
		s.QueueDepth = rs.queue.len()
	}
	return s
}

// Log submits a record in the default category. It never blocks beyond the enqueue timeout
// and never reports an error: drops are reflected in Statistics.
func (l *Logger) Log(level Level, message string, err error, caller *Caller) {
	l.log(context.Background(), l.cfg.DefaultCategory, level, message, err, caller)
}

// LogContext is Log with the correlation id taken from ctx
func (l *Logger) LogContext(ctx context.Context, level Level, message string, err error, caller *Caller) {
	l.log(ctx, l.cfg.DefaultCategory, level, message, err, caller)
}

// Trace logs a message at trace level
func (l *Logger) Trace(message string) {
	l.log(context.Background(), l.cfg.DefaultCategory, LevelTrace, message, nil, nil)
}

// Debug logs a message at debug level
func (l *Logger) Debug(message string) {
	l.log(context.Background(), l.cfg.DefaultCategory, LevelDebug, message, nil, nil)
}

// Info logs a message at info level
func (l *Logger) Info(message string) {
	l.log(context.Background(), l.cfg.DefaultCategory, LevelInfo, message, nil, nil)
}

// Warn logs a message at warning level
func (l *Logger) Warn(message string) {
	l.log(context.Background(), l.cfg.DefaultCategory, LevelWarn, message, nil, nil)
}

// Error logs a message and an optional error at error level
func (l *Logger) Error(message string, err error) {
	l.log(context.Background(), l.cfg.DefaultCategory, LevelError, message, err, nil)
}

// Critical logs a message and an optional error at critical level
func (l *Logger) Critical(message string, err error) {
	l.log(context.Background(), l.cfg.DefaultCategory, LevelCritical, message, err, nil)
}

// log filters, builds and enqueues a record
func (l *Logger) log(ctx context.Context, category string, level Level, message string, err error, caller *Caller) {
	if !l.cfg.Enabled || level < l.minLevel {
		return
	}

	rs := l.run.Load()
	if rs == nil {
		// Not started or already stopped
		return
	}

	l.submit(rs, l.newRecord(ctx, rs, category, level, message, err, caller))
}

// submit enqueues a record, counting it as failed when the queue stays full
func (l *Logger) submit(rs *runtimeState, r Record) {
	switch err := rs.queue.enqueue(r); err {
	case nil, ErrQueueClosed:
		// Records arriving after close are discarded without counting
	case ErrQueueFull:
		l.stats.recordFailure(1)
	default:
		l.stats.recordFailure(1)
		l.internalLog("failed to enqueue record: %v\n", err)
	}
}

// newRecord stamps a record with the cached clock and session id
func (l *Logger) newRecord(ctx context.Context, rs *runtimeState, category string, level Level, message string, err error, caller *Caller) Record {
	r := Record{
		Timestamp:     rs.now(),
		Level:         level,
		Category:      category,
		Message:       message,
		SessionID:     l.sessionID,
		CorrelationID: CorrelationIDFromContext(ctx),
		Error:         NewErrorDetail(err),
	}
	if caller != nil && l.cfg.IncludeCallerContext {
		c := *caller
		r.Caller = &c
	}
	return r
}

// internalLog writes the sink's own diagnostics to the fallback writer
func (l *Logger) internalLog(format string, args ...any) {
	// Check if internal error reporting is enabled
	if !l.cfg.InternalErrorsToStderr {
		return
	}

	// Ensure consistent "logsink: " prefix
	if !strings.HasPrefix(format, "logsink: ") {
		format = "logsink: " + format
	}

	l.fallbackMu.Lock()
	defer l.fallbackMu.Unlock()
	fmt.Fprintf(l.fallback, format, args...)
}
