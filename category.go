package logsink

import "context"

// correlationIDKey is the context key for request correlation ids
type correlationIDKey struct{}

// WithCorrelationID returns a context carrying id, written as the record's trace id
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromContext returns the correlation id carried by ctx, or ""
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// CategoryLogger is a view of a Logger that stamps a fixed category
type CategoryLogger struct {
	l        *Logger
	category string
}

// ForCategory returns a view logging under name; an empty name uses the default category
func (l *Logger) ForCategory(name string) *CategoryLogger {
	if name == "" {
		name = l.cfg.DefaultCategory
	}
	return &CategoryLogger{l: l, category: name}
}

// Category returns the category stamped by this view
func (c *CategoryLogger) Category() string {
	return c.category
}

// Log submits a record in the view's category
func (c *CategoryLogger) Log(level Level, message string, err error, caller *Caller) {
	c.l.log(context.Background(), c.category, level, message, err, caller)
}

// LogContext is Log with the correlation id taken from ctx
func (c *CategoryLogger) LogContext(ctx context.Context, level Level, message string, err error, caller *Caller) {
	c.l.log(ctx, c.category, level, message, err, caller)
}

// Trace logs a message at trace level
func (c *CategoryLogger) Trace(message string) {
	c.l.log(context.Background(), c.category, LevelTrace, message, nil, nil)
}

// Debug logs a message at debug level
func (c *CategoryLogger) Debug(message string) {
	c.l.log(context.Background(), c.category, LevelDebug, message, nil, nil)
}

// Info logs a message at info level
func (c *CategoryLogger) Info(message string) {
	c.l.log(context.Background(), c.category, LevelInfo, message, nil, nil)
}

// Warn logs a message at warning level
func (c *CategoryLogger) Warn(message string) {
	c.l.log(context.Background(), c.category, LevelWarn, message, nil, nil)
}

// Error logs a message and an optional error at error level
func (c *CategoryLogger) Error(message string, err error) {
	c.l.log(context.Background(), c.category, LevelError, message, err, nil)
}

// Critical logs a message and an optional error at critical level
func (c *CategoryLogger) Critical(message string, err error) {
	c.l.log(context.Background(), c.category, LevelCritical, message, err, nil)
}
