package compat

import (
	"fmt"
	"os"
	"time"

	"github.com/lixenwraith/logsink"
	"github.com/panjf2000/gnet/v2/pkg/logging"
)

const (
	gnetCategory      = "gnet"
	fatalFlushTimeout = 100 * time.Millisecond
)

var _ logging.Logger = (*GnetAdapter)(nil)

// GnetAdapter implements gnet's logging.Logger on top of a logsink.Logger
type GnetAdapter struct {
	logger       *logsink.CategoryLogger
	flush        func(time.Duration) error
	fatalHandler func(msg string)
}

// NewGnetAdapter creates a gnet-compatible adapter logging under the "gnet" category
func NewGnetAdapter(logger *logsink.Logger, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		logger: logger.ForCategory(gnetCategory),
		flush:  logger.Flush,
		fatalHandler: func(string) {
			os.Exit(1)
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption customizes a GnetAdapter
type GnetOption func(*GnetAdapter)

// WithFatalHandler replaces the process exit performed by Fatalf
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// Debugf logs at debug level
func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.logger.Debug(fmt.Sprintf(format, args...))
}

// Infof logs at info level
func (a *GnetAdapter) Infof(format string, args ...any) {
	a.logger.Info(fmt.Sprintf(format, args...))
}

// Warnf logs at warn level
func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.logger.Warn(fmt.Sprintf(format, args...))
}

// Errorf logs at error level
func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.logger.Error(fmt.Sprintf(format, args...), nil)
}

// Fatalf logs at critical level, flushes, then calls the fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.logger.Critical(msg, nil)

	_ = a.flush(fatalFlushTimeout)

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}
