package compat

import (
	"fmt"
	"strings"

	"github.com/lixenwraith/logsink"
	"github.com/valyala/fasthttp"
)

// fasthttpCategory is the category stamped on records from fasthttp
const fasthttpCategory = "fasthttp"

var _ fasthttp.Logger = (*FastHTTPAdapter)(nil)

// FastHTTPAdapter implements fasthttp.Logger on top of a logsink.Logger
type FastHTTPAdapter struct {
	logger        *logsink.CategoryLogger
	defaultLevel  logsink.Level
	levelDetector func(string) (logsink.Level, bool)
}

// NewFastHTTPAdapter creates a fasthttp-compatible adapter logging under the "fasthttp" category
func NewFastHTTPAdapter(logger *logsink.Logger, opts ...FastHTTPOption) *FastHTTPAdapter {
	adapter := &FastHTTPAdapter{
		logger:        logger.ForCategory(fasthttpCategory),
		defaultLevel:  logsink.LevelInfo,
		levelDetector: DetectLogLevel,
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FastHTTPOption customizes a FastHTTPAdapter
type FastHTTPOption func(*FastHTTPAdapter)

// WithDefaultLevel sets the level used when no level is detected in the message
func WithDefaultLevel(level logsink.Level) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.defaultLevel = level
	}
}

// WithLevelDetector replaces the message-based level detection, nil disables it
func WithLevelDetector(detector func(string) (logsink.Level, bool)) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.levelDetector = detector
	}
}

// Printf implements fasthttp.Logger
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	level := a.defaultLevel
	if a.levelDetector != nil {
		if detected, ok := a.levelDetector(msg); ok {
			level = detected
		}
	}

	a.logger.Log(level, msg, nil, nil)
}

// DetectLogLevel guesses a level from keywords in msg.
// It reports false when no keyword matches.
func DetectLogLevel(msg string) (logsink.Level, bool) {
	lower := strings.ToLower(msg)

	switch {
	case containsAny(lower, "error", "failed", "fatal", "panic"):
		return logsink.LevelError, true
	case containsAny(lower, "warn", "deprecated"):
		return logsink.LevelWarn, true
	case containsAny(lower, "debug", "trace"):
		return logsink.LevelDebug, true
	}
	return 0, false
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
