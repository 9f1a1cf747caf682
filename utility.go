package logsink

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors returned by the exported API
var (
	ErrNotRunning     = errors.New("logsink: logger is not running")
	ErrAlreadyRunning = errors.New("logsink: logger is already running")
	ErrQueueFull      = errors.New("logsink: queue full, record dropped")
	ErrQueueClosed    = errors.New("logsink: queue closed")
	ErrLocked         = errors.New("logsink: active log file is locked by another process")
)

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "logsink: ") {
		format = "logsink: " + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors helper
func combineErrors(err1, err2 error) error {
	if err1 == nil {
		return err2
	}
	if err2 == nil {
		return err1
	}
	return fmt.Errorf("%v; %w", err1, err2)
}

// durationMs converts a millisecond setting
func durationMs(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// durationS converts a second setting
func durationS(s int64) time.Duration {
	return time.Duration(s) * time.Second
}

// parseKeyValue splits a "key=value" string.
func parseKeyValue(arg string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(arg), "=", 2)
	if len(parts) != 2 {
		return "", "", fmtErrorf("invalid format in override string '%s', expected key=value", arg)
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmtErrorf("key cannot be empty in override string '%s'", arg)
	}
	return key, value, nil
}

// ParseLevel converts a level name to its Level.
// Both short (info, warn) and long (information, warning) names are accepted.
func ParseLevel(levelStr string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info", "information":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "critical", "fatal":
		return LevelCritical, nil
	default:
		return 0, fmtErrorf("invalid level string: '%s' (use trace, debug, information, warning, error, critical)", levelStr)
	}
}

// String returns the upper-case name written in log headers
func (lv Level) String() string {
	switch lv {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFORMATION"
	case LevelWarn:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("LEVEL(%d)", int64(lv))
	}
}
