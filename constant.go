package logsink

import (
	"time"
)

// Level is the severity of a record. Levels are ordered, Trace being the lowest.
type Level int64

// Log level constants
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
)

// Category used for records the sink emits about itself
const internalCategory = "logsink"

// Storage
const (
	// UTC layout inserted between base name and extension of archives
	archiveTimeLayout = "20060102_150405"
	// Suffix of the cross-process guard file placed next to the active file
	lockFileSuffix = ".lock"
	// Size multiplier for KiB, MiB
	sizeMultiplier = 1024
	// Upper bound of a failed batch echoed to the fallback writer
	maxFallbackEcho = 64 * sizeMultiplier
)

// Timers
const (
	// Minimum wait time used throughout the package
	minWaitTime = 10 * time.Millisecond
	// Default wait for Stop when no timeout is given
	defaultStopTimeout = 5 * time.Second
	// Resolution of the cached clock stamping records
	clockResolution = time.Millisecond
)

// Read-back result messages
const (
	// MessageLogsNotFound is returned in LogsResult.Message when the active file does not exist yet
	MessageLogsNotFound = "log file not found"
	// MessageLogsRetrieved is returned in LogsResult.Message on a successful read
	MessageLogsRetrieved = "logs retrieved"
)
