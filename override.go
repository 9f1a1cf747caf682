package logsink

import (
	"fmt"
	"strconv"
	"strings"
)

// NewConfigFromStrings builds a validated Config from defaults and "key=value" overrides.
// Keys are the toml names of Config fields.
//
// Example:
//
//	cfg, err := logsink.NewConfigFromStrings(
//	    "file_path=/var/log/app/app.log",
//	    "minimum_level=debug",
//	    "batch_size=100",
//	)
func NewConfigFromStrings(overrides ...string) (*Config, error) {
	cfg := DefaultConfig()

	var errs []error

	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if err := applyConfigField(cfg, key, value); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, combineConfigErrors(errs)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// combineConfigErrors combines multiple configuration errors into a single error.
func combineConfigErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	var sb strings.Builder
	sb.WriteString("logsink: multiple configuration errors:")
	for i, err := range errs {
		errMsg := strings.TrimPrefix(err.Error(), "logsink: ")
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, errMsg))
	}
	return fmt.Errorf("%s", sb.String())
}

// applyConfigField applies a single key-value override to a Config.
func applyConfigField(cfg *Config, key, value string) error {
	switch key {
	// String fields
	case "file_path":
		cfg.FilePath = value
	case "minimum_level":
		if _, err := ParseLevel(value); err != nil {
			return err
		}
		cfg.MinimumLevel = value
	case "default_category":
		cfg.DefaultCategory = value
	case "format":
		cfg.Format = value
	case "timestamp_format":
		cfg.TimestampFormat = value

	// Boolean fields
	case "enabled", "include_caller_context", "emit_startup_marker", "lock_file", "internal_errors_to_stderr":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for %s '%s': %w", key, value, err)
		}
		switch key {
		case "enabled":
			cfg.Enabled = boolVal
		case "include_caller_context":
			cfg.IncludeCallerContext = boolVal
		case "emit_startup_marker":
			cfg.EmitStartupMarker = boolVal
		case "lock_file":
			cfg.LockFile = boolVal
		case "internal_errors_to_stderr":
			cfg.InternalErrorsToStderr = boolVal
		}

	// Integer fields
	case "batch_size", "max_queue_depth", "enqueue_timeout_ms", "flush_interval_s",
		"heartbeat_interval_s", "max_file_size_bytes", "max_archive_files", "latency_window":
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for %s '%s': %w", key, value, err)
		}
		switch key {
		case "batch_size":
			cfg.BatchSize = intVal
		case "max_queue_depth":
			cfg.MaxQueueDepth = intVal
		case "enqueue_timeout_ms":
			cfg.EnqueueTimeoutMs = intVal
		case "flush_interval_s":
			cfg.FlushIntervalS = intVal
		case "heartbeat_interval_s":
			cfg.HeartbeatIntervalS = intVal
		case "max_file_size_bytes":
			cfg.MaxFileSizeBytes = intVal
		case "max_archive_files":
			cfg.MaxArchiveFiles = intVal
		case "latency_window":
			cfg.LatencyWindow = intVal
		}

	default:
		return fmtErrorf("unknown config key: %s", key)
	}

	return nil
}
