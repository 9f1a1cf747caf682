package logsink

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/lixenwraith/config"
)

// Config holds all logger configuration values.
// A logger takes a private copy on New; changing a Config afterwards has no effect on it.
type Config struct {
	// Basic settings
	Enabled         bool   `toml:"enabled"`
	FilePath        string `toml:"file_path"` // Active log file, archives are created beside it
	MinimumLevel    string `toml:"minimum_level"`
	DefaultCategory string `toml:"default_category"`

	// Formatting
	Format               string `toml:"format"` // "txt" or "json"
	TimestampFormat      string `toml:"timestamp_format"`
	IncludeCallerContext bool   `toml:"include_caller_context"`

	// Queue and batching
	BatchSize        int64 `toml:"batch_size"`
	MaxQueueDepth    int64 `toml:"max_queue_depth"`
	EnqueueTimeoutMs int64 `toml:"enqueue_timeout_ms"` // Bounded wait on a full queue before dropping

	// Timers
	FlushIntervalS     int64 `toml:"flush_interval_s"`     // 0 disables the periodic flush
	HeartbeatIntervalS int64 `toml:"heartbeat_interval_s"` // 0 disables heartbeats

	// Rotation and retention
	MaxFileSizeBytes int64 `toml:"max_file_size_bytes"` // 0 disables rotation
	MaxArchiveFiles  int64 `toml:"max_archive_files"`

	// Statistics
	LatencyWindow int64 `toml:"latency_window"` // Number of recent writes in the average latency

	// Lifecycle
	EmitStartupMarker bool `toml:"emit_startup_marker"`
	LockFile          bool `toml:"lock_file"` // Guard the active file against a second process

	// Internal error handling
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"`
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	// Basic settings
	Enabled:         true,
	FilePath:        "./logs/app.log",
	MinimumLevel:    "information",
	DefaultCategory: "app",

	// Formatting
	Format:               "txt",
	TimestampFormat:      "2006-01-02 15:04:05.000",
	IncludeCallerContext: true,

	// Queue and batching
	BatchSize:        500,
	MaxQueueDepth:    10000,
	EnqueueTimeoutMs: 3000,

	// Timers
	FlushIntervalS:     5,
	HeartbeatIntervalS: 0,

	// Rotation and retention
	MaxFileSizeBytes: 100 * sizeMultiplier * sizeMultiplier,
	MaxArchiveFiles:  10,

	// Statistics
	LatencyWindow: 100,

	// Lifecycle
	EmitStartupMarker: true,
	LockFile:          true,

	// Internal error handling
	InternalErrorsToStderr: true,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// NewConfigFromFile loads configuration from a TOML file under the [logsink] table
// and returns a validated Config. A missing file yields the defaults.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Use lixenwraith/config as a loader
	loader := config.New()

	if err := loader.RegisterStruct("logsink.", *cfg); err != nil {
		return nil, fmtErrorf("failed to register config struct: %w", err)
	}

	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %w", path, err)
	}

	if err := extractConfig(loader, "logsink.", cfg); err != nil {
		return nil, fmtErrorf("failed to extract config values: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies overrides keyed by toml name
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmtErrorf("failed to apply overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// extractConfig extracts values from lixenwraith/config into our Config struct
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue // Keep default
		}

		if err := setFieldValue(fieldValue, val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}

	return nil
}

// applyOverrides applies a map of overrides to the Config struct
func applyOverrides(cfg *Config, overrides map[string]any) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	fieldMap := make(map[string]reflect.Value)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag != "" {
			fieldMap[tomlTag] = v.Field(i)
		}
	}

	for key, value := range overrides {
		fieldValue, exists := fieldMap[key]
		if !exists {
			return fmt.Errorf("unknown config key: %s", key)
		}

		if err := setFieldValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	return nil
}

// setFieldValue sets a reflect.Value with proper type conversion
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		case float64: // TOML decoders may hand back floats for bare numbers
			if v != float64(int64(v)) {
				return fmt.Errorf("expected integer, got %v", v)
			}
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	// String validations
	if strings.TrimSpace(c.FilePath) == "" {
		return fmtErrorf("file_path cannot be empty")
	}

	if base := filepath.Base(c.FilePath); base == "." || base == string(filepath.Separator) {
		return fmtErrorf("file_path must name a file: '%s'", c.FilePath)
	}

	if _, err := ParseLevel(c.MinimumLevel); err != nil {
		return err
	}

	if strings.TrimSpace(c.DefaultCategory) == "" {
		return fmtErrorf("default_category cannot be empty")
	}

	if c.Format != "txt" && c.Format != "json" {
		return fmtErrorf("invalid format: '%s' (use txt or json)", c.Format)
	}

	if strings.TrimSpace(c.TimestampFormat) == "" {
		return fmtErrorf("timestamp_format cannot be empty")
	}

	// Numeric validations
	if c.BatchSize <= 0 {
		return fmtErrorf("batch_size must be positive: %d", c.BatchSize)
	}

	if c.MaxQueueDepth <= 0 {
		return fmtErrorf("max_queue_depth must be positive: %d", c.MaxQueueDepth)
	}

	if c.EnqueueTimeoutMs < 0 {
		return fmtErrorf("enqueue_timeout_ms cannot be negative: %d", c.EnqueueTimeoutMs)
	}

	if c.FlushIntervalS < 0 || c.HeartbeatIntervalS < 0 {
		return fmtErrorf("interval settings cannot be negative")
	}

	if c.MaxFileSizeBytes < 0 || c.MaxArchiveFiles < 0 {
		return fmtErrorf("rotation limits cannot be negative")
	}

	if c.LatencyWindow <= 0 {
		return fmtErrorf("latency_window must be positive: %d", c.LatencyWindow)
	}

	return nil
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}

// minimumLevel returns the parsed minimum level, validated beforehand
func (c *Config) minimumLevel() Level {
	level, err := ParseLevel(c.MinimumLevel)
	if err != nil {
		return LevelInfo
	}
	return level
}
