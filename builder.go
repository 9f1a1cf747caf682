package logsink

// Builder provides a fluent API for building logger configurations.
// It wraps a Config instance and provides chainable methods for setting values.
type Builder struct {
	cfg  *Config
	opts []Option
	err  error // Accumulate errors for deferred handling
}

// NewBuilder creates a new configuration builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// NewBuilderFrom starts a builder from a copy of cfg, defaults when cfg is nil.
func NewBuilderFrom(cfg *Config) *Builder {
	if cfg == nil {
		return NewBuilder()
	}
	return &Builder{
		cfg: cfg.Clone(),
	}
}

// Build creates a new, stopped Logger with the specified configuration.
func (b *Builder) Build() (*Logger, error) {
	if b.err != nil {
		return nil, b.err
	}
	return New(b.cfg, b.opts...)
}

// Config returns a copy of the configuration built so far.
func (b *Builder) Config() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.cfg.Clone(), nil
}

// Enabled turns the sink on or off.
func (b *Builder) Enabled(enabled bool) *Builder {
	b.cfg.Enabled = enabled
	return b
}

// FilePath sets the active log file.
func (b *Builder) FilePath(path string) *Builder {
	b.cfg.FilePath = path
	return b
}

// MinimumLevel sets the minimum level.
func (b *Builder) MinimumLevel(level Level) *Builder {
	b.cfg.MinimumLevel = level.String()
	return b
}

// MinimumLevelString sets the minimum level from a string.
func (b *Builder) MinimumLevelString(level string) *Builder {
	if b.err != nil {
		return b
	}
	if _, err := ParseLevel(level); err != nil {
		b.err = err
		return b
	}
	b.cfg.MinimumLevel = level
	return b
}

// DefaultCategory sets the category used by Logger's own methods.
func (b *Builder) DefaultCategory(category string) *Builder {
	b.cfg.DefaultCategory = category
	return b
}

// Format sets the output format.
func (b *Builder) Format(format string) *Builder {
	b.cfg.Format = format
	return b
}

// TimestampFormat sets the layout of record timestamps.
func (b *Builder) TimestampFormat(layout string) *Builder {
	b.cfg.TimestampFormat = layout
	return b
}

// IncludeCallerContext toggles writing caller file, member and line.
func (b *Builder) IncludeCallerContext(include bool) *Builder {
	b.cfg.IncludeCallerContext = include
	return b
}

// BatchSize sets the number of records per write.
func (b *Builder) BatchSize(size int64) *Builder {
	b.cfg.BatchSize = size
	return b
}

// MaxQueueDepth sets the queue capacity.
func (b *Builder) MaxQueueDepth(depth int64) *Builder {
	b.cfg.MaxQueueDepth = depth
	return b
}

// EnqueueTimeoutMs sets the wait on a full queue before a record is dropped.
func (b *Builder) EnqueueTimeoutMs(ms int64) *Builder {
	b.cfg.EnqueueTimeoutMs = ms
	return b
}

// FlushIntervalS sets the periodic flush interval.
func (b *Builder) FlushIntervalS(interval int64) *Builder {
	b.cfg.FlushIntervalS = interval
	return b
}

// HeartbeatIntervalS sets the heartbeat interval, 0 disables heartbeats.
func (b *Builder) HeartbeatIntervalS(interval int64) *Builder {
	b.cfg.HeartbeatIntervalS = interval
	return b
}

// MaxFileSizeBytes sets the rotation threshold.
func (b *Builder) MaxFileSizeBytes(size int64) *Builder {
	b.cfg.MaxFileSizeBytes = size
	return b
}

// MaxFileSizeMB sets the rotation threshold in mebibytes.
func (b *Builder) MaxFileSizeMB(size int64) *Builder {
	b.cfg.MaxFileSizeBytes = size * sizeMultiplier * sizeMultiplier
	return b
}

// MaxArchiveFiles sets how many archives are retained.
func (b *Builder) MaxArchiveFiles(count int64) *Builder {
	b.cfg.MaxArchiveFiles = count
	return b
}

// LatencyWindow sets the number of writes averaged for latency.
func (b *Builder) LatencyWindow(size int64) *Builder {
	b.cfg.LatencyWindow = size
	return b
}

// EmitStartupMarker toggles the record written on Start.
func (b *Builder) EmitStartupMarker(emit bool) *Builder {
	b.cfg.EmitStartupMarker = emit
	return b
}

// LockFile toggles the cross-process guard file.
func (b *Builder) LockFile(lock bool) *Builder {
	b.cfg.LockFile = lock
	return b
}

// InternalErrorsToStderr toggles internal diagnostics.
func (b *Builder) InternalErrorsToStderr(enable bool) *Builder {
	b.cfg.InternalErrorsToStderr = enable
	return b
}

// Options appends constructor options passed to New.
func (b *Builder) Options(opts ...Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

// Overrides applies "key=value" strings on top of the values set so far.
func (b *Builder) Overrides(overrides ...string) *Builder {
	if b.err != nil {
		return b
	}
	var errs []error
	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := applyConfigField(b.cfg, key, value); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		b.err = combineConfigErrors(errs)
	}
	return b
}
