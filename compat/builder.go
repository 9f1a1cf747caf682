package compat

import (
	"fmt"

	"github.com/lixenwraith/logsink"
)

// Builder creates gnet and fasthttp adapters sharing one logsink.Logger.
// It uses an existing logger or creates and starts one from a Config.
type Builder struct {
	logger *logsink.Logger
	cfg    *logsink.Config
	opts   []logsink.Option
	err    error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithLogger uses an existing logger; WithConfig is then ignored.
// The caller owns its lifecycle.
func (b *Builder) WithLogger(l *logsink.Logger) *Builder {
	if l == nil {
		b.err = fmt.Errorf("logsink/compat: provided logger cannot be nil")
		return b
	}
	b.logger = l
	return b
}

// WithConfig sets the configuration for a logger created by the builder.
// Without it the defaults are used.
func (b *Builder) WithConfig(cfg *logsink.Config, opts ...logsink.Option) *Builder {
	b.cfg = cfg
	b.opts = opts
	return b
}

// getLogger resolves the shared logger, creating and starting it on first use
func (b *Builder) getLogger() (*logsink.Logger, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.logger != nil {
		return b.logger, nil
	}

	l, err := logsink.New(b.cfg, b.opts...)
	if err != nil {
		return nil, err
	}
	if err := l.Start(); err != nil {
		return nil, err
	}

	b.logger = l
	return l, nil
}

// BuildGnet creates a gnet adapter
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(l, opts...), nil
}

// BuildFastHTTP creates a fasthttp adapter
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(l, opts...), nil
}

// GetLogger returns the shared logger, creating it if needed
func (b *Builder) GetLogger() (*logsink.Logger, error) {
	return b.getLogger()
}

// --- Example Usage ---
//
//	appLogger, err := logsink.NewBuilder().
//		FilePath("/var/log/svc/app.log").
//		MinimumLevel(logsink.LevelDebug).
//		Build()
//	if err != nil { /* handle error */ }
//	if err := appLogger.Start(); err != nil { /* handle error */ }
//	defer appLogger.Stop()
//
//	builder := compat.NewBuilder().WithLogger(appLogger)
//
//	gnetLogger, _ := builder.BuildGnet()
//	go gnet.Run(events, "tcp://:9000", gnet.WithLogger(gnetLogger))
//
//	fasthttpLogger, _ := builder.BuildFastHTTP()
//	server := &fasthttp.Server{
//		Handler: compat.RequestLogger(appLogger, handler),
//		Logger:  fasthttpLogger,
//	}
//	go server.ListenAndServe(":8080")
