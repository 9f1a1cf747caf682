package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/lixenwraith/logsink"
	"github.com/lixenwraith/logsink/compat"
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
)

var serveOpts struct {
	addr        string
	readTimeout time.Duration
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a demo fasthttp host with request logging",
	Long: `Starts a fasthttp server whose requests are logged through logsink.
GET /api/health/logs returns the active log file and GET /api/health/stats
the logger statistics. SIGINT or SIGTERM stops the server and drains the logger.`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveOpts.addr, "addr", ":8080", "listen address")
	f.DurationVar(&serveOpts.readTimeout, "logs-timeout", 2*time.Second, "flush timeout before reading logs back")
	rootCmd.AddCommand(serveCmd)
}

func newRouter(logger *logsink.Logger) fasthttp.RequestHandler {
	logs := compat.LogsHandler(logger, serveOpts.readTimeout)
	stats := compat.StatsHandler(logger)
	app := logger.ForCategory("demo")

	return func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/api/health/logs":
			logs(ctx)
		case "/api/health/stats":
			stats(ctx)
		case "/":
			app.LogContext(compat.RequestContext(ctx), logsink.LevelInfo, "hello from "+ctx.RemoteAddr().String(), nil, nil)
			ctx.SetContentType("text/plain; charset=utf-8")
			fmt.Fprintf(ctx, "logsink session %s\n", logger.SessionID())
		default:
			ctx.Error(fasthttp.StatusMessage(fasthttp.StatusNotFound), fasthttp.StatusNotFound)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := buildLogger()
	if err != nil {
		return err
	}
	if err := logger.Start(); err != nil {
		return err
	}
	defer func() {
		if err := logger.Stop(); err != nil {
			fmt.Printf("logger stop: %v\n", err)
		}
	}()

	server := &fasthttp.Server{
		Handler: compat.RequestLogger(logger, newRouter(logger)),
		Logger:  compat.NewFastHTTPAdapter(logger),
		Name:    "logsink",
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe(serveOpts.addr)
	}()
	logger.Info("serving on " + serveOpts.addr)
	fmt.Printf("Listening on %s, Ctrl+C to stop\n", serveOpts.addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	fmt.Println("Shutting down...")
	return server.ShutdownWithContext(context.Background())
}
