package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/lixenwraith/logsink"
	"github.com/lixenwraith/logsink/compat"
	"github.com/panjf2000/gnet/v2"
	"github.com/spf13/cobra"
)

var echoOpts struct {
	addr      string
	multicore bool
}

var echoCmd = &cobra.Command{
	Use:   "echo",
	Short: "Run a gnet echo server logging through logsink",
	Long: `Starts a gnet TCP echo server. gnet's own diagnostics go through the
gnet adapter and every connection is logged under the "conn" category.`,
	RunE: runEcho,
}

func init() {
	f := echoCmd.Flags()
	f.StringVar(&echoOpts.addr, "addr", "tcp://127.0.0.1:9000", "gnet protocol address")
	f.BoolVar(&echoOpts.multicore, "multicore", true, "one event loop per CPU")
	rootCmd.AddCommand(echoCmd)
}

type echoServer struct {
	gnet.BuiltinEventEngine

	log    *logsink.CategoryLogger
	engine atomic.Pointer[gnet.Engine]
}

func (es *echoServer) OnBoot(eng gnet.Engine) gnet.Action {
	es.engine.Store(&eng)
	return gnet.None
}

func (es *echoServer) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	es.log.Debug("open " + c.RemoteAddr().String())
	return nil, gnet.None
}

func (es *echoServer) OnClose(c gnet.Conn, err error) gnet.Action {
	if err != nil {
		es.log.Warn(fmt.Sprintf("close %s: %v", c.RemoteAddr(), err))
		return gnet.None
	}
	es.log.Debug("close " + c.RemoteAddr().String())
	return gnet.None
}

func (es *echoServer) OnTraffic(c gnet.Conn) gnet.Action {
	buf, err := c.Next(-1)
	if err != nil {
		es.log.Error("read from "+c.RemoteAddr().String(), err)
		return gnet.Close
	}
	if _, err := c.Write(buf); err != nil {
		es.log.Error("write to "+c.RemoteAddr().String(), err)
		return gnet.Close
	}
	return gnet.None
}

func runEcho(cmd *cobra.Command, args []string) error {
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

	server := &echoServer{log: logger.ForCategory("conn")}
	adapter := compat.NewGnetAdapter(logger, compat.WithFatalHandler(func(msg string) {
		fmt.Printf("gnet fatal: %s\n", msg)
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		if eng := server.engine.Load(); eng != nil {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = eng.Stop(stopCtx)
		}
	}()

	fmt.Printf("Echo server on %s, Ctrl+C to stop\n", echoOpts.addr)
	return gnet.Run(server, echoOpts.addr,
		gnet.WithMulticore(echoOpts.multicore),
		gnet.WithLogger(adapter),
	)
}
