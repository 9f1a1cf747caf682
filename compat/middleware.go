package compat

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/lixenwraith/logsink"
	"github.com/nats-io/nuid"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
)

const (
	// RequestIDHeader carries the correlation id in and out of a request
	RequestIDHeader = "X-Request-ID"

	correlationUserKey = "logsink.correlation_id"
	httpCategory       = "http"
)

// RequestContext returns a context carrying the correlation id assigned by RequestLogger
func RequestContext(ctx *fasthttp.RequestCtx) context.Context {
	id, _ := ctx.UserValue(correlationUserKey).(string)
	if id == "" {
		return context.Background()
	}
	return logsink.WithCorrelationID(context.Background(), id)
}

// RequestLogger wraps next with request and response lines at trace level under the "http" category.
// The correlation id is taken from the X-Request-ID header or generated, and echoed in the response.
// Panics in next are logged at error level and answered with 500.
func RequestLogger(logger *logsink.Logger, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	cl := logger.ForCategory(httpCategory)

	return func(ctx *fasthttp.RequestCtx) {
		id := string(ctx.Request.Header.Peek(RequestIDHeader))
		if id == "" {
			id = nuid.Next()
		}
		ctx.SetUserValue(correlationUserKey, id)
		ctx.Response.Header.Set(RequestIDHeader, id)
		reqCtx := logsink.WithCorrelationID(context.Background(), id)

		cl.LogContext(reqCtx, logsink.LevelTrace, "request "+string(ctx.Method())+" "+string(ctx.RequestURI()), nil, nil)

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				cl.LogContext(reqCtx, logsink.LevelError, "panic serving "+string(ctx.Method())+" "+string(ctx.RequestURI()),
					errors.Errorf("panic: %v", r), panicCaller())
				ctx.ResetBody()
				ctx.Error(fasthttp.StatusMessage(fasthttp.StatusInternalServerError), fasthttp.StatusInternalServerError)
				return
			}
			cl.LogContext(reqCtx, logsink.LevelTrace, responseLine(ctx, time.Since(start)), nil, nil)
		}()

		next(ctx)
	}
}

func responseLine(ctx *fasthttp.RequestCtx, elapsed time.Duration) string {
	var b strings.Builder
	b.WriteString("response ")
	b.Write(ctx.Method())
	b.WriteByte(' ')
	b.Write(ctx.RequestURI())
	b.WriteString(" status=")
	b.WriteString(strconv.Itoa(ctx.Response.StatusCode()))
	b.WriteString(" elapsed=")
	b.WriteString(elapsed.String())
	return b.String()
}

// panicCaller finds the first frame outside the runtime, the function that panicked.
// Only the recovery path walks the stack; the core takes Caller from its callers as given.
func panicCaller() *logsink.Caller {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if !strings.HasPrefix(f.Function, "runtime.") {
			member := f.Function[strings.LastIndexByte(f.Function, '/')+1:]
			if i := strings.IndexByte(member, '.'); i >= 0 {
				member = member[i+1:]
			}
			return &logsink.Caller{File: f.File, Member: member, Line: f.Line}
		}
		if !more {
			return nil
		}
	}
}

// LogsHandler serves the active log file as JSON, flushing pending records first
func LogsHandler(logger *logsink.Logger, timeout time.Duration) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		result := logger.ReadLogs(timeout)
		status := fasthttp.StatusOK
		if !result.Success {
			status = fasthttp.StatusInternalServerError
			if result.Message == logsink.MessageLogsNotFound {
				status = fasthttp.StatusNotFound
			}
		}
		writeJSON(ctx, status, result)
	}
}

// StatsHandler serves a statistics snapshot as JSON
func StatsHandler(logger *logsink.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		writeJSON(ctx, fasthttp.StatusOK, logger.Statistics())
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
