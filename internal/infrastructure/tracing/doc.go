/*
Package tracing provides lightweight request tracing for the control API.

Each HTTP request gets a span carrying a trace ID and a span ID. IDs arriving
in the X-Trace-ID and X-Span-ID headers are continued, so a UI can correlate
its own logs with the daemon's. Finished spans are logged through zap from a
buffered collector goroutine; server errors are logged at warn, everything
else at debug.

# Usage

	tracer := tracing.New("scrcpy-gui", logger)
	defer tracer.Close()
	router.Use(tracing.HTTPMiddleware(tracer))

	// Inside a handler
	traceID := tracing.GetTraceID(c.Request.Context())
*/
package tracing
