/*
Package tracing provides lightweight request tracing for the dev host.

Spans carry a trace id, their own span id and an optional parent. The
websocket handler opens one span per connection and a child span per
invoked command; the HTTP middleware opens one per request. Finished spans
are buffered and logged at debug level by a collector goroutine.

# Usage

	tracer := tracing.New("devhost", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "plugin:window|title")
	err := do(ctx)
	tracer.End(span, err)

# Propagation

X-Trace-ID and X-Span-ID headers carry the trace across the websocket
handshake. Clients set them with Inject; the server reads them with Extract.
*/
package tracing
