/*
Package tracing provides lightweight request tracing for the node.

Every HTTP request gets a span. A caller may continue its own trace by sending
X-Trace-ID and X-Span-ID; the node echoes the IDs it used in the response so
that nodectl output can be correlated with server logs. Trace and span IDs are
ULIDs with a req_ prefix.

Finished spans are logged by a background collector through zap. Successful
spans log at debug level, 5xx responses at warn, and spans carrying an error at
error level.

# Usage

	tracer := tracing.New("hydrenix-node", logger)
	defer tracer.Close()
	router.Use(tracing.HTTPMiddleware(tracer))

	// inside a handler
	logger.Info("provisioning", tracing.Fields(c.Request.Context())...)
*/
package tracing
