/*
Package resilience provides the circuit breaker used by the node API client.

A node that is down or whose docker daemon is wedged answers every request
slowly or with a 5xx. The breaker stops nodectl from hammering it: after a run
of failures it opens and rejects calls locally until Timeout passes, then lets
MaxRequests trial calls through (half-open) before closing again.

# Usage

	settings := resilience.DefaultSettings()
	settings.IsSuccessful = func(err error) bool { return !isServerError(err) }
	breaker := resilience.New("node", settings)

	err := breaker.Call(ctx, func(ctx context.Context) error {
		return doRequest(ctx)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		// fail fast
	}
*/
package resilience
