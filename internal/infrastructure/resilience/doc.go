/*
Package resilience provides a circuit breaker for the socket transport.

When the host process goes away every invocation would otherwise wait for
its full timeout. The breaker fails those calls fast with ErrCircuitOpen
until a probe succeeds again. Errors the host returned deliberately
(unknown window, bad arguments) are not failures of the link and are
excluded through Settings.IsFailure.

# Usage

	breaker := resilience.New("bridge", resilience.Settings{
		Timeout:     10 * time.Second,
		ReadyToTrip: resilience.ConsecutiveFailures(5),
		IsFailure:   isLinkFailure,
	})

	err := breaker.Do(ctx, func(ctx context.Context) error {
		return conn.roundTrip(ctx, frame)
	})
*/
package resilience
