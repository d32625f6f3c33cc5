/*
Package events turns the host's listen/unlisten primitive into subscriptions
with a single, explicit cancellation.

Every subscription gets its own ULID token and its own callback slot in the
bridge, so cancelling one never touches another registered for the same
event name. A Cancel is safe to call any number of times and from anywhere;
it succeeds when the window or the host listener is already gone. Dropping a
Cancel without calling it leaves the subscription active.

Handlers run on the transport's delivery goroutine in host order. A handler
that blocks delays every other subscription on the same bridge.

	cancel, err := events.Listen(ctx, registry.Global(), "download-progress",
		func(ev events.Event[Progress]) {
			bar.Set(ev.Payload.Percent)
		})
	...
	_ = cancel(ctx)
*/
package events
