/*
Package window provides handles to host windows.

A Client hands out Window handles by label and Builders for new windows.
Every Window operation is one host round-trip; nothing is cached, so each
query reflects the host's state at the time of the call.

	client := window.NewClient(b)
	w, err := client.NewBuilder("main").
		URL("/index.html").
		Size(geometry.NewLogicalSize(800, 600)).
		Build(ctx)
	if err != nil {
		return err
	}
	err = w.SetTitle(ctx, "Hello")

Geometry setters forward the unit they are given. A logical size is
resolved by the host against the window's own scale factor.

Handles are safe for concurrent use. Operations issued from one goroutine
reach the host in issue order.
*/
package window
