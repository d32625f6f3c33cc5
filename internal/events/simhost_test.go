package events_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/events"
	"github.com/GriffinCanCode/hostwin/internal/simhost"
)

func connect(t *testing.T, h *simhost.Host) *events.Registry {
	t.Helper()
	b := bridge.New(simhost.NewTransport(h))
	t.Cleanup(func() { _ = b.Close() })
	return events.NewRegistry(b)
}

type saved struct {
	Path string `json:"path"`
}

func TestEmitReachesScopedListenerOnAnotherClient(t *testing.T) {
	h := simhost.New(simhost.Options{Windows: []simhost.WindowSpec{simhost.DefaultWindow("editor")}})
	sender, receiver := connect(t, h), connect(t, h)
	ctx := context.Background()

	got := make(chan events.Event[saved], 4)
	cancel, err := events.Listen(ctx, receiver.Scoped(events.WindowTarget("editor")), "file:saved", func(ev events.Event[saved]) {
		got <- ev
	})
	require.NoError(t, err)
	defer cancel(ctx)

	require.NoError(t, sender.Scoped(events.WindowTarget("other")).Emit(ctx, "file:saved", saved{Path: "/ignored"}))
	require.NoError(t, sender.Scoped(events.LabelTarget("editor")).Emit(ctx, "file:saved", saved{Path: "/a.txt"}))

	select {
	case ev := <-got:
		assert.Equal(t, "/a.txt", ev.Payload.Path)
		require.NotNil(t, ev.Target)
		assert.Equal(t, "editor", ev.Target.Label)
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}
	assert.Empty(t, got)
}

func TestGlobalOnceThroughHost(t *testing.T) {
	h := simhost.New(simhost.Options{})
	reg := connect(t, h)
	ctx := context.Background()

	got := make(chan string, 4)
	_, err := events.Once(ctx, reg.Global(), "app:ready", func(ev events.Event[string]) {
		got <- ev.Payload
	})
	require.NoError(t, err)
	require.Equal(t, 1, h.Listeners())

	require.NoError(t, reg.Global().Emit(ctx, "app:ready", "first"))
	require.NoError(t, reg.Global().Emit(ctx, "app:ready", "second"))

	select {
	case v := <-got:
		assert.Equal(t, "first", v)
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}
	assert.Eventually(t, func() bool { return h.Listeners() == 0 && reg.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
	assert.Empty(t, got)
}

func TestHandlerMayCallBackIntoHost(t *testing.T) {
	h := simhost.New(simhost.Options{})
	reg := connect(t, h)
	ctx := context.Background()

	done := make(chan error, 1)
	_, err := reg.Global().Listen(ctx, "ping", func(events.Event[json.RawMessage]) {
		done <- reg.Global().Emit(ctx, "pong", nil)
	})
	require.NoError(t, err)
	require.NoError(t, reg.Global().Emit(ctx, "ping", nil))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("handler deadlocked")
	}
}

func TestConcurrentSubscribeAndCancel(t *testing.T) {
	h := simhost.New(simhost.Options{})
	reg := connect(t, h)
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	errCh := make(chan error, 2*n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cancel, err := reg.Global().Listen(ctx, "tick", func(events.Event[json.RawMessage]) {})
			if err != nil {
				errCh <- err
				return
			}
			_ = reg.Global().Emit(ctx, "tick", nil)
			errCh <- cancel(ctx)
			errCh <- cancel(ctx)
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		assert.NoError(t, err)
	}
	assert.Zero(t, reg.Len())
	assert.Zero(t, h.Listeners())
}

func TestWindowCloseThenCancelSucceeds(t *testing.T) {
	h := simhost.New(simhost.Options{Windows: []simhost.WindowSpec{simhost.DefaultWindow("main")}})
	reg := connect(t, h)
	ctx := context.Background()

	destroyed := make(chan struct{}, 1)
	cancel, err := reg.Scoped(events.WindowTarget("main")).Listen(ctx, simhost.EventDestroyed, func(events.Event[json.RawMessage]) {
		destroyed <- struct{}{}
	})
	require.NoError(t, err)

	h.CloseWindow("main")
	select {
	case <-destroyed:
	case <-time.After(5 * time.Second):
		t.Fatal("destroyed not delivered")
	}

	// the host dropped the listener with the window
	assert.NoError(t, cancel(ctx))
	assert.Zero(t, reg.Len())
}

func TestCancelRetryReleasesHostListener(t *testing.T) {
	h := simhost.New(simhost.Options{})
	reg := connect(t, h)

	cancel, err := reg.Global().Listen(context.Background(), "tick", func(events.Event[json.RawMessage]) {})
	require.NoError(t, err)
	require.Equal(t, 1, h.Listeners())

	stopped, stop := context.WithCancel(context.Background())
	stop()
	require.Error(t, cancel(stopped))
	assert.Zero(t, reg.Len())
	assert.Equal(t, 1, h.Listeners())

	require.NoError(t, cancel(context.Background()))
	assert.Zero(t, h.Listeners())
}
