package wsbridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

// scriptedHost answers a handful of fixed commands.
func scriptedHost(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var mu sync.Mutex
		send := func(f *bridge.Frame) {
			data, _ := bridge.MarshalFrame(f)
			mu.Lock()
			defer mu.Unlock()
			_ = conn.WriteMessage(websocket.TextMessage, data)
		}

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			f, err := bridge.UnmarshalFrame(data)
			if err != nil {
				continue
			}

			switch f.Cmd {
			case "test|echo":
				send(&bridge.Frame{Type: bridge.FrameResponse, ID: f.ID, OK: true, Data: f.Args})
			case "test|fail":
				send(&bridge.Frame{Type: bridge.FrameResponse, ID: f.ID,
					Error: &bridge.RemoteError{Code: errs.CodeWindowNotFound, Message: "gone"}})
			case "test|burst":
				for i := 1; i <= 5; i++ {
					send(&bridge.Frame{Type: bridge.FrameCallback, Callback: 3, Payload: json.RawMessage(strings.Repeat("1", i))})
				}
				send(&bridge.Frame{Type: bridge.FrameResponse, ID: f.ID, OK: true})
			case "test|unconfirmed":
				send(&bridge.Frame{Type: bridge.FrameResponse, ID: f.ID})
			case "test|drop":
				return
			case "test|hang":
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, opts Options) *Transport {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tr, err := Dial(ctx, opts)
	require.NoError(t, err)
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestDialRequiresURL(t *testing.T) {
	_, err := Dial(context.Background(), Options{})
	assert.True(t, errs.IsConfiguration(err))
}

func TestCallRoundTrip(t *testing.T) {
	tr := dial(t, Options{URL: wsURL(scriptedHost(t))})

	out, err := tr.Call(context.Background(), "test|echo", json.RawMessage(`{"label":"main"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"main"}`, string(out))
}

func TestConcurrentCallsAreCorrelated(t *testing.T) {
	tr := dial(t, Options{URL: wsURL(scriptedHost(t))})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			arg, _ := json.Marshal(map[string]int{"n": i})
			out, err := tr.Call(context.Background(), "test|echo", arg)
			if assert.NoError(t, err) {
				assert.JSONEq(t, string(arg), string(out))
			}
		}(i)
	}
	wg.Wait()
}

func TestCallRemoteError(t *testing.T) {
	tr := dial(t, Options{URL: wsURL(scriptedHost(t))})

	_, err := tr.Call(context.Background(), "test|fail", json.RawMessage(`{}`))
	var remote *bridge.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, errs.CodeWindowNotFound, remote.Code)
}

func TestCallUnconfirmedResponseFails(t *testing.T) {
	tr := dial(t, Options{URL: wsURL(scriptedHost(t))})

	_, err := tr.Call(context.Background(), "test|unconfirmed", json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestCallbacksDeliveredInOrder(t *testing.T) {
	tr := dial(t, Options{URL: wsURL(scriptedHost(t))})

	var mu sync.Mutex
	var got []string
	tr.Attach(func(id bridge.CallbackID, payload json.RawMessage) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, bridge.CallbackID(3), id)
		got = append(got, string(payload))
	})

	_, err := tr.Call(context.Background(), "test|burst", json.RawMessage(`{}`))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 5
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"1", "11", "111", "1111", "11111"}, got)
}

func TestCallHonoursContext(t *testing.T) {
	tr := dial(t, Options{URL: wsURL(scriptedHost(t))})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := tr.Call(ctx, "test|hang", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCallAfterCloseFails(t *testing.T) {
	tr := dial(t, Options{URL: wsURL(scriptedHost(t))})
	require.NoError(t, tr.Close())

	<-tr.Done()
	_, err := tr.Call(context.Background(), "test|echo", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, errs.ErrBridgeClosed)
}

func TestHostDisconnectFailsPendingCalls(t *testing.T) {
	tr := dial(t, Options{URL: wsURL(scriptedHost(t))})

	errCh := make(chan error, 1)
	go func() {
		_, err := tr.Call(context.Background(), "test|hang", json.RawMessage(`{}`))
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	_, err := tr.Call(context.Background(), "test|drop", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, errs.ErrBridgeClosed)

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, errs.ErrBridgeClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("pending call was not released")
	}
}

func TestBreakerOpensOnLinkFailures(t *testing.T) {
	breaker := NewBreaker(3, time.Minute, nil)
	tr := dial(t, Options{URL: wsURL(scriptedHost(t)), Breaker: breaker})

	_, err := tr.Call(context.Background(), "test|drop", json.RawMessage(`{}`))
	require.ErrorIs(t, err, errs.ErrBridgeClosed)
	<-tr.Done()

	for i := 0; i < 2; i++ {
		_, err := tr.Call(context.Background(), "test|echo", json.RawMessage(`{}`))
		assert.ErrorIs(t, err, errs.ErrBridgeClosed)
	}
	assert.Equal(t, resilience.StateOpen, breaker.State())

	_, err = tr.Call(context.Background(), "test|echo", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, errs.ErrUnavailable)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestBreakerIgnoresHostErrors(t *testing.T) {
	breaker := NewBreaker(1, time.Minute, nil)
	tr := dial(t, Options{URL: wsURL(scriptedHost(t)), Breaker: breaker})

	for i := 0; i < 3; i++ {
		_, err := tr.Call(context.Background(), "test|fail", json.RawMessage(`{}`))
		require.Error(t, err)
	}
	assert.Equal(t, resilience.StateClosed, breaker.State())
}

func TestLimiterWaitRespectsContext(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	tr := dial(t, Options{URL: wsURL(scriptedHost(t)), Limiter: limiter})

	_, err := tr.Call(context.Background(), "test|echo", json.RawMessage(`{}`))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = tr.Call(ctx, "test|echo", json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestIsLinkFailure(t *testing.T) {
	assert.False(t, IsLinkFailure(nil))
	assert.False(t, IsLinkFailure(context.Canceled))
	assert.False(t, IsLinkFailure(&bridge.RemoteError{Code: "invalid_args"}))
	assert.True(t, IsLinkFailure(errs.ErrBridgeClosed))
	assert.True(t, IsLinkFailure(context.DeadlineExceeded))
}
