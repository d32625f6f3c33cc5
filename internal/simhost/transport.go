package simhost

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

// Transport connects a Bridge to a Host in the same process.
type Transport struct {
	host  *Host
	conn  ConnID
	queue *bridge.Queue

	sinkMu sync.RWMutex
	sink   bridge.Sink

	once sync.Once
	done chan struct{}
}

// NewTransport attaches a new client connection to h.
func NewTransport(h *Host) *Transport {
	t := &Transport{
		host:  h,
		queue: bridge.NewQueue(),
		done:  make(chan struct{}),
	}
	t.conn = h.Connect(func(id bridge.CallbackID, payload json.RawMessage) {
		t.queue.Push(bridge.Delivery{ID: id, Payload: payload})
	})
	go t.queue.Drain(t.done, t.currentSink)
	return t
}

// Conn returns the host-side connection id.
func (t *Transport) Conn() ConnID { return t.conn }

// Attach sets the sink receiving this connection's callbacks.
func (t *Transport) Attach(sink bridge.Sink) {
	t.sinkMu.Lock()
	t.sink = sink
	t.sinkMu.Unlock()
}

func (t *Transport) currentSink() bridge.Sink {
	t.sinkMu.RLock()
	defer t.sinkMu.RUnlock()
	return t.sink
}

// Call runs cmd against the host as this connection.
func (t *Transport) Call(ctx context.Context, cmd string, args json.RawMessage) (json.RawMessage, error) {
	select {
	case <-t.done:
		return nil, errs.ErrBridgeClosed
	default:
	}
	return t.host.Handle(ctx, t.conn, cmd, args)
}

// Close detaches from the host, dropping this connection's listeners.
func (t *Transport) Close() error {
	t.once.Do(func() {
		close(t.done)
		t.host.Disconnect(t.conn)
	})
	return nil
}
