// Package wsbridge connects the bridge to a host over a WebSocket.
//
// Each invocation is an invoke frame correlated by request id with its
// response frame. Callback frames are queued and delivered in arrival order.
package wsbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/logging"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
	"github.com/GriffinCanCode/hostwin/internal/shared/id"
)

const (
	writeWait   = 10 * time.Second
	dialTimeout = 10 * time.Second
)

// Options configures a websocket transport.
type Options struct {
	URL    string
	Header http.Header

	// Limiter paces outbound invocations; nil disables pacing.
	Limiter *rate.Limiter
	// Breaker fails calls fast while the host is unreachable; nil disables it.
	Breaker *resilience.Breaker

	Logger  *zap.Logger
	Metrics *monitoring.Metrics
}

// Transport is a bridge.Transport speaking JSON frames over one websocket.
type Transport struct {
	conn    *websocket.Conn
	limiter *rate.Limiter
	breaker *resilience.Breaker
	logger  *zap.Logger
	metrics *monitoring.Metrics

	writeMu sync.Mutex
	pending sync.Map // request id -> chan *bridge.Frame

	sinkMu sync.RWMutex
	sink   bridge.Sink
	queue  *bridge.Queue

	done      chan struct{}
	closeOnce sync.Once
	errMu     sync.Mutex
	err       error
}

// Dial connects to a host and starts the read loop.
func Dial(ctx context.Context, opts Options) (*Transport, error) {
	if opts.URL == "" {
		return nil, errs.Configuration("url", "websocket url is required")
	}

	header := opts.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	tracing.Inject(ctx, header)

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, resp, err := dialer.DialContext(ctx, opts.URL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial host %s: %w", opts.URL, err)
	}

	t := &Transport{
		conn:    conn,
		limiter: opts.Limiter,
		breaker: opts.Breaker,
		logger:  logging.OrNop(opts.Logger),
		metrics: opts.Metrics,
		queue:   bridge.NewQueue(),
		done:    make(chan struct{}),
	}

	go t.readLoop()
	go t.queue.Drain(t.done, t.currentSink)

	t.logger.Info("connected to host", zap.String("url", opts.URL))
	return t, nil
}

// NewBreaker returns a breaker that counts only link failures.
func NewBreaker(maxFailures uint32, timeout time.Duration, logger *zap.Logger) *resilience.Breaker {
	logger = logging.OrNop(logger)
	return resilience.New("host-bridge", resilience.Settings{
		Timeout:     timeout,
		ReadyToTrip: resilience.ConsecutiveFailures(maxFailures),
		IsFailure:   IsLinkFailure,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

// IsLinkFailure reports whether err means the host could not be reached,
// as opposed to the host answering with an error.
func IsLinkFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var remote *bridge.RemoteError
	return !errors.As(err, &remote)
}

// Attach sets the sink receiving host callbacks.
func (t *Transport) Attach(sink bridge.Sink) {
	t.sinkMu.Lock()
	t.sink = sink
	t.sinkMu.Unlock()
}

// Call sends one invoke frame and waits for its response.
func (t *Transport) Call(ctx context.Context, cmd string, args json.RawMessage) (json.RawMessage, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if t.breaker == nil {
		return t.roundTrip(ctx, cmd, args)
	}

	var result json.RawMessage
	err := t.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = t.roundTrip(ctx, cmd, args)
		return err
	})
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", errs.ErrUnavailable, err)
	}
	return result, err
}

func (t *Transport) roundTrip(ctx context.Context, cmd string, args json.RawMessage) (json.RawMessage, error) {
	reqID := id.NewRequestID().String()
	ch := make(chan *bridge.Frame, 1)
	t.pending.Store(reqID, ch)
	defer t.pending.Delete(reqID)

	frame := &bridge.Frame{Type: bridge.FrameInvoke, ID: reqID, Cmd: cmd, Args: args}
	if err := t.write(frame); err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		return resp.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.done:
		return nil, t.closeErr()
	}
}

func (t *Transport) write(frame *bridge.Frame) error {
	data, err := bridge.MarshalFrame(frame)
	if err != nil {
		return &errs.SerializationError{Op: frame.Cmd, Err: err}
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	select {
	case <-t.done:
		return t.closeErr()
	default:
	}

	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	t.metrics.RecordWSMessage("out", frame.Type)
	return nil
}

func (t *Transport) readLoop() {
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			t.shutdown(err)
			return
		}

		frame, err := bridge.UnmarshalFrame(data)
		if err != nil {
			t.logger.Warn("dropping malformed frame", zap.Error(err))
			continue
		}
		t.metrics.RecordWSMessage("in", frame.Type)

		switch frame.Type {
		case bridge.FrameResponse:
			if ch, ok := t.pending.LoadAndDelete(frame.ID); ok {
				ch.(chan *bridge.Frame) <- frame
			} else {
				t.logger.Debug("response for unknown request", zap.String("id", frame.ID))
			}
		case bridge.FrameCallback:
			t.queue.Push(bridge.Delivery{ID: frame.Callback, Payload: frame.Payload})
		default:
			t.logger.Warn("unexpected frame from host", zap.String("type", frame.Type))
		}
	}
}

func (t *Transport) currentSink() bridge.Sink {
	t.sinkMu.RLock()
	defer t.sinkMu.RUnlock()
	return t.sink
}

func (t *Transport) shutdown(cause error) {
	t.closeOnce.Do(func() {
		t.errMu.Lock()
		if cause == nil || websocket.IsCloseError(cause, websocket.CloseNormalClosure) {
			t.err = errs.ErrBridgeClosed
		} else {
			t.err = fmt.Errorf("%w: %v", errs.ErrBridgeClosed, cause)
		}
		t.errMu.Unlock()

		close(t.done)
		t.conn.Close()
		if cause != nil {
			t.logger.Info("host connection closed", zap.Error(cause))
		}
	})
}

func (t *Transport) closeErr() error {
	t.errMu.Lock()
	defer t.errMu.Unlock()
	if t.err == nil {
		return errs.ErrBridgeClosed
	}
	return t.err
}

// Done is closed once the connection has shut down.
func (t *Transport) Done() <-chan struct{} { return t.done }

// Close sends a close frame and tears the connection down.
func (t *Transport) Close() error {
	t.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	t.writeMu.Unlock()

	t.shutdown(nil)
	return nil
}
