package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/hostwin/internal/infrastructure/logging"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

// ErrEmptyResult is returned when a query's host result carries no value.
var ErrEmptyResult = errors.New("host returned no result")

// Sink receives host-initiated callback invocations, in host order.
type Sink func(id CallbackID, payload json.RawMessage)

// Transport moves commands to a host and callbacks back.
// Call returns *RemoteError when the host rejected the command.
type Transport interface {
	Call(ctx context.Context, cmd string, args json.RawMessage) (json.RawMessage, error)
	Attach(sink Sink)
	Close() error
}

// Bridge issues typed host commands and owns the callback table that
// host-delivered events are routed through.
type Bridge struct {
	transport Transport
	logger    *zap.Logger
	metrics   *monitoring.Metrics
	timeout   time.Duration

	nextCallback atomic.Uint32
	callbacks    sync.Map // CallbackID -> func(json.RawMessage)
	closed       atomic.Bool
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the bridge logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) { b.logger = logging.OrNop(l) }
}

// WithMetrics records host calls in m.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(b *Bridge) { b.metrics = m }
}

// WithTimeout bounds every host round-trip. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.timeout = d }
}

// New wraps a transport and attaches the callback dispatcher to it.
func New(t Transport, opts ...Option) *Bridge {
	b := &Bridge{
		transport: t,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	t.Attach(b.dispatch)
	return b
}

// Logger returns the bridge logger so collaborators can derive from it.
func (b *Bridge) Logger() *zap.Logger { return b.logger }

// Metrics returns the configured metrics, possibly nil.
func (b *Bridge) Metrics() *monitoring.Metrics { return b.metrics }

// Invoke sends cmd with args and decodes the result into out.
// A nil out discards the result; a non-nil out requires a non-null result.
func (b *Bridge) Invoke(ctx context.Context, cmd string, args any, out any) error {
	raw, err := b.InvokeRaw(ctx, cmd, args)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if IsNull(raw) {
		b.metrics.RecordBridgeError(cmd, "empty")
		return &errs.HostBridgeError{Op: cmd, Err: ErrEmptyResult}
	}
	if err := Decode(raw, out); err != nil {
		b.metrics.RecordBridgeError(cmd, "decode")
		return &errs.SerializationError{Op: cmd, Err: err}
	}
	return nil
}

// InvokeRaw sends cmd with args and returns the undecoded result.
func (b *Bridge) InvokeRaw(ctx context.Context, cmd string, args any) (json.RawMessage, error) {
	if b.closed.Load() {
		return nil, &errs.HostBridgeError{Op: cmd, Err: errs.ErrBridgeClosed}
	}

	payload, err := Encode(args)
	if err != nil {
		b.metrics.RecordBridgeError(cmd, "encode")
		return nil, &errs.SerializationError{Op: cmd, Err: err}
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	timer := monitoring.NewTimer(b.metrics, cmd)
	raw, err := b.transport.Call(ctx, cmd, payload)
	if err != nil {
		timer.Stop("error")
		kind, mapped := b.classify(cmd, err)
		b.metrics.RecordBridgeError(cmd, kind)
		b.logger.Debug("host call failed",
			zap.String("cmd", cmd),
			zap.String("kind", kind),
			zap.Error(err))
		return nil, mapped
	}
	timer.Stop("success")
	b.logger.Debug("host call", zap.String("cmd", cmd))
	return raw, nil
}

func (b *Bridge) classify(cmd string, err error) (string, error) {
	var remote *RemoteError
	var hostErr *errs.HostBridgeError
	var serErr *errs.SerializationError
	switch {
	case errors.As(err, &remote):
		return "host", &errs.HostBridgeError{Op: cmd, Code: remote.Code, Message: remote.Message}
	case errors.As(err, &hostErr), errors.As(err, &serErr):
		return "transport", err
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout", &errs.HostBridgeError{Op: cmd, Err: err}
	case errors.Is(err, context.Canceled):
		return "canceled", &errs.HostBridgeError{Op: cmd, Err: err}
	default:
		return "transport", &errs.HostBridgeError{Op: cmd, Err: err}
	}
}

// Call invokes cmd and decodes the result as T.
func Call[T any](ctx context.Context, b *Bridge, cmd string, args any) (T, error) {
	var out T
	err := b.Invoke(ctx, cmd, args, &out)
	return out, err
}

// RegisterCallback adds fn to the callback table and returns its id.
// The entry lives until ForgetCallback.
func (b *Bridge) RegisterCallback(fn func(payload json.RawMessage)) CallbackID {
	id := CallbackID(b.nextCallback.Add(1))
	b.callbacks.Store(id, fn)
	return id
}

// ForgetCallback removes a callback; later deliveries for id are dropped.
func (b *Bridge) ForgetCallback(id CallbackID) {
	b.callbacks.Delete(id)
}

// Callbacks returns the number of live callback entries.
func (b *Bridge) Callbacks() int {
	n := 0
	b.callbacks.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (b *Bridge) dispatch(id CallbackID, payload json.RawMessage) {
	fn, ok := b.callbacks.Load(id)
	if !ok {
		b.logger.Debug("callback not registered", zap.Uint32("callback", uint32(id)))
		return
	}
	fn.(func(json.RawMessage))(payload)
}

// Closed reports whether Close has been called.
func (b *Bridge) Closed() bool { return b.closed.Load() }

// Close shuts the transport down. Further invocations fail with ErrBridgeClosed.
func (b *Bridge) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.callbacks.Range(func(key, _ any) bool {
		b.callbacks.Delete(key)
		return true
	})
	return b.transport.Close()
}
