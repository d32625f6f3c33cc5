package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/logging"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
	"github.com/GriffinCanCode/hostwin/internal/shared/id"
)

// Host commands for the event bus.
const (
	CmdListen   = "plugin:event|listen"
	CmdUnlisten = "plugin:event|unlisten"
	CmdEmit     = "plugin:event|emit"
)

// releaseTimeout bounds the background unlisten of a once subscription.
const releaseTimeout = 10 * time.Second

// dispatch decodes a message and returns the handler invocation to run.
type dispatch func(msg Message) (func(), error)

type subscription struct {
	id         id.SubscriptionID
	event      string
	target     Target
	persistent bool
	dispatch   dispatch

	callback bridge.CallbackID
	eventID  atomic.Uint32
	ready    chan struct{} // closed once eventID is known or listen failed

	closed   atomic.Bool
	teardown sync.Once

	mu         sync.Mutex // serializes host unlisten attempts
	unlistened bool
}

// Registry owns every live subscription made through one bridge.
type Registry struct {
	bridge  *bridge.Bridge
	logger  *zap.Logger
	metrics *monitoring.Metrics
	onError func(event string, err error)

	subs sync.Map // id.SubscriptionID -> *subscription
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger overrides the logger taken from the bridge.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.logger = logging.OrNop(l) }
}

// WithMetrics overrides the metrics taken from the bridge.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithErrorHandler receives payloads that could not be decoded for a
// subscriber. Those events never reach the subscriber's handler.
func WithErrorHandler(fn func(event string, err error)) Option {
	return func(r *Registry) { r.onError = fn }
}

// NewRegistry creates a registry over b.
func NewRegistry(b *bridge.Bridge, opts ...Option) *Registry {
	r := &Registry{
		bridge:  b,
		logger:  b.Logger(),
		metrics: b.Metrics(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers handler for event on target and returns its Cancel.
// A non-persistent subscription unregisters itself after its first delivery.
func (r *Registry) Subscribe(ctx context.Context, target Target, event string, persistent bool, handler func(Event[json.RawMessage])) (Cancel, error) {
	return r.subscribe(ctx, target, event, persistent, typed(handler))
}

func (r *Registry) subscribe(ctx context.Context, target Target, event string, persistent bool, fn dispatch) (Cancel, error) {
	if err := ValidateEventName(event); err != nil {
		return nil, err
	}
	if err := validateTarget(target); err != nil {
		return nil, err
	}

	sub := &subscription{
		id:         id.NewSubscriptionID(),
		event:      event,
		target:     target,
		persistent: persistent,
		dispatch:   fn,
		ready:      make(chan struct{}),
	}
	sub.callback = r.bridge.RegisterCallback(func(raw json.RawMessage) {
		r.deliver(sub, raw)
	})

	var eventID uint32
	err := r.bridge.Invoke(ctx, CmdListen, map[string]any{
		"event":   event,
		"target":  target,
		"handler": sub.callback,
	}, &eventID)
	if err != nil {
		sub.closed.Store(true)
		r.bridge.ForgetCallback(sub.callback)
		close(sub.ready)
		return nil, err
	}
	sub.eventID.Store(eventID)
	close(sub.ready)

	r.subs.Store(sub.id, sub)
	r.metrics.IncSubscriptions()
	r.logger.Debug("subscribed",
		zap.String("subscription", sub.id.String()),
		zap.String("event", event),
		zap.Stringer("target", target),
		zap.Uint32("event_id", eventID),
		zap.Bool("persistent", persistent))

	return func(ctx context.Context) error {
		return r.release(ctx, sub)
	}, nil
}

// deliver runs on the transport's delivery goroutine, one message at a time.
func (r *Registry) deliver(sub *subscription, raw json.RawMessage) {
	if sub.closed.Load() {
		r.metrics.RecordEventDropped(sub.event, "closed")
		return
	}

	var msg Message
	if err := bridge.Decode(raw, &msg); err != nil {
		r.reportDecode(sub.event, err)
		return
	}
	run, err := sub.dispatch(msg)
	if err != nil {
		r.reportDecode(sub.event, err)
		return
	}

	if !sub.persistent {
		if !sub.closed.CompareAndSwap(false, true) {
			r.metrics.RecordEventDropped(sub.event, "closed")
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			if err := r.release(ctx, sub); err != nil {
				r.logger.Warn("once unlisten failed",
					zap.String("event", sub.event),
					zap.Error(err))
			}
		}()
	}

	r.metrics.RecordEventDelivered(sub.event)
	run()
}

func (r *Registry) reportDecode(event string, err error) {
	serr := &errs.SerializationError{Op: "event " + event, Err: err}
	r.metrics.RecordEventDropped(event, "decode")
	r.logger.Warn("dropping undecodable event", zap.String("event", event), zap.Error(err))
	if r.onError != nil {
		r.onError(event, serr)
	}
}

// release removes local state once, then unregisters on the host. A failed
// unlisten is not latched, so a later release retries it.
func (r *Registry) release(ctx context.Context, sub *subscription) error {
	sub.teardown.Do(func() {
		sub.closed.Store(true)
		if _, loaded := r.subs.LoadAndDelete(sub.id); loaded {
			r.metrics.DecSubscriptions()
		}
		r.bridge.ForgetCallback(sub.callback)
	})

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.unlistened {
		return nil
	}

	select {
	case <-sub.ready:
	case <-ctx.Done():
		return &errs.HostBridgeError{Op: CmdUnlisten, Err: ctx.Err()}
	}

	err := r.bridge.Invoke(ctx, CmdUnlisten, map[string]any{
		"event":   sub.event,
		"eventId": sub.eventID.Load(),
	}, nil)
	if alreadyGone(err) {
		err = nil
	}
	sub.unlistened = err == nil
	r.logger.Debug("unsubscribed",
		zap.String("subscription", sub.id.String()),
		zap.String("event", sub.event),
		zap.Error(err))
	return err
}

// alreadyGone reports errors meaning the host side no longer holds the listener.
func alreadyGone(err error) bool {
	if err == nil {
		return false
	}
	if errs.IsWindowGone(err) || errors.Is(err, errs.ErrBridgeClosed) {
		return true
	}
	var hostErr *errs.HostBridgeError
	return errors.As(err, &hostErr) && hostErr.Code == errs.CodeListenerGone
}

// Emit publishes payload under event to target.
func (r *Registry) Emit(ctx context.Context, target Target, event string, payload any) error {
	if err := ValidateEventName(event); err != nil {
		return err
	}
	if err := validateTarget(target); err != nil {
		return err
	}
	return r.bridge.Invoke(ctx, CmdEmit, map[string]any{
		"event":   event,
		"target":  target,
		"payload": payload,
	}, nil)
}

// Len returns the number of live subscriptions.
func (r *Registry) Len() int {
	n := 0
	r.subs.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Scoped returns an emitter bound to target.
func (r *Registry) Scoped(target Target) *Emitter {
	return &Emitter{registry: r, target: target}
}

// Global returns an emitter for app-wide events.
func (r *Registry) Global() *Emitter {
	return r.Scoped(AnyTarget())
}

func typed[T any](handler func(Event[T])) dispatch {
	return func(msg Message) (func(), error) {
		var payload T
		if err := decodePayload(msg.Payload, &payload); err != nil {
			return nil, err
		}
		ev := Event[T]{Event: msg.Event, ID: msg.ID, Payload: payload, Target: msg.Target}
		return func() { handler(ev) }, nil
	}
}

func decodePayload(raw json.RawMessage, out any) error {
	if dst, ok := out.(*json.RawMessage); ok {
		*dst = append(json.RawMessage(nil), raw...)
		return nil
	}
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	return bridge.Decode(raw, out)
}
