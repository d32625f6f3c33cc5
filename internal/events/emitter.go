package events

import (
	"context"
	"encoding/json"
)

// Emitter emits and listens on one fixed target. Window handles hold one
// scoped to their label.
type Emitter struct {
	registry *Registry
	target   Target
}

// Target returns the scope this emitter publishes to.
func (e *Emitter) Target() Target { return e.target }

// Emit publishes payload under event to the emitter's target.
func (e *Emitter) Emit(ctx context.Context, event string, payload any) error {
	return e.registry.Emit(ctx, e.target, event, payload)
}

// Listen registers a persistent handler receiving raw payloads.
func (e *Emitter) Listen(ctx context.Context, event string, handler func(Event[json.RawMessage])) (Cancel, error) {
	return e.registry.Subscribe(ctx, e.target, event, true, handler)
}

// Once registers a handler that runs for the first matching event only.
func (e *Emitter) Once(ctx context.Context, event string, handler func(Event[json.RawMessage])) (Cancel, error) {
	return e.registry.Subscribe(ctx, e.target, event, false, handler)
}

// Listen registers a persistent handler decoding payloads as T.
// Payloads that do not decode are reported to the registry's error handler.
func Listen[T any](ctx context.Context, e *Emitter, event string, handler func(Event[T])) (Cancel, error) {
	return e.registry.subscribe(ctx, e.target, event, true, typed(handler))
}

// Once registers a one-shot handler decoding payloads as T.
func Once[T any](ctx context.Context, e *Emitter, event string, handler func(Event[T])) (Cancel, error) {
	return e.registry.subscribe(ctx, e.target, event, false, typed(handler))
}
