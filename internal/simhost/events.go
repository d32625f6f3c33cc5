package simhost

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

// Target is the host's view of an event scope.
type Target struct {
	Kind  string `json:"kind"`
	Label string `json:"label,omitempty"`
}

var anyTarget = Target{Kind: "Any"}

func windowTarget(label string) Target { return Target{Kind: "Window", Label: label} }

// reaches reports whether an emit to t is seen by a listener scoped to l.
func (t Target) reaches(l Target) bool {
	if t.Kind == "Any" || l.Kind == "Any" {
		return true
	}
	if t.Kind == "App" || l.Kind == "App" {
		return t.Kind == l.Kind
	}
	if t.Label != l.Label {
		return false
	}
	switch {
	case t.Kind == l.Kind, t.Kind == "AnyLabel", l.Kind == "AnyLabel":
		return true
	case t.Kind == "WebviewWindow" || l.Kind == "WebviewWindow":
		return true
	}
	return false
}

type listener struct {
	id      uint32
	conn    ConnID
	event   string
	target  Target
	handler bridge.CallbackID
}

type delivery struct {
	sink    bridge.Sink
	handler bridge.CallbackID
	payload json.RawMessage
}

type message struct {
	Event   string          `json:"event"`
	ID      uint32          `json:"id"`
	Payload json.RawMessage `json:"payload"`
	Target  *Target         `json:"target,omitempty"`
}

// emitLocked resolves receivers immediately and queues their deliveries.
// Callers flush the outbox after releasing the lock.
func (h *Host) emitLocked(target Target, event string, payload any) {
	data, err := bridge.Encode(payload)
	if err != nil {
		h.logger.Warn("dropping unencodable event", zap.String("event", event), zap.Error(err))
		return
	}
	if payload == nil {
		data = json.RawMessage(`null`)
	}

	for _, l := range h.listeners {
		if l.event != event || !target.reaches(l.target) {
			continue
		}
		sink, ok := h.conns[l.conn]
		if !ok {
			continue
		}
		scope := target
		raw, err := bridge.Encode(message{Event: event, ID: l.id, Payload: data, Target: &scope})
		if err != nil {
			continue
		}
		h.outbox = append(h.outbox, delivery{sink: sink, handler: l.handler, payload: raw})
	}
}

func (h *Host) takeOutboxLocked() []delivery {
	pending := h.outbox
	h.outbox = nil
	return pending
}

func (h *Host) flush(pending []delivery) {
	for _, d := range pending {
		d.sink(d.handler, d.payload)
	}
}

// Emit publishes payload under event to every listener target reaches.
func (h *Host) Emit(target Target, event string, payload any) {
	h.mu.Lock()
	h.emitLocked(target, event, payload)
	pending := h.takeOutboxLocked()
	h.mu.Unlock()
	h.flush(pending)
}

// Listeners returns the number of registered listeners.
func (h *Host) Listeners() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

func eventCommands() map[string]handlerFunc {
	return map[string]handlerFunc{
		"listen":   handleListen,
		"unlisten": handleUnlisten,
		"emit":     handleEmit,
	}
}

func handleListen(h *Host, conn ConnID, args json.RawMessage) (any, error) {
	var req struct {
		Event   string             `json:"event"`
		Target  Target             `json:"target"`
		Handler *bridge.CallbackID `json:"handler"`
	}
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	if req.Event == "" {
		return nil, remote(errs.CodeInvalidArgs, "missing event name")
	}
	if req.Handler == nil {
		return nil, remote(errs.CodeInvalidArgs, "missing handler")
	}
	if req.Target.Kind == "" {
		req.Target = anyTarget
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextEvent++
	h.listeners[h.nextEvent] = &listener{
		id:      h.nextEvent,
		conn:    conn,
		event:   req.Event,
		target:  req.Target,
		handler: *req.Handler,
	}
	return h.nextEvent, nil
}

func handleUnlisten(h *Host, conn ConnID, args json.RawMessage) (any, error) {
	var req struct {
		Event   string `json:"event"`
		EventID uint32 `json:"eventId"`
	}
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.listeners[req.EventID]
	if !ok || l.conn != conn || (req.Event != "" && l.event != req.Event) {
		return nil, remote(errs.CodeListenerGone, "listener %d not found", req.EventID)
	}
	delete(h.listeners, req.EventID)
	return nil, nil
}

func handleEmit(h *Host, _ ConnID, args json.RawMessage) (any, error) {
	var req struct {
		Event   string          `json:"event"`
		Target  *Target         `json:"target"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	if req.Event == "" {
		return nil, remote(errs.CodeInvalidArgs, "missing event name")
	}
	target := anyTarget
	if req.Target != nil && req.Target.Kind != "" {
		target = *req.Target
	}
	var payload any = req.Payload
	if len(req.Payload) == 0 {
		payload = nil
	}
	h.Emit(target, req.Event, payload)
	return nil, nil
}
