package simhost

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/logging"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

// ConnID identifies one attached client. Listeners belong to the
// connection that registered them.
type ConnID uint64

type handlerFunc func(h *Host, conn ConnID, args json.RawMessage) (any, error)

// Options configures a simulated host.
type Options struct {
	Monitors []Monitor
	OS       OSInfo
	App      AppInfo
	// Windows are opened at startup, in order
	Windows []WindowSpec

	Logger  *zap.Logger
	Metrics *monitoring.Metrics
}

// Host is an in-memory stand-in for the runtime that owns real windows.
// It keeps authoritative window, monitor and listener state and answers
// every command the bindings send.
type Host struct {
	mu        sync.Mutex
	windows   map[string]*windowState      // Protected by mu
	order     []string                     // creation order, Protected by mu
	focused   string                       // Protected by mu
	monitors  []Monitor                    // Protected by mu
	listeners map[uint32]*listener         // Protected by mu
	nextEvent uint32                       // Protected by mu
	conns     map[ConnID]bridge.Sink       // Protected by mu
	nextConn  ConnID                       // Protected by mu
	dialogs   map[string][]json.RawMessage // Protected by mu
	dialogLog []DialogRequest              // Protected by mu
	process   ProcessState
	appHidden bool
	outbox    []delivery // Protected by mu

	os       OSInfo
	app      AppInfo
	handlers map[string]handlerFunc
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// New creates a host. Missing monitors, OS and app info get defaults.
func New(opts Options) *Host {
	h := &Host{
		windows:   make(map[string]*windowState),
		listeners: make(map[uint32]*listener),
		conns:     make(map[ConnID]bridge.Sink),
		dialogs:   make(map[string][]json.RawMessage),
		monitors:  opts.Monitors,
		os:        opts.OS.withDefaults(),
		app:       opts.App.withDefaults(),
		logger:    logging.OrNop(opts.Logger),
		metrics:   opts.Metrics,
	}
	if len(h.monitors) == 0 {
		h.monitors = DefaultMonitors()
	}
	h.handlers = h.commandTable()

	for _, spec := range opts.Windows {
		if _, err := h.OpenWindow(spec); err != nil {
			h.logger.Warn("skipping initial window", zap.String("label", spec.Label), zap.Error(err))
		}
	}
	return h
}

// Connect attaches a client sink and returns its connection id.
func (h *Host) Connect(sink bridge.Sink) ConnID {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextConn++
	h.conns[h.nextConn] = sink
	return h.nextConn
}

// Disconnect detaches a client and drops its listeners.
func (h *Host) Disconnect(conn ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
	for id, l := range h.listeners {
		if l.conn == conn {
			delete(h.listeners, id)
		}
	}
}

// Handle executes one command for conn. Host-side rejections are returned
// as *bridge.RemoteError.
func (h *Host) Handle(ctx context.Context, conn ConnID, cmd string, args json.RawMessage) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fn, ok := h.handlers[cmd]
	if !ok {
		return nil, remote(errs.CodeUnknownCommand, "unknown command %q", cmd)
	}
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	result, err := fn(h, conn, args)
	if err != nil {
		h.logger.Debug("command rejected", zap.String("cmd", cmd), zap.Error(err))
		return nil, err
	}
	switch v := result.(type) {
	case nil:
		return json.RawMessage(`null`), nil
	case json.RawMessage:
		return v, nil
	}
	data, err := bridge.Encode(result)
	if err != nil {
		return nil, remote(errs.CodeInternal, "encode result: %v", err)
	}
	return data, nil
}

// Commands lists every command the host answers, sorted.
func (h *Host) Commands() []string {
	out := make([]string, 0, len(h.handlers))
	for cmd := range h.handlers {
		out = append(out, cmd)
	}
	sort.Strings(out)
	return out
}

func (h *Host) commandTable() map[string]handlerFunc {
	table := make(map[string]handlerFunc)
	for op, fn := range windowCommands() {
		table["plugin:window|"+op] = fn
	}
	table["plugin:webview|createWebviewWindow"] = handleCreate
	for op, fn := range eventCommands() {
		table["plugin:event|"+op] = fn
	}
	for op, fn := range osCommands() {
		table["plugin:os|"+op] = fn
	}
	for op, fn := range appCommands() {
		table[op] = fn
	}
	for op, fn := range dialogCommands() {
		table["plugin:dialog|"+op] = fn
	}
	return table
}

func remote(code, format string, args ...any) *bridge.RemoteError {
	return &bridge.RemoteError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func decodeArgs(args json.RawMessage, out any) error {
	if err := bridge.Decode(args, out); err != nil {
		return remote(errs.CodeInvalidArgs, "%v", err)
	}
	return nil
}

func validLabel(label string) bool {
	if label == "" {
		return false
	}
	return strings.IndexFunc(label, func(c rune) bool {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			return false
		case c == '-', c == '/', c == ':', c == '_':
			return false
		}
		return true
	}) < 0
}
