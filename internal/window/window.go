package window

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/events"
	"github.com/GriffinCanCode/hostwin/internal/geometry"
	"github.com/GriffinCanCode/hostwin/internal/monitor"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

const cmdPrefix = "plugin:window|"

// Window is a handle to one host window, addressed by label.
//
// A handle turns Closed once it sees the window go away, either through a
// successful Close or a host report that the label no longer resolves.
// From then on every operation fails locally with errs.ErrWindowClosed.
// A window later recreated under the same label needs a new handle.
type Window struct {
	label   string
	bridge  *bridge.Bridge
	emitter *events.Emitter
	logger  *zap.Logger
	closed  atomic.Bool
}

func newWindow(b *bridge.Bridge, reg *events.Registry, label string) *Window {
	return &Window{
		label:   label,
		bridge:  b,
		emitter: reg.Scoped(events.WindowTarget(label)),
		logger:  b.Logger().With(zap.String("window", label)),
	}
}

// Label returns the window label.
func (w *Window) Label() string { return w.label }

// Closed reports whether the handle has observed its window closing.
func (w *Window) Closed() bool { return w.closed.Load() }

type labelArgs struct {
	Label string `json:"label"`
}

type valueArgs struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// invoke sends one window command and tracks the handle state.
func (w *Window) invoke(ctx context.Context, op string, args any, out any) error {
	cmd := cmdPrefix + op
	if w.closed.Load() {
		return &errs.HostBridgeError{Op: cmd, Label: w.label, Err: errs.ErrWindowClosed}
	}
	err := w.bridge.Invoke(ctx, cmd, args, out)
	if err != nil {
		var hbe *errs.HostBridgeError
		if errors.As(err, &hbe) && hbe.Label == "" {
			hbe.Label = w.label
		}
		if errs.IsWindowGone(err) {
			w.markClosed()
		}
	}
	return err
}

func (w *Window) markClosed() {
	if w.closed.CompareAndSwap(false, true) {
		w.logger.Debug("window handle closed")
	}
}

func (w *Window) query(ctx context.Context, op string, out any) error {
	return w.invoke(ctx, op, labelArgs{Label: w.label}, out)
}

func (w *Window) action(ctx context.Context, op string) error {
	return w.invoke(ctx, op, labelArgs{Label: w.label}, nil)
}

func (w *Window) set(ctx context.Context, op string, value any) error {
	return w.invoke(ctx, op, valueArgs{Label: w.label, Value: value}, nil)
}

func (w *Window) queryBool(ctx context.Context, op string) (bool, error) {
	var v bool
	err := w.query(ctx, op, &v)
	return v, err
}

// ScaleFactor returns the scale factor of the monitor the window is on.
func (w *Window) ScaleFactor(ctx context.Context) (float64, error) {
	var v float64
	if err := w.query(ctx, "scaleFactor", &v); err != nil {
		return 0, err
	}
	if err := geometry.ValidateScaleFactor(v); err != nil {
		return 0, &errs.SerializationError{Op: cmdPrefix + "scaleFactor", Err: err}
	}
	return v, nil
}

// InnerPosition returns the client area's top-left corner in physical pixels.
func (w *Window) InnerPosition(ctx context.Context) (geometry.Position, error) {
	return w.position(ctx, "innerPosition")
}

// OuterPosition returns the window's top-left corner, decorations included.
func (w *Window) OuterPosition(ctx context.Context) (geometry.Position, error) {
	return w.position(ctx, "outerPosition")
}

// InnerSize returns the client area size in physical pixels.
func (w *Window) InnerSize(ctx context.Context) (geometry.Size, error) {
	return w.size(ctx, "innerSize")
}

// OuterSize returns the window size, decorations included.
func (w *Window) OuterSize(ctx context.Context) (geometry.Size, error) {
	return w.size(ctx, "outerSize")
}

func (w *Window) position(ctx context.Context, op string) (geometry.Position, error) {
	var p geometry.PhysicalPoint
	if err := w.query(ctx, op, &p); err != nil {
		return geometry.Position{}, err
	}
	return p.Position(), nil
}

func (w *Window) size(ctx context.Context, op string) (geometry.Size, error) {
	var s geometry.PhysicalExtent
	if err := w.query(ctx, op, &s); err != nil {
		return geometry.Size{}, err
	}
	return s.Size(), nil
}

// Theme returns the window's current theme.
func (w *Window) Theme(ctx context.Context) (Theme, error) {
	var t Theme
	if err := w.query(ctx, "theme", &t); err != nil {
		return "", err
	}
	if !t.valid() {
		return "", &errs.SerializationError{
			Op:  cmdPrefix + "theme",
			Err: errors.New("unknown theme " + string(t)),
		}
	}
	return t, nil
}

// Title returns the window title.
func (w *Window) Title(ctx context.Context) (string, error) {
	var t string
	err := w.query(ctx, "title", &t)
	return t, err
}

// IsFullscreen reports whether the window is fullscreen.
func (w *Window) IsFullscreen(ctx context.Context) (bool, error) {
	return w.queryBool(ctx, "isFullscreen")
}

// IsMaximized reports whether the window is maximized.
func (w *Window) IsMaximized(ctx context.Context) (bool, error) {
	return w.queryBool(ctx, "isMaximized")
}

// IsMinimized reports whether the window is minimized.
func (w *Window) IsMinimized(ctx context.Context) (bool, error) {
	return w.queryBool(ctx, "isMinimized")
}

// IsDecorated reports whether the window has decorations.
func (w *Window) IsDecorated(ctx context.Context) (bool, error) {
	return w.queryBool(ctx, "isDecorated")
}

// IsResizable reports whether the user may resize the window.
func (w *Window) IsResizable(ctx context.Context) (bool, error) {
	return w.queryBool(ctx, "isResizable")
}

// IsVisible reports whether the window is shown.
func (w *Window) IsVisible(ctx context.Context) (bool, error) {
	return w.queryBool(ctx, "isVisible")
}

// IsFocused reports whether the window has input focus.
func (w *Window) IsFocused(ctx context.Context) (bool, error) {
	return w.queryBool(ctx, "isFocused")
}

// CurrentMonitor returns the monitor the window is on, or nil.
func (w *Window) CurrentMonitor(ctx context.Context) (*monitor.Monitor, error) {
	if err := w.alive(cmdPrefix + "currentMonitor"); err != nil {
		return nil, err
	}
	m, err := monitor.Current(ctx, w.bridge, w.label)
	w.observe(err)
	return m, err
}

// PrimaryMonitor returns the host's primary monitor, or nil.
func (w *Window) PrimaryMonitor(ctx context.Context) (*monitor.Monitor, error) {
	if err := w.alive(cmdPrefix + "primaryMonitor"); err != nil {
		return nil, err
	}
	m, err := monitor.Primary(ctx, w.bridge, w.label)
	w.observe(err)
	return m, err
}

// AvailableMonitors snapshots every monitor the host knows of.
func (w *Window) AvailableMonitors(ctx context.Context) (monitor.Monitors, error) {
	if err := w.alive(cmdPrefix + "availableMonitors"); err != nil {
		return monitor.Monitors{}, err
	}
	ms, err := monitor.Available(ctx, w.bridge, w.label)
	w.observe(err)
	return ms, err
}

func (w *Window) alive(cmd string) error {
	if w.closed.Load() {
		return &errs.HostBridgeError{Op: cmd, Label: w.label, Err: errs.ErrWindowClosed}
	}
	return nil
}

func (w *Window) observe(err error) {
	if err != nil && errs.IsWindowGone(err) {
		w.markClosed()
	}
}

// SetResizable allows or forbids user resizing.
func (w *Window) SetResizable(ctx context.Context, resizable bool) error {
	return w.set(ctx, "setResizable", resizable)
}

// SetTitle replaces the window title.
func (w *Window) SetTitle(ctx context.Context, title string) error {
	return w.set(ctx, "setTitle", title)
}

// Maximize maximizes the window.
func (w *Window) Maximize(ctx context.Context) error { return w.action(ctx, "maximize") }

// Unmaximize restores a maximized window.
func (w *Window) Unmaximize(ctx context.Context) error { return w.action(ctx, "unmaximize") }

// ToggleMaximize flips the maximized state.
func (w *Window) ToggleMaximize(ctx context.Context) error { return w.action(ctx, "toggleMaximize") }

// Minimize minimizes the window.
func (w *Window) Minimize(ctx context.Context) error { return w.action(ctx, "minimize") }

// Unminimize restores a minimized window.
func (w *Window) Unminimize(ctx context.Context) error { return w.action(ctx, "unminimize") }

// Show makes the window visible.
func (w *Window) Show(ctx context.Context) error { return w.action(ctx, "show") }

// Hide hides the window without closing it.
func (w *Window) Hide(ctx context.Context) error { return w.action(ctx, "hide") }

// Close asks the host to close the window. On success the handle is Closed.
func (w *Window) Close(ctx context.Context) error {
	if err := w.action(ctx, "close"); err != nil {
		return err
	}
	w.markClosed()
	return nil
}

// Center moves the window to the middle of its monitor.
func (w *Window) Center(ctx context.Context) error { return w.action(ctx, "center") }

// SetFocus brings the window to the front and focuses it.
func (w *Window) SetFocus(ctx context.Context) error { return w.action(ctx, "setFocus") }

// StartDragging begins a user-driven move of the window.
func (w *Window) StartDragging(ctx context.Context) error { return w.action(ctx, "startDragging") }

// SetDecorations toggles the title bar and borders.
func (w *Window) SetDecorations(ctx context.Context, decorations bool) error {
	return w.set(ctx, "setDecorations", decorations)
}

// SetAlwaysOnTop keeps the window above others.
func (w *Window) SetAlwaysOnTop(ctx context.Context, onTop bool) error {
	return w.set(ctx, "setAlwaysOnTop", onTop)
}

// SetFullscreen enters or leaves fullscreen.
func (w *Window) SetFullscreen(ctx context.Context, fullscreen bool) error {
	return w.set(ctx, "setFullscreen", fullscreen)
}

// SetSkipTaskbar hides the window from the taskbar.
func (w *Window) SetSkipTaskbar(ctx context.Context, skip bool) error {
	return w.set(ctx, "setSkipTaskbar", skip)
}

// SetCursorGrab confines the cursor to the window.
func (w *Window) SetCursorGrab(ctx context.Context, grab bool) error {
	return w.set(ctx, "setCursorGrab", grab)
}

// SetCursorVisible shows or hides the cursor over the window.
func (w *Window) SetCursorVisible(ctx context.Context, visible bool) error {
	return w.set(ctx, "setCursorVisible", visible)
}

// SetIgnoreCursorEvents lets clicks pass through the window.
func (w *Window) SetIgnoreCursorEvents(ctx context.Context, ignore bool) error {
	return w.set(ctx, "setIgnoreCursorEvents", ignore)
}

// SetSize resizes the client area. Logical sizes are interpreted by the host
// against the window's current scale factor.
func (w *Window) SetSize(ctx context.Context, size geometry.Size) error {
	if err := checkUnit("size", size.Unit); err != nil {
		return err
	}
	return w.set(ctx, "setSize", size)
}

// SetMinSize sets the minimum client size. A nil size clears the bound.
func (w *Window) SetMinSize(ctx context.Context, size *geometry.Size) error {
	if size != nil {
		if err := checkUnit("min_size", size.Unit); err != nil {
			return err
		}
	}
	return w.set(ctx, "setMinSize", size)
}

// SetMaxSize sets the maximum client size. A nil size clears the bound.
func (w *Window) SetMaxSize(ctx context.Context, size *geometry.Size) error {
	if size != nil {
		if err := checkUnit("max_size", size.Unit); err != nil {
			return err
		}
	}
	return w.set(ctx, "setMaxSize", size)
}

// SetPosition moves the window's top-left corner.
func (w *Window) SetPosition(ctx context.Context, pos geometry.Position) error {
	if err := checkUnit("position", pos.Unit); err != nil {
		return err
	}
	return w.set(ctx, "setPosition", pos)
}

// SetCursorPosition warps the cursor, relative to the client area.
func (w *Window) SetCursorPosition(ctx context.Context, pos geometry.Position) error {
	if err := checkUnit("cursor_position", pos.Unit); err != nil {
		return err
	}
	return w.set(ctx, "setCursorPosition", pos)
}

// SetCursorIcon changes the cursor shown over the window.
func (w *Window) SetCursorIcon(ctx context.Context, icon CursorIcon) error {
	if _, err := ParseCursorIcon(string(icon)); err != nil {
		return err
	}
	return w.set(ctx, "setCursorIcon", icon)
}

// SetIcon replaces the window icon with an encoded image.
func (w *Window) SetIcon(ctx context.Context, icon []byte) error {
	if err := ValidateIcon(icon); err != nil {
		return err
	}
	return w.set(ctx, "setIcon", iconBytes(icon))
}

// RequestUserAttention flashes or bounces the window. AttentionNone cancels
// an outstanding request.
func (w *Window) RequestUserAttention(ctx context.Context, kind UserAttentionType) error {
	switch kind {
	case AttentionNone, AttentionCritical, AttentionInformational:
	default:
		return errs.Configuration("attention", "unknown attention type %d", int(kind))
	}
	return w.set(ctx, "requestUserAttention", kind)
}

// Emit publishes payload to listeners of this window.
func (w *Window) Emit(ctx context.Context, event string, payload any) error {
	if err := w.alive(events.CmdEmit); err != nil {
		return err
	}
	return w.emitter.Emit(ctx, event, payload)
}

// Listen subscribes handler to event on this window until the returned
// Cancel is invoked.
func (w *Window) Listen(ctx context.Context, event string, handler func(events.Event[json.RawMessage])) (events.Cancel, error) {
	if err := w.alive(events.CmdListen); err != nil {
		return nil, err
	}
	return w.emitter.Listen(ctx, event, handler)
}

// Once subscribes handler to the next event on this window.
func (w *Window) Once(ctx context.Context, event string, handler func(events.Event[json.RawMessage])) (events.Cancel, error) {
	if err := w.alive(events.CmdListen); err != nil {
		return nil, err
	}
	return w.emitter.Once(ctx, event, handler)
}

// Events returns the window-scoped emitter for typed subscriptions through
// events.Listen and events.Once.
func (w *Window) Events() *events.Emitter { return w.emitter }

func checkUnit(field string, u geometry.Unit) error {
	if u != geometry.Logical && u != geometry.Physical {
		return errs.Configuration(field, "unknown unit %d", int(u))
	}
	return nil
}
