package simhost

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/GriffinCanCode/hostwin/internal/geometry"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

// titleBarHeight is the logical height of the decoration above the client area.
const titleBarHeight = 28

// Window lifecycle events the host emits to a window's listeners.
const (
	EventResized   = "tauri://resize"
	EventMoved     = "tauri://move"
	EventFocus     = "tauri://focus"
	EventBlur      = "tauri://blur"
	EventDestroyed = "tauri://destroyed"
	EventCreated   = "tauri://created"
)

// WindowSpec is the creation request a builder submits.
type WindowSpec struct {
	Label             string             `json:"label"`
	URL               *string            `json:"url"`
	Center            bool               `json:"center"`
	Position          *geometry.Position `json:"position"`
	Size              *geometry.Size     `json:"size"`
	MinSize           *geometry.Size     `json:"min_size"`
	MaxSize           *geometry.Size     `json:"max_size"`
	Resizable         bool               `json:"resizable"`
	Title             *string            `json:"title"`
	Fullscreen        bool               `json:"fullscreen"`
	Focus             bool               `json:"focus"`
	Transparent       bool               `json:"transparent"`
	Maximized         bool               `json:"maximized"`
	Visible           bool               `json:"visible"`
	Decorations       bool               `json:"decorations"`
	AlwaysOnTop       bool               `json:"always_on_top"`
	SkipTaskbar       bool               `json:"skip_taskbar"`
	FileDropEnabled   bool               `json:"file_drop_enabled"`
	Theme             *string            `json:"theme"`
	TitleBarStyle     *string            `json:"title_bar_style"`
	HiddenTitle       bool               `json:"hidden_title"`
	AcceptFirstMouse  bool               `json:"accept_first_mouse"`
	TabbingIdentifier *string            `json:"tabbing_identifier"`
	UserAgent         *string            `json:"user_agent"`
}

// DefaultWindow returns a visible, decorated, resizable, focused spec.
func DefaultWindow(label string) WindowSpec {
	return WindowSpec{
		Label:           label,
		Resizable:       true,
		Focus:           true,
		Visible:         true,
		Decorations:     true,
		FileDropEnabled: true,
	}
}

type rect struct {
	x, y          int32
	width, height uint32
}

type windowState struct {
	spec      WindowSpec
	createdAt time.Time

	title string
	rect
	restore *rect

	minSize, maxSize *geometry.Size

	fullscreen, maximized, minimized bool
	decorated, resizable, visible    bool
	alwaysOnTop, skipTaskbar         bool
	dragging                         bool
	theme                            string

	cursorGrab, cursorVisible, ignoreCursor bool
	cursorIcon                              string
	cursorPos                               geometry.Position

	icon      []byte
	attention *int
}

// Window is a read-only snapshot of one simulated window.
type Window struct {
	Label              string
	Title              string
	URL                string
	Position           geometry.Position
	Size               geometry.Size
	MinSize            *geometry.Size
	MaxSize            *geometry.Size
	ScaleFactor        float64
	Fullscreen         bool
	Maximized          bool
	Minimized          bool
	Decorated          bool
	Resizable          bool
	Visible            bool
	Focused            bool
	AlwaysOnTop        bool
	SkipTaskbar        bool
	Dragging           bool
	Theme              string
	CursorGrab         bool
	CursorVisible      bool
	CursorIcon         string
	CursorPosition     geometry.Position
	IgnoreCursorEvents bool
	Icon               []byte
	Attention          *int
	CreatedAt          time.Time
}

func (h *Host) snapshotLocked(w *windowState) Window {
	out := Window{
		Label:              w.spec.Label,
		Title:              w.title,
		Position:           geometry.NewPhysicalPosition(w.x, w.y),
		Size:               geometry.NewPhysicalSize(w.width, w.height),
		MinSize:            w.minSize,
		MaxSize:            w.maxSize,
		ScaleFactor:        h.scaleAtLocked(w.x, w.y),
		Fullscreen:         w.fullscreen,
		Maximized:          w.maximized,
		Minimized:          w.minimized,
		Decorated:          w.decorated,
		Resizable:          w.resizable,
		Visible:            w.visible,
		Focused:            h.focused == w.spec.Label,
		AlwaysOnTop:        w.alwaysOnTop,
		SkipTaskbar:        w.skipTaskbar,
		Dragging:           w.dragging,
		Theme:              w.theme,
		CursorGrab:         w.cursorGrab,
		CursorVisible:      w.cursorVisible,
		CursorIcon:         w.cursorIcon,
		CursorPosition:     w.cursorPos,
		IgnoreCursorEvents: w.ignoreCursor,
		Icon:               append([]byte(nil), w.icon...),
		Attention:          w.attention,
		CreatedAt:          w.createdAt,
	}
	if w.spec.URL != nil {
		out.URL = *w.spec.URL
	}
	return out
}

// Window returns a snapshot of the window with label.
func (h *Host) Window(label string) (Window, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[label]
	if !ok {
		return Window{}, false
	}
	return h.snapshotLocked(w), true
}

// Labels returns open window labels in creation order.
func (h *Host) Labels() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.order...)
}

// OpenWindow creates a window from spec. The request is validated in full
// before anything is inserted.
func (h *Host) OpenWindow(spec WindowSpec) (Window, error) {
	h.mu.Lock()
	w, err := h.createLocked(spec)
	var snap Window
	if err == nil {
		snap = h.snapshotLocked(w)
	}
	pending := h.takeOutboxLocked()
	h.mu.Unlock()

	h.flush(pending)
	return snap, err
}

func (h *Host) createLocked(spec WindowSpec) (*windowState, error) {
	if !validLabel(spec.Label) {
		return nil, remote(errs.CodeInvalidArgs, "invalid window label %q", spec.Label)
	}
	if _, exists := h.windows[spec.Label]; exists {
		return nil, remote(errs.CodeInvalidArgs, "a window with label %q already exists", spec.Label)
	}
	if spec.URL != nil {
		if _, err := url.Parse(*spec.URL); err != nil {
			return nil, remote(errs.CodeInvalidArgs, "invalid url: %v", err)
		}
	}
	if spec.Theme != nil && *spec.Theme != "light" && *spec.Theme != "dark" {
		return nil, remote(errs.CodeInvalidArgs, "unknown theme %q", *spec.Theme)
	}

	monitor, _ := h.primaryLocked()
	scale := monitor.ScaleFactor
	if scale <= 0 {
		scale = 1
	}

	w := &windowState{
		spec:          spec,
		createdAt:     time.Now(),
		decorated:     spec.Decorations,
		resizable:     spec.Resizable,
		visible:       spec.Visible,
		alwaysOnTop:   spec.AlwaysOnTop,
		skipTaskbar:   spec.SkipTaskbar,
		theme:         "light",
		cursorVisible: true,
		cursorIcon:    "default",
		cursorPos:     geometry.NewPhysicalPosition(0, 0),
	}
	if spec.Title != nil {
		w.title = *spec.Title
	}
	if spec.Theme != nil {
		w.theme = *spec.Theme
	}

	size := geometry.NewLogicalSize(800, 600)
	if spec.Size != nil {
		size = *spec.Size
	}
	phys, err := size.ToPhysical(scale)
	if err != nil {
		return nil, remote(errs.CodeInvalidArgs, "%v", err)
	}
	w.width, w.height = phys.Width, phys.Height
	w.minSize, w.maxSize = spec.MinSize, spec.MaxSize
	h.clampLocked(w, scale)

	w.x, w.y = monitor.X, monitor.Y+int32(h.titleBarLocked(w, scale))
	if spec.Position != nil {
		pos, err := spec.Position.ToPhysical(scale)
		if err != nil {
			return nil, remote(errs.CodeInvalidArgs, "%v", err)
		}
		w.x, w.y = pos.X, pos.Y
	}

	h.windows[spec.Label] = w
	h.order = append(h.order, spec.Label)

	if spec.Center {
		h.centerLocked(w)
	}
	if spec.Maximized {
		h.maximizeLocked(w)
	}
	if spec.Fullscreen {
		h.fullscreenLocked(w, true)
	}
	if spec.Focus && spec.Visible {
		h.focusLocked(spec.Label)
	}

	h.metrics.SetWindowsOpen(len(h.windows))
	h.emitLocked(anyTarget, EventCreated, map[string]string{"label": spec.Label})
	return w, nil
}

func handleCreate(h *Host, _ ConnID, args json.RawMessage) (any, error) {
	var req struct {
		Options WindowSpec `json:"options"`
	}
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	_, err := h.OpenWindow(req.Options)
	if err != nil {
		return nil, err
	}
	return req.Options.Label, nil
}

// titleBarLocked is the physical decoration height above the client area.
func (h *Host) titleBarLocked(w *windowState, scale float64) uint32 {
	if !w.decorated || w.fullscreen {
		return 0
	}
	return uint32(titleBarHeight * scale)
}

// clampLocked keeps the inner size within the min/max bounds.
func (h *Host) clampLocked(w *windowState, scale float64) {
	if w.minSize != nil {
		if lo, err := w.minSize.ToPhysical(scale); err == nil {
			w.width = max(w.width, lo.Width)
			w.height = max(w.height, lo.Height)
		}
	}
	if w.maxSize != nil {
		if hi, err := w.maxSize.ToPhysical(scale); err == nil {
			w.width = min(w.width, hi.Width)
			w.height = min(w.height, hi.Height)
		}
	}
}

func (h *Host) workAreaLocked(w *windowState) Monitor {
	if m, ok := h.monitorAtLocked(w.x, w.y); ok {
		return m
	}
	m, _ := h.primaryLocked()
	return m
}

func (h *Host) centerLocked(w *windowState) {
	m := h.workAreaLocked(w)
	tb := int64(h.titleBarLocked(w, h.scaleAtLocked(w.x, w.y)))
	outerH := int64(w.height) + tb
	w.x = int32(int64(m.X) + (int64(m.Width)-int64(w.width))/2)
	w.y = int32(int64(m.Y) + (int64(m.Height)-outerH)/2 + tb)
}

func (h *Host) maximizeLocked(w *windowState) {
	if w.maximized {
		return
	}
	saved := w.rect
	w.restore = &saved
	m := h.workAreaLocked(w)
	tb := h.titleBarLocked(w, m.ScaleFactor)
	w.x, w.y = m.X, m.Y+int32(tb)
	w.width = m.Width
	w.height = m.Height - min(tb, m.Height)
	w.maximized = true
}

func (h *Host) unmaximizeLocked(w *windowState) {
	if !w.maximized {
		return
	}
	if w.restore != nil {
		w.rect = *w.restore
		w.restore = nil
	}
	w.maximized = false
}

func (h *Host) fullscreenLocked(w *windowState, on bool) {
	if on == w.fullscreen {
		return
	}
	if on {
		saved := w.rect
		w.restore = &saved
		m := h.workAreaLocked(w)
		w.fullscreen = true
		w.x, w.y, w.width, w.height = m.X, m.Y, m.Width, m.Height
		return
	}
	w.fullscreen = false
	if w.restore != nil {
		w.rect = *w.restore
		w.restore = nil
	}
}

func (h *Host) focusLocked(label string) {
	if h.focused == label {
		return
	}
	if prev := h.focused; prev != "" {
		if _, ok := h.windows[prev]; ok {
			h.emitLocked(windowTarget(prev), EventBlur, nil)
		}
	}
	h.focused = label
	if label != "" {
		h.emitLocked(windowTarget(label), EventFocus, nil)
	}
}

// closeLocked removes the window. Listeners scoped to it receive
// EventDestroyed and are then dropped.
func (h *Host) closeLocked(label string) {
	delete(h.windows, label)
	for i, l := range h.order {
		if l == label {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	if h.focused == label {
		h.focused = ""
	}

	h.emitLocked(windowTarget(label), EventDestroyed, nil)
	for id, l := range h.listeners {
		if l.target.Label == label {
			delete(h.listeners, id)
		}
	}
	h.metrics.SetWindowsOpen(len(h.windows))
}

// CloseWindow closes label as if the user had closed it.
func (h *Host) CloseWindow(label string) bool {
	h.mu.Lock()
	_, ok := h.windows[label]
	if ok {
		h.closeLocked(label)
	}
	pending := h.takeOutboxLocked()
	h.mu.Unlock()

	h.flush(pending)
	return ok
}
