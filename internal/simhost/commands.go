package simhost

import (
	"encoding/json"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/geometry"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

type windowArgs struct {
	Label string          `json:"label"`
	Value json.RawMessage `json:"value"`
}

type windowOp func(h *Host, w *windowState, value json.RawMessage) (any, error)

// onWindow resolves the label, runs op under the host lock and flushes any
// events op emitted once the lock is released.
func onWindow(op windowOp) handlerFunc {
	return func(h *Host, _ ConnID, args json.RawMessage) (any, error) {
		var a windowArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}

		h.mu.Lock()
		w, ok := h.windows[a.Label]
		if !ok {
			h.mu.Unlock()
			return nil, remote(errs.CodeWindowNotFound, "window %q not found", a.Label)
		}
		result, err := op(h, w, a.Value)
		pending := h.takeOutboxLocked()
		h.mu.Unlock()

		h.flush(pending)
		return result, err
	}
}

func setFlag(apply func(h *Host, w *windowState, on bool)) windowOp {
	return func(h *Host, w *windowState, value json.RawMessage) (any, error) {
		var on bool
		if err := decodeValue(value, &on); err != nil {
			return nil, err
		}
		apply(h, w, on)
		return nil, nil
	}
}

func action(apply func(h *Host, w *windowState)) windowOp {
	return func(h *Host, w *windowState, _ json.RawMessage) (any, error) {
		apply(h, w)
		return nil, nil
	}
}

func query(read func(h *Host, w *windowState) any) windowOp {
	return func(h *Host, w *windowState, _ json.RawMessage) (any, error) {
		return read(h, w), nil
	}
}

func decodeValue(value json.RawMessage, out any) error {
	if bridge.IsNull(value) {
		return remote(errs.CodeInvalidArgs, "missing value")
	}
	return decodeArgs(value, out)
}

func windowCommands() map[string]handlerFunc {
	ops := map[string]windowOp{
		// queries
		"scaleFactor": query(func(h *Host, w *windowState) any { return h.scaleAtLocked(w.x, w.y) }),
		"innerPosition": query(func(h *Host, w *windowState) any {
			return geometry.PhysicalPoint{X: w.x, Y: w.y}
		}),
		"outerPosition": query(func(h *Host, w *windowState) any {
			tb := h.titleBarLocked(w, h.scaleAtLocked(w.x, w.y))
			return geometry.PhysicalPoint{X: w.x, Y: w.y - int32(tb)}
		}),
		"innerSize": query(func(h *Host, w *windowState) any {
			return geometry.PhysicalExtent{Width: w.width, Height: w.height}
		}),
		"outerSize": query(func(h *Host, w *windowState) any {
			tb := h.titleBarLocked(w, h.scaleAtLocked(w.x, w.y))
			return geometry.PhysicalExtent{Width: w.width, Height: w.height + tb}
		}),
		"isFullscreen": query(func(_ *Host, w *windowState) any { return w.fullscreen }),
		"isMaximized":  query(func(_ *Host, w *windowState) any { return w.maximized }),
		"isMinimized":  query(func(_ *Host, w *windowState) any { return w.minimized }),
		"isDecorated":  query(func(_ *Host, w *windowState) any { return w.decorated }),
		"isResizable":  query(func(_ *Host, w *windowState) any { return w.resizable }),
		"isVisible":    query(func(_ *Host, w *windowState) any { return w.visible }),
		"isFocused":    query(func(h *Host, w *windowState) any { return h.focused == w.spec.Label }),
		"title":        query(func(_ *Host, w *windowState) any { return w.title }),
		"theme":        query(func(_ *Host, w *windowState) any { return w.theme }),

		// monitors
		"currentMonitor": query(func(h *Host, w *windowState) any {
			if m, ok := h.monitorAtLocked(w.x, w.y); ok {
				return m.wire()
			}
			return nil
		}),
		"primaryMonitor": query(func(h *Host, _ *windowState) any {
			if m, ok := h.primaryLocked(); ok {
				return m.wire()
			}
			return nil
		}),
		"availableMonitors": query(func(h *Host, _ *windowState) any {
			out := make([]wireMonitor, 0, len(h.monitors))
			for _, m := range h.monitors {
				out = append(out, m.wire())
			}
			return out
		}),

		// mutators
		"setResizable":   setFlag(func(_ *Host, w *windowState, on bool) { w.resizable = on }),
		"setDecorations": setFlag(func(_ *Host, w *windowState, on bool) { w.decorated = on }),
		"setAlwaysOnTop": setFlag(func(_ *Host, w *windowState, on bool) { w.alwaysOnTop = on }),
		"setSkipTaskbar": setFlag(func(_ *Host, w *windowState, on bool) { w.skipTaskbar = on }),
		"setCursorGrab":  setFlag(func(_ *Host, w *windowState, on bool) { w.cursorGrab = on }),
		"setCursorVisible": setFlag(func(_ *Host, w *windowState, on bool) {
			w.cursorVisible = on
		}),
		"setIgnoreCursorEvents": setFlag(func(_ *Host, w *windowState, on bool) {
			w.ignoreCursor = on
		}),
		"setFullscreen": setFlag(func(h *Host, w *windowState, on bool) {
			h.fullscreenLocked(w, on)
		}),
		"setTitle": func(_ *Host, w *windowState, value json.RawMessage) (any, error) {
			var title string
			if err := decodeValue(value, &title); err != nil {
				return nil, err
			}
			w.title = title
			return nil, nil
		},
		"maximize":       action(func(h *Host, w *windowState) { h.maximizeLocked(w) }),
		"unmaximize":     action(func(h *Host, w *windowState) { h.unmaximizeLocked(w) }),
		"toggleMaximize": action(toggleMaximize),
		"minimize":       action(func(_ *Host, w *windowState) { w.minimized = true }),
		"unminimize":     action(func(_ *Host, w *windowState) { w.minimized = false }),
		"show": action(func(_ *Host, w *windowState) {
			w.visible = true
			w.minimized = false
		}),
		"hide":          action(func(_ *Host, w *windowState) { w.visible = false }),
		"close":         action(func(h *Host, w *windowState) { h.closeLocked(w.spec.Label) }),
		"center":        action(func(h *Host, w *windowState) { h.centerLocked(w) }),
		"setFocus":      action(func(h *Host, w *windowState) { h.focusLocked(w.spec.Label) }),
		"startDragging": action(func(_ *Host, w *windowState) { w.dragging = true }),
		"setSize":       setSize,
		"setMinSize": func(h *Host, w *windowState, value json.RawMessage) (any, error) {
			bound, err := optionalSize(value)
			if err != nil {
				return nil, err
			}
			w.minSize = bound
			h.clampLocked(w, h.scaleAtLocked(w.x, w.y))
			return nil, nil
		},
		"setMaxSize": func(h *Host, w *windowState, value json.RawMessage) (any, error) {
			bound, err := optionalSize(value)
			if err != nil {
				return nil, err
			}
			w.maxSize = bound
			h.clampLocked(w, h.scaleAtLocked(w.x, w.y))
			return nil, nil
		},
		"setPosition": setPosition,
		"setCursorPosition": func(h *Host, w *windowState, value json.RawMessage) (any, error) {
			var pos geometry.Position
			if err := decodeValue(value, &pos); err != nil {
				return nil, err
			}
			phys, err := pos.ToPhysical(h.scaleAtLocked(w.x, w.y))
			if err != nil {
				return nil, remote(errs.CodeInvalidArgs, "%v", err)
			}
			w.cursorPos = phys
			return nil, nil
		},
		"setCursorIcon": func(_ *Host, w *windowState, value json.RawMessage) (any, error) {
			var icon string
			if err := decodeValue(value, &icon); err != nil {
				return nil, err
			}
			if icon == "" {
				return nil, remote(errs.CodeInvalidArgs, "empty cursor icon")
			}
			w.cursorIcon = icon
			return nil, nil
		},
		"setIcon": func(_ *Host, w *windowState, value json.RawMessage) (any, error) {
			var raw []int
			if err := decodeValue(value, &raw); err != nil {
				return nil, err
			}
			if len(raw) == 0 {
				return nil, remote(errs.CodeInvalidArgs, "empty icon")
			}
			icon := make([]byte, len(raw))
			for i, b := range raw {
				if b < 0 || b > 255 {
					return nil, remote(errs.CodeInvalidArgs, "icon byte %d out of range", i)
				}
				icon[i] = byte(b)
			}
			w.icon = icon
			return nil, nil
		},
		"requestUserAttention": func(_ *Host, w *windowState, value json.RawMessage) (any, error) {
			if bridge.IsNull(value) {
				w.attention = nil
				return nil, nil
			}
			var kind int
			if err := decodeArgs(value, &kind); err != nil {
				return nil, err
			}
			if kind != 1 && kind != 2 {
				return nil, remote(errs.CodeInvalidArgs, "unknown attention type %d", kind)
			}
			w.attention = &kind
			return nil, nil
		},
	}

	table := make(map[string]handlerFunc, len(ops)+1)
	for name, op := range ops {
		table[name] = onWindow(op)
	}
	table["getAllWindows"] = func(h *Host, _ ConnID, _ json.RawMessage) (any, error) {
		return h.Labels(), nil
	}
	return table
}

func toggleMaximize(h *Host, w *windowState) {
	if w.maximized {
		h.unmaximizeLocked(w)
	} else {
		h.maximizeLocked(w)
	}
}

func optionalSize(value json.RawMessage) (*geometry.Size, error) {
	if bridge.IsNull(value) {
		return nil, nil
	}
	var size geometry.Size
	if err := decodeArgs(value, &size); err != nil {
		return nil, err
	}
	return &size, nil
}

func setSize(h *Host, w *windowState, value json.RawMessage) (any, error) {
	var size geometry.Size
	if err := decodeValue(value, &size); err != nil {
		return nil, err
	}
	scale := h.scaleAtLocked(w.x, w.y)
	phys, err := size.ToPhysical(scale)
	if err != nil {
		return nil, remote(errs.CodeInvalidArgs, "%v", err)
	}
	w.width, w.height = phys.Width, phys.Height
	h.clampLocked(w, scale)
	h.emitLocked(windowTarget(w.spec.Label), EventResized,
		geometry.PhysicalExtent{Width: w.width, Height: w.height})
	return nil, nil
}

func setPosition(h *Host, w *windowState, value json.RawMessage) (any, error) {
	var pos geometry.Position
	if err := decodeValue(value, &pos); err != nil {
		return nil, err
	}
	phys, err := pos.ToPhysical(h.scaleAtLocked(w.x, w.y))
	if err != nil {
		return nil, remote(errs.CodeInvalidArgs, "%v", err)
	}
	w.x, w.y = phys.X, phys.Y
	h.emitLocked(windowTarget(w.spec.Label), EventMoved,
		geometry.PhysicalPoint{X: w.x, Y: w.y})
	return nil, nil
}
