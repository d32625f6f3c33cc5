package simhost

import (
	"encoding/json"
	"os"
	"runtime"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/geometry"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

// OSInfo is what the os commands report.
type OSInfo struct {
	Arch         string  `toml:"arch" json:"arch"`
	Platform     string  `toml:"platform" json:"platform"`
	Family       string  `toml:"family" json:"family"`
	Type         string  `toml:"type" json:"type"`
	Version      string  `toml:"version" json:"version"`
	Locale       *string `toml:"locale" json:"locale"`
	ExeExtension string  `toml:"exe_extension" json:"exe_extension"`
	Hostname     string  `toml:"hostname" json:"hostname"`
}

var goArch = map[string]string{
	"386":      "x86",
	"amd64":    "x86_64",
	"arm":      "arm",
	"arm64":    "aarch64",
	"mips":     "mips",
	"mips64":   "mips64",
	"ppc64":    "powerpc64",
	"ppc64le":  "powerpc64",
	"riscv64":  "riscv64",
	"s390x":    "s390x",
	"sparc64":  "sparc64",
	"mipsle":   "mips",
	"mips64le": "mips64",
}

func (o OSInfo) withDefaults() OSInfo {
	if o.Arch == "" {
		o.Arch = goArch[runtime.GOARCH]
		if o.Arch == "" {
			o.Arch = runtime.GOARCH
		}
	}
	if o.Platform == "" {
		o.Platform = runtime.GOOS
		if o.Platform == "darwin" {
			o.Platform = "macos"
		}
	}
	if o.Family == "" {
		o.Family = "unix"
		if o.Platform == "windows" {
			o.Family = "windows"
		}
	}
	if o.Type == "" {
		switch o.Platform {
		case "macos", "windows", "ios", "android":
			o.Type = o.Platform
		default:
			o.Type = "linux"
		}
	}
	if o.Version == "" {
		o.Version = "0.0.0"
	}
	if o.ExeExtension == "" && o.Platform == "windows" {
		o.ExeExtension = "exe"
	}
	if o.Hostname == "" {
		o.Hostname, _ = os.Hostname()
	}
	return o
}

// AppInfo is what the app commands report.
type AppInfo struct {
	Name         string `toml:"name" json:"name"`
	Version      string `toml:"version" json:"version"`
	TauriVersion string `toml:"tauri_version" json:"tauri_version"`
}

func (a AppInfo) withDefaults() AppInfo {
	if a.Name == "" {
		a.Name = "devhost"
	}
	if a.Version == "" {
		a.Version = "0.1.0"
	}
	if a.TauriVersion == "" {
		a.TauriVersion = "2.0.0"
	}
	return a
}

// ProcessState records process-control requests; the simulated host
// never exits.
type ProcessState struct {
	Exited   bool
	ExitCode int
	Restarts int
}

// Process returns the recorded process-control state.
func (h *Host) Process() ProcessState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.process
}

// AppHidden reports whether the app was hidden.
func (h *Host) AppHidden() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.appHidden
}

func osCommands() map[string]handlerFunc {
	field := func(read func(OSInfo) any) handlerFunc {
		return func(h *Host, _ ConnID, _ json.RawMessage) (any, error) {
			return read(h.os), nil
		}
	}
	return map[string]handlerFunc{
		"arch":          field(func(o OSInfo) any { return o.Arch }),
		"platform":      field(func(o OSInfo) any { return o.Platform }),
		"family":        field(func(o OSInfo) any { return o.Family }),
		"os_type":       field(func(o OSInfo) any { return o.Type }),
		"version":       field(func(o OSInfo) any { return o.Version }),
		"locale":        field(func(o OSInfo) any { return o.Locale }),
		"exe_extension": field(func(o OSInfo) any { return o.ExeExtension }),
		"hostname":      field(func(o OSInfo) any { return o.Hostname }),
	}
}

// Positions understood by move_window, in wire order.
var positions = []string{
	"TopLeft", "TopRight", "BottomLeft", "BottomRight",
	"TopCenter", "BottomCenter", "LeftCenter", "RightCenter", "Center",
}

func appCommands() map[string]handlerFunc {
	return map[string]handlerFunc{
		"plugin:app|version": func(h *Host, _ ConnID, _ json.RawMessage) (any, error) {
			return h.app.Version, nil
		},
		"plugin:app|name": func(h *Host, _ ConnID, _ json.RawMessage) (any, error) {
			return h.app.Name, nil
		},
		"plugin:app|tauri_version": func(h *Host, _ ConnID, _ json.RawMessage) (any, error) {
			return h.app.TauriVersion, nil
		},
		"plugin:app|show": func(h *Host, _ ConnID, _ json.RawMessage) (any, error) {
			h.mu.Lock()
			h.appHidden = false
			h.mu.Unlock()
			return nil, nil
		},
		"plugin:app|hide": func(h *Host, _ ConnID, _ json.RawMessage) (any, error) {
			h.mu.Lock()
			h.appHidden = true
			h.mu.Unlock()
			return nil, nil
		},
		"plugin:process|exit": func(h *Host, _ ConnID, args json.RawMessage) (any, error) {
			var req struct {
				Code int `json:"code"`
			}
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			h.mu.Lock()
			h.process.Exited = true
			h.process.ExitCode = req.Code
			h.mu.Unlock()
			return nil, nil
		},
		"plugin:process|restart": func(h *Host, _ ConnID, _ json.RawMessage) (any, error) {
			h.mu.Lock()
			h.process.Restarts++
			h.process.Exited = false
			h.mu.Unlock()
			return nil, nil
		},
		"plugin:positioner|move_window": handleMoveWindow,
	}
}

func handleMoveWindow(h *Host, _ ConnID, args json.RawMessage) (any, error) {
	var req struct {
		Position *int   `json:"position"`
		Label    string `json:"label"`
	}
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	if req.Position == nil || *req.Position < 0 || *req.Position >= len(positions) {
		return nil, remote(errs.CodeInvalidArgs, "unknown position")
	}
	if req.Label == "" {
		req.Label = "main"
	}

	h.mu.Lock()
	w, ok := h.windows[req.Label]
	if !ok {
		h.mu.Unlock()
		return nil, remote(errs.CodeWindowNotFound, "window %q not found", req.Label)
	}
	h.placeLocked(w, positions[*req.Position])
	pending := h.takeOutboxLocked()
	h.mu.Unlock()

	h.flush(pending)
	return nil, nil
}

// placeLocked moves w to an anchor of its monitor.
func (h *Host) placeLocked(w *windowState, anchor string) {
	m := h.workAreaLocked(w)
	tb := int32(h.titleBarLocked(w, h.scaleAtLocked(w.x, w.y)))
	outerW, outerH := int32(w.width), int32(w.height)+tb
	left, top := m.X, m.Y
	right, bottom := m.X+int32(m.Width)-outerW, m.Y+int32(m.Height)-outerH
	midX, midY := m.X+(int32(m.Width)-outerW)/2, m.Y+(int32(m.Height)-outerH)/2

	x, y := left, top
	switch anchor {
	case "TopRight":
		x = right
	case "BottomLeft":
		y = bottom
	case "BottomRight":
		x, y = right, bottom
	case "TopCenter":
		x = midX
	case "BottomCenter":
		x, y = midX, bottom
	case "LeftCenter":
		y = midY
	case "RightCenter":
		x, y = right, midY
	case "Center":
		x, y = midX, midY
	}
	w.x, w.y = x, y+tb
	h.emitLocked(windowTarget(w.spec.Label), EventMoved, geometry.PhysicalPoint{X: w.x, Y: w.y})
}

// QueueDialogResponse sets the answer the next dialog command of kind cmd
// ("open", "save", "message", "ask", "confirm") returns.
func (h *Host) QueueDialogResponse(cmd string, response any) error {
	data, err := bridge.Encode(response)
	if err != nil {
		return err
	}
	if response == nil {
		data = json.RawMessage(`null`)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dialogs[cmd] = append(h.dialogs[cmd], data)
	return nil
}

// DialogRequest is a dialog invocation the host has seen.
type DialogRequest struct {
	Command string
	Args    json.RawMessage
}

// DialogRequests returns every dialog invocation so far.
func (h *Host) DialogRequests() []DialogRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]DialogRequest(nil), h.dialogLog...)
}

func dialogCommands() map[string]handlerFunc {
	answer := func(cmd string, fallback json.RawMessage, validate func(json.RawMessage) error) handlerFunc {
		return func(h *Host, _ ConnID, args json.RawMessage) (any, error) {
			if validate != nil {
				if err := validate(args); err != nil {
					return nil, err
				}
			}
			h.mu.Lock()
			defer h.mu.Unlock()
			h.dialogLog = append(h.dialogLog, DialogRequest{Command: cmd, Args: append(json.RawMessage(nil), args...)})
			if queued := h.dialogs[cmd]; len(queued) > 0 {
				h.dialogs[cmd] = queued[1:]
				return queued[0], nil
			}
			return fallback, nil
		}
	}
	needsMessage := func(args json.RawMessage) error {
		var req struct {
			Message *string `json:"message"`
		}
		if err := decodeArgs(args, &req); err != nil {
			return err
		}
		if req.Message == nil {
			return remote(errs.CodeInvalidArgs, "missing message")
		}
		return nil
	}
	null := json.RawMessage(`null`)
	no := json.RawMessage(`false`)
	return map[string]handlerFunc{
		"open":    answer("open", null, nil),
		"save":    answer("save", null, nil),
		"message": answer("message", null, needsMessage),
		"ask":     answer("ask", no, needsMessage),
		"confirm": answer("confirm", no, needsMessage),
	}
}
