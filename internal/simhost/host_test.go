package simhost

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/geometry"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

type recorder struct {
	mu  sync.Mutex
	got []message
}

func (r *recorder) sink(_ bridge.CallbackID, payload json.RawMessage) {
	var m message
	if err := json.Unmarshal(payload, &m); err != nil {
		panic(err)
	}
	r.mu.Lock()
	r.got = append(r.got, m)
	r.mu.Unlock()
}

func (r *recorder) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.got))
	for _, m := range r.got {
		out = append(out, m.Event)
	}
	return out
}

func call(t *testing.T, h *Host, conn ConnID, cmd string, args any) (json.RawMessage, error) {
	t.Helper()
	raw, err := bridge.Encode(args)
	require.NoError(t, err)
	return h.Handle(context.Background(), conn, cmd, raw)
}

func mustCall(t *testing.T, h *Host, conn ConnID, cmd string, args any, out any) {
	t.Helper()
	raw, err := call(t, h, conn, cmd, args)
	require.NoError(t, err, cmd)
	if out != nil {
		require.NoError(t, json.Unmarshal(raw, out))
	}
}

func remoteCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	remoteErr, ok := err.(*bridge.RemoteError)
	require.True(t, ok, "expected *bridge.RemoteError, got %T", err)
	return remoteErr.Code
}

func newHost(t *testing.T) (*Host, ConnID, *recorder) {
	t.Helper()
	h := New(Options{Windows: []WindowSpec{DefaultWindow("main")}})
	rec := &recorder{}
	return h, h.Connect(rec.sink), rec
}

func TestNew_Defaults(t *testing.T) {
	h, _, _ := newHost(t)

	assert.Equal(t, []string{"main"}, h.Labels())
	require.Len(t, h.Monitors(), 1)

	w, ok := h.Window("main")
	require.True(t, ok)
	assert.Equal(t, geometry.NewPhysicalSize(1600, 1200), w.Size)
	assert.Equal(t, geometry.NewPhysicalPosition(0, 56), w.Position)
	assert.Equal(t, 2.0, w.ScaleFactor)
	assert.True(t, w.Focused)
	assert.True(t, w.Visible)
	assert.True(t, w.Decorated)
}

func TestCreate(t *testing.T) {
	h, conn, _ := newHost(t)

	size := geometry.NewLogicalSize(400, 300)
	spec := DefaultWindow("settings")
	spec.Size = &size
	spec.Center = true

	var label string
	mustCall(t, h, conn, "plugin:webview|createWebviewWindow", map[string]any{"options": spec}, &label)
	assert.Equal(t, "settings", label)

	w, ok := h.Window("settings")
	require.True(t, ok)
	assert.Equal(t, geometry.NewPhysicalSize(800, 600), w.Size)
	assert.Equal(t, []string{"main", "settings"}, h.Labels())
	assert.True(t, w.Focused)

	main, _ := h.Window("main")
	assert.False(t, main.Focused)
}

func TestCreate_RejectsWithoutSideEffects(t *testing.T) {
	theme := "sepia"
	tests := []struct {
		name string
		spec WindowSpec
	}{
		{"duplicate label", DefaultWindow("main")},
		{"empty label", DefaultWindow("")},
		{"bad label", DefaultWindow("has space")},
		{"unknown theme", func() WindowSpec {
			s := DefaultWindow("themed")
			s.Theme = &theme
			return s
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, conn, _ := newHost(t)
			_, err := call(t, h, conn, "plugin:webview|createWebviewWindow", map[string]any{"options": tt.spec})
			assert.Equal(t, errs.CodeInvalidArgs, remoteCode(t, err))
			assert.Equal(t, []string{"main"}, h.Labels())
		})
	}
}

func TestWindowOps(t *testing.T) {
	h, conn, _ := newHost(t)
	op := func(name string, value any, out any) {
		mustCall(t, h, conn, "plugin:window|"+name, map[string]any{"label": "main", "value": value}, out)
	}

	op("setTitle", "hello", nil)
	var title string
	op("title", nil, &title)
	assert.Equal(t, "hello", title)

	op("setSize", geometry.NewLogicalSize(500, 400), nil)
	var inner geometry.PhysicalExtent
	op("innerSize", nil, &inner)
	assert.Equal(t, geometry.PhysicalExtent{Width: 1000, Height: 800}, inner)

	var outer geometry.PhysicalExtent
	op("outerSize", nil, &outer)
	assert.Equal(t, geometry.PhysicalExtent{Width: 1000, Height: 856}, outer)

	op("setPosition", geometry.NewPhysicalPosition(100, 200), nil)
	var pos geometry.PhysicalPoint
	op("innerPosition", nil, &pos)
	assert.Equal(t, geometry.PhysicalPoint{X: 100, Y: 200}, pos)
	op("outerPosition", nil, &pos)
	assert.Equal(t, geometry.PhysicalPoint{X: 100, Y: 144}, pos)

	var scale float64
	op("scaleFactor", nil, &scale)
	assert.Equal(t, 2.0, scale)

	var flag bool
	op("toggleMaximize", nil, nil)
	op("isMaximized", nil, &flag)
	assert.True(t, flag)
	op("toggleMaximize", nil, nil)
	op("isMaximized", nil, &flag)
	assert.False(t, flag)
	op("innerSize", nil, &inner)
	assert.Equal(t, geometry.PhysicalExtent{Width: 1000, Height: 800}, inner)

	op("setResizable", false, nil)
	op("isResizable", nil, &flag)
	assert.False(t, flag)

	op("hide", nil, nil)
	op("isVisible", nil, &flag)
	assert.False(t, flag)

	op("requestUserAttention", 1, nil)
	w, _ := h.Window("main")
	require.NotNil(t, w.Attention)
	assert.Equal(t, 1, *w.Attention)
	op("requestUserAttention", nil, nil)
	w, _ = h.Window("main")
	assert.Nil(t, w.Attention)

	op("setIcon", []int{137, 80, 78, 71}, nil)
	w, _ = h.Window("main")
	assert.Equal(t, []byte{137, 80, 78, 71}, w.Icon)
}

func TestWindowOps_SizeBounds(t *testing.T) {
	h, conn, _ := newHost(t)
	op := func(name string, value any) {
		mustCall(t, h, conn, "plugin:window|"+name, map[string]any{"label": "main", "value": value}, nil)
	}

	op("setMaxSize", geometry.NewLogicalSize(300, 200))
	w, _ := h.Window("main")
	assert.Equal(t, geometry.NewPhysicalSize(600, 400), w.Size)

	op("setMaxSize", nil)
	op("setMinSize", geometry.NewPhysicalSize(1200, 900))
	w, _ = h.Window("main")
	assert.Equal(t, geometry.NewPhysicalSize(1200, 900), w.Size)
	assert.Nil(t, w.MaxSize)
}

func TestWindowOps_InvalidArgs(t *testing.T) {
	h, conn, _ := newHost(t)

	_, err := call(t, h, conn, "plugin:window|setTitle", map[string]any{"label": "main"})
	assert.Equal(t, errs.CodeInvalidArgs, remoteCode(t, err))

	_, err = call(t, h, conn, "plugin:window|requestUserAttention", map[string]any{"label": "main", "value": 7})
	assert.Equal(t, errs.CodeInvalidArgs, remoteCode(t, err))

	_, err = call(t, h, conn, "plugin:window|nope", map[string]any{"label": "main"})
	assert.Equal(t, errs.CodeUnknownCommand, remoteCode(t, err))
}

func TestClose(t *testing.T) {
	h, conn, rec := newHost(t)

	mustCall(t, h, conn, "plugin:event|listen", map[string]any{
		"event": EventDestroyed, "target": windowTarget("main"), "handler": 1,
	}, nil)
	mustCall(t, h, conn, "plugin:window|close", map[string]any{"label": "main"}, nil)

	assert.Empty(t, h.Labels())
	assert.Equal(t, []string{EventDestroyed}, rec.events())
	assert.Zero(t, h.Listeners())

	_, err := call(t, h, conn, "plugin:window|title", map[string]any{"label": "main"})
	assert.Equal(t, errs.CodeWindowNotFound, remoteCode(t, err))
}

func TestTargetReaches(t *testing.T) {
	win := windowTarget("a")
	tests := []struct {
		emit, listen Target
		want         bool
	}{
		{anyTarget, win, true},
		{win, anyTarget, true},
		{Target{Kind: "App"}, Target{Kind: "App"}, true},
		{Target{Kind: "App"}, win, false},
		{win, windowTarget("a"), true},
		{win, windowTarget("b"), false},
		{Target{Kind: "AnyLabel", Label: "a"}, Target{Kind: "Webview", Label: "a"}, true},
		{win, Target{Kind: "WebviewWindow", Label: "a"}, true},
		{win, Target{Kind: "Webview", Label: "a"}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.emit.reaches(tt.listen), "%+v -> %+v", tt.emit, tt.listen)
	}
}

func TestEvents_ListenEmitUnlisten(t *testing.T) {
	h, conn, rec := newHost(t)

	var id uint32
	mustCall(t, h, conn, "plugin:event|listen", map[string]any{
		"event": "ping", "target": anyTarget, "handler": 9,
	}, &id)
	assert.NotZero(t, id)

	mustCall(t, h, conn, "plugin:event|emit", map[string]any{"event": "ping", "payload": map[string]int{"n": 1}}, nil)
	mustCall(t, h, conn, "plugin:event|emit", map[string]any{"event": "other"}, nil)

	require.Len(t, rec.got, 1)
	assert.Equal(t, id, rec.got[0].ID)
	assert.JSONEq(t, `{"n":1}`, string(rec.got[0].Payload))

	mustCall(t, h, conn, "plugin:event|unlisten", map[string]any{"event": "ping", "eventId": id}, nil)
	_, err := call(t, h, conn, "plugin:event|unlisten", map[string]any{"event": "ping", "eventId": id})
	assert.Equal(t, errs.CodeListenerGone, remoteCode(t, err))

	mustCall(t, h, conn, "plugin:event|emit", map[string]any{"event": "ping"}, nil)
	assert.Len(t, rec.got, 1)
}

func TestEvents_ResizeAndMove(t *testing.T) {
	h, conn, rec := newHost(t)
	for i, ev := range []string{EventResized, EventMoved} {
		mustCall(t, h, conn, "plugin:event|listen", map[string]any{
			"event": ev, "target": windowTarget("main"), "handler": i + 1,
		}, nil)
	}

	mustCall(t, h, conn, "plugin:window|setSize", map[string]any{"label": "main", "value": geometry.NewPhysicalSize(640, 480)}, nil)
	mustCall(t, h, conn, "plugin:window|setPosition", map[string]any{"label": "main", "value": geometry.NewLogicalPosition(10, 20)}, nil)

	assert.Equal(t, []string{EventResized, EventMoved}, rec.events())
	var moved geometry.PhysicalPoint
	require.NoError(t, json.Unmarshal(rec.got[1].Payload, &moved))
	assert.Equal(t, geometry.PhysicalPoint{X: 20, Y: 40}, moved)
}

func TestDisconnect_DropsListeners(t *testing.T) {
	h, conn, rec := newHost(t)
	mustCall(t, h, conn, "plugin:event|listen", map[string]any{"event": "x", "handler": 1}, nil)
	require.Equal(t, 1, h.Listeners())

	h.Disconnect(conn)
	assert.Zero(t, h.Listeners())

	h.Emit(anyTarget, "x", nil)
	assert.Empty(t, rec.got)
}

func TestMonitors(t *testing.T) {
	h, conn, _ := newHost(t)
	h.SetMonitors([]Monitor{
		{Name: "left", Width: 1920, Height: 1080, ScaleFactor: 1, Primary: true},
		{Name: "right", X: 1920, Width: 3840, Height: 2160, ScaleFactor: 2},
	})

	var all []wireMonitor
	mustCall(t, h, conn, "plugin:window|availableMonitors", map[string]any{"label": "main"}, &all)
	require.Len(t, all, 2)
	assert.Equal(t, "right", *all[1].Name)
	assert.Equal(t, 2.0, all[1].ScaleFactor)

	mustCall(t, h, conn, "plugin:window|setPosition", map[string]any{"label": "main", "value": geometry.NewPhysicalPosition(2000, 100)}, nil)
	var current wireMonitor
	mustCall(t, h, conn, "plugin:window|currentMonitor", map[string]any{"label": "main"}, &current)
	assert.Equal(t, "right", *current.Name)

	var primary wireMonitor
	mustCall(t, h, conn, "plugin:window|primaryMonitor", map[string]any{"label": "main"}, &primary)
	assert.Equal(t, "left", *primary.Name)

	mustCall(t, h, conn, "plugin:window|setPosition", map[string]any{"label": "main", "value": geometry.NewPhysicalPosition(-5000, 0)}, nil)
	raw, err := call(t, h, conn, "plugin:window|currentMonitor", map[string]any{"label": "main"})
	require.NoError(t, err)
	assert.True(t, bridge.IsNull(raw))
}

func TestCollaborators(t *testing.T) {
	locale := "en-US"
	h := New(Options{
		OS:      OSInfo{Platform: "windows", Arch: "x86_64", Hostname: "box", Locale: &locale},
		Windows: []WindowSpec{DefaultWindow("main")},
	})
	conn := h.Connect(func(bridge.CallbackID, json.RawMessage) {})

	str := func(cmd string) string {
		var s string
		mustCall(t, h, conn, cmd, nil, &s)
		return s
	}
	assert.Equal(t, "windows", str("plugin:os|platform"))
	assert.Equal(t, "windows", str("plugin:os|family"))
	assert.Equal(t, "windows", str("plugin:os|os_type"))
	assert.Equal(t, "exe", str("plugin:os|exe_extension"))
	assert.Equal(t, "box", str("plugin:os|hostname"))
	assert.Equal(t, "en-US", str("plugin:os|locale"))
	assert.Equal(t, "devhost", str("plugin:app|name"))

	mustCall(t, h, conn, "plugin:app|hide", nil, nil)
	assert.True(t, h.AppHidden())

	mustCall(t, h, conn, "plugin:process|exit", map[string]int{"code": 3}, nil)
	mustCall(t, h, conn, "plugin:process|restart", nil, nil)
	assert.Equal(t, ProcessState{ExitCode: 3, Restarts: 1}, h.Process())
}

func TestMoveWindow(t *testing.T) {
	h, conn, _ := newHost(t)

	mustCall(t, h, conn, "plugin:positioner|move_window", map[string]any{"position": 3, "label": "main"}, nil)
	w, _ := h.Window("main")
	// bottom right: 2880-1600, 1800-(1200+56) then back below the title bar
	assert.Equal(t, geometry.NewPhysicalPosition(1280, 600), w.Position)

	_, err := call(t, h, conn, "plugin:positioner|move_window", map[string]any{"position": 42})
	assert.Equal(t, errs.CodeInvalidArgs, remoteCode(t, err))
}

func TestDialogs(t *testing.T) {
	h, conn, _ := newHost(t)

	raw, err := call(t, h, conn, "plugin:dialog|open", map[string]any{"options": map[string]any{}})
	require.NoError(t, err)
	assert.True(t, bridge.IsNull(raw))

	require.NoError(t, h.QueueDialogResponse("ask", true))
	var yes bool
	mustCall(t, h, conn, "plugin:dialog|ask", map[string]any{"message": "sure?"}, &yes)
	assert.True(t, yes)
	mustCall(t, h, conn, "plugin:dialog|ask", map[string]any{"message": "sure?"}, &yes)
	assert.False(t, yes)

	_, err = call(t, h, conn, "plugin:dialog|message", map[string]any{})
	assert.Equal(t, errs.CodeInvalidArgs, remoteCode(t, err))

	reqs := h.DialogRequests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "open", reqs[0].Command)
}

func TestCommands(t *testing.T) {
	h, _, _ := newHost(t)
	cmds := h.Commands()
	assert.Contains(t, cmds, "plugin:window|toggleMaximize")
	assert.Contains(t, cmds, "plugin:event|listen")
	assert.Contains(t, cmds, "plugin:os|os_type")
	assert.Contains(t, cmds, "plugin:positioner|move_window")
	assert.IsIncreasing(t, cmds)
}
