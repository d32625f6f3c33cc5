package appctl

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

const (
	CmdVersion      = "plugin:app|version"
	CmdName         = "plugin:app|name"
	CmdTauriVersion = "plugin:app|tauri_version"
	CmdShow         = "plugin:app|show"
	CmdHide         = "plugin:app|hide"
	CmdExit         = "plugin:process|exit"
	CmdRestart      = "plugin:process|restart"
	CmdMoveWindow   = "plugin:positioner|move_window"
)

// Client controls the host application and process.
type Client struct {
	bridge *bridge.Bridge
}

// New returns an app client bound to b.
func New(b *bridge.Bridge) *Client { return &Client{bridge: b} }

// Version returns the application version.
func (c *Client) Version(ctx context.Context) (string, error) {
	return bridge.Call[string](ctx, c.bridge, CmdVersion, nil)
}

// Name returns the application name.
func (c *Client) Name(ctx context.Context) (string, error) {
	return bridge.Call[string](ctx, c.bridge, CmdName, nil)
}

// RuntimeVersion returns the version of the host runtime itself.
func (c *Client) RuntimeVersion(ctx context.Context) (string, error) {
	return bridge.Call[string](ctx, c.bridge, CmdTauriVersion, nil)
}

// Show reveals every application window (macOS).
func (c *Client) Show(ctx context.Context) error {
	return c.bridge.Invoke(ctx, CmdShow, nil, nil)
}

// Hide hides the application without closing windows (macOS).
func (c *Client) Hide(ctx context.Context) error {
	return c.bridge.Invoke(ctx, CmdHide, nil, nil)
}

// Exit asks the host to terminate with code.
func (c *Client) Exit(ctx context.Context, code int) error {
	return c.bridge.Invoke(ctx, CmdExit, map[string]int{"code": code}, nil)
}

// Relaunch asks the host to restart the application.
func (c *Client) Relaunch(ctx context.Context) error {
	return c.bridge.Invoke(ctx, CmdRestart, nil, nil)
}

// Position is a screen anchor for MoveWindow.
type Position int

const (
	TopLeft Position = iota
	TopRight
	BottomLeft
	BottomRight
	TopCenter
	BottomCenter
	LeftCenter
	RightCenter
	Center
)

var positionNames = [...]string{
	"top-left", "top-right", "bottom-left", "bottom-right",
	"top-center", "bottom-center", "left-center", "right-center", "center",
}

func (p Position) String() string {
	if p < 0 || int(p) >= len(positionNames) {
		return fmt.Sprintf("Position(%d)", int(p))
	}
	return positionNames[p]
}

// ParsePosition accepts the kebab-case names String returns.
func ParsePosition(s string) (Position, error) {
	for i, name := range positionNames {
		if name == s {
			return Position(i), nil
		}
	}
	return 0, errs.Configuration("position", "unknown position %q", s)
}

// MoveWindow snaps the labelled window to an anchor of its monitor. An
// empty label targets the host's main window.
func (c *Client) MoveWindow(ctx context.Context, label string, to Position) error {
	if to < TopLeft || to > Center {
		return errs.Configuration("position", "unknown position %d", int(to))
	}
	args := map[string]any{"position": int(to)}
	if label != "" {
		args["label"] = label
	}
	err := c.bridge.Invoke(ctx, CmdMoveWindow, args, nil)
	var hbe *errs.HostBridgeError
	if errors.As(err, &hbe) && hbe.Label == "" {
		hbe.Label = label
	}
	return err
}
