package window

import (
	"strconv"

	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

// Theme is a window's color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) valid() bool { return t == ThemeLight || t == ThemeDark }

// TitleBarStyle controls macOS title bar rendering.
type TitleBarStyle string

const (
	TitleBarVisible     TitleBarStyle = "visible"
	TitleBarTransparent TitleBarStyle = "transparent"
	TitleBarOverlay     TitleBarStyle = "overlay"
)

func (s TitleBarStyle) valid() bool {
	switch s {
	case TitleBarVisible, TitleBarTransparent, TitleBarOverlay:
		return true
	}
	return false
}

// UserAttentionType is how urgently a window asks for the user.
// AttentionNone clears an outstanding request.
type UserAttentionType int

const (
	AttentionNone          UserAttentionType = 0
	AttentionCritical      UserAttentionType = 1
	AttentionInformational UserAttentionType = 2
)

// MarshalJSON encodes AttentionNone as null.
func (k UserAttentionType) MarshalJSON() ([]byte, error) {
	if k == AttentionNone {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, int64(k), 10), nil
}

func (k UserAttentionType) String() string {
	switch k {
	case AttentionNone:
		return "none"
	case AttentionCritical:
		return "critical"
	case AttentionInformational:
		return "informational"
	default:
		return "unknown"
	}
}

// CursorIcon is a cursor shape, named as the host names it.
type CursorIcon string

const (
	CursorDefault      CursorIcon = "default"
	CursorCrosshair    CursorIcon = "crosshair"
	CursorHand         CursorIcon = "hand"
	CursorArrow        CursorIcon = "arrow"
	CursorMove         CursorIcon = "move"
	CursorText         CursorIcon = "text"
	CursorWait         CursorIcon = "wait"
	CursorHelp         CursorIcon = "help"
	CursorProgress     CursorIcon = "progress"
	CursorNotAllowed   CursorIcon = "notAllowed"
	CursorContextMenu  CursorIcon = "contextMenu"
	CursorCell         CursorIcon = "cell"
	CursorVerticalText CursorIcon = "verticalText"
	CursorAlias        CursorIcon = "alias"
	CursorCopy         CursorIcon = "copy"
	CursorNoDrop       CursorIcon = "noDrop"
	CursorGrab         CursorIcon = "grab"
	CursorGrabbing     CursorIcon = "grabbing"
	CursorAllScroll    CursorIcon = "allScroll"
	CursorZoomIn       CursorIcon = "zoomIn"
	CursorZoomOut      CursorIcon = "zoomOut"
	CursorEResize      CursorIcon = "eResize"
	CursorNResize      CursorIcon = "nResize"
	CursorNeResize     CursorIcon = "neResize"
	CursorNwResize     CursorIcon = "nwResize"
	CursorSResize      CursorIcon = "sResize"
	CursorSeResize     CursorIcon = "seResize"
	CursorSwResize     CursorIcon = "swResize"
	CursorWResize      CursorIcon = "wResize"
	CursorEwResize     CursorIcon = "ewResize"
	CursorNsResize     CursorIcon = "nsResize"
	CursorNeswResize   CursorIcon = "neswResize"
	CursorNwseResize   CursorIcon = "nwseResize"
	CursorColResize    CursorIcon = "colResize"
	CursorRowResize    CursorIcon = "rowResize"
)

var cursorIcons = map[CursorIcon]struct{}{
	CursorDefault: {}, CursorCrosshair: {}, CursorHand: {}, CursorArrow: {},
	CursorMove: {}, CursorText: {}, CursorWait: {}, CursorHelp: {},
	CursorProgress: {}, CursorNotAllowed: {}, CursorContextMenu: {}, CursorCell: {},
	CursorVerticalText: {}, CursorAlias: {}, CursorCopy: {}, CursorNoDrop: {},
	CursorGrab: {}, CursorGrabbing: {}, CursorAllScroll: {}, CursorZoomIn: {},
	CursorZoomOut: {}, CursorEResize: {}, CursorNResize: {}, CursorNeResize: {},
	CursorNwResize: {}, CursorSResize: {}, CursorSeResize: {}, CursorSwResize: {},
	CursorWResize: {}, CursorEwResize: {}, CursorNsResize: {}, CursorNeswResize: {},
	CursorNwseResize: {}, CursorColResize: {}, CursorRowResize: {},
}

// CursorIcons returns every known icon.
func CursorIcons() []CursorIcon {
	out := make([]CursorIcon, 0, len(cursorIcons))
	for icon := range cursorIcons {
		out = append(out, icon)
	}
	return out
}

// ParseCursorIcon validates a wire name.
func ParseCursorIcon(s string) (CursorIcon, error) {
	icon := CursorIcon(s)
	if _, ok := cursorIcons[icon]; !ok {
		return "", errs.Configuration("cursor_icon", "unknown cursor icon %q", s)
	}
	return icon, nil
}

// Events hosts emit on a window's own target.
const (
	EventResized   = "tauri://resize"
	EventMoved     = "tauri://move"
	EventFocus     = "tauri://focus"
	EventBlur      = "tauri://blur"
	EventDestroyed = "tauri://destroyed"
	EventCreated   = "tauri://created"
)
