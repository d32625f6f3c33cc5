package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// TargetKind selects which listeners an event reaches.
type TargetKind string

const (
	KindAny           TargetKind = "Any"
	KindAnyLabel      TargetKind = "AnyLabel"
	KindApp           TargetKind = "App"
	KindWindow        TargetKind = "Window"
	KindWebview       TargetKind = "Webview"
	KindWebviewWindow TargetKind = "WebviewWindow"
)

// Target identifies the scope of an emit or a listen.
type Target struct {
	Kind  TargetKind `json:"kind"`
	Label string     `json:"label,omitempty"`
}

// AnyTarget matches every listener.
func AnyTarget() Target { return Target{Kind: KindAny} }

// AppTarget matches app-level listeners only.
func AppTarget() Target { return Target{Kind: KindApp} }

// LabelTarget matches any window or webview carrying label.
func LabelTarget(label string) Target { return Target{Kind: KindAnyLabel, Label: label} }

// WindowTarget matches the window labelled label.
func WindowTarget(label string) Target { return Target{Kind: KindWindow, Label: label} }

// WebviewTarget matches the webview labelled label.
func WebviewTarget(label string) Target { return Target{Kind: KindWebview, Label: label} }

// WebviewWindowTarget matches the webview window labelled label.
func WebviewWindowTarget(label string) Target {
	return Target{Kind: KindWebviewWindow, Label: label}
}

// Labelled reports whether the kind requires a label.
func (k TargetKind) Labelled() bool {
	switch k {
	case KindAnyLabel, KindWindow, KindWebview, KindWebviewWindow:
		return true
	default:
		return false
	}
}

func (t Target) String() string {
	if t.Label == "" {
		return string(t.Kind)
	}
	return fmt.Sprintf("%s(%s)", t.Kind, t.Label)
}

// Message is an event as the host delivers it, payload still encoded.
type Message struct {
	Event   string          `json:"event"`
	ID      uint32          `json:"id"`
	Payload json.RawMessage `json:"payload"`
	Target  *Target         `json:"target,omitempty"`
}

// Event is a delivered event with a decoded payload.
type Event[T any] struct {
	Event   string
	ID      uint32
	Payload T
	Target  *Target
}

// Cancel unregisters a subscription. The first call does the work; later
// calls return nil. It reports success when the host side is already gone.
type Cancel func(ctx context.Context) error
