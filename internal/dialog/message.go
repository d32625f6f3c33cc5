package dialog

import (
	"context"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

// Kind is the severity icon of a message dialog.
type Kind string

const (
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

type messageOptions struct {
	Title       *string `json:"title,omitempty"`
	Kind        Kind    `json:"type"`
	OkLabel     *string `json:"okLabel,omitempty"`
	CancelLabel *string `json:"cancelLabel,omitempty"`
}

// MessageDialog stages a message, ask or confirm dialog.
type MessageDialog struct {
	bridge *bridge.Bridge
	opts   messageOptions
}

// Message starts a message dialog of kind info.
func (c *Client) Message() *MessageDialog {
	return &MessageDialog{bridge: c.bridge, opts: messageOptions{Kind: KindInfo}}
}

// Title sets the dialog title.
func (d *MessageDialog) Title(title string) *MessageDialog {
	d.opts.Title = &title
	return d
}

// Kind sets the severity icon.
func (d *MessageDialog) Kind(kind Kind) *MessageDialog {
	d.opts.Kind = kind
	return d
}

// OkLabel overrides the confirm button text.
func (d *MessageDialog) OkLabel(label string) *MessageDialog {
	d.opts.OkLabel = &label
	return d
}

// CancelLabel overrides the cancel button text.
func (d *MessageDialog) CancelLabel(label string) *MessageDialog {
	d.opts.CancelLabel = &label
	return d
}

func (d *MessageDialog) args(message string) (map[string]any, error) {
	switch d.opts.Kind {
	case KindInfo, KindWarning, KindError:
	default:
		return nil, errs.Configuration("kind", "unknown dialog kind %q", d.opts.Kind)
	}
	return map[string]any{"message": message, "options": d.opts}, nil
}

// Show displays message with a single button.
func (d *MessageDialog) Show(ctx context.Context, message string) error {
	args, err := d.args(message)
	if err != nil {
		return err
	}
	return d.bridge.Invoke(ctx, CmdMessage, args, nil)
}

// Ask shows a Yes/No dialog and reports whether Yes was chosen.
func (d *MessageDialog) Ask(ctx context.Context, message string) (bool, error) {
	return d.choose(ctx, CmdAsk, message)
}

// Confirm shows an Ok/Cancel dialog and reports whether Ok was chosen.
func (d *MessageDialog) Confirm(ctx context.Context, message string) (bool, error) {
	return d.choose(ctx, CmdConfirm, message)
}

func (d *MessageDialog) choose(ctx context.Context, cmd, message string) (bool, error) {
	args, err := d.args(message)
	if err != nil {
		return false, err
	}
	return bridge.Call[bool](ctx, d.bridge, cmd, args)
}
