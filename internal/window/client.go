package window

import (
	"context"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/events"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

const (
	CmdAllWindows = "plugin:window|getAllWindows"

	// DefaultLabel is the label hosts give the first window.
	DefaultLabel = "main"
)

// Client hands out window handles and builders over one bridge.
type Client struct {
	bridge   *bridge.Bridge
	registry *events.Registry
	current  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithCurrentLabel names the window Current returns.
func WithCurrentLabel(label string) ClientOption {
	return func(c *Client) {
		if label != "" {
			c.current = label
		}
	}
}

// WithRegistry shares an existing subscription registry.
func WithRegistry(reg *events.Registry) ClientOption {
	return func(c *Client) { c.registry = reg }
}

// NewClient creates a client. Without WithRegistry it owns a new registry
// using the bridge's logger and metrics.
func NewClient(b *bridge.Bridge, opts ...ClientOption) *Client {
	c := &Client{bridge: b, current: DefaultLabel}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = events.NewRegistry(b,
			events.WithLogger(b.Logger()),
			events.WithMetrics(b.Metrics()))
	}
	return c
}

// Events returns the registry backing every handle of this client.
func (c *Client) Events() *events.Registry { return c.registry }

// Global returns the app-wide emitter.
func (c *Client) Global() *events.Emitter { return c.registry.Global() }

// Current returns a handle for the window this process belongs to.
func (c *Client) Current() *Window { return c.Window(c.current) }

// Window returns a handle for label without checking that it exists.
func (c *Client) Window(label string) *Window {
	return newWindow(c.bridge, c.registry, label)
}

// GetByLabel returns a handle for label, or nil when no such window exists.
func (c *Client) GetByLabel(ctx context.Context, label string) (*Window, error) {
	labels, err := c.Labels(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(labels, label) {
		return nil, nil
	}
	return c.Window(label), nil
}

// Labels lists open windows in creation order.
func (c *Client) Labels(ctx context.Context) ([]string, error) {
	return bridge.Call[[]string](ctx, c.bridge, CmdAllWindows, nil)
}

// All returns a handle for every open window.
func (c *Client) All(ctx context.Context) ([]*Window, error) {
	labels, err := c.Labels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Window, 0, len(labels))
	for _, l := range labels {
		out = append(out, c.Window(l))
	}
	return out, nil
}

// Matching returns handles for open windows whose label matches a glob
// pattern. Labels are matched as slash-separated paths, so "editor/*"
// matches "editor/1" but not "editor/1/preview"; "editor/**" matches both.
func (c *Client) Matching(ctx context.Context, pattern string) ([]*Window, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, errs.Configuration("pattern", "invalid glob %q", pattern)
	}
	labels, err := c.Labels(ctx)
	if err != nil {
		return nil, err
	}
	var out []*Window
	for _, l := range labels {
		if ok, _ := doublestar.Match(pattern, l); ok {
			out = append(out, c.Window(l))
		}
	}
	return out, nil
}

// NewBuilder starts a window configuration for label.
func (c *Client) NewBuilder(label string) *Builder {
	return newBuilder(c.bridge, c.registry, label)
}
