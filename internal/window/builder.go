package window

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/events"
	"github.com/GriffinCanCode/hostwin/internal/geometry"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

// CmdCreate creates a webview window.
const CmdCreate = "plugin:webview|createWebviewWindow"

// Config is the creation request the host receives, staged field by field.
type Config struct {
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
	Theme             *Theme             `json:"theme"`
	TitleBarStyle     *TitleBarStyle     `json:"title_bar_style"`
	HiddenTitle       bool               `json:"hidden_title"`
	AcceptFirstMouse  bool               `json:"accept_first_mouse"`
	TabbingIdentifier *string            `json:"tabbing_identifier"`
	UserAgent         *string            `json:"user_agent"`
}

// Builder stages a window configuration. Setters overwrite earlier values
// and never contact the host; Build sends a single creation request.
type Builder struct {
	bridge   *bridge.Bridge
	registry *events.Registry
	cfg      Config
}

func newBuilder(b *bridge.Bridge, reg *events.Registry, label string) *Builder {
	return &Builder{
		bridge:   b,
		registry: reg,
		cfg: Config{
			Label:           label,
			Resizable:       true,
			Focus:           true,
			Visible:         true,
			Decorations:     true,
			FileDropEnabled: true,
		},
	}
}

// Config returns a copy of the staged configuration.
func (b *Builder) Config() Config { return b.cfg }

// URL sets the page the webview loads.
func (b *Builder) URL(u string) *Builder {
	b.cfg.URL = &u
	return b
}

// Center places the window in the middle of its monitor.
func (b *Builder) Center() *Builder {
	b.cfg.Center = true
	return b
}

// Position sets the initial outer position.
func (b *Builder) Position(p geometry.Position) *Builder {
	b.cfg.Position = &p
	return b
}

// Size sets the initial inner size.
func (b *Builder) Size(s geometry.Size) *Builder {
	b.cfg.Size = &s
	return b
}

// MinSize sets the minimum inner size.
func (b *Builder) MinSize(s geometry.Size) *Builder {
	b.cfg.MinSize = &s
	return b
}

// MaxSize sets the maximum inner size.
func (b *Builder) MaxSize(s geometry.Size) *Builder {
	b.cfg.MaxSize = &s
	return b
}

// Resizable sets whether the user may resize the window.
func (b *Builder) Resizable(v bool) *Builder {
	b.cfg.Resizable = v
	return b
}

// Title sets the window title.
func (b *Builder) Title(t string) *Builder {
	b.cfg.Title = &t
	return b
}

// Fullscreen opens the window fullscreen.
func (b *Builder) Fullscreen(v bool) *Builder {
	b.cfg.Fullscreen = v
	return b
}

// Focus gives the new window input focus.
func (b *Builder) Focus(v bool) *Builder {
	b.cfg.Focus = v
	return b
}

// Transparent makes the window background transparent.
func (b *Builder) Transparent(v bool) *Builder {
	b.cfg.Transparent = v
	return b
}

// Maximized opens the window maximized.
func (b *Builder) Maximized(v bool) *Builder {
	b.cfg.Maximized = v
	return b
}

// Visible sets whether the window is shown on creation.
func (b *Builder) Visible(v bool) *Builder {
	b.cfg.Visible = v
	return b
}

// Decorations toggles the title bar and borders.
func (b *Builder) Decorations(v bool) *Builder {
	b.cfg.Decorations = v
	return b
}

// AlwaysOnTop keeps the window above others.
func (b *Builder) AlwaysOnTop(v bool) *Builder {
	b.cfg.AlwaysOnTop = v
	return b
}

// SkipTaskbar hides the window from the taskbar.
func (b *Builder) SkipTaskbar(v bool) *Builder {
	b.cfg.SkipTaskbar = v
	return b
}

// FileDropEnabled lets the webview receive dropped files.
func (b *Builder) FileDropEnabled(v bool) *Builder {
	b.cfg.FileDropEnabled = v
	return b
}

// Theme forces a light or dark theme.
func (b *Builder) Theme(t Theme) *Builder {
	b.cfg.Theme = &t
	return b
}

// TitleBarStyle sets the macOS title bar style.
func (b *Builder) TitleBarStyle(s TitleBarStyle) *Builder {
	b.cfg.TitleBarStyle = &s
	return b
}

// HiddenTitle hides the title text on macOS.
func (b *Builder) HiddenTitle(v bool) *Builder {
	b.cfg.HiddenTitle = v
	return b
}

// AcceptFirstMouse lets the first click on an inactive window reach the page.
func (b *Builder) AcceptFirstMouse(v bool) *Builder {
	b.cfg.AcceptFirstMouse = v
	return b
}

// TabbingIdentifier groups windows into macOS tabs.
func (b *Builder) TabbingIdentifier(id string) *Builder {
	b.cfg.TabbingIdentifier = &id
	return b
}

// UserAgent overrides the webview user agent.
func (b *Builder) UserAgent(ua string) *Builder {
	b.cfg.UserAgent = &ua
	return b
}

// Validate checks the staged configuration without contacting the host.
func (b *Builder) Validate() error {
	cfg := b.cfg
	if err := ValidateLabel(cfg.Label); err != nil {
		return err
	}
	if cfg.URL != nil {
		if err := validateURL(*cfg.URL); err != nil {
			return err
		}
	}
	if cfg.Position != nil {
		if err := checkUnit("position", cfg.Position.Unit); err != nil {
			return err
		}
	}
	sizes := []struct {
		field string
		size  *geometry.Size
	}{{"size", cfg.Size}, {"min_size", cfg.MinSize}, {"max_size", cfg.MaxSize}}
	for _, s := range sizes {
		if s.size == nil {
			continue
		}
		if err := checkUnit(s.field, s.size.Unit); err != nil {
			return err
		}
		if s.size.Width == 0 || s.size.Height == 0 {
			return errs.Configuration(s.field, "%s has a zero dimension", s.size)
		}
	}
	if lo, hi := cfg.MinSize, cfg.MaxSize; lo != nil && hi != nil && lo.Unit == hi.Unit {
		if lo.Width > hi.Width || lo.Height > hi.Height {
			return errs.Configuration("min_size", "%s exceeds max_size %s", lo, hi)
		}
	}
	if cfg.Theme != nil && !cfg.Theme.valid() {
		return errs.Configuration("theme", "unknown theme %q", *cfg.Theme)
	}
	if cfg.TitleBarStyle != nil && !cfg.TitleBarStyle.valid() {
		return errs.Configuration("title_bar_style", "unknown title bar style %q", *cfg.TitleBarStyle)
	}
	return nil
}

// Build validates the configuration and asks the host to create the window.
// The host creates the whole window or nothing.
func (b *Builder) Build(ctx context.Context) (*Window, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	label, err := bridge.Call[string](ctx, b.bridge, CmdCreate, map[string]any{"options": b.cfg})
	if err != nil {
		return nil, err
	}
	if label != b.cfg.Label {
		return nil, &errs.HostBridgeError{
			Op:      CmdCreate,
			Label:   b.cfg.Label,
			Message: fmt.Sprintf("host created window %q", label),
		}
	}
	b.bridge.Logger().Debug("window created", zap.String("window", label))
	return newWindow(b.bridge, b.registry, label), nil
}

// ValidateLabel checks a window label: non-empty ASCII alphanumerics plus
// '-', '/', ':' and '_'.
func ValidateLabel(label string) error {
	if label == "" {
		return errs.Configuration("label", "label is empty")
	}
	for _, c := range label {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '/', c == ':', c == '_':
		default:
			return errs.Configuration("label", "invalid character %q in label %q", c, label)
		}
	}
	return nil
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errs.Configuration("url", "url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return &errs.ConfigurationError{Field: "url", Err: err}
	}
	if u.Scheme == "" && u.Host != "" {
		return errs.Configuration("url", "url %q has a host but no scheme", raw)
	}
	return nil
}
