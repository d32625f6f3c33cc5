package simhost

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/hostwin/internal/geometry"
)

// Topology is the TOML description of a simulated desktop:
//
//	[[monitor]]
//	name = "DP-1"
//	width = 2560
//	height = 1440
//	scale_factor = 1.0
//	primary = true
//
//	[[window]]
//	label = "main"
//	title = "Main"
//	width = 800
//	height = 600
//	center = true
type Topology struct {
	Monitors []Monitor     `toml:"monitor"`
	OS       OSInfo        `toml:"os"`
	App      AppInfo       `toml:"app"`
	Windows  []WindowEntry `toml:"window"`
}

// WindowEntry is a window opened at startup. Geometry is logical.
type WindowEntry struct {
	Label       string `toml:"label"`
	Title       string `toml:"title"`
	URL         string `toml:"url"`
	X           *int32 `toml:"x"`
	Y           *int32 `toml:"y"`
	Width       uint32 `toml:"width"`
	Height      uint32 `toml:"height"`
	Center      bool   `toml:"center"`
	Maximized   bool   `toml:"maximized"`
	Fullscreen  bool   `toml:"fullscreen"`
	Hidden      bool   `toml:"hidden"`
	Undecorated bool   `toml:"undecorated"`
}

// Spec converts the entry to a creation request.
func (e WindowEntry) Spec() WindowSpec {
	spec := DefaultWindow(e.Label)
	if e.Title != "" {
		title := e.Title
		spec.Title = &title
	}
	if e.URL != "" {
		u := e.URL
		spec.URL = &u
	}
	if e.X != nil && e.Y != nil {
		pos := geometry.NewLogicalPosition(*e.X, *e.Y)
		spec.Position = &pos
	}
	if e.Width > 0 && e.Height > 0 {
		size := geometry.NewLogicalSize(e.Width, e.Height)
		spec.Size = &size
	}
	spec.Center = e.Center
	spec.Maximized = e.Maximized
	spec.Fullscreen = e.Fullscreen
	spec.Visible = !e.Hidden
	spec.Focus = !e.Hidden
	spec.Decorations = !e.Undecorated
	return spec
}

// ParseTopology decodes a TOML topology and checks its monitors.
func ParseTopology(data []byte) (Topology, error) {
	var topo Topology
	if err := toml.Unmarshal(data, &topo); err != nil {
		return Topology{}, fmt.Errorf("parse topology: %w", err)
	}
	for i, m := range topo.Monitors {
		if m.Width == 0 || m.Height == 0 {
			return Topology{}, fmt.Errorf("monitor %d: empty size", i)
		}
		if err := geometry.ValidateScaleFactor(m.ScaleFactor); err != nil {
			return Topology{}, fmt.Errorf("monitor %d: %w", i, err)
		}
	}
	return topo, nil
}

// LoadTopology reads and parses a topology file.
func LoadTopology(path string) (Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Topology{}, fmt.Errorf("read topology: %w", err)
	}
	return ParseTopology(data)
}

// Encode renders the topology as TOML.
func (t Topology) Encode() ([]byte, error) {
	return toml.Marshal(t)
}

// Apply copies the topology into opts. Monitors and windows replace what
// opts already holds; OS and app info are merged field by field.
func (t Topology) Apply(opts *Options) {
	if len(t.Monitors) > 0 {
		opts.Monitors = t.Monitors
	}
	if len(t.Windows) > 0 {
		opts.Windows = nil
		for _, w := range t.Windows {
			opts.Windows = append(opts.Windows, w.Spec())
		}
	}
	mergeString(&opts.OS.Arch, t.OS.Arch)
	mergeString(&opts.OS.Platform, t.OS.Platform)
	mergeString(&opts.OS.Family, t.OS.Family)
	mergeString(&opts.OS.Type, t.OS.Type)
	mergeString(&opts.OS.Version, t.OS.Version)
	mergeString(&opts.OS.ExeExtension, t.OS.ExeExtension)
	mergeString(&opts.OS.Hostname, t.OS.Hostname)
	if t.OS.Locale != nil {
		opts.OS.Locale = t.OS.Locale
	}
	mergeString(&opts.App.Name, t.App.Name)
	mergeString(&opts.App.Version, t.App.Version)
	mergeString(&opts.App.TauriVersion, t.App.TauriVersion)
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}
