package simhost

import (
	"github.com/GriffinCanCode/hostwin/internal/geometry"
)

// Monitor describes one simulated display in physical pixels.
type Monitor struct {
	Name        string  `toml:"name" json:"name"`
	X           int32   `toml:"x" json:"x"`
	Y           int32   `toml:"y" json:"y"`
	Width       uint32  `toml:"width" json:"width"`
	Height      uint32  `toml:"height" json:"height"`
	ScaleFactor float64 `toml:"scale_factor" json:"scale_factor"`
	Primary     bool    `toml:"primary" json:"primary"`
}

// DefaultMonitors is a single 2x laptop panel.
func DefaultMonitors() []Monitor {
	return []Monitor{{
		Name:        "Built-in Retina Display",
		Width:       2880,
		Height:      1800,
		ScaleFactor: 2,
		Primary:     true,
	}}
}

// contains reports whether the physical point lies on m.
func (m Monitor) contains(x, y int32) bool {
	return int64(x) >= int64(m.X) && int64(x) < int64(m.X)+int64(m.Width) &&
		int64(y) >= int64(m.Y) && int64(y) < int64(m.Y)+int64(m.Height)
}

// wireMonitor is the monitor shape on the wire.
type wireMonitor struct {
	Name        *string                 `json:"name"`
	Size        geometry.PhysicalExtent `json:"size"`
	Position    geometry.PhysicalPoint  `json:"position"`
	ScaleFactor float64                 `json:"scaleFactor"`
}

func (m Monitor) wire() wireMonitor {
	var name *string
	if m.Name != "" {
		n := m.Name
		name = &n
	}
	return wireMonitor{
		Name:        name,
		Size:        geometry.PhysicalExtent{Width: m.Width, Height: m.Height},
		Position:    geometry.PhysicalPoint{X: m.X, Y: m.Y},
		ScaleFactor: m.ScaleFactor,
	}
}

// SetMonitors replaces the display topology. Windows keep their physical
// geometry and pick up the scale factor of the monitor they now sit on.
func (h *Host) SetMonitors(monitors []Monitor) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.monitors = append([]Monitor(nil), monitors...)
}

// Monitors returns the current topology.
func (h *Host) Monitors() []Monitor {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Monitor(nil), h.monitors...)
}

// primaryLocked returns the primary monitor, or the first one.
func (h *Host) primaryLocked() (Monitor, bool) {
	if len(h.monitors) == 0 {
		return Monitor{}, false
	}
	for _, m := range h.monitors {
		if m.Primary {
			return m, true
		}
	}
	return h.monitors[0], true
}

// monitorAtLocked returns the monitor containing the point.
func (h *Host) monitorAtLocked(x, y int32) (Monitor, bool) {
	for _, m := range h.monitors {
		if m.contains(x, y) {
			return m, true
		}
	}
	return Monitor{}, false
}

// scaleAtLocked is the scale factor for a window whose inner area starts at (x, y).
func (h *Host) scaleAtLocked(x, y int32) float64 {
	if m, ok := h.monitorAtLocked(x, y); ok && m.ScaleFactor > 0 {
		return m.ScaleFactor
	}
	if m, ok := h.primaryLocked(); ok && m.ScaleFactor > 0 {
		return m.ScaleFactor
	}
	return 1
}
