package monitor

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/geometry"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

const (
	CmdCurrent   = "plugin:window|currentMonitor"
	CmdPrimary   = "plugin:window|primaryMonitor"
	CmdAvailable = "plugin:window|availableMonitors"
)

// Monitor is a snapshot of one display. Size and Position are physical.
type Monitor struct {
	Name        *string
	Size        geometry.Size
	Position    geometry.Position
	ScaleFactor float64
}

// DisplayName returns the monitor name or "" when the host has none.
func (m Monitor) DisplayName() string {
	if m.Name == nil {
		return ""
	}
	return *m.Name
}

// LogicalSize converts Size using the monitor's own scale factor.
func (m Monitor) LogicalSize() (geometry.Size, error) {
	return m.Size.ToLogical(m.ScaleFactor)
}

// Contains reports whether the physical point p lies on the monitor.
func (m Monitor) Contains(p geometry.Position) bool {
	if p.Unit != geometry.Physical {
		return false
	}
	return p.X >= m.Position.X && p.Y >= m.Position.Y &&
		int64(p.X) < int64(m.Position.X)+int64(m.Size.Width) &&
		int64(p.Y) < int64(m.Position.Y)+int64(m.Size.Height)
}

func (m Monitor) String() string {
	name := m.DisplayName()
	if name == "" {
		name = "unnamed"
	}
	return fmt.Sprintf("%s %s at %s x%g", name, m.Size, m.Position, m.ScaleFactor)
}

type wireMonitor struct {
	Name        *string                 `json:"name"`
	Size        geometry.PhysicalExtent `json:"size"`
	Position    geometry.PhysicalPoint  `json:"position"`
	ScaleFactor float64                 `json:"scaleFactor"`
}

func (w wireMonitor) monitor() (Monitor, error) {
	if err := geometry.ValidateScaleFactor(w.ScaleFactor); err != nil {
		return Monitor{}, err
	}
	return Monitor{
		Name:        w.Name,
		Size:        w.Size.Size(),
		Position:    w.Position.Position(),
		ScaleFactor: w.ScaleFactor,
	}, nil
}

// Monitors is the monitor list as the host reported it at query time.
// It does not follow later topology changes.
type Monitors struct {
	items []Monitor
}

// Len returns the number of monitors in the snapshot.
func (ms Monitors) Len() int { return len(ms.items) }

// All yields the snapshot in host order. It may be ranged over repeatedly.
func (ms Monitors) All() iter.Seq[Monitor] {
	return func(yield func(Monitor) bool) {
		for _, m := range ms.items {
			if !yield(m) {
				return
			}
		}
	}
}

// Slice returns a copy of the snapshot.
func (ms Monitors) Slice() []Monitor {
	return append([]Monitor(nil), ms.items...)
}

type labelArgs struct {
	Label string `json:"label"`
}

// Current returns the monitor the labelled window is on, or nil when the
// host cannot tell.
func Current(ctx context.Context, b *bridge.Bridge, label string) (*Monitor, error) {
	return optional(ctx, b, CmdCurrent, label)
}

// Primary returns the primary monitor, or nil when the host has none.
func Primary(ctx context.Context, b *bridge.Bridge, label string) (*Monitor, error) {
	return optional(ctx, b, CmdPrimary, label)
}

// Available returns every monitor the host knows of.
func Available(ctx context.Context, b *bridge.Bridge, label string) (Monitors, error) {
	var wire []wireMonitor
	if err := b.Invoke(ctx, CmdAvailable, labelArgs{Label: label}, &wire); err != nil {
		return Monitors{}, withLabel(err, label)
	}
	items := make([]Monitor, 0, len(wire))
	for i, w := range wire {
		m, err := w.monitor()
		if err != nil {
			return Monitors{}, &errs.SerializationError{
				Op:  CmdAvailable,
				Err: fmt.Errorf("monitor %d: %w", i, err),
			}
		}
		items = append(items, m)
	}
	return Monitors{items: items}, nil
}

func optional(ctx context.Context, b *bridge.Bridge, cmd, label string) (*Monitor, error) {
	raw, err := b.InvokeRaw(ctx, cmd, labelArgs{Label: label})
	if err != nil {
		return nil, withLabel(err, label)
	}
	if bridge.IsNull(raw) {
		return nil, nil
	}
	var w wireMonitor
	if err := bridge.Decode(raw, &w); err != nil {
		return nil, &errs.SerializationError{Op: cmd, Err: err}
	}
	m, err := w.monitor()
	if err != nil {
		return nil, &errs.SerializationError{Op: cmd, Err: err}
	}
	return &m, nil
}

func withLabel(err error, label string) error {
	var hbe *errs.HostBridgeError
	if errors.As(err, &hbe) && hbe.Label == "" {
		hbe.Label = label
	}
	return err
}
