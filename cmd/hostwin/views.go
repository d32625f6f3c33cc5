package main

import (
	"context"

	"github.com/GriffinCanCode/hostwin/internal/geometry"
	"github.com/GriffinCanCode/hostwin/internal/monitor"
	"github.com/GriffinCanCode/hostwin/internal/window"
)

type point struct {
	X int32 `json:"x" yaml:"x"`
	Y int32 `json:"y" yaml:"y"`
}

type extent struct {
	Width  uint32 `json:"width" yaml:"width"`
	Height uint32 `json:"height" yaml:"height"`
}

type monitorView struct {
	Name        string  `json:"name" yaml:"name"`
	Position    point   `json:"position" yaml:"position"`
	Size        extent  `json:"size" yaml:"size"`
	ScaleFactor float64 `json:"scaleFactor" yaml:"scaleFactor"`
}

func viewMonitor(m monitor.Monitor) monitorView {
	return monitorView{
		Name:        m.DisplayName(),
		Position:    viewPoint(m.Position),
		Size:        viewExtent(m.Size),
		ScaleFactor: m.ScaleFactor,
	}
}

func viewPoint(p geometry.Position) point { return point{X: p.X, Y: p.Y} }

func viewExtent(s geometry.Size) extent { return extent{Width: s.Width, Height: s.Height} }

// windowView is a physical-pixel snapshot of one window.
type windowView struct {
	Label       string  `json:"label" yaml:"label"`
	Title       string  `json:"title" yaml:"title"`
	Theme       string  `json:"theme" yaml:"theme"`
	ScaleFactor float64 `json:"scaleFactor" yaml:"scaleFactor"`
	Position    point   `json:"position" yaml:"position"`
	Size        extent  `json:"size" yaml:"size"`
	Visible     bool    `json:"visible" yaml:"visible"`
	Focused     bool    `json:"focused" yaml:"focused"`
	Maximized   bool    `json:"maximized" yaml:"maximized"`
	Minimized   bool    `json:"minimized" yaml:"minimized"`
	Fullscreen  bool    `json:"fullscreen" yaml:"fullscreen"`
	Decorated   bool    `json:"decorated" yaml:"decorated"`
	Resizable   bool    `json:"resizable" yaml:"resizable"`
}

// describe queries every field of windowView, one round-trip each.
func describe(ctx context.Context, w *window.Window) (windowView, error) {
	v := windowView{Label: w.Label()}
	var err error
	if v.Title, err = w.Title(ctx); err != nil {
		return v, err
	}
	theme, err := w.Theme(ctx)
	if err != nil {
		return v, err
	}
	v.Theme = string(theme)
	if v.ScaleFactor, err = w.ScaleFactor(ctx); err != nil {
		return v, err
	}
	pos, err := w.InnerPosition(ctx)
	if err != nil {
		return v, err
	}
	v.Position = viewPoint(pos)
	size, err := w.InnerSize(ctx)
	if err != nil {
		return v, err
	}
	v.Size = viewExtent(size)

	flags := []struct {
		dst   *bool
		query func(context.Context) (bool, error)
	}{
		{&v.Visible, w.IsVisible},
		{&v.Focused, w.IsFocused},
		{&v.Maximized, w.IsMaximized},
		{&v.Minimized, w.IsMinimized},
		{&v.Fullscreen, w.IsFullscreen},
		{&v.Decorated, w.IsDecorated},
		{&v.Resizable, w.IsResizable},
	}
	for _, f := range flags {
		if *f.dst, err = f.query(ctx); err != nil {
			return v, err
		}
	}
	return v, nil
}
