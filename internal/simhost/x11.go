package simhost

import (
	"fmt"
	"math"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// baseDPI is the density that maps to scale factor 1.
const baseDPI = 96.0

// MonitorsFromX11 reads the active CRTCs of an X server through RandR.
// An empty display uses $DISPLAY.
func MonitorsFromX11(display string) ([]Monitor, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	defer conn.Close()

	if err := randr.Init(conn); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}
	root := xproto.Setup(conn).DefaultScreen(conn).Root

	resources, err := randr.GetScreenResources(conn, root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(conn, root).Reply(); err == nil {
		primary = reply.Output
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(conn, crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		// disabled
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		m := Monitor{
			Name:        fmt.Sprintf("Monitor%d", i),
			X:           int32(info.X),
			Y:           int32(info.Y),
			Width:       uint32(info.Width),
			Height:      uint32(info.Height),
			ScaleFactor: 1,
			Primary:     info.Outputs[0] == primary,
		}
		if out, err := randr.GetOutputInfo(conn, info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			m.Name = string(out.Name)
			m.ScaleFactor = scaleForDensity(uint32(info.Width), out.MmWidth)
		}
		monitors = append(monitors, m)
	}
	if len(monitors) == 0 {
		return nil, fmt.Errorf("no active monitors")
	}
	return monitors, nil
}

// scaleForDensity rounds the panel density to the nearest quarter step,
// never below 1.
func scaleForDensity(widthPx, widthMM uint32) float64 {
	if widthMM == 0 {
		return 1
	}
	dpi := float64(widthPx) / (float64(widthMM) / 25.4)
	return math.Max(1, math.Round(dpi/baseDPI*4)/4)
}
