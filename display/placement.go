package display

import (
	"github.com/andewx/avixel/config"
	"github.com/andewx/avixel/report"
)

const categoryWindow = "window"

// Aliases of the config position values.
const (
	PositionUnset    = config.PositionUnset
	PositionCentered = config.PositionCentered
)

// VideoMode is the monitor area a window is placed on.
type VideoMode struct {
	X, Y          int
	Width, Height int
}

// Placement is the resolved window rectangle. X and Y are PositionUnset when the window
// manager chooses.
type Placement struct {
	X, Y          int
	Width, Height int
}

// Positioned reports whether the window must be moved after creation.
func (p Placement) Positioned() bool {
	return p.X != PositionUnset && p.Y != PositionUnset
}

// Place validates the requested geometry against mode. Oversized windows are clamped to the
// monitor and a single specified axis centers both.
func Place(req config.Window, mode VideoMode, rep *report.Reporter) (Placement, error) {
	if req.Width <= 0 || req.Height <= 0 {
		return Placement{}, report.Errorf(report.CodeInvalidArguments, categoryWindow,
			"window size %dx%d must be positive", req.Width, req.Height)
	}
	if !validPosition(req.X) || !validPosition(req.Y) {
		return Placement{}, report.Errorf(report.CodeInvalidArguments, categoryWindow,
			"window position %d,%d is invalid", req.X, req.Y)
	}

	p := Placement{X: req.X, Y: req.Y, Width: req.Width, Height: req.Height}
	if mode.Width > 0 && mode.Height > 0 && (p.Width > mode.Width || p.Height > mode.Height) {
		p.Width = smaller(p.Width, mode.Width)
		p.Height = smaller(p.Height, mode.Height)
		rep.Logf(report.CodeWindowSize, categoryWindow, "window size %dx%d exceeds monitor, clamped to %dx%d",
			req.Width, req.Height, p.Width, p.Height)
	}

	if (p.X == PositionUnset) != (p.Y == PositionUnset) {
		rep.Logf(report.CodeUnusualArguments, categoryWindow,
			"window position %d,%d specifies one axis, centering", req.X, req.Y)
		p.X, p.Y = PositionCentered, PositionCentered
	}
	if p.X == PositionCentered {
		p.X = mode.X + (mode.Width-p.Width)/2
	}
	if p.Y == PositionCentered {
		p.Y = mode.Y + (mode.Height-p.Height)/2
	}
	return p, nil
}

func validPosition(v int) bool {
	return v >= 0 || v == PositionUnset || v == PositionCentered
}

func smaller(a, b int) int {
	if a < b {
		return a
	}
	return b
}
