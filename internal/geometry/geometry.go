// Package geometry implements the two coordinate systems a window lives in.
//
// Logical pixels are DPI independent; physical pixels are device pixels. A scale
// factor is the ratio physical/logical for a given monitor. Position and Size are
// tagged values: the Unit field says which system the numbers are in, and a logical
// value carries no scale factor of its own, so every conversion takes one.
//
// Conversions truncate toward zero on both axes. Round trips are therefore lossy:
// Physical(5, 5) at scale 2 becomes Logical(2, 2) and converts back to Physical(4, 4).
// That loss is part of the contract; callers that need exact values must keep the
// original.
package geometry

import (
	"fmt"
	"math"

	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

// Unit tags a Position or Size with its coordinate system.
type Unit uint8

const (
	Logical Unit = iota
	Physical
)

// String returns the wire tag of the unit.
func (u Unit) String() string {
	switch u {
	case Logical:
		return "Logical"
	case Physical:
		return "Physical"
	default:
		return fmt.Sprintf("Unit(%d)", uint8(u))
	}
}

// ParseUnit maps a wire tag back to a Unit.
func ParseUnit(s string) (Unit, error) {
	switch s {
	case "Logical":
		return Logical, nil
	case "Physical":
		return Physical, nil
	default:
		return 0, fmt.Errorf("unknown unit %q", s)
	}
}

// Position is a point in either coordinate system. Negative coordinates are valid:
// hosts allow windows to sit partly off screen.
type Position struct {
	Unit Unit
	X    int32
	Y    int32
}

// Size is an extent in either coordinate system.
type Size struct {
	Unit   Unit
	Width  uint32
	Height uint32
}

// NewLogicalPosition returns a position in logical pixels.
func NewLogicalPosition(x, y int32) Position { return Position{Unit: Logical, X: x, Y: y} }

// NewPhysicalPosition returns a position in physical pixels.
func NewPhysicalPosition(x, y int32) Position { return Position{Unit: Physical, X: x, Y: y} }

// NewLogicalSize returns a size in logical pixels.
func NewLogicalSize(w, h uint32) Size { return Size{Unit: Logical, Width: w, Height: h} }

// NewPhysicalSize returns a size in physical pixels.
func NewPhysicalSize(w, h uint32) Size { return Size{Unit: Physical, Width: w, Height: h} }

// ValidateScaleFactor rejects zero, negative, NaN and infinite scale factors.
func ValidateScaleFactor(scale float64) error {
	if scale > 0 && !math.IsInf(scale, 1) {
		return nil
	}
	return &errs.ConfigurationError{
		Field:  "scale_factor",
		Reason: fmt.Sprintf("%v is not a positive finite number", scale),
		Err:    errs.ErrInvalidScaleFactor,
	}
}

// ToPhysical converts p to physical pixels. A physical position is returned unchanged.
func (p Position) ToPhysical(scale float64) (Position, error) {
	if err := ValidateScaleFactor(scale); err != nil {
		return Position{}, err
	}
	if p.Unit == Physical {
		return p, nil
	}
	return NewPhysicalPosition(mulInt(p.X, scale), mulInt(p.Y, scale)), nil
}

// ToLogical converts p to logical pixels. A logical position is returned unchanged.
func (p Position) ToLogical(scale float64) (Position, error) {
	if err := ValidateScaleFactor(scale); err != nil {
		return Position{}, err
	}
	if p.Unit == Logical {
		return p, nil
	}
	return NewLogicalPosition(divInt(p.X, scale), divInt(p.Y, scale)), nil
}

// To converts p into the given unit.
func (p Position) To(unit Unit, scale float64) (Position, error) {
	if unit == Physical {
		return p.ToPhysical(scale)
	}
	return p.ToLogical(scale)
}

func (p Position) String() string {
	return fmt.Sprintf("%s(%d, %d)", p.Unit, p.X, p.Y)
}

// ToPhysical converts s to physical pixels. A physical size is returned unchanged.
func (s Size) ToPhysical(scale float64) (Size, error) {
	if err := ValidateScaleFactor(scale); err != nil {
		return Size{}, err
	}
	if s.Unit == Physical {
		return s, nil
	}
	return NewPhysicalSize(mulUint(s.Width, scale), mulUint(s.Height, scale)), nil
}

// ToLogical converts s to logical pixels. A logical size is returned unchanged.
func (s Size) ToLogical(scale float64) (Size, error) {
	if err := ValidateScaleFactor(scale); err != nil {
		return Size{}, err
	}
	if s.Unit == Logical {
		return s, nil
	}
	return NewLogicalSize(divUint(s.Width, scale), divUint(s.Height, scale)), nil
}

// To converts s into the given unit.
func (s Size) To(unit Unit, scale float64) (Size, error) {
	if unit == Physical {
		return s.ToPhysical(scale)
	}
	return s.ToLogical(scale)
}

func (s Size) String() string {
	return fmt.Sprintf("%s(%dx%d)", s.Unit, s.Width, s.Height)
}

// mulInt multiplies and truncates toward zero, saturating at the int32 range.
func mulInt(v int32, factor float64) int32 {
	r := math.Trunc(float64(v) * factor)
	switch {
	case r > math.MaxInt32:
		return math.MaxInt32
	case r < math.MinInt32:
		return math.MinInt32
	}
	return int32(r)
}

// divInt divides instead of multiplying by 1/scale so exact quotients stay exact.
func divInt(v int32, scale float64) int32 {
	r := math.Trunc(float64(v) / scale)
	switch {
	case r > math.MaxInt32:
		return math.MaxInt32
	case r < math.MinInt32:
		return math.MinInt32
	}
	return int32(r)
}

func mulUint(v uint32, factor float64) uint32 {
	r := math.Trunc(float64(v) * factor)
	if r > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(r)
}

func divUint(v uint32, scale float64) uint32 {
	r := math.Trunc(float64(v) / scale)
	if r > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(r)
}
