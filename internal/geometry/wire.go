package geometry

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// The host expects geometry externally tagged by unit:
//
//	{"Logical":{"x":10,"y":20}}
//	{"Physical":{"width":800,"height":600}}

type point struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

type extent struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// MarshalJSON encodes p with its unit tag.
func (p Position) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(map[string]point{p.Unit.String(): {X: p.X, Y: p.Y}})
}

// UnmarshalJSON decodes a tagged position.
func (p *Position) UnmarshalJSON(data []byte) error {
	var tagged map[string]point
	if err := sonic.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("decode position: %w", err)
	}
	unit, body, err := single(tagged)
	if err != nil {
		return fmt.Errorf("decode position: %w", err)
	}
	*p = Position{Unit: unit, X: body.X, Y: body.Y}
	return nil
}

// MarshalJSON encodes s with its unit tag.
func (s Size) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(map[string]extent{s.Unit.String(): {Width: s.Width, Height: s.Height}})
}

// UnmarshalJSON decodes a tagged size.
func (s *Size) UnmarshalJSON(data []byte) error {
	var tagged map[string]extent
	if err := sonic.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("decode size: %w", err)
	}
	unit, body, err := single(tagged)
	if err != nil {
		return fmt.Errorf("decode size: %w", err)
	}
	*s = Size{Unit: unit, Width: body.Width, Height: body.Height}
	return nil
}

// PhysicalPoint is the untagged shape hosts use for values that are physical by
// definition (monitor and window queries).
type PhysicalPoint point

// Position returns the tagged physical position.
func (p PhysicalPoint) Position() Position { return NewPhysicalPosition(p.X, p.Y) }

// PhysicalExtent is the untagged physical size shape.
type PhysicalExtent extent

// Size returns the tagged physical size.
func (e PhysicalExtent) Size() Size { return NewPhysicalSize(e.Width, e.Height) }

func single[T any](tagged map[string]T) (Unit, T, error) {
	var zero T
	if len(tagged) != 1 {
		return 0, zero, fmt.Errorf("expected exactly one unit tag, got %d", len(tagged))
	}
	for tag, body := range tagged {
		unit, err := ParseUnit(tag)
		if err != nil {
			return 0, zero, err
		}
		return unit, body, nil
	}
	return 0, zero, nil
}
