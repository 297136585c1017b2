package rendering

import "math"

// Constraints bounds the Size a render object may choose during layout:
// min/max on each axis. A render object's computed Size must satisfy
// MinWidth <= Width <= MaxWidth and MinHeight <= Height <= MaxHeight.
type Constraints struct {
	MinWidth  float64
	MaxWidth  float64
	MinHeight float64
	MaxHeight float64
}

// Tight returns constraints that force an exact size.
func Tight(size Size) Constraints {
	return Constraints{
		MinWidth: size.Width, MaxWidth: size.Width,
		MinHeight: size.Height, MaxHeight: size.Height,
	}
}

// Loose returns constraints with zero minimums and size as the maximum.
func Loose(size Size) Constraints {
	return Constraints{MaxWidth: size.Width, MaxHeight: size.Height}
}

// Unbounded returns constraints with no maximum on either axis.
func Unbounded() Constraints {
	return Constraints{MaxWidth: math.Inf(1), MaxHeight: math.Inf(1)}
}

// IsTight reports whether the constraints force an exact size on both
// axes. A relayout boundary is established at any render object whose
// incoming constraints are tight, since no parent size can change the
// object's own box dimensions.
func (c Constraints) IsTight() bool {
	return c.MinWidth >= c.MaxWidth && c.MinHeight >= c.MaxHeight
}

// HasBoundedWidth reports whether MaxWidth is finite.
func (c Constraints) HasBoundedWidth() bool {
	return !math.IsInf(c.MaxWidth, 1)
}

// HasBoundedHeight reports whether MaxHeight is finite.
func (c Constraints) HasBoundedHeight() bool {
	return !math.IsInf(c.MaxHeight, 1)
}

// Constrain clamps size to fit within the constraints.
func (c Constraints) Constrain(size Size) Size {
	return Size{
		Width:  clamp(size.Width, c.MinWidth, c.MaxWidth),
		Height: clamp(size.Height, c.MinHeight, c.MaxHeight),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Equal reports whether two constraints are identical, used to detect
// whether a render object's incoming constraints changed since its last
// layout pass.
func (c Constraints) Equal(other Constraints) bool {
	return c.MinWidth == other.MinWidth && c.MaxWidth == other.MaxWidth &&
		c.MinHeight == other.MinHeight && c.MaxHeight == other.MaxHeight
}
