package physics

import "math"

// BBox is an axis-aligned bounding volume used to skip distant hit objects.
type BBox struct {
	Left, Right float64
	Top, Bottom float64
	ZLow, ZHigh float64
}

// InfiniteBBox never rejects anything.
func InfiniteBBox() BBox {
	inf := math.Inf(1)
	return BBox{Left: -inf, Right: inf, Top: -inf, Bottom: inf, ZLow: -inf, ZHigh: inf}
}

// EmptyBBox is the neutral element for Extend.
func EmptyBBox() BBox {
	inf := math.Inf(1)
	return BBox{Left: inf, Right: -inf, Top: inf, Bottom: -inf, ZLow: inf, ZHigh: -inf}
}

func (b BBox) Intersects(o BBox) bool {
	return b.Right >= o.Left && b.Bottom >= o.Top && b.Left <= o.Right && b.Top <= o.Bottom &&
		b.ZLow <= o.ZHigh && b.ZHigh >= o.ZLow
}

// Extend grows the box to contain the point.
func (b BBox) Extend(x, y, z float64) BBox {
	return BBox{
		Left:   math.Min(b.Left, x),
		Right:  math.Max(b.Right, x),
		Top:    math.Min(b.Top, y),
		Bottom: math.Max(b.Bottom, y),
		ZLow:   math.Min(b.ZLow, z),
		ZHigh:  math.Max(b.ZHigh, z),
	}
}

// Grow pads every side by d.
func (b BBox) Grow(d float64) BBox {
	return BBox{Left: b.Left - d, Right: b.Right + d, Top: b.Top - d, Bottom: b.Bottom + d, ZLow: b.ZLow - d, ZHigh: b.ZHigh + d}
}
