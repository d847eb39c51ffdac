package vmath

import "math"

// Vertex2D is a 2D vector with single-precision arithmetic.
type Vertex2D struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

func NewVertex2D(x, y float64) Vertex2D {
	return Vertex2D{X: F4(x), Y: F4(y)}
}

func (v Vertex2D) Plus(o Vertex2D) Vertex2D {
	return Vertex2D{X: F4(v.X + o.X), Y: F4(v.Y + o.Y)}
}

func (v Vertex2D) Minus(o Vertex2D) Vertex2D {
	return Vertex2D{X: F4(v.X - o.X), Y: F4(v.Y - o.Y)}
}

func (v Vertex2D) Times(s float64) Vertex2D {
	return Vertex2D{X: F4(v.X * s), Y: F4(v.Y * s)}
}

func (v Vertex2D) Dot(o Vertex2D) float64 {
	return F4(v.X*o.X + v.Y*o.Y)
}

// Cross returns the z component of the 3D cross product.
func (v Vertex2D) Cross(o Vertex2D) float64 {
	return F4(v.X*o.Y - v.Y*o.X)
}

func (v Vertex2D) Length() float64 {
	return F4(math.Sqrt(v.X*v.X + v.Y*v.Y))
}

func (v Vertex2D) LengthSq() float64 {
	return F4(v.X*v.X + v.Y*v.Y)
}

func (v Vertex2D) Normalize() Vertex2D {
	l := v.Length()
	if l == 0 {
		return Vertex2D{}
	}
	return v.Times(F4(1 / l))
}

// RightNormal rotates the vector by -90 degrees in screen coordinates.
func (v Vertex2D) RightNormal() Vertex2D {
	return Vertex2D{X: v.Y, Y: -v.X}
}

// LeftNormal rotates the vector by 90 degrees in screen coordinates.
func (v Vertex2D) LeftNormal() Vertex2D {
	return Vertex2D{X: -v.Y, Y: v.X}
}

func (v Vertex2D) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

func (v Vertex2D) Equals(o Vertex2D) bool {
	return v.X == o.X && v.Y == o.Y
}

// Rotate turns the vector by rad radians around the origin.
func (v Vertex2D) Rotate(rad float64) Vertex2D {
	s, c := math.Sincos(rad)
	return Vertex2D{X: F4(c*v.X - s*v.Y), Y: F4(s*v.X + c*v.Y)}
}

// Lerp interpolates between v and o.
func (v Vertex2D) Lerp(o Vertex2D, t float64) Vertex2D {
	return Vertex2D{X: F4(v.X + (o.X-v.X)*t), Y: F4(v.Y + (o.Y-v.Y)*t)}
}

// XYZ lifts the vector into 3D.
func (v Vertex2D) XYZ(z float64) Vertex3D {
	return Vertex3D{X: v.X, Y: v.Y, Z: F4(z)}
}
