package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex3D is a 3D vector with single-precision arithmetic.
type Vertex3D struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

func NewVertex3D(x, y, z float64) Vertex3D {
	return Vertex3D{X: F4(x), Y: F4(y), Z: F4(z)}
}

// FromVec3 converts an mgl32 vector.
func FromVec3(v mgl32.Vec3) Vertex3D {
	return Vertex3D{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}

// Vec3 converts to an mgl32 vector.
func (v Vertex3D) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

func (v Vertex3D) Plus(o Vertex3D) Vertex3D {
	return Vertex3D{X: F4(v.X + o.X), Y: F4(v.Y + o.Y), Z: F4(v.Z + o.Z)}
}

func (v Vertex3D) Minus(o Vertex3D) Vertex3D {
	return Vertex3D{X: F4(v.X - o.X), Y: F4(v.Y - o.Y), Z: F4(v.Z - o.Z)}
}

func (v Vertex3D) Times(s float64) Vertex3D {
	return Vertex3D{X: F4(v.X * s), Y: F4(v.Y * s), Z: F4(v.Z * s)}
}

func (v Vertex3D) Dot(o Vertex3D) float64 {
	return F4(v.X*o.X + v.Y*o.Y + v.Z*o.Z)
}

func (v Vertex3D) Cross(o Vertex3D) Vertex3D {
	return Vertex3D{
		X: F4(v.Y*o.Z - v.Z*o.Y),
		Y: F4(v.Z*o.X - v.X*o.Z),
		Z: F4(v.X*o.Y - v.Y*o.X),
	}
}

func (v Vertex3D) Length() float64 {
	return F4(math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z))
}

func (v Vertex3D) LengthSq() float64 {
	return F4(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func (v Vertex3D) Normalize() Vertex3D {
	l := v.Length()
	if l == 0 {
		return Vertex3D{}
	}
	return v.Times(F4(1 / l))
}

func (v Vertex3D) Negate() Vertex3D {
	return Vertex3D{X: -v.X, Y: -v.Y, Z: -v.Z}
}

func (v Vertex3D) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Equals compares all three coordinates exactly.
func (v Vertex3D) Equals(o Vertex3D) bool {
	return v.X == o.X && v.Y == o.Y && v.Z == o.Z
}

// XY drops the z component.
func (v Vertex3D) XY() Vertex2D {
	return Vertex2D{X: v.X, Y: v.Y}
}

// Lerp interpolates between v and o.
func (v Vertex3D) Lerp(o Vertex3D, t float64) Vertex3D {
	return Vertex3D{X: F4(v.X + (o.X-v.X)*t), Y: F4(v.Y + (o.Y-v.Y)*t), Z: F4(v.Z + (o.Z-v.Z)*t)}
}

// Rotate2D rotates the xy part by rad radians and keeps z.
func (v Vertex3D) Rotate2D(rad float64) Vertex3D {
	r := v.XY().Rotate(rad)
	return Vertex3D{X: r.X, Y: r.Y, Z: v.Z}
}

// TriangleNormal returns the unit normal of the counter-clockwise triangle a, b, c.
func TriangleNormal(a, b, c Vertex3D) Vertex3D {
	return b.Minus(a).Cross(c.Minus(a)).Normalize()
}
