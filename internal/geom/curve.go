package geom

import (
	"math"

	"github.com/playmatatu/pinball/internal/vmath"
)

// DragPoint is an editable control point of a spline-defined element.
type DragPoint struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	Smooth      bool    `json:"smooth"`
	IsSlingshot bool    `json:"slingshot"`
}

func (d DragPoint) Vertex() vmath.Vertex3D {
	return vmath.NewVertex3D(d.X, d.Y, d.Z)
}

// sameAs compares all three coordinates.
func (d DragPoint) sameAs(o DragPoint) bool {
	return d.X == o.X && d.Y == o.Y && d.Z == o.Z
}

// RenderVertex is one point of a flattened spline.
type RenderVertex struct {
	vmath.Vertex3D
	Smooth         bool
	IsSlingshot    bool
	IsControlPoint bool
}

// CatmullCurve is a non-uniform Catmull-Rom segment between two control points.
type CatmullCurve struct {
	x, y, z [4]float64
}

// NewCatmullCurve builds the segment p1 -> p2 with p0 and p3 as tangent neighbours.
func NewCatmullCurve(p0, p1, p2, p3 vmath.Vertex3D) CatmullCurve {
	dt0 := vmath.F4(math.Sqrt(p1.XY().Minus(p0.XY()).Length()))
	dt1 := vmath.F4(math.Sqrt(p2.XY().Minus(p1.XY()).Length()))
	dt2 := vmath.F4(math.Sqrt(p3.XY().Minus(p2.XY()).Length()))

	// repeated control points
	if dt1 < 1e-4 {
		dt1 = 1
	}
	if dt0 < 1e-4 {
		dt0 = dt1
	}
	if dt2 < 1e-4 {
		dt2 = dt1
	}

	var cc CatmullCurve
	cc.x = nonUniformCoeffs(p0.X, p1.X, p2.X, p3.X, dt0, dt1, dt2)
	cc.y = nonUniformCoeffs(p0.Y, p1.Y, p2.Y, p3.Y, dt0, dt1, dt2)
	cc.z = nonUniformCoeffs(p0.Z, p1.Z, p2.Z, p3.Z, dt0, dt1, dt2)
	return cc
}

func nonUniformCoeffs(x0, x1, x2, x3, dt0, dt1, dt2 float64) [4]float64 {
	t1 := vmath.F4(((x1-x0)/dt0 - (x2-x0)/(dt0+dt1) + (x2-x1)/dt1) * dt1)
	t2 := vmath.F4(((x2-x1)/dt1 - (x3-x1)/(dt1+dt2) + (x3-x2)/dt2) * dt1)
	return [4]float64{
		x1,
		t1,
		vmath.F4(-3*x1 + 3*x2 - 2*t1 - t2),
		vmath.F4(2*x1 - 2*x2 + t1 + t2),
	}
}

// At evaluates the curve at t in [0, 1].
func (cc CatmullCurve) At(t float64) vmath.Vertex3D {
	eval := func(c [4]float64) float64 {
		return vmath.F4(c[0] + t*(c[1]+t*(c[2]+t*c[3])))
	}
	return vmath.Vertex3D{X: eval(cc.x), Y: eval(cc.y), Z: eval(cc.z)}
}
