package element

import (
	"math"

	"github.com/playmatatu/pinball/internal/geom"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/vmath"
)

type RampData struct {
	Name            string           `json:"name"`
	DragPoints      []geom.DragPoint `json:"dragPoints"`
	HeightBottom    float64          `json:"heightBottom"`
	HeightTop       float64          `json:"heightTop"`
	WidthBottom     float64          `json:"widthBottom"`
	WidthTop        float64          `json:"widthTop"`
	LeftWallHeight  float64          `json:"leftWallHeight"`
	RightWallHeight float64          `json:"rightWallHeight"`
	HitEvent        bool             `json:"hitEvent"`
	Threshold       float64          `json:"threshold"`
	Collidable      bool             `json:"collidable"`
	PhysicsProps
}

func DefaultRampData(name string) RampData {
	return RampData{
		Name:            name,
		HeightTop:       50,
		WidthBottom:     75,
		WidthTop:        60,
		LeftWallHeight:  62,
		RightWallHeight: 62,
		Threshold:       2,
		Collidable:      true,
		PhysicsProps:    PhysicsProps{Elasticity: 0.3, Friction: 0.3},
	}
}

// Ramp is a sloped lane along an open spline with optional side walls.
type Ramp struct {
	base
	Data RampData

	// cross sections along the center line
	center  []vmath.Vertex2D
	left    []vmath.Vertex2D
	right   []vmath.Vertex2D
	heights []float64
	widths  []float64
}

func NewRamp(data RampData) *Ramp {
	r := &Ramp{base: newBase(data.Name, "Ramp"), Data: data}
	r.registerAPI()
	return r
}

const minRampWidth = 0.1

// normalizeWidths floors negative widths at zero; a zero width next to a
// real one becomes the minimum.
func (r *Ramp) normalizeWidths() {
	d := &r.Data
	d.WidthBottom = math.Max(d.WidthBottom, 0)
	d.WidthTop = math.Max(d.WidthTop, 0)
	if d.WidthTop == 0 && d.WidthBottom > 0 {
		d.WidthTop = minRampWidth
	}
	if d.WidthBottom == 0 && d.WidthTop > 0 {
		d.WidthBottom = minRampWidth
	}
}

// build flattens the center line and computes the cross sections.
func (r *Ramp) build(t *Table) {
	r.normalizeWidths()
	d := &r.Data
	r.center, r.left, r.right, r.heights, r.widths = nil, nil, nil, nil, nil
	if len(d.DragPoints) < 2 {
		return
	}
	rv := geom.GetRgVertex(d.DragPoints, false, t.Accuracy())
	lengths, total := geom.PathLength(rv)
	n := len(rv)
	for i := range rv {
		frac := 0.0
		if total > 0 {
			frac = lengths[i] / total
		}
		w := vmath.F4(d.WidthBottom + (d.WidthTop-d.WidthBottom)*frac)
		h := vmath.F4(d.HeightBottom + (d.HeightTop-d.HeightBottom)*frac)

		prev := rv[max(i-1, 0)].XY()
		next := rv[min(i+1, n-1)].XY()
		tangent := next.Minus(prev).Normalize()
		side := vmath.NewVertex2D(tangent.Y, -tangent.X)

		c := rv[i].XY()
		r.center = append(r.center, c)
		r.left = append(r.left, c.Plus(side.Times(w*0.5)))
		r.right = append(r.right, c.Minus(side.Times(w*0.5)))
		r.heights = append(r.heights, h)
		r.widths = append(r.widths, w)
	}
}

func (r *Ramp) Setup(ctx *Context) error {
	r.bind(ctx)
	d := &r.Data
	r.build(ctx.Table)
	if len(r.center) < 2 {
		return nil
	}
	mat := ResolveMaterial(ctx.Table, d.PhysicsProps, false)
	add := func(h physics.HitObject) {
		r.attach(h, mat, d.Threshold, d.HitEvent, &d.Collidable)
	}

	var prevFloor *physics.HitTriangle
	for i := 0; i+1 < len(r.center); i++ {
		l0, l1 := r.left[i].XYZ(r.heights[i]), r.left[i+1].XYZ(r.heights[i+1])
		r0, r1 := r.right[i].XYZ(r.heights[i]), r.right[i+1].XYZ(r.heights[i+1])

		first := upTriangle(l0, r0, r1)
		second := upTriangle(l0, r1, l1)
		for _, tri := range []*physics.HitTriangle{first, second} {
			if !tri.IsDegenerate() {
				add(tri)
			}
		}
		if prevFloor != nil && !first.IsDegenerate() && checkJoint(prevFloor.Normal, first.Normal) {
			add(physics.NewHitPoint(l0, physics.ObjRamp))
			add(physics.NewHitPoint(r0, physics.ObjRamp))
		}
		prevFloor = second

		mid := r.center[i].Plus(r.center[i+1]).Times(0.5)
		if d.LeftWallHeight > 0 {
			r.addWall(add, r.left[i], r.left[i+1], r.heights[i], r.heights[i+1], d.LeftWallHeight, mid)
		}
		if d.RightWallHeight > 0 {
			r.addWall(add, r.right[i], r.right[i+1], r.heights[i], r.heights[i+1], d.RightWallHeight, mid)
		}
	}
	return nil
}

// addWall emits a vertical quad facing inside the ramp.
func (r *Ramp) addWall(add func(physics.HitObject), a, b vmath.Vertex2D, ha, hb, wallHeight float64, inside vmath.Vertex2D) {
	a0, b0 := a.XYZ(ha), b.XYZ(hb)
	a1, b1 := a.XYZ(ha+wallHeight), b.XYZ(hb+wallHeight)
	in := inside.Minus(a).XYZ(0)
	for _, tri := range []*physics.HitTriangle{
		facingTriangle(a0, b0, b1, in),
		facingTriangle(a0, b1, a1, in),
	} {
		if !tri.IsDegenerate() {
			add(tri)
		}
	}
}

// HeightAt is the floor height of the ramp under (x, y), if the point lies on it.
func (r *Ramp) HeightAt(t *Table, x, y float64) (float64, bool) {
	if r.center == nil {
		r.build(t)
	}
	p := vmath.NewVertex2D(x, y)
	best := math.Inf(1)
	height := 0.0
	for i := 0; i+1 < len(r.center); i++ {
		a, b := r.center[i], r.center[i+1]
		q := closestOnSegment(p, a, b)
		dist := p.Minus(q).Length()
		seg := b.Minus(a).Length()
		frac := 0.0
		if seg > 0 {
			frac = q.Minus(a).Length() / seg
		}
		halfWidth := (r.widths[i] + (r.widths[i+1]-r.widths[i])*frac) * 0.5
		if dist <= halfWidth && dist < best {
			best = dist
			height = r.heights[i] + (r.heights[i+1]-r.heights[i])*frac
		}
	}
	return height, !math.IsInf(best, 1)
}

func (r *Ramp) registerAPI() {
	d := &r.Data
	r.props["Collidable"] = boolProp(func() bool { return d.Collidable }, func(v bool) error {
		r.apply(func() { d.Collidable = v })
		return nil
	})
	r.props["HasHitEvent"] = boolField(&d.HitEvent)
	r.props["Threshold"] = numProp(func() float64 { return d.Threshold }, func(v float64) error {
		r.apply(func() {
			d.Threshold = v
			for _, h := range r.hits {
				h.Base().Threshold = v
			}
		})
		return nil
	})
	r.props["Elasticity"] = numProp(func() float64 { return d.Elasticity }, func(v float64) error {
		r.apply(func() {
			d.Elasticity = v
			for _, h := range r.hits {
				h.Base().Elasticity = v
			}
		})
		return nil
	})
	r.props["Friction"] = numProp(func() float64 { return d.Friction }, func(v float64) error {
		v = vmath.Clamp(v, 0, 1)
		r.apply(func() {
			d.Friction = v
			for _, h := range r.hits {
				h.Base().Friction = v
			}
		})
		return nil
	})
}

// checkJoint reports whether two adjacent faces meet at an angle and need a
// joint along their shared edge. Coplanar faces do not.
func checkJoint(n1, n2 vmath.Vertex3D) bool {
	return n1.Cross(n2).LengthSq() > 1e-6
}

// upTriangle orders the corners so the face normal points up.
func upTriangle(a, b, c vmath.Vertex3D) *physics.HitTriangle {
	t := physics.NewHitTriangle(a, b, c, physics.ObjRamp)
	if t.Normal.Z < 0 {
		t = physics.NewHitTriangle(a, c, b, physics.ObjRamp)
	}
	return t
}

// facingTriangle orders the corners so the face normal points along dir.
func facingTriangle(a, b, c, dir vmath.Vertex3D) *physics.HitTriangle {
	t := physics.NewHitTriangle(a, b, c, physics.ObjRamp)
	if t.Normal.Dot(dir) < 0 {
		t = physics.NewHitTriangle(a, c, b, physics.ObjRamp)
	}
	return t
}
