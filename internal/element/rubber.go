package element

import (
	"github.com/playmatatu/pinball/internal/geom"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/vmath"
)

type RubberData struct {
	Name       string           `json:"name"`
	DragPoints []geom.DragPoint `json:"dragPoints"`
	Height     float64          `json:"height"`
	Thickness  float64          `json:"thickness"`
	HitEvent   bool             `json:"hitEvent"`
	Threshold  float64          `json:"threshold"`
	Collidable bool             `json:"collidable"`
	PhysicsProps
}

func DefaultRubberData(name string) RubberData {
	return RubberData{
		Name:         name,
		Height:       25,
		Thickness:    8,
		Threshold:    2,
		Collidable:   true,
		PhysicsProps: PhysicsProps{Elasticity: 0.8, ElasticityFalloff: 0.3, Friction: 0.6},
	}
}

// Rubber is a band of given thickness stretched along a closed spline.
type Rubber struct {
	base
	Data RubberData
}

func NewRubber(data RubberData) *Rubber {
	r := &Rubber{base: newBase(data.Name, "Rubber"), Data: data}
	r.registerAPI()
	return r
}

func (r *Rubber) Setup(ctx *Context) error {
	r.bind(ctx)
	d := &r.Data
	if d.Thickness <= 0 {
		d.Thickness = 0.1
	}
	if len(d.DragPoints) < 2 {
		return nil
	}
	poly := geom.GetRgVertex(d.DragPoints, true, ctx.Table.Accuracy())
	outer, inner := offsetLoop(poly, d.Thickness*0.5)
	zLow := d.Height - d.Thickness*0.5
	zHigh := d.Height + d.Thickness*0.5

	mat := ResolveMaterial(ctx.Table, d.PhysicsProps, false)
	add := func(h physics.HitObject) {
		r.attach(h, mat, d.Threshold, d.HitEvent, &d.Collidable)
	}
	for _, e := range outlineSegments(outer, zLow, zHigh, physics.ObjRubber) {
		add(e.seg)
	}
	// the inner edge faces into the enclosed area
	for _, e := range outlineSegments(inner, zLow, zHigh, physics.ObjRubber) {
		add(physics.NewLineSeg(e.seg.V2, e.seg.V1, zLow, zHigh, physics.ObjRubber))
	}
	for _, j := range outlineJoints(outer, zLow, zHigh, physics.ObjRubber) {
		add(j)
	}
	return nil
}

// offsetLoop moves every corner of a closed polyline by dist along its
// outward vertex normal, returning the outer and inner loops.
func offsetLoop(poly []geom.RenderVertex, dist float64) (outer, inner []geom.RenderVertex) {
	n := len(poly)
	if n < 2 {
		return nil, nil
	}
	sign := -1.0
	if geom.IsClockwise(poly) {
		sign = 1
	}
	edgeNormal := func(i int) vmath.Vertex2D {
		a := poly[i].XY()
		b := poly[(i+1)%n].XY()
		dir := b.Minus(a).Normalize()
		// clockwise on screen keeps the inside on the right of each edge
		return vmath.NewVertex2D(dir.Y, -dir.X).Times(sign)
	}
	for i := range poly {
		nrm := edgeNormal((i + n - 1) % n).Plus(edgeNormal(i)).Normalize()
		p := poly[i].XY()
		outer = append(outer, geom.RenderVertex{Vertex3D: p.Plus(nrm.Times(dist)).XYZ(poly[i].Z), IsControlPoint: poly[i].IsControlPoint})
		inner = append(inner, geom.RenderVertex{Vertex3D: p.Minus(nrm.Times(dist)).XYZ(poly[i].Z), IsControlPoint: poly[i].IsControlPoint})
	}
	return outer, inner
}

func (r *Rubber) registerAPI() {
	d := &r.Data
	r.props["Collidable"] = boolProp(func() bool { return d.Collidable }, func(v bool) error {
		r.apply(func() { d.Collidable = v })
		return nil
	})
	r.props["HasHitEvent"] = boolField(&d.HitEvent)
	r.props["Elasticity"] = numProp(func() float64 { return d.Elasticity }, func(v float64) error {
		r.apply(func() {
			d.Elasticity = v
			for _, h := range r.hits {
				h.Base().Elasticity = v
			}
		})
		return nil
	})
	r.props["ElasticityFalloff"] = numProp(func() float64 { return d.ElasticityFalloff }, func(v float64) error {
		r.apply(func() {
			d.ElasticityFalloff = v
			for _, h := range r.hits {
				h.Base().ElasticityFalloff = v
			}
		})
		return nil
	})
}
