package element

import (
	"github.com/playmatatu/pinball/internal/events"
	"github.com/playmatatu/pinball/internal/geom"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/vmath"
)

type SurfaceData struct {
	Name               string           `json:"name"`
	DragPoints         []geom.DragPoint `json:"dragPoints"`
	HeightBottom       float64          `json:"heightBottom"`
	HeightTop          float64          `json:"heightTop"`
	HitEvent           bool             `json:"hitEvent"`
	Threshold          float64          `json:"threshold"`
	SlingshotForce     float64          `json:"slingshotForce"`
	SlingshotThreshold float64          `json:"slingshotThreshold"`
	Droppable          bool             `json:"droppable"`
	IsPlayfield        bool             `json:"isPlayfield"`
	Collidable         bool             `json:"collidable"`
	PhysicsProps
}

func DefaultSurfaceData(name string) SurfaceData {
	return SurfaceData{
		Name:           name,
		HeightTop:      50,
		Threshold:      2,
		SlingshotForce: 80,
		Collidable:     true,
		PhysicsProps:   PhysicsProps{Elasticity: 0.3, Friction: 0.3},
	}
}

type SurfaceState struct {
	IsDropped bool `json:"isDropped" msgpack:"isDropped"`
}

func (s *SurfaceState) Equals(other events.State) bool {
	o, ok := other.(*SurfaceState)
	return ok && s.IsDropped == o.IsDropped
}

func (s *SurfaceState) ToMap() map[string]any {
	return map[string]any{"isDropped": s.IsDropped}
}

// Surface is an extruded wall: side walls along a closed spline, corner
// joints and a flat top.
type Surface struct {
	base
	Data    SurfaceData
	dropped bool
}

func NewSurface(data SurfaceData) *Surface {
	s := &Surface{base: newBase(data.Name, "Surface"), Data: data}
	s.registerAPI()
	return s
}

func (s *Surface) Setup(ctx *Context) error {
	s.bind(ctx)
	d := &s.Data
	if len(d.DragPoints) < 3 {
		return nil
	}
	mat := ResolveMaterial(ctx.Table, d.PhysicsProps, d.IsPlayfield)
	poly := geom.GetRgVertex(d.DragPoints, true, ctx.Table.Accuracy())
	lo, hi := d.HeightBottom, d.HeightTop

	for _, e := range outlineSegments(poly, lo, hi, physics.ObjSurface) {
		s.attach(e.seg, mat, d.Threshold, d.HitEvent, &d.Collidable)
		if e.from.IsSlingshot {
			seg := e.seg
			seg.OnHit = func(coll *physics.CollisionEvent, normalSpeed float64) {
				s.slingshot(seg, coll, normalSpeed)
			}
		}
	}
	for _, j := range outlineJoints(poly, lo, hi, physics.ObjSurface) {
		s.attach(j, mat, d.Threshold, d.HitEvent, &d.Collidable)
	}

	top := make([]vmath.Vertex3D, 0, len(poly))
	for _, v := range poly {
		top = append(top, v.XY().XYZ(hi))
	}
	if !geom.IsClockwise(poly) {
		for i, j := 0, len(top)-1; i < j; i, j = i+1, j-1 {
			top[i], top[j] = top[j], top[i]
		}
	}
	s.attach(physics.NewHitPoly3D(top, physics.ObjSurface), mat, d.Threshold, d.HitEvent, &d.Collidable)

	s.setHitsEnabled(!s.dropped)
	return nil
}

func (s *Surface) slingshot(seg *physics.LineSeg, coll *physics.CollisionEvent, normalSpeed float64) {
	if normalSpeed >= s.Data.SlingshotThreshold && s.Data.SlingshotForce > 0 {
		n := seg.Normal.XYZ(0)
		coll.Ball.Vel = coll.Ball.Vel.Plus(n.Times(s.Data.SlingshotForce * 0.1))
		s.fire("Slingshot", coll.Ball)
	}
	seg.FireHitEvent(coll.Ball, normalSpeed)
}

// HeightAt is the top of the surface.
func (s *Surface) HeightAt(_ *Table, _, _ float64) (float64, bool) {
	return s.Data.HeightTop, true
}

func (s *Surface) State() events.State {
	return &SurfaceState{IsDropped: s.dropped}
}

func (s *Surface) IsDropped() bool {
	return s.dropped
}

// SetIsDropped takes effect on the next tick.
func (s *Surface) SetIsDropped(v bool) error {
	if !s.Data.Droppable {
		return commandError(s.name, "IsDropped", "Surface is not droppable")
	}
	s.later(func() {
		s.dropped = v
		s.setHitsEnabled(!v)
	})
	return nil
}

func (s *Surface) setHitsEnabled(on bool) {
	for _, h := range s.hits {
		h.Base().Enabled = on
	}
}

func (s *Surface) registerAPI() {
	d := &s.Data
	s.props["IsDropped"] = boolProp(s.IsDropped, s.SetIsDropped)
	s.props["Collidable"] = boolProp(func() bool { return d.Collidable }, func(v bool) error {
		s.apply(func() { d.Collidable = v })
		return nil
	})
	s.props["HasHitEvent"] = boolField(&d.HitEvent)
	s.props["SlingshotStrength"] = floatField(&d.SlingshotForce, 0, 0)
	s.props["SlingshotThreshold"] = floatField(&d.SlingshotThreshold, 0, 0)
	s.props["Threshold"] = numProp(func() float64 { return d.Threshold }, func(v float64) error {
		s.apply(func() {
			d.Threshold = v
			for _, h := range s.hits {
				h.Base().Threshold = v
			}
		})
		return nil
	})
}
