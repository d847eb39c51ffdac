package element

import (
	"math"

	"github.com/playmatatu/pinball/internal/events"
	"github.com/playmatatu/pinball/internal/geom"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/vmath"
)

type HitTargetData struct {
	Name     string         `json:"name"`
	Center   vmath.Vertex2D `json:"center"`
	Width    float64        `json:"width"`
	Depth    float64        `json:"depth"`
	Height   float64        `json:"height"`
	Rotation float64        `json:"rotation"`
	// drop targets fall into the playfield when hit hard enough
	IsDropTarget bool    `json:"isDropTarget"`
	IsDropped    bool    `json:"isDropped"`
	DropSpeed    float64 `json:"dropSpeed"`
	HitEvent     bool    `json:"hitEvent"`
	Threshold    float64 `json:"threshold"`
	Surface      string  `json:"surface"`
	Collidable   bool    `json:"collidable"`
	PhysicsProps
}

func DefaultHitTargetData(name string) HitTargetData {
	return HitTargetData{
		Name:         name,
		Width:        32,
		Depth:        8,
		Height:       50,
		DropSpeed:    0.5,
		HitEvent:     true,
		Threshold:    2,
		Collidable:   true,
		PhysicsProps: PhysicsProps{Elasticity: 0.35, Friction: 0.2},
	}
}

// TargetState is the drop state and animation offset of a target.
type TargetState struct {
	IsDropped bool    `json:"isDropped" msgpack:"isDropped"`
	ZOffset   float64 `json:"zOffset" msgpack:"zOffset"`
}

func (s *TargetState) Equals(other events.State) bool {
	o, ok := other.(*TargetState)
	return ok && s.IsDropped == o.IsDropped && events.FloatEq(s.ZOffset, o.ZOffset)
}

func (s *TargetState) ToMap() map[string]any {
	return map[string]any{"isDropped": s.IsDropped, "zOffset": s.ZOffset}
}

// HitTarget is a stand-up or drop target block.
type HitTarget struct {
	base
	Data  HitTargetData
	mover *DropTargetMover
}

func NewHitTarget(data HitTargetData) *HitTarget {
	t := &HitTarget{base: newBase(data.Name, "HitTarget"), Data: data}
	t.mover = &DropTargetMover{target: t}
	if data.IsDropTarget {
		t.kind = "DropTarget"
	}
	t.registerAPI()
	return t
}

func (t *HitTarget) Setup(ctx *Context) error {
	t.bind(ctx)
	d := &t.Data
	d.Width = math.Max(d.Width, 1)
	d.Depth = math.Max(d.Depth, 1)

	zLow := ctx.Host.SurfaceHeight(d.Surface, d.Center.X, d.Center.Y)
	zHigh := zLow + d.Height
	objType := physics.ObjHitTarget
	if d.IsDropTarget {
		objType = physics.ObjDropTarget
	}

	hw, hd := d.Width*0.5, d.Depth*0.5
	rad := vmath.DegToRad(d.Rotation)
	corners := []vmath.Vertex2D{
		vmath.NewVertex2D(-hw, -hd), vmath.NewVertex2D(hw, -hd),
		vmath.NewVertex2D(hw, hd), vmath.NewVertex2D(-hw, hd),
	}
	poly := make([]geom.RenderVertex, len(corners))
	top := make([]vmath.Vertex3D, len(corners))
	for i, c := range corners {
		p := d.Center.Plus(c.Rotate(rad))
		poly[i] = geom.RenderVertex{Vertex3D: p.XYZ(zLow)}
		top[i] = p.XYZ(zHigh)
	}

	mat := ResolveMaterial(ctx.Table, d.PhysicsProps, false)
	add := func(h physics.HitObject) {
		t.attach(h, mat, d.Threshold, d.HitEvent, &d.Collidable)
		if d.IsDropTarget {
			h.Base().OnHit = t.onDropHit
		}
	}
	for _, e := range outlineSegments(poly, zLow, zHigh, objType) {
		add(e.seg)
	}
	for _, j := range outlineJoints(poly, zLow, zHigh, objType) {
		add(j)
	}
	if !geom.IsClockwise(poly) {
		top[0], top[1], top[2], top[3] = top[3], top[2], top[1], top[0]
	}
	add(physics.NewHitPoly3D(top, objType))

	t.mover.configure()
	t.setHitsEnabled(!d.IsDropped)
	return nil
}

func (t *HitTarget) Mover() Mover { return t.mover }

func (t *HitTarget) State() events.State {
	return &TargetState{IsDropped: t.Data.IsDropped, ZOffset: t.mover.offset()}
}

func (t *HitTarget) onDropHit(coll *physics.CollisionEvent, normalSpeed float64) {
	hb := coll.Obj.Base()
	hb.FireHitEvent(coll.Ball, normalSpeed)
	if normalSpeed >= t.Data.Threshold && !t.Data.IsDropped {
		t.later(func() { t.setDropped(true) })
	}
}

// SetIsDropped drops or raises a drop target. The change is applied at the
// start of the next tick.
func (t *HitTarget) SetIsDropped(v bool) error {
	if !t.Data.IsDropTarget {
		return commandError(t.name, "IsDropped", "Target is not a drop target")
	}
	t.later(func() { t.setDropped(v) })
	return nil
}

func (t *HitTarget) setDropped(v bool) {
	if t.Data.IsDropped == v {
		return
	}
	t.Data.IsDropped = v
	t.setHitsEnabled(!v)
	if v {
		t.fire("Dropped")
	} else {
		t.fire("Raised")
	}
}

func (t *HitTarget) setHitsEnabled(on bool) {
	for _, h := range t.hits {
		h.Base().Enabled = on
	}
}

func (t *HitTarget) registerAPI() {
	d := &t.Data
	t.props["IsDropped"] = boolProp(func() bool { return d.IsDropped }, t.SetIsDropped)
	t.props["Collidable"] = boolProp(func() bool { return d.Collidable }, func(v bool) error {
		t.apply(func() { d.Collidable = v })
		return nil
	})
	t.props["HasHitEvent"] = boolField(&d.HitEvent)
	t.props["DropSpeed"] = floatField(&d.DropSpeed, 0, 0)
	t.props["Threshold"] = numProp(func() float64 { return d.Threshold }, func(v float64) error {
		t.apply(func() {
			d.Threshold = v
			for _, h := range t.hits {
				h.Base().Threshold = v
			}
		})
		return nil
	})
}

// DropTargetMover animates the target down into the playfield and back up
// on a spring toward the dropped or raised offset.
type DropTargetMover struct {
	target *HitTarget
	spring spring
	goal   float64
}

func (m *DropTargetMover) configure() {
	if m.target.Data.IsDropped {
		m.spring = spring{pos: -m.target.Data.Height}
		m.goal = -m.target.Data.Height
	}
}

func (m *DropTargetMover) offset() float64 {
	return m.spring.pos
}

func (m *DropTargetMover) UpdateVelocities() {
	m.goal = 0
	if m.target.Data.IsDropped {
		m.goal = -m.target.Data.Height
	}
}

func (m *DropTargetMover) UpdateDisplacements(dtime float64) {
	if m.spring.atRest(m.goal) {
		return
	}
	m.spring.step(m.goal, m.target.Data.DropSpeed*springGain, dtime)
	m.spring.clamp(-m.target.Data.Height, 0)
}
