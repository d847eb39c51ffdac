package element

import (
	"math"

	"github.com/playmatatu/pinball/internal/events"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/vmath"
)

type FlipperData struct {
	Name               string         `json:"name"`
	Center             vmath.Vertex2D `json:"center"`
	BaseRadius         float64        `json:"baseRadius"`
	EndRadius          float64        `json:"endRadius"`
	Length             float64        `json:"length"`
	StartAngle         float64        `json:"startAngle"`
	EndAngle           float64        `json:"endAngle"`
	Height             float64        `json:"height"`
	Mass               float64        `json:"mass"`
	Strength           float64        `json:"strength"`
	Return             float64        `json:"return"`
	RampUp             float64        `json:"rampUp"`
	TorqueDamping      float64        `json:"torqueDamping"`
	TorqueDampingAngle float64        `json:"torqueDampingAngle"`
	Threshold          float64        `json:"threshold"`
	Surface            string         `json:"surface"`
	Collidable         bool           `json:"collidable"`
	PhysicsProps
}

func DefaultFlipperData(name string) FlipperData {
	return FlipperData{
		Name:               name,
		BaseRadius:         21.5,
		EndRadius:          13,
		Length:             130,
		StartAngle:         121,
		EndAngle:           70,
		Height:             50,
		Mass:               1,
		Strength:           2200,
		Return:             0.058,
		RampUp:             3,
		TorqueDamping:      0.75,
		TorqueDampingAngle: 6,
		Threshold:          2,
		Collidable:         true,
		PhysicsProps:       PhysicsProps{Elasticity: 0.8, ElasticityFalloff: 0.43, Friction: 0.6},
	}
}

// FlipperState is the published flipper angle in radians.
type FlipperState struct {
	Angle float64 `json:"angle" msgpack:"angle"`
}

func (s *FlipperState) Equals(other events.State) bool {
	o, ok := other.(*FlipperState)
	return ok && events.FloatEq(s.Angle, o.Angle)
}

func (s *FlipperState) ToMap() map[string]any {
	return map[string]any{"angle": s.Angle}
}

type Flipper struct {
	base
	Data  FlipperData
	mover *FlipperMover
	hit   *flipperHit
}

func NewFlipper(data FlipperData) *Flipper {
	f := &Flipper{base: newBase(data.Name, "Flipper"), Data: data}
	f.registerAPI()
	return f
}

func (f *Flipper) Setup(ctx *Context) error {
	f.bind(ctx)
	d := &f.Data
	d.Mass = math.Max(d.Mass, 0.1)
	d.Length = math.Max(d.Length, 1)
	d.BaseRadius = math.Max(d.BaseRadius, 0.1)
	d.EndRadius = math.Max(d.EndRadius, 0.1)
	d.TorqueDamping = vmath.Clamp(d.TorqueDamping, 0, 1)
	d.Return = vmath.Clamp(d.Return, 0, 1)

	zLow := ctx.Host.SurfaceHeight(d.Surface, d.Center.X, d.Center.Y)
	f.mover = &FlipperMover{flipper: f, zLow: zLow, zHigh: zLow + d.Height}
	f.mover.configure()
	f.mover.angle = f.mover.angleStart
	f.mover.limit = -1
	if f.mover.angleStart == f.mover.angleMax {
		f.mover.limit = 1
	}

	f.hit = &flipperHit{HitObjectBase: physics.NewHitObjectBase(physics.ObjFlipper), mover: f.mover}
	f.attach(f.hit, ResolveMaterial(ctx.Table, d.PhysicsProps, false), d.Threshold, true, &d.Collidable)
	f.hit.CalcHitBBox()
	return nil
}

func (f *Flipper) Mover() Mover { return f.mover }

func (f *Flipper) State() events.State {
	return &FlipperState{Angle: f.mover.angle}
}

// RotateToEnd energizes the solenoid.
func (f *Flipper) RotateToEnd() {
	f.apply(func() { f.mover.solenoid = true })
}

// RotateToStart releases the solenoid.
func (f *Flipper) RotateToStart() {
	f.apply(func() { f.mover.solenoid = false })
}

// CurrentAngle is the flipper angle in radians.
func (f *Flipper) CurrentAngle() float64 {
	return f.mover.angle
}

func (f *Flipper) syncMaterial() {
	if f.hit == nil {
		return
	}
	f.hit.SetMaterial(ResolveMaterial(f.ctx.Table, f.Data.PhysicsProps, false))
}

func (f *Flipper) registerAPI() {
	d := &f.Data
	reconfigure := func(field *float64, lo, hi float64) Prop {
		return numProp(func() float64 { return *field }, func(v float64) error {
			if lo < hi {
				v = vmath.Clamp(v, lo, hi)
			}
			f.apply(func() {
				*field = v
				if f.mover != nil {
					f.mover.configure()
				}
			})
			return nil
		})
	}
	material := func(field *float64, lo, hi float64) Prop {
		return numProp(func() float64 { return *field }, func(v float64) error {
			if lo < hi {
				v = vmath.Clamp(v, lo, hi)
			}
			f.apply(func() {
				*field = v
				f.syncMaterial()
			})
			return nil
		})
	}
	f.props["StartAngle"] = reconfigure(&d.StartAngle, 0, 0)
	f.props["EndAngle"] = reconfigure(&d.EndAngle, 0, 0)
	f.props["Strength"] = reconfigure(&d.Strength, 0, 0)
	f.props["Mass"] = reconfigure(&d.Mass, 0.1, 1000)
	f.props["Length"] = reconfigure(&d.Length, 1, 10000)
	f.props["Return"] = reconfigure(&d.Return, 0, 1)
	f.props["RampUp"] = reconfigure(&d.RampUp, 0, 1000)
	f.props["TorqueDamping"] = reconfigure(&d.TorqueDamping, 0, 1)
	f.props["TorqueDampingAngle"] = reconfigure(&d.TorqueDampingAngle, 0, 180)
	f.props["Elasticity"] = material(&d.Elasticity, 0, 0)
	f.props["ElasticityFalloff"] = material(&d.ElasticityFalloff, 0, 0)
	f.props["Friction"] = material(&d.Friction, 0, 1)
	f.props["Scatter"] = material(&d.Scatter, 0, 0)
	f.props["Threshold"] = numProp(func() float64 { return d.Threshold }, func(v float64) error {
		f.apply(func() {
			d.Threshold = v
			if f.hit != nil {
				f.hit.Threshold = v
			}
		})
		return nil
	})
	f.props["Enabled"] = boolProp(func() bool { return d.Collidable }, func(v bool) error {
		f.apply(func() { d.Collidable = v })
		return nil
	})
	f.props["CurrentAngle"] = Prop{Get: func() any { return vmath.RadToDeg(f.mover.angle) }}

	f.cmds["RotateToEnd"] = func(args ...any) (any, error) {
		f.RotateToEnd()
		return nil, nil
	}
	f.cmds["RotateToStart"] = func(args ...any) (any, error) {
		f.RotateToStart()
		return nil, nil
	}
}

// FlipperMover integrates the flipper angle under solenoid torque.
type FlipperMover struct {
	flipper *Flipper

	angleStart, angleEnd float64
	angleMin, angleMax   float64
	direction            float64
	inertia              float64

	angle           float64
	angularMomentum float64
	angularSpeed    float64
	curTorque       float64
	solenoid        bool
	// +1 resting at the end, -1 at the start
	limit int

	zLow, zHigh float64
}

func (m *FlipperMover) configure() {
	d := &m.flipper.Data
	m.angleStart = vmath.DegToRad(d.StartAngle)
	m.angleEnd = vmath.DegToRad(d.EndAngle)
	m.angleMin = math.Min(m.angleStart, m.angleEnd)
	m.angleMax = math.Max(m.angleStart, m.angleEnd)
	m.direction = 1
	if m.angleEnd < m.angleStart {
		m.direction = -1
	}
	m.inertia = vmath.F4(d.Mass * d.Length * d.Length / 3)
	m.angle = vmath.Clamp(m.angle, m.angleMin, m.angleMax)
}

func (m *FlipperMover) UpdateVelocities() {
	d := &m.flipper.Data
	var desired float64
	if m.solenoid {
		desired = d.Strength * m.direction
		dampAngle := vmath.DegToRad(d.TorqueDampingAngle)
		dist := math.Abs(m.angle - m.angleEnd)
		if dampAngle > 0 && dist < dampAngle {
			desired *= d.TorqueDamping + (1-d.TorqueDamping)*dist/dampAngle
		}
	} else {
		desired = -d.Strength * d.Return * m.direction
	}

	if d.RampUp <= 0 {
		m.curTorque = desired
	} else {
		step := d.Strength / d.RampUp
		if m.curTorque < desired {
			m.curTorque = math.Min(m.curTorque+step, desired)
		} else {
			m.curTorque = math.Max(m.curTorque-step, desired)
		}
	}

	m.angularMomentum = vmath.F4(m.angularMomentum + physics.PhysFactor*m.curTorque)
	m.angularSpeed = vmath.F4(m.angularMomentum / m.inertia)
}

func (m *FlipperMover) UpdateDisplacements(dtime float64) {
	m.angle = vmath.F4(m.angle + m.angularSpeed*dtime)
	switch {
	case m.angle >= m.angleMax:
		m.angle = m.angleMax
		if m.angularSpeed > 0 {
			m.angularMomentum, m.angularSpeed = 0, 0
		}
		m.reachLimit(1)
	case m.angle <= m.angleMin:
		m.angle = m.angleMin
		if m.angularSpeed < 0 {
			m.angularMomentum, m.angularSpeed = 0, 0
		}
		m.reachLimit(-1)
	default:
		m.limit = 0
	}
}

func (m *FlipperMover) reachLimit(side int) {
	if m.limit == side {
		return
	}
	m.limit = side
	atEnd := (side > 0) == (m.direction > 0)
	if atEnd {
		m.flipper.fire("LimitEOS", vmath.RadToDeg(m.angle))
	} else {
		m.flipper.fire("LimitBOS", vmath.RadToDeg(m.angle))
	}
}

// applyImpulse feeds a ball impulse at point p back into the flipper.
func (m *FlipperMover) applyImpulse(p vmath.Vertex2D, impulse vmath.Vertex2D) {
	r := p.Minus(m.flipper.Data.Center)
	m.angularMomentum = vmath.F4(m.angularMomentum + r.Cross(impulse))
	m.angularSpeed = vmath.F4(m.angularMomentum / m.inertia)
}

func (m *FlipperMover) dir() vmath.Vertex2D {
	s, c := math.Sincos(m.angle)
	return vmath.NewVertex2D(vmath.F4(s), vmath.F4(-c))
}

func (m *FlipperMover) tip() vmath.Vertex2D {
	d := &m.flipper.Data
	return d.Center.Plus(m.dir().Times(d.Length))
}

// surfaceVelocity of the flipper at point p.
func (m *FlipperMover) surfaceVelocity(p vmath.Vertex2D) vmath.Vertex2D {
	r := p.Minus(m.flipper.Data.Center)
	return vmath.NewVertex2D(-r.Y, r.X).Times(m.angularSpeed)
}

// face returns the rubber face on one side of the flipper.
func (m *FlipperMover) face(side float64) *physics.LineSeg {
	d := &m.flipper.Data
	dir := m.dir()
	perp := vmath.NewVertex2D(-dir.Y, dir.X)
	sinPhi := vmath.Clamp((d.BaseRadius-d.EndRadius)/d.Length, -1, 1)
	cosPhi := math.Sqrt(1 - sinPhi*sinPhi)
	n := perp.Times(side * cosPhi).Plus(dir.Times(sinPhi))

	p1 := d.Center.Plus(n.Times(d.BaseRadius))
	p2 := m.tip().Plus(n.Times(d.EndRadius))
	seg := physics.NewLineSeg(p1, p2, m.zLow, m.zHigh, physics.ObjFlipper)
	if seg.Normal.Dot(n) < 0 {
		seg = physics.NewLineSeg(p2, p1, m.zLow, m.zHigh, physics.ObjFlipper)
	}
	return seg
}

type flipperHit struct {
	physics.HitObjectBase
	mover *FlipperMover
}

func (h *flipperHit) CalcHitBBox() {
	d := &h.mover.flipper.Data
	r := d.Length + d.EndRadius
	h.BBox = physics.BBox{
		Left: d.Center.X - r, Right: d.Center.X + r,
		Top: d.Center.Y - r, Bottom: d.Center.Y + r,
		ZLow: h.mover.zLow, ZHigh: h.mover.zHigh,
	}
}

// HitTest checks both faces and the two round ends at the current angle,
// using the ball velocity relative to the moving flipper surface.
func (h *flipperHit) HitTest(ball *physics.Ball, dtime float64, coll *physics.CollisionEvent) float64 {
	if !h.IsEnabled() || ball.Frozen {
		return -1
	}
	m := h.mover
	d := &m.flipper.Data

	best := -1.0
	var bestColl physics.CollisionEvent
	consider := func(t float64, c physics.CollisionEvent, sv vmath.Vertex2D) {
		if t >= 0 && (best < 0 || t < best) {
			best = t
			bestColl = c
			bestColl.HitVel = sv
		}
	}

	for _, side := range []float64{1, -1} {
		seg := m.face(side)
		sv := m.surfaceVelocity(closestOnSegment(ball.Pos.XY(), seg.V1, seg.V2))
		rel := relativeBall(ball, sv)
		var c physics.CollisionEvent
		consider(seg.HitTestBasic(&rel, dtime, &c, true, true), c, sv)
	}

	tip := physics.NewHitCircle(m.tip(), d.EndRadius, m.zLow, m.zHigh, physics.ObjFlipper)
	sv := m.surfaceVelocity(tip.Center)
	rel := relativeBall(ball, sv)
	var ct physics.CollisionEvent
	consider(tip.HitTestBasicRadius(&rel, dtime, &ct, true, true, d.EndRadius+ball.Radius), ct, sv)

	hub := physics.NewHitCircle(d.Center, d.BaseRadius, m.zLow, m.zHigh, physics.ObjFlipper)
	var cb physics.CollisionEvent
	consider(hub.HitTestBasicRadius(ball, dtime, &cb, true, true, d.BaseRadius+ball.Radius), cb, vmath.Vertex2D{})

	if best < 0 {
		return -1
	}
	bestColl.Ball = ball
	bestColl.Obj = h
	*coll = bestColl
	return best
}

func (h *flipperHit) Collide(coll *physics.CollisionEvent) {
	ball := coll.Ball
	sv := coll.HitVel.XYZ(0)
	normalSpeed := -ball.Vel.Minus(sv).Dot(coll.HitNormal)
	contact := ball.Pos.Minus(coll.HitNormal.Times(ball.Radius)).XY()

	before := ball.Vel
	ball.Collide3DWall(coll.HitNormal, coll.HitDistance, sv, h.Elasticity, h.ElasticityFalloff, h.Friction, h.Scatter)
	impulse := ball.Vel.Minus(before).Times(ball.Mass).XY()
	h.mover.applyImpulse(contact, impulse.Times(-1))

	if normalSpeed >= h.Threshold {
		h.mover.flipper.fire("Collide", ball, normalSpeed)
	}
}

func relativeBall(ball *physics.Ball, surfVel vmath.Vertex2D) physics.Ball {
	rel := *ball
	rel.Vel = ball.Vel.Minus(surfVel.XYZ(0))
	return rel
}

func closestOnSegment(p, a, b vmath.Vertex2D) vmath.Vertex2D {
	ab := b.Minus(a)
	l := ab.LengthSq()
	if l == 0 {
		return a
	}
	t := vmath.Clamp(p.Minus(a).Dot(ab)/l, 0, 1)
	return a.Plus(ab.Times(t))
}
