package element

import (
	"math"

	"github.com/playmatatu/pinball/internal/events"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/vmath"
)

type GateData struct {
	Name          string         `json:"name"`
	Center        vmath.Vertex2D `json:"center"`
	Length        float64        `json:"length"`
	Height        float64        `json:"height"`
	Rotation      float64        `json:"rotation"`
	TwoWay        bool           `json:"twoWay"`
	Damping       float64        `json:"damping"`
	GravityFactor float64        `json:"gravityFactor"`
	// closed and open angles in degrees
	AngleMin    float64 `json:"angleMin"`
	AngleMax    float64 `json:"angleMax"`
	Collidable  bool    `json:"collidable"`
	ShowBracket bool    `json:"showBracket"`
	Surface     string  `json:"surface"`
	PhysicsProps
}

func DefaultGateData(name string) GateData {
	return GateData{
		Name:          name,
		Length:        100,
		Height:        50,
		Damping:       0.985,
		GravityFactor: 0.25,
		AngleMin:      0,
		AngleMax:      90,
		Collidable:    true,
		ShowBracket:   true,
		PhysicsProps:  PhysicsProps{Elasticity: 0.3, Friction: 0.02},
	}
}

// GateState is the published plate angle in radians.
type GateState struct {
	Angle float64 `json:"angle" msgpack:"angle"`
}

func (s *GateState) Equals(other events.State) bool {
	o, ok := other.(*GateState)
	return ok && events.FloatEq(s.Angle, o.Angle)
}

func (s *GateState) ToMap() map[string]any {
	return map[string]any{"angle": s.Angle}
}

type Gate struct {
	base
	Data  GateData
	mover *GateMover
	hit   *gateHit
}

func NewGate(data GateData) *Gate {
	g := &Gate{base: newBase(data.Name, "Gate"), Data: data}
	g.mover = &GateMover{gate: g}
	g.mover.configure()
	g.mover.angle = g.mover.rest()
	g.registerAPI()
	return g
}

func (g *Gate) Setup(ctx *Context) error {
	g.bind(ctx)
	d := &g.Data
	d.Damping = vmath.Clamp(d.Damping, 0, 1)
	d.AngleMin = vmath.Clamp(d.AngleMin, 0, 90)
	d.AngleMax = vmath.Clamp(d.AngleMax, d.AngleMin, 90)
	g.mover.configure()
	g.mover.angle = g.mover.rest()

	zLow := ctx.Host.SurfaceHeight(d.Surface, d.Center.X, d.Center.Y)
	zHigh := zLow + d.Height
	rad := vmath.DegToRad(d.Rotation)
	s, c := math.Sincos(rad)
	half := vmath.NewVertex2D(c, s).Times(d.Length * 0.5)
	a := d.Center.Minus(half)
	b := d.Center.Plus(half)

	mat := ResolveMaterial(ctx.Table, d.PhysicsProps, false)
	g.hit = &gateHit{
		HitObjectBase: physics.NewHitObjectBase(physics.ObjGate),
		gate:          g,
		front:         physics.NewLineSeg(a, b, zLow, zHigh, physics.ObjGate),
		back:          physics.NewLineSeg(b, a, zLow, zHigh, physics.ObjGate),
	}
	g.hit.front.Rigid = false
	g.hit.back.Rigid = !d.TwoWay
	g.attach(g.hit, mat, 0, true, &d.Collidable)
	g.hit.CalcHitBBox()

	if d.ShowBracket {
		for _, p := range []vmath.Vertex2D{a, b} {
			g.attach(physics.NewHitLineZ(p, zLow, zHigh, physics.ObjGate), mat, 0, false, &d.Collidable)
		}
	}
	return nil
}

func (g *Gate) Mover() Mover { return g.mover }

func (g *Gate) State() events.State {
	return &GateState{Angle: g.mover.angle}
}

// forward is the direction a ball travels when it passes a one-way gate.
func (g *Gate) forward() vmath.Vertex2D {
	s, c := math.Sincos(vmath.DegToRad(g.Data.Rotation))
	return vmath.NewVertex2D(s, -c)
}

// SetCloseAngle moves the closed position. Not possible while collidable.
func (g *Gate) SetCloseAngle(deg float64) error {
	if g.Data.Collidable {
		return commandError(g.name, "CloseAngle", "Gate is collidable! closing angles other than 0 aren't possible!")
	}
	v := vmath.Clamp(deg, 0, 90)
	g.apply(func() {
		if v > g.Data.AngleMax {
			g.Data.AngleMax = v
		} else {
			g.Data.AngleMin = v
		}
		g.mover.configure()
	})
	return nil
}

// SetOpenAngle moves the fully open position. Not possible while collidable.
func (g *Gate) SetOpenAngle(deg float64) error {
	if g.Data.Collidable {
		return commandError(g.name, "OpenAngle", "Gate is collidable! open angles other than 90 aren't possible!")
	}
	v := vmath.Clamp(deg, 0, 90)
	g.apply(func() {
		if v < g.Data.AngleMin {
			g.Data.AngleMin = v
		} else {
			g.Data.AngleMax = v
		}
		g.mover.configure()
	})
	return nil
}

// SetOpen forces the gate open (no collision) or lets it fall closed.
func (g *Gate) SetOpen(open bool) {
	g.apply(func() { g.mover.open = open })
}

func (g *Gate) registerAPI() {
	d := &g.Data
	g.props["CloseAngle"] = numProp(func() float64 { return d.AngleMin }, g.SetCloseAngle)
	g.props["OpenAngle"] = numProp(func() float64 { return d.AngleMax }, g.SetOpenAngle)
	g.props["Collidable"] = boolProp(func() bool { return d.Collidable }, func(v bool) error {
		d.Collidable = v
		return nil
	})
	g.props["TwoWay"] = boolProp(func() bool { return d.TwoWay }, func(v bool) error {
		g.apply(func() {
			d.TwoWay = v
			if g.hit != nil {
				g.hit.back.Rigid = !v
			}
			g.mover.configure()
		})
		return nil
	})
	g.props["Open"] = boolProp(func() bool { return g.mover.open }, func(v bool) error {
		g.SetOpen(v)
		return nil
	})
	g.props["Damping"] = numProp(func() float64 { return d.Damping }, func(v float64) error {
		v = vmath.Clamp(v, 0, 1)
		g.apply(func() { d.Damping = v })
		return nil
	})
	g.props["GravityFactor"] = numProp(func() float64 { return d.GravityFactor }, func(v float64) error {
		g.apply(func() { d.GravityFactor = v })
		return nil
	})
	g.props["Elasticity"] = numProp(func() float64 { return d.Elasticity }, func(v float64) error {
		g.apply(func() {
			d.Elasticity = v
			if g.hit != nil {
				g.hit.Elasticity = v
			}
		})
		return nil
	})
	g.props["CurrentAngle"] = Prop{Get: func() any { return vmath.RadToDeg(g.mover.angle) }}
}

// GateMover swings the gate plate and lets it fall back under gravity.
type GateMover struct {
	gate *Gate

	angleMin, angleMax float64
	angle              float64
	angleSpeed         float64
	open               bool
}

func (m *GateMover) configure() {
	d := &m.gate.Data
	m.angleMin = vmath.DegToRad(d.AngleMin)
	m.angleMax = vmath.DegToRad(d.AngleMax)
	if d.TwoWay {
		m.angleMin = -m.angleMax
	}
	m.angle = vmath.Clamp(m.angle, m.angleMin, m.angleMax)
}

// rest is the angle the plate settles at.
func (m *GateMover) rest() float64 {
	if m.gate.Data.TwoWay {
		return 0
	}
	return m.angleMin
}

func (m *GateMover) UpdateVelocities() {
	if m.open {
		return
	}
	d := &m.gate.Data
	m.angleSpeed -= math.Sin(m.angle-m.rest()) * d.GravityFactor * physics.PhysFactor
	m.angleSpeed = vmath.F4(m.angleSpeed * d.Damping)
}

func (m *GateMover) UpdateDisplacements(dtime float64) {
	if m.open {
		m.angle = m.angleMax
		m.angleSpeed = 0
		return
	}
	m.angle = vmath.F4(m.angle + m.angleSpeed*dtime)
	if m.angle > m.angleMax {
		m.angle = m.angleMax
		if m.angleSpeed > 0 {
			m.angleSpeed *= -0.2
		}
	}
	if m.angle < m.angleMin {
		m.angle = m.angleMin
		if m.angleSpeed < 0 {
			m.angleSpeed *= -0.2
		}
	}
}

// gateHit is the gate plate: the front face lets balls through and swings the
// plate, the back face blocks on one-way gates.
type gateHit struct {
	physics.HitObjectBase
	gate        *Gate
	front, back *physics.LineSeg
}

func (h *gateHit) CalcHitBBox() {
	bb := h.front.BBox
	h.BBox = bb.Grow(physics.PhysTouch)
}

func (h *gateHit) HitTest(ball *physics.Ball, dtime float64, coll *physics.CollisionEvent) float64 {
	if !h.IsEnabled() || h.gate.mover.open {
		return -1
	}
	best := -1.0
	var bestColl physics.CollisionEvent
	for _, seg := range []*physics.LineSeg{h.front, h.back} {
		var c physics.CollisionEvent
		t := seg.HitTestBasic(ball, dtime, &c, seg.Rigid, true)
		if t < 0 || (!seg.Rigid && c.HitFlag) {
			continue
		}
		if best < 0 || t < best {
			best, bestColl = t, c
		}
	}
	if best < 0 {
		return -1
	}
	bestColl.Ball = ball
	bestColl.Obj = h
	*coll = bestColl
	return best
}

func (h *gateHit) Collide(coll *physics.CollisionEvent) {
	ball := coll.Ball
	dot := ball.Vel.Dot(coll.HitNormal)
	fromFront := coll.HitNormal.XY().Dot(h.gate.forward()) < 0

	if !fromFront && !h.gate.Data.TwoWay {
		ball.Collide3DWall(coll.HitNormal, coll.HitDistance, vmath.Vertex3D{}, h.Elasticity, h.ElasticityFalloff, h.Friction, h.Scatter)
		return
	}

	lever := math.Max(h.gate.Data.Height*0.5, 1)
	speed := math.Abs(dot) / lever
	if !fromFront {
		speed = -speed
	}
	h.gate.mover.angleSpeed = vmath.F4(speed)
	h.gate.fire("Hit", ball)
}
