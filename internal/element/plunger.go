package element

import (
	"math"

	"github.com/playmatatu/pinball/internal/events"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/vmath"
)

type PlungerData struct {
	Name string `json:"name"`
	// Center.Y is the fully pulled back tip position
	Center          vmath.Vertex2D `json:"center"`
	Width           float64        `json:"width"`
	Height          float64        `json:"height"`
	Stroke          float64        `json:"stroke"`
	SpeedPull       float64        `json:"speedPull"`
	SpeedFire       float64        `json:"speedFire"`
	ParkPosition    float64        `json:"parkPosition"`
	MomentumXfer    float64        `json:"momentumXfer"`
	ScatterVelocity float64        `json:"scatterVelocity"`
	AutoPlunger     bool           `json:"autoPlunger"`
	AnimFrames      int            `json:"animFrames"`
	Surface         string         `json:"surface"`
	Collidable      bool           `json:"collidable"`
	PhysicsProps
}

func DefaultPlungerData(name string) PlungerData {
	return PlungerData{
		Name:         name,
		Width:        25,
		Height:       50,
		Stroke:       80,
		SpeedPull:    0.5,
		SpeedFire:    80,
		ParkPosition: 0.5 / 3,
		MomentumXfer: 1,
		AnimFrames:   25,
		Collidable:   true,
		PhysicsProps: PhysicsProps{Elasticity: 0.5, Friction: 0.3},
	}
}

// PlungerState is the tip position and the matching animation frame.
type PlungerState struct {
	Pos    float64 `json:"pos" msgpack:"pos"`
	ScaleY float64 `json:"scaleY" msgpack:"scaleY"`
	Frame  int     `json:"frame" msgpack:"frame"`
}

func (s *PlungerState) Equals(other events.State) bool {
	o, ok := other.(*PlungerState)
	return ok && events.FloatEq(s.Pos, o.Pos) && s.Frame == o.Frame
}

func (s *PlungerState) ToMap() map[string]any {
	return map[string]any{"pos": s.Pos, "scaleY": s.ScaleY, "frame": s.Frame}
}

type plungerMotion int

const (
	plungerIdle plungerMotion = iota
	plungerPulling
	plungerFiring
	plungerReturning
)

type Plunger struct {
	base
	Data  PlungerData
	mover *PlungerMover
	hit   *plungerHit
}

func NewPlunger(data PlungerData) *Plunger {
	p := &Plunger{base: newBase(data.Name, "Plunger"), Data: data}
	p.mover = &PlungerMover{plunger: p}
	p.registerAPI()
	return p
}

func (p *Plunger) Setup(ctx *Context) error {
	p.bind(ctx)
	d := &p.Data
	d.Stroke = math.Max(d.Stroke, 1)
	d.ParkPosition = vmath.Clamp(d.ParkPosition, 0, 1)
	d.MomentumXfer = math.Max(d.MomentumXfer, 0)
	if d.AnimFrames < 1 {
		d.AnimFrames = 1
	}

	m := p.mover
	m.zLow = ctx.Host.SurfaceHeight(d.Surface, d.Center.X, d.Center.Y)
	m.zHigh = m.zLow + d.Height
	m.configure()
	m.pos = m.restPos
	m.motion = plungerIdle

	p.hit = &plungerHit{HitObjectBase: physics.NewHitObjectBase(physics.ObjPlunger), mover: m}
	p.hit.tip = physics.NewLineSeg(
		vmath.NewVertex2D(d.Center.X+d.Width, m.pos),
		vmath.NewVertex2D(d.Center.X-d.Width, m.pos),
		m.zLow, m.zHigh, physics.ObjPlunger)
	p.attach(p.hit, ResolveMaterial(ctx.Table, d.PhysicsProps, false), 0, false, &d.Collidable)
	p.hit.CalcHitBBox()
	return nil
}

func (p *Plunger) Mover() Mover { return p.mover }

func (p *Plunger) State() events.State {
	m := p.mover
	return &PlungerState{Pos: m.pos, ScaleY: m.scaleY(), Frame: m.frame()}
}

// PullBack starts retracting the plunger towards the pulled back position.
func (p *Plunger) PullBack() {
	p.apply(func() {
		p.mover.motion = plungerPulling
		p.mover.speed = 0
	})
}

// Fire releases the plunger. Auto plungers always fire at full strength.
func (p *Plunger) Fire() {
	p.apply(func() {
		m := p.mover
		frac := m.pullFraction()
		if p.Data.AutoPlunger {
			frac = 1
		}
		m.speed = vmath.F4(-p.Data.SpeedFire * frac)
		m.motion = plungerFiring
		if m.speed == 0 {
			m.motion = plungerReturning
		}
	})
}

// CreateBall places a new ball resting on the plunger tip.
func (p *Plunger) CreateBall() *physics.Ball {
	if p.ctx == nil {
		return nil
	}
	r := p.ctx.Table.BallRadius
	if r <= 0 {
		r = physics.DefaultBallRadius
	}
	pos := vmath.NewVertex3D(p.Data.Center.X, p.mover.pos-r-physics.PhysTouch, p.mover.zLow+r)
	return p.ctx.Host.CreateBall(pos, r, p.ctx.Table.BallMass)
}

func (p *Plunger) registerAPI() {
	d := &p.Data
	setter := func(field *float64, lo, hi float64) Prop {
		return numProp(func() float64 { return *field }, func(v float64) error {
			if lo < hi {
				v = vmath.Clamp(v, lo, hi)
			}
			p.apply(func() {
				*field = v
				p.mover.configure()
			})
			return nil
		})
	}
	p.props["PullSpeed"] = setter(&d.SpeedPull, 0, 1000)
	p.props["FireSpeed"] = setter(&d.SpeedFire, 0, 1000)
	p.props["MomentumXfer"] = setter(&d.MomentumXfer, 0, 100)
	p.props["ScatterVelocity"] = setter(&d.ScatterVelocity, 0, 100)
	p.props["ParkPosition"] = setter(&d.ParkPosition, 0, 1)
	p.props["AutoPlunger"] = boolProp(func() bool { return d.AutoPlunger }, func(v bool) error {
		p.apply(func() { d.AutoPlunger = v })
		return nil
	})
	p.props["Enabled"] = boolProp(func() bool { return d.Collidable }, func(v bool) error {
		p.apply(func() { d.Collidable = v })
		return nil
	})
	p.props["Position"] = Prop{Get: func() any { return p.mover.pullFraction() * 25 }}

	p.cmds["PullBack"] = func(args ...any) (any, error) {
		p.PullBack()
		return nil, nil
	}
	p.cmds["Fire"] = func(args ...any) (any, error) {
		p.Fire()
		return nil, nil
	}
	p.cmds["CreateBall"] = func(args ...any) (any, error) {
		b := p.CreateBall()
		if b == nil {
			return nil, ErrInvalidCommand
		}
		return b.ID, nil
	}
}

// PlungerMover moves the tip along the lane. Positions grow towards the
// bottom of the table, so firing moves the tip to smaller y.
type PlungerMover struct {
	plunger *Plunger

	frameStart, frameEnd, restPos float64
	pos, speed                    float64
	motion                        plungerMotion
	zLow, zHigh                   float64
}

func (m *PlungerMover) configure() {
	d := &m.plunger.Data
	m.frameStart = vmath.F4(d.Center.Y)
	m.frameEnd = vmath.F4(d.Center.Y - d.Stroke)
	m.restPos = vmath.F4(m.frameEnd + d.ParkPosition*d.Stroke)
}

// pullFraction is 0 at the rest position and 1 fully pulled back.
func (m *PlungerMover) pullFraction() float64 {
	span := m.frameStart - m.restPos
	if span <= 0 {
		return 0
	}
	return vmath.Clamp((m.pos-m.restPos)/span, 0, 1)
}

func (m *PlungerMover) frame() int {
	n := m.plunger.Data.AnimFrames
	span := m.frameStart - m.restPos
	if span <= 0 || n <= 1 {
		return 0
	}
	f := int(math.Round((m.frameStart - m.pos) / span * float64(n-1)))
	if f < 0 {
		return 0
	}
	if f > n-1 {
		return n - 1
	}
	return f
}

func (m *PlungerMover) scaleY() float64 {
	return vmath.F4((m.frameStart - m.pos) / (m.frameStart - m.frameEnd))
}

func (m *PlungerMover) UpdateVelocities() {
	d := &m.plunger.Data
	switch m.motion {
	case plungerPulling:
		m.speed = d.SpeedPull
	case plungerReturning:
		if m.pos < m.restPos {
			m.speed = d.SpeedPull
		} else {
			m.speed = -d.SpeedPull
		}
	case plungerIdle:
		m.speed = 0
	}
}

func (m *PlungerMover) UpdateDisplacements(dtime float64) {
	m.pos = vmath.F4(m.pos + m.speed*dtime)
	switch m.motion {
	case plungerPulling:
		if m.pos >= m.frameStart {
			m.pos = m.frameStart
			m.speed = 0
		}
	case plungerFiring:
		if m.pos <= m.frameEnd {
			m.pos = m.frameEnd
			m.motion = plungerReturning
			m.speed = 0
		}
	case plungerReturning:
		if (m.speed > 0 && m.pos >= m.restPos) || (m.speed < 0 && m.pos <= m.restPos) || (m.speed == 0 && m.pos == m.restPos) {
			m.pos = m.restPos
			m.speed = 0
			m.motion = plungerIdle
		}
	}
	if h := m.plunger.hit; h != nil {
		h.tip.V1.Y = m.pos
		h.tip.V2.Y = m.pos
		h.tip.CalcHitBBox()
	}
}

type plungerHit struct {
	physics.HitObjectBase
	mover *PlungerMover
	tip   *physics.LineSeg
}

func (h *plungerHit) CalcHitBBox() {
	d := &h.mover.plunger.Data
	h.BBox = physics.BBox{
		Left: d.Center.X - d.Width, Right: d.Center.X + d.Width,
		Top: h.mover.frameEnd - physics.DefaultBallRadius*2, Bottom: h.mover.frameStart,
		ZLow: h.mover.zLow, ZHigh: h.mover.zHigh,
	}
}

func (h *plungerHit) surfaceVelocity() vmath.Vertex3D {
	return vmath.NewVertex3D(0, h.mover.speed, 0)
}

// HitTest tests the tip using the ball velocity relative to the moving tip.
func (h *plungerHit) HitTest(ball *physics.Ball, dtime float64, coll *physics.CollisionEvent) float64 {
	if !h.IsEnabled() || ball.Frozen {
		return -1
	}
	rel := *ball
	rel.Vel = ball.Vel.Minus(h.surfaceVelocity())
	var c physics.CollisionEvent
	t := h.tip.HitTestBasic(&rel, dtime, &c, true, true)
	if t < 0 {
		return -1
	}
	c.Ball = ball
	c.Obj = h
	*coll = c
	return t
}

func (h *plungerHit) Collide(coll *physics.CollisionEvent) {
	ball := coll.Ball
	m := h.mover
	d := &m.plunger.Data
	ball.Collide3DWall(coll.HitNormal, coll.HitDistance, h.surfaceVelocity(), h.Elasticity, h.ElasticityFalloff, h.Friction, h.Scatter)
	if m.motion != plungerFiring {
		return
	}
	launch := vmath.F4(m.speed * d.MomentumXfer)
	if ball.Vel.Y > launch {
		ball.Vel.Y = launch
	}
	if d.ScatterVelocity > 0 && m.plunger.ctx != nil {
		ball.Vel.X += m.plunger.ctx.Rand.Scatter(d.ScatterVelocity)
	}
}

// Contact keeps a resting ball on the tip while it moves.
func (h *plungerHit) Contact(coll *physics.CollisionEvent, dtime float64) {
	ball := coll.Ball
	rel := ball.Vel.Minus(h.surfaceVelocity()).Dot(coll.HitNormal)
	if rel < 0 {
		ball.Vel = ball.Vel.Minus(coll.HitNormal.Times(rel))
	}
	ball.ApplyFriction(coll.HitNormal, dtime, h.Friction)
}
