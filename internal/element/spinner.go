package element

import (
	"math"

	"github.com/playmatatu/pinball/internal/events"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/vmath"
)

type SpinnerData struct {
	Name     string         `json:"name"`
	Center   vmath.Vertex2D `json:"center"`
	Length   float64        `json:"length"`
	Height   float64        `json:"height"`
	Rotation float64        `json:"rotation"`
	Damping  float64        `json:"damping"`
	// equal limits let the plate spin freely
	AngleMin    float64 `json:"angleMin"`
	AngleMax    float64 `json:"angleMax"`
	Elasticity  float64 `json:"elasticity"`
	ShowBracket bool    `json:"showBracket"`
	Surface     string  `json:"surface"`
	Collidable  bool    `json:"collidable"`
}

func DefaultSpinnerData(name string) SpinnerData {
	return SpinnerData{
		Name:        name,
		Length:      80,
		Height:      60,
		Damping:     0.9879,
		Elasticity:  0.3,
		ShowBracket: true,
		Collidable:  true,
	}
}

type SpinnerState struct {
	Angle float64 `json:"angle" msgpack:"angle"`
}

func (s *SpinnerState) Equals(other events.State) bool {
	o, ok := other.(*SpinnerState)
	return ok && events.FloatEq(s.Angle, o.Angle)
}

func (s *SpinnerState) ToMap() map[string]any {
	return map[string]any{"angle": s.Angle}
}

type Spinner struct {
	base
	Data  SpinnerData
	mover *SpinnerMover
	hit   *spinnerHit
}

func NewSpinner(data SpinnerData) *Spinner {
	s := &Spinner{base: newBase(data.Name, "Spinner"), Data: data}
	s.mover = &SpinnerMover{spinner: s}
	s.registerAPI()
	return s
}

func (s *Spinner) Setup(ctx *Context) error {
	s.bind(ctx)
	d := &s.Data
	d.Damping = vmath.Clamp(d.Damping, 0, 1)
	s.mover.configure()

	zLow := ctx.Host.SurfaceHeight(d.Surface, d.Center.X, d.Center.Y)
	zHigh := zLow + d.Height
	sn, cs := math.Sincos(vmath.DegToRad(d.Rotation))
	half := vmath.NewVertex2D(cs, sn).Times(d.Length * 0.5)
	a := d.Center.Minus(half)
	b := d.Center.Plus(half)

	s.hit = &spinnerHit{
		HitObjectBase: physics.NewHitObjectBase(physics.ObjSpinner),
		spinner:       s,
		faces: [2]*physics.LineSeg{
			physics.NewLineSeg(a, b, zLow, zHigh, physics.ObjSpinner),
			physics.NewLineSeg(b, a, zLow, zHigh, physics.ObjSpinner),
		},
	}
	s.hit.BBox = s.hit.faces[0].BBox.Grow(physics.PhysTouch)
	mat := physics.Material{Elasticity: d.Elasticity}
	s.attach(s.hit, mat, 0, true, &d.Collidable)

	if d.ShowBracket {
		for _, p := range []vmath.Vertex2D{a, b} {
			s.attach(physics.NewHitLineZ(p, zLow, zHigh, physics.ObjSpinner), mat, 0, false, &d.Collidable)
		}
	}
	return nil
}

func (s *Spinner) Mover() Mover { return s.mover }

func (s *Spinner) State() events.State {
	return &SpinnerState{Angle: s.mover.angle}
}

func (s *Spinner) registerAPI() {
	d := &s.Data
	limit := func(field *float64) Prop {
		return numProp(func() float64 { return *field }, func(v float64) error {
			s.apply(func() {
				*field = v
				s.mover.configure()
			})
			return nil
		})
	}
	s.props["AngleMin"] = limit(&d.AngleMin)
	s.props["AngleMax"] = limit(&d.AngleMax)
	s.props["Damping"] = numProp(func() float64 { return d.Damping }, func(v float64) error {
		v = vmath.Clamp(v, 0, 1)
		s.apply(func() { d.Damping = v })
		return nil
	})
	s.props["Elasticity"] = numProp(func() float64 { return d.Elasticity }, func(v float64) error {
		s.apply(func() {
			d.Elasticity = v
			if s.hit != nil {
				s.hit.Elasticity = v
			}
		})
		return nil
	})
	s.props["Collidable"] = boolProp(func() bool { return d.Collidable }, func(v bool) error {
		s.apply(func() { d.Collidable = v })
		return nil
	})
	s.props["CurrentAngle"] = Prop{Get: func() any { return vmath.RadToDeg(s.mover.angle) }}
}

// SpinnerMover spins the plate and counts half revolutions.
type SpinnerMover struct {
	spinner *Spinner

	angleMin, angleMax float64
	limited            bool
	angle, angleSpeed  float64
	halfTurns          int
}

// spinnerGravity pulls the plate back to hanging straight down.
const spinnerGravity = 0.025

func (m *SpinnerMover) configure() {
	d := &m.spinner.Data
	m.angleMin = vmath.DegToRad(math.Min(d.AngleMin, d.AngleMax))
	m.angleMax = vmath.DegToRad(math.Max(d.AngleMin, d.AngleMax))
	m.limited = m.angleMin != m.angleMax
	if m.limited {
		m.angle = vmath.Clamp(m.angle, m.angleMin, m.angleMax)
	}
}

func (m *SpinnerMover) UpdateVelocities() {
	m.angleSpeed -= math.Sin(m.angle) * spinnerGravity * physics.PhysFactor
	m.angleSpeed = vmath.F4(m.angleSpeed * m.spinner.Data.Damping)
}

func (m *SpinnerMover) UpdateDisplacements(dtime float64) {
	m.angle = vmath.F4(m.angle + m.angleSpeed*dtime)
	if m.limited {
		e := m.spinner.Data.Elasticity
		if m.angle > m.angleMax {
			m.angle = m.angleMax
			if m.angleSpeed > 0 {
				m.angleSpeed = -m.angleSpeed * e
			}
		}
		if m.angle < m.angleMin {
			m.angle = m.angleMin
			if m.angleSpeed < 0 {
				m.angleSpeed = -m.angleSpeed * e
			}
		}
		return
	}
	turns := int(math.Floor(m.angle / math.Pi))
	if turns != m.halfTurns {
		m.halfTurns = turns
		m.spinner.fire("Spin")
	}
	// keep the angle small so rounding stays stable
	if m.angle > 2*math.Pi || m.angle < -2*math.Pi {
		m.angle = math.Mod(m.angle, 2*math.Pi)
		m.halfTurns = int(math.Floor(m.angle / math.Pi))
	}
}

// spinnerHit sets the plate spinning when the ball center crosses it from
// either side.
type spinnerHit struct {
	physics.HitObjectBase
	spinner *Spinner
	faces   [2]*physics.LineSeg
}

func (h *spinnerHit) CalcHitBBox() {
	h.BBox = h.faces[0].BBox.Grow(physics.PhysTouch)
}

func (h *spinnerHit) HitTest(ball *physics.Ball, dtime float64, coll *physics.CollisionEvent) float64 {
	if !h.IsEnabled() {
		return -1
	}
	for _, f := range h.faces {
		var c physics.CollisionEvent
		t := f.HitTestBasic(ball, dtime, &c, false, true)
		if t < 0 || c.HitFlag {
			continue
		}
		c.Ball = ball
		c.Obj = h
		*coll = c
		return t
	}
	return -1
}

func (h *spinnerHit) Collide(coll *physics.CollisionEvent) {
	dot := coll.Ball.Vel.Dot(coll.HitNormal)
	lever := math.Max(h.spinner.Data.Height*0.5, 1)
	speed := math.Abs(dot) / lever
	if coll.HitNormal.XY().Dot(h.faces[0].Normal) < 0 {
		speed = -speed
	}
	m := h.spinner.mover
	m.angleSpeed = vmath.F4(m.angleSpeed + speed)
	h.spinner.fire("Hit", coll.Ball)
}
