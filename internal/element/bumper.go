package element

import (
	"math"

	"github.com/playmatatu/pinball/internal/events"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/vmath"
)

type BumperData struct {
	Name       string         `json:"name"`
	Center     vmath.Vertex2D `json:"center"`
	Radius     float64        `json:"radius"`
	Height     float64        `json:"height"`
	Force      float64        `json:"force"`
	Threshold  float64        `json:"threshold"`
	RingSpeed  float64        `json:"ringSpeed"`
	RingDropBy float64        `json:"ringDropOffset"`
	HitEvent   bool           `json:"hitEvent"`
	Surface    string         `json:"surface"`
	Collidable bool           `json:"collidable"`
	PhysicsProps
}

func DefaultBumperData(name string) BumperData {
	return BumperData{
		Name:         name,
		Radius:       45,
		Height:       90,
		Force:        15,
		Threshold:    1,
		RingSpeed:    0.5,
		RingDropBy:   0,
		HitEvent:     true,
		Collidable:   true,
		PhysicsProps: PhysicsProps{Elasticity: 0.3},
	}
}

// BumperState is the ring offset below its rest height.
type BumperState struct {
	RingOffset float64 `json:"ringOffset" msgpack:"ringOffset"`
}

func (s *BumperState) Equals(other events.State) bool {
	o, ok := other.(*BumperState)
	return ok && events.FloatEq(s.RingOffset, o.RingOffset)
}

func (s *BumperState) ToMap() map[string]any {
	return map[string]any{"ringOffset": s.RingOffset}
}

// Bumper is a pop bumper: a rigid post that kicks the ball away when hit hard
// enough.
type Bumper struct {
	base
	Data BumperData
	ring *RingMover
	hit  *physics.HitCircle
	zLow float64
}

func NewBumper(data BumperData) *Bumper {
	b := &Bumper{base: newBase(data.Name, "Bumper"), Data: data}
	b.ring = &RingMover{bumper: b}
	b.registerAPI()
	return b
}

func (b *Bumper) Setup(ctx *Context) error {
	b.bind(ctx)
	d := &b.Data
	d.Radius = math.Max(d.Radius, 1)
	b.zLow = ctx.Host.SurfaceHeight(d.Surface, d.Center.X, d.Center.Y)

	b.hit = physics.NewHitCircle(d.Center, d.Radius, b.zLow, b.zLow+d.Height, physics.ObjBumper)
	b.attach(b.hit, ResolveMaterial(ctx.Table, d.PhysicsProps, false), d.Threshold, d.HitEvent, &d.Collidable)
	b.hit.OnHit = b.onHit
	return nil
}

func (b *Bumper) Mover() Mover { return b.ring }

func (b *Bumper) State() events.State {
	return &BumperState{RingOffset: b.ring.offset()}
}

func (b *Bumper) onHit(coll *physics.CollisionEvent, normalSpeed float64) {
	if normalSpeed < b.Data.Threshold {
		return
	}
	ball := coll.Ball
	ball.Vel = ball.Vel.Plus(coll.HitNormal.Times(b.Data.Force))
	if b.Data.HitEvent {
		b.fire("Hit", ball)
	}
	b.ring.trigger()
}

// PlayHit runs the ring animation without a ball.
func (b *Bumper) PlayHit() {
	b.apply(b.ring.trigger)
}

func (b *Bumper) registerAPI() {
	d := &b.Data
	b.props["Force"] = floatField(&d.Force, 0, 0)
	b.props["Threshold"] = numProp(func() float64 { return d.Threshold }, func(v float64) error {
		b.apply(func() {
			d.Threshold = v
			if b.hit != nil {
				b.hit.Threshold = v
			}
		})
		return nil
	})
	b.props["HasHitEvent"] = boolField(&d.HitEvent)
	b.props["Collidable"] = boolProp(func() bool { return d.Collidable }, func(v bool) error {
		b.apply(func() { d.Collidable = v })
		return nil
	})
	b.props["RingSpeed"] = floatField(&d.RingSpeed, 0, 0)
	b.cmds["PlayHit"] = func(args ...any) (any, error) {
		b.PlayHit()
		return nil, nil
	}
}

// RingMover pulls the bumper ring down on a spring after a hit and lets it
// spring back up.
type RingMover struct {
	bumper   *Bumper
	spring   spring
	dropping bool
}

// ringTravel is how far the ring is pulled down on a hit.
const ringTravel = 45

// ringReach is how close the ring gets to the bottom before it turns back.
const ringReach = 1.0

func (m *RingMover) trigger() {
	m.dropping = true
}

func (m *RingMover) offset() float64 {
	return m.spring.pos
}

func (m *RingMover) limit() float64 {
	return ringTravel + m.bumper.Data.RingDropBy
}

func (m *RingMover) UpdateVelocities() {
	if m.dropping && m.limit()-m.spring.pos < ringReach {
		m.dropping = false
	}
}

func (m *RingMover) UpdateDisplacements(dtime float64) {
	target := 0.0
	if m.dropping {
		target = m.limit()
	}
	if m.spring.atRest(target) {
		return
	}
	m.spring.step(target, m.bumper.Data.RingSpeed*springGain, dtime)
	m.spring.clamp(0, m.limit())
}
