package player

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/playmatatu/pinball/internal/element"
	"github.com/playmatatu/pinball/internal/events"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/vmath"
)

var (
	ErrUnknownElement = errors.New("unknown element")
	ErrNoBall         = errors.New("no such ball")
	ErrNoValueStore   = errors.New("no value store configured")
)

// ValueStore persists script values across sessions of the same table.
type ValueStore interface {
	SaveValue(ctx context.Context, table, key string, value any) error
	LoadValue(ctx context.Context, table, key string) (any, error)
}

// Options configure a player.
type Options struct {
	// Seed drives every random scatter; equal seeds give identical runs.
	Seed   int64
	Values ValueStore
}

// Player owns the balls, the hit objects and the movers of one table and
// advances them in fixed one millisecond physics frames. It is not safe for
// concurrent use.
type Player struct {
	table    *element.Table
	bridge   *events.Bridge
	tableEvt *events.Emitter
	rand     *physics.Rand
	values   ValueStore

	elements []element.Element
	byName   map[string]element.Element
	hits     []physics.HitObject
	movers   []element.Mover
	floor    *physics.HitPlane

	balls      []*physics.Ball
	doomed     map[*physics.Ball]bool
	nextBallID int
	gravity    vmath.Vertex3D

	// simulated time in microseconds
	physTime int64
	// host clock minus simulated time, in milliseconds
	clockOffset float64
	clock       float64
	paused      bool

	inTick   bool
	pending  []func()
	deferred []func()
	contacts []physics.CollisionEvent
}

// New builds the hit objects of every element and returns a ready player.
func New(table *element.Table, elements []element.Element, opts Options) (*Player, error) {
	table.Normalize()
	p := &Player{
		table:      table,
		bridge:     events.NewBridge(),
		rand:       physics.NewRand(opts.Seed),
		values:     opts.Values,
		byName:     make(map[string]element.Element, len(elements)),
		doomed:     make(map[*physics.Ball]bool),
		nextBallID: 1,
	}
	p.tableEvt = p.bridge.Emitter(table.Name)
	p.gravity = table.GravityVector()

	for _, e := range elements {
		if _, dup := p.byName[e.Name()]; dup {
			return nil, fmt.Errorf("duplicate element name %q", e.Name())
		}
		p.byName[e.Name()] = e
	}
	p.elements = elements

	for _, h := range table.BoundsHits() {
		if plane, ok := h.(*physics.HitPlane); ok && plane.Normal.Z > 0 {
			p.floor = plane
		}
		p.hits = append(p.hits, h)
	}

	ctx := &element.Context{Table: table, Host: p, Bridge: p.bridge, Rand: p.rand}
	for _, e := range elements {
		if err := e.Setup(ctx); err != nil {
			return nil, fmt.Errorf("setup %s %q: %w", e.Kind(), e.Name(), err)
		}
		for _, h := range e.HitObjects() {
			h.CalcHitBBox()
			p.hits = append(p.hits, h)
		}
		if mo, ok := e.(element.MoverOwner); ok {
			p.movers = append(p.movers, mo.Mover())
		}
	}
	for _, h := range p.hits {
		if h.Base().Events == nil {
			h.Base().Events = p.tableEvt
		}
	}

	log.Printf("[PLAYER] Table %q ready: %d elements, %d hit objects, %d movers",
		table.Name, len(elements), len(p.hits), len(p.movers))
	return p, nil
}

func (p *Player) Table() *element.Table   { return p.table }
func (p *Player) Bridge() *events.Bridge  { return p.bridge }
func (p *Player) Gravity() vmath.Vertex3D { return p.gravity }

// TimeMs is the simulated time in milliseconds.
func (p *Player) TimeMs() float64 {
	return float64(p.physTime) / 1000
}

// Element looks up an element by name.
func (p *Player) Element(name string) (element.Element, bool) {
	e, ok := p.byName[name]
	return e, ok
}

func (p *Player) Elements() []element.Element {
	return p.elements
}

// HitObjects returns every registered hit object in registration order.
func (p *Player) HitObjects() []physics.HitObject {
	return p.hits
}

// Balls returns the live balls.
func (p *Player) Balls() []*physics.Ball {
	out := make([]*physics.Ball, 0, len(p.balls))
	for _, b := range p.balls {
		if !p.doomed[b] {
			out = append(out, b)
		}
	}
	return out
}

func (p *Player) Ball(id int) (*physics.Ball, bool) {
	for _, b := range p.balls {
		if b.ID == id && !p.doomed[b] {
			return b, true
		}
	}
	return nil, false
}

// CreateBall adds a ball. Zero radius or mass use the table defaults.
func (p *Player) CreateBall(pos vmath.Vertex3D, radius, mass float64) *physics.Ball {
	if radius <= 0 {
		radius = p.table.BallRadius
	}
	if mass <= 0 {
		mass = p.table.BallMass
	}
	b := physics.NewBall(p.nextBallID, pos, radius, mass, p.rand)
	p.nextBallID++
	p.balls = append(p.balls, b)
	return b
}

// DestroyBall removes a ball. During a tick the ball is frozen and removed
// once the tick completes.
func (p *Player) DestroyBall(b *physics.Ball) {
	if b == nil {
		return
	}
	b.Frozen = true
	if p.inTick {
		p.doomed[b] = true
		return
	}
	p.removeBall(b)
}

func (p *Player) removeBall(b *physics.Ball) {
	for i, o := range p.balls {
		if o == b {
			p.balls = append(p.balls[:i], p.balls[i+1:]...)
			break
		}
	}
	for _, h := range p.hits {
		if v := h.Base().Volume; v != nil {
			v.Remove(b)
		}
	}
	delete(p.doomed, b)
	p.bridge.Forget(BallStateName(b.ID))
}

// Apply runs fn now, or at the start of the next tick while a tick runs.
func (p *Player) Apply(fn func()) {
	if p.inTick {
		p.pending = append(p.pending, fn)
		return
	}
	fn()
}

// Defer runs fn at the start of the next tick.
func (p *Player) Defer(fn func()) {
	p.deferred = append(p.deferred, fn)
}

// SurfaceHeight is the z of the named surface or ramp at (x, y), or the
// playfield height.
func (p *Player) SurfaceHeight(surface string, x, y float64) float64 {
	if surface != "" {
		if e, ok := p.byName[surface]; ok {
			if hs, ok := e.(element.HeightSource); ok {
				if h, ok := hs.HeightAt(p.table, x, y); ok {
					return h
				}
			}
		}
	}
	return p.table.TableHeight
}

// SetOverridePhysics switches the global physics preset at the next tick.
func (p *Player) SetOverridePhysics(preset int) error {
	if _, ok := element.Preset(preset); !ok && preset != 0 {
		return fmt.Errorf("%w: physics preset %d", element.ErrInvalidArgument, preset)
	}
	p.Apply(func() {
		p.table.OverridePhysics = preset
		p.refreshGlobals()
	})
	return nil
}

// SaveValue stores a script value for this table.
func (p *Player) SaveValue(ctx context.Context, key string, value any) error {
	if p.values == nil {
		return ErrNoValueStore
	}
	return p.values.SaveValue(ctx, p.table.Name, key, value)
}

// LoadValue reads a stored script value for this table.
func (p *Player) LoadValue(ctx context.Context, key string) (any, error) {
	if p.values == nil {
		return nil, ErrNoValueStore
	}
	return p.values.LoadValue(ctx, p.table.Name, key)
}
