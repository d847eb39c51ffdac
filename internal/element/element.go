package element

import (
	"errors"
	"sort"

	"github.com/playmatatu/pinball/internal/events"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/vmath"
)

// Host is the player as seen from elements.
type Host interface {
	CreateBall(pos vmath.Vertex3D, radius, mass float64) *physics.Ball
	DestroyBall(b *physics.Ball)
	// Apply runs fn now, or at the next tick boundary when called while a
	// tick is in progress.
	Apply(fn func())
	// Defer always runs fn at the start of the next tick.
	Defer(fn func())
	SurfaceHeight(surface string, x, y float64) float64
}

// Context is handed to every element during setup.
type Context struct {
	Table  *Table
	Host   Host
	Bridge *events.Bridge
	Rand   *physics.Rand
}

// API is the enumerated script surface of an element.
type API interface {
	Name() string
	Kind() string
	Get(prop string) (any, error)
	Set(prop string, value any) error
	Call(cmd string, args ...any) (any, error)
	Props() []string
	Commands() []string
}

// Element is a playfield item that contributes hit objects.
type Element interface {
	API
	Setup(ctx *Context) error
	HitObjects() []physics.HitObject
}

// Mover advances continuous element state once per physics frame.
type Mover interface {
	UpdateVelocities()
	UpdateDisplacements(dtime float64)
}

// MoverOwner is implemented by elements with moving parts.
type MoverOwner interface {
	Mover() Mover
}

// StateOwner is implemented by elements that publish snapshots.
type StateOwner interface {
	State() events.State
}

// HeightSource is implemented by elements other elements can stand on.
type HeightSource interface {
	HeightAt(t *Table, x, y float64) (float64, bool)
}

// Command is a script callable.
type Command func(args ...any) (any, error)

type base struct {
	name   string
	kind   string
	ctx    *Context
	events *events.Emitter
	hits   []physics.HitObject
	props  map[string]Prop
	cmds   map[string]Command
}

func newBase(name, kind string) base {
	return base{name: name, kind: kind, props: map[string]Prop{}, cmds: map[string]Command{}}
}

func (b *base) Name() string { return b.name }
func (b *base) Kind() string { return b.kind }

func (b *base) HitObjects() []physics.HitObject { return b.hits }

func (b *base) bind(ctx *Context) {
	b.ctx = ctx
	b.events = ctx.Bridge.Emitter(b.name)
	b.hits = nil
}

// attach configures a hit object for this element and registers it.
func (b *base) attach(h physics.HitObject, mat physics.Material, threshold float64, fireEvents bool, collidable *bool) {
	hb := h.Base()
	hb.SetMaterial(mat)
	hb.Threshold = threshold
	hb.FireEvents = fireEvents
	hb.Events = b.events
	hb.Name = b.name
	hb.Collidable = collidable
	b.hits = append(b.hits, h)
}

func (b *base) fire(event string, args ...any) {
	if b.events != nil {
		b.events.FireGroupEvent(event, args...)
	}
}

// apply runs a physics affecting mutation at a safe point.
func (b *base) apply(fn func()) {
	if b.ctx == nil || b.ctx.Host == nil {
		fn()
		return
	}
	b.ctx.Host.Apply(fn)
}

// later runs fn at the start of the next tick, even outside a tick.
func (b *base) later(fn func()) {
	if b.ctx == nil || b.ctx.Host == nil {
		fn()
		return
	}
	b.ctx.Host.Defer(fn)
}

func (b *base) Get(prop string) (any, error) {
	p, ok := b.props[prop]
	if !ok || p.Get == nil {
		return nil, wrapCommandError(b.name, prop, ErrUnknownProperty)
	}
	return p.Get(), nil
}

func (b *base) Set(prop string, value any) error {
	p, ok := b.props[prop]
	if !ok {
		return wrapCommandError(b.name, prop, ErrUnknownProperty)
	}
	if p.Set == nil {
		return wrapCommandError(b.name, prop, ErrReadOnly)
	}
	if err := p.Set(value); err != nil {
		return asCommandError(b.name, prop, err)
	}
	return nil
}

func (b *base) Call(cmd string, args ...any) (any, error) {
	c, ok := b.cmds[cmd]
	if !ok {
		return nil, wrapCommandError(b.name, cmd, ErrUnknownCommand)
	}
	res, err := c(args...)
	if err != nil {
		return nil, asCommandError(b.name, cmd, err)
	}
	return res, nil
}

func (b *base) Props() []string {
	out := make([]string, 0, len(b.props))
	for k := range b.props {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (b *base) Commands() []string {
	out := make([]string, 0, len(b.cmds))
	for k := range b.cmds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func asCommandError(element, action string, err error) error {
	var ce *CommandError
	if errors.As(err, &ce) {
		return err
	}
	return wrapCommandError(element, action, err)
}
