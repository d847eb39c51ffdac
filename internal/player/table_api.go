package player

import (
	"fmt"
	"sort"

	"github.com/playmatatu/pinball/internal/element"
	"github.com/playmatatu/pinball/internal/vmath"
)

// tableParam is one global table value reachable from scripts.
type tableParam struct {
	get func(t *element.Table) float64
	set func(t *element.Table, v float64)
}

var tableParams = map[string]tableParam{
	"Gravity": {
		get: func(t *element.Table) float64 { return t.Gravity },
		set: func(t *element.Table, v float64) { t.Gravity = v },
	},
	"Friction": {
		get: func(t *element.Table) float64 { return t.Friction },
		set: func(t *element.Table, v float64) { t.Friction = vmath.Clamp(v, 0, 1) },
	},
	"Elasticity": {
		get: func(t *element.Table) float64 { return t.Elasticity },
		set: func(t *element.Table, v float64) { t.Elasticity = v },
	},
	"ElasticityFalloff": {
		get: func(t *element.Table) float64 { return t.ElasticityFalloff },
		set: func(t *element.Table, v float64) { t.ElasticityFalloff = v },
	},
	"Scatter": {
		get: func(t *element.Table) float64 { return t.Scatter },
		set: func(t *element.Table, v float64) { t.Scatter = v },
	},
	"GlobalDifficulty": {
		get: func(t *element.Table) float64 { return t.GlobalDifficulty },
		set: func(t *element.Table, v float64) { t.GlobalDifficulty = vmath.Clamp(v, 0, 1) },
	},
	"DetailLevel": {
		get: func(t *element.Table) float64 { return t.DetailLevel },
		set: func(t *element.Table, v float64) { t.DetailLevel = vmath.Clamp(v, 0, 10) },
	},
}

// TableParams lists the global values accepted by TableParam and SetTableParam.
func TableParams() []string {
	out := make([]string, 0, len(tableParams)+1)
	for k := range tableParams {
		out = append(out, k)
	}
	out = append(out, "OverridePhysics")
	sort.Strings(out)
	return out
}

// TableParam reads a global table value.
func (p *Player) TableParam(name string) (float64, error) {
	if name == "OverridePhysics" {
		return float64(p.table.OverridePhysics), nil
	}
	tp, ok := tableParams[name]
	if !ok {
		return 0, fmt.Errorf("%w: table.%s", element.ErrUnknownProperty, name)
	}
	return tp.get(p.table), nil
}

// SetTableParam changes a global table value. Gravity and the floor
// material follow at the next safe point. The detail level only affects
// elements built after the change.
func (p *Player) SetTableParam(name string, v float64) error {
	if name == "OverridePhysics" {
		return p.SetOverridePhysics(int(v))
	}
	tp, ok := tableParams[name]
	if !ok {
		return fmt.Errorf("%w: table.%s", element.ErrUnknownProperty, name)
	}
	if vmath.InfNaN(v) {
		return fmt.Errorf("%w: table.%s = %v", element.ErrInvalidArgument, name, v)
	}
	p.Apply(func() {
		tp.set(p.table, v)
		p.refreshGlobals()
	})
	return nil
}

func (p *Player) refreshGlobals() {
	p.gravity = p.table.GravityVector()
	if p.floor != nil {
		p.floor.SetMaterial(p.table.PlayfieldMaterial())
	}
}

// MoveBall places a ball. The change is applied at the next safe point.
func (p *Player) MoveBall(id int, pos vmath.Vertex3D) error {
	b, ok := p.Ball(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoBall, id)
	}
	p.Apply(func() { b.Pos = pos })
	return nil
}

// SetBallVelocity replaces a ball's velocity, in units per 10 ms.
func (p *Player) SetBallVelocity(id int, vel vmath.Vertex3D) error {
	b, ok := p.Ball(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoBall, id)
	}
	p.Apply(func() { b.Vel = vel })
	return nil
}

// DestroyBallByID removes a ball by id.
func (p *Player) DestroyBallByID(id int) error {
	b, ok := p.Ball(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoBall, id)
	}
	p.DestroyBall(b)
	return nil
}

// Call runs a command on a named element.
func (p *Player) Call(elem, cmd string, args ...any) (any, error) {
	e, ok := p.byName[elem]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownElement, elem)
	}
	return e.Call(cmd, args...)
}

// Set assigns a property of a named element.
func (p *Player) Set(elem, prop string, value any) error {
	e, ok := p.byName[elem]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownElement, elem)
	}
	return e.Set(prop, value)
}

// Get reads a property of a named element.
func (p *Player) Get(elem, prop string) (any, error) {
	e, ok := p.byName[elem]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownElement, elem)
	}
	return e.Get(prop)
}
