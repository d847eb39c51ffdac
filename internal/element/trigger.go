package element

import (
	"math"

	"github.com/playmatatu/pinball/internal/events"
	"github.com/playmatatu/pinball/internal/geom"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/vmath"
)

const (
	TriggerShapeCircle = "circle"
	TriggerShapeWire   = "wire"
)

type TriggerData struct {
	Name       string           `json:"name"`
	Center     vmath.Vertex2D   `json:"center"`
	Radius     float64          `json:"radius"`
	Shape      string           `json:"shape"`
	DragPoints []geom.DragPoint `json:"dragPoints"`
	HitHeight  float64          `json:"hitHeight"`
	Surface    string           `json:"surface"`
	Enabled    bool             `json:"enabled"`
}

func DefaultTriggerData(name string) TriggerData {
	return TriggerData{
		Name:      name,
		Radius:    25,
		Shape:     TriggerShapeCircle,
		HitHeight: 50,
		Enabled:   true,
	}
}

// TriggerState reports how many balls are inside the trigger.
type TriggerState struct {
	BallCount int `json:"ballCount" msgpack:"ballCount"`
}

func (s *TriggerState) Equals(other events.State) bool {
	o, ok := other.(*TriggerState)
	return ok && s.BallCount == o.BallCount
}

func (s *TriggerState) ToMap() map[string]any {
	return map[string]any{"ballCount": s.BallCount}
}

// Trigger fires Hit when a ball center enters its area and Unhit when it
// leaves. It never deflects the ball.
type Trigger struct {
	base
	Data   TriggerData
	volume *physics.BallSet
}

func NewTrigger(data TriggerData) *Trigger {
	t := &Trigger{base: newBase(data.Name, "Trigger"), Data: data, volume: physics.NewBallSet()}
	t.registerAPI()
	return t
}

func (t *Trigger) Setup(ctx *Context) error {
	t.bind(ctx)
	d := &t.Data
	zLow := ctx.Host.SurfaceHeight(d.Surface, d.Center.X, d.Center.Y)
	zHigh := zLow + d.HitHeight

	add := func(h physics.HitObject) {
		t.attach(h, physics.Material{}, 0, true, &d.Enabled)
		hb := h.Base()
		hb.Volume = t.volume
		hb.OnHit = t.onHit
	}

	if d.Shape != TriggerShapeWire || len(d.DragPoints) < 3 {
		c := physics.NewHitCircle(d.Center, math.Max(d.Radius, 1), zLow, zHigh, physics.ObjTrigger)
		c.Rigid = false
		add(c)
		return nil
	}

	poly := geom.GetRgVertex(d.DragPoints, true, ctx.Table.Accuracy())
	for _, e := range outlineSegments(poly, zLow, zHigh, physics.ObjTrigger) {
		e.seg.Rigid = false
		add(e.seg)
	}
	return nil
}

func (t *Trigger) State() events.State {
	return &TriggerState{BallCount: t.volume.Len()}
}

// BallCount is the number of balls currently inside.
func (t *Trigger) BallCount() int {
	return t.volume.Len()
}

func (t *Trigger) onHit(coll *physics.CollisionEvent, _ float64) {
	b := coll.Ball
	if coll.HitFlag {
		if t.volume.Has(b) {
			t.volume.Remove(b)
			t.fire("Unhit", b)
		}
		return
	}
	if !t.volume.Has(b) {
		t.volume.Add(b)
		t.fire("Hit", b)
	}
}

func (t *Trigger) registerAPI() {
	d := &t.Data
	t.props["Enabled"] = boolProp(func() bool { return d.Enabled }, func(v bool) error {
		t.apply(func() { d.Enabled = v })
		return nil
	})
	t.props["BallCount"] = Prop{Get: func() any { return t.volume.Len() }}
}
