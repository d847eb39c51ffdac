package player

import (
	"fmt"
	"log"

	"github.com/playmatatu/pinball/internal/element"
	"github.com/playmatatu/pinball/internal/events"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/vmath"
)

// BallState is the published snapshot of one ball.
type BallState struct {
	ID int `json:"id" msgpack:"id"`
	physics.BallState
}

func (s *BallState) Equals(other events.State) bool {
	o, ok := other.(*BallState)
	if !ok || o.ID != s.ID || o.Frozen != s.Frozen {
		return false
	}
	return vertexEq(s.Pos, o.Pos) && vertexEq(s.Vel, o.Vel) && events.FloatEq(s.Radius, o.Radius)
}

func vertexEq(a, b vmath.Vertex3D) bool {
	return events.FloatEq(a.X, b.X) && events.FloatEq(a.Y, b.Y) && events.FloatEq(a.Z, b.Z)
}

func (s *BallState) ToMap() map[string]any {
	return map[string]any{
		"id":     s.ID,
		"pos":    []float64{s.Pos.X, s.Pos.Y, s.Pos.Z},
		"vel":    []float64{s.Vel.X, s.Vel.Y, s.Vel.Z},
		"radius": s.Radius,
		"frozen": s.Frozen,
	}
}

// BallStateName is the state name a ball is published under.
func BallStateName(id int) string {
	return fmt.Sprintf("Ball%d", id)
}

// Pause stops the simulation until Resume.
func (p *Player) Pause() {
	p.paused = true
}

// Resume continues from the current simulated time. The host time spent
// paused is skipped: the clock is re-anchored to the last host clock seen.
func (p *Player) Resume() {
	if !p.paused {
		return
	}
	p.paused = false
	p.clockOffset = p.clock - p.TimeMs()
}

func (p *Player) Paused() bool {
	return p.paused
}

// UpdatePhysics runs every whole physics frame up to the host clock, given
// in milliseconds, and returns the number of frames run.
func (p *Player) UpdatePhysics(clockMs float64) int {
	p.clock = clockMs
	if p.paused {
		return 0
	}
	target := int64((clockMs - p.clockOffset) * 1000)
	frames := 0
	for p.physTime+physics.PhysicsStepTime <= target {
		p.tick()
		frames++
		if p.paused {
			break
		}
	}
	return frames
}

// SimulateTime advances the simulation by ms milliseconds of host time.
func (p *Player) SimulateTime(ms float64) int {
	return p.UpdatePhysics(p.clock + ms)
}

// tick runs one physics frame.
func (p *Player) tick() {
	p.runQueued()

	p.inTick = true
	for _, m := range p.movers {
		m.UpdateVelocities()
	}
	for _, b := range p.balls {
		b.UpdateVelocities(p.gravity)
	}
	p.simulateCycle(physics.PhysFactor)
	p.physTime += physics.PhysicsStepTime
	p.inTick = false

	p.reap()
	p.publish()
}

func (p *Player) runQueued() {
	if len(p.pending) == 0 && len(p.deferred) == 0 {
		return
	}
	queued := append(p.pending, p.deferred...)
	p.pending, p.deferred = nil, nil
	for _, fn := range queued {
		fn()
	}
}

// simulateCycle advances every ball and mover by dtime, stopping at each
// collision in time order.
func (p *Player) simulateCycle(dtime float64) {
	staticCnts := physics.StaticCnts
	for dtime > 0 {
		hitTime := dtime
		p.contacts = p.contacts[:0]

		for _, b := range p.balls {
			b.Coll.Clear()
			if b.Frozen {
				continue
			}
			swept := b.SweptBBox(dtime)
			for _, obj := range p.hits {
				if obj.Base().BBox.Intersects(swept) {
					p.testObject(b, obj, dtime)
				}
			}
		}
		p.testBalls(dtime)

		for _, b := range p.balls {
			if b.Coll.Found() && b.Coll.HitTime < hitTime {
				hitTime = b.Coll.HitTime
			}
		}

		for i := range p.contacts {
			c := &p.contacts[i]
			if c.OtherBall != nil {
				c.Ball.HandleStaticContact(c, 0, hitTime)
			} else {
				c.Obj.Contact(c, hitTime)
			}
		}

		// a ball stuck in repeated zero time hits is pushed forward
		if hitTime < physics.StaticTime {
			staticCnts--
			if staticCnts < 0 {
				staticCnts = 0
				hitTime = physics.StaticTime
			}
		}

		for _, b := range p.balls {
			b.UpdateDisplacements(hitTime)
		}

		for _, b := range p.balls {
			c := &b.Coll
			if !c.Found() || c.HitTime > hitTime {
				continue
			}
			if c.OtherBall != nil {
				speed := -b.Vel.Minus(c.OtherBall.Vel).Dot(c.HitNormal)
				b.CollideBall(c)
				p.tableEvt.FireGroupEvent("Collide", b.ID, c.OtherBall.ID, speed)
			} else {
				c.Obj.Collide(c)
			}
		}

		for _, m := range p.movers {
			m.UpdateDisplacements(hitTime)
		}
		dtime -= hitTime
	}
}

// testObject records a hit of ball b with obj when it is the earliest so
// far. On equal times the object registered first wins.
func (p *Player) testObject(b *physics.Ball, obj physics.HitObject, dtime float64) {
	limit := dtime
	if b.Coll.Found() {
		limit = b.Coll.HitTime
	}
	c := physics.CollisionEvent{Ball: b, HitTime: -1}
	t := obj.HitTest(b, limit, &c)
	if t < 0 || t > limit {
		return
	}
	c.Ball = b
	c.Obj = obj
	c.OtherBall = nil
	c.HitTime = t
	if c.IsContact {
		p.contacts = append(p.contacts, c)
		return
	}
	if !b.Coll.Found() || t < b.Coll.HitTime {
		b.Coll = c
	}
}

// testBalls checks every pair of balls. A frozen ball is only hit, never
// the one moving into the other.
func (p *Player) testBalls(dtime float64) {
	for i, a := range p.balls {
		for _, o := range p.balls[i+1:] {
			mover, other := a, o
			if mover.Frozen {
				mover, other = o, a
			}
			if mover.Frozen {
				continue
			}
			if !mover.SweptBBox(dtime).Intersects(other.SweptBBox(dtime)) {
				continue
			}
			limit := dtime
			if mover.Coll.Found() {
				limit = mover.Coll.HitTime
			}
			c := physics.CollisionEvent{Ball: mover, HitTime: -1}
			t := mover.HitTestBall(other, limit, &c)
			if t < 0 || t > limit {
				continue
			}
			c.Ball = mover
			if c.IsContact {
				p.contacts = append(p.contacts, c)
				continue
			}
			if !mover.Coll.Found() || t < mover.Coll.HitTime {
				mover.Coll = c
			}
		}
	}
}

// reap removes destroyed and drained balls once the frame is complete.
func (p *Player) reap() {
	for _, b := range append([]*physics.Ball(nil), p.balls...) {
		if p.doomed[b] {
			p.removeBall(b)
			continue
		}
		if b.Pos.Z < p.table.TableHeight-physics.DrainDepth {
			log.Printf("[PLAYER] Ball %d drained at (%.1f, %.1f)", b.ID, b.Pos.X, b.Pos.Y)
			p.removeBall(b)
			p.tableEvt.FireGroupEvent("Drain", b.ID)
		}
	}
}

func (p *Player) publish() {
	for _, b := range p.balls {
		p.bridge.ChangeState(BallStateName(b.ID), &BallState{ID: b.ID, BallState: b.BallState})
	}
	for _, e := range p.elements {
		if so, ok := e.(element.StateOwner); ok {
			p.bridge.ChangeState(e.Name(), so.State())
		}
	}
}
