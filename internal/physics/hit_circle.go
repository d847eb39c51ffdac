package physics

import (
	"math"

	"github.com/playmatatu/pinball/internal/vmath"
)

// HitCircle is a vertical cylinder. Rigid circles bounce the ball off their
// side; non-rigid ones report when the ball center enters or leaves them.
type HitCircle struct {
	HitObjectBase
	Center vmath.Vertex2D
	Radius float64
	ZLow   float64
	ZHigh  float64
	Rigid  bool
	// surface velocity of a moving ring, if any
	SurfVel vmath.Vertex3D
}

func NewHitCircle(center vmath.Vertex2D, radius, zLow, zHigh float64, t ObjType) *HitCircle {
	c := &HitCircle{HitObjectBase: NewHitObjectBase(t), Center: center, Radius: radius, ZLow: zLow, ZHigh: zHigh, Rigid: true}
	c.CalcHitBBox()
	return c
}

func (c *HitCircle) CalcHitBBox() {
	c.BBox = BBox{
		Left: c.Center.X - c.Radius, Right: c.Center.X + c.Radius,
		Top: c.Center.Y - c.Radius, Bottom: c.Center.Y + c.Radius,
		ZLow: c.ZLow, ZHigh: c.ZHigh,
	}
}

func (c *HitCircle) HitTest(ball *Ball, dtime float64, coll *CollisionEvent) float64 {
	if !c.IsEnabled() {
		return -1
	}
	target := c.Radius
	if c.Rigid {
		target += ball.Radius
	}
	return c.HitTestBasicRadius(ball, dtime, coll, c.Rigid, true, target)
}

// HitTestBasicRadius tests the ball center against a circle of targetRadius.
func (c *HitCircle) HitTestBasicRadius(ball *Ball, dtime float64, coll *CollisionEvent, rigid, lateral bool, targetRadius float64) float64 {
	if ball.Frozen {
		return -1
	}
	dist := ball.Pos.XY().Minus(c.Center)
	dv := ball.Vel.XY()

	bcddsq := dist.LengthSq()
	bcdd := math.Sqrt(bcddsq)
	if bcdd <= 1e-6 {
		return -1
	}

	b := dist.Dot(dv)
	bnv := b / bcdd
	if rigid && bnv > CLowNormVel {
		return -1
	}

	bnd := bcdd - targetRadius
	inside := bnd <= 0
	unhit := false
	isContact := false

	var hitTime float64
	switch {
	case rigid && lateral && bnd <= PhysTouch:
		if bnd < -ball.Radius {
			return -1
		}
		if !inside && math.Abs(bnv) <= ball.ContactVelocity() {
			isContact = true
		}
		hitTime = 0
	case !rigid && bnd*bnv > 0:
		// outside and receding, or inside and approaching
		if math.Abs(bnd) > PhysTouch || c.Volume == nil || inside == c.Volume.Has(ball) {
			return -1
		}
		hitTime = 0
		unhit = !inside
	default:
		a := dv.LengthSq()
		if a < 1e-8 {
			return -1
		}
		cc := bcddsq - targetRadius*targetRadius
		t1, t2, ok := vmath.SolveQuadratic(a, 2*b, cc)
		if !ok {
			return -1
		}
		if !rigid && c.Volume != nil && inside != c.Volume.Has(ball) {
			// crossing that does not match the tracked volume, e.g. a ball
			// left just outside by rounding while it recedes
			return -1
		}
		if !rigid && inside {
			hitTime = t2
			unhit = true
		} else {
			hitTime = t1
			if hitTime < 0 {
				hitTime = t2
			}
		}
	}

	if vmath.InfNaN(hitTime) || hitTime < 0 || hitTime > dtime {
		return -1
	}

	hitZ := ball.Pos.Z + ball.Vel.Z*hitTime
	if lateral && (hitZ+ball.Radius*0.5 < c.ZLow || hitZ-ball.Radius*0.5 > c.ZHigh) {
		return -1
	}

	hitPos := ball.Pos.XY().Plus(dv.Times(hitTime))
	n := hitPos.Minus(c.Center).Normalize()
	if n.IsZero() {
		return -1
	}

	if !rigid {
		coll.HitFlag = unhit
	}
	coll.HitNormal = n.XYZ(0)
	coll.HitDistance = bnd
	coll.HitTime = hitTime
	coll.IsContact = isContact
	coll.HitOrgNormalVelocity = bnv
	coll.Obj = c
	return hitTime
}

func (c *HitCircle) Collide(coll *CollisionEvent) {
	dot := coll.Ball.Vel.Minus(c.SurfVel).Dot(coll.HitNormal)
	if c.Rigid {
		coll.Ball.Collide3DWall(coll.HitNormal, coll.HitDistance, c.SurfVel, c.Elasticity, c.ElasticityFalloff, c.Friction, c.Scatter)
	}
	c.afterCollide(coll, -dot)
}
