package physics

import (
	"math"

	"github.com/playmatatu/pinball/internal/vmath"
)

// NewHitLineZ returns a zero-radius vertical cylinder, used for wall joints.
func NewHitLineZ(xy vmath.Vertex2D, zLow, zHigh float64, t ObjType) *HitCircle {
	return NewHitCircle(xy, 0, zLow, zHigh, t)
}

// HitPoint is a single point in space, used for mesh corners.
type HitPoint struct {
	HitObjectBase
	P vmath.Vertex3D
}

func NewHitPoint(p vmath.Vertex3D, t ObjType) *HitPoint {
	h := &HitPoint{HitObjectBase: NewHitObjectBase(t), P: p}
	h.CalcHitBBox()
	return h
}

func (h *HitPoint) CalcHitBBox() {
	h.BBox = BBox{Left: h.P.X, Right: h.P.X, Top: h.P.Y, Bottom: h.P.Y, ZLow: h.P.Z, ZHigh: h.P.Z}
}

func (h *HitPoint) HitTest(ball *Ball, dtime float64, coll *CollisionEvent) float64 {
	if !h.IsEnabled() || ball.Frozen {
		return -1
	}
	dist := ball.Pos.Minus(h.P)
	bcddsq := dist.LengthSq()
	bcdd := math.Sqrt(bcddsq)
	if bcdd <= 1e-6 {
		return -1
	}
	b := dist.Dot(ball.Vel)
	bnv := b / bcdd
	if bnv > CLowNormVel {
		return -1
	}
	bnd := bcdd - ball.Radius

	var hitTime float64
	isContact := false
	if bnd <= PhysTouch {
		if bnd < -ball.Radius {
			return -1
		}
		if bnd > 0 && math.Abs(bnv) <= ball.ContactVelocity() {
			isContact = true
		}
		hitTime = 0
	} else {
		a := ball.Vel.LengthSq()
		if a < 1e-8 {
			return -1
		}
		t1, t2, ok := vmath.SolveQuadratic(a, 2*b, bcddsq-ball.Radius*ball.Radius)
		if !ok {
			return -1
		}
		hitTime = t1
		if t1 < 0 {
			hitTime = t2
		}
	}
	if vmath.InfNaN(hitTime) || hitTime < 0 || hitTime > dtime {
		return -1
	}

	n := ball.Pos.Plus(ball.Vel.Times(hitTime)).Minus(h.P).Normalize()
	if n.IsZero() {
		return -1
	}
	coll.HitNormal = n
	coll.HitDistance = bnd
	coll.HitTime = hitTime
	coll.IsContact = isContact
	coll.HitOrgNormalVelocity = bnv
	coll.Obj = h
	return hitTime
}

func (h *HitPoint) Collide(coll *CollisionEvent) {
	dot := coll.Ball.Vel.Dot(coll.HitNormal)
	coll.Ball.Collide3DWall(coll.HitNormal, coll.HitDistance, vmath.Vertex3D{}, h.Elasticity, h.ElasticityFalloff, h.Friction, h.Scatter)
	h.afterCollide(coll, -dot)
}
