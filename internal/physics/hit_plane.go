package physics

import (
	"math"

	"github.com/playmatatu/pinball/internal/vmath"
)

// HitPlane is an infinite plane n.p = D. Used for the playfield floor and glass.
type HitPlane struct {
	HitObjectBase
	Normal vmath.Vertex3D
	D      float64
}

func NewHitPlane(normal vmath.Vertex3D, d float64) *HitPlane {
	return &HitPlane{HitObjectBase: NewHitObjectBase(ObjPlayfield), Normal: normal, D: d}
}

func (h *HitPlane) CalcHitBBox() {
	h.BBox = InfiniteBBox()
}

func (h *HitPlane) HitTest(ball *Ball, dtime float64, coll *CollisionEvent) float64 {
	if !h.IsEnabled() {
		return -1
	}
	bnv := h.Normal.Dot(ball.Vel)
	if bnv > CContactVel {
		return -1
	}
	bnd := h.Normal.Dot(ball.Pos) - ball.Radius - h.D

	var hitTime float64
	isContact := false
	switch {
	case bnd < ball.Radius*-2:
		// behind the plane
		return -1
	case bnd <= PhysTouch:
		switch {
		case bnd < -PhysTouch:
			// embedded, push out now
			hitTime = 0
		case math.Abs(bnv) <= ball.ContactVelocity():
			isContact = true
		case bnd > 0:
			hitTime = bnd / -bnv
		}
	default:
		if bnv > -CLowNormVel {
			return -1
		}
		hitTime = bnd / -bnv
	}

	if vmath.InfNaN(hitTime) || hitTime < 0 || hitTime > dtime {
		return -1
	}

	coll.HitNormal = h.Normal
	coll.HitDistance = bnd
	coll.HitTime = hitTime
	coll.IsContact = isContact
	coll.HitOrgNormalVelocity = bnv
	coll.Obj = h
	return hitTime
}

func (h *HitPlane) Collide(coll *CollisionEvent) {
	dot := coll.Ball.Vel.Dot(coll.HitNormal)
	defer h.afterCollide(coll, -dot)
	coll.Ball.Collide3DWall(coll.HitNormal, coll.HitDistance, vmath.Vertex3D{}, h.Elasticity, h.ElasticityFalloff, h.Friction, h.Scatter)
}
