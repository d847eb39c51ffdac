package physics

import (
	"math"

	"github.com/playmatatu/pinball/internal/vmath"
)

// HitTriangle is a one-sided triangle. Corners listed clockwise on screen
// (y down) give a normal pointing towards the glass.
type HitTriangle struct {
	HitObjectBase
	V      [3]vmath.Vertex3D
	Normal vmath.Vertex3D
}

func NewHitTriangle(a, b, c vmath.Vertex3D, t ObjType) *HitTriangle {
	h := &HitTriangle{HitObjectBase: NewHitObjectBase(t), V: [3]vmath.Vertex3D{a, b, c}}
	h.Normal = vmath.TriangleNormal(a, b, c)
	h.CalcHitBBox()
	return h
}

// IsDegenerate reports a zero-area triangle.
func (h *HitTriangle) IsDegenerate() bool {
	return h.Normal.IsZero()
}

func (h *HitTriangle) CalcHitBBox() {
	bb := EmptyBBox()
	for _, v := range h.V {
		bb = bb.Extend(v.X, v.Y, v.Z)
	}
	h.BBox = bb
}

func (h *HitTriangle) HitTest(ball *Ball, dtime float64, coll *CollisionEvent) float64 {
	if !h.IsEnabled() || ball.Frozen || h.IsDegenerate() {
		return -1
	}
	hitTime, bnv, bnd, isContact, ok := planeHitTime(ball, h.Normal, h.V[0], dtime)
	if !ok {
		return -1
	}

	hitPos := ball.Pos.Plus(ball.Vel.Times(hitTime)).Minus(h.Normal.Times(ball.Radius))
	if !pointInTriangle(hitPos, h.V[0], h.V[1], h.V[2]) {
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

func (h *HitTriangle) Collide(coll *CollisionEvent) {
	dot := coll.Ball.Vel.Dot(coll.HitNormal)
	coll.Ball.Collide3DWall(coll.HitNormal, coll.HitDistance, vmath.Vertex3D{}, h.Elasticity, h.ElasticityFalloff, h.Friction, h.Scatter)
	h.afterCollide(coll, -dot)
}

// planeHitTime is the shared front-face test of triangles and polygons.
func planeHitTime(ball *Ball, normal, onPlane vmath.Vertex3D, dtime float64) (hitTime, bnv, bnd float64, isContact, ok bool) {
	bnv = normal.Dot(ball.Vel)
	if bnv > CContactVel {
		return 0, 0, 0, false, false
	}
	bnd = normal.Dot(ball.Pos.Minus(onPlane)) - ball.Radius
	if bnd < -ball.Radius {
		return 0, 0, 0, false, false
	}

	switch {
	case bnd <= PhysTouch:
		switch {
		case bnd < -PhysTouch:
			hitTime = 0
		case math.Abs(bnv) <= ball.ContactVelocity():
			isContact = true
		case bnd > 0:
			hitTime = bnd / -bnv
		}
	case bnv < -CLowNormVel:
		hitTime = bnd / -bnv
	default:
		return 0, 0, 0, false, false
	}
	if vmath.InfNaN(hitTime) || hitTime < 0 || hitTime > dtime {
		return 0, 0, 0, false, false
	}
	return hitTime, bnv, bnd, isContact, true
}

// pointInTriangle uses barycentric coordinates with a small tolerance.
func pointInTriangle(p, a, b, c vmath.Vertex3D) bool {
	v0 := c.Minus(a)
	v1 := b.Minus(a)
	v2 := p.Minus(a)

	dot00 := v0.Dot(v0)
	dot01 := v0.Dot(v1)
	dot02 := v0.Dot(v2)
	dot11 := v1.Dot(v1)
	dot12 := v1.Dot(v2)

	denom := dot00*dot11 - dot01*dot01
	if denom == 0 {
		return false
	}
	inv := 1 / denom
	u := (dot11*dot02 - dot01*dot12) * inv
	v := (dot00*dot12 - dot01*dot02) * inv

	const eps = 1e-6
	return u >= -eps && v >= -eps && u+v <= 1+eps
}
