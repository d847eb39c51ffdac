package physics

import "github.com/playmatatu/pinball/internal/vmath"

// HitPoly3D is a planar polygon, such as the top of a wall.
type HitPoly3D struct {
	HitObjectBase
	Verts  []vmath.Vertex3D
	Normal vmath.Vertex3D
}

func NewHitPoly3D(verts []vmath.Vertex3D, t ObjType) *HitPoly3D {
	h := &HitPoly3D{HitObjectBase: NewHitObjectBase(t), Verts: verts}
	h.Normal = newellNormal(verts)
	h.CalcHitBBox()
	return h
}

// newellNormal works for any planar polygon. Clockwise on screen points up.
func newellNormal(verts []vmath.Vertex3D) vmath.Vertex3D {
	var n vmath.Vertex3D
	for i := range verts {
		a := verts[i]
		b := verts[(i+1)%len(verts)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n.Normalize()
}

func (h *HitPoly3D) CalcHitBBox() {
	bb := EmptyBBox()
	for _, v := range h.Verts {
		bb = bb.Extend(v.X, v.Y, v.Z)
	}
	h.BBox = bb
}

func (h *HitPoly3D) HitTest(ball *Ball, dtime float64, coll *CollisionEvent) float64 {
	if !h.IsEnabled() || ball.Frozen || len(h.Verts) < 3 || h.Normal.IsZero() {
		return -1
	}
	hitTime, bnv, bnd, isContact, ok := planeHitTime(ball, h.Normal, h.Verts[0], dtime)
	if !ok {
		return -1
	}

	hitPos := ball.Pos.Plus(ball.Vel.Times(hitTime))
	if !pointInPolygonXY(hitPos.XY(), h.Verts) {
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

func (h *HitPoly3D) Collide(coll *CollisionEvent) {
	dot := coll.Ball.Vel.Dot(coll.HitNormal)
	coll.Ball.Collide3DWall(coll.HitNormal, coll.HitDistance, vmath.Vertex3D{}, h.Elasticity, h.ElasticityFalloff, h.Friction, h.Scatter)
	h.afterCollide(coll, -dot)
}

// pointInPolygonXY is the even-odd crossing test on the xy projection.
func pointInPolygonXY(p vmath.Vertex2D, verts []vmath.Vertex3D) bool {
	inside := false
	j := len(verts) - 1
	for i := range verts {
		vi, vj := verts[i], verts[j]
		if (vi.Y > p.Y) != (vj.Y > p.Y) {
			x := (vj.X-vi.X)*(p.Y-vi.Y)/(vj.Y-vi.Y) + vi.X
			if p.X < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
