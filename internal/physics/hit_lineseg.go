package physics

import (
	"math"

	"github.com/playmatatu/pinball/internal/vmath"
)

// LineSeg is a vertical wall between two points, limited to [ZLow, ZHigh].
// The normal is (V1.Y-V2.Y, V2.X-V1.X) normalized.
type LineSeg struct {
	HitObjectBase
	V1, V2 vmath.Vertex2D
	Normal vmath.Vertex2D
	Length float64
	ZLow   float64
	ZHigh  float64
	// non-rigid segments only report crossings of the ball center
	Rigid bool
}

func NewLineSeg(v1, v2 vmath.Vertex2D, zLow, zHigh float64, t ObjType) *LineSeg {
	l := &LineSeg{HitObjectBase: NewHitObjectBase(t), V1: v1, V2: v2, ZLow: zLow, ZHigh: zHigh, Rigid: true}
	l.CalcNormal()
	l.CalcHitBBox()
	return l
}

// CalcNormal recomputes the normal and length after the endpoints move.
func (l *LineSeg) CalcNormal() {
	vT := l.V1.Minus(l.V2)
	l.Length = vT.Length()
	if l.Length == 0 {
		l.Normal = vmath.Vertex2D{}
		return
	}
	inv := 1 / l.Length
	l.Normal = vmath.NewVertex2D(vT.Y*inv, -vT.X*inv)
}

func (l *LineSeg) CalcHitBBox() {
	l.BBox = BBox{
		Left:   math.Min(l.V1.X, l.V2.X),
		Right:  math.Max(l.V1.X, l.V2.X),
		Top:    math.Min(l.V1.Y, l.V2.Y),
		Bottom: math.Max(l.V1.Y, l.V2.Y),
		ZLow:   l.ZLow,
		ZHigh:  l.ZHigh,
	}
}

func (l *LineSeg) HitTest(ball *Ball, dtime float64, coll *CollisionEvent) float64 {
	if !l.IsEnabled() {
		return -1
	}
	return l.HitTestBasic(ball, dtime, coll, l.Rigid, true)
}

// HitTestBasic is shared with gates and spinners. lateral enables the touch
// and contact handling of walls the ball can rest against.
func (l *LineSeg) HitTestBasic(ball *Ball, dtime float64, coll *CollisionEvent, rigid, lateral bool) float64 {
	if ball.Frozen || l.Length == 0 {
		return -1
	}
	pos := ball.Pos.XY()
	vel := ball.Vel.XY()

	bnv := l.Normal.Dot(vel)
	unhit := bnv > CLowNormVel
	if rigid && unhit {
		return -1
	}

	bcpd := l.Normal.Dot(pos.Minus(l.V1))
	bnd := bcpd - ball.Radius
	if !rigid {
		bnd = bcpd
	}
	inside := bnd <= 0

	var hitTime float64
	isContact := false
	if rigid {
		if bnd < -ball.Radius || (lateral && bcpd < 0) {
			return -1
		}
		switch {
		case lateral && bnd <= PhysTouch:
			if math.Abs(bnv) <= ball.ContactVelocity() && !inside {
				isContact = true
			}
			hitTime = 0
		case math.Abs(bnv) > CLowNormVel:
			hitTime = bnd / -bnv
		default:
			return -1
		}
	} else {
		if bnv*bnd >= 0 {
			// outside and receding, or inside and approaching
			if l.Volume == nil || math.Abs(bnd) >= ball.Radius*0.5 || inside != !l.Volume.Has(ball) {
				return -1
			}
			hitTime = 0
			unhit = !inside
		} else {
			hitTime = bnd / -bnv
		}
	}

	if vmath.InfNaN(hitTime) || hitTime < 0 || hitTime > dtime {
		return -1
	}

	dir := vmath.NewVertex2D(l.Normal.Y, -l.Normal.X)
	btd := pos.Minus(l.V1).Dot(dir) + vel.Dot(dir)*hitTime
	if btd < -CTolEndpoints || btd > l.Length+CTolEndpoints {
		return -1
	}

	hitZ := ball.Pos.Z + ball.Vel.Z*hitTime
	if hitZ+ball.Radius*0.5 < l.ZLow || hitZ-ball.Radius*0.5 > l.ZHigh {
		return -1
	}

	if !rigid {
		coll.HitFlag = unhit
	}
	coll.HitNormal = l.Normal.XYZ(0)
	coll.HitDistance = bnd
	coll.HitTime = hitTime
	coll.IsContact = isContact
	coll.HitOrgNormalVelocity = bnv
	coll.Obj = l
	return hitTime
}

func (l *LineSeg) Collide(coll *CollisionEvent) {
	dot := coll.Ball.Vel.Dot(coll.HitNormal)
	if l.Rigid {
		coll.Ball.Collide3DWall(coll.HitNormal, coll.HitDistance, vmath.Vertex3D{}, l.Elasticity, l.ElasticityFalloff, l.Friction, l.Scatter)
	}
	l.afterCollide(coll, -dot)
}
