package physics

import (
	"math"

	"github.com/playmatatu/pinball/internal/vmath"
)

// BallState is the part of a ball that is mirrored to observers.
type BallState struct {
	Pos             vmath.Vertex3D `json:"pos" msgpack:"pos"`
	Vel             vmath.Vertex3D `json:"vel" msgpack:"vel"`
	AngularMomentum vmath.Vertex3D `json:"angularMomentum" msgpack:"angularMomentum"`
	AngularVelocity vmath.Vertex3D `json:"angularVelocity" msgpack:"angularVelocity"`
	Radius          float64        `json:"radius" msgpack:"radius"`
	Frozen          bool           `json:"frozen" msgpack:"frozen"`
}

type Ball struct {
	ID int
	BallState

	Mass    float64
	InvMass float64
	Inertia float64

	// material used against other balls
	Elasticity float64
	Friction   float64

	Coll CollisionEvent

	// the object the ball is being held by (kicker), if any
	Holder HitObject

	gravity    vmath.Vertex3D
	contactVel float64
	rand       *Rand
}

// NewBall creates a ball at pos. Zero radius or mass fall back to the defaults.
func NewBall(id int, pos vmath.Vertex3D, radius, mass float64, rnd *Rand) *Ball {
	if radius <= 0 {
		radius = DefaultBallRadius
	}
	if mass <= 0 {
		mass = DefaultBallMass
	}
	b := &Ball{
		ID:         id,
		BallState:  BallState{Pos: pos, Radius: radius},
		Mass:       mass,
		InvMass:    1 / mass,
		Inertia:    vmath.F4(2.0 / 5.0 * radius * radius * mass),
		Elasticity: DefaultBallElasticity,
		Friction:   DefaultBallFriction,
		contactVel: CContactVel,
		rand:       rnd,
	}
	b.Coll.Ball = b
	return b
}

// UpdateVelocities applies one physics frame of gravity.
func (b *Ball) UpdateVelocities(gravity vmath.Vertex3D) {
	b.gravity = gravity
	b.contactVel = CContactVel + gravity.Length()*PhysFactor
	if b.Frozen {
		return
	}
	b.Vel = b.Vel.Plus(gravity.Times(PhysFactor))
}

// UpdateDisplacements moves the ball along its velocity for dtime.
func (b *Ball) UpdateDisplacements(dtime float64) {
	if b.Frozen {
		return
	}
	b.Pos = b.Pos.Plus(b.Vel.Times(dtime))
}

// ContactVelocity is the normal speed below which an approach counts as resting.
func (b *Ball) ContactVelocity() float64 {
	return b.contactVel
}

// SweptBBox bounds the ball over dtime.
func (b *Ball) SweptBBox(dtime float64) BBox {
	vl := b.Vel.Length()*dtime + b.Radius + PhysTouch
	return BBox{
		Left: b.Pos.X - vl, Right: b.Pos.X + vl,
		Top: b.Pos.Y - vl, Bottom: b.Pos.Y + vl,
		ZLow: b.Pos.Z - vl, ZHigh: b.Pos.Z + vl,
	}
}

// SurfaceVelocity is the velocity of the point at offset surfP from the center.
func (b *Ball) SurfaceVelocity(surfP vmath.Vertex3D) vmath.Vertex3D {
	return b.Vel.Plus(b.AngularVelocity.Cross(surfP))
}

// SurfaceAcceleration is the acceleration of the point at offset surfP.
func (b *Ball) SurfaceAcceleration(surfP vmath.Vertex3D) vmath.Vertex3D {
	centripetal := b.AngularVelocity.Cross(b.AngularVelocity.Cross(surfP))
	return b.gravity.Plus(centripetal)
}

// ApplySurfaceImpulse adds a linear impulse and its angular counterpart.
func (b *Ball) ApplySurfaceImpulse(rotI, impulse vmath.Vertex3D) {
	b.Vel = b.Vel.Plus(impulse.Times(b.InvMass))
	b.AngularMomentum = b.AngularMomentum.Plus(rotI)
	b.AngularVelocity = b.AngularMomentum.Times(1 / b.Inertia)
}

// Collide3DWall bounces the ball off a surface with the given normal.
// surfVel is the velocity of the surface at the contact point.
func (b *Ball) Collide3DWall(hitNormal vmath.Vertex3D, hitDistance float64, surfVel vmath.Vertex3D, elasticity, falloff, friction, scatter float64) {
	relVel := b.Vel.Minus(surfVel)
	dot := relVel.Dot(hitNormal)

	if dot >= -CLowNormVel {
		if hitDistance >= -CEmbedded {
			return
		}
		dot = -CEmbedShot
	}

	if hitDistance < -CEmbedded {
		hdist := -CDispGain * hitDistance
		if hdist > 1e-4 {
			if hdist > CDispLimit {
				hdist = CDispLimit
			}
			b.Pos = b.Pos.Plus(hitNormal.Times(hdist))
		}
	}

	elasticity = ElasticityWithFalloff(elasticity, falloff, dot)
	reactionImpulse := b.Mass * math.Abs(dot) * (1 + elasticity)
	b.Vel = b.Vel.Minus(hitNormal.Times((1 + elasticity) * dot))

	surfP := hitNormal.Times(-b.Radius)
	slip := b.SurfaceVelocity(surfP).Minus(surfVel)
	tangent := slip.Minus(hitNormal.Times(slip.Dot(hitNormal)))
	tangentSpSq := tangent.LengthSq()
	if tangentSpSq > 1e-6 {
		tangent = tangent.Times(1 / math.Sqrt(tangentSpSq))
		vt := slip.Dot(tangent)
		cross := surfP.Cross(tangent)
		kt := b.InvMass + tangent.Dot(cross.Times(1/b.Inertia).Cross(surfP))
		maxFric := friction * reactionImpulse
		jt := vmath.Clamp(-vt/kt, -maxFric, maxFric)
		if !vmath.InfNaN(jt) {
			b.ApplySurfaceImpulse(cross.Times(jt), tangent.Times(jt))
		}
	}

	if scatter != 0 {
		angle := b.rand.Scatter(scatter)
		b.Vel = b.Vel.Rotate2D(angle)
	}
}

// HandleStaticContact removes the approaching normal velocity of a resting
// ball and applies friction for dtime.
func (b *Ball) HandleStaticContact(coll *CollisionEvent, friction, dtime float64) {
	normVel := b.Vel.Dot(coll.HitNormal)
	if normVel > b.contactVel {
		return
	}
	if normVel < 0 {
		b.Vel = b.Vel.Minus(coll.HitNormal.Times(normVel))
	}
	b.ApplyFriction(coll.HitNormal, dtime, friction)
}

// ApplyFriction applies rolling and sliding friction against a surface.
func (b *Ball) ApplyFriction(hitNormal vmath.Vertex3D, dtime, fricCoeff float64) {
	surfP := hitNormal.Times(-b.Radius)
	surfVel := b.SurfaceVelocity(surfP)
	slip := surfVel.Minus(hitNormal.Times(surfVel.Dot(hitNormal)))

	maxFric := fricCoeff * b.Mass * -b.gravity.Dot(hitNormal)
	if maxFric <= 0 {
		return
	}

	slipSpeed := slip.Length()
	var slipDir vmath.Vertex3D
	var numer float64
	if slipSpeed < CPrecision {
		// static friction
		surfAcc := b.SurfaceAcceleration(surfP)
		slipAcc := surfAcc.Minus(hitNormal.Times(surfAcc.Dot(hitNormal)))
		if slipAcc.LengthSq() < 1e-12 {
			return
		}
		slipDir = slipAcc.Normalize()
		numer = -slipDir.Dot(surfAcc)
	} else {
		slipDir = slip.Times(1 / slipSpeed)
		numer = -slipDir.Dot(surfVel)
	}

	cp := surfP.Cross(slipDir)
	denom := b.InvMass + slipDir.Dot(cp.Times(1/b.Inertia).Cross(surfP))
	fric := vmath.Clamp(numer/denom, -maxFric, maxFric)
	if vmath.InfNaN(fric) {
		return
	}
	b.ApplySurfaceImpulse(cp.Times(dtime*fric), slipDir.Times(dtime*fric))
}

// HitTestBall finds the time at which b touches other.
func (b *Ball) HitTestBall(other *Ball, dtime float64, coll *CollisionEvent) float64 {
	if b.Frozen && other.Frozen {
		return -1
	}
	dv := b.Vel.Minus(other.Vel)
	dp := b.Pos.Minus(other.Pos)
	totalRadius := b.Radius + other.Radius

	bcddsq := dp.LengthSq()
	bcdd := math.Sqrt(bcddsq)
	if bcdd < 1e-8 {
		return -1
	}

	a := dv.LengthSq()
	bnv := dv.Dot(dp) / bcdd
	if bnv > CLowNormVel {
		return -1
	}
	bnd := bcdd - totalRadius

	var hitTime float64
	isContact := false
	switch {
	case bnd <= PhysTouch:
		if bnd < b.Radius*-2 {
			return -1
		}
		if math.Abs(bnv) > CContactVel {
			hitTime = 0
		} else {
			isContact = true
		}
	default:
		if a < 1e-8 {
			return -1
		}
		bb := 2 * dv.Dot(dp)
		c := bcddsq - totalRadius*totalRadius
		t1, t2, ok := vmath.SolveQuadratic(a, bb, c)
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

	hitPos := b.Pos.Plus(dv.Times(hitTime))
	coll.HitNormal = hitPos.Minus(other.Pos).Normalize()
	coll.HitDistance = bnd
	coll.HitTime = hitTime
	coll.IsContact = isContact
	coll.HitOrgNormalVelocity = bnv
	coll.OtherBall = other
	coll.Obj = nil
	return hitTime
}

// CollideBall resolves an elastic hit between coll.Ball and coll.OtherBall.
// The normal points from the other ball towards this one.
func (b *Ball) CollideBall(coll *CollisionEvent) {
	other := coll.OtherBall
	if other == nil {
		return
	}
	vnormal := coll.HitNormal
	if b.Frozen && other.Frozen {
		return
	}

	vrel := b.Vel.Minus(other.Vel)
	dot := vrel.Dot(vnormal)
	tangent := vrel.Minus(vnormal.Times(dot))
	if dot >= -CLowNormVel {
		if coll.HitDistance >= -CEmbedded {
			return
		}
		dot = -CEmbedShot
	}

	if coll.HitDistance < -CEmbedded {
		sep := math.Min(-CDispGain*coll.HitDistance*0.5, CDispLimit)
		if !b.Frozen {
			b.Pos = b.Pos.Plus(vnormal.Times(sep))
		}
		if !other.Frozen {
			other.Pos = other.Pos.Minus(vnormal.Times(sep))
		}
	}

	invMassSum := b.InvMass + other.InvMass
	if b.Frozen {
		invMassSum = other.InvMass
	} else if other.Frozen {
		invMassSum = b.InvMass
	}
	elasticity := (b.Elasticity + other.Elasticity) * 0.5
	impulse := -(1 + elasticity) * dot / invMassSum
	if !b.Frozen {
		b.Vel = b.Vel.Plus(vnormal.Times(impulse * b.InvMass))
	}
	if !other.Frozen {
		other.Vel = other.Vel.Minus(vnormal.Times(impulse * other.InvMass))
	}

	// Coulomb friction on the sliding speed, never reversing it
	friction := (b.Friction + other.Friction) * 0.5
	slide := tangent.Length()
	if friction <= 0 || slide < 1e-6 {
		return
	}
	jt := math.Min(friction*math.Abs(impulse), slide/invMassSum)
	dir := tangent.Times(1 / slide)
	if !b.Frozen {
		b.Vel = b.Vel.Minus(dir.Times(jt * b.InvMass))
	}
	if !other.Frozen {
		other.Vel = other.Vel.Plus(dir.Times(jt * other.InvMass))
	}
}

// SetRand replaces the scatter source.
func (b *Ball) SetRand(r *Rand) {
	b.rand = r
}
