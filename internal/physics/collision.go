package physics

import "github.com/playmatatu/pinball/internal/vmath"

// CollisionEvent describes the earliest hit found for a ball during one
// collision search, or a resting contact.
type CollisionEvent struct {
	Ball      *Ball
	Obj       HitObject
	OtherBall *Ball

	HitTime     float64
	HitDistance float64
	HitNormal   vmath.Vertex3D
	// moving objects report their surface velocity here
	HitVel vmath.Vertex2D
	// original normal velocity, used by contacts
	HitOrgNormalVelocity float64
	// set when the ball is leaving a non-rigid object
	HitFlag bool
	// flipper: the hit happened on the moment of the flip
	HitMomentBit bool
	IsContact    bool
}

// Clear resets everything but the ball.
func (c *CollisionEvent) Clear() {
	ball := c.Ball
	*c = CollisionEvent{Ball: ball, HitTime: -1}
}

// Found reports whether the event carries a hit.
func (c *CollisionEvent) Found() bool {
	return c.Obj != nil || c.OtherBall != nil
}
