package physics

import (
	"math"
	"testing"

	"github.com/playmatatu/pinball/internal/vmath"
)

func newTestBall(pos, vel vmath.Vertex3D) *Ball {
	b := NewBall(1, pos, 0, 0, NewRand(1))
	b.Vel = vel
	return b
}

func floor() *HitPlane {
	p := NewHitPlane(vmath.NewVertex3D(0, 0, 1), 0)
	p.Elasticity = 0.25
	return p
}

func TestPlaneHitTime(t *testing.T) {
	ball := newTestBall(vmath.NewVertex3D(0, 0, 100), vmath.NewVertex3D(0, 0, -5))
	var coll CollisionEvent
	got := floor().HitTest(ball, 20, &coll)
	if got != 15 {
		t.Fatalf("hit time = %v, want 15", got)
	}
	if coll.IsContact {
		t.Errorf("falling ball should not be a contact")
	}
	var late CollisionEvent
	if got := floor().HitTest(ball, 10, &late); got >= 0 {
		t.Errorf("hit after dtime should be rejected, got %v", got)
	}
}

func TestPlaneRestingBallIsContact(t *testing.T) {
	ball := newTestBall(vmath.NewVertex3D(0, 0, 25), vmath.Vertex3D{})
	ball.UpdateVelocities(vmath.NewVertex3D(0, 0, -GravityConst))

	var coll CollisionEvent
	if got := floor().HitTest(ball, PhysFactor, &coll); got < 0 {
		t.Fatalf("expected a contact, got %v", got)
	}
	if !coll.IsContact {
		t.Fatalf("resting ball should register a contact")
	}
	coll.Ball = ball
	floor().Contact(&coll, PhysFactor)
	if ball.Vel.Z < 0 {
		t.Errorf("contact left approaching velocity %v", ball.Vel.Z)
	}
}

func TestLineSegBounce(t *testing.T) {
	l := NewLineSeg(vmath.NewVertex2D(0, 0), vmath.NewVertex2D(100, 0), 0, 50, ObjSurface)
	l.Elasticity = 1
	if l.Normal != vmath.NewVertex2D(0, 1) {
		t.Fatalf("normal = %+v", l.Normal)
	}
	ball := newTestBall(vmath.NewVertex3D(50, 100, 25), vmath.NewVertex3D(0, -10, 0))
	coll := CollisionEvent{Ball: ball}
	got := l.HitTest(ball, 10, &coll)
	if got != 7.5 {
		t.Fatalf("hit time = %v, want 7.5", got)
	}
	ball.UpdateDisplacements(got)
	l.Collide(&coll)
	if math.Abs(ball.Vel.Y-10) > 1e-4 {
		t.Errorf("velocity after bounce = %+v", ball.Vel)
	}
}

func TestLineSegMissesPastEndpoint(t *testing.T) {
	l := NewLineSeg(vmath.NewVertex2D(0, 0), vmath.NewVertex2D(100, 0), 0, 50, ObjSurface)
	ball := newTestBall(vmath.NewVertex3D(200, 100, 25), vmath.NewVertex3D(0, -10, 0))
	var coll CollisionEvent
	if got := l.HitTest(ball, 10, &coll); got >= 0 {
		t.Errorf("expected miss, got %v", got)
	}
}

func TestLineSegDisabled(t *testing.T) {
	l := NewLineSeg(vmath.NewVertex2D(0, 0), vmath.NewVertex2D(100, 0), 0, 50, ObjSurface)
	collidable := false
	l.Collidable = &collidable
	ball := newTestBall(vmath.NewVertex3D(50, 100, 25), vmath.NewVertex3D(0, -10, 0))
	var coll CollisionEvent
	if got := l.HitTest(ball, 10, &coll); got >= 0 {
		t.Errorf("non-collidable segment reported a hit at %v", got)
	}
}

func TestCircleHitTime(t *testing.T) {
	c := NewHitCircle(vmath.NewVertex2D(0, 0), 10, 0, 50, ObjBumper)
	ball := newTestBall(vmath.NewVertex3D(100, 0, 25), vmath.NewVertex3D(-10, 0, 0))
	var coll CollisionEvent
	if got := c.HitTest(ball, 10, &coll); got != 6.5 {
		t.Fatalf("hit time = %v, want 6.5", got)
	}
	if math.Abs(coll.HitNormal.X-1) > 1e-6 {
		t.Errorf("normal = %+v", coll.HitNormal)
	}
}

func TestNonRigidCircleEnterAndLeave(t *testing.T) {
	c := NewHitCircle(vmath.NewVertex2D(0, 0), 30, 0, 50, ObjKicker)
	c.Rigid = false
	c.Volume = NewBallSet()

	ball := newTestBall(vmath.NewVertex3D(100, 0, 25), vmath.NewVertex3D(-10, 0, 0))
	var enter CollisionEvent
	if got := c.HitTest(ball, 10, &enter); got != 7 {
		t.Fatalf("enter time = %v, want 7", got)
	}
	if enter.HitFlag {
		t.Errorf("entering should not be flagged as leaving")
	}
	c.Volume.Add(ball)

	ball.Pos = vmath.NewVertex3D(0, 10, 25)
	ball.Vel = vmath.NewVertex3D(0, 10, 0)
	var leave CollisionEvent
	if got := c.HitTest(ball, 10, &leave); got != 2 {
		t.Fatalf("leave time = %v, want 2", got)
	}
	if !leave.HitFlag {
		t.Errorf("leaving should be flagged")
	}
}

func TestNonRigidCircleIgnoresStaleExit(t *testing.T) {
	c := NewHitCircle(vmath.NewVertex2D(0, 0), 30, 0, 50, ObjKicker)
	c.Rigid = false
	c.Volume = NewBallSet()

	// already left, but rounding keeps the center a hair inside the rim
	ball := newTestBall(vmath.NewVertex3D(30-1e-5, 0, 25), vmath.NewVertex3D(10, 0, 0))
	var coll CollisionEvent
	if got := c.HitTest(ball, 10, &coll); got >= 0 {
		t.Fatalf("exit reported again at %v for a ball outside the volume", got)
	}

	c.Volume.Add(ball)
	if got := c.HitTest(ball, 10, &coll); got < 0 || !coll.HitFlag {
		t.Errorf("exit of a tracked ball = %v (flag %v), want a leave", got, coll.HitFlag)
	}
}

func TestTriangleHit(t *testing.T) {
	tri := NewHitTriangle(vmath.NewVertex3D(0, 0, 0), vmath.NewVertex3D(100, 0, 0), vmath.NewVertex3D(0, 100, 0), ObjRamp)
	if math.Abs(tri.Normal.Z-1) > 1e-6 {
		t.Fatalf("normal = %+v, want up", tri.Normal)
	}
	ball := newTestBall(vmath.NewVertex3D(20, 20, 50), vmath.NewVertex3D(0, 0, -5))
	var coll CollisionEvent
	if got := tri.HitTest(ball, 10, &coll); math.Abs(got-5) > 1e-4 {
		t.Fatalf("hit time = %v, want 5", got)
	}
	outside := newTestBall(vmath.NewVertex3D(90, 90, 50), vmath.NewVertex3D(0, 0, -5))
	if got := tri.HitTest(outside, 10, &coll); got >= 0 {
		t.Errorf("ball outside the triangle hit at %v", got)
	}
}

func TestPolyTopHit(t *testing.T) {
	poly := NewHitPoly3D([]vmath.Vertex3D{
		vmath.NewVertex3D(0, 0, 50), vmath.NewVertex3D(100, 0, 50), vmath.NewVertex3D(100, 100, 50), vmath.NewVertex3D(0, 100, 50),
	}, ObjSurface)
	if math.Abs(poly.Normal.Z-1) > 1e-6 {
		t.Fatalf("normal = %+v, want up", poly.Normal)
	}
	ball := newTestBall(vmath.NewVertex3D(50, 50, 100), vmath.NewVertex3D(0, 0, -5))
	var coll CollisionEvent
	if got := poly.HitTest(ball, 10, &coll); math.Abs(got-5) > 1e-4 {
		t.Fatalf("hit time = %v, want 5", got)
	}
}

func TestHitPoint(t *testing.T) {
	p := NewHitPoint(vmath.NewVertex3D(0, 0, 25), ObjPrimitive)
	ball := newTestBall(vmath.NewVertex3D(100, 0, 25), vmath.NewVertex3D(-10, 0, 0))
	var coll CollisionEvent
	if got := p.HitTest(ball, 10, &coll); got != 7.5 {
		t.Fatalf("hit time = %v, want 7.5", got)
	}
}

func TestBallBallExchangesVelocity(t *testing.T) {
	b1 := newTestBall(vmath.NewVertex3D(0, 0, 25), vmath.NewVertex3D(10, 0, 0))
	b2 := newTestBall(vmath.NewVertex3D(100, 0, 25), vmath.Vertex3D{})
	coll := CollisionEvent{Ball: b1}
	got := b1.HitTestBall(b2, 10, &coll)
	if got != 5 {
		t.Fatalf("hit time = %v, want 5", got)
	}
	b1.UpdateDisplacements(got)
	b2.UpdateDisplacements(got)
	b1.Elasticity, b2.Elasticity = 1, 1
	b1.CollideBall(&coll)
	if math.Abs(b1.Vel.X) > 1e-4 || math.Abs(b2.Vel.X-10) > 1e-4 {
		t.Errorf("velocities after hit: %+v %+v", b1.Vel, b2.Vel)
	}
}

func TestBallBallUsesBallMaterial(t *testing.T) {
	hit := func(elasticity, friction float64) (*Ball, *Ball) {
		// glancing blow: centers 60 apart across the line of travel
		b1 := newTestBall(vmath.NewVertex3D(0, 0, 25), vmath.NewVertex3D(10, 0, 0))
		b2 := newTestBall(vmath.NewVertex3D(100, 30, 25), vmath.Vertex3D{})
		for _, b := range []*Ball{b1, b2} {
			b.Elasticity, b.Friction = elasticity, friction
		}
		coll := CollisionEvent{Ball: b1}
		got := b1.HitTestBall(b2, 10, &coll)
		if got < 0 {
			t.Fatalf("no hit")
		}
		b1.UpdateDisplacements(got)
		b2.UpdateDisplacements(got)
		b1.CollideBall(&coll)
		return b1, b2
	}

	if b1 := newTestBall(vmath.Vertex3D{}, vmath.Vertex3D{}); b1.Elasticity != DefaultBallElasticity || b1.Friction != DefaultBallFriction {
		t.Errorf("ball material = %v/%v, want defaults", b1.Elasticity, b1.Friction)
	}

	_, soft := hit(0.2, 0)
	_, bouncy := hit(1, 0)
	if soft.Vel.Length() >= bouncy.Vel.Length() {
		t.Errorf("lower elasticity should pass on less speed: %v >= %v", soft.Vel.Length(), bouncy.Vel.Length())
	}

	_, slick := hit(0.8, 0)
	_, rough := hit(0.8, 0.5)
	n := slick.Vel.Normalize()
	if side := rough.Vel.Minus(n.Times(rough.Vel.Dot(n))).Length(); side < 1e-3 {
		t.Errorf("friction left no tangential push on the struck ball: %v", rough.Vel)
	}
	if side := slick.Vel.Minus(n.Times(slick.Vel.Dot(n))).Length(); side > 1e-6 {
		t.Errorf("frictionless hit pushed sideways: %v", slick.Vel)
	}
}

func TestElasticityFalloff(t *testing.T) {
	if got := ElasticityWithFalloff(0.8, 0, 50); got != 0.8 {
		t.Errorf("no falloff: got %v", got)
	}
	soft := ElasticityWithFalloff(0.8, 0.5, 1)
	hard := ElasticityWithFalloff(0.8, 0.5, 40)
	if hard >= soft {
		t.Errorf("harder impacts should be less elastic: %v >= %v", hard, soft)
	}
}

func TestScatterIsRepeatable(t *testing.T) {
	a, b := NewRand(42), NewRand(42)
	for i := 0; i < 10; i++ {
		if a.Scatter(0.1) != b.Scatter(0.1) {
			t.Fatalf("same seed diverged at draw %d", i)
		}
	}
	if v := a.Scatter(0.1); v < -0.1 || v > 0.1 {
		t.Errorf("scatter out of range: %v", v)
	}
}
