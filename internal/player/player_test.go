package player

import (
	"errors"
	"math"
	"testing"

	"github.com/playmatatu/pinball/internal/element"
	"github.com/playmatatu/pinball/internal/events"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/vmath"
)

func newTestPlayer(t *testing.T, elems ...element.Element) *Player {
	t.Helper()
	p, err := New(element.DefaultTable(), elems, Options{Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestBallSettlesOnEmptyTable(t *testing.T) {
	p := newTestPlayer(t)
	b := p.CreateBall(vmath.NewVertex3D(500, 2100, 0), 0, 0)

	p.UpdatePhysics(2000)
	if got := math.Round(b.Pos.Y); got != 2197 {
		t.Errorf("y at 2000ms = %v, want 2197", got)
	}
	p.UpdatePhysics(3000)
	if got := math.Round(b.Pos.Y); got != 2197 {
		t.Errorf("y at 3000ms = %v, want 2197", got)
	}
	if math.Abs(b.Pos.X-500) > 1e-6 {
		t.Errorf("ball drifted sideways to x=%v", b.Pos.X)
	}
	if b.Pos.Z < 0 {
		t.Errorf("ball below the playfield: z=%v", b.Pos.Z)
	}
}

func TestFlipperReachesEndAngle(t *testing.T) {
	data := element.DefaultFlipperData("Flipper1")
	data.Center = vmath.NewVertex2D(300, 1800)
	f := element.NewFlipper(data)
	p := newTestPlayer(t, f)

	var last float64
	p.Bridge().SetOnStateChanged(func(name string, s events.State) {
		if fs, ok := s.(*element.FlipperState); ok && name == "Flipper1" {
			last = fs.Angle
		}
	})

	f.RotateToEnd()
	for i := 1; i <= 25; i++ {
		p.UpdatePhysics(float64(i))
	}
	want := vmath.DegToRad(data.EndAngle)
	if f.CurrentAngle() != want {
		t.Errorf("angle = %v, want %v", f.CurrentAngle(), want)
	}
	if last != want {
		t.Errorf("published angle = %v, want %v", last, want)
	}
}

func TestKickerKickMovesBallDown(t *testing.T) {
	data := element.DefaultKickerData("Kicker1")
	data.Center = vmath.NewVertex2D(500, 1000)
	k := element.NewKicker(data)
	p := newTestPlayer(t, k)

	var unhit int
	p.Bridge().On("Kicker1", "Unhit", func(args ...any) { unhit++ })

	b := k.CreateBall()
	if !b.Frozen {
		t.Fatal("created ball is not held")
	}
	k.Kick(0, -10, 0)
	p.UpdatePhysics(100)

	if math.Abs(b.Pos.X-500) > 1e-6 {
		t.Errorf("x = %v, want 500", b.Pos.X)
	}
	if b.Pos.Y <= 1000 {
		t.Errorf("y = %v, want > 1000", b.Pos.Y)
	}
	if b.Pos.Z >= 26 {
		t.Errorf("z = %v, want < 26", b.Pos.Z)
	}
	if unhit != 1 {
		t.Errorf("Unhit fired %d times, want 1", unhit)
	}
	if k.Ball() != nil {
		t.Error("kicker still holds the ball")
	}
}

func TestPlungerFiresBallUpTheLane(t *testing.T) {
	data := element.DefaultPlungerData("Plunger1")
	data.Center = vmath.NewVertex2D(900, 2100)
	pl := element.NewPlunger(data)
	p := newTestPlayer(t, pl)

	b := pl.CreateBall()
	p.UpdatePhysics(200)

	pl.PullBack()
	p.UpdatePhysics(1200)
	pl.Fire()

	minY := b.Pos.Y
	for ms := 1201; ms <= 4000; ms++ {
		p.UpdatePhysics(float64(ms))
		minY = math.Min(minY, b.Pos.Y)
	}
	if minY >= 100 {
		t.Errorf("ball never got above y=100 (min %v)", minY)
	}
}

func TestSameSeedSameRun(t *testing.T) {
	run := func() []vmath.Vertex3D {
		data := element.DefaultBumperData("Bumper1")
		data.Center = vmath.NewVertex2D(500, 1200)
		p := newTestPlayer(t, element.NewBumper(data))
		b1 := p.CreateBall(vmath.NewVertex3D(480, 900, 25), 0, 0)
		b2 := p.CreateBall(vmath.NewVertex3D(530, 700, 25), 0, 0)
		var out []vmath.Vertex3D
		for ms := 50; ms <= 1500; ms += 50 {
			p.UpdatePhysics(float64(ms))
			out = append(out, b1.Pos, b2.Pos)
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		if a[i].Minus(b[i]).Length() > 1e-4 {
			t.Fatalf("sample %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestPauseResumeKeepsTimeline(t *testing.T) {
	for _, split := range []float64{1, 300, 650} {
		straight := newTestPlayer(t)
		sb := straight.CreateBall(vmath.NewVertex3D(400, 600, 25), 0, 0)
		straight.SimulateTime(split)
		straight.SimulateTime(1000 - split)

		paused := newTestPlayer(t)
		pb := paused.CreateBall(vmath.NewVertex3D(400, 600, 25), 0, 0)
		paused.SimulateTime(split)
		paused.Pause()
		paused.Resume()
		if n := paused.SimulateTime(1000 - split); n == 0 {
			t.Fatalf("split %v: no frames ran after resume", split)
		}

		if paused.TimeMs() != straight.TimeMs() {
			t.Fatalf("split %v: time %v vs %v", split, paused.TimeMs(), straight.TimeMs())
		}
		if pb.Pos.Minus(sb.Pos).Length() > 1e-9 || pb.Vel.Minus(sb.Vel).Length() > 1e-9 {
			t.Errorf("split %v: paused run ended at %v, straight run at %v", split, pb.Pos, sb.Pos)
		}
	}
}

func TestPauseSkipsHostTime(t *testing.T) {
	p := newTestPlayer(t)
	p.UpdatePhysics(300)
	p.Pause()
	if n := p.UpdatePhysics(5000); n != 0 {
		t.Fatalf("ran %d frames while paused", n)
	}
	p.Resume()
	if n := p.UpdatePhysics(5000); n != 0 {
		t.Errorf("resume fast-forwarded %d frames", n)
	}
	if n := p.UpdatePhysics(5100); n != 100 {
		t.Errorf("frames after resume = %d, want 100", n)
	}
	if p.TimeMs() != 400 {
		t.Errorf("time = %v, want 400", p.TimeMs())
	}
}

func TestSimulateTimeAdvancesFromLastClock(t *testing.T) {
	p := newTestPlayer(t)
	p.UpdatePhysics(10)
	if n := p.SimulateTime(15); n != 15 {
		t.Errorf("frames = %d, want 15", n)
	}
	if p.TimeMs() != 25 {
		t.Errorf("time = %v, want 25", p.TimeMs())
	}
}

func gateAt(twoWay bool) *element.Gate {
	data := element.DefaultGateData("Gate1")
	data.Center = vmath.NewVertex2D(500, 1000)
	data.TwoWay = twoWay
	return element.NewGate(data)
}

func TestOneWayGateBlocksBackside(t *testing.T) {
	p := newTestPlayer(t, gateAt(false))
	b := p.CreateBall(vmath.NewVertex3D(500, 900, 25), 0, 0)
	b.Vel = vmath.NewVertex3D(0, 5, 0)

	p.UpdatePhysics(500)
	if b.Pos.Y > 1000-b.Radius+1 {
		t.Errorf("ball passed the closed side: y=%v", b.Pos.Y)
	}
}

func TestOneWayGateLetsFrontThrough(t *testing.T) {
	g := gateAt(false)
	p := newTestPlayer(t, g)
	var hits int
	p.Bridge().On("Gate1", "Hit", func(args ...any) { hits++ })

	b := p.CreateBall(vmath.NewVertex3D(500, 1100, 25), 0, 0)
	b.Vel = vmath.NewVertex3D(0, -20, 0)

	p.UpdatePhysics(200)
	if b.Pos.Y >= 1000-b.Radius {
		t.Errorf("ball did not pass the gate: y=%v", b.Pos.Y)
	}
	if hits == 0 {
		t.Error("gate did not fire Hit")
	}
}

func TestDropTargetAppliesOnNextTick(t *testing.T) {
	data := element.DefaultHitTargetData("Drop1")
	data.Center = vmath.NewVertex2D(500, 1000)
	data.IsDropTarget = true
	target := element.NewHitTarget(data)
	p := newTestPlayer(t, target)

	var dropped int
	p.Bridge().On("Drop1", "Dropped", func(args ...any) { dropped++ })

	if err := p.Set("Drop1", "IsDropped", true); err != nil {
		t.Fatalf("Set IsDropped: %v", err)
	}
	if v, _ := p.Get("Drop1", "IsDropped"); v != false {
		t.Fatalf("IsDropped = %v before the next tick, want false", v)
	}
	p.UpdatePhysics(1)
	if v, _ := p.Get("Drop1", "IsDropped"); v != true {
		t.Errorf("IsDropped = %v after one tick, want true", v)
	}
	if dropped != 1 {
		t.Errorf("Dropped fired %d times, want 1", dropped)
	}
}

func TestTriggerEnterAndExit(t *testing.T) {
	data := element.DefaultTriggerData("Trigger1")
	data.Center = vmath.NewVertex2D(500, 1000)
	p := newTestPlayer(t, element.NewTrigger(data))

	var hit, unhit int
	p.Bridge().On("Trigger1", "Hit", func(args ...any) { hit++ })
	p.Bridge().On("Trigger1", "Unhit", func(args ...any) { unhit++ })

	b := p.CreateBall(vmath.NewVertex3D(500, 900, 25), 0, 0)
	b.Vel = vmath.NewVertex3D(0, 10, 0)
	p.UpdatePhysics(400)

	if b.Pos.Y < 1100 {
		t.Fatalf("ball did not cross the trigger: y=%v", b.Pos.Y)
	}
	if hit != 1 || unhit != 1 {
		t.Errorf("Hit=%d Unhit=%d, want 1 and 1", hit, unhit)
	}
}

func TestBallsCollide(t *testing.T) {
	p := newTestPlayer(t)
	var collides int
	p.Bridge().On(p.Table().Name, "Collide", func(args ...any) { collides++ })

	a := p.CreateBall(vmath.NewVertex3D(500, 1000, 25), 0, 0)
	b := p.CreateBall(vmath.NewVertex3D(500, 1100, 25), 0, 0)
	a.Vel = vmath.NewVertex3D(0, 10, 0)

	p.UpdatePhysics(100)
	if collides == 0 {
		t.Fatal("no Collide event")
	}
	if b.Vel.Y <= a.Vel.Y {
		t.Errorf("struck ball vel %v not faster than striker %v", b.Vel.Y, a.Vel.Y)
	}
}

func TestBallBelowPlayfieldDrains(t *testing.T) {
	p := newTestPlayer(t)
	var drained []any
	p.Bridge().On(p.Table().Name, "Drain", func(args ...any) { drained = args })

	b := p.CreateBall(vmath.NewVertex3D(500, 1000, -100), 0, 0)
	p.UpdatePhysics(1)
	if len(p.Balls()) != 0 {
		t.Fatalf("%d balls left, want 0", len(p.Balls()))
	}
	if len(drained) != 1 || drained[0] != b.ID {
		t.Errorf("Drain args = %v, want [%d]", drained, b.ID)
	}
}

func TestDestroyBallInsideTickIsDeferred(t *testing.T) {
	p := newTestPlayer(t)
	b := p.CreateBall(vmath.NewVertex3D(500, 1000, 25), 0, 0)
	p.inTick = true
	p.DestroyBall(b)
	p.inTick = false

	if !b.Frozen {
		t.Error("doomed ball still simulated")
	}
	if len(p.Balls()) != 0 {
		t.Error("doomed ball still listed")
	}
	if len(p.balls) != 1 {
		t.Fatalf("ball removed before the frame ended")
	}
	p.UpdatePhysics(1)
	if len(p.balls) != 0 {
		t.Errorf("ball not reaped after the frame")
	}
}

func TestApplyQueuesInsideTick(t *testing.T) {
	p := newTestPlayer(t)
	ran := false
	p.inTick = true
	p.Apply(func() { ran = true })
	p.inTick = false
	if ran {
		t.Fatal("Apply ran inside a tick")
	}
	p.UpdatePhysics(1)
	if !ran {
		t.Error("queued mutation never ran")
	}

	deferred := false
	p.Defer(func() { deferred = true })
	if deferred {
		t.Fatal("Defer ran immediately")
	}
	p.UpdatePhysics(2)
	if !deferred {
		t.Error("deferred mutation never ran")
	}
}

func TestFirstRegisteredWinsTies(t *testing.T) {
	p := newTestPlayer(t)
	b := p.CreateBall(vmath.NewVertex3D(500, 1000, 25), 0, 0)
	b.Vel = vmath.NewVertex3D(0, 10, 0)

	first := physics.NewLineSeg(vmath.NewVertex2D(600, 1050), vmath.NewVertex2D(400, 1050), 0, 50, physics.ObjGeneric)
	second := physics.NewLineSeg(vmath.NewVertex2D(600, 1050), vmath.NewVertex2D(400, 1050), 0, 50, physics.ObjGeneric)
	b.Coll.Clear()
	p.testObject(b, first, 10)
	p.testObject(b, second, 10)
	if b.Coll.Obj != first {
		t.Errorf("tie went to the later object")
	}
}

func TestUnknownElement(t *testing.T) {
	p := newTestPlayer(t)
	if _, err := p.Call("Nope", "Kick"); !errors.Is(err, ErrUnknownElement) {
		t.Errorf("err = %v, want ErrUnknownElement", err)
	}
	if err := p.MoveBall(42, vmath.Vertex3D{}); !errors.Is(err, ErrNoBall) {
		t.Errorf("err = %v, want ErrNoBall", err)
	}
}

func TestDuplicateElementNames(t *testing.T) {
	a := element.NewKicker(element.DefaultKickerData("Same"))
	b := element.NewKicker(element.DefaultKickerData("Same"))
	if _, err := New(element.DefaultTable(), []element.Element{a, b}, Options{}); err == nil {
		t.Error("duplicate names accepted")
	}
}

func TestOverridePhysicsChangesGravity(t *testing.T) {
	p := newTestPlayer(t)
	before := p.Gravity()
	if err := p.SetTableParam("OverridePhysics", 3); err != nil {
		t.Fatalf("SetTableParam: %v", err)
	}
	if p.Gravity().Equals(before) {
		t.Error("gravity unchanged after switching preset")
	}
	if v, _ := p.TableParam("OverridePhysics"); v != 3 {
		t.Errorf("OverridePhysics = %v, want 3", v)
	}
	if err := p.SetOverridePhysics(99); !errors.Is(err, element.ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestTableParamClamps(t *testing.T) {
	p := newTestPlayer(t)
	if err := p.SetTableParam("Friction", 3); err != nil {
		t.Fatalf("SetTableParam: %v", err)
	}
	if v, _ := p.TableParam("Friction"); v != 1 {
		t.Errorf("Friction = %v, want 1", v)
	}
	if _, err := p.TableParam("Bogus"); !errors.Is(err, element.ErrUnknownProperty) {
		t.Errorf("err = %v, want ErrUnknownProperty", err)
	}
}

func TestBallStatesArePublished(t *testing.T) {
	p := newTestPlayer(t)
	b := p.CreateBall(vmath.NewVertex3D(500, 1000, 25), 0, 0)
	p.UpdatePhysics(1)
	s, ok := p.Bridge().PopState(BallStateName(b.ID))
	if !ok {
		t.Fatal("no ball state buffered")
	}
	bs, ok := s.(*BallState)
	if !ok || bs.ID != b.ID {
		t.Errorf("state = %#v", s)
	}
}

func TestDestroyedBallStateIsDropped(t *testing.T) {
	p := newTestPlayer(t)
	b := p.CreateBall(vmath.NewVertex3D(500, 1000, 25), 0, 0)
	p.UpdatePhysics(1)
	name := BallStateName(b.ID)
	if _, ok := p.Bridge().LastState(name); !ok {
		t.Fatal("no state kept for a live ball")
	}
	p.DestroyBall(b)
	p.UpdatePhysics(2)
	if _, ok := p.Bridge().LastState(name); ok {
		t.Error("state of a destroyed ball kept")
	}
	if _, ok := p.Bridge().PopState(name); ok {
		t.Error("pending state of a destroyed ball kept")
	}
}

func TestBallStateEqualityTolerance(t *testing.T) {
	a := &BallState{ID: 1}
	a.Pos = vmath.NewVertex3D(500, 1000, 25)
	a.Vel = vmath.NewVertex3D(1, -2, 0)
	a.Radius = 25

	near := *a
	near.Pos.Y += 1e-7
	near.Vel.X -= 1e-7
	if !a.Equals(&near) {
		t.Error("states within 1e-6 compared unequal")
	}
	far := *a
	far.Pos.Z += 1e-5
	if a.Equals(&far) {
		t.Error("states 1e-5 apart compared equal")
	}
}
