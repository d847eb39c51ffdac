package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/playmatatu/pinball/internal/config"
	"github.com/playmatatu/pinball/internal/element"
	"github.com/playmatatu/pinball/internal/models"
	"github.com/playmatatu/pinball/internal/player"
	"github.com/playmatatu/pinball/internal/store"
	"github.com/playmatatu/pinball/internal/vmath"
)

func testConfig() *config.Config {
	return &config.Config{
		PhysicsTickMs:      16,
		PhysicsSeed:        1,
		SessionIdleMinutes: 30,
		MaxSessions:        2,
		MaxCatchUpMs:       250,
	}
}

type fakePublisher struct {
	batches []*store.Snapshot
}

func (f *fakePublisher) PublishStates(ctx context.Context, s *store.Snapshot) error {
	f.batches = append(f.batches, s)
	return nil
}

type fakeSnapshots struct {
	saved []*store.Snapshot
}

func (f *fakeSnapshots) SaveSnapshot(ctx context.Context, s *store.Snapshot) error {
	f.saved = append(f.saved, s)
	return nil
}

type fakeRecorder struct {
	created  []*models.PhysicsSession
	statuses []string
}

func (f *fakeRecorder) CreateSession(ctx context.Context, rec *models.PhysicsSession) error {
	f.created = append(f.created, rec)
	return nil
}

func (f *fakeRecorder) UpdateSession(ctx context.Context, sessionID, status string, simTimeMs float64) error {
	f.statuses = append(f.statuses, status)
	return nil
}

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(deps Deps) (*Manager, *testClock) {
	clk := &testClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewManager(testConfig(), deps)
	m.now = clk.now
	return m, clk
}

func mustDescription(t *testing.T, js string) *TableDescription {
	t.Helper()
	var d TableDescription
	if err := json.Unmarshal([]byte(js), &d); err != nil {
		t.Fatalf("bad description: %v", err)
	}
	return &d
}

const emptyTable = `{"table": {"name": "T"}, "elements": []}`

func TestBuildSkipsBadElements(t *testing.T) {
	d := mustDescription(t, `{
		"table": {"name": "T", "gravity": 1.5},
		"elements": [
			{"kind": "flipper", "name": "LeftFlipper", "center": {"x": 300, "y": 1800}, "startAngle": 120},
			{"kind": "warp-drive", "name": "W"},
			{"kind": "gate"},
			{"kind": "Bumper", "name": "LeftFlipper"},
			{"kind": "bumper", "name": "B1", "radius": "big"}
		]
	}`)
	table, elems, skipped, err := d.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if table.Name != "T" || table.Gravity != 1.5 {
		t.Errorf("table = %q gravity %v", table.Name, table.Gravity)
	}
	if len(elems) != 1 {
		t.Fatalf("elements = %d, want 1", len(elems))
	}
	fl, ok := elems[0].(*element.Flipper)
	if !ok {
		t.Fatalf("element is %T, want *element.Flipper", elems[0])
	}
	if fl.Name() != "LeftFlipper" {
		t.Errorf("name = %q", fl.Name())
	}
	if len(skipped) != 4 {
		t.Fatalf("skipped = %+v, want 4 entries", skipped)
	}
	wantIdx := []int{1, 2, 3, 4}
	for i, s := range skipped {
		if s.Index != wantIdx[i] {
			t.Errorf("skipped[%d].Index = %d, want %d", i, s.Index, wantIdx[i])
		}
	}
}

func TestBuildKeepsDefaults(t *testing.T) {
	d := mustDescription(t, `{"table": {"name": "T"}, "elements": [{"kind": "flipper", "name": "F"}]}`)
	table, elems, _, err := d.Build()
	if err != nil {
		t.Fatal(err)
	}
	def := element.DefaultTable()
	if table.Right != def.Right || table.Bottom != def.Bottom {
		t.Errorf("table bounds = %v,%v, want defaults %v,%v", table.Right, table.Bottom, def.Right, def.Bottom)
	}
	if len(elems) != 1 {
		t.Fatalf("elements = %d, want 1", len(elems))
	}
}

func TestBuildRejectsBadTable(t *testing.T) {
	for _, js := range []string{
		`{"table": {"name": 5}}`,
		`{"table": {"name": ""}}`,
	} {
		d := mustDescription(t, js)
		if _, _, _, err := d.Build(); err == nil {
			t.Errorf("%s: expected error", js)
		}
	}
}

func TestKindsSorted(t *testing.T) {
	k := Kinds()
	if len(k) != 12 {
		t.Fatalf("kinds = %v", k)
	}
	for i := 1; i < len(k); i++ {
		if k[i-1] >= k[i] {
			t.Errorf("kinds not sorted: %v", k)
		}
	}
}

func TestStepPublishesBallState(t *testing.T) {
	pub := &fakePublisher{}
	m, clk := newTestManager(Deps{Publishers: []Publisher{pub}})
	s, _, err := m.Create(context.Background(), mustDescription(t, emptyTable), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	s.Do(func(p *player.Player) error {
		p.CreateBall(vmath.Vertex3D{X: 500, Y: 1000, Z: 25}, 0, 0)
		return nil
	})

	clk.advance(100 * time.Millisecond)
	m.stepSession(context.Background(), s)

	if len(pub.batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(pub.batches))
	}
	b := pub.batches[0]
	if b.SimTimeMs != 100 {
		t.Errorf("SimTimeMs = %v, want 100", b.SimTimeMs)
	}
	if _, ok := b.States[player.BallStateName(1)]; !ok {
		t.Errorf("ball state missing from %v", b.States)
	}
}

func TestCatchUpIsCapped(t *testing.T) {
	m, clk := newTestManager(Deps{})
	s, _, err := m.Create(context.Background(), mustDescription(t, emptyTable), nil)
	if err != nil {
		t.Fatal(err)
	}
	clk.advance(10 * time.Second)
	m.stepSession(context.Background(), s)
	if got := s.Info().SimTimeMs; got != 250 {
		t.Errorf("SimTimeMs = %v, want 250", got)
	}
}

func TestDrainEventIsForwarded(t *testing.T) {
	pub := &fakePublisher{}
	m, clk := newTestManager(Deps{Publishers: []Publisher{pub}})
	s, _, err := m.Create(context.Background(), mustDescription(t, emptyTable), nil)
	if err != nil {
		t.Fatal(err)
	}
	s.Do(func(p *player.Player) error {
		p.CreateBall(vmath.Vertex3D{X: 500, Y: 1000, Z: -100}, 0, 0)
		return nil
	})
	clk.advance(5 * time.Millisecond)
	m.stepSession(context.Background(), s)

	if len(pub.batches) == 0 {
		t.Fatal("nothing published")
	}
	var found bool
	for _, ev := range pub.batches[0].Events {
		if ev.Element == "T" && ev.Name == "Drain" {
			found = true
			if len(ev.Args) != 1 || ev.Args[0] != 1 {
				t.Errorf("Drain args = %v, want [1]", ev.Args)
			}
		}
	}
	if !found {
		t.Errorf("Drain not in %+v", pub.batches[0].Events)
	}
	if s.Info().Balls != 0 {
		t.Error("drained ball still on the table")
	}
}

func TestSnapshotSavedOncePerInterval(t *testing.T) {
	snaps := &fakeSnapshots{}
	m, clk := newTestManager(Deps{Snapshots: snaps})
	s, _, err := m.Create(context.Background(), mustDescription(t, emptyTable), nil)
	if err != nil {
		t.Fatal(err)
	}
	s.Do(func(p *player.Player) error {
		p.CreateBall(vmath.Vertex3D{X: 500, Y: 1000, Z: 25}, 0, 0)
		return nil
	})

	clk.advance(100 * time.Millisecond)
	m.stepSession(context.Background(), s)
	if len(snaps.saved) != 0 {
		t.Fatalf("saved %d snapshots before the interval", len(snaps.saved))
	}
	clk.advance(time.Second)
	m.stepSession(context.Background(), s)
	if len(snaps.saved) != 1 {
		t.Fatalf("saved = %d, want 1", len(snaps.saved))
	}
	if _, ok := snaps.saved[0].States[player.BallStateName(1)]; !ok {
		t.Error("saved snapshot has no ball")
	}
	if len(snaps.saved[0].Events) != 0 {
		t.Error("saved snapshot carries events")
	}
}

func TestMaxSessions(t *testing.T) {
	m, _ := newTestManager(Deps{})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, _, err := m.Create(ctx, mustDescription(t, emptyTable), nil); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	if _, _, err := m.Create(ctx, mustDescription(t, emptyTable), nil); !errors.Is(err, ErrTooManySessions) {
		t.Errorf("err = %v, want ErrTooManySessions", err)
	}
	if got := len(m.List()); got != 2 {
		t.Errorf("List = %d, want 2", got)
	}
}

func TestSeedOverride(t *testing.T) {
	rec := &fakeRecorder{}
	m, _ := newTestManager(Deps{Recorder: rec})
	seed := int64(42)
	s, _, err := m.Create(context.Background(), mustDescription(t, emptyTable), &seed)
	if err != nil {
		t.Fatal(err)
	}
	if s.Seed != 42 {
		t.Errorf("Seed = %d, want 42", s.Seed)
	}
	if len(rec.created) != 1 || rec.created[0].Seed != 42 || rec.created[0].TableName != "T" {
		t.Errorf("recorded = %+v", rec.created)
	}
}

func TestPauseResumeRecordsStatus(t *testing.T) {
	rec := &fakeRecorder{}
	m, _ := newTestManager(Deps{Recorder: rec})
	ctx := context.Background()
	s, _, err := m.Create(ctx, mustDescription(t, emptyTable), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Pause(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if s.Info().Status != models.SessionPaused {
		t.Errorf("status = %s, want PAUSED", s.Info().Status)
	}
	if err := m.Resume(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	want := []string{models.SessionPaused, models.SessionRunning}
	if len(rec.statuses) != 2 || rec.statuses[0] != want[0] || rec.statuses[1] != want[1] {
		t.Errorf("statuses = %v, want %v", rec.statuses, want)
	}
	if err := m.Pause(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCloseIdleSessions(t *testing.T) {
	rec := &fakeRecorder{}
	m, _ := newTestManager(Deps{Recorder: rec})
	ctx := context.Background()
	s, _, err := m.Create(ctx, mustDescription(t, emptyTable), nil)
	if err != nil {
		t.Fatal(err)
	}
	if n := m.closeIdle(ctx, time.Now().Add(-time.Hour)); n != 0 {
		t.Errorf("closed %d fresh sessions", n)
	}
	if n := m.closeIdle(ctx, time.Now().Add(time.Hour)); n != 1 {
		t.Errorf("closed %d, want 1", n)
	}
	if _, err := m.Get(s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after close: %v", err)
	}
	if len(rec.statuses) != 1 || rec.statuses[0] != models.SessionFinished {
		t.Errorf("statuses = %v, want [FINISHED]", rec.statuses)
	}
	if err := m.Close(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Close: %v", err)
	}
}

func TestSnapshotIncludesEveryState(t *testing.T) {
	m, clk := newTestManager(Deps{})
	d := mustDescription(t, `{"table": {"name": "T"}, "elements": [
		{"kind": "flipper", "name": "F", "center": {"x": 300, "y": 1800}}
	]}`)
	s, _, err := m.Create(context.Background(), d, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.Do(func(p *player.Player) error {
		p.CreateBall(vmath.Vertex3D{X: 500, Y: 1000, Z: 25}, 0, 0)
		return nil
	})
	clk.advance(20 * time.Millisecond)
	m.stepSession(context.Background(), s)

	snap, err := m.Snapshot(s.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"F", player.BallStateName(1)} {
		if _, ok := snap.States[name]; !ok {
			t.Errorf("snapshot missing %s: %v", name, snap.States)
		}
	}
}

type blockingValues struct {
	entered chan struct{}
	release chan struct{}
	saved   map[string]any
}

func (b *blockingValues) SaveValue(ctx context.Context, table, key string, value any) error {
	b.entered <- struct{}{}
	<-b.release
	b.saved[table+"/"+key] = value
	return nil
}

func (b *blockingValues) LoadValue(ctx context.Context, table, key string) (any, error) {
	return b.saved[table+"/"+key], nil
}

func TestValueIODoesNotHoldTheSession(t *testing.T) {
	vals := &blockingValues{entered: make(chan struct{}), release: make(chan struct{}), saved: map[string]any{}}
	m, _ := newTestManager(Deps{Values: vals})
	s, _, err := m.Create(context.Background(), mustDescription(t, emptyTable), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- m.SaveValue(context.Background(), s.ID, "HighScore", 1200) }()
	<-vals.entered

	stepped := make(chan struct{})
	go func() {
		s.Do(func(p *player.Player) error { return nil })
		close(stepped)
	}()
	select {
	case <-stepped:
	case <-time.After(time.Second):
		t.Fatal("session blocked while a value was being saved")
	}

	close(vals.release)
	if err := <-done; err != nil {
		t.Fatalf("SaveValue: %v", err)
	}
	v, err := m.LoadValue(context.Background(), s.ID, "HighScore")
	if err != nil || v != 1200 {
		t.Errorf("LoadValue = %v, %v; want 1200", v, err)
	}
}

func TestValuesWithoutStore(t *testing.T) {
	m, _ := newTestManager(Deps{})
	s, _, err := m.Create(context.Background(), mustDescription(t, emptyTable), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.SaveValue(context.Background(), s.ID, "k", 1); !errors.Is(err, player.ErrNoValueStore) {
		t.Errorf("SaveValue err = %v, want ErrNoValueStore", err)
	}
	if _, err := m.LoadValue(context.Background(), "sess_missing", "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadValue err = %v, want ErrNotFound", err)
	}
}
