package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/playmatatu/pinball/internal/models"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/player"
	"github.com/playmatatu/pinball/internal/store"
)

// Session is one running table. All access to its player goes through Do.
type Session struct {
	ID        string
	TableName string
	Seed      int64
	CreatedAt time.Time

	mu         sync.Mutex
	player     *player.Player
	maxCatchUp float64
	// host clock fed to the player, in milliseconds
	clock      float64
	lastStep   time.Time
	lastActive time.Time
	events     []store.Event
	unsaved    *store.Snapshot
	lastSave   time.Time
	stop       chan struct{}
}

// Info is a point-in-time summary of a session.
type Info struct {
	ID        string    `json:"id"`
	TableName string    `json:"table_name"`
	Seed      int64     `json:"seed"`
	Status    string    `json:"status"`
	SimTimeMs float64   `json:"sim_time_ms"`
	Balls     int       `json:"balls"`
	Elements  int       `json:"elements"`
	CreatedAt time.Time `json:"created_at"`
}

func newSession(id string, p *player.Player, seed int64, maxCatchUp float64, now time.Time) *Session {
	s := &Session{
		ID:         id,
		TableName:  p.Table().Name,
		Seed:       seed,
		CreatedAt:  now,
		player:     p,
		maxCatchUp: maxCatchUp,
		lastStep:   now,
		lastActive: now,
		lastSave:   now,
		stop:       make(chan struct{}),
	}
	p.Bridge().Listen(s.record)
	return s
}

// Do runs fn with exclusive access to the player.
func (s *Session) Do(fn func(p *player.Player) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	return fn(s.player)
}

// touch marks the session active without running anything on the player.
func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.infoLocked()
}

func (s *Session) infoLocked() Info {
	return Info{
		ID:        s.ID,
		TableName: s.TableName,
		Seed:      s.Seed,
		Status:    s.statusLocked(),
		SimTimeMs: s.player.TimeMs(),
		Balls:     len(s.player.Balls()),
		Elements:  len(s.player.Elements()),
		CreatedAt: s.CreatedAt,
	}
}

func (s *Session) statusLocked() string {
	if s.player.Paused() {
		return models.SessionPaused
	}
	return models.SessionRunning
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// record collects bridge events; it runs with s.mu held.
func (s *Session) record(elem, event string, args []any) {
	ev := store.Event{Element: elem, Name: event}
	if len(args) > 0 {
		ev.Args = make([]any, len(args))
		for i, a := range args {
			ev.Args[i] = eventArg(a)
		}
	}
	s.events = append(s.events, ev)
}

func eventArg(a any) any {
	switch v := a.(type) {
	case *physics.Ball:
		return v.ID
	case nil, bool, int, int64, float64, string:
		return v
	case float32:
		return float64(v)
	default:
		return fmt.Sprint(v)
	}
}

// step advances the player to now and returns the batch of state changes
// and events it produced. Host clock jumps longer than maxCatchUp are cut
// short so a stalled process does not replay seconds of physics at once.
func (s *Session) step(now time.Time) *store.Snapshot {
	elapsed := float64(now.Sub(s.lastStep)) / float64(time.Millisecond)
	s.lastStep = now
	if s.maxCatchUp > 0 && elapsed > s.maxCatchUp {
		elapsed = s.maxCatchUp
	}
	if elapsed > 0 {
		s.clock += elapsed
	}
	s.player.UpdatePhysics(s.clock)

	snap := store.NewSnapshot(s.ID, s.player.TimeMs(), s.player.Bridge().PopStates())
	snap.Events, s.events = s.events, nil
	return snap
}

// takeUnsaved folds snap into the pending snapshot and hands it out once
// every interval.
func (s *Session) takeUnsaved(snap *store.Snapshot, now time.Time, interval time.Duration) *store.Snapshot {
	if len(snap.States) > 0 {
		if s.unsaved == nil {
			s.unsaved = &store.Snapshot{SessionID: s.ID}
		}
		s.unsaved.Merge(snap)
	}
	if s.unsaved == nil || now.Sub(s.lastSave) < interval {
		return nil
	}
	out := s.unsaved
	s.unsaved = nil
	s.lastSave = now
	return out
}
