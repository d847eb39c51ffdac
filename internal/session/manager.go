package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/playmatatu/pinball/internal/config"
	"github.com/playmatatu/pinball/internal/models"
	"github.com/playmatatu/pinball/internal/player"
	"github.com/playmatatu/pinball/internal/store"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
)

const snapshotInterval = time.Second

// Publisher receives every non-empty state batch.
type Publisher interface {
	PublishStates(ctx context.Context, s *store.Snapshot) error
}

// SnapshotStore keeps the latest full state of a session.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, s *store.Snapshot) error
}

// Recorder keeps durable session records.
type Recorder interface {
	CreateSession(ctx context.Context, rec *models.PhysicsSession) error
	UpdateSession(ctx context.Context, sessionID, status string, simTimeMs float64) error
}

// Deps are the optional backends of a manager; nil fields are skipped.
type Deps struct {
	Publishers []Publisher
	Snapshots  SnapshotStore
	Recorder   Recorder
	Values     player.ValueStore
}

// Manager owns the running sessions and steps each one from its own ticker.
type Manager struct {
	cfg  *config.Config
	deps Deps

	sessions map[string]*Session
	mu       sync.RWMutex

	ctx context.Context
	wg  sync.WaitGroup
	now func() time.Time
}

func NewManager(cfg *config.Config, deps Deps) *Manager {
	return &Manager{
		cfg:      cfg,
		deps:     deps,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Start enables session stepping and the idle reaper until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	m.ctx = ctx
	pending := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		pending = append(pending, s)
	}
	m.mu.Unlock()

	for _, s := range pending {
		m.wg.Add(1)
		go m.run(s)
	}
	go m.reapIdle(ctx)
	log.Printf("[SESSION] Manager started (tick=%dms, max=%d)", m.cfg.PhysicsTickMs, m.cfg.MaxSessions)
}

// Wait blocks until every session loop has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func generateSessionID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return "sess_" + hex.EncodeToString(b)
}

// Create builds a player from desc and starts stepping it. A nil seed uses
// the configured default.
func (m *Manager) Create(ctx context.Context, desc *TableDescription, seed *int64) (*Session, []SkippedElement, error) {
	table, elems, skipped, err := desc.Build()
	if err != nil {
		return nil, nil, err
	}
	sd := m.cfg.PhysicsSeed
	if seed != nil {
		sd = *seed
	}
	p, err := player.New(table, elems, player.Options{Seed: sd, Values: m.deps.Values})
	if err != nil {
		return nil, skipped, err
	}

	s := newSession(generateSessionID(), p, sd, m.cfg.MaxCatchUpMs, m.now())

	m.mu.Lock()
	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		m.mu.Unlock()
		return nil, skipped, ErrTooManySessions
	}
	m.sessions[s.ID] = s
	running := m.ctx != nil
	m.mu.Unlock()

	if m.deps.Recorder != nil {
		def, _ := json.Marshal(desc)
		rec := &models.PhysicsSession{
			SessionID: s.ID,
			TableName: s.TableName,
			TableDef:  def,
			Seed:      sd,
			Status:    models.SessionRunning,
		}
		if err := m.deps.Recorder.CreateSession(ctx, rec); err != nil {
			log.Printf("[SESSION] Failed to record session %s: %v", s.ID, err)
		}
	}

	if running {
		m.wg.Add(1)
		go m.run(s)
	}
	log.Printf("[SESSION] Session %s created for table %q (seed=%d, skipped=%d)", s.ID, s.TableName, sd, len(skipped))
	return s, skipped, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// List returns a summary of every session, oldest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	out := make([]Info, 0, len(all))
	for _, s := range all {
		out = append(out, s.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Pause freezes the simulated time of a session.
func (m *Manager) Pause(ctx context.Context, id string) error {
	return m.setPaused(ctx, id, true)
}

// Resume continues a paused session from where it stopped.
func (m *Manager) Resume(ctx context.Context, id string) error {
	return m.setPaused(ctx, id, false)
}

func (m *Manager) setPaused(ctx context.Context, id string, paused bool) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	var info Info
	s.Do(func(p *player.Player) error {
		if paused {
			p.Pause()
		} else {
			p.Resume()
		}
		info = s.infoLocked()
		return nil
	})
	m.record(ctx, s.ID, info.Status, info.SimTimeMs)
	return nil
}

// Close stops a session and marks its record finished.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	close(s.stop)

	info := s.Info()
	m.record(ctx, s.ID, models.SessionFinished, info.SimTimeMs)
	log.Printf("[SESSION] Session %s closed at %.0fms", s.ID, info.SimTimeMs)
	return nil
}

func (m *Manager) record(ctx context.Context, id, status string, simTimeMs float64) {
	if m.deps.Recorder == nil {
		return
	}
	if err := m.deps.Recorder.UpdateSession(ctx, id, status, simTimeMs); err != nil {
		log.Printf("[SESSION] Failed to update session %s: %v", id, err)
	}
}

func (m *Manager) run(s *Session) {
	defer m.wg.Done()
	tick := time.Duration(m.cfg.PhysicsTickMs) * time.Millisecond
	if tick <= 0 {
		tick = 16 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.stepSession(m.ctx, s)
		}
	}
}

func (m *Manager) stepSession(ctx context.Context, s *Session) {
	now := m.now()
	s.mu.Lock()
	snap := s.step(now)
	var toSave *store.Snapshot
	if m.deps.Snapshots != nil {
		toSave = s.takeUnsaved(snap, now, snapshotInterval)
	}
	s.mu.Unlock()

	if !snap.Empty() {
		for _, pub := range m.deps.Publishers {
			if err := pub.PublishStates(ctx, snap); err != nil {
				log.Printf("[SESSION] Publish failed for %s: %v", s.ID, err)
			}
		}
	}
	if toSave != nil {
		if err := m.deps.Snapshots.SaveSnapshot(ctx, toSave); err != nil {
			log.Printf("[SESSION] Snapshot save failed for %s: %v", s.ID, err)
		}
	}
}

func (m *Manager) reapIdle(ctx context.Context) {
	idle := time.Duration(m.cfg.SessionIdleMinutes) * time.Minute
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.closeIdle(ctx, m.now().Add(-idle))
		}
	}
}

// closeIdle closes every session untouched since cutoff.
func (m *Manager) closeIdle(ctx context.Context, cutoff time.Time) int {
	m.mu.RLock()
	var stale []string
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range stale {
		log.Printf("[SESSION] Closing idle session %s", id)
		if err := m.Close(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
			log.Printf("[SESSION] Failed to close %s: %v", id, err)
		}
	}
	return len(stale)
}

// Snapshot returns the current full state of a session without consuming
// pending changes.
func (m *Manager) Snapshot(id string) (*store.Snapshot, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	var snap *store.Snapshot
	err = s.Do(func(p *player.Player) error {
		snap = store.NewSnapshot(s.ID, p.TimeMs(), nil)
		for _, name := range stateNames(p) {
			if st, ok := p.Bridge().LastState(name); ok {
				snap.States[name] = st.ToMap()
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", id, err)
	}
	return snap, nil
}

func stateNames(p *player.Player) []string {
	var names []string
	for _, e := range p.Elements() {
		names = append(names, e.Name())
	}
	for _, b := range p.Balls() {
		names = append(names, player.BallStateName(b.ID))
	}
	return names
}

// Call runs an element command of a session.
func (m *Manager) Call(id, elem, cmd string, args []any) (any, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	var out any
	err = s.Do(func(p *player.Player) error {
		v, err := p.Call(elem, cmd, args...)
		out = v
		return err
	})
	return out, err
}

// SaveValue stores a script value for the session's table. The store is
// called without holding the session, so a slow backend never delays a step.
func (m *Manager) SaveValue(ctx context.Context, id, key string, value any) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if m.deps.Values == nil {
		return player.ErrNoValueStore
	}
	s.touch()
	return m.deps.Values.SaveValue(ctx, s.TableName, key, value)
}

// LoadValue reads a stored script value for the session's table.
func (m *Manager) LoadValue(ctx context.Context, id, key string) (any, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	if m.deps.Values == nil {
		return nil, player.ErrNoValueStore
	}
	s.touch()
	return m.deps.Values.LoadValue(ctx, s.TableName, key)
}
