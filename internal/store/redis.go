package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/playmatatu/pinball/internal/events"
)

// ErrNotFound is returned when a value or snapshot does not exist.
var ErrNotFound = errors.New("not found")

// Snapshot is a frame of element states keyed by element name.
type Snapshot struct {
	SessionID string                    `msgpack:"session_id" json:"session_id"`
	SimTimeMs float64                   `msgpack:"sim_time_ms" json:"sim_time_ms"`
	States    map[string]map[string]any `msgpack:"states" json:"states"`
	Events    []Event                   `msgpack:"events,omitempty" json:"events,omitempty"`
}

// Event is an element event fired during the frames of a snapshot.
type Event struct {
	Element string `msgpack:"element" json:"element"`
	Name    string `msgpack:"name" json:"name"`
	Args    []any  `msgpack:"args,omitempty" json:"args,omitempty"`
}

// NewSnapshot flattens named states into a snapshot.
func NewSnapshot(sessionID string, simTimeMs float64, states []events.NamedState) *Snapshot {
	s := &Snapshot{SessionID: sessionID, SimTimeMs: simTimeMs, States: make(map[string]map[string]any, len(states))}
	for _, ns := range states {
		s.States[ns.Name] = ns.State.ToMap()
	}
	return s
}

// Merge overlays newer states on top of s.
func (s *Snapshot) Merge(newer *Snapshot) {
	if newer == nil {
		return
	}
	if s.States == nil {
		s.States = make(map[string]map[string]any, len(newer.States))
	}
	for name, st := range newer.States {
		s.States[name] = st
	}
	s.SimTimeMs = newer.SimTimeMs
}

// Empty reports whether s carries neither states nor events.
func (s *Snapshot) Empty() bool {
	return len(s.States) == 0 && len(s.Events) == 0
}

func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	return msgpack.Marshal(s)
}

func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

// RedisStore keeps snapshots and script values in Redis as msgpack blobs.
type RedisStore struct {
	rdb         *redis.Client
	snapshotTTL time.Duration
}

func NewRedisStore(rdb *redis.Client, snapshotTTL time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, snapshotTTL: snapshotTTL}
}

func snapshotKey(sessionID string) string {
	return "pinball:snapshot:" + sessionID
}

func valueKey(table, key string) string {
	return "pinball:value:" + table + ":" + key
}

// StateChannel is the pub-sub channel carrying a session's state batches.
func StateChannel(sessionID string) string {
	return "pinball:states:" + sessionID
}

// SaveSnapshot merges s into the stored snapshot of its session.
func (r *RedisStore) SaveSnapshot(ctx context.Context, s *Snapshot) error {
	prev, err := r.LoadSnapshot(ctx, s.SessionID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if prev == nil {
		prev = &Snapshot{SessionID: s.SessionID}
	}
	// events are streamed, never stored
	prev.Merge(s)
	data, err := EncodeSnapshot(prev)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return r.rdb.Set(ctx, snapshotKey(prev.SessionID), data, r.snapshotTTL).Err()
}

func (r *RedisStore) LoadSnapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	data, err := r.rdb.Get(ctx, snapshotKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(data)
}

// PublishStates sends a state batch to the session channel.
func (r *RedisStore) PublishStates(ctx context.Context, s *Snapshot) error {
	data, err := EncodeSnapshot(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return r.rdb.Publish(ctx, StateChannel(s.SessionID), data).Err()
}

// SaveValue caches a script value without expiry.
func (r *RedisStore) SaveValue(ctx context.Context, table, key string, value any) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value %s/%s: %w", table, key, err)
	}
	return r.rdb.Set(ctx, valueKey(table, key), data, 0).Err()
}

func (r *RedisStore) LoadValue(ctx context.Context, table, key string) (any, error) {
	data, err := r.rdb.Get(ctx, valueKey(table, key)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var v any
	if err := msgpack.Unmarshal(data, &v); err != nil {
		log.Printf("[STORE] Dropping unreadable value %s/%s: %v", table, key, err)
		return nil, ErrNotFound
	}
	return v, nil
}
