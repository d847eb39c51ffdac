package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/playmatatu/pinball/internal/models"
)

// PGStore keeps session records and script values in PostgreSQL.
type PGStore struct {
	db *sqlx.DB
}

func NewPGStore(db *sqlx.DB) *PGStore {
	return &PGStore{db: db}
}

// CreateSession inserts a session record and fills its ID and timestamps.
func (s *PGStore) CreateSession(ctx context.Context, rec *models.PhysicsSession) error {
	if rec.Status == "" {
		rec.Status = models.SessionRunning
	}
	row := s.db.QueryRowxContext(ctx, `
		INSERT INTO physics_sessions (session_id, table_name, table_def, seed, status, sim_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		rec.SessionID, rec.TableName, []byte(rec.TableDef), rec.Seed, rec.Status, rec.SimTimeMs)
	if err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return fmt.Errorf("insert session %s: %w", rec.SessionID, err)
	}
	return nil
}

// UpdateSession records the status and simulated time of a session.
func (s *PGStore) UpdateSession(ctx context.Context, sessionID, status string, simTimeMs float64) error {
	query := `UPDATE physics_sessions SET status = $1, sim_time_ms = $2, updated_at = NOW()`
	if status == models.SessionFinished {
		query += `, finished_at = NOW()`
	}
	query += ` WHERE session_id = $3`
	res, err := s.db.ExecContext(ctx, query, status, simTimeMs, sessionID)
	if err != nil {
		return fmt.Errorf("update session %s: %w", sessionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) GetSession(ctx context.Context, sessionID string) (*models.PhysicsSession, error) {
	var rec models.PhysicsSession
	err := s.db.GetContext(ctx, &rec, `SELECT * FROM physics_sessions WHERE session_id = $1`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListSessions returns the most recent sessions, optionally filtered by status.
func (s *PGStore) ListSessions(ctx context.Context, status string, limit int) ([]models.PhysicsSession, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []models.PhysicsSession
	var err error
	if status == "" {
		err = s.db.SelectContext(ctx, &out, `SELECT * FROM physics_sessions ORDER BY created_at DESC LIMIT $1`, limit)
	} else {
		err = s.db.SelectContext(ctx, &out, `SELECT * FROM physics_sessions WHERE status = $1 ORDER BY created_at DESC LIMIT $2`, status, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

// SaveValue upserts a script value as JSON.
func (s *PGStore) SaveValue(ctx context.Context, table, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value %s/%s: %w", table, key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saved_values (table_name, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (table_name, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		table, key, data)
	if err != nil {
		return fmt.Errorf("save value %s/%s: %w", table, key, err)
	}
	return nil
}

func (s *PGStore) LoadValue(ctx context.Context, table, key string) (any, error) {
	var rec models.SavedValue
	err := s.db.GetContext(ctx, &rec, `SELECT * FROM saved_values WHERE table_name = $1 AND key = $2`, table, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(rec.Value, &v); err != nil {
		log.Printf("[STORE] Unreadable value %s/%s: %v", table, key, err)
		return nil, ErrNotFound
	}
	return v, nil
}

// ValueBackend is one storage layer for script values.
type ValueBackend interface {
	SaveValue(ctx context.Context, table, key string, value any) error
	LoadValue(ctx context.Context, table, key string) (any, error)
}

// Values writes through a cache to a durable backend and reads from the
// cache first. Either layer may be nil.
type Values struct {
	Cache   ValueBackend
	Durable ValueBackend
}

func (v *Values) SaveValue(ctx context.Context, table, key string, value any) error {
	if v.Durable != nil {
		if err := v.Durable.SaveValue(ctx, table, key, value); err != nil {
			return err
		}
	}
	if v.Cache != nil {
		if err := v.Cache.SaveValue(ctx, table, key, value); err != nil {
			log.Printf("[STORE] Cache write failed for %s/%s: %v", table, key, err)
		}
	}
	return nil
}

func (v *Values) LoadValue(ctx context.Context, table, key string) (any, error) {
	if v.Cache != nil {
		val, err := v.Cache.LoadValue(ctx, table, key)
		if err == nil {
			return val, nil
		}
		if !errors.Is(err, ErrNotFound) {
			log.Printf("[STORE] Cache read failed for %s/%s: %v", table, key, err)
		}
	}
	if v.Durable == nil {
		return nil, ErrNotFound
	}
	val, err := v.Durable.LoadValue(ctx, table, key)
	if err != nil {
		return nil, err
	}
	if v.Cache != nil {
		if err := v.Cache.SaveValue(ctx, table, key, val); err != nil {
			log.Printf("[STORE] Cache fill failed for %s/%s: %v", table, key, err)
		}
	}
	return val, nil
}
