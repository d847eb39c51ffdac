package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// PhysicsSession is the persisted record of a running or finished table session
type PhysicsSession struct {
	ID         int             `db:"id" json:"id"`
	SessionID  string          `db:"session_id" json:"session_id"`
	TableName  string          `db:"table_name" json:"table_name"`
	TableDef   json.RawMessage `db:"table_def" json:"table_def"`
	Seed       int64           `db:"seed" json:"seed"`
	Status     string          `db:"status" json:"status"`
	SimTimeMs  float64         `db:"sim_time_ms" json:"sim_time_ms"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
	FinishedAt sql.NullTime    `db:"finished_at" json:"finished_at,omitempty"`
}

// SavedValue is a script value kept across sessions of the same table
type SavedValue struct {
	ID        int             `db:"id" json:"id"`
	TableName string          `db:"table_name" json:"table_name"`
	Key       string          `db:"key" json:"key"`
	Value     json.RawMessage `db:"value" json:"value"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Session statuses
const (
	SessionRunning  = "RUNNING"
	SessionPaused   = "PAUSED"
	SessionFinished = "FINISHED"
)
