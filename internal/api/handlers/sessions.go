package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/pinball/internal/models"
	"github.com/playmatatu/pinball/internal/session"
	"github.com/playmatatu/pinball/internal/store"
)

// SessionHistory reads durable session records
type SessionHistory interface {
	ListSessions(ctx context.Context, status string, limit int) ([]models.PhysicsSession, error)
	GetSession(ctx context.Context, sessionID string) (*models.PhysicsSession, error)
}

// SnapshotLoader reads the last stored state of a session
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, sessionID string) (*store.Snapshot, error)
}

// CreateSession builds a table from its JSON description and starts it
func CreateSession(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			session.TableDescription
			Seed *int64 `json:"seed"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid table description: " + err.Error()})
			return
		}
		s, skipped, err := mgr.Create(c.Request.Context(), &req.TableDescription, req.Seed)
		if err != nil {
			status := errorStatus(err)
			if status == http.StatusInternalServerError {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error(), "skipped": skipped})
			return
		}
		c.Header("X-Session-ID", s.ID)
		c.JSON(http.StatusCreated, gin.H{"session": s.Info(), "skipped": skipped})
	}
}

// ListSessions returns the live sessions of this server
func ListSessions(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sessions": mgr.List()})
	}
}

// SessionHistoryList returns recorded sessions, newest first
func SessionHistoryList(history SessionHistory) gin.HandlerFunc {
	return func(c *gin.Context) {
		if history == nil {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "session history not configured"})
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		recs, err := history.ListSessions(c.Request.Context(), c.Query("status"), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessions": recs})
	}
}

// GetSession returns a live session, or its record once it has finished
func GetSession(mgr *session.Manager, history SessionHistory) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		s, err := mgr.Get(id)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"live": true, "session": s.Info()})
			return
		}
		if history == nil || !errors.Is(err, session.ErrNotFound) {
			respondError(c, err)
			return
		}
		rec, err := history.GetSession(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"live": false, "session": rec})
	}
}

// DeleteSession stops a session
func DeleteSession(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := mgr.Close(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"closed": c.Param("id")})
	}
}

func PauseSession(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := mgr.Pause(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": models.SessionPaused})
	}
}

func ResumeSession(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := mgr.Resume(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": models.SessionRunning})
	}
}

// GetStates returns the full current state of a session. Finished sessions
// fall back to their last stored snapshot.
func GetStates(mgr *session.Manager, snapshots SnapshotLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		snap, err := mgr.Snapshot(id)
		if errors.Is(err, session.ErrNotFound) && snapshots != nil {
			snap, err = snapshots.LoadSnapshot(c.Request.Context(), id)
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}
