package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/pinball/internal/session"
)

const valueTimeout = 3 * time.Second

// PutValue stores a script value for the session's table
func PutValue(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Value any `json:"value"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "value required"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), valueTimeout)
		defer cancel()
		key := c.Param("key")
		if err := mgr.SaveValue(ctx, c.Param("id"), key, req.Value); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"key": key, "value": req.Value})
	}
}

// GetValue reads a stored script value for the session's table
func GetValue(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), valueTimeout)
		defer cancel()
		key := c.Param("key")
		v, err := mgr.LoadValue(ctx, c.Param("id"), key)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"key": key, "value": v})
	}
}
