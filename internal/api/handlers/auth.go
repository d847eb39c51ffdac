package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/playmatatu/pinball/internal/config"
	"github.com/playmatatu/pinball/internal/middleware"
)

// IssueToken exchanges the operator key for a short-lived JWT
func IssueToken(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Key string `json:"key" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "key required"})
			return
		}
		if cfg.APIKeyHash == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "operator key not configured"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(cfg.APIKeyHash), []byte(req.Key)); err != nil {
			log.Printf("[API] Rejected operator key from %s", c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid key"})
			return
		}

		ttl := time.Duration(cfg.TokenTTLMinutes) * time.Minute
		signed, exp, err := middleware.IssueToken(cfg.JWTSecret, "operator", ttl)
		if err != nil {
			log.Printf("[API] Failed to sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": signed, "expires_at": exp.Format(time.RFC3339)})
	}
}
