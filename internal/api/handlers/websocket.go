package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/playmatatu/pinball/internal/session"
	"github.com/playmatatu/pinball/internal/ws"
)

// HandleSessionWebSocket streams a session's state batches
func HandleSessionWebSocket(hub *ws.Hub, mgr *session.Manager) gin.HandlerFunc {
	return hub.HandleWebSocket(mgr)
}
