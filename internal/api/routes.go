package api

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/pinball/internal/api/handlers"
	"github.com/playmatatu/pinball/internal/config"
	"github.com/playmatatu/pinball/internal/middleware"
	"github.com/playmatatu/pinball/internal/session"
	"github.com/playmatatu/pinball/internal/ws"
)

// Deps are the services the routes are served from. History and Snapshots
// may be nil.
type Deps struct {
	Manager   *session.Manager
	Hub       *ws.Hub
	History   handlers.SessionHistory
	Snapshots handlers.SnapshotLoader
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, cfg *config.Config, deps Deps) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	mgr := deps.Manager

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(mgr))
		v1.POST("/auth/token", handlers.IssueToken(cfg))

		sessions := v1.Group("/sessions")
		sessions.Use(middleware.AuthMiddleware(cfg))
		{
			sessions.POST("", handlers.CreateSession(mgr))
			sessions.GET("", handlers.ListSessions(mgr))
			sessions.GET("/history", handlers.SessionHistoryList(deps.History))
			sessions.GET("/:id", handlers.GetSession(mgr, deps.History))
			sessions.DELETE("/:id", handlers.DeleteSession(mgr))
			sessions.POST("/:id/pause", handlers.PauseSession(mgr))
			sessions.POST("/:id/resume", handlers.ResumeSession(mgr))
			sessions.GET("/:id/states", handlers.GetStates(mgr, deps.Snapshots))

			sessions.GET("/:id/table", handlers.GetTableParams(mgr))
			sessions.PUT("/:id/table", handlers.SetTableParams(mgr))

			sessions.GET("/:id/elements", handlers.ListElements(mgr))
			sessions.GET("/:id/elements/:name", handlers.GetElement(mgr))
			sessions.PUT("/:id/elements/:name/props", handlers.SetElementProps(mgr))
			sessions.POST("/:id/elements/:name/:command", handlers.CallElement(mgr))

			sessions.GET("/:id/balls", handlers.ListBalls(mgr))
			sessions.POST("/:id/balls", handlers.CreateBall(mgr))
			sessions.PUT("/:id/balls/:ball", handlers.UpdateBall(mgr))
			sessions.DELETE("/:id/balls/:ball", handlers.DeleteBall(mgr))

			sessions.GET("/:id/values/:key", handlers.GetValue(mgr))
			sessions.PUT("/:id/values/:key", handlers.PutValue(mgr))

			sessions.GET("/:id/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandleSessionWebSocket(deps.Hub, mgr))
		}
	}
}
