package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/pinball/internal/api"
	"github.com/playmatatu/pinball/internal/config"
	"github.com/playmatatu/pinball/internal/database"
	"github.com/playmatatu/pinball/internal/migrations"
	"github.com/playmatatu/pinball/internal/redis"
	"github.com/playmatatu/pinball/internal/session"
	"github.com/playmatatu/pinball/internal/store"
	"github.com/playmatatu/pinball/internal/ws"
)

func main() {
	// Initialize configuration (also loads .env)
	cfg := config.Load()
	production := cfg.Environment == "production"

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := session.Deps{}
	routes := api.Deps{Hub: ws.NewHub()}
	values := &store.Values{}

	// Initialize database
	if cfg.MigrateOnStart {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL, ""); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		if production {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		log.Printf("[DB] Unavailable (%v); sessions and values will not be recorded", err)
	} else {
		defer db.Close()
		pg := store.NewPGStore(db)
		deps.Recorder = pg
		routes.History = pg
		values.Durable = pg
	}

	// Initialize Redis
	rdb, err := redis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		if production {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		log.Printf("[REDIS] Unavailable (%v); state batches go straight to local watchers", err)
		deps.Publishers = append(deps.Publishers, routes.Hub)
	} else {
		defer rdb.Close()
		rs := store.NewRedisStore(rdb, time.Duration(cfg.SnapshotTTLMinutes)*time.Minute)
		deps.Publishers = append(deps.Publishers, rs)
		deps.Snapshots = rs
		routes.Snapshots = rs
		values.Cache = rs
		ws.StartStateSubscriber(ctx, rdb, routes.Hub)
	}
	if values.Cache != nil || values.Durable != nil {
		deps.Values = values
	}

	go routes.Hub.Run(ctx)

	routes.Manager = session.NewManager(cfg, deps)
	routes.Manager.Start(ctx)

	// Set up Gin router
	if production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, cfg, routes)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		log.Printf("Starting pinball physics server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	routes.Manager.Wait()
}
