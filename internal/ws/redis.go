package ws

import (
	"context"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/playmatatu/pinball/internal/store"
)

// StartStateSubscriber relays state batches published on Redis by any
// server instance to the local watchers of their session.
func StartStateSubscriber(ctx context.Context, rdb *redis.Client, h *Hub) {
	if rdb == nil {
		log.Println("[WS] Redis client not set; state subscriber not started")
		return
	}

	pattern := store.StateChannel("*")
	pubsub := rdb.PSubscribe(ctx, pattern)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[WS] %s subscriber started", pattern)
		for msg := range ch {
			sessionID := strings.TrimPrefix(msg.Channel, store.StateChannel(""))
			if h.Watchers(sessionID) == 0 {
				continue
			}
			snap, err := store.DecodeSnapshot([]byte(msg.Payload))
			if err != nil {
				log.Printf("[WS] invalid state batch on %s: %v", msg.Channel, err)
				continue
			}
			h.BroadcastToSession(sessionID, statesMessage("states", snap))
		}
		log.Println("[WS] state subscriber stopped")
	}()
}
