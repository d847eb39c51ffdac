package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/playmatatu/pinball/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// Sessions is what the hub needs from the session manager.
type Sessions interface {
	Snapshot(id string) (*store.Snapshot, error)
	Call(id, elem, cmd string, args []any) (any, error)
}

// Client is one websocket watcher of a session
type Client struct {
	id        uint64
	conn      *websocket.Conn
	sessionID string
	send      chan []byte
}

// Hub fans state batches out to the watchers of each session
type Hub struct {
	rooms      map[string]map[uint64]*Client // sessionID -> client id -> Client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	nextID     atomic.Uint64
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[uint64]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves register and unregister requests until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case c := <-h.register:
			h.add(c)
			log.Printf("[WS] Watcher %d joined session %s", c.id, c.sessionID)
		case c := <-h.unregister:
			if h.remove(c) {
				log.Printf("[WS] Watcher %d left session %s", c.id, c.sessionID)
			}
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.sessionID]
	if !ok {
		room = make(map[uint64]*Client)
		h.rooms[c.sessionID] = room
	}
	room[c.id] = c
}

func (h *Hub) remove(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.sessionID]
	if !ok {
		return false
	}
	if _, ok := room[c.id]; !ok {
		return false
	}
	delete(room, c.id)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, c.sessionID)
	}
	return true
}

// closeAll drops every watcher connection; their pumps exit on the
// resulting read and write errors.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		for _, c := range room {
			if c.conn != nil {
				c.conn.Close()
			}
		}
		delete(h.rooms, id)
	}
}

// Watchers returns the number of clients watching a session.
func (h *Hub) Watchers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

// BroadcastToSession sends a message to every watcher of a session
func (h *Hub) BroadcastToSession(sessionID string, message any) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.rooms[sessionID] {
		select {
		case c.send <- data:
		default:
			// watcher is too slow; it will catch up on the next batch
			log.Printf("[WS] Send buffer full for watcher %d of %s, dropping batch", c.id, sessionID)
		}
	}
}

// PublishStates delivers a batch straight to local watchers.
func (h *Hub) PublishStates(ctx context.Context, s *store.Snapshot) error {
	h.BroadcastToSession(s.SessionID, statesMessage("states", s))
	return nil
}

func statesMessage(kind string, s *store.Snapshot) gin.H {
	msg := gin.H{
		"type":        kind,
		"session_id":  s.SessionID,
		"sim_time_ms": s.SimTimeMs,
		"states":      s.States,
	}
	if len(s.Events) > 0 {
		msg["events"] = s.Events
	}
	return msg
}

// Message is a request from a watcher
type Message struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data"`
}

type callData struct {
	Element string `json:"element"`
	Command string `json:"command"`
	Args    []any  `json:"args"`
}

// HandleWebSocket upgrades the request and streams the session's state
// batches, starting with a full snapshot.
func (h *Hub) HandleWebSocket(sessions Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("id")
		snap, err := sessions.Snapshot(sessionID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		client := &Client{
			id:        h.nextID.Add(1),
			conn:      conn,
			sessionID: sessionID,
			send:      make(chan []byte, 256),
		}
		if data, err := json.Marshal(statesMessage("snapshot", snap)); err == nil {
			client.send <- data
		}

		select {
		case h.register <- client:
		case <-h.done:
			conn.Close()
			return
		}
		go client.writePump()
		go client.readPump(h, sessions)
	}
}

// handle answers one watcher request.
func (c *Client) handle(sessions Sessions, msg Message) any {
	switch msg.Type {
	case "ping":
		return gin.H{"type": "pong", "id": msg.ID}
	case "call":
		var d callData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return gin.H{"type": "error", "id": msg.ID, "message": "invalid call data"}
		}
		v, err := sessions.Call(c.sessionID, d.Element, d.Command, d.Args)
		if err != nil {
			return gin.H{"type": "error", "id": msg.ID, "message": err.Error()}
		}
		return gin.H{"type": "result", "id": msg.ID, "value": v}
	default:
		return gin.H{"type": "error", "id": msg.ID, "message": "unknown message type: " + msg.Type}
	}
}

func (c *Client) reply(message any) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling reply: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("[WS] Reply dropped for watcher %d (buffer full)", c.id)
	}
}

func (c *Client) readPump(h *Hub, sessions Sessions) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Unexpected close for watcher %d: %v", c.id, err)
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.reply(gin.H{"type": "error", "message": "invalid message format"})
			continue
		}
		c.reply(c.handle(sessions, msg))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] Write error for watcher %d: %v", c.id, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping error for watcher %d: %v", c.id, err)
				return
			}
		}
	}
}
