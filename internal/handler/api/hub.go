package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"FolioPull/internal/domain/models"
	applogger "FolioPull/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// StatesMessage is pushed to websocket clients.
type StatesMessage struct {
	Type   string               `json:"type"`
	States []models.EntityState `json:"states"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans entity state updates out to connected websocket clients. A client
// whose buffer is full is dropped.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *applogger.Logger

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

func NewHub(l *applogger.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  l,
		clients: make(map[*wsClient]struct{}),
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends states to every client.
func (h *Hub) Broadcast(states []models.EntityState) {
	b, err := encodeStates(states)
	if err != nil {
		h.logger.Error("encode states", applogger.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			h.logger.Warn("ws client too slow, dropping", applogger.String("remote", c.conn.RemoteAddr().String()))
			h.drop(c)
		}
	}
}

// Serve upgrades the request and sends initial before any broadcast.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, initial []models.EntityState) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}
	if b, err := encodeStates(initial); err == nil {
		c.send <- b
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("ws client connected", applogger.String("remote", conn.RemoteAddr().String()))

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.drop(c)
	}
}

// drop must be called with mu held.
func (h *Hub) drop(c *wsClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	h.drop(c)
	h.mu.Unlock()
}

// readPump discards client messages and detects disconnects.
func (h *Hub) readPump(c *wsClient) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case b, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encodeStates(states []models.EntityState) ([]byte, error) {
	if states == nil {
		states = []models.EntityState{}
	}
	return json.Marshal(StatesMessage{Type: "states", States: states})
}
