package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/arty021/bad-modems/internal/report"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = livePongWait * 9 / 10
	liveSendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// liveUpdate tells open dashboards that a city has a new result.
type liveUpdate struct {
	Type      string      `json:"type"`
	City      report.City `json:"city"`
	Timestamp time.Time   `json:"timestamp"`
}

type liveClient struct {
	conn *websocket.Conn
	send chan []byte
}

// liveHub fans result updates out to every connected dashboard. Clients that
// fall behind are disconnected.
type liveHub struct {
	mu      sync.Mutex
	clients map[*liveClient]struct{}
	log     *zap.Logger
}

func newLiveHub(log *zap.Logger) *liveHub {
	return &liveHub{clients: make(map[*liveClient]struct{}), log: log}
}

func (h *liveHub) handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.log.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		client := &liveClient{conn: conn, send: make(chan []byte, liveSendBuffer)}
		h.add(client)
		go h.writeLoop(client)
		h.readLoop(client)
	}
}

func (h *liveHub) add(client *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *liveHub) remove(client *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *liveHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// readLoop drains the connection so pongs and close frames are processed.
func (h *liveHub) readLoop(client *liveClient) {
	defer h.remove(client)
	client.conn.SetReadLimit(512)
	_ = client.conn.SetReadDeadline(time.Now().Add(livePongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(livePongWait))
	})
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *liveHub) writeLoop(client *liveClient) {
	ticker := time.NewTicker(livePingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *liveHub) broadcast(city report.City, at time.Time) {
	msg, err := json.Marshal(liveUpdate{Type: "result_updated", City: city, Timestamp: at.UTC()})
	if err != nil {
		h.log.Error("encode live update", zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

func (h *liveHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}
