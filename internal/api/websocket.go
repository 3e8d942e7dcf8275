package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/xhyuo/pancancer-clustering/pkg/models"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for local dashboard
	},
}

// Hub fans progress messages out to every connected WebSocket client.
// Registration, removal, and broadcast all flow through channels consumed by
// a single goroutine, so the client set needs no locking.
type Hub struct {
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 256),
	}
}

// Run owns the client set. Dead connections are dropped on the first failed
// write; the write deadline keeps a stalled client from wedging the loop.
func (h *Hub) Run() {
	clients := make(map[*websocket.Conn]struct{})
	for {
		select {
		case conn := <-h.register:
			clients[conn] = struct{}{}
			log.Printf("WebSocket client connected. Total clients: %d", len(clients))
		case conn := <-h.unregister:
			if _, ok := clients[conn]; ok {
				delete(clients, conn)
				conn.Close()
				log.Printf("WebSocket client disconnected. Total clients: %d", len(clients))
			}
		case msg := <-h.broadcast:
			for conn := range clients {
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					log.Printf("Websocket write error: %v", err)
					conn.Close()
					delete(clients, conn)
				}
			}
		}
	}
}

// Subscribe upgrades the request and parks a reader that exists only to
// notice the client going away.
func (h *Hub) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket: %v", err)
		return
	}
	h.register <- conn

	go func() {
		defer func() { h.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("WebSocket error: %v", err)
				}
				return
			}
		}
	}()
}

// Broadcast queues raw bytes for delivery to every client.
func (h *Hub) Broadcast(data []byte) {
	h.broadcast <- data
}

// BroadcastEvent marshals a progress event and queues it. The buffered
// channel keeps slow subscribers from blocking the fitting goroutines.
func (h *Hub) BroadcastEvent(ev models.ProgressEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Failed to marshal progress event: %v", err)
		return
	}
	h.broadcast <- payload
}
