package controllers

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"geotrek_core/internal/events"
	"geotrek_core/internal/middleware"
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const writeWait = 5 * time.Second

// CascadeHub fans cascade events out to the websocket clients watching a
// structure. Clients registered under structure 0 receive every event.
type CascadeHub struct {
	clients   map[uint]map[*websocket.Conn]bool
	broadcast chan events.Event
	mu        sync.Mutex
}

// NewCascadeHub creates a hub and starts its broadcasting goroutine.
func NewCascadeHub() *CascadeHub {
	hub := &CascadeHub{
		clients:   make(map[uint]map[*websocket.Conn]bool),
		broadcast: make(chan events.Event, 100),
	}
	go hub.run()
	return hub
}

func (h *CascadeHub) run() {
	for ev := range h.broadcast {
		for _, conn := range h.subscribers(ev.StructureID) {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				logrus.WithError(err).WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("Cascade client unreachable, unregistering.")
				h.dropConn(conn)
				conn.Close()
			}
		}
	}
}

func (h *CascadeHub) subscribers(structureID uint) []*websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []*websocket.Conn
	for conn := range h.clients[0] {
		out = append(out, conn)
	}
	if structureID != 0 {
		for conn := range h.clients[structureID] {
			out = append(out, conn)
		}
	}
	return out
}

func (h *CascadeHub) dropConn(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, clients := range h.clients {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.clients, id)
		}
	}
}

// RegisterClient subscribes conn to the events of a structure.
func (h *CascadeHub) RegisterClient(structureID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[structureID]; !ok {
		h.clients[structureID] = make(map[*websocket.Conn]bool)
	}
	h.clients[structureID][conn] = true
	logrus.WithFields(logrus.Fields{
		"structure_id": structureID,
		"conn_ptr":     fmt.Sprintf("%p", conn),
	}).Info("Client registered with CascadeHub.")
}

// UnregisterClient removes a disconnected client.
func (h *CascadeHub) UnregisterClient(structureID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[structureID]; ok {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.clients, structureID)
		}
	}
	logrus.WithFields(logrus.Fields{
		"structure_id": structureID,
		"conn_ptr":     fmt.Sprintf("%p", conn),
	}).Info("Client unregistered from CascadeHub.")
}

// Clients counts the registered connections.
func (h *CascadeHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}

// Publish implements events.Publisher. Events are dropped when the
// broadcast buffer is full.
func (h *CascadeHub) Publish(ev events.Event) {
	select {
	case h.broadcast <- ev:
	default:
		logrus.WithField("type", ev.Type).Warn("Cascade broadcast channel full, dropping event.")
	}
}

var cascadeHub = NewCascadeHub()

// Hub returns the process-wide cascade hub.
func Hub() *CascadeHub { return cascadeHub }

// HandleCascadeWebSocket streams the cascade events of the requested
// structure, or of every structure when none is given, as JSON messages.
func HandleCascadeWebSocket(c *gin.Context) {
	structureID := middleware.StructureID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	cascadeHub.RegisterClient(structureID, conn)
	defer cascadeHub.UnregisterClient(structureID, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("structure_id", structureID).Info("Cascade WebSocket closed.")
			} else {
				logrus.WithError(err).WithField("structure_id", structureID).Warn("Error reading from cascade WebSocket.")
			}
			return
		}
		logrus.WithField("structure_id", structureID).Debug("Cascade client sent unexpected message. Ignoring.")
	}
}
