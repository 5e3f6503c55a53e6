package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/oculusai/console/internal/domain/ports"
	"github.com/oculusai/console/internal/domain/services"
	"github.com/oculusai/console/internal/pkg/constants"
	"github.com/oculusai/console/internal/pkg/httputil"
	"github.com/oculusai/console/internal/pkg/logutil"
)

// SessionLookup resolves the session a client wants to follow
type SessionLookup interface {
	Get(id string) (*services.Session, error)
}

// Hub fans session events out to the websocket clients watching each session
type Hub struct {
	rooms     map[string]map[*Client]struct{} // session_id -> clients
	clientsMu sync.RWMutex
	messaging ports.MessagingPort
	sessions  SessionLookup
	upgrader  websocket.Upgrader
	logger    *logutil.Logger
}

// Client represents a WebSocket client connection
type Client struct {
	id        string
	conn      *websocket.Conn
	sessionID string
	send      chan []byte
	hub       *Hub
}

// Message types for WebSocket communication
const (
	MessageTypeConnected = "connection_established"
	MessageTypeEvent     = "event"
	MessageTypeError     = "error"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
)

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	ClientID  string          `json:"client_id,omitempty"`
	Event     string          `json:"event,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewHub creates a new WebSocket hub
func NewHub(messaging ports.MessagingPort, sessions SessionLookup, logger *logutil.Logger) *Hub {
	if logger == nil {
		logger = logutil.NewDefaultLogger()
	}
	return &Hub{
		rooms:     make(map[string]map[*Client]struct{}),
		messaging: messaging,
		sessions:  sessions,
		logger:    logger,
		upgrader: websocket.Upgrader{
			// the console is served from any origin during demos
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Start subscribes the hub to every session event
func (h *Hub) Start(ctx context.Context) error {
	if err := h.messaging.Subscribe(ctx, ports.SubjectAllSessionEvents, h.handleSessionEvent); err != nil {
		return err
	}

	h.logger.Info("WebSocket hub started and listening for session events")
	return nil
}

// HandleWebSocket upgrades HTTP connections to WebSocket
func (h *Hub) HandleWebSocket(c *gin.Context) {
	sessionID, err := httputil.RequiredQueryParam(c, "session_id")
	if err != nil {
		// browsers cannot set headers on the upgrade, other clients may
		if sessionID = c.GetHeader(constants.HeaderSessionID); sessionID == "" {
			httputil.BadRequestError(c, err)
			return
		}
	}
	if _, err := h.sessions.Get(sessionID); err != nil {
		httputil.NotFoundError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", logutil.Fields{"error": err.Error()})
		return
	}

	client := &Client{
		id:        uuid.NewString(),
		conn:      conn,
		sessionID: sessionID,
		send:      make(chan []byte, constants.WebSocketSendBuffer),
		hub:       h,
	}
	h.addClient(client)

	client.sendMessage(WebSocketMessage{
		Type:      MessageTypeConnected,
		SessionID: sessionID,
		ClientID:  client.id,
		Timestamp: time.Now(),
	})

	go client.writePump()
	go client.readPump()
}

func (h *Hub) addClient(client *Client) {
	h.clientsMu.Lock()
	room, ok := h.rooms[client.sessionID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[client.sessionID] = room
	}
	room[client] = struct{}{}
	h.clientsMu.Unlock()

	h.logger.Debug("WebSocket client connected", logutil.Fields{
		"client_id":  client.id,
		"session_id": client.sessionID,
	})
}

// handleSessionEvent forwards one published event to the session's room
func (h *Hub) handleSessionEvent(ctx context.Context, subject string, data []byte) error {
	sessionID, event, ok := ports.SessionIDFromSubject(subject)
	if !ok {
		return nil
	}

	msgBytes, err := json.Marshal(WebSocketMessage{
		Type:      MessageTypeEvent,
		SessionID: sessionID,
		Event:     event,
		Data:      json.RawMessage(data),
		Timestamp: time.Now(),
	})
	if err != nil {
		return err
	}

	h.deliver(sessionID, msgBytes)

	if event == eventSessionClosed {
		h.closeRoom(sessionID)
	}
	return nil
}

// eventSessionClosed is the subject suffix of ports.SubjectSessionClosed
const eventSessionClosed = "closed"

// deliver queues msg for every client in the room; clients with a full buffer are dropped
func (h *Hub) deliver(sessionID string, msg []byte) {
	var slow []*Client

	h.clientsMu.RLock()
	for client := range h.rooms[sessionID] {
		select {
		case client.send <- msg:
		default:
			slow = append(slow, client)
		}
	}
	h.clientsMu.RUnlock()

	for _, client := range slow {
		h.removeClient(client)
	}
}

// removeClient removes a client from the hub; repeated calls are no-ops
func (h *Hub) removeClient(client *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	room, ok := h.rooms[client.sessionID]
	if !ok {
		return
	}
	if _, ok := room[client]; !ok {
		return
	}

	close(client.send)
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, client.sessionID)
	}

	h.logger.Debug("WebSocket client disconnected", logutil.Fields{
		"client_id":  client.id,
		"session_id": client.sessionID,
	})
}

func (h *Hub) closeRoom(sessionID string) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.rooms[sessionID]))
	for client := range h.rooms[sessionID] {
		clients = append(clients, client)
	}
	h.clientsMu.RUnlock()

	for _, client := range clients {
		h.removeClient(client)
	}
}

// GetConnectionCount returns the number of active WebSocket connections
func (h *Hub) GetConnectionCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	total := 0
	for _, room := range h.rooms {
		total += len(room)
	}
	return total
}

// GetStats returns connection statistics per session
func (h *Hub) GetStats() map[string]interface{} {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	total := 0
	roomStats := make(map[string]int, len(h.rooms))
	for sessionID, clients := range h.rooms {
		roomStats[sessionID] = len(clients)
		total += len(clients)
	}

	return map[string]interface{}{
		"total_connections": total,
		"sessions":          roomStats,
		"timestamp":         time.Now(),
	}
}

// readPump reads client pings until the connection drops
func (c *Client) readPump() {
	defer func() {
		c.hub.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(constants.WebSocketMaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(constants.WebSocketPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(constants.WebSocketPongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("WebSocket read failed", logutil.Fields{"client_id": c.id, "error": err.Error()})
			}
			return
		}

		var wsMsg WebSocketMessage
		if err := json.Unmarshal(message, &wsMsg); err != nil {
			c.sendMessage(WebSocketMessage{
				Type:      MessageTypeError,
				Data:      json.RawMessage(`"malformed message"`),
				Timestamp: time.Now(),
			})
			continue
		}

		switch wsMsg.Type {
		case MessageTypePing:
			c.sendMessage(WebSocketMessage{
				Type:      MessageTypePong,
				SessionID: c.sessionID,
				ClientID:  c.id,
				Timestamp: time.Now(),
			})
		default:
			c.hub.logger.Debug("Ignoring WebSocket message", logutil.Fields{"type": wsMsg.Type})
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(constants.WebSocketPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(constants.WebSocketWriteWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(constants.WebSocketWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendMessage queues a message for this client only
func (c *Client) sendMessage(message WebSocketMessage) {
	msgBytes, err := json.Marshal(message)
	if err != nil {
		c.hub.logger.Error("Failed to marshal client message", logutil.Fields{"error": err.Error()})
		return
	}

	c.hub.clientsMu.RLock()
	_, live := c.hub.rooms[c.sessionID][c]
	queued := false
	if live {
		select {
		case c.send <- msgBytes:
			queued = true
		default:
		}
	}
	c.hub.clientsMu.RUnlock()

	if live && !queued {
		c.hub.removeClient(c)
	}
}
