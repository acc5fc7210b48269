package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"dealership/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event types pushed to back-office sockets.
const (
	EventApplicationSubmitted     = "application.submitted"
	EventApplicationStatusChanged = "application.status_changed"
	EventPaymentSubmitted         = "payment.submitted"
	EventPaymentReviewed          = "payment.reviewed"
	EventSupportCreated           = "support.created"
)

// Event is the JSON frame written to every client.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	At   time.Time   `json:"at"`
}

// Client represents a single connected WebSocket client
type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	Session middleware.Session
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	log        *zap.Logger
	upgrader   websocket.Upgrader
}

// NewHub builds a hub accepting browser connections from allowedOrigins.
// An empty list accepts any origin.
func NewHub(log *zap.Logger, allowedOrigins []string) *Hub {
	h := &Hub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		log:        log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, o := range allowedOrigins {
				if o == origin {
					return true
				}
			}
			return false
		},
	}
	return h
}

// Publish queues an event for every connected client. It never blocks; the
// event is dropped when the queue is full.
func (h *Hub) Publish(eventType string, data interface{}) {
	msg, err := json.Marshal(Event{Type: eventType, Data: data, At: time.Now().UTC()})
	if err != nil {
		h.log.Warn("websocket event encode failed", zap.String("type", eventType), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn("websocket broadcast queue full, event dropped", zap.String("type", eventType))
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Run starts the core dispatch loop for WebSocket events. It returns when
// stop is closed.
func (h *Hub) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug("websocket client connected", zap.String("user", client.Session.Email))
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.log.Debug("websocket client disconnected", zap.String("user", client.Session.Email))
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump drains the connection so close frames are seen.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		_ = c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
	}
}

// TokenVerifier turns a session token into a Session.
type TokenVerifier interface {
	Verify(token string) (middleware.Session, error)
}

// ServeWs upgrades a back-office request authenticated by the token query
// parameter.
func ServeWs(hub *Hub, c *gin.Context, verifier TokenVerifier, roles ...string) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	session, err := verifier.Verify(tokenString)
	if err != nil {
		hub.log.Info("websocket connection rejected", zap.Error(err))
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if !session.HasRole(roles...) {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	conn, err := hub.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 256), Session: session}
	hub.register <- client

	go client.writePump()
	go client.readPump()
}
