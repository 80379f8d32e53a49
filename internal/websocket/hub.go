// Package websocket fans appointment events out to connected
// dashboard clients.
package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"medpulse/internal/booking"
	"medpulse/internal/config"
	"medpulse/internal/infrastructure"
)

// Event types pushed to clients.
const (
	TypeConnected            = "connected"
	TypeAppointmentBooked    = "appointment_booked"
	TypeAppointmentCancelled = "appointment_cancelled"
)

// Message is the envelope every client receives.
type Message struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub maintains the set of active clients and broadcasts events.
type Hub struct {
	cfg      config.WebSocketConfig
	logger   *slog.Logger
	metrics  *infrastructure.Metrics
	upgrader websocket.Upgrader

	register   chan *client
	unregister chan *client
	broadcast  chan []byte

	mu      sync.RWMutex
	clients map[*client]struct{}
	quit    chan struct{}
	once    sync.Once
}

// NewHub wires a hub. metrics may be nil.
func NewHub(cfg config.WebSocketConfig, logger *slog.Logger, metrics *infrastructure.Metrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		cfg:     cfg,
		logger:  infrastructure.WithComponent(logger, "websocket.hub"),
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[*client]struct{}),
		quit:       make(chan struct{}),
	}
}

// Run processes register, unregister and broadcast events until
// Shutdown. Call it on its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			h.logger.Info("hub stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			if h.metrics != nil {
				h.metrics.WSClientConnected(c.ctx())
			}
			h.logger.Info("client connected",
				slog.String("client_id", c.id),
				slog.String("remote_addr", c.remoteAddr),
				slog.Int("active_clients", count))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			if h.metrics != nil {
				h.metrics.WSClientDisconnected(c.ctx())
			}
			h.logger.Info("client disconnected",
				slog.String("client_id", c.id),
				slog.Int("active_clients", count))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer, drop the connection.
					go func(c *client) { h.unregister <- c }(c)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Shutdown stops the hub loop and closes every client.
func (h *Hub) Shutdown() {
	h.once.Do(func() { close(h.quit) })
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast pushes one event to every client.
func (h *Hub) Broadcast(eventType string, data any) {
	raw, err := json.Marshal(Message{Type: eventType, Data: data, Timestamp: time.Now().UTC()})
	if err != nil {
		infrastructure.WithError(h.logger, err).Error("marshal broadcast")
		return
	}
	select {
	case h.broadcast <- raw:
	case <-h.quit:
	}
}

// NotifyAppointment implements booking.Notifier.
func (h *Hub) NotifyAppointment(event string, appt *booking.Appointment) {
	h.Broadcast(event, appt)
}

// ServeHTTP upgrades the request and starts the client pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		infrastructure.WithError(h.logger, err).Warn("upgrade failed",
			slog.String("remote_addr", r.RemoteAddr))
		return
	}

	c := newClient(h, conn, infrastructure.GetTraceID(r.Context()))
	h.register <- c

	go c.writePump()
	go c.readPump()

	c.sendMessage(Message{Type: TypeConnected, Timestamp: time.Now().UTC()})
}
