package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"waterq/internal/infrastructure"
	"waterq/pkg/contracts/events"
)

// Outbound messages queue here before the run loop fans them out. A full
// queue drops the message rather than stalling the producer.
const broadcastBuffer = 64

// Hub maintains the set of active clients and fans broadcast messages out
// to them. The most recent build snapshot is retained and replayed to
// every newly registered client, so late joiners see the current build
// state without waiting for the next transition.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound messages to fan out
	broadcast chan []byte

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for thread-safe operations
	mu sync.RWMutex

	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	// Replayed to new clients; nil until the first snapshot broadcast.
	lastSnapshot []byte

	// Counters
	totalConnections int64
	messagesSent     int64
	droppedMessages  int64

	// Control
	quit        chan struct{}
	running     bool
	metricsQuit chan struct{}
}

// NewHub creates a new Hub instance. metrics may be nil when telemetry
// is not initialized; recording is a no-op then.
func NewHub(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "websocket.hub"))

	return &Hub{
		broadcast:   make(chan []byte, broadcastBuffer),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		clients:     make(map[*Client]bool),
		logger:      logger,
		metrics:     metrics,
		quit:        make(chan struct{}),
		metricsQuit: make(chan struct{}),
	}
}

// Start starts the hub's goroutines
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
	go h.reportMetrics()
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.totalConnections++
			snapshot := h.lastSnapshot
			h.mu.Unlock()

			ctx := client.ctx()
			h.logger.InfoContext(ctx, "client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))
			h.metrics.RecordWSConnection(ctx, 1)

			h.deliver(client, h.greeting(client))
			if snapshot != nil {
				h.deliver(client, snapshot)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				count := len(h.clients)
				h.mu.Unlock()

				ctx := client.ctx()
				h.logger.InfoContext(ctx, "client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
				h.metrics.RecordWSConnection(ctx, -1)
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

// fanOut copies the client set, then sends without holding the lock. A
// client whose buffer is full is disconnected; a reader that slow will
// not catch up.
func (h *Hub) fanOut(message []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	sent := 0
	for _, client := range clients {
		select {
		case client.send <- message:
			sent++
		default:
			h.mu.Lock()
			close(client.send)
			delete(h.clients, client)
			h.mu.Unlock()

			ctx := client.ctx()
			h.logger.WarnContext(ctx, "client send buffer full, disconnecting",
				slog.String("client_id", client.id))
			h.metrics.RecordWSConnection(ctx, -1)
		}
	}

	h.mu.Lock()
	h.messagesSent += int64(sent)
	h.mu.Unlock()
	h.metrics.RecordWSMessages(context.Background(), int64(sent))

	if sent < len(clients) {
		h.logger.Warn("some clients missed a broadcast",
			slog.Int("sent", sent),
			slog.Int("clients", len(clients)))
	}
}

// Broadcast envelopes data and queues it for every connected client.
// Build snapshots are additionally retained for replay to new clients.
func (h *Hub) Broadcast(msgType events.MessageType, data interface{}) {
	msg := events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			Type:      msgType,
			Timestamp: time.Now().UTC(),
		},
		Data: data,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast message",
			slog.String("error", err.Error()),
			slog.String("message_type", string(msgType)))
		return
	}

	if msgType == events.MessageTypeBuildSnapshot {
		h.mu.Lock()
		h.lastSnapshot = payload
		h.mu.Unlock()
	}

	select {
	case h.broadcast <- payload:
	default:
		h.mu.Lock()
		h.droppedMessages++
		h.mu.Unlock()
		h.logger.Warn("broadcast queue full, dropping message",
			slog.String("message_type", string(msgType)))
	}
}

// greeting builds the connect acknowledgment for a fresh client.
func (h *Hub) greeting(client *Client) []byte {
	msg := events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			Type:      events.MessageTypeConnect,
			Timestamp: time.Now().UTC(),
			TraceID:   client.traceID,
		},
		Data: map[string]interface{}{
			"status":    "connected",
			"client_id": client.id,
		},
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal greeting", slog.String("error", err.Error()))
		return nil
	}
	return payload
}

// deliver queues one message to a single client without blocking the run
// loop.
func (h *Hub) deliver(client *Client, payload []byte) {
	if payload == nil {
		return
	}
	select {
	case client.send <- payload:
	default:
		h.logger.WarnContext(client.ctx(), "delivery skipped, client buffer full",
			slog.String("client_id", client.id))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop gracefully stops the hub
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	close(h.metricsQuit)

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// reportMetrics periodically logs hub counters
func (h *Hub) reportMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.metricsQuit:
			return

		case <-ticker.C:
			h.mu.RLock()
			activeClients := len(h.clients)
			sent := h.messagesSent
			dropped := h.droppedMessages
			h.mu.RUnlock()

			h.logger.Info("websocket hub metrics",
				slog.Int("active_clients", activeClients),
				slog.Int64("messages_sent", sent),
				slog.Int64("dropped_messages", dropped),
				slog.Int("broadcast_queue", len(h.broadcast)))
		}
	}
}

// Stats returns a point-in-time view of hub counters.
func (h *Hub) Stats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"active_clients":    len(h.clients),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
		"dropped_messages":  h.droppedMessages,
	}
}
