package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"kpianalyzer/internal/catalog"
	"kpianalyzer/internal/infrastructure"
	"kpianalyzer/pkg/contracts/events"
)

// broadcastBuffer is how many messages may wait for the hub loop
const broadcastBuffer = 64

// ErrHubSaturated is returned when a broadcast cannot be queued
var ErrHubSaturated = errors.New("websocket hub queue is full")

// outbound is one encoded message waiting for the hub loop
type outbound struct {
	msgType string
	data    []byte
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients map[*Client]bool

	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	running bool
	quit    chan struct{}
	done    chan struct{}

	upgrader   websocket.Upgrader
	origins    []string
	pingPeriod time.Duration
	pongWait   time.Duration
	metrics    *HubMetrics
	logger     *slog.Logger
}

// HubOptions configures a Hub.
type HubOptions struct {
	// AllowedOrigins lists browser origins accepted on upgrade. "*" accepts
	// any origin; requests without an Origin header are always accepted.
	AllowedOrigins []string
	Metrics        *HubMetrics

	ReadBufferSize  int
	WriteBufferSize int
	// PingPeriod must be shorter than PongWait; invalid pairs fall back to
	// the defaults.
	PingPeriod time.Duration
	PongWait   time.Duration
}

// NewHub creates a new Hub instance
func NewHub(opts HubOptions, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		origins:    append([]string(nil), opts.AllowedOrigins...),
		pingPeriod: opts.PingPeriod,
		pongWait:   opts.PongWait,
		metrics:    opts.Metrics,
		logger:     logger.With(slog.String("component", "websocket.hub")),
	}
	if h.pongWait <= 0 || h.pingPeriod <= 0 || h.pingPeriod >= h.pongWait {
		h.pingPeriod, h.pongWait = defaultPingPeriod, defaultPongWait
	}
	if opts.ReadBufferSize <= 0 {
		opts.ReadBufferSize = 1024
	}
	if opts.WriteBufferSize <= 0 {
		opts.WriteBufferSize = 1024
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  opts.ReadBufferSize,
		WriteBufferSize: opts.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Start runs the hub loop in the background. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.run()
}

// Stop ends the hub loop and closes every client.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}

func (h *Hub) run() {
	defer close(h.done)
	ctx := context.Background()

	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			h.metrics.recordConnect(ctx)
			h.logger.InfoContext(client.context(), "client registered",
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("total_clients", count))
			h.greet(client)

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			if ok {
				h.metrics.recordDisconnect(ctx, time.Since(client.connectedAt))
				h.logger.InfoContext(client.context(), "client unregistered",
					slog.String("client_id", client.id),
					slog.Int("total_clients", count),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			}

		case msg := <-h.broadcast:
			h.fanOut(ctx, msg)
		}
	}
}

// fanOut delivers msg to every client. Clients whose buffer is full are
// disconnected rather than allowed to stall the others.
func (h *Hub) fanOut(ctx context.Context, msg outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sent, dropped := 0, 0
	for client := range h.clients {
		select {
		case client.send <- msg.data:
			sent++
		default:
			dropped++
			close(client.send)
			delete(h.clients, client)
			h.logger.WarnContext(client.context(), "client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}

	h.metrics.recordSent(ctx, msg.msgType, sent)
	h.metrics.recordDropped(ctx, dropped)
	h.logger.Debug("message broadcast",
		slog.String("type", msg.msgType),
		slog.Int("clients", sent),
		slog.Int("payload_size", len(msg.data)))
}

func (h *Hub) greet(client *Client) {
	data, err := encode(events.MessageTypeConnect, events.ConnectData{Status: "connected", ClientID: client.id}, client.traceID)
	if err != nil {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues a message for every connected client. It never blocks;
// ErrHubSaturated is returned when the queue is full.
func (h *Hub) Broadcast(msgType events.MessageType, payload any, traceID string) error {
	data, err := encode(msgType, payload, traceID)
	if err != nil {
		h.logger.Error("failed to encode message",
			slog.String("type", string(msgType)),
			slog.String("error", err.Error()))
		return err
	}

	select {
	case h.broadcast <- outbound{msgType: string(msgType), data: data}:
		return nil
	default:
		h.metrics.recordDropped(context.Background(), 1)
		h.logger.Warn("broadcast dropped, hub queue full", slog.String("type", string(msgType)))
		return ErrHubSaturated
	}
}

// OnStoreChange forwards catalog store changes to clients. It is meant to be
// passed to catalog.Store.Subscribe.
func (h *Hub) OnStoreChange(change catalog.Change) {
	msgType := events.MessageTypeCatalogChanged
	if change.Kind == catalog.ChangeSelection {
		msgType = events.MessageTypeSelectionChanged
	}
	_ = h.Broadcast(msgType, events.CatalogData{
		Agencies:  change.Agencies,
		KPIs:      change.KPIs,
		Periods:   change.Periods,
		Selection: change.Selection,
	}, "")
}

// ServeHTTP upgrades the request and attaches a client to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("origin", r.Header.Get("Origin")),
			slog.String("error", err.Error()))
		return
	}

	client := NewClient(h, NewConnectionWrapper(conn), infrastructure.GetTraceID(r.Context()), h.logger)
	h.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(h.origins, "*") || slices.Contains(h.origins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err == nil && u.Host == r.Host {
		return true
	}
	h.logger.WarnContext(r.Context(), "websocket origin not allowed",
		slog.String("origin", origin),
		slog.Any("allowed_origins", h.origins))
	return false
}

func encode(msgType events.MessageType, payload any, traceID string) ([]byte, error) {
	return json.Marshal(events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			Type:      msgType,
			Timestamp: time.Now().UTC(),
			TraceID:   traceID,
		},
		Data: payload,
	})
}
