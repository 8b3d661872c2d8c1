package ws

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/dgnsrekt/chainsignal/internal/metrics"
)

// Hub manages WebSocket connections and ticker subscriptions.
type Hub struct {
	name       string
	clients    map[*Client]bool
	groups     map[string]map[*Client]bool // ticker -> clients
	register   chan *Client
	unregister chan *Client
	encoder    *Encoder
	allow      func(ticker string) bool
	metrics    *metrics.Metrics
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewHub creates a new Hub. allow filters subscribable tickers; nil allows all.
func NewHub(name string, allow func(string) bool, m *metrics.Metrics, logger *zap.Logger) (*Hub, error) {
	enc, err := NewEncoder()
	if err != nil {
		return nil, err
	}
	return &Hub{
		name:       name,
		clients:    make(map[*Client]bool),
		groups:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		encoder:    enc,
		allow:      allow,
		metrics:    m,
		logger:     logger,
	}, nil
}

// Run processes hub events. Call this in a goroutine.
// Returns when context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("hub shutting down", zap.String("hub", h.name))
			h.shutdown()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.ClientConnected()
			h.logger.Debug("client registered",
				zap.String("hub", h.name),
				zap.String("connID", client.connID),
				zap.String("protocol", client.protocol),
			)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				// Remove from all groups
				for group := range client.groups {
					if clients, ok := h.groups[group]; ok {
						delete(clients, client)
						if len(clients) == 0 {
							delete(h.groups, group)
						}
					}
				}
				client.closeSend()
				h.metrics.ClientDisconnected()
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered",
				zap.String("hub", h.name),
				zap.String("connID", client.connID),
			)
		}
	}
}

// shutdown gracefully closes all client connections.
func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.closeSend()
		delete(h.clients, client)
		h.metrics.ClientDisconnected()
	}
	h.groups = make(map[string]map[*Client]bool)
	h.encoder.Close()
}

// Allowed reports whether ticker may be subscribed.
func (h *Hub) Allowed(ticker string) bool {
	if ticker == "" {
		return false
	}
	return h.allow == nil || h.allow(ticker)
}

// JoinGroup subscribes a client to a ticker.
func (h *Hub) JoinGroup(client *Client, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.groups[group] == nil {
		h.groups[group] = make(map[*Client]bool)
	}
	h.groups[group][client] = true
	client.groups[group] = true

	h.logger.Debug("client joined group",
		zap.String("hub", h.name),
		zap.String("connID", client.connID),
		zap.String("group", group),
	)
}

// LeaveGroup unsubscribes a client from a ticker.
func (h *Hub) LeaveGroup(client *Client, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.groups[group]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.groups, group)
		}
	}
	delete(client.groups, group)

	h.logger.Debug("client left group",
		zap.String("hub", h.name),
		zap.String("connID", client.connID),
		zap.String("group", group),
	)
}

// GetActiveGroups returns all tickers with at least one subscriber, sorted.
func (h *Hub) GetActiveGroups() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var groups []string
	for group, clients := range h.groups {
		if len(clients) > 0 {
			groups = append(groups, group)
		}
	}
	sort.Strings(groups)
	return groups
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends msg to all clients subscribed to group, each in its own
// protocol. It returns the number of clients the message was queued for.
func (h *Hub) Broadcast(group string, msg map[string]any) int {
	h.mu.RLock()
	_, ok := h.groups[group]
	h.mu.RUnlock()
	if !ok {
		return 0
	}

	frame, err := h.encoder.Encode(msg)
	if err != nil {
		h.metrics.RecordError("ws", "encode")
		h.logger.Warn("failed to encode broadcast", zap.String("group", group), zap.Error(err))
		return 0
	}

	// Sends hold the read lock; send channels are closed under the write lock.
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for client := range h.groups[group] {
		if client.closed {
			continue
		}
		select {
		case client.send <- frame.For(client.protocol):
			sent++
		default:
			// Buffer full, schedule disconnect
			go func(c *Client) {
				h.unregister <- c
			}(client)
		}
	}
	return sent
}

// encodeFor renders a control message for a single protocol.
func (h *Hub) encodeFor(protocol string, msg map[string]any) ([]byte, error) {
	if protocol == ProtocolZstd {
		return h.encoder.EncodeBinary(msg)
	}
	return json.Marshal(msg)
}
