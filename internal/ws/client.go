package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024

	// Send buffer size per client.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
	Subprotocols:    []string{ProtocolZstd, ProtocolJSON},
}

// Client represents a WebSocket client connection.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	connID   string
	groups   map[string]bool
	logger   *zap.Logger
	protocol string
	closed   bool // guarded by hub.mu
}

// HandleSignalsWS upgrades the request and registers the client. Tickers in
// the comma separated "tickers" query parameter are subscribed immediately.
func (h *Hub) HandleSignalsWS(w http.ResponseWriter, r *http.Request) {
	connID := uuid.New().String()

	// Upgrader picks the first server protocol the client offered.
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	protocol := conn.Subprotocol()
	if protocol == "" {
		protocol = ProtocolJSON
	}

	h.logger.Debug("websocket subprotocol negotiated",
		zap.String("protocol", protocol),
		zap.Strings("requested", websocket.Subprotocols(r)),
	)

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		connID:   connID,
		groups:   make(map[string]bool),
		logger:   h.logger,
		protocol: protocol,
	}

	h.register <- client
	client.queue(connectedMessage(connID))

	for _, ticker := range strings.Split(r.URL.Query().Get("tickers"), ",") {
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		if ticker == "" {
			continue
		}
		if h.Allowed(ticker) {
			h.JoinGroup(client, ticker)
		} else {
			client.queue(errorMessage(ticker, "unknown ticker"))
		}
	}

	// Start read/write pumps
	go client.writePump()
	go client.readPump()
}

// readPump reads messages from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
			}
			break
		}
		c.handleMessage(message)
	}
}

// writePump writes messages to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	msgType := websocket.TextMessage
	if c.protocol == ProtocolZstd {
		msgType = websocket.BinaryMessage
	}

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed, send close message
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(msgType, message); err != nil {
				c.logger.Debug("websocket write error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming upstream message.
func (c *Client) handleMessage(data []byte) {
	msg, err := parseUpstreamMessage(data)
	if err != nil {
		c.logger.Debug("failed to parse upstream message",
			zap.String("connID", c.connID),
			zap.Error(err),
		)
		c.queue(errorMessage("", err.Error()))
		return
	}

	switch m := msg.(type) {
	case *subscribeRequest:
		ticker := strings.ToUpper(m.ticker)
		ok := c.hub.Allowed(ticker)
		if ok {
			c.hub.JoinGroup(c, ticker)
		} else {
			c.logger.Debug("invalid ticker",
				zap.String("connID", c.connID),
				zap.String("ticker", m.ticker),
			)
		}
		if m.ackID != nil {
			c.queue(ackMessage(*m.ackID, ok, ticker))
		}

	case *unsubscribeRequest:
		ticker := strings.ToUpper(m.ticker)
		c.hub.LeaveGroup(c, ticker)
		if m.ackID != nil {
			c.queue(ackMessage(*m.ackID, true, ticker))
		}

	case *pingRequest:
		c.queue(pongMessage())
	}
}

// queue encodes msg in the client's protocol and enqueues it without blocking.
func (c *Client) queue(msg map[string]any) {
	data, err := c.hub.encodeFor(c.protocol, msg)
	if err != nil {
		c.logger.Debug("failed to encode message", zap.String("connID", c.connID), zap.Error(err))
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Debug("send buffer full, dropping message", zap.String("connID", c.connID))
	}
}

// closeSend closes the send channel once. The caller must hold hub.mu.
func (c *Client) closeSend() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
