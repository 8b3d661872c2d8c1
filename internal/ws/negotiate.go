package ws

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// NegotiateResponse tells a client where to connect and how to talk.
type NegotiateResponse struct {
	WebsocketURL string   `json:"websocket_url"`
	Protocols    []string `json:"protocols"`
	Tickers      []string `json:"tickers,omitempty"`
}

// NegotiateHandler handles the /ws/negotiate endpoint.
type NegotiateHandler struct {
	tickers func() []string
	logger  *zap.Logger
}

// NewNegotiateHandler creates a new NegotiateHandler. tickers lists the
// tickers with data and may be nil.
func NewNegotiateHandler(tickers func() []string, logger *zap.Logger) *NegotiateHandler {
	return &NegotiateHandler{tickers: tickers, logger: logger}
}

// HandleNegotiate handles GET /ws/negotiate.
func (h *NegotiateHandler) HandleNegotiate(w http.ResponseWriter, r *http.Request) {
	scheme := "ws"
	if r.TLS != nil {
		scheme = "wss"
	}

	response := NegotiateResponse{
		WebsocketURL: fmt.Sprintf("%s://%s/ws/signals", scheme, r.Host),
		Protocols:    []string{ProtocolJSON, ProtocolZstd},
	}
	if h.tickers != nil {
		response.Tickers = h.tickers()
	}

	h.logger.Debug("negotiate successful", zap.String("remote_addr", r.RemoteAddr))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode negotiate response", zap.Error(err))
	}
}
