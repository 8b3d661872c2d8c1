package ws

import (
	"encoding/json"
	"fmt"
)

// Subprotocols. JSON clients get text frames; zstd clients get binary frames
// holding a zstd-compressed protobuf Struct with the same fields.
const (
	ProtocolJSON = "chainsignal.json.v1"
	ProtocolZstd = "chainsignal.zstd.v1"
)

// Downstream message types.
const (
	TypeConnected = "connected"
	TypeAck       = "ack"
	TypePong      = "pong"
	TypeSignal    = "signal"
	TypeError     = "error"
)

// Upstream message types for internal routing
type (
	subscribeRequest struct {
		ticker string
		ackID  *uint64
	}
	unsubscribeRequest struct {
		ticker string
		ackID  *uint64
	}
	pingRequest struct{}
)

// upstreamMessage is the JSON shape every client sends, whatever its protocol.
type upstreamMessage struct {
	Type   string  `json:"type"`
	Ticker string  `json:"ticker"`
	AckID  *uint64 `json:"ackId,omitempty"`
}

// parseUpstreamMessage parses a JSON-encoded upstream message.
func parseUpstreamMessage(data []byte) (any, error) {
	var msg upstreamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal upstream message: %w", err)
	}

	switch msg.Type {
	case "subscribe":
		return &subscribeRequest{ticker: msg.Ticker, ackID: msg.AckID}, nil
	case "unsubscribe":
		return &unsubscribeRequest{ticker: msg.Ticker, ackID: msg.AckID}, nil
	case "ping":
		return &pingRequest{}, nil
	default:
		return nil, fmt.Errorf("unknown message type: %q", msg.Type)
	}
}

func connectedMessage(connID string) map[string]any {
	return map[string]any{
		"type":         TypeConnected,
		"connectionId": connID,
		"protocols":    []any{ProtocolJSON, ProtocolZstd},
	}
}

func ackMessage(ackID uint64, success bool, ticker string) map[string]any {
	return map[string]any{
		"type":    TypeAck,
		"ackId":   ackID,
		"success": success,
		"ticker":  ticker,
	}
}

func pongMessage() map[string]any {
	return map[string]any{"type": TypePong}
}

func errorMessage(ticker, reason string) map[string]any {
	return map[string]any{
		"type":   TypeError,
		"ticker": ticker,
		"error":  reason,
	}
}

// signalMessage wraps payload, any JSON-marshalable value, as a signal frame.
func signalMessage(ticker string, payload any) (map[string]any, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal signal payload: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal signal payload: %w", err)
	}
	return map[string]any{
		"type":   TypeSignal,
		"ticker": ticker,
		"data":   data,
	}, nil
}
