package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dgnsrekt/chainsignal/internal/batch"
	"github.com/dgnsrekt/chainsignal/internal/cache"
	"github.com/dgnsrekt/chainsignal/internal/engine"
	"github.com/dgnsrekt/chainsignal/internal/metrics"
	"github.com/dgnsrekt/chainsignal/internal/scoring"
)

type mockAnalyzer struct {
	mu     sync.Mutex
	calls  int
	signal scoring.TradingSignal
	err    error
}

func (m *mockAnalyzer) AnalyzeTicker(ctx context.Context, ticker, expiry string) (*engine.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &engine.Analysis{ID: "a-" + ticker, Ticker: ticker, Signal: m.signal}, nil
}

type mockNotifier struct {
	signals []string
}

func (m *mockNotifier) SendSignal(ctx context.Context, ticker string, sig *scoring.TradingSignal) (bool, error) {
	m.signals = append(m.signals, ticker+" "+string(sig.Signal))
	return true, nil
}

func (m *mockNotifier) SendScan(ctx context.Context, result *batch.BatchResult, date string, duration time.Duration) error {
	return nil
}

type fixedClock bool

func (c fixedClock) IsOpen(time.Time) bool { return bool(c) }

func startHub(t *testing.T, allow func(string) bool) (*Hub, *httptest.Server) {
	t.Helper()
	hub, err := NewHub("signals", allow, metrics.New(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.HandleSignalsWS))
	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, query, protocol string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/" + query
	dialer := websocket.Dialer{Subprotocols: []string{protocol}}
	conn, resp, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if got := resp.Header.Get("Sec-WebSocket-Protocol"); got != protocol {
		t.Fatalf("expected protocol %s, got %q", protocol, got)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if msgType != websocket.TextMessage {
		t.Fatalf("expected text frame, got %d", msgType)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	return msg
}

func waitForGroups(t *testing.T, hub *Hub, want []string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if reflect.DeepEqual(hub.GetActiveGroups(), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected groups %v, got %v", want, hub.GetActiveGroups())
}

func TestHub_JSONProtocol(t *testing.T) {
	allow := func(ticker string) bool { return ticker != "NOPE" }
	hub, server := startHub(t, allow)
	conn := dial(t, server, "?tickers=gc", ProtocolJSON)

	if msg := readJSON(t, conn); msg["type"] != TypeConnected || msg["connectionId"] == "" {
		t.Fatalf("expected connected message, got %v", msg)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe","ticker":"spx","ackId":1}`)); err != nil {
		t.Fatal(err)
	}
	ack := readJSON(t, conn)
	if ack["type"] != TypeAck || ack["ackId"] != float64(1) || ack["success"] != true || ack["ticker"] != "SPX" {
		t.Fatalf("unexpected ack %v", ack)
	}

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe","ticker":"NOPE","ackId":2}`))
	if ack := readJSON(t, conn); ack["success"] != false {
		t.Fatalf("expected rejected subscription, got %v", ack)
	}

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`))
	if msg := readJSON(t, conn); msg["type"] != TypePong {
		t.Fatalf("expected pong, got %v", msg)
	}

	waitForGroups(t, hub, []string{"GC", "SPX"})

	analyzer := &mockAnalyzer{signal: scoring.TradingSignal{Signal: scoring.Buy, Score: 62}}
	NewStreamer(hub, analyzer, time.Second, StreamerOptions{}, zap.NewNop()).broadcastNext(context.Background())

	for _, want := range []string{"GC", "SPX"} {
		msg := readJSON(t, conn)
		if msg["type"] != TypeSignal || msg["ticker"] != want {
			t.Fatalf("expected %s signal, got %v", want, msg)
		}
		data := msg["data"].(map[string]any)
		sig := data["signal"].(map[string]any)
		if sig["signal"] != "BUY" || sig["score"] != float64(62) {
			t.Errorf("unexpected signal payload %v", sig)
		}
	}

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"unsubscribe","ticker":"GC","ackId":3}`))
	readJSON(t, conn)
	waitForGroups(t, hub, []string{"SPX"})
}

func TestHub_ZstdProtocol(t *testing.T) {
	_, server := startHub(t, nil)
	conn := dial(t, server, "", ProtocolZstd)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if msgType != websocket.BinaryMessage {
		t.Fatalf("expected binary frame, got %d", msgType)
	}
	msg, err := DecodeBinary(frame)
	if err != nil {
		t.Fatal(err)
	}
	if msg["type"] != TypeConnected {
		t.Errorf("expected connected message, got %v", msg)
	}
}

func TestEncoder(t *testing.T) {
	enc, err := NewEncoder()
	if err != nil {
		t.Fatal(err)
	}
	defer enc.Close()

	msg, err := signalMessage("GC", scoring.TradingSignal{Signal: scoring.Sell, Score: 40, Breakdown: []scoring.BreakdownEntry{{Rule: "base", Delta: 50}}})
	if err != nil {
		t.Fatal(err)
	}
	frame, err := enc.Encode(msg)
	if err != nil {
		t.Fatal(err)
	}

	var fromText map[string]any
	if err := json.Unmarshal(frame.For(ProtocolJSON), &fromText); err != nil {
		t.Fatal(err)
	}
	fromBinary, err := DecodeBinary(frame.For(ProtocolZstd))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(fromText, fromBinary) {
		t.Errorf("protocols disagree:\n text %v\n binary %v", fromText, fromBinary)
	}

	if _, err := DecodeBinary([]byte("not zstd")); err == nil {
		t.Error("expected error for garbage frame")
	}
}

func TestParseUpstreamMessage(t *testing.T) {
	tests := []struct {
		in      string
		want    any
		wantErr bool
	}{
		{`{"type":"subscribe","ticker":"GC"}`, &subscribeRequest{ticker: "GC"}, false},
		{`{"type":"unsubscribe","ticker":"GC"}`, &unsubscribeRequest{ticker: "GC"}, false},
		{`{"type":"ping"}`, &pingRequest{}, false},
		{`{"type":"shout"}`, nil, true},
		{`not json`, nil, true},
	}
	for _, tt := range tests {
		got, err := parseUpstreamMessage([]byte(tt.in))
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: got %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestStreamer_PublishAndNotify(t *testing.T) {
	hub, server := startHub(t, nil)
	dial(t, server, "?tickers=GC", ProtocolJSON)
	waitForGroups(t, hub, []string{"GC"})

	analyzer := &mockAnalyzer{signal: scoring.TradingSignal{Signal: scoring.Buy, Strength: scoring.Strong, Score: 80}}
	store := cache.NewMemoryStore(0)
	notifier := &mockNotifier{}
	s := NewStreamer(hub, analyzer, time.Second, StreamerOptions{Store: store, Notifier: notifier}, zap.NewNop())

	ctx := context.Background()
	s.broadcastNext(ctx)
	s.broadcastNext(ctx)

	if len(notifier.signals) != 1 {
		t.Errorf("expected one notification for an unchanged signal, got %v", notifier.signals)
	}

	analyzer.signal = scoring.TradingSignal{Signal: scoring.Sell, Strength: scoring.Strong, Score: 20}
	s.broadcastNext(ctx)
	if len(notifier.signals) != 2 || notifier.signals[1] != "GC SELL" {
		t.Errorf("expected notification on signal change, got %v", notifier.signals)
	}

	entry, err := store.Get(ctx, "GC")
	if err != nil || entry == nil || entry.Signal.Score != 20 {
		t.Errorf("expected latest signal cached, got %+v %v", entry, err)
	}
}

func TestStreamer_SessionClosed(t *testing.T) {
	hub, server := startHub(t, nil)
	dial(t, server, "?tickers=GC", ProtocolJSON)
	waitForGroups(t, hub, []string{"GC"})

	analyzer := &mockAnalyzer{}
	s := NewStreamer(hub, analyzer, time.Second, StreamerOptions{Session: fixedClock(false)}, zap.NewNop())
	s.broadcastNext(context.Background())

	if analyzer.calls != 0 {
		t.Errorf("expected no analysis outside the session, got %d calls", analyzer.calls)
	}
}

func TestStreamer_AnalysisError(t *testing.T) {
	hub, server := startHub(t, nil)
	conn := dial(t, server, "?tickers=GC", ProtocolJSON)
	readJSON(t, conn) // connected
	waitForGroups(t, hub, []string{"GC"})

	analyzer := &mockAnalyzer{err: errors.New("no chain")}
	NewStreamer(hub, analyzer, time.Second, StreamerOptions{}, zap.NewNop()).broadcastNext(context.Background())

	msg := readJSON(t, conn)
	if msg["type"] != TypeError || msg["error"] != "no chain" {
		t.Errorf("expected error frame, got %v", msg)
	}
}

func TestNegotiate(t *testing.T) {
	h := NewNegotiateHandler(func() []string { return []string{"GC"} }, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "http://example.com/ws/negotiate", nil)
	rec := httptest.NewRecorder()
	h.HandleNegotiate(rec, req)

	var resp NegotiateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.WebsocketURL != "ws://example.com/ws/signals" || len(resp.Protocols) != 2 || resp.Tickers[0] != "GC" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestHub_BroadcastDuringDisconnect(t *testing.T) {
	hub, _ := startHub(t, nil)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				hub.Broadcast("GC", map[string]any{"type": "signal", "ticker": "GC"})
			}
		}
	}()

	for i := 0; i < 100; i++ {
		client := &Client{
			hub:      hub,
			send:     make(chan []byte, sendBufferSize),
			groups:   make(map[string]bool),
			logger:   zap.NewNop(),
			protocol: ProtocolJSON,
		}
		hub.register <- client
		hub.JoinGroup(client, "GC")
		hub.unregister <- client
		// Queueing after the hub closed the channel must be a no-op.
		client.queue(pongMessage())
	}
	close(stop)
	wg.Wait()

	waitForGroups(t, hub, nil)
	if n := hub.Broadcast("GC", map[string]any{"type": "signal"}); n != 0 {
		t.Errorf("expected no recipients after disconnect, got %d", n)
	}
	if n := hub.ClientCount(); n != 0 {
		t.Errorf("expected 0 clients, got %d", n)
	}
}
