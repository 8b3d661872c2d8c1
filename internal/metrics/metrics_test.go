package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAnalysis(t *testing.T) {
	m := New()

	m.RecordAnalysis("SPX", "BUY", 72.5, 3.2, false)
	m.RecordAnalysis("SPX", "BUY", 80, 2.1, true)

	if got := testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("SPX", "BUY")); got != 2 {
		t.Errorf("expected 2 analyses, got %v", got)
	}
	if got := testutil.ToFloat64(m.SignalScore.WithLabelValues("SPX")); got != 80 {
		t.Errorf("expected last score 80, got %v", got)
	}
	if got := testutil.ToFloat64(m.SyntheticSeries); got != 1 {
		t.Errorf("expected 1 synthetic analysis, got %v", got)
	}
}

func TestNewDoesNotCollide(t *testing.T) {
	// Each instance owns its registry, so repeated construction is safe.
	a := New()
	b := New()
	a.RecordError("pricefeed", "timeout")
	if got := testutil.ToFloat64(b.ErrorsTotal.WithLabelValues("pricefeed", "timeout")); got != 0 {
		t.Errorf("expected independent registries, got %v", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.RecordAnalysis("SPX", "SELL", 30, 1, true)
	m.RecordError("engine", "x")
	m.ClientConnected()
	m.ClientDisconnected()
	m.RecordNotification()
	if m.Registry() != nil {
		t.Error("expected nil registry")
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordAnalysis("NDX", "NEUTRAL", 50, 1, false)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `chainsignal_analyses_total{signal="NEUTRAL",ticker="NDX"} 1`) {
		t.Errorf("expected analysis counter in exposition, got:\n%s", body)
	}
}
