package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgnsrekt/chainsignal/internal/batch"
	"github.com/dgnsrekt/chainsignal/internal/scoring"
)

// FormatSignalMessage creates a signal alert body.
func FormatSignalMessage(sig *scoring.TradingSignal) string {
	var sb strings.Builder

	sb.WriteString(sig.Summary)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Price: %.2f  VWAP: %.2f\n", sig.KeyLevels.CurrentPrice, sig.KeyLevels.VWAP))
	sb.WriteString(fmt.Sprintf("Support: %.2f  Resistance: %.2f\n", sig.KeyLevels.Support, sig.KeyLevels.Resistance))
	sb.WriteString(fmt.Sprintf("Max pain: %.2f", sig.KeyLevels.MaxPain))

	for _, f := range sig.Factors.Positive {
		sb.WriteString("\n+ " + f)
	}
	for _, f := range sig.Factors.Negative {
		sb.WriteString("\n- " + f)
	}

	return sb.String()
}

// FormatScanMessage creates a scan summary body.
func FormatScanMessage(result *batch.BatchResult, duration time.Duration) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Total: %d tickers\n", result.Total))
	sb.WriteString(fmt.Sprintf("Success: %d\n", result.Success))
	sb.WriteString(fmt.Sprintf("Not Found: %d\n", result.NotFound))
	sb.WriteString(fmt.Sprintf("Failed: %d\n", result.Failed))
	sb.WriteString(fmt.Sprintf("Duration: %s", duration.Round(time.Second)))

	for _, a := range result.Results {
		sb.WriteString(fmt.Sprintf("\n%s %s %.1f", a.Ticker, a.Signal.Signal, a.Signal.Score))
	}

	// Include first 3 error messages if available
	if len(result.Errors) > 0 {
		sb.WriteString("\n\nErrors:\n")
		limit := 3
		if len(result.Errors) < limit {
			limit = len(result.Errors)
		}
		for i := 0; i < limit; i++ {
			sb.WriteString(fmt.Sprintf("- %s\n", result.Errors[i]))
		}
		if len(result.Errors) > 3 {
			sb.WriteString(fmt.Sprintf("... and %d more errors", len(result.Errors)-3))
		}
	}

	return sb.String()
}
