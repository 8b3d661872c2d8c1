package engine

import (
	"fmt"

	"github.com/dgnsrekt/chainsignal/internal/indicators"
	"github.com/dgnsrekt/chainsignal/internal/scoring"
)

// warnings is the safety layer: technical conditions that argue against
// acting on the signal. The score itself is never changed here.
func warnings(a Analysis) []string {
	out := []string{}
	if len(a.Snapshot.Strikes) == 0 {
		out = append(out, "option chain is empty, signal reflects defaults only")
	}

	ti := a.Technical
	if ti == nil {
		return out
	}
	sig := a.Signal.Signal

	if sig == scoring.Buy && ti.RSISignal == indicators.Overbought {
		out = append(out, fmt.Sprintf("RSI %.1f is overbought against a BUY signal", ti.RSI))
	}
	if sig == scoring.Sell && ti.RSISignal == indicators.Oversold {
		out = append(out, fmt.Sprintf("RSI %.1f is oversold against a SELL signal", ti.RSI))
	}
	if sig == scoring.Buy && ti.Trend == indicators.TrendBearish {
		out = append(out, "BUY signal runs against a bearish moving average trend")
	}
	if sig == scoring.Sell && ti.Trend == indicators.TrendBullish {
		out = append(out, "SELL signal runs against a bullish moving average trend")
	}
	if ti.Volatility == indicators.VolatilityHigh {
		out = append(out, fmt.Sprintf("high volatility: ATR is %.2f%% of price, suggested stop %.2f", ti.ATRPercent, ti.SuggestedSL))
	}
	if a.SyntheticSeries {
		out = append(out, "technical indicators were computed on a synthetic price series")
	}
	return out
}
