package scoring

import (
	"fmt"
	"strings"

	"github.com/dgnsrekt/chainsignal/internal/analytics"
)

// reason is a one-line justification built from the factors that agree with
// the signal.
func reason(sig TradingSignal) string {
	switch sig.Signal {
	case Buy:
		if len(sig.Factors.Positive) == 0 {
			return "score above neutral band"
		}
		return strings.Join(sig.Factors.Positive, "; ")
	case Sell:
		if len(sig.Factors.Negative) == 0 {
			return "score below neutral band"
		}
		return strings.Join(sig.Factors.Negative, "; ")
	default:
		return fmt.Sprintf("mixed factors: %d bullish, %d bearish", len(sig.Factors.Positive), len(sig.Factors.Negative))
	}
}

// summarize renders the analysis as a short paragraph. Output depends only on
// its inputs.
func summarize(in Input, sig TradingSignal) string {
	var b strings.Builder

	label := string(sig.Signal)
	if sig.Strength != "" && sig.Strength != Normal {
		label = string(sig.Strength) + " " + label
	}
	fmt.Fprintf(&b, "%s at score %.1f (%s).", label, sig.Score, sig.Sentiment)

	if in.Snapshot.VWAP > 0 {
		fmt.Fprintf(&b, " Price %.2f is %s the strike VWAP of %.2f.",
			in.Snapshot.CurrentPrice, relation(in.Snapshot.CurrentPrice, in.Snapshot.VWAP), in.Snapshot.VWAP)
	}
	if in.Walls.Support.Strength > 0 && in.Walls.Resistance.Strength > 0 {
		fmt.Fprintf(&b, " Put wall at %.0f and call wall at %.0f frame the range.",
			in.Walls.Support.Strike, in.Walls.Resistance.Strike)
	}
	if len(in.MaxPain.PainByStrike) > 0 {
		fmt.Fprintf(&b, " Max pain sits at %.0f (%+.2f%% from price).", in.MaxPain.MaxPainStrike, in.MaxPain.DistancePercent)
	}
	fmt.Fprintf(&b, " OI PCR %.2f, volume PCR %.2f.", in.PCR.OIPCR, in.PCR.VolumePCR)
	fmt.Fprintf(&b, " Volume reads %s with %.0f%% confidence", lower(in.Volume.Signal), in.Volume.Confidence)
	if n := len(in.Volume.VolumeSpikes); n > 0 {
		fmt.Fprintf(&b, " and %d spike", n)
		if n > 1 {
			b.WriteString("s")
		}
	}
	b.WriteString(".")

	if len(sig.Factors.Positive) > 0 {
		fmt.Fprintf(&b, " Supporting: %s.", strings.Join(sig.Factors.Positive, "; "))
	}
	if len(sig.Factors.Negative) > 0 {
		fmt.Fprintf(&b, " Against: %s.", strings.Join(sig.Factors.Negative, "; "))
	}
	return b.String()
}

func relation(a, b float64) string {
	switch {
	case a > b:
		return "above"
	case a < b:
		return "below"
	default:
		return "at"
	}
}

func lower(b analytics.Bias) string {
	if b == "" {
		return "neutral"
	}
	return strings.ToLower(string(b))
}
