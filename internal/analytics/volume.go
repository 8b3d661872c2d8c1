package analytics

import (
	"math"
	"sort"

	"github.com/dgnsrekt/chainsignal/internal/chain"
)

// VolumeSpike is a strike trading well above the chain's average volume.
type VolumeSpike struct {
	Strike         float64 `json:"strike"`
	CallVolume     float64 `json:"call_volume"`
	PutVolume      float64 `json:"put_volume"`
	TotalVolume    float64 `json:"total_volume"`
	Multiple       float64 `json:"multiple"`
	IsCallDominant bool    `json:"is_call_dominant"`
	NearPrice      bool    `json:"near_price"`
}

// VolumeAnalysis summarizes where and how the chain traded.
type VolumeAnalysis struct {
	TotalCallVolume        float64       `json:"total_call_volume"`
	TotalPutVolume         float64       `json:"total_put_volume"`
	TotalVolume            float64       `json:"total_volume"`
	AvgCallVolume          float64       `json:"avg_call_volume"`
	AvgPutVolume           float64       `json:"avg_put_volume"`
	VolumePCR              float64       `json:"volume_pcr"`
	AvgVolumePerStrike     float64       `json:"avg_volume_per_strike"`
	VolumeSpikes           []VolumeSpike `json:"volume_spikes"`
	ATMVolume              float64       `json:"atm_volume"`
	ATMVolumeConcentration float64       `json:"atm_volume_concentration"`
	Signal                 Bias          `json:"signal"`
	Confidence             float64       `json:"confidence"`
}

// AnalyzeVolume computes volume totals, spikes, ATM concentration and a
// directional read with a 0-100 confidence.
func AnalyzeVolume(strikes []chain.StrikeRecord, currentPrice float64, cfg Config) VolumeAnalysis {
	va := VolumeAnalysis{
		VolumeSpikes: []VolumeSpike{},
		Signal:       Neutral,
	}
	if len(strikes) == 0 {
		va.Confidence = 40
		return va
	}

	for _, s := range strikes {
		va.TotalCallVolume += s.CallVolume
		va.TotalPutVolume += s.PutVolume
		if withinBand(s.StrikePrice, currentPrice, cfg.ATMBandPercent) {
			va.ATMVolume += s.TotalVolume()
		}
	}

	n := float64(len(strikes))
	va.TotalVolume = va.TotalCallVolume + va.TotalPutVolume
	va.AvgCallVolume = va.TotalCallVolume / n
	va.AvgPutVolume = va.TotalPutVolume / n
	va.AvgVolumePerStrike = va.TotalVolume / n
	va.VolumePCR = ratio(va.TotalPutVolume, va.TotalCallVolume)
	va.ATMVolumeConcentration = ratio(va.ATMVolume, va.TotalVolume) * 100
	va.VolumeSpikes = detectSpikes(strikes, currentPrice, va.AvgVolumePerStrike, cfg)

	va.Signal, va.Confidence = volumeSignal(va, cfg)
	if va.ATMVolumeConcentration > cfg.ATMConcentrationHigh {
		va.Confidence = math.Min(100, va.Confidence+cfg.ATMConcentrationBump)
	}
	return va
}

func detectSpikes(strikes []chain.StrikeRecord, currentPrice, avg float64, cfg Config) []VolumeSpike {
	spikes := []VolumeSpike{}
	if avg <= 0 {
		return spikes
	}

	threshold := cfg.SpikeMultiplier * avg
	for _, s := range strikes {
		total := s.TotalVolume()
		if total <= threshold {
			continue
		}
		spikes = append(spikes, VolumeSpike{
			Strike:         s.StrikePrice,
			CallVolume:     s.CallVolume,
			PutVolume:      s.PutVolume,
			TotalVolume:    total,
			Multiple:       total / avg,
			IsCallDominant: s.CallVolume > s.PutVolume,
			NearPrice:      withinBand(s.StrikePrice, currentPrice, cfg.NearPricePercent),
		})
	}

	sort.SliceStable(spikes, func(i, j int) bool {
		return spikes[i].TotalVolume > spikes[j].TotalVolume
	})
	if len(spikes) > cfg.MaxSpikes {
		spikes = spikes[:cfg.MaxSpikes]
	}
	return spikes
}

// volumeSignal applies the rules in order; the first match wins.
func volumeSignal(va VolumeAnalysis, cfg Config) (Bias, float64) {
	// The ratio rules need a call side to divide by.
	if va.TotalCallVolume > 0 {
		pcr := va.VolumePCR
		if pcr < cfg.VolumeBullishBelow {
			return Bullish, 65 + math.Min(20, (cfg.VolumeBullishBelow-pcr)/cfg.VolumeBullishBelow*20)
		}
		if pcr > cfg.VolumeBearishAbove {
			return Bearish, 65 + math.Min(20, (pcr-cfg.VolumeBearishAbove)/cfg.VolumeBearishAbove*20)
		}
	}

	var calls, puts int
	for _, s := range va.VolumeSpikes {
		if !s.NearPrice {
			continue
		}
		if s.IsCallDominant {
			calls++
		} else {
			puts++
		}
	}

	if calls > 0 && float64(calls) >= cfg.SpikeDominance*float64(puts) {
		return Bullish, 55 + math.Min(15, float64(calls-puts)*5)
	}
	if puts > 0 && float64(puts) >= cfg.SpikeDominance*float64(calls) {
		return Bearish, 55 + math.Min(15, float64(puts-calls)*5)
	}

	return Neutral, 40 + math.Min(10, float64(len(va.VolumeSpikes))*2)
}

// VolumeConfirmation scores how the volume read agrees with a preliminary
// direction: agreement adds up to +10, contradiction subtracts up to 10, and
// neutrality on either side yields 0.
func VolumeConfirmation(va VolumeAnalysis, preliminary Bias) float64 {
	if va.Signal == Neutral || preliminary == Neutral || preliminary == "" {
		return 0
	}
	weight := math.Min(10, va.Confidence/10)
	if va.Signal == preliminary {
		return weight
	}
	return -weight
}
