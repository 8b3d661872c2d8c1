package analytics

import "github.com/dgnsrekt/chainsignal/internal/chain"

// PCRTotals are the sums behind the put/call ratios.
type PCRTotals struct {
	PutOI      float64 `json:"put_oi"`
	CallOI     float64 `json:"call_oi"`
	PutVolume  float64 `json:"put_volume"`
	CallVolume float64 `json:"call_volume"`
	ATMPutOI   float64 `json:"atm_put_oi"`
	ATMCallOI  float64 `json:"atm_call_oi"`
	ATMStrikes int     `json:"atm_strikes"`
}

// PCRResult holds the put/call ratios and their blended classification.
type PCRResult struct {
	OIPCR     float64   `json:"oi_pcr"`
	VolumePCR float64   `json:"volume_pcr"`
	ATMPCR    float64   `json:"atm_pcr"`
	Signal    Bias      `json:"signal"`
	Totals    PCRTotals `json:"totals"`
}

// CalculatePCR computes OI, volume and at-the-money put/call ratios.
// A ratio with a zero call denominator is 0.
func CalculatePCR(strikes []chain.StrikeRecord, currentPrice float64, cfg Config) PCRResult {
	var t PCRTotals
	for _, s := range strikes {
		t.PutOI += s.PutOI
		t.CallOI += s.CallOI
		t.PutVolume += s.PutVolume
		t.CallVolume += s.CallVolume

		if withinBand(s.StrikePrice, currentPrice, cfg.ATMBandPercent) {
			t.ATMPutOI += s.PutOI
			t.ATMCallOI += s.CallOI
			t.ATMStrikes++
		}
	}

	res := PCRResult{
		OIPCR:     ratio(t.PutOI, t.CallOI),
		VolumePCR: ratio(t.PutVolume, t.CallVolume),
		ATMPCR:    ratio(t.ATMPutOI, t.ATMCallOI),
		Totals:    t,
	}
	// Without any call side both ratios are forced to 0, which says nothing.
	if t.CallOI == 0 && t.CallVolume == 0 {
		res.Signal = Neutral
		return res
	}
	res.Signal = ClassifyPCR(res.OIPCR, res.VolumePCR, cfg)
	return res
}

// ClassifyPCR blends the OI and volume ratios and maps the blend to a bias.
func ClassifyPCR(oiPCR, volumePCR float64, cfg Config) Bias {
	avg := cfg.PCROIWeight*oiPCR + cfg.PCRVolumeWeight*volumePCR
	switch {
	case avg < cfg.PCRBullishBelow:
		return Bullish
	case avg > cfg.PCRBearishAbove:
		return Bearish
	default:
		return Neutral
	}
}
