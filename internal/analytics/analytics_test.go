package analytics

import (
	"math"
	"reflect"
	"testing"

	"github.com/dgnsrekt/chainsignal/internal/chain"
)

func roundTripStrikes() []chain.StrikeRecord {
	return []chain.StrikeRecord{
		{StrikePrice: 2700, CallOI: 1234, PutOI: 5678, CallVolume: 100, PutVolume: 200},
		{StrikePrice: 2750, CallOI: 3456, PutOI: 2345, CallVolume: 250, PutVolume: 180},
		{StrikePrice: 2800, CallOI: 4567, PutOI: 1234, CallVolume: 300, PutVolume: 100},
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestDetectWalls_RoundTrip(t *testing.T) {
	walls := DetectWalls(roundTripStrikes(), 3)

	if walls.Support.Strike != 2700 || walls.Support.PutOI != 5678 {
		t.Errorf("expected support 2700/5678, got %+v", walls.Support)
	}
	if walls.Resistance.Strike != 2800 || walls.Resistance.CallOI != 4567 {
		t.Errorf("expected resistance 2800/4567, got %+v", walls.Resistance)
	}
	if walls.Support.Strength != 5 || walls.Resistance.Strength != 5 {
		t.Errorf("expected headline strength 5, got %d/%d", walls.Support.Strength, walls.Resistance.Strength)
	}

	wantSupport := []float64{2700, 2750, 2800}
	for i, lvl := range walls.SupportLevels {
		if lvl.Strike != wantSupport[i] {
			t.Errorf("support level %d: expected %v, got %v", i, wantSupport[i], lvl.Strike)
		}
	}
	wantResistance := []float64{2800, 2750, 2700}
	for i, lvl := range walls.ResistanceLevels {
		if lvl.Strike != wantResistance[i] {
			t.Errorf("resistance level %d: expected %v, got %v", i, wantResistance[i], lvl.Strike)
		}
	}
	// 1234/5678*5 = 1.09 -> 2
	if walls.SupportLevels[2].Strength != 2 {
		t.Errorf("expected third support level strength 2, got %d", walls.SupportLevels[2].Strength)
	}
}

func TestDetectWalls_Empty(t *testing.T) {
	walls := DetectWalls(nil, 3)

	if walls.Support != (SupportWall{}) || walls.Resistance != (ResistanceWall{}) {
		t.Errorf("expected zeroed walls, got %+v", walls)
	}
	if len(walls.SupportLevels) != 0 || len(walls.ResistanceLevels) != 0 {
		t.Errorf("expected no levels, got %+v", walls)
	}
}

func TestDetectWalls_TieKeepsLowerStrike(t *testing.T) {
	strikes := []chain.StrikeRecord{
		{StrikePrice: 110, PutOI: 500},
		{StrikePrice: 100, PutOI: 500},
	}
	walls := DetectWalls(strikes, 3)
	if walls.Support.Strike != 100 {
		t.Errorf("expected tie to resolve to 100, got %v", walls.Support.Strike)
	}
}

func TestDetectWalls_NoOpenInterest(t *testing.T) {
	walls := DetectWalls([]chain.StrikeRecord{{StrikePrice: 100, CallVolume: 5}}, 3)
	if walls.Support.Strength != 0 || walls.Resistance.Strength != 0 {
		t.Errorf("expected strength 0 without OI, got %+v", walls)
	}
}

func TestCalculatePCR_RoundTrip(t *testing.T) {
	res := CalculatePCR(roundTripStrikes(), 2750.5, DefaultConfig())

	wantOI := (5678.0 + 2345 + 1234) / (1234.0 + 3456 + 4567)
	if !almostEqual(res.OIPCR, wantOI) {
		t.Errorf("expected oi_pcr %v, got %v", wantOI, res.OIPCR)
	}
	wantVol := 480.0 / 650.0
	if !almostEqual(res.VolumePCR, wantVol) {
		t.Errorf("expected volume_pcr %v, got %v", wantVol, res.VolumePCR)
	}
	// All three strikes sit inside +/-2% of 2750.5.
	if res.Totals.ATMStrikes != 3 || !almostEqual(res.ATMPCR, wantOI) {
		t.Errorf("expected all strikes ATM, got %+v", res.Totals)
	}
	// 0.6*1.0 + 0.4*0.7385 = 0.895
	if res.Signal != Neutral {
		t.Errorf("expected NEUTRAL blend, got %s", res.Signal)
	}
}

func TestCalculatePCR_ZeroDenominator(t *testing.T) {
	res := CalculatePCR([]chain.StrikeRecord{{StrikePrice: 100, PutOI: 50, PutVolume: 10}}, 100, DefaultConfig())
	if res.OIPCR != 0 || res.VolumePCR != 0 || res.ATMPCR != 0 {
		t.Errorf("expected zero ratios, got %+v", res)
	}
	if res.Signal != Neutral {
		t.Errorf("expected NEUTRAL without call side, got %s", res.Signal)
	}
}

func TestCalculatePCR_Monotonic(t *testing.T) {
	prev := -1.0
	for put := 100.0; put <= 2000; put += 100 {
		strikes := []chain.StrikeRecord{{StrikePrice: 100, CallOI: 500, PutOI: put}}
		res := CalculatePCR(strikes, 100, DefaultConfig())
		if res.OIPCR <= prev {
			t.Fatalf("oi_pcr not strictly increasing: %v after %v", res.OIPCR, prev)
		}
		prev = res.OIPCR
	}
}

func TestClassifyPCR(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name   string
		oi     float64
		volume float64
		want   Bias
	}{
		{"bullish", 0.5, 0.5, Bullish},
		{"bearish", 1.2, 1.1, Bearish},
		{"neutral", 0.8, 0.9, Neutral},
		{"lower edge is neutral", 0.7, 0.7, Neutral},
		{"upper edge is neutral", 1.0, 1.0, Neutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyPCR(tt.oi, tt.volume, cfg); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestCalculateMaxPain_RoundTrip(t *testing.T) {
	res := CalculateMaxPain(roundTripStrikes(), 2750.5, DefaultConfig())

	if res.MaxPainStrike != 2750 {
		t.Errorf("expected max pain 2750, got %v", res.MaxPainStrike)
	}
	want := []StrikePain{
		{Strike: 2700, TotalPain: 240650},
		{Strike: 2750, TotalPain: 123400},
		{Strike: 2800, TotalPain: 296200},
	}
	if !reflect.DeepEqual(res.PainByStrike, want) {
		t.Errorf("unexpected pain table: %+v", res.PainByStrike)
	}
	if res.Signal != Neutral {
		t.Errorf("expected NEUTRAL, got %s", res.Signal)
	}
	if !almostEqual(res.DistanceFromPrice, -0.5) {
		t.Errorf("expected distance -0.5, got %v", res.DistanceFromPrice)
	}
}

func TestCalculateMaxPain_DominantStrike(t *testing.T) {
	strikes := []chain.StrikeRecord{
		{StrikePrice: 90, CallOI: 10, PutOI: 10},
		{StrikePrice: 95, CallOI: 10, PutOI: 10},
		{StrikePrice: 100, CallOI: 100000, PutOI: 100000},
		{StrikePrice: 105, CallOI: 10, PutOI: 10},
		{StrikePrice: 110, CallOI: 10, PutOI: 10},
	}
	res := CalculateMaxPain(strikes, 100, DefaultConfig())
	if res.MaxPainStrike != 100 {
		t.Errorf("expected dominant strike 100, got %v", res.MaxPainStrike)
	}
}

func TestCalculateMaxPain_TieGoesToLowestStrike(t *testing.T) {
	// Only call OI at the top strike: every settlement at or below it pays 0.
	strikes := []chain.StrikeRecord{
		{StrikePrice: 120},
		{StrikePrice: 100},
		{StrikePrice: 110, CallOI: 500},
	}
	res := CalculateMaxPain(strikes, 105, DefaultConfig())
	if res.MaxPainStrike != 100 {
		t.Errorf("expected lowest strike 100 on tie, got %v", res.MaxPainStrike)
	}
}

func TestCalculateMaxPain_Signal(t *testing.T) {
	strikes := []chain.StrikeRecord{{StrikePrice: 100, CallOI: 1, PutOI: 1}}
	cfg := DefaultConfig()

	if res := CalculateMaxPain(strikes, 95, cfg); res.Signal != Bullish {
		t.Errorf("expected BULLISH pull up, got %s (%.2f%%)", res.Signal, res.DistancePercent)
	}
	if res := CalculateMaxPain(strikes, 105, cfg); res.Signal != Bearish {
		t.Errorf("expected BEARISH pull down, got %s (%.2f%%)", res.Signal, res.DistancePercent)
	}
}

func TestCalculateMaxPain_Empty(t *testing.T) {
	res := CalculateMaxPain(nil, 100, DefaultConfig())
	if res.MaxPainStrike != 0 || res.Signal != Neutral || len(res.PainByStrike) != 0 {
		t.Errorf("expected neutral zero result, got %+v", res)
	}
}

func TestAnalyzeVolume_RoundTrip(t *testing.T) {
	va := AnalyzeVolume(roundTripStrikes(), 2750.5, DefaultConfig())

	if va.TotalVolume != 1130 {
		t.Errorf("expected total volume 1130, got %v", va.TotalVolume)
	}
	if len(va.VolumeSpikes) != 0 {
		t.Errorf("expected no spikes, got %+v", va.VolumeSpikes)
	}
	if va.ATMVolumeConcentration != 100 {
		t.Errorf("expected 100%% ATM concentration, got %v", va.ATMVolumeConcentration)
	}
	// NEUTRAL base 40 plus the ATM concentration bump.
	if va.Signal != Neutral || va.Confidence != 50 {
		t.Errorf("expected NEUTRAL/50, got %s/%v", va.Signal, va.Confidence)
	}
}

func TestAnalyzeVolume_SpikeRanking(t *testing.T) {
	strikes := []chain.StrikeRecord{
		{StrikePrice: 90, CallVolume: 10, PutVolume: 10},
		{StrikePrice: 95, CallVolume: 10, PutVolume: 10},
		{StrikePrice: 100, CallVolume: 400, PutVolume: 50},
		{StrikePrice: 105, CallVolume: 10, PutVolume: 10},
		{StrikePrice: 110, CallVolume: 10, PutVolume: 10},
		{StrikePrice: 115, CallVolume: 10, PutVolume: 10},
		{StrikePrice: 120, CallVolume: 30, PutVolume: 300},
	}
	va := AnalyzeVolume(strikes, 100, DefaultConfig())

	if len(va.VolumeSpikes) != 2 {
		t.Fatalf("expected 2 spikes, got %+v", va.VolumeSpikes)
	}
	if va.VolumeSpikes[0].Strike != 100 || va.VolumeSpikes[1].Strike != 120 {
		t.Errorf("expected spikes ranked 100, 120; got %+v", va.VolumeSpikes)
	}
	if !va.VolumeSpikes[0].IsCallDominant || !va.VolumeSpikes[0].NearPrice {
		t.Errorf("expected 100 spike to be call dominant and near price: %+v", va.VolumeSpikes[0])
	}
	if va.VolumeSpikes[1].IsCallDominant || va.VolumeSpikes[1].NearPrice {
		t.Errorf("expected 120 spike to be put dominant and far: %+v", va.VolumeSpikes[1])
	}
}

func TestAnalyzeVolume_SpikeCap(t *testing.T) {
	var strikes []chain.StrikeRecord
	for i := 0; i < 60; i++ {
		vol := 1.0
		if i%4 == 0 {
			vol = 1000 + float64(i)
		}
		strikes = append(strikes, chain.StrikeRecord{StrikePrice: float64(100 + i), CallVolume: vol})
	}
	va := AnalyzeVolume(strikes, 130, DefaultConfig())
	if len(va.VolumeSpikes) != 10 {
		t.Fatalf("expected spikes capped at 10, got %d", len(va.VolumeSpikes))
	}
	for i := 1; i < len(va.VolumeSpikes); i++ {
		if va.VolumeSpikes[i].TotalVolume > va.VolumeSpikes[i-1].TotalVolume {
			t.Fatalf("spikes not ranked descending at %d", i)
		}
	}
}

func TestAnalyzeVolume_Signals(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name    string
		strikes []chain.StrikeRecord
		price   float64
		want    Bias
		minConf float64
		maxConf float64
	}{
		{
			name:    "call heavy",
			strikes: []chain.StrikeRecord{{StrikePrice: 100, CallVolume: 1000, PutVolume: 100}, {StrikePrice: 200, CallVolume: 1000, PutVolume: 100}},
			price:   150,
			want:    Bullish, minConf: 65, maxConf: 85,
		},
		{
			name:    "put heavy",
			strikes: []chain.StrikeRecord{{StrikePrice: 100, CallVolume: 100, PutVolume: 1000}, {StrikePrice: 200, CallVolume: 100, PutVolume: 1000}},
			price:   150,
			want:    Bearish, minConf: 65, maxConf: 85,
		},
		{
			name: "near price call spike",
			strikes: []chain.StrikeRecord{
				{StrikePrice: 80, CallVolume: 50, PutVolume: 80},
				{StrikePrice: 90, CallVolume: 50, PutVolume: 80},
				{StrikePrice: 100, CallVolume: 900, PutVolume: 850},
				{StrikePrice: 110, CallVolume: 50, PutVolume: 80},
				{StrikePrice: 120, CallVolume: 50, PutVolume: 80},
			},
			price: 100,
			want:  Bullish, minConf: 55, maxConf: 70,
		},
		{
			name: "near price put spike",
			strikes: []chain.StrikeRecord{
				{StrikePrice: 80, CallVolume: 80, PutVolume: 50},
				{StrikePrice: 90, CallVolume: 80, PutVolume: 50},
				{StrikePrice: 100, CallVolume: 850, PutVolume: 900},
				{StrikePrice: 110, CallVolume: 80, PutVolume: 50},
				{StrikePrice: 120, CallVolume: 80, PutVolume: 50},
			},
			price: 100,
			want:  Bearish, minConf: 55, maxConf: 70,
		},
		{
			name:    "no call volume",
			strikes: []chain.StrikeRecord{{StrikePrice: 100, PutVolume: 100}, {StrikePrice: 300, PutVolume: 100}},
			price:   200,
			want:    Neutral, minConf: 40, maxConf: 40,
		},
		{
			name:    "balanced",
			strikes: []chain.StrikeRecord{{StrikePrice: 100, CallVolume: 100, PutVolume: 100}, {StrikePrice: 300, CallVolume: 100, PutVolume: 100}},
			price:   200,
			want:    Neutral, minConf: 40, maxConf: 50,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			va := AnalyzeVolume(tt.strikes, tt.price, cfg)
			if va.Signal != tt.want {
				t.Errorf("expected %s, got %s (pcr %.3f)", tt.want, va.Signal, va.VolumePCR)
			}
			if va.Confidence < tt.minConf || va.Confidence > tt.maxConf {
				t.Errorf("confidence %v outside [%v, %v]", va.Confidence, tt.minConf, tt.maxConf)
			}
		})
	}
}

func TestAnalyzeVolume_Empty(t *testing.T) {
	va := AnalyzeVolume(nil, 100, DefaultConfig())
	if va.Signal != Neutral || va.TotalVolume != 0 || len(va.VolumeSpikes) != 0 {
		t.Errorf("expected neutral empty analysis, got %+v", va)
	}
}

func TestVolumeConfirmation(t *testing.T) {
	bull := VolumeAnalysis{Signal: Bullish, Confidence: 80}
	neutral := VolumeAnalysis{Signal: Neutral, Confidence: 45}
	full := VolumeAnalysis{Signal: Bearish, Confidence: 100}

	if got := VolumeConfirmation(bull, Bullish); got != 8 {
		t.Errorf("expected +8 on agreement, got %v", got)
	}
	if got := VolumeConfirmation(bull, Bearish); got != -8 {
		t.Errorf("expected -8 on contradiction, got %v", got)
	}
	if got := VolumeConfirmation(bull, Neutral); got != 0 {
		t.Errorf("expected 0 for neutral preliminary, got %v", got)
	}
	if got := VolumeConfirmation(neutral, Bullish); got != 0 {
		t.Errorf("expected 0 for neutral volume, got %v", got)
	}
	if got := VolumeConfirmation(full, Bearish); got != 10 {
		t.Errorf("expected cap at 10, got %v", got)
	}
}

func TestAnalysesArePure(t *testing.T) {
	cfg := DefaultConfig()
	strikes := roundTripStrikes()

	if !reflect.DeepEqual(DetectWalls(strikes, 3), DetectWalls(strikes, 3)) {
		t.Error("DetectWalls not deterministic")
	}
	if !reflect.DeepEqual(CalculatePCR(strikes, 2750.5, cfg), CalculatePCR(strikes, 2750.5, cfg)) {
		t.Error("CalculatePCR not deterministic")
	}
	if !reflect.DeepEqual(CalculateMaxPain(strikes, 2750.5, cfg), CalculateMaxPain(strikes, 2750.5, cfg)) {
		t.Error("CalculateMaxPain not deterministic")
	}
	if !reflect.DeepEqual(AnalyzeVolume(strikes, 2750.5, cfg), AnalyzeVolume(strikes, 2750.5, cfg)) {
		t.Error("AnalyzeVolume not deterministic")
	}
	if !reflect.DeepEqual(strikes, roundTripStrikes()) {
		t.Error("input strikes were mutated")
	}
}
