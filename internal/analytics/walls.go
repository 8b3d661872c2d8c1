package analytics

import (
	"math"
	"sort"

	"github.com/dgnsrekt/chainsignal/internal/chain"
)

// SupportWall is a put open interest concentration.
type SupportWall struct {
	Strike   float64 `json:"strike"`
	PutOI    float64 `json:"put_oi"`
	Strength int     `json:"strength"`
}

// ResistanceWall is a call open interest concentration.
type ResistanceWall struct {
	Strike   float64 `json:"strike"`
	CallOI   float64 `json:"call_oi"`
	Strength int     `json:"strength"`
}

// LiquidityWalls holds the strongest walls and the ranked levels on each side.
type LiquidityWalls struct {
	Support          SupportWall      `json:"support"`
	Resistance       ResistanceWall   `json:"resistance"`
	SupportLevels    []SupportWall    `json:"support_levels"`
	ResistanceLevels []ResistanceWall `json:"resistance_levels"`
}

// DetectWalls picks the highest put OI strike as support and the highest
// call OI strike as resistance. Equal OI keeps the lower strike first.
//
// The headline strength is scaled against the side maximum, which is the
// wall itself, so it is 5 whenever the side has any open interest.
func DetectWalls(strikes []chain.StrikeRecord, levels int) LiquidityWalls {
	walls := LiquidityWalls{
		SupportLevels:    []SupportWall{},
		ResistanceLevels: []ResistanceWall{},
	}
	if len(strikes) == 0 {
		return walls
	}

	byPut := sortedBy(strikes, func(s chain.StrikeRecord) float64 { return s.PutOI })
	byCall := sortedBy(strikes, func(s chain.StrikeRecord) float64 { return s.CallOI })

	maxPut := byPut[0].PutOI
	maxCall := byCall[0].CallOI

	walls.Support = SupportWall{
		Strike:   byPut[0].StrikePrice,
		PutOI:    maxPut,
		Strength: wallStrength(maxPut, maxPut),
	}
	walls.Resistance = ResistanceWall{
		Strike:   byCall[0].StrikePrice,
		CallOI:   maxCall,
		Strength: wallStrength(maxCall, maxCall),
	}

	for i := 0; i < levels && i < len(byPut); i++ {
		walls.SupportLevels = append(walls.SupportLevels, SupportWall{
			Strike:   byPut[i].StrikePrice,
			PutOI:    byPut[i].PutOI,
			Strength: wallStrength(byPut[i].PutOI, maxPut),
		})
	}
	for i := 0; i < levels && i < len(byCall); i++ {
		walls.ResistanceLevels = append(walls.ResistanceLevels, ResistanceWall{
			Strike:   byCall[i].StrikePrice,
			CallOI:   byCall[i].CallOI,
			Strength: wallStrength(byCall[i].CallOI, maxCall),
		})
	}

	return walls
}

// wallStrength maps oi onto 1..5 relative to max; 0 when max is 0.
func wallStrength(oi, max float64) int {
	if max <= 0 {
		return 0
	}
	s := int(math.Ceil(oi / max * 5))
	if s > 5 {
		s = 5
	}
	return s
}

func sortedBy(strikes []chain.StrikeRecord, key func(chain.StrikeRecord) float64) []chain.StrikeRecord {
	cp := make([]chain.StrikeRecord, len(strikes))
	copy(cp, strikes)
	sort.SliceStable(cp, func(i, j int) bool {
		return cp[i].StrikePrice < cp[j].StrikePrice
	})
	sort.SliceStable(cp, func(i, j int) bool {
		return key(cp[i]) > key(cp[j])
	})
	return cp
}
