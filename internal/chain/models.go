// Package chain holds the per-strike option chain records and the snapshot
// built from them.
package chain

// StrikeRecord is the unified per-strike view of an option chain.
// Only the two *OIChange fields may be negative.
type StrikeRecord struct {
	StrikePrice  float64 `json:"strike_price"`
	CallOI       float64 `json:"call_oi"`
	PutOI        float64 `json:"put_oi"`
	CallVolume   float64 `json:"call_volume"`
	PutVolume    float64 `json:"put_volume"`
	CallOIChange float64 `json:"call_oi_change"`
	PutOIChange  float64 `json:"put_oi_change"`
}

// TotalVolume returns call plus put volume at the strike.
func (s StrikeRecord) TotalVolume() float64 {
	return s.CallVolume + s.PutVolume
}

// MarketSnapshot is the immutable input of one analysis request.
type MarketSnapshot struct {
	CurrentPrice float64        `json:"current_price"`
	VWAP         float64        `json:"vwap"`
	Strikes      []StrikeRecord `json:"strikes"`
}

// NewSnapshot copies strikes and computes the snapshot VWAP.
func NewSnapshot(currentPrice float64, strikes []StrikeRecord) MarketSnapshot {
	cp := make([]StrikeRecord, len(strikes))
	copy(cp, strikes)
	return MarketSnapshot{
		CurrentPrice: currentPrice,
		VWAP:         VWAP(cp),
		Strikes:      cp,
	}
}

// SourceSets are the three independently sourced record sets of one chain.
type SourceSets struct {
	Ticker    string         `json:"ticker"`
	Expiry    string         `json:"expiry,omitempty"`
	Timestamp int64          `json:"timestamp"`
	Spot      float64        `json:"spot"`
	OI        []StrikeRecord `json:"oi"`
	Volume    []StrikeRecord `json:"volume"`
	OIChange  []StrikeRecord `json:"oi_change"`
}

// Merged returns the aggregated strike set of s.
func (s SourceSets) Merged() []StrikeRecord {
	return Merge(s.OI, s.Volume, s.OIChange)
}

// Quote is an optional spot price and spread from a price feed.
type Quote struct {
	Ticker string   `json:"ticker"`
	Spot   float64  `json:"spot"`
	Spread *float64 `json:"spread,omitempty"`
}
