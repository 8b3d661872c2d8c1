package data

import "github.com/dgnsrekt/chainsignal/internal/chain"

// SnapshotRecord is one line of a source file: the strikes one source
// reported for a ticker at a point in time.
type SnapshotRecord struct {
	Timestamp int64                `json:"timestamp"`
	Ticker    string               `json:"ticker"`
	Expiry    string               `json:"expiry,omitempty"`
	Spot      float64              `json:"spot"`
	Strikes   []chain.StrikeRecord `json:"strikes"`
}
