package chain

import "sort"

// Merge combines the open interest, volume and OI change sets into one
// record per strike, sorted ascending by strike. Each source only
// contributes its own fields; anything a source does not supply stays 0.
// A strike repeated within one source keeps its last record.
func Merge(oi, volume, oiChange []StrikeRecord) []StrikeRecord {
	byStrike := make(map[float64]*StrikeRecord)

	get := func(strike float64) *StrikeRecord {
		rec, ok := byStrike[strike]
		if !ok {
			rec = &StrikeRecord{StrikePrice: strike}
			byStrike[strike] = rec
		}
		return rec
	}

	for _, r := range oi {
		rec := get(r.StrikePrice)
		rec.CallOI = r.CallOI
		rec.PutOI = r.PutOI
	}
	for _, r := range volume {
		rec := get(r.StrikePrice)
		rec.CallVolume = r.CallVolume
		rec.PutVolume = r.PutVolume
	}
	for _, r := range oiChange {
		rec := get(r.StrikePrice)
		rec.CallOIChange = r.CallOIChange
		rec.PutOIChange = r.PutOIChange
	}

	merged := make([]StrikeRecord, 0, len(byStrike))
	for _, rec := range byStrike {
		merged = append(merged, *rec)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].StrikePrice < merged[j].StrikePrice
	})
	return merged
}

// VWAP is the volume-weighted average strike. Returns 0 without volume.
func VWAP(strikes []StrikeRecord) float64 {
	var weighted, total float64
	for _, s := range strikes {
		v := s.TotalVolume()
		weighted += s.StrikePrice * v
		total += v
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}
