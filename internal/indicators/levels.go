package indicators

import "sort"

// swingPoints returns the swing highs and lows: bars strictly above (or
// below) every neighbour within width bars on each side.
func swingPoints(highs, lows []float64, width int) (swingHighs, swingLows []float64) {
	for i := width; i < len(highs)-width; i++ {
		isHigh, isLow := true, true
		for j := i - width; j <= i+width; j++ {
			if j == i {
				continue
			}
			if highs[i] <= highs[j] {
				isHigh = false
			}
			if lows[i] >= lows[j] {
				isLow = false
			}
		}
		if isHigh {
			swingHighs = append(swingHighs, highs[i])
		}
		if isLow {
			swingLows = append(swingLows, lows[i])
		}
	}
	return swingHighs, swingLows
}

// supportResistance ranks swing lows below price as support and swing highs
// above price as resistance, nearest first. With too few swing points, or an
// empty side, levels are placed at fixed spacing from price instead.
func supportResistance(highs, lows []float64, price float64, cfg Config) (support, resistance []float64, synthetic bool) {
	swingHighs, swingLows := swingPoints(highs, lows, cfg.SwingWidth)

	if len(swingHighs)+len(swingLows) < cfg.MinSwingPoints {
		return syntheticLevels(price, -cfg.SyntheticSpacing, cfg.Levels),
			syntheticLevels(price, cfg.SyntheticSpacing, cfg.Levels),
			true
	}

	support = nearest(swingLows, func(v float64) bool { return v < price }, func(a, b float64) bool { return a > b }, cfg.Levels)
	resistance = nearest(swingHighs, func(v float64) bool { return v > price }, func(a, b float64) bool { return a < b }, cfg.Levels)

	if len(support) == 0 {
		support = syntheticLevels(price, -cfg.SyntheticSpacing, cfg.Levels)
		synthetic = true
	}
	if len(resistance) == 0 {
		resistance = syntheticLevels(price, cfg.SyntheticSpacing, cfg.Levels)
		synthetic = true
	}
	return support, resistance, synthetic
}

func nearest(points []float64, keep func(float64) bool, less func(a, b float64) bool, limit int) []float64 {
	seen := make(map[float64]bool)
	out := []float64{}
	for _, p := range points {
		if !keep(p) || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func syntheticLevels(price, step float64, n int) []float64 {
	out := make([]float64, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, price+step*float64(i))
	}
	return out
}
