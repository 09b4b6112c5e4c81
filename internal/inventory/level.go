package inventory

import "math"

// LevelInfo classifies a stock quantity against its minimum.
type LevelInfo struct {
	Level      StockLevel `json:"level"`
	Color      string     `json:"color"`
	Percentage float64    `json:"percentage"`
}

// mediumFactor bounds the medium tier: minimum < qty <= minimum*mediumFactor.
const mediumFactor = 2.0

// ClassifyStockLevel buckets quantity into out/low/medium/high.
// Percentage is quantity relative to minimum*2 and is not clamped.
func ClassifyStockLevel(quantity, minimum float64) LevelInfo {
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		quantity = 0
	}
	if math.IsNaN(minimum) || math.IsInf(minimum, 0) || minimum < 0 {
		minimum = 0
	}
	info := LevelInfo{Percentage: stockPercentage(quantity, minimum)}
	switch {
	case quantity <= 0:
		info.Level, info.Color = StockLevelOut, "red"
	case quantity <= minimum:
		info.Level, info.Color = StockLevelLow, "red"
	case quantity <= minimum*mediumFactor:
		info.Level, info.Color = StockLevelMedium, "yellow"
	default:
		info.Level, info.Color = StockLevelHigh, "green"
	}
	return info
}

func stockPercentage(quantity, minimum float64) float64 {
	if quantity <= 0 {
		return 0
	}
	if minimum <= 0 {
		return 100
	}
	return quantity / (minimum * mediumFactor) * 100
}
