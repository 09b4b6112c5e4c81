package inventory

import "math"

// EffectiveUnitPrice resolves the price used for valuation: WAC first, then base price.
func EffectiveUnitPrice(item *StockItem) float64 {
	price, _ := resolvePrice(item)
	return price
}

// IsUsingWAC reports whether EffectiveUnitPrice took the WAC branch.
func IsUsingWAC(item *StockItem) bool {
	_, method := resolvePrice(item)
	return method == PricingMethodWAC
}

// PricingMethodOf reports which price source applies to item.
func PricingMethodOf(item *StockItem) PricingMethod {
	_, method := resolvePrice(item)
	return method
}

func resolvePrice(item *StockItem) (float64, PricingMethod) {
	if item == nil {
		return 0, PricingMethodNone
	}
	if item.WeightedAverageCost != nil && positive(*item.WeightedAverageCost) {
		return *item.WeightedAverageCost, PricingMethodWAC
	}
	if positive(item.BasePrice) {
		return item.BasePrice, PricingMethodBase
	}
	return 0, PricingMethodNone
}

func positive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
