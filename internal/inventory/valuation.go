package inventory

import (
	"math"
	"time"
)

// CalculateStockValue sums quantity on hand times effective unit price.
func CalculateStockValue(items []StockItem) float64 {
	total := 0.0
	for i := range items {
		total += itemValue(&items[i])
	}
	return total
}

func itemValue(item *StockItem) float64 {
	qty := item.QuantityOnHand
	if math.IsNaN(qty) || math.IsInf(qty, 0) || qty <= 0 {
		return 0
	}
	return qty * EffectiveUnitPrice(item)
}

// LowStockItems returns items with 0 < quantity <= minimum.
func LowStockItems(items []StockItem) []StockItem {
	out := []StockItem{}
	for _, item := range items {
		if item.QuantityOnHand > 0 && item.QuantityOnHand <= item.MinimumThreshold {
			out = append(out, item)
		}
	}
	return out
}

// OutOfStockItems returns items with nothing on hand.
func OutOfStockItems(items []StockItem) []StockItem {
	out := []StockItem{}
	for _, item := range items {
		if item.QuantityOnHand <= 0 {
			out = append(out, item)
		}
	}
	return out
}

// ExpiringItems returns items whose expiry date falls within [now, now+days].
func ExpiringItems(items []StockItem, days int, now time.Time) []StockItem {
	if days <= 0 {
		days = DefaultExpiryWindowDays
	}
	limit := now.AddDate(0, 0, days)
	out := []StockItem{}
	for _, item := range items {
		if item.ExpiryDate == nil {
			continue
		}
		exp := *item.ExpiryDate
		if exp.Before(now) || exp.After(limit) {
			continue
		}
		out = append(out, item)
	}
	return out
}
