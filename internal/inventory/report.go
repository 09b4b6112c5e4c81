package inventory

import (
	"math"
	"time"
)

// StockSummary aggregates headline numbers for the warehouse.
type StockSummary struct {
	TotalItems        int     `json:"total_items" msgpack:"total_items"`
	LowStockCount     int     `json:"low_stock_count" msgpack:"low_stock_count"`
	OutOfStockCount   int     `json:"out_of_stock_count" msgpack:"out_of_stock_count"`
	ExpiringCount     int     `json:"expiring_count" msgpack:"expiring_count"`
	TotalValue        float64 `json:"total_value" msgpack:"total_value"`
	AverageStockLevel float64 `json:"average_stock_level" msgpack:"average_stock_level"`
}

// StockAlerts carries the item sets a notifier surfaces.
type StockAlerts struct {
	LowStock   []StockItem `json:"low_stock" msgpack:"low_stock"`
	OutOfStock []StockItem `json:"out_of_stock" msgpack:"out_of_stock"`
	Expiring   []StockItem `json:"expiring" msgpack:"expiring"`
}

// Empty reports whether no alert is raised.
func (a StockAlerts) Empty() bool {
	return len(a.LowStock) == 0 && len(a.OutOfStock) == 0 && len(a.Expiring) == 0
}

// StockReport is the valuation and alerting view over a stock snapshot.
type StockReport struct {
	GeneratedAt time.Time      `json:"generated_at" msgpack:"generated_at"`
	Summary     StockSummary   `json:"summary" msgpack:"summary"`
	Categories  map[string]int `json:"categories" msgpack:"categories"`
	Alerts      StockAlerts    `json:"alerts" msgpack:"alerts"`
}

// GenerateStockReport builds a StockReport using the default expiry window.
func GenerateStockReport(items []StockItem, now time.Time) StockReport {
	return GenerateStockReportWithin(items, DefaultExpiryWindowDays, now)
}

// GenerateStockReportWithin builds a StockReport with a custom expiry window.
func GenerateStockReportWithin(items []StockItem, expiryDays int, now time.Time) StockReport {
	alerts := StockAlerts{
		LowStock:   LowStockItems(items),
		OutOfStock: OutOfStockItems(items),
		Expiring:   ExpiringItems(items, expiryDays, now),
	}
	categories := make(map[string]int)
	levelSum := 0.0
	for _, item := range items {
		categories[item.Category]++
		levelSum += math.Min(ClassifyStockLevel(item.QuantityOnHand, item.MinimumThreshold).Percentage, 100)
	}
	summary := StockSummary{
		TotalItems:      len(items),
		LowStockCount:   len(alerts.LowStock),
		OutOfStockCount: len(alerts.OutOfStock),
		ExpiringCount:   len(alerts.Expiring),
		TotalValue:      CalculateStockValue(items),
	}
	if len(items) > 0 {
		summary.AverageStockLevel = levelSum / float64(len(items))
	}
	return StockReport{
		GeneratedAt: now,
		Summary:     summary,
		Categories:  categories,
		Alerts:      alerts,
	}
}
