package inventory

import (
	"fmt"
	"time"

	"github.com/heytrack/heytrack/internal/shared"
)

// StockItem is a raw material master record ("bahan baku").
type StockItem struct {
	ID                  string     `json:"id" msgpack:"id"`
	Name                string     `json:"name" msgpack:"name" validate:"required"`
	Category            string     `json:"category" msgpack:"category" validate:"required"`
	Supplier            string     `json:"supplier" msgpack:"supplier" validate:"required"`
	Unit                string     `json:"unit" msgpack:"unit" validate:"required"`
	QuantityOnHand      float64    `json:"quantity_on_hand" msgpack:"quantity_on_hand" validate:"gte=0"`
	MinimumThreshold    float64    `json:"minimum_threshold" msgpack:"minimum_threshold" validate:"gte=0"`
	BasePrice           float64    `json:"base_price" msgpack:"base_price" validate:"gte=0"`
	WeightedAverageCost *float64   `json:"weighted_average_cost,omitempty" msgpack:"weighted_average_cost,omitempty" validate:"omitempty,gte=0"`
	ExpiryDate          *time.Time `json:"expiry_date,omitempty" msgpack:"expiry_date,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at" msgpack:"updated_at"`
}

// WAC returns the weighted average cost, zero when not established.
func (i StockItem) WAC() float64 {
	if i.WeightedAverageCost == nil {
		return 0
	}
	return *i.WeightedAverageCost
}

// StockUpdate is a partial write applied by the persistence layer.
type StockUpdate struct {
	QuantityOnHand      *float64
	WeightedAverageCost *float64
	BasePrice           *float64
}

// StockLevel enumerates the ordered stock classifications.
type StockLevel string

const (
	// StockLevelOut means nothing left on hand.
	StockLevelOut StockLevel = "out"
	// StockLevelLow means at or below the minimum threshold.
	StockLevelLow StockLevel = "low"
	// StockLevelMedium means above minimum but not above twice the minimum.
	StockLevelMedium StockLevel = "medium"
	// StockLevelHigh means comfortably stocked.
	StockLevelHigh StockLevel = "high"
)

// PricingMethod tells which price EffectiveUnitPrice picked.
type PricingMethod string

const (
	PricingMethodWAC  PricingMethod = "WAC"
	PricingMethodBase PricingMethod = "BASE"
	PricingMethodNone PricingMethod = "NONE"
)

// DefaultExpiryWindowDays is used when callers pass a non-positive window.
const DefaultExpiryWindowDays = 30

// ErrItemNotFound indicates a missing stock item.
var ErrItemNotFound = fmt.Errorf("inventory: stock item %w", shared.ErrNotFound)

// ErrItemExists is returned when inserting an id that is already stored.
var ErrItemExists = fmt.Errorf("inventory: stock item already exists: %w", shared.ErrConflict)

// ErrInvalidItem indicates a row failing import validation.
var ErrInvalidItem = fmt.Errorf("inventory: stock item: %w", shared.ErrInvalidInput)

var (
	// ErrInvalidQuantity indicates a zero or non-finite adjustment quantity.
	ErrInvalidQuantity = fmt.Errorf("inventory: quantity: %w", shared.ErrInvalidInput)
	// ErrInvalidUnitCost indicates a negative or non-finite unit cost.
	ErrInvalidUnitCost = fmt.Errorf("inventory: unit cost: %w", shared.ErrInvalidInput)
	// ErrNegativeStock indicates an adjustment would leave stock below zero.
	ErrNegativeStock = fmt.Errorf("inventory: negative stock not allowed: %w", shared.ErrConflict)
)
