package recipe

import (
	"fmt"
	"strings"

	"github.com/heytrack/heytrack/internal/shared"
)

// IngredientLine is one ingredient of a recipe. LineTotal follows Quantity*UnitPrice.
type IngredientLine struct {
	StockItemID string  `json:"stock_item_id"`
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
}

// SetQuantity updates the quantity and the line total.
func (l *IngredientLine) SetQuantity(q float64) {
	l.Quantity = shared.Finite(q)
	l.recompute()
}

// SetUnitPrice updates the unit price and the line total.
func (l *IngredientLine) SetUnitPrice(p float64) {
	l.UnitPrice = shared.Finite(p)
	l.recompute()
}

func (l *IngredientLine) recompute() {
	l.LineTotal = l.Quantity * l.UnitPrice
}

// Pinned records which selling prices were entered by hand.
type Pinned struct {
	Portion bool `json:"portion"`
	Piece   bool `json:"piece"`
}

// Draft is a recipe being costed. Pin state belongs to this value only.
type Draft struct {
	Name                   string           `json:"name"`
	Ingredients            []IngredientLine `json:"ingredients"`
	PortionCount           int              `json:"portion_count"`
	PiecesPerPortion       int              `json:"pieces_per_portion"`
	LaborCost              float64          `json:"labor_cost"`
	OverheadCost           float64          `json:"overhead_cost"`
	MarginPercent          float64          `json:"margin_percent"`
	SellingPricePerPortion float64          `json:"selling_price_per_portion"`
	SellingPricePerPiece   float64          `json:"selling_price_per_piece"`
	Pinned                 Pinned           `json:"pinned"`

	IngredientTotal float64 `json:"ingredient_total"`
	TotalCost       float64 `json:"total_cost"`
	CostPerPortion  float64 `json:"cost_per_portion"`
	CostPerPiece    float64 `json:"cost_per_piece"`
}

// SetSellingPricePerPortion records a manual price and pins it, zero included.
func (d *Draft) SetSellingPricePerPortion(v float64) {
	d.SellingPricePerPortion = shared.Finite(v)
	d.Pinned.Portion = true
}

// SetSellingPricePerPiece records a manual price and pins it, zero included.
func (d *Draft) SetSellingPricePerPiece(v float64) {
	d.SellingPricePerPiece = shared.Finite(v)
	d.Pinned.Piece = true
}

// ResetSellingPrices unpins both prices so the next recalculation suggests them again.
func (d *Draft) ResetSellingPrices() {
	d.Pinned = Pinned{}
}

func (d Draft) portions() int {
	if d.PortionCount < 1 {
		return 1
	}
	return d.PortionCount
}

func (d Draft) pieces() int {
	if d.PiecesPerPortion < 1 {
		return 1
	}
	return d.PiecesPerPortion
}

// CostingMode selects the calculator that is authoritative for a recalculation.
type CostingMode string

const (
	ModeLegacy   CostingMode = "legacy"
	ModeEnhanced CostingMode = "enhanced"
)

// ParseMode maps a query value to a CostingMode. Empty means legacy.
func ParseMode(s string) (CostingMode, error) {
	switch CostingMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLegacy:
		return ModeLegacy, nil
	case ModeEnhanced:
		return ModeEnhanced, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// HPP is the cost of goods breakdown of a recipe.
type HPP struct {
	IngredientTotal float64 `json:"ingredient_total"`
	LaborCost       float64 `json:"labor_cost"`
	OverheadCost    float64 `json:"overhead_cost"`
	TotalCost       float64 `json:"total_cost"`
	CostPerPortion  float64 `json:"cost_per_portion"`
	TotalPieces     int     `json:"total_pieces"`
	CostPerPiece    float64 `json:"cost_per_piece"`
}

// OverheadSource tells where enhanced overhead per piece came from.
type OverheadSource string

const (
	OverheadSourceSettings OverheadSource = "app_settings"
	OverheadSourceManual   OverheadSource = "manual_input"
)

// OverheadRates are per-piece costs configured from operational cost planning.
// Labor is already part of OverheadPerPiece.
type OverheadRates struct {
	OverheadPerPiece    float64 `json:"overhead_per_piece"`
	OperationalPerPiece float64 `json:"operational_per_piece"`
}

// Configured reports whether any rate is set.
func (r OverheadRates) Configured() bool {
	return r.OverheadPerPiece > 0 || r.OperationalPerPiece > 0
}

// PricingKind chooses how a percentage turns cost into price.
type PricingKind string

const (
	PricingMarkup PricingKind = "markup"
	PricingMargin PricingKind = "margin"
)

// PricingRule turns a cost into a suggested selling price in enhanced mode.
type PricingRule struct {
	Kind    PricingKind `json:"kind"`
	Percent float64     `json:"percent"`
}

var (
	// ErrMarginTooHigh is returned when a margin rule is at or above 100%.
	ErrMarginTooHigh = fmt.Errorf("recipe: margin tidak boleh >= 100%%: %w", shared.ErrInvalidInput)
	// ErrUnknownMode is returned for an unrecognised costing mode.
	ErrUnknownMode = fmt.Errorf("recipe: unknown costing mode: %w", shared.ErrInvalidInput)
)
