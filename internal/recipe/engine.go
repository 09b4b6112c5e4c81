package recipe

import (
	"math"
	"strings"

	"github.com/heytrack/heytrack/internal/inventory"
	"github.com/heytrack/heytrack/internal/shared"
	"github.com/heytrack/heytrack/internal/units"
)

// Enhanced-mode sanity bounds for warehouse prices against the line's current price.
const (
	minPriceRatio     = 0.1
	maxPriceRatio     = 10.0
	maxWarehousePrice = 1_000_000
)

// EngineConfig carries the inputs the enhanced calculator reads besides the draft.
type EngineConfig struct {
	Stock    []inventory.StockItem
	Overhead OverheadRates
	Pricing  *PricingRule
}

// Engine recalculates drafts with exactly one calculator per call.
type Engine struct {
	stock    map[string]inventory.StockItem
	overhead OverheadRates
	pricing  *PricingRule
}

// NewEngine builds an Engine over a warehouse snapshot.
func NewEngine(cfg EngineConfig) *Engine {
	stock := make(map[string]inventory.StockItem, len(cfg.Stock))
	for _, item := range cfg.Stock {
		stock[item.ID] = item
	}
	return &Engine{stock: stock, overhead: cfg.Overhead, pricing: cfg.Pricing}
}

// LinePrice records how an ingredient price was chosen in enhanced mode.
type LinePrice struct {
	StockItemID    string  `json:"stock_item_id"`
	Name           string  `json:"name"`
	OriginalPrice  float64 `json:"original_price"`
	WarehousePrice float64 `json:"warehouse_price"`
	AppliedPrice   float64 `json:"applied_price"`
	WACApplied     bool    `json:"wac_applied"`
	Note           string  `json:"note,omitempty"`
}

// Breakdown explains an enhanced recalculation.
type Breakdown struct {
	IngredientPerPiece float64        `json:"ingredient_per_piece"`
	OverheadPerPiece   float64        `json:"overhead_per_piece"`
	OverheadSource     OverheadSource `json:"overhead_source"`
	OverheadOnly       float64        `json:"overhead_only"`
	OperationalOnly    float64        `json:"operational_only"`
	Pricing            PricingRule    `json:"pricing"`
	Lines              []LinePrice    `json:"lines"`
}

// Result is a recalculated draft plus derived read-outs.
type Result struct {
	Mode              CostingMode `json:"mode"`
	Draft             Draft       `json:"draft"`
	HPP               HPP         `json:"hpp"`
	ProfitPerPortion  float64     `json:"profit_per_portion"`
	ProfitPerPiece    float64     `json:"profit_per_piece"`
	MarginPerPortion  *float64    `json:"margin_per_portion,omitempty"`
	MarginPerPiece    *float64    `json:"margin_per_piece,omitempty"`
	BreakEvenPortion  float64     `json:"break_even_portion"`
	EnhancedBreakdown *Breakdown  `json:"breakdown,omitempty"`
}

// Recalculate refreshes costs and any unpinned selling price of draft.
// The input draft is not modified.
func (e *Engine) Recalculate(draft Draft, mode CostingMode) (Result, error) {
	d := cloneDraft(draft)
	var (
		res Result
		err error
	)
	switch mode {
	case ModeLegacy:
		res = e.legacy(d)
	case ModeEnhanced:
		res, err = e.enhanced(d)
	default:
		return Result{}, ErrUnknownMode
	}
	if err != nil {
		return Result{}, err
	}
	res.Mode = mode
	fillReadouts(&res)
	return res, nil
}

func (e *Engine) legacy(d Draft) Result {
	for i := range d.Ingredients {
		d.Ingredients[i].recompute()
	}
	hpp := ComputeHPP(d.Ingredients, d.PortionCount, d.LaborCost, d.OverheadCost, d.PiecesPerPortion)
	applyCosts(&d, hpp)
	if !d.Pinned.Portion {
		d.SellingPricePerPortion = SuggestSellingPrice(hpp.CostPerPortion, d.MarginPercent)
	}
	if !d.Pinned.Piece {
		d.SellingPricePerPiece = SuggestSellingPrice(hpp.CostPerPiece, d.MarginPercent)
	}
	return Result{Draft: d, HPP: hpp}
}

func (e *Engine) enhanced(d Draft) (Result, error) {
	rule := PricingRule{Kind: PricingMarkup, Percent: d.MarginPercent}
	if e.pricing != nil {
		rule = *e.pricing
	}
	bd := &Breakdown{Pricing: rule, Lines: make([]LinePrice, 0, len(d.Ingredients))}
	for i := range d.Ingredients {
		bd.Lines = append(bd.Lines, e.refreshPrice(&d.Ingredients[i]))
	}

	portions, pieces := d.portions(), d.pieces()
	totalPieces := pieceCount(portions, pieces)
	ingredients := ComputeIngredientTotal(d.Ingredients)
	perPiece := ingredients / float64(totalPieces)

	if e.overhead.Configured() {
		bd.OverheadSource = OverheadSourceSettings
		bd.OverheadOnly = math.Max(shared.Finite(e.overhead.OverheadPerPiece), 0)
		bd.OperationalOnly = math.Max(shared.Finite(e.overhead.OperationalPerPiece), 0)
		bd.OverheadPerPiece = bd.OverheadOnly + bd.OperationalOnly
	} else {
		bd.OverheadSource = OverheadSourceManual
		bd.OverheadPerPiece = (shared.Finite(d.LaborCost) + shared.Finite(d.OverheadCost)) / float64(totalPieces)
	}
	bd.IngredientPerPiece = shared.RoundCurrency(perPiece)

	costPerPiece := shared.RoundCurrency(perPiece + bd.OverheadPerPiece)
	costPerPortion := costPerPiece * float64(pieces)
	total := costPerPortion * float64(portions)
	hpp := HPP{
		IngredientTotal: ingredients,
		OverheadCost:    bd.OverheadPerPiece * float64(totalPieces),
		TotalCost:       total,
		CostPerPortion:  costPerPortion,
		TotalPieces:     totalPieces,
		CostPerPiece:    costPerPiece,
	}
	applyCosts(&d, hpp)

	piecePrice, err := PriceFor(costPerPiece, rule)
	if err != nil {
		return Result{}, err
	}
	if !d.Pinned.Piece {
		d.SellingPricePerPiece = piecePrice
	}
	if !d.Pinned.Portion {
		d.SellingPricePerPortion = piecePrice * float64(pieces)
	}
	return Result{Draft: d, HPP: hpp, EnhancedBreakdown: bd}, nil
}

// refreshPrice swaps in the warehouse effective price when it is plausible.
func (e *Engine) refreshPrice(line *IngredientLine) LinePrice {
	lp := LinePrice{StockItemID: line.StockItemID, Name: line.Name, OriginalPrice: line.UnitPrice, AppliedPrice: line.UnitPrice}
	defer line.recompute()

	item, ok := e.stock[line.StockItemID]
	if line.StockItemID == "" || !ok {
		lp.Note = "tidak terhubung ke gudang"
		return lp
	}
	price := inventory.EffectiveUnitPrice(&item)
	if conv := units.Resolve(item.Unit, price); conv.IsConverted && sameUnit(conv.ConvertedUnit, line.Unit) {
		price = conv.ConvertedPrice
	}
	lp.WarehousePrice = price
	switch {
	case price <= 0:
		lp.Note = "harga gudang kosong"
		return lp
	case price > maxWarehousePrice:
		lp.Note = "harga gudang terlalu tinggi"
		return lp
	case line.UnitPrice > 0:
		ratio := price / line.UnitPrice
		if ratio < minPriceRatio || ratio > maxPriceRatio {
			lp.Note = "harga gudang tidak wajar"
			return lp
		}
	}
	line.UnitPrice = price
	lp.AppliedPrice = price
	lp.WACApplied = true
	return lp
}

func sameUnit(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func applyCosts(d *Draft, hpp HPP) {
	d.IngredientTotal = hpp.IngredientTotal
	d.TotalCost = hpp.TotalCost
	d.CostPerPortion = hpp.CostPerPortion
	d.CostPerPiece = hpp.CostPerPiece
}

func fillReadouts(res *Result) {
	d := res.Draft
	res.ProfitPerPortion = Profit(d.SellingPricePerPortion, d.CostPerPortion)
	res.ProfitPerPiece = Profit(d.SellingPricePerPiece, d.CostPerPiece)
	if m, ok := MarginPercent(d.SellingPricePerPortion, d.CostPerPortion); ok {
		res.MarginPerPortion = &m
	}
	if m, ok := MarginPercent(d.SellingPricePerPiece, d.CostPerPiece); ok {
		res.MarginPerPiece = &m
	}
	res.BreakEvenPortion = BreakEvenPrice(d.TotalCost, d.PortionCount)
}

func cloneDraft(d Draft) Draft {
	out := d
	out.Ingredients = append([]IngredientLine(nil), d.Ingredients...)
	return out
}
