package recipe

import (
	"fmt"
	"math"

	"github.com/heytrack/heytrack/internal/shared"
)

// staleTolerance is the drift allowed between a stored line total and quantity*price.
const staleTolerance = 0.005

// ComputeIngredientTotal sums line totals, recomputing any stale line first.
func ComputeIngredientTotal(lines []IngredientLine) float64 {
	total := 0.0
	for _, line := range lines {
		expected := shared.Finite(line.Quantity) * shared.Finite(line.UnitPrice)
		stored := shared.Finite(line.LineTotal)
		if math.Abs(stored-expected) > staleTolerance {
			stored = expected
		}
		total += stored
	}
	return total
}

// ComputeHPP derives totals and per-portion/per-piece costs. Non-positive
// counts are treated as 1.
func ComputeHPP(lines []IngredientLine, portionCount int, laborCost, overheadCost float64, piecesPerPortion int) HPP {
	if portionCount < 1 {
		portionCount = 1
	}
	if piecesPerPortion < 1 {
		piecesPerPortion = 1
	}
	ingredients := ComputeIngredientTotal(lines)
	labor := shared.Finite(laborCost)
	overhead := shared.Finite(overheadCost)
	total := ingredients + labor + overhead
	pieces := pieceCount(portionCount, piecesPerPortion)
	return HPP{
		IngredientTotal: ingredients,
		LaborCost:       labor,
		OverheadCost:    overhead,
		TotalCost:       total,
		CostPerPortion:  total / float64(portionCount),
		TotalPieces:     pieces,
		CostPerPiece:    total / float64(pieces),
	}
}

// pieceCount multiplies positive counts, saturating at math.MaxInt instead of wrapping.
func pieceCount(portions, piecesPerPortion int) int {
	portions, piecesPerPortion = max(portions, 1), max(piecesPerPortion, 1)
	if piecesPerPortion > math.MaxInt/portions {
		return math.MaxInt
	}
	return portions * piecesPerPortion
}

// SuggestSellingPrice applies a markup percentage and rounds to whole currency units.
func SuggestSellingPrice(cost, marginPercent float64) float64 {
	return shared.RoundCurrency(shared.Finite(cost) * (1 + shared.Finite(marginPercent)/100))
}

// PriceFor applies rule to cost. Margin rules divide by (1 - p/100).
func PriceFor(cost float64, rule PricingRule) (float64, error) {
	cost = shared.Finite(cost)
	p := shared.Finite(rule.Percent)
	switch rule.Kind {
	case PricingMargin:
		if p >= 100 {
			return 0, ErrMarginTooHigh
		}
		return shared.RoundCurrency(cost / (1 - p/100)), nil
	case PricingMarkup, "":
		return SuggestSellingPrice(cost, p), nil
	default:
		return 0, fmt.Errorf("recipe: unknown pricing kind %q: %w", rule.Kind, shared.ErrInvalidInput)
	}
}

// Profit is selling price minus cost.
func Profit(sellingPrice, cost float64) float64 {
	return shared.Finite(sellingPrice) - shared.Finite(cost)
}

// MarginPercent returns profit as a percentage of selling price.
// ok is false when the selling price is zero.
func MarginPercent(sellingPrice, cost float64) (float64, bool) {
	sellingPrice = shared.Finite(sellingPrice)
	if sellingPrice == 0 {
		return 0, false
	}
	return Profit(sellingPrice, cost) / sellingPrice * 100, true
}

// BreakEvenPrice is the per-portion price that just covers totalCost.
func BreakEvenPrice(totalCost float64, portionCount int) float64 {
	if portionCount < 1 {
		portionCount = 1
	}
	return shared.Finite(totalCost) / float64(portionCount)
}

// RequiredMargin is the markup percentage needed to earn targetProfit on cost.
func RequiredMargin(cost, targetProfit float64) float64 {
	cost = shared.Finite(cost)
	if cost <= 0 {
		return 0
	}
	return shared.RoundTo(shared.Finite(targetProfit)/cost*100, 2)
}

// ValidationResult lists blocking problems with a draft.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// ValidateInputs checks the draft is fit for costing.
func ValidateInputs(d Draft) ValidationResult {
	errs := []string{}
	if d.PortionCount < 1 {
		errs = append(errs, "Jumlah porsi harus lebih dari 0")
	}
	if d.PiecesPerPortion < 0 {
		errs = append(errs, "Jumlah pcs per porsi harus lebih dari 0")
	}
	if len(d.Ingredients) == 0 {
		errs = append(errs, "Minimal harus ada 1 bahan")
	}
	for i, line := range d.Ingredients {
		if !(line.Quantity > 0) {
			errs = append(errs, fmt.Sprintf("Jumlah bahan %d harus lebih dari 0", i+1))
		}
		if line.UnitPrice < 0 || math.IsNaN(line.UnitPrice) {
			errs = append(errs, fmt.Sprintf("Harga bahan %d tidak boleh negatif", i+1))
		}
	}
	if d.MarginPercent < 0 {
		errs = append(errs, "Margin keuntungan tidak boleh negatif")
	}
	if d.LaborCost < 0 || d.OverheadCost < 0 {
		errs = append(errs, "Biaya tenaga kerja dan overhead tidak boleh negatif")
	}
	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}
