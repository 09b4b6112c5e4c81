package procurement

import (
	"github.com/heytrack/heytrack/internal/inventory"
	"github.com/heytrack/heytrack/internal/shared"
)

// ComputeResultingWAC returns the weighted average cost of item after receiving line.
// Existing stock is valued at its recorded WAC, zero when none is established.
func ComputeResultingWAC(item inventory.StockItem, line Line) float64 {
	return inventory.BlendWAC(item.QuantityOnHand, item.WAC(), line.Quantity, line.UnitPrice)
}

// ReceiveWAC returns the weighted average cost stored when line is received into item.
// Existing stock keeps its effective value, so an item priced only by its base price
// is blended at that price instead of zero.
func ReceiveWAC(item inventory.StockItem, line Line) float64 {
	return inventory.BlendWAC(item.QuantityOnHand, inventory.EffectiveUnitPrice(&item), line.Quantity, line.UnitPrice)
}

// newImpact describes receiving line into an existing item.
func newImpact(item inventory.StockItem, line Line) (WACImpact, float64) {
	current := inventory.EffectiveUnitPrice(&item)
	newWAC := ReceiveWAC(item, line)
	impact := WACImpact{
		StockItemID:      item.ID,
		Name:             item.Name,
		Found:            true,
		CurrentQuantity:  item.QuantityOnHand,
		CurrentWAC:       shared.RoundTo(current, 2),
		PurchaseQuantity: line.Quantity,
		PurchasePrice:    line.UnitPrice,
		NewQuantity:      item.QuantityOnHand + line.Quantity,
		NewWAC:           shared.RoundTo(newWAC, 2),
	}
	if current > 0 {
		impact.ChangePercent = shared.RoundTo((newWAC-current)/current*100, 2)
	}
	return impact, newWAC
}

// newItemImpact describes a line whose stock item does not exist yet.
func newItemImpact(line Line) WACImpact {
	return WACImpact{
		StockItemID:      line.StockItemID,
		Name:             line.Name,
		PurchaseQuantity: line.Quantity,
		PurchasePrice:    line.UnitPrice,
		NewQuantity:      line.Quantity,
		NewWAC:           shared.RoundTo(line.UnitPrice, 2),
	}
}

// WACImpact is the predicted effect of one purchase line on its stock item.
type WACImpact struct {
	StockItemID      string  `json:"stock_item_id"`
	Name             string  `json:"name"`
	Found            bool    `json:"found"`
	CurrentQuantity  float64 `json:"current_quantity"`
	CurrentWAC       float64 `json:"current_wac"`
	PurchaseQuantity float64 `json:"purchase_quantity"`
	PurchasePrice    float64 `json:"purchase_price"`
	NewQuantity      float64 `json:"new_quantity"`
	NewWAC           float64 `json:"new_wac"`
	ChangePercent    float64 `json:"change_percent"`
}

// PredictWACImpact simulates completing p against stock without touching it. Lines
// that hit the same item are applied in order, and a line for an unknown item
// previews the item its completion would create.
func PredictWACImpact(p Purchase, stock []inventory.StockItem) []WACImpact {
	working := make(map[string]inventory.StockItem, len(stock))
	for _, item := range stock {
		working[item.ID] = item
	}
	impacts := make([]WACImpact, 0, len(p.Items))
	for _, line := range p.Items {
		item, ok := working[line.StockItemID]
		if !ok {
			impacts = append(impacts, newItemImpact(line))
			wac := line.UnitPrice
			working[line.StockItemID] = inventory.StockItem{
				ID:                  line.StockItemID,
				Name:                line.Name,
				QuantityOnHand:      line.Quantity,
				BasePrice:           line.UnitPrice,
				WeightedAverageCost: &wac,
			}
			continue
		}
		impact, newWAC := newImpact(item, line)
		impact.Name = line.Name
		impacts = append(impacts, impact)

		item.QuantityOnHand = impact.NewQuantity
		item.WeightedAverageCost = &newWAC
		working[item.ID] = item
	}
	return impacts
}
