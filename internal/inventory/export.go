package inventory

import "github.com/heytrack/heytrack/internal/shared"

// Pricing method labels shown in exports.
const (
	LabelPricingWAC  = "Rata-rata Tertimbang (WAC)"
	LabelPricingBase = "Harga Input"
)

// ExportRow is a flattened, formatted view of a stock item.
type ExportRow struct {
	Name           string `json:"nama"`
	Category       string `json:"kategori"`
	Supplier       string `json:"supplier"`
	Unit           string `json:"satuan"`
	Stock          string `json:"stok"`
	Minimum        string `json:"minimum"`
	PricingMethod  string `json:"metode_harga"`
	EffectivePrice string `json:"harga_efektif"`
	StockValue     string `json:"nilai_total_stok"`
	Level          string `json:"level_stok"`
	ExpiryDate     string `json:"tanggal_kadaluarsa"`
}

// ExportRows prepares items for spreadsheet export using effective prices.
func ExportRows(items []StockItem) []ExportRow {
	rows := make([]ExportRow, 0, len(items))
	for i := range items {
		item := &items[i]
		label := LabelPricingBase
		if IsUsingWAC(item) {
			label = LabelPricingWAC
		}
		expiry := "-"
		if item.ExpiryDate != nil {
			expiry = shared.FormatDate(*item.ExpiryDate)
		}
		rows = append(rows, ExportRow{
			Name:           item.Name,
			Category:       item.Category,
			Supplier:       item.Supplier,
			Unit:           item.Unit,
			Stock:          shared.FormatNumber(item.QuantityOnHand, 2),
			Minimum:        shared.FormatNumber(item.MinimumThreshold, 2),
			PricingMethod:  label,
			EffectivePrice: shared.FormatCurrency(EffectiveUnitPrice(item)),
			StockValue:     shared.FormatCurrency(itemValue(item)),
			Level:          string(ClassifyStockLevel(item.QuantityOnHand, item.MinimumThreshold).Level),
			ExpiryDate:     expiry,
		})
	}
	return rows
}
