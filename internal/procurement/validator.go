package procurement

import (
	"fmt"
	"math"
	"strings"

	"github.com/heytrack/heytrack/internal/inventory"
	"github.com/heytrack/heytrack/internal/shared"
)

const (
	// MaxLines is the line count above which a purchase is flagged.
	MaxLines = 100
	// MaxUnitPrice is the unit price above which a line is flagged.
	MaxUnitPrice = 999_999_999.0
	// PriceDeviationLimit is the relative drift from the warehouse price tolerated silently.
	PriceDeviationLimit = 0.5
)

// Validate checks a purchase for internal consistency and against the current stock
// snapshot. Errors block completion, warnings are advisory.
func Validate(p Purchase, stock []inventory.StockItem) ValidationResult {
	var errs, warns []string

	if strings.TrimSpace(p.Supplier) == "" {
		errs = append(errs, "Supplier wajib diisi")
	}
	if p.TotalValue <= 0 || !shared.IsFinite(p.TotalValue) {
		errs = append(errs, "Total nilai pembelian harus lebih dari 0")
	}
	if p.Status != "" && !p.Status.Valid() {
		errs = append(errs, fmt.Sprintf("Status pembelian %q tidak valid", p.Status))
	}
	if len(p.Items) == 0 {
		errs = append(errs, "Pembelian harus memiliki minimal 1 item")
	}
	if len(p.Items) > MaxLines {
		warns = append(warns, fmt.Sprintf("Jumlah item (%d) melebihi %d, pertimbangkan memecah pembelian", len(p.Items), MaxLines))
	}

	index := make(map[string]inventory.StockItem, len(stock))
	for _, item := range stock {
		index[item.ID] = item
	}

	for i, line := range p.Items {
		n := i + 1
		if strings.TrimSpace(line.StockItemID) == "" {
			errs = append(errs, fmt.Sprintf("Item %d: bahan baku wajib dipilih", n))
		}
		if strings.TrimSpace(line.Name) == "" {
			errs = append(errs, fmt.Sprintf("Item %d: nama barang wajib diisi", n))
		}
		if line.Quantity <= 0 || !shared.IsFinite(line.Quantity) {
			errs = append(errs, fmt.Sprintf("Item %d: jumlah harus lebih dari 0", n))
		}
		priced := line.UnitPrice > 0 && shared.IsFinite(line.UnitPrice)
		if !priced {
			errs = append(errs, fmt.Sprintf("Item %d: harga satuan harus lebih dari 0", n))
		}
		if priced && line.UnitPrice > MaxUnitPrice {
			warns = append(warns, fmt.Sprintf("Item %d: harga satuan %s sangat tinggi", n, shared.FormatCurrency(line.UnitPrice)))
		}
		if priced && line.Quantity > 0 {
			expected := line.Quantity * line.UnitPrice
			if !shared.AmountsEqual(expected, line.Subtotal) {
				warns = append(warns, fmt.Sprintf("Item %d: subtotal %s tidak sesuai dengan jumlah x harga %s",
					n, shared.FormatNumber(line.Subtotal, 2), shared.FormatNumber(expected, 2)))
			}
		}

		item, ok := index[line.StockItemID]
		if !ok {
			continue
		}
		if line.Unit != "" && !strings.EqualFold(strings.TrimSpace(line.Unit), strings.TrimSpace(item.Unit)) {
			warns = append(warns, fmt.Sprintf("Item %d: satuan %q berbeda dengan satuan gudang %q", n, line.Unit, item.Unit))
		}
		if !priced {
			continue
		}
		ref := inventory.EffectiveUnitPrice(&item)
		if ref > 0 && math.Abs(line.UnitPrice-ref)/ref > PriceDeviationLimit {
			warns = append(warns, fmt.Sprintf("Item %d: harga %s menyimpang lebih dari 50%% dari harga gudang %s",
				n, shared.FormatCurrency(line.UnitPrice), shared.FormatCurrency(ref)))
		}
	}

	if len(p.Items) > 0 && p.TotalValue > 0 {
		sum := p.LinesTotal()
		if !shared.AmountsEqual(sum, p.TotalValue) {
			warns = append(warns, fmt.Sprintf("Nilai total %s tidak sesuai dengan jumlah nilai item %s",
				shared.FormatNumber(p.TotalValue, 2), shared.FormatNumber(sum, 2)))
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: nonNil(errs), Warnings: nonNil(warns)}
}

// StatusChangeResult reports whether a workflow transition may proceed.
type StatusChangeResult struct {
	CanChange bool     `json:"can_change"`
	Errors    []string `json:"errors"`
	Warnings  []string `json:"warnings"`
}

// ValidateStatusChange checks the requirements for moving p from one status to another.
func ValidateStatusChange(from, to Status, p Purchase) StatusChangeResult {
	var errs, warns []string
	if !to.Valid() {
		errs = append(errs, fmt.Sprintf("Status tujuan %q tidak valid", to))
	}
	if from == to {
		warns = append(warns, "Status tidak berubah")
	}
	if to == StatusCompleted {
		if len(p.Items) == 0 {
			errs = append(errs, "Pembelian tanpa item tidak dapat diselesaikan")
		}
		if p.TotalValue <= 0 {
			errs = append(errs, "Pembelian dengan total 0 tidak dapat diselesaikan")
		}
		if strings.TrimSpace(p.Supplier) == "" {
			errs = append(errs, "Supplier wajib diisi sebelum menyelesaikan pembelian")
		}
		incomplete := 0
		for _, line := range p.Items {
			if strings.TrimSpace(line.StockItemID) == "" || line.Quantity <= 0 || line.UnitPrice <= 0 {
				incomplete++
			}
		}
		if incomplete > 0 {
			errs = append(errs, fmt.Sprintf("%d item belum lengkap", incomplete))
		}
	}
	if from == StatusCompleted && to != StatusCompleted {
		warns = append(warns, "Membatalkan pembelian yang sudah selesai tidak mengembalikan stok secara otomatis")
	}
	if to == StatusCancelled && from != StatusCancelled {
		warns = append(warns, "Pembelian yang dibatalkan tidak akan mempengaruhi stok")
	}
	return StatusChangeResult{CanChange: len(errs) == 0, Errors: nonNil(errs), Warnings: nonNil(warns)}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
