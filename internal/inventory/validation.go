package inventory

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationResult mirrors the verdict shape shared by the import and purchase checks.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func itemValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

var fieldLabels = map[string]string{
	"Name":                "Nama bahan baku",
	"Category":            "Kategori",
	"Supplier":            "Supplier",
	"Unit":                "Satuan",
	"QuantityOnHand":      "Stok",
	"MinimumThreshold":    "Stok minimum",
	"BasePrice":           "Harga",
	"WeightedAverageCost": "Harga rata-rata",
}

// ValidateStockItem applies the warehouse master-data rules used before a row is accepted.
func ValidateStockItem(item StockItem) ValidationResult {
	res := ValidationResult{Errors: []string{}, Warnings: []string{}}
	item.Name = strings.TrimSpace(item.Name)
	item.Category = strings.TrimSpace(item.Category)
	item.Supplier = strings.TrimSpace(item.Supplier)
	item.Unit = strings.TrimSpace(item.Unit)

	numeric := []struct {
		field string
		value float64
	}{
		{"QuantityOnHand", item.QuantityOnHand},
		{"MinimumThreshold", item.MinimumThreshold},
		{"BasePrice", item.BasePrice},
	}
	for _, n := range numeric {
		if math.IsNaN(n.value) || math.IsInf(n.value, 0) {
			res.Errors = append(res.Errors, fmt.Sprintf("%s harus berupa angka", fieldLabels[n.field]))
		}
	}

	if err := itemValidator().Struct(item); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			res.Errors = append(res.Errors, err.Error())
		}
		for _, fe := range fieldErrs {
			label := fieldLabels[fe.StructField()]
			switch fe.Tag() {
			case "required":
				res.Errors = append(res.Errors, fmt.Sprintf("%s wajib diisi", label))
			case "gte":
				res.Errors = append(res.Errors, fmt.Sprintf("%s tidak boleh negatif", label))
			default:
				res.Errors = append(res.Errors, fmt.Sprintf("%s tidak valid", label))
			}
		}
	}

	if len(res.Errors) == 0 && item.QuantityOnHand < item.MinimumThreshold {
		res.Warnings = append(res.Warnings, "Stok di bawah batas minimum")
	}
	res.IsValid = len(res.Errors) == 0
	return res
}
