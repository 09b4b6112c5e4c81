// Package units maps purchasing units onto smaller recipe-friendly units.
package units

import (
	"math"
	"strings"
)

// Common unit labels used by warehouse records.
const (
	UnitKg       = "kg"
	UnitKilogram = "kilogram"
	UnitGram     = "gram"
	UnitLiter    = "liter"
	UnitLitre    = "litre"
	UnitMl       = "ml"
	UnitPcs      = "pcs"
)

// Rule describes a purchasing unit and the recipe unit it breaks down into.
type Rule struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Multiplier float64 `json:"multiplier"`
}

var rules = map[string]Rule{
	UnitKg:       {From: UnitKg, To: UnitGram, Multiplier: 1000},
	UnitKilogram: {From: UnitKilogram, To: UnitGram, Multiplier: 1000},
	UnitLiter:    {From: UnitLiter, To: UnitMl, Multiplier: 1000},
	UnitLitre:    {From: UnitLitre, To: UnitMl, Multiplier: 1000},
}

// Conversion is the outcome of resolving a unit/price pair.
type Conversion struct {
	OriginalUnit   string  `json:"original_unit"`
	OriginalPrice  float64 `json:"original_price"`
	ConvertedUnit  string  `json:"converted_unit"`
	ConvertedPrice float64 `json:"converted_price"`
	Multiplier     float64 `json:"conversion_multiplier"`
	IsConverted    bool    `json:"is_converted"`
}

// Lookup returns the conversion rule for unit, if any.
func Lookup(unit string) (Rule, bool) {
	rule, ok := rules[normalize(unit)]
	return rule, ok
}

// Rules lists the conversion table.
func Rules() []Rule {
	out := make([]Rule, 0, len(rules))
	for _, key := range []string{UnitKg, UnitKilogram, UnitLiter, UnitLitre} {
		out = append(out, rules[key])
	}
	return out
}

// Resolve converts price per unit into price per recipe unit.
// ConvertedPrice * Multiplier == OriginalPrice for every known unit.
func Resolve(unit string, price float64) Conversion {
	price = sanitize(price)
	conv := Conversion{
		OriginalUnit:   unit,
		OriginalPrice:  price,
		ConvertedUnit:  unit,
		ConvertedPrice: price,
		Multiplier:     1,
	}
	rule, ok := Lookup(unit)
	if !ok {
		return conv
	}
	conv.ConvertedUnit = rule.To
	conv.Multiplier = rule.Multiplier
	conv.ConvertedPrice = price / rule.Multiplier
	conv.IsConverted = true
	return conv
}

// ConvertQuantity expresses qty of unit in the recipe unit, keeping qty*price constant.
func ConvertQuantity(qty float64, unit string) (float64, string) {
	qty = sanitize(qty)
	rule, ok := Lookup(unit)
	if !ok {
		return qty, unit
	}
	return qty * rule.Multiplier, rule.To
}

// IsBaseUnit reports whether unit needs no further breakdown.
func IsBaseUnit(unit string) bool {
	_, ok := Lookup(unit)
	return !ok
}

func normalize(unit string) string {
	return strings.ToLower(strings.TrimSpace(unit))
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
