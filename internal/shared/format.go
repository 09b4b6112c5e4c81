package shared

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idPrinter = message.NewPrinter(language.Indonesian)

var shortMonthsID = [...]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

// FormatCurrency renders a rupiah amount without sub-units, e.g. "Rp 1.501".
func FormatCurrency(amount float64) string {
	rounded := RoundCurrency(amount)
	if rounded < 0 {
		return idPrinter.Sprintf("-Rp %d", int64(math.Abs(rounded)))
	}
	return idPrinter.Sprintf("Rp %d", int64(rounded))
}

// FormatNumber renders n with Indonesian digit grouping.
func FormatNumber(n float64, decimals int) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		n = 0
	}
	if decimals < 0 {
		decimals = 0
	}
	return idPrinter.Sprintf(fmt.Sprintf("%%.%df", decimals), n)
}

// FormatDate renders t as "15 Jan 2024" using Indonesian month abbreviations.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), shortMonthsID[t.Month()-1], t.Year())
}
