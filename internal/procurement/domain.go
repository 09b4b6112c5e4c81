package procurement

import (
	"fmt"
	"strings"
	"time"

	"github.com/heytrack/heytrack/internal/shared"
)

// Status enumerates the purchase workflow states.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CalculationMethod names the stock valuation method a purchase was booked under.
type CalculationMethod string

const (
	MethodAverage CalculationMethod = "AVERAGE"
	MethodFIFO    CalculationMethod = "FIFO"
)

// Line is one purchased stock item.
type Line struct {
	StockItemID string  `json:"stock_item_id"`
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

// Purchase is a supplier purchase transaction ("pembelian").
type Purchase struct {
	ID                string            `json:"id"`
	Supplier          string            `json:"supplier"`
	Date              time.Time         `json:"date"`
	Items             []Line            `json:"items"`
	TotalValue        float64           `json:"total_value"`
	Status            Status            `json:"status"`
	CalculationMethod CalculationMethod `json:"calculation_method,omitempty"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
}

// LinesTotal sums the line subtotals.
func (p Purchase) LinesTotal() float64 {
	var sum float64
	for _, line := range p.Items {
		sum += line.Subtotal
	}
	return sum
}

// ValidationResult carries blocking errors and advisory warnings.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

var (
	// ErrNotFound indicates the purchase does not exist.
	ErrNotFound = fmt.Errorf("procurement: purchase not found: %w", shared.ErrNotFound)
	// ErrPurchaseInvalid indicates the purchase failed validation.
	ErrPurchaseInvalid = fmt.Errorf("procurement: purchase invalid: %w", shared.ErrInvalidInput)
	// ErrAlreadyCompleted indicates the purchase was already applied to stock.
	ErrAlreadyCompleted = fmt.Errorf("procurement: purchase already completed: %w", shared.ErrConflict)
	// ErrInvalidState occurs when a status change violates the workflow.
	ErrInvalidState = fmt.Errorf("procurement: invalid state transition: %w", shared.ErrConflict)
)

// ValidationError lists the messages that made a purchase invalid.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return ErrPurchaseInvalid.Error() + ": " + strings.Join(e.Messages, "; ")
}

// Unwrap exposes ErrPurchaseInvalid to errors.Is.
func (e *ValidationError) Unwrap() error { return ErrPurchaseInvalid }
