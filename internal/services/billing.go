package services

import (
	"math"

	"mesero/internal/domain"
)

// Billing math lives in one place so the live cart, the history view, and the
// staff boards can never disagree about what a line is worth. Cancelled units
// are excluded everywhere.

type Bill struct {
	Subtotal float64
	TaxRate  float64
	Tax      float64
	Total    float64
}

// LineTotal is price times billable (non-cancelled) quantity.
func LineTotal(it domain.OrderItem) float64 {
	return it.Price * float64(it.ActiveQty())
}

func Subtotal(items []domain.OrderItem) float64 {
	total := 0.0
	for _, it := range items {
		total += LineTotal(it)
	}
	return total
}

func ItemCount(items []domain.OrderItem) int {
	n := 0
	for _, it := range items {
		n += it.ActiveQty()
	}
	return n
}

func ComputeBill(items []domain.OrderItem, taxRate float64) Bill {
	sub := Subtotal(items)
	tax := sub * taxRate
	return Bill{Subtotal: sub, TaxRate: taxRate, Tax: tax, Total: sub + tax}
}

// Cents rounds a money amount to two decimals for display.
func Cents(v float64) float64 {
	return math.Round(v*100) / 100
}
