// Package pricing turns variants and quantities into per-line price
// breakdowns and folds a cart's lines into one consistent summary.
//
// All currency arithmetic uses integer minor units. Discounts round down, so
// a rounding artifact can never overcharge the buyer.
package pricing

import (
	"github.com/minseoan/podomarket/internal/domain"
)

// Compute returns the per-unit price breakdown for a variant.
//
// benefitModifier is an externally supplied promotional floor adjustment
// (e.g., the best applicable coupon), subtracted from the sale price but
// never below 0. Pass 0 when no modifier applies; MaxBenefitPrice then
// equals SalePrice.
func Compute(v domain.ProductVariant, benefitModifier int64) domain.PriceBreakdown {
	rate := v.DiscountRate
	if rate < 0 {
		rate = 0
	}
	if rate > 100 {
		rate = 100
	}

	regular := v.RegularPrice
	// Integer division floors the discounted price.
	sale := regular * int64(100-rate) / 100

	benefit := sale - benefitModifier
	if benefit < 0 {
		benefit = 0
	}

	return domain.PriceBreakdown{
		RegularPrice:    regular,
		DiscountRate:    rate,
		SalePrice:       sale,
		MaxBenefitPrice: benefit,
	}
}

// Line is a per-unit breakdown extended with line totals for a quantity.
type Line struct {
	Unit         domain.PriceBreakdown
	Quantity     int32
	RegularTotal int64
	SaleTotal    int64
}

// ComputeLine returns the breakdown and totals for quantity units of a
// variant.
func ComputeLine(v domain.ProductVariant, quantity int32, benefitModifier int64) Line {
	unit := Compute(v, benefitModifier)
	return Line{
		Unit:         unit,
		Quantity:     quantity,
		RegularTotal: unit.RegularPrice * int64(quantity),
		SaleTotal:    unit.SalePrice * int64(quantity),
	}
}
