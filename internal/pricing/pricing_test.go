package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/minseoan/podomarket/internal/domain"
	"github.com/minseoan/podomarket/internal/pricing"
)

func TestCompute_NoDiscount(t *testing.T) {
	v := domain.ProductVariant{RegularPrice: 49000, DiscountRate: 0}

	b := pricing.Compute(v, 0)

	assert.Equal(t, int64(49000), b.RegularPrice)
	assert.Equal(t, int32(0), b.DiscountRate)
	assert.Equal(t, int64(49000), b.SalePrice)
	assert.Equal(t, int64(49000), b.MaxBenefitPrice, "no modifier means max benefit equals sale price")
}

func TestCompute_DiscountRoundsDown(t *testing.T) {
	tests := []struct {
		name     string
		regular  int64
		rate     int32
		wantSale int64
	}{
		{"exact division", 10000, 10, 9000},
		{"floors fractional result", 999, 10, 899},   // 899.1 -> 899
		{"floors aggressively", 1999, 33, 1339},      // 1339.33 -> 1339
		{"one minor unit", 1, 50, 0},                 // 0.5 -> 0
		{"full discount", 12345, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := domain.ProductVariant{RegularPrice: tt.regular, DiscountRate: tt.rate}
			b := pricing.Compute(v, 0)
			assert.Equal(t, tt.wantSale, b.SalePrice)
			assert.LessOrEqual(t, b.SalePrice, tt.regular, "discount must never overcharge")
		})
	}
}

func TestCompute_ClampsDiscountRate(t *testing.T) {
	over := pricing.Compute(domain.ProductVariant{RegularPrice: 1000, DiscountRate: 150}, 0)
	assert.Equal(t, int32(100), over.DiscountRate)
	assert.Equal(t, int64(0), over.SalePrice)

	under := pricing.Compute(domain.ProductVariant{RegularPrice: 1000, DiscountRate: -5}, 0)
	assert.Equal(t, int32(0), under.DiscountRate)
	assert.Equal(t, int64(1000), under.SalePrice)
}

func TestCompute_BenefitModifier(t *testing.T) {
	v := domain.ProductVariant{RegularPrice: 10000, DiscountRate: 10}

	b := pricing.Compute(v, 2000)
	assert.Equal(t, int64(9000), b.SalePrice)
	assert.Equal(t, int64(7000), b.MaxBenefitPrice)

	// Modifier larger than the sale price floors at zero, never negative.
	b = pricing.Compute(v, 50000)
	assert.Equal(t, int64(0), b.MaxBenefitPrice)
}

func TestComputeLine_Totals(t *testing.T) {
	v := domain.ProductVariant{RegularPrice: 10000, DiscountRate: 10}

	line := pricing.ComputeLine(v, 3, 0)

	assert.Equal(t, int32(3), line.Quantity)
	assert.Equal(t, int64(30000), line.RegularTotal)
	assert.Equal(t, int64(27000), line.SaleTotal)
	assert.Equal(t, int64(9000), line.Unit.SalePrice)
}

func TestComputeLine_FlooringHappensPerUnit(t *testing.T) {
	// 999 at 10% floors to 899 per unit; the line total multiplies the
	// floored unit price instead of flooring the multiplied total.
	v := domain.ProductVariant{RegularPrice: 999, DiscountRate: 10}

	line := pricing.ComputeLine(v, 10, 0)

	assert.Equal(t, int64(8990), line.SaleTotal)
}
