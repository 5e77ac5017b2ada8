package stock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/minseoan/podomarket/internal/domain"
	"github.com/minseoan/podomarket/internal/stock"
)

func variant(stockCount int32, display, forced bool) domain.ProductVariant {
	return domain.ProductVariant{
		Stock:              stockCount,
		IsDisplay:          display,
		IsOutOfStockForced: forced,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		variant   domain.ProductVariant
		requested int32
		wantErr   error
	}{
		{
			name:      "exact stock is satisfiable",
			variant:   variant(5, true, false),
			requested: 5,
		},
		{
			name:      "below stock is satisfiable",
			variant:   variant(5, true, false),
			requested: 1,
		},
		{
			name:      "above stock is insufficient",
			variant:   variant(5, true, false),
			requested: 6,
			wantErr:   domain.ErrStockInsufficient,
		},
		{
			name:      "zero stock is unavailable, not insufficient",
			variant:   variant(0, true, false),
			requested: 1,
			wantErr:   domain.ErrVariantUnavailable,
		},
		{
			name:      "hidden variant is unavailable",
			variant:   variant(10, false, false),
			requested: 1,
			wantErr:   domain.ErrVariantUnavailable,
		},
		{
			name:      "forced out of stock overrides positive stock",
			variant:   variant(10, true, true),
			requested: 1,
			wantErr:   domain.ErrVariantUnavailable,
		},
		{
			name:      "zero quantity is invalid",
			variant:   variant(10, true, false),
			requested: 0,
			wantErr:   domain.ErrInvalidQuantity,
		},
		{
			name:      "negative quantity is invalid",
			variant:   variant(10, true, false),
			requested: -3,
			wantErr:   domain.ErrInvalidQuantity,
		},
		{
			name:      "invalid quantity wins over unavailable variant",
			variant:   variant(0, false, true),
			requested: 0,
			wantErr:   domain.ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := stock.Validate(tt.variant, tt.requested)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
