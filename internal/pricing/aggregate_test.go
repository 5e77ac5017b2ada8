package pricing_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/minseoan/podomarket/internal/domain"
	"github.com/minseoan/podomarket/internal/pricing"
)

func ratedItem(marketID uuid.UUID, regular int64, qty int32) pricing.RatedItem {
	v := domain.ProductVariant{
		ID:           uuid.New(),
		ProductID:    uuid.New(),
		MarketID:     marketID,
		RegularPrice: regular,
		Stock:        100,
		IsDisplay:    true,
	}
	return pricing.RatedItem{
		Item: domain.CartItem{
			ID:        uuid.New(),
			VariantID: v.ID,
			Quantity:  qty,
			UpdatedAt: time.Now(),
		},
		Variant: v,
		Line:    pricing.ComputeLine(v, qty, 0),
	}
}

func TestSummarize_EmptyCart(t *testing.T) {
	summary, fees := pricing.Summarize(nil, nil)

	assert.Equal(t, domain.CartSummary{}, summary)
	assert.Empty(t, fees)
}

func TestSummarize_FreeThresholdMetByCombinedSubtotal(t *testing.T) {
	// Two items from the same market, each below the 50,000 free threshold
	// on its own, together crossing it: the market's fee contribution is 0.
	market := uuid.New()
	policies := map[uuid.UUID]domain.DeliveryPolicy{
		market: {MarketID: market, Fee: 3000, FreeThreshold: 50000},
	}

	items := []pricing.RatedItem{
		ratedItem(market, 49000, 2), // 98,000
		ratedItem(market, 9000, 1),  // 9,000
	}

	summary, fees := pricing.Summarize(items, policies)

	assert.Equal(t, int64(107000), summary.SaleTotal)
	assert.Equal(t, int64(107000), summary.RegularTotal)
	assert.Equal(t, int64(0), summary.DiscountTotal)
	assert.Equal(t, int64(0), summary.DeliveryFeeTotal)
	assert.Equal(t, int64(107000), summary.FinalTotal)
	assert.Equal(t, int64(0), fees[market])
}

func TestSummarize_FeeChargedBelowThreshold(t *testing.T) {
	market := uuid.New()
	policies := map[uuid.UUID]domain.DeliveryPolicy{
		market: {MarketID: market, Fee: 3000, FreeThreshold: 50000},
	}

	items := []pricing.RatedItem{
		ratedItem(market, 9000, 1),
		ratedItem(market, 12000, 1),
	}

	summary, fees := pricing.Summarize(items, policies)

	// The fee is charged once per market, not once per line.
	assert.Equal(t, int64(3000), summary.DeliveryFeeTotal)
	assert.Equal(t, int64(3000), fees[market])
	assert.Equal(t, int64(24000), summary.FinalTotal)
}

func TestSummarize_FeesConsolidatePerMarket(t *testing.T) {
	marketA := uuid.New() // below threshold, charges fee
	marketB := uuid.New() // above threshold, free
	marketC := uuid.New() // no policy, free

	policies := map[uuid.UUID]domain.DeliveryPolicy{
		marketA: {MarketID: marketA, Fee: 2500, FreeThreshold: 30000},
		marketB: {MarketID: marketB, Fee: 3000, FreeThreshold: 50000},
	}

	items := []pricing.RatedItem{
		ratedItem(marketA, 10000, 1),
		ratedItem(marketA, 5000, 1),
		ratedItem(marketB, 60000, 1),
		ratedItem(marketC, 7000, 1),
	}

	summary, fees := pricing.Summarize(items, policies)

	assert.Equal(t, int64(2500), fees[marketA])
	assert.Equal(t, int64(0), fees[marketB])
	assert.Equal(t, int64(0), fees[marketC])
	assert.Equal(t, int64(2500), summary.DeliveryFeeTotal)
}

func TestSummarize_ZeroThresholdAlwaysCharges(t *testing.T) {
	market := uuid.New()
	policies := map[uuid.UUID]domain.DeliveryPolicy{
		market: {MarketID: market, Fee: 3000, FreeThreshold: 0},
	}

	items := []pricing.RatedItem{ratedItem(market, 1000000, 1)}

	summary, _ := pricing.Summarize(items, policies)

	assert.Equal(t, int64(3000), summary.DeliveryFeeTotal)
}

func TestSummarize_DiscountTotal(t *testing.T) {
	market := uuid.New()
	v := domain.ProductVariant{
		ID:           uuid.New(),
		MarketID:     market,
		RegularPrice: 10000,
		DiscountRate: 20,
		Stock:        10,
		IsDisplay:    true,
	}
	items := []pricing.RatedItem{{
		Item:    domain.CartItem{ID: uuid.New(), VariantID: v.ID, Quantity: 2},
		Variant: v,
		Line:    pricing.ComputeLine(v, 2, 0),
	}}

	summary, _ := pricing.Summarize(items, nil)

	assert.Equal(t, int64(20000), summary.RegularTotal)
	assert.Equal(t, int64(16000), summary.SaleTotal)
	assert.Equal(t, int64(4000), summary.DiscountTotal)
	assert.Equal(t, summary.RegularTotal-summary.SaleTotal, summary.DiscountTotal)
}

func TestBuildLines_FeeAttributedToFirstLinePerMarket(t *testing.T) {
	market := uuid.New()
	other := uuid.New()

	items := []pricing.RatedItem{
		ratedItem(market, 9000, 1),
		ratedItem(market, 12000, 1),
		ratedItem(other, 5000, 1),
	}
	fees := map[uuid.UUID]int64{market: 3000, other: 2000}

	lines := pricing.BuildLines(items, fees)

	assert.Len(t, lines, 3)
	assert.Equal(t, int64(3000), lines[0].DeliveryFee)
	assert.Equal(t, int64(0), lines[1].DeliveryFee, "second line of the same market carries no fee")
	assert.Equal(t, int64(2000), lines[2].DeliveryFee)

	var total int64
	for _, l := range lines {
		total += l.DeliveryFee
	}
	assert.Equal(t, int64(5000), total, "line fees must sum to the consolidated total")
}

func TestBuildLines_SoldOutFlag(t *testing.T) {
	v := domain.ProductVariant{
		ID:           uuid.New(),
		MarketID:     uuid.New(),
		RegularPrice: 10000,
		Stock:        0,
		IsDisplay:    true,
	}
	items := []pricing.RatedItem{{
		Item:    domain.CartItem{ID: uuid.New(), VariantID: v.ID, Quantity: 1},
		Variant: v,
		Line:    pricing.ComputeLine(v, 1, 0),
	}}

	lines := pricing.BuildLines(items, nil)

	assert.True(t, lines[0].SoldOut, "items whose variant ran out stay listed but flagged")
}

func TestPaginate(t *testing.T) {
	lines := make([]domain.CartLine, 45)
	for i := range lines {
		lines[i].ID = uuid.New()
	}

	t.Run("first page", func(t *testing.T) {
		page, info := pricing.Paginate(lines, 1, 20)
		assert.Len(t, page, 20)
		assert.Equal(t, domain.PageInfo{Page: 1, Size: 20, TotalResults: 45, TotalPages: 3, HasNext: true}, info)
		assert.Equal(t, lines[0].ID, page[0].ID)
	})

	t.Run("last partial page", func(t *testing.T) {
		page, info := pricing.Paginate(lines, 3, 20)
		assert.Len(t, page, 5)
		assert.False(t, info.HasNext)
	})

	t.Run("page past the end is empty but well-formed", func(t *testing.T) {
		page, info := pricing.Paginate(lines, 9, 20)
		assert.Empty(t, page)
		assert.Equal(t, 45, info.TotalResults)
		assert.False(t, info.HasNext)
	})

	t.Run("defaults applied for invalid page and size", func(t *testing.T) {
		page, info := pricing.Paginate(lines, 0, 0)
		assert.Len(t, page, pricing.DefaultPageSize)
		assert.Equal(t, 1, info.Page)
		assert.Equal(t, pricing.DefaultPageSize, info.Size)
	})

	t.Run("size clamped to maximum", func(t *testing.T) {
		_, info := pricing.Paginate(lines, 1, 5000)
		assert.Equal(t, pricing.MaxPageSize, info.Size)
	})

	t.Run("empty list", func(t *testing.T) {
		page, info := pricing.Paginate(nil, 1, 20)
		assert.Empty(t, page)
		assert.Equal(t, 0, info.TotalPages)
		assert.False(t, info.HasNext)
	})
}
