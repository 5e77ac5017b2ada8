package pricing

import (
	"github.com/google/uuid"

	"github.com/minseoan/podomarket/internal/domain"
)

// RatedItem pairs a cart row with the live variant it references and the
// computed line pricing. The caller supplies items in display order (most
// recently touched first); the aggregator preserves that order.
type RatedItem struct {
	Item    domain.CartItem
	Variant domain.ProductVariant
	Line    Line
}

// Summarize folds all lines into the cart summary and returns each market's
// delivery fee contribution.
//
// Delivery fees consolidate per market, not per line: all of a market's
// lines share one free-shipping threshold check against the market's sale
// subtotal. A market with no policy contributes no fee; a policy without a
// positive free threshold always charges its fee.
func Summarize(items []RatedItem, policies map[uuid.UUID]domain.DeliveryPolicy) (domain.CartSummary, map[uuid.UUID]int64) {
	var summary domain.CartSummary

	marketSubtotals := make(map[uuid.UUID]int64)
	for _, it := range items {
		summary.RegularTotal += it.Line.RegularTotal
		summary.SaleTotal += it.Line.SaleTotal
		marketSubtotals[it.Variant.MarketID] += it.Line.SaleTotal
	}

	marketFees := make(map[uuid.UUID]int64, len(marketSubtotals))
	for marketID, subtotal := range marketSubtotals {
		policy, ok := policies[marketID]
		if !ok {
			marketFees[marketID] = 0
			continue
		}
		if policy.FreeThreshold > 0 && subtotal >= policy.FreeThreshold {
			marketFees[marketID] = 0
			continue
		}
		marketFees[marketID] = policy.Fee
	}

	for _, fee := range marketFees {
		summary.DeliveryFeeTotal += fee
	}

	summary.DiscountTotal = summary.RegularTotal - summary.SaleTotal
	summary.FinalTotal = summary.SaleTotal + summary.DeliveryFeeTotal

	return summary, marketFees
}

// BuildLines converts rated items into display lines, attributing each
// market's consolidated fee to the market's first listed line so the fees
// shown across lines always sum to DeliveryFeeTotal.
func BuildLines(items []RatedItem, marketFees map[uuid.UUID]int64) []domain.CartLine {
	lines := make([]domain.CartLine, 0, len(items))
	feeAssigned := make(map[uuid.UUID]bool, len(marketFees))

	for _, it := range items {
		var fee int64
		if !feeAssigned[it.Variant.MarketID] {
			fee = marketFees[it.Variant.MarketID]
			feeAssigned[it.Variant.MarketID] = true
		}

		lines = append(lines, domain.CartLine{
			ID:           it.Item.ID,
			VariantID:    it.Variant.ID,
			ProductID:    it.Variant.ProductID,
			MarketID:     it.Variant.MarketID,
			OptionNames:  it.Variant.OptionNames,
			Quantity:     it.Item.Quantity,
			Unit:         it.Line.Unit,
			RegularTotal: it.Line.RegularTotal,
			SaleTotal:    it.Line.SaleTotal,
			DeliveryFee:  fee,
			SoldOut:      !it.Variant.IsDisplay || it.Variant.IsOutOfStock(),
			CreatedAt:    it.Item.CreatedAt,
			UpdatedAt:    it.Item.UpdatedAt,
		})
	}

	return lines
}

// Default and maximum page sizes for the cart listing.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Paginate applies offset/limit paging over the full line list. The page is
// 1-based; out-of-range pages return an empty slice with correct metadata.
// Totals are never affected by paging; callers summarize the full cart.
func Paginate(lines []domain.CartLine, page, size int) ([]domain.CartLine, domain.PageInfo) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	total := len(lines)
	totalPages := (total + size - 1) / size

	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	return lines[start:end], domain.PageInfo{
		Page:         page,
		Size:         size,
		TotalResults: total,
		TotalPages:   totalPages,
		HasNext:      page < totalPages,
	}
}
