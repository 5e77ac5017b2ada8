// Package stock decides whether a requested quantity is satisfiable against
// a variant's current stock and display flags.
//
// Validation is pure: callers are responsible for running it against variant
// state read inside the same transaction as the cart write, so the
// check-then-write pair cannot race. The validator never decrements stock;
// stock is only reserved at checkout, which re-validates.
package stock

import "github.com/minseoan/podomarket/internal/domain"

// Validate checks whether requested units of the variant could be purchased
// right now. Returns nil when feasible, otherwise one of:
//
//   - domain.ErrInvalidQuantity when requested < 1
//   - domain.ErrVariantUnavailable when the variant is hidden or out of stock
//   - domain.ErrStockInsufficient when 0 < stock < requested
func Validate(v domain.ProductVariant, requested int32) error {
	if requested < 1 {
		return domain.ErrInvalidQuantity
	}
	if !v.IsDisplay || v.IsOutOfStock() {
		return domain.ErrVariantUnavailable
	}
	if requested > v.Stock {
		return domain.ErrStockInsufficient
	}
	return nil
}
