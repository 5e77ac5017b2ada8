package domain

import (
	"context"

	"github.com/google/uuid"
)

// =============================================================================
// CATALOG TYPES (owned by the catalog subsystem, read-only here)
// =============================================================================

// ProductVariant is a purchasable option combination of a product
// (e.g., color + size). Prices are integer minor units; a variant either
// overrides the product's pricing or inherits it; the store resolves the
// inheritance, so the values here are always the effective ones. The sale
// price is derived from RegularPrice and DiscountRate by the price
// calculator, never stored.
type ProductVariant struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	MarketID  uuid.UUID

	// OptionNames is the ordered option combination defining this variant.
	OptionNames []string

	RegularPrice int64
	DiscountRate int32 // 0-100

	Stock              int32
	IsDisplay          bool
	IsOutOfStockForced bool
}

// IsOutOfStock reports whether the variant cannot currently be purchased,
// either because stock ran out or a seller forced it out of stock.
func (v ProductVariant) IsOutOfStock() bool {
	return v.IsOutOfStockForced || v.Stock <= 0
}

// DeliveryPolicy is a market's flat delivery fee with a free-shipping
// threshold. A cart's subtotal for the market meeting the threshold zeroes
// the fee for every item from that market.
type DeliveryPolicy struct {
	MarketID      uuid.UUID
	Fee           int64
	FreeThreshold int64
}

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// VariantStore is the read-only view of product variants owned by the
// catalog subsystem.
type VariantStore interface {
	// GetVariant retrieves a variant by ID.
	// Returns ErrVariantNotFound if it does not exist.
	GetVariant(ctx context.Context, variantID uuid.UUID) (*ProductVariant, error)

	// GetVariants retrieves the variants for the given IDs in one round trip.
	// Missing IDs are simply absent from the result, not an error: a cart may
	// legitimately reference a variant the catalog has since removed.
	GetVariants(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]ProductVariant, error)
}

// DeliveryPolicyStore resolves delivery policies owned by the market
// subsystem.
type DeliveryPolicyStore interface {
	// GetDeliveryPolicies retrieves policies for the given market IDs.
	// Markets without an explicit policy are absent from the result and
	// contribute no delivery fee.
	GetDeliveryPolicies(ctx context.Context, marketIDs []uuid.UUID) (map[uuid.UUID]DeliveryPolicy, error)
}

// Catalog errors.
var (
	ErrVariantNotFound = &Error{Code: EVARIANTNOTFOUND, Message: "Product variant not found"}
)
