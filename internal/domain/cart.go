package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrCartItemNotFound   = &Error{Code: ECARTITEMNOTFOUND, Message: "Cart item not found"}
	ErrCartItemForbidden  = &Error{Code: EFORBIDDEN, Message: "Cart item belongs to another user"}
	ErrStockInsufficient  = &Error{Code: ESTOCKINSUFFICIENT, Message: "Requested quantity exceeds available stock"}
	ErrVariantUnavailable = &Error{Code: EVARIANTUNAVAILABLE, Message: "Product variant is not available for purchase"}
	ErrInvalidQuantity    = &Error{Code: EINVALIDQUANTITY, Message: "Quantity must be at least 1"}
)

// Clear-cart result messages. The distinction is for UX, not correctness:
// both cases leave an empty cart and a zeroed summary.
const (
	ClearMessageCleared      = "cart cleared"
	ClearMessageAlreadyEmpty = "cart already empty"
)

// =============================================================================
// CART TYPES
// =============================================================================

// CartItem is one persisted cart row. At most one row exists per
// (UserID, VariantID) pair; adding an already-present variant merges into the
// existing row's quantity.
type CartItem struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	VariantID uuid.UUID
	Quantity  int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PriceBreakdown is the per-unit price decomposition of a line item.
// All amounts are integer minor units; discount arithmetic rounds down so a
// rounding artifact can never overcharge.
type PriceBreakdown struct {
	RegularPrice    int64
	DiscountRate    int32
	SalePrice       int64
	MaxBenefitPrice int64
}

// CartLine is a cart item prepared for display: the persisted row joined
// with the live variant state and its computed price breakdown.
type CartLine struct {
	ID          uuid.UUID
	VariantID   uuid.UUID
	ProductID   uuid.UUID
	MarketID    uuid.UUID
	OptionNames []string
	Quantity    int32

	Unit         PriceBreakdown
	RegularTotal int64
	SaleTotal    int64

	// DeliveryFee is this line's share of the consolidated per-market fee.
	// The fee is attributed to the market's first listed line; every other
	// line from the same market carries 0.
	DeliveryFee int64

	// SoldOut reflects live variant state. Items whose variant became
	// unavailable after they were added stay listed but flagged.
	SoldOut bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartSummary aggregates the whole cart into totals. It is recomputed from
// the current item set on every call and never persisted.
type CartSummary struct {
	RegularTotal     int64
	SaleTotal        int64
	DiscountTotal    int64
	DeliveryFeeTotal int64
	FinalTotal       int64
}

// PageInfo carries pagination metadata for the cart listing. Pagination
// affects the item list only; the summary always covers the full cart.
type PageInfo struct {
	Page         int
	Size         int
	TotalResults int
	TotalPages   int
	HasNext      bool
}

// CartMutation is the result of a cart mutation: the affected line (nil for
// deletions) plus the fresh summary, so callers never need a second round
// trip to learn the cart's new state.
type CartMutation struct {
	Item    *CartLine
	Summary CartSummary
}

// CartClear is the result of clearing a cart.
type CartClear struct {
	Message string
	Removed int64
	Summary CartSummary
}

// CartPage is one page of the cart listing plus the full-cart summary.
type CartPage struct {
	Items   []CartLine
	Summary CartSummary
	Pager   PageInfo
}

// UpdateItemParams are the optional changes for an update. Nil means "keep
// the current value". At least one field must be set.
type UpdateItemParams struct {
	VariantID *uuid.UUID
	Quantity  *int32
}

// =============================================================================
// SERVICE INTERFACE
// =============================================================================

// CartService provides the cart operations exposed to the presentation
// layer. Every operation takes the owning user explicitly; callers must have
// authenticated the user before reaching this interface.
type CartService interface {
	// AddItem puts quantity units of a variant into the user's cart, merging
	// into an existing line for the same variant instead of duplicating it.
	AddItem(ctx context.Context, userID, variantID uuid.UUID, quantity int32) (*CartMutation, error)

	// UpdateItem changes a cart item's quantity and/or variant selection.
	// Stock is re-validated against the new variant and quantity.
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, params UpdateItemParams) (*CartMutation, error)

	// RemoveItem deletes a cart item. Removing an absent item succeeds;
	// removing another user's item is forbidden.
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartMutation, error)

	// Clear removes all of the user's items.
	Clear(ctx context.Context, userID uuid.UUID) (*CartClear, error)

	// List returns one page of the cart in most-recently-touched-first order
	// with the summary computed over the full cart. It never mutates state.
	List(ctx context.Context, userID uuid.UUID, page, size int) (*CartPage, error)
}

// =============================================================================
// STORE INTERFACE
// =============================================================================

// CartStore persists cart items. The mutating operations are atomic: the
// stock check runs against the variant state read under the same lock that
// guards the write, so two concurrent "add 1" calls for one (user, variant)
// pair end with quantity 2, never a lost update or a second row.
type CartStore interface {
	// AddItem upserts a row for (userID, variantID), incrementing the
	// quantity if the row already exists. The user's resulting quantity is
	// validated against variant stock inside the same transaction.
	// Returns ErrVariantNotFound, ErrVariantUnavailable or
	// ErrStockInsufficient on failure; no partial state is written.
	AddItem(ctx context.Context, userID, variantID uuid.UUID, quantity int32) (*CartItem, error)

	// UpdateItem rewrites an item's variant and/or quantity, keeping the
	// item ID stable. If the new variant already has a row in the same cart,
	// the rows merge: the other row is absorbed into this one and deleted.
	// Ownership and stock are checked inside the transaction.
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, params UpdateItemParams) (*CartItem, error)

	// RemoveItem deletes an item by ID. Deleting an absent item is not an
	// error (removed=false); deleting another user's item returns
	// ErrCartItemForbidden.
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (removed bool, err error)

	// RemoveAll deletes every item of the user's cart and reports how many
	// rows went away. Clearing an empty cart succeeds with 0.
	RemoveAll(ctx context.Context, userID uuid.UUID) (int64, error)

	// ListItems returns all of the user's items ordered by most recently
	// touched first.
	ListItems(ctx context.Context, userID uuid.UUID) ([]CartItem, error)
}
