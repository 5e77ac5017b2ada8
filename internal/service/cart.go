// Package service implements the business logic layer. Services orchestrate
// stores and the pure calculation packages; they own no persistence and no
// transport concerns.
package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/minseoan/podomarket/internal/domain"
	"github.com/minseoan/podomarket/internal/pricing"
)

// cartService implements domain.CartService on top of the cart item store and
// the read-only catalog collaborators. Every response carries a summary
// recomputed from the full current cart, so clients never see a mutation
// without its pricing consequence.
type cartService struct {
	store    domain.CartStore
	variants domain.VariantStore
	policies domain.DeliveryPolicyStore
	logger   *slog.Logger
}

// NewCartService creates the cart service.
func NewCartService(store domain.CartStore, variants domain.VariantStore, policies domain.DeliveryPolicyStore, logger *slog.Logger) domain.CartService {
	return &cartService{
		store:    store,
		variants: variants,
		policies: policies,
		logger:   logger,
	}
}

// AddItem implements domain.CartService.
func (s *cartService) AddItem(ctx context.Context, userID, variantID uuid.UUID, quantity int32) (*domain.CartMutation, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	item, err := s.store.AddItem(ctx, userID, variantID, quantity)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("cart item added",
		slog.String("user_id", userID.String()),
		slog.String("variant_id", variantID.String()),
		slog.Int("quantity", int(quantity)))

	return s.mutation(ctx, userID, item.ID)
}

// UpdateItem implements domain.CartService.
func (s *cartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, params domain.UpdateItemParams) (*domain.CartMutation, error) {
	if params.VariantID == nil && params.Quantity == nil {
		return nil, domain.Invalid("cartService.UpdateItem", "update requires a quantity or variant change")
	}
	if params.Quantity != nil && *params.Quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	item, err := s.store.UpdateItem(ctx, userID, itemID, params)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("cart item updated",
		slog.String("user_id", userID.String()),
		slog.String("item_id", itemID.String()))

	return s.mutation(ctx, userID, item.ID)
}

// RemoveItem implements domain.CartService.
func (s *cartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*domain.CartMutation, error) {
	removed, err := s.store.RemoveItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if removed {
		s.logger.Debug("cart item removed",
			slog.String("user_id", userID.String()),
			slog.String("item_id", itemID.String()))
	}

	// Removing an already-absent item still returns the current summary, so
	// retried deletes converge on the same response shape.
	_, summary, err := s.rate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.CartMutation{Summary: summary}, nil
}

// Clear implements domain.CartService.
func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) (*domain.CartClear, error) {
	removed, err := s.store.RemoveAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	message := domain.ClearMessageCleared
	if removed == 0 {
		message = domain.ClearMessageAlreadyEmpty
	} else {
		s.logger.Info("cart cleared",
			slog.String("user_id", userID.String()),
			slog.Int64("removed", removed))
	}

	return &domain.CartClear{
		Message: message,
		Removed: removed,
		Summary: domain.CartSummary{},
	}, nil
}

// List implements domain.CartService.
func (s *cartService) List(ctx context.Context, userID uuid.UUID, page, size int) (*domain.CartPage, error) {
	lines, summary, err := s.rate(ctx, userID)
	if err != nil {
		return nil, err
	}

	pageLines, pager := pricing.Paginate(lines, page, size)

	return &domain.CartPage{
		Items:   pageLines,
		Summary: summary,
		Pager:   pager,
	}, nil
}

// mutation rates the full cart and picks out the line for itemID.
func (s *cartService) mutation(ctx context.Context, userID, itemID uuid.UUID) (*domain.CartMutation, error) {
	lines, summary, err := s.rate(ctx, userID)
	if err != nil {
		return nil, err
	}

	mutation := &domain.CartMutation{Summary: summary}
	for i := range lines {
		if lines[i].ID == itemID {
			mutation.Item = &lines[i]
			break
		}
	}
	return mutation, nil
}

// rate loads the user's items, joins them with live variant state and
// computes display lines plus the full-cart summary.
//
// Items whose variant has since vanished from the catalog stay listed as
// sold out with zeroed prices; they contribute nothing to the totals.
func (s *cartService) rate(ctx context.Context, userID uuid.UUID) ([]domain.CartLine, domain.CartSummary, error) {
	items, err := s.store.ListItems(ctx, userID)
	if err != nil {
		return nil, domain.CartSummary{}, err
	}
	if len(items) == 0 {
		return []domain.CartLine{}, domain.CartSummary{}, nil
	}

	variantIDs := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		variantIDs = append(variantIDs, it.VariantID)
	}

	variants, err := s.variants.GetVariants(ctx, variantIDs)
	if err != nil {
		return nil, domain.CartSummary{}, err
	}

	rated := make([]pricing.RatedItem, 0, len(items))
	for _, it := range items {
		variant, ok := variants[it.VariantID]
		if !ok {
			s.logger.Warn("cart references a variant missing from the catalog",
				slog.String("user_id", userID.String()),
				slog.String("variant_id", it.VariantID.String()))
			// A zero-priced hidden stand-in keeps the line visible without
			// affecting the totals.
			variant = domain.ProductVariant{ID: it.VariantID}
		}
		rated = append(rated, pricing.RatedItem{
			Item:    it,
			Variant: variant,
			Line:    pricing.ComputeLine(variant, it.Quantity, 0),
		})
	}

	marketIDs := make([]uuid.UUID, 0, len(rated))
	seen := make(map[uuid.UUID]bool, len(rated))
	for _, r := range rated {
		if !seen[r.Variant.MarketID] {
			seen[r.Variant.MarketID] = true
			marketIDs = append(marketIDs, r.Variant.MarketID)
		}
	}

	policies, err := s.policies.GetDeliveryPolicies(ctx, marketIDs)
	if err != nil {
		return nil, domain.CartSummary{}, err
	}

	summary, marketFees := pricing.Summarize(rated, policies)
	lines := pricing.BuildLines(rated, marketFees)

	return lines, summary, nil
}
