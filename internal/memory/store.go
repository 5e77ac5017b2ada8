// Package memory provides in-memory implementations of the cart engine's
// store interfaces. They back the unit tests and local development, the same
// way the shipping and tax collaborators ship mock providers.
//
// The store honors the same atomicity contract as the PostgreSQL
// implementation: one mutex guards every check-then-write, so concurrent
// mutations of the same (user, variant) pair serialize and merge instead of
// losing updates.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/minseoan/podomarket/internal/domain"
	"github.com/minseoan/podomarket/internal/stock"
)

// Store is an in-memory cart item store, variant store and delivery policy
// store in one. The zero value is not usable; use NewStore.
type Store struct {
	mu       sync.Mutex
	variants map[uuid.UUID]domain.ProductVariant
	policies map[uuid.UUID]domain.DeliveryPolicy
	items    map[uuid.UUID]domain.CartItem

	// lastTouch makes updated-at strictly increasing so list ordering is
	// deterministic even when mutations land within one clock tick.
	lastTouch time.Time
}

// Compile-time checks that Store implements the collaborator interfaces.
var (
	_ domain.CartStore           = (*Store)(nil)
	_ domain.VariantStore        = (*Store)(nil)
	_ domain.DeliveryPolicyStore = (*Store)(nil)
)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		variants: make(map[uuid.UUID]domain.ProductVariant),
		policies: make(map[uuid.UUID]domain.DeliveryPolicy),
		items:    make(map[uuid.UUID]domain.CartItem),
	}
}

// PutVariant inserts or replaces a variant.
func (s *Store) PutVariant(v domain.ProductVariant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variants[v.ID] = v
}

// SetStock rewrites a variant's stock count, mimicking the external
// inventory subsystem shrinking stock between cart calls.
func (s *Store) SetStock(variantID uuid.UUID, count int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.variants[variantID]; ok {
		v.Stock = count
		s.variants[variantID] = v
	}
}

// PutPolicy inserts or replaces a market delivery policy.
func (s *Store) PutPolicy(p domain.DeliveryPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.MarketID] = p
}

// touch returns a strictly increasing timestamp.
func (s *Store) touch() time.Time {
	now := time.Now()
	if !now.After(s.lastTouch) {
		now = s.lastTouch.Add(time.Nanosecond)
	}
	s.lastTouch = now
	return now
}

func (s *Store) findByVariant(userID, variantID uuid.UUID) (domain.CartItem, bool) {
	for _, it := range s.items {
		if it.UserID == userID && it.VariantID == variantID {
			return it, true
		}
	}
	return domain.CartItem{}, false
}

// AddItem implements domain.CartStore.
func (s *Store) AddItem(ctx context.Context, userID, variantID uuid.UUID, quantity int32) (*domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	variant, ok := s.variants[variantID]
	if !ok {
		return nil, domain.ErrVariantNotFound
	}

	existing, merged := s.findByVariant(userID, variantID)
	resulting := quantity
	if merged {
		resulting += existing.Quantity
	}
	if err := stock.Validate(variant, resulting); err != nil {
		return nil, err
	}

	now := s.touch()
	if merged {
		existing.Quantity = resulting
		existing.UpdatedAt = now
		s.items[existing.ID] = existing
		return &existing, nil
	}

	item := domain.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		VariantID: variantID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.items[item.ID] = item
	return &item, nil
}

// UpdateItem implements domain.CartStore.
func (s *Store) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, params domain.UpdateItemParams) (*domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil, domain.ErrCartItemNotFound
	}
	if item.UserID != userID {
		return nil, domain.ErrCartItemForbidden
	}

	variantID := item.VariantID
	if params.VariantID != nil {
		variantID = *params.VariantID
	}
	quantity := item.Quantity
	if params.Quantity != nil {
		quantity = *params.Quantity
	}
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	variant, ok := s.variants[variantID]
	if !ok {
		return nil, domain.ErrVariantNotFound
	}

	// Switching onto a variant that already has its own row merges the two
	// rows; the updated item's ID survives.
	resulting := quantity
	var absorb *domain.CartItem
	if variantID != item.VariantID {
		if other, found := s.findByVariant(userID, variantID); found {
			resulting += other.Quantity
			absorb = &other
		}
	}

	if err := stock.Validate(variant, resulting); err != nil {
		return nil, err
	}

	if absorb != nil {
		delete(s.items, absorb.ID)
	}

	item.VariantID = variantID
	item.Quantity = resulting
	item.UpdatedAt = s.touch()
	s.items[item.ID] = item
	return &item, nil
}

// RemoveItem implements domain.CartStore.
func (s *Store) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return false, nil
	}
	if item.UserID != userID {
		return false, domain.ErrCartItemForbidden
	}

	delete(s.items, itemID)
	return true, nil
}

// RemoveAll implements domain.CartStore.
func (s *Store) RemoveAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, it := range s.items {
		if it.UserID == userID {
			delete(s.items, id)
			removed++
		}
	}
	return removed, nil
}

// ListItems implements domain.CartStore.
func (s *Store) ListItems(ctx context.Context, userID uuid.UUID) ([]domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]domain.CartItem, 0)
	for _, it := range s.items {
		if it.UserID == userID {
			items = append(items, it)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})
	return items, nil
}

// GetVariant implements domain.VariantStore.
func (s *Store) GetVariant(ctx context.Context, variantID uuid.UUID) (*domain.ProductVariant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.variants[variantID]
	if !ok {
		return nil, domain.ErrVariantNotFound
	}
	return &v, nil
}

// GetVariants implements domain.VariantStore.
func (s *Store) GetVariants(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]domain.ProductVariant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[uuid.UUID]domain.ProductVariant, len(variantIDs))
	for _, id := range variantIDs {
		if v, ok := s.variants[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

// GetDeliveryPolicies implements domain.DeliveryPolicyStore.
func (s *Store) GetDeliveryPolicies(ctx context.Context, marketIDs []uuid.UUID) (map[uuid.UUID]domain.DeliveryPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[uuid.UUID]domain.DeliveryPolicy, len(marketIDs))
	for _, id := range marketIDs {
		if p, ok := s.policies[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}
