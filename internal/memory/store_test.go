package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minseoan/podomarket/internal/domain"
	"github.com/minseoan/podomarket/internal/memory"
)

func seedVariant(s *memory.Store, stock int32) domain.ProductVariant {
	v := domain.ProductVariant{
		ID:           uuid.New(),
		ProductID:    uuid.New(),
		MarketID:     uuid.New(),
		RegularPrice: 10000,
		Stock:        stock,
		IsDisplay:    true,
	}
	s.PutVariant(v)
	return v
}

func TestStore_AddItem_MergesSameVariant(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	user := uuid.New()
	v := seedVariant(store, 10)

	first, err := store.AddItem(ctx, user, v.ID, 2)
	require.NoError(t, err)

	second, err := store.AddItem(ctx, user, v.ID, 3)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "merging must not create a second row")
	assert.Equal(t, int32(5), second.Quantity)

	items, err := store.ListItems(ctx, user)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestStore_AddItem_ValidatesResultingQuantity(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	user := uuid.New()
	v := seedVariant(store, 5)

	_, err := store.AddItem(ctx, user, v.ID, 4)
	require.NoError(t, err)

	// 4 already in the cart; adding 2 more would exceed stock even though 2
	// alone would fit.
	_, err = store.AddItem(ctx, user, v.ID, 2)
	assert.ErrorIs(t, err, domain.ErrStockInsufficient)

	items, err := store.ListItems(ctx, user)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int32(4), items[0].Quantity, "a failed add must leave the row untouched")
}

func TestStore_AddItem_UnknownVariant(t *testing.T) {
	store := memory.NewStore()

	_, err := store.AddItem(context.Background(), uuid.New(), uuid.New(), 1)

	assert.ErrorIs(t, err, domain.ErrVariantNotFound)
}

func TestStore_AddItem_ConcurrentAddsSerialize(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	user := uuid.New()
	v := seedVariant(store, 1000)

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := store.AddItem(ctx, user, v.ID, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	items, err := store.ListItems(ctx, user)
	require.NoError(t, err)
	require.Len(t, items, 1, "concurrent adds for one variant must collapse into one row")
	assert.Equal(t, int32(workers), items[0].Quantity)
}

func TestStore_UpdateItem_Quantity(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	user := uuid.New()
	v := seedVariant(store, 10)

	item, err := store.AddItem(ctx, user, v.ID, 2)
	require.NoError(t, err)

	qty := int32(7)
	updated, err := store.UpdateItem(ctx, user, item.ID, domain.UpdateItemParams{Quantity: &qty})
	require.NoError(t, err)

	assert.Equal(t, item.ID, updated.ID)
	assert.Equal(t, int32(7), updated.Quantity)
	assert.Equal(t, item.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(item.UpdatedAt))
}

func TestStore_UpdateItem_VariantSwitchMergesCollision(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	user := uuid.New()
	red := seedVariant(store, 20)
	blue := seedVariant(store, 20)

	redItem, err := store.AddItem(ctx, user, red.ID, 2)
	require.NoError(t, err)
	blueItem, err := store.AddItem(ctx, user, blue.ID, 3)
	require.NoError(t, err)

	// Switch the red line onto blue: quantities merge, the updated item's ID
	// survives, the pre-existing blue row disappears.
	updated, err := store.UpdateItem(ctx, user, redItem.ID, domain.UpdateItemParams{VariantID: &blue.ID})
	require.NoError(t, err)

	assert.Equal(t, redItem.ID, updated.ID)
	assert.Equal(t, blue.ID, updated.VariantID)
	assert.Equal(t, int32(5), updated.Quantity)

	items, err := store.ListItems(ctx, user)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.NotEqual(t, blueItem.ID, items[0].ID)
}

func TestStore_UpdateItem_Errors(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	owner := uuid.New()
	v := seedVariant(store, 10)

	item, err := store.AddItem(ctx, owner, v.ID, 1)
	require.NoError(t, err)

	qty := int32(2)

	t.Run("unknown item", func(t *testing.T) {
		_, err := store.UpdateItem(ctx, owner, uuid.New(), domain.UpdateItemParams{Quantity: &qty})
		assert.ErrorIs(t, err, domain.ErrCartItemNotFound)
	})

	t.Run("foreign owner", func(t *testing.T) {
		_, err := store.UpdateItem(ctx, uuid.New(), item.ID, domain.UpdateItemParams{Quantity: &qty})
		assert.ErrorIs(t, err, domain.ErrCartItemForbidden)
	})

	t.Run("zero quantity", func(t *testing.T) {
		zero := int32(0)
		_, err := store.UpdateItem(ctx, owner, item.ID, domain.UpdateItemParams{Quantity: &zero})
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	})

	t.Run("unknown target variant", func(t *testing.T) {
		missing := uuid.New()
		_, err := store.UpdateItem(ctx, owner, item.ID, domain.UpdateItemParams{VariantID: &missing})
		assert.ErrorIs(t, err, domain.ErrVariantNotFound)
	})
}

func TestStore_RemoveItem(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	owner := uuid.New()
	v := seedVariant(store, 10)

	item, err := store.AddItem(ctx, owner, v.ID, 1)
	require.NoError(t, err)

	t.Run("foreign owner forbidden", func(t *testing.T) {
		removed, err := store.RemoveItem(ctx, uuid.New(), item.ID)
		assert.ErrorIs(t, err, domain.ErrCartItemForbidden)
		assert.False(t, removed)
	})

	t.Run("removes own item", func(t *testing.T) {
		removed, err := store.RemoveItem(ctx, owner, item.ID)
		require.NoError(t, err)
		assert.True(t, removed)
	})

	t.Run("second remove is a no-op", func(t *testing.T) {
		removed, err := store.RemoveItem(ctx, owner, item.ID)
		require.NoError(t, err)
		assert.False(t, removed)
	})
}

func TestStore_RemoveAll(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	user := uuid.New()
	other := uuid.New()

	for i := 0; i < 3; i++ {
		v := seedVariant(store, 10)
		_, err := store.AddItem(ctx, user, v.ID, 1)
		require.NoError(t, err)
	}
	keep := seedVariant(store, 10)
	_, err := store.AddItem(ctx, other, keep.ID, 1)
	require.NoError(t, err)

	removed, err := store.RemoveAll(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	again, err := store.RemoveAll(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(0), again)

	items, err := store.ListItems(ctx, other)
	require.NoError(t, err)
	assert.Len(t, items, 1, "clearing one cart must not touch another user's")
}

func TestStore_ListItems_MostRecentlyTouchedFirst(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	user := uuid.New()

	a := seedVariant(store, 10)
	b := seedVariant(store, 10)
	c := seedVariant(store, 10)

	itemA, err := store.AddItem(ctx, user, a.ID, 1)
	require.NoError(t, err)
	_, err = store.AddItem(ctx, user, b.ID, 1)
	require.NoError(t, err)
	_, err = store.AddItem(ctx, user, c.ID, 1)
	require.NoError(t, err)

	// Touching the oldest item moves it to the front.
	_, err = store.AddItem(ctx, user, a.ID, 1)
	require.NoError(t, err)

	items, err := store.ListItems(ctx, user)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, itemA.ID, items[0].ID)
	assert.Equal(t, c.ID, items[1].VariantID)
	assert.Equal(t, b.ID, items[2].VariantID)
}

func TestStore_GetVariants_MissingIDsAbsent(t *testing.T) {
	store := memory.NewStore()
	v := seedVariant(store, 10)
	missing := uuid.New()

	got, err := store.GetVariants(context.Background(), []uuid.UUID{v.ID, missing})
	require.NoError(t, err)

	assert.Len(t, got, 1)
	assert.Contains(t, got, v.ID)
	assert.NotContains(t, got, missing)
}
