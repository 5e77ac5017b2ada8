package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minseoan/podomarket/internal/domain"
	"github.com/minseoan/podomarket/internal/stock"
)

// CartStore implements domain.CartStore using PostgreSQL.
//
// The unique index on (user_id, variant_id) enforces the one-row-per-variant
// invariant at the schema level; the mutating operations additionally take a
// row lock on the variant before validating stock, so concurrent mutations of
// the same pair serialize instead of racing the check.
type CartStore struct {
	pool *pgxpool.Pool
}

var _ domain.CartStore = (*CartStore)(nil)

// NewCartStore creates a PostgreSQL-backed cart store.
func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

const cartItemColumns = `id, user_id, variant_id, quantity, created_at, updated_at`

func scanCartItem(row pgx.Row) (domain.CartItem, error) {
	var it domain.CartItem
	err := row.Scan(&it.ID, &it.UserID, &it.VariantID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

// lockVariant loads a variant inside the transaction, taking a row lock that
// serializes every cart write touching it until the transaction ends.
func lockVariant(ctx context.Context, tx pgx.Tx, variantID uuid.UUID) (domain.ProductVariant, error) {
	row := tx.QueryRow(ctx, `SELECT`+variantColumns+variantFrom+` WHERE v.id = $1 FOR UPDATE OF v`, variantID)

	v, err := scanVariant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ProductVariant{}, domain.ErrVariantNotFound
		}
		return domain.ProductVariant{}, domain.Internal(err, "postgres.lockVariant", "failed to lock variant")
	}
	return v, nil
}

// AddItem upserts a cart row for (userID, variantID), merging quantities when
// the row already exists. The resulting quantity is validated against stock
// inside the transaction.
func (s *CartStore) AddItem(ctx context.Context, userID, variantID uuid.UUID, quantity int32) (*domain.CartItem, error) {
	var item domain.CartItem

	err := withTx(ctx, s.pool, func(tx pgx.Tx) error {
		variant, err := lockVariant(ctx, tx, variantID)
		if err != nil {
			return err
		}

		// Under the variant lock no concurrent writer can change this row,
		// so read-then-validate-then-upsert is race free.
		var existing int32
		err = tx.QueryRow(ctx, `
			SELECT quantity FROM cart_items
			WHERE user_id = $1 AND variant_id = $2`, userID, variantID).Scan(&existing)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return domain.Internal(err, "postgres.AddItem", "failed to read existing quantity")
		}

		if err := stock.Validate(variant, existing+quantity); err != nil {
			return err
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO cart_items (id, user_id, variant_id, quantity)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, variant_id) DO UPDATE
			SET quantity = cart_items.quantity + EXCLUDED.quantity,
			    updated_at = now()
			RETURNING `+cartItemColumns, uuid.New(), userID, variantID, quantity)

		item, err = scanCartItem(row)
		if err != nil {
			return domain.Internal(err, "postgres.AddItem", "failed to upsert cart item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem rewrites an item's variant and/or quantity. Switching onto a
// variant that already has its own row in the cart merges the two rows: the
// updated item's ID survives and the other row is deleted.
func (s *CartStore) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, params domain.UpdateItemParams) (*domain.CartItem, error) {
	var item domain.CartItem

	err := withTx(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT `+cartItemColumns+` FROM cart_items
			WHERE id = $1 FOR UPDATE`, itemID)
		current, err := scanCartItem(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrCartItemNotFound
			}
			return domain.Internal(err, "postgres.UpdateItem", "failed to load cart item")
		}
		if current.UserID != userID {
			return domain.ErrCartItemForbidden
		}

		variantID := current.VariantID
		if params.VariantID != nil {
			variantID = *params.VariantID
		}
		quantity := current.Quantity
		if params.Quantity != nil {
			quantity = *params.Quantity
		}
		if quantity < 1 {
			return domain.ErrInvalidQuantity
		}

		variant, err := lockVariant(ctx, tx, variantID)
		if err != nil {
			return err
		}

		resulting := quantity
		if variantID != current.VariantID {
			var absorbID uuid.UUID
			var absorbQty int32
			err = tx.QueryRow(ctx, `
				SELECT id, quantity FROM cart_items
				WHERE user_id = $1 AND variant_id = $2
				FOR UPDATE`, userID, variantID).Scan(&absorbID, &absorbQty)
			switch {
			case err == nil:
				resulting += absorbQty
				if err := stock.Validate(variant, resulting); err != nil {
					return err
				}
				if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, absorbID); err != nil {
					return domain.Internal(err, "postgres.UpdateItem", "failed to absorb colliding cart item")
				}
			case errors.Is(err, pgx.ErrNoRows):
				if err := stock.Validate(variant, resulting); err != nil {
					return err
				}
			default:
				return domain.Internal(err, "postgres.UpdateItem", "failed to check for colliding cart item")
			}
		} else if err := stock.Validate(variant, resulting); err != nil {
			return err
		}

		row = tx.QueryRow(ctx, `
			UPDATE cart_items
			SET variant_id = $1, quantity = $2, updated_at = now()
			WHERE id = $3
			RETURNING `+cartItemColumns, variantID, resulting, itemID)

		item, err = scanCartItem(row)
		if err != nil {
			return domain.Internal(err, "postgres.UpdateItem", "failed to update cart item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveItem deletes a cart item by ID. An absent item is not an error;
// another user's item is forbidden.
func (s *CartStore) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	var ownerID uuid.UUID
	err := s.pool.QueryRow(ctx, `SELECT user_id FROM cart_items WHERE id = $1`, itemID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, domain.Internal(err, "postgres.RemoveItem", "failed to load cart item")
	}
	if ownerID != userID {
		return false, domain.ErrCartItemForbidden
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return false, domain.Internal(err, "postgres.RemoveItem", "failed to delete cart item")
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveAll deletes every item of the user's cart.
func (s *CartStore) RemoveAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return 0, domain.Internal(err, "postgres.RemoveAll", "failed to clear cart")
	}
	return tag.RowsAffected(), nil
}

// ListItems returns the user's cart items, most recently touched first.
func (s *CartStore) ListItems(ctx context.Context, userID uuid.UUID) ([]domain.CartItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+cartItemColumns+` FROM cart_items
		WHERE user_id = $1
		ORDER BY updated_at DESC, id`, userID)
	if err != nil {
		return nil, domain.Internal(err, "postgres.ListItems", "failed to query cart items")
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0)
	for rows.Next() {
		it, err := scanCartItem(rows)
		if err != nil {
			return nil, domain.Internal(err, "postgres.ListItems", "failed to scan cart item")
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "postgres.ListItems", "failed to read cart items")
	}
	return items, nil
}
