package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minseoan/podomarket/internal/domain"
)

// variantColumns resolves the variant's effective pricing: a variant either
// overrides the product's price columns or inherits them. IsDisplay requires
// both the product and the variant to be visible.
const variantColumns = `
	v.id,
	p.id,
	p.market_id,
	v.option_names,
	COALESCE(v.regular_price, p.regular_price),
	COALESCE(v.discount_rate, p.discount_rate),
	v.stock,
	(p.is_display AND v.is_display),
	v.is_out_of_stock_forced`

const variantFrom = `
	FROM product_variants v
	JOIN products p ON p.id = v.product_id`

// VariantStore implements domain.VariantStore using PostgreSQL.
type VariantStore struct {
	pool *pgxpool.Pool
}

var _ domain.VariantStore = (*VariantStore)(nil)

// NewVariantStore creates a PostgreSQL-backed variant store.
func NewVariantStore(pool *pgxpool.Pool) *VariantStore {
	return &VariantStore{pool: pool}
}

func scanVariant(row pgx.Row) (domain.ProductVariant, error) {
	var v domain.ProductVariant
	err := row.Scan(
		&v.ID,
		&v.ProductID,
		&v.MarketID,
		&v.OptionNames,
		&v.RegularPrice,
		&v.DiscountRate,
		&v.Stock,
		&v.IsDisplay,
		&v.IsOutOfStockForced,
	)
	return v, err
}

// GetVariant retrieves a variant by ID with product price inheritance
// resolved.
func (s *VariantStore) GetVariant(ctx context.Context, variantID uuid.UUID) (*domain.ProductVariant, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+variantColumns+variantFrom+` WHERE v.id = $1`, variantID)

	v, err := scanVariant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVariantNotFound
		}
		return nil, domain.Internal(err, "postgres.GetVariant", "failed to get variant")
	}
	return &v, nil
}

// GetVariants retrieves variants for the given IDs in one round trip. Missing
// IDs are absent from the result.
func (s *VariantStore) GetVariants(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]domain.ProductVariant, error) {
	rows, err := s.pool.Query(ctx, `SELECT`+variantColumns+variantFrom+` WHERE v.id = ANY($1)`, variantIDs)
	if err != nil {
		return nil, domain.Internal(err, "postgres.GetVariants", "failed to query variants")
	}
	defer rows.Close()

	out := make(map[uuid.UUID]domain.ProductVariant, len(variantIDs))
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, domain.Internal(err, "postgres.GetVariants", "failed to scan variant")
		}
		out[v.ID] = v
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "postgres.GetVariants", "failed to read variants")
	}
	return out, nil
}

// DeliveryPolicyStore implements domain.DeliveryPolicyStore using PostgreSQL.
// Policies live on the markets table; a market with a NULL fee has no policy.
type DeliveryPolicyStore struct {
	pool *pgxpool.Pool
}

var _ domain.DeliveryPolicyStore = (*DeliveryPolicyStore)(nil)

// NewDeliveryPolicyStore creates a PostgreSQL-backed delivery policy store.
func NewDeliveryPolicyStore(pool *pgxpool.Pool) *DeliveryPolicyStore {
	return &DeliveryPolicyStore{pool: pool}
}

// GetDeliveryPolicies retrieves the delivery policies for the given markets.
// Markets without a configured fee are absent from the result.
func (s *DeliveryPolicyStore) GetDeliveryPolicies(ctx context.Context, marketIDs []uuid.UUID) (map[uuid.UUID]domain.DeliveryPolicy, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, delivery_fee, COALESCE(free_threshold, 0)
		FROM markets
		WHERE id = ANY($1) AND delivery_fee IS NOT NULL`, marketIDs)
	if err != nil {
		return nil, domain.Internal(err, "postgres.GetDeliveryPolicies", "failed to query delivery policies")
	}
	defer rows.Close()

	out := make(map[uuid.UUID]domain.DeliveryPolicy, len(marketIDs))
	for rows.Next() {
		var p domain.DeliveryPolicy
		if err := rows.Scan(&p.MarketID, &p.Fee, &p.FreeThreshold); err != nil {
			return nil, domain.Internal(err, "postgres.GetDeliveryPolicies", "failed to scan delivery policy")
		}
		out[p.MarketID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "postgres.GetDeliveryPolicies", "failed to read delivery policies")
	}
	return out, nil
}
