// backend/internal/repository/postgres/snapshot_repository.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/restockly/backend/internal/domain"
	"github.com/restockly/backend/internal/repository"
)

type snapshotRepository struct {
	db *DB
}

func NewSnapshotRepository(db *DB) repository.SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) GetInventory(ctx context.Context) ([]domain.InventorySnapshot, error) {
	query := `
		SELECT sku, name, quantity, unit_cost, reorder_point, category
		FROM inventory_items
		ORDER BY sku
	`

	var items []domain.InventorySnapshot
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("error getting inventory snapshot: %w", err)
	}

	return items, nil
}

func (r *snapshotRepository) GetSalesHistory(ctx context.Context, since time.Time) ([]domain.SalesRecord, error) {
	// Duplicate (sku, date) rows are summed here so the engine receives the
	// series it expects.
	query := `
		SELECT sku, date, SUM(quantity_sold) AS quantity_sold
		FROM sales_records
		WHERE date >= $1
		GROUP BY sku, date
		ORDER BY sku, date
	`

	var records []domain.SalesRecord
	if err := r.db.SelectContext(ctx, &records, query, since); err != nil {
		return nil, fmt.Errorf("error getting sales history: %w", err)
	}

	return records, nil
}

func (r *snapshotRepository) GetLeadTimes(ctx context.Context) ([]domain.LeadTime, error) {
	query := `
		SELECT sku, supplier_id, lead_time_days
		FROM supplier_lead_times
		ORDER BY sku, supplier_id
	`

	var leadTimes []domain.LeadTime
	if err := r.db.SelectContext(ctx, &leadTimes, query); err != nil {
		return nil, fmt.Errorf("error getting lead times: %w", err)
	}

	return leadTimes, nil
}

func (r *snapshotRepository) GetDiscountTiers(ctx context.Context) ([]domain.DiscountTier, error) {
	query := `
		SELECT supplier_id, sku, min_quantity, discount_percentage
		FROM supplier_discount_tiers
		ORDER BY supplier_id, sku, min_quantity
	`

	var tiers []domain.DiscountTier
	if err := r.db.SelectContext(ctx, &tiers, query); err != nil {
		return nil, fmt.Errorf("error getting discount tiers: %w", err)
	}

	return tiers, nil
}

func (r *snapshotRepository) SaveRecommendations(ctx context.Context, runID string, recs []domain.ReorderRecommendation) error {
	if len(recs) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO reorder_recommendations (
				run_id, sku, product_name, current_quantity, current_reorder_point,
				optimized_reorder_point, optimal_reorder_quantity,
				selected_supplier_id, estimated_cost, notes, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (run_id, sku) DO NOTHING
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		now := time.Now()
		for _, rec := range recs {
			_, err := stmt.ExecContext(
				ctx,
				runID,
				rec.SKU,
				rec.ProductName,
				rec.CurrentQuantity,
				rec.CurrentReorderPoint,
				rec.OptimizedReorderPoint,
				rec.OptimalReorderQuantity,
				nullIfEmpty(rec.SelectedSupplierID),
				rec.EstimatedCost,
				strings.Join(rec.Notes, "; "),
				now,
			)
			if err != nil {
				return fmt.Errorf("failed to insert recommendation for %s: %w", rec.SKU, err)
			}
		}

		return nil
	})
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
