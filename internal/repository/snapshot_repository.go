// backend/internal/repository/snapshot_repository.go
package repository

import (
	"context"
	"time"

	"github.com/restockly/backend/internal/domain"
)

// SnapshotRepository reads the point-in-time inputs an evaluation needs and
// persists the recommendations it produced. The engine itself never touches
// this; only the orchestrating service does.
type SnapshotRepository interface {
	GetInventory(ctx context.Context) ([]domain.InventorySnapshot, error)
	GetSalesHistory(ctx context.Context, since time.Time) ([]domain.SalesRecord, error)
	GetLeadTimes(ctx context.Context) ([]domain.LeadTime, error)
	GetDiscountTiers(ctx context.Context) ([]domain.DiscountTier, error)
	SaveRecommendations(ctx context.Context, runID string, recs []domain.ReorderRecommendation) error
}
