// backend/internal/domain/models.go
package domain

import "time"

// SalesRecord is a single day's sales for a SKU. Records are append-only;
// callers are expected to pre-sum duplicates for the same (sku, date).
type SalesRecord struct {
	SKU          string    `json:"sku" db:"sku"`
	Date         time.Time `json:"date" db:"date"`
	QuantitySold float64   `json:"quantity_sold" db:"quantity_sold"`
}

// InventorySnapshot is the on-hand state of one SKU at evaluation time.
type InventorySnapshot struct {
	SKU          string  `json:"sku" db:"sku"`
	Name         string  `json:"name" db:"name"`
	Quantity     float64 `json:"quantity" db:"quantity"`
	UnitCost     float64 `json:"unit_cost" db:"unit_cost"`
	ReorderPoint float64 `json:"reorder_point" db:"reorder_point"`
	Category     string  `json:"category" db:"category"`
}

// Value is the inventory value currently held for this SKU.
func (s InventorySnapshot) Value() float64 {
	return s.Quantity * s.UnitCost
}

// LeadTime is one supplier's delivery offer for a SKU. A SKU may carry
// several of these (one per supplier).
type LeadTime struct {
	SKU          string `json:"sku" db:"sku"`
	SupplierID   string `json:"supplier_id" db:"supplier_id"`
	LeadTimeDays int    `json:"lead_time_days" db:"lead_time_days"`
}

// DiscountTier is a bulk-discount threshold offered by a supplier for a SKU.
// Input ordering is not trusted; the optimizer always takes the best
// applicable discount.
type DiscountTier struct {
	SupplierID         string  `json:"supplier_id" db:"supplier_id"`
	SKU                string  `json:"sku" db:"sku"`
	MinQuantity        float64 `json:"min_quantity" db:"min_quantity"`
	DiscountPercentage float64 `json:"discount_percentage" db:"discount_percentage"`
}

// ForecastResult is a point demand prediction for one SKU over one horizon.
// Explanation is human-readable only; nothing downstream parses it.
type ForecastResult struct {
	SKU             string     `json:"sku"`
	HorizonDays     int        `json:"horizon_days"`
	PredictedDemand float64    `json:"predicted_demand"`
	Confidence      Confidence `json:"confidence"`
	Explanation     string     `json:"explanation,omitempty"`
}

// ReorderRecommendation is an actionable restock suggestion for one SKU.
// Absence of a recommendation for a SKU means no reorder is needed this cycle.
type ReorderRecommendation struct {
	SKU                    string   `json:"sku"`
	ProductName            string   `json:"product_name"`
	CurrentQuantity        float64  `json:"current_quantity"`
	CurrentReorderPoint    float64  `json:"current_reorder_point"`
	OptimizedReorderPoint  float64  `json:"optimized_reorder_point"`
	OptimalReorderQuantity float64  `json:"optimal_reorder_quantity"`
	SelectedSupplierID     string   `json:"selected_supplier_id,omitempty"`
	EstimatedCost          float64  `json:"estimated_cost"`
	Notes                  []string `json:"notes,omitempty"`
}

// HasNote reports whether the recommendation carries the given annotation.
func (r *ReorderRecommendation) HasNote(note string) bool {
	for _, n := range r.Notes {
		if n == note {
			return true
		}
	}
	return false
}

// AnalysisReport is a portfolio-level snapshot computed fresh on each call.
// It is derived data and is never updated incrementally.
type AnalysisReport struct {
	HealthScore       float64             `json:"health_score"`
	Opportunities     []string            `json:"opportunities"`
	RiskAlerts        []string            `json:"risk_alerts"`
	ABCCategorization map[string][]string `json:"abc_categorization"`
	SuggestedActions  []string            `json:"suggested_actions"`
}
