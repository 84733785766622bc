package engine

import (
	"time"

	"github.com/restockly/backend/internal/domain"
)

// ForecastRequest asks for demand predictions for a single SKU.
type ForecastRequest struct {
	SKU              string               `json:"sku"`
	SalesHistory     []domain.SalesRecord `json:"sales_history"`
	SeasonalityNotes string               `json:"seasonality_notes,omitempty"`
}

// EvaluationRequest is a complete point-in-time snapshot for a portfolio
// pass. The engine never reaches back into a store; everything it needs
// arrives here.
type EvaluationRequest struct {
	Inventory        []domain.InventorySnapshot `json:"inventory"`
	SalesHistory     []domain.SalesRecord       `json:"sales_history"`
	LeadTimes        []domain.LeadTime          `json:"lead_times,omitempty"`
	DiscountTiers    []domain.DiscountTier      `json:"discount_tiers,omitempty"`
	BudgetConstraint *float64                   `json:"budget_constraint,omitempty"`
	SeasonalityNotes string                     `json:"seasonality_notes,omitempty"`
}

// EvaluationResult is the complete output of one engine run. Failures list
// the SKUs that were dropped; their absence from Recommendations or
// Forecasts is intentional, not a bug.
type EvaluationResult struct {
	RunID           string                            `json:"run_id"`
	EvaluatedAt     time.Time                         `json:"evaluated_at"`
	Forecasts       map[string][]domain.ForecastResult `json:"forecasts"`
	Recommendations []domain.ReorderRecommendation    `json:"recommendations"`
	Report          *domain.AnalysisReport            `json:"report,omitempty"`
	Failures        []domain.SKUFailure               `json:"failures,omitempty"`
}
