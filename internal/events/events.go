package events

import "time"

// Event types published to the analysis topic.
const (
	TypeReorderRecommended = "reorder.recommended"
	TypeAnalysisCompleted  = "analysis.completed"
)

// ReorderRecommendedEvent is emitted once per recommendation so downstream
// consumers (purchasing, notifications) can react per SKU.
type ReorderRecommendedEvent struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	RunID         string    `json:"run_id"`
	SKU           string    `json:"sku"`
	SupplierID    string    `json:"supplier_id,omitempty"`
	Quantity      float64   `json:"quantity"`
	EstimatedCost float64   `json:"estimated_cost"`
	BudgetLimited bool      `json:"budget_limited"`
	Timestamp     time.Time `json:"timestamp"`
}

// AnalysisCompletedEvent summarizes a finished evaluation run.
type AnalysisCompletedEvent struct {
	EventID         string    `json:"event_id"`
	EventType       string    `json:"event_type"`
	RunID           string    `json:"run_id"`
	SKUCount        int       `json:"sku_count"`
	Recommendations int       `json:"recommendations"`
	Failures        int       `json:"failures"`
	HealthScore     *float64  `json:"health_score,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}
