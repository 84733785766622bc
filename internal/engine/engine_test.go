package engine

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/restockly/backend/internal/domain"
	"github.com/restockly/backend/internal/engine/reorder"
	"github.com/restockly/backend/internal/engine/report"
)

func steadySales(sku string, start time.Time, days int, qtyPerDay float64) []domain.SalesRecord {
	records := make([]domain.SalesRecord, 0, days)
	for i := 0; i < days; i++ {
		records = append(records, domain.SalesRecord{
			SKU:          sku,
			Date:         start.AddDate(0, 0, i),
			QuantitySold: qtyPerDay,
		})
	}
	return records
}

func understockedRequest() EvaluationRequest {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return EvaluationRequest{
		Inventory: []domain.InventorySnapshot{
			{SKU: "SKU001", Name: "Widget", Quantity: 5, UnitCost: 10, ReorderPoint: 20},
		},
		SalesHistory: steadySales("SKU001", start, 200, 2),
		LeadTimes: []domain.LeadTime{
			{SKU: "SKU001", SupplierID: "SUP-A", LeadTimeDays: 14},
		},
	}
}

func newTestEngine() *Engine {
	return New(Config{WorkerCount: 2}, nil, reorder.CalculatorConfig{}, report.Config{})
}

func TestForecastSKU_EmptySKUFails(t *testing.T) {
	eng := newTestEngine()

	_, err := eng.ForecastSKU(context.Background(), ForecastRequest{SKU: "  "})
	if !domain.IsInputError(err) {
		t.Errorf("expected input error, got %v", err)
	}
}

func TestRunReorderPass_EmptyInventoryFails(t *testing.T) {
	eng := newTestEngine()

	_, err := eng.RunReorderPass(context.Background(), EvaluationRequest{})
	if !domain.IsInputError(err) {
		t.Errorf("expected input error, got %v", err)
	}
}

func TestRunReorderPass_UnderstockedSKU(t *testing.T) {
	eng := newTestEngine()

	result, err := eng.RunReorderPass(context.Background(), understockedRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RunID == "" {
		t.Error("expected a run ID")
	}
	if len(result.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", result.Failures)
	}
	if len(result.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(result.Recommendations))
	}

	rec := result.Recommendations[0]
	// 2/day steady over 200 days, 14-day lead, high confidence:
	// reorder point ceil(2 x 14 x 1.1) = 31, quantity ceil(31 + 28 - 5) = 54.
	if rec.OptimizedReorderPoint != 31 {
		t.Errorf("expected optimized reorder point 31, got %v", rec.OptimizedReorderPoint)
	}
	if rec.OptimalReorderQuantity != 54 {
		t.Errorf("expected quantity 54, got %v", rec.OptimalReorderQuantity)
	}
	if rec.EstimatedCost != 540 {
		t.Errorf("expected estimated cost 540, got %v", rec.EstimatedCost)
	}
	if rec.SelectedSupplierID != "SUP-A" {
		t.Errorf("expected supplier SUP-A, got %s", rec.SelectedSupplierID)
	}

	if len(result.Forecasts["SKU001"]) != 3 {
		t.Errorf("expected forecasts for all horizons, got %v", result.Forecasts["SKU001"])
	}
	if result.Report != nil {
		t.Error("reorder pass must not synthesize a report")
	}
}

func TestRunReorderPass_WellStockedSKUGetsNoRecommendation(t *testing.T) {
	eng := newTestEngine()

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	req := EvaluationRequest{
		Inventory: []domain.InventorySnapshot{
			{SKU: "SKU002", Name: "Gadget", Quantity: 500, UnitCost: 10, ReorderPoint: 20},
		},
		SalesHistory: steadySales("SKU002", start, 60, 0.2),
		LeadTimes: []domain.LeadTime{
			{SKU: "SKU002", SupplierID: "SUP-A", LeadTimeDays: 14},
		},
	}

	result, err := eng.RunReorderPass(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Recommendations) != 0 {
		t.Errorf("expected no recommendations, got %v", result.Recommendations)
	}
	// The SKU was still evaluated: its forecasts are present.
	if len(result.Forecasts["SKU002"]) != 3 {
		t.Errorf("expected forecasts for SKU002, got %v", result.Forecasts["SKU002"])
	}
}

func TestRunReorderPass_EmptySKUIsIsolatedFailure(t *testing.T) {
	eng := newTestEngine()

	req := understockedRequest()
	req.Inventory = append(req.Inventory, domain.InventorySnapshot{SKU: "", Quantity: 10})

	result, err := eng.RunReorderPass(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %v", result.Failures)
	}
	if len(result.Recommendations) != 1 {
		t.Errorf("expected the healthy SKU to still be evaluated, got %d recommendations", len(result.Recommendations))
	}
}

func TestRunReorderPass_Deterministic(t *testing.T) {
	eng := newTestEngine()
	req := understockedRequest()
	req.Inventory = append(req.Inventory,
		domain.InventorySnapshot{SKU: "SKU003", Name: "Sprocket", Quantity: 1, UnitCost: 3, ReorderPoint: 10},
	)
	req.SalesHistory = append(req.SalesHistory,
		steadySales("SKU003", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), 90, 1)...)
	req.LeadTimes = append(req.LeadTimes,
		domain.LeadTime{SKU: "SKU003", SupplierID: "SUP-B", LeadTimeDays: 7})

	first, err := eng.RunReorderPass(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := eng.RunReorderPass(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first.Recommendations, second.Recommendations) {
		t.Errorf("recommendations differ between identical runs:\n%v\n%v",
			first.Recommendations, second.Recommendations)
	}
	if !reflect.DeepEqual(first.Forecasts, second.Forecasts) {
		t.Error("forecasts differ between identical runs")
	}
	if first.RunID == second.RunID {
		t.Error("each run must get its own run ID")
	}
}

func TestRunAnalysis_IncludesReport(t *testing.T) {
	eng := newTestEngine()

	result, err := eng.RunAnalysis(context.Background(), understockedRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Report == nil {
		t.Fatal("expected a synthesized report")
	}
	if result.Report.HealthScore < 0 || result.Report.HealthScore > 100 {
		t.Errorf("health score out of range: %v", result.Report.HealthScore)
	}
	// The lone SKU sits below its reorder point, so at least one alert.
	if len(result.Report.RiskAlerts) == 0 {
		t.Error("expected a risk alert for the understocked SKU")
	}
}

func TestRunAnalysis_BudgetConstraintAnnotates(t *testing.T) {
	eng := newTestEngine()

	req := understockedRequest()
	budget := 100.0 // far below the 540 order cost
	req.BudgetConstraint = &budget

	result, err := eng.RunAnalysis(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(result.Recommendations))
	}
	if !result.Recommendations[0].HasNote(domain.NoteBudgetLimited) {
		t.Errorf("expected budget-limited note, got %v", result.Recommendations[0].Notes)
	}
}

func TestRunReorderPass_CanceledContextYieldsPartialResult(t *testing.T) {
	eng := newTestEngine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := eng.RunReorderPass(ctx, understockedRequest())
	if err != nil {
		t.Fatalf("cancellation must not fail the batch: %v", err)
	}
	if len(result.Recommendations) != 0 {
		t.Errorf("expected no recommendations after pre-canceled context, got %v", result.Recommendations)
	}
}
