package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/restockly/backend/internal/domain"
	"github.com/restockly/backend/internal/engine"
	"github.com/restockly/backend/internal/engine/reorder"
	"github.com/restockly/backend/internal/engine/report"
	"github.com/restockly/backend/internal/events"
)

// fakeRepo serves a fixed snapshot and records saved recommendations.
type fakeRepo struct {
	inventory []domain.InventorySnapshot
	sales     []domain.SalesRecord
	leadTimes []domain.LeadTime
	tiers     []domain.DiscountTier

	savedRunID string
	savedRecs  []domain.ReorderRecommendation
	saveErr    error
}

func (f *fakeRepo) GetInventory(ctx context.Context) ([]domain.InventorySnapshot, error) {
	return f.inventory, nil
}

func (f *fakeRepo) GetSalesHistory(ctx context.Context, since time.Time) ([]domain.SalesRecord, error) {
	return f.sales, nil
}

func (f *fakeRepo) GetLeadTimes(ctx context.Context) ([]domain.LeadTime, error) {
	return f.leadTimes, nil
}

func (f *fakeRepo) GetDiscountTiers(ctx context.Context) ([]domain.DiscountTier, error) {
	return f.tiers, nil
}

func (f *fakeRepo) SaveRecommendations(ctx context.Context, runID string, recs []domain.ReorderRecommendation) error {
	f.savedRunID = runID
	f.savedRecs = recs
	return f.saveErr
}

// capturePublisher records every published event.
type capturePublisher struct {
	recommended []events.ReorderRecommendedEvent
	completed   []events.AnalysisCompletedEvent
}

func (p *capturePublisher) PublishReorderRecommended(ctx context.Context, event events.ReorderRecommendedEvent) error {
	p.recommended = append(p.recommended, event)
	return nil
}

func (p *capturePublisher) PublishAnalysisCompleted(ctx context.Context, event events.AnalysisCompletedEvent) error {
	p.completed = append(p.completed, event)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

// memoryArchive stores uploaded objects by key.
type memoryArchive struct {
	objects map[string][]byte
}

func (a *memoryArchive) UploadObject(ctx context.Context, key, contentType string, data []byte) error {
	if a.objects == nil {
		a.objects = map[string][]byte{}
	}
	a.objects[key] = data
	return nil
}

// countingCache wraps a single stored result to exercise the cache-aside path.
type countingCache struct {
	stored *engine.EvaluationResult
	gets   int
	sets   int
}

func (c *countingCache) GetResult(ctx context.Context, req engine.EvaluationRequest) (*engine.EvaluationResult, bool, error) {
	c.gets++
	if c.stored != nil {
		return c.stored, true, nil
	}
	return nil, false, nil
}

func (c *countingCache) SetResult(ctx context.Context, req engine.EvaluationRequest, result *engine.EvaluationResult) error {
	c.sets++
	c.stored = result
	return nil
}

func (c *countingCache) InvalidateAll(ctx context.Context) error {
	c.stored = nil
	return nil
}

func testSnapshot() *fakeRepo {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sales := make([]domain.SalesRecord, 0, 200)
	for i := 0; i < 200; i++ {
		sales = append(sales, domain.SalesRecord{
			SKU:          "SKU001",
			Date:         start.AddDate(0, 0, i),
			QuantitySold: 2,
		})
	}
	return &fakeRepo{
		inventory: []domain.InventorySnapshot{
			{SKU: "SKU001", Name: "Widget", Quantity: 5, UnitCost: 10, ReorderPoint: 20},
		},
		sales: sales,
		leadTimes: []domain.LeadTime{
			{SKU: "SKU001", SupplierID: "SUP-A", LeadTimeDays: 14},
		},
	}
}

func testEngine() *engine.Engine {
	return engine.New(engine.Config{WorkerCount: 2}, nil, reorder.CalculatorConfig{}, report.Config{})
}

func TestRunStoredAnalysis_PersistsAndPublishes(t *testing.T) {
	repo := testSnapshot()
	pub := &capturePublisher{}
	arch := &memoryArchive{}

	svc := NewAnalysisService(testEngine(), nil,
		WithSnapshotRepository(repo),
		WithPublisher(pub),
		WithArchive(arch),
	)

	result, err := svc.RunStoredAnalysis(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Report == nil {
		t.Fatal("expected a report from stored analysis")
	}
	if len(result.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(result.Recommendations))
	}

	if repo.savedRunID != result.RunID {
		t.Errorf("expected recommendations persisted under run %s, got %s", result.RunID, repo.savedRunID)
	}
	if len(repo.savedRecs) != 1 {
		t.Errorf("expected 1 saved recommendation, got %d", len(repo.savedRecs))
	}

	if len(pub.recommended) != 1 {
		t.Fatalf("expected 1 recommendation event, got %d", len(pub.recommended))
	}
	if pub.recommended[0].SKU != "SKU001" || pub.recommended[0].RunID != result.RunID {
		t.Errorf("unexpected recommendation event: %+v", pub.recommended[0])
	}
	if len(pub.completed) != 1 {
		t.Fatalf("expected 1 completion event, got %d", len(pub.completed))
	}
	if pub.completed[0].HealthScore == nil {
		t.Error("expected completion event to carry the health score")
	}

	if len(arch.objects) != 2 {
		t.Fatalf("expected report and CSV archived, got keys %v", archiveKeys(arch))
	}
	for key := range arch.objects {
		if !strings.Contains(key, result.RunID) {
			t.Errorf("archive key %q missing run ID", key)
		}
	}
}

func TestRunStoredAnalysis_NoRepositoryFails(t *testing.T) {
	svc := NewAnalysisService(testEngine(), nil)

	if _, err := svc.RunStoredAnalysis(context.Background(), nil); err == nil {
		t.Error("expected error without a snapshot repository")
	}
}

func TestRunStoredAnalysis_SaveFailureIsNotFatal(t *testing.T) {
	repo := testSnapshot()
	repo.saveErr = fmt.Errorf("connection reset")
	svc := NewAnalysisService(testEngine(), nil, WithSnapshotRepository(repo))

	result, err := svc.RunStoredAnalysis(context.Background(), nil)
	if err != nil {
		t.Fatalf("persistence failure must not fail the run: %v", err)
	}
	if len(result.Recommendations) != 1 {
		t.Errorf("expected the evaluation result regardless, got %+v", result)
	}
}

func TestRunAnalysis_CacheAside(t *testing.T) {
	repo := testSnapshot()
	c := &countingCache{}
	svc := NewAnalysisService(testEngine(), c, WithSnapshotRepository(repo))

	req := engine.EvaluationRequest{
		Inventory:    repo.inventory,
		SalesHistory: repo.sales,
		LeadTimes:    repo.leadTimes,
	}

	first, err := svc.RunAnalysis(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.sets != 1 {
		t.Errorf("expected result cached after miss, sets=%d", c.sets)
	}

	second, err := svc.RunAnalysis(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.gets != 2 {
		t.Errorf("expected 2 cache lookups, got %d", c.gets)
	}
	if c.sets != 1 {
		t.Errorf("cache hit must not re-store, sets=%d", c.sets)
	}
	if second.RunID != first.RunID {
		t.Errorf("expected the cached result verbatim: %s vs %s", first.RunID, second.RunID)
	}
}

func TestForecast_DelegatesToEngine(t *testing.T) {
	svc := NewAnalysisService(testEngine(), nil)

	repo := testSnapshot()
	results, err := svc.Forecast(context.Background(), engine.ForecastRequest{
		SKU:          "SKU001",
		SalesHistory: repo.sales,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected forecasts for all horizons, got %v", results)
	}
	for _, f := range results {
		if f.Confidence != domain.ConfidenceHigh {
			t.Errorf("expected high confidence for long steady history, got %s", f.Confidence)
		}
	}
}

func archiveKeys(a *memoryArchive) []string {
	keys := make([]string, 0, len(a.objects))
	for k := range a.objects {
		keys = append(keys, k)
	}
	return keys
}
