package reorder

import (
	"testing"

	"github.com/restockly/backend/internal/domain"
)

func candidate(sku, supplier string, lead int, qty, unitCost float64) Candidate {
	return Candidate{
		Inventory:              domain.InventorySnapshot{SKU: sku, Name: sku, UnitCost: unitCost},
		SupplierID:             supplier,
		LeadTimeDays:           lead,
		Confidence:             domain.ConfidenceHigh,
		OptimalReorderQuantity: qty,
	}
}

func hasNote(rec *domain.ReorderRecommendation, note string) bool {
	for _, n := range rec.Notes {
		if n == note {
			return true
		}
	}
	return false
}

func TestSelectBestOffer_NoCandidatesIsNil(t *testing.T) {
	opt := NewOptimizer()
	if rec := opt.SelectBestOffer(nil, nil, nil); rec != nil {
		t.Errorf("expected nil recommendation, got %+v", rec)
	}
}

func TestSelectBestOffer_CheapestSupplierWins(t *testing.T) {
	opt := NewOptimizer()
	candidates := []Candidate{
		candidate("SKU001", "SUP-A", 7, 100, 10),  // 1000
		candidate("SKU001", "SUP-B", 21, 100, 8), // 800
	}

	rec := opt.SelectBestOffer(candidates, nil, nil)
	if rec == nil {
		t.Fatal("expected a recommendation")
	}
	if rec.SelectedSupplierID != "SUP-B" {
		t.Errorf("expected SUP-B, got %s", rec.SelectedSupplierID)
	}
	if rec.EstimatedCost != 800 {
		t.Errorf("expected cost 800, got %v", rec.EstimatedCost)
	}
}

func TestSelectBestOffer_CostTieBreaksOnLeadTime(t *testing.T) {
	opt := NewOptimizer()
	candidates := []Candidate{
		candidate("SKU001", "SUP-SLOW", 21, 100, 10),
		candidate("SKU001", "SUP-FAST", 7, 100, 10),
	}

	rec := opt.SelectBestOffer(candidates, nil, nil)
	if rec == nil {
		t.Fatal("expected a recommendation")
	}
	if rec.SelectedSupplierID != "SUP-FAST" {
		t.Errorf("expected tie broken toward shorter lead time, got %s", rec.SelectedSupplierID)
	}
}

func TestSelectBestOffer_BulkDiscountBumpTaken(t *testing.T) {
	opt := NewOptimizer()
	candidates := []Candidate{candidate("SKU001", "SUP-A", 7, 95, 10)}
	tiers := []domain.DiscountTier{
		{SupplierID: "SUP-A", SKU: "SKU001", MinQuantity: 100, DiscountPercentage: 10},
	}

	rec := opt.SelectBestOffer(candidates, tiers, nil)
	if rec == nil {
		t.Fatal("expected a recommendation")
	}
	// 95 x 10 = 950 undiscounted; bumping to 100 x 10 x 0.9 = 900 is cheaper.
	if rec.OptimalReorderQuantity != 100 {
		t.Errorf("expected quantity bumped to 100, got %v", rec.OptimalReorderQuantity)
	}
	if rec.EstimatedCost != 900 {
		t.Errorf("expected cost 900, got %v", rec.EstimatedCost)
	}
	if !hasNote(rec, domain.NoteBulkDiscount) {
		t.Errorf("expected note %q, got %v", domain.NoteBulkDiscount, rec.Notes)
	}
}

func TestSelectBestOffer_BulkDiscountBumpSkippedWhenCostlier(t *testing.T) {
	opt := NewOptimizer()
	candidates := []Candidate{candidate("SKU001", "SUP-A", 7, 50, 10)}
	tiers := []domain.DiscountTier{
		{SupplierID: "SUP-A", SKU: "SKU001", MinQuantity: 100, DiscountPercentage: 10},
	}

	rec := opt.SelectBestOffer(candidates, tiers, nil)
	if rec == nil {
		t.Fatal("expected a recommendation")
	}
	// 50 x 10 = 500 beats 100 x 10 x 0.9 = 900: stay at the computed quantity.
	if rec.OptimalReorderQuantity != 50 {
		t.Errorf("expected quantity 50, got %v", rec.OptimalReorderQuantity)
	}
	if rec.EstimatedCost != 500 {
		t.Errorf("expected cost 500, got %v", rec.EstimatedCost)
	}
	if hasNote(rec, domain.NoteBulkDiscount) {
		t.Errorf("unexpected bulk-discount note: %v", rec.Notes)
	}
}

func TestSelectBestOffer_BulkDiscountBumpSkippedOverBudget(t *testing.T) {
	opt := NewOptimizer()
	candidates := []Candidate{candidate("SKU001", "SUP-A", 7, 95, 10)}
	tiers := []domain.DiscountTier{
		{SupplierID: "SUP-A", SKU: "SKU001", MinQuantity: 100, DiscountPercentage: 10},
	}
	budget := 920.0

	rec := opt.SelectBestOffer(candidates, tiers, &budget)
	if rec == nil {
		t.Fatal("expected a recommendation")
	}
	// Bump cost 900 fits the 920 budget, so it is still taken.
	if rec.EstimatedCost != 900 {
		t.Errorf("expected cost 900, got %v", rec.EstimatedCost)
	}

	tight := 899.0
	rec = opt.SelectBestOffer(candidates, tiers, &tight)
	if rec == nil {
		t.Fatal("expected a recommendation")
	}
	if rec.OptimalReorderQuantity != 95 {
		t.Errorf("expected bump skipped under tight budget, got quantity %v", rec.OptimalReorderQuantity)
	}
}

func TestSelectBestOffer_DiscountAppliedToComputedQuantity(t *testing.T) {
	opt := NewOptimizer()
	candidates := []Candidate{candidate("SKU001", "SUP-A", 7, 120, 10)}
	tiers := []domain.DiscountTier{
		{SupplierID: "SUP-A", SKU: "SKU001", MinQuantity: 50, DiscountPercentage: 5},
		{SupplierID: "SUP-A", SKU: "SKU001", MinQuantity: 100, DiscountPercentage: 10},
	}

	rec := opt.SelectBestOffer(candidates, tiers, nil)
	if rec == nil {
		t.Fatal("expected a recommendation")
	}
	// 120 meets the 10% tier: 120 x 10 x 0.9 = 1080.
	if rec.EstimatedCost != 1080 {
		t.Errorf("expected cost 1080, got %v", rec.EstimatedCost)
	}
	if rec.OptimalReorderQuantity != 120 {
		t.Errorf("expected quantity unchanged at 120, got %v", rec.OptimalReorderQuantity)
	}
}

func TestSelectBestOffer_OtherSupplierTiersIgnored(t *testing.T) {
	opt := NewOptimizer()
	candidates := []Candidate{candidate("SKU001", "SUP-A", 7, 100, 10)}
	tiers := []domain.DiscountTier{
		{SupplierID: "SUP-B", SKU: "SKU001", MinQuantity: 100, DiscountPercentage: 50},
		{SupplierID: "SUP-A", SKU: "SKU002", MinQuantity: 100, DiscountPercentage: 50},
	}

	rec := opt.SelectBestOffer(candidates, tiers, nil)
	if rec == nil {
		t.Fatal("expected a recommendation")
	}
	if rec.EstimatedCost != 1000 {
		t.Errorf("expected undiscounted cost 1000, got %v", rec.EstimatedCost)
	}
}

func TestSelectBestOffer_BudgetLimitedFallsBackToCheapest(t *testing.T) {
	opt := NewOptimizer()
	candidates := []Candidate{
		candidate("SKU001", "SUP-A", 7, 100, 10), // 1000
		candidate("SKU001", "SUP-B", 14, 100, 9), // 900
	}
	budget := 500.0

	rec := opt.SelectBestOffer(candidates, nil, &budget)
	if rec == nil {
		t.Fatal("expected a recommendation despite budget overrun")
	}
	if rec.SelectedSupplierID != "SUP-B" {
		t.Errorf("expected cheapest offer SUP-B, got %s", rec.SelectedSupplierID)
	}
	if !hasNote(rec, domain.NoteBudgetLimited) {
		t.Errorf("expected note %q, got %v", domain.NoteBudgetLimited, rec.Notes)
	}
}

func TestSelectBestOffer_BudgetPrunesExpensiveOffers(t *testing.T) {
	opt := NewOptimizer()
	candidates := []Candidate{
		candidate("SKU001", "SUP-A", 7, 100, 4),  // 400, fits
		candidate("SKU001", "SUP-B", 3, 100, 10), // 1000, does not
	}
	budget := 500.0

	rec := opt.SelectBestOffer(candidates, nil, &budget)
	if rec == nil {
		t.Fatal("expected a recommendation")
	}
	if rec.SelectedSupplierID != "SUP-A" {
		t.Errorf("expected within-budget SUP-A, got %s", rec.SelectedSupplierID)
	}
	if hasNote(rec, domain.NoteBudgetLimited) {
		t.Errorf("unexpected budget-limited note: %v", rec.Notes)
	}
}
