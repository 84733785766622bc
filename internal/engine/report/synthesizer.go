package report

import (
	"fmt"
	"sort"

	"github.com/restockly/backend/internal/domain"
)

// SynthesisInput carries everything the synthesizer aggregates. Forecasts are
// optional; without them the dead-stock signal is skipped rather than guessed.
type SynthesisInput struct {
	Inventory       []domain.InventorySnapshot
	Recommendations []domain.ReorderRecommendation
	Forecasts       map[string][]domain.ForecastResult
}

// Weights are the health-score penalty weights. They sum to 100 so a
// portfolio failing every signal bottoms out at zero.
type Weights struct {
	BelowReorder  float64
	DeadStock     float64
	BudgetLimited float64
}

// Config fixes the report's tunable thresholds.
//
// ABC tiers follow the common 80/95 cumulative-value split: SKUs covering the
// first 80% of inventory value are A, up to 95% are B, the tail is C.
type Config struct {
	Weights             Weights
	ABCThresholdA       float64
	ABCThresholdB       float64
	OverstockMultiplier float64 // quantity above this multiple of reorder point flags overstock
	MaxSuggestedActions int
}

func (c Config) withDefaults() Config {
	zero := Weights{}
	if c.Weights == zero {
		c.Weights = Weights{BelowReorder: 40, DeadStock: 30, BudgetLimited: 30}
	}
	if c.ABCThresholdA <= 0 {
		c.ABCThresholdA = 0.80
	}
	if c.ABCThresholdB <= 0 {
		c.ABCThresholdB = 0.95
	}
	if c.OverstockMultiplier <= 0 {
		c.OverstockMultiplier = 3
	}
	if c.MaxSuggestedActions <= 0 {
		c.MaxSuggestedActions = 5
	}
	return c
}

// Synthesizer aggregates per-SKU results into a portfolio report. All output
// is produced by deterministic rules over the structured input.
type Synthesizer struct {
	cfg Config
}

func NewSynthesizer(cfg Config) *Synthesizer {
	return &Synthesizer{cfg: cfg.withDefaults()}
}

// Synthesize builds a fresh AnalysisReport. An empty portfolio yields a zero
// health score and empty (non-nil) lists, not an error.
func (s *Synthesizer) Synthesize(in SynthesisInput) domain.AnalysisReport {
	report := domain.AnalysisReport{
		Opportunities:     []string{},
		RiskAlerts:        []string{},
		ABCCategorization: map[string][]string{},
		SuggestedActions:  []string{},
	}
	if len(in.Inventory) == 0 {
		return report
	}

	report.HealthScore = s.healthScore(in)
	report.ABCCategorization = s.categorizeABC(in.Inventory)
	report.RiskAlerts = s.riskAlerts(in.Inventory)
	report.Opportunities = s.opportunities(in)
	report.SuggestedActions = s.suggestedActions(in.Recommendations)
	return report
}

// healthScore starts at 100 and subtracts weighted penalties for the fraction
// of SKUs below their reorder point, sitting dead, or only budget-limited
// orderable. Clamped to [0,100].
func (s *Synthesizer) healthScore(in SynthesisInput) float64 {
	total := float64(len(in.Inventory))

	var below, dead, limited float64
	for _, inv := range in.Inventory {
		if inv.Quantity < inv.ReorderPoint {
			below++
		}
		if inv.Quantity > 0 && demand30(in.Forecasts, inv.SKU) == 0 && in.Forecasts != nil {
			dead++
		}
	}
	for _, rec := range in.Recommendations {
		if rec.HasNote(domain.NoteBudgetLimited) {
			limited++
		}
	}

	score := 100.0
	score -= s.cfg.Weights.BelowReorder * (below / total)
	score -= s.cfg.Weights.DeadStock * (dead / total)
	score -= s.cfg.Weights.BudgetLimited * (limited / total)

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// categorizeABC partitions SKUs by descending inventory value using the
// configured cumulative thresholds.
func (s *Synthesizer) categorizeABC(inventory []domain.InventorySnapshot) map[string][]string {
	sorted := append([]domain.InventorySnapshot(nil), inventory...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Value() > sorted[j].Value() })

	var totalValue float64
	for _, inv := range sorted {
		totalValue += inv.Value()
	}

	categories := map[string][]string{
		domain.ABCClassA: {},
		domain.ABCClassB: {},
		domain.ABCClassC: {},
	}

	var running float64
	for _, inv := range sorted {
		running += inv.Value()
		class := domain.ABCClassC
		switch {
		case totalValue <= 0:
			// Worthless portfolio: everything is C.
		case running/totalValue <= s.cfg.ABCThresholdA:
			class = domain.ABCClassA
		case running/totalValue <= s.cfg.ABCThresholdB:
			class = domain.ABCClassB
		}
		categories[class] = append(categories[class], inv.SKU)
	}
	return categories
}

func (s *Synthesizer) riskAlerts(inventory []domain.InventorySnapshot) []string {
	alerts := []string{}
	for _, inv := range inventory {
		switch {
		case inv.Quantity == 0:
			alerts = append(alerts, fmt.Sprintf("%s (%s) is out of stock", inv.SKU, inv.Name))
		case inv.Quantity < inv.ReorderPoint:
			alerts = append(alerts, fmt.Sprintf("%s (%s) is below its reorder point (%.0f < %.0f)",
				inv.SKU, inv.Name, inv.Quantity, inv.ReorderPoint))
		}
	}
	return alerts
}

func (s *Synthesizer) opportunities(in SynthesisInput) []string {
	opportunities := []string{}
	for _, inv := range in.Inventory {
		if inv.ReorderPoint <= 0 || inv.Quantity <= s.cfg.OverstockMultiplier*inv.ReorderPoint {
			continue
		}
		// Overstock only counts as an opportunity when turnover is low:
		// a month of forecast demand clears less than a tenth of the pile.
		d30 := demand30(in.Forecasts, inv.SKU)
		if in.Forecasts != nil && d30 >= inv.Quantity*0.1 {
			continue
		}
		opportunities = append(opportunities,
			fmt.Sprintf("%s (%s) holds %.0f units against a reorder point of %.0f; consider a promotion or stock transfer",
				inv.SKU, inv.Name, inv.Quantity, inv.ReorderPoint))
	}
	return opportunities
}

// suggestedActions lists the largest recommended purchases first, capped so
// the report stays readable.
func (s *Synthesizer) suggestedActions(recs []domain.ReorderRecommendation) []string {
	sorted := append([]domain.ReorderRecommendation(nil), recs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].EstimatedCost > sorted[j].EstimatedCost })

	actions := []string{}
	for i, rec := range sorted {
		if i >= s.cfg.MaxSuggestedActions {
			break
		}
		action := fmt.Sprintf("Order %.0f units of %s (est. cost %.2f)",
			rec.OptimalReorderQuantity, rec.SKU, rec.EstimatedCost)
		if rec.SelectedSupplierID != "" {
			action += fmt.Sprintf(" from supplier %s", rec.SelectedSupplierID)
		}
		if rec.HasNote(domain.NoteBudgetLimited) {
			action += " [budget-limited]"
		}
		actions = append(actions, action)
	}
	return actions
}

func demand30(forecasts map[string][]domain.ForecastResult, sku string) float64 {
	for _, f := range forecasts[sku] {
		if f.HorizonDays == 30 {
			return f.PredictedDemand
		}
	}
	return 0
}
