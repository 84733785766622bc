package reorder

import (
	"math"

	"github.com/restockly/backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// Candidate is one (supplier, quantity) restock option for a SKU. The
// calculator emits one per supplier offer and leaves the final pick to the
// cost optimizer.
type Candidate struct {
	Inventory              domain.InventorySnapshot
	SupplierID             string
	LeadTimeDays           int
	Confidence             domain.Confidence
	OptimizedReorderPoint  float64
	OptimalReorderQuantity float64
	Notes                  []string
}

// CalculatorConfig controls fallback behavior when supplier data is missing.
type CalculatorConfig struct {
	DefaultLeadTimeDays int
}

func (c CalculatorConfig) withDefaults() CalculatorConfig {
	if c.DefaultLeadTimeDays <= 0 {
		c.DefaultLeadTimeDays = 7
	}
	return c
}

// Calculator derives reorder points and order quantities from demand
// forecasts and current stock. It is stateless apart from its config.
type Calculator struct {
	cfg CalculatorConfig
}

func NewCalculator(cfg CalculatorConfig) *Calculator {
	return &Calculator{cfg: cfg.withDefaults()}
}

// safetyFactor hedges forecast uncertainty with extra buffer stock: the less
// confident the forecast, the larger the factor.
func safetyFactor(c domain.Confidence) float64 {
	switch c {
	case domain.ConfidenceHigh:
		return 1.1
	case domain.ConfidenceMedium:
		return 1.3
	default:
		return 1.6
	}
}

// ComputeReorder returns the restock candidates for one SKU, or an empty
// slice when current stock already covers the optimized reorder point.
//
//	reorderPoint  = ceil(avgDailyDemand x leadTimeDays x safetyFactor)
//	orderQuantity = max(0, reorderPoint + avgDailyDemand x leadTimeDays - currentQuantity)
func (c *Calculator) ComputeReorder(inv domain.InventorySnapshot, forecasts []domain.ForecastResult, leadTimes []domain.LeadTime) []Candidate {
	f30, ok := horizonForecast(forecasts, 30)
	if !ok {
		// Treat a missing 30-day forecast like a cold start so the SKU still
		// gets evaluated instead of silently dropping out.
		log.Warn().Str("sku", inv.SKU).Msg("reorder: no 30-day forecast, assuming zero demand")
		f30 = domain.ForecastResult{SKU: inv.SKU, HorizonDays: 30, Confidence: domain.ConfidenceLow}
	}

	avgDaily := f30.PredictedDemand / 30.0

	offers := leadTimes
	var fallbackNotes []string
	if len(offers) == 0 {
		offers = []domain.LeadTime{{SKU: inv.SKU, LeadTimeDays: c.cfg.DefaultLeadTimeDays}}
		fallbackNotes = []string{domain.NoteDefaultLeadTime}
	}

	candidates := make([]Candidate, 0, len(offers))
	for _, offer := range offers {
		cand := c.buildCandidate(inv, f30.Confidence, avgDaily, offer)
		cand.Notes = append(cand.Notes, fallbackNotes...)
		if cand.OptimalReorderQuantity <= 0 {
			// Stock already clears this offer's reorder point; no action.
			continue
		}
		candidates = append(candidates, cand)
	}
	return candidates
}

func (c *Calculator) buildCandidate(inv domain.InventorySnapshot, conf domain.Confidence, avgDaily float64, offer domain.LeadTime) Candidate {
	lead := float64(offer.LeadTimeDays)
	reorderPoint := math.Ceil(avgDaily * lead * safetyFactor(conf))
	if reorderPoint < 0 {
		reorderPoint = 0
	}

	demandOverLead := avgDaily * lead
	qty := math.Ceil(reorderPoint + demandOverLead - inv.Quantity)
	if qty < 0 {
		qty = 0
	}

	return Candidate{
		Inventory:              inv,
		SupplierID:             offer.SupplierID,
		LeadTimeDays:           offer.LeadTimeDays,
		Confidence:             conf,
		OptimizedReorderPoint:  reorderPoint,
		OptimalReorderQuantity: qty,
	}
}

func horizonForecast(forecasts []domain.ForecastResult, horizonDays int) (domain.ForecastResult, bool) {
	for _, f := range forecasts {
		if f.HorizonDays == horizonDays {
			return f, true
		}
	}
	return domain.ForecastResult{}, false
}
