package reorder

import (
	"sort"

	"github.com/restockly/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// offer is a costed candidate after discount and bulk-buy resolution.
type offer struct {
	candidate Candidate
	quantity  decimal.Decimal
	cost      decimal.Decimal
	notes     []string
}

// Optimizer resolves supplier and quantity selection against discount tiers
// and a cash-flow ceiling. Money math runs on decimals so that equal-cost
// tie-breaks do not depend on float rounding.
type Optimizer struct{}

func NewOptimizer() *Optimizer {
	return &Optimizer{}
}

// SelectBestOffer picks the cheapest candidate that fits the budget,
// preferring shorter lead times on cost ties. With no feasible candidate the
// cheapest overall is returned annotated "budget-limited"; with no candidates
// at all it returns nil (no recommendation, not an error).
func (o *Optimizer) SelectBestOffer(candidates []Candidate, tiers []domain.DiscountTier, budgetConstraint *float64) *domain.ReorderRecommendation {
	if len(candidates) == 0 {
		return nil
	}

	var budget *decimal.Decimal
	if budgetConstraint != nil {
		b := decimal.NewFromFloat(*budgetConstraint)
		budget = &b
	}

	offers := make([]offer, 0, len(candidates))
	for _, cand := range candidates {
		offers = append(offers, o.costCandidate(cand, tiers, budget))
	}

	best, budgetLimited := pickOffer(offers, budget)

	rec := &domain.ReorderRecommendation{
		SKU:                    best.candidate.Inventory.SKU,
		ProductName:            best.candidate.Inventory.Name,
		CurrentQuantity:        best.candidate.Inventory.Quantity,
		CurrentReorderPoint:    best.candidate.Inventory.ReorderPoint,
		OptimizedReorderPoint:  best.candidate.OptimizedReorderPoint,
		OptimalReorderQuantity: best.quantity.InexactFloat64(),
		SelectedSupplierID:     best.candidate.SupplierID,
		EstimatedCost:          best.cost.Round(2).InexactFloat64(),
		Notes:                  append(append([]string(nil), best.candidate.Notes...), best.notes...),
	}
	if budgetLimited {
		rec.Notes = append(rec.Notes, domain.NoteBudgetLimited)
	}
	return rec
}

// costCandidate prices a candidate at its computed quantity and then checks
// whether raising the order to the next discount tier's minimum quantity
// lowers total cost (the bulk-buy trade-off). The bump is skipped when it
// would blow the budget.
func (o *Optimizer) costCandidate(cand Candidate, tiers []domain.DiscountTier, budget *decimal.Decimal) offer {
	applicable := supplierTiers(tiers, cand.Inventory.SKU, cand.SupplierID)
	unitCost := decimal.NewFromFloat(cand.Inventory.UnitCost)

	qty := decimal.NewFromFloat(cand.OptimalReorderQuantity)
	cost := tierCost(qty, unitCost, applicable)

	if next, ok := nextTierAbove(applicable, qty); ok {
		bumpQty := decimal.NewFromFloat(next.MinQuantity)
		bumpCost := tierCost(bumpQty, unitCost, applicable)
		withinBudget := budget == nil || bumpCost.LessThanOrEqual(*budget)
		if bumpCost.LessThanOrEqual(cost) && withinBudget {
			return offer{
				candidate: cand,
				quantity:  bumpQty,
				cost:      bumpCost,
				notes:     []string{domain.NoteBulkDiscount},
			}
		}
	}

	return offer{candidate: cand, quantity: qty, cost: cost}
}

// tierCost prices a quantity with the best discount whose threshold it meets.
// Tier ordering in the input is not trusted: malformed (non-monotone) tiers
// are not rejected, the best applicable discount simply wins.
func tierCost(qty, unitCost decimal.Decimal, tiers []domain.DiscountTier) decimal.Decimal {
	discount := decimal.Zero
	for _, tier := range tiers {
		if qty.GreaterThanOrEqual(decimal.NewFromFloat(tier.MinQuantity)) {
			pct := decimal.NewFromFloat(tier.DiscountPercentage)
			if pct.GreaterThan(discount) {
				discount = pct
			}
		}
	}
	multiplier := decimal.NewFromInt(1).Sub(discount.Div(decimal.NewFromInt(100)))
	return qty.Mul(unitCost).Mul(multiplier)
}

// nextTierAbove returns the tier with the smallest threshold strictly above
// qty, which is the only bump the bulk-buy trade-off considers.
func nextTierAbove(tiers []domain.DiscountTier, qty decimal.Decimal) (domain.DiscountTier, bool) {
	above := make([]domain.DiscountTier, 0, len(tiers))
	for _, tier := range tiers {
		if decimal.NewFromFloat(tier.MinQuantity).GreaterThan(qty) {
			above = append(above, tier)
		}
	}
	if len(above) == 0 {
		return domain.DiscountTier{}, false
	}
	sort.Slice(above, func(i, j int) bool { return above[i].MinQuantity < above[j].MinQuantity })
	return above[0], true
}

func supplierTiers(tiers []domain.DiscountTier, sku, supplierID string) []domain.DiscountTier {
	matched := make([]domain.DiscountTier, 0, len(tiers))
	for _, tier := range tiers {
		if tier.SKU != sku {
			continue
		}
		if tier.SupplierID != "" && tier.SupplierID != supplierID {
			continue
		}
		matched = append(matched, tier)
	}
	return matched
}

// pickOffer applies the selection policy: cheapest within budget, cost ties
// broken by shorter lead time. When every offer exceeds the budget the
// cheapest overall wins and the caller annotates it budget-limited.
func pickOffer(offers []offer, budget *decimal.Decimal) (offer, bool) {
	better := func(a, b offer) bool {
		if !a.cost.Equal(b.cost) {
			return a.cost.LessThan(b.cost)
		}
		return a.candidate.LeadTimeDays < b.candidate.LeadTimeDays
	}

	var withinBudget []offer
	if budget != nil {
		for _, of := range offers {
			if of.cost.LessThanOrEqual(*budget) {
				withinBudget = append(withinBudget, of)
			}
		}
	} else {
		withinBudget = offers
	}

	pool := withinBudget
	budgetLimited := false
	if len(pool) == 0 {
		pool = offers
		budgetLimited = true
	}

	best := pool[0]
	for _, of := range pool[1:] {
		if better(of, best) {
			best = of
		}
	}
	return best, budgetLimited
}
