package engine

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/restockly/backend/internal/domain"
	"github.com/restockly/backend/internal/engine/forecast"
	"github.com/restockly/backend/internal/engine/reorder"
	"github.com/restockly/backend/internal/engine/report"
	"github.com/rs/zerolog/log"
)

// Config tunes the evaluation pipeline.
type Config struct {
	WorkerCount int
	SKUTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.WorkerCount < 1 {
		c.WorkerCount = 4
	}
	return c
}

// Engine drives the forecast -> reorder -> optimize -> synthesize pipeline.
// It is stateless per invocation: each request supplies a complete snapshot
// and receives a complete result, so per-SKU work is safe to run in parallel.
type Engine struct {
	cfg         Config
	forecaster  forecast.Forecaster
	calculator  *reorder.Calculator
	optimizer   *reorder.Optimizer
	synthesizer *report.Synthesizer
}

// New builds an Engine around the given forecaster. Pass nil to use the
// default statistical forecaster.
func New(cfg Config, forecaster forecast.Forecaster, calcCfg reorder.CalculatorConfig, reportCfg report.Config) *Engine {
	if forecaster == nil {
		forecaster = forecast.NewStatisticalForecaster(forecast.Config{})
	}
	return &Engine{
		cfg:         cfg.withDefaults(),
		forecaster:  forecaster,
		calculator:  reorder.NewCalculator(calcCfg),
		optimizer:   reorder.NewOptimizer(),
		synthesizer: report.NewSynthesizer(reportCfg),
	}
}

// ForecastSKU answers a single-SKU forecast request.
func (e *Engine) ForecastSKU(ctx context.Context, req ForecastRequest) ([]domain.ForecastResult, error) {
	if strings.TrimSpace(req.SKU) == "" {
		return nil, domain.NewInputError("sku", "must not be empty")
	}
	return e.forecaster.Forecast(ctx, req.SKU, req.SalesHistory, req.SeasonalityNotes)
}

// RunReorderPass evaluates the whole portfolio and returns one
// recommendation per SKU that needs action.
func (e *Engine) RunReorderPass(ctx context.Context, req EvaluationRequest) (*EvaluationResult, error) {
	return e.evaluate(ctx, req, false)
}

// RunAnalysis is RunReorderPass plus the synthesized portfolio report.
func (e *Engine) RunAnalysis(ctx context.Context, req EvaluationRequest) (*EvaluationResult, error) {
	return e.evaluate(ctx, req, true)
}

// skuOutcome is what one worker produces for one SKU.
type skuOutcome struct {
	sku            string
	forecasts      []domain.ForecastResult
	recommendation *domain.ReorderRecommendation
	failure        *domain.SKUFailure
}

func (e *Engine) evaluate(ctx context.Context, req EvaluationRequest, withReport bool) (*EvaluationResult, error) {
	if len(req.Inventory) == 0 {
		return nil, domain.NewInputError("inventory", "at least one snapshot is required")
	}

	runID := uuid.NewString()
	started := time.Now()
	log.Info().Str("run_id", runID).Int("skus", len(req.Inventory)).
		Bool("with_report", withReport).Msg("engine: starting evaluation")

	salesBySKU := groupSales(req.SalesHistory)
	leadTimesBySKU := groupLeadTimes(req.LeadTimes)

	jobChan := make(chan domain.InventorySnapshot, len(req.Inventory))
	outChan := make(chan skuOutcome, len(req.Inventory))

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.WorkerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for inv := range jobChan {
				outChan <- e.evaluateSKU(ctx, req, inv, salesBySKU[inv.SKU], leadTimesBySKU[inv.SKU])
			}
		}()
	}

	// Cooperative cancellation: stop launching new per-SKU work once the
	// caller gives up, but let in-flight workers finish. Partial results
	// beat losing the whole batch.
	skipped := 0
enqueue:
	for _, inv := range req.Inventory {
		select {
		case <-ctx.Done():
			skipped = countRemaining(req.Inventory, inv.SKU)
			break enqueue
		case jobChan <- inv:
		}
	}
	close(jobChan)
	wg.Wait()
	close(outChan)

	result := &EvaluationResult{
		RunID:           runID,
		EvaluatedAt:     started,
		Forecasts:       make(map[string][]domain.ForecastResult, len(req.Inventory)),
		Recommendations: []domain.ReorderRecommendation{},
	}
	for outcome := range outChan {
		if outcome.failure != nil {
			result.Failures = append(result.Failures, *outcome.failure)
			continue
		}
		result.Forecasts[outcome.sku] = outcome.forecasts
		if outcome.recommendation != nil {
			result.Recommendations = append(result.Recommendations, *outcome.recommendation)
		}
	}
	if skipped > 0 {
		log.Warn().Str("run_id", runID).Int("skipped", skipped).
			Msg("engine: evaluation canceled before all SKUs were launched")
	}

	// Stable ordering keeps identical snapshots producing identical output.
	sort.Slice(result.Recommendations, func(i, j int) bool {
		return result.Recommendations[i].SKU < result.Recommendations[j].SKU
	})
	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].SKU < result.Failures[j].SKU
	})

	if withReport {
		rep := e.synthesizer.Synthesize(report.SynthesisInput{
			Inventory:       req.Inventory,
			Recommendations: result.Recommendations,
			Forecasts:       result.Forecasts,
		})
		result.Report = &rep
	}

	log.Info().Str("run_id", runID).
		Int("recommendations", len(result.Recommendations)).
		Int("failures", len(result.Failures)).
		Dur("elapsed", time.Since(started)).
		Msg("engine: evaluation complete")
	return result, nil
}

// evaluateSKU runs the per-SKU pipeline: forecast, candidate generation,
// supplier/quantity selection. Failures stay local to the SKU.
func (e *Engine) evaluateSKU(ctx context.Context, req EvaluationRequest, inv domain.InventorySnapshot, sales []domain.SalesRecord, leadTimes []domain.LeadTime) skuOutcome {
	if strings.TrimSpace(inv.SKU) == "" {
		return skuOutcome{failure: &domain.SKUFailure{SKU: inv.SKU, Reason: "empty sku in inventory snapshot"}}
	}

	skuCtx := ctx
	if e.cfg.SKUTimeout > 0 {
		var cancel context.CancelFunc
		skuCtx, cancel = context.WithTimeout(ctx, e.cfg.SKUTimeout)
		defer cancel()
	}

	forecasts, err := e.forecaster.Forecast(skuCtx, inv.SKU, sales, req.SeasonalityNotes)
	if err != nil {
		log.Warn().Err(err).Str("sku", inv.SKU).Msg("engine: skipping SKU, forecast failed")
		return skuOutcome{failure: &domain.SKUFailure{SKU: inv.SKU, Reason: err.Error()}}
	}

	candidates := e.calculator.ComputeReorder(inv, forecasts, leadTimes)
	recommendation := e.optimizer.SelectBestOffer(candidates, req.DiscountTiers, req.BudgetConstraint)

	return skuOutcome{sku: inv.SKU, forecasts: forecasts, recommendation: recommendation}
}

func groupSales(records []domain.SalesRecord) map[string][]domain.SalesRecord {
	grouped := make(map[string][]domain.SalesRecord)
	for _, rec := range records {
		grouped[rec.SKU] = append(grouped[rec.SKU], rec)
	}
	return grouped
}

func groupLeadTimes(leadTimes []domain.LeadTime) map[string][]domain.LeadTime {
	grouped := make(map[string][]domain.LeadTime)
	for _, lt := range leadTimes {
		grouped[lt.SKU] = append(grouped[lt.SKU], lt)
	}
	return grouped
}

func countRemaining(inventory []domain.InventorySnapshot, fromSKU string) int {
	for i, inv := range inventory {
		if inv.SKU == fromSKU {
			return len(inventory) - i
		}
	}
	return 0
}
