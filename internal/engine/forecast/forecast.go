package forecast

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/restockly/backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// Forecaster produces demand predictions for a single SKU, one result per
// supported horizon. Implementations must be deterministic for identical
// input and must honor the cold-start contract: an empty (or fully rejected)
// history yields zero-demand, low-confidence results rather than an error.
type Forecaster interface {
	Forecast(ctx context.Context, sku string, history []domain.SalesRecord, seasonalityNotes string) ([]domain.ForecastResult, error)
}

// Config tunes the statistical estimator. Zero values fall back to the
// defaults below.
type Config struct {
	HighConfidenceSpanDays int     // minimum history span for High confidence
	ModerateCV             float64 // CV at or below this still allows High
	VolatileCV             float64 // CV above this forces Low
	SparseSpanDays         int     // span below this forces Low
	SparseRecordCount      int     // usable records below this force Low
	TrendDamping           float64 // how much of the recent trend to project
}

func (c Config) withDefaults() Config {
	if c.HighConfidenceSpanDays <= 0 {
		c.HighConfidenceSpanDays = 180
	}
	if c.ModerateCV <= 0 {
		c.ModerateCV = 0.5
	}
	if c.VolatileCV <= 0 {
		c.VolatileCV = 1.5
	}
	if c.SparseSpanDays <= 0 {
		c.SparseSpanDays = 14
	}
	if c.SparseRecordCount <= 0 {
		c.SparseRecordCount = 5
	}
	if c.TrendDamping <= 0 {
		c.TrendDamping = 0.5
	}
	return c
}

// disruptionKeywords in seasonality notes mark demand the estimator cannot
// quantify, so confidence is capped at Low.
var disruptionKeywords = []string{
	"promo",
	"promotion",
	"launch",
	"new product",
	"liquidation",
	"discontinued",
	"stockout",
	"viral",
	"disruption",
}

// StatisticalForecaster estimates demand from the trailing daily average plus
// a dampened recent trend. It is the default Forecaster; a learned model or
// an external generative service can replace it as long as the interface
// contract holds.
type StatisticalForecaster struct {
	cfg Config
}

func NewStatisticalForecaster(cfg Config) *StatisticalForecaster {
	return &StatisticalForecaster{cfg: cfg.withDefaults()}
}

// Forecast implements Forecaster.
func (f *StatisticalForecaster) Forecast(ctx context.Context, sku string, history []domain.SalesRecord, seasonalityNotes string) ([]domain.ForecastResult, error) {
	if strings.TrimSpace(sku) == "" {
		return nil, domain.NewInputError("sku", "must not be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	usable := f.cleanHistory(sku, history)
	if len(usable) == 0 {
		return coldStartResults(sku), nil
	}

	sort.Slice(usable, func(i, j int) bool { return usable[i].Date.Before(usable[j].Date) })

	stats := computeSeries(usable)
	rate := f.projectedDailyRate(stats)
	confidence, reason := f.assignConfidence(stats, seasonalityNotes)

	results := make([]domain.ForecastResult, 0, len(domain.ForecastHorizons))
	for _, horizon := range domain.ForecastHorizons {
		results = append(results, domain.ForecastResult{
			SKU:             sku,
			HorizonDays:     horizon,
			PredictedDemand: roundDemand(rate * float64(horizon)),
			Confidence:      confidence,
			Explanation: fmt.Sprintf("%.2f/day over %d days of history; %s",
				rate, stats.spanDays, reason),
		})
	}
	return results, nil
}

// cleanHistory drops malformed records one at a time. Rejections are logged
// as warnings; the forecast itself does not fail unless nothing survives.
func (f *StatisticalForecaster) cleanHistory(sku string, history []domain.SalesRecord) []domain.SalesRecord {
	usable := make([]domain.SalesRecord, 0, len(history))
	for _, rec := range history {
		if rec.QuantitySold < 0 {
			log.Warn().Str("sku", sku).Time("date", rec.Date).
				Float64("quantity_sold", rec.QuantitySold).
				Msg("forecast: rejecting sales record with negative quantity")
			continue
		}
		if rec.Date.IsZero() {
			log.Warn().Str("sku", sku).
				Msg("forecast: rejecting sales record with missing date")
			continue
		}
		usable = append(usable, rec)
	}
	return usable
}

// seriesStats summarizes a cleaned, date-sorted sales series.
type seriesStats struct {
	spanDays    int
	recordCount int
	avgDaily    float64
	recentDaily float64 // average over the trailing 30 days of the span
	cv          float64 // coefficient of variation of daily demand
}

func computeSeries(sorted []domain.SalesRecord) seriesStats {
	first := sorted[0].Date
	last := sorted[len(sorted)-1].Date
	span := int(last.Sub(first).Hours()/24) + 1
	if span < 1 {
		span = 1
	}

	// Bucket by calendar day; duplicate dates are summed, missing days count
	// as zero-demand days in the variance.
	daily := make(map[string]float64, len(sorted))
	var total float64
	for _, rec := range sorted {
		daily[rec.Date.Format("2006-01-02")] += rec.QuantitySold
		total += rec.QuantitySold
	}

	mean := total / float64(span)

	var sumSq float64
	for _, qty := range daily {
		sumSq += (qty - mean) * (qty - mean)
	}
	// Days with no sales contribute (0 - mean)^2 each.
	zeroDays := span - len(daily)
	if zeroDays > 0 {
		sumSq += float64(zeroDays) * mean * mean
	}
	variance := sumSq / float64(span)

	cv := 0.0
	if mean > 0 {
		cv = math.Sqrt(variance) / mean
	}

	// Trailing 30-day window, anchored at the last sale date.
	windowStart := last.AddDate(0, 0, -29)
	var recentTotal float64
	for _, rec := range sorted {
		if !rec.Date.Before(windowStart) {
			recentTotal += rec.QuantitySold
		}
	}
	windowDays := 30
	if span < windowDays {
		windowDays = span
	}
	recent := recentTotal / float64(windowDays)

	return seriesStats{
		spanDays:    span,
		recordCount: len(sorted),
		avgDaily:    mean,
		recentDaily: recent,
		cv:          cv,
	}
}

// projectedDailyRate blends the overall average with the recent window using
// dampening, so a short-lived spike does not dominate a 90-day projection.
func (f *StatisticalForecaster) projectedDailyRate(s seriesStats) float64 {
	rate := s.avgDaily + f.cfg.TrendDamping*(s.recentDaily-s.avgDaily)
	if rate < 0 {
		rate = 0
	}
	return rate
}

func (f *StatisticalForecaster) assignConfidence(s seriesStats, notes string) (domain.Confidence, string) {
	if reason, disrupted := disruptionIn(notes); disrupted {
		return domain.ConfidenceLow, fmt.Sprintf("seasonality notes mention %q", reason)
	}
	if s.spanDays < f.cfg.SparseSpanDays || s.recordCount < f.cfg.SparseRecordCount {
		return domain.ConfidenceLow, "history too sparse"
	}
	if s.cv > f.cfg.VolatileCV {
		return domain.ConfidenceLow, "demand highly volatile"
	}
	if s.spanDays >= f.cfg.HighConfidenceSpanDays && s.cv <= f.cfg.ModerateCV {
		return domain.ConfidenceHigh, "long stable history"
	}
	return domain.ConfidenceMedium, "history shorter or noisier than ideal"
}

func disruptionIn(notes string) (string, bool) {
	lowered := strings.ToLower(notes)
	for _, kw := range disruptionKeywords {
		if strings.Contains(lowered, kw) {
			return kw, true
		}
	}
	return "", false
}

func coldStartResults(sku string) []domain.ForecastResult {
	results := make([]domain.ForecastResult, 0, len(domain.ForecastHorizons))
	for _, horizon := range domain.ForecastHorizons {
		results = append(results, domain.ForecastResult{
			SKU:             sku,
			HorizonDays:     horizon,
			PredictedDemand: 0,
			Confidence:      domain.ConfidenceLow,
			Explanation:     "no usable sales history (cold start)",
		})
	}
	return results
}

// roundDemand trims float noise without forcing predictions to integers;
// downstream rounds to whole units where it matters.
func roundDemand(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Round(v*100) / 100
}
