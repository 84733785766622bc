package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/restockly/backend/internal/cache"
	"github.com/restockly/backend/internal/domain"
	"github.com/restockly/backend/internal/engine"
	"github.com/restockly/backend/internal/events"
	"github.com/restockly/backend/internal/ingest"
	"github.com/restockly/backend/internal/repository"
	"github.com/restockly/backend/internal/storage"
	"github.com/rs/zerolog/log"
)

const defaultHistoryLookbackDays = 365

// AnalysisService orchestrates engine runs: cache-aside reads, optional
// snapshot loading from the store, and best-effort publishing/archiving of
// results. Everything outside the engine call is non-fatal plumbing.
type AnalysisService struct {
	engine    *engine.Engine
	cache     cache.AnalysisCache
	repo      repository.SnapshotRepository
	publisher events.Publisher
	archive   storage.ObjectStorage

	historyLookbackDays int
}

// Option customizes an AnalysisService.
type Option func(*AnalysisService)

// WithSnapshotRepository enables store-backed evaluation runs.
func WithSnapshotRepository(repo repository.SnapshotRepository) Option {
	return func(s *AnalysisService) { s.repo = repo }
}

// WithPublisher enables result eventing.
func WithPublisher(p events.Publisher) Option {
	return func(s *AnalysisService) { s.publisher = p }
}

// WithArchive enables result archiving to object storage.
func WithArchive(a storage.ObjectStorage) Option {
	return func(s *AnalysisService) { s.archive = a }
}

// WithHistoryLookbackDays bounds how much sales history store-backed runs load.
func WithHistoryLookbackDays(days int) Option {
	return func(s *AnalysisService) {
		if days > 0 {
			s.historyLookbackDays = days
		}
	}
}

func NewAnalysisService(eng *engine.Engine, cacheImpl cache.AnalysisCache, opts ...Option) *AnalysisService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopAnalysisCache()
	}
	s := &AnalysisService{
		engine:              eng,
		cache:               cacheImpl,
		publisher:           events.NewNoopPublisher(),
		historyLookbackDays: defaultHistoryLookbackDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Forecast answers a single-SKU forecast request.
func (s *AnalysisService) Forecast(ctx context.Context, req engine.ForecastRequest) ([]domain.ForecastResult, error) {
	return s.engine.ForecastSKU(ctx, req)
}

// RunReorderPass evaluates a supplied snapshot and returns recommendations.
func (s *AnalysisService) RunReorderPass(ctx context.Context, req engine.EvaluationRequest) (*engine.EvaluationResult, error) {
	result, err := s.engine.RunReorderPass(ctx, req)
	if err != nil {
		return nil, err
	}
	s.fanOut(ctx, req, result)
	return result, nil
}

// RunAnalysis evaluates a supplied snapshot and returns the full report.
// Identical snapshots are served from cache when one is configured.
func (s *AnalysisService) RunAnalysis(ctx context.Context, req engine.EvaluationRequest) (*engine.EvaluationResult, error) {
	if cached, ok, err := s.cache.GetResult(ctx, req); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("analysis: cache get failed")
	}

	result, err := s.engine.RunAnalysis(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetResult(ctx, req, result); err != nil {
		log.Warn().Err(err).Msg("analysis: cache set failed")
	}
	s.fanOut(ctx, req, result)
	return result, nil
}

// RunStoredAnalysis loads the current snapshot from the store, runs a full
// analysis, and persists the recommendations.
func (s *AnalysisService) RunStoredAnalysis(ctx context.Context, budget *float64) (*engine.EvaluationResult, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("no snapshot repository configured")
	}

	req, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	req.BudgetConstraint = budget

	result, err := s.RunAnalysis(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveRecommendations(ctx, result.RunID, result.Recommendations); err != nil {
		log.Warn().Err(err).Str("run_id", result.RunID).Msg("analysis: failed to persist recommendations")
	}
	return result, nil
}

func (s *AnalysisService) loadSnapshot(ctx context.Context) (engine.EvaluationRequest, error) {
	var req engine.EvaluationRequest

	inventory, err := s.repo.GetInventory(ctx)
	if err != nil {
		return req, fmt.Errorf("load inventory: %w", err)
	}

	since := time.Now().AddDate(0, 0, -s.historyLookbackDays)
	sales, err := s.repo.GetSalesHistory(ctx, since)
	if err != nil {
		return req, fmt.Errorf("load sales history: %w", err)
	}

	leadTimes, err := s.repo.GetLeadTimes(ctx)
	if err != nil {
		return req, fmt.Errorf("load lead times: %w", err)
	}

	tiers, err := s.repo.GetDiscountTiers(ctx)
	if err != nil {
		return req, fmt.Errorf("load discount tiers: %w", err)
	}

	req.Inventory = inventory
	req.SalesHistory = sales
	req.LeadTimes = leadTimes
	req.DiscountTiers = tiers
	return req, nil
}

// fanOut publishes and archives a finished run. Both are best-effort: a
// broker or bucket outage must not fail an otherwise successful evaluation.
func (s *AnalysisService) fanOut(ctx context.Context, req engine.EvaluationRequest, result *engine.EvaluationResult) {
	now := time.Now()
	for _, rec := range result.Recommendations {
		event := events.ReorderRecommendedEvent{
			EventID:       uuid.NewString(),
			RunID:         result.RunID,
			SKU:           rec.SKU,
			SupplierID:    rec.SelectedSupplierID,
			Quantity:      rec.OptimalReorderQuantity,
			EstimatedCost: rec.EstimatedCost,
			BudgetLimited: rec.HasNote(domain.NoteBudgetLimited),
			Timestamp:     now,
		}
		if err := s.publisher.PublishReorderRecommended(ctx, event); err != nil {
			log.Warn().Err(err).Str("sku", rec.SKU).Msg("analysis: failed to publish recommendation event")
		}
	}

	summary := events.AnalysisCompletedEvent{
		EventID:         uuid.NewString(),
		RunID:           result.RunID,
		SKUCount:        len(req.Inventory),
		Recommendations: len(result.Recommendations),
		Failures:        len(result.Failures),
		Timestamp:       now,
	}
	if result.Report != nil {
		score := result.Report.HealthScore
		summary.HealthScore = &score
	}
	if err := s.publisher.PublishAnalysisCompleted(ctx, summary); err != nil {
		log.Warn().Err(err).Str("run_id", result.RunID).Msg("analysis: failed to publish completion event")
	}

	if s.archive != nil {
		s.archiveResult(ctx, result)
	}
}

func (s *AnalysisService) archiveResult(ctx context.Context, result *engine.EvaluationResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		log.Warn().Err(err).Str("run_id", result.RunID).Msg("analysis: failed to encode result for archive")
		return
	}

	datePrefix := result.EvaluatedAt.Format("20060102")
	jsonKey := fmt.Sprintf("reports/%s/%s.json", datePrefix, result.RunID)
	if err := s.archive.UploadObject(ctx, jsonKey, "application/json", payload); err != nil {
		log.Warn().Err(err).Str("run_id", result.RunID).Msg("analysis: failed to archive report")
	}

	csvKey := fmt.Sprintf("recommendations/%s/%s.csv", datePrefix, result.RunID)
	csvData := ingest.RecommendationsCSV(result.Recommendations)
	if err := s.archive.UploadObject(ctx, csvKey, "text/csv", csvData); err != nil {
		log.Warn().Err(err).Str("run_id", result.RunID).Msg("analysis: failed to archive recommendations")
	}
}
