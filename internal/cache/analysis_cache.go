package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/restockly/backend/internal/config"
	"github.com/restockly/backend/internal/engine"
)

const (
	analysisKeyPrefix     = "analysis:result"
	analysisScanBatchSize = 100
)

// AnalysisCache stores completed evaluation results keyed by a hash of the
// input snapshot. Identical snapshots produce identical results (the engine
// is deterministic), so a cache hit is always safe to serve.
type AnalysisCache interface {
	GetResult(ctx context.Context, req engine.EvaluationRequest) (*engine.EvaluationResult, bool, error)
	SetResult(ctx context.Context, req engine.EvaluationRequest, result *engine.EvaluationResult) error
	InvalidateAll(ctx context.Context) error
}

type redisAnalysisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopAnalysisCache struct{}

func NewAnalysisCache(cfg config.CacheConfig) (AnalysisCache, error) {
	if !cfg.Enabled {
		return &noopAnalysisCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisAnalysisCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopAnalysisCache() AnalysisCache {
	return &noopAnalysisCache{}
}

func (c *redisAnalysisCache) GetResult(ctx context.Context, req engine.EvaluationRequest) (*engine.EvaluationResult, bool, error) {
	key, err := buildAnalysisKey(req)
	if err != nil {
		return nil, false, err
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result engine.EvaluationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("decode analysis cache: %w", err)
	}

	return &result, true, nil
}

func (c *redisAnalysisCache) SetResult(ctx context.Context, req engine.EvaluationRequest, result *engine.EvaluationResult) error {
	key, err := buildAnalysisKey(req)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode analysis cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisAnalysisCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, analysisKeyPrefix, analysisScanBatchSize)
}

func (n *noopAnalysisCache) GetResult(ctx context.Context, req engine.EvaluationRequest) (*engine.EvaluationResult, bool, error) {
	return nil, false, nil
}

func (n *noopAnalysisCache) SetResult(ctx context.Context, req engine.EvaluationRequest, result *engine.EvaluationResult) error {
	return nil
}

func (n *noopAnalysisCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// buildAnalysisKey hashes the canonical JSON encoding of the request.
// Slices in EvaluationRequest arrive in caller-defined order, so two
// logically equal snapshots with reordered rows hash differently; that only
// costs a cache miss, never a wrong hit.
func buildAnalysisKey(req engine.EvaluationRequest) (string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode analysis cache key: %w", err)
	}
	sum := sha1.Sum(raw)
	return fmt.Sprintf("%s:%s", analysisKeyPrefix, hex.EncodeToString(sum[:])), nil
}
