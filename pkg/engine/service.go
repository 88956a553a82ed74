package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/aurevtech/coder/pkg/cache"
	"github.com/aurevtech/coder/pkg/common/kafka"
	"github.com/aurevtech/coder/pkg/common/logger"
	"github.com/aurevtech/coder/pkg/common/models"
	"github.com/aurevtech/coder/pkg/history"
	"github.com/aurevtech/coder/pkg/observability/metrics"
)

// Service wraps the engine with the operational concerns around it: input
// validation, the result cache, history persistence, event publishing, and
// metrics. Repo, results cache, and producer are all optional; the pipeline
// itself never depends on them.
type Service struct {
	engine   *Engine
	repo     *history.Repository
	results  *cache.Results
	producer *kafka.Producer
}

func NewService(engine *Engine, repo *history.Repository, results *cache.Results, producer *kafka.Producer) *Service {
	return &Service{engine: engine, repo: repo, results: results, producer: producer}
}

// Process validates and runs a request. Validation failures return a
// ValidationError and never reach the pipeline.
func (s *Service) Process(ctx context.Context, req models.CodingRequest) (models.CodingResponse, error) {
	if errs := Validate(req); len(errs) > 0 {
		metrics.ObserveValidationFailure()
		return models.CodingResponse{}, ValidationError{Errors: errs}
	}

	key := cache.Key(req)
	if cached, ok := s.results.Get(ctx, key); ok {
		metrics.ObserveCacheHit()
		return *cached, nil
	}

	resp := s.engine.Process(req)

	degraded := len(resp.Errors) > 0
	metrics.ObserveCoding(len(resp.Suggestions), resp.Readiness.SubmitReady, degraded)

	s.persist(ctx, req, resp, degraded)
	s.publish(ctx, resp, degraded)
	if !degraded {
		s.results.Set(ctx, key, resp)
	}

	return resp, nil
}

// Status fetches a processed coding record by ID.
func (s *Service) Status(ctx context.Context, id string) (*history.Record, error) {
	if s.repo == nil {
		return nil, history.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Cleanup drops expired history records.
func (s *Service) Cleanup(ctx context.Context, ttl time.Duration) error {
	if s.repo == nil {
		return nil
	}
	return s.repo.CleanupExpired(ctx, ttl)
}

func (s *Service) persist(ctx context.Context, req models.CodingRequest, resp models.CodingResponse, degraded bool) {
	if s.repo == nil {
		return
	}
	rec := &history.Record{
		ID:          uuid.New().String(),
		Mode:        req.Mode,
		Payer:       req.Encounter.Payer,
		POSCode:     req.Encounter.POSCode,
		Score:       resp.Readiness.Score,
		SubmitReady: resp.Readiness.SubmitReady,
		Degraded:    degraded,
		Request:     toJSONMap(req),
		Response:    toJSONMap(resp),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		logger.Log.WithError(err).Warn("failed to persist coding record")
	}
}

func (s *Service) publish(ctx context.Context, resp models.CodingResponse, degraded bool) {
	if s.producer == nil {
		return
	}
	payload := map[string]interface{}{
		"suggestion_count": len(resp.Suggestions),
		"issue_count":      len(resp.Readiness.Issues),
		"score":            resp.Readiness.Score,
		"submit_ready":     resp.Readiness.SubmitReady,
		"degraded":         degraded,
		"generated_at":     resp.GeneratedAt,
	}
	if err := s.producer.PublishEvent(ctx, "coding", "coder-service", payload); err != nil {
		logger.Log.WithError(err).Warn("failed to publish coding event")
	}
}

func toJSONMap(v interface{}) datatypes.JSONMap {
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSONMap{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(m)
}
