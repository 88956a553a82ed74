// Package cache stores coding responses in Redis keyed by a digest of the
// request. The pipeline is deterministic for identical input, so serving a
// cached response is equivalent to recomputing it.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aurevtech/coder/pkg/common/logger"
	"github.com/aurevtech/coder/pkg/common/models"
)

type Results struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Results {
	return &Results{client: client, ttl: ttl}
}

// Key derives a stable digest for a request.
func Key(req models.CodingRequest) string {
	payload, err := json.Marshal(req)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("coding:result:%x", sha256.Sum256(payload))
}

func (r *Results) Get(ctx context.Context, key string) (*models.CodingResponse, bool) {
	if r == nil || r.client == nil || key == "" {
		return nil, false
	}
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Log.WithError(err).Warn("result cache read failed")
		}
		return nil, false
	}
	var resp models.CodingResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		logger.Log.WithError(err).Warn("result cache entry corrupt")
		return nil, false
	}
	return &resp, true
}

func (r *Results) Set(ctx context.Context, key string, resp models.CodingResponse) {
	if r == nil || r.client == nil || key == "" {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		logger.Log.WithError(err).Warn("result cache write failed")
	}
}
