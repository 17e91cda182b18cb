package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"chartsrv/internal/domain"
	"chartsrv/internal/infra/logging"
)

// ChartCache keeps finished artifacts in Redis keyed by the normalized
// request. Any Redis error degrades to a cache miss; rendering must not
// depend on the cache being up.
type ChartCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewChartCache(client *redis.Client, ttl time.Duration) *ChartCache {
	return &ChartCache{client: client, ttl: ttl}
}

func (cc *ChartCache) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	data, err := cc.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.Warn("Chart cache read failed", "error", err.Error())
		}
		return nil, false
	}
	return data, true
}

func (cc *ChartCache) Set(key string, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := cc.client.Set(ctx, key, data, cc.ttl).Err(); err != nil {
		logging.Warn("Chart cache write failed", "error", err.Error())
	}
}

// chartCacheKey hashes every field that influences the output bytes.
func chartCacheKey(req domain.RenderRequest) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d|%s|%s",
		req.Chart.Definition, req.Chart.Width, req.Chart.Height, req.Chart.Background, req.Format)
	return "chart:" + hex.EncodeToString(h.Sum(nil))
}
