package aggregation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/earlyguard/platform/pkg/assessment"
	"github.com/earlyguard/platform/pkg/common/logger"
)

const healthKeyPrefix = "earlyguard:predictor:down:"

// HealthCache remembers, for a short TTL, that a domain's prediction service
// was seen hard down, so back-to-back aggregations skip the doomed network
// attempt and go straight to the fallback heuristic. It stores availability
// flags only, never payloads. A nil cache disables the behavior; redis
// errors are treated as "not down".
type HealthCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewHealthCache(rdb *redis.Client, ttl time.Duration) *HealthCache {
	if rdb == nil || ttl <= 0 {
		return nil
	}
	return &HealthCache{rdb: rdb, ttl: ttl}
}

func (h *HealthCache) Down(ctx context.Context, domain assessment.Domain) bool {
	if h == nil {
		return false
	}
	n, err := h.rdb.Exists(ctx, healthKeyPrefix+string(domain)).Result()
	if err != nil {
		return false
	}
	return n > 0
}

func (h *HealthCache) MarkDown(ctx context.Context, domain assessment.Domain) {
	if h == nil {
		return
	}
	if err := h.rdb.Set(ctx, healthKeyPrefix+string(domain), time.Now().UTC().Format(time.RFC3339), h.ttl).Err(); err != nil {
		logger.Log.WithError(err).WithField("domain", string(domain)).Debug("Failed to record predictor outage")
	}
}

func (h *HealthCache) MarkUp(ctx context.Context, domain assessment.Domain) {
	if h == nil {
		return
	}
	if err := h.rdb.Del(ctx, healthKeyPrefix+string(domain)).Err(); err != nil {
		logger.Log.WithError(err).WithField("domain", string(domain)).Debug("Failed to clear predictor outage")
	}
}
