package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/shwemart/shwemart/internal/cache"
	"github.com/sirupsen/logrus"
)

// CacheHandler executes cache:invalidate jobs. Re-invalidating a pattern
// whose keys are already gone removes nothing and succeeds, so redelivery
// is harmless.
type CacheHandler struct {
	cache  *cache.Cache
	logger *logrus.Logger
}

func NewCacheHandler(c *cache.Cache, logger *logrus.Logger) *CacheHandler {
	return &CacheHandler{
		cache:  c,
		logger: logger,
	}
}

func (h *CacheHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload CacheInvalidatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal cache invalidate payload: %v: %w", err, asynq.SkipRetry)
	}

	removed, err := h.cache.Invalidate(ctx, payload.Pattern)
	if err != nil {
		return fmt.Errorf("failed to invalidate pattern %s: %w", payload.Pattern, err)
	}

	h.logger.WithFields(logrus.Fields{
		"pattern": payload.Pattern,
		"removed": removed,
	}).Info("Invalidated cache entries")

	return nil
}
