package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	TypeImageOptimize   = "image:optimize"
	TypeCacheInvalidate = "cache:invalidate"
)

// ImageOptimizePayload describes one derivative to produce. OutputName is
// derived from the source name, so redelivering the task overwrites the same
// file instead of creating a new one.
type ImageOptimizePayload struct {
	Source  string `json:"source"`
	Output  string `json:"output"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Quality int    `json:"quality"`
}

type CacheInvalidatePayload struct {
	Pattern string `json:"pattern"`
}

func NewImageOptimizeTask(payload ImageOptimizePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image optimize payload: %w", err)
	}
	return asynq.NewTask(TypeImageOptimize, data), nil
}

func NewCacheInvalidateTask(payload CacheInvalidatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cache invalidate payload: %w", err)
	}
	return asynq.NewTask(TypeCacheInvalidate, data), nil
}
