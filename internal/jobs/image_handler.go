package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// ImageHandler re-encodes uploaded originals into resized JPEG derivatives.
// The output path is fully determined by the payload, so running the same
// task twice produces the same file.
type ImageHandler struct {
	outputDir string
	logger    *logrus.Logger
}

func NewImageHandler(outputDir string, logger *logrus.Logger) *ImageHandler {
	return &ImageHandler{
		outputDir: outputDir,
		logger:    logger,
	}
}

func (h *ImageHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageOptimizePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image optimize payload: %v: %w", err, asynq.SkipRetry)
	}

	src, err := imaging.Open(payload.Source)
	if err != nil {
		return fmt.Errorf("failed to open source image %s: %w", payload.Source, err)
	}

	resized := imaging.Fit(src, payload.Width, payload.Height, imaging.Lanczos)

	if err := os.MkdirAll(h.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	output := filepath.Join(h.outputDir, payload.Output)
	if err := imaging.Save(resized, output, imaging.JPEGQuality(payload.Quality)); err != nil {
		return fmt.Errorf("failed to save optimized image %s: %w", output, err)
	}

	h.logger.WithFields(logrus.Fields{
		"source": payload.Source,
		"output": output,
	}).Info("Optimized image")

	return nil
}
