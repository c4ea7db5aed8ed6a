package jobs

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/disintegration/imaging"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/shwemart/shwemart/internal/cache"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func writeSourceImage(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1200, 900))
	for x := 0; x < 1200; x += 10 {
		for y := 0; y < 900; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	path := filepath.Join(dir, "source.png")
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestImageHandlerProducesBoundedDerivative(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	source := writeSourceImage(t, srcDir)

	task, err := NewImageOptimizeTask(ImageOptimizePayload{
		Source:  source,
		Output:  "source.jpg",
		Width:   835,
		Height:  577,
		Quality: 75,
	})
	require.NoError(t, err)

	h := NewImageHandler(outDir, newTestLogger())
	require.NoError(t, h.ProcessTask(context.Background(), task))

	out, err := imaging.Open(filepath.Join(outDir, "source.jpg"))
	require.NoError(t, err)
	bounds := out.Bounds()
	assert.LessOrEqual(t, bounds.Dx(), 835)
	assert.LessOrEqual(t, bounds.Dy(), 577)
}

func TestImageHandlerRedeliveryOverwritesSameFile(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	source := writeSourceImage(t, srcDir)

	task, err := NewImageOptimizeTask(ImageOptimizePayload{
		Source:  source,
		Output:  "source.jpg",
		Width:   835,
		Height:  577,
		Quality: 75,
	})
	require.NoError(t, err)

	h := NewImageHandler(outDir, newTestLogger())
	require.NoError(t, h.ProcessTask(context.Background(), task))
	require.NoError(t, h.ProcessTask(context.Background(), task))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestImageHandlerBadPayloadSkipsRetry(t *testing.T) {
	h := NewImageHandler(t.TempDir(), newTestLogger())

	err := h.ProcessTask(context.Background(), asynq.NewTask(TypeImageOptimize, []byte("{broken")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestImageHandlerMissingSourceFails(t *testing.T) {
	task, err := NewImageOptimizeTask(ImageOptimizePayload{
		Source:  filepath.Join(t.TempDir(), "missing.png"),
		Output:  "missing.jpg",
		Width:   835,
		Height:  577,
		Quality: 75,
	})
	require.NoError(t, err)

	h := NewImageHandler(t.TempDir(), newTestLogger())
	err = h.ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestCacheHandlerInvalidatesPattern(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	require.NoError(t, mr.Set("products:q:default", "x"))
	require.NoError(t, mr.Set("posts:q:default", "x"))

	task, err := NewCacheInvalidateTask(CacheInvalidatePayload{Pattern: "products:*"})
	require.NoError(t, err)

	h := NewCacheHandler(cache.New(client, newTestLogger()), newTestLogger())
	require.NoError(t, h.ProcessTask(context.Background(), task))

	assert.False(t, mr.Exists("products:q:default"))
	assert.True(t, mr.Exists("posts:q:default"))

	// Redelivery of the same task succeeds with nothing left to remove.
	require.NoError(t, h.ProcessTask(context.Background(), task))
}

func TestCacheHandlerBadPayloadSkipsRetry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	h := NewCacheHandler(cache.New(client, newTestLogger()), newTestLogger())
	err := h.ProcessTask(context.Background(), asynq.NewTask(TypeCacheInvalidate, []byte("{broken")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
