package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gcvision-go/internal/core/models"
)

// stubAnnotator returns a fixed report per path and counts invocations.
type stubAnnotator struct {
	calls   atomic.Int64
	failFor string
}

func (s *stubAnnotator) AnnotateFile(ctx context.Context, path string, mode models.Mode, maxResults int) (*models.Report, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.failFor != "" && filepath.Base(path) == s.failFor {
		return nil, errors.New("stub failure")
	}
	return &models.Report{
		Image:  path,
		Labels: []models.Label{{Description: "stub", Score: 0.5}},
	}, nil
}

func TestWorkerPoolAnnotateImage(t *testing.T) {
	stub := &stubAnnotator{}
	pool := NewWorkerPool(stub, 2)
	defer pool.Shutdown()

	assert.Equal(t, 2, pool.WorkerCount())
	assert.Equal(t, 4, pool.QueueCapacity())

	report, err := pool.AnnotateImage(context.Background(), "cat.jpg", models.ModeLabels, 5)
	require.NoError(t, err)
	assert.Equal(t, "cat.jpg", report.Image)
	assert.EqualValues(t, 1, stub.calls.Load())
	assert.Equal(t, 0, pool.ActiveJobCount())
}

func TestWorkerPoolCancelledContext(t *testing.T) {
	pool := NewWorkerPool(&stubAnnotator{}, 1)
	defer pool.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pool.AnnotateImage(ctx, "cat.jpg", models.ModeLabels, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkerPoolDefaultWorkerCount(t *testing.T) {
	pool := NewWorkerPool(&stubAnnotator{}, 0)
	defer pool.Shutdown()

	assert.GreaterOrEqual(t, pool.WorkerCount(), 2)
}

func TestCollectImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.jpg", "a.png", "notes.txt", "c.JPEG"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	paths, err := CollectImages(dir)
	require.NoError(t, err)

	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "a.png"), paths[0])
	assert.Equal(t, filepath.Join(dir, "b.jpg"), paths[1])
	assert.Equal(t, filepath.Join(dir, "c.JPEG"), paths[2])
}

func TestProcessDirectory(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, fmt.Sprintf("img%d.jpg", i))
		require.NoError(t, os.WriteFile(name, []byte("x"), 0644))
	}

	stub := &stubAnnotator{}
	batch := NewBatchProcessor(stub, 3, nil)
	defer batch.Shutdown()

	results, err := batch.ProcessDirectory(context.Background(), dir, models.ModeLabels, 5)
	require.NoError(t, err)
	require.Len(t, results, 5)

	for _, result := range results {
		require.NoError(t, result.Err)
		require.NotNil(t, result.Report)
	}
	assert.EqualValues(t, 5, stub.calls.Load())
}

func TestProcessDirectoryPartialFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.jpg"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.jpg"), []byte("x"), 0644))

	batch := NewBatchProcessor(&stubAnnotator{failFor: "bad.jpg"}, 2, nil)
	defer batch.Shutdown()

	results, err := batch.ProcessDirectory(context.Background(), dir, models.ModeLabels, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byName := map[string]BatchResult{}
	for _, result := range results {
		byName[filepath.Base(result.Path)] = result
	}
	assert.Error(t, byName["bad.jpg"].Err)
	assert.NoError(t, byName["good.jpg"].Err)
}

func TestProcessDirectoryEmpty(t *testing.T) {
	batch := NewBatchProcessor(&stubAnnotator{}, 2, nil)
	defer batch.Shutdown()

	results, err := batch.ProcessDirectory(context.Background(), t.TempDir(), models.ModeLabels, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
