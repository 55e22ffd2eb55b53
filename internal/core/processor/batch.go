package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gcvision-go/internal/core/models"
	"gcvision-go/internal/integrations/mqtt"

	log "github.com/sirupsen/logrus"
)

// imageExtensions are the file types picked up when scanning a directory.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// BatchResult is the outcome for one file of a batch run.
type BatchResult struct {
	Path   string
	Report *models.Report
	Err    error
}

// BatchProcessor annotates whole directories through the worker pool.
type BatchProcessor struct {
	pool      *WorkerPool
	publisher *mqtt.Publisher // optional
}

// NewBatchProcessor creates a batch processor with its own worker pool.
func NewBatchProcessor(annotator Annotator, workerCount int, publisher *mqtt.Publisher) *BatchProcessor {
	return &BatchProcessor{
		pool:      NewWorkerPool(annotator, workerCount),
		publisher: publisher,
	}
}

// Pool exposes the underlying worker pool for status reporting.
func (b *BatchProcessor) Pool() *WorkerPool {
	return b.pool
}

// Shutdown stops the underlying pool.
func (b *BatchProcessor) Shutdown() {
	b.pool.Shutdown()
}

// CollectImages lists the image files directly inside dir, sorted by name.
func CollectImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if imageExtensions[ext] {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	return paths, nil
}

// ProcessDirectory annotates every image file in dir. One failing file does
// not abort the batch; its error is reported in its BatchResult.
func (b *BatchProcessor) ProcessDirectory(ctx context.Context, dir string, mode models.Mode, maxResults int) ([]BatchResult, error) {
	paths, err := CollectImages(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		log.Warnf("No image files found in %s", dir)
		return nil, nil
	}

	log.Infof("Batch: annotating %d image(s) from %s", len(paths), dir)

	results := make([]BatchResult, len(paths))
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(idx int, imagePath string) {
			defer wg.Done()

			report, err := b.pool.AnnotateImage(ctx, imagePath, mode, maxResults)
			results[idx] = BatchResult{Path: imagePath, Report: report, Err: err}

			if err == nil {
				if pubErr := b.publisher.PublishReport(report); pubErr != nil {
					log.Warnf("Batch: failed to publish report for %s: %v", imagePath, pubErr)
				}
			}
		}(i, path)
	}

	wg.Wait()

	succeeded := 0
	for _, result := range results {
		if result.Err == nil {
			succeeded++
		}
	}
	log.Infof("Batch finished: %d succeeded, %d failed", succeeded, len(results)-succeeded)

	return results, nil
}
