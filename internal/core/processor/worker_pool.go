package processor

import (
	"context"
	"runtime"
	"sync"
	"time"

	"gcvision-go/internal/core/models"

	log "github.com/sirupsen/logrus"
)

// Annotator is the annotation backend the pool runs jobs against.
type Annotator interface {
	AnnotateFile(ctx context.Context, path string, mode models.Mode, maxResults int) (*models.Report, error)
}

// WorkerPool manages a pool of worker goroutines for image annotation.
type WorkerPool struct {
	annotator       Annotator
	jobs            chan *annotateJob
	workerCount     int
	activeJobs      int
	activeJobsMutex sync.Mutex
	shutdown        chan struct{}
}

type annotateJob struct {
	ctx        context.Context
	imagePath  string
	mode       models.Mode
	maxResults int
	resultCh   chan *annotateResult // individual result channel per job
}

type annotateResult struct {
	report *models.Report
	err    error
}

// NewWorkerPool creates a pool. A workerCount <= 0 selects 75% of the
// available CPUs, at least 2.
func NewWorkerPool(annotator Annotator, workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = max(2, (runtime.NumCPU()*3)/4)
	}

	log.Infof("Initializing annotation worker pool with %d workers", workerCount)

	pool := &WorkerPool{
		annotator:   annotator,
		jobs:        make(chan *annotateJob, workerCount*2),
		workerCount: workerCount,
		shutdown:    make(chan struct{}),
	}

	pool.startWorkers()

	return pool
}

func (p *WorkerPool) startWorkers() {
	for i := 0; i < p.workerCount; i++ {
		go func(workerID int) {
			log.Debugf("Worker %d started", workerID)

			for {
				select {
				case job, ok := <-p.jobs:
					if !ok {
						log.Debugf("Worker %d shutting down (job channel closed)", workerID)
						return
					}

					p.activeJobsMutex.Lock()
					p.activeJobs++
					p.activeJobsMutex.Unlock()

					start := time.Now()
					report, err := p.annotator.AnnotateFile(job.ctx, job.imagePath, job.mode, job.maxResults)

					p.activeJobsMutex.Lock()
					p.activeJobs--
					p.activeJobsMutex.Unlock()

					select {
					case job.resultCh <- &annotateResult{report: report, err: err}:
					default:
						log.Warnf("Worker %d: could not send result, channel might be closed", workerID)
					}

					log.Debugf("Worker %d completed %s in %v", workerID, job.imagePath, time.Since(start))

				case <-p.shutdown:
					log.Debugf("Worker %d received shutdown signal", workerID)
					return
				}
			}
		}(i)
	}
}

// AnnotateImage runs one annotation through the pool and blocks until the
// result is available or the context is cancelled.
func (p *WorkerPool) AnnotateImage(ctx context.Context, imagePath string, mode models.Mode, maxResults int) (*models.Report, error) {
	resultCh := make(chan *annotateResult, 1)

	job := &annotateJob{
		ctx:        ctx,
		imagePath:  imagePath,
		mode:       mode,
		maxResults: maxResults,
		resultCh:   resultCh,
	}

	select {
	case p.jobs <- job:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case result := <-resultCh:
		return result.report, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ActiveJobCount returns the number of jobs currently being processed.
func (p *WorkerPool) ActiveJobCount() int {
	p.activeJobsMutex.Lock()
	defer p.activeJobsMutex.Unlock()
	return p.activeJobs
}

// WorkerCount returns the number of workers in the pool.
func (p *WorkerPool) WorkerCount() int {
	return p.workerCount
}

// QueueCapacity returns the capacity of the job queue.
func (p *WorkerPool) QueueCapacity() int {
	return cap(p.jobs)
}

// Shutdown stops the pool.
func (p *WorkerPool) Shutdown() {
	close(p.shutdown)
	close(p.jobs)
}
