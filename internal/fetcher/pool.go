package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"xhsclient/pkg/logger"
	"xhsclient/pkg/xhs"
)

// CommentJob represents one note whose comments should be fetched
type CommentJob struct {
	NoteID string
	Title  string
}

// CommentResult represents the outcome of a comment job
type CommentResult struct {
	Job      CommentJob
	Comments []xhs.Comment
	Success  bool
	Error    error
	Duration time.Duration
}

// CommentFetcher fetches comments for a note. Implemented by xhs.Client.
type CommentFetcher interface {
	GetComments(ctx context.Context, noteID string, count int) ([]xhs.Comment, error)
}

// FetchedChecker reports whether a note has already been processed.
// Implemented by checkpoint.Checkpoint.
type FetchedChecker interface {
	IsNoteFetched(noteID string) bool
}

// WorkerPool fetches comments for many notes concurrently. The client's own
// rate limiter still applies to every request, so the pool bounds
// parallelism without adding a second limiter.
type WorkerPool struct {
	numWorkers  int
	maxComments int
	jobQueue    chan CommentJob
	resultQueue chan CommentResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	client      CommentFetcher
	fetched     FetchedChecker
	logger      logger.Logger
}

// NewWorkerPool creates a comment-fetch worker pool. maxComments bounds the
// comments fetched per note; <= 0 means all of them. fetched may be nil.
func NewWorkerPool(
	ctx context.Context,
	numWorkers int,
	maxComments int,
	client CommentFetcher,
	fetched FetchedChecker,
	log logger.Logger,
) *WorkerPool {
	ctx, cancel := context.WithCancel(ctx)

	if log == nil {
		log = logger.GetLogger()
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		maxComments: maxComments,
		jobQueue:    make(chan CommentJob, numWorkers*2),
		resultQueue: make(chan CommentResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		client:      client,
		fetched:     fetched,
		logger:      log,
	}
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("Starting comment fetch pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop gracefully shuts down the worker pool
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Info("Comment fetch pool stopped")
}

// Submit adds a note to the queue
func (wp *WorkerPool) Submit(job CommentJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the result channel for consuming fetched comments
func (wp *WorkerPool) Results() <-chan CommentResult {
	return wp.resultQueue
}

// worker is the main worker routine
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob fetches the comments for one note
func (wp *WorkerPool) processJob(job CommentJob, workerID int) CommentResult {
	start := time.Now()
	result := CommentResult{
		Job:     job,
		Success: false,
	}

	if wp.fetched != nil && wp.fetched.IsNoteFetched(job.NoteID) {
		wp.logger.DebugWithFields("Note already fetched, skipping", map[string]interface{}{
			"worker_id": workerID,
			"note_id":   job.NoteID,
		})
		result.Success = true
		result.Duration = time.Since(start)
		return result
	}

	comments, err := wp.client.GetComments(wp.ctx, job.NoteID, wp.maxComments)
	result.Duration = time.Since(start)

	if err != nil {
		result.Error = fmt.Errorf("comment fetch failed: %w", err)

		wp.logger.ErrorWithFields("Worker failed to fetch comments", map[string]interface{}{
			"worker_id": workerID,
			"note_id":   job.NoteID,
			"error":     err.Error(),
			"duration":  result.Duration,
		})

		return result
	}

	result.Comments = comments
	result.Success = true

	wp.logger.DebugWithFields("Worker fetched comments", map[string]interface{}{
		"worker_id": workerID,
		"note_id":   job.NoteID,
		"comments":  len(comments),
		"duration":  result.Duration,
	})

	return result
}

// GetQueueSize returns the current number of jobs in the queue
func (wp *WorkerPool) GetQueueSize() int {
	return len(wp.jobQueue)
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}
