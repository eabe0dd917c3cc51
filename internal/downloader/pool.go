package downloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/since25/douyin-downloader/pkg/douyin"
	"github.com/since25/douyin-downloader/pkg/logger"
)

// Outcome is the per-item result status
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// Result is the outcome of one item job
type Result struct {
	AwemeID  string
	Outcome  Outcome
	Err      error
	Duration time.Duration
}

// ProcessFunc executes one item job. It must not be nil.
type ProcessFunc func(ctx context.Context, item douyin.Aweme) Result

// Pool runs batches of independent per-item jobs under a bounded worker
// count. A failing or panicking job never aborts its siblings; every input
// yields exactly one result.
type Pool struct {
	numWorkers int
	logger     logger.Logger
}

// NewPool creates a worker pool with the given concurrency limit
func NewPool(numWorkers int, log logger.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pool{numWorkers: numWorkers, logger: log}
}

// Run processes all items and returns one result per input, in input
// order. The full batch always completes; an unexpected panic inside a job
// is coerced into a failed outcome.
func (p *Pool) Run(ctx context.Context, items []douyin.Aweme, process ProcessFunc) []Result {
	results := make([]Result, len(items))
	if len(items) == 0 {
		return results
	}

	workers := p.numWorkers
	if workers > len(items) {
		workers = len(items)
	}

	p.logger.DebugWithFields("starting download batch", map[string]interface{}{
		"items":   len(items),
		"workers": workers,
	})

	jobQueue := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range jobQueue {
				results[idx] = p.runJob(ctx, workerID, items[idx], process)
			}
		}(w)
	}

	for idx := range items {
		jobQueue <- idx
	}
	close(jobQueue)
	wg.Wait()

	return results
}

// runJob executes one job, converting panics into failed results
func (p *Pool) runJob(ctx context.Context, workerID int, item douyin.Aweme, process ProcessFunc) (result Result) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result = Result{
				AwemeID:  item.AwemeID,
				Outcome:  OutcomeFailed,
				Err:      fmt.Errorf("job panicked: %v", r),
				Duration: time.Since(start),
			}
			p.logger.ErrorWithFields("worker recovered from panic", map[string]interface{}{
				"worker_id": workerID,
				"aweme_id":  item.AwemeID,
				"panic":     fmt.Sprintf("%v", r),
			})
		}
	}()

	result = process(ctx, item)
	if result.AwemeID == "" {
		result.AwemeID = item.AwemeID
	}
	if result.Duration == 0 {
		result.Duration = time.Since(start)
	}

	return result
}
