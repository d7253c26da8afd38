package scan

import (
	"context"
	"sync"

	"github.com/mikey/awb-scanner/internal/core"
	"go.uber.org/zap"
)

const defaultBatchSize = 10

// ProgressFunc receives the cumulative completion percentage (0-100) as
// batches finish.
type ProgressFunc func(percent int)

type job struct {
	ctx   context.Context
	batch []core.Message
	out   chan<- []core.ReferenceMatch
}

// Orchestrator partitions a message corpus into fixed-size batches and
// scans them on a long-lived bounded worker pool. The pool is shared by
// every Scan call and must be released with Stop when the orchestrator is
// no longer needed.
type Orchestrator struct {
	service *core.ScanService
	logger  *zap.Logger

	jobs     chan job
	wg       sync.WaitGroup
	stopOnce sync.Once

	mu     sync.Mutex
	closed bool
}

// NewOrchestrator creates an orchestrator and starts its worker pool
func NewOrchestrator(service *core.ScanService, workers int, logger *zap.Logger) *Orchestrator {
	if workers <= 0 {
		workers = 4
	}

	o := &Orchestrator{
		service: service,
		logger:  logger,
		jobs:    make(chan job, workers*2),
	}

	for i := 0; i < workers; i++ {
		o.wg.Add(1)
		go o.worker(i)
	}

	return o
}

// Stop shuts the worker pool down and waits for in-flight batches. Safe to
// call more than once; a Scan issued afterwards returns no matches.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		o.mu.Lock()
		o.closed = true
		o.mu.Unlock()
		close(o.jobs)
		o.wg.Wait()
	})
}

// Scan runs the detection pipeline over the whole corpus. Batches complete
// in any order; progress is reported cumulatively so the percentage never
// goes backwards and reaches 100 once every batch has finished or failed.
// The aggregate result is deduplicated across batches and ranked by
// descending confidence.
func (o *Orchestrator) Scan(ctx context.Context, messages []core.Message, batchSize int, progress ProgressFunc) []core.ReferenceMatch {
	if len(messages) == 0 {
		if progress != nil {
			progress(100)
		}
		return nil
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	batches := partition(messages, batchSize)
	out := make(chan []core.ReferenceMatch, len(batches))

	// Submission holds the lock so Stop cannot close the queue while
	// batches are still being handed to it.
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		o.logger.Warn("Scan requested on a stopped orchestrator")
		return nil
	}
	for _, batch := range batches {
		o.jobs <- job{ctx: ctx, batch: batch, out: out}
	}
	o.mu.Unlock()

	var all []core.ReferenceMatch
	for completed := 1; completed <= len(batches); completed++ {
		all = append(all, <-out...)
		if progress != nil {
			progress(completed * 100 / len(batches))
		}
	}

	o.logger.Debug("Scan complete",
		zap.Int("messages", len(messages)),
		zap.Int("batches", len(batches)),
		zap.Int("matches", len(all)))

	all = core.Dedupe(all)
	core.SortByConfidence(all)
	return all
}

// worker drains the job queue until the orchestrator is stopped
func (o *Orchestrator) worker(id int) {
	defer o.wg.Done()

	for j := range o.jobs {
		j.out <- o.runBatch(j.ctx, j.batch, id)
	}
}

// runBatch scans one batch. A panic inside the batch is contained: the
// batch yields an empty result and the others keep running.
func (o *Orchestrator) runBatch(ctx context.Context, batch []core.Message, workerID int) (matches []core.ReferenceMatch) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Batch scan failed",
				zap.Int("worker", workerID),
				zap.Int("batch_size", len(batch)),
				zap.Any("panic", r))
			matches = nil
		}
	}()

	for i := range batch {
		if ctx.Err() != nil {
			return matches
		}
		matches = append(matches, o.service.ScanMessage(ctx, &batch[i])...)
	}
	return matches
}

// partition splits the corpus into contiguous slices of batchSize; the
// last batch may be shorter.
func partition(messages []core.Message, batchSize int) [][]core.Message {
	var batches [][]core.Message
	for start := 0; start < len(messages); start += batchSize {
		end := start + batchSize
		if end > len(messages) {
			end = len(messages)
		}
		batches = append(batches, messages[start:end])
	}
	return batches
}
