// Package worker parses many messages concurrently: a long-lived Pool with
// a job channel for streaming workloads, and ParseAll for one-shot slices.
package worker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	hl7v2 "github.com/DNAi-inc/DNHealth-sub002"
	"github.com/DNAi-inc/DNHealth-sub002/cache"
	"github.com/DNAi-inc/DNHealth-sub002/codec"
)

// Pool manages a fixed set of parser goroutines fed by a job channel.
type Pool struct {
	workers    int
	jobsChan   chan Job
	resultChan chan *JobResult
	parser     *codec.Parser
	memo       *cache.Cache[string, *hl7v2.Message]
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	closed     atomic.Bool

	jobsSubmitted atomic.Uint64
	jobsCompleted atomic.Uint64
	totalDuration atomic.Uint64
}

// NewPool creates a pool with the given number of workers; workers <= 0
// means runtime.NumCPU(). Options configure the parser shared by all
// workers.
func NewPool(workers int, opts ...hl7v2.Option) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		workers:    workers,
		jobsChan:   make(chan Job, workers*2),
		resultChan: make(chan *JobResult, workers*2),
		parser:     codec.NewParser(opts...),
		ctx:        ctx,
		cancel:     cancel,
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// WithCache memoizes parse results by message text. Useful when the same
// feed replays identical messages; callers must not mutate cached messages.
func (p *Pool) WithCache(c *cache.Cache[string, *hl7v2.Message]) *Pool {
	p.memo = c
	return p
}

// Submit queues a job, blocking while the queue is full. It reports false
// once the pool is closed.
func (p *Pool) Submit(job Job) bool {
	if p.closed.Load() {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobsChan <- job:
		p.jobsSubmitted.Add(1)
		return true
	}
}

// SubmitAsync queues a job without blocking, reporting false when the queue
// is full or the pool is closed.
func (p *Pool) SubmitAsync(job Job) bool {
	if p.closed.Load() {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobsChan <- job:
		p.jobsSubmitted.Add(1)
		return true
	default:
		return false
	}
}

// Results returns the channel job results arrive on.
func (p *Pool) Results() <-chan *JobResult {
	return p.resultChan
}

// Close shuts the pool down, discarding any undelivered results.
func (p *Pool) Close() {
	if p.closed.Swap(true) {
		return
	}

	p.cancel()
	close(p.jobsChan)

	done := make(chan struct{})
	go func() {
		for range p.resultChan {
		}
		close(done)
	}()

	p.wg.Wait()
	close(p.resultChan)
	<-done
}

// CloseAndWait stops accepting jobs, lets queued work finish and returns
// every pending result.
func (p *Pool) CloseAndWait() *BatchResult {
	if p.closed.Swap(true) {
		return &BatchResult{}
	}

	close(p.jobsChan)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(p.resultChan)
		close(done)
	}()

	results := make([]*JobResult, 0)
	for result := range p.resultChan {
		results = append(results, result)
	}
	<-done
	p.cancel()

	return &BatchResult{
		Results:       results,
		TotalJobs:     int(p.jobsSubmitted.Load()),
		CompletedJobs: int(p.jobsCompleted.Load()),
		TotalDuration: time.Duration(p.totalDuration.Load()),
	}
}

// PoolStats is a point-in-time view of pool activity.
type PoolStats struct {
	Workers       int
	JobsSubmitted uint64
	JobsCompleted uint64
	AvgDuration   time.Duration
}

// Stats returns current pool statistics.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:       p.workers,
		JobsSubmitted: p.jobsSubmitted.Load(),
		JobsCompleted: p.jobsCompleted.Load(),
		AvgDuration:   p.averageDuration(),
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for job := range p.jobsChan {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		result := p.processJob(job)
		p.jobsCompleted.Add(1)
		p.totalDuration.Add(uint64(result.Duration))

		select {
		case <-p.ctx.Done():
			return
		case p.resultChan <- result:
		}
	}
}

func (p *Pool) processJob(job Job) *JobResult {
	start := time.Now()
	result := &JobResult{ID: job.ID}

	if p.memo != nil {
		if msg, ok := p.memo.Get(job.Text); ok {
			result.Message = msg
			result.Duration = time.Since(start)
			return result
		}
	}

	msg, warnings, err := p.parser.Parse(job.Text)
	result.Message = msg
	result.Warnings = warnings
	result.Err = err

	if err == nil && p.memo != nil {
		p.memo.Set(job.Text, msg)
	}

	result.Duration = time.Since(start)
	return result
}

func (p *Pool) averageDuration() time.Duration {
	completed := p.jobsCompleted.Load()
	if completed == 0 {
		return 0
	}
	return time.Duration(p.totalDuration.Load() / completed)
}
