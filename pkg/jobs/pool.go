package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job represents one unit of work handed to a Pool.
type Job struct {
	ID      string
	Type    string
	Payload interface{}
	Attempt int
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// Result is the final outcome of a job after retries.
type Result struct {
	Job      Job
	Err      error
	Duration time.Duration
}

// PoolConfig configures worker pool behaviour.
type PoolConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Pool runs a batch of jobs on a fixed number of goroutines and retries failures.
type Pool struct {
	name    string
	handler Handler

	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewPool builds a pool with the provided handler. A negative MaxRetries disables retries.
func NewPool(name string, handler Handler, cfg PoolConfig) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Pool{
		name:       name,
		handler:    handler,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
	}
}

// Run processes every job and returns one result per job, in input order. Jobs not started
// before ctx is done report the context error.
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	indexes := make(chan int)

	workers := p.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexes {
				results[idx] = p.process(ctx, jobs[idx])
			}
		}()
	}
	p.logger.Sugar().Debugw("pool started", "pool", p.name, "workers", workers, "jobs", len(jobs))

	next := 0
feed:
	for ; next < len(jobs); next++ {
		select {
		case <-ctx.Done():
			break feed
		case indexes <- next:
		}
	}
	close(indexes)
	wg.Wait()

	for ; next < len(jobs); next++ {
		results[next] = Result{Job: jobs[next], Err: ctx.Err()}
	}
	return results
}

func (p *Pool) process(ctx context.Context, job Job) Result {
	start := time.Now()
	for {
		err := p.handler(ctx, job)
		if err == nil {
			return Result{Job: job, Duration: time.Since(start)}
		}

		job.Attempt++
		if job.Attempt > p.maxRetries || ctx.Err() != nil {
			p.logger.Sugar().Errorw("job failed", "pool", p.name, "job_id", job.ID, "type", job.Type, "attempts", job.Attempt, "error", err)
			return Result{Job: job, Err: err, Duration: time.Since(start)}
		}
		p.logger.Sugar().Warnw("job failed, retrying", "pool", p.name, "job_id", job.ID, "type", job.Type, "attempt", job.Attempt, "error", err)

		timer := time.NewTimer(p.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Result{Job: job, Err: err, Duration: time.Since(start)}
		case <-timer.C:
		}
	}
}
