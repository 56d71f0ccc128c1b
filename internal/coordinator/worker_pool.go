package coordinator

import (
	"context"

	"github.com/animathic/backend/internal/concurrency"
	"github.com/animathic/backend/internal/domain"
)

// WorkerPool bounds how many jobs run through the Coordinator at once
// (worker_concurrency, §6), distinct from the admission-time queue_max
// limit enforced at the HTTP boundary: a job can be admitted and wait
// here for a free worker slot before Run actually starts.
type WorkerPool struct {
	coordinator *Coordinator
	sem         *concurrency.Semaphore
}

// NewWorkerPool wraps coord with a worker_concurrency-wide admission gate.
func NewWorkerPool(coord *Coordinator, workerConcurrency int) *WorkerPool {
	return &WorkerPool{coordinator: coord, sem: concurrency.NewSemaphore(workerConcurrency)}
}

// Run blocks until a worker slot is free, then drives job through the
// pipeline. Satisfies the same Run(ctx, job) contract the HTTP layer's
// jobRunner interface expects.
func (p *WorkerPool) Run(ctx context.Context, job *domain.Job) {
	if err := p.sem.Acquire(ctx); err != nil {
		return
	}
	defer p.sem.Release()
	p.coordinator.Run(ctx, job)
}
