package pool

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Gzeu/salahor/types"
)

// WorkerState is the lifecycle state of a pool worker.
type WorkerState int

const (
	// Idle means the worker is waiting for an assignment.
	Idle WorkerState = iota
	// Busy means the worker is executing a task.
	Busy
	// Terminating means the worker has been told to exit after its current
	// task, and accepts no further assignments.
	Terminating
	// Terminated means the worker goroutine has exited.
	Terminated
)

// String returns the state name used in logs.
func (s WorkerState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Busy:
		return "busy"
	case Terminating:
		return "terminating"
	default:
		return "terminated"
	}
}

type task[P, R any] struct {
	id         uuid.UUID
	payload    P
	future     *Future[R]
	enqueuedAt time.Time
}

type workerRecord[P, R any] struct {
	id         uuid.UUID
	state      WorkerState
	lastUsedAt time.Time
	current    *task[P, R]
	taskCh     chan *task[P, R]
	stopOnce   sync.Once
}

// stop tells the worker to exit once it has no task in flight. Safe to call
// more than once.
func (w *workerRecord[P, R]) stop() {
	w.stopOnce.Do(func() { close(w.taskCh) })
}

// spawnWorkerLocked creates a worker record and starts its goroutine.
// Caller holds p.mu.
func (p *WorkerPool[P, R]) spawnWorkerLocked() *workerRecord[P, R] {
	w := &workerRecord[P, R]{
		id:         uuid.New(),
		state:      Idle,
		lastUsedAt: time.Now(),
		taskCh:     make(chan *task[P, R], 1),
	}
	p.workers[w.id] = w
	p.wg.Add(1)
	go p.runWorker(w)

	p.metrics.RecordWorkerCount(p.name, len(p.workers))
	p.logger.Debug("worker spawned",
		zap.String("worker", w.id.String()),
		zap.Int("workers", len(p.workers)),
	)
	return w
}

// assignLocked hands a task to an idle worker. Caller holds p.mu.
func (p *WorkerPool[P, R]) assignLocked(w *workerRecord[P, R], t *task[P, R]) {
	w.state = Busy
	w.current = t
	w.lastUsedAt = time.Now()
	w.taskCh <- t
}

// idleWorkerLocked returns any idle worker, or nil. Caller holds p.mu.
func (p *WorkerPool[P, R]) idleWorkerLocked() *workerRecord[P, R] {
	for _, w := range p.workers {
		if w.state == Idle {
			return w
		}
	}
	return nil
}

func (p *WorkerPool[P, R]) runWorker(w *workerRecord[P, R]) {
	defer p.wg.Done()

	for t := range w.taskCh {
		started := time.Now()
		result, err, panicked := p.runTask(t)
		duration := time.Since(started)

		if panicked {
			t.future.reject(err)
			p.failed.Add(1)
			p.metrics.RecordTaskFailed(p.name, duration)
			p.handleWorkerFailure(w, err)
			return
		}

		if err != nil {
			t.future.reject(err)
			p.failed.Add(1)
			p.metrics.RecordTaskFailed(p.name, duration)
		} else {
			t.future.resolve(result)
			p.completed.Add(1)
			p.metrics.RecordTaskCompleted(p.name, duration)
		}

		p.mu.Lock()
		w.state = Idle
		w.current = nil
		w.lastUsedAt = time.Now()
		p.drainLocked()
		p.mu.Unlock()
	}

	p.removeWorker(w)
}

// runTask executes the worker function with panic isolation.
func (p *WorkerPool[P, R]) runTask(t *task[P, R]) (result R, err error, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			err = types.NewError(types.ErrWorkerFailure, fmt.Sprintf("worker panic: %v", r))
		}
	}()
	result, err = p.fn(p.rootCtx, t.payload)
	return result, err, false
}

// handleWorkerFailure terminates the failed worker and spawns a replacement
// unless the pool is shutting down. Only the in-flight task is rejected; the
// pool itself survives.
func (p *WorkerPool[P, R]) handleWorkerFailure(w *workerRecord[P, R], cause error) {
	p.mu.Lock()
	w.state = Terminated
	w.current = nil
	delete(p.workers, w.id)
	replace := !p.terminating && len(p.workers) < p.cfg.MaxWorkers
	if replace {
		p.spawnWorkerLocked()
		p.drainLocked()
	}
	count := len(p.workers)
	p.mu.Unlock()

	p.replaced.Add(1)
	p.metrics.RecordWorkerCount(p.name, count)
	p.logger.Warn("worker failed",
		zap.String("worker", w.id.String()),
		zap.Bool("replaced", replace),
		zap.Error(cause),
	)
}

// removeWorker finalizes a worker that exited its loop (reap or shutdown).
func (p *WorkerPool[P, R]) removeWorker(w *workerRecord[P, R]) {
	p.mu.Lock()
	w.state = Terminated
	delete(p.workers, w.id)
	count := len(p.workers)
	p.mu.Unlock()

	p.metrics.RecordWorkerCount(p.name, count)
	p.logger.Debug("worker exited",
		zap.String("worker", w.id.String()),
		zap.Int("workers", count),
	)
}

// drainLocked assigns queued tasks to idle workers in FIFO order, at most
// drainBatchSize per pass. A remaining backlog is handed to another pass on a
// fresh goroutine so draining never monopolizes the caller. Caller holds p.mu.
func (p *WorkerPool[P, R]) drainLocked() {
	if p.terminating {
		return
	}
	assigned := 0
	for len(p.taskQueue) > 0 && assigned < drainBatchSize {
		w := p.idleWorkerLocked()
		if w == nil {
			break
		}
		t := p.taskQueue[0]
		p.taskQueue = p.taskQueue[1:]
		p.assignLocked(w, t)
		assigned++
	}
	p.metrics.RecordPoolQueueDepth(p.name, len(p.taskQueue))

	if len(p.taskQueue) > 0 && assigned == drainBatchSize {
		go func() {
			p.mu.Lock()
			p.drainLocked()
			p.mu.Unlock()
		}()
	}
}

// reaper periodically terminates workers idle beyond IdleTimeout, never
// reducing the pool below MinWorkers.
func (p *WorkerPool[P, R]) reaper() {
	ticker := time.NewTicker(p.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.reapIdle()
		case <-p.reaperRun:
			return
		}
	}
}

func (p *WorkerPool[P, R]) reapIdle() {
	now := time.Now()

	p.mu.Lock()
	var victims []*workerRecord[P, R]
	for _, w := range p.workers {
		if len(p.workers)-len(victims) <= p.cfg.MinWorkers {
			break
		}
		if w.state == Idle && now.Sub(w.lastUsedAt) > p.cfg.IdleTimeout {
			w.state = Terminating
			victims = append(victims, w)
		}
	}
	p.mu.Unlock()

	for _, w := range victims {
		w.stop()
		p.reaped.Add(1)
		p.logger.Debug("reaped idle worker", zap.String("worker", w.id.String()))
	}
}
