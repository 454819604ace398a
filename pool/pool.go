package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Gzeu/salahor/internal/metrics"
	"github.com/Gzeu/salahor/types"
)

// WorkerFunc is the work executed for every payload submitted to the pool.
// The context is cancelled when the pool is force-terminated.
type WorkerFunc[P, R any] func(ctx context.Context, payload P) (R, error)

// Config configures a WorkerPool.
type Config struct {
	// Name identifies the pool in logs and metrics.
	Name string
	// MinWorkers is the floor the reaper never goes below. Default 1.
	MinWorkers int
	// MaxWorkers caps on-demand growth. Default 4.
	MaxWorkers int
	// IdleTimeout is how long a worker may sit idle before the reaper may
	// terminate it. Default 60s.
	IdleTimeout time.Duration
	// MaxQueueSize bounds the task queue. Default 64.
	MaxQueueSize int
	// ReapInterval is the idle sweep period. Default IdleTimeout/2.
	ReapInterval time.Duration

	Logger  *zap.Logger
	Metrics *metrics.Collector
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MinWorkers:   1,
		MaxWorkers:   4,
		IdleTimeout:  60 * time.Second,
		MaxQueueSize: 64,
	}
}

// drainBatchSize bounds how many queued tasks a single drain pass assigns, so
// a large backlog cannot starve other coordinator work.
const drainBatchSize = 16

// WorkerPool manages a dynamic set of workers executing submitted payloads.
// All bookkeeping (worker map, task queue, counters) is guarded by one mutex;
// worker goroutines touch pool state only through the completion paths.
type WorkerPool[P, R any] struct {
	name    string
	cfg     Config
	fn      WorkerFunc[P, R]
	logger  *zap.Logger
	metrics *metrics.Collector

	rootCtx   context.Context
	rootStop  context.CancelFunc
	reaperRun chan struct{}

	mu          sync.Mutex
	workers     map[uuid.UUID]*workerRecord[P, R]
	taskQueue   []*task[P, R]
	terminating bool

	wg sync.WaitGroup

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64
	replaced  atomic.Int64
	reaped    atomic.Int64
}

// New creates a worker pool and spawns MinWorkers workers.
func New[P, R any](fn WorkerFunc[P, R], cfg Config) (*WorkerPool[P, R], error) {
	if fn == nil {
		return nil, types.NewError(types.ErrValidation, "worker function is required")
	}
	if cfg.MinWorkers <= 0 {
		cfg.MinWorkers = 1
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	if cfg.MinWorkers > cfg.MaxWorkers {
		return nil, types.NewError(types.ErrValidation, "min workers exceeds max workers")
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 64
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = cfg.IdleTimeout / 2
	}
	if cfg.Name == "" {
		cfg.Name = "pool"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, stop := context.WithCancel(context.Background())
	p := &WorkerPool[P, R]{
		name:      cfg.Name,
		cfg:       cfg,
		fn:        fn,
		logger:    logger.With(zap.String("component", "pool"), zap.String("pool", cfg.Name)),
		metrics:   cfg.Metrics,
		rootCtx:   ctx,
		rootStop:  stop,
		reaperRun: make(chan struct{}),
		workers:   make(map[uuid.UUID]*workerRecord[P, R]),
	}

	p.mu.Lock()
	for i := 0; i < cfg.MinWorkers; i++ {
		p.spawnWorkerLocked()
	}
	p.mu.Unlock()

	go p.reaper()

	return p, nil
}

// Execute submits a payload. Admission order: an idle worker is assigned
// immediately; otherwise the pool grows up to MaxWorkers; otherwise the task
// is queued if the queue has room; otherwise Execute fails with QUEUE_FULL.
// During shutdown it fails immediately with POOL_TERMINATING.
func (p *WorkerPool[P, R]) Execute(payload P) (*Future[R], error) {
	p.mu.Lock()
	if p.terminating {
		p.mu.Unlock()
		p.rejected.Add(1)
		p.metrics.RecordTaskRejected(p.name)
		return nil, types.NewError(types.ErrPoolTerminating, "pool is shutting down")
	}

	t := &task[P, R]{
		id:         uuid.New(),
		payload:    payload,
		future:     newFuture[R](),
		enqueuedAt: time.Now(),
	}

	if w := p.idleWorkerLocked(); w != nil {
		p.assignLocked(w, t)
		p.mu.Unlock()
		p.admitted()
		return t.future, nil
	}

	if len(p.workers) < p.cfg.MaxWorkers {
		w := p.spawnWorkerLocked()
		p.assignLocked(w, t)
		p.mu.Unlock()
		p.admitted()
		return t.future, nil
	}

	if len(p.taskQueue) < p.cfg.MaxQueueSize {
		p.taskQueue = append(p.taskQueue, t)
		depth := len(p.taskQueue)
		p.mu.Unlock()
		p.admitted()
		p.metrics.RecordPoolQueueDepth(p.name, depth)
		return t.future, nil
	}

	p.mu.Unlock()
	p.rejected.Add(1)
	p.metrics.RecordTaskRejected(p.name)
	return nil, types.NewError(types.ErrQueueFull, "task queue is full")
}

func (p *WorkerPool[P, R]) admitted() {
	p.submitted.Add(1)
	p.metrics.RecordTaskSubmitted(p.name)
}

// Terminate shuts the pool down: queued tasks are rejected with
// POOL_TERMINATING, and workers either finish their current task (force
// false) or have their task context cancelled (force true). Idempotent.
func (p *WorkerPool[P, R]) Terminate(force bool) {
	p.mu.Lock()
	if p.terminating {
		p.mu.Unlock()
		return
	}
	p.terminating = true
	queued := p.taskQueue
	p.taskQueue = nil
	workers := make([]*workerRecord[P, R], 0, len(p.workers))
	for _, w := range p.workers {
		workers = append(workers, w)
	}
	p.mu.Unlock()

	close(p.reaperRun)

	for _, t := range queued {
		t.future.reject(types.NewError(types.ErrPoolTerminating, "pool terminated before task ran"))
	}
	p.metrics.RecordPoolQueueDepth(p.name, 0)

	if force {
		p.rootStop()
	}
	for _, w := range workers {
		w.stop()
	}

	p.wg.Wait()
	p.rootStop()

	p.logger.Info("pool terminated",
		zap.Bool("force", force),
		zap.Int("rejected_queued_tasks", len(queued)),
	)
}

// Terminating reports whether Terminate has been called.
func (p *WorkerPool[P, R]) Terminating() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminating
}

// WorkerCount returns the number of live workers.
func (p *WorkerPool[P, R]) WorkerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// QueueDepth returns the number of queued tasks.
func (p *WorkerPool[P, R]) QueueDepth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.taskQueue)
}

// Stats contains pool counters.
type Stats struct {
	Workers   int   `json:"workers"`
	Queued    int   `json:"queued"`
	Submitted int64 `json:"submitted"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Rejected  int64 `json:"rejected"`
	Replaced  int64 `json:"replaced"`
	Reaped    int64 `json:"reaped"`
}

// Stats returns a snapshot of the pool counters.
func (p *WorkerPool[P, R]) Stats() Stats {
	p.mu.Lock()
	workers := len(p.workers)
	queued := len(p.taskQueue)
	p.mu.Unlock()

	return Stats{
		Workers:   workers,
		Queued:    queued,
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Rejected:  p.rejected.Load(),
		Replaced:  p.replaced.Load(),
		Reaped:    p.reaped.Load(),
	}
}
