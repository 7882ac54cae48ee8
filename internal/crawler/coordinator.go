package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Coordinator fans a backlog of seed domains out to a fixed pool of
// workers. One domain is one task; a worker traverses its whole domain
// before taking the next task, so at most poolSize domains are in
// flight at once.
//
// Design decision: We run a fixed pool of named workers pulling from an
// unbuffered channel rather than errgroup.SetLimit with one goroutine
// per seed. SetLimit caps concurrency but gives goroutines no identity;
// here each worker keeps its own rate limiter state across domains and
// stamps its name on every page it saves, which needs stable worker
// identities. errgroup still supervises the pool goroutines.
type Coordinator struct {
	registry *Registry
	logger   *slog.Logger

	// poolSize is the number of concurrent workers.
	poolSize int

	// newWorker builds one pool worker. Indirection exists so tests can
	// install workers with fake fetchers and sinks.
	newWorker func(name string) *Worker
}

// CoordinatorConfig configures a crawl run.
type CoordinatorConfig struct {
	// PoolSize is the number of workers. Values below 1 are treated
	// as 1.
	PoolSize int

	// Registry is the shared visited set. Required.
	Registry *Registry

	// Worker carries the per-worker configuration. The coordinator
	// clones it for each pool worker, giving every worker its own
	// limiter.
	Worker WorkerConfig

	// Logger receives run progress. Defaults to slog.Default.
	Logger *slog.Logger
}

// NewCoordinator creates a coordinator with a worker pool of the
// configured size.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	poolSize := cfg.PoolSize
	if poolSize < 1 {
		poolSize = 1
	}

	workerCfg := cfg.Worker
	workerCfg.Registry = cfg.Registry
	workerCfg.Logger = logger

	delay, jitter := time.Duration(0), time.Duration(0)
	if workerCfg.Limiter != nil {
		delay, jitter = workerCfg.Limiter.delay, workerCfg.Limiter.jitter
	}

	return &Coordinator{
		registry: cfg.Registry,
		logger:   logger,
		poolSize: poolSize,
		newWorker: func(name string) *Worker {
			// Each worker gets a private limiter; spacing is per worker,
			// not global.
			wc := workerCfg
			wc.Limiter = NewLimiter(delay, jitter)
			return NewWorker(name, wc)
		},
	}
}

// Tasks wraps plain seed URLs as tasks without per-domain overrides.
func Tasks(seeds []string) []Task {
	tasks := make([]Task, 0, len(seeds))
	for _, seed := range seeds {
		tasks = append(tasks, Task{Seed: seed})
	}
	return tasks
}

// Run dispatches the backlog to the pool in order and blocks until
// every domain has been traversed or the context is cancelled. Excess
// tasks beyond the pool size wait in the backlog and are picked up as
// workers free up.
//
// A worker-fatal fault (a panic inside a traversal) fails that domain
// only; the rest of the run continues.
func (c *Coordinator) Run(ctx context.Context, backlog []Task) (*AggregateStats, error) {
	start := time.Now()
	aggregate := &AggregateStats{}

	if len(backlog) == 0 {
		aggregate.Duration = time.Since(start)
		return aggregate, nil
	}

	c.logger.Info("starting crawl",
		slog.Int("seeds", len(backlog)),
		slog.Int("pool_size", c.poolSize))

	// Unbuffered: a send completes only when a worker is ready, so
	// dispatch order is the backlog order and the backlog lives in this
	// loop, not in channel buffer memory.
	tasks := make(chan Task)
	results := make(chan *WorkerStats, len(backlog))

	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < c.poolSize; i++ {
		worker := c.newWorker(fmt.Sprintf("worker-%d", i+1))
		g.Go(func() error {
			for task := range tasks {
				results <- c.runTask(gctx, worker, task)
			}
			return nil
		})
	}

	// Feed the backlog. On cancellation the remaining tasks are
	// dropped; workers drain after the channel closes.
	dispatched := 0
feed:
	for _, task := range backlog {
		if task.Domain == "" {
			task.Domain = URLDomain(task.Seed)
		}
		select {
		case <-gctx.Done():
			break feed
		case tasks <- task:
			dispatched++
		}
	}
	close(tasks)

	if dropped := len(backlog) - dispatched; dropped > 0 {
		c.logger.Warn("run cancelled before full dispatch",
			slog.Int("dispatched", dispatched),
			slog.Int("dropped", dropped))
	}

	if err := g.Wait(); err != nil {
		// Pool goroutines only return nil; a non-nil error here means
		// errgroup context plumbing changed underneath us.
		return nil, err
	}
	close(results)

	for stats := range results {
		aggregate.merge(stats)
	}
	aggregate.Duration = time.Since(start)

	c.logger.Info("crawl finished",
		slog.Int("domains", aggregate.Domains),
		slog.Int("domains_failed", aggregate.DomainsFailed),
		slog.Int("pages_saved", aggregate.PagesSaved),
		slog.Int("duplicates", aggregate.Duplicates),
		slog.Int("errors", aggregate.Errors),
		slog.Duration("duration", aggregate.Duration))

	if err := ctx.Err(); err != nil {
		return aggregate, err
	}
	return aggregate, nil
}

// runTask executes one traversal with panic isolation. A panicking
// domain is recorded as failed; the worker survives to take the next
// task.
func (c *Coordinator) runTask(ctx context.Context, worker *Worker, task Task) (stats *WorkerStats) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("worker panicked during traversal",
				slog.String("worker", worker.Name()),
				slog.String("domain", task.Domain),
				slog.Any("panic", r))
			stats = &WorkerStats{
				Domain:        task.Domain,
				Seed:          task.Seed,
				Worker:        worker.Name(),
				Failed:        true,
				FailureReason: fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	return worker.Crawl(ctx, task)
}
