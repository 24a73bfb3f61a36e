package engine

import (
	"context"

	"github.com/sirupsen/logrus"

	"403-fuzzer/internal/config"
	"403-fuzzer/internal/corpus"
	"403-fuzzer/internal/variants"
)

// Runner walks the target list, scoping a fresh composer, batcher and
// per-target budget window to each one. Targets are processed in
// order; their results interleave only at the sink.
type Runner struct {
	cfg     config.RunConfig
	targets []string
	paths   []string
	methods []string
	headers []corpus.HeaderSet
	budget  *Budget
	pool    *Pool
	log     *logrus.Logger
}

// Summary aggregates the run counters for the exit report.
type Summary struct {
	Targets    int
	Dispatched int64
	Skipped    int64
	Failures   int64
}

// NewRunner assembles a runner from pre-loaded corpora.
func NewRunner(cfg config.RunConfig, targets, paths, methods []string, headers []corpus.HeaderSet, budget *Budget, pool *Pool, log *logrus.Logger) *Runner {
	return &Runner{
		cfg:     cfg,
		targets: targets,
		paths:   paths,
		methods: methods,
		headers: headers,
		budget:  budget,
		pool:    pool,
		log:     log,
	}
}

// TotalTasks is the exact task count across all targets, used to size
// the progress bar.
func TotalTasks(cfg config.RunConfig, targets, paths, methods []string, headers []corpus.HeaderSet) int {
	numMethods := len(methods)
	if numMethods == 0 {
		numMethods = 1
	}
	if cfg.MaxMethods > 0 && numMethods > cfg.MaxMethods {
		numMethods = cfg.MaxMethods
	}
	numHeaders := len(headers)
	if numHeaders == 0 {
		numHeaders = 1
	}
	if cfg.MaxHeaders > 0 && numHeaders > cfg.MaxHeaders {
		numHeaders = cfg.MaxHeaders
	}
	return len(targets) * len(paths) * variants.Count * numMethods * numHeaders
}

// Run executes the full scan. Per-task failures never abort the run;
// only a sink write error or cancellation does.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	r.budget.Start()

	for i, target := range r.targets {
		if ctx.Err() != nil {
			break
		}
		if r.budget.GlobalExpired() {
			r.log.Infof("Global time limit reached, stopping at target %d/%d", i+1, len(r.targets))
			break
		}
		r.log.Infof("Starting target %d/%d: %s", i+1, len(r.targets), target)
		r.budget.StartTarget(target)

		composer := NewComposer(target, r.paths, r.methods, r.headers, r.cfg.MaxMethods, r.cfg.MaxHeaders)
		batcher := NewBatcher(composer, r.cfg.BatchSize)
		if err := r.pool.Run(ctx, batcher); err != nil {
			return r.summary(), err
		}
		r.log.Infof("Finished target %d/%d: %s", i+1, len(r.targets), target)
	}

	return r.summary(), nil
}

func (r *Runner) summary() Summary {
	return Summary{
		Targets:    len(r.targets),
		Dispatched: r.pool.Dispatched(),
		Skipped:    r.pool.Skipped(),
		Failures:   r.pool.Failures(),
	}
}
