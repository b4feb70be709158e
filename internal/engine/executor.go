package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/checks"
	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
	awssecurity "github.com/pankaj-dahiya-devops/compliance-proxy/internal/providers/aws/security"
)

// RegionClients returns the service clients scoped to region.
type RegionClients func(region string) *awssecurity.ClientSet

// Execution is the outcome of ExecuteAll.
type Execution struct {
	// Results holds one entry per dispatched task, sorted by (check ID, region).
	Results []models.CheckResult

	// Scheduled is the number of tasks in the plan.
	Scheduled int

	// Completed is the number of tasks that were dispatched and finished.
	Completed int

	// Partial is true when cancellation stopped dispatch before every
	// scheduled task ran.
	Partial bool
}

// Executor runs a catalog against a set of regions with a bounded worker pool.
// It is safe to reuse across runs; it holds no per-run state.
type Executor struct {
	accountID string
	clients   RegionClients
	logger    *slog.Logger
	now       func() time.Time
}

// ExecutorOption customises an Executor.
type ExecutorOption func(*Executor)

// WithExecutorLogger sets the logger used for per-task debug lines.
func WithExecutorLogger(l *slog.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = l }
}

// WithExecutorClock overrides the clock used for result timestamps.
func WithExecutorClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) { e.now = now }
}

// NewExecutor returns an Executor for accountID. clients is called once per
// distinct region before dispatch.
func NewExecutor(accountID string, clients RegionClients, opts ...ExecutorOption) *Executor {
	e := &Executor{
		accountID: accountID,
		clients:   clients,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ExecuteAll plans and runs every task selected by opts.
//
// Only validation failures are returned as errors. Check failures and panics
// become ERROR results. When ctx is cancelled no further task is dispatched;
// tasks already running finish on a context detached from the cancellation,
// and the undispatched tasks are omitted with Partial set.
func (e *Executor) ExecuteAll(ctx context.Context, catalog *checks.Catalog, regions []string, opts RunOptions) (*Execution, error) {
	if err := validate(regions, opts); err != nil {
		return nil, err
	}

	tasks := planTasks(catalog, regions, opts)
	workers := opts.workers()

	// Region clients are built before dispatch and only read afterwards.
	clientsByRegion := make(map[string]*awssecurity.ClientSet)
	for _, t := range tasks {
		if _, ok := clientsByRegion[t.region]; !ok {
			clientsByRegion[t.region] = e.clients(t.region)
		}
	}

	e.logger.Info("executing checks",
		"account", e.accountID,
		"regions", len(dedupe(regions)),
		"tasks", len(tasks),
		"workers", workers,
	)

	results := make([]models.CheckResult, len(tasks))
	dispatched := make([]bool, len(tasks))
	taskCtx := context.WithoutCancel(ctx)

	// The semaphore bounds in-flight tasks to workers. Each slot is released
	// when its task returns.
	sem := make(chan struct{}, workers)
	var g errgroup.Group

DISPATCH:
	for i, t := range tasks {
		if ctx.Err() != nil {
			break
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break DISPATCH
		}
		if ctx.Err() != nil {
			<-sem
			break
		}

		dispatched[i] = true
		cc := checks.CheckContext{
			AccountID: e.accountID,
			Region:    t.region,
			Clients:   clientsByRegion[t.region],
		}
		g.Go(func() error {
			defer func() { <-sem }()
			results[i] = e.runTask(taskCtx, t, cc)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.CheckResult, 0, len(tasks))
	for i := range tasks {
		if dispatched[i] {
			out = append(out, results[i])
		}
	}
	sortResults(out)

	exec := &Execution{
		Results:   out,
		Scheduled: len(tasks),
		Completed: len(out),
		Partial:   len(out) < len(tasks),
	}
	e.logger.Info("execution finished",
		"scheduled", exec.Scheduled,
		"completed", exec.Completed,
		"partial", exec.Partial,
	)
	return exec, nil
}

// runTask executes one check and converts every failure mode, including a
// panic, into a result.
func (e *Executor) runTask(ctx context.Context, t task, cc checks.CheckContext) (res models.CheckResult) {
	start := e.now()
	res = models.CheckResult{
		CheckID:   t.check.ID(),
		CheckName: t.check.Name(),
		Region:    t.region,
		Severity:  t.check.Severity(),
	}

	defer func() {
		if r := recover(); r != nil {
			res.Status = models.StatusError
			res.Message = fmt.Sprintf("panic: %v", r)
			res.ResourceID = ""
		}
		res.Timestamp = e.now().UTC()
		e.logger.Debug("check finished",
			"check", res.CheckID,
			"region", res.Region,
			"status", res.Status,
			"duration", e.now().Sub(start),
		)
	}()

	outcome, err := t.check.Execute(ctx, cc)
	if err != nil {
		res.Status = models.StatusError
		res.Message = err.Error()
		return res
	}
	switch outcome.Status {
	case models.StatusPass, models.StatusFail, models.StatusError, models.StatusSkipped:
	default:
		res.Status = models.StatusError
		res.Message = fmt.Sprintf("check returned unknown status %q", outcome.Status)
		return res
	}
	res.Status = outcome.Status
	res.Message = outcome.Message
	res.ResourceID = outcome.ResourceID
	return res
}

// sortResults orders results by (check ID, region), keeping dispatch order
// among equal keys.
func sortResults(results []models.CheckResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CheckID != results[j].CheckID {
			return results[i].CheckID < results[j].CheckID
		}
		return results[i].Region < results[j].Region
	})
}
