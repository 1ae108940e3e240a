// Package optimize replaces the pickled-engine optimization model with
// an explicit message: a Job describes one parameter combination to
// run, a Worker reconstructs whatever it needs from that message alone
// and returns a slim Result — never the full strategy object — so the
// job/result pair can cross a process or goroutine boundary with a
// plain value copy instead of serializing live engine state.
package optimize

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Job is everything a Worker needs to run one parameter combination:
// which strategy, which parameter values, and which feed configuration
// to run it against. FeedConfig is left as an opaque value (e.g. a
// serialized feed.Config or a path) since the concrete feed wiring is
// the caller's concern, not optimize's.
type Job struct {
	ID         uuid.UUID
	StrategyID string
	Params     map[string]float64
	FeedConfig any
}

// Result is the slim hand-off a Worker returns: final parameter
// snapshot plus whatever numeric summary the caller's analyzers
// produced (final value, Sharpe, drawdown, ...), never the strategy or
// feed objects themselves.
type Result struct {
	JobID      uuid.UUID
	Params     map[string]float64
	Summary    map[string]float64
	StopReason string
	Err        string
}

// Worker runs one Job to completion and reports a Result. A Worker
// implementation owns reconstructing an engine, feeds, and a strategy
// instance from job.Params/job.FeedConfig; optimize itself never
// touches engine internals.
type Worker interface {
	Run(ctx context.Context, job Job) Result
}

// ParamGrid returns the cartesian product of each named parameter's
// candidate values, one map per combination, in a deterministic order
// (parameter names sorted, values in the order given).
func ParamGrid(ranges map[string][]float64) []map[string]float64 {
	names := make([]string, 0, len(ranges))
	for name := range ranges {
		names = append(names, name)
	}
	sort.Strings(names)

	combos := []map[string]float64{{}}
	for _, name := range names {
		values := ranges[name]
		next := make([]map[string]float64, 0, len(combos)*len(values))
		for _, combo := range combos {
			for _, v := range values {
				expanded := make(map[string]float64, len(combo)+1)
				for k, existing := range combo {
					expanded[k] = existing
				}
				expanded[name] = v
				next = append(next, expanded)
			}
		}
		combos = next
	}
	return combos
}

// Jobs builds one Job per combination in ParamGrid(ranges), all
// targeting strategyID and feedConfig.
func Jobs(strategyID string, ranges map[string][]float64, feedConfig any) []Job {
	combos := ParamGrid(ranges)
	jobs := make([]Job, len(combos))
	for i, params := range combos {
		jobs[i] = Job{ID: uuid.New(), StrategyID: strategyID, Params: params, FeedConfig: feedConfig}
	}
	return jobs
}

// RunAll shards jobs across a worker-pool of maxWorkers goroutines
// (the in-process stand-in for separate worker processes; a Worker
// implementation is free to proxy Run to a real subprocess or remote
// worker instead) and collects every Result once all jobs complete. A
// non-positive maxWorkers defaults to twice the CPU count, a
// "saturate available cores" worker-pool sizing default.
func RunAll(ctx context.Context, jobs []Job, w Worker, maxWorkers int) []Result {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * 2
	}

	workCh := make(chan Job, len(jobs))
	resultCh := make(chan Result, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < maxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range workCh {
				resultCh <- w.Run(ctx, job)
			}
		}()
	}

	for _, job := range jobs {
		workCh <- job
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]Result, 0, len(jobs))
	for r := range resultCh {
		results = append(results, r)
	}

	slog.Debug("optimization sweep complete", "jobs", len(jobs), "workers", maxWorkers, "results", len(results))
	return results
}
