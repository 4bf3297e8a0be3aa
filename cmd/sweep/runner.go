package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/pthm-cable/contagion/config"
	"github.com/pthm-cable/contagion/sim"
	"github.com/pthm-cable/contagion/telemetry"
)

// ReplicateRunner runs headless quiet simulations of one base configuration.
type ReplicateRunner struct {
	baseConfig *config.Config
	workers    int
}

// NewReplicateRunner creates a runner. workers below 1 means 1.
func NewReplicateRunner(baseCfg *config.Config, workers int) *ReplicateRunner {
	if workers < 1 {
		workers = 1
	}
	return &ReplicateRunner{baseConfig: baseCfg, workers: workers}
}

// Run executes n replicates with random seeds first, first+1, ... and
// returns their results in seed order. On cancellation it returns the
// results of the replicates that finished, still in seed order.
func (rr *ReplicateRunner) Run(ctx context.Context, first uint32, n int) ([]telemetry.RunResult, error) {
	results := make([]telemetry.RunResult, n)
	done := make([]bool, n)
	errs := make([]error, n)

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < rr.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				r, err := rr.runOne(ctx, first+uint32(idx))
				if err != nil {
					errs[idx] = err
					continue
				}
				results[idx] = r
				done[idx] = true
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	out := make([]telemetry.RunResult, 0, n)
	var firstErr error
	for i := range results {
		if done[i] {
			out = append(out, results[i])
		} else if errs[i] != nil && firstErr == nil {
			firstErr = errs[i]
		}
	}
	if firstErr == nil && ctx.Err() != nil {
		firstErr = ctx.Err()
	}
	return out, firstErr
}

func (rr *ReplicateRunner) runOne(ctx context.Context, seed uint32) (telemetry.RunResult, error) {
	cfg := *rr.baseConfig
	cfg.Run.RandomSeed = seed
	cfg.Run.Quiet = true
	cfg.Run.Interactive = false
	cfg.Run.DelayUS = 0

	s, err := sim.New(&cfg, sim.Options{Quiet: true})
	if err != nil {
		return telemetry.RunResult{}, fmt.Errorf("replicate seed %d: %w", seed, err)
	}
	if err := s.Run(ctx); err != nil {
		return telemetry.RunResult{}, fmt.Errorf("replicate seed %d: %w", seed, err)
	}
	return telemetry.NewRunResult(s.Report()), nil
}
