// Package experiment runs batches of negotiation trials and persists
// their records. A batch keeps going past individual failures; one bad
// trial costs one record, not the run.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coordlab/staghunt/game"
	"github.com/coordlab/staghunt/protocol"
	"github.com/coordlab/staghunt/results"
)

// TrialRunner runs a single trial. *protocol.Engine satisfies it.
type TrialRunner interface {
	Run(ctx context.Context, task1, task2 *game.Task) (*protocol.Trial, error)
}

// RecordSink persists one trial record. *results.LogWriter satisfies it.
type RecordSink interface {
	Append(rec results.TrialRecord) error
}

// Config configures a batch run.
type Config struct {
	// Trials is the number of trials to attempt. Must be positive.
	Trials int

	// Task1 and Task2 are the per-agent tasks. A nil Task2 runs the
	// symmetric variant.
	Task1 *game.Task
	Task2 *game.Task

	// Delay is an optional pause between trials, useful for rate-limited
	// model backends.
	Delay time.Duration

	// Logger receives batch progress. Nil uses slog.Default.
	Logger *slog.Logger
}

// Summary reports how a batch went.
type Summary struct {
	Requested int
	Succeeded int

	// Failed counts trials the runner abandoned.
	Failed int

	// PersistFailures counts trials that completed but could not be
	// written to the sink.
	PersistFailures int
}

// Runner drives batches through a TrialRunner into a RecordSink.
type Runner struct {
	runner TrialRunner
	sink   RecordSink
}

// NewRunner pairs a trial runner with a record sink. The sink may be nil
// for dry runs.
func NewRunner(runner TrialRunner, sink RecordSink) (*Runner, error) {
	if runner == nil {
		return nil, errors.New("experiment: trial runner must not be nil")
	}
	return &Runner{runner: runner, sink: sink}, nil
}

// RunBatch attempts cfg.Trials trials in sequence. Per-trial failures are
// logged and counted; only context cancellation or an invalid config
// aborts the batch early.
func (r *Runner) RunBatch(ctx context.Context, cfg Config) (Summary, error) {
	if cfg.Trials <= 0 {
		return Summary{}, fmt.Errorf("experiment: trials must be positive, got %d", cfg.Trials)
	}
	if cfg.Task1 == nil {
		return Summary{}, errors.New("experiment: task1 must not be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	summary := Summary{Requested: cfg.Trials}
	for i := 0; i < cfg.Trials; i++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if i > 0 && cfg.Delay > 0 {
			select {
			case <-time.After(cfg.Delay):
			case <-ctx.Done():
				return summary, ctx.Err()
			}
		}

		trial, err := r.runner.Run(ctx, cfg.Task1, cfg.Task2)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return summary, err
			}
			summary.Failed++
			logger.Error("trial failed", "trial", i+1, "of", cfg.Trials, "error", err)
			continue
		}
		summary.Succeeded++

		if r.sink == nil {
			continue
		}
		if err := r.sink.Append(results.FromTrial(trial)); err != nil {
			summary.PersistFailures++
			logger.Error("trial completed but record not persisted",
				"trial_id", trial.ID, "error", err)
			continue
		}
		logger.Info("trial recorded",
			"trial", i+1,
			"of", cfg.Trials,
			"trial_id", trial.ID,
			"mismatch", trial.Mismatch,
		)
	}
	return summary, nil
}
