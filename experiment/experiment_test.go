package experiment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/coordlab/staghunt/game"
	"github.com/coordlab/staghunt/protocol"
	"github.com/coordlab/staghunt/results"
)

// fakeTrialRunner serves canned outcomes per call index.
type fakeTrialRunner struct {
	calls int
	// failOn holds 1-based call indexes that should fail.
	failOn map[int]bool
}

func (f *fakeTrialRunner) Run(_ context.Context, task1, _ *game.Task) (*protocol.Trial, error) {
	f.calls++
	if f.failOn[f.calls] {
		return nil, fmt.Errorf("model unavailable on call %d", f.calls)
	}
	return &protocol.Trial{
		ID:    fmt.Sprintf("trial-%d", f.calls),
		Tasks: [2]*game.Task{task1, task1},
		Decisions: [2]game.Decision{
			{AgentID: 1, Choice: "A", Strategy: game.StrategyCollaborative},
			{AgentID: 2, Choice: "A", Strategy: game.StrategyCollaborative},
		},
	}, nil
}

// fakeSink collects records and optionally fails on given appends.
type fakeSink struct {
	calls   int
	records []results.TrialRecord
	// failOn holds 1-based append-call indexes that should fail.
	failOn map[int]bool
}

func (f *fakeSink) Append(rec results.TrialRecord) error {
	f.calls++
	if f.failOn[f.calls] {
		return errors.New("disk full")
	}
	f.records = append(f.records, rec)
	return nil
}

func testTask(t *testing.T) *game.Task {
	t.Helper()
	task, err := game.DefaultTask(1, 0.66)
	if err != nil {
		t.Fatalf("DefaultTask: %v", err)
	}
	return task
}

func TestNewRunnerValidation(t *testing.T) {
	if _, err := NewRunner(nil, &fakeSink{}); err == nil {
		t.Error("nil trial runner accepted")
	}
	if _, err := NewRunner(&fakeTrialRunner{}, nil); err != nil {
		t.Errorf("nil sink rejected: %v", err)
	}
}

func TestRunBatchAllSucceed(t *testing.T) {
	sink := &fakeSink{}
	runner, err := NewRunner(&fakeTrialRunner{}, sink)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	summary, err := runner.RunBatch(context.Background(), Config{
		Trials: 3,
		Task1:  testTask(t),
	})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	want := Summary{Requested: 3, Succeeded: 3}
	if summary != want {
		t.Errorf("summary = %+v, want %+v", summary, want)
	}
	if len(sink.records) != 3 {
		t.Errorf("persisted %d records, want 3", len(sink.records))
	}
}

func TestRunBatchKeepsGoingPastFailures(t *testing.T) {
	sink := &fakeSink{}
	runner, _ := NewRunner(&fakeTrialRunner{failOn: map[int]bool{2: true, 4: true}}, sink)

	summary, err := runner.RunBatch(context.Background(), Config{
		Trials: 5,
		Task1:  testTask(t),
	})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if summary.Succeeded != 3 || summary.Failed != 2 {
		t.Errorf("summary = %+v", summary)
	}
	if len(sink.records) != 3 {
		t.Errorf("persisted %d records, want 3", len(sink.records))
	}
}

func TestRunBatchCountsPersistFailures(t *testing.T) {
	sink := &fakeSink{failOn: map[int]bool{2: true}}
	runner, _ := NewRunner(&fakeTrialRunner{}, sink)

	summary, err := runner.RunBatch(context.Background(), Config{
		Trials: 3,
		Task1:  testTask(t),
	})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if summary.Succeeded != 3 || summary.PersistFailures != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if len(sink.records) != 2 {
		t.Errorf("persisted %d records, want 2", len(sink.records))
	}
}

func TestRunBatchNilSink(t *testing.T) {
	runner, _ := NewRunner(&fakeTrialRunner{}, nil)
	summary, err := runner.RunBatch(context.Background(), Config{
		Trials: 2,
		Task1:  testTask(t),
	})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if summary.Succeeded != 2 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestRunBatchConfigValidation(t *testing.T) {
	runner, _ := NewRunner(&fakeTrialRunner{}, &fakeSink{})
	if _, err := runner.RunBatch(context.Background(), Config{Trials: 0, Task1: testTask(t)}); err == nil {
		t.Error("zero trials accepted")
	}
	if _, err := runner.RunBatch(context.Background(), Config{Trials: 1}); err == nil {
		t.Error("nil task accepted")
	}
}

func TestRunBatchHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner, _ := NewRunner(&fakeTrialRunner{}, &fakeSink{})
	summary, err := runner.RunBatch(ctx, Config{Trials: 5, Task1: testTask(t)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if summary.Succeeded != 0 {
		t.Errorf("cancelled batch ran %d trials", summary.Succeeded)
	}
}
