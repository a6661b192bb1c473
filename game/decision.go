package game

import (
	"fmt"
)

// Decision is an agent's final commitment for one trial.
type Decision struct {
	AgentID   int
	Choice    string
	Strategy  Strategy
	Reasoning string
}

// StrategyChoiceMismatchError reports a decision whose declared strategy
// contradicts its choice. The choice is authoritative; callers recover by
// coercing the strategy (see Coerce) rather than persisting the decision
// as-is.
type StrategyChoiceMismatchError struct {
	AgentID  int
	Choice   string
	Strategy Strategy
}

func (e *StrategyChoiceMismatchError) Error() string {
	return fmt.Sprintf("agent %d: strategy %q contradicts choice %q",
		e.AgentID, e.Strategy, e.Choice)
}

// Validate checks the decision against the task it was made for: the choice
// must name one of the task's options and the strategy must be consistent
// with the choice's kind.
func (d Decision) Validate(t *Task) error {
	opt, ok := t.Option(d.Choice)
	if !ok {
		return fmt.Errorf("agent %d: choice %q is not an option of task %d",
			d.AgentID, d.Choice, t.TaskID)
	}
	want := StrategyIndividual
	if opt.Kind == KindCollaborative {
		want = StrategyCollaborative
	}
	if d.Strategy != want {
		return &StrategyChoiceMismatchError{AgentID: d.AgentID, Choice: d.Choice, Strategy: d.Strategy}
	}
	return nil
}

// Coerce returns a copy of the decision with the strategy derived from the
// choice, and reports whether a correction was applied. The choice must be
// a valid option of the task.
func (d Decision) Coerce(t *Task) (Decision, bool) {
	opt, ok := t.Option(d.Choice)
	if !ok {
		return d, false
	}
	want := StrategyIndividual
	if opt.Kind == KindCollaborative {
		want = StrategyCollaborative
	}
	if d.Strategy == want {
		return d, false
	}
	d.Strategy = want
	return d, true
}

// Mismatch returns 1 when the two decisions commit to different strategies,
// 0 otherwise. Symmetric in its arguments.
func Mismatch(a, b Decision) int {
	if a.Strategy != b.Strategy {
		return 1
	}
	return 0
}
