// Package game provides the core types for the stag-hunt negotiation game:
// payoff options, tasks with a collaboration threshold (u-value), agent
// decisions, and the consistency rules between them.
package game

import (
	"fmt"
)

// Strategy is the high-level stance an agent commits to.
type Strategy string

const (
	// StrategyCollaborative means the agent picked a collaborative option.
	StrategyCollaborative Strategy = "collaborative"
	// StrategyIndividual means the agent picked the guaranteed safe option.
	StrategyIndividual Strategy = "individual"
)

// OptionKind distinguishes collaborative options from the safe option.
type OptionKind int

const (
	// KindCollaborative is a risky option requiring partner cooperation.
	KindCollaborative OptionKind = iota
	// KindSafe is the guaranteed individual option.
	KindSafe
)

// Option is a single choice available within a task. Collaborative options
// carry an upside and a downside; the safe option carries a guaranteed
// payoff. Options are immutable once a task is created.
type Option struct {
	ID         string
	Kind       OptionKind
	Upside     int
	Downside   int
	Guaranteed int
}

// Collaborative creates a collaborative option with the given payoffs.
func Collaborative(id string, upside, downside int) Option {
	return Option{ID: id, Kind: KindCollaborative, Upside: upside, Downside: downside}
}

// Guaranteed creates the safe option with a guaranteed payoff.
func Guaranteed(id string, points int) Option {
	return Option{ID: id, Kind: KindSafe, Guaranteed: points}
}

// Task holds the payoff structure one agent plays against, plus the
// u-value: the minimum belief (as a probability) at which collaboration
// has higher expected value than the guaranteed payoff.
type Task struct {
	TaskID  int
	Options []Option
	UValue  float64
}

// InvalidTaskError reports a malformed payoff or threshold configuration.
type InvalidTaskError struct {
	Reason string
}

func (e *InvalidTaskError) Error() string {
	return fmt.Sprintf("invalid task: %s", e.Reason)
}

// NewTask creates and validates a task.
//
// The u-value must lie in [0, 1], option ids must be unique, there must be
// at least one collaborative option, and exactly one safe option.
func NewTask(taskID int, uValue float64, options []Option) (*Task, error) {
	if uValue < 0 || uValue > 1 {
		return nil, &InvalidTaskError{Reason: fmt.Sprintf("u-value %v outside [0,1]", uValue)}
	}
	if len(options) == 0 {
		return nil, &InvalidTaskError{Reason: "no options"}
	}

	seen := make(map[string]bool, len(options))
	collaborative := 0
	safe := 0
	for _, opt := range options {
		if opt.ID == "" {
			return nil, &InvalidTaskError{Reason: "option with empty id"}
		}
		if seen[opt.ID] {
			return nil, &InvalidTaskError{Reason: fmt.Sprintf("duplicate option id %q", opt.ID)}
		}
		seen[opt.ID] = true

		switch opt.Kind {
		case KindCollaborative:
			collaborative++
		case KindSafe:
			safe++
		default:
			return nil, &InvalidTaskError{Reason: fmt.Sprintf("option %q has unknown kind", opt.ID)}
		}
	}
	if collaborative == 0 {
		return nil, &InvalidTaskError{Reason: "no collaborative options"}
	}
	if safe != 1 {
		return nil, &InvalidTaskError{Reason: fmt.Sprintf("expected exactly one safe option, got %d", safe)}
	}

	opts := make([]Option, len(options))
	copy(opts, options)
	return &Task{TaskID: taskID, Options: opts, UValue: uValue}, nil
}

// Option returns the option with the given id, if present.
func (t *Task) Option(id string) (Option, bool) {
	for _, opt := range t.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

// SafeOption returns the task's guaranteed option.
func (t *Task) SafeOption() Option {
	for _, opt := range t.Options {
		if opt.Kind == KindSafe {
			return opt
		}
	}
	// Unreachable for tasks built via NewTask.
	return Option{}
}

// CollaborativeIDs returns the ids of the collaborative options, in task
// order.
func (t *Task) CollaborativeIDs() []string {
	ids := make([]string, 0, len(t.Options)-1)
	for _, opt := range t.Options {
		if opt.Kind == KindCollaborative {
			ids = append(ids, opt.ID)
		}
	}
	return ids
}

// SameStructure reports whether two tasks expose identical option sets and
// u-values. A trial whose tasks differ in either respect is asymmetric.
func SameStructure(a, b *Task) bool {
	if a == b {
		return true
	}
	if a.UValue != b.UValue || len(a.Options) != len(b.Options) {
		return false
	}
	for i := range a.Options {
		if a.Options[i] != b.Options[i] {
			return false
		}
	}
	return true
}

// RationalStrategy is the ground-truth rationality rule: collaborate when
// belief/100 strictly exceeds the u-value, otherwise play safe. Agents may
// deviate; this is used for consistency checks, not enforcement.
func RationalStrategy(belief int, t *Task) Strategy {
	if float64(belief)/100 > t.UValue {
		return StrategyCollaborative
	}
	return StrategyIndividual
}

// Message is one entry in a trial's conversation history. Round 0 is the
// opening message produced during belief formation; exchange round k
// produces the message with Round == k. History is append-only.
type Message struct {
	From  int // agent id, 1 or 2
	Round int
	Text  string
}
