// Package protocol drives one negotiation trial through its fixed state
// sequence: belief formation for both agents, R alternating exchange
// rounds, and a final decision per agent. Every step consumes the literal
// output of the strictly prior steps, so execution within a trial is
// sequential by construction.
package protocol

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/coordlab/staghunt/game"
	"github.com/coordlab/staghunt/oracle"
)

// ReplyBeliefSource selects which belief an agent's exchange prompts
// carry.
type ReplyBeliefSource int

const (
	// BeliefLatest exposes the most recently updated belief, as the
	// asymmetric three-exchange experiment does.
	BeliefLatest ReplyBeliefSource = iota

	// BeliefInitial always exposes the initial belief, preserving the
	// stale-belief behavior observed in one exchange step of the source
	// experiments. Kept selectable rather than silently fixed.
	BeliefInitial
)

// DefaultTechFailureRate matches the 5% technical error chance quoted in
// the original game rules.
const DefaultTechFailureRate = 0.05

// Config configures a negotiation engine.
type Config struct {
	// Rounds is the number of exchange steps R. Zero is valid: agents
	// decide straight after belief formation with no conversation beyond
	// agent 1's opening message.
	Rounds int

	// TechFailureRate is surfaced to agents in their prompts. It does not
	// affect protocol control flow.
	TechFailureRate float64

	// TrackBeliefUpdates asks the oracle for an updated belief and a
	// partner-belief prediction at every exchange step (the richest
	// variant). When false, replies carry text only and beliefs are
	// carried forward unchanged.
	TrackBeliefUpdates bool

	// ReplyBelief selects the belief exposed in exchange prompts.
	ReplyBelief ReplyBeliefSource

	// MaxRetries is the number of re-asks after a malformed oracle
	// response before the deterministic fallback applies. Zero means the
	// default of one retry; a negative value disables retries so the
	// first malformed response falls back immediately.
	MaxRetries int

	// Logger receives per-step structured logs. Nil uses slog.Default.
	Logger *slog.Logger
}

// BeliefState is one agent's private, evolving belief record. Sequences
// only ever grow; each entry is written by exactly one protocol step.
type BeliefState struct {
	// Initial is the belief formed before any exchange.
	Initial int

	// Exchanges holds one belief per completed exchange step by this
	// agent (updated, or carried forward unchanged).
	Exchanges []int

	// Predictions holds this agent's predictions of the partner's
	// belief, one per exchange step that requested an update.
	Predictions []int
}

// Current returns the most recent belief.
func (b *BeliefState) Current() int {
	if len(b.Exchanges) > 0 {
		return b.Exchanges[len(b.Exchanges)-1]
	}
	return b.Initial
}

// LastPrediction returns the most recent partner-belief prediction, or
// oracle.NoPrediction when none has been recorded.
func (b *BeliefState) LastPrediction() int {
	if len(b.Predictions) > 0 {
		return b.Predictions[len(b.Predictions)-1]
	}
	return oracle.NoPrediction
}

// Trial is the terminal artifact of one protocol run. It is never mutated
// after Run returns.
type Trial struct {
	ID    string
	Tasks [2]*game.Task

	// Asymmetric reports whether the two tasks differ in structure or
	// u-value.
	Asymmetric bool

	Beliefs [2]BeliefState

	// OpeningMessages holds each agent's belief-formation message. Only
	// agent 1's enters the conversation; agent 2's is retained but never
	// delivered, as in the source experiments.
	OpeningMessages [2]string

	History   []game.Message
	Decisions [2]game.Decision

	// Mismatch is 1 when the two final strategies differ.
	Mismatch int

	// FallbackSteps names the steps that fell back to deterministic
	// defaults after malformed oracle responses. Empty for clean trials.
	FallbackSteps []string

	// Coercions counts decisions whose strategy was corrected from the
	// choice.
	Coercions int

	StartedAt   time.Time
	CompletedAt time.Time
}

// Fallback reports whether any step of the trial substituted a fallback
// value.
func (t *Trial) Fallback() bool {
	return len(t.FallbackSteps) > 0
}

// Belief returns the belief state of agent 1 or 2.
func (t *Trial) Belief(agentID int) *BeliefState {
	return &t.Beliefs[agentID-1]
}

// Decision returns the final decision of agent 1 or 2.
func (t *Trial) Decision(agentID int) game.Decision {
	return t.Decisions[agentID-1]
}

// state is the engine's position in the fixed step sequence. Steps only
// ever advance; the engine panics on an out-of-order transition since
// that is a programming error, not an input error.
type state int

const (
	stateInit state = iota
	stateBelief1
	stateBelief2
	stateExchange
	stateDecide1
	stateDecide2
	stateTerminal
)

func (s state) String() string {
	switch s {
	case stateInit:
		return "INIT"
	case stateBelief1:
		return "BELIEF_FORMED(1)"
	case stateBelief2:
		return "BELIEF_FORMED(2)"
	case stateExchange:
		return "EXCHANGE"
	case stateDecide1:
		return "DECIDED(1)"
	case stateDecide2:
		return "DECIDED(2)"
	case stateTerminal:
		return "TERMINAL"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// responder returns which agent replies at exchange round k: agent 2
// answers agent 1's opening, agent 1 answers agent 2's first reply, and
// so on.
func responder(round int) int {
	if round%2 == 1 {
		return 2
	}
	return 1
}

func partnerOf(agentID int) int {
	if agentID == 1 {
		return 2
	}
	return 1
}
