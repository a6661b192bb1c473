// Package oracle defines the belief oracle the negotiation protocol
// consults: the contract for eliciting beliefs, negotiation replies and
// final decisions, plus an LLM-backed implementation and a scripted one
// for offline runs and tests.
//
// All payload validation happens at this boundary. A response that does
// not parse into the expected shape surfaces as a MalformedResponseError;
// the protocol, not the oracle, decides how to recover.
package oracle

import (
	"context"

	"github.com/coordlab/staghunt/game"
)

// NoPrediction marks an absent partner-belief prediction in a context.
const NoPrediction = -1

// BeliefContext is the input to initial belief formation.
type BeliefContext struct {
	AgentID   int
	PartnerID int
	Task      *game.Task

	// TechFailureRate is surfaced to the agent as part of the game rules.
	// Zero means the rules do not mention technical failure.
	TechFailureRate float64
}

// BeliefResult is the oracle's answer to belief formation: an initial
// belief on the 0–100 scale, the agent's private reasoning, and the
// opening message to the partner.
type BeliefResult struct {
	Belief    int
	Reasoning string
	Message   string
}

// ReplyContext is the input to one exchange step. History holds the full
// ordered conversation so far; Belief is the belief the protocol chose to
// expose for this step (latest or initial, per its configuration).
type ReplyContext struct {
	AgentID   int
	PartnerID int
	Task      *game.Task
	Round     int
	History   []game.Message
	Belief    int

	// PreviousPrediction is the agent's last prediction of the partner's
	// belief, or NoPrediction when none has been recorded.
	PreviousPrediction int

	// RequestBeliefUpdate asks the oracle for an updated belief and a
	// partner-belief prediction alongside the reply text. The simple
	// one-exchange variant leaves this false.
	RequestBeliefUpdate bool

	TechFailureRate float64
}

// ReplyResult is the oracle's answer to an exchange step. UpdatedBelief
// and PredictedPartnerBelief are only meaningful when HasBeliefUpdate is
// true.
type ReplyResult struct {
	Reply                  string
	UpdatedBelief          int
	PredictedPartnerBelief int
	HasBeliefUpdate        bool
}

// DecisionContext is the input to an agent's final decision. By protocol
// contract the agent sees its own final belief but only the partner's
// initial belief.
type DecisionContext struct {
	AgentID   int
	PartnerID int
	Task      *game.Task

	InitialBelief        int
	FinalBelief          int
	PartnerInitialBelief int

	// PartnerPrediction is the agent's latest prediction of the partner's
	// belief, or NoPrediction.
	PartnerPrediction int

	History         []game.Message
	TechFailureRate float64
}

// DecisionResult is the oracle's answer to a decision step.
type DecisionResult struct {
	Choice    string
	Strategy  game.Strategy
	Reasoning string
}

// Oracle turns protocol contexts into beliefs, replies and decisions.
// Implementations must be safe for sequential use within one trial; the
// protocol never issues concurrent calls for the same trial.
type Oracle interface {
	ElicitBelief(ctx context.Context, bc BeliefContext) (*BeliefResult, error)
	ElicitReply(ctx context.Context, rc ReplyContext) (*ReplyResult, error)
	ElicitDecision(ctx context.Context, dc DecisionContext) (*DecisionResult, error)
}
