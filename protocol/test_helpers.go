package protocol

import (
	"context"
	"fmt"

	"github.com/coordlab/staghunt/game"
	"github.com/coordlab/staghunt/oracle"
)

// mockOracle is a hand-rolled test double. Behavior is supplied through
// function fields; every context passed by the engine is recorded so
// tests can assert what each step was shown.
type mockOracle struct {
	beliefFn   func(oracle.BeliefContext) (*oracle.BeliefResult, error)
	replyFn    func(oracle.ReplyContext) (*oracle.ReplyResult, error)
	decisionFn func(oracle.DecisionContext) (*oracle.DecisionResult, error)

	beliefCalls   []oracle.BeliefContext
	replyCalls    []oracle.ReplyContext
	decisionCalls []oracle.DecisionContext
}

func (m *mockOracle) ElicitBelief(_ context.Context, bc oracle.BeliefContext) (*oracle.BeliefResult, error) {
	m.beliefCalls = append(m.beliefCalls, bc)
	if m.beliefFn == nil {
		return &oracle.BeliefResult{Belief: 50, Message: "default opening"}, nil
	}
	return m.beliefFn(bc)
}

func (m *mockOracle) ElicitReply(_ context.Context, rc oracle.ReplyContext) (*oracle.ReplyResult, error) {
	m.replyCalls = append(m.replyCalls, rc)
	if m.replyFn == nil {
		return &oracle.ReplyResult{Reply: fmt.Sprintf("reply round %d", rc.Round)}, nil
	}
	return m.replyFn(rc)
}

func (m *mockOracle) ElicitDecision(_ context.Context, dc oracle.DecisionContext) (*oracle.DecisionResult, error) {
	m.decisionCalls = append(m.decisionCalls, dc)
	if m.decisionFn == nil {
		return &oracle.DecisionResult{Choice: "Y", Strategy: game.StrategyIndividual}, nil
	}
	return m.decisionFn(dc)
}

// fixedBeliefs returns a belief function serving per-agent initial
// beliefs.
func fixedBeliefs(beliefs map[int]int) func(oracle.BeliefContext) (*oracle.BeliefResult, error) {
	return func(bc oracle.BeliefContext) (*oracle.BeliefResult, error) {
		belief, ok := beliefs[bc.AgentID]
		if !ok {
			return nil, fmt.Errorf("no scripted belief for agent %d", bc.AgentID)
		}
		return &oracle.BeliefResult{
			Belief:  belief,
			Message: fmt.Sprintf("opening from agent %d", bc.AgentID),
		}, nil
	}
}

// fixedDecisions returns a decision function serving per-agent choices
// with strategies matching the option kind.
func fixedDecisions(choices map[int]string) func(oracle.DecisionContext) (*oracle.DecisionResult, error) {
	return func(dc oracle.DecisionContext) (*oracle.DecisionResult, error) {
		choice, ok := choices[dc.AgentID]
		if !ok {
			return nil, fmt.Errorf("no scripted choice for agent %d", dc.AgentID)
		}
		strategy := game.StrategyIndividual
		if opt, ok := dc.Task.Option(choice); ok && opt.Kind == game.KindCollaborative {
			strategy = game.StrategyCollaborative
		}
		return &oracle.DecisionResult{Choice: choice, Strategy: strategy}, nil
	}
}

// malformed builds a MalformedResponseError for fault-injection tests.
func malformed(kind string) error {
	return &oracle.MalformedResponseError{Kind: kind, Raw: "garbage", Err: fmt.Errorf("no JSON object found")}
}

func mustEngine(o oracle.Oracle, cfg Config) *Engine {
	engine, err := NewEngine(o, cfg)
	if err != nil {
		panic(err)
	}
	return engine
}
