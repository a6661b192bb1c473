package oracle

import (
	"context"
	"fmt"

	"github.com/coordlab/staghunt/game"
)

// Scripted is a deterministic Oracle for offline runs and tests. Beliefs
// and decisions come from a fixed script keyed by agent id; replies are
// synthesized from the agent's stance. Unknown agents fail loudly rather
// than guessing.
type Scripted struct {
	// Beliefs maps agent id to its initial belief.
	Beliefs map[int]int

	// Choices maps agent id to its final choice. The strategy is derived
	// from the choice's kind in the agent's task.
	Choices map[int]string

	// Drift is added to an agent's belief at every exchange step that
	// requests an update (clamped to 0–100).
	Drift int
}

// ElicitBelief returns the scripted initial belief.
func (s *Scripted) ElicitBelief(_ context.Context, bc BeliefContext) (*BeliefResult, error) {
	belief, ok := s.Beliefs[bc.AgentID]
	if !ok {
		return nil, fmt.Errorf("scripted oracle: no belief for agent %d", bc.AgentID)
	}
	stance := "I am open to working together on this one."
	if game.RationalStrategy(belief, bc.Task) == game.StrategyIndividual {
		stance = "I am leaning towards playing it safe here."
	}
	return &BeliefResult{
		Belief:    belief,
		Reasoning: fmt.Sprintf("scripted belief %d", belief),
		Message:   stance,
	}, nil
}

// ElicitReply returns a canned reply, drifting the belief when an update
// was requested.
func (s *Scripted) ElicitReply(_ context.Context, rc ReplyContext) (*ReplyResult, error) {
	if _, ok := s.Beliefs[rc.AgentID]; !ok {
		return nil, fmt.Errorf("scripted oracle: no belief for agent %d", rc.AgentID)
	}
	result := &ReplyResult{
		Reply: fmt.Sprintf("Noted; my position stands going into round %d.", rc.Round),
	}
	if rc.RequestBeliefUpdate {
		updated := clamp(rc.Belief + s.Drift)
		result.UpdatedBelief = updated
		result.PredictedPartnerBelief = clamp(updated - 5)
		result.HasBeliefUpdate = true
	}
	return result, nil
}

// ElicitDecision returns the scripted choice with a consistent strategy.
func (s *Scripted) ElicitDecision(_ context.Context, dc DecisionContext) (*DecisionResult, error) {
	choice, ok := s.Choices[dc.AgentID]
	if !ok {
		return nil, fmt.Errorf("scripted oracle: no choice for agent %d", dc.AgentID)
	}
	opt, ok := dc.Task.Option(choice)
	if !ok {
		return nil, fmt.Errorf("scripted oracle: choice %q is not in agent %d's task", choice, dc.AgentID)
	}
	strategy := game.StrategyIndividual
	if opt.Kind == game.KindCollaborative {
		strategy = game.StrategyCollaborative
	}
	return &DecisionResult{
		Choice:    choice,
		Strategy:  strategy,
		Reasoning: fmt.Sprintf("scripted choice %s at belief %d", choice, dc.FinalBelief),
	}, nil
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
