package oracle

import (
	"context"
	"testing"

	"github.com/coordlab/staghunt/game"
)

func scriptedTask(t *testing.T) *game.Task {
	t.Helper()
	task, err := game.DefaultTask(1, 0.66)
	if err != nil {
		t.Fatalf("DefaultTask: %v", err)
	}
	return task
}

func TestScriptedBelief(t *testing.T) {
	s := &Scripted{Beliefs: map[int]int{1: 80, 2: 30}}
	task := scriptedTask(t)

	high, err := s.ElicitBelief(context.Background(), BeliefContext{AgentID: 1, PartnerID: 2, Task: task})
	if err != nil {
		t.Fatalf("ElicitBelief: %v", err)
	}
	if high.Belief != 80 || high.Message == "" {
		t.Errorf("got %+v", high)
	}

	low, err := s.ElicitBelief(context.Background(), BeliefContext{AgentID: 2, PartnerID: 1, Task: task})
	if err != nil {
		t.Fatalf("ElicitBelief: %v", err)
	}
	if low.Message == high.Message {
		t.Error("stance does not reflect the belief")
	}

	if _, err := s.ElicitBelief(context.Background(), BeliefContext{AgentID: 3, Task: task}); err == nil {
		t.Error("unknown agent accepted")
	}
}

func TestScriptedReplyDrift(t *testing.T) {
	s := &Scripted{Beliefs: map[int]int{1: 95}, Drift: 10}

	plain, err := s.ElicitReply(context.Background(), ReplyContext{AgentID: 1, Round: 1, Belief: 95})
	if err != nil {
		t.Fatalf("ElicitReply: %v", err)
	}
	if plain.HasBeliefUpdate {
		t.Error("update produced without request")
	}

	updated, err := s.ElicitReply(context.Background(), ReplyContext{
		AgentID: 1, Round: 1, Belief: 95, RequestBeliefUpdate: true,
	})
	if err != nil {
		t.Fatalf("ElicitReply: %v", err)
	}
	if !updated.HasBeliefUpdate || updated.UpdatedBelief != 100 {
		t.Errorf("drifted belief = %+v, want clamp at 100", updated)
	}
}

func TestScriptedDecision(t *testing.T) {
	s := &Scripted{
		Beliefs: map[int]int{1: 80},
		Choices: map[int]string{1: "A"},
	}
	task := scriptedTask(t)

	result, err := s.ElicitDecision(context.Background(), DecisionContext{AgentID: 1, Task: task, FinalBelief: 80})
	if err != nil {
		t.Fatalf("ElicitDecision: %v", err)
	}
	if result.Choice != "A" || result.Strategy != game.StrategyCollaborative {
		t.Errorf("got %+v", result)
	}

	s.Choices[1] = "Z"
	if _, err := s.ElicitDecision(context.Background(), DecisionContext{AgentID: 1, Task: task}); err == nil {
		t.Error("choice outside the task accepted")
	}
}
