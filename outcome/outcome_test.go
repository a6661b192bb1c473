package outcome

import (
	"math/rand"
	"testing"

	"github.com/coordlab/staghunt/game"
)

func testTask(t *testing.T) *game.Task {
	t.Helper()
	task, err := game.DefaultTask(1, 0.66)
	if err != nil {
		t.Fatalf("DefaultTask: %v", err)
	}
	return task
}

func newTestResolver(t *testing.T, techFailureRate float64) *Resolver {
	t.Helper()
	r, err := NewResolver(rand.New(rand.NewSource(1)), techFailureRate)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return r
}

func TestNewResolverValidation(t *testing.T) {
	if _, err := NewResolver(nil, -0.1); err == nil {
		t.Error("negative tech failure rate accepted")
	}
	if _, err := NewResolver(nil, 1.0); err == nil {
		t.Error("tech failure rate of 1 accepted")
	}
	if _, err := NewResolver(nil, 0.05); err != nil {
		t.Errorf("valid rate rejected: %v", err)
	}
}

func TestResolveSimulatedSafeChoice(t *testing.T) {
	task := testTask(t)
	r := newTestResolver(t, 0.05)

	d := game.Decision{AgentID: 1, Choice: "Y", Strategy: game.StrategyIndividual}
	out, err := r.ResolveSimulated(d, task, 0.5)
	if err != nil {
		t.Fatalf("ResolveSimulated: %v", err)
	}
	if out.Points != 50 || out.Collaborated {
		t.Errorf("safe choice resolved to %+v", out)
	}
}

func TestResolveSimulatedCertainPartner(t *testing.T) {
	task := testTask(t)
	d := game.Decision{AgentID: 1, Choice: "A", Strategy: game.StrategyCollaborative}

	// pCoop = 1 with no technical failures always pays the upside.
	r := newTestResolver(t, 0)
	for i := 0; i < 20; i++ {
		out, err := r.ResolveSimulated(d, task, 1)
		if err != nil {
			t.Fatalf("ResolveSimulated: %v", err)
		}
		if out.Points != 111 || !out.PartnerCollaborated || out.TechFailure {
			t.Fatalf("certain cooperation resolved to %+v", out)
		}
	}

	// pCoop = 0 always pays the downside.
	for i := 0; i < 20; i++ {
		out, err := r.ResolveSimulated(d, task, 0)
		if err != nil {
			t.Fatalf("ResolveSimulated: %v", err)
		}
		if out.Points != -90 || out.PartnerCollaborated {
			t.Fatalf("certain defection resolved to %+v", out)
		}
	}
}

func TestResolveSimulatedValidation(t *testing.T) {
	task := testTask(t)
	r := newTestResolver(t, 0.05)

	if _, err := r.ResolveSimulated(game.Decision{Choice: "Q"}, task, 0.5); err == nil {
		t.Error("unknown choice accepted")
	}
	if _, err := r.ResolveSimulated(game.Decision{Choice: "A"}, task, 1.5); err == nil {
		t.Error("pCoop above 1 accepted")
	}
}

func TestResolvePair(t *testing.T) {
	task := testTask(t)
	r := newTestResolver(t, 0)

	collab := game.Decision{AgentID: 1, Choice: "B", Strategy: game.StrategyCollaborative}
	partnerCollab := game.Decision{AgentID: 2, Choice: "A", Strategy: game.StrategyCollaborative}
	partnerSafe := game.Decision{AgentID: 2, Choice: "Y", Strategy: game.StrategyIndividual}

	out, err := r.ResolvePair(collab, partnerCollab, task)
	if err != nil {
		t.Fatalf("ResolvePair: %v", err)
	}
	if out.Points != 92 || !out.PartnerCollaborated {
		t.Errorf("joint collaboration resolved to %+v", out)
	}

	out, err = r.ResolvePair(collab, partnerSafe, task)
	if err != nil {
		t.Fatalf("ResolvePair: %v", err)
	}
	if out.Points != -45 || out.PartnerCollaborated {
		t.Errorf("lone collaboration resolved to %+v", out)
	}

	out, err = r.ResolvePair(partnerSafe, collab, task)
	if err != nil {
		t.Fatalf("ResolvePair: %v", err)
	}
	if out.Points != 50 {
		t.Errorf("safe play resolved to %+v", out)
	}
}

func TestTechFailureAlwaysStrikes(t *testing.T) {
	task := testTask(t)

	// A rate just under 1 makes failure near-certain; with a fixed seed
	// the first draw is well below it.
	r := newTestResolver(t, 0.999999)
	collab := game.Decision{AgentID: 1, Choice: "C", Strategy: game.StrategyCollaborative}
	partner := game.Decision{AgentID: 2, Choice: "C", Strategy: game.StrategyCollaborative}

	out, err := r.ResolvePair(collab, partner, task)
	if err != nil {
		t.Fatalf("ResolvePair: %v", err)
	}
	if !out.TechFailure || out.Points != -15 {
		t.Errorf("near-certain failure resolved to %+v", out)
	}
}
