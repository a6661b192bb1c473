package analysis

import (
	"math"
	"testing"

	"github.com/coordlab/staghunt/game"
	"github.com/coordlab/staghunt/results"
)

func record(u1, u2 float64, s1, s2 game.Strategy, b1, b2 int) results.TrialRecord {
	choice := func(s game.Strategy) string {
		if s == game.StrategyCollaborative {
			return "A"
		}
		return "Y"
	}
	rec := results.TrialRecord{
		TrialID:        "t",
		TaskID:         1,
		UValue1:        u1,
		UValue2:        u2,
		Asymmetric:     u1 != u2,
		Agent1Belief:   b1,
		Agent2Belief:   b2,
		Agent1Choice:   choice(s1),
		Agent2Choice:   choice(s2),
		Agent1Strategy: s1,
		Agent2Strategy: s2,
	}
	if s1 != s2 {
		rec.Mismatch = 1
	}
	return rec
}

const (
	collab = game.StrategyCollaborative
	indiv  = game.StrategyIndividual
)

func TestKeyOfCanonicalizes(t *testing.T) {
	if KeyOf(0.66) != "0.66" {
		t.Errorf("KeyOf(0.66) = %q", KeyOf(0.66))
	}
	// Float noise lands in the same group.
	if KeyOf(0.66) != KeyOf(0.66000000001) {
		t.Error("nearby floats produced different keys")
	}
	if KeyOf(0.5) != "0.50" {
		t.Errorf("KeyOf(0.5) = %q, want two decimals", KeyOf(0.5))
	}
}

func TestAggregatePartition(t *testing.T) {
	records := []results.TrialRecord{
		record(0.66, 0.66, collab, collab, 80, 75),
		record(0.66, 0.66, indiv, indiv, 30, 40),
		record(0.66, 0.66, collab, indiv, 90, 20),
		record(0.66, 0.66, indiv, collab, 10, 85),
		record(0.66, 0.66, collab, collab, 70, 70),
	}
	report := Aggregate(records)

	if len(report.Groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(report.Groups))
	}
	g := report.Groups[GroupKey{U1: "0.66", U2: "0.66"}]
	if g == nil {
		t.Fatal("expected group missing")
	}

	sum := g.BothCollaborate + g.BothIndividual + g.Agent1Defects + g.Agent2Defects
	if sum != g.Trials {
		t.Errorf("outcome counts sum to %d, trials = %d", sum, g.Trials)
	}
	if g.BothCollaborate != 2 || g.BothIndividual != 1 || g.Agent1Defects != 1 || g.Agent2Defects != 1 {
		t.Errorf("partition = %d/%d/%d/%d", g.BothCollaborate, g.BothIndividual, g.Agent1Defects, g.Agent2Defects)
	}
	if g.Mismatches != 2 {
		t.Errorf("Mismatches = %d, want 2", g.Mismatches)
	}
	if got := g.CollaborationRate(); got != 0.4 {
		t.Errorf("CollaborationRate = %g, want 0.4", got)
	}
	if g.Agent1Choices["A"] != 3 || g.Agent1Choices["Y"] != 2 {
		t.Errorf("agent 1 choice distribution = %v", g.Agent1Choices)
	}
}

func TestAggregateMergesNoisyKeys(t *testing.T) {
	records := []results.TrialRecord{
		record(0.66, 0.66, collab, collab, 80, 75),
		record(0.66000000001, 0.66, collab, collab, 70, 70),
	}
	report := Aggregate(records)
	if len(report.Groups) != 1 {
		t.Fatalf("noisy u-values split into %d groups", len(report.Groups))
	}
}

func TestAggregateSkipsBadKeys(t *testing.T) {
	records := []results.TrialRecord{
		record(0.66, 0.66, collab, collab, 80, 75),
		record(math.NaN(), 0.66, collab, collab, 70, 70),
		record(0.66, math.Inf(1), indiv, indiv, 30, 30),
	}
	report := Aggregate(records)
	if report.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", report.Skipped)
	}
	if len(report.KeyErrors) != 2 {
		t.Errorf("KeyErrors = %d, want 2", len(report.KeyErrors))
	}
	if g := report.Groups[GroupKey{U1: "0.66", U2: "0.66"}]; g == nil || g.Trials != 1 {
		t.Error("clean record lost alongside skipped ones")
	}
}

func TestAggregateSkipsUnclassifiableStrategies(t *testing.T) {
	empty := results.TrialRecord{TrialID: "bare", TaskID: 1, UValue1: 0.66, UValue2: 0.66}
	unknown := record(0.66, 0.66, collab, collab, 80, 75)
	unknown.Agent2Strategy = "cautious"

	report := Aggregate([]results.TrialRecord{
		record(0.66, 0.66, collab, collab, 80, 75),
		empty,
		unknown,
	})

	if report.Skipped != 2 || len(report.KeyErrors) != 2 {
		t.Errorf("Skipped = %d, KeyErrors = %d, want 2/2", report.Skipped, len(report.KeyErrors))
	}
	g := report.Groups[GroupKey{U1: "0.66", U2: "0.66"}]
	if g == nil || g.Trials != 1 {
		t.Fatalf("clean record not grouped alone: %+v", g)
	}
	// A record without strategies must never surface as a defection.
	if g.Agent1Defects != 0 || g.Agent2Defects != 0 {
		t.Errorf("defect counts = %d/%d for a group with one joint collaboration",
			g.Agent1Defects, g.Agent2Defects)
	}
	sum := g.BothCollaborate + g.BothIndividual + g.Agent1Defects + g.Agent2Defects
	if sum != g.Trials {
		t.Errorf("outcome counts sum to %d, trials = %d", sum, g.Trials)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	records := []results.TrialRecord{
		record(0.55, 0.55, collab, collab, 80, 75),
		record(0.85, 0.85, indiv, indiv, 30, 40),
	}
	a := Aggregate(records)
	b := Aggregate(records)
	for key, ga := range a.Groups {
		gb := b.Groups[key]
		if gb == nil || ga.Trials != gb.Trials || ga.BothCollaborate != gb.BothCollaborate {
			t.Errorf("group %v differs across runs", key)
		}
	}
}

func TestBeliefStats(t *testing.T) {
	records := []results.TrialRecord{
		record(0.66, 0.66, collab, collab, 60, 40),
		record(0.66, 0.66, collab, collab, 80, 60),
	}
	g := Aggregate(records).Groups[GroupKey{U1: "0.66", U2: "0.66"}]

	mean1, sd1 := g.BeliefStats(1)
	if mean1 != 70 {
		t.Errorf("agent 1 mean = %g, want 70", mean1)
	}
	if sd1 == 0 {
		t.Error("agent 1 stddev = 0 for spread samples")
	}
	mean2, _ := g.BeliefStats(2)
	if mean2 != 50 {
		t.Errorf("agent 2 mean = %g, want 50", mean2)
	}

	// Single sample: deviation guards to zero.
	single := Aggregate(records[:1]).Groups[GroupKey{U1: "0.66", U2: "0.66"}]
	if _, sd := single.BeliefStats(1); sd != 0 {
		t.Errorf("single-sample stddev = %g, want 0", sd)
	}
}

func TestEmptyGroupRates(t *testing.T) {
	g := newGroupStats(GroupKey{U1: "0.66", U2: "0.66"})
	if g.CollaborationRate() != 0 || g.MismatchRate() != 0 {
		t.Error("empty group produced nonzero rates")
	}
	if mean, sd := g.BeliefStats(1); mean != 0 || sd != 0 {
		t.Error("empty group produced nonzero belief stats")
	}
}

func TestSortedKeysOrder(t *testing.T) {
	records := []results.TrialRecord{
		record(0.85, 0.85, collab, collab, 80, 75),
		record(0.55, 0.55, collab, collab, 80, 75),
		record(0.66, 0.75, collab, collab, 80, 75),
		record(0.66, 0.66, collab, collab, 80, 75),
	}
	keys := Aggregate(records).SortedKeys()
	want := []GroupKey{
		{U1: "0.55", U2: "0.55"},
		{U1: "0.66", U2: "0.66"},
		{U1: "0.66", U2: "0.75"},
		{U1: "0.85", U2: "0.85"},
	}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %v, want %v", i, keys[i], want[i])
		}
	}
}

func TestDisparitySeriesAligned(t *testing.T) {
	records := []results.TrialRecord{
		// Symmetric condition: no disparity, full collaboration.
		record(0.55, 0.55, collab, collab, 70, 70),
		// Spread condition: disparity 0.20, no collaboration.
		record(0.55, 0.75, collab, indiv, 90, 10),
	}
	report := Aggregate(records)
	disparity, collabRate := report.DisparitySeries()
	if len(disparity) != 2 || len(collabRate) != 2 {
		t.Fatalf("series lengths %d/%d", len(disparity), len(collabRate))
	}
	if disparity[0] != 0 || collabRate[0] != 1 {
		t.Errorf("symmetric group series = %g/%g", disparity[0], collabRate[0])
	}
	if math.Abs(disparity[1]-0.20) > 1e-9 || collabRate[1] != 0 {
		t.Errorf("spread group series = %g/%g", disparity[1], collabRate[1])
	}
}

func TestDisparityCorrelation(t *testing.T) {
	// Collaboration falls off as the thresholds drift apart.
	records := []results.TrialRecord{
		record(0.60, 0.60, collab, collab, 70, 70),
		record(0.60, 0.70, collab, indiv, 80, 40),
		record(0.55, 0.85, indiv, indiv, 30, 10),
	}
	corr, ok := Aggregate(records).DisparityCorrelation()
	if !ok {
		t.Fatal("correlation unavailable for three groups")
	}
	if corr >= 0 {
		t.Errorf("correlation = %g, want negative when disparity suppresses collaboration", corr)
	}

	// A single group has no correlation to speak of.
	if _, ok := Aggregate(records[:1]).DisparityCorrelation(); ok {
		t.Error("correlation reported for one group")
	}
}
