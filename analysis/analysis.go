// Package analysis aggregates trial records into per-condition outcome
// statistics. Records are grouped by their u-value pair; within each
// group the four joint outcomes partition the trials exactly.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/coordlab/staghunt/game"
	"github.com/coordlab/staghunt/results"
)

// GroupKey identifies one experimental condition by its canonical
// two-decimal u-value pair. String keys keep float noise out of map
// identity: 0.66 and 0.66000000001 land in the same group.
type GroupKey struct {
	U1 string
	U2 string
}

func (k GroupKey) String() string {
	if k.U1 == k.U2 {
		return "u=" + k.U1
	}
	return "u1=" + k.U1 + " u2=" + k.U2
}

// KeyOf canonicalizes a u-value to its two-decimal string form.
func KeyOf(u float64) string {
	return strconv.FormatFloat(u, 'f', 2, 64)
}

// PairKey builds the group key for a record.
func PairKey(rec results.TrialRecord) GroupKey {
	return GroupKey{U1: KeyOf(rec.UValue1), U2: KeyOf(rec.UValue2)}
}

// AggregationKeyError reports a record whose condition key could not be
// derived. Aggregation skips and counts such records instead of failing.
type AggregationKeyError struct {
	TrialID string
	Reason  string
}

func (e *AggregationKeyError) Error() string {
	return fmt.Sprintf("trial %s: cannot derive group key: %s", e.TrialID, e.Reason)
}

// GroupStats accumulates outcomes for one condition.
type GroupStats struct {
	Key    GroupKey
	Trials int

	// UDisparity is |u2 - u1| for this condition, derived from the
	// canonical key. Zero for symmetric conditions.
	UDisparity float64

	// The four joint outcomes. BothCollaborate + BothIndividual +
	// Agent1Defects + Agent2Defects == Trials.
	BothCollaborate int
	BothIndividual  int

	// Agent1Defects counts trials where agent 1 held to collaboration
	// while agent 2 played safe; Agent2Defects is the mirror case.
	Agent1Defects int
	Agent2Defects int

	// Choice distributions per agent, keyed by option id.
	Agent1Choices map[string]int
	Agent2Choices map[string]int

	Mismatches int
	Fallbacks  int

	agent1Beliefs []float64
	agent2Beliefs []float64
}

func newGroupStats(key GroupKey) *GroupStats {
	u1, _ := strconv.ParseFloat(key.U1, 64)
	u2, _ := strconv.ParseFloat(key.U2, 64)
	return &GroupStats{
		Key:           key,
		UDisparity:    math.Abs(u2 - u1),
		Agent1Choices: make(map[string]int),
		Agent2Choices: make(map[string]int),
	}
}

func (g *GroupStats) add(rec results.TrialRecord) {
	g.Trials++
	// Every case is matched explicitly; Aggregate has already rejected
	// records with strategies outside the enum, so the four outcomes
	// partition the group's trials exactly.
	switch {
	case rec.Agent1Strategy == game.StrategyCollaborative && rec.Agent2Strategy == game.StrategyCollaborative:
		g.BothCollaborate++
	case rec.Agent1Strategy == game.StrategyIndividual && rec.Agent2Strategy == game.StrategyIndividual:
		g.BothIndividual++
	case rec.Agent1Strategy == game.StrategyCollaborative && rec.Agent2Strategy == game.StrategyIndividual:
		g.Agent1Defects++
	case rec.Agent1Strategy == game.StrategyIndividual && rec.Agent2Strategy == game.StrategyCollaborative:
		g.Agent2Defects++
	}
	g.Agent1Choices[rec.Agent1Choice]++
	g.Agent2Choices[rec.Agent2Choice]++
	g.Mismatches += rec.Mismatch
	g.Fallbacks += rec.Fallback
	g.agent1Beliefs = append(g.agent1Beliefs, float64(rec.Agent1Belief))
	g.agent2Beliefs = append(g.agent2Beliefs, float64(rec.Agent2Belief))
}

// CollaborationRate is the fraction of trials where both collaborated.
// Zero for an empty group.
func (g *GroupStats) CollaborationRate() float64 {
	return g.rate(g.BothCollaborate)
}

// MismatchRate is the fraction of trials with divergent strategies.
func (g *GroupStats) MismatchRate() float64 {
	return g.rate(g.Mismatches)
}

// Agent1DefectRate is the fraction of trials where only agent 1
// collaborated.
func (g *GroupStats) Agent1DefectRate() float64 {
	return g.rate(g.Agent1Defects)
}

// Agent2DefectRate is the fraction of trials where only agent 2
// collaborated.
func (g *GroupStats) Agent2DefectRate() float64 {
	return g.rate(g.Agent2Defects)
}

func (g *GroupStats) rate(n int) float64 {
	if g.Trials == 0 {
		return 0
	}
	return float64(n) / float64(g.Trials)
}

// BeliefStats returns the mean and standard deviation of one agent's
// initial beliefs in this group. The deviation is 0 for fewer than two
// samples.
func (g *GroupStats) BeliefStats(agentID int) (mean, stddev float64) {
	beliefs := g.agent1Beliefs
	if agentID == 2 {
		beliefs = g.agent2Beliefs
	}
	if len(beliefs) == 0 {
		return 0, 0
	}
	mean = stat.Mean(beliefs, nil)
	if len(beliefs) < 2 {
		return mean, 0
	}
	return mean, stat.StdDev(beliefs, nil)
}

// Report is the result of aggregating a record set.
type Report struct {
	Groups map[GroupKey]*GroupStats

	// Skipped counts records dropped for underivable keys; KeyErrors
	// retains the reason per dropped record.
	Skipped   int
	KeyErrors []*AggregationKeyError
}

// Aggregate groups records by condition. Records with non-finite u-values
// or strategies outside the known enum are skipped and counted;
// aggregation itself never fails.
func Aggregate(records []results.TrialRecord) *Report {
	report := &Report{Groups: make(map[GroupKey]*GroupStats)}
	for _, rec := range records {
		if !isFinite(rec.UValue1) || !isFinite(rec.UValue2) {
			report.Skipped++
			report.KeyErrors = append(report.KeyErrors, &AggregationKeyError{
				TrialID: rec.TrialID,
				Reason:  fmt.Sprintf("non-finite u-values %g/%g", rec.UValue1, rec.UValue2),
			})
			continue
		}
		if !knownStrategy(rec.Agent1Strategy) || !knownStrategy(rec.Agent2Strategy) {
			report.Skipped++
			report.KeyErrors = append(report.KeyErrors, &AggregationKeyError{
				TrialID: rec.TrialID,
				Reason: fmt.Sprintf("unclassifiable strategies %q/%q",
					rec.Agent1Strategy, rec.Agent2Strategy),
			})
			continue
		}
		key := PairKey(rec)
		g, ok := report.Groups[key]
		if !ok {
			g = newGroupStats(key)
			report.Groups[key] = g
		}
		g.add(rec)
	}
	return report
}

func isFinite(u float64) bool {
	return !math.IsNaN(u) && !math.IsInf(u, 0)
}

func knownStrategy(s game.Strategy) bool {
	return s == game.StrategyCollaborative || s == game.StrategyIndividual
}

// SortedKeys returns the group keys in ascending (U1, U2) order for
// stable report output.
func (r *Report) SortedKeys() []GroupKey {
	keys := make([]GroupKey, 0, len(r.Groups))
	for k := range r.Groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].U1 != keys[j].U1 {
			return keys[i].U1 < keys[j].U1
		}
		return keys[i].U2 < keys[j].U2
	})
	return keys
}

// DisparitySeries extracts paired, index-aligned series over the sorted
// groups: the threshold disparity |u2 - u1| and the collaboration rate.
// The shared ordering is what makes the two series correlatable.
func (r *Report) DisparitySeries() (disparity, collabRate []float64) {
	for _, key := range r.SortedKeys() {
		g := r.Groups[key]
		disparity = append(disparity, g.UDisparity)
		collabRate = append(collabRate, g.CollaborationRate())
	}
	return disparity, collabRate
}

// DisparityCorrelation is the Pearson correlation between per-group
// threshold disparity and collaboration rate. It returns ok=false when
// fewer than two groups exist, since correlation is undefined there.
func (r *Report) DisparityCorrelation() (corr float64, ok bool) {
	disparity, collabRate := r.DisparitySeries()
	if len(disparity) < 2 {
		return 0, false
	}
	corr = stat.Correlation(disparity, collabRate, nil)
	if math.IsNaN(corr) {
		return 0, false
	}
	return corr, true
}
