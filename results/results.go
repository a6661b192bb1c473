// Package results persists finished trials as single-line records in an
// append-only log and reads them back. The format is a pipe-separated
// key:value line, one trial per line, designed so a partially written or
// corrupted line damages only itself.
package results

import (
	"fmt"
	"strconv"
	"time"

	"github.com/coordlab/staghunt/game"
	"github.com/coordlab/staghunt/protocol"
)

// timeLayout is the timestamp format leading every record line.
const timeLayout = "2006-01-02 15:04:05"

// TrialRecord is the flat, persistable form of a finished trial.
type TrialRecord struct {
	Timestamp time.Time
	TrialID   string
	TaskID    int

	// UValue1 and UValue2 are the per-agent thresholds. Equal in the
	// symmetric variant.
	UValue1    float64
	UValue2    float64
	Asymmetric bool

	Agent1Belief      int
	Agent2Belief      int
	Agent1FinalBelief int
	Agent2FinalBelief int

	Agent1Choice   string
	Agent2Choice   string
	Agent1Strategy game.Strategy
	Agent2Strategy game.Strategy

	Mismatch int

	// Fallback is 1 when any step of the trial substituted a fallback
	// value after malformed responses.
	Fallback int
}

// FromTrial flattens a finished trial into a record stamped now.
func FromTrial(t *protocol.Trial) TrialRecord {
	rec := TrialRecord{
		Timestamp:         time.Now(),
		TrialID:           t.ID,
		TaskID:            t.Tasks[0].TaskID,
		UValue1:           t.Tasks[0].UValue,
		UValue2:           t.Tasks[1].UValue,
		Asymmetric:        t.Asymmetric,
		Agent1Belief:      t.Beliefs[0].Initial,
		Agent2Belief:      t.Beliefs[1].Initial,
		Agent1FinalBelief: t.Beliefs[0].Current(),
		Agent2FinalBelief: t.Beliefs[1].Current(),
		Agent1Choice:      t.Decisions[0].Choice,
		Agent2Choice:      t.Decisions[1].Choice,
		Agent1Strategy:    t.Decisions[0].Strategy,
		Agent2Strategy:    t.Decisions[1].Strategy,
		Mismatch:          t.Mismatch,
	}
	if t.Fallback() {
		rec.Fallback = 1
	}
	return rec
}

// Line renders the record as one log line, without a trailing newline.
func (r TrialRecord) Line() string {
	fields := []string{
		r.Timestamp.Format(timeLayout),
		"Trial_ID:" + r.TrialID,
		"Task_ID:" + strconv.Itoa(r.TaskID),
	}
	if r.Asymmetric {
		fields = append(fields,
			"Agent1_U_Value:"+formatU(r.UValue1),
			"Agent2_U_Value:"+formatU(r.UValue2),
		)
	} else {
		fields = append(fields, "U_Value:"+formatU(r.UValue1))
	}
	fields = append(fields,
		"Agent1_Belief:"+strconv.Itoa(r.Agent1Belief),
		"Agent2_Belief:"+strconv.Itoa(r.Agent2Belief),
		"Agent1_Final_Belief:"+strconv.Itoa(r.Agent1FinalBelief),
		"Agent2_Final_Belief:"+strconv.Itoa(r.Agent2FinalBelief),
		"Agent1_Choice:"+r.Agent1Choice,
		"Agent2_Choice:"+r.Agent2Choice,
		"Agent1_Strategy:"+string(r.Agent1Strategy),
		"Agent2_Strategy:"+string(r.Agent2Strategy),
		"Mismatch:"+strconv.Itoa(r.Mismatch),
		"Fallback:"+strconv.Itoa(r.Fallback),
	)
	return join(fields)
}

// formatU renders a u-value with two decimals, matching the grouping keys
// used downstream.
func formatU(u float64) string {
	return strconv.FormatFloat(u, 'f', 2, 64)
}

func join(fields []string) string {
	out := fields[0]
	for _, f := range fields[1:] {
		out += " | " + f
	}
	return out
}

// Defects reports the one-sided defection directions of a record. Agent 1
// defects when it holds to collaboration while agent 2 plays safe, and
// symmetrically for agent 2.
func (r TrialRecord) Defects() (agent1, agent2 bool) {
	agent1 = r.Agent1Strategy == game.StrategyCollaborative && r.Agent2Strategy == game.StrategyIndividual
	agent2 = r.Agent1Strategy == game.StrategyIndividual && r.Agent2Strategy == game.StrategyCollaborative
	return agent1, agent2
}

func (r TrialRecord) String() string {
	return fmt.Sprintf("TrialRecord(%s task=%d u=%s/%s)", r.TrialID, r.TaskID, formatU(r.UValue1), formatU(r.UValue2))
}
