// Package outcome resolves a decision into earned points. Collaboration
// pays the upside only when both sides collaborate and no technical
// failure strikes; a lone collaborator eats the downside; the guaranteed
// option always pays its face value.
package outcome

import (
	"fmt"
	"math/rand"

	"github.com/coordlab/staghunt/game"
)

// DefaultTechFailureRate is the technical failure chance quoted to agents
// in the standard experiments.
const DefaultTechFailureRate = 0.05

// Outcome describes how one agent's decision resolved.
type Outcome struct {
	AgentID int
	Choice  string
	Points  int

	// Collaborated reports whether the agent picked a collaborative
	// option.
	Collaborated bool

	// PartnerCollaborated reports the partner's side of the resolution.
	// Always false when the agent played the guaranteed option, since the
	// partner's move then has no effect.
	PartnerCollaborated bool

	// TechFailure reports that a joint collaboration was struck down by
	// the technical failure draw.
	TechFailure bool
}

// Resolver resolves decisions into outcomes. The random source is
// injected so experiments are reproducible under a fixed seed.
type Resolver struct {
	rng             *rand.Rand
	techFailureRate float64
}

// NewResolver creates a resolver drawing from rng. A nil rng uses an
// unseeded source.
func NewResolver(rng *rand.Rand, techFailureRate float64) (*Resolver, error) {
	if techFailureRate < 0 || techFailureRate >= 1 {
		return nil, fmt.Errorf("outcome: tech failure rate must be in [0, 1), got %g", techFailureRate)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Resolver{rng: rng, techFailureRate: techFailureRate}, nil
}

// ResolveSimulated resolves a decision against a simulated partner who
// collaborates with probability pCoop. This is the single-agent variant:
// the partner is a Bernoulli draw, not another decider.
func (r *Resolver) ResolveSimulated(d game.Decision, t *game.Task, pCoop float64) (Outcome, error) {
	if pCoop < 0 || pCoop > 1 {
		return Outcome{}, fmt.Errorf("outcome: pCoop must be in [0, 1], got %g", pCoop)
	}
	opt, ok := t.Option(d.Choice)
	if !ok {
		return Outcome{}, fmt.Errorf("outcome: choice %q is not an option of task %d", d.Choice, t.TaskID)
	}
	out := Outcome{AgentID: d.AgentID, Choice: d.Choice}
	if opt.Kind == game.KindSafe {
		out.Points = opt.Guaranteed
		return out, nil
	}
	out.Collaborated = true
	out.PartnerCollaborated = r.rng.Float64() < pCoop
	return r.settle(out, opt), nil
}

// ResolvePair resolves one side of a two-agent trial against the
// partner's actual decision. Only the technical failure is random.
func (r *Resolver) ResolvePair(d, partner game.Decision, t *game.Task) (Outcome, error) {
	opt, ok := t.Option(d.Choice)
	if !ok {
		return Outcome{}, fmt.Errorf("outcome: choice %q is not an option of task %d", d.Choice, t.TaskID)
	}
	out := Outcome{AgentID: d.AgentID, Choice: d.Choice}
	if opt.Kind == game.KindSafe {
		out.Points = opt.Guaranteed
		return out, nil
	}
	out.Collaborated = true
	out.PartnerCollaborated = partner.Strategy == game.StrategyCollaborative
	return r.settle(out, opt), nil
}

// settle applies the payoff rule to a collaborative choice with the
// partner's stance already decided.
func (r *Resolver) settle(out Outcome, opt game.Option) Outcome {
	if !out.PartnerCollaborated {
		out.Points = opt.Downside
		return out
	}
	if r.techFailureRate > 0 && r.rng.Float64() < r.techFailureRate {
		out.TechFailure = true
		out.Points = opt.Downside
		return out
	}
	out.Points = opt.Upside
	return out
}
