package protocol

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/coordlab/staghunt/game"
	"github.com/coordlab/staghunt/oracle"
)

// fallbackBelief is substituted when belief elicitation stays malformed
// after retries.
const fallbackBelief = 50

const fallbackMessage = "I have nothing to add at this point."

// Engine executes negotiation trials against an Oracle. One engine is
// safe for concurrent Run calls as long as the oracle is.
type Engine struct {
	oracle oracle.Oracle
	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer
}

// NewEngine validates the configuration and returns a ready engine.
func NewEngine(o oracle.Oracle, cfg Config) (*Engine, error) {
	if o == nil {
		return nil, errors.New("protocol: oracle must not be nil")
	}
	if cfg.Rounds < 0 {
		return nil, fmt.Errorf("protocol: rounds must be >= 0, got %d", cfg.Rounds)
	}
	if cfg.TechFailureRate < 0 || cfg.TechFailureRate >= 1 {
		return nil, fmt.Errorf("protocol: tech failure rate must be in [0, 1), got %g", cfg.TechFailureRate)
	}
	switch {
	case cfg.MaxRetries == 0:
		cfg.MaxRetries = 1
	case cfg.MaxRetries < 0:
		cfg.MaxRetries = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		oracle: o,
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer("staghunt/protocol"),
	}, nil
}

// Run executes one full trial. Both agents form beliefs, exchange
// cfg.Rounds messages in alternation, then decide independently. A nil
// task2 runs the symmetric variant with both agents on task1.
//
// Malformed oracle responses are retried, then replaced by deterministic
// fallbacks recorded on the trial. Any other oracle error abandons the
// trial: the error is returned and no partial Trial is produced.
func (e *Engine) Run(ctx context.Context, task1, task2 *game.Task) (*Trial, error) {
	if task1 == nil {
		return nil, errors.New("protocol: task1 must not be nil")
	}
	if task2 == nil {
		task2 = task1
	}

	trial := &Trial{
		ID:         uuid.NewString(),
		Tasks:      [2]*game.Task{task1, task2},
		Asymmetric: !game.SameStructure(task1, task2),
		StartedAt:  time.Now(),
	}

	ctx, span := e.tracer.Start(ctx, "protocol.trial", trace.WithAttributes(
		attribute.String("trial.id", trial.ID),
		attribute.Int("task.id", task1.TaskID),
		attribute.Float64("task.u_value.agent1", task1.UValue),
		attribute.Float64("task.u_value.agent2", task2.UValue),
		attribute.Int("rounds", e.cfg.Rounds),
		attribute.Bool("asymmetric", trial.Asymmetric),
	))
	defer span.End()

	cur := stateInit
	advance := func(next state) {
		if next <= cur {
			panic(fmt.Sprintf("protocol: transition %v -> %v out of order", cur, next))
		}
		cur = next
	}

	// Belief formation, agent 1 then agent 2. Neither agent has seen the
	// other at this point.
	for _, agentID := range []int{1, 2} {
		if err := e.formBelief(ctx, trial, agentID); err != nil {
			span.RecordError(err)
			return nil, err
		}
		advance(state(int(stateBelief1) + agentID - 1))
	}

	// Only agent 1's opening message is delivered; it seeds the
	// conversation as round 0.
	trial.History = append(trial.History, game.Message{
		From:  1,
		Round: 0,
		Text:  trial.OpeningMessages[0],
	})

	advance(stateExchange)
	for round := 1; round <= e.cfg.Rounds; round++ {
		if err := e.exchange(ctx, trial, round); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	for _, agentID := range []int{1, 2} {
		if err := e.decide(ctx, trial, agentID); err != nil {
			span.RecordError(err)
			return nil, err
		}
		advance(state(int(stateDecide1) + agentID - 1))
	}

	trial.Mismatch = game.Mismatch(trial.Decisions[0], trial.Decisions[1])
	trial.CompletedAt = time.Now()
	advance(stateTerminal)

	span.SetAttributes(
		attribute.Int("trial.mismatch", trial.Mismatch),
		attribute.Bool("trial.fallback", trial.Fallback()),
	)
	e.logger.Info("trial complete",
		"trial_id", trial.ID,
		"task_id", task1.TaskID,
		"agent1_choice", trial.Decisions[0].Choice,
		"agent2_choice", trial.Decisions[1].Choice,
		"mismatch", trial.Mismatch,
		"fallback", trial.Fallback(),
	)
	return trial, nil
}

// formBelief runs the belief-formation step for one agent.
func (e *Engine) formBelief(ctx context.Context, trial *Trial, agentID int) error {
	ctx, span := e.tracer.Start(ctx, "protocol.belief", trace.WithAttributes(
		attribute.Int("agent", agentID),
	))
	defer span.End()

	bc := oracle.BeliefContext{
		AgentID:         agentID,
		PartnerID:       partnerOf(agentID),
		Task:            trial.Tasks[agentID-1],
		TechFailureRate: e.cfg.TechFailureRate,
	}

	var result *oracle.BeliefResult
	err := e.withRetry(ctx, fmt.Sprintf("belief(agent=%d)", agentID), trial, func() error {
		var err error
		result, err = e.oracle.ElicitBelief(ctx, bc)
		return err
	})
	if err != nil {
		return fmt.Errorf("belief formation for agent %d: %w", agentID, err)
	}
	if result == nil {
		result = &oracle.BeliefResult{Belief: fallbackBelief, Message: fallbackMessage}
	}

	trial.Beliefs[agentID-1] = BeliefState{Initial: result.Belief}
	trial.OpeningMessages[agentID-1] = result.Message

	span.SetAttributes(attribute.Int("belief", result.Belief))
	e.logger.Debug("belief formed", "trial_id", trial.ID, "agent", agentID, "belief", result.Belief)
	return nil
}

// exchange runs one exchange round. The responder alternates, agent 2
// first, and sees the full history including the message it answers.
func (e *Engine) exchange(ctx context.Context, trial *Trial, round int) error {
	agentID := responder(round)

	ctx, span := e.tracer.Start(ctx, "protocol.exchange", trace.WithAttributes(
		attribute.Int("round", round),
		attribute.Int("agent", agentID),
	))
	defer span.End()

	st := trial.Belief(agentID)
	belief := st.Current()
	if e.cfg.ReplyBelief == BeliefInitial {
		belief = st.Initial
	}

	rc := oracle.ReplyContext{
		AgentID:             agentID,
		PartnerID:           partnerOf(agentID),
		Task:                trial.Tasks[agentID-1],
		Round:               round,
		History:             append([]game.Message(nil), trial.History...),
		Belief:              belief,
		PreviousPrediction:  st.LastPrediction(),
		RequestBeliefUpdate: e.cfg.TrackBeliefUpdates,
		TechFailureRate:     e.cfg.TechFailureRate,
	}

	var result *oracle.ReplyResult
	err := e.withRetry(ctx, fmt.Sprintf("exchange(round=%d,agent=%d)", round, agentID), trial, func() error {
		var err error
		result, err = e.oracle.ElicitReply(ctx, rc)
		return err
	})
	if err != nil {
		return fmt.Errorf("exchange round %d for agent %d: %w", round, agentID, err)
	}
	if result == nil {
		// Fallback reply keeps the belief where it was.
		result = &oracle.ReplyResult{Reply: fallbackMessage}
	}

	trial.History = append(trial.History, game.Message{
		From:  agentID,
		Round: round,
		Text:  result.Reply,
	})
	if result.HasBeliefUpdate {
		st.Exchanges = append(st.Exchanges, result.UpdatedBelief)
		st.Predictions = append(st.Predictions, result.PredictedPartnerBelief)
	} else {
		st.Exchanges = append(st.Exchanges, st.Current())
	}

	span.SetAttributes(attribute.Int("belief", st.Current()))
	e.logger.Debug("exchange step",
		"trial_id", trial.ID,
		"round", round,
		"agent", agentID,
		"belief", st.Current(),
	)
	return nil
}

// decide runs the final decision step for one agent. The agent sees its
// own full belief trajectory but only the partner's initial belief; the
// partner's updates stay private.
func (e *Engine) decide(ctx context.Context, trial *Trial, agentID int) error {
	ctx, span := e.tracer.Start(ctx, "protocol.decision", trace.WithAttributes(
		attribute.Int("agent", agentID),
	))
	defer span.End()

	task := trial.Tasks[agentID-1]
	st := trial.Belief(agentID)
	partner := trial.Belief(partnerOf(agentID))

	dc := oracle.DecisionContext{
		AgentID:              agentID,
		PartnerID:            partnerOf(agentID),
		Task:                 task,
		InitialBelief:        st.Initial,
		FinalBelief:          st.Current(),
		PartnerInitialBelief: partner.Initial,
		PartnerPrediction:    st.LastPrediction(),
		History:              append([]game.Message(nil), trial.History...),
		TechFailureRate:      e.cfg.TechFailureRate,
	}

	var result *oracle.DecisionResult
	err := e.withRetry(ctx, fmt.Sprintf("decision(agent=%d)", agentID), trial, func() error {
		var err error
		result, err = e.oracle.ElicitDecision(ctx, dc)
		return err
	})
	if err != nil {
		return fmt.Errorf("decision for agent %d: %w", agentID, err)
	}

	var decision game.Decision
	switch {
	case result == nil:
		// Fallback decision takes the guaranteed option.
		decision = game.Decision{
			AgentID:  agentID,
			Choice:   task.SafeOption().ID,
			Strategy: game.StrategyIndividual,
		}
	default:
		decision = game.Decision{
			AgentID:   agentID,
			Choice:    result.Choice,
			Strategy:  result.Strategy,
			Reasoning: result.Reasoning,
		}
		if _, ok := task.Option(decision.Choice); !ok {
			// An unknown option id cannot be coerced. Treat it like a
			// malformed step and fall back.
			e.logger.Warn("decision names unknown option, falling back",
				"trial_id", trial.ID, "agent", agentID, "choice", decision.Choice)
			trial.FallbackSteps = append(trial.FallbackSteps, fmt.Sprintf("decision(agent=%d)", agentID))
			decision = game.Decision{
				AgentID:  agentID,
				Choice:   task.SafeOption().ID,
				Strategy: game.StrategyIndividual,
			}
			break
		}
		coerced, changed := decision.Coerce(task)
		if changed {
			e.logger.Warn("strategy label disagrees with choice, coercing",
				"trial_id", trial.ID,
				"agent", agentID,
				"choice", decision.Choice,
				"declared", string(decision.Strategy),
				"coerced", string(coerced.Strategy),
			)
			trial.Coercions++
		}
		decision = coerced
	}

	trial.Decisions[agentID-1] = decision

	span.SetAttributes(
		attribute.String("choice", decision.Choice),
		attribute.String("strategy", string(decision.Strategy)),
	)
	e.logger.Debug("decision made",
		"trial_id", trial.ID,
		"agent", agentID,
		"choice", decision.Choice,
		"strategy", string(decision.Strategy),
	)
	return nil
}

// withRetry runs one oracle call, re-asking on malformed responses up to
// cfg.MaxRetries times. When all attempts are malformed it records the
// step on the trial and returns nil so the caller applies its fallback;
// the caller detects this by its result pointer staying nil. Any other
// error is returned as-is.
func (e *Engine) withRetry(ctx context.Context, step string, trial *Trial, call func() error) error {
	var lastErr error
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := call()
		if err == nil {
			return nil
		}
		var malformed *oracle.MalformedResponseError
		if !errors.As(err, &malformed) {
			return err
		}
		lastErr = err
		e.logger.Warn("malformed oracle response",
			"trial_id", trial.ID,
			"step", step,
			"attempt", attempt+1,
			"error", err,
		)
	}
	e.logger.Warn("retries exhausted, using fallback",
		"trial_id", trial.ID,
		"step", step,
		"error", lastErr,
	)
	trial.FallbackSteps = append(trial.FallbackSteps, step)
	return nil
}
