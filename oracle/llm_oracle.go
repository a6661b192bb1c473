package oracle

import (
	"context"
	"log/slog"

	"github.com/coordlab/staghunt/llm"
)

// LLMOracle implements Oracle on top of a chat model. Prompt construction
// is parameterized by agent, round and history, so one oracle serves every
// protocol step for both agents.
type LLMOracle struct {
	model         llm.Model
	contextPrompt string
	callOpts      []llm.CallOption
	logger        *slog.Logger
}

// LLMOption configures an LLMOracle.
type LLMOption func(*LLMOracle)

// WithContextPrompt overrides the framing prompt sent as the system
// message on every call.
func WithContextPrompt(prompt string) LLMOption {
	return func(o *LLMOracle) {
		o.contextPrompt = prompt
	}
}

// WithCallOptions sets model call options applied to every elicitation.
func WithCallOptions(opts ...llm.CallOption) LLMOption {
	return func(o *LLMOracle) {
		o.callOpts = opts
	}
}

// WithLogger sets the logger used for raw-response debug logging.
func WithLogger(logger *slog.Logger) LLMOption {
	return func(o *LLMOracle) {
		o.logger = logger
	}
}

// NewLLMOracle creates an oracle backed by the given model.
func NewLLMOracle(model llm.Model, opts ...LLMOption) *LLMOracle {
	o := &LLMOracle{
		model:         model,
		contextPrompt: DefaultContextPrompt,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ElicitBelief asks the model for an initial belief and opening message.
func (o *LLMOracle) ElicitBelief(ctx context.Context, bc BeliefContext) (*BeliefResult, error) {
	raw, err := o.model.Complete(ctx, o.contextPrompt, buildBeliefPrompt(bc), o.callOpts...)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("belief response", "agent", bc.AgentID, "raw", raw)
	return parseBelief(raw)
}

// ElicitReply asks the model for the next negotiation message, optionally
// with an updated belief and a partner-belief prediction.
func (o *LLMOracle) ElicitReply(ctx context.Context, rc ReplyContext) (*ReplyResult, error) {
	raw, err := o.model.Complete(ctx, o.contextPrompt, buildReplyPrompt(rc), o.callOpts...)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("reply response", "agent", rc.AgentID, "round", rc.Round, "raw", raw)
	return parseReply(raw, rc.RequestBeliefUpdate)
}

// ElicitDecision asks the model for the agent's final choice and strategy.
func (o *LLMOracle) ElicitDecision(ctx context.Context, dc DecisionContext) (*DecisionResult, error) {
	raw, err := o.model.Complete(ctx, o.contextPrompt, buildDecisionPrompt(dc), o.callOpts...)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("decision response", "agent", dc.AgentID, "raw", raw)
	return parseDecision(raw)
}
