package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coordlab/staghunt/game"
)

// MalformedResponseError reports an oracle payload that failed to parse or
// was missing a required key. The raw text is retained for logging.
type MalformedResponseError struct {
	Kind string // "belief", "reply", or "decision"
	Raw  string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed %s response: %v", e.Kind, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// beliefPayload is the required wire shape for belief elicitation.
type beliefPayload struct {
	Belief    *int   `json:"belief"`
	Reasoning string `json:"reasoning"`
	Message   string `json:"message"`
}

// replyPayload is the required wire shape for exchange replies. The belief
// fields are required only when the step requested a belief update.
type replyPayload struct {
	Reply                  string `json:"reply"`
	UpdatedBelief          *int   `json:"updated_belief"`
	PredictedPartnerBelief *int   `json:"predicted_partner_belief"`
}

// decisionPayload is the required wire shape for decisions.
type decisionPayload struct {
	Choice    string `json:"choice"`
	Strategy  string `json:"strategy"`
	Reasoning string `json:"reasoning"`
}

// extractJSON isolates the outermost JSON object in a model reply. Models
// occasionally wrap payloads in markdown fences or prose; the schema check
// afterwards stays strict.
func extractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object found")
	}
	return s[start : end+1], nil
}

func parseBelief(raw string) (*BeliefResult, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return nil, &MalformedResponseError{Kind: "belief", Raw: raw, Err: err}
	}
	var p beliefPayload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, &MalformedResponseError{Kind: "belief", Raw: raw, Err: err}
	}
	if p.Belief == nil {
		return nil, &MalformedResponseError{Kind: "belief", Raw: raw, Err: fmt.Errorf("missing key %q", "belief")}
	}
	if p.Message == "" {
		return nil, &MalformedResponseError{Kind: "belief", Raw: raw, Err: fmt.Errorf("missing key %q", "message")}
	}
	if *p.Belief < 0 || *p.Belief > 100 {
		return nil, &MalformedResponseError{Kind: "belief", Raw: raw, Err: fmt.Errorf("belief %d outside 0-100", *p.Belief)}
	}
	return &BeliefResult{Belief: *p.Belief, Reasoning: p.Reasoning, Message: p.Message}, nil
}

func parseReply(raw string, wantUpdate bool) (*ReplyResult, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return nil, &MalformedResponseError{Kind: "reply", Raw: raw, Err: err}
	}
	var p replyPayload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, &MalformedResponseError{Kind: "reply", Raw: raw, Err: err}
	}
	if p.Reply == "" {
		return nil, &MalformedResponseError{Kind: "reply", Raw: raw, Err: fmt.Errorf("missing key %q", "reply")}
	}
	result := &ReplyResult{Reply: p.Reply}
	if wantUpdate {
		if p.UpdatedBelief == nil {
			return nil, &MalformedResponseError{Kind: "reply", Raw: raw, Err: fmt.Errorf("missing key %q", "updated_belief")}
		}
		if p.PredictedPartnerBelief == nil {
			return nil, &MalformedResponseError{Kind: "reply", Raw: raw, Err: fmt.Errorf("missing key %q", "predicted_partner_belief")}
		}
		if *p.UpdatedBelief < 0 || *p.UpdatedBelief > 100 {
			return nil, &MalformedResponseError{Kind: "reply", Raw: raw, Err: fmt.Errorf("updated_belief %d outside 0-100", *p.UpdatedBelief)}
		}
		if *p.PredictedPartnerBelief < 0 || *p.PredictedPartnerBelief > 100 {
			return nil, &MalformedResponseError{Kind: "reply", Raw: raw, Err: fmt.Errorf("predicted_partner_belief %d outside 0-100", *p.PredictedPartnerBelief)}
		}
		result.UpdatedBelief = *p.UpdatedBelief
		result.PredictedPartnerBelief = *p.PredictedPartnerBelief
		result.HasBeliefUpdate = true
	}
	return result, nil
}

func parseDecision(raw string) (*DecisionResult, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return nil, &MalformedResponseError{Kind: "decision", Raw: raw, Err: err}
	}
	var p decisionPayload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, &MalformedResponseError{Kind: "decision", Raw: raw, Err: err}
	}
	if p.Choice == "" {
		return nil, &MalformedResponseError{Kind: "decision", Raw: raw, Err: fmt.Errorf("missing key %q", "choice")}
	}
	switch game.Strategy(p.Strategy) {
	case game.StrategyCollaborative, game.StrategyIndividual:
	default:
		return nil, &MalformedResponseError{Kind: "decision", Raw: raw, Err: fmt.Errorf("unknown strategy %q", p.Strategy)}
	}
	return &DecisionResult{
		Choice:    p.Choice,
		Strategy:  game.Strategy(p.Strategy),
		Reasoning: p.Reasoning,
	}, nil
}
