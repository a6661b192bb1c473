package oracle

import (
	"errors"
	"testing"

	"github.com/coordlab/staghunt/game"
)

func TestParseBelief(t *testing.T) {
	result, err := parseBelief(`{"belief": 70, "reasoning": "upside dominates", "message": "let's work together"}`)
	if err != nil {
		t.Fatalf("parseBelief: %v", err)
	}
	if result.Belief != 70 || result.Message != "let's work together" {
		t.Errorf("got %+v", result)
	}
}

func TestParseBeliefFencedPayload(t *testing.T) {
	raw := "Sure, here is my answer:\n```json\n{\"belief\": 55, \"reasoning\": \"even odds\", \"message\": \"open to it\"}\n```"
	result, err := parseBelief(raw)
	if err != nil {
		t.Fatalf("parseBelief with fences: %v", err)
	}
	if result.Belief != 55 {
		t.Errorf("belief = %d, want 55", result.Belief)
	}
}

func TestParseBeliefMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no json", "I think we should collaborate."},
		{"missing belief", `{"reasoning": "x", "message": "y"}`},
		{"missing message", `{"belief": 50, "reasoning": "x"}`},
		{"belief too high", `{"belief": 150, "reasoning": "x", "message": "y"}`},
		{"belief negative", `{"belief": -5, "reasoning": "x", "message": "y"}`},
		{"belief not a number", `{"belief": "high", "reasoning": "x", "message": "y"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseBelief(tt.raw)
			var malformed *MalformedResponseError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected MalformedResponseError, got %v", err)
			}
			if malformed.Kind != "belief" {
				t.Errorf("kind = %q, want belief", malformed.Kind)
			}
			if malformed.Raw != tt.raw {
				t.Error("raw payload not retained")
			}
		})
	}
}

func TestParseReply(t *testing.T) {
	plain, err := parseReply(`{"reply": "still thinking it over"}`, false)
	if err != nil {
		t.Fatalf("parseReply without update: %v", err)
	}
	if plain.HasBeliefUpdate {
		t.Error("update reported where none was requested")
	}

	full, err := parseReply(`{"reply": "leaning in", "updated_belief": 80, "predicted_partner_belief": 60}`, true)
	if err != nil {
		t.Fatalf("parseReply with update: %v", err)
	}
	if !full.HasBeliefUpdate || full.UpdatedBelief != 80 || full.PredictedPartnerBelief != 60 {
		t.Errorf("got %+v", full)
	}
}

func TestParseReplyMissingUpdate(t *testing.T) {
	// The same payload is fine when no update was requested but malformed
	// when one was.
	raw := `{"reply": "leaning in"}`
	if _, err := parseReply(raw, false); err != nil {
		t.Fatalf("payload without update rejected in plain mode: %v", err)
	}
	_, err := parseReply(raw, true)
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
}

func TestParseDecision(t *testing.T) {
	result, err := parseDecision(`{"choice": "B", "strategy": "collaborative", "reasoning": "belief above threshold"}`)
	if err != nil {
		t.Fatalf("parseDecision: %v", err)
	}
	if result.Choice != "B" || result.Strategy != game.StrategyCollaborative {
		t.Errorf("got %+v", result)
	}
}

func TestParseDecisionMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing choice", `{"strategy": "individual", "reasoning": "x"}`},
		{"unknown strategy", `{"choice": "Y", "strategy": "cautious", "reasoning": "x"}`},
		{"not json", "option Y, playing safe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var malformed *MalformedResponseError
			if _, err := parseDecision(tt.raw); !errors.As(err, &malformed) {
				t.Fatalf("expected MalformedResponseError, got %v", err)
			}
		})
	}
}
