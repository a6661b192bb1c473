// Package llm defines the minimal chat-model contract the belief oracle
// runs on, with adapters for OpenAI, Amazon Bedrock and Google Gemini.
//
// The interface is intentionally small: the negotiation protocol only ever
// issues blocking single-shot completions (one system prompt, one user
// prompt), so there is no streaming surface. Provider-specific features
// remain reachable through Unwrap.
package llm

import (
	"context"
)

// Model is the minimal interface for a chat completion backend.
type Model interface {
	// Complete sends one system prompt and one user prompt and returns the
	// raw text of the model's reply. It blocks until the provider responds
	// or ctx is done.
	Complete(ctx context.Context, system, user string, opts ...CallOption) (string, error)

	// ModelID returns the provider model identifier (e.g. "gpt-5-nano").
	ModelID() string

	// Unwrap returns the underlying provider client for advanced use.
	// Code that relies on it gives up provider portability.
	Unwrap() interface{}
}

// CallOptions holds per-call tuning knobs. Providers ignore options they
// do not support.
type CallOptions struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64

	// Extra carries provider-specific options.
	Extra map[string]interface{}
}

// CallOption is a functional option for configuring a completion call.
type CallOption func(*CallOptions)

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) CallOption {
	return func(opts *CallOptions) {
		opts.Temperature = &temperature
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int) CallOption {
	return func(opts *CallOptions) {
		opts.MaxTokens = &maxTokens
	}
}

// WithTopP sets the nucleus sampling parameter.
func WithTopP(topP float64) CallOption {
	return func(opts *CallOptions) {
		opts.TopP = &topP
	}
}

// WithExtra adds a provider-specific option.
func WithExtra(key string, value interface{}) CallOption {
	return func(opts *CallOptions) {
		if opts.Extra == nil {
			opts.Extra = make(map[string]interface{})
		}
		opts.Extra[key] = value
	}
}

// BuildCallOptions folds functional options into a CallOptions value.
func BuildCallOptions(opts ...CallOption) *CallOptions {
	options := &CallOptions{
		Extra: make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
