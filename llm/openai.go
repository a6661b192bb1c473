package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sashabaranov/go-openai"
)

// OpenAIModel adapts OpenAI chat models to the Model interface. This is
// the backend the negotiation experiments were originally run against.
//
// Example:
//
//	model := NewOpenAIModel("", "gpt-5-nano")
//	text, err := model.Complete(ctx, contextPrompt, beliefPrompt)
type OpenAIModel struct {
	client *openai.Client
	model  string
}

// NewOpenAIModel creates an OpenAI adapter. An empty apiKey falls back to
// the OPENAI_API_KEY environment variable; an empty model defaults to
// gpt-4-turbo.
func NewOpenAIModel(apiKey, model string) *OpenAIModel {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if model == "" {
		model = "gpt-4-turbo"
	}
	return &OpenAIModel{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// ModelID returns the model identifier.
func (o *OpenAIModel) ModelID() string {
	return o.model
}

// Complete issues a single chat completion with a system and user message.
func (o *OpenAIModel) Complete(ctx context.Context, system, user string, opts ...CallOption) (string, error) {
	options := BuildCallOptions(opts...)

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	if options.Temperature != nil {
		req.Temperature = float32(*options.Temperature)
	}
	if options.MaxTokens != nil {
		req.MaxTokens = *options.MaxTokens
	}
	if options.TopP != nil {
		req.TopP = float32(*options.TopP)
	}
	if fp, ok := options.Extra["frequency_penalty"].(float64); ok {
		req.FrequencyPenalty = float32(fp)
	}
	if pp, ok := options.Extra["presence_penalty"].(float64); ok {
		req.PresencePenalty = float32(pp)
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Unwrap returns the underlying *openai.Client.
func (o *OpenAIModel) Unwrap() interface{} {
	return o.client
}
