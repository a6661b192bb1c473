package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiModel adapts Google's Gemini models to the Model interface.
type GeminiModel struct {
	client *genai.Client
	model  string
}

// NewGeminiModel creates a Gemini adapter. An empty apiKey falls back to
// GEMINI_API_KEY, then GOOGLE_API_KEY; an empty model defaults to
// gemini-2.0-flash-exp.
func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.New("gemini api key required: provide apiKey or set GEMINI_API_KEY or GOOGLE_API_KEY")
		}
	}
	if model == "" {
		model = "gemini-2.0-flash-exp"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiModel{client: client, model: model}, nil
}

// ModelID returns the model identifier.
func (g *GeminiModel) ModelID() string {
	return g.model
}

// Complete issues a single generation with the system prompt installed as
// a system instruction and the user prompt as the sole content part.
func (g *GeminiModel) Complete(ctx context.Context, system, user string, opts ...CallOption) (string, error) {
	options := BuildCallOptions(opts...)

	model := g.client.GenerativeModel(g.model)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}
	if options.Temperature != nil {
		temp := float32(*options.Temperature)
		model.Temperature = &temp
	}
	if options.MaxTokens != nil {
		maxTokens := int32(*options.MaxTokens)
		model.MaxOutputTokens = &maxTokens
	}
	if options.TopP != nil {
		topP := float32(*options.TopP)
		model.TopP = &topP
	}
	if topK, ok := options.Extra["top_k"].(int); ok {
		topKInt := int32(topK)
		model.TopK = &topKInt
	}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", fmt.Errorf("gemini api error: %w", err)
	}
	return extractGeminiText(resp), nil
}

// extractGeminiText concatenates the text parts of all candidates.
func extractGeminiText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return sb.String()
}

// Unwrap returns the underlying *genai.Client.
func (g *GeminiModel) Unwrap() interface{} {
	return g.client
}
