package generativeAI

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

// AIClient wraps the Gemini client for single-shot content generation.
type AIClient struct {
	client *genai.Client
	model  string
}

func NewAIClient(ctx context.Context, model string) (*AIClient, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "NewAIClient")
	defer span.End()

	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		err := fmt.Errorf("GOOGLE_GEMINI_API_KEY environment variable is not set")
		span.RecordError(err)
		span.SetStatus(codes.Error, "API key not set")
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create Gemini client")
		return nil, err
	}

	if model == "" {
		model = defaultModel
	}
	span.SetStatus(codes.Ok, "AI client created successfully")
	return &AIClient{
		client: client,
		model:  model,
	}, nil
}

// GenerateContent runs a single completion with a system instruction and
// returns the generated text.
func (ai *AIClient) GenerateContent(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "GenerateContent")
	defer span.End()

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.7),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
	}

	result, err := ai.client.Models.GenerateContent(ctx, ai.model, genai.Text(userPrompt), config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Generation failed")
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	txt := result.Text()
	if txt == "" {
		err := fmt.Errorf("no valid content from AI")
		span.RecordError(err)
		span.SetStatus(codes.Error, "Empty generation")
		return "", err
	}

	span.SetStatus(codes.Ok, "Content generated")
	return txt, nil
}
