package generativeAI

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

const defaultEmbeddingModel = "text-embedding-004"

// EmbeddingService turns text into embedding vectors for similarity search.
type EmbeddingService struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

func NewEmbeddingService(ctx context.Context, model string, logger *slog.Logger) (*EmbeddingService, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "NewEmbeddingService")
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
		model = defaultEmbeddingModel
	}
	span.SetStatus(codes.Ok, "Embedding service created successfully")
	return &EmbeddingService{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// GenerateEmbedding embeds a single text.
func (e *EmbeddingService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "GenerateEmbedding", trace.WithAttributes(
		attribute.Int("text.length", len(text)),
	))
	defer span.End()

	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Embedding request failed")
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		err := fmt.Errorf("empty embedding response")
		span.RecordError(err)
		span.SetStatus(codes.Error, "Empty embedding")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Embedding generated")
	return resp.Embeddings[0].Values, nil
}

// GenerateQueryEmbedding embeds a retrieval query.
func (e *EmbeddingService) GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error) {
	return e.GenerateEmbedding(ctx, query)
}
