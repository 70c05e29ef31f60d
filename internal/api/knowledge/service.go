package knowledge

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ Service = (*ServiceImpl)(nil)

// Service retrieves grounding passages for a query. Constructed once at
// startup and shared read-only across requests.
type Service interface {
	// Retrieve returns passages above the score threshold in rank order,
	// plus the deduplicated source document names. An empty result is not
	// an error.
	Retrieve(ctx context.Context, query string, k int, scoreThreshold float64) ([]string, []string, error)
}

// Embedder is the slice of the embedding service the retriever needs.
type Embedder interface {
	GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error)
}

type ServiceImpl struct {
	logger     *slog.Logger
	repository Repository
	embedder   Embedder
}

func NewServiceImpl(repository Repository, embedder Embedder, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:     logger,
		repository: repository,
		embedder:   embedder,
	}
}

func (s *ServiceImpl) Retrieve(ctx context.Context, query string, k int, scoreThreshold float64) ([]string, []string, error) {
	ctx, span := otel.Tracer("KnowledgeService").Start(ctx, "Retrieve", trace.WithAttributes(
		attribute.Int("k", k),
		attribute.Float64("score_threshold", scoreThreshold),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Retrieve"))

	queryEmbedding, err := s.embedder.GenerateQueryEmbedding(ctx, query)
	if err != nil {
		l.ErrorContext(ctx, "Failed to embed retrieval query", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Query embedding failed")
		return nil, nil, fmt.Errorf("failed to embed query: %w", err)
	}

	passages, err := s.repository.SearchSimilarChunks(ctx, queryEmbedding, k, scoreThreshold)
	if err != nil {
		l.ErrorContext(ctx, "Similarity search failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Similarity search failed")
		return nil, nil, fmt.Errorf("failed to search knowledge base: %w", err)
	}

	contents := make([]string, 0, len(passages))
	seen := make(map[string]struct{})
	var sources []string
	for _, p := range passages {
		contents = append(contents, p.Content)
		if _, ok := seen[p.DocumentName]; !ok {
			seen[p.DocumentName] = struct{}{}
			sources = append(sources, p.DocumentName)
		}
	}

	l.DebugContext(ctx, "Knowledge retrieved",
		slog.Int("passages", len(contents)),
		slog.Int("sources", len(sources)),
	)
	span.SetStatus(codes.Ok, "Knowledge retrieved")
	return contents, sources, nil
}
