package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/voyago/tripweaver/internal/types"
)

var _ Repository = (*PostgresRepository)(nil)

// Repository is the persistence contract for the embedded knowledge corpus.
type Repository interface {
	SaveChunks(ctx context.Context, documentName string, contents []string, embeddings [][]float32) error
	SearchSimilarChunks(ctx context.Context, queryEmbedding []float32, limit int, scoreThreshold float64) ([]types.KnowledgePassage, error)
	DeleteDocument(ctx context.Context, documentName string) error
}

type PostgresRepository struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresRepository(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{
		logger: logger,
		pgpool: pgpool,
	}
}

// SaveChunks replaces a document's chunks with a freshly embedded batch.
func (r *PostgresRepository) SaveChunks(ctx context.Context, documentName string, contents []string, embeddings [][]float32) error {
	ctx, span := otel.Tracer("KnowledgeRepository").Start(ctx, "SaveChunks", trace.WithAttributes(
		attribute.String("document.name", documentName),
		attribute.Int("chunk.count", len(contents)),
	))
	defer span.End()

	if len(contents) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(contents), len(embeddings))
	}

	if _, err := r.pgpool.Exec(ctx,
		`DELETE FROM knowledge_chunks WHERE document_name = $1`, documentName,
	); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete existing chunks: %w", err)
	}

	query := `
        INSERT INTO knowledge_chunks (document_name, chunk_index, content, embedding)
        VALUES ($1, $2, $3, $4::vector)
    `
	for i, content := range contents {
		if _, err := r.pgpool.Exec(ctx, query, documentName, i, content, vectorLiteral(embeddings[i])); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Chunk insert failed")
			return fmt.Errorf("failed to insert chunk %d of %s: %w", i, documentName, err)
		}
	}

	span.SetStatus(codes.Ok, "Chunks saved")
	return nil
}

// SearchSimilarChunks returns passages ranked by cosine similarity, keeping
// only those at or above the score threshold.
func (r *PostgresRepository) SearchSimilarChunks(ctx context.Context, queryEmbedding []float32, limit int, scoreThreshold float64) ([]types.KnowledgePassage, error) {
	ctx, span := otel.Tracer("KnowledgeRepository").Start(ctx, "SearchSimilarChunks", trace.WithAttributes(
		attribute.Int("embedding.dimension", len(queryEmbedding)),
		attribute.Int("limit", limit),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "SearchSimilarChunks"))

	query := `
        SELECT
            document_name,
            content,
            1 - (embedding <=> $1::vector) AS similarity_score
        FROM knowledge_chunks
        WHERE embedding IS NOT NULL
        ORDER BY embedding <=> $1::vector
        LIMIT $2
    `

	rows, err := r.pgpool.Query(ctx, query, vectorLiteral(queryEmbedding), limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query similar chunks", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("failed to search similar chunks: %w", err)
	}
	defer rows.Close()

	var passages []types.KnowledgePassage
	for rows.Next() {
		var p types.KnowledgePassage
		if err := rows.Scan(&p.DocumentName, &p.Content, &p.Score); err != nil {
			l.ErrorContext(ctx, "Failed to scan chunk row", slog.Any("error", err))
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		if p.Score < scoreThreshold {
			continue
		}
		passages = append(passages, p)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating chunk rows: %w", err)
	}

	l.DebugContext(ctx, "Similar chunks found", slog.Int("count", len(passages)))
	span.SetStatus(codes.Ok, "Similar chunks found")
	return passages, nil
}

func (r *PostgresRepository) DeleteDocument(ctx context.Context, documentName string) error {
	ctx, span := otel.Tracer("KnowledgeRepository").Start(ctx, "DeleteDocument")
	defer span.End()

	if _, err := r.pgpool.Exec(ctx,
		`DELETE FROM knowledge_chunks WHERE document_name = $1`, documentName,
	); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete document %s: %w", documentName, err)
	}
	span.SetStatus(codes.Ok, "Document deleted")
	return nil
}

// vectorLiteral renders an embedding in pgvector's input format.
func vectorLiteral(embedding []float32) string {
	strs := make([]string, len(embedding))
	for i, v := range embedding {
		strs[i] = fmt.Sprintf("%f", v)
	}
	return fmt.Sprintf("[%s]", strings.Join(strs, ","))
}
