package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	database "github.com/voyago/tripweaver/app/db"
	"github.com/voyago/tripweaver/config"
	generativeAI "github.com/voyago/tripweaver/internal/api/generative_ai"
	"github.com/voyago/tripweaver/internal/api/knowledge"
)

const embedConcurrency = 4

// Ingests a directory of markdown travel guides into the pgvector knowledge
// index: chunk, embed, store. Re-running replaces each document's chunks.
func main() {
	dir := flag.String("dir", "knowledge_base", "directory of markdown documents to ingest")
	flag.Parse()

	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		log.Fatalf("Failed to generate database config: %v", err)
	}

	dbpool, err := pgxpool.New(ctx, dbConfig.ConnectionURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbpool.Close()

	if err := dbpool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Connected to database successfully")

	embeddingService, err := generativeAI.NewEmbeddingService(ctx, cfg.Gemini.EmbeddingModel, logger)
	if err != nil {
		log.Fatalf("Failed to create embedding service: %v", err)
	}

	repository := knowledge.NewPostgresRepository(dbpool, logger)
	chunker := knowledge.NewChunker(0, 0)

	entries, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatalf("Failed to read knowledge directory %q: %v", *dir, err)
	}

	var ingested, failed int
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		if err := ingestDocument(ctx, chunker, embeddingService, repository, *dir, entry.Name(), logger); err != nil {
			logger.Error("Failed to ingest document",
				slog.String("document", entry.Name()), slog.Any("error", err))
			failed++
			continue
		}
		ingested++
	}

	logger.Info("Knowledge ingestion completed",
		slog.Int("ingested", ingested), slog.Int("failed", failed))
	if failed > 0 {
		os.Exit(1)
	}
}

func ingestDocument(
	ctx context.Context,
	chunker *knowledge.Chunker,
	embedder *generativeAI.EmbeddingService,
	repository knowledge.Repository,
	dir, name string,
	logger *slog.Logger,
) error {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return err
	}

	chunks := chunker.Split(string(raw))
	if len(chunks) == 0 {
		logger.Warn("Document produced no chunks, skipping", slog.String("document", name))
		return nil
	}

	embeddings := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			embedding, err := embedder.GenerateEmbedding(gctx, chunk)
			if err != nil {
				return err
			}
			embeddings[i] = embedding
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := repository.SaveChunks(ctx, name, chunks, embeddings); err != nil {
		return err
	}

	logger.Info("Document ingested",
		slog.String("document", name), slog.Int("chunks", len(chunks)))
	return nil
}
