// Command loader ingests a knowledge-base CSV into the Chroma collection the
// chat server retrieves from. Expected columns: chunk_id, chunk_text,
// main_topic, chunk_title, src_url.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"kbchat/internal/config"
	"kbchat/internal/llm"
	"kbchat/internal/vectorstore"
)

const batchSize = 100

type chunk struct {
	id       string
	text     string
	metadata map[string]any
}

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	file := flag.String("file", "knowledge_base.csv", "path to the knowledge CSV")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	chunks, err := readChunks(*file)
	if err != nil {
		logger.Fatal("failed to read knowledge file", zap.String("file", *file), zap.Error(err))
	}
	logger.Info("loaded chunks", zap.String("file", *file), zap.Int("count", len(chunks)))

	embedder, err := llm.NewEmbedder(cfg.EmbeddingBaseURL, cfg.LLMToken, cfg.EmbeddingModel)
	if err != nil {
		logger.Fatal("failed to initialize embedder", zap.Error(err))
	}

	knowledge := vectorstore.New(vectorstore.Config{
		URL:        cfg.ChromaURL,
		Collection: cfg.ChromaCollection,
		Timeout:    cfg.RetrievalTimeout,
	})

	ctx := context.Background()
	if err := knowledge.EnsureCollection(ctx); err != nil {
		logger.Fatal("failed to prepare Chroma collection", zap.Error(err))
	}

	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		ids := make([]string, len(batch))
		texts := make([]string, len(batch))
		metadatas := make([]map[string]any, len(batch))
		for i, c := range batch {
			ids[i] = c.id
			texts[i] = c.text
			metadatas[i] = c.metadata
		}

		vectors, err := embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			logger.Fatal("failed to embed batch", zap.Int("offset", start), zap.Error(err))
		}
		if err := knowledge.Add(ctx, ids, vectors, texts, metadatas); err != nil {
			logger.Fatal("failed to add batch", zap.Int("offset", start), zap.Error(err))
		}
		logger.Info("batch stored", zap.Int("from", start), zap.Int("to", end))
	}

	logger.Info("knowledge base loaded",
		zap.Int("chunks", len(chunks)),
		zap.String("collection", cfg.ChromaCollection))
}

func readChunks(path string) ([]chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"chunk_id", "chunk_text"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	var chunks []chunk
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		c := chunk{
			id:       record[col["chunk_id"]],
			text:     record[col["chunk_text"]],
			metadata: map[string]any{},
		}
		for _, meta := range []string{"main_topic", "chunk_title", "src_url"} {
			if i, ok := col[meta]; ok {
				c.metadata[meta] = record[i]
			}
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}
