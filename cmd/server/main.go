package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"kbchat/internal/api"
	"kbchat/internal/chat"
	"kbchat/internal/config"
	"kbchat/internal/llm"
	"kbchat/internal/store"
	"kbchat/internal/vectorstore"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	if cfg.MongoURL == "" {
		logger.Fatal("MONGO_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conversations, err := store.New(ctx, cfg.MongoURL, cfg.MongoDatabase)
	if err != nil {
		logger.Fatal("failed to initialize conversation store",
			zap.Error(err),
			zap.String("database", cfg.MongoDatabase))
	}
	defer conversations.Close(context.Background())
	logger.Info("connected to MongoDB", zap.String("database", cfg.MongoDatabase))

	completer, err := llm.New(cfg.LLMBaseURL, cfg.LLMToken, cfg.LLMModel, cfg.LLMMaxTokens, cfg.LLMTemperature)
	if err != nil {
		logger.Fatal("failed to initialize completion client", zap.Error(err))
	}

	embedder, err := llm.NewEmbedder(cfg.EmbeddingBaseURL, cfg.LLMToken, cfg.EmbeddingModel)
	if err != nil {
		logger.Fatal("failed to initialize embedder", zap.Error(err))
	}

	knowledge := vectorstore.New(vectorstore.Config{
		URL:        cfg.ChromaURL,
		Collection: cfg.ChromaCollection,
		Timeout:    cfg.RetrievalTimeout,
	})
	// Chat turns fail individually if the collection stays unreachable, so a
	// missing vector store at boot is a warning, not a fatal.
	if err := knowledge.Connect(ctx); err != nil {
		logger.Warn("failed to connect to Chroma, retrieval will fail until it is reachable",
			zap.String("url", cfg.ChromaURL),
			zap.Error(err))
	} else {
		logger.Info("connected to Chroma", zap.String("collection", cfg.ChromaCollection))
	}

	chatSvc := chat.New(conversations, embedder, knowledge, completer, chat.Config{
		TopK:             cfg.RetrievalTopK,
		Disclaimer:       cfg.AnswerDisclaimer,
		LLMTimeout:       cfg.LLMTimeout,
		RetrievalTimeout: cfg.RetrievalTimeout,
		MaxContextTokens: cfg.MaxContextTokens,
	}, logger)

	handler := api.NewHandler(chatSvc, conversations, logger)
	router := api.SetupRouter(handler, logger, "web/templates/*.html")

	logger.Info("starting server", zap.String("addr", cfg.ListenAddr))
	if err := router.Run(cfg.ListenAddr); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
