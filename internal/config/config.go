package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all environment-driven settings. Provider clients are built
// from it once at startup and injected into the request-handling components.
type Config struct {
	ListenAddr string

	MongoURL      string
	MongoDatabase string

	ChromaURL        string
	ChromaCollection string

	LLMBaseURL     string
	LLMToken       string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64
	LLMTimeout     time.Duration

	EmbeddingBaseURL string
	EmbeddingModel   string

	RetrievalTopK    int
	RetrievalTimeout time.Duration

	// AnswerDisclaimer, when non-empty, is appended to every generated answer.
	AnswerDisclaimer string
	// MaxContextTokens caps retrieved context by token count. Zero disables it.
	MaxContextTokens int
}

// Load reads configuration from the environment, applying defaults for
// everything except the inference token.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:       envOr("LISTEN_ADDR", ":5000"),
		MongoURL:         os.Getenv("MONGO_URL"),
		MongoDatabase:    envOr("MONGO_DATABASE", "chatbot_db"),
		ChromaURL:        envOr("CHROMA_URL", "http://localhost:8000"),
		ChromaCollection: envOr("CHROMA_COLLECTION", "website_knowledge"),
		LLMBaseURL:       envOr("LLM_BASE_URL", "https://router.huggingface.co/v1"),
		LLMToken:         os.Getenv("HF_TOKEN"),
		LLMModel:         envOr("LLM_MODEL", "meta-llama/Meta-Llama-3-8B-Instruct"),
		AnswerDisclaimer: os.Getenv("ANSWER_DISCLAIMER"),
	}

	var err error
	if cfg.LLMMaxTokens, err = envInt("LLM_MAX_TOKENS", 250); err != nil {
		return nil, err
	}
	if cfg.LLMTemperature, err = envFloat("LLM_TEMPERATURE", 0.1); err != nil {
		return nil, err
	}
	if cfg.LLMTimeout, err = envSecs("LLM_TIMEOUT_SECS", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.RetrievalTopK, err = envInt("RETRIEVAL_TOP_K", 5); err != nil {
		return nil, err
	}
	if cfg.RetrievalTimeout, err = envSecs("RETRIEVAL_TIMEOUT_SECS", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxContextTokens, err = envInt("MAX_CONTEXT_TOKENS", 0); err != nil {
		return nil, err
	}

	cfg.EmbeddingBaseURL = envOr("EMBEDDING_BASE_URL", cfg.LLMBaseURL)
	cfg.EmbeddingModel = envOr("EMBEDDING_MODEL", "sentence-transformers/all-MiniLM-L6-v2")

	if cfg.LLMToken == "" {
		return nil, fmt.Errorf("HF_TOKEN is not set")
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func envSecs(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(n) * time.Second, nil
}
