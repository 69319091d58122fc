package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Service calls a hosted chat-completion endpoint. Any OpenAI-compatible
// server works; the base URL selects the deployment (Hugging Face router,
// local Ollama, or api.openai.com itself).
type Service struct {
	llm         *openai.LLM
	maxTokens   int
	temperature float64
}

// New builds a completion client. Max output length and temperature are fixed
// per deployment, not per request.
func New(baseURL, token, model string, maxTokens int, temperature float64) (*Service, error) {
	client, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize completion client: %w", err)
	}
	return &Service{llm: client, maxTokens: maxTokens, temperature: temperature}, nil
}

// Complete sends the two-message system+user payload and returns the
// generated text.
func (s *Service) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := s.llm.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, system),
			llms.TextParts(llms.ChatMessageTypeHuman, user),
		},
		llms.WithMaxTokens(s.maxTokens),
		llms.WithTemperature(s.temperature),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return resp.Choices[0].Content, nil
}
