package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"kbchat/internal/models"
)

// historyLimit caps how many prior messages (3 turns) are carried into the
// prompt. Fixed to bound prompt size, not configurable per request.
const historyLimit = 6

const titleMaxRunes = 30

// ErrInvalidRequest is returned before any provider call when a required
// field is empty.
var ErrInvalidRequest = errors.New("message and userId are required")

// Embedder turns free text into a fixed-length vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Retriever returns the texts of the top-K stored documents nearest to a
// query vector.
type Retriever interface {
	Query(ctx context.Context, vector []float32, k int) ([]string, error)
}

// Completer generates text from a system+user message payload.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ConversationStore persists conversations keyed by user.
type ConversationStore interface {
	Find(ctx context.Context, id models.ConversationID, userID string) (*models.Conversation, error)
	Create(ctx context.Context, conv *models.Conversation) (models.ConversationID, error)
	AppendTurn(ctx context.Context, id models.ConversationID, userMsg, assistantMsg models.Message, now time.Time) error
}

// Config tunes the orchestrator.
type Config struct {
	// TopK is how many documents retrieval asks for.
	TopK int
	// Disclaimer, when non-empty, is appended to every answer.
	Disclaimer string
	// LLMTimeout bounds the inference call.
	LLMTimeout time.Duration
	// RetrievalTimeout bounds the embed and vector-store calls.
	RetrievalTimeout time.Duration
	// MaxContextTokens caps the retrieved context. Zero disables the cap.
	MaxContextTokens int
}

// Service orchestrates one chat turn: resolve conversation identity, load
// bounded history, retrieve context, compose the prompt, invoke inference,
// persist the turn.
type Service struct {
	store     ConversationStore
	embedder  Embedder
	retriever Retriever
	completer Completer
	composer  *Composer
	cfg       Config
	logger    *zap.Logger
}

// New wires the orchestrator. All provider handles are long-lived and shared
// across requests.
func New(store ConversationStore, embedder Embedder, retriever Retriever, completer Completer, cfg Config, logger *zap.Logger) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &Service{
		store:     store,
		embedder:  embedder,
		retriever: retriever,
		completer: completer,
		composer:  NewComposer(),
		cfg:       cfg,
		logger:    logger,
	}
}

// TurnInput is one incoming chat turn. ConversationID may be empty or
// malformed; both mean "start a new conversation".
type TurnInput struct {
	Message        string
	UserID         string
	ConversationID string
}

// TurnResult carries the answer and the conversation the turn landed in.
type TurnResult struct {
	Answer         string
	ConversationID string
}

// HandleTurn runs the full pipeline for one turn. Provider calls are strictly
// sequential; each is attempted exactly once.
func (s *Service) HandleTurn(ctx context.Context, in TurnInput) (TurnResult, error) {
	if in.Message == "" || in.UserID == "" {
		return TurnResult{}, ErrInvalidRequest
	}
	now := time.Now().UTC()

	// Resolve conversation identity. A malformed id or a record that doesn't
	// resolve for this user is not an error: the turn starts a new
	// conversation.
	var history []models.Message
	existing := models.ParseConversationID(in.ConversationID)
	if existing.Valid() {
		conv, err := s.store.Find(ctx, existing, in.UserID)
		if err != nil {
			return TurnResult{}, fmt.Errorf("conversation lookup failed: %w", err)
		}
		if conv == nil {
			existing = models.ConversationID{}
		} else {
			history = lastN(conv.Messages, historyLimit)
		}
	}

	contextText, err := s.retrieveContext(ctx, in.Message)
	if err != nil {
		return TurnResult{}, err
	}

	userPrompt := s.composer.UserPrompt(contextText, history, in.Message)
	s.logger.Debug("composed prompt",
		zap.Int("historyMessages", len(history)),
		zap.Int("promptTokens", s.composer.TokenCount(userPrompt)))

	lctx, cancel := s.bounded(ctx, s.cfg.LLMTimeout)
	answer, err := s.completer.Complete(lctx, s.composer.SystemPrompt(), userPrompt)
	cancel()
	if err != nil {
		return TurnResult{}, fmt.Errorf("inference failed: %w", err)
	}
	if s.cfg.Disclaimer != "" {
		answer = answer + "\n\n" + s.cfg.Disclaimer
	}

	userMsg := models.Message{Role: models.RoleUser, Content: in.Message, Timestamp: now}
	assistantMsg := models.Message{Role: models.RoleAssistant, Content: answer, Timestamp: now}

	resolved := existing
	if existing.Valid() {
		if err := s.store.AppendTurn(ctx, existing, userMsg, assistantMsg, now); err != nil {
			s.logger.Error("turn generated but not persisted",
				zap.String("conversationId", existing.Hex()), zap.Error(err))
			return TurnResult{}, fmt.Errorf("failed to persist turn: %w", err)
		}
	} else {
		id, err := s.store.Create(ctx, &models.Conversation{
			UserID:    in.UserID,
			Title:     deriveTitle(in.Message),
			Messages:  []models.Message{userMsg, assistantMsg},
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			s.logger.Error("turn generated but not persisted", zap.Error(err))
			return TurnResult{}, fmt.Errorf("failed to create conversation: %w", err)
		}
		resolved = id
	}

	return TurnResult{Answer: answer, ConversationID: resolved.Hex()}, nil
}

// retrieveContext embeds the question, queries the vector store and joins the
// returned document texts. No matches yields an empty context, not an error.
func (s *Service) retrieveContext(ctx context.Context, question string) (string, error) {
	rctx, cancel := s.bounded(ctx, s.cfg.RetrievalTimeout)
	defer cancel()

	vector, err := s.embedder.EmbedQuery(rctx, question)
	if err != nil {
		return "", fmt.Errorf("embedding failed: %w", err)
	}
	docs, err := s.retriever.Query(rctx, vector, s.cfg.TopK)
	if err != nil {
		return "", fmt.Errorf("retrieval failed: %w", err)
	}
	contextText := strings.Join(docs, "\n\n")
	if s.cfg.MaxContextTokens > 0 {
		contextText = s.composer.TruncateToTokens(contextText, s.cfg.MaxContextTokens)
	}
	return contextText, nil
}

func (s *Service) bounded(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func lastN(msgs []models.Message, n int) []models.Message {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}

// deriveTitle takes the first user message, truncated to 30 characters with
// an ellipsis when longer. Counted in runes, not bytes.
func deriveTitle(message string) string {
	r := []rune(message)
	if len(r) <= titleMaxRunes {
		return message
	}
	return string(r[:titleMaxRunes]) + "..."
}
