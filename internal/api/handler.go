package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kbchat/internal/chat"
	"kbchat/internal/models"
)

// serverErrorMessage is the only detail callers see for downstream failures;
// the cause is logged server-side.
const serverErrorMessage = "Server error occurred"

// TurnHandler runs one chat turn.
type TurnHandler interface {
	HandleTurn(ctx context.Context, in chat.TurnInput) (chat.TurnResult, error)
}

// ConversationReader lists and bulk-deletes a user's conversations.
type ConversationReader interface {
	ListByUser(ctx context.Context, userID string) ([]models.Conversation, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// Handler exposes the chat API over HTTP.
type Handler struct {
	chat   TurnHandler
	store  ConversationReader
	logger *zap.Logger
}

// NewHandler wires the HTTP layer. Dependencies are long-lived and shared.
func NewHandler(chatSvc TurnHandler, store ConversationReader, logger *zap.Logger) *Handler {
	return &Handler{chat: chatSvc, store: store, logger: logger}
}

type chatRequest struct {
	Message        string `json:"message"`
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
}

type chatResponse struct {
	Answer         string `json:"answer"`
	ConversationID string `json:"conversationId"`
}

type conversationSummary struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Messages  []models.Message `json:"messages"`
	CreatedAt time.Time        `json:"createdAt"`
}

// HandleChat serves POST /api/chat.
func (h *Handler) HandleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The 'message' and 'userId' parameters are required."})
		return
	}
	if req.Message == "" || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The 'message' and 'userId' parameters are required."})
		return
	}

	res, err := h.chat.HandleTurn(c.Request.Context(), chat.TurnInput{
		Message:        req.Message,
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		if errors.Is(err, chat.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("chat turn failed", zap.String("userId", req.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": serverErrorMessage})
		return
	}

	c.JSON(http.StatusOK, chatResponse{Answer: res.Answer, ConversationID: res.ConversationID})
}

// GetConversations serves GET /api/conversations?userId=.
func (h *Handler) GetConversations(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	convs, err := h.store.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list conversations", zap.String("userId", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve conversations"})
		return
	}

	out := make([]conversationSummary, 0, len(convs))
	for _, conv := range convs {
		out = append(out, conversationSummary{
			ID:        conv.ID.Hex(),
			Title:     conv.Title,
			Messages:  conv.Messages,
			CreatedAt: conv.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

// ClearConversations serves DELETE /api/conversations.
func (h *Handler) ClearConversations(c *gin.Context) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	deleted, err := h.store.DeleteByUser(c.Request.Context(), req.UserID)
	if err != nil {
		h.logger.Error("failed to delete conversations", zap.String("userId", req.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete history"})
		return
	}

	h.logger.Info("conversation history cleared",
		zap.String("userId", req.UserID), zap.Int64("deleted", deleted))
	c.JSON(http.StatusOK, gin.H{
		"message":       "History successfully deleted",
		"deleted_count": deleted,
	})
}

// Home serves the landing page.
func (h *Handler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", nil)
}

// ChatPage serves the main chat page.
func (h *Handler) ChatPage(c *gin.Context) {
	c.HTML(http.StatusOK, "chat.html", nil)
}
