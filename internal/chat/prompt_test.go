package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kbchat/internal/models"
)

func TestFormatHistory(t *testing.T) {
	now := time.Now()
	history := []models.Message{
		{Role: models.RoleUser, Content: "What products do you sell?", Timestamp: now},
		{Role: models.RoleAssistant, Content: "We sell socks.", Timestamp: now},
		{Role: models.RoleUser, Content: "What colors?", Timestamp: now},
	}

	got := FormatHistory(history)
	want := "user: What products do you sell?\nassistant: We sell socks.\nuser: What colors?"
	assert.Equal(t, want, got)
}

func TestFormatHistoryEmpty(t *testing.T) {
	assert.Equal(t, "", FormatHistory(nil))
}

func TestUserPromptLayout(t *testing.T) {
	c := &Composer{}
	history := []models.Message{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, Content: "hello"},
	}

	got := c.UserPrompt("chunk one\n\nchunk two", history, "What colors?")
	want := "Context:\nchunk one\n\nchunk two\n\nChat History:\nuser: hi\nassistant: hello\n\nQuestion:\nWhat colors?"
	assert.Equal(t, want, got)
}

func TestSystemPromptMentionsFallback(t *testing.T) {
	c := &Composer{}
	assert.Contains(t, c.SystemPrompt(), FallbackAnswer)
	assert.Contains(t, c.SystemPrompt(), "pricing")
}

func TestTokenCountWithoutTokenizer(t *testing.T) {
	c := &Composer{}
	assert.Equal(t, -1, c.TokenCount("anything"))
}

func TestTruncateWithoutTokenizerIsIdentity(t *testing.T) {
	c := &Composer{}
	assert.Equal(t, "some long context", c.TruncateToTokens("some long context", 1))
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{
			name:    "short message kept as-is",
			message: "What products do you sell?",
			want:    "What products do you sell?",
		},
		{
			name:    "exactly thirty characters kept as-is",
			message: "123456789012345678901234567890",
			want:    "123456789012345678901234567890",
		},
		{
			name:    "long message truncated with ellipsis",
			message: "1234567890123456789012345678901",
			want:    "123456789012345678901234567890...",
		},
		{
			name:    "multibyte runes counted as single characters",
			message: "ありがとうございますありがとうございますありがとうございます",
			want:    "ありがとうございますありがとうございますありがとうございます",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deriveTitle(tt.message))
		})
	}
}
