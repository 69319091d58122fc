package chat

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"kbchat/internal/models"
)

// FallbackAnswer is the sentence the model is instructed to emit when the
// retrieved context does not contain the answer.
const FallbackAnswer = "I'm sorry, I don't have that information."

const systemPrompt = `You are a precise assistant for a company knowledge base.
Answer strictly and only based on the context provided. Do not add any
information that is not explicitly mentioned in the text, and refuse questions
unrelated to that context. Never include pricing information in your answers.
If the context provides conflicting information, only use the information from
the single most relevant chunk. If the answer is not present in the context,
reply exactly: "` + FallbackAnswer + `"`

// Composer assembles the per-turn prompt. It carries a tokenizer for prompt
// accounting and for the optional retrieved-context token budget.
type Composer struct {
	enc *tiktoken.Tiktoken
}

// NewComposer builds a composer. Tokenizer initialization can fail (the BPE
// tables may be unavailable offline); the composer then skips token
// accounting rather than failing turns.
func NewComposer() *Composer {
	enc, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
	if err != nil {
		enc = nil
	}
	return &Composer{enc: enc}
}

// SystemPrompt returns the fixed system instruction.
func (c *Composer) SystemPrompt() string { return systemPrompt }

// UserPrompt embeds the retrieved context, the formatted history and the new
// question into the user-turn payload.
func (c *Composer) UserPrompt(contextText string, history []models.Message, question string) string {
	return fmt.Sprintf("Context:\n%s\n\nChat History:\n%s\n\nQuestion:\n%s",
		contextText, FormatHistory(history), question)
}

// FormatHistory renders prior messages as "role: content" lines in
// chronological order.
func FormatHistory(history []models.Message) string {
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}
	return strings.Join(lines, "\n")
}

// TokenCount returns the number of tokens in s, or -1 when no tokenizer is
// available.
func (c *Composer) TokenCount(s string) int {
	if c.enc == nil {
		return -1
	}
	return len(c.enc.Encode(s, nil, nil))
}

// TruncateToTokens cuts s down to at most budget tokens. With no tokenizer or
// a non-positive budget, s is returned unchanged.
func (c *Composer) TruncateToTokens(s string, budget int) string {
	if c.enc == nil || budget <= 0 {
		return s
	}
	tokens := c.enc.Encode(s, nil, nil)
	if len(tokens) <= budget {
		return s
	}
	return c.enc.Decode(tokens[:budget])
}
