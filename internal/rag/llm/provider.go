package llm

import (
	"context"
	"fmt"
	"strings"
)

type Provider interface {
	Generate(ctx context.Context, question string, contextChunks []string, maxTokens int) (string, error)
}

// OCR reads text out of documents that carry no text layer.
type OCR interface {
	ExtractText(ctx context.Context, data []byte, mimeType string) (string, error)
}

// UserPrompt renders the retrieved context and the question into one user turn.
func UserPrompt(question string, contextChunks []string) string {
	contextText := strings.Join(contextChunks, "\n\n")
	if contextText == "" {
		contextText = "(no context available)"
	}
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, question)
}
