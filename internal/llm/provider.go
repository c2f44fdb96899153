package llm

import (
	"context"

	"nudge/internal/models"
)

// ChatProvider produces a single completion for a conversation. The
// pipeline uses it for exactly one user turn per request; no streaming.
type ChatProvider interface {
	Complete(ctx context.Context, messages []models.ChatMessage) (string, error)
}

// Embedder turns text into fixed-length vectors. Index build and query
// embedding must use the same implementation; that contract is the
// caller's responsibility and is not validated here.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ModelInfo() string
}
