// Package rag glues retrieval, prompt assembly and generation into the
// suggestion pipeline.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nudge/internal/index"
	"nudge/internal/llm"
	"nudge/internal/models"
)

// ErrNoCredentials means no chat provider is configured, typically
// because the remote LLM credentials are missing.
var ErrNoCredentials = errors.New("llm credentials not configured")

// previewChars bounds the reference preview returned with each
// suggestion.
const previewChars = 200

// Service runs the retrieval-augmented suggestion pipeline. It holds
// no request state; the shared index lives behind the manager.
type Service struct {
	mgr  *index.Manager
	emb  llm.Embedder
	chat llm.ChatProvider
}

func NewService(mgr *index.Manager, emb llm.Embedder, chat llm.ChatProvider) *Service {
	return &Service{mgr: mgr, emb: emb, chat: chat}
}

// Retrieve embeds the query and returns the k most similar chunk
// records, most similar first. Fewer than k stored chunks is not an
// error; everything available is returned.
func (s *Service) Retrieve(ctx context.Context, query string, k int) ([]index.Result, error) {
	ix, err := s.mgr.Get()
	if err != nil {
		return nil, err
	}
	vec, err := s.emb.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return ix.Search(vec, k), nil
}

// GenerateSuggestion retrieves context for the query, assembles the
// mentor prompt and asks the remote LLM for a single nudge. Remote
// failures surface to the caller untouched; nothing is retried.
func (s *Service) GenerateSuggestion(ctx context.Context, query string, history []models.ChatMessage, scratchpad string, k int) (*models.Suggestion, error) {
	if s.chat == nil {
		return nil, ErrNoCredentials
	}
	retrieved, err := s.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}
	prompt := BuildPrompt(retrieved, history, scratchpad, query)
	out, err := s.chat.Complete(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}})
	if err != nil {
		return nil, fmt.Errorf("generate suggestion: %w", err)
	}
	text := strings.TrimSpace(out)
	refs := make([]models.Reference, 0, len(retrieved))
	for _, r := range retrieved {
		refs = append(refs, models.Reference{
			ChunkID: r.Chunk.ChunkID,
			Source:  r.Chunk.SourceFile,
			Preview: preview(r.Chunk.Text),
		})
	}
	return &models.Suggestion{Suggestion: text, Nudge: text, References: refs}, nil
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewChars {
		return text
	}
	return string(runes[:previewChars]) + "..."
}
