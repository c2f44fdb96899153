// Package embed provides the embedding implementations used to build
// and query the vector index.
package embed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

const batchConcurrency = 10

// OpenAI embeds text via an OpenAI-compatible /embeddings endpoint.
type OpenAI struct {
	api   *openai.Client
	model string
}

// NewOpenAIFromEnv builds an embedder from NUDGE_EMBED_BASE_URL,
// NUDGE_EMBED_API_KEY and NUDGE_EMBED_MODEL. Local OpenAI-compatible
// servers typically need no key, so a missing key is not an error
// here; the remote call fails instead if the endpoint requires one.
func NewOpenAIFromEnv() *OpenAI {
	key := os.Getenv("NUDGE_EMBED_API_KEY")
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	cfg := openai.DefaultConfig(key)
	if base := os.Getenv("NUDGE_EMBED_BASE_URL"); base != "" {
		cfg.BaseURL = base
	}
	model := os.Getenv("NUDGE_EMBED_MODEL")
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &OpenAI{api: openai.NewClientWithConfig(cfg), model: model}
}

func (e *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.New("cannot embed empty text")
	}
	resp, err := e.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embeddings: no data returned")
	}
	v := make([]float32, len(resp.Data[0].Embedding))
	for i, x := range resp.Data[0].Embedding {
		v[i] = float32(x)
	}
	l2normalize(v)
	return v, nil
}

// EmbedBatch embeds texts with bounded concurrency, preserving order.
func (e *OpenAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	sem := make(chan struct{}, batchConcurrency)
	errs := make(chan error, len(texts))
	for i := range texts {
		sem <- struct{}{}
		go func(idx int) {
			defer func() { <-sem }()
			v, err := e.Embed(ctx, texts[idx])
			if err != nil {
				errs <- fmt.Errorf("text %d: %w", idx, err)
				return
			}
			embeddings[idx] = v
			errs <- nil
		}(i)
	}
	for range texts {
		if err := <-errs; err != nil {
			return nil, err
		}
	}
	return embeddings, nil
}

func (e *OpenAI) ModelInfo() string { return "openai-" + e.model }

// l2normalize scales a vector to unit length so cosine similarity
// reduces to a dot product.
func l2normalize(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}
