package embed

import "context"

// Simple is a deterministic, offline embedder based on character
// hashing. It exists so the pipeline (and its tests) can run without a
// remote embedding endpoint; retrieval quality is nominal only.
type Simple struct {
	dim int
}

func NewSimple(dimension int) *Simple {
	if dimension <= 0 {
		dimension = 256
	}
	return &Simple{dim: dimension}
}

func (e *Simple) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	for i, ch := range text {
		vec[(i+int(ch))%e.dim] += float32(ch) / 1000.0
	}
	l2normalize(vec)
	return vec, nil
}

func (e *Simple) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *Simple) ModelInfo() string { return "simple-hash-v1" }
