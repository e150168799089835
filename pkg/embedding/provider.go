package embedding

import "context"

// Provider turns text into a dense vector. Implementations return unit-length
// vectors so cosine distance in pgvector behaves.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
