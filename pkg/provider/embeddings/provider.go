// Package embeddings defines the Provider interface for vector embedding
// backends.
//
// The corpus index uses embeddings to add a semantic component to workout
// similarity search. Embeddings are strictly optional: the index degrades to
// lexical-only similarity when no provider is configured or a provider call
// exceeds its deadline.
//
// Implementations must be safe for concurrent use.
package embeddings

import (
	"context"
	"math"
)

// Provider is the abstraction over any text-embedding backend.
//
// All vectors returned by one Provider instance share the dimensionality
// reported by Dimensions. Vectors from different providers must never be
// mixed in the same similarity computation.
type Provider interface {
	// Embed computes the embedding vector for a single text string. Returns
	// a float32 slice of length Dimensions(), or an error if the request
	// fails or ctx is cancelled.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch computes vectors for a slice of texts in one provider
	// call. The returned slice is ordered like texts. Partial results are
	// not returned; on error the entire slice is nil.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed vector length produced by this provider.
	Dimensions() int

	// ModelID returns the provider-specific model identifier, for logging
	// and for checking that persisted vectors match the live model.
	ModelID() string
}

// CosineSimilarity returns the cosine of the angle between a and b, in
// [-1, 1]. Returns 0 when either vector is empty or the lengths differ;
// callers treat that as "no semantic signal", not an error.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
