// Package mock provides a test double for the embeddings.Provider interface.
//
// The zero value returns empty vectors; set the function fields to script
// behaviour per test. Call records let tests assert which texts were
// submitted for embedding.
package mock

import (
	"context"
	"sync"

	"github.com/Vicoder007/Vekta/pkg/provider/embeddings"
)

// Provider is a scriptable embeddings.Provider. Safe for concurrent use.
type Provider struct {
	mu sync.Mutex

	// EmbedFunc, when set, handles Embed calls. Otherwise EmbedResult and
	// EmbedErr are returned verbatim.
	EmbedFunc   func(ctx context.Context, text string) ([]float32, error)
	EmbedResult []float32
	EmbedErr    error

	// EmbedBatchFunc, when set, handles EmbedBatch calls. Otherwise each
	// text receives EmbedResult.
	EmbedBatchFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// DimensionsValue is returned by Dimensions.
	DimensionsValue int

	// ModelIDValue is returned by ModelID. Defaults to "mock-embed".
	ModelIDValue string

	// EmbedTexts records every text submitted through either method.
	EmbedTexts []string
}

var _ embeddings.Provider = (*Provider)(nil)

func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	p.EmbedTexts = append(p.EmbedTexts, text)
	p.mu.Unlock()
	if p.EmbedFunc != nil {
		return p.EmbedFunc(ctx, text)
	}
	return p.EmbedResult, p.EmbedErr
}

func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	p.EmbedTexts = append(p.EmbedTexts, texts...)
	p.mu.Unlock()
	if p.EmbedBatchFunc != nil {
		return p.EmbedBatchFunc(ctx, texts)
	}
	if p.EmbedErr != nil {
		return nil, p.EmbedErr
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = p.EmbedResult
	}
	return out, nil
}

func (p *Provider) Dimensions() int { return p.DimensionsValue }

func (p *Provider) ModelID() string {
	if p.ModelIDValue == "" {
		return "mock-embed"
	}
	return p.ModelIDValue
}
