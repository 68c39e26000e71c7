package embedding

import (
	"context"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/faqbot/faq-assistant/internal/core/ports"
)

// CachedEmbedder memoizes query embeddings. Document embeddings used by the
// indexing pipeline always go to the wrapped embedder.
type CachedEmbedder struct {
	next  ports.Embedder
	cache *lru.Cache[string, []float32]
}

func NewCachedEmbedder(next ports.Embedder, size int) (*CachedEmbedder, error) {
	if next == nil {
		return nil, fmt.Errorf("cached embedder: next embedder is nil")
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &CachedEmbedder{next: next, cache: cache}, nil
}

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return c.next.Embed(ctx, texts)
}

// EmbedQuery returns a copy of the cached vector, so callers may modify it.
func (c *CachedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.cache.Get(text); ok {
		return slices.Clone(vec), nil
	}
	vec, err := c.next.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, slices.Clone(vec))
	return vec, nil
}

func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}
