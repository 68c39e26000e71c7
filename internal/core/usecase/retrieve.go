package usecase

import (
	"context"
	"fmt"

	"github.com/faqbot/faq-assistant/internal/core/domain"
	"github.com/faqbot/faq-assistant/internal/core/ports"
)

type Retriever struct {
	embedder ports.Embedder
	store    ports.FAQVectorStore
}

func NewRetriever(embedder ports.Embedder, store ports.FAQVectorStore) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Retrieve embeds the query and searches within the allowed segments only.
// The store order is not trusted; callers rank the result.
func (r *Retriever) Retrieve(
	ctx context.Context,
	query string,
	allowedSegments []int64,
	topK int,
) ([]domain.RetrievalHit, error) {
	if len(allowedSegments) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = 5
	}

	queryVector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.store.Search(ctx, queryVector, allowedSegments, topK)
	if err != nil {
		return nil, fmt.Errorf("search vector store: %w", err)
	}
	return hits, nil
}
