package ports

import (
	"context"

	"github.com/faqbot/faq-assistant/internal/core/domain"
)

// ChatService is the inbound contract for answering FAQ questions.
type ChatService interface {
	Answer(ctx context.Context, req domain.ChatRequest) (*domain.ChatResult, error)
}

// Reindexer is the inbound contract for (re)building the vector index.
type Reindexer interface {
	Run(ctx context.Context, req domain.ReindexRequest) (domain.ReindexResult, error)
}

// ReindexScheduler hands reindex runs to a background worker.
type ReindexScheduler interface {
	Enqueue(ctx context.Context, req domain.ReindexRequest) (*domain.ReindexJob, error)
}
