package ports

import (
	"context"
	"time"

	"github.com/faqbot/faq-assistant/internal/core/domain"
)

// Embedder builds vectors for FAQ texts and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// FAQVectorStore indexes FAQ records and performs segment-scoped search.
type FAQVectorStore interface {
	EnsureCollection(ctx context.Context, vectorSize int) error
	Upsert(ctx context.Context, records []domain.FAQRecord, vectors [][]float32) (int, error)
	Search(ctx context.Context, queryVector []float32, allowedSegments []int64, limit int) ([]domain.RetrievalHit, error)
}

// AnswerGenerator composes an answer from context documents.
// Available reports whether generation is configured at all.
type AnswerGenerator interface {
	Available() bool
	GenerateAnswer(ctx context.Context, question string, docs []domain.ContextDocument, lang string) (string, error)
}

// FAQSourceReader streams FAQ records from the relational source in batches.
// fn is called once per batch; returning an error stops the stream.
type FAQSourceReader interface {
	StreamRecords(ctx context.Context, since *time.Time, batchSize int, fn func([]domain.FAQRecord) error) error
}

// SeedLoader loads the static seed collection.
type SeedLoader interface {
	Load(ctx context.Context) ([]domain.FAQRecord, error)
}

// RoleMappingSource returns the current read-only role mapping.
type RoleMappingSource interface {
	Snapshot() domain.RoleMapping
}

// ReindexQueue publishes and consumes reindex jobs.
type ReindexQueue interface {
	PublishReindexJob(ctx context.Context, job domain.ReindexJob) error
	SubscribeReindexJobs(ctx context.Context, handler func(context.Context, domain.ReindexJob) error) error
}
