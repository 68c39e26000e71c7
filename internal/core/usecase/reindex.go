package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/faqbot/faq-assistant/internal/core/domain"
	"github.com/faqbot/faq-assistant/internal/core/ports"
)

const defaultReindexBatchSize = 1000

type ReindexUseCase struct {
	seeds    ports.SeedLoader
	reader   ports.FAQSourceReader
	embedder ports.Embedder
	store    ports.FAQVectorStore
	logger   *slog.Logger
}

// NewReindexUseCase wires the pipeline. reader may be nil when no relational
// source is configured; db runs are then rejected.
func NewReindexUseCase(
	seeds ports.SeedLoader,
	reader ports.FAQSourceReader,
	embedder ports.Embedder,
	store ports.FAQVectorStore,
	logger *slog.Logger,
) *ReindexUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReindexUseCase{
		seeds:    seeds,
		reader:   reader,
		embedder: embedder,
		store:    store,
		logger:   logger.With("component", "reindex"),
	}
}

// Run reindexes from the requested source. Batches committed before a
// failure stay in the store.
func (uc *ReindexUseCase) Run(ctx context.Context, req domain.ReindexRequest) (domain.ReindexResult, error) {
	start := time.Now()

	var (
		upserts, skipped int
		err              error
	)
	switch req.Source {
	case domain.SourceSeed:
		upserts, err = uc.fromSeed(ctx)
	case domain.SourceDB:
		if uc.reader == nil {
			return domain.ReindexResult{}, domain.WrapError(domain.ErrInvalidInput, "reindex", errors.New("relational source is not configured"))
		}
		upserts, skipped, err = uc.fromDB(ctx, req)
	default:
		return domain.ReindexResult{}, domain.ErrInvalidSource
	}

	result := domain.ReindexResult{
		Upserts:    upserts,
		Skipped:    skipped,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		uc.logger.ErrorContext(ctx, "reindex_failed",
			"source", string(req.Source),
			"upserts", upserts,
			"error", err,
		)
		return result, err
	}

	uc.logger.InfoContext(ctx, "reindex_completed",
		"source", string(req.Source),
		"full", req.Full,
		"upserts", upserts,
		"skipped", skipped,
		"duration_ms", result.DurationMS,
	)
	return result, nil
}

func (uc *ReindexUseCase) fromSeed(ctx context.Context) (int, error) {
	records, err := uc.seeds.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load seed: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	vectors, err := uc.embed(ctx, records)
	if err != nil {
		return 0, err
	}
	if err := uc.store.EnsureCollection(ctx, len(vectors[0])); err != nil {
		return 0, fmt.Errorf("ensure collection: %w", err)
	}
	n, err := uc.store.Upsert(ctx, records, vectors)
	if err != nil {
		return 0, fmt.Errorf("upsert seed records: %w", err)
	}
	return n, nil
}

func (uc *ReindexUseCase) fromDB(ctx context.Context, req domain.ReindexRequest) (int, int, error) {
	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = defaultReindexBatchSize
	}
	since := req.Since
	if req.Full {
		since = nil
	}

	var (
		upserts, skipped int
		ensured          bool
		batchNo          int
	)
	err := uc.reader.StreamRecords(ctx, since, batchSize, func(batch []domain.FAQRecord) error {
		batchNo++
		records := make([]domain.FAQRecord, 0, len(batch))
		for _, rec := range batch {
			if rec.Blank() {
				skipped++
				continue
			}
			records = append(records, rec)
		}
		if len(records) == 0 {
			return nil
		}

		vectors, err := uc.embed(ctx, records)
		if err != nil {
			return err
		}
		if !ensured {
			if err := uc.store.EnsureCollection(ctx, len(vectors[0])); err != nil {
				return fmt.Errorf("ensure collection: %w", err)
			}
			ensured = true
		}
		n, err := uc.store.Upsert(ctx, records, vectors)
		if err != nil {
			return fmt.Errorf("upsert batch %d: %w", batchNo, err)
		}
		upserts += n
		uc.logger.DebugContext(ctx, "reindex_batch_upserted", "batch", batchNo, "upserts", n)
		return nil
	})
	if err != nil {
		return upserts, skipped, fmt.Errorf("stream db records: %w", err)
	}
	return upserts, skipped, nil
}

func (uc *ReindexUseCase) embed(ctx context.Context, records []domain.FAQRecord) ([][]float32, error) {
	texts := make([]string, 0, len(records))
	for _, rec := range records {
		texts = append(texts, rec.EmbeddingText())
	}
	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed records: %w", err)
	}
	if len(vectors) != len(records) || len(vectors[0]) == 0 {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed records",
			fmt.Errorf("vectors/records mismatch: %d/%d", len(vectors), len(records)),
		)
	}
	return vectors, nil
}
