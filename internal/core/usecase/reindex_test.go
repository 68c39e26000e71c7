package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/faqbot/faq-assistant/internal/core/domain"
)

func seedRecords() []domain.FAQRecord {
	return []domain.FAQRecord{
		{FAQID: 1, SegmentID: 1, Question: " ¿Horario? ", Response: " 9 a 17 "},
		{FAQID: 2, SegmentID: 2, Question: "¿Dirección?", Response: "Calle 1"},
	}
}

func TestReindexSeedIsIdempotent(t *testing.T) {
	store := newVectorStoreFake()
	embedder := &embedderFake{dim: 4}
	uc := NewReindexUseCase(seedLoaderFake{records: seedRecords()}, nil, embedder, store, nil)

	first, err := uc.Run(context.Background(), domain.ReindexRequest{Source: domain.SourceSeed, Full: true})
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	idsAfterFirst := store.pointIDs()

	second, err := uc.Run(context.Background(), domain.ReindexRequest{Source: domain.SourceSeed, Full: true})
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if !reflect.DeepEqual(idsAfterFirst, store.pointIDs()) {
		t.Fatalf("point ids changed between runs: %v vs %v", idsAfterFirst, store.pointIDs())
	}
	if first.Upserts != 2 || second.Upserts != 2 || first.Skipped != 0 || second.Skipped != 0 {
		t.Fatalf("unexpected results %+v %+v", first, second)
	}
	if store.ensureSizes[0] != 4 {
		t.Fatalf("expected collection sized to embedding dim 4, got %v", store.ensureSizes)
	}
	if got := embedder.batches[0][0]; got != "¿Horario?\n9 a 17" {
		t.Fatalf("unexpected embedding text %q", got)
	}
}

func TestReindexEmptySeedTouchesNothing(t *testing.T) {
	store := newVectorStoreFake()
	uc := NewReindexUseCase(seedLoaderFake{}, nil, &embedderFake{}, store, nil)

	res, err := uc.Run(context.Background(), domain.ReindexRequest{Source: domain.SourceSeed})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Upserts != 0 || res.Skipped != 0 || len(store.ensureSizes) != 0 || store.upsertCalls != 0 {
		t.Fatalf("expected no-op run, got %+v", res)
	}
}

func TestReindexRejectsUnknownSourceBeforeIO(t *testing.T) {
	embedder := &embedderFake{}
	uc := NewReindexUseCase(seedLoaderFake{records: seedRecords()}, &sourceReaderFake{}, embedder, newVectorStoreFake(), nil)

	_, err := uc.Run(context.Background(), domain.ReindexRequest{Source: "ftp"})
	if !errors.Is(err, domain.ErrInvalidSource) {
		t.Fatalf("expected ErrInvalidSource, got %v", err)
	}
	if len(embedder.batches) != 0 {
		t.Fatalf("no I/O expected for invalid source")
	}
}

func TestReindexDBStreamsBatches(t *testing.T) {
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	reader := &sourceReaderFake{batches: [][]domain.FAQRecord{
		{{FAQID: 1, SegmentID: 1, Question: "a", Response: "b"}, {FAQID: 2, SegmentID: 1, Question: "c", Response: "d"}},
		{{FAQID: 3, SegmentID: 2, Question: "e", Response: "f"}, {FAQID: 4, SegmentID: 2}},
	}}
	store := newVectorStoreFake()
	uc := NewReindexUseCase(nil, reader, &embedderFake{dim: 8}, store, nil)

	res, err := uc.Run(context.Background(), domain.ReindexRequest{Source: domain.SourceDB, Full: false, Since: &since, BatchSize: 2})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Upserts != 3 || res.Skipped != 1 {
		t.Fatalf("expected 3 upserts and 1 skipped, got %+v", res)
	}
	if reader.since == nil || !reader.since.Equal(since) || reader.batchSize != 2 {
		t.Fatalf("expected incremental stream since %v batch 2, got %v %d", since, reader.since, reader.batchSize)
	}
	if len(store.ensureSizes) != 1 || store.ensureSizes[0] != 8 {
		t.Fatalf("expected collection ensured once with dim 8, got %v", store.ensureSizes)
	}
	if store.upsertCalls != 2 {
		t.Fatalf("expected one upsert per batch, got %d", store.upsertCalls)
	}
}

func TestReindexDBFullIgnoresSince(t *testing.T) {
	since := time.Now()
	reader := &sourceReaderFake{}
	uc := NewReindexUseCase(nil, reader, &embedderFake{}, newVectorStoreFake(), nil)

	if _, err := uc.Run(context.Background(), domain.ReindexRequest{Source: domain.SourceDB, Full: true, Since: &since}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if reader.since != nil {
		t.Fatalf("full run must not filter by since")
	}
	if reader.batchSize != defaultReindexBatchSize {
		t.Fatalf("expected default batch size, got %d", reader.batchSize)
	}
}

func TestReindexDBFailureKeepsCommittedBatches(t *testing.T) {
	reader := &sourceReaderFake{batches: [][]domain.FAQRecord{
		{{FAQID: 1, SegmentID: 1, Question: "a", Response: "b"}},
		{{FAQID: 2, SegmentID: 1, Question: "c", Response: "d"}},
	}}
	store := newVectorStoreFake()
	store.upsertErr = errors.New("qdrant unavailable")
	store.upsertErrAt = 2
	uc := NewReindexUseCase(nil, reader, &embedderFake{}, store, nil)

	res, err := uc.Run(context.Background(), domain.ReindexRequest{Source: domain.SourceDB, Full: true})
	if err == nil {
		t.Fatalf("expected error")
	}
	if res.Upserts != 1 {
		t.Fatalf("expected first batch counted, got %d", res.Upserts)
	}
	if _, ok := store.points[1]; !ok {
		t.Fatalf("first batch must stay committed")
	}
}

func TestReindexDBWithoutReader(t *testing.T) {
	uc := NewReindexUseCase(seedLoaderFake{}, nil, &embedderFake{}, newVectorStoreFake(), nil)
	_, err := uc.Run(context.Background(), domain.ReindexRequest{Source: domain.SourceDB})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestReindexEmbedFailureAborts(t *testing.T) {
	store := newVectorStoreFake()
	uc := NewReindexUseCase(seedLoaderFake{records: seedRecords()}, nil, &embedderFake{err: errors.New("embed down")}, store, nil)
	if _, err := uc.Run(context.Background(), domain.ReindexRequest{Source: domain.SourceSeed}); err == nil {
		t.Fatalf("expected error")
	}
	if store.upsertCalls != 0 {
		t.Fatalf("nothing must be upserted after embed failure")
	}
}
