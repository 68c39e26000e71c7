package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/faqbot/faq-assistant/internal/core/domain"
)

type embedderFake struct {
	queries []string
	batches [][]string
	dim     int
	err     error
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.batches = append(f.batches, texts)
	if f.err != nil {
		return nil, f.err
	}
	dim := f.dim
	if dim == 0 {
		dim = 3
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, dim)
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.queries = append(f.queries, text)
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

// vectorStoreFake keeps points keyed by faq id and filters searches by segment.
type vectorStoreFake struct {
	points       map[int64]domain.FAQRecord
	hits         []domain.RetrievalHit
	ensureSizes  []int
	upsertCalls  int
	upsertErrAt  int
	upsertErr    error
	searchErr    error
	lastSegments []int64
	lastLimit    int
}

func newVectorStoreFake() *vectorStoreFake {
	return &vectorStoreFake{points: map[int64]domain.FAQRecord{}}
}

func (f *vectorStoreFake) EnsureCollection(_ context.Context, size int) error {
	f.ensureSizes = append(f.ensureSizes, size)
	return nil
}

func (f *vectorStoreFake) Upsert(_ context.Context, records []domain.FAQRecord, _ [][]float32) (int, error) {
	f.upsertCalls++
	if f.upsertErr != nil && f.upsertCalls == f.upsertErrAt {
		return 0, f.upsertErr
	}
	for _, rec := range records {
		f.points[rec.FAQID] = rec
	}
	return len(records), nil
}

func (f *vectorStoreFake) Search(_ context.Context, _ []float32, segments []int64, limit int) ([]domain.RetrievalHit, error) {
	f.lastSegments = segments
	f.lastLimit = limit
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	allowed := make(map[int64]struct{}, len(segments))
	for _, s := range segments {
		allowed[s] = struct{}{}
	}
	out := make([]domain.RetrievalHit, 0, len(f.hits))
	for _, hit := range f.hits {
		if _, ok := allowed[hit.SegmentID]; ok {
			out = append(out, hit)
		}
	}
	return out, nil
}

func (f *vectorStoreFake) pointIDs() []int64 {
	ids := make([]int64, 0, len(f.points))
	for id := range f.points {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type generatorFake struct {
	available bool
	text      string
	err       error
	calls     int
	docs      []domain.ContextDocument
	lang      string
}

func (f *generatorFake) Available() bool { return f.available }

func (f *generatorFake) GenerateAnswer(_ context.Context, _ string, docs []domain.ContextDocument, lang string) (string, error) {
	f.calls++
	f.docs = docs
	f.lang = lang
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type seedLoaderFake struct {
	records []domain.FAQRecord
	err     error
}

func (f seedLoaderFake) Load(context.Context) ([]domain.FAQRecord, error) {
	return f.records, f.err
}

type sourceReaderFake struct {
	batches   [][]domain.FAQRecord
	err       error
	since     *time.Time
	batchSize int
}

func (f *sourceReaderFake) StreamRecords(_ context.Context, since *time.Time, batchSize int, fn func([]domain.FAQRecord) error) error {
	f.since = since
	f.batchSize = batchSize
	for _, batch := range f.batches {
		if err := fn(batch); err != nil {
			return err
		}
	}
	return f.err
}
