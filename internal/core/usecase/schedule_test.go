package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/faqbot/faq-assistant/internal/core/domain"
)

type reindexQueueFake struct {
	published []domain.ReindexJob
	err       error
}

func (f *reindexQueueFake) PublishReindexJob(_ context.Context, job domain.ReindexJob) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, job)
	return nil
}

func (f *reindexQueueFake) SubscribeReindexJobs(context.Context, func(context.Context, domain.ReindexJob) error) error {
	return nil
}

func TestEnqueuePublishesJob(t *testing.T) {
	queue := &reindexQueueFake{}
	uc := NewReindexScheduleUseCase(queue)

	job, err := uc.Enqueue(context.Background(), domain.ReindexRequest{Source: domain.SourceDB, Full: true, BatchSize: 50})
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if job.ID == "" || len(queue.published) != 1 || queue.published[0].Request.BatchSize != 50 {
		t.Fatalf("unexpected job %+v / published %+v", job, queue.published)
	}
}

func TestEnqueueWithoutQueue(t *testing.T) {
	uc := NewReindexScheduleUseCase(nil)
	_, err := uc.Enqueue(context.Background(), domain.ReindexRequest{Source: domain.SourceSeed})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestEnqueueRejectsInvalidSource(t *testing.T) {
	queue := &reindexQueueFake{}
	_, err := NewReindexScheduleUseCase(queue).Enqueue(context.Background(), domain.ReindexRequest{Source: "s3"})
	if !errors.Is(err, domain.ErrInvalidSource) || len(queue.published) != 0 {
		t.Fatalf("expected ErrInvalidSource without publish, got %v", err)
	}
}
