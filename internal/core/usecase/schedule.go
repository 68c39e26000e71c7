package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/faqbot/faq-assistant/internal/core/domain"
	"github.com/faqbot/faq-assistant/internal/core/ports"
)

// ReindexScheduleUseCase queues reindex runs for the worker.
type ReindexScheduleUseCase struct {
	queue ports.ReindexQueue
}

func NewReindexScheduleUseCase(queue ports.ReindexQueue) *ReindexScheduleUseCase {
	return &ReindexScheduleUseCase{queue: queue}
}

func (uc *ReindexScheduleUseCase) Enqueue(ctx context.Context, req domain.ReindexRequest) (*domain.ReindexJob, error) {
	if uc == nil || uc.queue == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "enqueue reindex", errors.New("async reindex is not configured"))
	}
	if _, err := domain.ParseReindexSource(string(req.Source)); err != nil {
		return nil, err
	}

	job := domain.ReindexJob{
		ID:         uuid.NewString(),
		Request:    req,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := uc.queue.PublishReindexJob(ctx, job); err != nil {
		return nil, fmt.Errorf("publish reindex job: %w", err)
	}
	return &job, nil
}
