package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/faqbot/faq-assistant/internal/core/domain"
	"github.com/faqbot/faq-assistant/internal/core/ports"
)

type ChatUseCase struct {
	settings  domain.ChatSettings
	roles     *RoleScopeResolver
	retriever *Retriever
	generator ports.AnswerGenerator
	logger    *slog.Logger
}

func NewChatUseCase(
	settings domain.ChatSettings,
	roles *RoleScopeResolver,
	retriever *Retriever,
	generator ports.AnswerGenerator,
	logger *slog.Logger,
) *ChatUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatUseCase{
		settings:  settings,
		roles:     roles,
		retriever: retriever,
		generator: generator,
		logger:    logger.With("component", "chat"),
	}
}

func (uc *ChatUseCase) Answer(ctx context.Context, req domain.ChatRequest) (*domain.ChatResult, error) {
	start := time.Now()

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chat", errors.New("message is required"))
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = uc.settings.DefaultRole
	}
	lang := strings.TrimSpace(req.Lang)
	if lang == "" {
		lang = uc.settings.DefaultLang
	}

	segments := uc.roles.Resolve(role)
	if len(segments) == 0 {
		return nil, fmt.Errorf("role %q: %w", role, domain.ErrRoleNotMapped)
	}

	hits, err := uc.retriever.Retrieve(ctx, message, segments, uc.settings.TopK)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("role %q: %w", role, domain.ErrNoResultsForScope)
	}

	ranked, best := RankHits(hits)
	decision := SelectAnswerMode(best.Score, uc.settings.Policy)

	var (
		answer   string
		degraded bool
	)
	if !decision.UseLLM {
		answer = best.Answer
	} else {
		docs := AssembleContext(ranked, uc.settings.Budget)
		if len(docs) == 0 {
			docs = []domain.ContextDocument{domain.NewContextDocument(best)}
		}
		answer, degraded, err = uc.generate(ctx, message, docs, leadingDocuments(ranked, uc.settings.Budget.MaxDocs), lang)
		if err != nil {
			return nil, err
		}
	}

	result := &domain.ChatResult{
		Mode:    decision.Mode,
		Answer:  answer,
		Sources: toSources(ranked),
		Meta: domain.ChatMeta{
			TopK:       uc.settings.TopK,
			LatencyMS:  time.Since(start).Milliseconds(),
			TraceID:    req.TraceID,
			Lang:       lang,
			Role:       role,
			Confidence: decision.Confidence,
			Generated:  decision.UseLLM && !degraded,
			Degraded:   degraded,
			BestScore:  best.Score,
		},
	}

	uc.logger.InfoContext(ctx, "chat_answered",
		"trace_id", req.TraceID,
		"role", role,
		"mode", string(result.Mode),
		"best_score", best.Score,
		"hits", len(ranked),
		"generated", result.Meta.Generated,
		"degraded", degraded,
		"latency_ms", result.Meta.LatencyMS,
	)
	return result, nil
}

// generate asks the model for an answer, or degrades to the best fallback
// answer when generation is not available. fallback is not bounded by the
// character budget.
func (uc *ChatUseCase) generate(
	ctx context.Context,
	question string,
	docs []domain.ContextDocument,
	fallback []domain.ContextDocument,
	lang string,
) (string, bool, error) {
	if !uc.generator.Available() {
		return DegradedAnswer(fallback), true, nil
	}

	text, err := uc.generator.GenerateAnswer(ctx, question, docs, lang)
	if err != nil {
		return "", false, fmt.Errorf("generate answer: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.NoInformationAnswer, false, nil
	}
	return text, false, nil
}

// DegradedAnswer returns the first non-empty context answer, or the fixed
// no-information sentinel.
func DegradedAnswer(docs []domain.ContextDocument) string {
	for _, doc := range docs {
		if doc.Answer != "" {
			return doc.Answer
		}
	}
	return domain.NoInformationAnswer
}

// leadingDocuments returns the first maxDocs ranked hits as documents, and at
// least the best one.
func leadingDocuments(ranked []domain.RetrievalHit, maxDocs int) []domain.ContextDocument {
	n := min(max(maxDocs, 1), len(ranked))
	out := make([]domain.ContextDocument, 0, n)
	for _, hit := range ranked[:n] {
		out = append(out, domain.NewContextDocument(hit))
	}
	return out
}

func toSources(ranked []domain.RetrievalHit) []domain.Source {
	out := make([]domain.Source, 0, len(ranked))
	for _, hit := range ranked {
		out = append(out, domain.Source{
			FAQID:     hit.FAQID,
			SegmentID: hit.SegmentID,
			Score:     hit.Score,
			Link:      hit.Link,
		})
	}
	return out
}
