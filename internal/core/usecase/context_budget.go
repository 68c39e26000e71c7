package usecase

import "github.com/faqbot/faq-assistant/internal/core/domain"

// AssembleContext builds the generation context from ranked hits.
// It takes at most MaxDocs leading hits and appends blocks while the rendered
// total is still below MaxChars, so the leading hit is always kept. Blocks are
// never truncated and later, shorter blocks are not tried.
func AssembleContext(ranked []domain.RetrievalHit, budget domain.ContextBudget) []domain.ContextDocument {
	if budget.MaxDocs <= 0 || budget.MaxChars <= 0 || len(ranked) == 0 {
		return nil
	}

	limit := budget.MaxDocs
	if limit > len(ranked) {
		limit = len(ranked)
	}

	docs := make([]domain.ContextDocument, 0, limit)
	total := 0
	for _, hit := range ranked[:limit] {
		if total >= budget.MaxChars {
			break
		}
		doc := domain.NewContextDocument(hit)
		docs = append(docs, doc)
		total += domain.RenderedLength(doc)
	}
	return docs
}
