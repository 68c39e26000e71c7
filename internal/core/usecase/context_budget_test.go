package usecase

import (
	"strings"
	"testing"

	"github.com/faqbot/faq-assistant/internal/core/domain"
)

func strPtr(s string) *string { return &s }

func TestAssembleContextRespectsMaxDocs(t *testing.T) {
	ranked := []domain.RetrievalHit{
		{FAQID: 1, Question: "q1", Answer: "a1", Score: 0.9},
		{FAQID: 2, Question: "q2", Answer: "a2", Score: 0.8},
		{FAQID: 3, Question: "q3", Answer: "a3", Score: 0.7},
	}
	docs := AssembleContext(ranked, domain.ContextBudget{MaxDocs: 2, MaxChars: 4000})
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	if docs[0].FAQID != 1 || docs[1].FAQID != 2 {
		t.Fatalf("expected ranked prefix order, got %d,%d", docs[0].FAQID, docs[1].FAQID)
	}
}

func TestAssembleContextStopsOnceBudgetReached(t *testing.T) {
	long := strings.Repeat("x", 50)
	ranked := []domain.RetrievalHit{
		{FAQID: 1, Question: "q", Answer: long},
		{FAQID: 2, Question: "q", Answer: long},
		{FAQID: 3, Question: "q", Answer: "short"},
	}
	first := domain.RenderedLength(domain.NewContextDocument(ranked[0]))

	docs := AssembleContext(ranked, domain.ContextBudget{MaxDocs: 5, MaxChars: first})
	if len(docs) != 1 || docs[0].FAQID != 1 {
		t.Fatalf("expected only faq 1 once the budget is reached, got %+v", docs)
	}

	docs = AssembleContext(ranked, domain.ContextBudget{MaxDocs: 5, MaxChars: first + 1})
	if len(docs) != 2 || docs[1].FAQID != 2 {
		t.Fatalf("expected second block while total is below budget, got %d docs", len(docs))
	}
}

func TestAssembleContextKeepsLeadingBlockLongerThanBudget(t *testing.T) {
	ranked := []domain.RetrievalHit{
		{FAQID: 7, Question: "q", Answer: strings.Repeat("a", 4500)},
		{FAQID: 8, Question: "q", Answer: "short"},
	}
	docs := AssembleContext(ranked, domain.ContextBudget{MaxDocs: 5, MaxChars: 4000})
	if len(docs) != 1 || docs[0].FAQID != 7 {
		t.Fatalf("expected the oversized leading block alone, got %+v", docs)
	}
	if len(docs[0].Answer) != 4500 {
		t.Fatalf("leading block must not be truncated")
	}
}

func TestAssembleContextAppendsOnlyBelowBudget(t *testing.T) {
	ranked := []domain.RetrievalHit{
		{FAQID: 1, Question: "¿Horario?", Answer: "Lunes a viernes", Link: strPtr("https://example.org/h")},
		{FAQID: 2, Question: "¿Dirección?", Answer: "Calle 1"},
		{FAQID: 3, Question: "¿Teléfono?", Answer: "555"},
	}
	for maxChars := 1; maxChars < 200; maxChars++ {
		docs := AssembleContext(ranked, domain.ContextBudget{MaxDocs: 3, MaxChars: maxChars})
		if len(docs) == 0 {
			t.Fatalf("max_chars=%d: leading block dropped", maxChars)
		}
		total := 0
		for i, doc := range docs {
			if doc.FAQID != ranked[i].FAQID {
				t.Fatalf("max_chars=%d: order broken at %d", maxChars, i)
			}
			if total >= maxChars {
				t.Fatalf("max_chars=%d: block %d appended after budget was reached", maxChars, i)
			}
			total += domain.RenderedLength(doc)
		}
		if len(docs) < len(ranked) && total < maxChars {
			t.Fatalf("max_chars=%d: stopped early at total %d", maxChars, total)
		}
	}
}

func TestAssembleContextBlockIncludesLink(t *testing.T) {
	doc := domain.ContextDocument{Question: "q", Answer: "a", Link: strPtr("https://x")}
	if got := domain.RenderContextBlock(doc); got != "Q: q\nA: a\nLINK: https://x\n" {
		t.Fatalf("unexpected block %q", got)
	}
	doc.Link = nil
	if got := domain.RenderContextBlock(doc); got != "Q: q\nA: a\n" {
		t.Fatalf("unexpected block %q", got)
	}
}

func TestAssembleContextNonPositiveBudget(t *testing.T) {
	ranked := []domain.RetrievalHit{{FAQID: 1, Question: "q", Answer: "a"}}
	if docs := AssembleContext(ranked, domain.ContextBudget{MaxDocs: 0, MaxChars: 100}); len(docs) != 0 {
		t.Fatalf("expected no docs for zero max_docs")
	}
	if docs := AssembleContext(ranked, domain.ContextBudget{MaxDocs: 3, MaxChars: 0}); len(docs) != 0 {
		t.Fatalf("expected no docs for zero max_chars")
	}
}
