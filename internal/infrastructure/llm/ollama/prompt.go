package ollama

import (
	"fmt"
	"strings"

	"github.com/faqbot/faq-assistant/internal/core/domain"
)

const systemPrompt = `You answer customer questions using only the FAQ entries given as context.
Do not invent facts, prices, dates or links. If the context does not answer the question, say so briefly.
Keep answers short and include the LINK of the entry you used when it has one.`

func buildAnswerPrompt(question string, docs []domain.ContextDocument, lang string) string {
	blocks := make([]string, 0, len(docs))
	for _, doc := range docs {
		blocks = append(blocks, domain.RenderContextBlock(doc))
	}

	return fmt.Sprintf(`User: %s

CONTEXT:
%s

Instructions: answer ONLY with what the context says. Language: %s.
`, strings.TrimSpace(question), strings.Join(blocks, "\n---\n"), lang)
}
