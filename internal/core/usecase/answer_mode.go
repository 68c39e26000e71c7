package usecase

import "github.com/faqbot/faq-assistant/internal/core/domain"

// SelectAnswerMode decides between verbatim echo and generation.
//
//	generate = always_rag || best < high_threshold
//	useLLM   = generate || exact_rewrite_with_llm
//	mode     = RAG when generate, EXACT otherwise
//
// A high-confidence match rewritten by the model keeps the EXACT label.
func SelectAnswerMode(bestScore float64, policy domain.AnswerPolicy) domain.ModeDecision {
	confidence := domain.ConfidenceHigh
	if bestScore < policy.HighThreshold {
		confidence = domain.ConfidenceLow
	}

	generate := policy.AlwaysRAG || bestScore < policy.HighThreshold
	decision := domain.ModeDecision{
		Mode:       domain.ModeExact,
		Generate:   generate,
		UseLLM:     generate || policy.ExactRewriteWithLLM,
		Confidence: confidence,
	}
	if generate {
		decision.Mode = domain.ModeRAG
	}
	return decision
}
