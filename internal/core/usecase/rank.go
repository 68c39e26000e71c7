package usecase

import (
	"sort"

	"github.com/faqbot/faq-assistant/internal/core/domain"
)

// RankHits orders hits by score descending. Equal scores keep retrieval
// order, so the first-seen hit wins a tie. The input slice is not modified.
func RankHits(hits []domain.RetrievalHit) ([]domain.RetrievalHit, domain.RetrievalHit) {
	if len(hits) == 0 {
		return nil, domain.RetrievalHit{}
	}
	ranked := make([]domain.RetrievalHit, len(hits))
	copy(ranked, hits)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, ranked[0]
}
