package domain

import (
	"strings"
	"unicode/utf8"
)

// RetrievalHit is one scored candidate returned by the vector search.
type RetrievalHit struct {
	FAQID     int64   `json:"faq_id"`
	SegmentID int64   `json:"segment_id"`
	Score     float64 `json:"score"`
	Link      *string `json:"link,omitempty"`
	Answer    string  `json:"answer"`
	Question  string  `json:"question"`
}

// ContextDocument is the trimmed projection of a hit handed to generation.
type ContextDocument struct {
	FAQID     int64   `json:"faq_id"`
	SegmentID int64   `json:"segment_id"`
	Question  string  `json:"question"`
	Answer    string  `json:"answer"`
	Link      *string `json:"link,omitempty"`
	Score     float64 `json:"score"`
}

// ContextBudget bounds the context handed to generation.
type ContextBudget struct {
	MaxDocs  int
	MaxChars int
}

func NewContextDocument(hit RetrievalHit) ContextDocument {
	return ContextDocument{
		FAQID:     hit.FAQID,
		SegmentID: hit.SegmentID,
		Question:  hit.Question,
		Answer:    hit.Answer,
		Link:      hit.Link,
		Score:     hit.Score,
	}
}

// RenderContextBlock is the fixed textual block for one context document.
func RenderContextBlock(doc ContextDocument) string {
	var b strings.Builder
	b.WriteString("Q: ")
	b.WriteString(doc.Question)
	b.WriteString("\nA: ")
	b.WriteString(doc.Answer)
	b.WriteString("\n")
	if doc.Link != nil && *doc.Link != "" {
		b.WriteString("LINK: ")
		b.WriteString(*doc.Link)
		b.WriteString("\n")
	}
	return b.String()
}

// RenderedLength counts characters, not bytes.
func RenderedLength(doc ContextDocument) int {
	return utf8.RuneCountInString(RenderContextBlock(doc))
}
