package domain

import (
	"fmt"
	"strings"
	"time"
)

// FAQRecord is one source record read by the indexing pipeline.
type FAQRecord struct {
	FAQID     int64      `json:"faq_id"`
	SegmentID int64      `json:"segment_id"`
	Question  string     `json:"question"`
	Response  string     `json:"response"`
	Link      *string    `json:"link,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// EmbeddingText is the text embedded for a record.
func (r FAQRecord) EmbeddingText() string {
	return strings.TrimSpace(r.Question) + "\n" + strings.TrimSpace(r.Response)
}

// Blank reports records with nothing worth embedding.
func (r FAQRecord) Blank() bool {
	return strings.TrimSpace(r.Question) == "" && strings.TrimSpace(r.Response) == ""
}

type ReindexSource string

const (
	SourceSeed ReindexSource = "seed"
	SourceDB   ReindexSource = "db"
)

func ParseReindexSource(s string) (ReindexSource, error) {
	switch ReindexSource(strings.ToLower(strings.TrimSpace(s))) {
	case SourceSeed:
		return SourceSeed, nil
	case SourceDB:
		return SourceDB, nil
	default:
		return "", ErrInvalidSource
	}
}

type ReindexRequest struct {
	Source    ReindexSource `json:"source"`
	Full      bool          `json:"full"`
	Since     *time.Time    `json:"since,omitempty"`
	BatchSize int           `json:"batch_size"`
}

type ReindexResult struct {
	Upserts    int   `json:"upserts"`
	Skipped    int   `json:"skipped"`
	DurationMS int64 `json:"duration_ms"`
}

// ReindexJob is the message published for asynchronous reindex runs.
type ReindexJob struct {
	ID         string         `json:"id"`
	Request    ReindexRequest `json:"request"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
}

// ParseSince accepts RFC3339 timestamps or plain dates.
func ParseSince(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, WrapError(ErrInvalidInput, "parse since", fmt.Errorf("unsupported timestamp %q", raw))
}
