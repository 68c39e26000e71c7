package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/faqbot/faq-assistant/internal/core/domain"
	"github.com/faqbot/faq-assistant/internal/infrastructure/resilience"
)

// FAQStore indexes FAQ records in a single Qdrant collection. Point IDs are
// the FAQ ids, so re-upserting a record replaces it.
type FAQStore struct {
	baseURL    string
	apiKey     string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

type Option func(*FAQStore)

func WithAPIKey(key string) Option {
	return func(s *FAQStore) { s.apiKey = strings.TrimSpace(key) }
}

func WithResilience(executor *resilience.Executor) Option {
	return func(s *FAQStore) { s.executor = executor }
}

func WithHTTPClient(client *http.Client) Option {
	return func(s *FAQStore) {
		if client != nil {
			s.httpClient = client
		}
	}
}

func NewFAQStore(baseURL, collection string, opts ...Option) *FAQStore {
	s := &FAQStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type point struct {
	ID      int64        `json:"id"`
	Vector  []float32    `json:"vector"`
	Payload pointPayload `json:"payload"`
}

type pointPayload struct {
	FAQID     int64   `json:"faq_id"`
	SegmentID int64   `json:"segment_id"`
	Question  string  `json:"question"`
	Answer    string  `json:"answer"`
	Link      *string `json:"link"`
	CreatedAt *string `json:"created_at"`
}

// EnsureCollection creates the collection with cosine distance when it does
// not exist yet. The result is cached per vector size.
func (s *FAQStore) EnsureCollection(ctx context.Context, vectorSize int) error {
	if vectorSize <= 0 {
		return domain.WrapError(domain.ErrInvalidInput, "qdrant ensure collection", fmt.Errorf("vector size %d", vectorSize))
	}

	s.ensureMu.Lock()
	if s.ensuredCollection && s.ensuredVectorSize == vectorSize {
		s.ensureMu.Unlock()
		return nil
	}
	s.ensureMu.Unlock()

	err := s.run(ctx, "qdrant.ensure_collection", func(ctx context.Context) error {
		exists, err := s.collectionExists(ctx)
		if err != nil || exists {
			return err
		}
		return s.createCollection(ctx, vectorSize)
	})
	if err != nil {
		return err
	}
	s.markCollectionEnsured(vectorSize)
	return nil
}

func (s *FAQStore) collectionExists(ctx context.Context) (bool, error) {
	resp, err := s.do(ctx, http.MethodGet, "/collections/"+s.collection, nil)
	if err != nil {
		return false, fmt.Errorf("qdrant get collection request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 300:
		return false, newStatusError("get collection", resp)
	default:
		return true, nil
	}
}

func (s *FAQStore) createCollection(ctx context.Context, vectorSize int) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	resp, err := s.do(ctx, http.MethodPut, "/collections/"+s.collection, body)
	if err != nil {
		return fmt.Errorf("qdrant create collection request: %w", err)
	}
	defer resp.Body.Close()

	// 409 when a concurrent writer created it first.
	if resp.StatusCode == http.StatusConflict {
		return nil
	}
	if resp.StatusCode >= 300 {
		return newStatusError("create collection", resp)
	}
	return nil
}

func (s *FAQStore) Upsert(ctx context.Context, records []domain.FAQRecord, vectors [][]float32) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if len(records) != len(vectors) {
		return 0, fmt.Errorf("records/vectors mismatch: %d != %d", len(records), len(vectors))
	}

	points := make([]point, 0, len(records))
	for i, rec := range records {
		points = append(points, point{
			ID:      rec.FAQID,
			Vector:  vectors[i],
			Payload: payloadFromRecord(rec),
		})
	}

	err := s.run(ctx, "qdrant.upsert", func(ctx context.Context) error {
		resp, err := s.do(ctx, http.MethodPut, "/collections/"+s.collection+"/points?wait=true", map[string]any{"points": points})
		if err != nil {
			return fmt.Errorf("qdrant upsert request: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return newStatusError("upsert", resp)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(points), nil
}

// Search returns at most limit hits whose segment is in allowedSegments.
// An empty segment list matches nothing and skips the request.
func (s *FAQStore) Search(
	ctx context.Context,
	queryVector []float32,
	allowedSegments []int64,
	limit int,
) ([]domain.RetrievalHit, error) {
	if len(allowedSegments) == 0 || limit <= 0 {
		return nil, nil
	}

	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key":   "segment_id",
					"match": map[string]any{"any": allowedSegments},
				},
			},
		},
	}

	var searchResp struct {
		Result []struct {
			Score   float64      `json:"score"`
			Payload pointPayload `json:"payload"`
		} `json:"result"`
	}
	err := s.run(ctx, "qdrant.search", func(ctx context.Context) error {
		resp, err := s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points/search", reqBody)
		if err != nil {
			return fmt.Errorf("qdrant search request: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return newStatusError("search", resp)
		}
		if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
			return fmt.Errorf("decode search response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.RetrievalHit, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.RetrievalHit{
			FAQID:     r.Payload.FAQID,
			SegmentID: r.Payload.SegmentID,
			Score:     r.Score,
			Question:  r.Payload.Question,
			Answer:    r.Payload.Answer,
			Link:      nonEmpty(r.Payload.Link),
		})
	}
	return out, nil
}

// Ping checks that the Qdrant API answers.
func (s *FAQStore) Ping(ctx context.Context) error {
	resp, err := s.do(ctx, http.MethodGet, "/collections", nil)
	if err != nil {
		return wrapTemporaryIfNeeded("qdrant ping", fmt.Errorf("qdrant ping request: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return wrapTemporaryIfNeeded("qdrant ping", newStatusError("ping", resp))
	}
	return nil
}

func (s *FAQStore) run(ctx context.Context, operation string, fn func(context.Context) error) error {
	var err error
	if s.executor == nil {
		err = fn(ctx)
	} else {
		err = s.executor.Execute(ctx, operation, fn, classifyQdrantError)
	}
	return wrapTemporaryIfNeeded(operation, err)
}

func (s *FAQStore) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	return s.httpClient.Do(req)
}

func (s *FAQStore) markCollectionEnsured(vectorSize int) {
	s.ensureMu.Lock()
	defer s.ensureMu.Unlock()
	s.ensuredCollection = true
	s.ensuredVectorSize = vectorSize
}

func payloadFromRecord(rec domain.FAQRecord) pointPayload {
	p := pointPayload{
		FAQID:     rec.FAQID,
		SegmentID: rec.SegmentID,
		Question:  rec.Question,
		Answer:    rec.Response,
		Link:      rec.Link,
	}
	if rec.CreatedAt != nil {
		ts := rec.CreatedAt.UTC().Format(time.RFC3339)
		p.CreatedAt = &ts
	}
	return p
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := *s
	return &v
}
