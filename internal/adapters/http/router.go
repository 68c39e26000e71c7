package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/faqbot/faq-assistant/internal/core/domain"
	"github.com/faqbot/faq-assistant/internal/core/ports"
	"github.com/faqbot/faq-assistant/internal/observability/metrics"
)

const (
	serviceName        = "faq-api"
	defaultBatchSize   = 1000
	backpressureWait   = 250 * time.Millisecond
	maxRequestBodySize = 1 << 20
)

// Pinger reports whether a collaborator answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Version             string
	GenerationAvailable bool
	RateLimitRPS        float64
	RateLimitBurst      int
	MaxInFlight         int

	// RolesConfigured is evaluated per health request so hot reloads show up.
	RolesConfigured func() bool
}

type Router struct {
	chat      ports.ChatService
	reindexer ports.Reindexer
	scheduler ports.ReindexScheduler
	store     Pinger
	metrics   *metrics.HTTPServerMetrics
	logger    *slog.Logger
	opts      Options
}

func NewRouter(
	chat ports.ChatService,
	reindexer ports.Reindexer,
	scheduler ports.ReindexScheduler,
	store Pinger,
	httpMetrics *metrics.HTTPServerMetrics,
	logger *slog.Logger,
	opts Options,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Version == "" {
		opts.Version = "0.1.0"
	}
	return &Router{
		chat:      chat,
		reindexer: reindexer,
		scheduler: scheduler,
		store:     store,
		metrics:   httpMetrics,
		logger:    logger,
		opts:      opts,
	}
}

func (rt *Router) Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", rt.handleChat)
	mux.HandleFunc("/reindex", rt.handleReindex)
	mux.HandleFunc("/health", rt.handleHealth)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	spec, err := loadOpenAPIRouter()
	if err != nil {
		return nil, err
	}

	var handler http.Handler = openAPIValidationMiddleware(spec, mux)
	handler = backpressureMiddleware(handler, rt.opts.MaxInFlight, backpressureWait)
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler), nil
}

type chatRequest struct {
	Message string  `json:"message"`
	Role    *string `json:"role"`
	Lang    *string `json:"lang"`
	TraceID *string `json:"trace_id"`
}

func (rt *Router) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		return
	}

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}

	traceID := deref(req.TraceID)
	if traceID == "" {
		traceID = requestIDFromContext(r.Context())
	}

	start := time.Now()
	result, err := rt.chat.Answer(r.Context(), domain.ChatRequest{
		Message: req.Message,
		Role:    deref(req.Role),
		Lang:    deref(req.Lang),
		TraceID: traceID,
	})
	if err != nil {
		rt.recordChatRejection(err)
		writeError(w, mapErrorToHTTPStatus(err), chatErrorCode(err), chatErrorMessage(err, req))
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordChatAnswer(serviceName, string(result.Mode), string(result.Meta.Confidence),
			result.Meta.Generated, result.Meta.Degraded, result.Meta.BestScore, len(result.Sources), time.Since(start))
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) recordChatRejection(err error) {
	if rt.metrics == nil {
		return
	}
	switch {
	case errors.Is(err, domain.ErrRoleNotMapped):
		rt.metrics.RecordChatRejection(serviceName, "role_not_mapped")
	case errors.Is(err, domain.ErrNoResultsForScope):
		rt.metrics.RecordChatRejection(serviceName, "no_results")
	case domain.IsKind(err, domain.ErrInvalidInput):
		rt.metrics.RecordChatRejection(serviceName, "invalid_input")
	default:
		rt.metrics.RecordChatRejection(serviceName, "error")
	}
}

func chatErrorMessage(err error, req chatRequest) string {
	switch {
	case errors.Is(err, domain.ErrRoleNotMapped):
		if role := deref(req.Role); role != "" {
			return fmt.Sprintf("role %q is not mapped", role)
		}
		return "the default role is not mapped"
	case errors.Is(err, domain.ErrNoResultsForScope):
		return "no results for your role or query"
	default:
		return err.Error()
	}
}

type reindexRequest struct {
	Full      *bool   `json:"full"`
	Since     *string `json:"since"`
	Source    string  `json:"source"`
	BatchSize int     `json:"batch_size"`
	Async     bool    `json:"async"`
}

func (rt *Router) handleReindex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		return
	}

	var body reindexRequest
	if err := decodeJSON(r, &body); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	req, err := body.toDomain()
	if err != nil {
		status, code := reindexErrorStatus(err)
		writeError(w, status, code, err.Error())
		return
	}

	if body.Async {
		if rt.scheduler == nil {
			writeError(w, http.StatusBadRequest, codeInvalidInput, "async reindex is not configured")
			return
		}
		job, err := rt.scheduler.Enqueue(r.Context(), req)
		if err != nil {
			status, code := reindexErrorStatus(err)
			writeError(w, status, code, err.Error())
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "job_id": job.ID})
		return
	}

	result, err := rt.reindexer.Run(r.Context(), req)
	if rt.metrics != nil {
		rt.metrics.RecordReindex(serviceName, string(req.Source), result.Upserts, result.Skipped, err)
	}
	if err != nil {
		status, code := reindexErrorStatus(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// toDomain applies the request defaults: full run from the seed file in
// batches of 1000.
func (b reindexRequest) toDomain() (domain.ReindexRequest, error) {
	source := b.Source
	if strings.TrimSpace(source) == "" {
		source = string(domain.SourceSeed)
	}
	parsed, err := domain.ParseReindexSource(source)
	if err != nil {
		return domain.ReindexRequest{}, err
	}
	since, err := domain.ParseSince(deref(b.Since))
	if err != nil {
		return domain.ReindexRequest{}, err
	}
	full := true
	if b.Full != nil {
		full = *b.Full
	}
	batchSize := b.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return domain.ReindexRequest{
		Source:    parsed,
		Full:      full,
		Since:     since,
		BatchSize: batchSize,
	}, nil
}

type healthResponse struct {
	OK      bool      `json:"ok"`
	Qdrant  string    `json:"qdrant"`
	Env     healthEnv `json:"env"`
	Version string    `json:"version"`
}

type healthEnv struct {
	RolesConfig         bool `json:"roles_config"`
	GenerationAvailable bool `json:"generation_available"`
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		return
	}

	status := "ok"
	if rt.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := rt.store.Ping(ctx); err != nil {
			status = "down:" + err.Error()
		}
	}

	rolesConfigured := rt.opts.RolesConfigured != nil && rt.opts.RolesConfigured()
	writeJSON(w, http.StatusOK, healthResponse{
		OK:      status == "ok" && rolesConfigured,
		Qdrant:  status,
		Version: rt.opts.Version,
		Env: healthEnv{
			RolesConfig:         rolesConfigured,
			GenerationAvailable: rt.opts.GenerationAvailable,
		},
	})
}

var errEmptyBody = errors.New("request body is empty")

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodySize))
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Detail: errorDetail{Code: code, Message: message}})
}
