package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/faqbot/faq-assistant/internal/core/domain"
	"github.com/faqbot/faq-assistant/internal/infrastructure/resilience"
)

func TestGeneratorBuildsContextPrompt(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":"  De 9 a 17.  "}`))
	}))
	defer server.Close()

	link := "https://faq.local/1"
	docs := []domain.ContextDocument{
		{FAQID: 1, Question: "¿Horario?", Answer: "9 a 17", Link: &link},
		{FAQID: 2, Question: "¿Sede?", Answer: "Centro"},
	}
	gen := NewGenerator(New(server.URL, "gen", "embed"), true)
	answer, err := gen.GenerateAnswer(context.Background(), "¿a qué hora abren?", docs, "es")
	if err != nil {
		t.Fatalf("GenerateAnswer() error = %v", err)
	}
	if answer != "De 9 a 17." {
		t.Fatalf("expected trimmed answer, got %q", answer)
	}

	prompt, _ := payload["prompt"].(string)
	for _, want := range []string{"¿a qué hora abren?", "Q: ¿Horario?\nA: 9 a 17\nLINK: https://faq.local/1\n", "\n---\n", "Language: es"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if payload["stream"] != false || payload["model"] != "gen" {
		t.Fatalf("unexpected generate payload: %v", payload)
	}
}

func TestGeneratorAvailability(t *testing.T) {
	if !NewGenerator(New("http://x", "gen", "embed"), true).Available() {
		t.Fatalf("expected generator with model to be available")
	}
	if NewGenerator(New("http://x", "gen", "embed"), false).Available() {
		t.Fatalf("expected disabled generator to be unavailable")
	}
	if NewGenerator(New("http://x", " ", "embed"), true).Available() {
		t.Fatalf("expected generator without model to be unavailable")
	}
}

func TestEmbedIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewEmbedder(New(server.URL, "gen", "embed")).Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected bad gateway to be temporary, got %v", err)
	}
}

func TestEmbedRejectsVectorCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2]]}`))
	}))
	defer server.Close()

	_, err := NewEmbedder(New(server.URL, "gen", "embed")).Embed(context.Background(), []string{"a", "b"})
	if err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestEmbedRetriesThroughExecutor(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"embeddings":[[0.5,0.5]]}`))
	}))
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
	}, nil)
	client := New(server.URL, "gen", "embed").WithResilience(exec)

	vec, err := NewEmbedder(client).EmbedQuery(context.Background(), "hola")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if len(vec) != 2 || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected one retry and a vector, got %v after %d calls", vec, calls)
	}
}
