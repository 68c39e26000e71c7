package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/faqbot/faq-assistant/internal/core/domain"
)

type Config struct {
	APIPort  string
	LogLevel string

	QdrantURL      string
	QdrantAPIKey   string
	CollectionName string

	DatabaseURL string
	DBHost      string
	DBPort      int
	DBName      string
	DBUsername  string
	DBPassword  string
	DBSSLMode   string
	DBTable     string

	DBColID        string
	DBColSegmentID string
	DBColQuestion  string
	DBColResponse  string
	DBColLink      string
	DBColCreatedAt string
	DBColUpdatedAt string
	DBColIsActive  string
	DBActiveTrue   string

	OllamaURL         string
	OllamaGenModel    string
	OllamaEmbedModel  string
	GenerationEnabled bool
	EmbeddingsFake    bool
	EmbeddingsFakeDim int
	EmbedCacheSize    int

	RAGTopK             int
	RAGHighThreshold    float64
	RAGMaxDocs          int
	RAGMaxChars         int
	AlwaysRAG           bool
	ExactRewriteWithLLM bool

	RolesConfigPath string
	RolesWatch      bool
	LangDefault     string
	DefaultRole     string

	SeedFAQsPath     string
	ReindexBatchSize int

	NATSURL     string
	NATSSubject string

	APIRateLimitRPS   float64
	APIRateLimitBurst int
	APIMaxInFlight    int
	APIMaxConnections int

	CollaboratorRetryAttempts  int
	CollaboratorRetryBackoffMS int
	CollaboratorBreakerEnabled bool

	WorkerMetricsPort string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first without overriding variables already set.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		QdrantURL:      mustEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:   mustEnv("QDRANT_API_KEY", ""),
		CollectionName: mustEnv("COLLECTION_NAME", "faq_es_v1"),

		DatabaseURL: mustEnv("DATABASE_URL", ""),
		DBHost:      mustEnv("DB_HOST", ""),
		DBPort:      mustEnvInt("DB_PORT", 5432),
		DBName:      mustEnv("DB_NAME", ""),
		DBUsername:  mustEnv("DB_USERNAME", ""),
		DBPassword:  mustEnv("DB_PASSWORD", ""),
		DBSSLMode:   mustEnv("DB_SSLMODE", "require"),
		DBTable:     mustEnv("DB_TABLE", "public.helper_questions"),

		DBColID:        mustEnv("DB_COL_ID", "id"),
		DBColSegmentID: mustEnv("DB_COL_SEGMENT_ID", "segment_id"),
		DBColQuestion:  mustEnv("DB_COL_QUESTION", "question"),
		DBColResponse:  mustEnv("DB_COL_RESPONSE", "response"),
		DBColLink:      mustEnv("DB_COL_LINK", "link"),
		DBColCreatedAt: mustEnv("DB_COL_CREATED_AT", "created_at"),
		DBColUpdatedAt: mustEnv("DB_COL_UPDATED_AT", "updated_at"),
		DBColIsActive:  mustEnv("DB_COL_IS_ACTIVE", ""),
		DBActiveTrue:   mustEnv("DB_ACTIVE_TRUE", "TRUE"),

		OllamaURL:         mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaGenModel:    mustEnv("OLLAMA_GEN_MODEL", "llama3.1:8b"),
		OllamaEmbedModel:  mustEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
		GenerationEnabled: mustEnvBool("GENERATION_ENABLED", true),
		EmbeddingsFake:    mustEnvBool("EMBEDDINGS_FAKE", false),
		EmbeddingsFakeDim: mustEnvInt("EMBEDDINGS_FAKE_DIM", 256),
		EmbedCacheSize:    mustEnvInt("EMBED_CACHE_SIZE", 512),

		RAGTopK:             mustEnvInt("RAG_TOP_K", 5),
		RAGHighThreshold:    mustEnvFloat("RAG_HIGH_THRESHOLD", 0.75),
		RAGMaxDocs:          mustEnvInt("RAG_MAX_DOCS", 5),
		RAGMaxChars:         mustEnvInt("RAG_MAX_CHARS", 4000),
		AlwaysRAG:           mustEnvBool("ALWAYS_RAG", true),
		ExactRewriteWithLLM: mustEnvBool("EXACT_REWRITE_WITH_LLM", false),

		RolesConfigPath: mustEnv("ROLES_CONFIG_PATH", "config/roles.json"),
		RolesWatch:      mustEnvBool("ROLES_WATCH", false),
		LangDefault:     mustEnv("LANG_DEFAULT", "es"),
		DefaultRole:     mustEnv("DEFAULT_ROLE", "public"),

		SeedFAQsPath:     mustEnv("SEED_FAQS_PATH", "config/seed_faqs.json"),
		ReindexBatchSize: mustEnvInt("REINDEX_BATCH_SIZE", 1000),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "faq.reindex"),

		APIRateLimitRPS:   mustEnvFloat("API_RATE_LIMIT_RPS", 20),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 40),
		APIMaxInFlight:    mustEnvInt("API_MAX_INFLIGHT", 32),
		APIMaxConnections: mustEnvInt("API_MAX_CONNECTIONS", 256),

		CollaboratorRetryAttempts:  mustEnvInt("COLLABORATOR_RETRY_ATTEMPTS", 3),
		CollaboratorRetryBackoffMS: mustEnvInt("COLLABORATOR_RETRY_BACKOFF_MS", 100),
		CollaboratorBreakerEnabled: mustEnvBool("COLLABORATOR_BREAKER_ENABLED", true),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

// PostgresDSN returns DATABASE_URL unless it is empty or still the sample
// placeholder, otherwise a DSN assembled from the DB_* fields. Empty when
// neither is configured.
func (c Config) PostgresDSN() string {
	url := strings.TrimSpace(c.DatabaseURL)
	if url != "" && !strings.Contains(url, "user:pass@host") {
		return url
	}
	if c.DBHost == "" || c.DBName == "" {
		return ""
	}
	auth := ""
	if c.DBUsername != "" || c.DBPassword != "" {
		auth = c.DBUsername + ":" + c.DBPassword + "@"
	}
	return fmt.Sprintf("postgresql://%s%s:%d/%s?sslmode=%s", auth, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func (c Config) ChatSettings() domain.ChatSettings {
	return domain.ChatSettings{
		TopK: c.RAGTopK,
		Policy: domain.AnswerPolicy{
			AlwaysRAG:           c.AlwaysRAG,
			HighThreshold:       c.RAGHighThreshold,
			ExactRewriteWithLLM: c.ExactRewriteWithLLM,
		},
		Budget: domain.ContextBudget{
			MaxDocs:  c.RAGMaxDocs,
			MaxChars: c.RAGMaxChars,
		},
		DefaultRole: c.DefaultRole,
		DefaultLang: c.LangDefault,
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
