package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/faqbot/faq-assistant/internal/config"
	"github.com/faqbot/faq-assistant/internal/core/ports"
	"github.com/faqbot/faq-assistant/internal/core/usecase"
	"github.com/faqbot/faq-assistant/internal/infrastructure/embedding"
	"github.com/faqbot/faq-assistant/internal/infrastructure/llm/ollama"
	"github.com/faqbot/faq-assistant/internal/infrastructure/queue/nats"
	"github.com/faqbot/faq-assistant/internal/infrastructure/repository/postgres"
	"github.com/faqbot/faq-assistant/internal/infrastructure/resilience"
	"github.com/faqbot/faq-assistant/internal/infrastructure/roles"
	"github.com/faqbot/faq-assistant/internal/infrastructure/seed"
	"github.com/faqbot/faq-assistant/internal/infrastructure/vector/qdrant"
)

const Version = "0.1.0"

type App struct {
	Config config.Config
	Logger *slog.Logger

	Store     *qdrant.FAQStore
	Roles     *roles.FileSource
	Generator ports.AnswerGenerator
	Queue     *nats.Queue

	ChatUC      *usecase.ChatUseCase
	ReindexUC   *usecase.ReindexUseCase
	ScheduleUC  *usecase.ReindexScheduleUseCase
	HasDBSource bool

	closeFn func()
}

// New wires the application. The relational source and the queue are
// optional: they are only connected when configured.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	executor := resilience.NewExecutor(resilienceConfig(cfg), logger)

	store := qdrant.NewFAQStore(cfg.QdrantURL, cfg.CollectionName,
		qdrant.WithAPIKey(cfg.QdrantAPIKey),
		qdrant.WithResilience(executor),
	)

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel).WithResilience(executor)
	embedder, err := newEmbedder(cfg, ollamaClient)
	if err != nil {
		return nil, err
	}
	generator := ollama.NewGenerator(ollamaClient, cfg.GenerationEnabled)

	rolesSource, err := roles.NewFileSource(cfg.RolesConfigPath, logger)
	if err != nil {
		return nil, fmt.Errorf("load roles config: %w", err)
	}
	if cfg.RolesWatch {
		go func() {
			if err := rolesSource.Watch(ctx); err != nil {
				logger.Error("roles_watch_failed", "path", rolesSource.Path(), "error", err)
			}
		}()
	}

	var (
		db     *sql.DB
		reader ports.FAQSourceReader
	)
	if dsn := cfg.PostgresDSN(); dsn != "" {
		db, err = postgres.OpenDB(dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		faqReader, err := postgres.NewFAQReader(db, faqReaderConfig(cfg))
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init faq reader: %w", err)
		}
		reader = faqReader
	}

	var queue *nats.Queue
	if cfg.NATSURL != "" {
		queue, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			if db != nil {
				_ = db.Close()
			}
			return nil, fmt.Errorf("init message queue: %w", err)
		}
	}

	resolver := usecase.NewRoleScopeResolver(rolesSource, cfg.DefaultRole)
	retriever := usecase.NewRetriever(embedder, store)
	chatUC := usecase.NewChatUseCase(cfg.ChatSettings(), resolver, retriever, generator, logger)
	reindexUC := usecase.NewReindexUseCase(seed.NewFileLoader(cfg.SeedFAQsPath), reader, embedder, store, logger)

	var scheduleUC *usecase.ReindexScheduleUseCase
	if queue != nil {
		scheduleUC = usecase.NewReindexScheduleUseCase(queue)
	}

	logger.Info("app_initialized",
		"collection", cfg.CollectionName,
		"db_source", reader != nil,
		"queue", queue != nil,
		"generation", generator.Available(),
		"fake_embeddings", useHashEmbeddings(cfg),
	)

	return &App{
		Config:      cfg,
		Logger:      logger,
		Store:       store,
		Roles:       rolesSource,
		Generator:   generator,
		Queue:       queue,
		ChatUC:      chatUC,
		ReindexUC:   reindexUC,
		ScheduleUC:  scheduleUC,
		HasDBSource: reader != nil,

		closeFn: func() {
			if queue != nil {
				queue.Close()
			}
			if db != nil {
				_ = db.Close()
			}
		},
	}, nil
}

// Scheduler returns the async reindex scheduler, or nil when no queue is
// configured.
func (a *App) Scheduler() ports.ReindexScheduler {
	if a.ScheduleUC == nil {
		return nil
	}
	return a.ScheduleUC
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func resilienceConfig(cfg config.Config) resilience.Config {
	return resilience.ForCollaborators(
		cfg.CollaboratorRetryAttempts,
		time.Duration(cfg.CollaboratorRetryBackoffMS)*time.Millisecond,
		cfg.CollaboratorBreakerEnabled,
	)
}

func useHashEmbeddings(cfg config.Config) bool {
	return cfg.EmbeddingsFake || cfg.OllamaEmbedModel == ""
}

func newEmbedder(cfg config.Config, client *ollama.Client) (ports.Embedder, error) {
	var base ports.Embedder
	if useHashEmbeddings(cfg) {
		base = embedding.NewHashEmbedder(cfg.EmbeddingsFakeDim)
	} else {
		base = ollama.NewEmbedder(client)
	}
	if cfg.EmbedCacheSize <= 0 {
		return base, nil
	}
	cached, err := embedding.NewCachedEmbedder(base, cfg.EmbedCacheSize)
	if err != nil {
		return nil, fmt.Errorf("init embedding cache: %w", err)
	}
	return cached, nil
}

func faqReaderConfig(cfg config.Config) postgres.FAQReaderConfig {
	return postgres.FAQReaderConfig{
		Table: cfg.DBTable,
		Columns: postgres.FAQColumns{
			ID:        cfg.DBColID,
			SegmentID: cfg.DBColSegmentID,
			Question:  cfg.DBColQuestion,
			Response:  cfg.DBColResponse,
			Link:      cfg.DBColLink,
			CreatedAt: cfg.DBColCreatedAt,
			UpdatedAt: cfg.DBColUpdatedAt,
			IsActive:  cfg.DBColIsActive,
		},
		ActiveTrue: cfg.DBActiveTrue,
	}
}
