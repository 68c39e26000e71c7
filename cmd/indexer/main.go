package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/faqbot/faq-assistant/internal/bootstrap"
	"github.com/faqbot/faq-assistant/internal/config"
	"github.com/faqbot/faq-assistant/internal/core/domain"
	"github.com/faqbot/faq-assistant/internal/observability/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "faq-indexer",
		Short:         "Build the FAQ vector index",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newReindexCmd())
	return root
}

type reindexFlags struct {
	source    string
	full      bool
	since     string
	batchSize int
}

func newReindexCmd() *cobra.Command {
	var flags reindexFlags
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Reindex FAQs from the seed file or the database",
		Long: `Embed FAQ records and upsert them into the vector collection.

Examples:
  faq-indexer reindex                              # Full run from the seed file
  faq-indexer reindex --source db                  # Full run from the database
  faq-indexer reindex --source db --full=false --since 2024-05-01`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			return runReindex(cmd.Context(), req)
		},
	}
	cmd.Flags().StringVar(&flags.source, "source", string(domain.SourceSeed), "record source: seed or db")
	cmd.Flags().BoolVar(&flags.full, "full", true, "reindex every record and ignore --since")
	cmd.Flags().StringVar(&flags.since, "since", "", "only records updated at or after this timestamp")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", 0, "records per batch (default REINDEX_BATCH_SIZE)")
	return cmd
}

func (f reindexFlags) request() (domain.ReindexRequest, error) {
	source, err := domain.ParseReindexSource(f.source)
	if err != nil {
		return domain.ReindexRequest{}, err
	}
	since, err := domain.ParseSince(f.since)
	if err != nil {
		return domain.ReindexRequest{}, err
	}
	return domain.ReindexRequest{
		Source:    source,
		Full:      f.full,
		Since:     since,
		BatchSize: f.batchSize,
	}, nil
}

func runReindex(parent context.Context, req domain.ReindexRequest) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg := config.Load()
	if req.BatchSize <= 0 {
		req.BatchSize = cfg.ReindexBatchSize
	}
	cfg.NATSURL = ""
	logger := logging.New(os.Stderr, "faq-indexer", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()

	result, err := app.ReindexUC.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("reindex %s: %w", req.Source, err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
