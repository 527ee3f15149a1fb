package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hncrawl/hncrawl/internal/api"
	"github.com/hncrawl/hncrawl/internal/batch"
	"github.com/hncrawl/hncrawl/internal/clock/system"
	"github.com/hncrawl/hncrawl/internal/config"
	"github.com/hncrawl/hncrawl/internal/fetch"
	"github.com/hncrawl/hncrawl/internal/gate"
	"github.com/hncrawl/hncrawl/internal/hn"
	"github.com/hncrawl/hncrawl/internal/id/uuid"
	"github.com/hncrawl/hncrawl/internal/logging"
	"github.com/hncrawl/hncrawl/internal/metrics"
	"github.com/hncrawl/hncrawl/internal/runner"
	"github.com/hncrawl/hncrawl/internal/storage"
	"github.com/hncrawl/hncrawl/internal/story"
)

// newCrawlCmd creates the 'crawl' subcommand, which runs the poll loop until
// interrupted.
func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Starts the crawler daemon",
		Long: `Polls the front page on the configured interval, downloads every new
top story with its comment-thread links, and serves reports and metrics over
HTTP until interrupted.`,
		RunE: runCrawlCommand,
	}
	return cmd
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.Init()

	r, err := buildRunner(cfg, logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if cfg.Server.Enabled {
		startOpsServer(ctx, cfg, r, logger)
	}

	logger.Info("crawler starting",
		zap.String("start_page", cfg.Crawler.StartPage),
		zap.Int("top_stories", cfg.Crawler.TopStories),
		zap.Duration("poll_interval", cfg.PollInterval()),
		zap.String("output_dir", cfg.Crawler.OutputDir),
		zap.String("engine", cfg.Crawler.Engine),
	)

	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("crawler stopped")
	return nil
}

func buildRunner(cfg config.Config, logger *zap.Logger) (*runner.Runner, error) {
	store, err := storage.NewDiskStore(cfg.Crawler.OutputDir)
	if err != nil {
		return nil, err
	}

	transport, err := buildTransport(cfg)
	if err != nil {
		return nil, err
	}

	g := gate.New(gate.Config{
		GlobalLimit:  cfg.Crawler.GlobalLimit,
		PerHostLimit: cfg.Crawler.PerHostLimit,
	})
	fetcher := fetch.NewFetcher(g, transport, cfg.RequestTimeout(), logger)
	downloader := batch.NewDownloader(fetcher, store, logger)
	processor := story.NewProcessor(downloader, fetcher, store, hn.ExtractCommentLinks, logger)

	return runner.New(
		runner.Config{
			StartPage:    cfg.Crawler.StartPage,
			TopStories:   cfg.Crawler.TopStories,
			PollInterval: cfg.PollInterval(),
		},
		fetcher, processor, store, nil,
		system.New(), uuid.New(), logger,
	), nil
}

func buildTransport(cfg config.Config) (fetch.Transport, error) {
	switch cfg.Crawler.Engine {
	case "colly":
		return fetch.NewCollyTransport(cfg.Crawler.UserAgent), nil
	case "http":
		return fetch.NewHTTPTransport(cfg.Crawler.UserAgent), nil
	default:
		return nil, fmt.Errorf("unknown crawler engine %q", cfg.Crawler.Engine)
	}
}

func startOpsServer(ctx context.Context, cfg config.Config, r *runner.Runner, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(r, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("ops server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("ops server shutdown", zap.Error(err))
		}
	}()
}
