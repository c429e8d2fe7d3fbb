package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inkwell-hq/inkwell/internal/config"
	"github.com/inkwell-hq/inkwell/internal/crawler"
	"github.com/inkwell-hq/inkwell/internal/server"
	"github.com/inkwell-hq/inkwell/pkg/logger"
)

var (
	configPath string
	version    = "0.1.0"
	gitCommit  = "unknown"
	buildTime  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "Inkwell - AI content generation and auto-publishing engine",
	Long:  `Inkwell generates SEO-optimized articles for registered sites and publishes them automatically to WordPress and Shopify on a per-site cadence.`,
	RunE:  runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Inkwell %s\n", version)
		fmt.Printf("Git commit: %s\n", gitCommit)
		fmt.Printf("Build time: %s\n", buildTime)
	},
}

var crawlPreset string

var crawlCmd = &cobra.Command{
	Use:   "crawl <url>",
	Short: "Run a one-off crawl session against a URL and print a summary",
	Args:  cobra.ExactArgs(1),
	RunE:  runCrawl,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/server.yaml", "config file path")
	crawlCmd.Flags().StringVar(&crawlPreset, "preset", "quick", "crawl preset (quick or deep)")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(crawlCmd)
}

func runServer(*cobra.Command, []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	appLogger, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Inkwell server", zap.String("version", version))

	// Create server
	srv, err := server.NewServer(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Start server
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := srv.Start(ctx); err != nil {
			appLogger.Error("Server failed to start", zap.Error(err))
			cancel()
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		appLogger.Info("Shutting down server...")
	case <-ctx.Done():
		appLogger.Info("Server context cancelled")
	}

	// Graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	appLogger.Info("Server exited")
	return nil
}

func runCrawl(_ *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	appLogger, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Sync()

	preset, ok := crawler.PresetByName(crawlPreset)
	if !ok {
		return fmt.Errorf("unknown preset %q (want quick or deep)", crawlPreset)
	}

	delay, err := time.ParseDuration(cfg.Crawler.DefaultDelay)
	if err != nil {
		return fmt.Errorf("invalid crawler delay: %w", err)
	}
	timeout, err := time.ParseDuration(cfg.Crawler.Timeout)
	if err != nil {
		return fmt.Errorf("invalid crawler timeout: %w", err)
	}

	c := crawler.New(appLogger, cfg.Crawler.UserAgent, delay, timeout)
	result, err := c.Crawl(context.Background(), args[0], preset)
	if err != nil {
		return err
	}

	fmt.Printf("Session %s crawled %d pages (%d errors)\n",
		result.SessionID, result.TotalPages, len(result.Errors))
	for _, page := range result.CrawledPages {
		fmt.Printf("  [%d] %-60s depth=%d words=%d links=%d\n",
			page.StatusCode, page.URL, page.Depth, page.WordCount, len(page.InternalLinks))
	}
	for _, crawlErr := range result.Errors {
		fmt.Printf("  error: %s: %s\n", crawlErr.URL, crawlErr.Message)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
