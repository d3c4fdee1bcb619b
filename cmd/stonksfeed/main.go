// stonksfeed — stock news aggregation pipeline.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/stonksfeed/api"
	"github.com/seenimoa/stonksfeed/internal/config"
	"github.com/seenimoa/stonksfeed/internal/pipeline"
	"github.com/seenimoa/stonksfeed/internal/source"
	"github.com/seenimoa/stonksfeed/internal/store"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stonksfeed",
	Short: "stonksfeed — stock news aggregation pipeline",
	Long: `stonksfeed collects stock market headlines from RSS feeds and
investor forums, tags each one with tickers and a sentiment score, and
stores the results for serving over a small read API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		setupLogging(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(serveCmd)
}

// setupLogging installs the default slog logger from config.
func setupLogging(lc config.LoggingConfig) {
	var level slog.Level
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if lc.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stonksfeed %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Fetch Command ---

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run one ingestion pass over the configured sources",
	Long: `Fetch collects headlines from every configured RSS feed and forum,
enriches them with tickers and sentiment, and writes new articles to the
store. Already-stored articles are skipped, so re-running is safe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rssOnly, _ := cmd.Flags().GetBool("rss-only")
		forumsOnly, _ := cmd.Flags().GetBool("forums-only")
		if rssOnly && forumsOnly {
			return fmt.Errorf("--rss-only and --forums-only are mutually exclusive")
		}

		sources := buildSources(cfg, rssOnly, forumsOnly)
		if len(sources) == 0 {
			return fmt.Errorf("no sources configured")
		}

		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		p := pipeline.New(sources, s, pipeline.Options{
			PermissiveTickers: cfg.Pipeline.PermissiveTickers,
		}, slog.Default())

		summary, err := p.Run(cmd.Context())
		if err != nil {
			return err
		}

		if purged, err := s.PurgeExpired(cmd.Context()); err != nil {
			slog.Warn("purge expired failed", "error", err)
		} else if purged > 0 {
			slog.Info("purged expired articles", "count", purged)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return json.NewEncoder(os.Stdout).Encode(summary)
		}
		fmt.Printf("fetched %d articles: %d inserted, %d duplicates, %d stale, %d insert errors, %d source errors\n",
			summary.Fetched, summary.Inserted, summary.Duplicates,
			summary.Stale, summary.InsertErrors, summary.SourceErrors)
		return nil
	},
}

func init() {
	fetchCmd.Flags().Bool("rss-only", false, "fetch RSS feeds only")
	fetchCmd.Flags().Bool("forums-only", false, "fetch forums only")
	fetchCmd.Flags().Bool("json", false, "print the run summary as JSON")
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP read API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		slog.Info("starting API server", "addr", addr)

		srv := api.NewServer(cfg, s, slog.Default())
		return srv.ListenAndServe(addr)
	},
}

// buildSources assembles the source list from config, honoring the
// rss-only / forums-only toggles.
func buildSources(cfg *config.Config, rssOnly, forumsOnly bool) []source.Source {
	var sources []source.Source
	if !forumsOnly {
		for _, f := range cfg.Feeds {
			sources = append(sources, source.NewFeed(f.Publisher, f.Title, f.URL))
		}
	}
	if !rssOnly {
		for _, f := range cfg.Forums {
			sources = append(sources, source.NewForum(f.Title, f.URL))
		}
	}
	return sources
}

func openStore(cfg *config.Config) (*store.Store, error) {
	opts := store.Options{
		MaxAge:    time.Duration(cfg.Store.MaxAgeHours) * time.Hour,
		Retention: time.Duration(cfg.Store.RetentionDays) * 24 * time.Hour,
	}
	s, err := store.Open(cfg.Store.Path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", cfg.Store.Path, err)
	}
	return s, nil
}
