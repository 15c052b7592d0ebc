package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hanseul-dev/stocksignal/internal/bootstrap"
	"github.com/hanseul-dev/stocksignal/internal/compose"
	"github.com/hanseul-dev/stocksignal/internal/config"
	"github.com/hanseul-dev/stocksignal/internal/database"
	"github.com/hanseul-dev/stocksignal/internal/llm"
	"github.com/hanseul-dev/stocksignal/internal/market"
	"github.com/hanseul-dev/stocksignal/internal/metadata"
	"github.com/hanseul-dev/stocksignal/internal/pipeline"
	"github.com/hanseul-dev/stocksignal/internal/server"
	"github.com/hanseul-dev/stocksignal/internal/signal"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "stocksignal",
	Short:   "Daily market signal feeds",
	Long:    "stocksignal scans KR/US stock universes for movers, collects news evidence, and assembles explained daily signal datasets.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("stocksignal", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/stocksignal/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure markets, article limits, and the Gemini API key variable.")
		return nil
	},
}

// --- generate command ---

var (
	genDate   string
	genMarket string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the full pipeline: scan movers -> collect news -> rank -> summarize -> persist",
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe, err := pipeline.New(cfg)
		if err != nil {
			return err
		}
		defer pipe.Close()

		date := genDate
		if date == "" {
			date = market.LastTradingDay(market.Now(), genMarket)
		}
		if err := pipe.Generate(context.Background(), date, genMarket); err != nil {
			return err
		}

		fmt.Printf("Dataset written: %s\n", pipe.Store.Path(date, genMarket))
		fmt.Println("Run 'stocksignal serve' to browse it.")
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&genDate, "date", "", "Target date (YYYY-MM-DD, default: last trading day)")
	generateCmd.Flags().StringVar(&genMarket, "market", metadata.MarketKR, "Market to scan (KR or US)")
}

// --- serve command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve datasets over HTTP (JSON API and digest view)",
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe, err := pipeline.New(cfg)
		if err != nil {
			return err
		}
		defer pipe.Close()

		return server.Serve(pipe.Store, pipe, pipe.Cache, cfg.Server.Port)
	},
}

// --- bootstrap command ---

var bootstrapMarkets []string

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Populate stock metadata (industries, peers) via the Gemini API",
	RunE: func(cmd *cobra.Command, args []string) error {
		meta, err := metadata.Load(cfg.MetadataPath())
		if err != nil {
			return fmt.Errorf("loading stock metadata: %w", err)
		}

		provider := llm.CreateProvider(cfg.Gemini.BootstrapModel, cfg.Gemini.APIKey())
		b := bootstrap.New(provider, meta, cfg.MetadataPath(), 2*time.Second)
		if err := b.Run(context.Background(), bootstrapMarkets); err != nil {
			return err
		}

		fmt.Println("Bootstrap completed!")
		return nil
	},
}

func init() {
	bootstrapCmd.Flags().StringSliceVar(&bootstrapMarkets, "markets", []string{metadata.MarketKR, metadata.MarketUS}, "Markets to bootstrap")
}

// --- digest command ---

var (
	digestDate   string
	digestMarket string
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Print a markdown digest of a persisted dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		date := digestDate
		if date == "" {
			date = market.LastTradingDay(market.Now(), digestMarket)
		}

		store := signal.NewStore(cfg.GetDataDir())
		ds, err := store.Load(date, digestMarket)
		if err != nil {
			return err
		}

		fmt.Print(compose.Digest(date, digestMarket, ds))
		return nil
	},
}

func init() {
	digestCmd.Flags().StringVar(&digestDate, "date", "", "Target date (YYYY-MM-DD, default: last trading day)")
	digestCmd.Flags().StringVar(&digestMarket, "market", metadata.MarketKR, "Market (KR or US)")
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent runs and cache status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Open(cfg.CachePath())
		if err != nil {
			return fmt.Errorf("opening cache database: %w", err)
		}
		defer db.Close()

		runs, err := db.RecentRuns(10)
		if err != nil {
			return fmt.Errorf("reading run reports: %w", err)
		}
		cached, err := db.CachedContentCount()
		if err != nil {
			return fmt.Errorf("reading cache stats: %w", err)
		}

		fmt.Printf("Cached article bodies: %d\n\n", cached)
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet. Run 'stocksignal generate' first.")
			return nil
		}
		fmt.Println("Recent runs:")
		for _, r := range runs {
			fmt.Printf("  %s %s  signals=%d articles=%d  (%s)\n",
				r.Date, r.Market, r.SignalCount, r.ArticleCount, r.GeneratedAt)
		}
		return nil
	},
}
