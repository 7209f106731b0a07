// Package cli provides the command-line interface for the ingestion service.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"asx-ingest/internal/config"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "asx-ingest",
		Short: "Scrape-data normalization and ingestion service for ASX market data",
		Long: `asx-ingest receives scraped market data over HTTP, normalizes it and
persists it transactionally: director transactions, shareholding
interests, price history, announcements and company overviews.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/asx-ingest)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newSeedCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("asx-ingest v%s\n", Version)
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := app.Config
			fmt.Println("Server")
			fmt.Printf("  Addr:             %s\n", cfg.Server.Addr)
			fmt.Printf("  Rate Limit:       %.1f req/s (burst %d)\n", cfg.Server.RateLimit, cfg.Server.RateBurst)
			fmt.Printf("  Ticker Cache TTL: %s\n", cfg.Server.TickerCacheTTL)
			fmt.Println("Store")
			fmt.Printf("  DB Path:          %s\n", cfg.Store.DBPath)
			fmt.Printf("  Historical Dir:   %s\n", cfg.Store.HistoricalDir)
			fmt.Println("Market")
			fmt.Printf("  Suffix:           %s\n", cfg.Market.Suffix)
			fmt.Println("Logging")
			fmt.Printf("  Level:            %s\n", cfg.Logging.Level)
			fmt.Printf("  File:             %s\n", cfg.Logging.FilePath)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.DefaultConfigDir())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Config.Validate(); err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}
			fmt.Println("Configuration is valid")
			return nil
		},
	})

	return cmd
}
