// Package cmd implements the corpuscrawler command-line interface: a
// root Cobra command plus the `crawl` and `autocrawl` subcommands,
// following the teacher's cobra+viper+godotenv wiring (no fx: this
// module is three composable packages deep, not a large DI graph).
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kdevcrawl/corpuscrawler/internal/logger"
)

var (
	// paramsFile holds the path passed via --params, a YAML override of
	// config.Default() (spec C1 "declarative run specification").
	paramsFile string

	// logLevel and logFormat configure the process-wide logger before any
	// subcommand's RunE executes.
	logLevel  string
	logFormat string

	// log is the shared logger instance every subcommand logs through.
	log logger.Interface

	rootCmd = &cobra.Command{
		Use:   "corpuscrawler",
		Short: "A multi-source discovery, fetch, and extraction crawler",
		Long: `corpuscrawler discovers candidate URLs from News-API (GDELT), Video-API
(YouTube), and site-specific forums, fetches them with robots.txt and
rate-limit discipline, extracts canonical documents, and appends them to
per-source JSONL logs behind a URL-dedup index.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger()
		},
	}
)

func initLogger() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	level := logger.Level(logLevel)
	switch level {
	case logger.DebugLevel, logger.InfoLevel, logger.WarnLevel, logger.ErrorLevel, logger.FatalLevel:
	default:
		level = logger.InfoLevel
	}

	l, err := logger.New(&logger.Config{
		Level:       level,
		Encoding:    logFormat,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	log = l
	return nil
}

// Execute is the CLI entry point: run the root command and exit 1 on error.
// A SIGINT/SIGTERM cancels rootCtx so a long autocrawl run or cron daemon
// gets a chance to finish its in-flight round and persist state, the same
// shutdown shape the teacher's main.go gives the crawler.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&paramsFile, "params", "", "path to a YAML params file overriding config defaults")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log encoding: console or json")

	rootCmd.AddCommand(newCrawlCommand())
	rootCmd.AddCommand(newAutocrawlCommand())
}
