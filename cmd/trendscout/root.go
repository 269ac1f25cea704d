package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/FranksOps/trendscout/internal/config"
)

var (
	cfgFile string
	verbose bool
	summary string
	cfg     *config.Config
	logger  *slog.Logger
)

// rootCmd runs the whole pipeline when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "trendscout",
	Short: "Find rising marketplace search terms",
	Long: `trendscout asks a language model for niche marketplace search terms,
collects Google Trends interest for each, picks the ones that are rising and
looks them up with the marketplace search tool.

Example usage:
  trendscout                         # Run the pipeline with defaults
  trendscout --config scout.yaml     # Run with a config file
  trendscout --summary json          # Print the run summary as JSON
  trendscout history --run <id>      # Summarize an archived run`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(cmd.ErrOrStderr()); err != nil {
			return &configError{err: err}
		}
		return nil
	},
	RunE: runPipeline,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./trendscout.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().StringVar(&summary, "summary", "", "run summary format: text, json, html or none (default from config)")

	rootCmd.AddCommand(historyCmd, versionCmd)
}

func execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// initConfig loads .env, then the config file and environment.
func initConfig(logOut io.Writer) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env: %w", err)
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger = newLogger(cfg.Logging, verbose, logOut)
	logger.Debug("configuration loaded",
		"ollama_host", cfg.Ollama.Host,
		"model", cfg.Ollama.Model,
		"timeframe", cfg.Trends.Timeframe,
		"archive", cfg.Archive.Backend,
	)
	return nil
}

func newLogger(lc config.LoggingConfig, verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "trendscout "+version)
	},
}
