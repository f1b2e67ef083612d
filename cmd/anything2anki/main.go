package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/slavadubrov/anything2anki/internal/config"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "0.1.0"

var (
	// Global flags
	verbose    bool
	configPath string
	timeout    time.Duration

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "anything2anki",
	Short: "anything2anki - turn any text into an Anki deck",
	Long: `anything2anki converts free-form text (notes, articles, saved web pages)
into Anki flashcards. A language model drafts question/answer pairs, reviews
its own output, and rewrites it for a bounded number of cycles; the result is
packaged as an .apkg deck plus a markdown preview.

Set OPENAI_API_KEY, ANTHROPIC_API_KEY, or GEMINI_API_KEY, then:

  anything2anki generate notes.md "Go concurrency basics"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		return cfg.Validate()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "anything2anki %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: ~/.anything2anki.yaml)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Run deadline (default: llm.timeout from config, 5m)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
