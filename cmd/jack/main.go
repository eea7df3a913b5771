package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"jack/internal/config"
	"jack/internal/logging"
)

var (
	// Global flags
	verbose bool
	apiKey  string
	model   string
	timeout time.Duration

	// Logger
	logger *zap.Logger

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "jack",
	Short: "JACK - real-time conversational orchestration kernel",
	Long: `JACK decomposes spoken or typed requests into a dependency graph of
intents, executes them concurrently against a plugin registry, and
decides per result whether to answer by voice, document, or both.

Run without arguments to start the interactive session.`,
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

		home, err := config.Home()
		if err != nil {
			return fmt.Errorf("resolve home: %w", err)
		}
		cfg, err = config.Load(home)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyFlagOverrides(cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		return logging.Initialize(home, logging.Settings{
			DebugMode:  cfg.Logging.DebugMode,
			Categories: cfg.Logging.Categories,
			Level:      cfg.Logging.Level,
			JSONFormat: cfg.Logging.JSONFormat,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive()
	},
}

func applyFlagOverrides(c *config.Config) {
	if apiKey != "" {
		c.LLM.APIKey = apiKey
	}
	if model != "" {
		c.LLM.Model = model
	}
	if timeout > 0 {
		c.LLM.Timeout = timeout.String()
	}
	if verbose {
		c.Logging.DebugMode = true
		c.Logging.Level = "debug"
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (overrides config and JACK_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "model name (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "NLP request timeout (overrides config)")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(memoryCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the JACK version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jack %s\n", config.Version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
