package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/datasmith-cli/internal/config"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration
	cfg *cfgpkg.Global

	logger = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "datasmith",
	Short: "Datasmith CLI: profile, rebalance and synthesize tabular datasets",
	Long: `Datasmith profiles tabular datasets, detects class imbalance on a target column,
and rebalances it by undersampling, synthetic oversampling, or a hybrid of both.
Inputs can be CSV/TSV/JSON files or a PostgreSQL query.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.SilenceErrors = true
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.datasmith/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text|json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands with built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		d := cfgpkg.Defaults()
		c = &d
	}
	cfg = c
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	setupLogger(cfg)
}

// conf returns the loaded configuration, or defaults when none was loaded.
func conf() *cfgpkg.Global {
	if cfg == nil {
		loadConfig()
	}
	return cfg
}

func setupLogger(c *cfgpkg.Global) {
	logger.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(strings.TrimSpace(c.LogLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	if debug {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)
	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
}
