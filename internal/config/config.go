package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/datasmith-cli/internal/utils"
)

// Global configuration structure.
type Global struct {
	DefaultTechnique string  `mapstructure:"default_technique" yaml:"default_technique"`
	DefaultDiversity string  `mapstructure:"default_diversity" yaml:"default_diversity"`
	Ratio            float64 `mapstructure:"ratio" yaml:"ratio"`
	HybridRatio      float64 `mapstructure:"hybrid_ratio" yaml:"hybrid_ratio"`
	OutputFormat     string  `mapstructure:"output_format" yaml:"output_format"`
	DataDir          string  `mapstructure:"data_dir" yaml:"data_dir"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// PostgreSQL source
	PGDSN      string `mapstructure:"pg_dsn" yaml:"pg_dsn"`
	PGRowLimit int    `mapstructure:"pg_row_limit" yaml:"pg_row_limit"`

	// Profiling
	SampleSize   int     `mapstructure:"sample_size" yaml:"sample_size"`
	OutlierSigma float64 `mapstructure:"outlier_sigma" yaml:"outlier_sigma"`
}

// Defaults returns the built-in settings. DataDir is resolved by Load.
func Defaults() Global {
	return Global{
		DefaultTechnique: "oversampling",
		DefaultDiversity: "medium",
		Ratio:            1,
		HybridRatio:      0.5,
		LogLevel:         "info",
		LogFormat:        "text",
		SampleSize:       100,
		OutlierSigma:     3,
	}
}

// Dir returns ~/.datasmith.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".datasmith"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datasmith/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATASMITH")
	v.AutomaticEnv()

	// Defaults
	d := Defaults()
	v.SetDefault("default_technique", d.DefaultTechnique)
	v.SetDefault("default_diversity", d.DefaultDiversity)
	v.SetDefault("ratio", d.Ratio)
	v.SetDefault("hybrid_ratio", d.HybridRatio)
	v.SetDefault("output_format", d.OutputFormat)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("pg_dsn", d.PGDSN)
	v.SetDefault("pg_row_limit", d.PGRowLimit)
	v.SetDefault("sample_size", d.SampleSize)
	v.SetDefault("outlier_sigma", d.OutlierSigma)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	if err := v.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing && cfgFile != "" {
			if _, statErr := os.Stat(cfgFile); statErr == nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve data_dir default: ~/.datasmith/data
	if c.DataDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.DataDir = filepath.Join(dir, "data")
	} else {
		d, err := utils.ExpandHome(c.DataDir)
		if err != nil {
			return nil, err
		}
		c.DataDir = d
	}
	return &c, nil
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"default_technique", "default_diversity", "ratio", "hybrid_ratio", "output_format",
	"data_dir", "log_level", "log_format", "pg_dsn", "pg_row_limit", "sample_size", "outlier_sigma",
}
