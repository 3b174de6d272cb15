package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datasmith-cli/internal/balance"
	cfgpkg "github.com/KaramelBytes/datasmith-cli/internal/config"
	"github.com/KaramelBytes/datasmith-cli/internal/dataset"
	"github.com/KaramelBytes/datasmith-cli/internal/synth"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set Datasmith configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := conf()
		out := cmd.OutOrStdout()
		for _, k := range cfgpkg.Keys {
			fmt.Fprintf(out, "%s: %s\n", k, configValue(c, k))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], strings.TrimSpace(args[1])
		c := conf()
		switch key {
		case "default_technique":
			t, err := balance.ParseTechnique(val)
			if err != nil {
				return err
			}
			c.DefaultTechnique = string(t)
		case "default_diversity":
			d, err := synth.ParseDiversity(val)
			if err != nil {
				return err
			}
			c.DefaultDiversity = string(d)
		case "ratio", "hybrid_ratio":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 || f > 1 {
				return fmt.Errorf("invalid %s: %v (use a number in (0,1])", key, val)
			}
			if key == "ratio" {
				c.Ratio = f
			} else {
				c.HybridRatio = f
			}
		case "output_format":
			if val != "" {
				if _, err := dataset.FormatFor("", val); err != nil {
					return err
				}
			}
			c.OutputFormat = strings.ToLower(val)
		case "data_dir":
			c.DataDir = val
		case "log_level":
			if _, err := logrus.ParseLevel(val); err != nil {
				return fmt.Errorf("invalid log_level: %w", err)
			}
			c.LogLevel = strings.ToLower(val)
		case "log_format":
			switch strings.ToLower(val) {
			case "text", "json":
				c.LogFormat = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid log_format: %s (use text or json)", val)
			}
		case "pg_dsn":
			c.PGDSN = val
		case "pg_row_limit", "sample_size":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for %s: %v", key, val)
			}
			if key == "pg_row_limit" {
				c.PGRowLimit = i
			} else {
				c.SampleSize = i
			}
		case "outlier_sigma":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f < 0 {
				return fmt.Errorf("invalid float for outlier_sigma: %v", val)
			}
			c.OutlierSigma = f
		default:
			return fmt.Errorf("unknown key: %s (use one of %s)", key, strings.Join(cfgpkg.Keys, ", "))
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func configValue(c *cfgpkg.Global, key string) string {
	switch key {
	case "default_technique":
		return c.DefaultTechnique
	case "default_diversity":
		return c.DefaultDiversity
	case "ratio":
		return strconv.FormatFloat(c.Ratio, 'g', -1, 64)
	case "hybrid_ratio":
		return strconv.FormatFloat(c.HybridRatio, 'g', -1, 64)
	case "output_format":
		return c.OutputFormat
	case "data_dir":
		return c.DataDir
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	case "pg_dsn":
		return maskDSN(c.PGDSN)
	case "pg_row_limit":
		return strconv.Itoa(c.PGRowLimit)
	case "sample_size":
		return strconv.Itoa(c.SampleSize)
	case "outlier_sigma":
		return strconv.FormatFloat(c.OutlierSigma, 'g', -1, 64)
	}
	return ""
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// maskDSN hides the password of a postgres:// URL.
func maskDSN(s string) string {
	at := strings.LastIndex(s, "@")
	scheme := strings.Index(s, "://")
	if at < 0 || scheme < 0 {
		return s
	}
	creds := s[scheme+3 : at]
	colon := strings.Index(creds, ":")
	if colon < 0 {
		return s
	}
	return s[:scheme+3] + creds[:colon] + ":****" + s[at:]
}
