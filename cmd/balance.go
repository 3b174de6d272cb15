package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datasmith-cli/internal/balance"
	"github.com/KaramelBytes/datasmith-cli/internal/dataset"
	"github.com/KaramelBytes/datasmith-cli/internal/distribution"
	"github.com/KaramelBytes/datasmith-cli/internal/history"
)

var (
	balInput     inputFlags
	balTarget    string
	balTechnique string
	balMinority  string
	balMajority  string
	balRatio     float64
	balSeed      int64
	balOutput    string
	balFormat    string
	balNoHistory bool
)

var balanceCmd = &cobra.Command{
	Use:   "balance [file]",
	Short: "Rebalance a dataset on a target column",
	Long: `Rebalance the minority and majority classes of --target.

Techniques:
  undersampling  keep every minority record and a random subset of the majority
  oversampling   keep every record and add synthetic minority records
  hybrid         meet in the middle: sample the majority, synthesize the minority
  none           write the dataset unchanged
  auto           use the technique recommended for the detected severity

--ratio moves the classes toward each other: 1 fully balances, 0.5 closes half the gap.`,
	Args: func(cmd *cobra.Command, args []string) error { return balInput.inputArgs(cmd, args) },
	RunE: func(cmd *cobra.Command, args []string) error {
		c := conf()
		out := cmd.OutOrStdout()
		t, err := balInput.load(cmd.Context(), args)
		if err != nil {
			return err
		}
		before, err := distribution.Analyze(t.Records, balTarget)
		if err != nil {
			return err
		}

		name := balTechnique
		if name == "" {
			name = c.DefaultTechnique
		}
		if strings.EqualFold(strings.TrimSpace(name), "auto") {
			sum, err := before.Summarize()
			if err != nil {
				return err
			}
			name = sum.Recommended()
			fmt.Fprintf(out, "Imbalance ratio %.2f (%s): using %s\n", sum.Ratio, sum.Severity, name)
		}
		tech, err := balance.ParseTechnique(name)
		if err != nil {
			return err
		}
		ratio := balRatio
		if !cmd.Flags().Changed("ratio") {
			ratio = c.Ratio
			if tech == balance.TechniqueHybrid {
				ratio = c.HybridRatio
			}
		}

		outPath, format, err := resolveOutput(&balInput, args, balOutput, balFormat, "balanced")
		if err != nil {
			return err
		}

		rb := balance.New(balance.WithSeed(balSeed), balance.WithLogger(logger))
		res, err := rb.Rebalance(t.Records, balance.Request{
			Technique:     tech,
			TargetColumn:  balTarget,
			MinorityClass: balMinority,
			MajorityClass: balMajority,
			Ratio:         ratio,
		})
		if err != nil {
			return err
		}
		after, err := distribution.Analyze(res.BalancedData, balTarget)
		if err != nil {
			return err
		}

		if err := dataset.WriteFile(outPath, format, t.Columns, res.BalancedData); err != nil {
			return fmt.Errorf("write output: %w", err)
		}

		distribution.Info(before, balTarget).Write(out, "Before")
		distribution.Info(after, balTarget).Write(out, "After")
		fmt.Fprintf(out, "✓ %s: %s %d, %s %d (%d → %d records) → %s\n",
			res.Technique, res.MinorityClass, res.MinorityCount, res.MajorityClass, res.MajorityCount,
			len(t.Records), len(res.BalancedData), outPath)
		if s := res.Shortfall(); s > 0 {
			fmt.Fprintf(out, "⚠ Generated %d of %d synthetic records (%d short: too few distinct variations)\n",
				res.SyntheticGenerated, res.SyntheticRequested, s)
		}

		if balNoHistory {
			return nil
		}
		run := &history.Run{
			Command:      "balance",
			Technique:    string(res.Technique),
			Input:        balInput.describe(args),
			Output:       outPath,
			TargetColumn: balTarget,
			Minority:     res.MinorityClass,
			Majority:     res.MajorityClass,
			Ratio:        res.Ratio,
			Before:       counts(before),
			After:        counts(after),
			Requested:    res.SyntheticRequested,
			Generated:    res.SyntheticGenerated,
		}
		if err := history.NewStore(c.DataDir).Save(run); err != nil {
			// Non-fatal: the balanced dataset was already written
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: failed to record run: %v\n", err)
		}
		return nil
	},
}

func counts(d distribution.Distribution) map[string]int {
	m := make(map[string]int, len(d))
	for label, s := range d {
		m[label] = s.Count
	}
	return m
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balInput.register(balanceCmd)
	balanceCmd.Flags().StringVarP(&balTarget, "target", "t", "", "target (class label) column")
	balanceCmd.Flags().StringVar(&balTechnique, "technique", "", "undersampling|oversampling|hybrid|none|auto (default from config)")
	balanceCmd.Flags().StringVar(&balMinority, "minority", "", "minority class label (default: least frequent)")
	balanceCmd.Flags().StringVar(&balMajority, "majority", "", "majority class label (default: most frequent)")
	balanceCmd.Flags().Float64Var(&balRatio, "ratio", 0, "balancing ratio in (0,1] (default from config)")
	balanceCmd.Flags().Int64Var(&balSeed, "seed", 0, "random seed for reproducible output (0 = time based)")
	balanceCmd.Flags().StringVarP(&balOutput, "output", "o", "", "output path (default <input>.balanced.<ext>)")
	balanceCmd.Flags().StringVar(&balFormat, "format", "", "output format: csv|json (default by extension or config)")
	balanceCmd.Flags().BoolVar(&balNoHistory, "no-history", false, "do not record this run")
	_ = balanceCmd.MarkFlagRequired("target")
}
