package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datasmith-cli/internal/analysis"
	"github.com/KaramelBytes/datasmith-cli/internal/utils"
)

var (
	anaInput      inputFlags
	anaOutputPath string
	anaTarget     string
	anaSampleRows int
	anaCorr       bool
	anaOutlierSig float64
	anaSchemaRows int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Profile a CSV/TSV/JSON dataset and produce a concise summary",
	Long: `Profile a dataset: inferred column types, missing values, numeric statistics
with outlier counts, top categories, duplicate rows and sample rows.
With --target the class distribution and imbalance severity are included.`,
	Args: func(cmd *cobra.Command, args []string) error { return anaInput.inputArgs(cmd, args) },
	RunE: func(cmd *cobra.Command, args []string) error {
		c := conf()
		t, err := anaInput.load(cmd.Context(), args)
		if err != nil {
			return err
		}

		opt := analysis.DefaultOptions()
		opt.SampleRows = anaSampleRows
		opt.TargetColumn = anaTarget
		opt.Correlations = anaCorr
		opt.OutlierSigma = c.OutlierSigma
		if cmd.Flags().Changed("outlier-sigma") {
			opt.OutlierSigma = anaOutlierSig
		}
		opt.Schema.SampleSize = c.SampleSize
		if cmd.Flags().Changed("schema-sample") {
			opt.Schema.SampleSize = anaSchemaRows
		}

		name := t.Name
		if anaInput.pgQuery != "" {
			name = anaInput.describe(args)
		}
		md := analysis.Profile(name, t.Records, opt).Markdown()

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaInput.register(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write analysis (Markdown)")
	analyzeCmd.Flags().StringVarP(&anaTarget, "target", "t", "", "target column for the class distribution section")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 5, "number of sample rows to include")
	analyzeCmd.Flags().BoolVar(&anaCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	analyzeCmd.Flags().Float64Var(&anaOutlierSig, "outlier-sigma", 3, "flag numeric values beyond this many standard deviations (default from config)")
	analyzeCmd.Flags().IntVar(&anaSchemaRows, "schema-sample", 100, "values inspected per column for type inference (0 = all; default from config)")
}
