package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datasmith-cli/internal/dataset"
	"github.com/KaramelBytes/datasmith-cli/internal/schema"
	"github.com/KaramelBytes/datasmith-cli/internal/timeseries"
)

var (
	tsStart    string
	tsInterval time.Duration
	tsPoints   int
	tsBase     float64
	tsTrend    float64
	tsAmp      float64
	tsPeriod   float64
	tsNoise    float64
	tsSeed     int64
	tsOutput   string
	tsFormat   string
)

var timeseriesCmd = &cobra.Command{
	Use:   "timeseries",
	Short: "Generate a synthetic time series (trend + seasonality + noise)",
	Long: `Generate a series where value = base + trend*i + amplitude*sin(2πi/period) + noise.
Writes CSV or JSON to --output, or CSV to stdout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := timeseries.DefaultOptions()
		if tsStart != "" {
			start, ok := schema.ParseDate(tsStart)
			if !ok {
				return fmt.Errorf("invalid --start: %s (use YYYY-MM-DD or RFC 3339)", tsStart)
			}
			opt.Start = start
		}
		opt.Interval = tsInterval
		opt.Points = tsPoints
		opt.Base = tsBase
		opt.Trend = tsTrend
		opt.Amplitude = tsAmp
		opt.Period = tsPeriod
		opt.Noise = tsNoise
		opt.Seed = tsSeed

		points, err := timeseries.Generate(opt)
		if err != nil {
			return err
		}
		records := timeseries.Records(points)

		if tsOutput == "" {
			if outputFormat(tsFormat) == dataset.FormatJSON {
				return dataset.WriteJSON(cmd.OutOrStdout(), records)
			}
			return dataset.WriteCSV(cmd.OutOrStdout(), timeseries.Columns, records)
		}
		if err := dataset.WriteFile(tsOutput, outputFormat(tsFormat), timeseries.Columns, records); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d points to %s\n", len(points), tsOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(timeseriesCmd)
	def := timeseries.DefaultOptions()
	timeseriesCmd.Flags().StringVar(&tsStart, "start", "", "first timestamp (default 2024-01-01)")
	timeseriesCmd.Flags().DurationVar(&tsInterval, "interval", def.Interval, "spacing between points")
	timeseriesCmd.Flags().IntVarP(&tsPoints, "points", "n", def.Points, "number of points")
	timeseriesCmd.Flags().Float64Var(&tsBase, "base", def.Base, "base level")
	timeseriesCmd.Flags().Float64Var(&tsTrend, "trend", def.Trend, "increase per point")
	timeseriesCmd.Flags().Float64Var(&tsAmp, "amplitude", def.Amplitude, "seasonal amplitude")
	timeseriesCmd.Flags().Float64Var(&tsPeriod, "period", def.Period, "seasonal period in points (0 disables)")
	timeseriesCmd.Flags().Float64Var(&tsNoise, "noise", def.Noise, "standard deviation of Gaussian noise")
	timeseriesCmd.Flags().Int64Var(&tsSeed, "seed", 0, "random seed for reproducible output (0 = time based)")
	timeseriesCmd.Flags().StringVarP(&tsOutput, "output", "o", "", "output path (default: CSV to stdout)")
	timeseriesCmd.Flags().StringVar(&tsFormat, "format", "", "output format: csv|json (default by extension or config)")
}
