package cmd

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datasmith-cli/internal/dataset"
	"github.com/KaramelBytes/datasmith-cli/internal/distribution"
	"github.com/KaramelBytes/datasmith-cli/internal/history"
	"github.com/KaramelBytes/datasmith-cli/internal/synth"
)

var (
	genInput     inputFlags
	genTarget    string
	genClass     string
	genCount     int
	genDiversity string
	genChunkSize int
	genSeed      int64
	genOutput    string
	genFormat    string
	genAppend    bool
	genQuiet     bool
	genNoHistory bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [file]",
	Short: "Generate synthetic records for one class",
	Long: `Generate synthetic records for --class of --target by perturbing the numeric
fields of real records of that class. Records are produced in chunks; each chunk
avoids duplicating the records of earlier chunks.

Without --count, enough records are generated to match the majority class.`,
	Args: func(cmd *cobra.Command, args []string) error { return genInput.inputArgs(cmd, args) },
	RunE: func(cmd *cobra.Command, args []string) error {
		c := conf()
		out := cmd.OutOrStdout()
		t, err := genInput.load(cmd.Context(), args)
		if err != nil {
			return err
		}
		dist, err := distribution.Analyze(t.Records, genTarget)
		if err != nil {
			return err
		}
		class := genClass
		if class == "" {
			m, _ := dist.Minority()
			class = m.Label
		}
		stats, ok := dist[class]
		if !ok {
			return fmt.Errorf("class %q not found in column %q", class, genTarget)
		}
		count := genCount
		if count <= 0 {
			maj, _ := dist.Majority()
			count = maj.Count - stats.Count
		}
		if count <= 0 {
			fmt.Fprintf(out, "✓ Class %q already matches the majority; nothing to generate\n", class)
			return nil
		}
		divName := genDiversity
		if divName == "" {
			divName = c.DefaultDiversity
		}
		div, err := synth.ParseDiversity(divName)
		if err != nil {
			return err
		}
		chunk := genChunkSize
		if chunk <= 0 {
			chunk = count
		}

		outPath, format, err := resolveOutput(&genInput, args, genOutput, genFormat, "synthetic")
		if err != nil {
			return err
		}

		var pool []dataset.Record
		for _, r := range t.Records {
			if dataset.Label(r, genTarget) == class {
				pool = append(pool, r)
			}
		}

		var tracker *progress.Tracker
		var rendered chan struct{}
		if !genQuiet {
			pw := progress.NewWriter()
			pw.SetOutputWriter(cmd.ErrOrStderr())
			pw.SetAutoStop(true)
			pw.SetMessageLength(30)
			pw.SetStyle(progress.StyleDefault)
			pw.SetTrackerLength(20)
			pw.SetTrackerPosition(progress.PositionRight)
			pw.SetUpdateFrequency(time.Millisecond * 100)
			tracker = &progress.Tracker{
				Message: fmt.Sprintf("Synthesizing %q", class),
				Total:   int64(count),
				Units:   progress.UnitsDefault,
			}
			pw.AppendTracker(tracker)
			rendered = make(chan struct{})
			go func() {
				pw.Render()
				close(rendered)
			}()
		}

		gen := synth.New(synth.WithSeed(genSeed), synth.WithLogger(logger))
		var produced []dataset.Record
		requested := 0
		for requested < count {
			n := chunk
			if rest := count - requested; n > rest {
				n = rest
			}
			res := gen.Run(synth.Request{
				Pool:         pool,
				TargetColumn: genTarget,
				Count:        n,
				Diversity:    div,
				Prior:        produced,
			})
			requested += n
			produced = append(produced, res.Records...)
			if tracker != nil {
				tracker.Increment(int64(n))
			}
		}

		if tracker != nil {
			tracker.MarkAsDone()
			<-rendered
		}

		records := produced
		if genAppend {
			records = append(append([]dataset.Record(nil), t.Records...), produced...)
		}
		if err := dataset.WriteFile(outPath, format, t.Columns, records); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(out, "✓ Generated %d synthetic %q records (%s diversity) → %s\n", len(produced), class, div, outPath)
		if s := count - len(produced); s > 0 {
			fmt.Fprintf(out, "⚠ Generated %d of %d synthetic records (%d short: too few distinct variations)\n", len(produced), count, s)
		}

		if genNoHistory {
			return nil
		}
		run := &history.Run{
			Command:      "generate",
			Diversity:    string(div),
			Input:        genInput.describe(args),
			Output:       outPath,
			TargetColumn: genTarget,
			Minority:     class,
			Before:       counts(dist),
			Requested:    count,
			Generated:    len(produced),
		}
		if genAppend {
			if after, err := distribution.Analyze(records, genTarget); err == nil {
				run.After = counts(after)
			}
		}
		if err := history.NewStore(c.DataDir).Save(run); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: failed to record run: %v\n", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	genInput.register(generateCmd)
	generateCmd.Flags().StringVarP(&genTarget, "target", "t", "", "target (class label) column")
	generateCmd.Flags().StringVar(&genClass, "class", "", "class to synthesize (default: least frequent)")
	generateCmd.Flags().IntVarP(&genCount, "count", "n", 0, "number of records to generate (default: gap to the majority class)")
	generateCmd.Flags().StringVar(&genDiversity, "diversity", "", "low|medium|high (default from config)")
	generateCmd.Flags().IntVar(&genChunkSize, "chunk-size", 100, "records generated per batch call (0 = all at once)")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 0, "random seed for reproducible output (0 = time based)")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "output path (default <input>.synthetic.<ext>)")
	generateCmd.Flags().StringVar(&genFormat, "format", "", "output format: csv|json (default by extension or config)")
	generateCmd.Flags().BoolVar(&genAppend, "append", false, "write the original records followed by the synthetic ones")
	generateCmd.Flags().BoolVarP(&genQuiet, "quiet", "q", false, "disable the progress bar")
	generateCmd.Flags().BoolVar(&genNoHistory, "no-history", false, "do not record this run")
	_ = generateCmd.MarkFlagRequired("target")
}
