package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datasmith-cli/internal/dataset"
	"github.com/KaramelBytes/datasmith-cli/internal/source"
)

// inputFlags are shared by the commands that read a dataset.
type inputFlags struct {
	pgQuery   string
	pgDSN     string
	delimiter string
	maxRows   int
}

func (f *inputFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.pgQuery, "pg-query", "", "read the dataset from a PostgreSQL SELECT instead of a file")
	c.Flags().StringVar(&f.pgDSN, "pg-dsn", "", "PostgreSQL connection string (overrides config pg_dsn)")
	c.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (default by extension)")
	c.Flags().IntVar(&f.maxRows, "max-rows", 0, "limit rows read (0 = unlimited)")
}

// inputArgs accepts one file argument, or none when --pg-query is set.
func (f *inputFlags) inputArgs(cmd *cobra.Command, args []string) error {
	if f.pgQuery != "" {
		return cobra.NoArgs(cmd, args)
	}
	return cobra.ExactArgs(1)(cmd, args)
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|":
		return '|', nil
	}
	return 0, fmt.Errorf("unsupported --delimiter: %s", s)
}

// load reads the dataset named by args or by --pg-query.
func (f *inputFlags) load(ctx context.Context, args []string) (*dataset.Table, error) {
	c := conf()
	opt := dataset.DefaultLoadOptions()
	opt.MaxRows = f.maxRows
	if f.pgQuery != "" {
		dsn := f.pgDSN
		if dsn == "" {
			dsn = c.PGDSN
		}
		limit := c.PGRowLimit
		if f.maxRows > 0 {
			limit = f.maxRows
		}
		db, err := source.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		logger.WithField("limit", limit).Debug("querying postgres")
		return source.Query(ctx, db, f.pgQuery, limit, opt.Schema)
	}
	d, err := parseDelimiter(f.delimiter)
	if err != nil {
		return nil, err
	}
	opt.Delimiter = d
	t, err := dataset.LoadFile(args[0], opt)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{"file": args[0], "rows": len(t.Records), "columns": len(t.Columns)}).Debug("loaded dataset")
	return t, nil
}

// describe names the input for messages and history.
func (f *inputFlags) describe(args []string) string {
	if f.pgQuery != "" {
		return "postgres: " + strings.TrimSpace(f.pgQuery)
	}
	return args[0]
}

// outputFormat resolves --format, then config output_format.
func outputFormat(flag string) string {
	if flag != "" {
		return flag
	}
	return conf().OutputFormat
}

// defaultOutputPath derives "<base>.<suffix>.<ext>" next to the input.
func defaultOutputPath(f *inputFlags, args []string, suffix, format string) string {
	if f.pgQuery != "" {
		ext := ".csv"
		if strings.EqualFold(format, dataset.FormatJSON) {
			ext = ".json"
		}
		return "postgres." + suffix + ext
	}
	in := args[0]
	ext := filepath.Ext(in)
	switch strings.ToLower(format) {
	case dataset.FormatCSV:
		ext = ".csv"
	case dataset.FormatJSON:
		ext = ".json"
	}
	if strings.EqualFold(ext, ".tsv") {
		ext = ".csv"
	}
	return strings.TrimSuffix(in, filepath.Ext(in)) + "." + suffix + ext
}

// resolveOutput picks the output path and format. Without --output the file is
// written next to the input in the input's format unless --format says otherwise.
func resolveOutput(f *inputFlags, args []string, output, formatFlag, suffix string) (string, string, error) {
	hint := output
	if hint == "" && f.pgQuery == "" {
		hint = args[0]
	}
	format, err := dataset.FormatFor(hint, outputFormat(formatFlag))
	if err != nil {
		return "", "", err
	}
	if output == "" {
		output = defaultOutputPath(f, args, suffix, format)
	}
	return output, format, nil
}
