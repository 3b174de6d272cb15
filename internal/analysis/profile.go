package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/datasmith-cli/internal/dataset"
	"github.com/KaramelBytes/datasmith-cli/internal/distribution"
	"github.com/KaramelBytes/datasmith-cli/internal/schema"
)

// Options controls profiling of a record set.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// OutlierSigma flags numeric values further than this many standard
	// deviations from the mean. 0 means 3.
	OutlierSigma float64
	// TargetColumn adds a class distribution section when set.
	TargetColumn string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Schema controls type inference.
	Schema schema.Options
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{
		SampleRows:   5,
		OutlierSigma: 3,
		Schema:       schema.DefaultOptions(),
	}
}

// Report is a markdown-friendly profile of a record set.
type Report struct {
	Name       string
	Rows       int
	Duplicates int
	Cols       []ColumnSummary
	Samples    [][]string
	Warnings   []string
	Classes    *ClassSection
	Corr       *CorrMatrix
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    schema.Kind
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Outliers beyond OutlierSigma standard deviations
	Outliers     int
	OutlierSigma float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

type CategoryCount struct {
	Value string
	Count int
}

// ClassSection is the class distribution of the target column.
type ClassSection struct {
	Info    distribution.DatasetInfo
	Summary distribution.Summary
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// Profile summarises records column by column.
func Profile(name string, records []dataset.Record, opt Options) *Report {
	rep := &Report{Name: name, Rows: len(records)}
	if len(records) == 0 {
		rep.Warnings = append(rep.Warnings, "dataset has no rows")
		return rep
	}
	sigma := opt.OutlierSigma
	if sigma <= 0 {
		sigma = 3
	}
	sampleRows := opt.SampleRows
	if sampleRows <= 0 {
		sampleRows = 5
	}

	cols := dataset.Columns(records)
	sch := dataset.InferSchema(records, opt.Schema)
	for _, c := range sch.Columns {
		rep.Cols = append(rep.Cols, summarize(c, records, sigma))
	}

	rep.Duplicates = countDuplicates(records)
	if rep.Duplicates > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d duplicate rows", rep.Duplicates))
	}
	for _, c := range rep.Cols {
		if c.Kind == schema.KindEmpty {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %s is empty", safeName(c.Name)))
		}
	}

	for i := 0; i < len(records) && i < sampleRows; i++ {
		row := make([]string, len(cols))
		for j, c := range cols {
			if v := records[i][c]; v != nil {
				row[j] = dataset.FormatValue(v)
			}
		}
		rep.Samples = append(rep.Samples, row)
	}

	if opt.TargetColumn != "" {
		if d, err := distribution.Analyze(records, opt.TargetColumn); err == nil {
			s, _ := d.Summarize()
			rep.Classes = &ClassSection{Info: distribution.Info(d, opt.TargetColumn), Summary: s}
			if d["undefined"].Count == len(records) {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("target column %s not found", opt.TargetColumn))
			}
		}
	}

	if opt.Correlations {
		rep.Corr = correlations(sch.NumericColumns(), records)
	}
	return rep
}

func summarize(c schema.Column, records []dataset.Record, sigma float64) ColumnSummary {
	s := ColumnSummary{Name: c.Name, Kind: c.Kind}
	counts := map[string]int{}
	var vals []float64
	for _, r := range records {
		v := r[c.Name]
		if v == nil {
			s.Missing++
			continue
		}
		if str, ok := v.(string); ok && strings.TrimSpace(str) == "" {
			s.Missing++
			continue
		}
		s.NonNull++
		counts[dataset.FormatValue(v)]++
		if f, ok := dataset.Numeric(v); ok {
			vals = append(vals, f)
		}
	}
	s.Unique = len(counts)

	switch {
	case c.Kind.Numeric() && len(vals) > 0:
		s.Mean, s.Std = stat.MeanStdDev(vals, nil)
		if len(vals) < 2 {
			s.Std = 0
		}
		s.Min, s.Max = vals[0], vals[0]
		for _, v := range vals {
			s.Min = math.Min(s.Min, v)
			s.Max = math.Max(s.Max, v)
		}
		s.OutlierSigma = sigma
		if s.Std > 0 {
			for _, v := range vals {
				if math.Abs(v-s.Mean) > sigma*s.Std {
					s.Outliers++
				}
			}
		}
	case c.Kind == schema.KindText:
		for _, r := range records {
			if str, ok := r[c.Name].(string); ok && str != "" {
				s.ExampleTexts = append(s.ExampleTexts, str)
				if len(s.ExampleTexts) == 3 {
					break
				}
			}
		}
	case c.Kind != schema.KindEmpty:
		tops := make([]CategoryCount, 0, len(counts))
		for k, v := range counts {
			tops = append(tops, CategoryCount{Value: k, Count: v})
		}
		sort.Slice(tops, func(i, j int) bool {
			if tops[i].Count == tops[j].Count {
				return tops[i].Value < tops[j].Value
			}
			return tops[i].Count > tops[j].Count
		})
		if len(tops) > 8 {
			tops = tops[:8]
		}
		s.TopValues = tops
	}
	return s
}

// countDuplicates counts rows whose canonical JSON matches an earlier row.
func countDuplicates(records []dataset.Record) int {
	seen := make(map[string]struct{}, len(records))
	dups := 0
	for _, r := range records {
		b, err := json.Marshal(r)
		key := string(b)
		if err != nil {
			key = fmt.Sprint(r)
		}
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}

// correlations uses rows where every numeric column has a value.
func correlations(columns []string, records []dataset.Record) *CorrMatrix {
	if len(columns) < 2 {
		return nil
	}
	data := make([][]float64, len(columns))
	for _, r := range records {
		row := make([]float64, len(columns))
		complete := true
		for i, c := range columns {
			f, ok := dataset.Numeric(r[c])
			if !ok {
				complete = false
				break
			}
			row[i] = f
		}
		if !complete {
			continue
		}
		for i := range columns {
			data[i] = append(data[i], row[i])
		}
	}
	if len(data[0]) < 2 {
		return nil
	}
	n := len(columns)
	mat := make([][]float64, n)
	for a := range mat {
		mat[a] = make([]float64, n)
		for b := range mat[a] {
			if a == b {
				mat[a][b] = 1
				continue
			}
			r := stat.Correlation(data[a], data[b], nil)
			if math.IsNaN(r) || math.IsInf(r, 0) {
				r = 0
			}
			mat[a][b] = r
		}
	}
	return &CorrMatrix{Columns: columns, Values: mat}
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(r.Cols)))
	b.WriteString(fmt.Sprintf("Duplicate rows: %d\n\n", r.Duplicates))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%, unique %d)", safeName(c.Name), c.Kind, c.NonNull, missPct, c.Unique))
		switch {
		case c.Kind.Numeric():
			b.WriteString(fmt.Sprintf(": min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			if c.OutlierSigma > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d beyond %.1fσ", c.Outliers, c.OutlierSigma))
			}
		case len(c.TopValues) > 0:
			b.WriteString(": top ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
		case len(c.ExampleTexts) > 0:
			b.WriteString(": e.g., ")
			for i, ex := range c.ExampleTexts {
				if i > 0 {
					b.WriteString(" | ")
				}
				b.WriteString(safeVal(ex))
			}
		}
		b.WriteString("\n")
	}

	if r.Classes != nil {
		b.WriteString("\n[CLASS DISTRIBUTION]\n")
		b.WriteString(fmt.Sprintf("Target: %s\n", r.Classes.Info.TargetColumn))
		for _, c := range r.Classes.Info.Classes {
			b.WriteString(fmt.Sprintf("- %s: %d (%.1f%%)\n", safeVal(c.Label), c.Count, c.Percentage))
		}
		s := r.Classes.Summary
		b.WriteString(fmt.Sprintf("Imbalance ratio: %.2f (%s); recommended technique: %s\n", s.Ratio, s.Severity, s.Recommended()))
	}

	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		type pr struct {
			A, B string
			R    float64
		}
		var pairs []pr
		n := len(r.Corr.Columns)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, pr{A: r.Corr.Columns[i], B: r.Corr.Columns[j], R: r.Corr.Values[i][j]})
			}
		}
		sort.Slice(pairs, func(i, j int) bool {
			ai := math.Abs(pairs[i].R)
			aj := math.Abs(pairs[j].R)
			if ai == aj {
				return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
			}
			return ai > aj
		})
		if len(pairs) > 10 {
			pairs = pairs[:10]
		}
		for _, p := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
