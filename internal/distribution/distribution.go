package distribution

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/KaramelBytes/datasmith-cli/internal/dataset"
)

// ErrEmptyDataset is returned when there are no records to analyze.
var ErrEmptyDataset = errors.New("dataset is empty")

// ClassStats holds the size of one class.
type ClassStats struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Class is a labelled ClassStats entry.
type Class struct {
	Label string `json:"label"`
	ClassStats
}

// Distribution maps each class label to its stats.
type Distribution map[string]ClassStats

// Analyze counts records per label of targetColumn. Percentages are rounded to
// one decimal place.
func Analyze(records []dataset.Record, targetColumn string) (Distribution, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	counts := make(map[string]int)
	for _, r := range records {
		counts[dataset.Label(r, targetColumn)]++
	}
	total := float64(len(records))
	d := make(Distribution, len(counts))
	for label, n := range counts {
		d[label] = ClassStats{
			Count:      n,
			Percentage: math.Round(float64(n)/total*1000) / 10,
		}
	}
	return d, nil
}

// Total returns the number of records counted.
func (d Distribution) Total() int {
	n := 0
	for _, s := range d {
		n += s.Count
	}
	return n
}

// Classes returns the classes sorted by count descending, ties broken by label.
func (d Distribution) Classes() []Class {
	out := make([]Class, 0, len(d))
	for label, s := range d {
		out = append(out, Class{Label: label, ClassStats: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Majority returns the largest class. ok is false for an empty distribution.
func (d Distribution) Majority() (Class, bool) {
	cs := d.Classes()
	if len(cs) == 0 {
		return Class{}, false
	}
	return cs[0], true
}

// Minority returns the smallest class. ok is false for an empty distribution.
func (d Distribution) Minority() (Class, bool) {
	cs := d.Classes()
	if len(cs) == 0 {
		return Class{}, false
	}
	return cs[len(cs)-1], true
}

// ImbalanceRatio is majority count over minority count; 1 for a single class
// and 0 for an empty distribution.
func (d Distribution) ImbalanceRatio() float64 {
	maj, ok := d.Majority()
	if !ok {
		return 0
	}
	min, _ := d.Minority()
	return float64(maj.Count) / float64(min.Count)
}

// Severity grades an imbalance ratio.
type Severity string

const (
	SeverityBalanced Severity = "balanced"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Grade maps an imbalance ratio to a severity.
func Grade(ratio float64) Severity {
	switch {
	case ratio < 1.5:
		return SeverityBalanced
	case ratio < 3:
		return SeverityMild
	case ratio < 10:
		return SeverityModerate
	default:
		return SeveritySevere
	}
}

// Summary condenses a distribution into the figures used to pick a technique.
type Summary struct {
	Majority Class    `json:"majority"`
	Minority Class    `json:"minority"`
	Ratio    float64  `json:"ratio"`
	Severity Severity `json:"severity"`
}

// Summarize builds a Summary. It returns ErrEmptyDataset for an empty distribution.
func (d Distribution) Summarize() (Summary, error) {
	maj, ok := d.Majority()
	if !ok {
		return Summary{}, ErrEmptyDataset
	}
	min, _ := d.Minority()
	r := d.ImbalanceRatio()
	return Summary{Majority: maj, Minority: min, Ratio: r, Severity: Grade(r)}, nil
}

// Recommended names the rebalancing technique suited to the severity.
func (s Summary) Recommended() string {
	switch s.Severity {
	case SeverityBalanced:
		return "none"
	case SeverityMild:
		return "undersampling"
	case SeverityModerate:
		return "oversampling"
	default:
		return "hybrid"
	}
}

// DatasetInfo is the display form of a distribution.
type DatasetInfo struct {
	TargetColumn string  `json:"target_column"`
	TotalRecords int     `json:"total_records"`
	Classes      []Class `json:"classes"`
}

// Info returns the display form of d with classes sorted by count descending.
func Info(d Distribution, targetColumn string) DatasetInfo {
	return DatasetInfo{
		TargetColumn: targetColumn,
		TotalRecords: d.Total(),
		Classes:      d.Classes(),
	}
}

// Write renders the class table to w.
func (info DatasetInfo) Write(w io.Writer, title string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	if title != "" {
		t.SetTitle(title)
	}
	t.AppendHeader(table.Row{info.TargetColumn, "COUNT", "PERCENT"})
	for _, c := range info.Classes {
		t.AppendRow(table.Row{c.Label, c.Count, fmt.Sprintf("%5.1f%%", c.Percentage)})
	}
	t.AppendFooter(table.Row{"TOTAL", info.TotalRecords, ""})
	t.Render()
}
