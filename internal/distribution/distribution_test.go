package distribution

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/KaramelBytes/datasmith-cli/internal/dataset"
)

func labelled(counts map[string]int) []dataset.Record {
	var out []dataset.Record
	for label, n := range counts {
		for i := 0; i < n; i++ {
			out = append(out, dataset.Record{"label": label, "x": int64(i)})
		}
	}
	return out
}

func TestAnalyzeCountsAndPercentages(t *testing.T) {
	recs := labelled(map[string]int{"A": 2, "B": 1})
	d, err := Analyze(recs, "label")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if d["A"].Count != 2 || d["A"].Percentage != 66.7 {
		t.Fatalf("A = %+v, want {2 66.7}", d["A"])
	}
	if d["B"].Count != 1 || d["B"].Percentage != 33.3 {
		t.Fatalf("B = %+v, want {1 33.3}", d["B"])
	}
	if d.Total() != len(recs) {
		t.Fatalf("total = %d, want %d", d.Total(), len(recs))
	}
	again, _ := Analyze(recs, "label")
	if !reflect.DeepEqual(d, again) {
		t.Fatalf("analyze is not idempotent")
	}
}

func TestAnalyzeMissingAndNullLabels(t *testing.T) {
	recs := []dataset.Record{{"label": nil}, {"other": 1}, {"label": int64(1)}}
	d, err := Analyze(recs, "label")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for _, l := range []string{"null", "undefined", "1"} {
		if d[l].Count != 1 {
			t.Fatalf("%s count = %d, want 1", l, d[l].Count)
		}
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	if _, err := Analyze(nil, "label"); !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("err = %v, want ErrEmptyDataset", err)
	}
}

func TestMajorityMinorityTieBreak(t *testing.T) {
	d, _ := Analyze(labelled(map[string]int{"b": 5, "a": 5, "c": 2, "d": 2}), "label")
	maj, _ := d.Majority()
	min, _ := d.Minority()
	if maj.Label != "a" {
		t.Fatalf("majority = %s, want a", maj.Label)
	}
	if min.Label != "d" {
		t.Fatalf("minority = %s, want d", min.Label)
	}
	if r := d.ImbalanceRatio(); r != 2.5 {
		t.Fatalf("ratio = %v, want 2.5", r)
	}
}

func TestSingleClassRatio(t *testing.T) {
	d, _ := Analyze(labelled(map[string]int{"only": 4}), "label")
	if r := d.ImbalanceRatio(); r != 1 {
		t.Fatalf("ratio = %v, want 1", r)
	}
	s, err := d.Summarize()
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Severity != SeverityBalanced || s.Recommended() != "none" {
		t.Fatalf("summary = %+v", s)
	}
}

func TestGradeAndRecommendation(t *testing.T) {
	cases := []struct {
		ratio float64
		sev   Severity
		tech  string
	}{
		{1.2, SeverityBalanced, "none"},
		{2, SeverityMild, "undersampling"},
		{9, SeverityModerate, "oversampling"},
		{10, SeveritySevere, "hybrid"},
	}
	for _, c := range cases {
		s := Summary{Ratio: c.ratio, Severity: Grade(c.ratio)}
		if s.Severity != c.sev || s.Recommended() != c.tech {
			t.Errorf("ratio %v = %s/%s, want %s/%s", c.ratio, s.Severity, s.Recommended(), c.sev, c.tech)
		}
	}
}

func TestInfoWrite(t *testing.T) {
	d, _ := Analyze(labelled(map[string]int{"yes": 9, "no": 1}), "label")
	info := Info(d, "label")
	if info.Classes[0].Label != "yes" || info.TotalRecords != 10 {
		t.Fatalf("info = %+v", info)
	}
	var buf bytes.Buffer
	info.Write(&buf, "Before")
	out := strings.ToLower(buf.String())
	for _, want := range []string{"before", "yes", "90.0%", "total"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}
