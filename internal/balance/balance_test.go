package balance

import (
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/datasmith-cli/internal/dataset"
	"github.com/KaramelBytes/datasmith-cli/internal/distribution"
)

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// skewed returns 90 "A" and 10 "B" records.
func skewed() []dataset.Record {
	var out []dataset.Record
	for i := 0; i < 90; i++ {
		out = append(out, dataset.Record{"id": int64(i), "score": 10.5 + float64(i), "label": "A"})
	}
	for i := 0; i < 10; i++ {
		out = append(out, dataset.Record{"id": int64(100 + i), "score": 200.25 + float64(i)*3.5, "label": "B"})
	}
	return out
}

func countLabels(records []dataset.Record) map[string]int {
	out := map[string]int{}
	for _, r := range records {
		out[dataset.Label(r, "label")]++
	}
	return out
}

func TestOversampleReachesMajority(t *testing.T) {
	b := New(WithSeed(1), WithLogger(quiet()))
	res, err := b.Oversample(skewed(), "label", "B", "A", 1)
	if err != nil {
		t.Fatalf("Oversample: %v", err)
	}
	if res.MinorityCount != 90 || res.MajorityCount != 90 {
		t.Fatalf("counts = %d/%d, want 90/90", res.MinorityCount, res.MajorityCount)
	}
	if len(res.BalancedData) != 180 {
		t.Fatalf("size = %d, want 180", len(res.BalancedData))
	}
	if res.SyntheticRequested != 80 || res.SyntheticGenerated != 80 || res.Shortfall() != 0 {
		t.Fatalf("synthetic = %d/%d", res.SyntheticGenerated, res.SyntheticRequested)
	}
	synthetic := 0
	for _, r := range res.BalancedData {
		if _, ok := r[dataset.SyntheticIDField]; ok {
			synthetic++
			if r["label"] != "B" {
				t.Fatalf("synthetic record has label %v", r["label"])
			}
		}
	}
	if synthetic != 80 {
		t.Fatalf("synthetic records = %d, want 80", synthetic)
	}
}

func TestUndersampleConservesMinority(t *testing.T) {
	in := skewed()
	b := New(WithSeed(2), WithLogger(quiet()))
	res, err := b.Undersample(in, "label", "B", "A", 1)
	if err != nil {
		t.Fatalf("Undersample: %v", err)
	}
	if res.MinorityCount != 10 || res.MajorityCount != 10 {
		t.Fatalf("counts = %d/%d, want 10/10", res.MinorityCount, res.MajorityCount)
	}
	if len(res.BalancedData) != 2*10 {
		t.Fatalf("size = %d, want 20", len(res.BalancedData))
	}
	kept := map[int64]bool{}
	for _, r := range res.BalancedData {
		kept[r["id"].(int64)] = true
	}
	for _, r := range in[90:] {
		if !kept[r["id"].(int64)] {
			t.Fatalf("minority record %v missing from output", r["id"])
		}
	}
	if len(in) != 100 {
		t.Fatalf("input was modified")
	}
}

func TestUndersampleInterpolatesRatio(t *testing.T) {
	res, err := New(WithSeed(3), WithLogger(quiet())).Undersample(skewed(), "label", "B", "A", 0.5)
	if err != nil {
		t.Fatalf("Undersample: %v", err)
	}
	if res.MajorityCount != 50 {
		t.Fatalf("majority = %d, want 50", res.MajorityCount)
	}
}

func TestHybridMeetsInTheMiddle(t *testing.T) {
	res, err := New(WithSeed(4), WithLogger(quiet())).Hybrid(skewed(), "label", "B", "A", 0.5)
	if err != nil {
		t.Fatalf("Hybrid: %v", err)
	}
	got := countLabels(res.BalancedData)
	if got["A"] != 50 || got["B"] != 50 || len(res.BalancedData) != 100 {
		t.Fatalf("labels = %v, want 50/50", got)
	}
	if res.SyntheticGenerated != 40 {
		t.Fatalf("synthetic = %d, want 40", res.SyntheticGenerated)
	}
}

func TestRebalanceDefaultsAndAutoClasses(t *testing.T) {
	b := New(WithSeed(5), WithLogger(quiet()))
	res, err := b.Rebalance(skewed(), Request{Technique: TechniqueHybrid, TargetColumn: "label"})
	if err != nil {
		t.Fatalf("Rebalance: %v", err)
	}
	if res.MinorityClass != "B" || res.MajorityClass != "A" || res.Ratio != 0.5 {
		t.Fatalf("result = %+v", res)
	}
}

func TestRebalanceNonePassesThrough(t *testing.T) {
	in := skewed()
	res, err := New(WithLogger(quiet())).Rebalance(in, Request{TargetColumn: "label"})
	if err != nil {
		t.Fatalf("Rebalance: %v", err)
	}
	if len(res.BalancedData) != len(in) || res.Technique != TechniqueNone {
		t.Fatalf("passthrough changed the data")
	}
}

func TestRebalanceSingleClass(t *testing.T) {
	in := []dataset.Record{{"label": "A", "x": 1.0}, {"label": "A", "x": 2.0}}
	res, err := New(WithLogger(quiet())).Oversample(in, "label", "", "", 1)
	if err != nil {
		t.Fatalf("Oversample: %v", err)
	}
	if len(res.BalancedData) != 2 || res.MinorityCount != 2 || res.MajorityCount != 2 {
		t.Fatalf("single class result = %+v", res)
	}
}

func TestRebalanceErrors(t *testing.T) {
	b := New(WithLogger(quiet()))
	if _, err := b.Undersample(nil, "label", "B", "A", 1); !errors.Is(err, distribution.ErrEmptyDataset) {
		t.Fatalf("empty err = %v", err)
	}
	_, err := b.Oversample(skewed(), "label", "b", "A", 1)
	var uc *UnknownClassError
	if !errors.As(err, &uc) || uc.Label != "b" {
		t.Fatalf("unknown class err = %v", err)
	}
	for _, r := range []float64{-0.1, 1.5} {
		if _, err := b.Hybrid(skewed(), "label", "B", "A", r); !errors.Is(err, ErrInvalidRatio) {
			t.Fatalf("ratio %v err = %v", r, err)
		}
	}
	if _, err := b.Rebalance(skewed(), Request{Technique: "smote", TargetColumn: "label"}); !errors.Is(err, ErrUnknownTechnique) {
		t.Fatalf("technique err = %v", err)
	}
}

func TestParseTechnique(t *testing.T) {
	cases := map[string]Technique{
		"":              TechniqueNone,
		"under":         TechniqueUndersampling,
		"Oversampling":  TechniqueOversampling,
		"oversample":    TechniqueOversampling,
		"HYBRID":        TechniqueHybrid,
		"undersampling": TechniqueUndersampling,
	}
	for in, want := range cases {
		got, err := ParseTechnique(in)
		if err != nil || got != want {
			t.Errorf("ParseTechnique(%q) = %v,%v want %v", in, got, err, want)
		}
	}
	if _, err := ParseTechnique("smote"); !errors.Is(err, ErrUnknownTechnique) {
		t.Fatalf("err = %v", err)
	}
	if TechniqueHybrid.DefaultRatio() != 0.5 || TechniqueOversampling.DefaultRatio() != 1 {
		t.Fatalf("default ratios mismatch")
	}
}
