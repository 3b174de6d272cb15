package balance

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/datasmith-cli/internal/dataset"
	"github.com/KaramelBytes/datasmith-cli/internal/distribution"
	"github.com/KaramelBytes/datasmith-cli/internal/synth"
)

// Technique selects how classes are rebalanced.
type Technique string

const (
	TechniqueNone          Technique = "none"
	TechniqueUndersampling Technique = "undersampling"
	TechniqueOversampling  Technique = "oversampling"
	TechniqueHybrid        Technique = "hybrid"
)

var (
	// ErrInvalidRatio is returned for a ratio outside (0, 1].
	ErrInvalidRatio = errors.New("ratio must be in (0, 1]")
	// ErrUnknownTechnique is returned by ParseTechnique and Rebalance.
	ErrUnknownTechnique = errors.New("unknown technique")
)

// UnknownClassError reports a class label absent from the data.
type UnknownClassError struct {
	Column string
	Label  string
}

func (e *UnknownClassError) Error() string {
	return fmt.Sprintf("class %q not found in column %q", e.Label, e.Column)
}

// ParseTechnique accepts the technique names and their short forms.
func ParseTechnique(s string) (Technique, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return TechniqueNone, nil
	case "undersampling", "undersample", "under":
		return TechniqueUndersampling, nil
	case "oversampling", "oversample", "over":
		return TechniqueOversampling, nil
	case "hybrid":
		return TechniqueHybrid, nil
	}
	return "", fmt.Errorf("%w: %q (use none|undersampling|oversampling|hybrid)", ErrUnknownTechnique, s)
}

// DefaultRatio is 0.5 for hybrid and 1 otherwise.
func (t Technique) DefaultRatio() float64 {
	if t == TechniqueHybrid {
		return 0.5
	}
	return 1
}

// Request describes one rebalancing call. Empty class labels are picked from
// the distribution; a zero Ratio means the technique default.
type Request struct {
	Technique     Technique
	TargetColumn  string
	MinorityClass string
	MajorityClass string
	Ratio         float64
}

// Result is a rebalanced dataset. Counts are measured on BalancedData.
type Result struct {
	OriginalData       []dataset.Record `json:"-"`
	BalancedData       []dataset.Record `json:"-"`
	MinorityClass      string           `json:"minority_class"`
	MajorityClass      string           `json:"majority_class"`
	MinorityCount      int              `json:"minority_count"`
	MajorityCount      int              `json:"majority_count"`
	TargetColumn       string           `json:"target_column"`
	Technique          Technique        `json:"technique"`
	Ratio              float64          `json:"ratio"`
	SyntheticRequested int              `json:"synthetic_requested"`
	SyntheticGenerated int              `json:"synthetic_generated"`
}

// Shortfall is how many synthetic records could not be produced.
func (r *Result) Shortfall() int {
	if n := r.SyntheticRequested - r.SyntheticGenerated; n > 0 {
		return n
	}
	return 0
}

// Rebalancer undersamples and oversamples classes.
type Rebalancer struct {
	gen    *synth.Generator
	rng    *rand.Rand
	logger *logrus.Logger
	seed   int64
}

// Option configures a Rebalancer.
type Option func(*Rebalancer)

// WithGenerator sets the synthetic record generator.
func WithGenerator(g *synth.Generator) Option {
	return func(r *Rebalancer) { r.gen = g }
}

// WithSeed seeds both the sampler and, unless set separately, the generator.
// A zero seed uses the current time.
func WithSeed(seed int64) Option {
	return func(r *Rebalancer) { r.seed = seed }
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Logger) Option {
	return func(r *Rebalancer) { r.logger = l }
}

// New returns a Rebalancer.
func New(opts ...Option) *Rebalancer {
	r := &Rebalancer{}
	for _, o := range opts {
		o(r)
	}
	if r.seed == 0 {
		r.seed = time.Now().UnixNano()
	}
	r.rng = rand.New(rand.NewSource(r.seed))
	if r.logger == nil {
		r.logger = logrus.New()
	}
	if r.gen == nil {
		r.gen = synth.New(synth.WithSeed(r.seed+1), synth.WithLogger(r.logger))
	}
	return r
}

// Undersample is Rebalance with TechniqueUndersampling.
func (b *Rebalancer) Undersample(records []dataset.Record, targetColumn, minorityClass, majorityClass string, ratio float64) (*Result, error) {
	return b.Rebalance(records, Request{TechniqueUndersampling, targetColumn, minorityClass, majorityClass, ratio})
}

// Oversample is Rebalance with TechniqueOversampling.
func (b *Rebalancer) Oversample(records []dataset.Record, targetColumn, minorityClass, majorityClass string, ratio float64) (*Result, error) {
	return b.Rebalance(records, Request{TechniqueOversampling, targetColumn, minorityClass, majorityClass, ratio})
}

// Hybrid is Rebalance with TechniqueHybrid.
func (b *Rebalancer) Hybrid(records []dataset.Record, targetColumn, minorityClass, majorityClass string, ratio float64) (*Result, error) {
	return b.Rebalance(records, Request{TechniqueHybrid, targetColumn, minorityClass, majorityClass, ratio})
}

// Rebalance applies req.Technique to records. The input slice is not modified.
func (b *Rebalancer) Rebalance(records []dataset.Record, req Request) (*Result, error) {
	dist, err := distribution.Analyze(records, req.TargetColumn)
	if err != nil {
		return nil, err
	}
	tech := req.Technique
	switch tech {
	case "":
		tech = TechniqueNone
	case TechniqueNone, TechniqueUndersampling, TechniqueOversampling, TechniqueHybrid:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTechnique, tech)
	}
	ratio := req.Ratio
	if ratio == 0 {
		ratio = tech.DefaultRatio()
	}
	if math.IsNaN(ratio) || ratio <= 0 || ratio > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidRatio, req.Ratio)
	}
	minLabel, majLabel, err := pickClasses(dist, req)
	if err != nil {
		return nil, err
	}

	var minority, majority []dataset.Record
	for _, r := range records {
		switch dataset.Label(r, req.TargetColumn) {
		case minLabel:
			minority = append(minority, r)
		case majLabel:
			majority = append(majority, r)
		}
	}
	minN, majN := len(minority), len(majority)

	res := &Result{
		OriginalData:  records,
		MinorityClass: minLabel,
		MajorityClass: majLabel,
		TargetColumn:  req.TargetColumn,
		Technique:     tech,
		Ratio:         ratio,
	}

	switch {
	case tech == TechniqueNone, minLabel == majLabel:
		// a single class is already balanced
		res.BalancedData = append([]dataset.Record(nil), records...)
	case tech == TechniqueUndersampling:
		target := int(math.Round(float64(majN) - ratio*float64(majN-minN)))
		res.BalancedData = append(append([]dataset.Record(nil), minority...), b.sample(majority, target)...)
	case tech == TechniqueOversampling:
		target := int(math.Round(float64(minN) + ratio*float64(majN-minN)))
		synthetic := b.synthesize(res, minority, target-minN)
		res.BalancedData = append(append([]dataset.Record(nil), records...), synthetic...)
	case tech == TechniqueHybrid:
		target := int(math.Round(float64(minN) + ratio*float64(majN-minN)))
		out := b.sample(majority, target)
		out = append(out, minority...)
		res.BalancedData = append(out, b.synthesize(res, minority, target-minN)...)
	}

	for _, r := range res.BalancedData {
		l := dataset.Label(r, req.TargetColumn)
		if l == minLabel {
			res.MinorityCount++
		}
		if l == majLabel {
			res.MajorityCount++
		}
	}
	b.logger.WithFields(logrus.Fields{
		"technique": tech,
		"minority":  minLabel,
		"majority":  majLabel,
		"before":    len(records),
		"after":     len(res.BalancedData),
	}).Debug("rebalanced dataset")
	return res, nil
}

func pickClasses(dist distribution.Distribution, req Request) (string, string, error) {
	minLabel, majLabel := req.MinorityClass, req.MajorityClass
	if minLabel == "" {
		c, _ := dist.Minority()
		minLabel = c.Label
	}
	if majLabel == "" {
		c, _ := dist.Majority()
		majLabel = c.Label
	}
	for _, l := range []string{minLabel, majLabel} {
		if _, ok := dist[l]; !ok {
			return "", "", &UnknownClassError{Column: req.TargetColumn, Label: l}
		}
	}
	return minLabel, majLabel, nil
}

// sample returns up to n records from a shuffled copy of records.
func (b *Rebalancer) sample(records []dataset.Record, n int) []dataset.Record {
	if n <= 0 {
		return []dataset.Record{}
	}
	out := append([]dataset.Record(nil), records...)
	b.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if n < len(out) {
		out = out[:n]
	}
	return out
}

func (b *Rebalancer) synthesize(res *Result, pool []dataset.Record, n int) []dataset.Record {
	if n <= 0 {
		return nil
	}
	gen := b.gen.Run(synth.Request{
		Pool:         pool,
		TargetColumn: res.TargetColumn,
		Count:        n,
		Diversity:    synth.DiversityMedium,
	})
	res.SyntheticRequested += gen.Requested
	res.SyntheticGenerated += len(gen.Records)
	if s := gen.Shortfall(); s > 0 {
		b.logger.WithFields(logrus.Fields{
			"class":     res.MinorityClass,
			"requested": gen.Requested,
			"shortfall": s,
		}).Warn("rebalanced dataset is short of synthetic records")
	}
	return gen.Records
}
