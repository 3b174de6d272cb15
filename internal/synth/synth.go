package synth

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/datasmith-cli/internal/dataset"
)

// Diversity bounds how far a synthetic value may drift from its base value.
type Diversity string

const (
	DiversityLow    Diversity = "low"
	DiversityMedium Diversity = "medium"
	DiversityHigh   Diversity = "high"
)

// Factor returns the perturbation bound for d. Unknown values fall back to medium.
func (d Diversity) Factor() float64 {
	switch d {
	case DiversityLow:
		return 0.05
	case DiversityHigh:
		return 0.25
	default:
		return 0.15
	}
}

// ParseDiversity validates a diversity name. Empty input means medium.
func ParseDiversity(s string) (Diversity, error) {
	switch d := Diversity(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DiversityMedium, nil
	case DiversityLow, DiversityMedium, DiversityHigh:
		return d, nil
	}
	return "", fmt.Errorf("unknown diversity %q (use low|medium|high)", s)
}

// attemptFactor caps attempts at this multiple of the requested count.
const attemptFactor = 3

// maxJitter is the largest magnitude of the extra jitter term.
const maxJitter = 0.02

// Request describes one generation call.
type Request struct {
	// Pool holds the base records synthetic records are derived from.
	Pool         []dataset.Record
	TargetColumn string
	Count        int
	Diversity    Diversity
	// Prior holds records produced by earlier calls of the same batch. Their
	// fingerprints are reserved and ids continue after them.
	Prior []dataset.Record
}

// Result is the outcome of Run.
type Result struct {
	Records   []dataset.Record
	Requested int
	Attempts  int
}

// Shortfall is how many requested records could not be produced.
func (r Result) Shortfall() int {
	if n := r.Requested - len(r.Records); n > 0 {
		return n
	}
	return 0
}

// Generator derives synthetic records from a pool of real ones.
type Generator struct {
	rng    *rand.Rand
	logger *logrus.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand sets the random source.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rng = r }
}

// WithSeed seeds the random source. A zero seed uses the current time.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// New returns a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{}
	for _, o := range opts {
		o(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if g.logger == nil {
		g.logger = logrus.New()
	}
	return g
}

// Generate produces up to count synthetic records from pool.
func (g *Generator) Generate(pool []dataset.Record, targetColumn string, count int, diversity Diversity) []dataset.Record {
	return g.Run(Request{Pool: pool, TargetColumn: targetColumn, Count: count, Diversity: diversity}).Records
}

// Run produces up to req.Count records whose fingerprints are unique among
// themselves and req.Prior. It gives up after three attempts per requested record.
func (g *Generator) Run(req Request) Result {
	res := Result{Records: []dataset.Record{}, Requested: req.Count}
	if len(req.Pool) == 0 || req.Count <= 0 {
		if req.Count < 0 {
			res.Requested = 0
		}
		return res
	}
	delta := req.Diversity.Factor()
	seen := make(map[string]struct{}, len(req.Prior)+req.Count)
	for _, p := range req.Prior {
		seen[Fingerprint(p, req.TargetColumn)] = struct{}{}
	}

	maxAttempts := attemptFactor * req.Count
	for res.Attempts < maxAttempts && len(res.Records) < req.Count {
		res.Attempts++
		produced := len(res.Records)
		base := req.Pool[g.rng.Intn(len(req.Pool))]
		rec := dataset.Clone(base)
		rec[dataset.SyntheticIDField] = fmt.Sprintf("syn_%d", len(req.Prior)+produced+1)

		for _, k := range numericKeys(rec, req.TargetColumn) {
			rec[k] = g.perturb(rec[k], delta, produced)
		}

		fp := Fingerprint(rec, req.TargetColumn)
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		res.Records = append(res.Records, rec)
	}

	if n := res.Shortfall(); n > 0 {
		g.logger.WithFields(logrus.Fields{
			"requested": res.Requested,
			"generated": len(res.Records),
			"attempts":  res.Attempts,
			"shortfall": n,
		}).Warn("synthetic generation under-delivered")
	} else {
		g.logger.WithFields(logrus.Fields{
			"generated": len(res.Records),
			"attempts":  res.Attempts,
		}).Debug("synthetic generation complete")
	}
	return res
}

// perturb applies old + old*(delta_random + extra_random). The jitter grows with
// produced%10 and never exceeds maxJitter in magnitude.
func (g *Generator) perturb(v any, delta float64, produced int) any {
	old, _ := dataset.Numeric(v)
	d := (g.rng.Float64()*2 - 1) * delta
	extra := (g.rng.Float64()*2 - 1) * maxJitter * float64(1+produced%10) / 10
	nv := old + old*(d+extra)

	switch x := v.(type) {
	case int:
		return int(math.Round(nv))
	case int8:
		return int8(math.Round(nv))
	case int16:
		return int16(math.Round(nv))
	case int32:
		return int32(math.Round(nv))
	case int64:
		return int64(math.Round(nv))
	case uint:
		return uint(unsigned(nv))
	case uint8:
		return uint8(unsigned(nv))
	case uint16:
		return uint16(unsigned(nv))
	case uint32:
		return uint32(unsigned(nv))
	case uint64:
		return uint64(unsigned(nv))
	case float32:
		if dataset.IsInteger(x) {
			return float32(math.Round(nv))
		}
		return float32(round4(nv))
	}
	if dataset.IsInteger(v) {
		return math.Round(nv)
	}
	return round4(nv)
}

func unsigned(f float64) float64 {
	return math.Max(0, math.Round(f))
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}

// numericKeys lists the perturbable fields of r in sorted order so a seeded
// source yields the same records on every run.
func numericKeys(r dataset.Record, targetColumn string) []string {
	keys := make([]string, 0, len(r))
	for k, v := range r {
		if k == targetColumn || k == dataset.SyntheticIDField {
			continue
		}
		if _, ok := dataset.Numeric(v); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Fingerprint serialises the numeric fields of r, excluding targetColumn and the
// synthetic id, as JSON with sorted keys.
func Fingerprint(r dataset.Record, targetColumn string) string {
	keys := numericKeys(r, targetColumn)
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		b.Write(kb)
		b.WriteByte(':')
		f, _ := dataset.Numeric(r[k])
		vb, _ := json.Marshal(f)
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.String()
}
