package timeseries

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/KaramelBytes/datasmith-cli/internal/dataset"
)

// Options describes a synthetic series.
type Options struct {
	Start     time.Time
	Interval  time.Duration
	Points    int
	Base      float64
	Trend     float64
	Amplitude float64
	// Period is the seasonal period in points; 0 disables seasonality.
	Period float64
	// Noise is the standard deviation of the Gaussian noise term.
	Noise float64
	// Seed makes the series reproducible; 0 seeds from the clock.
	Seed int64
}

// DefaultOptions returns a daily series of 100 points.
func DefaultOptions() Options {
	return Options{
		Start:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:  24 * time.Hour,
		Points:    100,
		Base:      100,
		Amplitude: 10,
		Period:    7,
		Noise:     1,
	}
}

// Point is one observation.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

var (
	ErrNoPoints    = errors.New("points must be positive")
	ErrBadInterval = errors.New("interval must be positive")
)

// Generate returns base + trend*i + amplitude*sin(2πi/period) + noise*N(0,1)
// for each point, rounded to 4 decimals.
func Generate(opt Options) ([]Point, error) {
	if opt.Points <= 0 {
		return nil, ErrNoPoints
	}
	if opt.Interval <= 0 {
		return nil, ErrBadInterval
	}
	seed := opt.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	out := make([]Point, opt.Points)
	for i := range out {
		v := opt.Base + opt.Trend*float64(i)
		if opt.Period > 0 {
			v += opt.Amplitude * math.Sin(2*math.Pi*float64(i)/opt.Period)
		}
		if opt.Noise > 0 {
			v += opt.Noise * rng.NormFloat64()
		}
		out[i] = Point{
			Timestamp: opt.Start.Add(time.Duration(i) * opt.Interval),
			Value:     math.Round(v*10000) / 10000,
		}
	}
	return out, nil
}

// Records converts points to records with RFC 3339 timestamps.
func Records(points []Point) []dataset.Record {
	out := make([]dataset.Record, len(points))
	for i, p := range points {
		out[i] = dataset.Record{
			"timestamp": p.Timestamp.UTC().Format(time.RFC3339),
			"value":     p.Value,
		}
	}
	return out
}

// Columns is the column order of Records.
var Columns = []string{"timestamp", "value"}
