package stats

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/mchmarny/pepsig/pkg/profile"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Mode controls where the first value of each record is left out.
type Mode string

const (
	// ExcludeFromStats drops the first value from the global mean and
	// standard deviation only. Per-record sums still include it.
	ExcludeFromStats Mode = "stats"
	// ExcludeEverywhere drops the first value from both the global
	// statistics and the per-record sums.
	ExcludeEverywhere Mode = "all"
	// ExcludeNowhere uses every value everywhere.
	ExcludeNowhere Mode = "none"

	DefaultMode = ExcludeFromStats
)

// Modes lists the valid modes.
var Modes = []Mode{ExcludeFromStats, ExcludeEverywhere, ExcludeNowhere}

var (
	ErrEmptyDataset = errors.New("no score values to compute statistics over")
	ErrZeroVariance = errors.New("score values have zero standard deviation")
	ErrNoScores     = errors.New("record has no score values")
	ErrNonNumeric   = errors.New("non-numeric score value")
	ErrInvalidMode  = errors.New("invalid first value mode")
)

// ValueError identifies a value that could not be used in arithmetic.
type ValueError struct {
	Key   profile.Token
	Index int
	Value profile.Token
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%v: key %s, index %d: %q", ErrNonNumeric, e.Key, e.Index, e.Value.String())
}

func (e *ValueError) Unwrap() error {
	return ErrNonNumeric
}

// ParseMode validates s as a Mode. An empty string yields DefaultMode.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return DefaultMode, nil
	}
	for _, m := range Modes {
		if Mode(s) == m {
			return m, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidMode, "%q", s)
}

// GlobalStats are the population mean and standard deviation of all
// score values in a dataset.
type GlobalStats struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"stddev" yaml:"stddev"`
	Count  int     `json:"count" yaml:"count"`
}

// ScoreResult is the aggregate score of a single record.
type ScoreResult struct {
	Key profile.Token `json:"key" yaml:"key"`
	N   int           `json:"n" yaml:"n"`
	Sum float64       `json:"sum" yaml:"sum"`
	Z   float64       `json:"z_score" yaml:"z_score"`
	P   float64       `json:"p_value" yaml:"p_value"`
}

// statValues returns the values of r that feed the global statistics.
func statValues(r *profile.Record, mode Mode) ([]profile.Token, int) {
	if mode == ExcludeNowhere {
		return r.Values, 0
	}
	return r.Tail(), 1
}

// scoreValues returns the values of r that are summed into its score.
func scoreValues(r *profile.Record, mode Mode) ([]profile.Token, int) {
	if mode == ExcludeEverywhere {
		return r.Tail(), 1
	}
	return r.Values, 0
}

func toFloats(key profile.Token, vals []profile.Token, offset int, dst []float64) ([]float64, error) {
	for i, v := range vals {
		n, ok := v.Int()
		if !ok {
			return nil, &ValueError{Key: key, Index: i + offset, Value: v}
		}
		dst = append(dst, float64(n))
	}
	return dst, nil
}

// Summarize computes population statistics over the score values of ds.
func Summarize(ds *profile.Dataset, mode Mode) (*GlobalStats, error) {
	if ds == nil {
		return nil, ErrEmptyDataset
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}

	size := 0
	for _, r := range ds.Records() {
		vals, _ := statValues(r, mode)
		size += len(vals)
	}
	if size == 0 {
		return nil, ErrEmptyDataset
	}

	all := make([]float64, 0, size)
	for _, r := range ds.Records() {
		vals, offset := statValues(r, mode)
		var err error
		if all, err = toFloats(r.Key, vals, offset, all); err != nil {
			return nil, err
		}
	}

	mean, std := stat.PopMeanStdDev(all, nil)
	if std == 0 || math.IsNaN(std) {
		return nil, errors.Wrapf(ErrZeroVariance, "%d values, mean %g", len(all), mean)
	}

	slog.Debug("global statistics", "values", len(all), "mean", mean, "stddev", std, "mode", string(mode))
	return &GlobalStats{Mean: mean, StdDev: std, Count: len(all)}, nil
}

// Score standardizes the sum of r against gs and converts it into an
// upper-tail p-value under the unit normal. The tail is taken as Φ(-z),
// which keeps precision for large z where 1-Φ(z) rounds to zero. Records
// beyond z ≈ 8.3 therefore get distinct tiny p-values ordered by z rather
// than all tying at 0.
func Score(r *profile.Record, gs *GlobalStats, mode Mode) (*ScoreResult, error) {
	if r == nil {
		return nil, errors.New("record required")
	}
	if gs == nil {
		return nil, errors.New("global statistics required")
	}
	if gs.StdDev <= 0 {
		return nil, ErrZeroVariance
	}

	vals, offset := scoreValues(r, mode)
	if len(vals) == 0 {
		return nil, errors.Wrapf(ErrNoScores, "key %s", r.Key)
	}

	// int64 sums can overflow
	fs, err := toFloats(r.Key, vals, offset, make([]float64, 0, len(vals)))
	if err != nil {
		return nil, err
	}

	n := float64(len(vals))
	s := floats.Sum(fs)
	z := (s - n*gs.Mean) / (math.Sqrt(n) * gs.StdDev)

	return &ScoreResult{
		Key: r.Key,
		N:   len(vals),
		Sum: s,
		Z:   z,
		P:   distuv.UnitNormal.CDF(-z),
	}, nil
}
