package pipeline

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/mchmarny/pepsig/pkg/profile"
	"github.com/mchmarny/pepsig/pkg/stats"
	"github.com/pkg/errors"
)

// DefaultThreshold is the uncorrected significance level.
const DefaultThreshold = 0.05

// Options parameterize a run.
type Options struct {
	// Threshold is the family-wise significance level before correction.
	// Zero selects DefaultThreshold.
	Threshold float64
	// Mode selects how the first value of each record is treated.
	Mode stats.Mode
}

func (o Options) withDefaults() Options {
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	if o.Mode == "" {
		o.Mode = stats.DefaultMode
	}
	return o
}

// Result is the outcome of a run over one dataset.
type Result struct {
	Records            int                  `json:"records" yaml:"records"`
	Stats              *stats.GlobalStats   `json:"stats" yaml:"stats"`
	Threshold          float64              `json:"threshold" yaml:"threshold"`
	CorrectedThreshold float64              `json:"corrected_threshold" yaml:"corrected_threshold"`
	Nominal            int                  `json:"nominal" yaml:"nominal"`
	Scores             []*stats.ScoreResult `json:"-" yaml:"-"`
	Significant        []*stats.ScoreResult `json:"-" yaml:"-"`
}

// MinPValue returns the smallest p-value, or 1 when there are no scores.
func (r *Result) MinPValue() float64 {
	if r == nil || len(r.Scores) == 0 {
		return 1
	}
	return r.Scores[0].P
}

// Run scores every record of ds, sorts by ascending p-value and keeps the
// records passing the Bonferroni-corrected threshold.
func Run(ds *profile.Dataset, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	if !(opts.Threshold > 0 && opts.Threshold <= 1) {
		return nil, errors.Errorf("threshold must be in (0, 1], got %g", opts.Threshold)
	}
	if ds == nil || ds.Len() == 0 {
		return nil, stats.ErrEmptyDataset
	}

	gs, err := stats.Summarize(ds, opts.Mode)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute global statistics")
	}

	scores := make([]*stats.ScoreResult, 0, ds.Len())
	for _, r := range ds.Records() {
		s, err := stats.Score(r, gs, opts.Mode)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to score %s", r.Key)
		}
		scores = append(scores, s)
	}

	slices.SortStableFunc(scores, func(a, b *stats.ScoreResult) int {
		return cmp.Compare(a.P, b.P)
	})

	res := &Result{
		Records:            ds.Len(),
		Stats:              gs,
		Threshold:          opts.Threshold,
		CorrectedThreshold: opts.Threshold / float64(ds.Len()),
		Scores:             scores,
	}
	res.Significant = Select(scores, res.CorrectedThreshold)

	for _, s := range scores {
		if s.P > opts.Threshold {
			break
		}
		res.Nominal++
	}

	slog.Debug("scored dataset",
		"records", res.Records,
		"threshold", res.Threshold,
		"corrected", res.CorrectedThreshold,
		"nominal", res.Nominal,
		"significant", len(res.Significant))

	return res, nil
}

// RunFile loads src, a local path or http(s) URL, and runs the pipeline
// over it.
func RunFile(ctx context.Context, src string, opts Options) (*Result, error) {
	ds, err := profile.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return Run(ds, opts)
}

// Select returns the leading entries of sorted with p-value at most thr.
// sorted must be in ascending p-value order.
func Select(sorted []*stats.ScoreResult, thr float64) []*stats.ScoreResult {
	i := 0
	for i < len(sorted) && sorted[i].P <= thr {
		i++
	}
	return sorted[:i:i]
}
