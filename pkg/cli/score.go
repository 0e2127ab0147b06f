package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mchmarny/pepsig/pkg/pipeline"
	"github.com/urfave/cli/v3"
)

// Summary is printed to stdout after a successful run.
type Summary struct {
	Input              string   `json:"input" yaml:"input"`
	Records            int      `json:"records" yaml:"records"`
	Values             int      `json:"values" yaml:"values"`
	Mean               float64  `json:"mean" yaml:"mean"`
	StdDev             float64  `json:"stddev" yaml:"stddev"`
	Mode               string   `json:"exclude_first" yaml:"exclude_first"`
	Threshold          float64  `json:"threshold" yaml:"threshold"`
	CorrectedThreshold float64  `json:"corrected_threshold" yaml:"corrected_threshold"`
	Nominal            int      `json:"nominal" yaml:"nominal"`
	Significant        int      `json:"significant" yaml:"significant"`
	MinPValue          float64  `json:"min_p_value" yaml:"min_p_value"`
	Outputs            []string `json:"outputs" yaml:"outputs"`
	Duration           string   `json:"duration" yaml:"duration"`
}

func cmdRun(ctx context.Context, c *cli.Command) error {
	start := time.Now()

	input := c.String(inputFlagName)
	if input == "" {
		return usageError(c, errInputRequired)
	}
	if c.Args().Present() {
		return usageError(c, fmt.Errorf("unexpected arguments: %v", c.Args().Slice()))
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return usageError(c, err)
	}

	slog.Debug("running significance test",
		"input", input,
		"threshold", cfg.Threshold,
		"exclude_first", cfg.ExcludeFirst,
		"output_dir", cfg.OutputDir)

	res, err := pipeline.RunFile(ctx, input, cfg.PipelineOptions())
	if err != nil {
		return fmt.Errorf("scoring %s: %w", input, err)
	}

	sink := cfg.Sink()
	if err := sink.Emit(res.Significant); err != nil {
		return fmt.Errorf("writing reports: %w", err)
	}

	slog.Info("significance test complete",
		"records", res.Records,
		"nominal", res.Nominal,
		"significant", len(res.Significant))

	s := &Summary{
		Input:              input,
		Records:            res.Records,
		Values:             res.Stats.Count,
		Mean:               res.Stats.Mean,
		StdDev:             res.Stats.StdDev,
		Mode:               cfg.ExcludeFirst,
		Threshold:          res.Threshold,
		CorrectedThreshold: res.CorrectedThreshold,
		Nominal:            res.Nominal,
		Significant:        len(res.Significant),
		MinPValue:          res.MinPValue(),
		Outputs:            sink.Paths(),
		Duration:           time.Since(start).String(),
	}

	if err := encode(c.Root().Writer, cfg.Format, s); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	return nil
}
