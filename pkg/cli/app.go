package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mchmarny/pepsig/pkg/config"
	"github.com/mchmarny/pepsig/pkg/logging"
	"github.com/mchmarny/pepsig/pkg/stats"
	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName = "pepsig"

	exitCodeError = 1
	exitCodeUsage = 2

	inputFlagName        = "input"
	verboseFlagName      = "verbose"
	configFlagName       = "config"
	outputDirFlagName    = "output-dir"
	thresholdFlagName    = "threshold"
	excludeFirstFlagName = "exclude-first"
	formatFlagName       = "format"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	errInputRequired = errors.New("input file required")
)

// Execute creates and runs the CLI application.
func Execute() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

// run executes the app with args and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	initLogging(stderr, "info", true)

	app := newApp(stdout, stderr)
	err := app.Run(ctx, args)
	if err == nil {
		return 0
	}

	var ec urfave.ExitCoder
	if errors.As(err, &ec) {
		if msg := ec.Error(); msg != "" {
			slog.Error("fatal error", "error", msg)
		}
		return ec.ExitCode()
	}

	slog.Error("fatal error", "error", err)
	return exitCodeError
}

func newApp(stdout, stderr io.Writer) *urfave.Command {
	// -v is taken by --verbose
	urfave.VersionFlag = &urfave.BoolFlag{
		Name:  "version",
		Usage: "print the version",
	}

	flags := append([]urfave.Flag{newInputFlag()}, settingsFlags()...)

	return &urfave.Command{
		Name:            appName,
		Version:         fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Usage:           "Bonferroni-corrected significance of protein coverage profiles",
		UsageText:       appName + " --input <profiles> [options]",
		HideHelpCommand: true,
		Writer:          stdout,
		ErrWriter:       stderr,
		Flags:           flags,
		Action:          cmdRun,
		Commands: []*urfave.Command{
			newShowCmd(),
			newConfigCmd(),
		},
		OnUsageError:   onUsageError,
		ExitErrHandler: func(context.Context, *urfave.Command, error) {},
	}
}

// Flags are created per app so parsed values never leak between runs.
func newInputFlag() *urfave.StringFlag {
	return &urfave.StringFlag{
		Name:    inputFlagName,
		Aliases: []string{"i"},
		Usage:   "Path or http(s) URL of the protein profiles file (required)",
	}
}

func settingsFlags() []urfave.Flag {
	return []urfave.Flag{
		&urfave.BoolFlag{
			Name:    verboseFlagName,
			Aliases: []string{"v"},
			Usage:   "Prints verbose logs (optional, default: false)",
		},
		&urfave.StringFlag{
			Name:    configFlagName,
			Aliases: []string{"c"},
			Usage:   "Path to a YAML config file (optional)",
		},
		&urfave.StringFlag{
			Name:    outputDirFlagName,
			Aliases: []string{"o"},
			Usage:   "Directory the report files are written to (default: .)",
		},
		&urfave.FloatFlag{
			Name:    thresholdFlagName,
			Aliases: []string{"t"},
			Usage:   "Uncorrected significance threshold (default: 0.05)",
		},
		&urfave.StringFlag{
			Name:  excludeFirstFlagName,
			Usage: fmt.Sprintf("Where the first value of each profile is excluded %v (default: %s)", stats.Modes, stats.DefaultMode),
		},
		&urfave.StringFlag{
			Name:  formatFlagName,
			Usage: "Summary output format [json, yaml] (default: json)",
		},
	}
}

func onUsageError(_ context.Context, cmd *urfave.Command, err error, _ bool) error {
	return usageError(cmd, err)
}

// usageError prints err and the command usage and maps to exit code 2.
func usageError(cmd *urfave.Command, err error) error {
	fmt.Fprintf(cmd.Root().ErrWriter, "Incorrect usage: %v\n\n", err)
	if herr := urfave.ShowSubcommandHelp(cmd); herr != nil {
		slog.Debug("failed to show help", "error", herr)
	}
	return urfave.Exit("", exitCodeUsage)
}

// loadConfig resolves the config file, environment and flag overrides and
// sets up logging. The result is not validated.
func loadConfig(cmd *urfave.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String(configFlagName))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cmd.IsSet(outputDirFlagName) {
		cfg.OutputDir = cmd.String(outputDirFlagName)
	}
	if cmd.IsSet(thresholdFlagName) {
		cfg.Threshold = cmd.Float(thresholdFlagName)
	}
	if cmd.IsSet(excludeFirstFlagName) {
		cfg.ExcludeFirst = cmd.String(excludeFirstFlagName)
	}
	if cmd.IsSet(formatFlagName) {
		cfg.Format = cmd.String(formatFlagName)
	}
	if cmd.Bool(verboseFlagName) {
		cfg.LogLevel = "debug"
	}
	if cfg.Format == "yml" {
		cfg.Format = config.FormatYAML
	}

	initLogging(cmd.Root().ErrWriter, cfg.LogLevel, cfg.LogColor)
	return cfg, nil
}

func initLogging(w io.Writer, level string, color bool) {
	logging.SetDefaultCLILogger(w, level, color)
}

func encode(w io.Writer, format string, v any) error {
	if format == config.FormatYAML {
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
