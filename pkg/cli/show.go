package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mchmarny/pepsig/pkg/profile"
	"github.com/urfave/cli/v3"
)

var errKeysRequired = errors.New("at least one protein key required")

func newShowCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Aliases:   []string{"s"},
		Usage:     "Print the coverage profile of one or more proteins",
		UsageText: appName + " show --input <profiles> KEY [KEY...]",
		ArgsUsage: "KEY [KEY...]",
		Action:    cmdShow,
		Flags: []cli.Flag{
			newInputFlag(),
			&cli.BoolFlag{
				Name:    verboseFlagName,
				Aliases: []string{"v"},
				Usage:   "Prints verbose logs (optional, default: false)",
			},
			&cli.StringFlag{
				Name:    configFlagName,
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file (optional)",
			},
		},
		OnUsageError: onUsageError,
	}
}

func cmdShow(ctx context.Context, c *cli.Command) error {
	input := c.String(inputFlagName)
	if input == "" {
		return usageError(c, errInputRequired)
	}
	if !c.Args().Present() {
		return usageError(c, errKeysRequired)
	}

	if _, err := loadConfig(c); err != nil {
		return err
	}

	ds, err := profile.Load(ctx, input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	w := c.Root().Writer
	for _, arg := range c.Args().Slice() {
		rec, ok := ds.Get(profile.ParseToken(arg))
		if !ok {
			return fmt.Errorf("protein %s not found in %s", arg, input)
		}

		vals := make([]string, 0, len(rec.Values))
		for _, v := range rec.Values {
			vals = append(vals, v.String())
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", rec.Key, strings.Join(vals, " ")); err != nil {
			return fmt.Errorf("error writing profile: %w", err)
		}
	}
	return nil
}
