package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mchmarny/pepsig/pkg/config"
	"github.com/urfave/cli/v3"
)

const saveFlagName = "save"

func newConfigCmd() *cli.Command {
	flags := append(settingsFlags(), &cli.StringFlag{
		Name:  saveFlagName,
		Usage: "Write the effective config to this path instead of printing it",
	})

	return &cli.Command{
		Name:         "config",
		Usage:        "Print or save the effective configuration",
		UsageText:    appName + " config [--config <file>] [--save <path>]",
		Action:       cmdConfig,
		Flags:        flags,
		OnUsageError: onUsageError,
	}
}

func cmdConfig(_ context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return usageError(c, err)
	}

	if path := c.String(saveFlagName); path != "" {
		if err := config.Save(path, cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		slog.Info("config saved", "path", path)
		return nil
	}

	if err := encode(c.Root().Writer, config.FormatYAML, cfg); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	return nil
}
