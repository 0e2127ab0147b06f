package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/mchmarny/pepsig/pkg/pipeline"
	"github.com/mchmarny/pepsig/pkg/report"
	"github.com/mchmarny/pepsig/pkg/stats"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix prefixes every environment override, e.g. PEPSIG_THRESHOLD.
	EnvPrefix = "PEPSIG"

	FormatJSON = "json"
	FormatYAML = "yaml"

	dirMode  = 0700
	fileMode = 0600
)

// Config represents app config object.
type Config struct {
	Threshold    float64 `yaml:"threshold" envconfig:"THRESHOLD" validate:"gt=0,lte=1"`
	ExcludeFirst string  `yaml:"exclude_first" envconfig:"EXCLUDE_FIRST" validate:"oneof=stats all none"`
	OutputDir    string  `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	TSVName      string  `yaml:"tsv_name" envconfig:"TSV_NAME" validate:"required,plainname"`
	CSVName      string  `yaml:"csv_name" envconfig:"CSV_NAME" validate:"required,plainname"`
	LogLevel     string  `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn warning error"`
	LogColor     bool    `yaml:"log_color" envconfig:"LOG_COLOR"`
	Format       string  `yaml:"format" envconfig:"FORMAT" validate:"oneof=json yaml yml"`
}

// Default returns the config used when nothing else is specified.
func Default() *Config {
	return &Config{
		Threshold:    pipeline.DefaultThreshold,
		ExcludeFirst: string(stats.DefaultMode),
		OutputDir:    ".",
		TSVName:      report.TSVFileName,
		CSVName:      report.CSVFileName,
		LogLevel:     "info",
		LogColor:     true,
		Format:       FormatJSON,
	}
}

// Load layers the optional YAML file at path and then PEPSIG_* environment
// variables over the defaults. The result is not validated so callers can
// apply flag overrides first.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		if err := c.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return nil, errors.Wrap(err, "failed to load config from env")
	}

	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		c.LogColor = false
	}

	return c, nil
}

func (c *Config) readFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "error reading config file: %s", path)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return errors.Wrapf(err, "error unmarshalling config file: %s", path)
	}
	return nil
}

// Validate checks the config values.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config required")
	}

	v := validator.New()
	if err := v.RegisterValidation("plainname", isPlainName); err != nil {
		return errors.Wrap(err, "failed to register plainname validation")
	}

	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return errors.Wrap(err, "failed to validate config")
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, formatFieldError(fe))
		}
		return errors.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}

	return nil
}

// Mode returns the first value mode.
func (c *Config) Mode() stats.Mode {
	return stats.Mode(c.ExcludeFirst)
}

// PipelineOptions maps the config onto pipeline options.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Threshold: c.Threshold,
		Mode:      c.Mode(),
	}
}

// Sink returns the report sink described by the config.
func (c *Config) Sink() *report.FileSink {
	return &report.FileSink{
		Dir:     c.OutputDir,
		TSVName: c.TSVName,
		CSVName: c.CSVName,
	}
}

// Save writes c as YAML to path, creating the parent directory if needed.
func Save(path string, c *Config) error {
	if path == "" {
		return errors.New("config path required")
	}
	if c == nil {
		return errors.New("config required")
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return errors.Wrapf(err, "failed to create dir: %s", dir)
		}
	}

	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", path)
	}
	return nil
}

func isPlainName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	return name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fe.Field() + " must be one of [" + fe.Param() + "]"
	case "gt", "lte":
		return fe.Field() + " must be in (0, 1]"
	case "plainname":
		return fe.Field() + " must be a plain file name"
	default:
		return fe.Field() + " failed " + fe.Tag()
	}
}
