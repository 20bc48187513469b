package engine

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/quantback/pkg/errors"
)

// Config holds the run parameters of a backtest. StartTime and EndTime bound
// the traded window: a bar stamped exactly at StartTime is traded, a bar
// stamped exactly at EndTime is not. Bars before StartTime still feed the
// warm-up history.
type Config struct {
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" validate:"required,gt=0"`
	Commission     float64                    `yaml:"commission" json:"commission" validate:"gte=0,lt=1"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time"`
}

// UnmarshalYAML implements custom unmarshaling so that absent or null time
// bounds land as None.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type plain struct {
		InitialCapital float64    `yaml:"initial_capital"`
		Commission     float64    `yaml:"commission"`
		StartTime      *time.Time `yaml:"start_time"`
		EndTime        *time.Time `yaml:"end_time"`
	}

	var config plain
	if err := value.Decode(&config); err != nil {
		return err
	}

	c.InitialCapital = config.InitialCapital
	c.Commission = config.Commission
	c.StartTime = optional.FromNillable(config.StartTime)
	c.EndTime = optional.FromNillable(config.EndTime)

	return nil
}

// Validate checks the structural constraints and the time-bound ordering.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid backtest config", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && !c.StartTime.Unwrap().Before(c.EndTime.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidTimeRange,
			"start_time %s must be before end_time %s",
			c.StartTime.Unwrap().Format(time.RFC3339), c.EndTime.Unwrap().Format(time.RFC3339))
	}

	return nil
}

// ParseConfig parses a YAML document into a validated Config.
func ParseConfig(raw string) (Config, error) {
	var config Config
	if err := yaml.Unmarshal([]byte(raw), &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse backtest config", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// DefaultConfig returns a config with a 10k starting capital, a 0.1%
// commission, and an unbounded time window.
func DefaultConfig() Config {
	return Config{
		InitialCapital: 10000,
		Commission:     0.001,
		StartTime:      optional.None[time.Time](),
		EndTime:        optional.None[time.Time](),
	}
}
