package strategy

import (
	"sort"

	"github.com/rxtech-lab/quantback/pkg/errors"
)

// Factory constructs a strategy from a parameter map as supplied by the REST
// facade or a config file. Missing keys fall back to the variant's defaults.
type Factory func(params map[string]any) (Strategy, error)

var registry = map[string]Factory{
	"sma-adx": func(params map[string]any) (Strategy, error) {
		fast, err := intParam(params, "fast_period", 5)
		if err != nil {
			return nil, err
		}

		slow, err := intParam(params, "slow_period", 20)
		if err != nil {
			return nil, err
		}

		adxPeriod, err := intParam(params, "adx_period", 14)
		if err != nil {
			return nil, err
		}

		adxThreshold, err := floatParam(params, "adx_threshold", 25)
		if err != nil {
			return nil, err
		}

		return NewSMACrossADX(fast, slow, adxPeriod, adxThreshold), nil
	},
	"sma-slope": func(params map[string]any) (Strategy, error) {
		fast, err := intParam(params, "fast_period", 50)
		if err != nil {
			return nil, err
		}

		slow, err := intParam(params, "slow_period", 120)
		if err != nil {
			return nil, err
		}

		slopePeriods, err := intParam(params, "slope_periods", 5)
		if err != nil {
			return nil, err
		}

		return NewSMASlope(fast, slow, slopePeriods), nil
	},
	"sma-deviation": func(params map[string]any) (Strategy, error) {
		fast, err := intParam(params, "fast_period", 50)
		if err != nil {
			return nil, err
		}

		slow, err := intParam(params, "slow_period", 120)
		if err != nil {
			return nil, err
		}

		return NewSMADeviation(fast, slow), nil
	},
	"sma-multi": func(params map[string]any) (Strategy, error) {
		fast, err := intParam(params, "fast_period", 50)
		if err != nil {
			return nil, err
		}

		slow, err := intParam(params, "slow_period", 120)
		if err != nil {
			return nil, err
		}

		return NewSMAMultiIndicator(fast, slow), nil
	},
}

// New constructs a strategy by its registry identifier. An unknown identifier
// is an invalid-input failure, never silently recovered.
func New(id string, params map[string]any) (Strategy, error) {
	factory, ok := registry[id]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnknownStrategy, "strategy %s not found", id)
	}

	return factory(params)
}

// List returns the available strategy identifiers in lexical order.
func List() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// intParam reads an integer parameter, accepting JSON numbers (float64).
func intParam(params map[string]any, key string, fallback int) (int, error) {
	raw, ok := params[key]
	if !ok {
		return fallback, nil
	}

	switch v := raw.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidParameter,
			"parameter %s must be a number, got %T", key, raw)
	}
}

// floatParam reads a float parameter, accepting integers as well.
func floatParam(params map[string]any, key string, fallback float64) (float64, error) {
	raw, ok := params[key]
	if !ok {
		return fallback, nil
	}

	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidParameter,
			"parameter %s must be a number, got %T", key, raw)
	}
}
