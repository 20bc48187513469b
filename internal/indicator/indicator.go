// Package indicator provides technical indicator calculations over a slice of
// historical bars. All functions are pure: they take the relevant history
// window explicitly and hold no shared state between calls.
package indicator

import (
	"github.com/rxtech-lab/quantback/internal/types"
	"github.com/rxtech-lab/quantback/pkg/errors"
)

func closes(history []types.MarketData) []float64 {
	values := make([]float64, len(history))
	for i, bar := range history {
		values[i] = bar.Close
	}

	return values
}

func validatePeriod(period int) error {
	if period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	return nil
}

func requireHistory(history []types.MarketData, required int) error {
	if len(history) < required {
		return errors.NewInsufficientHistoryErrorf(required, len(history),
			"insufficient history: need %d bars, have %d", required, len(history))
	}

	return nil
}

// emaSeries computes an exponential moving average over values with smoothing
// factor alpha = 2/(period+1), seeded with the first value.
func emaSeries(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}

	alpha := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	out[0] = values[0]

	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}

	return out
}
