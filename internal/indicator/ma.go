package indicator

import (
	"math"

	"github.com/rxtech-lab/quantback/internal/types"
)

// SMA returns the simple moving average of the last period closing prices.
func SMA(history []types.MarketData, period int) (float64, error) {
	if err := validatePeriod(period); err != nil {
		return 0, err
	}

	if err := requireHistory(history, period); err != nil {
		return 0, err
	}

	sum := 0.0
	for _, bar := range history[len(history)-period:] {
		sum += bar.Close
	}

	return sum / float64(period), nil
}

// SMASeries returns the simple moving average of closing prices for every bar
// in history. Entries before the first full window are NaN.
func SMASeries(history []types.MarketData, period int) ([]float64, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}

	if err := requireHistory(history, period); err != nil {
		return nil, err
	}

	values := closes(history)
	out := make([]float64, len(values))

	sum := 0.0

	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}

		if i >= period-1 {
			out[i] = sum / float64(period)
		} else {
			out[i] = math.NaN()
		}
	}

	return out, nil
}

// EMA returns the exponential moving average of closing prices, seeded with
// the first close and smoothed by alpha = 2/(period+1).
func EMA(history []types.MarketData, period int) (float64, error) {
	if err := validatePeriod(period); err != nil {
		return 0, err
	}

	if err := requireHistory(history, period); err != nil {
		return 0, err
	}

	series := emaSeries(closes(history), period)

	return series[len(series)-1], nil
}
