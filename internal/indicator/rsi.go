package indicator

import "github.com/rxtech-lab/quantback/internal/types"

// RSI returns the Relative Strength Index of the closing prices, using simple
// rolling means of gains and losses over the period.
func RSI(history []types.MarketData, period int) (float64, error) {
	if err := validatePeriod(period); err != nil {
		return 0, err
	}

	// period deltas require period+1 closes
	if err := requireHistory(history, period+1); err != nil {
		return 0, err
	}

	values := closes(history)
	window := values[len(values)-period-1:]

	var gain, loss float64

	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}

	gain /= float64(period)
	loss /= float64(period)

	if loss == 0 {
		if gain == 0 {
			return 50, nil
		}

		return 100, nil
	}

	rs := gain / loss

	return 100 - 100/(1+rs), nil
}
