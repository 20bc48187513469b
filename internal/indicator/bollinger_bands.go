package indicator

import (
	"math"

	"github.com/rxtech-lab/quantback/internal/types"
)

// BollingerBandsValue holds the last values of the upper, middle, and lower
// Bollinger bands.
type BollingerBandsValue struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// BollingerBands returns bands at middle ± stdDev standard deviations of the
// closing prices over the period. The population standard deviation is used.
func BollingerBands(history []types.MarketData, period int, stdDev float64) (BollingerBandsValue, error) {
	if err := validatePeriod(period); err != nil {
		return BollingerBandsValue{}, err
	}

	if err := requireHistory(history, period); err != nil {
		return BollingerBandsValue{}, err
	}

	window := closes(history[len(history)-period:])

	var sum float64
	for _, v := range window {
		sum += v
	}

	mean := sum / float64(period)

	var variance float64
	for _, v := range window {
		variance += (v - mean) * (v - mean)
	}

	variance /= float64(period)
	deviation := math.Sqrt(variance) * stdDev

	return BollingerBandsValue{
		Upper:  mean + deviation,
		Middle: mean,
		Lower:  mean - deviation,
	}, nil
}
