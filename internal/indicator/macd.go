package indicator

import "github.com/rxtech-lab/quantback/internal/types"

// MACDValue holds the last values of the MACD line, its signal line, and the
// histogram (line minus signal).
type MACDValue struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD returns the Moving Average Convergence Divergence of the closing
// prices: EMA(fast) - EMA(slow), with an EMA(signal) signal line.
func MACD(history []types.MarketData, fastPeriod, slowPeriod, signalPeriod int) (MACDValue, error) {
	for _, period := range []int{fastPeriod, slowPeriod, signalPeriod} {
		if err := validatePeriod(period); err != nil {
			return MACDValue{}, err
		}
	}

	if err := requireHistory(history, slowPeriod+signalPeriod); err != nil {
		return MACDValue{}, err
	}

	values := closes(history)
	fast := emaSeries(values, fastPeriod)
	slow := emaSeries(values, slowPeriod)

	line := make([]float64, len(values))
	for i := range values {
		line[i] = fast[i] - slow[i]
	}

	signal := emaSeries(line, signalPeriod)
	last := len(values) - 1

	return MACDValue{
		MACD:      line[last],
		Signal:    signal[last],
		Histogram: line[last] - signal[last],
	}, nil
}
