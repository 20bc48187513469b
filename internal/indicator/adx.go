package indicator

import (
	"math"

	"github.com/rxtech-lab/quantback/internal/types"
)

// trueRangeSeries computes the true range per bar. The first bar has no
// previous close, so its range is high - low.
func trueRangeSeries(history []types.MarketData) []float64 {
	out := make([]float64, len(history))

	for i, bar := range history {
		tr := bar.High - bar.Low
		if i > 0 {
			prevClose := history[i-1].Close
			tr = math.Max(tr, math.Abs(bar.High-prevClose))
			tr = math.Max(tr, math.Abs(bar.Low-prevClose))
		}

		out[i] = tr
	}

	return out
}

// ATR returns the Average True Range, smoothed with alpha = 2/(period+1).
func ATR(history []types.MarketData, period int) (float64, error) {
	if err := validatePeriod(period); err != nil {
		return 0, err
	}

	if err := requireHistory(history, period+1); err != nil {
		return 0, err
	}

	atr := emaSeries(trueRangeSeries(history), period)

	return atr[len(atr)-1], nil
}

// ADX returns the Average Directional Index, a trend-strength measure in
// [0, 100]. Directional movement and the true range are smoothed with the
// same alpha = 2/(period+1) exponential smoothing used for ATR.
func ADX(history []types.MarketData, period int) (float64, error) {
	if err := validatePeriod(period); err != nil {
		return 0, err
	}

	if err := requireHistory(history, period+1); err != nil {
		return 0, err
	}

	atr := emaSeries(trueRangeSeries(history), period)

	posDM := make([]float64, len(history))
	negDM := make([]float64, len(history))

	for i := 1; i < len(history); i++ {
		up := history[i].High - history[i-1].High
		down := history[i-1].Low - history[i].Low

		if up > down && up > 0 {
			posDM[i] = up
		}

		if down > up && down > 0 {
			negDM[i] = down
		}
	}

	posSmooth := emaSeries(posDM, period)
	negSmooth := emaSeries(negDM, period)

	dx := make([]float64, len(history))

	for i := range history {
		var pdi, ndi float64
		if atr[i] > 0 {
			pdi = 100 * posSmooth[i] / atr[i]
			ndi = 100 * negSmooth[i] / atr[i]
		}

		if sum := pdi + ndi; sum > 0 {
			dx[i] = 100 * math.Abs(pdi-ndi) / sum
		}
	}

	adx := emaSeries(dx, period)

	return adx[len(adx)-1], nil
}
