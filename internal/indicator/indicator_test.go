package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/quantback/internal/types"
	"github.com/rxtech-lab/quantback/pkg/errors"
)

type IndicatorTestSuite struct {
	suite.Suite
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

// barsFromCloses builds bars with a fixed 2.0 high-low range around the close.
func barsFromCloses(values ...float64) []types.MarketData {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.MarketData, len(values))

	for i, v := range values {
		bars[i] = types.MarketData{
			Symbol: "BTCUSDT",
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   v,
			High:   v + 1,
			Low:    v - 1,
			Close:  v,
			Volume: 10,
		}
	}

	return bars
}

func (suite *IndicatorTestSuite) TestSMA() {
	bars := barsFromCloses(1, 2, 3, 4, 5)

	value, err := SMA(bars, 5)
	suite.NoError(err)
	suite.InDelta(3.0, value, 1e-9)

	// only the trailing window counts
	value, err = SMA(bars, 2)
	suite.NoError(err)
	suite.InDelta(4.5, value, 1e-9)
}

func (suite *IndicatorTestSuite) TestSMASeries() {
	bars := barsFromCloses(1, 2, 3, 4, 5)

	series, err := SMASeries(bars, 3)
	suite.NoError(err)
	suite.Len(series, 5)
	suite.True(math.IsNaN(series[0]))
	suite.True(math.IsNaN(series[1]))
	suite.InDelta(2.0, series[2], 1e-9)
	suite.InDelta(3.0, series[3], 1e-9)
	suite.InDelta(4.0, series[4], 1e-9)
}

func (suite *IndicatorTestSuite) TestSMAInsufficientHistory() {
	bars := barsFromCloses(1, 2, 3)

	_, err := SMA(bars, 5)
	suite.Error(err)
	suite.True(errors.IsInsufficientHistoryError(err))

	var insufficientErr *errors.InsufficientHistoryError
	suite.True(errors.As(err, &insufficientErr))
	suite.Equal(5, insufficientErr.Required)
	suite.Equal(3, insufficientErr.Actual)
}

func (suite *IndicatorTestSuite) TestSMAInvalidPeriod() {
	bars := barsFromCloses(1, 2, 3)

	_, err := SMA(bars, 0)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
}

func (suite *IndicatorTestSuite) TestEMAConstantSeries() {
	bars := barsFromCloses(42, 42, 42, 42, 42, 42)

	value, err := EMA(bars, 3)
	suite.NoError(err)
	suite.InDelta(42.0, value, 1e-9)
}

func (suite *IndicatorTestSuite) TestEMAFollowsTrend() {
	bars := barsFromCloses(1, 2, 3, 4, 5, 6, 7, 8)

	ema, err := EMA(bars, 3)
	suite.NoError(err)

	sma, err := SMA(bars, 8)
	suite.NoError(err)

	// EMA weights recent prices more heavily than a full-window SMA
	suite.Greater(ema, sma)
	suite.Less(ema, 8.0)
}

func (suite *IndicatorTestSuite) TestRSIAllGains() {
	bars := barsFromCloses(10, 11, 12, 13, 14, 15)

	value, err := RSI(bars, 5)
	suite.NoError(err)
	suite.InDelta(100.0, value, 1e-9)
}

func (suite *IndicatorTestSuite) TestRSIAllLosses() {
	bars := barsFromCloses(15, 14, 13, 12, 11, 10)

	value, err := RSI(bars, 5)
	suite.NoError(err)
	suite.InDelta(0.0, value, 1e-9)
}

func (suite *IndicatorTestSuite) TestRSIBalanced() {
	// alternating equal gains and losses over the window
	bars := barsFromCloses(10, 11, 10, 11, 10, 11, 10, 11, 10)

	value, err := RSI(bars, 8)
	suite.NoError(err)
	suite.InDelta(50.0, value, 1.0)
}

func (suite *IndicatorTestSuite) TestRSIFlatSeries() {
	bars := barsFromCloses(10, 10, 10, 10, 10, 10)

	value, err := RSI(bars, 5)
	suite.NoError(err)
	suite.InDelta(50.0, value, 1e-9)
}

func (suite *IndicatorTestSuite) TestRSIInsufficientHistory() {
	bars := barsFromCloses(10, 11, 12, 13, 14)

	// period of 5 needs 6 closes
	_, err := RSI(bars, 5)
	suite.Error(err)
	suite.True(errors.IsInsufficientHistoryError(err))
}

func (suite *IndicatorTestSuite) TestMACDConstantSeries() {
	values := make([]float64, 40)
	for i := range values {
		values[i] = 100
	}

	bars := barsFromCloses(values...)

	value, err := MACD(bars, 12, 26, 9)
	suite.NoError(err)
	suite.InDelta(0.0, value.MACD, 1e-9)
	suite.InDelta(0.0, value.Signal, 1e-9)
	suite.InDelta(0.0, value.Histogram, 1e-9)
}

func (suite *IndicatorTestSuite) TestMACDUptrend() {
	values := make([]float64, 40)
	for i := range values {
		values[i] = 100 + float64(i)
	}

	bars := barsFromCloses(values...)

	value, err := MACD(bars, 12, 26, 9)
	suite.NoError(err)
	// fast EMA above slow EMA in a steady uptrend
	suite.Greater(value.MACD, 0.0)
}

func (suite *IndicatorTestSuite) TestATRConstantRange() {
	bars := barsFromCloses(100, 100, 100, 100, 100, 100, 100, 100)

	value, err := ATR(bars, 5)
	suite.NoError(err)
	// every bar has high-low = 2 and no gaps
	suite.InDelta(2.0, value, 1e-9)
}

func (suite *IndicatorTestSuite) TestADXRange() {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 100 + float64(i)*2
	}

	bars := barsFromCloses(values...)

	value, err := ADX(bars, 14)
	suite.NoError(err)
	suite.GreaterOrEqual(value, 0.0)
	suite.LessOrEqual(value, 100.0)
	// a steady trend should register meaningful strength
	suite.Greater(value, 10.0)
}

func (suite *IndicatorTestSuite) TestADXInsufficientHistory() {
	bars := barsFromCloses(1, 2, 3)

	_, err := ADX(bars, 14)
	suite.Error(err)
	suite.True(errors.IsInsufficientHistoryError(err))
}

func (suite *IndicatorTestSuite) TestBollingerBandsConstantSeries() {
	bars := barsFromCloses(50, 50, 50, 50, 50)

	value, err := BollingerBands(bars, 5, 2.0)
	suite.NoError(err)
	suite.InDelta(50.0, value.Middle, 1e-9)
	suite.InDelta(50.0, value.Upper, 1e-9)
	suite.InDelta(50.0, value.Lower, 1e-9)
}

func (suite *IndicatorTestSuite) TestBollingerBandsSymmetry() {
	bars := barsFromCloses(48, 52, 50, 46, 54)

	value, err := BollingerBands(bars, 5, 2.0)
	suite.NoError(err)
	suite.InDelta(50.0, value.Middle, 1e-9)
	suite.InDelta(value.Middle-value.Lower, value.Upper-value.Middle, 1e-9)
	suite.Greater(value.Upper, value.Middle)
}
