package strategy

import (
	"fmt"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/quantback/internal/indicator"
	"github.com/rxtech-lab/quantback/internal/types"
)

// SMAMultiIndicator requires a moving-average crossover to be confirmed by
// ADX trend strength, RSI momentum, and the MACD histogram before trading.
type SMAMultiIndicator struct {
	BaseStrategy

	fastPeriod   int
	slowPeriod   int
	adxPeriod    int
	adxThreshold float64
	rsiPeriod    int
	orderSize    float64
}

// NewSMAMultiIndicator creates the multi-indicator confirmation strategy.
func NewSMAMultiIndicator(fastPeriod, slowPeriod int) *SMAMultiIndicator {
	s := &SMAMultiIndicator{
		BaseStrategy: NewBaseStrategy(),
		fastPeriod:   fastPeriod,
		slowPeriod:   slowPeriod,
		adxPeriod:    14,
		adxThreshold: 25,
		rsiPeriod:    14,
		orderSize:    0.01,
	}
	s.Risk.PositionLimit = 0.95

	return s
}

// Name implements Strategy.
func (s *SMAMultiIndicator) Name() string {
	return "sma-multi"
}

// LookbackPeriods implements Strategy.
func (s *SMAMultiIndicator) LookbackPeriods() int {
	return maxInt(s.fastPeriod, s.slowPeriod) + s.adxPeriod
}

// OnData implements Strategy.
func (s *SMAMultiIndicator) OnData(current types.MarketData, history []types.MarketData) optional.Option[types.Signal] {
	return evaluate(s, current, history)
}

// GenerateSignal implements Strategy.
func (s *SMAMultiIndicator) GenerateSignal(current types.MarketData, history []types.MarketData) optional.Option[types.Signal] {
	if len(history) < s.LookbackPeriods() {
		return optional.None[types.Signal]()
	}

	fastMA, err := indicator.SMA(history, s.fastPeriod)
	if err != nil {
		return optional.None[types.Signal]()
	}

	slowMA, err := indicator.SMA(history, s.slowPeriod)
	if err != nil {
		return optional.None[types.Signal]()
	}

	adx, err := indicator.ADX(history, s.adxPeriod)
	if err != nil {
		return optional.None[types.Signal]()
	}

	rsi, err := indicator.RSI(history, s.rsiPeriod)
	if err != nil {
		return optional.None[types.Signal]()
	}

	macd, err := indicator.MACD(history, 12, 26, 9)
	if err != nil {
		return optional.None[types.Signal]()
	}

	uptrendStrong := adx > s.adxThreshold && rsi > 60 && macd.Histogram > 0
	downtrendStrong := adx > s.adxThreshold && rsi < 40 && macd.Histogram < 0

	switch {
	case fastMA > slowMA && uptrendStrong && s.Position() <= 0:
		return optional.Some(types.Signal{
			Time:   current.Time,
			Action: types.SignalActionBuy,
			Size:   s.orderSize,
			Price:  current.Close,
			Reason: fmt.Sprintf("Strong Uptrend: ADX=%.1f, RSI=%.1f", adx, rsi),
		})
	case fastMA < slowMA && downtrendStrong && s.Position() > 0:
		return optional.Some(types.Signal{
			Time:   current.Time,
			Action: types.SignalActionSell,
			Size:   s.orderSize,
			Price:  current.Close,
			Reason: fmt.Sprintf("Strong Downtrend: ADX=%.1f, RSI=%.1f", adx, rsi),
		})
	default:
		return optional.None[types.Signal]()
	}
}
