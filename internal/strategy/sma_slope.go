package strategy

import (
	"fmt"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/quantback/internal/indicator"
	"github.com/rxtech-lab/quantback/internal/types"
)

// SMASlope trades crossovers only while the slow moving average has a
// meaningful slope, entering and exiting with small fixed-size orders.
type SMASlope struct {
	BaseStrategy

	fastPeriod     int
	slowPeriod     int
	slopePeriods   int
	slopeThreshold float64
	orderSize      float64
}

// NewSMASlope creates the slope-filtered crossover strategy.
func NewSMASlope(fastPeriod, slowPeriod, slopePeriods int) *SMASlope {
	s := &SMASlope{
		BaseStrategy:   NewBaseStrategy(),
		fastPeriod:     fastPeriod,
		slowPeriod:     slowPeriod,
		slopePeriods:   slopePeriods,
		slopeThreshold: 0.0001,
		orderSize:      0.01,
	}
	s.Risk.PositionLimit = 0.95

	return s
}

// Name implements Strategy.
func (s *SMASlope) Name() string {
	return "sma-slope"
}

// LookbackPeriods implements Strategy.
func (s *SMASlope) LookbackPeriods() int {
	return maxInt(s.fastPeriod, s.slowPeriod) + s.slopePeriods
}

// OnData implements Strategy.
func (s *SMASlope) OnData(current types.MarketData, history []types.MarketData) optional.Option[types.Signal] {
	return evaluate(s, current, history)
}

// GenerateSignal implements Strategy.
func (s *SMASlope) GenerateSignal(current types.MarketData, history []types.MarketData) optional.Option[types.Signal] {
	if len(history) < s.LookbackPeriods() {
		return optional.None[types.Signal]()
	}

	fastMA, err := indicator.SMA(history, s.fastPeriod)
	if err != nil {
		return optional.None[types.Signal]()
	}

	slowSeries, err := indicator.SMASeries(history, s.slowPeriod)
	if err != nil {
		return optional.None[types.Signal]()
	}

	last := len(slowSeries) - 1
	slowMA := slowSeries[last]
	slope := (slowSeries[last] - slowSeries[last-s.slopePeriods]) / float64(s.slopePeriods)

	// Skip flat markets.
	if slope > -s.slopeThreshold && slope < s.slopeThreshold {
		return optional.None[types.Signal]()
	}

	switch {
	case fastMA > slowMA && s.Position() <= 0:
		return optional.Some(types.Signal{
			Time:   current.Time,
			Action: types.SignalActionBuy,
			Size:   s.orderSize,
			Price:  current.Close,
			Reason: fmt.Sprintf("Golden Cross with slope=%.6f", slope),
		})
	case fastMA < slowMA && s.Position() > 0:
		return optional.Some(types.Signal{
			Time:   current.Time,
			Action: types.SignalActionSell,
			Size:   s.orderSize,
			Price:  current.Close,
			Reason: fmt.Sprintf("Death Cross with slope=%.6f", slope),
		})
	default:
		return optional.None[types.Signal]()
	}
}
