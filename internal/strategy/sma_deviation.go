package strategy

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/quantback/internal/indicator"
	"github.com/rxtech-lab/quantback/internal/types"
)

// SMADeviation trades crossovers only while the price stays close to the
// slow moving average, avoiding entries after an extended move.
type SMADeviation struct {
	BaseStrategy

	fastPeriod   int
	slowPeriod   int
	maxDeviation float64
	orderSize    float64
}

// NewSMADeviation creates the deviation-filtered crossover strategy.
func NewSMADeviation(fastPeriod, slowPeriod int) *SMADeviation {
	s := &SMADeviation{
		BaseStrategy: NewBaseStrategy(),
		fastPeriod:   fastPeriod,
		slowPeriod:   slowPeriod,
		maxDeviation: 0.03,
		orderSize:    0.01,
	}
	s.Risk.PositionLimit = 0.95

	return s
}

// Name implements Strategy.
func (s *SMADeviation) Name() string {
	return "sma-deviation"
}

// LookbackPeriods implements Strategy.
func (s *SMADeviation) LookbackPeriods() int {
	return maxInt(s.fastPeriod, s.slowPeriod)
}

// OnData implements Strategy.
func (s *SMADeviation) OnData(current types.MarketData, history []types.MarketData) optional.Option[types.Signal] {
	return evaluate(s, current, history)
}

// GenerateSignal implements Strategy.
func (s *SMADeviation) GenerateSignal(current types.MarketData, history []types.MarketData) optional.Option[types.Signal] {
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

	deviation := math.Abs(current.Close-slowMA) / slowMA

	// Avoid chasing a price that has already run away from the mean.
	if deviation >= s.maxDeviation {
		return optional.None[types.Signal]()
	}

	switch {
	case fastMA > slowMA && s.Position() <= 0:
		return optional.Some(types.Signal{
			Time:   current.Time,
			Action: types.SignalActionBuy,
			Size:   s.orderSize,
			Price:  current.Close,
			Reason: fmt.Sprintf("Golden Cross with deviation=%.2f%%", deviation*100),
		})
	case fastMA < slowMA && s.Position() > 0:
		return optional.Some(types.Signal{
			Time:   current.Time,
			Action: types.SignalActionSell,
			Size:   s.orderSize,
			Price:  current.Close,
			Reason: fmt.Sprintf("Death Cross with deviation=%.2f%%", deviation*100),
		})
	default:
		return optional.None[types.Signal]()
	}
}
