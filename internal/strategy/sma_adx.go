package strategy

import (
	"fmt"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/quantback/internal/indicator"
	"github.com/rxtech-lab/quantback/internal/types"
)

// SMACrossADX is a fast/slow moving-average crossover gated by an ADX
// trend-strength threshold. It trades the full position in both directions.
type SMACrossADX struct {
	BaseStrategy

	fastPeriod   int
	slowPeriod   int
	adxPeriod    int
	adxThreshold float64
}

// NewSMACrossADX creates the crossover strategy with the given periods and
// ADX threshold.
func NewSMACrossADX(fastPeriod, slowPeriod, adxPeriod int, adxThreshold float64) *SMACrossADX {
	return &SMACrossADX{
		BaseStrategy: NewBaseStrategy(),
		fastPeriod:   fastPeriod,
		slowPeriod:   slowPeriod,
		adxPeriod:    adxPeriod,
		adxThreshold: adxThreshold,
	}
}

// Name implements Strategy.
func (s *SMACrossADX) Name() string {
	return "sma-adx"
}

// LookbackPeriods implements Strategy. ADX needs one extra bar for its first
// price difference.
func (s *SMACrossADX) LookbackPeriods() int {
	return maxInt(s.fastPeriod, s.slowPeriod, s.adxPeriod+1)
}

// OnData implements Strategy.
func (s *SMACrossADX) OnData(current types.MarketData, history []types.MarketData) optional.Option[types.Signal] {
	return evaluate(s, current, history)
}

// GenerateSignal implements Strategy.
func (s *SMACrossADX) GenerateSignal(current types.MarketData, history []types.MarketData) optional.Option[types.Signal] {
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

	// Only trade when the trend is strong enough.
	if adx <= s.adxThreshold {
		return optional.None[types.Signal]()
	}

	switch {
	case fastMA > slowMA:
		return optional.Some(types.Signal{
			Time:       current.Time,
			Action:     types.SignalActionBuy,
			Size:       1.0,
			IsPercent:  true,
			Price:      current.Close,
			Reason:     fmt.Sprintf("Golden Cross with ADX=%.1f", adx),
			AdjustSize: true,
		})
	case fastMA < slowMA:
		return optional.Some(types.Signal{
			Time:      current.Time,
			Action:    types.SignalActionSell,
			Size:      1.0,
			IsPercent: true,
			Price:     current.Close,
			Reason:    fmt.Sprintf("Death Cross with ADX=%.1f", adx),
		})
	default:
		return optional.None[types.Signal]()
	}
}

func maxInt(values ...int) int {
	out := values[0]
	for _, v := range values[1:] {
		if v > out {
			out = v
		}
	}

	return out
}
