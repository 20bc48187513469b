package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/quantback/internal/types"
)

// RiskConfig holds the per-strategy risk limits. The zero-cost defaults from
// DefaultRiskConfig disable every gate, so risk management is opt-in.
type RiskConfig struct {
	// PositionLimit is the maximum fraction of capital committed to the
	// position. 1.0 allows a full investment.
	PositionLimit float64 `yaml:"position_limit"`
	// MinCashReserve is the fraction of initial capital that must stay in
	// cash for a new trade to be allowed.
	MinCashReserve float64 `yaml:"min_cash_reserve"`
	// MinTradeInterval is the minimum elapsed time between trades.
	MinTradeInterval time.Duration `yaml:"min_trade_interval"`
	// MaxTradesPerDay caps trades per UTC calendar day. Zero or negative
	// means unlimited.
	MaxTradesPerDay int `yaml:"max_trades_per_day"`
	// MaxDrawdown is the maximum tolerated drawdown from peak equity as a
	// fraction. 1.0 tolerates a full drawdown.
	MaxDrawdown float64 `yaml:"max_drawdown"`
	// StopLoss forces a position exit once the unrealized loss fraction
	// reaches it. +Inf disables the stop.
	StopLoss float64 `yaml:"stop_loss"`
	// TakeProfit forces a position exit once the unrealized gain fraction
	// reaches it. +Inf disables it.
	TakeProfit float64 `yaml:"take_profit"`
}

// DefaultRiskConfig returns a configuration with every gate disabled.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		PositionLimit:    1.0,
		MinCashReserve:   0,
		MinTradeInterval: 0,
		MaxTradesPerDay:  0,
		MaxDrawdown:      1.0,
		StopLoss:         math.Inf(1),
		TakeProfit:       math.Inf(1),
	}
}

// BaseStrategy carries the risk configuration and per-run risk state shared
// by every strategy variant. It implements all contract methods except
// Name, LookbackPeriods, GenerateSignal, and OnData.
type BaseStrategy struct {
	Risk RiskConfig

	account AccountState

	lastTradeTime   optional.Option[time.Time]
	lastTradeDate   optional.Option[time.Time]
	dailyTrades     int
	peakEquity      float64
	currentDrawdown float64
	entryPrice      optional.Option[float64]
}

// NewBaseStrategy returns a base with the default (fully permissive) risk
// configuration.
func NewBaseStrategy() BaseStrategy {
	return BaseStrategy{Risk: DefaultRiskConfig()}
}

// UpdateAccountState implements Strategy.
func (b *BaseStrategy) UpdateAccountState(state AccountState) {
	b.account = state
}

// CheckRiskLimits implements Strategy. The daily trade counter resets on a
// UTC date change; peak equity initializes to the greater of current equity
// and initial capital and only ratchets upward.
func (b *BaseStrategy) CheckRiskLimits(currentTime time.Time, signal types.Signal) bool {
	minCash := b.Risk.MinCashReserve * b.account.InitialCapital
	if b.account.Capital < minCash {
		return false
	}

	if b.lastTradeTime.IsSome() {
		if currentTime.Sub(b.lastTradeTime.Unwrap()) < b.Risk.MinTradeInterval {
			return false
		}
	}

	currentDate := currentTime.UTC().Truncate(24 * time.Hour)
	if b.lastTradeDate.IsNone() || !b.lastTradeDate.Unwrap().Equal(currentDate) {
		b.dailyTrades = 0
		b.lastTradeDate = optional.Some(currentDate)
	}

	if b.Risk.MaxTradesPerDay > 0 && b.dailyTrades >= b.Risk.MaxTradesPerDay {
		return false
	}

	if b.peakEquity == 0 {
		b.peakEquity = math.Max(b.account.Equity, b.account.InitialCapital)
	} else if b.account.Equity > b.peakEquity {
		b.peakEquity = b.account.Equity
	}

	if b.peakEquity > 0 {
		b.currentDrawdown = (b.peakEquity - b.account.Equity) / b.peakEquity
		if b.currentDrawdown > b.Risk.MaxDrawdown {
			return false
		}
	}

	return true
}

// CheckPositionExit implements Strategy. It emits a full-size percent SELL
// while a position with a recorded entry price breaches the stop-loss or
// take-profit threshold.
func (b *BaseStrategy) CheckPositionExit(currentClose float64) optional.Option[types.Signal] {
	if b.account.Position <= 0 || b.entryPrice.IsNone() {
		return optional.None[types.Signal]()
	}

	entry := b.entryPrice.Unwrap()
	returns := (currentClose - entry) / entry

	if returns <= -b.Risk.StopLoss {
		return optional.Some(types.Signal{
			Action:    types.SignalActionSell,
			Size:      1.0,
			IsPercent: true,
			Price:     currentClose,
			Reason:    fmt.Sprintf("Stop Loss at %.2f%%", returns*100),
		})
	}

	if returns >= b.Risk.TakeProfit {
		return optional.Some(types.Signal{
			Action:    types.SignalActionSell,
			Size:      1.0,
			IsPercent: true,
			Price:     currentClose,
			Reason:    fmt.Sprintf("Take Profit at %.2f%%", returns*100),
		})
	}

	return optional.None[types.Signal]()
}

// CalculatePositionSize implements Strategy.
func (b *BaseStrategy) CalculatePositionSize(capital float64, price float64) float64 {
	return (capital * b.Risk.PositionLimit) / price
}

// UpdateTradeStats implements Strategy. The engine pushes the post-trade
// account state before calling this, so a positive position here means the
// trade opened or extended a long entry.
func (b *BaseStrategy) UpdateTradeStats(currentTime time.Time, price float64) {
	b.lastTradeTime = optional.Some(currentTime)
	b.dailyTrades++

	if b.account.Position > 0 {
		b.entryPrice = optional.Some(price)
	} else {
		b.entryPrice = optional.None[float64]()
	}
}

// Position returns the position size from the last pushed account snapshot.
func (b *BaseStrategy) Position() float64 {
	return b.account.Position
}

// CurrentDrawdown returns the drawdown fraction computed by the last risk
// check.
func (b *BaseStrategy) CurrentDrawdown() float64 {
	return b.currentDrawdown
}
