// Package strategy defines the trading strategy contract consumed by the
// backtest engine, a risk-managed base shared by all variants, and the
// registry used to construct strategies by identifier.
package strategy

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/quantback/internal/types"
)

// AccountState is the ledger snapshot the engine pushes into a strategy
// before each decision and after each executed trade. The engine owns the
// ledger; strategies only ever observe it through this snapshot.
type AccountState struct {
	// Capital is the current cash capital.
	Capital float64
	// InitialCapital is the capital the run started with.
	InitialCapital float64
	// Equity is the current mark-to-market equity (cash + position value).
	Equity float64
	// Position is the current open position size in units.
	Position float64
}

// Strategy is the decision unit driven by the backtest engine. One instance
// serves exactly one run; risk state accumulated during a run is not shared.
type Strategy interface {
	// Name returns the registry identifier of the strategy.
	Name() string
	// LookbackPeriods returns the minimum number of historical bars required
	// before the strategy may be consulted.
	LookbackPeriods() int
	// OnData is the composed decision step: generate a candidate signal, gate
	// it through the risk limits, and fall back to a stop-loss/take-profit
	// exit check when no candidate passed.
	OnData(current types.MarketData, history []types.MarketData) optional.Option[types.Signal]
	// GenerateSignal produces the variant-specific candidate signal, or None.
	GenerateSignal(current types.MarketData, history []types.MarketData) optional.Option[types.Signal]
	// CheckRiskLimits reports whether a candidate signal passes the cash
	// reserve, trade interval, daily count, and drawdown gates.
	CheckRiskLimits(currentTime time.Time, signal types.Signal) bool
	// CheckPositionExit forces a full-size SELL while holding a position whose
	// unrealized return breaches the stop-loss or take-profit threshold.
	CheckPositionExit(currentClose float64) optional.Option[types.Signal]
	// CalculatePositionSize returns the maximum position size allowed for the
	// given capital and price under the strategy's position limit.
	CalculatePositionSize(capital float64, price float64) float64
	// UpdateTradeStats is invoked by the engine after every executed trade.
	UpdateTradeStats(currentTime time.Time, price float64)
	// UpdateAccountState receives the engine's ledger snapshot.
	UpdateAccountState(state AccountState)
}

// evaluate composes the shared per-bar decision flow on top of a variant's
// GenerateSignal. Every variant routes OnData through here so that risk
// gating and exit checks cannot be bypassed.
func evaluate(s Strategy, current types.MarketData, history []types.MarketData) optional.Option[types.Signal] {
	signal := s.GenerateSignal(current, history)
	if signal.IsSome() && s.CheckRiskLimits(current.Time, signal.Unwrap()) {
		return signal
	}

	return s.CheckPositionExit(current.Close)
}
