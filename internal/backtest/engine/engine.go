// Package engine drives a single-threaded bar-by-bar simulation: it feeds
// bars to a strategy, executes the signals the strategy emits against a cash
// and position ledger, and hands the resulting equity curve and trade log to
// the analyzer.
package engine

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rxtech-lab/quantback/internal/backtest/analyzer"
	"github.com/rxtech-lab/quantback/internal/backtest/datasource"
	"github.com/rxtech-lab/quantback/internal/logger"
	"github.com/rxtech-lab/quantback/internal/strategy"
	"github.com/rxtech-lab/quantback/internal/types"
	"github.com/rxtech-lab/quantback/pkg/errors"
)

const (
	// sizeDust is the dust threshold for order quantities. Orders at or
	// below it are dropped instead of executed.
	sizeDust = 1e-8
	// cashDust absorbs float residue in the cash ledger after a trade.
	cashDust = 1e-10
)

// runState tracks the engine through its lifecycle. A run starts in warm-up,
// becomes active on the first bar with enough history inside the configured
// window, and is done once the feed is exhausted.
type runState int

const (
	stateWarmup runState = iota
	stateActive
	stateDone
)

// Result is the complete outcome of one backtest run.
type Result struct {
	InitialCapital float64            `json:"initial_capital"`
	FinalCapital   float64            `json:"final_capital"`
	FinalEquity    float64            `json:"final_equity"`
	FinalPosition  float64            `json:"final_position"`
	TotalCommission float64             `json:"total_commission"`
	Trades          []types.Trade       `json:"trades"`
	EquityCurve     []types.EquityPoint `json:"equity_curve"`
	Statistics      types.Statistics    `json:"statistics"`
	StartTime       time.Time           `json:"start_time"`
	EndTime         time.Time           `json:"end_time"`
	BarsProcessed   int                 `json:"bars_processed"`
}

// Engine owns the ledger for one run. It is single-threaded and single-use:
// create a fresh engine (and a fresh strategy) for every run.
type Engine struct {
	config Config
	strat  strategy.Strategy
	log    *logger.Logger

	state           runState
	capital         float64
	position        float64
	avgEntryPrice   float64
	totalCommission float64
	trades          []types.Trade
	equityCurve     []types.EquityPoint
	barsProcessed   int
}

// NewEngine creates an engine for the given validated config and strategy.
func NewEngine(config Config, strat strategy.Strategy, log *logger.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if strat == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "strategy is required")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Engine{
		config:  config,
		strat:   strat,
		log:     log,
		state:   stateWarmup,
		capital: config.InitialCapital,
	}, nil
}

// Run consumes the feed to exhaustion and returns the run result. Bars
// outside the configured window and bars seen before the strategy's look-back
// is satisfied only accumulate history; a run during which no bar was fully
// processed fails with ErrCodeNoDataProcessed.
func (e *Engine) Run(feed *datasource.Feed) (*Result, error) {
	if feed == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "data feed is required")
	}

	lookback := e.strat.LookbackPeriods()

	var firstBar, lastBar time.Time

	for {
		next := feed.Next()
		if next.IsNone() {
			break
		}

		bar := next.Unwrap()

		if e.config.EndTime.IsSome() && !bar.Time.Before(e.config.EndTime.Unwrap()) {
			break
		}

		if e.config.StartTime.IsSome() && bar.Time.Before(e.config.StartTime.Unwrap()) {
			continue
		}

		history := feed.LookBack(lookback)
		if len(history) < lookback {
			continue
		}

		if e.state == stateWarmup {
			e.state = stateActive

			e.log.Debug("warm-up complete",
				zap.Time("time", bar.Time),
				zap.Int("lookback", lookback),
			)
		}

		e.processBar(bar, history)

		if e.barsProcessed == 1 {
			firstBar = bar.Time
		}

		lastBar = bar.Time
	}

	e.state = stateDone

	if e.barsProcessed == 0 {
		return nil, errors.New(errors.ErrCodeNoDataProcessed, "no data processed")
	}

	finalEquity := e.equityCurve[len(e.equityCurve)-1].Equity
	stats := analyzer.Analyze(e.equityCurve, e.trades, e.config.InitialCapital)

	e.log.Info("backtest complete",
		zap.Int("bars", e.barsProcessed),
		zap.Int("trades", len(e.trades)),
		zap.Float64("final_equity", finalEquity),
	)

	return &Result{
		InitialCapital:  e.config.InitialCapital,
		FinalCapital:    e.capital,
		FinalEquity:     finalEquity,
		FinalPosition:   e.position,
		TotalCommission: e.totalCommission,
		Trades:          e.trades,
		EquityCurve:     e.equityCurve,
		Statistics:      stats,
		StartTime:       firstBar,
		EndTime:         lastBar,
		BarsProcessed:   e.barsProcessed,
	}, nil
}

// processBar runs the per-bar decision and accounting cycle on one in-window
// bar with a satisfied look-back.
func (e *Engine) processBar(bar types.MarketData, history []types.MarketData) {
	e.strat.UpdateAccountState(e.accountState(bar.Close))

	if signal := e.strat.OnData(bar, history); signal.IsSome() {
		e.execute(signal.Unwrap(), bar)
	}

	equity := e.capital + e.position*bar.Close
	returnsPct := (equity - e.config.InitialCapital) / e.config.InitialCapital * 100

	e.equityCurve = append(e.equityCurve, types.EquityPoint{
		Timestamp:  bar.Time,
		Equity:     equity,
		Position:   e.position,
		ReturnsPct: returnsPct,
	})
	e.barsProcessed++
}

// execute fills a signal at the bar close. Rejections are logged and skipped;
// they never abort the run.
func (e *Engine) execute(signal types.Signal, bar types.MarketData) {
	switch signal.Action {
	case types.SignalActionBuy:
		e.executeBuy(signal, bar)
	case types.SignalActionSell:
		e.executeSell(signal, bar)
	}
}

func (e *Engine) executeBuy(signal types.Signal, bar types.MarketData) {
	price := bar.Close
	unitCost := price * (1 + e.config.Commission)

	size := signal.Size
	if signal.IsPercent {
		size = signal.Size * (e.capital / unitCost)
	}

	// The fill is capped by the cash on hand (commission included) and by
	// the strategy's own position sizing.
	maxSize := e.capital / unitCost
	if limit := e.strat.CalculatePositionSize(e.capital, price); limit < maxSize {
		maxSize = limit
	}

	reason := signal.Reason

	if size > maxSize {
		if !signal.AdjustSize {
			e.log.Warn("buy rejected: insufficient capital",
				zap.Time("time", bar.Time),
				zap.Float64("size", size),
				zap.Float64("max_size", maxSize),
			)

			return
		}

		size = maxSize
		reason = reason + " (Adjusted Size)"
	}

	if size <= sizeDust {
		e.log.Warn("buy rejected: size too small",
			zap.Time("time", bar.Time),
			zap.Float64("size", size),
		)

		return
	}

	cost := decimal.NewFromFloat(size).
		Mul(decimal.NewFromFloat(price)).
		Mul(decimal.NewFromFloat(1 + e.config.Commission)).
		InexactFloat64()

	// Volume-weighted average entry across partial fills.
	oldValue := decimal.NewFromFloat(e.avgEntryPrice).Mul(decimal.NewFromFloat(e.position))
	newValue := decimal.NewFromFloat(size).Mul(decimal.NewFromFloat(price))
	e.avgEntryPrice = oldValue.Add(newValue).
		Div(decimal.NewFromFloat(e.position + size)).
		InexactFloat64()

	e.capital -= cost
	if e.capital < cashDust {
		e.capital = 0
	}

	e.position += size
	e.totalCommission += size * price * e.config.Commission

	e.recordTrade(types.Trade{
		Timestamp: bar.Time,
		Action:    types.SignalActionBuy,
		Price:     price,
		Size:      size,
		Reason:    reason,
	}, bar)
}

func (e *Engine) executeSell(signal types.Signal, bar types.MarketData) {
	if e.position <= 0 {
		e.log.Warn("sell rejected: no position", zap.Time("time", bar.Time))

		return
	}

	price := bar.Close

	size := signal.Size
	if signal.IsPercent {
		size = e.position * signal.Size
	}

	// Never oversell.
	if size > e.position {
		size = e.position
	}

	if size <= sizeDust {
		return
	}

	sizeDec := decimal.NewFromFloat(size)
	proceeds := sizeDec.
		Mul(decimal.NewFromFloat(price)).
		Mul(decimal.NewFromFloat(1 - e.config.Commission))
	entryCost := sizeDec.Mul(decimal.NewFromFloat(e.avgEntryPrice))
	pnl := proceeds.Sub(entryCost).InexactFloat64()

	e.capital += proceeds.InexactFloat64()
	e.position -= size
	e.totalCommission += size * price * e.config.Commission

	if e.position < sizeDust {
		e.position = 0
		e.avgEntryPrice = 0
	}

	e.recordTrade(types.Trade{
		Timestamp: bar.Time,
		Action:    types.SignalActionSell,
		Price:     price,
		Size:      size,
		PnL:       pnl,
		Reason:    signal.Reason,
	}, bar)
}

// recordTrade appends the trade, then pushes the post-trade account snapshot
// into the strategy before the stats update so entry tracking sees the new
// position.
func (e *Engine) recordTrade(trade types.Trade, bar types.MarketData) {
	e.trades = append(e.trades, trade)

	e.strat.UpdateAccountState(e.accountState(bar.Close))
	e.strat.UpdateTradeStats(bar.Time, trade.Price)

	e.log.Debug("trade executed",
		zap.Time("time", trade.Timestamp),
		zap.String("action", string(trade.Action)),
		zap.Float64("price", trade.Price),
		zap.Float64("size", trade.Size),
		zap.Float64("pnl", trade.PnL),
		zap.String("reason", trade.Reason),
	)
}

func (e *Engine) accountState(close float64) strategy.AccountState {
	return strategy.AccountState{
		Capital:        e.capital,
		InitialCapital: e.config.InitialCapital,
		Equity:         e.capital + e.position*close,
		Position:       e.position,
	}
}
