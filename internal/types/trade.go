package types

import "time"

// Trade is an executed order recorded by the backtest engine. Trades are
// immutable once created and live for the duration of the run.
type Trade struct {
	Timestamp time.Time    `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
	Action    SignalAction `yaml:"action" json:"action" csv:"action"`
	Price     float64      `yaml:"price" json:"price" csv:"price"`
	Size      float64      `yaml:"size" json:"size" csv:"size"`
	// PnL is the realized profit and loss of this trade. It is always 0 for a
	// BUY; for a SELL it is the exit value net of commission minus the
	// volume-weighted average entry cost of the sold units.
	PnL    float64 `yaml:"pnl" json:"pnl" csv:"pnl"`
	Reason string  `yaml:"reason" json:"reason" csv:"reason"`
}

// EquityPoint is one sample of the equity trajectory, appended per bar once
// warm-up has completed.
type EquityPoint struct {
	Timestamp time.Time `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
	// Equity is cash plus position value at the bar close. Equals cash alone
	// when the position is flat.
	Equity float64 `yaml:"equity" json:"equity" csv:"equity"`
	// Position is the open position size in units of the asset.
	Position float64 `yaml:"position" json:"position" csv:"position"`
	// ReturnsPct is the cumulative return of the equity relative to the
	// initial capital, as a percentage.
	ReturnsPct float64 `yaml:"returns_pct" json:"returns_pct" csv:"returns_pct"`
}
