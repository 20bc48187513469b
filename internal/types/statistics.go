package types

// Fixed keys of the statistics map exposed to external consumers.
const (
	StatTotalReturn  = "Total Return (%)"
	StatAnnualReturn = "Annual Return (%)"
	StatMaxDrawdown  = "Max Drawdown (%)"
	StatSharpeRatio  = "Sharpe Ratio"
	StatWinRate      = "Win Rate (%)"
)

// Statistics summarizes a finished backtest run. It is computed by the
// analyzer as a pure function of the equity trajectory and trade log.
type Statistics struct {
	// TotalReturnPct is the last recorded return percentage (equity vs.
	// initial capital).
	TotalReturnPct float64 `yaml:"total_return_pct" json:"total_return_pct"`
	// AnnualReturnPct is the total return annualized over the elapsed
	// calendar days of the equity trajectory.
	AnnualReturnPct float64 `yaml:"annual_return_pct" json:"annual_return_pct"`
	// MaxDrawdownPct is the largest fractional decline of equity from its
	// running peak, reported as a positive percentage.
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct"`
	// SharpeRatio is the mean of per-bar equity returns over their standard
	// deviation, annualized by sqrt(252).
	SharpeRatio float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	// WinRatePct is the percentage of completed BUY->SELL cycles with
	// positive realized PnL.
	WinRatePct float64 `yaml:"win_rate_pct" json:"win_rate_pct"`

	NumberOfTrades int     `yaml:"number_of_trades" json:"number_of_trades"`
	WinningTrades  int     `yaml:"winning_trades" json:"winning_trades"`
	LosingTrades   int     `yaml:"losing_trades" json:"losing_trades"`
	ProfitFactor   float64 `yaml:"profit_factor" json:"profit_factor"`
	// RiskRewardRatio is the average winning PnL over the average losing
	// PnL magnitude. Zero when either side is empty.
	RiskRewardRatio float64 `yaml:"risk_reward_ratio" json:"risk_reward_ratio"`
	TradesPerDay    float64 `yaml:"trades_per_day" json:"trades_per_day"`
	// ProfitableDaysPct is the percentage of trading days with positive
	// realized PnL.
	ProfitableDaysPct float64 `yaml:"profitable_days_pct" json:"profitable_days_pct"`
}

// Map returns the fixed-key statistics map consumed by the REST facade and
// report renderer.
func (s Statistics) Map() map[string]float64 {
	return map[string]float64{
		StatTotalReturn:  s.TotalReturnPct,
		StatAnnualReturn: s.AnnualReturnPct,
		StatMaxDrawdown:  s.MaxDrawdownPct,
		StatSharpeRatio:  s.SharpeRatio,
		StatWinRate:      s.WinRatePct,
	}
}
