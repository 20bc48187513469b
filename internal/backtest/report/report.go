// Package report renders a finished backtest run as a human-readable text
// summary for CLI output.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/rxtech-lab/quantback/internal/backtest/engine"
)

const divider = "=================================================="

// Render formats the run result as a fixed-width text report.
func Render(symbol string, strategyName string, result *engine.Result) string {
	var b strings.Builder

	stats := result.Statistics

	fmt.Fprintf(&b, "%s\n", divider)
	fmt.Fprintf(&b, "Backtest Report: %s / %s\n", symbol, strategyName)
	fmt.Fprintf(&b, "Period: %s - %s\n",
		result.StartTime.Format(time.RFC3339), result.EndTime.Format(time.RFC3339))
	fmt.Fprintf(&b, "%s\n", divider)

	fmt.Fprintf(&b, "\nCapital Summary\n")
	fmt.Fprintf(&b, "  Initial Capital:    %14.2f\n", result.InitialCapital)
	fmt.Fprintf(&b, "  Final Equity:       %14.2f\n", result.FinalEquity)
	fmt.Fprintf(&b, "  Final Cash:         %14.2f\n", result.FinalCapital)
	fmt.Fprintf(&b, "  Open Position:      %14.8f\n", result.FinalPosition)
	fmt.Fprintf(&b, "  Total Commission:   %14.2f\n", result.TotalCommission)

	fmt.Fprintf(&b, "\nReturn Analysis\n")
	fmt.Fprintf(&b, "  Total Return:       %13.2f%%\n", stats.TotalReturnPct)
	fmt.Fprintf(&b, "  Annual Return:      %13.2f%%\n", stats.AnnualReturnPct)
	fmt.Fprintf(&b, "  Max Drawdown:       %13.2f%%\n", stats.MaxDrawdownPct)
	fmt.Fprintf(&b, "  Sharpe Ratio:       %14.2f\n", stats.SharpeRatio)

	fmt.Fprintf(&b, "\nTrade Statistics\n")
	fmt.Fprintf(&b, "  Bars Processed:     %14d\n", result.BarsProcessed)
	fmt.Fprintf(&b, "  Number of Trades:   %14d\n", stats.NumberOfTrades)
	fmt.Fprintf(&b, "  Winning Trades:     %14d\n", stats.WinningTrades)
	fmt.Fprintf(&b, "  Losing Trades:      %14d\n", stats.LosingTrades)
	fmt.Fprintf(&b, "  Win Rate:           %13.2f%%\n", stats.WinRatePct)
	fmt.Fprintf(&b, "  Profit Factor:      %14.2f\n", stats.ProfitFactor)
	fmt.Fprintf(&b, "  Risk/Reward:        %14.2f\n", stats.RiskRewardRatio)
	fmt.Fprintf(&b, "  Trades per Day:     %14.2f\n", stats.TradesPerDay)
	fmt.Fprintf(&b, "  Profitable Days:    %13.2f%%\n", stats.ProfitableDaysPct)
	fmt.Fprintf(&b, "%s\n", divider)

	return b.String()
}
